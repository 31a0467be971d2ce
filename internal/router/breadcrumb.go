package router

import "strings"

// ProjectDetailsLabel is shown for a project whose name is not known.
const ProjectDetailsLabel = "Project Details"

// Breadcrumb is one step of the trail.
type Breadcrumb struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// NameLookup returns a project's display name by id.
type NameLookup func(id string) (string, bool)

// BuildBreadcrumbs walks the matched path from the root down.
//
//	/projects/7  →  [Projects /projects] [Hotel Booking /projects/7]
//	/projects    →  [Projects /projects]
//
// Levels that consumed no URL segment end the trail. A level with an "id"
// parameter is labelled with the project's name, or ProjectDetailsLabel when
// lookup does not know it. Levels without a label add to the URL but not to
// the trail.
func BuildBreadcrumbs(root *ActivatedRoute, lookup NameLookup) []Breadcrumb {
	out := []Breadcrumb{}
	if root == nil {
		return out
	}

	url := ""
	for _, level := range root.chain() {
		if len(level.Segments) == 0 {
			break
		}
		url += "/" + strings.Join(level.Segments, "/")

		label := level.Route.Breadcrumb
		if id, ok := level.Params["id"]; ok && id != "" {
			label = ProjectDetailsLabel
			if lookup != nil {
				if name, found := lookup(id); found && name != "" {
					label = name
				}
			}
		}

		if label != "" {
			out = append(out, Breadcrumb{Label: label, URL: url})
		}
	}
	return out
}
