// Package model defines the data structures shared by the API client, the
// stores and the CLI.
//
// The JSON tags follow the remote API exactly (camelCase). The client never
// owns these records: it holds a read-through copy of whatever the backend
// last returned.
package model

// Project is a portfolio entry as returned by GET /projects.
//
// NULLABLE FIELDS:
// GithubLink, Challenges and WhatILearned are pointers because the backend
// sends an explicit null when they are unset. A nil pointer round-trips as
// null; an empty string would be sent back as "" and overwrite the server value.
type Project struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Technologies  []string `json:"technologies"`
	GithubLink    *string  `json:"githubLink"`
	Challenges    *string  `json:"challenges"`
	WhatILearned  *string  `json:"whatILearned"`
	Featured      bool     `json:"featured"`
	PhotoURLs     []string `json:"photoUrls"`
	Photos        []Photo  `json:"photos,omitempty"`
	AverageRating float64  `json:"averageRating"`
	TotalRatings  int      `json:"totalRatings"`
	CreatedAt     string   `json:"createdAt"`
	UpdatedAt     string   `json:"updatedAt"`

	// Expanded is view state only; it is never sent to or read from the API.
	Expanded bool `json:"-"`
}

// HasTechnology reports whether tech is one of the project's tags (exact match).
func (p Project) HasTechnology(tech string) bool {
	for _, t := range p.Technologies {
		if t == tech {
			return true
		}
	}
	return false
}

// ProjectInput is the body of POST /projects and PUT /projects/{id}.
type ProjectInput struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	GithubLink   *string  `json:"githubLink"`
	Challenges   *string  `json:"challenges"`
	WhatILearned *string  `json:"whatILearned"`
	Featured     bool     `json:"featured"`
}

// Photo is a stored image attached to a project (or the profile).
type Photo struct {
	ID        int64  `json:"id"`
	PhotoURL  string `json:"photoUrl"`
	ProjectID int64  `json:"projectId"`
}

// PhotoInput is the body of POST /photos once the image host has the file.
type PhotoInput struct {
	PhotoURL  string `json:"photoUrl"`
	ProjectID int64  `json:"projectId"`
}

// StringPtr returns nil for an empty string, else &s.
// Form fields use it so that "no link" is sent as null, not "".
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
