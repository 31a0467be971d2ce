package main

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sakif/portfolio/internal/imagehost"
	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/router"
)

func (c *cli) projectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Browse the portfolio projects",
	}
	cmd.AddCommand(c.projectsListCmd(), c.projectsShowCmd(), c.projectsTechnologiesCmd())
	return cmd
}

func (c *cli) projectsListCmd() *cobra.Command {
	var f model.Filters

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects, optionally filtered",
		Long: `Lists every project matching all of the given filters.

Example:
  portfolio projects list --search hotel
  portfolio projects list --tech Java --min-rating 4 --featured`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			if _, err := a.enter("/projects"); err != nil {
				return err
			}
			if err := a.projects.Refresh(cmd.Context()); err != nil {
				return err
			}
			a.projects.UpdateFilters(func(model.Filters) model.Filters { return f })

			list := a.projects.Filtered().Get()
			if len(list) == 0 {
				fmt.Fprintln(a.out, "No projects match these filters.")
				return nil
			}

			tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tRATING\tTECHNOLOGIES\t")
			for _, p := range list {
				name := p.Name
				if p.Featured {
					name += " *"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s %.1f (%d)\t%s\t\n",
					p.ID, name, stars(p.AverageRating), p.AverageRating, p.TotalRatings,
					strings.Join(p.Technologies, ", "))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&f.SearchTerm, "search", "s", "", "match name or description (case-insensitive)")
	cmd.Flags().StringVarP(&f.Technology, "tech", "t", "", "only projects using this technology")
	cmd.Flags().Float64Var(&f.MinRating, "min-rating", 0, "only projects rated at least this")
	cmd.Flags().BoolVar(&f.FeaturedOnly, "featured", false, "only featured projects")
	return cmd
}

func (c *cli) projectsTechnologiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "technologies",
		Short: "List every technology used across projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			if err := a.projects.Refresh(cmd.Context()); err != nil {
				return err
			}
			for _, t := range a.projects.Technologies().Get() {
				fmt.Fprintln(a.out, t)
			}
			return nil
		},
	}
}

func (c *cli) projectsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one project with its ratings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			route, err := a.enter("/projects/" + args[0])
			if err != nil {
				return err
			}
			// The list feeds the breadcrumb label; a failure is already
			// reported and Lookup below falls back to the single fetch.
			_ = a.projects.Refresh(cmd.Context())

			p, err := a.projects.Lookup(cmd.Context(), id)
			if err != nil {
				return err
			}
			if err := a.ratings.Load(cmd.Context(), id); err != nil {
				return err
			}
			dist, err := a.ratings.Distribution(cmd.Context())
			if err != nil {
				return err
			}

			a.printBreadcrumbs(router.BuildBreadcrumbs(route, a.projects.NameOf))
			a.printProject(*p)
			a.printRatings(dist)
			return nil
		},
	}
}

func (c *cli) rateCmd() *cobra.Command {
	var comment string

	cmd := &cobra.Command{
		Use:   "rate <project-id> <stars>",
		Short: "Rate a project from 1 to 5 stars (updates an earlier rating)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("stars must be a number, got %q", args[1])
			}
			if n < model.MinStars || n > model.MaxStars {
				// Submit refuses these before touching the API.
				return a.ratings.Submit(cmd.Context(), n, comment)
			}

			if err := a.ratings.Load(cmd.Context(), id); err != nil {
				return err
			}
			// Keep the earlier comment unless a new one is given.
			if !cmd.Flags().Changed("comment") {
				comment = a.ratings.Draft().Get().Comment
			}
			return a.ratings.Submit(cmd.Context(), n, comment)
		},
	}

	cmd.Flags().StringVarP(&comment, "comment", "m", "", "optional comment")
	return cmd
}

func (c *cli) unrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unrate <project-id>",
		Short: "Remove your rating from a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.ratings.Load(cmd.Context(), id); err != nil {
				return err
			}
			if !a.ratings.HasRated() {
				return fmt.Errorf("you have not rated project %d", id)
			}
			return a.ratings.Delete(cmd.Context(), a.confirm("Are you sure you want to delete your rating?"))
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// stars draws five stars the way the rating widget does: full, half or empty.
func stars(average float64) string {
	var b strings.Builder
	for i := model.MinStars; i <= model.MaxStars; i++ {
		switch model.StarClass(i, average) {
		case model.StarFilled:
			b.WriteString("★")
		case model.StarHalf:
			b.WriteString("⯪")
		default:
			b.WriteString("☆")
		}
	}
	return b.String()
}

func (a *app) printBreadcrumbs(trail []router.Breadcrumb) {
	labels := make([]string, len(trail))
	for i, b := range trail {
		labels[i] = b.Label
	}
	fmt.Fprintf(a.out, "Home › %s\n\n", strings.Join(labels, " › "))
}

func (a *app) printProject(p model.Project) {
	fmt.Fprintln(a.out, p.Name)
	fmt.Fprintln(a.out, strings.Repeat("=", len([]rune(p.Name))))
	fmt.Fprintln(a.out, p.Description)
	fmt.Fprintln(a.out)

	if len(p.Technologies) > 0 {
		fmt.Fprintf(a.out, "Technologies:   %s\n", strings.Join(p.Technologies, ", "))
	}
	if p.GithubLink != nil {
		fmt.Fprintf(a.out, "GitHub:         %s\n", *p.GithubLink)
	}
	if p.Challenges != nil {
		fmt.Fprintf(a.out, "Challenges:     %s\n", *p.Challenges)
	}
	if p.WhatILearned != nil {
		fmt.Fprintf(a.out, "What I learned: %s\n", *p.WhatILearned)
	}
	for _, u := range p.PhotoURLs {
		fmt.Fprintf(a.out, "Photo:          %s\n", a.images.ThumbnailURL(u, imagehost.ThumbnailWidth, imagehost.ThumbnailHeight))
	}
}

func (a *app) printRatings(dist model.RatingDistribution) {
	st := a.ratings.State().Get()

	fmt.Fprintf(a.out, "\nRating: %s %.1f from %d rating(s)\n", stars(st.Average), st.Average, st.Count)
	for i := model.MaxStars; i >= model.MinStars; i-- {
		fmt.Fprintf(a.out, "  %d★ %s %d\n", i, strings.Repeat("▇", dist[i]), dist[i])
	}
	if st.Mine != nil {
		fmt.Fprintf(a.out, "Your rating: %d★", st.Mine.Rating)
		if st.Mine.Comment != "" {
			fmt.Fprintf(a.out, " %q", st.Mine.Comment)
		}
		fmt.Fprintln(a.out)
	}

	for _, r := range st.Ratings {
		if r.Comment == "" {
			continue
		}
		fmt.Fprintf(a.out, "  %s  %s\n", stars(float64(r.Rating)), r.Comment)
	}
}
