package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sakif/portfolio/internal/service"
)

// adminCmd groups the admin panel. Every subcommand enters /admin first, so
// the auth and admin guards run before anything is sent.
func (c *cli) adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage projects and photos (admin accounts only)",
	}

	photos := &cobra.Command{
		Use:   "photos",
		Short: "Manage project photos",
	}
	photos.AddCommand(c.adminPhotosUploadCmd(), c.adminPhotosDeleteCmd())

	cmd.AddCommand(
		c.adminImportCmd(),
		c.adminSaveCmd(),
		c.adminDeleteCmd(),
		c.adminResetRatingsCmd(),
		photos,
	)
	return cmd
}

func (c *cli) adminImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Create or update projects from a JSON document",
		Long: `Imports one project object or an array of them.

Items need name, description and technologies. Items carrying an "id" update
that project; the others are created. Items missing a required key are
skipped and counted.

Example:
  portfolio admin import projects.json
  cat projects.json | portfolio admin import -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			if _, err := a.enter("/admin"); err != nil {
				return err
			}

			var (
				raw []byte
				err error
			)
			if args[0] == "-" {
				raw, err = io.ReadAll(cmd.InOrStdin())
			} else {
				raw, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("reading import document: %w", err)
			}

			res, err := a.admin.BulkImport(cmd.Context(), raw)
			fmt.Fprintf(a.out, "valid: %d  invalid: %d  imported: %d  failed: %d\n",
				res.Valid, res.Invalid, res.Succeeded, res.Failed)
			return err
		},
	}
}

func (c *cli) adminSaveCmd() *cobra.Command {
	var (
		f    service.ProjectForm
		tech string
	)

	cmd := &cobra.Command{
		Use:   "save [id]",
		Short: "Create a project, or edit one when an id is given",
		Long: `Without an id, creates a project from the flags.
With an id, loads that project and changes only the flags you pass.

Example:
  portfolio admin save --name "Pac-Man Clone" --description "Arcade remake in C" --tech "C, SDL"
  portfolio admin save 7 --featured`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			if _, err := a.enter("/admin"); err != nil {
				return err
			}

			var id int64
			form := f
			if len(args) == 1 {
				var err error
				if id, err = parseID(args[0]); err != nil {
					return err
				}
				p, err := a.projects.Lookup(cmd.Context(), id)
				if err != nil {
					return err
				}
				form = overlayForm(service.EditForm(*p), f, cmd)
			}
			if cmd.Flags().Changed("tech") || id == 0 {
				form.Technologies = service.ParseTechnologies(tech)
			}

			p, err := a.admin.Save(cmd.Context(), id, form)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%d\t%s\n", p.ID, p.Name)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.Name, "name", "", "project name (3+ characters)")
	flags.StringVar(&f.Description, "description", "", "description (10+ characters)")
	flags.StringVar(&tech, "tech", "", "comma-separated technologies")
	flags.StringVar(&f.GithubLink, "github", "", "repository URL")
	flags.StringVar(&f.Challenges, "challenges", "", "challenges faced")
	flags.StringVar(&f.WhatILearned, "learned", "", "what was learned")
	flags.BoolVar(&f.Featured, "featured", false, "show on the home page")
	return cmd
}

// overlayForm copies the flags the user actually passed onto base.
func overlayForm(base, flags service.ProjectForm, cmd *cobra.Command) service.ProjectForm {
	changed := cmd.Flags().Changed
	if changed("name") {
		base.Name = flags.Name
	}
	if changed("description") {
		base.Description = flags.Description
	}
	if changed("github") {
		base.GithubLink = flags.GithubLink
	}
	if changed("challenges") {
		base.Challenges = flags.Challenges
	}
	if changed("learned") {
		base.WhatILearned = flags.WhatILearned
	}
	if changed("featured") {
		base.Featured = flags.Featured
	}
	return base
}

func (c *cli) adminDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			if _, err := a.enter("/admin"); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.projects.Delete(cmd.Context(), id, a.confirm("Are you sure you want to delete this project?"))
		},
	}
}

func (c *cli) adminResetRatingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-ratings <id>",
		Short: "Delete every rating of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			if _, err := a.enter("/admin"); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.projects.ResetRatings(cmd.Context(), id, a.confirm("Are you sure you want to reset all ratings for this project?"))
		},
	}
}

func (c *cli) adminPhotosUploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <project-id> <file>...",
		Short: "Upload photos to the image host and attach them to a project",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			if _, err := a.enter("/admin"); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			files := make([]service.PhotoFile, 0, len(args)-1)
			for _, path := range args[1:] {
				fh, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("opening photo: %w", err)
				}
				defer fh.Close()
				files = append(files, service.PhotoFile{Name: filepath.Base(path), Content: fh})
			}

			photos, err := a.admin.UploadPhotos(cmd.Context(), id, files)
			if err != nil {
				return err
			}
			for _, p := range photos {
				fmt.Fprintf(a.out, "%d\t%s\n", p.ID, p.PhotoURL)
			}
			return nil
		},
	}
}

func (c *cli) adminPhotosDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <photo-id>",
		Short: "Remove a photo from its project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			if _, err := a.enter("/admin"); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return a.admin.DeletePhoto(cmd.Context(), id, a.confirm("Are you sure you want to delete this photo?"))
		},
	}
}
