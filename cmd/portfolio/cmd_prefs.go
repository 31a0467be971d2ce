package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/service"
)

func (c *cli) themeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "theme [light|dark|system|toggle]",
		Short:     "Show or change the colour theme",
		Long:      "Without an argument prints the stored preference and the theme in effect.",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"light", "dark", "system", "toggle"},
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			if len(args) == 1 {
				if args[0] == "toggle" {
					a.theme.Toggle(cmd.Context())
				} else {
					p, err := service.ParseThemePreference(args[0])
					if err != nil {
						return err
					}
					a.theme.Set(cmd.Context(), p)
				}
			}
			fmt.Fprintf(a.out, "preference: %s\nin effect:  %s\n", a.theme.Preference().Get(), a.theme.Resolved())
			return nil
		},
	}
}

func (c *cli) linksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "links",
		Short: "List the owner's social profiles",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			tw := tabwriter.NewWriter(c.app.out, 0, 0, 2, ' ', 0)
			for _, l := range model.DefaultSocialLinks() {
				fmt.Fprintf(tw, "%s\t%s\n", l.Name, l.URL)
			}
			return tw.Flush()
		},
	}
}
