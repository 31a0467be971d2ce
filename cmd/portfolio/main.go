// Package main is the portfolio command-line client.
//
// WHAT IT IS:
// A terminal front end for the portfolio REST API. Every page of the web
// application has a command here: browse and rate projects, send a contact
// message, log in (with a password or through Google/GitHub/Facebook), and,
// for admins, manage projects and their photos.
//
// LAYOUT:
//
//	main.go         root command, global flags, process setup
//	app.go          builds every store and client from the configuration
//	cmd_auth.go     login, register, logout, whoami
//	cmd_projects.go projects list/show/technologies, rate, unrate
//	cmd_contact.go  contact
//	cmd_admin.go    admin import/save/delete/reset-ratings/photos
//	cmd_prefs.go    theme, links
//
// Commands never talk to the API directly. They call the same stores the web
// pages used; the stores decide what to send and which notification to show,
// and app.go prints those notifications as they appear.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	// Ctrl+C cancels the context, which aborts in-flight requests and a
	// login that is still waiting for its browser callback.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// execute runs one command line. Everything opened on the way (the storage
// backend, notification timers) is released before it returns, even when the
// command failed and cobra skipped the post-run hooks.
func execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	c := &cli{}
	defer c.close()

	root := c.rootCmd()
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)
	return root.ExecuteContext(ctx)
}

// cli carries the global flags and, once a command starts, the wired app.
type cli struct {
	verbose   bool
	metrics   bool
	assumeYes bool

	app *app
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "portfolio",
		Short: "Browse, rate and manage the portfolio from the terminal",
		Long: `portfolio is a client for the portfolio REST API.

Configuration comes from the environment (or a .env file):
  PORTFOLIO_API_BASE_URL   API root, default http://localhost:8080/api/v1
  PORTFOLIO_STORAGE        session store: a SQLite file or redis:// URL
  PORTFOLIO_CALLBACK_PORT  local port for social login callbacks
  CLOUDINARY_*             image host account used for photo uploads`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), appOptions{
				verbose:   c.verbose,
				metrics:   c.metrics,
				assumeYes: c.assumeYes,
				in:        cmd.InOrStdin(),
				out:       cmd.OutOrStdout(),
				errOut:    cmd.ErrOrStderr(),
			})
			if err != nil {
				return err
			}
			c.app = a
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "log at debug level")
	flags.BoolVar(&c.metrics, "metrics", false, "print request timings on exit")
	flags.BoolVarP(&c.assumeYes, "yes", "y", false, "answer yes to every confirmation")

	root.AddCommand(
		c.loginCmd(),
		c.registerCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.projectsCmd(),
		c.rateCmd(),
		c.unrateCmd(),
		c.contactCmd(),
		c.adminCmd(),
		c.themeCmd(),
		c.linksCmd(),
	)
	return root
}

func (c *cli) close() {
	if c.app != nil {
		c.app.close()
		c.app = nil
	}
}
