package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/auth"
	"github.com/sakif/portfolio/internal/model"
	"github.com/sakif/portfolio/internal/server"
)

// defaultLoginWait is how long a social login waits for the browser.
const defaultLoginWait = 5 * time.Minute

func (c *cli) loginCmd() *cobra.Command {
	var (
		email    string
		password string
		provider string
		wait     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with email and password, or through a social provider",
		Long: `Log in and keep the session for later commands.

With --provider the login happens in the browser: a one-shot local server
receives the callback, the session is stored and the server stops.

Example:
  portfolio login --email me@example.com
  portfolio login --provider github`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			if provider != "" {
				return a.providerLogin(cmd.Context(), provider, wait)
			}

			var err error
			if email == "" {
				if email, err = a.prompt("Email"); err != nil {
					return err
				}
			}
			if password == "" {
				if password, err = a.prompt("Password"); err != nil {
					return err
				}
			}
			if err := a.session.Login(cmd.Context(), model.LoginRequest{Email: email, Password: password}); err != nil {
				return err
			}
			a.printUser()
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	cmd.Flags().StringVar(&provider, "provider", "", "social login: google, github or facebook")
	cmd.Flags().DurationVar(&wait, "wait", defaultLoginWait, "how long to wait for the browser callback")
	cmd.MarkFlagsMutuallyExclusive("provider", "email")
	cmd.MarkFlagsMutuallyExclusive("provider", "password")
	return cmd
}

// providerLogin runs the browser round trip:
//
//	CLI ──start URL──▶ browser ──▶ backend ──▶ provider
//	                                  │
//	CLI ◀── /oauth2/redirect?token= ──┘  (local callback server)
func (a *app) providerLogin(ctx context.Context, provider string, wait time.Duration) error {
	redirect := auth.NewRedirectHandler(a.session, a.notifier, a.logger)
	srv := server.New(server.Config{Port: a.cfg.Callback.Port}, redirect, a.logger)

	// Build the URL first: an unknown provider should fail before we bind a port.
	login, err := auth.ProviderLoginURL(a.cfg.API.BaseURL, provider, srv.RedirectURL())
	if err != nil {
		a.notifier.Error(apperror.MessageOr(err, auth.StatusFailed))
		return err
	}

	if err := srv.Start(); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Open this address in your browser to continue:\n\n  %s\n\n", login.URL)

	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	outcome, err := srv.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for login callback: %w", err)
	}
	if outcome.Err != nil {
		return outcome.Err
	}
	a.printUser()
	return nil
}

func (c *cli) registerCmd() *cobra.Command {
	var req model.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			if req.Password == "" {
				var err error
				if req.Password, err = a.prompt("Password"); err != nil {
					return err
				}
			}
			if err := a.session.Register(cmd.Context(), req); err != nil {
				return err
			}
			a.printUser()
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			c.app.session.Logout()
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			c.app.printUser()
			return nil
		},
	}
}

func (a *app) printUser() {
	u := a.session.User()
	if !a.session.IsAuthenticated() || u == nil {
		fmt.Fprintln(a.out, "Not logged in.")
		return
	}

	fmt.Fprintf(a.out, "%s <%s>\n", u.Name, u.Email)
	fmt.Fprintf(a.out, "  role:    %s\n", u.Role)
	if exp := a.session.ExpiresAt(); !exp.IsZero() {
		fmt.Fprintf(a.out, "  expires: %s\n", exp.Local().Format(time.RFC1123))
	}
}
