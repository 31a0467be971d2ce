package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakif/portfolio/internal/service"
)

func (c *cli) contactCmd() *cobra.Command {
	var f service.ContactForm

	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Send a message to the portfolio owner",
		Long: `Sends a contact message. Requires a logged-in session.

Missing fields are asked for interactively. If sending fails you are asked
whether to discard what you typed.

Example:
  portfolio contact --name Ada --email ada@example.com --message "Hello!"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			if _, err := a.enter("/contact"); err != nil {
				return err
			}

			for _, field := range []struct {
				label string
				value *string
			}{
				{"Name", &f.Name},
				{"Email", &f.Email},
				{"Message", &f.Message},
			} {
				if *field.value != "" {
					continue
				}
				v, err := a.prompt(field.label)
				if err != nil {
					return err
				}
				*field.value = v
			}

			a.contact.Edit(f)
			_, err := a.contact.Submit(cmd.Context())

			// A failed send leaves the form dirty, so leaving asks first. A
			// successful send cleared the form already.
			nav, navErr := a.nav.Navigate("/home")
			if navErr != nil {
				return errors.Join(err, navErr)
			}
			if nav.Blocked {
				kept := a.contact.Form().Get()
				fmt.Fprintf(a.out, "Draft kept. Resend with:\n  portfolio contact --name %q --email %q --message %q\n",
					kept.Name, kept.Email, kept.Message)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&f.Name, "name", "", "your name")
	cmd.Flags().StringVar(&f.Email, "email", "", "your email")
	cmd.Flags().StringVarP(&f.Message, "message", "m", "", "the message")
	return cmd
}
