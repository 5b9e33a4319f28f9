package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := env.App(cmd.Context())
			if err != nil {
				return err
			}

			user := app.Session.User()
			if user == nil {
				return &LoginRequiredError{}
			}

			printer, err := env.Printer(app)
			if err != nil {
				return err
			}
			if !printer.Structured() {
				fmt.Fprintf(app.out, "Logged in to %s\n", app.API.BaseURL())
			}
			return printer.User(user)
		},
	}
}
