package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trialdesk-dev/trialdesk/internal/cli/navigation"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credential for the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := env.App(cmd.Context())
			if err != nil {
				return err
			}

			if !app.Session.IsAuthenticated() {
				fmt.Fprintln(app.out, "Not logged in.")
				return nil
			}

			app.Session.Logout()
			if err := app.Nav.Replace(navigation.PathLogin); err != nil {
				return err
			}

			fmt.Fprintln(app.out, "✓ Logged out")
			return nil
		},
	}
}
