package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trialdesk-dev/trialdesk/internal/cli/navigation"
)

// NewOpenCmd creates the open command, which shows where a page leads for the
// current session
func NewOpenCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "open <location>",
		Short: "Check whether a page can be opened with the current session",
		Example: `  trialdesk open /projects
  trialdesk open /admin/users`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := env.App(cmd.Context())
			if err != nil {
				return err
			}

			from := app.Nav.Current()
			d := app.Nav.Navigate(cmd.Context(), args[0])

			switch d.Outcome {
			case navigation.Allow:
				fmt.Fprintf(app.out, "%s → %s\n", from, app.Nav.Current())
			case navigation.Redirect:
				fmt.Fprintf(app.out, "%s → %s (redirected: %s)\n", from, d.Location, d.Rule)
			default:
				return fmt.Errorf("%w: %s (%s)", ErrNavigationDenied, args[0], d.Rule)
			}
			return nil
		},
	}
}
