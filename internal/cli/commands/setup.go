package commands

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/trialdesk-dev/trialdesk/internal/cli/client"
	"github.com/trialdesk-dev/trialdesk/internal/cli/navigation"
)

// NewSetupCmd creates the setup command
func NewSetupCmd(env *Env) *cobra.Command {
	var email, password, fullName string

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the first admin account on a new server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup(cmd, env, client.FirstAdminRequest{
				Email:    email,
				Password: password,
				FullName: fullName,
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin email address (or set TRIALDESK_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (or set TRIALDESK_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&fullName, "name", "", "Admin full name")

	return cmd
}

func runSetup(cmd *cobra.Command, env *Env, req client.FirstAdminRequest) error {
	ctx := cmd.Context()
	app, err := env.App(ctx)
	if err != nil {
		return err
	}

	if _, err := app.Open(ctx, navigation.PathFirstAdmin); err != nil {
		return err
	}

	req.Email, err = app.valueOrPrompt(req.Email, "TRIALDESK_EMAIL", "Email", "email", "")
	if err != nil {
		return err
	}
	req.FullName, err = app.valueOrPrompt(req.FullName, "", "Full name", "name", "")
	if err != nil {
		return err
	}
	req.Password, err = app.passwordOrPrompt(req.Password, "TRIALDESK_PASSWORD")
	if err != nil {
		return err
	}

	resp, err := app.API.CreateFirstAdmin(ctx, req)
	if err != nil {
		if client.StatusCode(err) == http.StatusConflict {
			app.Bootstrap.Reset()
			return fmt.Errorf("setup has already been completed")
		}
		return fmt.Errorf("failed to create admin account: %w", err)
	}

	// The cached "setup needed" answer is stale now that an admin exists.
	app.Bootstrap.Reset()

	user, err := establishSession(cmd, app, resp)
	if err != nil {
		return err
	}

	landed, err := app.Open(ctx, navigation.PathLanding)
	if err != nil {
		return err
	}

	fmt.Fprintln(app.out, "✓ Admin account created")
	fmt.Fprintf(app.out, "  User: %s (%s)\n", displayName(user), user.Email)
	fmt.Fprintf(app.out, "\nContinue at %s\n", landed.FullPath())
	return nil
}
