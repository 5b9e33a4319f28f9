package commands

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/trialdesk-dev/trialdesk/internal/cli/client"
	"github.com/trialdesk-dev/trialdesk/internal/cli/navigation"
)

// NewRegisterCmd creates the register command
func NewRegisterCmd(env *Env) *cobra.Command {
	var email, password, fullName, invitation string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account on a trialdesk server",
		Long: `Create a regular account. Servers that require invitations accept the
token printed by 'trialdesk users invite'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd, env, client.RegisterRequest{
				Email:           email,
				Password:        password,
				FullName:        fullName,
				InvitationToken: invitation,
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (defaults to the invited address)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set TRIALDESK_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&fullName, "name", "", "Full name")
	cmd.Flags().StringVar(&invitation, "invitation", "", "Invitation token")

	return cmd
}

func runRegister(cmd *cobra.Command, env *Env, req client.RegisterRequest) error {
	ctx := cmd.Context()
	app, err := env.App(ctx)
	if err != nil {
		return err
	}

	location := navigation.PathRegister
	if req.InvitationToken != "" {
		location = "/invitations/" + url.PathEscape(req.InvitationToken)
	}
	if _, err := app.Open(ctx, location); err != nil {
		return err
	}

	if req.InvitationToken != "" {
		info, err := app.API.GetInvitation(ctx, req.InvitationToken)
		if err != nil {
			var apiErr *client.APIError
			if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
				return fmt.Errorf("failed to check invitation: %w", err)
			}
			info = &client.InvitationInfo{}
		}
		if !info.Valid {
			return errors.New("invitation is invalid or has expired")
		}
		if req.Email == "" {
			req.Email = info.Email
		}
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

	user, err := app.API.Register(ctx, req)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	fmt.Fprintf(app.out, "✓ Account created for %s\n", user.Email)
	fmt.Fprintln(app.out, "\nLog in with: trialdesk login --email "+user.Email)
	return nil
}
