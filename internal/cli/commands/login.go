package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/trialdesk-dev/trialdesk/internal/cli/client"
	"github.com/trialdesk-dev/trialdesk/internal/cli/navigation"
	"github.com/trialdesk-dev/trialdesk/internal/cli/userconfig"
)

// NewLoginCmd creates the login command
func NewLoginCmd(env *Env) *cobra.Command {
	var email, password, redirectTo string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with a trialdesk server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd, env, email, password, redirectTo)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set TRIALDESK_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set TRIALDESK_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&redirectTo, "redirect", "", "Page to open after logging in")

	return cmd
}

func runLogin(cmd *cobra.Command, env *Env, email, password, redirectTo string) error {
	ctx := cmd.Context()
	app, err := env.App(ctx)
	if err != nil {
		return err
	}

	location := navigation.PathLogin
	if redirectTo != "" {
		location = navigation.LoginLocation(redirectTo)
	}

	page, err := app.Open(ctx, location)
	if err != nil {
		var redirected *RedirectedError
		if errors.As(err, &redirected) && redirected.Rule == navigation.RulePublicOnly {
			fmt.Fprintf(app.out, "Already logged in as %s\n", app.Session.User().Email)
			return nil
		}
		return err
	}

	prefs, err := userconfig.Load()
	if err != nil {
		app.logger.Warn().Err(err).Msg("Failed to read user config")
		prefs = &userconfig.Config{}
	}

	email, err = app.valueOrPrompt(email, "TRIALDESK_EMAIL", "Email", "email", prefs.LastEmail(app.API.Server()))
	if err != nil {
		return err
	}
	password, err = app.passwordOrPrompt(password, "TRIALDESK_PASSWORD")
	if err != nil {
		return err
	}

	fmt.Fprintf(app.out, "Logging in to %s...\n", app.API.BaseURL())

	resp, err := app.API.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	user, err := establishSession(cmd, app, resp)
	if err != nil {
		return err
	}

	if env.Server != "" {
		prefs.Server = env.Server
	}
	prefs.RememberLogin(app.API.Server(), user.Email, time.Now())
	if err := prefs.Save(); err != nil {
		app.logger.Warn().Err(err).Msg("Failed to save user config")
	}

	fmt.Fprintln(app.out, "✓ Login successful!")
	fmt.Fprintf(app.out, "  User: %s (%s)\n", displayName(user), user.Email)
	if user.IsAdmin() {
		fmt.Fprintln(app.out, "  Role: Admin")
	}

	if returnTo := page.Query.Get(navigation.RedirectParam); returnTo != "" {
		landed, err := app.Open(ctx, returnTo)
		if err != nil {
			return err
		}
		fmt.Fprintf(app.out, "\nContinue at %s\n", landed.FullPath())
	}

	return nil
}

// establishSession stores the issued credential and its profile. When the
// response carries no profile it is fetched.
func establishSession(cmd *cobra.Command, app *App, resp *client.TokenResponse) (*client.User, error) {
	if err := app.Session.SetToken(resp.AccessToken); err != nil {
		return nil, fmt.Errorf("failed to save authentication token: %w", err)
	}

	if resp.User != nil {
		if err := app.Session.SetUser(resp.User); err != nil {
			return nil, err
		}
		return resp.User, nil
	}

	user, err := app.Session.FetchUser(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return user, nil
}
