package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trialdesk-dev/trialdesk/internal/cli/navigation"
)

// NewUsersCmd creates the admin users command group
func NewUsersCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage accounts (admin only)",
	}

	cmd.AddCommand(
		newUsersListCmd(env),
		newUsersDeleteCmd(env),
		newUsersInviteCmd(env),
	)
	return cmd
}

func newUsersListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List all accounts",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := env.App(ctx)
			if err != nil {
				return err
			}
			printer, err := env.Printer(app)
			if err != nil {
				return err
			}
			if _, err := app.Open(ctx, navigation.PathAdminUsers); err != nil {
				return err
			}

			users, err := app.API.ListUsers(ctx)
			if err != nil {
				return err
			}
			return printer.Users(users)
		},
	}
}

func newUsersDeleteCmd(env *Env) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <user-id>",
		Aliases: []string{"rm"},
		Short:   "Delete an account",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := env.App(ctx)
			if err != nil {
				return err
			}
			if _, err := app.Open(ctx, navigation.PathAdminUsers); err != nil {
				return err
			}

			if !yes {
				ok, err := app.confirm(fmt.Sprintf("Delete user %s", args[0]))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(app.out, "Cancelled.")
					return nil
				}
			}

			if err := app.API.DeleteUser(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete user: %w", err)
			}

			fmt.Fprintf(app.out, "✓ User %s deleted\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}

func newUsersInviteCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "invite <email>",
		Short: "Invite someone to register",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := env.App(ctx)
			if err != nil {
				return err
			}
			printer, err := env.Printer(app)
			if err != nil {
				return err
			}
			if _, err := app.Open(ctx, navigation.PathAdminUsers); err != nil {
				return err
			}

			inv, err := app.API.CreateInvitation(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to create invitation: %w", err)
			}
			return printer.Invitation(inv)
		},
	}
}
