package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trialdesk-dev/trialdesk/internal/cli/commands"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the trialdesk command tree. opts are applied to the App
// every subcommand runs against.
func NewRootCmd(opts ...commands.AppOption) *cobra.Command {
	env := commands.NewEnv(opts...)

	rootCmd := &cobra.Command{
		Use:   "trialdesk",
		Short: "trialdesk - run and review evaluation trials",
		Long: `trialdesk CLI - Manage projects and trials on a trialdesk server.

Every command opens a page of the server's app and is subject to the same
access rules: log in first, and admin pages need an admin account. A new
server must be set up with 'trialdesk setup' before anything else.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&env.Server, "server", "", "Server address (or set TRIALDESK_SERVER; defaults to the last server logged in to)")
	flags.BoolVar(&env.Insecure, "insecure", false, "Accept self-signed TLS certificates")
	flags.BoolVar(&env.Debug, "debug", false, "Log debug output to stderr")
	flags.StringVarP(&env.Output, "output", "o", commands.OutputTable, "Output format: table, json or yaml")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "trialdesk version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewSetupCmd(env))
	rootCmd.AddCommand(commands.NewLoginCmd(env))
	rootCmd.AddCommand(commands.NewLogoutCmd(env))
	rootCmd.AddCommand(commands.NewRegisterCmd(env))
	rootCmd.AddCommand(commands.NewWhoamiCmd(env))
	rootCmd.AddCommand(commands.NewOpenCmd(env))
	rootCmd.AddCommand(commands.NewProjectsCmd(env))
	rootCmd.AddCommand(commands.NewTrialsCmd(env))
	rootCmd.AddCommand(commands.NewSchemasCmd(env))
	rootCmd.AddCommand(commands.NewDocumentsCmd(env))
	rootCmd.AddCommand(commands.NewUsersCmd(env))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
