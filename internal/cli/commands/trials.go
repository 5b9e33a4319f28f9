package commands

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func trialLocation(projectID, trialID string) string {
	return projectLocation(projectID) + "/trials/" + url.PathEscape(trialID)
}

// NewTrialsCmd creates the trials command group
func NewTrialsCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "trials",
		Aliases: []string{"trial"},
		Short:   "Run trials and inspect their results",
	}

	cmd.AddCommand(
		newTrialsListCmd(env),
		newTrialsShowCmd(env),
		newTrialsRunCmd(env),
	)
	return cmd
}

func newTrialsListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "ls <project-id>",
		Aliases: []string{"list"},
		Short:   "List the trials of a project",
		Args:    cobra.ExactArgs(1),
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

			page, err := app.Open(ctx, projectLocation(args[0]))
			if err != nil {
				return err
			}

			trials, err := app.API.ListTrials(ctx, page.Param("projectId"))
			if err != nil {
				return err
			}

			if len(trials) == 0 && !printer.Structured() {
				fmt.Fprintln(app.out, "No trials found.")
				fmt.Fprintf(app.out, "\nStart one with: trialdesk trials run %s <name>\n", args[0])
				return nil
			}
			return printer.Trials(trials)
		},
	}
}

func newTrialsShowCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id> <trial-id>",
		Short: "Show a trial's results",
		Args:  cobra.ExactArgs(2),
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

			page, err := app.Open(ctx, trialLocation(args[0], args[1]))
			if err != nil {
				return err
			}

			trial, err := app.API.GetTrial(ctx, page.Param("id"), page.Param("trialId"))
			if err != nil {
				return err
			}
			return printer.Trial(trial)
		},
	}
}

func newTrialsRunCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "run <project-id> <name>",
		Short: "Start a trial",
		Args:  cobra.ExactArgs(2),
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

			page, err := app.Open(ctx, projectLocation(args[0]))
			if err != nil {
				return err
			}

			trial, err := app.API.CreateTrial(ctx, page.Param("projectId"), args[1])
			if err != nil {
				return fmt.Errorf("failed to start trial: %w", err)
			}

			if printer.Structured() {
				return printer.Trial(trial)
			}
			fmt.Fprintf(app.out, "✓ Trial %s queued (%s)\n", trial.Name, trial.ID)
			fmt.Fprintf(app.out, "\nFollow it with: trialdesk trials show %s %s\n", trial.ProjectID, trial.ID)
			return nil
		},
	}
}
