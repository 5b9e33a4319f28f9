package commands

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/trialdesk-dev/trialdesk/internal/cli/client"
	"github.com/trialdesk-dev/trialdesk/internal/cli/navigation"
)

func projectLocation(id string) string {
	return navigation.PathProjects + "/" + url.PathEscape(id)
}

// NewProjectsCmd creates the projects command group
func NewProjectsCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "Manage projects",
	}

	cmd.AddCommand(
		newProjectsListCmd(env),
		newProjectsShowCmd(env),
		newProjectsCreateCmd(env),
		newProjectsUpdateCmd(env),
		newProjectsDeleteCmd(env),
	)
	return cmd
}

func newProjectsListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List your projects",
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
			if _, err := app.Open(ctx, navigation.PathProjects); err != nil {
				return err
			}

			projects, err := app.API.ListProjects(ctx)
			if err != nil {
				return err
			}

			if len(projects) == 0 && !printer.Structured() {
				fmt.Fprintln(app.out, "No projects found.")
				fmt.Fprintln(app.out, "\nCreate a project with: trialdesk projects create <name>")
				return nil
			}
			return printer.Projects(projects)
		},
	}
}

func newProjectsShowCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project",
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

			page, err := app.Open(ctx, projectLocation(args[0]))
			if err != nil {
				return err
			}

			project, err := app.API.GetProject(ctx, page.Param("projectId"))
			if err != nil {
				return err
			}
			return printer.Project(project)
		},
	}
}

func newProjectsCreateCmd(env *Env) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
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
			if _, err := app.Open(ctx, navigation.PathProjects); err != nil {
				return err
			}

			project, err := app.API.CreateProject(ctx, client.ProjectInput{
				Name:        args[0],
				Description: description,
			})
			if err != nil {
				return fmt.Errorf("failed to create project: %w", err)
			}

			if !printer.Structured() {
				fmt.Fprintln(app.out, "✓ Project created")
			}
			return printer.Project(project)
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Project description")
	return cmd
}

func newProjectsUpdateCmd(env *Env) *cobra.Command {
	var in client.ProjectInput

	cmd := &cobra.Command{
		Use:   "update <project-id>",
		Short: "Rename a project or change its status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if in == (client.ProjectInput{}) {
				return fmt.Errorf("nothing to update (use --name, --description or --status)")
			}

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

			project, err := app.API.UpdateProject(ctx, page.Param("projectId"), in)
			if err != nil {
				return fmt.Errorf("failed to update project: %w", err)
			}

			if !printer.Structured() {
				fmt.Fprintln(app.out, "✓ Project updated")
			}
			return printer.Project(project)
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "New name")
	cmd.Flags().StringVar(&in.Description, "description", "", "New description")
	cmd.Flags().StringVar(&in.Status, "status", "", "New status (active, inactive, completed, archived)")
	return cmd
}

func newProjectsDeleteCmd(env *Env) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <project-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a project and its trials",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := env.App(ctx)
			if err != nil {
				return err
			}

			page, err := app.Open(ctx, projectLocation(args[0]))
			if err != nil {
				return err
			}
			id := page.Param("projectId")

			if !yes {
				ok, err := app.confirm(fmt.Sprintf("Delete project %s", id))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(app.out, "Cancelled.")
					return nil
				}
			}

			if err := app.API.DeleteProject(ctx, id); err != nil {
				return fmt.Errorf("failed to delete project: %w", err)
			}

			fmt.Fprintf(app.out, "✓ Project %s deleted\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}
