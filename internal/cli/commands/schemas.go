package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/trialdesk-dev/trialdesk/internal/cli/client"
)

// NewSchemasCmd creates the schemas command group
func NewSchemasCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "schemas",
		Aliases: []string{"schema"},
		Short:   "Manage a project's extraction schemas",
	}

	cmd.AddCommand(
		newSchemasListCmd(env),
		newSchemasShowCmd(env),
		newSchemasCreateCmd(env),
		newSchemasDeleteCmd(env),
	)
	return cmd
}

// readSource reads a file, or the app's stdin when path is "-"
func (a *App) readSource(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(a.in)
	}
	return os.ReadFile(path)
}

func newSchemasListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "ls <project-id>",
		Aliases: []string{"list"},
		Short:   "List the schemas of a project",
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

			schemas, err := app.API.ListSchemas(ctx, page.Param("projectId"))
			if err != nil {
				return err
			}

			if len(schemas) == 0 && !printer.Structured() {
				fmt.Fprintln(app.out, "No schemas found.")
				fmt.Fprintf(app.out, "\nAdd one with: trialdesk schemas create %s <name> --file schema.json\n", args[0])
				return nil
			}
			return printer.Schemas(schemas)
		},
	}
}

func newSchemasShowCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id> <schema-id>",
		Short: "Show a schema and its definition",
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

			schema, err := app.API.GetSchema(ctx, page.Param("projectId"), args[1])
			if err != nil {
				return err
			}
			return printer.Schema(schema)
		},
	}
}

func newSchemasCreateCmd(env *Env) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "create <project-id> <name>",
		Short: "Create a schema from a JSON definition",
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

			definition, err := app.readSource(file)
			if err != nil {
				return fmt.Errorf("failed to read schema definition: %w", err)
			}
			if !json.Valid(definition) {
				return fmt.Errorf("schema definition in %s is not valid JSON", file)
			}

			page, err := app.Open(ctx, projectLocation(args[0]))
			if err != nil {
				return err
			}

			schema, err := app.API.CreateSchema(ctx, page.Param("projectId"), client.CreateSchemaRequest{
				Name:       args[1],
				Definition: definition,
			})
			if err != nil {
				return fmt.Errorf("failed to create schema: %w", err)
			}

			if printer.Structured() {
				return printer.Schema(schema)
			}
			fmt.Fprintf(app.out, "✓ Schema %s created (%s)\n", schema.Name, schema.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "JSON definition file, - for stdin")
	return cmd
}

func newSchemasDeleteCmd(env *Env) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <project-id> <schema-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a schema",
		Args:    cobra.ExactArgs(2),
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

			if !yes {
				ok, err := app.confirm(fmt.Sprintf("Delete schema %s", args[1]))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(app.out, "Cancelled.")
					return nil
				}
			}

			if err := app.API.DeleteSchema(ctx, page.Param("projectId"), args[1]); err != nil {
				return fmt.Errorf("failed to delete schema: %w", err)
			}

			fmt.Fprintf(app.out, "✓ Schema %s deleted\n", args[1])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}
