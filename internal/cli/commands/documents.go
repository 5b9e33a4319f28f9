package commands

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/trialdesk-dev/trialdesk/internal/cli/client"
)

// NewDocumentsCmd creates the documents command group
func NewDocumentsCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs", "document"},
		Short:   "Upload and inspect a project's documents",
	}

	cmd.AddCommand(
		newDocumentsListCmd(env),
		newDocumentsShowCmd(env),
		newDocumentsAddCmd(env),
	)
	return cmd
}

func newDocumentsListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "ls <project-id>",
		Aliases: []string{"list"},
		Short:   "List the documents of a project",
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

			documents, err := app.API.ListDocuments(ctx, page.Param("projectId"))
			if err != nil {
				return err
			}

			if len(documents) == 0 && !printer.Structured() {
				fmt.Fprintln(app.out, "No documents found.")
				fmt.Fprintf(app.out, "\nUpload one with: trialdesk documents add %s <file>\n", args[0])
				return nil
			}
			return printer.Documents(documents)
		},
	}
}

func newDocumentsShowCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id> <document-id>",
		Short: "Show a document's text",
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

			document, err := app.API.GetDocument(ctx, page.Param("projectId"), args[1])
			if err != nil {
				return err
			}
			return printer.Document(document)
		},
	}
}

func newDocumentsAddCmd(env *Env) *cobra.Command {
	var (
		name     string
		metadata string
	)

	cmd := &cobra.Command{
		Use:   "add <project-id> <file>",
		Short: "Upload a text file as a document (- reads stdin)",
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

			text, err := app.readSource(args[1])
			if err != nil {
				return fmt.Errorf("failed to read document: %w", err)
			}
			if name == "" {
				if args[1] == "-" {
					return fmt.Errorf("--name is required when reading from stdin")
				}
				name = filepath.Base(args[1])
			}
			req := client.CreateDocumentRequest{Name: name, Text: string(text)}
			if metadata != "" {
				if !json.Valid([]byte(metadata)) {
					return fmt.Errorf("--metadata is not valid JSON")
				}
				req.Metadata = json.RawMessage(metadata)
			}

			page, err := app.Open(ctx, projectLocation(args[0]))
			if err != nil {
				return err
			}

			document, err := app.API.CreateDocument(ctx, page.Param("projectId"), req)
			if err != nil {
				return fmt.Errorf("failed to upload document: %w", err)
			}

			if printer.Structured() {
				return printer.Document(document)
			}
			fmt.Fprintf(app.out, "✓ Document %s uploaded (%s)\n", document.Name, document.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Document name (defaults to the file name)")
	cmd.Flags().StringVar(&metadata, "metadata", "", "JSON object stored with the document")
	return cmd
}
