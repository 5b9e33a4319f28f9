package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/trialdesk-dev/trialdesk/internal/cli/client"
)

// Output formats accepted by --output
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// Printer renders API resources in the selected format
type Printer struct {
	out    io.Writer
	format string
}

func NewPrinter(out io.Writer, format string) (*Printer, error) {
	switch format {
	case "", OutputTable:
		format = OutputTable
	case OutputJSON, OutputYAML:
	default:
		return nil, fmt.Errorf("unknown output format %q (expected table, json or yaml)", format)
	}
	return &Printer{out: out, format: format}, nil
}

// Structured reports whether the printer emits machine-readable output
func (p *Printer) Structured() bool {
	return p.format != OutputTable
}

// encode writes v as JSON or YAML and reports whether it did
func (p *Printer) encode(v any) (bool, error) {
	switch p.format {
	case OutputJSON:
		enc := json.NewEncoder(p.out)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case OutputYAML:
		enc := yaml.NewEncoder(p.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	}
	return false, nil
}

func (p *Printer) table(header string, rows func(w io.Writer)) error {
	w := tabwriter.NewWriter(p.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, header)
	var rule []string
	for _, col := range strings.Split(header, "\t") {
		rule = append(rule, strings.Repeat("─", len(col)))
	}
	fmt.Fprintln(w, strings.Join(rule, "\t"))
	rows(w)
	return w.Flush()
}

func (p *Printer) User(u *client.User) error {
	if ok, err := p.encode(u); ok {
		return err
	}
	fmt.Fprintf(p.out, "  User: %s (%s)\n", displayName(u), u.Email)
	fmt.Fprintf(p.out, "  Role: %s\n", u.Role)
	return nil
}

func (p *Printer) Users(users []client.User) error {
	if ok, err := p.encode(users); ok {
		return err
	}
	return p.table("ID\tEMAIL\tNAME\tROLE\tACTIVE", func(w io.Writer) {
		for _, u := range users {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", u.ID, u.Email, u.FullName, u.Role, u.IsActive)
		}
	})
}

func (p *Printer) Invitation(inv *client.Invitation) error {
	if ok, err := p.encode(inv); ok {
		return err
	}
	fmt.Fprintf(p.out, "✓ Invitation created for %s\n", inv.Email)
	fmt.Fprintf(p.out, "  Token:   %s\n", inv.Token)
	fmt.Fprintf(p.out, "  Expires: %s\n", formatTime(inv.ExpiresAt))
	fmt.Fprintf(p.out, "\nThe invitee can register with: trialdesk register --invitation %s\n", inv.Token)
	return nil
}

func (p *Printer) Project(pr *client.Project) error {
	if ok, err := p.encode(pr); ok {
		return err
	}
	fmt.Fprintf(p.out, "Project %s\n", pr.Name)
	fmt.Fprintf(p.out, "  ID:          %s\n", pr.ID)
	fmt.Fprintf(p.out, "  Status:      %s\n", pr.Status)
	if pr.Description != "" {
		fmt.Fprintf(p.out, "  Description: %s\n", pr.Description)
	}
	fmt.Fprintf(p.out, "  Created:     %s\n", formatTime(pr.CreatedAt))
	fmt.Fprintf(p.out, "  Updated:     %s\n", formatTime(pr.UpdatedAt))
	return nil
}

func (p *Printer) Projects(projects []client.Project) error {
	if ok, err := p.encode(projects); ok {
		return err
	}
	return p.table("ID\tNAME\tSTATUS\tCREATED AT", func(w io.Writer) {
		for _, pr := range projects {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", pr.ID, pr.Name, pr.Status, formatTime(pr.CreatedAt))
		}
	})
}

func (p *Printer) Trial(t *client.Trial) error {
	if ok, err := p.encode(t); ok {
		return err
	}
	fmt.Fprintf(p.out, "Trial %s\n", t.Name)
	fmt.Fprintf(p.out, "  ID:       %s\n", t.ID)
	fmt.Fprintf(p.out, "  Status:   %s\n", t.Status)
	fmt.Fprintf(p.out, "  Progress: %s\n", formatProgress(t.Progress))
	if t.Message != "" {
		fmt.Fprintf(p.out, "  Message:  %s\n", t.Message)
	}
	if t.StartedAt != nil {
		fmt.Fprintf(p.out, "  Started:  %s\n", formatTime(*t.StartedAt))
	}
	if t.CompletedAt != nil {
		fmt.Fprintf(p.out, "  Finished: %s\n", formatTime(*t.CompletedAt))
	}
	return nil
}

func (p *Printer) Trials(trials []client.Trial) error {
	if ok, err := p.encode(trials); ok {
		return err
	}
	return p.table("ID\tNAME\tSTATUS\tPROGRESS\tCREATED AT", func(w io.Writer) {
		for _, t := range trials {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Name, t.Status, formatProgress(t.Progress), formatTime(t.CreatedAt))
		}
	})
}

func (p *Printer) Schema(s *client.Schema) error {
	if ok, err := p.encode(s); ok {
		return err
	}
	fmt.Fprintf(p.out, "Schema %s\n", s.Name)
	fmt.Fprintf(p.out, "  ID:      %s\n", s.ID)
	fmt.Fprintf(p.out, "  Created: %s\n", formatTime(s.CreatedAt))
	fmt.Fprintln(p.out, "  Definition:")
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, s.Definition, "    ", "  "); err != nil {
		pretty.Reset()
		pretty.Write(s.Definition)
	}
	fmt.Fprintf(p.out, "    %s\n", pretty.String())
	return nil
}

func (p *Printer) Schemas(schemas []client.Schema) error {
	if ok, err := p.encode(schemas); ok {
		return err
	}
	return p.table("ID\tNAME\tUPDATED AT", func(w io.Writer) {
		for _, s := range schemas {
			fmt.Fprintf(w, "%s\t%s\t%s\n", s.ID, s.Name, formatTime(s.UpdatedAt))
		}
	})
}

func (p *Printer) Document(d *client.Document) error {
	if ok, err := p.encode(d); ok {
		return err
	}
	fmt.Fprintf(p.out, "Document %s\n", d.Name)
	fmt.Fprintf(p.out, "  ID:       %s\n", d.ID)
	fmt.Fprintf(p.out, "  Created:  %s\n", formatTime(d.CreatedAt))
	if len(d.Metadata) > 0 {
		fmt.Fprintf(p.out, "  Metadata: %s\n", d.Metadata)
	}
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, d.Text)
	return nil
}

func (p *Printer) Documents(documents []client.Document) error {
	if ok, err := p.encode(documents); ok {
		return err
	}
	return p.table("ID\tNAME\tCREATED AT", func(w io.Writer) {
		for _, d := range documents {
			fmt.Fprintf(w, "%s\t%s\t%s\n", d.ID, d.Name, formatTime(d.CreatedAt))
		}
	})
}

func displayName(u *client.User) string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatProgress(p float64) string {
	return fmt.Sprintf("%.0f%%", p)
}
