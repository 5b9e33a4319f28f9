package notify

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestTerminal_Notify(t *testing.T) {
	var out bytes.Buffer
	n := NewTerminal(&out)

	n.Notify(KindError, "Your session has expired.", Options{Timeout: 3 * time.Second, Position: TopRight})
	n.Notify(KindSuccess, "Project created", Options{})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), out.String())
	}
	if !strings.Contains(lines[0], "Your session has expired.") || !strings.Contains(lines[0], "✗") {
		t.Errorf("unexpected error line: %q", lines[0])
	}
	if !strings.Contains(lines[1], "✓") {
		t.Errorf("unexpected success line: %q", lines[1])
	}
}
