// Package notify is the client's toast layer. On a terminal a toast is a single
// styled line on stderr.
package notify

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/manifoldco/promptui"
)

// Kind is the severity of a notification
type Kind string

const (
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Position is where a notification is anchored on screens that have one
type Position string

const (
	TopRight    Position = "top-right"
	TopCenter   Position = "top-center"
	BottomRight Position = "bottom-right"
)

// Options controls how long and where a notification is shown
type Options struct {
	Timeout  time.Duration
	Position Position
}

// Notifier shows a notification without waiting for it to be dismissed
type Notifier interface {
	Notify(kind Kind, message string, opts Options)
}

// Terminal writes notifications to w
type Terminal struct {
	mu  sync.Mutex
	out io.Writer
}

func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{out: w}
}

// Notify writes one line. Timeout and position have no meaning on a terminal.
func (t *Terminal) Notify(kind Kind, message string, _ Options) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "%s %s\n", icon(kind), message)
}

func icon(kind Kind) string {
	switch kind {
	case KindSuccess:
		return promptui.Styler(promptui.FGGreen)("✓")
	case KindWarning:
		return promptui.Styler(promptui.FGYellow)("!")
	case KindError:
		return promptui.Styler(promptui.FGRed)("✗")
	default:
		return promptui.Styler(promptui.FGCyan)("i")
	}
}
