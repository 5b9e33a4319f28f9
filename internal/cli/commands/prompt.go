package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

// isInteractive reports whether the app reads from a terminal
func (a *App) isInteractive() bool {
	f, ok := a.in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// valueOrPrompt returns value, falling back to the environment variable and
// then to an interactive prompt prefilled with def
func (a *App) valueOrPrompt(value, envVar, label, flag, def string) (string, error) {
	if value != "" {
		return value, nil
	}
	if envVar != "" {
		if v := os.Getenv(envVar); v != "" {
			return v, nil
		}
	}
	if !a.isInteractive() {
		hint := "--" + flag + " flag"
		if envVar != "" {
			hint += " or " + envVar + " env var"
		}
		return "", fmt.Errorf("%s is required in non-interactive mode (use %s)", strings.ToLower(label), hint)
	}

	prompt := promptui.Prompt{
		Label:   label,
		Default: def,
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s cannot be empty", strings.ToLower(label))
			}
			return nil
		},
		Stdin:  a.stdin(),
		Stdout: os.Stderr,
	}
	v, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("prompt cancelled: %w", err)
	}
	return strings.TrimSpace(v), nil
}

// passwordOrPrompt reads a password without echo when none was supplied
func (a *App) passwordOrPrompt(value, envVar string) (string, error) {
	if value != "" {
		return value, nil
	}
	if envVar != "" {
		if v := os.Getenv(envVar); v != "" {
			return v, nil
		}
	}
	if !a.isInteractive() {
		return "", fmt.Errorf("password is required in non-interactive mode (use --password flag or %s env var)", envVar)
	}

	f := a.in.(*os.File)
	fmt.Fprint(a.errOut, "Password: ")
	b, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(a.errOut)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
}

// confirm asks a yes/no question; without a terminal it reads one line
func (a *App) confirm(label string) (bool, error) {
	if a.isInteractive() {
		prompt := promptui.Prompt{
			Label:     label,
			IsConfirm: true,
			Stdin:     a.stdin(),
			Stdout:    os.Stderr,
		}
		if _, err := prompt.Run(); err != nil {
			if err == promptui.ErrAbort {
				return false, nil
			}
			return false, err
		}
		return true, nil
	}

	fmt.Fprintf(a.errOut, "%s [y/N]: ", label)
	line, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && line == "" {
		return false, nil
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func (a *App) stdin() *os.File {
	if f, ok := a.in.(*os.File); ok {
		return f
	}
	return os.Stdin
}
