package commands

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/trialdesk-dev/trialdesk/internal/cli/userconfig"
	"github.com/trialdesk-dev/trialdesk/internal/logger"
)

const defaultServer = "http://localhost:8080"

// resolveServer picks the server address: the --server flag, then
// TRIALDESK_SERVER, then the address remembered by the last login.
func resolveServer(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if env := os.Getenv("TRIALDESK_SERVER"); env != "" {
		return env, nil
	}

	remembered, err := userconfig.GetServer()
	if err != nil {
		return "", err
	}
	if remembered != "" {
		return remembered, nil
	}
	return defaultServer, nil
}

func newCLILogger(debug bool) zerolog.Logger {
	level := "warn"
	if debug {
		level = "debug"
	}
	return logger.New(level, "console", os.Stderr)
}
