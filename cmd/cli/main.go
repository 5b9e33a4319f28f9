package main

import (
	"os"

	"github.com/trialdesk-dev/trialdesk/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
