package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/mrusso19/picshuttle/cmd/picshuttle/commands"
	"github.com/mrusso19/picshuttle/internal/cli/prompt"

	// Import prometheus metrics to register init() functions
	_ "github.com/mrusso19/picshuttle/pkg/metrics/prometheus"
)

func main() {
	if err := commands.Execute(); err != nil {
		if errors.Is(err, prompt.ErrAborted) {
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
