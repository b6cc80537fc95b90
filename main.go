// Package main is the entry point for the jbranch CLI application.
package main

import (
	"os"

	"github.com/danielolaszy/jbranch/cmd"
	"github.com/danielolaszy/jbranch/internal/logging"
)

// main is the entry point of the application.
// It executes the root command and maps any error to the exit status.
func main() {
	logging.Debug("starting jbranch", "version", "1.0.0", "log_level", logging.LevelFromEnv())

	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.Report(os.Stderr, err))
	}
}
