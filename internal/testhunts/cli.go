package testhunts

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/questpace/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging sends log output to both stderr and a file. If logFile is
// empty, a timestamped filename is generated. Stdout is left for reports.
func SetupLogging(logFile string, verbose bool) error {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "paceforge_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.InitWithWriter(io.MultiWriter(os.Stderr, file), logger.FormatText); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for paceforge.
func ShowHelp() {
	os.Stdout.WriteString(`paceforge
=========

Generates synthetic hunt cohorts and checks the pace service against them.

Usage:
  go run ./cmd/paceforge <command> [options]

Commands:
  generate   Write a cohort YAML file of noisy synthetic runs
  analyze    Analyze a cohort file locally and print the report JSON
  verify     Compare a running service's /pace report with a local analysis

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -runs int
        Number of runs to generate (default 2000)
  -quests int
        Number of distinct quests (default 3)
  -seed uint
        Generator seed (default 1)
  -noise float
        Fraction of runs with an injected recording fault (default 0.2)
  -workers int
        Number of concurrent generator workers (default CPU cores)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Cohort file written by generate (default: cohort_TIMESTAMP.yaml)
  -input string
        Cohort file read by analyze and verify
  -mode string
        Checkpoint mode: fine or objective (default "fine")
  -quest int
        Only runs of this quest (analyze, verify)
  -weapon string
        Only runs with this weapon (analyze, verify)
  -category string
        Only runs in this category (analyze, verify)
  -solo
        Only solo runs (analyze, verify)
  -log string
        Log file (default: paceforge_TIMESTAMP.log)
  -verbose
        Enable debug logging
  -help
        Show this help message

verify assumes the service runs with default outlier and collision settings
and is serving the same cohort file.

Examples:
  go run ./cmd/paceforge generate -runs 5000 -output data/cohort.yaml
  go run ./cmd/paceforge analyze -input data/cohort.yaml -quest 2 -mode objective
  go run ./cmd/paceforge verify -input data/cohort.yaml -quest 1 -weapon bow
`)
}
