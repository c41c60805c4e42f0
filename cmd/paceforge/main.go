package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/questpace/internal/domain/model"
	"github.com/okian/questpace/internal/testhunts"
)

// Default configuration constants.
const (
	defaultNumRuns     = 2000
	defaultNumQuests   = 3
	defaultSeed        = 1
	defaultNoiseRate   = 0.2
	defaultTimeout     = 30 * time.Second
	defaultToolTimeout = 10 * time.Minute
)

func main() {
	if len(os.Args) < 2 || os.Args[1] == "-help" || os.Args[1] == "--help" {
		testhunts.ShowHelp()
		return
	}
	command := os.Args[1]

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	var (
		baseURL   = fs.String("url", "http://localhost:9080", "Base URL of the service")
		numRuns   = fs.Int("runs", defaultNumRuns, "Number of runs to generate")
		numQuests = fs.Int("quests", defaultNumQuests, "Number of distinct quests")
		seed      = fs.Uint64("seed", defaultSeed, "Generator seed")
		noise     = fs.Float64("noise", defaultNoiseRate, "Fraction of runs with an injected recording fault")
		workers   = fs.Int("workers", runtime.NumCPU(), "Number of concurrent generator workers")
		timeout   = fs.Duration("timeout", defaultTimeout, "HTTP request timeout")
		output    = fs.String("output", "", "Cohort file written by generate (default: cohort_TIMESTAMP.yaml)")
		input     = fs.String("input", "", "Cohort file read by analyze and verify")
		mode      = fs.String("mode", "fine", "Checkpoint mode: fine or objective")
		quest     = fs.Int("quest", 0, "Only runs of this quest")
		weapon    = fs.String("weapon", "", "Only runs with this weapon")
		category  = fs.String("category", "", "Only runs in this category")
		solo      = fs.Bool("solo", false, "Only solo runs")
		logFile   = fs.String("log", "", "Log file (default: paceforge_TIMESTAMP.log)")
		verbose   = fs.Bool("verbose", false, "Enable debug logging")
	)
	if err := fs.Parse(os.Args[2:]); err != nil {
		os.Stderr.WriteString("Invalid arguments: " + err.Error() + "\n")
		os.Exit(2)
	}

	if err := testhunts.SetupLogging(*logFile, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultToolTimeout)
	defer cancel()

	config := &testhunts.Config{
		BaseURL:   *baseURL,
		NumRuns:   *numRuns,
		NumQuests: *numQuests,
		Seed:      *seed,
		NoiseRate: *noise,
		Workers:   *workers,
		Timeout:   *timeout,
		Output:    *output,
		Input:     *input,
		Mode:      *mode,
		Filter: model.Filter{
			QuestID:  *quest,
			Weapon:   *weapon,
			Category: *category,
			SoloOnly: *solo,
		},
		LogFile: *logFile,
		Verbose: *verbose,
	}

	var err error
	switch command {
	case "generate":
		err = testhunts.RunGenerate(ctx, config)
	case "analyze":
		err = testhunts.RunAnalyze(ctx, config, os.Stdout)
	case "verify":
		err = testhunts.RunVerify(ctx, config)
	default:
		testhunts.ShowHelp()
		os.Exit(2)
	}
	if err != nil {
		os.Stderr.WriteString(command + " failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
