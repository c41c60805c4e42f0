package testhunts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/okian/questpace/internal/adapters/cohortfile"
	"github.com/okian/questpace/internal/domain/analysis"
	"github.com/okian/questpace/internal/domain/checkpoint"
	"github.com/okian/questpace/internal/domain/model"
	"github.com/okian/questpace/internal/domain/types"
	"github.com/okian/questpace/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// RunGenerate generates a cohort and writes it to config.Output.
func RunGenerate(ctx context.Context, config *Config) error {
	stats := newStats()

	logger.Get().Info(ctx, "starting hunt generation",
		logger.Int("runs", config.NumRuns),
		logger.Int("quests", config.NumQuests),
		logger.Float64("noiseRate", config.NoiseRate),
		logger.Int("workers", config.Workers),
		logger.String("output", config.Output))

	gens, err := Generate(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("hunt generation failed: %w", err)
	}
	path, err := saveCohort(ctx, config, gens)
	if err != nil {
		return fmt.Errorf("saving cohort failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayGenerateStats(stats)
	logger.Get().Info(ctx, "generation completed", logger.String("file", path))
	return nil
}

// RunAnalyze analyzes config.Input locally and writes the report JSON to w.
func RunAnalyze(ctx context.Context, config *Config, w io.Writer) error {
	f, err := cohortfile.Read(config.Input)
	if err != nil {
		return fmt.Errorf("reading cohort failed: %w", err)
	}
	report, err := localReport(config, f.Runs)
	if err != nil {
		return err
	}
	logger.Get().Info(ctx, "cohort analyzed",
		logger.String("file", config.Input),
		logger.String("mode", report.Mode),
		logger.Int("cohort", report.CohortSize),
		logger.Int("kept", report.Kept))

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// RunVerify compares the service's report for config.Filter with a local
// analysis of config.Input. The service must be serving the same file with
// default analysis settings.
func RunVerify(ctx context.Context, config *Config) error {
	stats := newStats()

	logger.Get().Info(ctx, "starting verification",
		logger.String("baseURL", config.BaseURL),
		logger.String("file", config.Input),
		logger.String("mode", config.Mode))

	if err := waitForService(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	f, err := cohortfile.Read(config.Input)
	if err != nil {
		return fmt.Errorf("reading cohort failed: %w", err)
	}
	local, err := localReport(config, f.Runs)
	if err != nil {
		return err
	}
	remote, err := fetchReport(ctx, config, config.Filter)
	if err != nil {
		return fmt.Errorf("fetching report failed: %w", err)
	}

	problems := append(compareReports(local, remote), checkReport(remote)...)
	stats.RunsKept = remote.Kept
	stats.RunsDiscarded = len(remote.Discarded)
	stats.Checkpoints = len(remote.Checkpoints)
	stats.Mismatches = len(problems)
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	for _, p := range problems {
		logger.Get().Warn(ctx, "verification problem", logger.String("problem", p))
	}
	displayVerifyStats(stats)
	if len(problems) > 0 {
		return fmt.Errorf("%w: %d problems", ErrMismatch, len(problems))
	}
	logger.Get().Info(ctx, "verification passed")
	return nil
}

// localReport runs the engine in-process the way the service does with its
// default settings.
func localReport(config *Config, runs []model.Run) (types.Report, error) {
	plan := checkpoint.Fine
	if config.Mode != "" {
		p, err := checkpoint.ParseMode(config.Mode)
		if err != nil {
			return types.Report{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		plan = p
	}

	filter := config.Filter
	cohort := make(model.Cohort, 0, len(runs))
	for _, r := range runs {
		if filter.Match(r) {
			cohort = append(cohort, r)
		}
	}
	res := analysis.Run(cohort, analysis.Options{Plan: plan, Filter: &filter})
	return types.NewReport(res, filter, len(cohort)), nil
}

// saveCohort writes gens to the configured output file.
func saveCohort(ctx context.Context, config *Config, gens []Generated) (string, error) {
	if len(gens) == 0 {
		return "", fmt.Errorf("no runs to save")
	}

	filename := config.Output
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "cohort_" + timestamp + ".yaml"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	doc := cohortfile.File{
		Batch:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Runs:        Runs(gens),
	}
	if err := cohortfile.Write(filename, doc); err != nil {
		return "", err
	}

	logger.Get().Info(ctx, "cohort saved to file",
		logger.String("filename", filename),
		logger.String("batch", doc.Batch))
	return filename, nil
}

// displayGenerateStats prints the generation statistics.
func displayGenerateStats(stats *Stats) {
	fields := []logger.Field{
		logger.Int("runsGenerated", stats.RunsGenerated),
		logger.String("duration", stats.Duration.String()),
	}
	for k := KindClean; k < kindCount; k++ {
		fields = append(fields, logger.Int(k.String(), stats.ByKind[k]))
	}
	logger.Get().Info(context.Background(), "generation statistics", fields...)
}

// displayVerifyStats prints the verification statistics.
func displayVerifyStats(stats *Stats) {
	var keptRate float64
	if total := stats.RunsKept + stats.RunsDiscarded; total > 0 {
		keptRate = float64(stats.RunsKept) / float64(total) * PercentageMultiplier
	}

	logger.Get().Info(context.Background(), "verification statistics",
		logger.Int("runsKept", stats.RunsKept),
		logger.Int("runsDiscarded", stats.RunsDiscarded),
		logger.Int("checkpoints", stats.Checkpoints),
		logger.Int("mismatches", stats.Mismatches),
		logger.Float64("keptRate", keptRate),
		logger.String("duration", stats.Duration.String()))
}
