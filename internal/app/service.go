// Package service provides the pace service that backs the HTTP API, the
// cohort file watcher and the websocket hub.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/questpace/internal/adapters/repository"
	"github.com/okian/questpace/internal/domain/analysis"
	"github.com/okian/questpace/internal/domain/checkpoint"
	"github.com/okian/questpace/internal/domain/model"
	"github.com/okian/questpace/internal/domain/outlier"
	"github.com/okian/questpace/internal/domain/telemetry"
	"github.com/okian/questpace/internal/domain/types"
	"github.com/okian/questpace/pkg/logger"
	"github.com/okian/questpace/pkg/metrics"
)

// ReloadFunc is called after the run set was replaced.
type ReloadFunc func(ctx context.Context)

// Service runs pace analyses over the runs held by a repository.
type Service struct {
	mu sync.RWMutex

	store repository.Store

	// Analysis settings
	plan      checkpoint.Plan
	collision telemetry.CollisionPolicy
	outlier   []outlier.Option
	maxRuns   int

	// State
	started    bool
	reloads    int
	lastReload time.Time
	listeners  []ReloadFunc

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore sets the run repository.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithDefaultPlan sets the plan used when a query names no mode.
func WithDefaultPlan(p checkpoint.Plan) Option {
	return func(s *Service) {
		if p.Len() > 0 {
			s.plan = p
		}
	}
}

// WithCollisionPolicy sets how colliding raw frames are resolved.
func WithCollisionPolicy(p telemetry.CollisionPolicy) Option {
	return func(s *Service) {
		s.collision = p
	}
}

// WithOutlierOptions sets the outlier filter options.
func WithOutlierOptions(opts ...outlier.Option) Option {
	return func(s *Service) {
		s.outlier = append([]outlier.Option(nil), opts...)
	}
}

// WithMaxCohortRuns caps the runs pulled into one analysis. 0 means no cap.
func WithMaxCohortRuns(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxRuns = n
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		plan:      checkpoint.Fine,
		collision: telemetry.LastWriteWins,
		maxRuns:   10_000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start prepares the service. It is safe to call more than once.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.store == nil {
		s.store = repository.NewMemStore()
	}
	s.started = true
	s.logger.Info(ctx, "pace service started",
		logger.String("mode", s.plan.Name()),
		logger.String("collision_policy", s.collision.String()),
		logger.Int("max_cohort_runs", s.maxRuns),
	)
	return nil
}

// Stop marks the service stopped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "pace service stopped")
}

// OnReload registers fn to run after every Reload.
func (s *Service) OnReload(fn ReloadFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Service) options(mode string) (analysis.Options, error) {
	plan := s.plan
	if mode != "" {
		p, err := checkpoint.ParseMode(mode)
		if err != nil {
			return analysis.Options{}, fmt.Errorf("%w: %w", ErrInvalidMode, err)
		}
		plan = p
	}
	return analysis.Options{Plan: plan, Collision: s.collision, Outlier: s.outlier}, nil
}

// Analyze builds the pace report for the cohort selected by f. An empty mode
// uses the default plan.
func (s *Service) Analyze(ctx context.Context, f model.Filter, mode string) (types.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return types.Report{}, ErrNotStarted
	}
	opts, err := s.options(mode)
	if err != nil {
		return types.Report{}, err
	}

	start := time.Now()
	cohort, err := s.store.Query(ctx, f, s.maxRuns)
	if err != nil {
		return types.Report{}, fmt.Errorf("query cohort: %w", err)
	}
	opts.Filter = &f
	res := analysis.Run(cohort, opts)
	elapsed := time.Since(start)

	s.record(ctx, res, len(cohort), elapsed)
	return types.NewReport(res, f, len(cohort)), nil
}

func (s *Service) record(ctx context.Context, res analysis.Result, cohortSize int, elapsed time.Duration) {
	metrics.RecordAnalysis(res.Plan.Name())
	metrics.RecordAnalysisLatency(float64(elapsed.Microseconds()) / 1000)
	metrics.UpdateCohortSize(cohortSize)
	metrics.RecordOutliers(res.Suppressed(), res.Unmarked())

	for _, d := range res.Discarded {
		metrics.RecordRunDiscarded(string(d.Reason))
		s.logger.Debug(ctx, "run discarded",
			logger.Int64("run_id", int64(d.RunID)),
			logger.String("reason", string(d.Reason)),
			logger.String("detail", d.Detail),
		)
	}
	for _, ft := range res.Faults {
		metrics.RecordIntegrityFault()
		s.logger.Warn(ctx, "run failed split integrity check",
			logger.Int64("run_id", int64(ft.RunID)),
			logger.Error(ft.Err),
		)
	}
	s.logger.Debug(ctx, "cohort analyzed",
		logger.String("mode", res.Plan.Name()),
		logger.Int("cohort", cohortSize),
		logger.Int("kept", len(res.Runs)),
		logger.Duration("took", elapsed),
	)
}

// Run returns the stage-by-stage breakdown of one run.
func (s *Service) Run(ctx context.Context, id model.RunID, mode string) (types.RunReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return types.RunReport{}, ErrNotStarted
	}
	opts, err := s.options(mode)
	if err != nil {
		return types.RunReport{}, err
	}
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return types.RunReport{}, err
	}

	b, err := analysis.Inspect(r, opts)
	rep := types.RunReport{Run: types.NewRunInfo(r), Mode: opts.Plan.Name(), Breakdown: b}
	if err != nil {
		rep.Reason = analysis.ReasonFor(err)
		rep.Detail = err.Error()
		return rep, nil
	}
	if total := b.Splits.Total(); total.Valid {
		d := types.NewDuration(total.Frames)
		rep.Total = &d
	}
	return rep, nil
}

// Reload replaces every stored run and notifies reload listeners. Duplicate
// run IDs are skipped with a warning; the rest of the set still loads.
func (s *Service) Reload(ctx context.Context, runs []model.Run) (int, error) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return 0, ErrNotStarted
	}
	n, err := s.store.Replace(ctx, runs)
	if err != nil && !errors.Is(err, repository.ErrDuplicateRun) {
		s.mu.Unlock()
		metrics.RecordCohortReloadError()
		return 0, fmt.Errorf("replace runs: %w", err)
	}
	if err != nil {
		s.logger.Warn(ctx, "duplicate runs skipped", logger.Error(err))
	}
	s.reloads++
	s.lastReload = time.Now()
	listeners := append([]ReloadFunc(nil), s.listeners...)
	s.mu.Unlock()

	metrics.RecordCohortReload()
	s.logger.Info(ctx, "cohort reloaded", logger.Int("runs", n), logger.Int("received", len(runs)))
	for _, fn := range listeners {
		fn(ctx)
	}
	return n, nil
}

// Put adds a single run.
func (s *Service) Put(ctx context.Context, run model.Run) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return ErrNotStarted
	}
	return s.store.Put(ctx, run)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"mode":             s.plan.Name(),
		"collision_policy": s.collision.String(),
		"max_cohort_runs":  s.maxRuns,
		"reloads":          s.reloads,
	}
	if !s.lastReload.IsZero() {
		stats["last_reload"] = s.lastReload.UTC().Format(time.RFC3339)
	}
	if s.started {
		runs := s.store.Count(context.Background())
		stats["runs"] = runs
		metrics.UpdateRunsStored(runs)
	}
	return stats
}
