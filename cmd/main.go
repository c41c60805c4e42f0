package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/questpace/internal/adapters/chart"
	"github.com/okian/questpace/internal/adapters/cohortfile"
	"github.com/okian/questpace/internal/adapters/http/api"
	"github.com/okian/questpace/internal/adapters/http/swagger"
	"github.com/okian/questpace/internal/adapters/http/ws"
	"github.com/okian/questpace/internal/adapters/repository"
	app "github.com/okian/questpace/internal/app"
	"github.com/okian/questpace/internal/config"
	"github.com/okian/questpace/pkg/logger"
	"github.com/okian/questpace/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (.env -> defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.InitWithWriter(os.Stdout, cfg.LogFormat); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := newService(cfg, loggerInstance)
	if err != nil {
		loggerInstance.Error(ctx, "invalid service configuration", logger.Error(err))
		return
	}
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	go metrics.StartSystemCollector(ctx)

	var hub *ws.Hub
	if cfg.WSEnabled {
		hub = ws.New(svc, ws.WithLogger(loggerInstance.Named("ws")))
		svc.OnReload(hub.Notify)
		go hub.Run(ctx)
	}

	startCohort(ctx, cfg, svc, loggerInstance)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc, hub),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(shutdownCtx, "server stopped")
}

// newService builds the pace service from configuration.
func newService(cfg *config.Config, l logger.Logger) (*app.Service, error) {
	plan, err := cfg.Plan()
	if err != nil {
		return nil, err
	}
	collision, err := cfg.Collision()
	if err != nil {
		return nil, err
	}
	return app.New(
		app.WithLogger(l.Named("service")),
		app.WithStore(repository.NewMemStore()),
		app.WithDefaultPlan(plan),
		app.WithCollisionPolicy(collision),
		app.WithOutlierOptions(cfg.OutlierOptions()...),
		app.WithMaxCohortRuns(cfg.MaxCohortRuns),
	), nil
}

// newHandler registers every route and wraps the mux with request IDs.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service, hub *ws.Hub) http.Handler {
	mux := http.NewServeMux()

	swagger.Register(ctx, mux)

	opts := []api.Option{api.WithChartOptions(chart.WithSize(cfg.ChartWidth, cfg.ChartHeight))}
	if hub != nil {
		opts = append(opts, api.WithHub(hub))
	}
	api.NewServer(svc, svc, opts...).Register(ctx, mux)

	return api.RequestID(mux)
}

// startCohort loads the configured cohort file and, if enabled, keeps
// watching it. A missing or broken file leaves the repository empty until
// the next successful reload.
func startCohort(ctx context.Context, cfg *config.Config, svc *app.Service, l logger.Logger) {
	if cfg.CohortFile == "" {
		l.Info(ctx, "no cohort file configured; repository starts empty")
		return
	}

	w := cohortfile.NewWatcher(cfg.CohortFile, svc.Reload, cohortfile.WithLogger(l.Named("cohortfile")))
	if err := w.Load(ctx); err != nil {
		l.Error(ctx, "initial cohort load failed", logger.String("path", cfg.CohortFile), logger.Error(err))
	}
	if !cfg.WatchCohort {
		return
	}
	go func() {
		if err := w.Run(ctx); err != nil {
			l.Error(ctx, "cohort watcher stopped", logger.Error(err))
		}
	}()
}
