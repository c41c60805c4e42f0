package cohortfile

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/okian/questpace/internal/domain/model"
	"github.com/okian/questpace/pkg/logger"
	"github.com/okian/questpace/pkg/metrics"
)

const defaultDebounce = 200 * time.Millisecond

// ApplyFunc receives the runs of a freshly read file.
type ApplyFunc func(ctx context.Context, runs []model.Run) (int, error)

// Watcher loads a cohort file and reloads it whenever it changes.
type Watcher struct {
	path     string
	apply    ApplyFunc
	debounce time.Duration
	logger   logger.Logger
}

// Option applies a configuration option to the Watcher.
type Option func(*Watcher)

// WithDebounce sets how long to wait for writes to settle before reloading.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the watcher's logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewWatcher creates a watcher for path that hands every successful read to
// apply.
func NewWatcher(path string, apply ApplyFunc, opts ...Option) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(path),
		apply:    apply,
		debounce: defaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named("cohortfile")
	}
	return w
}

// Load reads the file once and applies it.
func (w *Watcher) Load(ctx context.Context) error {
	f, err := Read(w.path)
	if err != nil {
		metrics.RecordCohortReloadError()
		metrics.RecordErrorByComponent("cohortfile", "read")
		return err
	}
	n, err := w.apply(ctx, f.Runs)
	if err != nil {
		metrics.RecordErrorByComponent("cohortfile", "apply")
		return fmt.Errorf("apply %s: %w", w.path, err)
	}
	w.logger.Info(ctx, "cohort file loaded",
		logger.String("path", w.path),
		logger.String("batch", f.Batch),
		logger.Int("runs", n),
	)
	return nil
}

// Run watches the file's directory until ctx is done. The directory is
// watched rather than the file so atomic saves (write temp, rename) are seen.
// A failed reload keeps the previously applied runs.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return err
	}
	w.logger.Info(ctx, "watching cohort file", logger.String("path", w.path))

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerCh = timer.C

		case <-timerCh:
			timerCh = nil
			if err := w.Load(ctx); err != nil {
				w.logger.Error(ctx, "cohort reload failed, keeping previous runs",
					logger.String("path", w.path), logger.Error(err))
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			metrics.RecordErrorByComponent("cohortfile", "watch")
			w.logger.Error(ctx, "cohort watcher error", logger.Error(err))
		}
	}
}
