// Package watch re-runs ingestion when files under the source root
// change. Events are debounced so editor save bursts and bulk copies
// trigger one run, not dozens; every run is an ordinary ingest pass
// and therefore honours the run lock and idempotence.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/veldt-labs/datacore/internal/core/domain"
	"github.com/veldt-labs/datacore/internal/core/ports/driving"
	"github.com/veldt-labs/datacore/internal/logger"
)

// DefaultDebounce is the quiet period required after the last event
// before a re-ingest fires.
const DefaultDebounce = 500 * time.Millisecond

// Watcher triggers ingest runs on filesystem changes.
type Watcher struct {
	ingestor driving.Ingestor
	root     string
	debounce time.Duration
}

// Option configures the watcher.
type Option func(*Watcher)

// WithDebounce overrides the debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher over the given source root.
func New(ingestor driving.Ingestor, root string, opts ...Option) *Watcher {
	w := &Watcher{
		ingestor: ingestor,
		root:     root,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until the context is cancelled. An initial ingest pass
// runs before watching so the index starts current.
func (w *Watcher) Run(ctx context.Context) error {
	w.ingest(ctx)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := w.addRecursive(watcher, w.root); err != nil {
		return err
	}
	logger.Info("Watching %s for changes", w.root)

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			logger.Debug("Change detected: %s %s", event.Op, event.Name)

			// New directories need watching before their files
			// produce events.
			if event.Op.Has(fsnotify.Create) {
				if err := w.addRecursive(watcher, event.Name); err != nil {
					logger.Warn("Failed to watch %s: %v", event.Name, err)
				}
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.ingest(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// ingest runs one pass and logs instead of failing: watch mode keeps
// going through transient errors.
func (w *Watcher) ingest(ctx context.Context) {
	report, err := w.ingestor.Run(ctx, w.root)
	if err != nil {
		if errors.Is(err, domain.ErrIngestInProgress) {
			logger.Debug("Ingest already running, skipping trigger")
			return
		}
		logger.Warn("Ingest failed: %v", err)
		return
	}
	if report.New > 0 || report.Changed > 0 || report.Removed > 0 || report.Errored() > 0 {
		logger.Info("Re-ingested: %d new, %d changed, %d removed, %d errors",
			report.New, report.Changed, report.Removed, report.Errored())
	}
}

// relevant filters out noise: chmod-only events and hidden paths.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(event.Name)
	return !strings.HasPrefix(base, ".")
}

// addRecursive watches a directory and every non-hidden subdirectory.
// Non-directory paths are ignored.
func (w *Watcher) addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// The path may have vanished between event and walk.
			return nil //nolint:nilerr
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && p != root {
			return filepath.SkipDir
		}
		if err := watcher.Add(p); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
		return nil
	})
}
