// Package watch reloads a local results directory when its files change.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"resultsview/internal/artifact"
)

// Watcher watches a directory tree and hands a freshly loaded upload to
// its callback once changes have settled for the debounce period.
type Watcher struct {
	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	dir      string
	debounce time.Duration
	onChange func(*artifact.Upload)
	log      *slog.Logger

	pending time.Time
	stats   Stats
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
}

// Stats counts watcher activity.
type Stats struct {
	Events    int
	Reloads   int
	Errors    int
	LastEvent string
}

// New creates a Watcher for dir. onChange runs on the watcher goroutine.
func New(dir string, debounce time.Duration, onChange func(*artifact.Upload), log *slog.Logger) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("change callback is required")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{
		watcher:  fw,
		dir:      dir,
		debounce: debounce,
		onChange: onChange,
		log:      log,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start adds the directory tree and begins watching in the background.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.addTree(w.dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		_ = w.watcher.Close()
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.log.Info("watching results directory", slog.String("dir", w.dir))

	go w.run(ctx)
	return nil
}

// Stop ends the watch loop and releases the underlying watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	if err := w.watcher.Close(); err != nil {
		w.log.Error("close watcher", slog.Any("err", err))
	}
}

// Stats returns a snapshot of the watcher counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// addTree watches root and every non-hidden directory below it.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(p)
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := time.NewTicker(max(w.debounce/4, 10*time.Millisecond))
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", slog.Any("err", err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case now := <-tick.C:
			w.reloadIfSettled(now)
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	if ev.Op == fsnotify.Chmod || strings.HasPrefix(filepath.Base(ev.Name), ".") {
		return
	}
	if ev.Op.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.log.Warn("watch new directory", slog.String("dir", ev.Name), slog.Any("err", err))
			}
		}
	}
	w.log.Debug("results file changed", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))

	w.mu.Lock()
	w.pending = time.Now()
	w.stats.Events++
	w.stats.LastEvent = ev.Name
	w.mu.Unlock()
}

func (w *Watcher) reloadIfSettled(now time.Time) {
	w.mu.Lock()
	if w.pending.IsZero() || now.Sub(w.pending) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.pending = time.Time{}
	w.mu.Unlock()

	u, err := artifact.LoadDir(w.dir)
	if err != nil {
		w.log.Error("reload results directory", slog.String("dir", w.dir), slog.Any("err", err))
		w.mu.Lock()
		w.stats.Errors++
		w.mu.Unlock()
		return
	}
	w.mu.Lock()
	w.stats.Reloads++
	w.mu.Unlock()
	w.log.Info("results directory reloaded", slog.Int("files", u.Len()))
	w.onChange(u)
}
