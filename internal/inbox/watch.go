// Package inbox watches the snapshot drop directory and triggers a pipeline
// run when a new export file finishes landing.
package inbox

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay debounces per-file events: exports are written incrementally,
// so we wait for writes to stop before treating the file as complete.
const settleDelay = 2 * time.Second

// Handler is called once per settled snapshot file.
type Handler func(ctx context.Context, path string)

// Watch starts an fsnotify watcher on dir and calls h for every file
// matching pattern once its writes settle, until ctx is cancelled. The
// inbox is flat: subdirectories are not watched.
func Watch(ctx context.Context, dir, pattern string, logger *slog.Logger, h Handler) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}
	if pattern == "" {
		pattern = "*.ndjson"
	}

	logger.Info("inbox: watching", slog.String("dir", dir), slog.String("pattern", pattern))

	var mu sync.Mutex
	pending := make(map[string]*time.Timer)

	stopTimers := func() {
		mu.Lock()
		defer mu.Unlock()
		for _, t := range pending {
			t.Stop()
		}
	}

	schedule := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := pending[path]; ok {
			t.Reset(settleDelay)
			return
		}
		pending[path] = time.AfterFunc(settleDelay, func() {
			mu.Lock()
			delete(pending, path)
			mu.Unlock()
			if ctx.Err() != nil {
				return
			}
			logger.Info("inbox: snapshot settled", slog.String("file", path))
			h(ctx, path)
		})
	}

	for {
		select {
		case <-ctx.Done():
			stopTimers()
			logger.Info("inbox: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			matched, err := filepath.Match(pattern, filepath.Base(ev.Name))
			if err != nil || !matched {
				continue
			}
			schedule(ev.Name)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("inbox: error", slog.String("error", watchErr.Error()))
		}
	}
}
