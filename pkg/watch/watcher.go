// Package watch monitors a directory for new source files and runs a handler
// on each one once it has settled.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// Handler processes one settled file.
type Handler func(ctx context.Context, path string) error

// Watcher monitors a directory for tabular source files. Writes are debounced
// so a file is handled only after it has been quiet for the debounce window;
// handlers run on a bounded worker pool.
type Watcher struct {
	dir      string
	debounce time.Duration
	workers  int
	handler  Handler

	// OnError receives handler failures; processing continues either way.
	OnError func(path string, err error)

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// watchedExtensions are the source formats worth processing.
var watchedExtensions = map[string]bool{
	".csv":  true,
	".tsv":  true,
	".xlsx": true,
}

// New creates a watcher over dir.
func New(dir string, debounce time.Duration, workers int, handler Handler) *Watcher {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	if workers <= 0 {
		workers = 2
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		workers:  workers,
		handler:  handler,
		timers:   make(map[string]*time.Timer),
	}
}

// Run blocks watching the directory until the context is cancelled. Any
// worker error other than a handler failure stops the watch.
func (w *Watcher) Run(ctx context.Context) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer fsWatcher.Close()

	if err := fsWatcher.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	work := make(chan string)
	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < w.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case path := <-work:
					if err := w.handler(ctx, path); err != nil && w.OnError != nil {
						w.OnError(path, err)
					}
				}
			}
		})
	}

	// The work channel is never closed; a late debounce timer may still try to
	// send after shutdown, and every sender guards with ctx.Done instead.
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()

			case event, ok := <-fsWatcher.Events:
				if !ok {
					return nil
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if !watchedExtensions[strings.ToLower(filepath.Ext(event.Name))] {
					continue
				}
				w.schedule(ctx, event.Name, work)

			case err, ok := <-fsWatcher.Errors:
				if !ok {
					return nil
				}
				return fmt.Errorf("watch error: %w", err)
			}
		}
	})

	return g.Wait()
}

// schedule (re)arms the debounce timer for one path. Every new write resets
// the timer, so a file is enqueued only after a quiet period.
func (w *Watcher) schedule(ctx context.Context, path string, work chan<- string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Reset(w.debounce)
		return
	}

	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		select {
		case work <- path:
		case <-ctx.Done():
		}
	})
}
