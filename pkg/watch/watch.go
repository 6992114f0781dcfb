// Package watch reruns a function when any of a set of files changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/macropower/nodefields/pkg/log"
)

// DefaultDebounce is the default quiet period after a change.
const DefaultDebounce = 200 * time.Millisecond

// Watcher watches files and calls a function after they change.
//
// Parent directories are watched rather than the files themselves, so
// files replaced by editors (rename and create) are still picked up.
type Watcher struct {
	watcher  *fsnotify.Watcher
	files    map[string]struct{}
	onChange func(ctx context.Context, path string)
	debounce time.Duration
}

// WatcherOpt configures a [Watcher].
type WatcherOpt func(*Watcher)

// WithDebounce sets how long to wait for further changes before calling
// the change function.
func WithDebounce(d time.Duration) WatcherOpt {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// New creates a [Watcher] for paths.
func New(paths []string, onChange func(ctx context.Context, path string), opts ...WatcherOpt) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		watcher:  fw,
		files:    map[string]struct{}{},
		onChange: onChange,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}

	dirs := map[string]struct{}{}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("get absolute path: %w", err), fw.Close())
		}

		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	for dir := range dirs {
		err := fw.Add(dir)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("watch %s: %w", dir, err), fw.Close())
		}
	}

	return w, nil
}

// Run blocks until ctx is done or the watcher fails, calling the change
// function at most once per debounce period. Calls never overlap. Run waits
// for an in-flight call before returning, and no call starts after that.
func (w *Watcher) Run(ctx context.Context) error {
	logger := log.WithContext(ctx)

	var (
		mu      sync.Mutex
		timer   *time.Timer
		pending string
		stopped bool
		running sync.Mutex
	)

	fire := func() {
		running.Lock()
		defer running.Unlock()

		mu.Lock()
		path, done := pending, stopped
		mu.Unlock()

		if done || ctx.Err() != nil {
			return
		}

		w.onChange(ctx, path)
	}

	defer func() {
		mu.Lock()
		stopped = true
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()

		// A timer that already fired may be waiting on running; it sees
		// stopped once it gets the lock.
		running.Lock()
		running.Unlock() //nolint:staticcheck // Waits for an in-flight call.
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			if _, watched := w.files[evt.Name]; !watched {
				continue
			}

			// Ignore events that are not related to file content changes.
			if evt.Has(fsnotify.Chmod) {
				continue
			}

			logger.DebugContext(ctx, "file changed", slog.String("event", evt.String()))

			mu.Lock()
			pending = evt.Name
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, fire)
			mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}

			return fmt.Errorf("watch: %w", err)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	if err != nil {
		return fmt.Errorf("close watcher: %w", err)
	}

	return nil
}
