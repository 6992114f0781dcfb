package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macropower/nodefields/pkg/watch"
)

func TestWatcher_Run(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	watched := filepath.Join(dir, "nodefields.yaml")
	other := filepath.Join(dir, "other.yaml")
	require.NoError(t, os.WriteFile(watched, []byte("a: 1\n"), 0o600))

	changes := make(chan string, 10)

	w, err := watch.New([]string{watched}, func(_ context.Context, path string) {
		changes <- path
	}, watch.WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, w.Close())
	})

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)

	go func() {
		done <- w.Run(ctx)
	}()

	require.NoError(t, os.WriteFile(other, []byte("b: 1\n"), 0o600))
	require.NoError(t, os.WriteFile(watched, []byte("a: 2\n"), 0o600))
	require.NoError(t, os.WriteFile(watched, []byte("a: 3\n"), 0o600))

	select {
	case got := <-changes:
		assert.Equal(t, watched, got)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestWatcher_RunWaitsForChange(t *testing.T) {
	t.Parallel()

	watched := filepath.Join(t.TempDir(), "nodefields.yaml")
	require.NoError(t, os.WriteFile(watched, []byte("a: 1\n"), 0o600))

	started := make(chan struct{})
	var finished atomic.Bool

	w, err := watch.New([]string{watched}, func(context.Context, string) {
		select {
		case <-started:
		default:
			close(started)
		}
		time.Sleep(100 * time.Millisecond)
		finished.Store(true)
	}, watch.WithDebounce(10*time.Millisecond))
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, w.Close())
	})

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)

	go func() {
		done <- w.Run(ctx)
	}()

	require.NoError(t, os.WriteFile(watched, []byte("a: 2\n"), 0o600))

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change")
	}

	cancel()
	require.NoError(t, <-done)
	assert.True(t, finished.Load())
}

func TestWatcher_NoChangeAfterClose(t *testing.T) {
	t.Parallel()

	watched := filepath.Join(t.TempDir(), "nodefields.yaml")
	require.NoError(t, os.WriteFile(watched, []byte("a: 1\n"), 0o600))

	var calls atomic.Int32

	w, err := watch.New([]string{watched}, func(context.Context, string) {
		calls.Add(1)
	}, watch.WithDebounce(300*time.Millisecond))
	require.NoError(t, err)

	done := make(chan error, 1)

	go func() {
		done <- w.Run(t.Context())
	}()

	require.NoError(t, os.WriteFile(watched, []byte("a: 2\n"), 0o600))

	// Let the event arrive and arm the debounce timer, then close the
	// watcher while the context is still live.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, w.Close())
	require.NoError(t, <-done)

	time.Sleep(500 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestNew_MissingDirectory(t *testing.T) {
	t.Parallel()

	_, err := watch.New([]string{filepath.Join(t.TempDir(), "missing", "x.yaml")}, func(context.Context, string) {})
	require.Error(t, err)
}
