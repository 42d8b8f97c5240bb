package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_KicksOnWatchedFiles(t *testing.T) {
	dir := t.TempDir()
	positions := filepath.Join(dir, "positions")
	values := filepath.Join(dir, "values")
	require.NoError(t, os.WriteFile(positions, []byte("t,a,1,1,1,9\n"), 0o644))
	require.NoError(t, os.WriteFile(values, []byte("a,b\n"), 0o644))

	trigger := NewTrigger(nil)
	w, err := NewWatcher([]string{positions, values}, trigger, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	assert.Len(t, w.dirs, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	assert.Eventually(t, func() bool {
		_ = os.WriteFile(values, []byte("a,c\n"), 0o644)
		return len(trigger.pending) == 1
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWatcher_Relevant(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "values")

	w, err := NewWatcher([]string{watched}, NewTrigger(nil), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	assert.True(t, w.relevant(fsnotify.Event{Name: watched, Op: fsnotify.Write}))
	assert.True(t, w.relevant(fsnotify.Event{Name: watched, Op: fsnotify.Create}))
	assert.True(t, w.relevant(fsnotify.Event{Name: watched, Op: fsnotify.Rename}))
	assert.False(t, w.relevant(fsnotify.Event{Name: watched, Op: fsnotify.Chmod}))
	assert.False(t, w.relevant(fsnotify.Event{Name: filepath.Join(dir, "other"), Op: fsnotify.Write}))
}

func TestServe_RerunsOnChange(t *testing.T) {
	dir := t.TempDir()
	positions := filepath.Join(dir, "positions")
	require.NoError(t, os.WriteFile(positions, []byte("t,a,1,1,1,9\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, []string{positions}, func(context.Context) error {
			runs.Add(1)
			return nil
		}, nil)
	}()

	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		_ = os.WriteFile(positions, []byte("t,a,1,2,2,9\n"), 0o644)
		return runs.Load() >= 2
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop")
	}
}

func TestServe_ChangeDuringFirstRun(t *testing.T) {
	dir := t.TempDir()
	values := filepath.Join(dir, "values")
	require.NoError(t, os.WriteFile(values, []byte("a,b\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, []string{values}, func(context.Context) error {
			if runs.Add(1) == 1 {
				// saved by the user while the first run is still rendering
				if err := os.WriteFile(values, []byte("a,c\n"), 0o644); err != nil {
					return err
				}
			}
			return nil
		}, nil)
	}()

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop")
	}
}

func TestNewWatcher_MissingDirectory(t *testing.T) {
	_, err := NewWatcher([]string{filepath.Join(t.TempDir(), "nowhere", "values")}, NewTrigger(nil), nil)
	assert.Error(t, err)
}

func TestServe_WatchFailure(t *testing.T) {
	missingDir := filepath.Join(t.TempDir(), "nowhere", "positions")

	var runs atomic.Int32
	err := Serve(context.Background(), []string{missingDir}, func(context.Context) error {
		runs.Add(1)
		return nil
	}, nil)
	assert.Error(t, err)
	assert.Zero(t, runs.Load(), "nothing runs without a watcher")
}
