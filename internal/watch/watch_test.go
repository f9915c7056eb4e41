package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	changes chan []string
	done    chan error
	cancel  context.CancelFunc
}

func startWatcher(t *testing.T, root string, onChange func(context.Context, []string) error) *harness {
	t.Helper()
	h := &harness{changes: make(chan []string, 32), done: make(chan error, 1)}
	if onChange == nil {
		onChange = func(_ context.Context, changed []string) error {
			h.changes <- changed
			return nil
		}
	}

	w, err := New(Config{Root: root, Debounce: 50 * time.Millisecond, OnChange: onChange})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-h.done
	})
	return h
}

// touchUntil rewrites path until the watcher reports a change batch. Writes
// repeat because the watcher may not have registered its directories yet.
func (h *harness) touchUntil(t *testing.T, path string) []string {
	t.Helper()
	var got []string
	require.Eventually(t, func() bool {
		_ = os.WriteFile(path, []byte("var a = 1;\n"), 0o644)
		select {
		case got = <-h.changes:
			return true
		default:
			return false
		}
	}, 5*time.Second, 100*time.Millisecond)
	return got
}

func TestNewRequiresOnChange(t *testing.T) {
	t.Parallel()
	_, err := New(Config{Root: t.TempDir()})
	require.Error(t, err)
}

func TestWatchReportsSourceChanges(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "lib"), 0o755))
	target := filepath.Join(root, "lib", "a.js")

	h := startWatcher(t, root, nil)

	require.NoError(t, os.WriteFile(filepath.Join(root, "lib", "notes.txt"), []byte("x"), 0o644))
	got := h.touchUntil(t, target)
	assert.Contains(t, got, target)
	assert.NotContains(t, got, filepath.Join(root, "lib", "notes.txt"))
}

func TestWatchIgnoresSkippedDirs(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules", "pkg"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "lib"), 0o755))

	h := startWatcher(t, root, nil)

	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "pkg", "index.js"), []byte("x"), 0o644))
	got := h.touchUntil(t, filepath.Join(root, "lib", "a.js"))
	for _, path := range got {
		assert.NotContains(t, path, "node_modules")
	}
}

func TestWatchNewDirectory(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	h := startWatcher(t, root, nil)

	// Wait for the watcher to be live before creating the directory.
	h.touchUntil(t, filepath.Join(root, "first.js"))

	dir := filepath.Join(root, "added")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	target := filepath.Join(dir, "b.ts")

	var got []string
	require.Eventually(t, func() bool {
		_ = os.WriteFile(target, []byte("let b = 2;\n"), 0o644)
		select {
		case batch := <-h.changes:
			got = append(got, batch...)
		default:
		}
		for _, p := range got {
			if p == target {
				return true
			}
		}
		return false
	}, 5*time.Second, 100*time.Millisecond)
}

func TestWatchHandlerErrorIsNotFatal(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	target := filepath.Join(root, "a.js")

	var calls atomic.Int32
	changes := make(chan []string, 32)
	startWatcher(t, root, func(_ context.Context, changed []string) error {
		if calls.Add(1) == 1 {
			return errors.New("boom")
		}
		changes <- changed
		return nil
	})

	require.Eventually(t, func() bool {
		_ = os.WriteFile(target, []byte("var a = 1;\n"), 0o644)
		select {
		case got := <-changes:
			return assert.Contains(t, got, target)
		default:
			return false
		}
	}, 5*time.Second, 100*time.Millisecond)
	assert.GreaterOrEqual(t, calls.Load(), int32(2))
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()
	h := startWatcher(t, t.TempDir(), nil)
	h.cancel()

	select {
	case err := <-h.done:
		assert.NoError(t, err)
		h.done <- err // let the cleanup receive
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
