package watcher

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sasha-Sorokin/alphaid-bot/internal/ctxlog"
)

func testContext() context.Context {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}

// startWatcher runs a watcher over root with a short debounce and returns a
// reload counter. The watcher stops with the test.
func startWatcher(t *testing.T, root string) *atomic.Int32 {
	t.Helper()

	var reloads atomic.Int32
	ctx, cancel := context.WithCancel(testContext())
	t.Cleanup(cancel)

	w, err := New(ctx, Options{
		Roots:    []string{root},
		Debounce: 50 * time.Millisecond,
		OnReload: func(context.Context) error {
			reloads.Add(1)
			return nil
		},
	})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, w.Run(ctx))
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return &reloads
}

func waitForReloads(t *testing.T, reloads *atomic.Int32, want int32) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if reloads.Load() == want {
			// One extra debounce window to catch spurious follow-up fires.
			time.Sleep(150 * time.Millisecond)
			assert.Equal(t, want, reloads.Load())
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d reloads, got %d", want, reloads.Load())
}

func TestWatcherReloadsOnManifestChange(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "gateway"), 0o755))
	reloads := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(root, "gateway", "module.hcl"),
		[]byte("module {\n  name    = \"gateway\"\n  version = \"1.0.0\"\n}\n"), 0o644))

	waitForReloads(t, reloads, 1)
}

func TestWatcherCoalescesBursts(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "gateway"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "echo"), 0o755))
	reloads := startWatcher(t, root)

	for _, rel := range []string{"gateway/module.hcl", "gateway/routes.hcl", "echo/module.hcl"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, rel), []byte("x = 1\n"), 0o644))
	}

	waitForReloads(t, reloads, 1)
}

func TestWatcherIgnoresUnrelatedFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	reloads := startWatcher(t, root)

	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("notes\n"), 0o644))

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(0), reloads.Load())
}

func TestWatcherPicksUpNewDirectories(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	reloads := startWatcher(t, root)

	dir := filepath.Join(root, "scripted")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	// Give the watch extension a moment before the manifest lands.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "script.lua"), []byte("-- module\n"), 0o644))

	waitForReloads(t, reloads, 1)
}

func TestWatcherSkipsMissingRoots(t *testing.T) {
	t.Parallel()

	w, err := New(testContext(), Options{
		Roots:    []string{filepath.Join(t.TempDir(), "absent")},
		OnReload: func(context.Context) error { return nil },
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(testContext())
	cancel()
	assert.NoError(t, w.Run(ctx))
}
