package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCtx(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.TestWriter{T: t}).With().Timestamp().Logger()
	return logger.WithContext(context.Background())
}

// startWatcher runs w until the test ends, making sure Run has fully
// returned before the test logger goes away.
func startWatcher(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(testCtx(t))
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err, "run should return cleanly on cancel")
		case <-time.After(2 * time.Second):
			t.Error("run never returned after cancel")
		}
	})
	// Give the watcher time to register the initial directories.
	time.Sleep(100 * time.Millisecond)
}

func waitForTriggers(t *testing.T, counter *int32, want int32) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if atomic.LoadInt32(counter) >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("never saw %d triggers, got %d", want, atomic.LoadInt32(counter))
}

func TestWatcherTriggersOnChange(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "campaign"), 0o755), "creating subdir")

	var triggers int32
	w := New(root, 20*time.Millisecond, func() {
		atomic.AddInt32(&triggers, 1)
	})

	startWatcher(t, w)

	require.NoError(t, os.WriteFile(filepath.Join(root, "campaign", "clip_LED_1.mp4"), []byte("x"), 0o644), "writing clip")
	waitForTriggers(t, &triggers, 1)
}

func TestWatcherDebouncesBursts(t *testing.T) {
	root := t.TempDir()

	var triggers int32
	w := New(root, 150*time.Millisecond, func() {
		atomic.AddInt32(&triggers, 1)
	})

	startWatcher(t, w)

	// A burst of writes inside the debounce window collapses to one trigger.
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "clip_LED_1.mp4"), []byte{byte(i)}, 0o644), "writing burst %d", i)
		time.Sleep(10 * time.Millisecond)
	}

	waitForTriggers(t, &triggers, 1)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&triggers), "burst collapsed into a single trigger")
}

func TestWatcherIgnoresTransientFiles(t *testing.T) {
	root := t.TempDir()

	var triggers int32
	w := New(root, 20*time.Millisecond, func() {
		atomic.AddInt32(&triggers, 1)
	})

	startWatcher(t, w)

	require.NoError(t, os.WriteFile(filepath.Join(root, ".syncthing.clip.mp4.tmp"), []byte("x"), 0o644), "writing temp file")
	require.NoError(t, os.WriteFile(filepath.Join(root, ".hidden"), []byte("x"), 0o644), "writing hidden file")

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&triggers), "transient and hidden files do not trigger")
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	root := t.TempDir()

	var triggers int32
	w := New(root, 20*time.Millisecond, func() {
		atomic.AddInt32(&triggers, 1)
	})

	startWatcher(t, w)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "fresh"), 0o755), "creating new dir")
	waitForTriggers(t, &triggers, 1)

	// The new directory is now watched: a write inside it fires again.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, "fresh", "clip_LED_2.mp4"), []byte("x"), 0o644), "writing into new dir")
	waitForTriggers(t, &triggers, 2)
}

func TestDefaultDebounce(t *testing.T) {
	w := New(t.TempDir(), 0, func() {})
	assert.Equal(t, DefaultDebounce, w.debounce, "zero debounce falls back to the default")
}
