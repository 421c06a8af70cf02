package commands

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/screenwerk/screensync/pkg/schedule"
	"github.com/screenwerk/screensync/pkg/walker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCtx(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.TestWriter{T: t}).With().Timestamp().Logger()
	return logger.WithContext(context.Background())
}

func seedSource(t *testing.T, names ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, name := range names {
		path := filepath.Join(root, name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644), "writing %s", name)
	}
	return root
}

func TestRunLoopQuitLetsPassFinish(t *testing.T) {
	source := seedSource(t, "a_LED_1.mp4", "b_LED_2.mp4", "c_LED_3.mp4", "d_LED_4.mp4")

	visited := 0
	quit := make(chan struct{})
	var quitOnce sync.Once
	var passErr error

	sched := schedule.New(func(ctx context.Context, force bool) error {
		passErr = walker.WalkSource(ctx, source, nil, func(abs, rel string) error {
			visited++
			// The quit key arrives while the pass is still walking.
			quitOnce.Do(func() { close(quit) })
			return nil
		})
		return passErr
	}, 0, false)

	runLoop(testCtx(t), context.Background(), sched, quit)

	require.NoError(t, passErr, "quit must not cancel the in-flight pass")
	assert.Equal(t, 4, visited, "every file visited before shutdown")
	assert.False(t, sched.Running(), "scheduler idle after shutdown")
}

func TestRunLoopSignalLetsPassFinish(t *testing.T) {
	source := seedSource(t, "a_LED_1.mp4", "b_LED_2.mp4", "c_LED_3.mp4", "d_LED_4.mp4")

	sigCtx, sigCancel := context.WithCancel(context.Background())
	defer sigCancel()

	visited := 0
	var sigOnce sync.Once
	var passErr error

	sched := schedule.New(func(ctx context.Context, force bool) error {
		passErr = walker.WalkSource(ctx, source, nil, func(abs, rel string) error {
			visited++
			// SIGTERM lands mid-pass; only shutdown may react to it.
			sigOnce.Do(sigCancel)
			return nil
		})
		return passErr
	}, 0, false)

	runLoop(testCtx(t), sigCtx, sched, nil)

	require.NoError(t, passErr, "a signal must not cancel the in-flight pass")
	assert.Equal(t, 4, visited, "every file visited before shutdown")
	assert.False(t, sched.Running(), "scheduler idle after shutdown")
}
