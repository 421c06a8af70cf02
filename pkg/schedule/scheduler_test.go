package schedule

import (
	"context"
	"sync"
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

func TestTriggerRunsPassSynchronously(t *testing.T) {
	var calls int32
	s := New(func(ctx context.Context, force bool) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}, 0, false)

	assert.True(t, s.Trigger(testCtx(t)), "idle trigger should win")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "pass ran once")
	assert.False(t, s.Running(), "scheduler idle after a synchronous pass")
}

func TestTriggerWhileRunningIsDropped(t *testing.T) {
	ctx := testCtx(t)

	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32

	s := New(func(ctx context.Context, force bool) error {
		atomic.AddInt32(&calls, 1)
		close(started)
		<-release
		return nil
	}, 0, false)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Trigger(ctx)
	}()

	<-started
	assert.True(t, s.Running(), "pass in flight")
	assert.False(t, s.Trigger(ctx), "trigger during a pass is dropped, not queued")

	close(release)
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "dropped trigger must not run a pass")
}

func TestForceAppliesToFirstPassOnly(t *testing.T) {
	ctx := testCtx(t)

	var forces []bool
	s := New(func(ctx context.Context, force bool) error {
		forces = append(forces, force)
		return nil
	}, 0, true)

	s.Trigger(ctx)
	s.Trigger(ctx)
	s.Trigger(ctx)
	assert.Equal(t, []bool{true, false, false}, forces, "one-shot force")
}

func TestForceDisabled(t *testing.T) {
	ctx := testCtx(t)

	var forces []bool
	s := New(func(ctx context.Context, force bool) error {
		forces = append(forces, force)
		return nil
	}, 0, false)

	s.Trigger(ctx)
	s.Trigger(ctx)
	assert.Equal(t, []bool{false, false}, forces, "no force when not configured")
}

func TestIntervalReschedules(t *testing.T) {
	passes := make(chan struct{}, 8)
	s := New(func(ctx context.Context, force bool) error {
		passes <- struct{}{}
		return nil
	}, 10*time.Millisecond, false)

	s.Start(testCtx(t))
	defer s.Shutdown()

	for i := 0; i < 3; i++ {
		select {
		case <-passes:
		case <-time.After(2 * time.Second):
			t.Fatalf("pass %d never fired", i)
		}
	}
}

func TestShutdownStopsRescheduling(t *testing.T) {
	var calls int32
	s := New(func(ctx context.Context, force bool) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}, 5*time.Millisecond, false)

	s.Start(testCtx(t))
	s.Shutdown()
	seen := atomic.LoadInt32(&calls)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, seen, atomic.LoadInt32(&calls), "no passes after shutdown")
	assert.False(t, s.Trigger(testCtx(t)), "triggers refused after shutdown")
}

func TestShutdownWaitsForInFlightPass(t *testing.T) {
	ctx := testCtx(t)

	started := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool

	s := New(func(ctx context.Context, force bool) error {
		close(started)
		<-release
		finished.Store(true)
		return nil
	}, 0, false)

	go s.Trigger(ctx)
	<-started

	done := make(chan struct{})
	go func() {
		s.Shutdown()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("shutdown returned while a pass was in flight")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown never returned")
	}
	require.True(t, finished.Load(), "in-flight pass ran to completion")
}

func TestPassErrorDoesNotStopScheduling(t *testing.T) {
	ctx := testCtx(t)

	var calls int32
	s := New(func(ctx context.Context, force bool) error {
		atomic.AddInt32(&calls, 1)
		return assert.AnError
	}, 0, false)

	assert.True(t, s.Trigger(ctx), "failing pass still counts as a run")
	assert.True(t, s.Trigger(ctx), "next trigger accepted after a failure")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "both passes ran")
}
