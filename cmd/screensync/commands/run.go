package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"atomicgo.dev/keyboard"
	"atomicgo.dev/keyboard/keys"
	"github.com/rs/zerolog"
	"github.com/screenwerk/screensync/cmd/screensync/opts"
	"github.com/screenwerk/screensync/pkg/schedule"
	"github.com/screenwerk/screensync/pkg/watch"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// NewRunCmd creates the run command: the long-lived scheduler loop with
// keyboard, timer, and optional filesystem-watch triggers.
func NewRunCmd(build opts.Builder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run passes continuously",
		Long: `Run executes a pass immediately, then keeps the destination in sync:
a timer fires after the configured retry interval, any keypress triggers a
manual pass, and (with watch enabled) source changes trigger one as well.
Press q to quit once the current pass finishes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			o, err := build(sigCtx)
			if err != nil {
				return err
			}

			// Passes run on a context that carries only the logger. Quit
			// keys and signals initiate shutdown but never cancel the pass
			// context: an already-dispatched transform runs to completion.
			passCtx := zerolog.Ctx(sigCtx).WithContext(context.Background())

			sched := schedule.New(func(ctx context.Context, force bool) error {
				_, passErr := o.Operator.Pass(ctx, force)
				return passErr
			}, time.Duration(o.Config.Retry)*time.Minute, o.Config.Force)

			watchCtx, cancelWatch := context.WithCancel(sigCtx)
			defer cancelWatch()
			g, gctx := errgroup.WithContext(watchCtx)
			if o.Config.Watch {
				w := watch.New(o.Config.Source, 0, func() {
					sched.Trigger(passCtx)
				})
				g.Go(func() error {
					return w.Run(gctx)
				})
			}

			quit := make(chan struct{})
			go listenKeys(passCtx, sched, quit)

			o.Out.Info("press any key to trigger a pass, q to quit")
			runLoop(passCtx, sigCtx, sched, quit)

			cancelWatch()
			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return errors.Errorf("watcher: %w", err)
			}
			o.Out.Info("shut down")
			return nil
		},
	}

	return cmd
}

// runLoop drives the scheduler until a quit key or signal arrives, then
// shuts down. Shutdown waits for the in-flight pass, and nothing here
// cancels passCtx, so quit takes effect only between passes.
func runLoop(passCtx, sigCtx context.Context, sched *schedule.Scheduler, quit <-chan struct{}) {
	sched.Start(passCtx)

	select {
	case <-sigCtx.Done():
	case <-quit:
	}

	sched.Shutdown()
}

// listenKeys maps keys to scheduler triggers: q (or Ctrl+C / Escape) quits,
// anything else attempts a pass. Triggers run on their own goroutine so the
// listener keeps draining input during a pass. Without a usable terminal
// the listener bows out and leaves quitting to signals.
func listenKeys(ctx context.Context, sched *schedule.Scheduler, quit chan<- struct{}) {
	err := keyboard.Listen(func(key keys.Key) (bool, error) {
		switch key.Code {
		case keys.CtrlC, keys.Escape:
			return true, nil
		case keys.RuneKey:
			if key.String() == "q" {
				return true, nil
			}
		}
		go sched.Trigger(ctx)
		return false, nil
	})
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("keyboard listener unavailable")
		return
	}
	close(quit)
}
