package main

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/screenwerk/screensync/cmd/screensync/commands"
	"github.com/screenwerk/screensync/cmd/screensync/opts"
	"github.com/screenwerk/screensync/pkg/config"
	"github.com/screenwerk/screensync/pkg/operation"
	"github.com/screenwerk/screensync/pkg/profile"
	"github.com/screenwerk/screensync/pkg/status"
	"github.com/screenwerk/screensync/pkg/transform"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

var (
	// Flags
	configFile string
	debug      bool
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "screensync",
		Short: "Mirror a media tree into per-screen variants",
		Long: `screensync mirrors a source directory into a destination directory,
producing one cropped/scaled/padded variant per matching screen profile and
removing destination artifacts whose source disappeared.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
	}
	addRootFlags(cmd)

	cmd.AddCommand(
		commands.NewRunCmd(newRootOpts),
		commands.NewOnceCmd(newRootOpts),
		commands.NewStatusCmd(newRootOpts),
		commands.NewCleanCmd(newRootOpts),
	)

	return cmd
}

// newRootOpts creates RootOpts with initialized dependencies
func newRootOpts(ctx context.Context) (*opts.RootOpts, error) {
	cfg, err := config.Load(ctx, configFile)
	if err != nil {
		return nil, errors.Errorf("loading config: %w", err)
	}

	table, err := profile.NewTable(cfg.Screens)
	if err != nil {
		return nil, errors.Errorf("building profile table: %w", err)
	}

	out := status.New(os.Stdout, *zerolog.Ctx(ctx))
	dispatcher := transform.NewDispatcher(transform.NewFFmpeg(cfg.Transform))

	op, err := operation.New(operation.Options{
		Config:     cfg,
		Table:      table,
		Dispatcher: dispatcher,
		Out:        out,
	})
	if err != nil {
		return nil, errors.Errorf("creating operator: %w", err)
	}

	return &opts.RootOpts{
		Config:   cfg,
		Table:    table,
		Operator: op,
		Out:      out,
	}, nil
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "screensync.yaml", "config file path")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
}

// setupLogging configures zerolog based on flags
func setupLogging() {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log
}
