package commands

import (
	"github.com/screenwerk/screensync/cmd/screensync/opts"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// NewOnceCmd creates the once command: a single pass, no rescheduling.
func NewOnceCmd(build opts.Builder) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			o, err := build(ctx)
			if err != nil {
				return err
			}

			res, err := o.Operator.Pass(ctx, force || o.Config.Force)
			if err != nil {
				return errors.Errorf("running pass: %w", err)
			}

			if res.Failures > 0 {
				o.Out.Errorf("pass finished with %d failure(s)", res.Failures)
				return errors.Errorf("%d file(s) failed", res.Failures)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "redo work even when destination artifacts exist")

	return cmd
}
