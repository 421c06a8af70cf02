package commands

import (
	"github.com/screenwerk/screensync/cmd/screensync/opts"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// NewCleanCmd creates the clean command: reconcile the destination tree
// only, producing nothing.
func NewCleanCmd(build opts.Builder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove orphaned destination artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			o, err := build(ctx)
			if err != nil {
				return err
			}

			res, err := o.Operator.Clean(ctx)
			if err != nil {
				return errors.Errorf("cleaning destination: %w", err)
			}

			o.Out.Infof("removed %d file(s), %d directory(ies)", res.RemovedFiles, res.RemovedDirs)
			return nil
		},
	}

	return cmd
}
