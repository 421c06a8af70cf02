package commands

import (
	"github.com/pterm/pterm"
	"github.com/screenwerk/screensync/cmd/screensync/opts"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// NewStatusCmd creates the status command: a dry run printing what the next
// pass would produce and what it would delete, touching nothing.
func NewStatusCmd(build opts.Builder) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show pending work without doing it",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			o, err := build(ctx)
			if err != nil {
				return err
			}

			pv, err := o.Operator.Preview(ctx)
			if err != nil {
				return errors.Errorf("computing preview: %w", err)
			}

			if len(pv.Pending) == 0 && pv.Orphans.Empty() {
				o.Out.Info("destination is up to date")
				return nil
			}

			if len(pv.Pending) > 0 {
				data := pterm.TableData{{"action", "source", "profile", "destination"}}
				for _, item := range pv.Pending {
					prof := item.Profile
					if prof == "" {
						prof = "-"
					}
					data = append(data, []string{item.Action, item.Rel, prof, item.Dest})
				}
				if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
					return errors.Errorf("rendering table: %w", err)
				}
			}

			for _, rel := range pv.Orphans.Files {
				o.Out.Warningf("orphaned file: %s", rel)
			}
			for _, rel := range pv.Orphans.Dirs {
				o.Out.Warningf("orphaned directory: %s", rel)
			}

			o.Out.Infof("%d pending, %d orphan(s)",
				len(pv.Pending), len(pv.Orphans.Files)+len(pv.Orphans.Dirs))
			return nil
		},
	}

	return cmd
}
