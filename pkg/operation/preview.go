package operation

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/screenwerk/screensync/pkg/config"
	"github.com/screenwerk/screensync/pkg/pathmap"
	"github.com/screenwerk/screensync/pkg/walker"
	"gitlab.com/tozd/go/errors"
)

// PendingItem is one piece of work the next pass would perform.
type PendingItem struct {
	Rel     string // source-relative path
	Profile string // profile name, empty for copy/convert
	Dest    string // destination-relative path
	Action  string // transform | convert | copy
}

// Preview is a dry-run view of the next pass: what would be produced and
// what would be deleted. Nothing on disk changes while computing it.
type Preview struct {
	Pending []PendingItem
	Orphans *walker.Plan
}

// Preview computes the pending plan for the current trees. Force flags are
// ignored: it reports what a plain pass would do.
func (o *Operator) Preview(ctx context.Context) (*Preview, error) {
	plan, err := walker.BuildPlan(ctx, o.cfg.Destination, o.cfg.Source, o.table, o.reconcileContainer())
	if err != nil {
		return nil, errors.Errorf("planning reconciliation: %w", err)
	}
	pv := &Preview{Orphans: plan}

	// The reconciliation deletions below are part of the same pass, so a
	// planned-away artifact does not count as existing.
	deleted := make(map[string]bool, len(plan.Files))
	for _, rel := range plan.Files {
		deleted[rel] = true
	}

	err = walker.WalkSource(ctx, o.cfg.Source, o.cfg.Excludes, func(abs, rel string) error {
		base := filepath.Base(rel)
		if o.table.IsOutput(base) {
			return nil
		}

		matches := o.table.Matches(base)
		if len(matches) == 0 {
			ext := filepath.Ext(rel)
			if strings.EqualFold(ext, o.cfg.Transform.Container) {
				return nil
			}
			switch o.cfg.NoScreen {
			case config.NoScreenCopy:
				if o.missing(rel, deleted) {
					pv.Pending = append(pv.Pending, PendingItem{Rel: rel, Dest: rel, Action: "copy"})
				}
			case config.NoScreenConvert:
				destRel := strings.TrimSuffix(rel, ext) + o.cfg.Transform.Container
				if o.missing(destRel, deleted) {
					pv.Pending = append(pv.Pending, PendingItem{Rel: rel, Dest: destRel, Action: "convert"})
				}
			}
			return nil
		}

		for _, p := range matches {
			destRel := pathmap.DestinationRel(rel, p)
			if o.missing(destRel, deleted) {
				pv.Pending = append(pv.Pending, PendingItem{Rel: rel, Profile: p.Name, Dest: destRel, Action: "transform"})
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("walking source: %w", err)
	}

	return pv, nil
}

func (o *Operator) missing(destRel string, deleted map[string]bool) bool {
	if deleted[destRel] {
		return true
	}
	_, err := os.Stat(filepath.Join(o.cfg.Destination, destRel))
	return err != nil
}
