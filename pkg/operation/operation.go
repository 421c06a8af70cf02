// Package operation runs one full pass: reconcile the destination tree,
// then walk the source tree and dispatch transforms per matching profile.
package operation

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/screenwerk/screensync/pkg/config"
	"github.com/screenwerk/screensync/pkg/pathmap"
	"github.com/screenwerk/screensync/pkg/profile"
	"github.com/screenwerk/screensync/pkg/status"
	"github.com/screenwerk/screensync/pkg/transform"
	"github.com/screenwerk/screensync/pkg/walker"
	"gitlab.com/tozd/go/errors"
)

// Result is the tally of one pass. A second pass over an unchanged tree
// with force disabled must report Work() == 0.
type Result struct {
	Transformed     int
	Converted       int
	Copied          int
	SkippedExisting int // destination artifact already present
	SkippedOutput   int // source file is itself a prior output
	SkippedNoMatch  int // no profile matched, noscreen mode is skip
	RemovedFiles    int
	RemovedDirs     int
	Failures        int
}

// Work returns the number of mutations the pass performed.
func (r Result) Work() int {
	return r.Transformed + r.Converted + r.Copied + r.RemovedFiles + r.RemovedDirs
}

// Summary renders the tally as a single line.
func (r Result) Summary() string {
	return fmt.Sprintf("transformed %d, converted %d, copied %d, removed %d, skipped %d, failed %d",
		r.Transformed, r.Converted, r.Copied,
		r.RemovedFiles+r.RemovedDirs,
		r.SkippedExisting+r.SkippedOutput+r.SkippedNoMatch,
		r.Failures)
}

// 🔧 Options contains the collaborators of the operator
type Options struct {
	Config     *config.Config
	Table      *profile.Table
	Dispatcher *transform.Dispatcher
	Out        *status.Logger
}

// 🎮 Operator executes passes over the two trees
type Operator struct {
	cfg        *config.Config
	table      *profile.Table
	dispatcher *transform.Dispatcher
	out        *status.Logger
}

// 🏭 New creates a new operator with the given options
func New(opts Options) (*Operator, error) {
	if opts.Config == nil {
		return nil, errors.Errorf("config is required")
	}
	if opts.Table == nil {
		return nil, errors.Errorf("profile table is required")
	}
	if opts.Dispatcher == nil {
		return nil, errors.Errorf("dispatcher is required")
	}
	if opts.Out == nil {
		return nil, errors.Errorf("status logger is required")
	}
	return &Operator{
		cfg:        opts.Config,
		table:      opts.Table,
		dispatcher: opts.Dispatcher,
		out:        opts.Out,
	}, nil
}

// reconcileContainer enables stem-based origin lookup for converted files
// only when conversion can actually have produced them.
func (o *Operator) reconcileContainer() string {
	if o.cfg.NoScreen == config.NoScreenConvert {
		return o.cfg.Transform.Container
	}
	return ""
}

// reconcile builds and applies the deletion plan. Only deletions that
// actually happened are reported; a failed removal is logged by Apply and
// stays out of the tally.
func (o *Operator) reconcile(ctx context.Context) (files, dirs int, err error) {
	plan, err := walker.BuildPlan(ctx, o.cfg.Destination, o.cfg.Source, o.table, o.reconcileContainer())
	if err != nil {
		return 0, 0, errors.Errorf("planning reconciliation: %w", err)
	}

	removedFiles, removedDirs := walker.Apply(ctx, o.cfg.Destination, plan)
	for _, rel := range removedFiles {
		o.out.File(status.FileOperation{Path: rel, Action: status.ActionRemoved, Detail: "no origin"})
	}
	for _, rel := range removedDirs {
		o.out.File(status.FileOperation{Path: rel + string(filepath.Separator), Action: status.ActionRemoved, Detail: "no origin"})
	}
	return len(removedFiles), len(removedDirs), nil
}

// Pass runs one reconcile+transform cycle. Reconciliation runs first so a
// renamed source file frees its old destination name before the walk
// decides what is still needed. Per-file failures are reported and do not
// abort the pass.
func (o *Operator) Pass(ctx context.Context, force bool) (Result, error) {
	logger := zerolog.Ctx(ctx)
	var res Result

	summary := o.cfg.String()
	if force {
		summary += " [force]"
	}
	o.out.StartPass(summary)

	var err error
	res.RemovedFiles, res.RemovedDirs, err = o.reconcile(ctx)
	if err != nil {
		return res, err
	}

	err = walker.WalkSource(ctx, o.cfg.Source, o.cfg.Excludes, func(abs, rel string) error {
		o.processFile(ctx, abs, rel, force, &res)
		return nil
	})
	if err != nil {
		return res, errors.Errorf("walking source: %w", err)
	}

	o.out.EndPass(res.Summary())
	logger.Info().Int("work", res.Work()).Int("failures", res.Failures).Msg("pass complete")
	return res, nil
}

// processFile runs the matcher/mapper/dispatcher pipeline for one file.
func (o *Operator) processFile(ctx context.Context, abs, rel string, force bool, res *Result) {
	base := filepath.Base(rel)

	if o.table.IsOutput(base) {
		o.out.File(status.FileOperation{Path: rel, Action: status.ActionSkipped, Detail: "already an output"})
		res.SkippedOutput++
		return
	}

	matches := o.table.Matches(base)
	if len(matches) == 0 {
		o.noScreen(ctx, abs, rel, force, res)
		return
	}

	for _, p := range matches {
		dest := pathmap.Destination(o.cfg.Destination, rel, p)
		outcome, err := o.dispatcher.Dispatch(ctx, abs, dest, p, force)
		switch outcome {
		case transform.OutcomeSkipped:
			res.SkippedExisting++
		case transform.OutcomeTransformed:
			res.Transformed++
			o.out.File(status.FileOperation{
				Path:    rel,
				Profile: p.Name,
				Action:  status.ActionTransformed,
				Detail:  fmt.Sprintf("%dx%d", p.PlayerWidth, p.PlayerHeight),
			})
		case transform.OutcomeFailed:
			res.Failures++
			o.out.File(status.FileOperation{Path: rel, Profile: p.Name, Action: status.ActionFailed, Detail: err.Error()})
		}
	}
}

// noScreen handles files matching no profile. Files already carrying the
// managed container extension are left alone; the rest are copied,
// converted, or skipped per configuration.
func (o *Operator) noScreen(ctx context.Context, abs, rel string, force bool, res *Result) {
	ext := filepath.Ext(rel)
	if strings.EqualFold(ext, o.cfg.Transform.Container) {
		zerolog.Ctx(ctx).Debug().Str("path", rel).Msg("no matching profile")
		res.SkippedNoMatch++
		return
	}

	switch o.cfg.NoScreen {
	case config.NoScreenCopy:
		dest := filepath.Join(o.cfg.Destination, rel)
		copied, err := copyFile(abs, dest, force)
		if err != nil {
			res.Failures++
			o.out.File(status.FileOperation{Path: rel, Action: status.ActionFailed, Detail: err.Error()})
			return
		}
		if !copied {
			res.SkippedExisting++
			return
		}
		res.Copied++
		o.out.File(status.FileOperation{Path: rel, Action: status.ActionCopied})

	case config.NoScreenConvert:
		destRel := strings.TrimSuffix(rel, ext) + o.cfg.Transform.Container
		dest := filepath.Join(o.cfg.Destination, destRel)
		outcome, err := o.dispatcher.DispatchConvert(ctx, abs, dest, force)
		switch outcome {
		case transform.OutcomeSkipped:
			res.SkippedExisting++
		case transform.OutcomeTransformed:
			res.Converted++
			o.out.File(status.FileOperation{Path: rel, Action: status.ActionConverted, Detail: destRel})
		case transform.OutcomeFailed:
			res.Failures++
			o.out.File(status.FileOperation{Path: rel, Action: status.ActionFailed, Detail: err.Error()})
		}

	default:
		o.out.File(status.FileOperation{Path: rel, Action: status.ActionSkipped, Detail: "no matching profile"})
		res.SkippedNoMatch++
	}
}
