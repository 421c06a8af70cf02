package transform

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/screenwerk/screensync/pkg/profile"
	"gitlab.com/tozd/go/errors"
)

// Outcome reports what Dispatch did for one (file, profile) pair.
type Outcome int

const (
	// OutcomeSkipped means the destination already exists and no force flag applies.
	OutcomeSkipped Outcome = iota
	// OutcomeTransformed means a new artifact was produced.
	OutcomeTransformed
	// OutcomeFailed means the executor or a filesystem step failed for this pair.
	OutcomeFailed
)

// Dispatcher decides work-needed vs skip for one source file under one
// profile and drives the executor. A failure is confined to the pair: the
// caller logs it and moves on.
type Dispatcher struct {
	exec Executor
}

// NewDispatcher wires a dispatcher to an executor.
func NewDispatcher(exec Executor) *Dispatcher {
	return &Dispatcher{exec: exec}
}

// Dispatch produces output from input under profile p. When the output
// already exists it is skipped unless the pass-level or profile-level force
// flag is set; an existing file is trusted as-is, partial leftovers from an
// interrupted run included.
func (d *Dispatcher) Dispatch(ctx context.Context, input, output string, p *profile.Profile, force bool) (Outcome, error) {
	logger := zerolog.Ctx(ctx)

	if !force && !p.Force {
		if _, err := os.Stat(output); err == nil {
			logger.Debug().Str("output", output).Str("profile", p.Name).Msg("destination exists, skipping")
			return OutcomeSkipped, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return OutcomeFailed, errors.Errorf("creating destination directory: %w", err)
	}

	w, h, err := d.exec.Probe(ctx, input)
	if err != nil {
		return OutcomeFailed, err
	}

	geo, err := ComputeGeometry(w, h, p)
	if err != nil {
		return OutcomeFailed, errors.Errorf("computing geometry for %s: %w", input, err)
	}

	if err := d.exec.Transform(ctx, Request{Input: input, Output: output, Geo: geo}); err != nil {
		// Do not leave a half-written artifact that the next pass would
		// mistake for a finished one.
		_ = os.Remove(output)
		return OutcomeFailed, err
	}

	logger.Debug().
		Str("output", output).
		Str("profile", p.Name).
		Int("width", geo.PadW).
		Int("height", geo.PadH).
		Msg("transform complete")
	return OutcomeTransformed, nil
}

// DispatchConvert transcodes input to output with no geometry change,
// honoring the same exists/force skip rule.
func (d *Dispatcher) DispatchConvert(ctx context.Context, input, output string, force bool) (Outcome, error) {
	if !force {
		if _, err := os.Stat(output); err == nil {
			return OutcomeSkipped, nil
		}
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return OutcomeFailed, errors.Errorf("creating destination directory: %w", err)
	}
	if err := d.exec.Convert(ctx, input, output); err != nil {
		_ = os.Remove(output)
		return OutcomeFailed, err
	}
	return OutcomeTransformed, nil
}
