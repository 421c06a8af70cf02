package transform

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/screenwerk/screensync/pkg/config"
	"gitlab.com/tozd/go/errors"
)

// Request describes one invocation of the media transform executor.
type Request struct {
	Input  string
	Output string
	Geo    Geometry
}

// Executor is the external collaborator doing the actual media work. It is
// opaque to the rest of the engine: success means Output exists, failure
// means it does not (or must not be trusted).
type Executor interface {
	// Probe returns the pixel dimensions of the first video stream.
	Probe(ctx context.Context, path string) (width, height int, err error)

	// Transform runs the crop/scale/pad pipeline synchronously.
	Transform(ctx context.Context, req Request) error

	// Convert transcodes input to the baseline container/codec without
	// any geometry change (the noscreen convert mode).
	Convert(ctx context.Context, input, output string) error
}

// fixed encode parameters for every produced file
var encodeArgs = []string{
	"-c:v", "libx264",
	"-preset", "medium",
	"-crf", "23",
	"-pix_fmt", "yuv420p",
	"-movflags", "+faststart",
	"-an",
}

// FFmpeg invokes ffmpeg/ffprobe processes. Every invocation is bounded by
// the configured timeout; with no timeout a hung process hangs the pass,
// which is the documented tradeoff for keeping a single worker.
type FFmpeg struct {
	ffmpeg  string
	ffprobe string
	timeout time.Duration
}

// NewFFmpeg builds an executor from the transform configuration.
func NewFFmpeg(cfg config.Transform) *FFmpeg {
	return &FFmpeg{
		ffmpeg:  cfg.FFmpeg,
		ffprobe: cfg.FFprobe,
		timeout: time.Duration(cfg.Timeout) * time.Minute,
	}
}

// Probe implements Executor.Probe via ffprobe.
func (f *FFmpeg) Probe(ctx context.Context, path string) (int, int, error) {
	ctx, cancel := f.bound(ctx)
	defer cancel()

	out, err := f.run(ctx, f.ffprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "csv=s=x:p=0",
		path,
	)
	if err != nil {
		return 0, 0, errors.Errorf("probing %s: %w", path, err)
	}

	dims := strings.Split(strings.TrimSpace(out), "x")
	if len(dims) != 2 {
		return 0, 0, errors.Errorf("probing %s: unexpected output %q", path, strings.TrimSpace(out))
	}
	w, err := strconv.Atoi(dims[0])
	if err != nil {
		return 0, 0, errors.Errorf("probing %s: parsing width: %w", path, err)
	}
	h, err := strconv.Atoi(dims[1])
	if err != nil {
		return 0, 0, errors.Errorf("probing %s: parsing height: %w", path, err)
	}
	return w, h, nil
}

// Transform implements Executor.Transform.
func (f *FFmpeg) Transform(ctx context.Context, req Request) error {
	ctx, cancel := f.bound(ctx)
	defer cancel()

	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", req.Input,
		"-vf", req.Geo.Filter(),
	}
	args = append(args, encodeArgs...)
	args = append(args, req.Output)

	if _, err := f.run(ctx, f.ffmpeg, args...); err != nil {
		return errors.Errorf("transforming %s: %w", req.Input, err)
	}
	return nil
}

// Convert implements Executor.Convert.
func (f *FFmpeg) Convert(ctx context.Context, input, output string) error {
	ctx, cancel := f.bound(ctx)
	defer cancel()

	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", input,
	}
	args = append(args, encodeArgs...)
	args = append(args, output)

	if _, err := f.run(ctx, f.ffmpeg, args...); err != nil {
		return errors.Errorf("converting %s: %w", input, err)
	}
	return nil
}

func (f *FFmpeg) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.timeout > 0 {
		return context.WithTimeout(ctx, f.timeout)
	}
	return context.WithCancel(ctx)
}

func (f *FFmpeg) run(ctx context.Context, bin string, args ...string) (string, error) {
	zerolog.Ctx(ctx).Debug().Str("bin", bin).Strs("args", args).Msg("invoking executor")

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return "", errors.Errorf("%s: %s", bin, firstLine(detail))
	}
	return stdout.String(), nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return fmt.Sprintf("%s (truncated)", s[:i])
	}
	return s
}
