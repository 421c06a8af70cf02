package status

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) (*Logger, *bytes.Buffer) {
	t.Helper()

	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	return New(&buf, zerolog.New(zerolog.TestWriter{T: t})), &buf
}

func TestFileOperationFormatting(t *testing.T) {
	tests := []struct {
		name   string
		op     FileOperation
		symbol string
		detail string
	}{
		{
			name:   "transformed",
			op:     FileOperation{Path: "clip_LED_1.mp4", Profile: "256", Action: ActionTransformed, Detail: "256x256"},
			symbol: "✓",
			detail: "(256x256)",
		},
		{
			name:   "removed",
			op:     FileOperation{Path: "stale_LED256_9.mp4", Action: ActionRemoved, Detail: "no origin"},
			symbol: "✗",
			detail: "(no origin)",
		},
		{
			name:   "failed",
			op:     FileOperation{Path: "bad_LED_1.mp4", Profile: "512", Action: ActionFailed, Detail: "encode failed"},
			symbol: "!",
			detail: "(encode failed)",
		},
		{
			name:   "skipped",
			op:     FileOperation{Path: "notes.txt", Action: ActionSkipped},
			symbol: "-",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newTestLogger(t)
			logger.File(tt.op)

			line := buf.String()
			assert.True(t, strings.HasPrefix(line, "    "+tt.symbol+" "), "symbol prefix in %q", line)
			assert.Contains(t, line, tt.op.Path, "path present")
			assert.Contains(t, line, tt.op.Action, "action present")
			if tt.op.Profile != "" {
				assert.Contains(t, line, tt.op.Profile, "profile present")
			} else {
				assert.Contains(t, line, " - ", "placeholder for missing profile")
			}
			if tt.detail != "" {
				assert.Contains(t, line, tt.detail, "detail present")
			}
		})
	}
}

func TestPassFraming(t *testing.T) {
	logger, buf := newTestLogger(t)

	logger.StartPass("/src -> /dst [screens: 256]")
	logger.File(FileOperation{Path: "clip_LED_1.mp4", Profile: "256", Action: ActionTransformed})
	logger.EndPass("transformed 1, converted 0, copied 0, removed 0, skipped 0, failed 0")

	out := buf.String()
	require.Contains(t, out, "pass starting", "header present")
	assert.Contains(t, out, "/src -> /dst [screens: 256]", "config snapshot present")
	assert.Contains(t, out, "transformed 1", "summary present")

	start := strings.Index(out, "pass starting")
	file := strings.Index(out, "clip_LED_1.mp4")
	end := strings.Index(out, "transformed 1")
	assert.True(t, start < file && file < end, "header, files, summary in order")
}

func TestMessageLevels(t *testing.T) {
	logger, buf := newTestLogger(t)

	logger.Infof("watching %s", "/src")
	logger.Warningf("orphan count: %d", 3)
	logger.Errorf("pass failed: %s", "boom")

	out := buf.String()
	assert.Contains(t, out, "watching /src", "info formatted")
	assert.Contains(t, out, "orphan count: 3", "warning formatted")
	assert.Contains(t, out, "pass failed: boom", "error formatted")
}
