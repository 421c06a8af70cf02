// Package status renders per-file pass output on the console while
// mirroring every line into structured logs.
package status

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	fileIndent   = 4  // spaces to indent file entries
	nameWidth    = 45 // base width for the relative path
	profileWidth = 10 // width for the profile name
)

// Actions a pass can report for a file.
const (
	ActionTransformed = "transformed"
	ActionConverted   = "converted"
	ActionCopied      = "copied"
	ActionSkipped     = "skipped"
	ActionRemoved     = "removed"
	ActionFailed      = "failed"
)

// 🎯 FileOperation represents one per-file event of a pass
type FileOperation struct {
	Path    string // relative path
	Profile string // profile name, empty for non-profile events
	Action  string
	Detail  string // free-form, e.g. "exists" or "1920x1080 -> 256x256"
}

// 🎯 Logger handles user-facing console output backed by zerolog
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
}

// 🏭 New creates a new logger
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 📝 formatFileOperation formats one file event for display
func (l *Logger) formatFileOperation(op FileOperation) string {
	var symbol rune
	var symbolColor color.Attribute
	switch op.Action {
	case ActionRemoved:
		symbol = '✗'
		symbolColor = color.FgRed
	case ActionTransformed, ActionConverted, ActionCopied:
		symbol = '✓'
		symbolColor = color.FgGreen
	case ActionFailed:
		symbol = '!'
		symbolColor = color.FgRed
	default:
		symbol = '-'
		symbolColor = color.FgYellow
	}

	prof := op.Profile
	if prof == "" {
		prof = "-"
	}

	line := fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, op.Path),
		color.New(color.FgCyan).Sprint(fmt.Sprintf("%-*s", profileWidth, prof)),
		op.Action)
	if op.Detail != "" {
		line += " " + color.New(color.Faint).Sprint("("+op.Detail+")")
	}
	return line
}

// 📝 File logs one per-file event
func (l *Logger) File(op FileOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintln(l.console, l.formatFileOperation(op))

	l.zlog.Info().
		Str("file", op.Path).
		Str("profile", op.Profile).
		Str("action", op.Action).
		Str("detail", op.Detail).
		Msg("file operation")
}

// 📝 StartPass prints the pass header with the active configuration snapshot
func (l *Logger) StartPass(configSummary string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.console, "\n%s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint("pass starting"))
	fmt.Fprintf(l.console, "  %s\n", color.New(color.Faint).Sprint(configSummary))

	l.zlog.Info().Str("config", configSummary).Msg("pass starting")
}

// 📝 EndPass prints the pass summary line
func (l *Logger) EndPass(summary string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.console, "%s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		summary)
	l.zlog.Info().Str("summary", summary).Msg("pass finished")
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}
