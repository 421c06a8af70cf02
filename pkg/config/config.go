package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Parser decodes one configuration format. Implementations register
// themselves at init time; Load asks each in turn whether it claims the
// file (by extension).
type Parser interface {
	// 📝 Parse decodes data into a Config, without validating it
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse reports whether this parser claims the given filename
	CanParse(filename string) bool
}

var parsers []Parser

// 📝 Register appends a parser to the lookup order
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns the first registered parser claiming filename,
// or nil when no format matches
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// NoScreen modes for files that match no screen profile.
const (
	NoScreenSkip    = ""
	NoScreenCopy    = "copy"
	NoScreenConvert = "convert"
)

// Screen alignment values.
const (
	AlignCenter = "center"
	AlignOrigin = "origin"
)

// 📺 Screen is one named transform profile as written in the config file.
// Order of screens in the file is preserved and significant: it is the
// tie-break order when several screens match the same filename.
type Screen struct {
	Name       string  `yaml:"-"`
	Resolution []int   `yaml:"resolution"` // [width, height], required
	Search     string  `yaml:"search"`     // case-insensitive substring, required
	Target     string  `yaml:"target"`     // token replacing search in output names, required
	HScale     float64 `yaml:"h_scale"`
	VScale     float64 `yaml:"v_scale"`
	Player     []int   `yaml:"player"` // defaults to resolution
	Align      string  `yaml:"align"`  // center | origin
	Force      bool    `yaml:"force"`
}

// 🔧 Transform configures the external ffmpeg/ffprobe invocation
type Transform struct {
	FFmpeg    string `yaml:"ffmpeg"`
	FFprobe   string `yaml:"ffprobe"`
	Timeout   int    `yaml:"timeout"`   // minutes per invocation, 0 means unbounded
	Container string `yaml:"container"` // managed output extension, default .mp4
}

// 📚 Config represents the complete configuration
type Config struct {
	Source      string    `yaml:"source"`
	Destination string    `yaml:"destination"`
	Force       bool      `yaml:"force"` // one-shot: applies to the first pass only
	Retry       int       `yaml:"retry"` // minutes between passes, <=0 disables rescheduling
	NoScreen    string    `yaml:"noscreen"`
	Watch       bool      `yaml:"watch"`
	Excludes    []string  `yaml:"excludes"` // extra doublestar globs over source-relative paths
	Transform   Transform `yaml:"transform"`
	Screens     Screens   `yaml:"screens"`
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// 🔍 Validate checks if the configuration is valid and applies defaults
func (cfg *Config) Validate() error {
	if cfg.Source == "" {
		return errors.Errorf("source is required")
	}
	if cfg.Destination == "" {
		return errors.Errorf("destination is required")
	}

	cfg.Source = filepath.Clean(cfg.Source)
	cfg.Destination = filepath.Clean(cfg.Destination)

	if info, err := os.Stat(cfg.Source); err != nil || !info.IsDir() {
		return errors.Errorf("source %q is not an existing directory", cfg.Source)
	}
	if info, err := os.Stat(cfg.Destination); err != nil || !info.IsDir() {
		return errors.Errorf("destination %q is not an existing directory", cfg.Destination)
	}

	cfg.NoScreen = strings.ToLower(cfg.NoScreen)
	switch cfg.NoScreen {
	case NoScreenSkip, NoScreenCopy, NoScreenConvert:
	default:
		return errors.Errorf("noscreen must be %q or %q, got %q", NoScreenCopy, NoScreenConvert, cfg.NoScreen)
	}

	if err := cfg.Transform.validate(); err != nil {
		return err
	}

	if len(cfg.Screens) == 0 {
		return errors.Errorf("at least one screen is required")
	}
	seen := map[string]bool{}
	for i := range cfg.Screens {
		sc := &cfg.Screens[i]
		if seen[sc.Name] {
			return errors.Errorf("screen %q: duplicate name", sc.Name)
		}
		seen[sc.Name] = true
		if err := sc.validate(); err != nil {
			return errors.Errorf("screen %q: %w", sc.Name, err)
		}
	}

	return nil
}

func (sc *Screen) validate() error {
	if sc.Search == "" {
		return errors.Errorf("search is required")
	}
	if sc.Target == "" {
		return errors.Errorf("target is required")
	}
	if len(sc.Resolution) != 2 || sc.Resolution[0] <= 0 || sc.Resolution[1] <= 0 {
		return errors.Errorf("resolution must be [width, height] with positive values")
	}

	// Defaults
	if sc.HScale == 0 {
		sc.HScale = 1.0
	}
	if sc.VScale == 0 {
		sc.VScale = 1.0
	}
	if sc.HScale < 0 || sc.VScale < 0 {
		return errors.Errorf("h_scale and v_scale must be positive")
	}
	if sc.Player == nil {
		sc.Player = sc.Resolution
	}
	if len(sc.Player) != 2 || sc.Player[0] <= 0 || sc.Player[1] <= 0 {
		return errors.Errorf("player must be [width, height] with positive values")
	}
	if sc.Align == "" {
		sc.Align = AlignCenter
	}
	sc.Align = strings.ToLower(sc.Align)
	if sc.Align != AlignCenter && sc.Align != AlignOrigin {
		return errors.Errorf("align must be %q or %q, got %q", AlignCenter, AlignOrigin, sc.Align)
	}

	return nil
}

func (t *Transform) validate() error {
	if t.FFmpeg == "" {
		t.FFmpeg = "ffmpeg"
	}
	if t.FFprobe == "" {
		t.FFprobe = "ffprobe"
	}
	if t.Timeout < 0 {
		return errors.Errorf("transform.timeout must not be negative")
	}
	if t.Container == "" {
		t.Container = ".mp4"
	}
	if !strings.HasPrefix(t.Container, ".") {
		t.Container = "." + t.Container
	}
	t.Container = strings.ToLower(t.Container)
	return nil
}

// 📝 String returns a one-line description of the active configuration,
// printed at the start of every pass.
func (cfg *Config) String() string {
	names := make([]string, len(cfg.Screens))
	for i, sc := range cfg.Screens {
		names[i] = sc.Name
	}
	noscreen := cfg.NoScreen
	if noscreen == NoScreenSkip {
		noscreen = "skip"
	}
	return fmt.Sprintf("%s -> %s [screens: %s] [noscreen: %s] [retry: %dm]",
		cfg.Source, cfg.Destination, strings.Join(names, ", "), noscreen, cfg.Retry)
}
