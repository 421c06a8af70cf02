package config

import (
	"context"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

// hclConfig mirrors Config with HCL struct tags. Screens are written as
// repeated labeled blocks, which keeps their declaration order for free.
type hclConfig struct {
	Source      string        `hcl:"source"`
	Destination string        `hcl:"destination"`
	Force       bool          `hcl:"force,optional"`
	Retry       int           `hcl:"retry,optional"`
	NoScreen    string        `hcl:"noscreen,optional"`
	Watch       bool          `hcl:"watch,optional"`
	Excludes    []string      `hcl:"excludes,optional"`
	Transform   *hclTransform `hcl:"transform,block"`
	Screens     []hclScreen   `hcl:"screen,block"`
}

type hclTransform struct {
	FFmpeg    string `hcl:"ffmpeg,optional"`
	FFprobe   string `hcl:"ffprobe,optional"`
	Timeout   int    `hcl:"timeout,optional"`
	Container string `hcl:"container,optional"`
}

type hclScreen struct {
	Name       string  `hcl:"name,label"`
	Resolution []int   `hcl:"resolution"`
	Search     string  `hcl:"search"`
	Target     string  `hcl:"target"`
	HScale     float64 `hcl:"h_scale,optional"`
	VScale     float64 `hcl:"v_scale,optional"`
	Player     []int   `hcl:"player,optional"`
	Align      string  `hcl:"align,optional"`
	Force      bool    `hcl:"force,optional"`
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

func init() {
	Register(&HCLParser{})
}

func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	var raw hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &raw)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	cfg := &Config{
		Source:      raw.Source,
		Destination: raw.Destination,
		Force:       raw.Force,
		Retry:       raw.Retry,
		NoScreen:    raw.NoScreen,
		Watch:       raw.Watch,
		Excludes:    raw.Excludes,
	}
	if raw.Transform != nil {
		cfg.Transform = Transform{
			FFmpeg:    raw.Transform.FFmpeg,
			FFprobe:   raw.Transform.FFprobe,
			Timeout:   raw.Transform.Timeout,
			Container: raw.Transform.Container,
		}
	}
	for _, sc := range raw.Screens {
		cfg.Screens = append(cfg.Screens, Screen{
			Name:       sc.Name,
			Resolution: sc.Resolution,
			Search:     sc.Search,
			Target:     sc.Target,
			HScale:     sc.HScale,
			VScale:     sc.VScale,
			Player:     sc.Player,
			Align:      sc.Align,
			Force:      sc.Force,
		})
	}

	return cfg, nil
}
