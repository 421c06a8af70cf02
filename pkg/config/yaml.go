package config

import (
	"bytes"
	"context"
	"strings"

	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// Screens is an ordered list of screen profiles. YAML represents them as a
// mapping of name -> screen; decoding goes through the raw node so the
// document order survives (go maps would shuffle it).
type Screens []Screen

// UnmarshalYAML implements yaml.Unmarshaler
func (s *Screens) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errors.Errorf("screens must be a mapping of name to screen")
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var name string
		if err := node.Content[i].Decode(&name); err != nil {
			return errors.Errorf("decoding screen name: %w", err)
		}
		var sc Screen
		if err := node.Content[i+1].Decode(&sc); err != nil {
			return errors.Errorf("decoding screen %q: %w", name, err)
		}
		sc.Name = name
		*s = append(*s, sc)
	}
	return nil
}

// 🔧 YAMLParser implements the Parser interface for YAML files
type YAMLParser struct{}

func init() {
	Register(&YAMLParser{})
}

func (p *YAMLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml")
}

func (p *YAMLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &cfg, nil
}
