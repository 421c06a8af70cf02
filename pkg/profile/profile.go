// Package profile holds the validated, immutable table of transform profiles
// and the filename matching rules built on top of it.
package profile

import (
	"strings"

	"github.com/screenwerk/screensync/pkg/config"
	"gitlab.com/tozd/go/errors"
)

// Alignment controls where content sits inside the padded player frame.
type Alignment int

const (
	// AlignCenter centers the content, splitting the padding on both axes.
	AlignCenter Alignment = iota
	// AlignOrigin anchors the content at (0,0); padding goes bottom/right only.
	AlignOrigin
)

func (a Alignment) String() string {
	if a == AlignOrigin {
		return config.AlignOrigin
	}
	return config.AlignCenter
}

// Profile is one named transformation rule. All fields are fixed at load
// time; CropRatio is derived once and never recomputed.
type Profile struct {
	Name         string
	Search       string // case-insensitive substring matched against basenames
	Target       string // token replacing Search in output basenames
	Width        int
	Height       int
	PlayerWidth  int
	PlayerHeight int
	HScale       float64
	VScale       float64
	Align        Alignment
	Force        bool

	// CropRatio = (Width*HScale) / (Height*VScale)
	CropRatio float64
}

// Table is the ordered, immutable set of profiles for a run. Order is the
// declaration order in the configuration.
type Table struct {
	profiles []*Profile
	byName   map[string]*Profile
}

// NewTable builds a Table from validated screen configs.
func NewTable(screens []config.Screen) (*Table, error) {
	t := &Table{byName: make(map[string]*Profile, len(screens))}
	for _, sc := range screens {
		if _, ok := t.byName[sc.Name]; ok {
			return nil, errors.Errorf("profile %q: duplicate name", sc.Name)
		}
		p := &Profile{
			Name:         sc.Name,
			Search:       sc.Search,
			Target:       sc.Target,
			Width:        sc.Resolution[0],
			Height:       sc.Resolution[1],
			PlayerWidth:  sc.Player[0],
			PlayerHeight: sc.Player[1],
			HScale:       sc.HScale,
			VScale:       sc.VScale,
			Force:        sc.Force,
		}
		if sc.Align == config.AlignOrigin {
			p.Align = AlignOrigin
		}
		denom := float64(p.Height) * p.VScale
		if denom == 0 {
			return nil, errors.Errorf("profile %q: zero crop denominator", sc.Name)
		}
		p.CropRatio = float64(p.Width) * p.HScale / denom
		t.profiles = append(t.profiles, p)
		t.byName[p.Name] = p
	}
	if len(t.profiles) == 0 {
		return nil, errors.Errorf("no profiles configured")
	}
	return t, nil
}

// Profiles returns the profiles in table order. Callers must not modify
// the returned slice.
func (t *Table) Profiles() []*Profile {
	return t.profiles
}

// Get looks a profile up by name.
func (t *Table) Get(name string) (*Profile, bool) {
	p, ok := t.byName[name]
	return p, ok
}

// Len returns the number of profiles.
func (t *Table) Len() int {
	return len(t.profiles)
}

// Matches returns, in table order, every profile whose search pattern occurs
// case-insensitively in filename. All matches apply independently: one
// source file can fan out to several destination artifacts.
func (t *Table) Matches(filename string) []*Profile {
	lower := strings.ToLower(filename)
	var out []*Profile
	for _, p := range t.profiles {
		if strings.Contains(lower, strings.ToLower(p.Search)) {
			out = append(out, p)
		}
	}
	return out
}

// IsOutput reports whether filename contains any profile's target token,
// meaning it is itself an artifact of a prior pass. Such files are never
// matched or transformed again; without this check a target directory fed
// back as source would recurse.
func (t *Table) IsOutput(filename string) bool {
	lower := strings.ToLower(filename)
	for _, p := range t.profiles {
		if strings.Contains(lower, strings.ToLower(p.Target)) {
			return true
		}
	}
	return false
}
