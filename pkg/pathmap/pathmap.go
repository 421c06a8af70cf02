// Package pathmap computes destination paths for (source file, profile)
// pairs and the best-effort inverse used during reconciliation.
package pathmap

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/screenwerk/screensync/pkg/profile"
)

// ReplaceFirstFold replaces the first case-insensitive occurrence of old in s
// with new. s is returned unchanged when old does not occur.
func ReplaceFirstFold(s, old, new string) string {
	idx := indexFold(s, old)
	if idx < 0 {
		return s
	}
	return s[:idx] + new + s[idx+len(old):]
}

// ContainsFold reports whether substr occurs case-insensitively in s.
func ContainsFold(s, substr string) bool {
	return indexFold(s, substr) >= 0
}

func indexFold(s, substr string) int {
	if substr == "" {
		return -1
	}
	return strings.Index(strings.ToLower(s), strings.ToLower(substr))
}

// DestinationRel maps a source-relative path to its destination-relative
// path for one profile: the first case-insensitive occurrence of the search
// pattern in the basename is replaced by the target token, directories are
// preserved unchanged. The mapping is a pure function of its inputs.
func DestinationRel(rel string, p *profile.Profile) string {
	dir, base := filepath.Split(rel)
	return filepath.Join(dir, ReplaceFirstFold(base, p.Search, p.Target))
}

// Destination maps a source-relative path to the absolute destination path
// for one profile.
func Destination(destRoot, rel string, p *profile.Profile) string {
	return filepath.Join(destRoot, DestinationRel(rel, p))
}

// SourceCandidate conjectures the source origin of a destination-relative
// path. Each profile's target token is substituted back to its search
// pattern in table order; the first candidate that exists under sourceRoot
// wins. A name carrying no target token maps to itself (the plain-copy
// case). The second return is false when nothing resolves: the artifact is
// an orphan.
//
// This inversion is textual and first-match-wins; overlapping tokens across
// profiles are resolved by table order, nothing stronger.
func SourceCandidate(sourceRoot, destRel string, t *profile.Table) (string, bool) {
	dir, base := filepath.Split(destRel)

	for _, p := range t.Profiles() {
		if !ContainsFold(base, p.Target) {
			continue
		}
		rel := filepath.Join(dir, ReplaceFirstFold(base, p.Target, p.Search))
		if existsFile(filepath.Join(sourceRoot, rel)) {
			return rel, true
		}
	}

	// No token (or no token-derived hit): the artifact may be a verbatim copy.
	if existsFile(filepath.Join(sourceRoot, destRel)) {
		return destRel, true
	}

	return "", false
}

// ConvertedOrigin resolves destination files produced by noscreen
// conversion, whose extension was rewritten to the managed container. It
// scans the mirrored source directory for an entry with the same stem
// (case-insensitive) and any extension.
func ConvertedOrigin(sourceRoot, destRel, container string) (string, bool) {
	dir, base := filepath.Split(destRel)
	ext := filepath.Ext(base)
	if !strings.EqualFold(ext, container) {
		return "", false
	}
	stem := strings.TrimSuffix(base, ext)

	entries, err := os.ReadDir(filepath.Join(sourceRoot, dir))
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.EqualFold(strings.TrimSuffix(name, filepath.Ext(name)), stem) {
			return filepath.Join(dir, name), true
		}
	}
	return "", false
}

func existsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
