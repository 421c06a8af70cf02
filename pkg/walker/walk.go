// Package walker enumerates the source tree and reconciles the destination
// tree against it. Reconciliation is split into a pure plan (a deletion set
// computed without mutation) and its application.
package walker

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Transient marker tokens of the sync layer feeding the source tree:
// conflict copies and in-progress temp files must never be processed.
var transientMarkers = []string{".sync-conflict-", ".syncthing."}

// Excluded reports whether a single path element is out of scope for both
// walking and reconciliation: hidden entries and sync-transient artifacts.
func Excluded(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, marker := range transientMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

// VisitFunc is called for every file the source walk yields.
type VisitFunc func(absPath, relPath string) error

// WalkSource traverses root depth-first and calls visit exactly once per
// included file. Unreadable entries are logged and skipped; traversal
// continues with their siblings. excludeGlobs are doublestar patterns
// matched against source-relative paths.
func WalkSource(ctx context.Context, root string, excludeGlobs []string, visit VisitFunc) error {
	logger := zerolog.Ctx(ctx)

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			logger.Warn().Str("path", path).Err(err).Msg("unreadable entry, skipping")
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return errors.Errorf("relativizing %s: %w", path, relErr)
		}
		if rel == "." {
			return nil
		}

		if Excluded(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		for _, pattern := range excludeGlobs {
			matched, matchErr := doublestar.Match(pattern, filepath.ToSlash(rel))
			if matchErr != nil {
				return errors.Errorf("invalid exclude pattern %q: %w", pattern, matchErr)
			}
			if matched {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if d.IsDir() {
			return nil
		}
		return visit(path, rel)
	})
}
