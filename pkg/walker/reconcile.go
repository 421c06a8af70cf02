package walker

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/screenwerk/screensync/pkg/pathmap"
	"github.com/screenwerk/screensync/pkg/profile"
	"gitlab.com/tozd/go/errors"
)

// Plan is the deletion set one reconciliation pass would apply: destination
// artifacts whose conjectured source no longer exists. Building it performs
// no mutation, so the decision is testable on its own.
type Plan struct {
	// Dirs are destination-relative directories to remove recursively.
	// Their subtrees are not listed in Files.
	Dirs []string
	// Files are destination-relative orphaned files.
	Files []string
}

// Empty reports whether the plan has nothing to delete.
func (p *Plan) Empty() bool {
	return len(p.Dirs) == 0 && len(p.Files) == 0
}

// BuildPlan walks destRoot depth-first and resolves every entry back to the
// source tree. Directories map by prefix substitution alone (no token
// replacement at directory level); a directory with no source counterpart
// is deleted whole and not descended into. Files resolve through the
// inverse token mapping; when container is non-empty, converted files
// (managed extension, rewritten from some other source extension) are also
// matched by stem. Hidden and sync-transient entries under the destination
// are not ours and are left alone.
func BuildPlan(ctx context.Context, destRoot, sourceRoot string, table *profile.Table, container string) (*Plan, error) {
	logger := zerolog.Ctx(ctx)
	plan := &Plan{}

	err := filepath.WalkDir(destRoot, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			logger.Warn().Str("path", path).Err(err).Msg("unreadable destination entry, skipping")
			return nil
		}

		rel, relErr := filepath.Rel(destRoot, path)
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

		if d.IsDir() {
			info, statErr := os.Stat(filepath.Join(sourceRoot, rel))
			if statErr != nil || !info.IsDir() {
				plan.Dirs = append(plan.Dirs, rel)
				return filepath.SkipDir
			}
			return nil
		}

		if _, ok := pathmap.SourceCandidate(sourceRoot, rel, table); ok {
			return nil
		}
		if container != "" {
			if _, ok := pathmap.ConvertedOrigin(sourceRoot, rel, container); ok {
				return nil
			}
		}
		plan.Files = append(plan.Files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// Apply executes the plan under destRoot. Failures are logged per entry and
// do not stop the remaining deletions. The entries actually removed are
// returned, so callers report only deletions that happened.
func Apply(ctx context.Context, destRoot string, plan *Plan) (files, dirs []string) {
	logger := zerolog.Ctx(ctx)

	for _, rel := range plan.Files {
		if err := os.Remove(filepath.Join(destRoot, rel)); err != nil {
			logger.Warn().Str("path", rel).Err(err).Msg("removing orphaned file")
			continue
		}
		files = append(files, rel)
	}
	for _, rel := range plan.Dirs {
		if err := os.RemoveAll(filepath.Join(destRoot, rel)); err != nil {
			logger.Warn().Str("path", rel).Err(err).Msg("removing orphaned directory")
			continue
		}
		dirs = append(dirs, rel)
	}
	return files, dirs
}
