package operation

import (
	"io"
	"os"
	"path/filepath"

	"gitlab.com/tozd/go/errors"
)

// copyFile mirrors src to dest verbatim for the noscreen copy mode. It
// writes through a temp file in the destination directory and renames, so
// a crashed pass never leaves a half-copied artifact under the final name.
// Returns false when dest already exists and force is not set.
func copyFile(src, dest string, force bool) (bool, error) {
	if !force {
		if _, err := os.Stat(dest); err == nil {
			return false, nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return false, errors.Errorf("creating destination directory: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return false, errors.Errorf("opening source: %w", err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".screensync-*.tmp")
	if err != nil {
		return false, errors.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return false, errors.Errorf("copying content: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return false, errors.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return false, errors.Errorf("renaming into place: %w", err)
	}
	return true, nil
}
