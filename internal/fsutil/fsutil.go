// Package fsutil contains small file system helpers shared by the config
// editors.
package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gopasspw/gopass/pkg/debug"
)

const maxLinks = 40

// WriteFileAtomic writes data to a temporary file next to path and renames it
// over path, so readers either see the old or the new content. If path is a
// symlink the file it points to is replaced and the link is kept. Existing
// permissions of path are kept, perm is only used for new files. On failure
// the temporary file is removed and path is left untouched.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	path, err := resolveLink(path)
	if err != nil {
		return err
	}

	if fi, err := os.Stat(path); err == nil {
		perm = fi.Mode().Perm()
	}

	fh, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := fh.Name()

	if err := writeAndClose(fh, data, perm); err != nil {
		_ = os.Remove(tmpPath)

		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)

		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	debug.V(3).Log("wrote %d bytes to %s (mode %o)", len(data), path, perm)

	return nil
}

// resolveLink follows symlinks at path. Dangling links resolve to the file
// they would create.
func resolveLink(path string) (string, error) {
	for range maxLinks {
		fi, err := os.Lstat(path)
		if err != nil || fi.Mode()&os.ModeSymlink == 0 {
			return path, nil
		}

		target, err := os.Readlink(path)
		if err != nil {
			return "", fmt.Errorf("failed to read link %s: %w", path, err)
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(path), target)
		}

		debug.V(3).Log("%s is a link to %s", path, target)
		path = target
	}

	return "", fmt.Errorf("too many links at %s", path)
}

func writeAndClose(fh *os.File, data []byte, perm os.FileMode) error {
	if _, err := fh.Write(data); err != nil {
		_ = fh.Close()

		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := fh.Chmod(perm); err != nil {
		_ = fh.Close()

		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := fh.Sync(); err != nil {
		_ = fh.Close()

		return fmt.Errorf("failed to sync temporary file: %w", err)
	}

	return fh.Close()
}

// Exists reports whether path exists. Errors other than "not found" count
// as existing, the caller will run into them on the next access.
func Exists(path string) bool {
	_, err := os.Stat(path)

	return !errors.Is(err, fs.ErrNotExist)
}
