package sshconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopasspw/ghswitch/internal/fsutil"
	"github.com/gopasspw/gopass/pkg/appdir"
	"github.com/gopasspw/gopass/pkg/debug"
)

const (
	configFileMode = 0o600
	configDirMode  = 0o700
)

// Editor applies identity merges to the SSH config at Path.
//
// Set NoWrites to compute results without touching the disk (dry runs and
// tests). Editor assumes it is the only writer of Path, concurrent callers
// need their own locking.
type Editor struct {
	Path     string
	NoWrites bool
}

// Result describes the outcome of Editor.Update.
type Result struct {
	// Created is set if the file did not exist and was bootstrapped.
	Created bool
	// Changed is set if the new content differs from what was on disk.
	Changed bool
	// Written is set if the content was persisted.
	Written bool
	Stats   Stats
	Content string
}

// NewEditor returns an Editor for the current user's ~/.ssh/config.
func NewEditor() (*Editor, error) {
	p, err := DefaultPath()
	if err != nil {
		return nil, err
	}

	return &Editor{Path: p}, nil
}

// Update points every Host block matching one of aliases at identityFile.
// See Update for the details.
func (e *Editor) Update(aliases []string, identityFile string) (Result, error) {
	res, err := e.Preview(aliases, identityFile)
	if err != nil {
		return res, err
	}

	if !res.Changed {
		debug.V(1).Log("%s already up to date for %v", e.Path, aliases)

		return res, nil
	}

	if e.NoWrites {
		debug.V(1).Log("not writing changes to %s (noWrites)", e.Path)

		return res, nil
	}

	if res.Created {
		if err := os.MkdirAll(filepath.Dir(e.Path), configDirMode); err != nil {
			return res, fmt.Errorf("%w %q: %w", ErrCreateConfigDir, filepath.Dir(e.Path), err)
		}
	}

	if err := fsutil.WriteFileAtomic(e.Path, []byte(res.Content), configFileMode); err != nil {
		return res, fmt.Errorf("%w %s: %w", ErrWriteConfig, e.Path, err)
	}
	res.Written = true

	debug.Log("updated %s for %v (created: %t)", e.Path, aliases, res.Created)

	return res, nil
}

// Preview computes what Update would write without writing anything.
func (e *Editor) Preview(aliases []string, identityFile string) (Result, error) {
	buf, err := os.ReadFile(e.Path)
	if errors.Is(err, fs.ErrNotExist) {
		debug.V(1).Log("%s does not exist, bootstrapping %v", e.Path, aliases)
		content := Bootstrap(aliases, identityFile)

		return Result{
			Created: true,
			Changed: true,
			Content: content,
			Stats: Stats{
				TargetBlocks: len(aliases),
				Appended:     2 * len(aliases),
			},
		}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("%w %s: %w", ErrReadConfig, e.Path, err)
	}

	orig := string(buf)
	debug.V(3).Log("input: \n--------------\n%s\n--------------\n", strings.Join(strings.Split("- "+orig, "\n"), "\n- "))

	merged, stats := Parse(orig).Merge(aliases, identityFile)
	content := merged.String()

	debug.V(3).Log("output: \n--------------\n%s\n--------------\n", strings.Join(strings.Split("+ "+content, "\n"), "\n+ "))

	return Result{
		Changed: content != orig,
		Stats:   stats,
		Content: content,
	}, nil
}

// Update points every Host block in the SSH config at path that declares one
// of aliases at identityFile.
//
// A missing file is bootstrapped with one block per alias (and its parent
// directories are created). An existing file is merged and only written if
// the result differs from the current content. Writes replace the file
// atomically.
func Update(path string, aliases []string, identityFile string) (Result, error) {
	e := &Editor{Path: path}

	return e.Update(aliases, identityFile)
}

// DefaultPath returns the location of the user's SSH client config.
func DefaultPath() (string, error) {
	home := appdir.UserHome()
	if home == "" {
		return "", ErrHomeDir
	}

	return filepath.Join(home, ".ssh", "config"), nil
}

// ExpandHome replaces a leading "~" or "~/" with the user's home directory.
// Other paths (including "~user/...") are returned unchanged.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home := appdir.UserHome()
	if home == "" {
		return "", ErrHomeDir
	}

	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
