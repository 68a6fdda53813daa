package sshconfig

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setHome(t *testing.T, dir string) {
	t.Helper()

	t.Setenv("HOME", dir)
	t.Setenv("GOPASS_HOMEDIR", dir)
}

func TestUpdateCreatesConfig(t *testing.T) {
	t.Parallel()

	td := t.TempDir()
	fn := filepath.Join(td, "nested", ".ssh", "config")

	res, err := Update(fn, []string{"github-work", "gh-work"}, testKey)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.True(t, res.Changed)
	assert.True(t, res.Written)

	buf, err := os.ReadFile(fn)
	require.NoError(t, err)
	assert.Equal(t, Bootstrap([]string{"github-work", "gh-work"}, testKey), string(buf))

	if runtime.GOOS != "windows" {
		fi, err := os.Stat(fn)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
	}

	// second run converges
	res, err = Update(fn, []string{"github-work", "gh-work"}, testKey)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.False(t, res.Changed)
	assert.False(t, res.Written)
}

func TestUpdateThroughSymlink(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("symlinks need extra privileges on windows")
	}

	td := t.TempDir()
	target := filepath.Join(td, "dotfiles", "ssh_config")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o700))
	require.NoError(t, os.WriteFile(target, []byte("Host x\n"), 0o600))

	link := filepath.Join(td, "config")
	require.NoError(t, os.Symlink(target, link))

	res, err := Update(link, []string{"x"}, "/k")
	require.NoError(t, err)
	assert.True(t, res.Written)

	fi, err := os.Lstat(link)
	require.NoError(t, err)
	assert.Equal(t, os.ModeSymlink, fi.Mode()&os.ModeSymlink)

	buf, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "Host x\n  IdentityFile /k\n  IdentitiesOnly yes\n", string(buf))
}

func TestUpdateMergesExisting(t *testing.T) {
	t.Parallel()

	td := t.TempDir()
	fn := filepath.Join(td, "config")
	in := `Host personal
  IdentityFile ~/.ssh/personal

Host github-work
  HostName github.com
  IdentityFile ~/.ssh/old
`
	require.NoError(t, os.WriteFile(fn, []byte(in), 0o644))

	res, err := Update(fn, []string{"github-work"}, testKey)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.True(t, res.Changed)
	assert.Equal(t, Stats{TargetBlocks: 1, Rewritten: 1, Appended: 1}, res.Stats)

	buf, err := os.ReadFile(fn)
	require.NoError(t, err)
	assert.Equal(t, `Host personal
  IdentityFile ~/.ssh/personal

Host github-work
  HostName github.com
  IdentityFile /home/me/.ssh/id_work
  IdentitiesOnly yes
`, string(buf))

	if runtime.GOOS != "windows" {
		fi, err := os.Stat(fn)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o644), fi.Mode().Perm(), "permissions must be kept")
	}

	entries, err := os.ReadDir(td)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestUpdateSkipsUnchanged(t *testing.T) {
	t.Parallel()

	td := t.TempDir()
	fn := filepath.Join(td, "config")
	in := "Host other\n  User git\n"
	require.NoError(t, os.WriteFile(fn, []byte(in), 0o600))

	fiBefore, err := os.Stat(fn)
	require.NoError(t, err)

	res, err := Update(fn, []string{"github-work"}, testKey)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.False(t, res.Written)
	assert.Equal(t, in, res.Content)

	fiAfter, err := os.Stat(fn)
	require.NoError(t, err)
	assert.Equal(t, fiBefore.ModTime(), fiAfter.ModTime())
}

func TestEditorNoWrites(t *testing.T) {
	t.Parallel()

	td := t.TempDir()
	fn := filepath.Join(td, ".ssh", "config")

	e := &Editor{Path: fn, NoWrites: true}
	res, err := e.Update([]string{"x"}, testKey)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.False(t, res.Written)
	assert.Equal(t, Bootstrap([]string{"x"}, testKey), res.Content)

	_, err = os.Stat(filepath.Dir(fn))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestUpdateReadError(t *testing.T) {
	t.Parallel()

	td := t.TempDir()

	// a directory can be stat'ed but not read as a file
	_, err := Update(td, []string{"x"}, testKey)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReadConfig)
}

func TestUpdateWriteErrors(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced on windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("root ignores permission bits")
	}

	td := t.TempDir()
	ro := filepath.Join(td, "ro")
	require.NoError(t, os.Mkdir(ro, 0o700))
	fn := filepath.Join(ro, "config")
	require.NoError(t, os.WriteFile(fn, []byte("Host x\n"), 0o600))
	require.NoError(t, os.Chmod(ro, 0o500))
	t.Cleanup(func() { _ = os.Chmod(ro, 0o700) })

	// missing parent below a read-only directory
	_, err := Update(filepath.Join(ro, "sub", "config"), []string{"x"}, testKey)
	assert.True(t, errors.Is(err, ErrCreateConfigDir), "got %v", err)

	_, err = Update(fn, []string{"x"}, testKey)
	assert.ErrorIs(t, err, ErrWriteConfig)

	buf, err := os.ReadFile(fn)
	require.NoError(t, err)
	assert.Equal(t, "Host x\n", string(buf), "failed writes leave the file alone")
}

func TestDefaultPath(t *testing.T) {
	td := t.TempDir()
	setHome(t, td)

	p, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(td, ".ssh", "config"), p)

	e, err := NewEditor()
	require.NoError(t, err)
	assert.Equal(t, p, e.Path)
	assert.False(t, e.NoWrites)
}

func TestExpandHome(t *testing.T) {
	td := t.TempDir()
	setHome(t, td)

	for in, out := range map[string]string{
		"~":                  td,
		"~/.ssh/id_work":     filepath.Join(td, ".ssh", "id_work"),
		"/abs/.ssh/id_work":  "/abs/.ssh/id_work",
		"relative/id":        "relative/id",
		"~other/.ssh/id_rsa": "~other/.ssh/id_rsa",
		"":                   "",
	} {
		got, err := ExpandHome(in)
		require.NoError(t, err, in)
		assert.Equal(t, out, got, in)
	}
}
