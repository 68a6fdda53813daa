package switcher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gopasspw/ghswitch/gitconfig"
	"github.com/gopasspw/ghswitch/internal/profile"
	"github.com/gopasspw/ghswitch/sshconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	work = profile.Profile{
		ID:              "work",
		DisplayName:     "Work",
		GitUserName:     "Jane Work",
		GitUserEmail:    "jane@work.example",
		SSHHostAliases:  []string{"github-work"},
		SSHIdentityFile: "/keys/id_work",
	}
	personal = profile.Profile{
		ID:              "personal",
		DisplayName:     "Personal",
		GitUserName:     "Jane",
		GitUserEmail:    "jane@home.example",
		SSHHostAliases:  []string{"github-personal"},
		SSHIdentityFile: "/keys/id_personal",
	}
)

func newTestSwitcher(t *testing.T) *Switcher {
	t.Helper()

	td := t.TempDir()

	return &Switcher{
		SSHConfig: filepath.Join(td, ".ssh", "config"),
		GitConfig: filepath.Join(td, ".gitconfig"),
		StateFile: filepath.Join(td, "ghswitch", "state"),
	}
}

func readFile(t *testing.T, fn string) string {
	t.Helper()

	buf, err := os.ReadFile(fn)
	require.NoError(t, err)

	return string(buf)
}

func TestSwitch(t *testing.T) {
	t.Parallel()

	s := newTestSwitcher(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.SSHConfig), 0o700))
	require.NoError(t, os.WriteFile(s.SSHConfig, []byte(`Host github-personal
  HostName github.com
  IdentityFile /keys/id_personal
  IdentitiesOnly yes

Host github-work
  HostName github.com
  User git
`), 0o600))

	res, err := s.Switch(work)
	require.NoError(t, err)
	assert.True(t, res.GitChanged)
	assert.True(t, res.SSH.Changed)
	assert.False(t, res.SSH.Created)

	assert.Equal(t, `Host github-personal
  HostName github.com
  IdentityFile /keys/id_personal
  IdentitiesOnly yes

Host github-work
  HostName github.com
  User git
  IdentityFile /keys/id_work
  IdentitiesOnly yes
`, readFile(t, s.SSHConfig))

	gc, err := gitconfig.LoadConfig(s.GitConfig)
	require.NoError(t, err)
	v, _ := gc.Get("user.name")
	assert.Equal(t, "Jane Work", v)
	v, _ = gc.Get("user.email")
	assert.Equal(t, "jane@work.example", v)

	id, err := s.Selected()
	require.NoError(t, err)
	assert.Equal(t, "work", id)

	// switching again is a no-op
	res, err = s.Switch(work)
	require.NoError(t, err)
	assert.False(t, res.GitChanged)
	assert.False(t, res.SSH.Changed)
}

func TestSwitchBootstrapsSSHConfig(t *testing.T) {
	t.Parallel()

	s := newTestSwitcher(t)

	res, err := s.Switch(personal)
	require.NoError(t, err)
	assert.True(t, res.SSH.Created)
	assert.Equal(t, sshconfig.Bootstrap(personal.SSHHostAliases, personal.SSHIdentityFile), readFile(t, s.SSHConfig))

	_, err = s.Switch(work)
	require.NoError(t, err)

	// work has no block in the bootstrapped file, nothing to rewrite
	assert.Equal(t, sshconfig.Bootstrap(personal.SSHHostAliases, personal.SSHIdentityFile), readFile(t, s.SSHConfig))

	id, err := s.Selected()
	require.NoError(t, err)
	assert.Equal(t, "work", id)
}

func TestSwitchKeepsOtherGitSettings(t *testing.T) {
	t.Parallel()

	s := newTestSwitcher(t)
	require.NoError(t, os.WriteFile(s.GitConfig, []byte(`[core]
	editor = vim
[user]
	name = Old
	signingkey = ABC
`), 0o644))

	_, err := s.Switch(work)
	require.NoError(t, err)

	assert.Equal(t, `[core]
	editor = vim
[user]
	email = jane@work.example
	name = Jane Work
	signingkey = ABC
`, readFile(t, s.GitConfig))
}

func TestSwitchNoWrites(t *testing.T) {
	t.Parallel()

	s := newTestSwitcher(t)
	s.NoWrites = true

	res, err := s.Switch(work)
	require.NoError(t, err)
	assert.True(t, res.GitChanged)
	assert.True(t, res.SSH.Created)
	assert.False(t, res.SSH.Written)

	for _, fn := range []string{s.SSHConfig, s.GitConfig, s.StateFile} {
		_, err := os.Stat(fn)
		assert.ErrorIs(t, err, os.ErrNotExist, fn)
	}
}

func TestSwitchInvalidProfile(t *testing.T) {
	t.Parallel()

	s := newTestSwitcher(t)

	_, err := s.Switch(profile.Profile{ID: "broken"})
	assert.ErrorIs(t, err, profile.ErrInvalidProfile)

	_, err = os.Stat(s.GitConfig)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSwitchSSHError(t *testing.T) {
	t.Parallel()

	s := newTestSwitcher(t)
	// a directory in place of the config file can't be read
	require.NoError(t, os.MkdirAll(s.SSHConfig, 0o700))

	_, err := s.Switch(work)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSSHConfig)
	assert.ErrorIs(t, err, sshconfig.ErrReadConfig)

	id, err := s.Selected()
	require.NoError(t, err)
	assert.Empty(t, id, "failed switches are not remembered")
}

func TestSwitchGitError(t *testing.T) {
	t.Parallel()

	s := newTestSwitcher(t)
	blocker := filepath.Join(filepath.Dir(s.GitConfig), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	s.GitConfig = filepath.Join(blocker, "gitconfig")

	_, err := s.Switch(work)
	assert.ErrorIs(t, err, ErrGitConfig)

	_, err = os.Stat(s.SSHConfig)
	assert.ErrorIs(t, err, os.ErrNotExist, "ssh config is not touched after a git failure")
}

func TestRestore(t *testing.T) {
	t.Parallel()

	s := newTestSwitcher(t)
	profiles := []profile.Profile{work, personal}

	// nothing selected yet, first profile wins
	res, err := s.Restore(profiles)
	require.NoError(t, err)
	assert.Equal(t, "work", res.Profile.ID)

	_, err = s.Switch(personal)
	require.NoError(t, err)

	res, err = s.Restore(profiles)
	require.NoError(t, err)
	assert.Equal(t, "personal", res.Profile.ID)

	_, err = s.Restore([]profile.Profile{work})
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestRestoreNoProfiles(t *testing.T) {
	t.Parallel()

	s := newTestSwitcher(t)

	_, err := s.Restore(nil)
	assert.ErrorIs(t, err, ErrNoProfiles)
}

func TestNew(t *testing.T) {
	td := t.TempDir()
	t.Setenv("HOME", td)
	t.Setenv("GOPASS_HOMEDIR", td)

	s, err := New()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(td, ".ssh", "config"), s.SSHConfig)
	assert.Equal(t, filepath.Join(td, ".gitconfig"), s.GitConfig)
	assert.Equal(t, filepath.Join(profile.Dir(), "state"), s.StateFile)
	assert.False(t, s.NoWrites)
}
