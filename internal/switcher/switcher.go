// Package switcher applies an account profile: it sets the global git
// identity and points the profile's SSH host aliases at its key.
package switcher

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gopasspw/ghswitch/gitconfig"
	"github.com/gopasspw/ghswitch/internal/profile"
	"github.com/gopasspw/ghswitch/sshconfig"
	"github.com/gopasspw/gopass/pkg/debug"
)

const selectedKey = "profile.selected"

var (
	// ErrGitConfig indicates the global git identity could not be updated.
	ErrGitConfig = errors.New("git config update failed")
	// ErrSSHConfig indicates the SSH config could not be updated.
	ErrSSHConfig = errors.New("SSH config update failed")
	// ErrState indicates the selected profile could not be read or stored.
	ErrState = errors.New("failed to access state")
	// ErrProfileNotFound indicates the selected profile id is unknown.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrNoProfiles indicates there is nothing to restore.
	ErrNoProfiles = errors.New("no profiles configured")
)

// Switcher holds the locations of the files a switch touches.
//
// With NoWrites set nothing is persisted; Switch still reports what would
// change.
type Switcher struct {
	SSHConfig string
	GitConfig string
	StateFile string
	NoWrites  bool
}

// Result describes what a switch changed.
type Result struct {
	Profile    profile.Profile
	GitChanged bool
	SSH        sshconfig.Result
}

// New returns a Switcher for the current user's files.
func New() (*Switcher, error) {
	sshPath, err := sshconfig.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSSHConfig, err)
	}

	return &Switcher{
		SSHConfig: sshPath,
		GitConfig: gitconfig.GlobalPath(),
		StateFile: DefaultStateFile(),
	}, nil
}

// DefaultStateFile is where the selected profile id is remembered.
func DefaultStateFile() string {
	return filepath.Join(profile.Dir(), "state")
}

// Switch makes p the active profile. The git identity is set first, then
// the SSH config is updated, then p is remembered as selected. The first
// failing step aborts the switch.
func (s *Switcher) Switch(p profile.Profile) (Result, error) {
	res := Result{Profile: p}

	if err := p.Validate(); err != nil {
		return res, err
	}

	debug.Log("switching to profile %q (email %q, key %q)", p.ID, p.GitUserEmail, p.SSHIdentityFile)

	changed, err := s.setGitIdentity(p)
	if err != nil {
		return res, err
	}
	res.GitChanged = changed

	identityFile, err := sshconfig.ExpandHome(p.SSHIdentityFile)
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrSSHConfig, err)
	}

	editor := &sshconfig.Editor{Path: s.SSHConfig, NoWrites: s.NoWrites}
	sshRes, err := editor.Update(p.SSHHostAliases, identityFile)
	res.SSH = sshRes
	if err != nil {
		return res, fmt.Errorf("%w: %w", ErrSSHConfig, err)
	}

	if err := s.setSelected(p.ID); err != nil {
		return res, err
	}

	debug.Log("switched to profile %q (git changed: %t, ssh changed: %t)", p.ID, res.GitChanged, res.SSH.Changed)

	return res, nil
}

func (s *Switcher) setGitIdentity(p profile.Profile) (bool, error) {
	cfg, err := gitconfig.LoadConfig(s.GitConfig)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrGitConfig, err)
	}
	cfg.SetNoWrites(s.NoWrites)

	var changed bool
	for _, kv := range [][2]string{
		{"user.name", p.GitUserName},
		{"user.email", p.GitUserEmail},
	} {
		if kv[1] == "" {
			debug.V(1).Log("profile %q has no %s, leaving it alone", p.ID, kv[0])

			continue
		}
		if cur, ok := cfg.Get(kv[0]); ok && cur == kv[1] {
			continue
		}
		if err := cfg.Set(kv[0], kv[1]); err != nil {
			return changed, fmt.Errorf("%w: setting %s: %w", ErrGitConfig, kv[0], err)
		}
		changed = true
	}

	return changed, nil
}

// Selected returns the id of the last applied profile, or "" if there is
// none.
func (s *Switcher) Selected() (string, error) {
	cfg, err := gitconfig.LoadConfig(s.StateFile)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrState, err)
	}

	id, _ := cfg.Get(selectedKey)

	return id, nil
}

func (s *Switcher) setSelected(id string) error {
	cfg, err := gitconfig.LoadConfig(s.StateFile)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrState, err)
	}
	cfg.SetNoWrites(s.NoWrites)

	if err := cfg.Set(selectedKey, id); err != nil {
		return fmt.Errorf("%w: %w", ErrState, err)
	}

	return nil
}

// Restore re-applies the selected profile, or the first profile if none was
// selected yet.
func (s *Switcher) Restore(profiles []profile.Profile) (Result, error) {
	id, err := s.Selected()
	if err != nil {
		return Result{}, err
	}

	if id == "" {
		if len(profiles) == 0 {
			return Result{}, ErrNoProfiles
		}
		id = profiles[0].ID
		debug.V(1).Log("no profile selected, falling back to %q", id)
	}

	p, found := profile.Find(profiles, id)
	if !found {
		return Result{}, fmt.Errorf("%w: %q", ErrProfileNotFound, id)
	}

	return s.Switch(p)
}
