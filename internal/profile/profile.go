// Package profile loads the account profiles a user can switch between.
package profile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gopasspw/gopass/pkg/appdir"
	"github.com/gopasspw/gopass/pkg/debug"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Name is the application name used for the config directory.
const Name = "ghswitch"

var (
	// ErrDecode indicates a profiles file exists but could not be decoded.
	ErrDecode = errors.New("failed to decode profiles")
	// ErrInvalidProfile indicates a profile is missing required fields.
	ErrInvalidProfile = errors.New("invalid profile")

	// candidate file names, the first existing one is used.
	fileNames = []string{"config.json", "config.toml", "config.yaml", "config.yml"}
)

// Profile is one account: a git identity plus the SSH aliases that should
// use its key.
type Profile struct {
	ID              string   `json:"id"                  toml:"id"                  yaml:"id"`
	DisplayName     string   `json:"displayName"         toml:"displayName"         yaml:"displayName"`
	GitUserName     string   `json:"gitUserName"         toml:"gitUserName"         yaml:"gitUserName"`
	GitUserEmail    string   `json:"gitUserEmail"        toml:"gitUserEmail"        yaml:"gitUserEmail"`
	SSHHostAliases  []string `json:"sshHostAliases"      toml:"sshHostAliases"      yaml:"sshHostAliases"`
	SSHIdentityFile string   `json:"sshIdentityFilePath" toml:"sshIdentityFilePath" yaml:"sshIdentityFilePath"`
}

// String implements fmt.Stringer.
func (p Profile) String() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}

	return p.ID
}

// Validate checks that p can be applied.
func (p Profile) Validate() error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return fmt.Errorf("%w: missing id", ErrInvalidProfile)
	case len(p.SSHHostAliases) == 0:
		return fmt.Errorf("%w %q: no ssh host aliases", ErrInvalidProfile, p.ID)
	case strings.TrimSpace(p.SSHIdentityFile) == "":
		return fmt.Errorf("%w %q: no ssh identity file", ErrInvalidProfile, p.ID)
	}

	for _, a := range p.SSHHostAliases {
		if a == "" || strings.ContainsAny(a, " \t\n") {
			return fmt.Errorf("%w %q: invalid ssh host alias %q", ErrInvalidProfile, p.ID, a)
		}
	}

	return nil
}

type profileFile struct {
	Profiles []Profile `json:"profiles" toml:"profiles" yaml:"profiles"`
}

// Defaults returns the built-in profiles used when no profiles file exists.
func Defaults() []Profile {
	return []Profile{
		{
			ID:              "work",
			DisplayName:     "GitHub Work",
			GitUserName:     "Work Name",
			GitUserEmail:    "work@example.com",
			SSHHostAliases:  []string{"github-work"},
			SSHIdentityFile: "~/.ssh/id_rsa_work",
		},
		{
			ID:              "personal",
			DisplayName:     "GitHub Personal",
			GitUserName:     "Personal Name",
			GitUserEmail:    "personal@example.com",
			SSHHostAliases:  []string{"github-personal"},
			SSHIdentityFile: "~/.ssh/id_rsa_personal",
		},
	}
}

// Dir returns the per-user config directory holding the profiles file.
func Dir() string {
	return appdir.New(Name).UserConfig()
}

// Load reads the profiles from the first config file found in dir
// (config.json, config.toml, config.yaml, config.yml). If there is none,
// or it lists no profiles, the defaults are returned. A file that exists
// but can't be decoded is an error.
func Load(dir string) ([]Profile, error) {
	for _, name := range fileNames {
		fn := filepath.Join(dir, name)

		buf, err := os.ReadFile(fn)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fn, err)
		}

		profiles, err := decode(filepath.Ext(name), buf)
		if err != nil {
			return nil, fmt.Errorf("%w from %s: %w", ErrDecode, fn, err)
		}

		if len(profiles) == 0 {
			debug.Log("no profiles in %s, using defaults", fn)

			return Defaults(), nil
		}

		debug.V(1).Log("loaded %d profiles from %s", len(profiles), fn)

		return profiles, nil
	}

	debug.V(1).Log("no profiles file in %s, using defaults", dir)

	return Defaults(), nil
}

func decode(ext string, buf []byte) ([]Profile, error) {
	var pf profileFile

	switch ext {
	case ".json":
		// either a bare list or wrapped in {"profiles": [...]}
		if trimmed := bytes.TrimSpace(buf); len(trimmed) > 0 && trimmed[0] == '[' {
			var list []Profile
			if err := json.Unmarshal(buf, &list); err != nil {
				return nil, err
			}

			return list, nil
		}
		if err := json.Unmarshal(buf, &pf); err != nil {
			return nil, err
		}
	case ".toml":
		if err := toml.Unmarshal(buf, &pf); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(buf, &pf); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", ext)
	}

	return pf.Profiles, nil
}

// Find returns the profile with the given id.
func Find(profiles []Profile, id string) (Profile, bool) {
	for _, p := range profiles {
		if p.ID == id {
			return p, true
		}
	}

	return Profile{}, false
}

// IDs returns the ids of profiles in order.
func IDs(profiles []Profile) []string {
	ids := make([]string, 0, len(profiles))
	for _, p := range profiles {
		ids = append(ids, p.ID)
	}

	return ids
}
