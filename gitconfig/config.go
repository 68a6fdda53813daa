package gitconfig

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gopasspw/ghswitch/internal/fsutil"
	"github.com/gopasspw/gopass/pkg/debug"
)

var (
	// "The variable names are case-insensitive, allow only alphanumeric characters and -, and must start with an alphabetic character."
	reValidKey = regexp.MustCompile(`^[a-z]+[a-z0-9-]*$`)

	newKeyIndent = "\t"
)

// Config is a single git config file.
//
// Config keeps every line of the file as read and only touches the lines of
// keys that are set or unset, so comments, ordering and unrelated sections
// survive a round trip. It is not safe for concurrent use.
//
// Typical usage:
//
//	cfg, err := LoadConfig(GlobalPath())
//	if err != nil { ... }
//	if err := cfg.Set("user.email", "me@example.com"); err != nil { ... }
type Config struct {
	path     string
	noWrites bool // do not persist changes to disk (e.g. for tests and dry runs)
	lines    []string
	vars     map[string][]string
}

// LoadConfig reads the config at fn. A missing file is not an error, the
// returned config is empty and will create fn on the first Set.
func LoadConfig(fn string) (*Config, error) {
	fh, err := os.Open(fn)
	if errors.Is(err, fs.ErrNotExist) {
		debug.V(1).Log("config %s does not exist yet", fn)

		return &Config{
			path: fn,
			vars: map[string][]string{},
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrReadConfig, fn, err)
	}
	defer fh.Close() //nolint:errcheck

	c := ParseConfig(fh)
	c.path = fn

	return c, nil
}

// ParseConfig parses a gitconfig from r. It never fails, lines it does not
// understand are kept verbatim and otherwise ignored.
func ParseConfig(r io.Reader) *Config {
	c := &Config{
		vars: make(map[string][]string, 16),
	}

	s := bufio.NewScanner(r)
	for s.Scan() {
		c.lines = append(c.lines, s.Text())
	}

	c.lines = walk(c.lines, func(fKey, _, value, _, fullLine string) (string, bool) {
		c.vars[fKey] = append(c.vars[fKey], value)

		return fullLine, false
	})

	debug.V(3).Log("parsed config with %d lines, vars: %+v", len(c.lines), c.vars)

	return c
}

// SetNoWrites disables (or enables) persisting changes to disk.
func (c *Config) SetNoWrites(v bool) {
	c.noWrites = v
}

// Path returns the file this config is read from and written to.
func (c *Config) Path() string {
	return c.path
}

// String returns the current content of the config file.
func (c *Config) String() string {
	if len(c.lines) == 0 {
		return ""
	}

	return strings.Join(c.lines, "\n") + "\n"
}

// Get returns the first value of the key.
func (c *Config) Get(key string) (string, bool) {
	vs, found := c.vars[canonicalizeKey(key)]
	if !found || len(vs) < 1 {
		return "", false
	}

	return vs[0], true
}

// GetAll returns all values of the key.
func (c *Config) GetAll(key string) ([]string, bool) {
	vs, found := c.vars[canonicalizeKey(key)]

	return vs, found
}

// IsSet returns true if the key was set in this config.
func (c *Config) IsSet(key string) bool {
	_, found := c.vars[canonicalizeKey(key)]

	return found
}

// Set updates the first occurrence of key or adds it. New keys go to the
// first existing section they belong to, or a new section at the end of
// the file. The file is written only if the value actually changed.
func (c *Config) Set(key, value string) error {
	section, subsection, name := splitKey(key)
	if section == "" || name == "" || !reValidKey.MatchString(strings.ToLower(name)) {
		return fmt.Errorf("%w: %s", ErrInvalidKey, key)
	}

	if c.vars == nil {
		c.vars = make(map[string][]string, 16)
	}

	fKey := canonicalizeKey(key)
	vs, present := c.vars[fKey]
	if present && len(vs) > 0 && vs[0] == value {
		debug.V(1).Log("key %q with value %q already present. Not re-writing.", fKey, value)

		return nil
	}

	if !present {
		vs = make([]string, 1)
	}
	vs[0] = value
	c.vars[fKey] = vs

	if present {
		debug.V(3).Log("updating %q to %q", fKey, value)
		var updated bool
		c.lines = walk(c.lines, func(lKey, name, _, comment, fullLine string) (string, bool) {
			if updated || lKey != fKey {
				return fullLine, false
			}
			updated = true

			return formatKeyValue(leadingBlanks(fullLine), name, value, comment), false
		})
	} else {
		debug.V(3).Log("inserting %q = %q", fKey, value)
		c.lines = insertValue(c.lines, section, subsection, name, value)
	}

	return c.flush()
}

// Unset removes every occurrence of key. Unsetting a missing key is a no-op.
func (c *Config) Unset(key string) error {
	fKey := canonicalizeKey(key)
	if _, present := c.vars[fKey]; !present {
		return nil
	}
	delete(c.vars, fKey)

	c.lines = walk(c.lines, func(lKey, _, _, _, fullLine string) (string, bool) {
		return fullLine, lKey == fKey
	})

	return c.flush()
}

func (c *Config) flush() error {
	if c.noWrites || c.path == "" {
		debug.V(3).Log("not writing changes to disk (noWrites %t, path %q)", c.noWrites, c.path)

		return nil
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("%w %q for %q: %w", ErrCreateConfigDir, filepath.Dir(c.path), c.path, err)
	}

	debug.V(3).Log("writing config to %s: \n--------------\n%s\n--------------", c.path, c.String())

	if err := fsutil.WriteFileAtomic(c.path, []byte(c.String()), 0o644); err != nil {
		return fmt.Errorf("%w to %s: %w", ErrWriteConfig, c.path, err)
	}

	debug.V(1).Log("wrote config to %s", c.path)

	return nil
}

// insertValue adds name = value right after the header of the first matching
// section, or appends a new section.
func insertValue(lines []string, section, subsection, name, value string) []string {
	out := make([]string, 0, len(lines)+2)
	var written bool
	for _, line := range lines {
		out = append(out, line)
		if written {
			continue
		}

		s, subs, ok := parseSectionHeader(strings.TrimSpace(line))
		if !ok || !strings.EqualFold(s, section) || subs != subsection {
			continue
		}

		out = append(out, formatKeyValue(newKeyIndent, name, value, ""))
		written = true
	}

	if written {
		return out
	}

	sect := fmt.Sprintf("[%s]", section)
	if subsection != "" {
		sect = fmt.Sprintf("[%s \"%s\"]", section, subsectionEscaper.Replace(subsection))
	}

	return append(out, sect, formatKeyValue(newKeyIndent, name, value, ""))
}

func formatKeyValue(indent, name, value, comment string) string {
	if comment != "" {
		comment = " " + comment
	}

	return fmt.Sprintf("%s%s = %s%s", indent, name, quoteValue(value), comment)
}

// lineFunc is called for every key-value line. fKey is the canonical key,
// name the key as spelled in the file. Returning drop removes the line.
type lineFunc func(fKey, name, value, comment, fullLine string) (newLine string, drop bool)

// walk implements a simple parser for the gitconfig subset we support: it
// tracks section headers and hands every key-value line to cb. Comments,
// blank lines, headers and anything unparsable are kept unchanged.
//
// Reference: https://git-scm.com/docs/git-config#_syntax.
func walk(lines []string, cb lineFunc) []string {
	out := make([]string, 0, len(lines))

	var section, subsection string
	for _, fullLine := range lines {
		line := strings.TrimSpace(fullLine)

		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			out = append(out, fullLine)

			continue
		}

		if strings.HasPrefix(line, "[") {
			if s, subs, ok := parseSectionHeader(line); ok {
				section, subsection = s, subs
			}
			out = append(out, fullLine)

			continue
		}

		if section == "" {
			debug.V(3).Log("key outside of any section: %q", line)
			out = append(out, fullLine)

			continue
		}

		name, rawValue, found := strings.Cut(line, "=")
		// bare booleans ("key" without a value) mean true
		if !found {
			rawValue = "true"
		}
		name = strings.TrimSpace(name)

		if !reValidKey.MatchString(strings.ToLower(name)) {
			debug.V(3).Log("invalid key %q in line: %q", name, line)
			out = append(out, fullLine)

			continue
		}

		value, comment := splitValueComment(strings.TrimSpace(rawValue))
		fKey := canonicalizeKey(joinKey(section, subsection, name))

		newLine, drop := cb(fKey, name, value, comment, fullLine)
		if drop {
			continue
		}
		out = append(out, newLine)
	}

	return out
}
