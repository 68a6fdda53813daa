package sshconfig

import (
	"slices"
	"strings"

	"github.com/gobwas/glob"
	"github.com/gopasspw/gopass/pkg/debug"
)

// Shadow is a wildcard Host block that applies to an alias before the
// alias' own block does. ssh uses the first value it obtains for most
// options, so such a block can override what Merge wrote (e.g. a leading
// "Host *" with "IdentitiesOnly no").
type Shadow struct {
	Block
	// Pattern is the pattern that matched the alias.
	Pattern string
	// Managed is set if the block sets IdentityFile or IdentitiesOnly itself.
	Managed bool
}

// Shadows lists the wildcard blocks that match alias and precede the first
// block declaring alias literally. Negated patterns ("!foo") exclude a block
// like ssh does. Merge never uses this, it only matches aliases exactly.
func (d *Document) Shadows(alias string) []Shadow {
	out := []Shadow{}
	for _, b := range d.Blocks() {
		if slices.Contains(b.Patterns, alias) {
			break
		}

		pattern, ok := matchPatternList(b.Patterns, alias)
		if !ok {
			continue
		}

		out = append(out, Shadow{
			Block:   b,
			Pattern: pattern,
			Managed: d.setsManaged(b),
		})
	}

	return out
}

func (d *Document) setsManaged(b Block) bool {
	for _, line := range d.lines[b.Line+1 : b.End] {
		for _, dir := range managedDirectives("") {
			if _, ok := dir.match(line); ok {
				return true
			}
		}
	}

	return false
}

// matchPatternList implements ssh_config(5) pattern lists: any positive
// pattern must match and no negated pattern may match.
func matchPatternList(patterns []string, alias string) (string, bool) {
	var matched string
	for _, p := range patterns {
		negated := strings.HasPrefix(p, "!")
		p = strings.TrimPrefix(p, "!")

		ok, err := globMatch(p, alias)
		if err != nil {
			debug.V(1).Log("invalid host pattern %q: %s", p, err)

			continue
		}
		if !ok {
			continue
		}
		if negated {
			return "", false
		}
		if matched == "" {
			matched = p
		}
	}

	return matched, matched != ""
}

// globMatch matches an ssh host pattern. Only '*' and '?' are special in
// ssh patterns, so everything else glob would interpret is escaped first.
func globMatch(pattern, s string) (bool, error) {
	g, err := glob.Compile(escapeHostPattern(pattern))
	if err != nil {
		return false, err
	}

	return g.Match(s), nil
}

func escapeHostPattern(p string) string {
	var sb strings.Builder
	for _, r := range p {
		switch r {
		case '[', ']', '{', '}', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}

	return sb.String()
}

