package sshconfig

import (
	"github.com/gopasspw/gopass/pkg/debug"
)

// Stats summarizes what a merge did.
type Stats struct {
	TargetBlocks int // Host blocks sharing at least one alias with the targets
	Rewritten    int // managed directive lines rewritten in place
	Appended     int // managed directive lines added at the end of a block
}

// Changed reports whether the merge touched any line.
func (s Stats) Changed() bool {
	return s.Rewritten > 0 || s.Appended > 0
}

// blockState is the state of the block currently being scanned. It is reset
// at every Host header.
type blockState struct {
	target bool
	seen   [2]bool
}

// Merge is the string form of Document.Merge.
func Merge(content string, aliases []string, identityFile string) string {
	merged, _ := Parse(content).Merge(aliases, identityFile)

	return merged.String()
}

// Merge makes every Host block that declares at least one of aliases use
// identityFile exclusively. Existing IdentityFile and IdentitiesOnly lines in
// those blocks are rewritten in place (all of them, if a block repeats one),
// missing ones are appended at the end of the block. Lines outside of target
// blocks are never touched.
//
// Alias matching is exact and case-sensitive. Wildcard patterns are not
// expanded, see Shadows for that.
//
// The receiver is not modified.
func (d *Document) Merge(aliases []string, identityFile string) (*Document, Stats) {
	targets := make(map[string]struct{}, len(aliases))
	for _, a := range aliases {
		targets[a] = struct{}{}
	}
	directives := managedDirectives(identityFile)

	var stats Stats
	var state blockState
	out := make([]string, 0, len(d.lines)+len(directives))

	for _, line := range d.lines {
		if patterns, ok := parseHostLine(line); ok {
			out = state.complete(out, directives, &stats)

			state = blockState{target: intersects(patterns, targets)}
			if state.target {
				stats.TargetBlocks++
			}
			out = append(out, line)

			continue
		}

		var newLine string
		state, newLine = state.rewrite(line, directives, &stats)
		out = append(out, newLine)
	}
	out = state.complete(out, directives, &stats)

	debug.V(3).Log("merged %d target blocks for %v: %d rewritten, %d appended", stats.TargetBlocks, aliases, stats.Rewritten, stats.Appended)

	return &Document{
		lines:           out,
		trailingNewline: d.trailingNewline,
	}, stats
}

// rewrite handles a non-header line. Only lines in target blocks are
// inspected, IdentityFile is checked before IdentitiesOnly.
func (s blockState) rewrite(line string, directives [2]directive, stats *Stats) (blockState, string) {
	if !s.target {
		return s, line
	}

	for i, dir := range directives {
		newLine, ok := dir.match(line)
		if !ok {
			continue
		}
		if s.seen[i] {
			debug.V(1).Log("duplicate %s in target block: %q", dir.keyword, line)
		}
		s.seen[i] = true
		if newLine != line {
			stats.Rewritten++
		}

		return s, newLine
	}

	return s, line
}

// complete appends the directives a finished target block is missing.
func (s blockState) complete(out []string, directives [2]directive, stats *Stats) []string {
	if !s.target {
		return out
	}

	for i, dir := range directives {
		if s.seen[i] {
			continue
		}
		out = append(out, dir.line(appendIndent))
		stats.Appended++
	}

	return out
}

func intersects(patterns []string, targets map[string]struct{}) bool {
	for _, p := range patterns {
		if _, found := targets[p]; found {
			return true
		}
	}

	return false
}
