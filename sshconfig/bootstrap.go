package sshconfig

import (
	"strings"
)

const (
	// DefaultHostName is the remote every bootstrapped alias points at.
	DefaultHostName = "github.com"
	// DefaultUser is the login used for git over ssh.
	DefaultUser = "git"
)

// Bootstrap renders a new SSH config with one Host block per alias, in the
// given order. Every block is followed by a blank line, so the result ends
// with a single line feed. Merging the result with the same aliases and
// identityFile is a no-op.
func Bootstrap(aliases []string, identityFile string) string {
	lines := make([]string, 0, len(aliases)*6)
	for _, alias := range aliases {
		lines = append(lines, "Host "+alias)
		lines = append(lines, appendIndent+"HostName "+DefaultHostName)
		lines = append(lines, appendIndent+"User "+DefaultUser)
		for _, dir := range managedDirectives(identityFile) {
			lines = append(lines, dir.line(appendIndent))
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}
