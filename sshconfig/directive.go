package sshconfig

import "strings"

const (
	keywordIdentityFile   = "IdentityFile"
	keywordIdentitiesOnly = "IdentitiesOnly"
	identitiesOnlyValue   = "yes"

	// appended directives use a fixed indentation, rewritten ones keep theirs.
	appendIndent = "  "
)

// directive is one of the keywords we enforce inside target blocks.
type directive struct {
	keyword string
	value   string
}

func (d directive) line(indent string) string {
	return indent + d.keyword + " " + d.value
}

// match rewrites line if it sets this directive. The original leading
// whitespace is kept verbatim, the keyword is written in its canonical
// spelling and whatever followed it is replaced by the enforced value.
// A keyword without a value (as written for an empty identity file) still
// counts as the directive.
func (d directive) match(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.EqualFold(trimmed, d.keyword) {
		if _, ok := cutKeyword(trimmed, d.keyword); !ok {
			return "", false
		}
	}

	return d.line(leadingBlanks(line)), true
}

// managedDirectives returns the directives enforced for identityFile, in
// the order they are appended to a block.
func managedDirectives(identityFile string) [2]directive {
	return [2]directive{
		{keyword: keywordIdentityFile, value: identityFile},
		{keyword: keywordIdentitiesOnly, value: identitiesOnlyValue},
	}
}
