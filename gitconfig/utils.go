package gitconfig

import (
	"path/filepath"
	"strings"

	"github.com/gopasspw/ghswitch/internal/fsutil"
	"github.com/gopasspw/gopass/pkg/appdir"
	"github.com/gopasspw/gopass/pkg/debug"
)

var (
	subsectionEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	valueEscaper      = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`, "\b", `\b`)
)

// GlobalPath returns the per-user config git writes with --global:
// ~/.gitconfig if it exists, otherwise $XDG_CONFIG_HOME/git/config if that
// exists, otherwise ~/.gitconfig.
func GlobalPath() string {
	legacy := filepath.Join(appdir.UserHome(), ".gitconfig")
	if fsutil.Exists(legacy) {
		return legacy
	}

	xdg := filepath.Join(appdir.New("git").UserConfig(), "config")
	if fsutil.Exists(xdg) {
		debug.V(1).Log("using XDG git config %s", xdg)

		return xdg
	}

	return legacy
}

// splitKey splits a fully qualified gitconfig key into two or three parts.
// A valid key consists of either a section and a key separated by a dot
// or section, subsection and key, all separated by a dot. Note that
// the subsection might contain dots itself.
//
// Valid examples:
// - user.email
// - url.git@github.com:.insteadof
func splitKey(key string) (section, subsection, skey string) { //nolint:nonamedreturns
	n := strings.Index(key, ".")
	if n <= 0 {
		return "", "", ""
	}
	section = key[:n]

	m := strings.LastIndex(key, ".")
	if m > n {
		subsection = key[n+1 : m]
	}
	skey = key[m+1:]

	return section, subsection, skey
}

func joinKey(section, subsection, skey string) string {
	if subsection == "" {
		return section + "." + skey
	}

	return section + "." + subsection + "." + skey
}

// canonicalizeKey lowercases section and key name. "Subsection names are
// case sensitive", so they are kept as is. Invalid keys map to "".
func canonicalizeKey(key string) string {
	section, subsection, skey := splitKey(key)
	if section == "" || skey == "" {
		return ""
	}

	return joinKey(strings.ToLower(section), subsection, strings.ToLower(skey))
}

// parseSectionHeader parses a trimmed "[section]" or `[section "subsection"]`
// line. Anything after the closing bracket is ignored.
func parseSectionHeader(line string) (section, subsection string, ok bool) { //nolint:nonamedreturns
	if !strings.HasPrefix(line, "[") {
		return "", "", false
	}

	end := headerEnd(line)
	if end < 0 {
		return "", "", false
	}

	inner := strings.TrimSpace(line[1:end])
	if inner == "" {
		return "", "", false
	}

	section, rest, found := strings.Cut(inner, " ")
	if !found {
		return section, "", true
	}

	rest = strings.TrimSpace(rest)
	rest = strings.TrimPrefix(rest, `"`)
	rest = strings.TrimSuffix(rest, `"`)
	rest = strings.ReplaceAll(rest, `\\`, "\x00")
	rest = strings.ReplaceAll(rest, `\`, "")
	rest = strings.ReplaceAll(rest, "\x00", `\`)

	return section, rest, true
}

// headerEnd returns the index of the bracket closing a section header. A "]"
// inside the quoted subsection does not count.
func headerEnd(line string) int {
	var inQuotes, escaped bool
	for i := 1; i < len(line); i++ {
		switch c := line[i]; {
		case escaped:
			escaped = false
		case c == '\\' && inQuotes:
			escaped = true
		case c == '"':
			inQuotes = !inQuotes
		case c == ']' && !inQuotes:
			return i
		}
	}

	return -1
}

// splitValueComment separates a raw value into its unquoted, unescaped
// content and a trailing comment (including its delimiter). Comment
// characters inside double quotes are part of the value.
func splitValueComment(raw string) (string, string) {
	var sb strings.Builder
	var inQuotes, escaped bool

	for i, r := range raw {
		if escaped {
			switch r {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'b':
				sb.WriteByte('\b')
			default:
				sb.WriteRune(r)
			}
			escaped = false

			continue
		}

		switch r {
		case '\\':
			escaped = true
		case '"':
			inQuotes = !inQuotes
		case '#', ';':
			if !inQuotes {
				return strings.TrimSpace(sb.String()), strings.TrimSpace(raw[i:])
			}
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}

	return strings.TrimSpace(sb.String()), ""
}

// quoteValue quotes and escapes a value if git would otherwise read it
// differently.
func quoteValue(v string) string {
	if v == "" {
		return `""`
	}

	if strings.TrimSpace(v) == v && !strings.ContainsAny(v, "#;\"\\\n\t\b") {
		return v
	}

	return `"` + valueEscaper.Replace(v) + `"`
}

func leadingBlanks(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}
