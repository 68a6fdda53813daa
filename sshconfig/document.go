package sshconfig

import (
	"strings"
)

// Document is an SSH client config split into raw lines.
//
// The lines are kept exactly as read so that untouched parts of the file can
// be written back byte for byte. A Document is never edited in place by this
// package: Merge returns a new Document.
type Document struct {
	lines           []string
	trailingNewline bool
}

// Block is a Host block of a Document. Line is the index of the header line,
// End the index of the first line after the block.
type Block struct {
	Line     int
	End      int
	Patterns []string
}

// Parse splits the content of an SSH config into a Document. It never fails,
// lines that don't look like anything we know are kept as opaque lines.
func Parse(content string) *Document {
	d := &Document{
		trailingNewline: strings.HasSuffix(content, "\n"),
	}

	if content == "" {
		return d
	}

	content = strings.TrimSuffix(content, "\n")
	d.lines = strings.Split(content, "\n")

	return d
}

// Lines returns a copy of the raw lines.
func (d *Document) Lines() []string {
	out := make([]string, len(d.lines))
	copy(out, d.lines)

	return out
}

// TrailingNewline reports whether the document ends with a line feed.
func (d *Document) TrailingNewline() bool {
	return d.trailingNewline
}

// String reassembles the document. A trailing line feed is only added if
// the parsed content had one.
func (d *Document) String() string {
	var sb strings.Builder
	for i, line := range d.lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(line)
	}
	if d.trailingNewline {
		sb.WriteByte('\n')
	}

	return sb.String()
}

// Blocks returns all Host blocks in file order. Lines before the first
// header don't belong to any block.
func (d *Document) Blocks() []Block {
	blocks := make([]Block, 0, 8)
	for i, line := range d.lines {
		patterns, ok := parseHostLine(line)
		if !ok {
			continue
		}
		if n := len(blocks); n > 0 {
			blocks[n-1].End = i
		}
		blocks = append(blocks, Block{
			Line:     i,
			End:      len(d.lines),
			Patterns: patterns,
		})
	}

	return blocks
}

// parseHostLine returns the patterns of a Host header line. The keyword is
// case-insensitive and must be followed by a space or tab. A header without
// patterns never matches any alias but still ends the previous block.
func parseHostLine(line string) ([]string, bool) {
	trimmed := strings.TrimSpace(line)
	rest, ok := cutKeyword(trimmed, "host")
	if !ok {
		return nil, false
	}

	return strings.FieldsFunc(rest, isBlank), true
}

// cutKeyword strips a case-insensitive keyword and the following separator
// from the (already trimmed) line.
func cutKeyword(trimmed, keyword string) (string, bool) {
	if len(trimmed) <= len(keyword) {
		return "", false
	}
	if !strings.EqualFold(trimmed[:len(keyword)], keyword) {
		return "", false
	}
	if !isBlank(rune(trimmed[len(keyword)])) {
		return "", false
	}

	return trimmed[len(keyword)+1:], true
}

func isBlank(r rune) bool {
	return r == ' ' || r == '\t'
}

// leadingBlanks returns the spaces and tabs a line starts with.
func leadingBlanks(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}
