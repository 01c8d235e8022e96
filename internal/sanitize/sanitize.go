// Package sanitize cleans user-supplied preset text before it is stored or
// handed to MCP clients. Descriptions end up in an assistant's context, so
// markup that could be read as instructions is stripped while the meaning
// of the text is kept.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxDescriptionLength is the maximum length, in runes, of a preset description.
const MaxDescriptionLength = 200

// MaxNameLength is the maximum length of a preset name.
const MaxNameLength = 64

var (
	// reXMLTag matches XML/HTML tags including those with attributes and self-closing tags.
	// It also matches XML processing instructions like <?xml ...?>.
	reXMLTag = regexp.MustCompile(`<[/?!]?[a-zA-Z][a-zA-Z0-9]*(?:\s+[^>]*)?/?>|<\?[^?]*\?>`)

	// reTripleBacktick matches triple (or more) backtick sequences used in code fences.
	reTripleBacktick = regexp.MustCompile("```+")

	reWhitespace = regexp.MustCompile(`\s+`)

	reRepeatedHyphens     = regexp.MustCompile(`-{2,}`)
	reRepeatedUnderscores = regexp.MustCompile(`_{2,}`)
)

// Description returns input as a single line of plain text:
//  1. Strip null bytes and ASCII control characters
//  2. Strip XML/HTML tags
//  3. Collapse code fences to a single backtick
//  4. Collapse runs of whitespace to one space and trim
//  5. Truncate to MaxDescriptionLength runes
func Description(input string) string {
	if input == "" {
		return ""
	}

	s := stripControlChars(input)
	s = reXMLTag.ReplaceAllString(s, "")
	s = reTripleBacktick.ReplaceAllString(s, "`")
	s = strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))

	if utf8.RuneCountInString(s) > MaxDescriptionLength {
		r := []rune(s)
		s = string(r[:MaxDescriptionLength-3]) + "..."
	}
	return s
}

// PresetName turns arbitrary text, such as a file name, into a candidate
// preset name: lower case, only [a-z0-9-_], no repeated separators, no
// leading separator, at most MaxNameLength characters. The result may be
// empty.
func PresetName(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range strings.ToLower(input) {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_':
			b.WriteRune(r)
		case r == ' ' || r == '.':
			b.WriteRune('-')
		}
	}

	s := reRepeatedHyphens.ReplaceAllString(b.String(), "-")
	s = reRepeatedUnderscores.ReplaceAllString(s, "_")
	s = strings.TrimLeft(s, "-_")

	if len(s) > MaxNameLength {
		s = s[:MaxNameLength]
	}
	return s
}

// stripControlChars removes ASCII control characters (0x00-0x1F and DEL)
// except newline and tab, which later collapse to spaces.
func stripControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r < 0x20 && r != '\n' && r != '\t') || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
