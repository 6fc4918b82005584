// Package markdown implements the small subset of Markdown-like inline
// decorations supported in card content: emphasis, strong, superscript,
// deleted/inserted runs and whitespace driven line breaks. Block level
// constructs (headers, tables, images) are intentionally not supported.
package markdown

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	strongPattern   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	emphasisPattern = regexp.MustCompile(`\*(.+?)\*`)

	// _ and __ only apply when bounded by whitespace or punctuation,
	// e.g. "this_does not work_" but "this (_works too_)".
	strongAltPattern   = regexp.MustCompile(`__(.+?)__`)
	emphasisAltPattern = regexp.MustCompile(`_(.+?)_`)

	superPattern = regexp.MustCompile(`\^(\S+)`)

	deletedPattern  = regexp.MustCompile(`~~(.+?)~~`)
	insertedPattern = regexp.MustCompile(`\+\+(.+?)\+\+`)

	// 3 whitespace between words is a shortcut for a double line break,
	// 2 whitespace (or multiples thereof) breaks once per pair.
	breakTwicePattern = regexp.MustCompile(`\s{3}`)
	breakPattern      = regexp.MustCompile(`\s{2}`)
)

// Escaped markers are swapped for private use runes before any pattern is
// applied and restored afterwards, so that "\*not strong\*" survives intact.
// This stands in for lookbehind assertions which RE2 does not provide.
const (
	escapedStar       = "\ue000"
	escapedUnderscore = "\ue001"
)

var (
	hideEscapes    = strings.NewReplacer(`\*`, escapedStar, `\_`, escapedUnderscore)
	restoreEscapes = strings.NewReplacer(escapedStar, "*", escapedUnderscore, "_")
)

// Render transforms inline decorations in content into HTML tags.
func Render(content string) string {
	content = hideEscapes.Replace(content)

	// most constrained patterns first, ** should overrule * and __ overrule _
	content = strongPattern.ReplaceAllString(content, "<strong>$1</strong>")
	content = replaceBounded(strongAltPattern, content, "<strong>", "</strong>")

	content = emphasisPattern.ReplaceAllString(content, "<em>$1</em>")
	content = replaceBounded(emphasisAltPattern, content, "<em>", "</em>")

	content = superPattern.ReplaceAllString(content, "<sup>$1</sup>")

	content = deletedPattern.ReplaceAllString(content, "<del>$1</del>")
	content = insertedPattern.ReplaceAllString(content, "<ins>$1</ins>")

	content = replaceSpaced(breakTwicePattern, content, "<br /><br />")
	content = breakPattern.ReplaceAllString(content, "<br />")

	return restoreEscapes.Replace(content)
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// replaceBounded wraps every match of re whose surroundings are either text
// edges, whitespace or punctuation. Matches flush against word characters are
// left alone.
func replaceBounded(re *regexp.Regexp, text, open, close string) string {
	var b strings.Builder
	last := 0
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[0], m[1]
		if start > 0 {
			r, _ := utf8.DecodeLastRuneInString(text[:start])
			if isWordRune(r) || r == '\\' {
				continue
			}
		}
		if end < len(text) {
			r, _ := utf8.DecodeRuneInString(text[end:])
			if isWordRune(r) {
				continue
			}
		}
		b.WriteString(text[last:start])
		b.WriteString(open)
		b.WriteString(text[m[2]:m[3]])
		b.WriteString(close)
		last = end
	}
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

// replaceSpaced substitutes matches of re that sit directly between two
// non-whitespace runes.
func replaceSpaced(re *regexp.Regexp, text, repl string) string {
	var b strings.Builder
	last := 0
	for _, m := range re.FindAllStringIndex(text, -1) {
		start, end := m[0], m[1]
		if start == 0 || end == len(text) {
			continue
		}
		if r, _ := utf8.DecodeLastRuneInString(text[:start]); !isSolid(r) {
			continue
		}
		if r, _ := utf8.DecodeRuneInString(text[end:]); !isSolid(r) {
			continue
		}
		b.WriteString(text[last:start])
		b.WriteString(repl)
		last = end
	}
	if last == 0 {
		return text
	}
	b.WriteString(text[last:])
	return b.String()
}

func isSolid(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return false
	}
	return true
}
