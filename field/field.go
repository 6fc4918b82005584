// Package field locates and populates template fields, the '{{ ... }}'
// placeholders that drive card generation. A field has a name and an optional
// context, e.g. '{{ title #4 }}' names column "title" with context "#4".
package field

import (
	"fmt"
	"regexp"
	"strings"
)

// Field is a single placeholder occurrence in a template.
type Field struct {
	Name         string // first whitespace separated component
	Context      string // everything after the name, may be empty
	InnerContent string // full content between the braces, trimmed
	Start, End   int    // byte offsets from the first '{' to the last '}'
}

func (f Field) String() string {
	return "{{ " + f.InnerContent + " }}"
}

// HasRowReference determines whether the field context points at another row,
// e.g. '{{ title #6 }}'.
func (f Field) HasRowReference() bool {
	return strings.HasPrefix(f.Context, "#")
}

var fieldPattern = regexp.MustCompile(`(?s){{\s?(([^}\s]*)\s?(.*?))\s?}}`)

// Scan returns every field occurring in text, in order of appearance.
// Fields with no content between the braces are not reported.
func Scan(text string) []Field {
	var found []Field
	for _, m := range fieldPattern.FindAllStringSubmatchIndex(text, -1) {
		f := Field{
			InnerContent: strings.TrimSpace(text[m[2]:m[3]]),
			Name:         strings.TrimSpace(text[m[4]:m[5]]),
			Context:      strings.TrimSpace(text[m[6]:m[7]]),
			Start:        m[0],
			End:          m[1],
		}
		if f.InnerContent == "" {
			continue
		}
		found = append(found, f)
	}
	return found
}

// Match filters fields by name and/or context. A nil pattern is always
// satisfied. By default both patterns must be satisfied; with Either set a
// single satisfied pattern is enough.
type Match struct {
	Name    *regexp.Regexp
	Context *regexp.Regexp
	Either  bool
}

func (m Match) matches(f Field) bool {
	nameOK := m.Name == nil || (f.Name != "" && m.Name.MatchString(f.Name))
	contextOK := m.Context == nil || (f.Context != "" && m.Context.MatchString(f.Context))
	if m.Either {
		return nameOK || contextOK
	}
	return nameOK && contextOK
}

// First returns the first field in text satisfying the match.
func First(text string, m Match) (Field, bool) {
	for _, f := range Scan(text) {
		if m.matches(f) {
			return f, true
		}
	}
	return Field{}, false
}

// FillSingle replaces one specific field occurrence with a value.
func FillSingle(f Field, value, text string) (string, error) {
	return fillSingle(f, value, text, false)
}

// FillSingleIndented is like FillSingle, but pads multi-line values to line up
// with the indentation of the field being replaced.
func FillSingleIndented(f Field, value, text string) (string, error) {
	return fillSingle(f, value, text, true)
}

func fillSingle(f Field, value, text string, indent bool) (string, error) {
	if f.Start < 0 || f.Start > len(text) || f.End < 0 || f.End > len(text) || f.Start > f.End {
		return "", fmt.Errorf("template field '%s' out of range (%d-%d)", f.InnerContent, f.Start, f.End)
	}
	if indent {
		value = pad(value, text, f.Start)
	}
	return text[:f.Start] + value + text[f.End:], nil
}

// Fill replaces every field whose inner content equals name, ignoring case and
// brace padding (both '{{name}}' and '{{ name }}' count), and reports the
// number of occurrences replaced.
func Fill(name, value, text string) (string, int) {
	return fill(name, value, text, false)
}

// FillIndented is like Fill, but pads multi-line values to line up with the
// indentation of the first occurrence.
func FillIndented(name, value, text string) (string, int) {
	return fill(name, value, text, true)
}

func fill(name, value, text string, indent bool) (string, int) {
	search := regexp.MustCompile(`(?i){{\s*` + regexp.QuoteMeta(name) + `\s*}}`)
	if indent {
		if loc := search.FindStringIndex(text); loc != nil {
			value = pad(value, text, loc[0])
		}
	}
	occurrences := 0
	filled := search.ReplaceAllStringFunc(text, func(string) string {
		occurrences++
		return value
	})
	return filled, occurrences
}

// pad indents every line after the first to match the indentation at the
// given position, so that a multi-line value slots into an indented template
// without breaking its alignment.
func pad(value, text string, at int) string {
	padding := 0
	for i := at - 1; i >= 0 && text[i] != '\n'; i-- {
		padding++
	}
	if padding == 0 {
		return value
	}
	lines := strings.SplitAfter(value, "\n")
	value = strings.Join(lines, strings.Repeat(" ", padding))
	return strings.TrimRight(value, " \t\r\n")
}

// LineNumber returns the 1-based line a byte offset falls on.
func LineNumber(at int, text string) int {
	if at > len(text) {
		at = len(text)
	}
	return strings.Count(text[:at], "\n") + 1
}
