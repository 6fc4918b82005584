package template

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"

	"cardgen/datasource"
)

// contentKind classifies what kind of content a column appears to hold, so
// an auto-generated template can lay it out sensibly.
type contentKind int

const (
	kindNumber contentKind = iota
	kindTitle
	kindText
)

func (k contentKind) String() string {
	switch k {
	case kindNumber:
		return "number"
	case kindTitle:
		return "title"
	default:
		return "text"
	}
}

var sentenceTokenizer *sentences.DefaultSentenceTokenizer

func init() {
	// the trained english tokenizer ships with the package, loading cannot
	// fail
	sentenceTokenizer, _ = english.NewSentenceTokenizer(nil)
}

// classify determines the kind of a single cell value.
func classify(value string) contentKind {
	value = strings.TrimSpace(value)
	if isNumber(value) {
		return kindNumber
	}
	if len(sentenceTokenizer.Tokenize(value)) > 1 {
		// several sentences is body text no matter how short they are
		return kindText
	}
	if len(strings.Fields(value)) > 3 {
		return kindText
	}
	return kindTitle
}

// isNumber accepts plain integers and simple two-component quantities like
// '3/4', '2x' or '10+' where at least one component is numeric.
func isNumber(value string) bool {
	if value == "" {
		return false
	}
	if isDigits(value) {
		return true
	}
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == '/' || r == ' '
	})
	if len(fields) != 2 {
		return false
	}
	return isDigits(fields[0]) || isDigits(fields[1])
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// AutoTemplate builds a card template from the shape of the data itself.
// Every column becomes a field wrapped in a div classed by the most common
// kind of content seen in that column, ordered numbers first, then titles,
// then body text.
func AutoTemplate(columns []string, rows []datasource.Row) Template {
	type columnKind struct {
		column string
		kind   contentKind
	}

	kinds := make([]columnKind, 0, len(columns))
	for _, column := range columns {
		if datasource.IsSpecialColumn(column) || datasource.IsExcludedColumn(column) ||
			datasource.IsBackOnlyColumn(column) {
			// back-only data never shows on the auto-generated front
			continue
		}

		tally := make(map[contentKind]int)
		for _, row := range rows {
			value, ok := row.Get(column)
			if !ok || strings.TrimSpace(value) == "" {
				continue
			}
			tally[classify(value)]++
		}

		kind := kindTitle
		best := 0
		for _, k := range []contentKind{kindNumber, kindTitle, kindText} {
			if tally[k] > best {
				best = tally[k]
				kind = k
			}
		}
		kinds = append(kinds, columnKind{column: column, kind: kind})
	}

	sort.SliceStable(kinds, func(i, j int) bool {
		return kinds[i].kind < kinds[j].kind
	})

	var b strings.Builder
	for _, ck := range kinds {
		fmt.Fprintf(&b, "<div class=\"auto-template-field auto-template-%s\">{{ %s }}</div>\n", ck.kind, ck.column)
	}

	return Template{Content: strings.TrimSpace(b.String()), Path: "auto-template"}
}
