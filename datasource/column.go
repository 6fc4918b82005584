package datasource

import (
	"fmt"
	"strings"
)

// Reserved column names and markers.
const (
	ColumnCount        = "@count"
	ColumnTemplate     = "@template"
	ColumnTemplateBack = "@template-back"

	// BackOnlySuffix marks a column as exclusive to the back of a card.
	BackOnlySuffix = "@back-only"
)

// IsSpecialColumn determines whether a column is to be treated as a special
// column, e.g. '@template'.
func IsSpecialColumn(name string) bool {
	return strings.HasPrefix(name, "@")
}

// IsExcludedColumn determines whether a column should be excluded from cards,
// e.g. '(notes)'.
func IsExcludedColumn(name string) bool {
	return strings.HasPrefix(name, "(") && strings.HasSuffix(name, ")")
}

// IsBackOnlyColumn determines whether a column is only intended for the back
// of a card, e.g. 'strength@back-only'.
func IsBackOnlyColumn(name string) bool {
	return strings.HasSuffix(name, BackOnlySuffix)
}

// InvalidColumns returns a description for every column name that cannot be
// referenced from a template.
func InvalidColumns(names []string) []string {
	var invalid []string
	for _, name := range names {
		if strings.Contains(name, " ") {
			invalid = append(invalid, fmt.Sprintf("'%s' contains whitespace (should be an underscore)", name))
		}
	}
	return invalid
}

// parseColumns normalizes raw header names and extracts the card size
// identifier from the '@template' column, so '@template:jumbo' yields "jumbo"
// and a clean '@template' column name (important for references to resolve).
func parseColumns(names []string) (sizeID string, parsed []string) {
	parsed = make([]string, len(names))
	for i, name := range names {
		parsed[i] = strings.ToLower(strings.TrimSpace(name))
	}
	for i, name := range parsed {
		if !strings.HasPrefix(name, ColumnTemplate) || name == ColumnTemplateBack {
			continue
		}
		if at := strings.LastIndex(name, ":"); at != -1 {
			sizeID = strings.TrimSpace(name[at+1:])
			parsed[i] = strings.TrimSpace(name[:at])
		}
		break
	}
	return sizeID, parsed
}
