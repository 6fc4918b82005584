package datasource

import (
	"strconv"
	"strings"
)

// Row is one record of a datasource: an ordered mapping of normalized column
// name to raw value. Rows are numbered by spreadsheet convention, the header
// is row 1 so the first data row is row 2.
type Row struct {
	Data    map[string]string
	Columns []string // column names in order of appearance
	Path    string   // datasource the row came from, empty for definitions
	Index   int      // spreadsheet row number
	Skip    bool     // the row was commented out with a leading '#'
}

// Get returns the value of a column.
func (r Row) Get(name string) (string, bool) {
	v, ok := r.Data[name]
	return v, ok
}

// Has determines whether the row carries a column.
func (r Row) Has(name string) bool {
	_, ok := r.Data[name]
	return ok
}

func (r Row) filtered(keep func(string) bool, rename func(string) string) Row {
	data := make(map[string]string)
	var columns []string
	for _, name := range r.Columns {
		if IsExcludedColumn(name) || IsSpecialColumn(name) || !keep(name) {
			continue
		}
		to := name
		if rename != nil {
			to = rename(name)
		}
		data[to] = r.Data[name]
		columns = append(columns, to)
	}
	return Row{Data: data, Columns: columns, Path: r.Path, Index: r.Index}
}

// FrontRow returns a row containing only data fit for the front of a card.
func (r Row) FrontRow() Row {
	return r.filtered(func(name string) bool {
		return !IsBackOnlyColumn(name)
	}, nil)
}

// BackRow returns a row containing only data fit for the back of a card, with
// the back-only marker stripped from column names.
func (r Row) BackRow() Row {
	return r.filtered(IsBackOnlyColumn, func(name string) string {
		return strings.TrimSpace(strings.TrimSuffix(name, BackOnlySuffix))
	})
}

// Count returns how many instances of the card this row should produce. An
// absent or blank '@count' column defaults to a single instance and negative
// values clamp to none. Unparsable content is indeterminable: the row yields
// nothing and ok is false.
func (r Row) Count() (count int, ok bool) {
	raw, present := r.Data[ColumnCount]
	if !present || strings.TrimSpace(raw) == "" {
		return 1, true
	}
	count, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	if count < 0 {
		count = 0
	}
	return count, true
}
