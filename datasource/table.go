// Package datasource loads the CSV inputs that drive card generation: card
// datasources, where every row describes one printable card, and the optional
// definitions file of project-wide named values.
//
// Datasources are read once into indexed in-memory tables, so that cross-row
// references ('{{ title #4 }}') are cheap addressed lookups instead of
// repeated file scans.
package datasource

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// Store provides addressed row lookup for one datasource. Indexes follow
// spreadsheet numbering, the first data row is 2.
type Store interface {
	GetRow(index int) (Row, bool)
}

// Table is an in-memory datasource. It implements Store.
type Table struct {
	Path    string
	Columns []string // normalized column names, in file order
	SizeID  string   // card size identifier from '@template:size', may be empty
	rows    []Row
}

// Open reads a CSV datasource into a Table. A non-nil enc decodes legacy
// files that are not UTF-8.
func Open(path string, enc encoding.Encoding) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return read(f, path, enc)
}

func read(f io.Reader, path string, enc encoding.Encoding) (*Table, error) {
	if enc != nil {
		f = transform.NewReader(f, enc.NewDecoder())
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = false

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("datasource '%s' is empty", path)
	}
	if err != nil {
		return nil, err
	}

	sizeID, columns := parseColumns(header)

	t := &Table{Path: path, Columns: columns, SizeID: sizeID}

	for index := 2; ; index++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("datasource '%s' row %d: %w", path, index, err)
		}

		data := make(map[string]string, len(columns))
		for i, name := range columns {
			if i < len(record) {
				data[name] = record[i]
			} else {
				data[name] = ""
			}
		}

		t.rows = append(t.rows, Row{
			Data:    data,
			Columns: uniqueColumns(columns),
			Path:    path,
			Index:   index,
			Skip:    len(record) > 0 && strings.HasPrefix(strings.TrimSpace(record[0]), "#"),
		})
	}

	return t, nil
}

func uniqueColumns(columns []string) []string {
	seen := make(map[string]bool, len(columns))
	unique := columns[:0:0]
	for _, name := range columns {
		if seen[name] {
			continue
		}
		seen[name] = true
		unique = append(unique, name)
	}
	return unique
}

// GetRow returns the row at a spreadsheet index.
func (t *Table) GetRow(index int) (Row, bool) {
	i := index - 2
	if i < 0 || i >= len(t.rows) {
		return Row{}, false
	}
	return t.rows[i], true
}

// Rows returns all data rows in file order, commented out rows included.
func (t *Table) Rows() []Row {
	return t.rows
}

// HasColumn determines whether the datasource carries a column.
func (t *Table) HasColumn(name string) bool {
	for _, column := range t.Columns {
		if column == name {
			return true
		}
	}
	return false
}

// Set caches opened tables by path, so that a datasource referenced from many
// fields is read only once per run.
type Set struct {
	enc    encoding.Encoding
	tables map[string]*Table
}

func NewSet(enc encoding.Encoding) *Set {
	return &Set{enc: enc, tables: make(map[string]*Table)}
}

func (s *Set) Open(path string) (*Table, error) {
	path = filepath.Clean(path)
	if t, ok := s.tables[path]; ok {
		return t, nil
	}
	t, err := Open(path, s.enc)
	if err != nil {
		return nil, err
	}
	s.tables[path] = t
	return t, nil
}
