package template

import (
	"path/filepath"
	"strconv"
	"strings"

	"cardgen/datasource"
	"cardgen/diag"
	"cardgen/field"
	"cardgen/markdown"
)

// Resolution tracks which names were actually consumed while resolving one
// field. Transitively referenced columns must not later be reported as
// unused, and referenced definitions feed the unused-definitions report.
type Resolution struct {
	ColumnReferences     map[string]bool
	DefinitionReferences map[string]bool
}

func newResolution() Resolution {
	return Resolution{
		ColumnReferences:     make(map[string]bool),
		DefinitionReferences: make(map[string]bool),
	}
}

func (r Resolution) merge(other Resolution) {
	for name := range other.ColumnReferences {
		r.ColumnReferences[name] = true
	}
	for name := range other.DefinitionReferences {
		r.DefinitionReferences[name] = true
	}
}

// Resolver recursively expands column and definition references in card
// content. It is deliberately storage-agnostic: cross-row references go
// through the Sources lookup.
type Resolver struct {
	Definitions map[string]string
	Diag        *diag.Display

	// Sources opens the datasource a row belongs to, for '#N' references.
	Sources func(path string) (datasource.Store, error)

	// Content is an optional pre-pass applied to raw cell content before
	// resolution, used to expand includes and date fields ahead of time.
	Content func(content, dataPath string) string

	// ResourceName overrides the in-output name an image reference points
	// at, e.g. when copied SVGs are rasterized and change extension. Left
	// nil, references point at ResourcePath.
	ResourceName func(path string) string
}

// referenceKind classifies what a resolvable field name denotes.
type referenceKind int

const (
	refColumn referenceKind = iota
	refDefinition
)

// ColumnContent returns the content of a column in a row, recursively
// resolving any column or definition references it contains.
func (r *Resolver) ColumnContent(name string, row datasource.Row) (string, Resolution) {
	return r.columnContent(name, row, false)
}

// DefinitionContent returns the resolved content of a definition. Definitions
// behave like columns of a virtual row shared by every datasource.
func (r *Resolver) DefinitionContent(name string) (string, Resolution) {
	return r.columnContent(name, datasource.Row{Data: r.Definitions}, true)
}

func (r *Resolver) columnContent(name string, row datasource.Row, inDefinitions bool) (string, Resolution) {
	raw, ok := row.Get(name)
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return "", newResolution()
	}
	if r.Content != nil {
		raw = r.Content(raw, row.Path)
	}
	resolved, res := r.resolve(name, raw, row, inDefinitions)

	// transform content to html using any applied markdown formatting
	return markdown.Render(resolved), res
}

// resolve expands every resolvable reference in the content of one column.
func (r *Resolver) resolve(column, content string, row datasource.Row, inDefinitions bool) (string, Resolution) {
	res := newResolution()

	for _, ref := range field.Scan(content) {
		name, targetRow, sameRow := r.rowReference(ref, row)
		if name == "" {
			// not a row reference, use the field as is
			name = ref.InnerContent
		}

		_, isDefinition := r.Definitions[name]
		// when resolving the definitions themselves every definition also
		// looks like a column of the virtual row, but must not count as one
		isColumn := targetRow.Has(name) && !inDefinitions

		ctx := diag.Context{Name: r.contextName(targetRow, inDefinitions), Row: targetRow.Index}

		if !isColumn && !isDefinition {
			if ref.HasRowReference() {
				// an explicit '#N' reference was clearly meant to resolve
				r.Diag.UnresolvedReference(ctx, ref.InnerContent)
			}
			// otherwise leave the field untouched, it might be an image or
			// include field that a later pass takes care of
			continue
		}

		// a reference to the very column being resolved cannot terminate
		infiniteColumn := name == column && sameRow
		infiniteDefinition := infiniteColumn && isDefinition && !isColumn

		if infiniteDefinition {
			r.Diag.InfiniteDefinitionReference(ctx, ref.InnerContent)
			continue
		}
		if infiniteColumn && !isDefinition {
			r.Diag.InfiniteColumnReference(ctx, ref.InnerContent)
			continue
		}

		kind := refDefinition
		if isColumn && !infiniteColumn {
			kind = refColumn
		}

		var value string
		var nested Resolution
		if kind == refColumn {
			// prefer the column even if a definition also matches, but
			// warn about the ambiguity below
			value, nested = r.columnContent(name, targetRow, sameRow && inDefinitions)
		} else {
			value, nested = r.DefinitionContent(name)
		}
		res.merge(nested)

		var occurrences int
		content, occurrences = field.Fill(ref.InnerContent, value, content)
		if occurrences == 0 {
			continue
		}

		if kind == refColumn {
			res.ColumnReferences[name] = true
		} else {
			res.DefinitionReferences[name] = true
		}

		if isColumn && isDefinition && !inDefinitions {
			ambiguous := diag.Context{Name: r.contextName(targetRow, inDefinitions)}
			if kind == refColumn {
				r.Diag.AmbiguousColumnUsed(ambiguous, name, value)
			} else {
				// the column would have been preferred, but it was an
				// infinite reference so the definition took over
				r.Diag.AmbiguousDefinitionUsed(ambiguous, name, value)
			}
		}
	}

	return content, res
}

func (r *Resolver) contextName(row datasource.Row, inDefinitions bool) string {
	if row.Path != "" {
		return filepath.Base(row.Path)
	}
	if inDefinitions {
		return "definitions"
	}
	return ""
}

// rowReference determines the column and row that a field references. A field
// like '{{ title #6 }}' names column "title" of row 6. When the field is not
// a cross-row reference the row passed in is returned untouched and sameRow
// is true.
func (r *Resolver) rowReference(f field.Field, row datasource.Row) (column string, target datasource.Row, sameRow bool) {
	if row.Path == "" || !f.HasRowReference() {
		return "", row, true
	}

	number, err := strconv.Atoi(f.Context[1:])
	if err != nil {
		return "", row, true
	}
	if number == row.Index {
		// referencing the row already being resolved, clean up the field
		// name but stay on the same row
		return f.Name, row, true
	}
	// spreadsheet rows are 1-based with the header at row 1, which makes
	// '#0' and '#1' invalid row references
	if number-2 < 0 {
		return "", row, true
	}

	store, err := r.Sources(row.Path)
	if err != nil {
		return "", row, true
	}
	referenced, ok := store.GetRow(number)
	if !ok {
		return "", row, true
	}

	// only expose the columns also present in the originating row
	data := make(map[string]string)
	var columns []string
	for _, name := range referenced.Columns {
		if !row.Has(name) {
			continue
		}
		data[name] = referenced.Data[name]
		columns = append(columns, name)
	}

	return f.Name, datasource.Row{Data: data, Columns: columns, Path: row.Path, Index: number}, false
}
