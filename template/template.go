// Package template renders cards: it scans card templates for '{{ ... }}'
// fields and populates them from datasource rows, definitions, included
// files, dates and image references, in that order, collecting bookkeeping
// about what was and was not filled along the way.
package template

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/maruel/natural"

	"cardgen/datasource"
	"cardgen/diag"
	"cardgen/field"
)

// Template is the markup for one card face, tagged with where it came from
// so relative includes can be resolved.
type Template struct {
	Content string
	Path    string
}

// RenderData is the bookkeeping produced while rendering one card face.
type RenderData struct {
	// ImagePaths are the image sources referenced by the card, to be
	// copied into the output directory.
	ImagePaths []string
	// UnknownFields were present in the template but had no data.
	UnknownFields []string
	// UnusedFields are columns of the row that the template never used.
	UnusedFields []string
	// ReferencedDefinitions were consumed, directly or transitively.
	ReferencedDefinitions map[string]bool
}

// TemplateFromPath reads a template, making the path relative to another
// path (usually the datasource) unless absolute. The path actually read is
// returned for diagnostics.
func TemplateFromPath(path, relativeTo string) (tpl Template, found bool, actual string) {
	if path == "" {
		return Template{}, false, path
	}
	if !filepath.IsAbs(path) && relativeTo != "" {
		path = filepath.Join(filepath.Dir(relativeTo), path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return Template{Path: path}, false, path
	}
	return Template{Content: strings.TrimSpace(string(content)), Path: path}, true, path
}

// Renderer fills card templates. It owns the stages that are not plain
// reference resolution: includes, dates, images, definitions and the
// reserved system fields.
type Renderer struct {
	Resolver *Resolver
	Diag     *diag.Display

	// Now provides the timestamp for '{{ date }}' fields.
	Now func() time.Time
}

// NewRenderer wires a renderer and its resolver together: cell content
// passes through the include/empty/date pre-pass before being resolved.
func NewRenderer(resolver *Resolver, d *diag.Display) *Renderer {
	rn := &Renderer{Resolver: resolver, Diag: d, Now: time.Now}
	resolver.Content = func(content, dataPath string) string {
		content = rn.FillIncludes(dataPath, content)
		content = FillEmpty(content)
		return rn.FillDates(content)
	}
	return rn
}

// FillCardFront renders the front face of a card.
func (rn *Renderer) FillCardFront(tpl Template, row datasource.Row, cardIndex, copyIndex int) (string, RenderData) {
	return rn.fillCard(tpl, row.FrontRow(), cardIndex, copyIndex)
}

// FillCardBack renders the back face of a card from its back-only columns.
func (rn *Renderer) FillCardBack(tpl Template, row datasource.Row, cardIndex, copyIndex int) (string, RenderData) {
	return rn.fillCard(tpl, row.BackRow(), cardIndex, copyIndex)
}

func (rn *Renderer) fillCard(tpl Template, row datasource.Row, cardIndex, copyIndex int) (string, RenderData) {
	content, data := rn.FillTemplate(tpl, row)

	// the reserved per-card fields, usually seen in error templates
	content, _ = field.Fill(FieldCardRowIndex, strconv.Itoa(row.Index), content)
	content, _ = field.Fill(FieldCardTemplatePath, tpl.Path, content)
	content, _ = field.Fill(FieldCardIndex, strconv.Itoa(cardIndex), content)
	content, _ = field.Fill(FieldCardCopyIndex, strconv.Itoa(copyIndex), content)

	// the row may legitimately reference these without them counting as
	// unknown, they were not fillable until now
	data.UnknownFields = without(data.UnknownFields,
		FieldCardRowIndex, FieldCardTemplatePath, FieldCardIndex, FieldCardCopyIndex)

	return content, data
}

// FillTemplate populates every field of a template from a row. Populating is
// staged: includes first since they may contribute more fields, then one
// resolution pass per column, then definitions, dates and finally images.
func (rn *Renderer) FillTemplate(tpl Template, row datasource.Row) (string, RenderData) {
	content := rn.FillIncludes(tpl.Path, tpl.Content)
	content = FillEmpty(content)

	var unusedColumns []string
	columnReferences := make(map[string]bool)
	referencedDefinitions := make(map[string]bool)

	for _, column := range row.Columns {
		value, res := rn.Resolver.ColumnContent(column, row)

		var occurrences int
		content, occurrences = field.Fill(column, value, content)
		if occurrences == 0 {
			// the column had no corresponding field in the template
			unusedColumns = append(unusedColumns, column)
			continue
		}
		for name := range res.ColumnReferences {
			columnReferences[name] = true
		}
		for name := range res.DefinitionReferences {
			referencedDefinitions[name] = true
		}
	}

	var definitions map[string]bool
	content, definitions = rn.FillDefinitions(content)
	for name := range definitions {
		referencedDefinitions[name] = true
	}

	content = rn.FillDates(content)

	var imagePaths []string
	var imageDefinitions map[string]bool
	content, imagePaths, imageDefinitions = rn.FillImageFields(content)
	for name := range imageDefinitions {
		referencedDefinitions[name] = true
	}

	var unknown []string
	for _, f := range field.Scan(content) {
		if f.InnerContent == FieldCardsTotal {
			// not fillable until every card has been generated, so it
			// does not count as unknown here
			continue
		}
		unknown = append(unknown, f.Name)
	}

	// columns that were only consumed as transitive reference sources are
	// not unused, they just never appear in the template themselves
	var unused []string
	for _, column := range unusedColumns {
		if !columnReferences[column] {
			unused = append(unused, column)
		}
	}

	return content, RenderData{
		ImagePaths:            dedupe(imagePaths),
		UnknownFields:         dedupe(unknown),
		UnusedFields:          dedupe(unused),
		ReferencedDefinitions: referencedDefinitions,
	}
}

var (
	includePattern = regexp.MustCompile(`^(include|inline)$`)
	datePattern    = regexp.MustCompile(`^date$`)
)

// FillIncludes expands every include and inline field by substituting the
// contents of the referenced file, relative to basePath unless absolute.
// Expansion repeats until no include fields remain, so included files may
// include further files.
func (rn *Renderer) FillIncludes(basePath, content string) string {
	for {
		f, ok := field.First(content, field.Match{Name: includePattern})
		if !ok {
			return content
		}

		inline := f.Name == FieldInline
		included := ""

		path := strings.TrimSpace(dequote(f.Context))
		if path == "" {
			rn.Diag.IncludeShouldSpecifyFile(diag.Context{
				Name: fmt.Sprintf("%s:%d", filepath.Base(basePath), field.LineNumber(f.Start, content)),
			}, inline)
		} else {
			if !filepath.IsAbs(path) && basePath != "" {
				path = filepath.Join(filepath.Dir(basePath), path)
			}
			raw, err := os.ReadFile(path)
			switch {
			case err != nil:
				rn.Diag.IncludedFileNotFound(diag.Context{Name: filepath.Base(basePath)}, path)
				included = "<strong>&lt;included file not found&gt;</strong>"
			case inline:
				// inlines collapse to a single line
				var lines []string
				for _, line := range strings.Split(string(raw), "\n") {
					lines = append(lines, strings.TrimSpace(line))
				}
				included = strings.Join(lines, "")
			default:
				included = strings.TrimSpace(string(raw))
			}
		}

		filled, err := fillIncludeField(f, included, content, !inline)
		if err != nil || filled == content {
			return content
		}
		content = filled
	}
}

func fillIncludeField(f field.Field, value, content string, indent bool) (string, error) {
	if indent {
		return field.FillSingleIndented(f, value, content)
	}
	return field.FillSingle(f, value, content)
}

// FillDates populates '{{ date }}' fields with the current date. A field may
// carry a custom layout in its context, e.g. "{{ date '2006-01-02' }}".
func (rn *Renderer) FillDates(content string) string {
	for {
		f, ok := field.First(content, field.Match{Name: datePattern})
		if !ok {
			return content
		}

		layout := "January 2, 2006"
		if custom := strings.TrimSpace(dequote(f.Context)); custom != "" {
			layout = custom
		}

		filled, err := field.FillSingle(f, rn.Now().Format(layout), content)
		if err != nil || filled == content {
			return content
		}
		content = filled
	}
}

// FillEmpty clears fields with nothing between the braces.
func FillEmpty(content string) string {
	filled, _ := field.Fill("", "", content)
	return filled
}

// FillDefinitions populates every definition field. Definite fields
// ('{{ my_definition }}') are filled first; a second pass then substitutes
// partial occurrences inside other fields ('{{ my_column my_definition }}'),
// which needs resolved values from the first pass.
func (rn *Renderer) FillDefinitions(content string) (string, map[string]bool) {
	referenced := make(map[string]bool)
	resolved := make(map[string]string, len(rn.Resolver.Definitions))

	for name := range rn.Resolver.Definitions {
		value, res := rn.Resolver.DefinitionContent(name)
		resolved[name] = value

		var occurrences int
		content, occurrences = field.Fill(name, value, content)
		if occurrences > 0 {
			referenced[name] = true
			for dep := range res.DefinitionReferences {
				referenced[dep] = true
			}
		}
	}

	for name := range rn.Resolver.Definitions {
		var occurrences int
		content, occurrences = fillPartialDefinition(name, resolved[name], content)
		if occurrences > 0 {
			referenced[name] = true
		}
	}

	return content, referenced
}

// fillPartialDefinition substitutes a definition that occurs as part of a
// larger field, e.g. '{{ my_column my_partial }}' or '{{ my_partial 16x16 }}'.
// The definition only matches when isolated by whitespace or the field
// braces, so a definition named 'monster' does not clip
// '{{ path/to/monster.svg 16x16 }}'. Fields are rewritten back to front so
// the scanned offsets stay valid, and each field only once, so a value that
// happens to contain the definition name cannot expand forever.
func fillPartialDefinition(definition, value, content string) (string, int) {
	pattern := regexp.MustCompile(`(^|\s|{{)(` + regexp.QuoteMeta(definition) + `)($|\s|}})`)

	substitute := func(s string) string {
		return pattern.ReplaceAllStringFunc(s, func(m string) string {
			sub := pattern.FindStringSubmatch(m)
			return sub[1] + value + sub[3]
		})
	}

	fields := field.Scan(content)
	occurrences := 0
	for i := len(fields) - 1; i >= 0; i-- {
		f := fields[i]
		if !pattern.MatchString(f.Name) && !pattern.MatchString(f.Context) {
			continue
		}

		inner := substitute(f.Name)
		if context := substitute(f.Context); context != "" {
			inner += " " + context
		}

		filled, err := field.FillSingle(f, "{{ "+inner+" }}", content)
		if err != nil || filled == content {
			continue
		}
		content = filled
		occurrences++
	}
	return content, occurrences
}

// FillImageFields attempts to interpret every remaining field as an image
// reference, substituting <img> tags (or bare paths for copy-only fields)
// and collecting the referenced source paths for copying.
func (rn *Renderer) FillImageFields(content string) (string, []string, map[string]bool) {
	var paths []string
	definitions := make(map[string]bool)
	attempted := make(map[string]bool)

	for {
		substituted := false
		for _, f := range field.Scan(content) {
			if attempted[f.InnerContent] {
				continue
			}

			img := rn.Resolver.BuildImage(f.InnerContent)
			if img.Tag == "" {
				attempted[f.InnerContent] = true
				continue
			}

			paths = append(paths, img.Path)
			for name := range img.Definitions {
				definitions[name] = true
			}

			filled, err := field.FillSingle(f, img.Tag, content)
			if err != nil {
				attempted[f.InnerContent] = true
				continue
			}
			content = filled
			substituted = true
			break
		}
		if !substituted {
			return content, paths, definitions
		}
	}
}

var stylePattern = regexp.MustCompile(`(?s)<style.*?>.+?</style>`)

// StripStyles removes embedded <style> blocks from a template and returns
// them, so they can be gathered at the document level instead of being
// repeated on every card.
func StripStyles(tpl *Template, d *diag.Display) string {
	var blocks []string
	for _, m := range stylePattern.FindAllString(tpl.Content, -1) {
		blocks = append(blocks, strings.TrimSpace(m))
	}

	tpl.Content = strings.TrimSpace(stylePattern.ReplaceAllString(tpl.Content, ""))

	styles := strings.Join(blocks, "\n")
	if fields := field.Scan(styles); len(fields) > 0 {
		var names []string
		for _, f := range fields {
			names = append(names, f.Name)
		}
		d.FieldsInStyles(diag.Context{Name: tpl.Path}, dedupe(names))
	}
	return styles
}

// SizedCard wraps rendered card content in the shared card container,
// setting its size class.
func SizedCard(card, sizeStyle, content string) string {
	filled, _ := field.Fill(FieldCardSize, sizeStyle, card)
	filled, _ = field.FillIndented(FieldCardContent, content, filled)
	return filled
}

// dequote strips one level of surrounding single or double quotes.
func dequote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// dedupe returns the unique entries in natural order, so diagnostics and
// copy lists are stable between runs.
func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	var unique []string
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		unique = append(unique, v)
	}
	sort.Sort(natural.StringSlice(unique))
	return unique
}

func without(values []string, exclude ...string) []string {
	excluded := make(map[string]bool, len(exclude))
	for _, e := range exclude {
		excluded[e] = true
	}
	var kept []string
	for _, v := range values {
		if !excluded[v] {
			kept = append(kept, v)
		}
	}
	return kept
}
