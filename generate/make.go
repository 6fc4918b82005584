// Package generate drives card sheet generation: it reads the requested
// datasources, renders every card through the template engine, paginates the
// results and writes the final document with its stylesheets and resources
// into the output directory.
package generate

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maruel/natural"
	"go.uber.org/zap"

	"cardgen/css"
	"cardgen/datasource"
	"cardgen/diag"
	"cardgen/layout"
	"cardgen/state"
	"cardgen/template"
)

// CSSDirName is the directory stylesheets are written into, relative to the
// generated output directory.
const CSSDirName = "css"

// cachedTemplate is a template with its <style> blocks already stripped, so
// a template shared by many cards is read and inspected once.
type cachedTemplate struct {
	tpl    template.Template
	styles string
}

type maker struct {
	env *state.LocalEnv
	log *zap.Logger
	d   *diag.Display

	resolver *template.Resolver
	renderer *template.Renderer
	pg       *layout.Paginator
	copier   *resourceCopier

	definitions  map[string]string
	generatedDir string

	templates  map[string]cachedTemplate
	styles     []string
	styled     map[string]bool
	usedSizes  map[string]bool
	referenced map[string]bool
	resources  []resourceRef

	// cardsRendered numbers every rendered card; cardsUnique numbers cards
	// once regardless of their '@count'.
	cardsRendered int
	cardsUnique   int
}

// Make generates one document from the given datasources.
func Make(ctx context.Context, sources []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)

	m := &maker{
		env:          env,
		log:          env.Log.Named("generate"),
		d:            diag.New(env.Log, env.Verbose),
		generatedDir: filepath.Join(env.OutputDir, GeneratedDirName),
		templates:    make(map[string]cachedTemplate),
		styled:       make(map[string]bool),
		usedSizes:    make(map[string]bool),
		referenced:   make(map[string]bool),
	}

	m.definitions = m.loadDefinitions(sources)

	set := datasource.NewSet(env.CodePage)
	m.resolver = &template.Resolver{
		Definitions: m.definitions,
		Diag:        m.d,
		Sources: func(path string) (datasource.Store, error) {
			return set.Open(path)
		},
	}
	if env.Cfg.Document.Images.RasterizeSVG {
		m.resolver.ResourceName = rasterizedResourcePath
	}
	m.renderer = template.NewRenderer(m.resolver, m.d)
	m.pg = layout.NewPaginator(pageTemplate)
	m.copier = newResourceCopier(m.d, env.Cfg.Document.Images, m.generatedDir)

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.generateSource(set, src)
	}
	m.pg.Flush()

	if err := m.writeDocument(sources); err != nil {
		return err
	}
	m.writeStylesheets()
	m.copyResources()

	m.log.Info("Generation completed",
		zap.Int("cards", m.pg.CardsTotal()),
		zap.Int("pages", m.pg.PagesTotal()),
		zap.Int("warnings", m.d.Warnings()),
		zap.Int("errors", m.d.Errors()))
	if m.d.HasWarnings() && !env.Verbose {
		m.log.Info("Warnings were suppressed. Use the --verbose option to see them.")
	}
	return nil
}

// rasterizedResourcePath points image references at the PNG a copied SVG will
// be rasterized into.
func rasterizedResourcePath(path string) string {
	resource := template.ResourcePath(path)
	if strings.HasPrefix(resource, template.ResourcesDirName+"/") && isSVG(resource) {
		resource = strings.TrimSuffix(resource, filepath.Ext(resource)) + ".png"
	}
	return resource
}

// loadDefinitions reads the definitions file: the one given on the command
// line, or one found next to a datasource.
func (m *maker) loadDefinitions(sources []string) map[string]string {
	path := m.env.DefinitionsPath
	if path == "" {
		if found, ok := datasource.FindDefinitions(sources); ok {
			path = found
			m.d.UsingFoundDefinitions(path)
		}
	}
	if path == "" {
		return make(map[string]string)
	}

	definitions, err := datasource.Definitions(path, m.env.CodePage)
	if err != nil {
		m.d.BadDefinitionsFile(path)
		return make(map[string]string)
	}
	return definitions
}

// generateSource renders every card of one datasource.
func (m *maker) generateSource(set *datasource.Set, src string) {
	ctx := diag.Context{Name: filepath.Base(src)}

	table, err := set.Open(src)
	if err != nil {
		m.d.BadDataPath(ctx, src)
		return
	}
	if invalid := datasource.InvalidColumns(table.Columns); len(invalid) > 0 {
		m.d.InvalidColumns(ctx, invalid)
		return
	}

	size := m.cardSize(ctx, table)
	m.usedSizes[size.Style] = true

	backs := table.HasColumn(datasource.ColumnTemplateBack)
	if backs {
		if m.env.DisableBacks {
			backs = false
		} else {
			m.d.AssumeBacks(ctx)
		}
	} else {
		m.d.NoBacks(ctx)
	}

	if !table.HasColumn(datasource.ColumnTemplate) && m.env.DisableAuto {
		m.d.MissingDefaultTemplate(ctx)
	}

	emptyBack := template.SizedCard(cardTemplate, size.Style, "")
	m.pg.SetGrid(size.GridOn(template.PageSize()), backs, emptyBack)

	// built on first use, every row of the source shares it
	var auto *cachedTemplate

	for _, row := range table.Rows() {
		ctx := diag.Context{Name: filepath.Base(src), Row: row.Index}

		if row.Skip {
			m.d.CardSkipped(ctx)
			continue
		}
		count, ok := row.Count()
		if !ok {
			m.d.IndeterminableCount(ctx)
			continue
		}
		if threshold := m.env.Cfg.Document.CountConfirmThreshold; threshold > 0 && count > threshold {
			if !m.d.ProceedWithHighCount(ctx, count) {
				continue
			}
		}
		if m.env.Preview && count > 1 {
			m.d.PreviewEnabled()
			count = 1
		}
		if count == 0 {
			continue
		}

		m.cardsUnique++
		front, errorCard := m.frontTemplate(ctx, table, row, src, &auto)
		back, backOK := m.backTemplate(ctx, table, row, src, backs)

		for copy := 0; copy < count; copy++ {
			m.cardsRendered++
			ctx := diag.Context{Name: filepath.Base(src), Row: row.Index, Card: m.cardsUnique, Copy: copy + 1}

			content, data := m.renderer.FillCardFront(front, row, m.cardsRendered, m.cardsUnique)
			m.record(src, data)
			if !errorCard {
				if len(data.UnknownFields) > 0 {
					m.d.UnknownFields(ctx, data.UnknownFields, false)
				}
				if len(data.UnusedFields) > 0 {
					m.d.UnusedColumns(ctx, data.UnusedFields, false)
				}
			}
			card := template.SizedCard(cardTemplate, size.Style, content)

			backCard := emptyBack
			if backs {
				content, data := m.renderer.FillCardBack(back, row, m.cardsRendered, m.cardsUnique)
				m.record(src, data)
				if backOK && len(data.UnknownFields) > 0 {
					m.d.UnknownFields(ctx, data.UnknownFields, true)
				}
				backCard = template.SizedCard(cardTemplate, size.Style, content)
			}

			m.pg.Add(card, backCard)
		}
	}

	if m.env.ForcePageBreaks {
		m.pg.Flush()
	}
}

// cardSize resolves the size for one datasource: the '@template:size' header
// annotation wins, then the --size option, then standard.
func (m *maker) cardSize(ctx diag.Context, table *datasource.Table) template.CardSize {
	id := table.SizeID
	if id == "" {
		id = m.env.CardSizeID
	}
	if id == "" {
		return template.DefaultSize()
	}
	size, ok := template.SizeNamed(id)
	if !ok {
		m.d.BadCardSize(ctx, id)
		return template.DefaultSize()
	}
	return size
}

// frontTemplate determines the template for the front of a card: the resolved
// '@template' column, an auto-template built from the datasource columns, or
// an error card when neither works out. An error card suppresses the
// unknown/unused diagnostics its placeholder fields would otherwise trigger.
func (m *maker) frontTemplate(ctx diag.Context, table *datasource.Table, row datasource.Row, src string, auto **cachedTemplate) (template.Template, bool) {
	path := ""
	if table.HasColumn(datasource.ColumnTemplate) {
		value, res := m.resolver.ColumnContent(datasource.ColumnTemplate, row)
		m.mergeReferenced(res.DefinitionReferences)
		path = strings.TrimSpace(value)
	}

	if path != "" {
		tpl, found, actual := template.TemplateFromPath(path, src)
		if !found {
			m.d.BadTemplatePath(ctx, actual, false)
			return template.Template{Content: errorNotOpened, Path: actual}, true
		}
		if tpl.Content == "" {
			m.d.EmptyTemplate(ctx, actual, false)
		} else {
			return m.stripped(tpl).tpl, false
		}
	}

	if !m.env.DisableAuto {
		if *auto == nil {
			cached := m.stripped(template.AutoTemplate(table.Columns, table.Rows()))
			*auto = &cached
		}
		if path == "" {
			m.d.UsingAutoTemplate(ctx)
		}
		return (*auto).tpl, false
	}

	m.d.MissingTemplate(ctx)
	return template.Template{Content: errorNotProvided, Path: "error/not_provided"}, true
}

// backTemplate resolves the '@template-back' column. ok reports whether the
// card back should produce field diagnostics, which error backs do not.
func (m *maker) backTemplate(ctx diag.Context, table *datasource.Table, row datasource.Row, src string, backs bool) (template.Template, bool) {
	if !backs {
		return template.Template{}, false
	}

	value, res := m.resolver.ColumnContent(datasource.ColumnTemplateBack, row)
	m.mergeReferenced(res.DefinitionReferences)

	path := strings.TrimSpace(value)
	if path == "" {
		return template.Template{}, true
	}

	tpl, found, actual := template.TemplateFromPath(path, src)
	if !found {
		m.d.BadTemplatePath(ctx, actual, true)
		return template.Template{Content: errorNotOpened, Path: actual}, false
	}
	if tpl.Content == "" {
		m.d.EmptyTemplate(ctx, actual, true)
		return template.Template{}, true
	}
	return m.stripped(tpl).tpl, true
}

// stripped returns a template with its <style> blocks removed, collecting the
// styles for the document head. Cached per path.
func (m *maker) stripped(tpl template.Template) cachedTemplate {
	if cached, ok := m.templates[tpl.Path]; ok {
		return cached
	}

	styles := template.StripStyles(&tpl, m.d)
	cached := cachedTemplate{tpl: tpl, styles: styles}
	m.templates[tpl.Path] = cached

	if styles != "" && !m.styled[tpl.Path] {
		m.styled[tpl.Path] = true
		m.styles = append(m.styles, styles)
	}
	return cached
}

func (m *maker) record(src string, data template.RenderData) {
	m.mergeReferenced(data.ReferencedDefinitions)
	for _, path := range data.ImagePaths {
		m.resources = append(m.resources, resourceRef{
			context: filepath.Base(src),
			dir:     filepath.Dir(src),
			path:    path,
		})
	}
}

func (m *maker) mergeReferenced(definitions map[string]bool) {
	for name := range definitions {
		m.referenced[name] = true
	}
}

// writeDocument fills the index template and writes the final document.
func (m *maker) writeDocument(sources []string) error {
	index, imagePaths, referenced := m.renderer.FillIndex(indexTemplate, template.IndexData{
		Pages:      strings.Join(m.pg.Pages(), "\n"),
		Styles:     strings.Join(m.styles, "\n"),
		CardsTotal: m.pg.CardsTotal(),
		PagesTotal: m.pg.PagesTotal(),
	})
	m.mergeReferenced(referenced)

	if len(sources) > 0 {
		for _, path := range imagePaths {
			m.resources = append(m.resources, resourceRef{
				context: "index",
				dir:     filepath.Dir(sources[0]),
				path:    path,
			})
		}
	}

	m.reportUnusedDefinitions()

	values := outputValues{
		Title:       m.definitions[template.FieldTitle],
		Description: m.definitions[template.FieldDescription],
		Version:     m.definitions[template.FieldVersion],
		CardsTotal:  m.pg.CardsTotal(),
		PagesTotal:  m.pg.PagesTotal(),
	}
	if len(sources) > 0 {
		base := filepath.Base(sources[0])
		values.SourceFile = strings.TrimSuffix(base, filepath.Ext(base))
	}

	name := buildOutputName(values, m.env)
	path := filepath.Join(m.generatedDir, name)
	if err := writeOutputFile(path, []byte(index), m.env.Overwrite); err != nil {
		return err
	}
	m.log.Info("Document written", zap.String("path", path))

	// keep generation result for debugging
	if m.env.Rpt != nil {
		m.env.Rpt.Store("result-"+name, path)
	}
	return nil
}

// documentFields may be defined purely for the document metadata and do not
// count as unused when no card references them.
var documentFields = []string{
	template.FieldTitle,
	template.FieldDescription,
	template.FieldCopyright,
	template.FieldAuthor,
	template.FieldVersion,
}

func (m *maker) reportUnusedDefinitions() {
	skip := make(map[string]bool, len(documentFields))
	for _, name := range documentFields {
		skip[name] = true
	}

	var unused []string
	for name := range m.definitions {
		if !m.referenced[name] && !skip[name] {
			unused = append(unused, name)
		}
	}
	if len(unused) == 0 {
		return
	}
	sort.Sort(natural.StringSlice(unused))
	m.d.UnusedDefinitions(unused)
}

// writeStylesheets writes the card and index stylesheets: the built-in card
// styles, or the configured custom stylesheet with its url() references
// redirected at the copied resources.
func (m *maker) writeStylesheets() {
	cssDir := filepath.Join(m.generatedDir, CSSDirName)
	cards := cardsCSS

	if path := m.env.Cfg.Document.StylesheetPath; path != "" {
		if custom := m.customStylesheet(path); custom != nil {
			cards = custom
		}
	}

	if err := writeOutputFile(filepath.Join(cssDir, "cards.css"), cards, true); err != nil {
		m.log.Warn("Unable to write stylesheet", zap.Error(err))
	}
	if err := writeOutputFile(filepath.Join(cssDir, "index.css"), indexCSS, true); err != nil {
		m.log.Warn("Unable to write stylesheet", zap.Error(err))
	}
}

// customStylesheet loads a configured stylesheet, verifies that it defines
// the card size classes in use, queues its url() references for copying and
// returns it with those references rewritten.
func (m *maker) customStylesheet(path string) []byte {
	data, err := os.ReadFile(path)
	if err != nil {
		m.log.Warn("Unable to read configured stylesheet, using the built-in one",
			zap.String("path", path), zap.Error(err))
		return nil
	}

	ctx := diag.Context{Name: filepath.Base(path)}
	parser := css.NewParser(m.log)

	sheet := parser.Parse(data, path)
	for _, class := range m.requiredClasses() {
		if !sheet.HasClass(class) {
			m.d.MissingStyleClass(diag.Context{}, class, filepath.Base(path))
		}
	}

	// the stylesheet lives in css/, copied resources in res/
	rewritten, refs := parser.RewriteURLs(data, func(p string) string {
		return "../" + template.ResourcePath(p)
	})
	for _, ref := range refs {
		m.resources = append(m.resources, resourceRef{
			context: ctx.Name,
			dir:     filepath.Dir(path),
			path:    ref,
		})
	}

	// imported sheets are carried over next to cards.css, untouched
	for _, imported := range sheet.Imports {
		if !localPath(imported) {
			continue
		}
		src := filepath.Join(filepath.Dir(path), imported)
		imports, err := os.ReadFile(src)
		if err != nil {
			m.log.Warn("Unable to read imported stylesheet", zap.String("path", src), zap.Error(err))
			continue
		}
		dest := filepath.Join(m.generatedDir, CSSDirName, filepath.Base(imported))
		if err := writeOutputFile(dest, imports, true); err != nil {
			m.log.Warn("Unable to write imported stylesheet", zap.Error(err))
		}
	}

	return rewritten
}

func localPath(path string) bool {
	return path != "" && !strings.Contains(path, "://") && !strings.HasPrefix(path, "data:")
}

// requiredClasses lists the classes the base templates expect a stylesheet to
// define, limited to the card sizes actually in use.
func (m *maker) requiredClasses() []string {
	classes := []string{"page", "cards", "card", "card-content"}
	var sizes []string
	for style := range m.usedSizes {
		sizes = append(sizes, style)
	}
	sort.Strings(sizes)
	return append(classes, sizes...)
}

func (m *maker) copyResources() {
	for _, ref := range m.resources {
		m.copier.Copy(ref)
	}
	m.copier.ReportUnused()
}
