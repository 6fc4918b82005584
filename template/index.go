package template

import (
	"fmt"

	"cardgen/field"
	"cardgen/misc"
)

// IndexData is what the document template needs beyond the rendered pages.
type IndexData struct {
	Pages      string
	Styles     string
	CardsTotal int
	PagesTotal int
}

// FillIndex renders the final document: the collected pages and styles go
// into the index template, the document metadata definitions are applied and
// any definition, date or image fields of the index itself are filled. The
// definitions and image paths consumed are returned for the unused report
// and the resource copy step.
func (rn *Renderer) FillIndex(index string, data IndexData) (string, []string, map[string]bool) {
	index, _ = field.FillIndented(FieldStyles, data.Styles, index)
	index, _ = field.FillIndented(FieldPages, data.Pages, index)
	index, _ = field.Fill(FieldCardsTotal, fmt.Sprintf("%d", data.CardsTotal), index)
	index, _ = field.Fill(FieldPagesTotal, fmt.Sprintf("%d", data.PagesTotal), index)
	index, _ = field.Fill(FieldProgramVersion, misc.GetVersion(), index)

	referenced := make(map[string]bool)

	// the document title falls back to a summary when not defined
	title, ok := rn.Resolver.Definitions[FieldTitle]
	if !ok || title == "" {
		title = fmt.Sprintf("%d cards on %d pages", data.CardsTotal, data.PagesTotal)
		if data.CardsTotal == 0 {
			title = "Nothing to see here"
		}
	} else {
		referenced[FieldTitle] = true
	}
	index, _ = field.Fill(FieldIndexTitle, title, index)

	for _, name := range []string{FieldTitle, FieldDescription, FieldCopyright, FieldAuthor, FieldVersion} {
		value, res := rn.Resolver.DefinitionContent(name)
		var occurrences int
		index, occurrences = field.Fill(name, value, index)
		if occurrences > 0 && value != "" {
			referenced[name] = true
			for dep := range res.DefinitionReferences {
				referenced[dep] = true
			}
		}
	}

	index = rn.FillDates(index)

	var definitions map[string]bool
	index, definitions = rn.FillDefinitions(index)
	for name := range definitions {
		referenced[name] = true
	}

	var paths []string
	var imageDefinitions map[string]bool
	index, paths, imageDefinitions = rn.FillImageFields(index)
	for name := range imageDefinitions {
		referenced[name] = true
	}

	return index, paths, referenced
}
