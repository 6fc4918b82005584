// Package layout distributes rendered cards onto pages. Card backs get
// pages of their own, laid out mirrored so that duplex printing lines every
// back up with its front.
package layout

import (
	"strconv"
	"strings"

	"cardgen/field"
	"cardgen/template"
)

// Paginator accumulates rendered cards and emits filled page markup whenever
// a page worth of cards is complete. When backs are enabled every page of
// fronts is followed by a page of backs.
type Paginator struct {
	pageTemplate string

	grid      template.Grid
	withBacks bool
	emptyBack string

	fronts  []string
	backs   []string
	backRow []string

	pages      []string
	cardsTotal int
}

func NewPaginator(pageTemplate string) *Paginator {
	return &Paginator{pageTemplate: pageTemplate}
}

// SetGrid reconfigures the page layout, flushing any pending cards first
// since cards of different sizes cannot share a page. The empty back fills
// the unmatched slots of an incomplete final row.
func (p *Paginator) SetGrid(grid template.Grid, withBacks bool, emptyBack string) {
	if p.grid != grid || p.withBacks != withBacks {
		p.Flush()
	}
	p.grid = grid
	p.withBacks = withBacks
	p.emptyBack = emptyBack
}

// Add appends a card to the current page, emitting completed pages as a side
// effect. The back is ignored unless backs are enabled.
func (p *Paginator) Add(front, back string) {
	p.fronts = append(p.fronts, front)
	p.cardsTotal++

	if p.withBacks {
		// backs mirror within their row, last front first
		p.backRow = append([]string{back}, p.backRow...)
		if len(p.fronts)%p.grid.Columns == 0 {
			p.backs = append(p.backs, p.backRow...)
			p.backRow = nil
		}
	}

	if len(p.fronts) == p.grid.Capacity() {
		p.Flush()
	}
}

// Flush emits the pending cards as a page, plus the matching page of backs
// when enabled. Flushing with no pending cards does nothing.
func (p *Paginator) Flush() {
	if len(p.fronts) == 0 {
		return
	}

	if p.withBacks {
		if len(p.backRow) > 0 {
			// mirroring puts the filler slots at the front of the row
			missing := p.grid.Columns - len(p.backRow)
			row := make([]string, 0, p.grid.Columns)
			for i := 0; i < missing; i++ {
				row = append(row, p.emptyBack)
			}
			p.backs = append(p.backs, append(row, p.backRow...)...)
			p.backRow = nil
		}
		p.emit(p.fronts)
		p.emit(p.backs)
		p.backs = nil
	} else {
		p.emit(p.fronts)
	}
	p.fronts = nil
}

func (p *Paginator) emit(cards []string) {
	page, _ := field.Fill(template.FieldPageNumber, strconv.Itoa(len(p.pages)+1), p.pageTemplate)
	page, _ = field.FillIndented(template.FieldCards, strings.Join(cards, "\n"), page)
	p.pages = append(p.pages, page)
}

// Pages returns the emitted pages, in order.
func (p *Paginator) Pages() []string {
	return p.pages
}

func (p *Paginator) PagesTotal() int {
	return len(p.pages)
}

// CardsTotal returns the number of cards added, not counting filler backs.
func (p *Paginator) CardsTotal() int {
	return p.cardsTotal
}
