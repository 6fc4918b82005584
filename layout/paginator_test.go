package layout

import (
	"fmt"
	"strings"
	"testing"

	"cardgen/template"
)

const pageTemplate = "<page {{ _page_number }}>\n{{ _cards }}\n</page>"

func grid3x3() template.Grid {
	return template.Grid{Columns: 3, Rows: 3}
}

func TestPaginationWithoutBacks(t *testing.T) {
	p := NewPaginator(pageTemplate)
	p.SetGrid(grid3x3(), false, "")

	for i := 1; i <= 10; i++ {
		p.Add(fmt.Sprintf("f%d", i), "")
	}
	p.Flush()

	if p.PagesTotal() != 2 {
		t.Fatalf("pages = %d, want 2", p.PagesTotal())
	}
	if p.CardsTotal() != 10 {
		t.Errorf("cards = %d, want 10", p.CardsTotal())
	}

	pages := p.Pages()
	if want := "<page 1>\nf1\nf2\nf3\nf4\nf5\nf6\nf7\nf8\nf9\n</page>"; pages[0] != want {
		t.Errorf("page 1 = %q, want %q", pages[0], want)
	}
	if want := "<page 2>\nf10\n</page>"; pages[1] != want {
		t.Errorf("page 2 = %q, want %q", pages[1], want)
	}
}

func TestPaginationWithBacks(t *testing.T) {
	p := NewPaginator(pageTemplate)
	p.SetGrid(grid3x3(), true, "blank")

	for i := 1; i <= 10; i++ {
		p.Add(fmt.Sprintf("f%d", i), fmt.Sprintf("b%d", i))
	}
	p.Flush()

	// 10 cards on a 3x3 grid: fronts, backs, fronts, backs
	if p.PagesTotal() != 4 {
		t.Fatalf("pages = %d, want 4", p.PagesTotal())
	}
	if p.CardsTotal() != 10 {
		t.Errorf("cards = %d, want 10", p.CardsTotal())
	}

	pages := p.Pages()

	// rows of backs are mirrored so duplex printing lines them up
	if want := "<page 2>\nb3\nb2\nb1\nb6\nb5\nb4\nb9\nb8\nb7\n</page>"; pages[1] != want {
		t.Errorf("backs page = %q, want %q", pages[1], want)
	}

	// the final row has a single card, its back sits in the last slot with
	// blank filler ahead of it
	if want := "<page 4>\nblank\nblank\nb10\n</page>"; pages[3] != want {
		t.Errorf("final backs page = %q, want %q", pages[3], want)
	}
}

func TestPaginationSizeChangeFlushes(t *testing.T) {
	p := NewPaginator(pageTemplate)
	p.SetGrid(grid3x3(), false, "")

	p.Add("small", "")

	// switching layout must not mix card sizes on one page
	p.SetGrid(template.Grid{Columns: 2, Rows: 1}, false, "")
	p.Add("big1", "")
	p.Add("big2", "")
	p.Flush()

	if p.PagesTotal() != 2 {
		t.Fatalf("pages = %d, want 2", p.PagesTotal())
	}
	if !strings.Contains(p.Pages()[0], "small") {
		t.Errorf("page 1 should hold the card added before the size change")
	}
	if !strings.Contains(p.Pages()[1], "big1\nbig2") {
		t.Errorf("page 2 should hold the cards added after the size change")
	}
}

func TestPaginationIndentsCards(t *testing.T) {
	p := NewPaginator("<page>\n    {{ _cards }}\n</page>")
	p.SetGrid(template.Grid{Columns: 1, Rows: 2}, false, "")

	p.Add("c1", "")
	p.Add("c2", "")

	if want := "<page>\n    c1\n    c2\n</page>"; p.Pages()[0] != want {
		t.Errorf("got = %q, want %q", p.Pages()[0], want)
	}
}

func TestFlushWithNothingPending(t *testing.T) {
	p := NewPaginator(pageTemplate)
	p.SetGrid(grid3x3(), true, "blank")
	p.Flush()
	if p.PagesTotal() != 0 {
		t.Errorf("pages = %d, want 0", p.PagesTotal())
	}
}
