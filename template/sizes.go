package template

import "math"

// CardSize describes one of the supported physical card sizes: its CSS class
// and its dimensions in inches.
type CardSize struct {
	Identifier string
	Style      string
	Width      float64
	Height     float64
}

var cardSizes = []CardSize{
	{"token", "card-size-075x075", 0.75, 0.75},
	{"standard", "card-size-25x35", 2.5, 3.5},
	{"square", "card-size-25x25", 2.5, 2.5},
	{"lsquare", "card-size-35x35", 3.5, 3.5},
	{"standard-landscape", "card-size-35x25", 3.5, 2.5},
	{"jumbo", "card-size-35x55", 3.5, 5.5},
	{"domino", "card-size-175x35", 1.75, 3.5},
	{"page", "card-size-page", 7.5, 10.5},
}

// SizeNamed returns the card size matching an identifier.
func SizeNamed(identifier string) (CardSize, bool) {
	for _, s := range cardSizes {
		if s.Identifier == identifier {
			return s, true
		}
	}
	return CardSize{}, false
}

// DefaultSize returns the default card size: standard (2.5x3.5 inches).
func DefaultSize() CardSize {
	s, _ := SizeNamed("standard")
	return s
}

// PageSize returns the usable page area: 7.5x10.5 inches.
func PageSize() CardSize {
	s, _ := SizeNamed("page")
	return s
}

// Grid is the card layout of a page for one size class.
type Grid struct {
	Columns int
	Rows    int
}

// Capacity is the number of cards that fit on one page.
func (g Grid) Capacity() int {
	return g.Columns * g.Rows
}

// GridOn computes how many cards of this size fit on a page.
func (s CardSize) GridOn(page CardSize) Grid {
	return Grid{
		Columns: int(math.Floor(page.Width / s.Width)),
		Rows:    int(math.Floor(page.Height / s.Height)),
	}
}
