package diag

import "fmt"

// Context pins a diagnostic to its origin: the datasource (or definitions
// file) it came from and, when known, the row, card and copy being processed.
// Zero values mean "not applicable".
type Context struct {
	Name string
	Row  int // spreadsheet row index, header is row 1 so data starts at 2
	Card int // 1-based card number on the current sheet
	Copy int // 1-based copy number for cards with a count above 1
}

func (c Context) String() string {
	if c.Name == "" {
		return ""
	}
	switch {
	case c.Row > 0 && c.Card > 0 && c.Copy > 0:
		return fmt.Sprintf("[%s:#%d.%d~%d]", c.Name, c.Row, c.Copy, c.Card)
	case c.Row > 0 && c.Card > 0:
		return fmt.Sprintf("[%s:#%d~%d]", c.Name, c.Row, c.Card)
	case c.Row > 0:
		return fmt.Sprintf("[%s:#%d]", c.Name, c.Row)
	default:
		return fmt.Sprintf("[%s]", c.Name)
	}
}
