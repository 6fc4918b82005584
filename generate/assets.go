package generate

import _ "embed"

// The base assets every generated document is built from. A custom
// stylesheet from the configuration replaces cards.css; everything else is
// fixed.
var (
	//go:embed base/card.html
	cardTemplate string

	//go:embed base/page.html
	pageTemplate string

	//go:embed base/index.html
	indexTemplate string

	//go:embed base/error/not_opened.html
	errorNotOpened string

	//go:embed base/error/not_provided.html
	errorNotProvided string

	//go:embed base/css/cards.css
	cardsCSS []byte

	//go:embed base/css/index.css
	indexCSS []byte
)
