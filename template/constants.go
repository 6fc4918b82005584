package template

// Reserved template field names. The system fields are required by the base
// card/page/index templates; the rest are optional conveniences for card
// authors.
const (
	FieldPages       = "_pages"
	FieldPageNumber  = "_page_number"
	FieldPagesTotal  = "_pages_total"
	FieldCards       = "_cards"
	FieldCardSize    = "_card_size"
	FieldCardContent = "_card_content"

	FieldCardIndex        = "_card_index"
	FieldCardCopyIndex    = "_card_copy_index"
	FieldCardRowIndex     = "_card_row_index"
	FieldCardTemplatePath = "_card_template_path"
	FieldCardsTotal       = "_cards_total"

	FieldInclude = "include"
	FieldInline  = "inline"
	FieldDate    = "date"

	FieldVersion        = "_version"
	FieldProgramVersion = "_program_version"
	FieldTitle          = "_title"
	FieldDescription    = "_description"
	FieldCopyright      = "_copyright"
	FieldAuthor         = "_author"

	FieldStyles     = "_styles"
	FieldIndexTitle = "__title"
)

// CopyOnly marks an image field whose file should be copied to the output
// directory without being turned into an <img> tag.
const CopyOnly = "@copy-only"
