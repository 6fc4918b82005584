// Package diag collects and displays the warnings, errors and notices
// produced while generating card sheets. Messages are de-duplicated by their
// exact text so that a problem occurring on every copy of a card is reported
// once, while warning and error counters still reflect every occurrence.
package diag

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// Display routes diagnostics to the program log. Warnings are suppressed
// unless verbose mode is enabled; errors and notices are always shown.
type Display struct {
	log     *zap.Logger
	verbose bool

	seen     map[string]int
	warnings int
	errors   int

	// Confirm asks the operator a yes/no question. Replaceable for tests;
	// the default prompts on the terminal and accepts when there is none.
	Confirm func(message string) bool
}

func New(log *zap.Logger, verbose bool) *Display {
	return &Display{
		log:     log,
		verbose: verbose,
		seen:    make(map[string]int),
		Confirm: askOnTerminal,
	}
}

func askOnTerminal(message string) bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		// nobody to ask
		return true
	}
	proceed := true
	if err := survey.AskOne(&survey.Confirm{Message: message, Default: true}, &proceed); err != nil {
		return true
	}
	return proceed
}

// Warnings returns the number of warnings encountered, counting duplicates.
func (d *Display) Warnings() int {
	return d.warnings
}

// Errors returns the number of errors encountered, counting duplicates.
func (d *Display) Errors() int {
	return d.errors
}

func (d *Display) HasWarnings() bool {
	return d.warnings > 0
}

func (d *Display) HasErrors() bool {
	return d.errors > 0
}

// Warn reports a recoverable problem. Shown only in verbose mode.
func (d *Display) Warn(ctx Context, message string) {
	d.warnings++
	if !d.verbose {
		return
	}
	if msg, first := d.dedup(ctx, message); first {
		d.log.Warn(msg)
	}
}

// Error reports a problem that affects the generated output. Always shown.
func (d *Display) Error(ctx Context, message string) {
	d.errors++
	if msg, first := d.dedup(ctx, message); first {
		d.log.Error(msg)
	}
}

// Info reports a notice. Always shown.
func (d *Display) Info(ctx Context, message string) {
	if msg, first := d.dedup(ctx, message); first {
		d.log.Info(msg)
	}
}

func (d *Display) dedup(ctx Context, message string) (string, bool) {
	if c := ctx.String(); c != "" {
		message = c + " " + message
	}
	d.seen[message]++
	return message, d.seen[message] == 1
}

// previewLimit caps reference content shown inside diagnostic messages.
const previewLimit = 18

func preview(content string) string {
	if len([]rune(content)) < previewLimit {
		return content
	}
	return string([]rune(content)[:previewLimit]) + "…"
}

func (d *Display) AmbiguousColumnUsed(ctx Context, reference, result string) {
	d.Warn(ctx, fmt.Sprintf("A reference named '%s' could refer to both a column or a definition. "+
		"The column data '%s' was used.", reference, preview(result)))
}

func (d *Display) AmbiguousDefinitionUsed(ctx Context, reference, result string) {
	d.Warn(ctx, fmt.Sprintf("A reference named '%s' could refer to both a column or a definition. "+
		"The definition data '%s' was used.", reference, preview(result)))
}

func (d *Display) UnresolvedReference(ctx Context, reference string) {
	d.Warn(ctx, fmt.Sprintf("A reference named '%s' could not be resolved.", reference))
}

func (d *Display) InfiniteColumnReference(ctx Context, reference string) {
	d.Warn(ctx, fmt.Sprintf("A reference named '%s' was not resolved: "+
		"it refers to the column being resolved.", reference))
}

func (d *Display) InfiniteDefinitionReference(ctx Context, reference string) {
	d.Warn(ctx, fmt.Sprintf("A reference named '%s' was not resolved: "+
		"the definition refers to itself.", reference))
}

func (d *Display) UnknownSize(ctx Context, size string) {
	d.Warn(ctx, fmt.Sprintf("The size specification '%s' has not been defined. "+
		"Image might not display as expected.", size))
}

func (d *Display) InvalidWidth(ctx Context, width int) {
	d.Warn(ctx, fmt.Sprintf("An image cannot have a width of '%d'. "+
		"Image will be shown at its intrinsic size.", width))
}

func (d *Display) InvalidHeight(ctx Context, height int) {
	d.Warn(ctx, fmt.Sprintf("An image cannot have a height of '%d'. "+
		"Image will be shown at its intrinsic size.", height))
}

func (d *Display) UnresolvedImageReference(reference, closest string) {
	d.Error(Context{}, fmt.Sprintf("An image reference could not be resolved: '%s'. "+
		"Was it supposed to be: '%s'?", reference, closest))
}

func (d *Display) IncludedFileNotFound(ctx Context, path string) {
	d.Error(ctx, fmt.Sprintf("An included file was not found: '%s'", path))
}

func (d *Display) IncludeShouldSpecifyFile(ctx Context, inline bool) {
	kind := "Include"
	if inline {
		kind = "Inline"
	}
	d.Warn(ctx, fmt.Sprintf("%s fields should specify a file path.", kind))
}

func (d *Display) PreviewEnabled() {
	d.Info(Context{}, "Preview is enabled. Only 1 of each card will be rendered.")
}

func (d *Display) ImageNotCopied(ctx Context, path string) {
	d.Warn(ctx, fmt.Sprintf("An image was not copied to the output directory: '%s'", path))
}

func (d *Display) MissingImage(ctx Context, path string) {
	d.Error(ctx, fmt.Sprintf("One or more cards contain an image reference that does not exist: '%s'", path))
}

func (d *Display) NotAnImage(ctx Context, path string) {
	d.Warn(ctx, fmt.Sprintf("A copied resource does not look like an image: '%s'", path))
}

func (d *Display) BadDefinitionsFile(path string) {
	d.Error(Context{}, fmt.Sprintf("No definitions file was found at: '%s'", path))
}

func (d *Display) UsingFoundDefinitions(path string) {
	d.Info(Context{}, fmt.Sprintf("No definitions have been specified. "+
		"Using definitions automatically found at: '%s'", path))
}

func (d *Display) AssumeBacks(ctx Context) {
	d.Info(ctx, "Card backs will be generated since the '@template-back' column has been set. "+
		"You can disable card backs by specifying the --disable-backs option.")
}

func (d *Display) NoBacks(ctx Context) {
	d.Info(ctx, "Card backs will not be generated since the '@template-back' column has not been set.")
}

func (d *Display) IndeterminableCount(ctx Context) {
	d.Warn(ctx, "The card provided an indeterminable count and was skipped.")
}

func (d *Display) MissingDefaultTemplate(ctx Context) {
	d.Warn(ctx, "A template was not provided and auto-templating is not enabled. "+
		"Cards will not be generated correctly.")
}

func (d *Display) MissingTemplate(ctx Context) {
	d.Error(ctx, "The card did not provide a template.")
}

func (d *Display) EmptyTemplate(ctx Context, path string, back bool) {
	if back {
		d.Warn(ctx, fmt.Sprintf("The card provided a back template that appears to be empty: '%s'.", path))
		return
	}
	d.Warn(ctx, fmt.Sprintf("The card provided a template that appears to be empty: '%s'. "+
		"The card will use an auto-template instead, if possible.", path))
}

func (d *Display) UsingAutoTemplate(ctx Context) {
	d.Warn(ctx, "The card did not provide a template. The card will use an auto-template instead.")
}

func (d *Display) UnknownFields(ctx Context, fields []string, back bool) {
	side := "template"
	if back {
		side = "back template"
	}
	if len(fields) == 1 {
		d.Warn(ctx, fmt.Sprintf("The %s contains a field that is not present for this card: '%s'", side, fields[0]))
		return
	}
	d.Warn(ctx, fmt.Sprintf("The %s contains fields that are not present for this card: %v", side, fields))
}

func (d *Display) UnusedColumns(ctx Context, columns []string, back bool) {
	side := "card"
	if back {
		side = "card back"
	}
	if len(columns) == 1 {
		d.Warn(ctx, fmt.Sprintf("The %s has an unused column: '%s'", side, columns[0]))
		return
	}
	d.Warn(ctx, fmt.Sprintf("The %s has unused columns: %v", side, columns))
}

func (d *Display) UnusedDefinitions(definitions []string) {
	if len(definitions) == 1 {
		d.Warn(Context{}, fmt.Sprintf("You have a definition that seems to be unused: '%s'", definitions[0]))
		return
	}
	d.Warn(Context{}, fmt.Sprintf("You have definitions that seem to be unused: %v", definitions))
}

func (d *Display) UnusedResources(resources []string, dir string) {
	d.Warn(Context{}, fmt.Sprintf("Unused resources were found in output directory (%s): %v", dir, resources))
}

func (d *Display) ResourceOverwritten(ctx Context, resource, source string) {
	d.Warn(ctx, fmt.Sprintf("The resource '%s' was overwritten by '%s'", resource, source))
}

func (d *Display) InvalidColumns(ctx Context, columns []string) {
	if len(columns) == 1 {
		d.Error(ctx, fmt.Sprintf("Skipping datasource. A column name is invalid: %s", columns[0]))
		return
	}
	d.Error(ctx, fmt.Sprintf("Skipping datasource. Some column names are invalid: %v", columns))
}

func (d *Display) BadDataPath(ctx Context, path string) {
	d.Error(ctx, fmt.Sprintf("The datasource could not be found at: '%s'", path))
}

func (d *Display) BadTemplatePath(ctx Context, path string, back bool) {
	if back {
		d.Error(ctx, fmt.Sprintf("The card provided a back template that could not be opened: '%s'", path))
		return
	}
	d.Error(ctx, fmt.Sprintf("The card provided a template that could not be opened: '%s'", path))
}

func (d *Display) BadCardSize(ctx Context, size string) {
	d.Warn(ctx, fmt.Sprintf("The card size '%s' is invalid. Defaulting to 'standard'.", size))
}

func (d *Display) CardSkipped(ctx Context) {
	d.Info(ctx, "The card was skipped.")
}

func (d *Display) FieldsInStyles(ctx Context, fields []string) {
	d.Warn(ctx, fmt.Sprintf("The template styles contain fields that will not be filled: %v", fields))
}

func (d *Display) MissingStyleClass(ctx Context, class, stylesheet string) {
	d.Warn(ctx, fmt.Sprintf("The stylesheet '%s' does not define the '%s' class. "+
		"Cards may not display as expected.", stylesheet, class))
}

// ProceedWithHighCount warns about an unusually high card count and asks the
// operator whether generation of that card should continue.
func (d *Display) ProceedWithHighCount(ctx Context, count int) bool {
	d.Warn(ctx, fmt.Sprintf("The card has specified a high count: %d. "+
		"Are you sure you want to continue?", count))
	return d.Confirm(fmt.Sprintf("%s The card has specified a high count: %d. Continue?", ctx, count))
}
