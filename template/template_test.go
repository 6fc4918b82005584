package template

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cardgen/datasource"
)

func newTestRenderer(defs map[string]string) *Renderer {
	r, d := newTestResolver(defs)
	rn := NewRenderer(r, d)
	rn.Now = func() time.Time {
		return time.Date(2026, time.July, 4, 12, 0, 0, 0, time.UTC)
	}
	return rn
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFillDates(t *testing.T) {
	rn := newTestRenderer(nil)

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"default layout", "as of {{ date }}", "as of July 4, 2026"},
		{"custom layout", "{{ date '2006-01-02' }}", "2026-07-04"},
		{"not a date field", "{{ dated }}", "{{ dated }}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rn.FillDates(tt.content); got != tt.want {
				t.Errorf("got = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFillEmpty(t *testing.T) {
	if got, want := FillEmpty("a {{}} b {{ }} c"), "a  b  c"; got != want {
		t.Errorf("got = %q, want %q", got, want)
	}
}

func TestFillIncludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "header.html", "<h1>Hi</h1>\n")
	writeFile(t, dir, "lines.html", "  <b>x</b>\n  <i>y</i>\n")
	writeFile(t, dir, "outer.html", "{{ include 'inner.html' }}")
	writeFile(t, dir, "inner.html", "deep")
	base := filepath.Join(dir, "card.html")

	rn := newTestRenderer(nil)

	t.Run("include is indented", func(t *testing.T) {
		got := rn.FillIncludes(base, "<div>\n    {{ include 'header.html' }}\n</div>")
		if want := "<div>\n    <h1>Hi</h1>\n</div>"; got != want {
			t.Errorf("got = %q, want %q", got, want)
		}
	})

	t.Run("inline collapses to one line", func(t *testing.T) {
		got := rn.FillIncludes(base, "{{ inline 'lines.html' }}")
		if want := "<b>x</b><i>y</i>"; got != want {
			t.Errorf("got = %q, want %q", got, want)
		}
	})

	t.Run("includes expand recursively", func(t *testing.T) {
		got := rn.FillIncludes(base, "{{ include 'outer.html' }}")
		if want := "deep"; got != want {
			t.Errorf("got = %q, want %q", got, want)
		}
	})

	t.Run("missing file leaves a note", func(t *testing.T) {
		rn := newTestRenderer(nil)
		got := rn.FillIncludes(base, "{{ include 'nope.html' }}")
		if want := "<strong>&lt;included file not found&gt;</strong>"; got != want {
			t.Errorf("got = %q, want %q", got, want)
		}
		if !rn.Diag.HasErrors() {
			t.Errorf("expected an error for the missing file")
		}
	})

	t.Run("missing path warns", func(t *testing.T) {
		rn := newTestRenderer(nil)
		got := rn.FillIncludes(base, "x {{ include }} y")
		if want := "x  y"; got != want {
			t.Errorf("got = %q, want %q", got, want)
		}
		if !rn.Diag.HasWarnings() {
			t.Errorf("expected a warning for the missing path")
		}
	})
}

func TestFillDefinitions(t *testing.T) {
	rn := newTestRenderer(map[string]string{
		"publisher": "ACME Games",
		"large":     "16x16",
	})

	t.Run("definite fields", func(t *testing.T) {
		got, referenced := rn.FillDefinitions("by {{ publisher }}")
		if want := "by ACME Games"; got != want {
			t.Errorf("got = %q, want %q", got, want)
		}
		if !referenced["publisher"] {
			t.Errorf("definition 'publisher' not marked referenced")
		}
	})

	t.Run("partial fields", func(t *testing.T) {
		got, referenced := rn.FillDefinitions("{{ icon.png large }}")
		if want := "{{ icon.png 16x16 }}"; got != want {
			t.Errorf("got = %q, want %q", got, want)
		}
		if !referenced["large"] {
			t.Errorf("definition 'large' not marked referenced")
		}
	})

	t.Run("unrelated names untouched", func(t *testing.T) {
		got, _ := rn.FillDefinitions("{{ largest }}")
		if want := "{{ largest }}"; got != want {
			t.Errorf("got = %q, want %q", got, want)
		}
	})
}

func TestFillTemplate(t *testing.T) {
	rn := newTestRenderer(nil)

	row := datasource.Row{
		Data: map[string]string{
			"title": "Hero",
			"body":  "see {{ note }}",
			"note":  "fine print",
		},
		Columns: []string{"title", "body", "note"},
		Path:    "deck.csv",
		Index:   2,
	}

	tpl := Template{
		Path: "card.html",
		Content: "<h1>{{ title }}</h1>\n" +
			"<p>{{ body }}</p>\n" +
			"{{ missing }} of {{ _cards_total }}",
	}

	content, data := rn.FillTemplate(tpl, row)

	if !strings.Contains(content, "<h1>Hero</h1>") {
		t.Errorf("title not filled: %q", content)
	}
	if !strings.Contains(content, "<p>see fine print</p>") {
		t.Errorf("body not resolved: %q", content)
	}
	if !strings.Contains(content, "{{ missing }}") {
		t.Errorf("unknown field should remain: %q", content)
	}

	if got, want := data.UnknownFields, []string{"missing"}; len(got) != 1 || got[0] != want[0] {
		t.Errorf("unknown fields = %v, want %v", got, want)
	}
	// 'note' never appears in the template itself but is consumed through
	// 'body', so it must not be reported unused
	if len(data.UnusedFields) != 0 {
		t.Errorf("unused fields = %v, want none", data.UnusedFields)
	}
}

func TestFillTemplateUnusedColumns(t *testing.T) {
	rn := newTestRenderer(nil)

	row := datasource.Row{
		Data:    map[string]string{"title": "Hero", "spare": "unused"},
		Columns: []string{"title", "spare"},
		Path:    "deck.csv",
		Index:   2,
	}
	tpl := Template{Path: "card.html", Content: "{{ title }}"}

	_, data := rn.FillTemplate(tpl, row)
	if len(data.UnusedFields) != 1 || data.UnusedFields[0] != "spare" {
		t.Errorf("unused fields = %v, want [spare]", data.UnusedFields)
	}
}

func TestFillCardFront(t *testing.T) {
	rn := newTestRenderer(nil)

	row := datasource.Row{
		Data:    map[string]string{"title": "Hero", "title@back-only": "Backside"},
		Columns: []string{"title", "title@back-only"},
		Path:    "deck.csv",
		Index:   4,
	}
	tpl := Template{
		Path:    "card.html",
		Content: "{{ title }} ({{ _card_index }}/{{ _card_copy_index }}) row {{ _card_row_index }}",
	}

	content, data := rn.FillCardFront(tpl, row, 7, 3)
	if want := "Hero (7/3) row 4"; content != want {
		t.Errorf("got = %q, want %q", content, want)
	}
	if len(data.UnknownFields) != 0 {
		t.Errorf("unknown fields = %v, want none", data.UnknownFields)
	}
}

func TestFillCardBack(t *testing.T) {
	rn := newTestRenderer(nil)

	row := datasource.Row{
		Data:    map[string]string{"title": "Hero", "title@back-only": "Backside"},
		Columns: []string{"title", "title@back-only"},
		Path:    "deck.csv",
		Index:   4,
	}
	tpl := Template{Path: "back.html", Content: "{{ title }}"}

	content, _ := rn.FillCardBack(tpl, row, 7, 3)
	if want := "Backside"; content != want {
		t.Errorf("got = %q, want %q", content, want)
	}
}

func TestStripStyles(t *testing.T) {
	rn := newTestRenderer(nil)

	tpl := Template{
		Path: "card.html",
		Content: "<style type=\"text/css\">\n.fancy { color: red; }\n</style>\n" +
			"<div class=\"fancy\">{{ title }}</div>",
	}

	styles := StripStyles(&tpl, rn.Diag)
	if !strings.Contains(styles, ".fancy { color: red; }") {
		t.Errorf("styles not extracted: %q", styles)
	}
	if strings.Contains(tpl.Content, "<style") {
		t.Errorf("styles not removed from template: %q", tpl.Content)
	}
	if want := "<div class=\"fancy\">{{ title }}</div>"; tpl.Content != want {
		t.Errorf("got = %q, want %q", tpl.Content, want)
	}
}

func TestStripStylesWarnsAboutFields(t *testing.T) {
	rn := newTestRenderer(nil)

	tpl := Template{
		Path:    "card.html",
		Content: "<style>.x { color: {{ ink }}; }</style><div></div>",
	}
	StripStyles(&tpl, rn.Diag)
	if !rn.Diag.HasWarnings() {
		t.Errorf("expected a warning about fields inside styles")
	}
}

func TestSizedCard(t *testing.T) {
	card := "<div class=\"card {{ _card_size }}\">\n    {{ _card_content }}\n</div>"
	got := SizedCard(card, "card-size-25x35", "<p>x</p>\n<p>y</p>")
	want := "<div class=\"card card-size-25x35\">\n    <p>x</p>\n    <p>y</p>\n</div>"
	if got != want {
		t.Errorf("got = %q, want %q", got, want)
	}
}

func TestTemplateFromPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "card.html", "  <div>{{ title }}</div>\n")
	data := filepath.Join(dir, "deck.csv")

	tpl, found, _ := TemplateFromPath("card.html", data)
	if !found {
		t.Fatalf("template not found")
	}
	if want := "<div>{{ title }}</div>"; tpl.Content != want {
		t.Errorf("got = %q, want %q", tpl.Content, want)
	}

	_, found, actual := TemplateFromPath("gone.html", data)
	if found {
		t.Fatalf("expected missing template")
	}
	if want := filepath.Join(dir, "gone.html"); actual != want {
		t.Errorf("got = %q, want %q", actual, want)
	}
}
