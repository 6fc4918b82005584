package field

import (
	"regexp"
	"testing"
)

func TestScan(t *testing.T) {
	text := "a {{ title }} b {{title #4}} c {{img.png 16x16}} d {{}}"

	got := Scan(text)
	want := []Field{
		{Name: "title", Context: "", InnerContent: "title"},
		{Name: "title", Context: "#4", InnerContent: "title #4"},
		{Name: "img.png", Context: "16x16", InnerContent: "img.png 16x16"},
	}
	if len(got) != len(want) {
		t.Fatalf("Scan() returned %d fields, want %d", len(got), len(want))
	}
	for i, f := range got {
		if f.Name != want[i].Name || f.Context != want[i].Context || f.InnerContent != want[i].InnerContent {
			t.Errorf("Scan()[%d] = %q/%q/%q, want %q/%q/%q",
				i, f.Name, f.Context, f.InnerContent,
				want[i].Name, want[i].Context, want[i].InnerContent)
		}
	}
	if got[0].Start != 2 || got[0].End != 13 {
		t.Errorf("Scan()[0] spans %d-%d, want 2-13", got[0].Start, got[0].End)
	}
}

func TestScanMultiline(t *testing.T) {
	got := Scan("{{ include\nheader.html }}")
	if len(got) != 1 {
		t.Fatalf("Scan() returned %d fields, want 1", len(got))
	}
	if got[0].Name != "include" || got[0].Context != "header.html" {
		t.Errorf("Scan()[0] = %q/%q, want %q/%q", got[0].Name, got[0].Context, "include", "header.html")
	}
}

func TestHasRowReference(t *testing.T) {
	f := Field{Name: "title", Context: "#6"}
	if !f.HasRowReference() {
		t.Errorf("HasRowReference() = false for context %q", f.Context)
	}
	f = Field{Name: "title", Context: "x"}
	if f.HasRowReference() {
		t.Errorf("HasRowReference() = true for context %q", f.Context)
	}
}

func TestFirst(t *testing.T) {
	text := "{{ date }} {{ include file.html }} {{ title }}"

	f, ok := First(text, Match{Name: regexp.MustCompile("include|inline")})
	if !ok || f.Name != "include" {
		t.Fatalf("First() = %q, %v, want include, true", f.Name, ok)
	}

	if _, ok := First(text, Match{Name: regexp.MustCompile("missing")}); ok {
		t.Error("First() matched a name that does not occur")
	}

	// either name or context may satisfy the filter when not strict
	f, ok = First("{{ anything goes }}", Match{
		Name:    regexp.MustCompile("^nope$"),
		Context: regexp.MustCompile("goes"),
		Either:  true,
	})
	if !ok || f.Name != "anything" {
		t.Fatalf("First() = %q, %v, want anything, true", f.Name, ok)
	}
}

func TestFill(t *testing.T) {
	cases := []struct {
		name  string
		field string
		value string
		text  string
		want  string
		occur int
	}{
		{"simple", "title", "Hello", "<h1>{{ title }}</h1>", "<h1>Hello</h1>", 1},
		{"no padding", "title", "Hello", "<h1>{{title}}</h1>", "<h1>Hello</h1>", 1},
		{"case insensitive", "name", "x", "{{ Name }} {{ NAME }}", "x x", 2},
		{"missing", "other", "x", "{{ title }}", "{{ title }}", 0},
		{"empty clears blanks", "", "", "a {{}} b {{ }} c", "a  b  c", 2},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, n := Fill(c.field, c.value, c.text)
			if got != c.want || n != c.occur {
				t.Errorf("Fill(%q, %q, %q) = %q, %d, want %q, %d",
					c.field, c.value, c.text, got, n, c.want, c.occur)
			}
		})
	}
}

func TestFillValueWithDollarSign(t *testing.T) {
	got, _ := Fill("cost", "$1", "{{ cost }}")
	if got != "$1" {
		t.Errorf("Fill() = %q, want %q", got, "$1")
	}
}

func TestFillIndented(t *testing.T) {
	text := "<div>\n    {{ body }}\n</div>"
	got, n := FillIndented("body", "one\ntwo", text)
	want := "<div>\n    one\n    two\n</div>"
	if got != want || n != 1 {
		t.Errorf("FillIndented() = %q, %d, want %q, 1", got, n, want)
	}
}

func TestFillSingle(t *testing.T) {
	text := "x {{ a.png }} y"
	fields := Scan(text)
	if len(fields) != 1 {
		t.Fatalf("Scan() returned %d fields, want 1", len(fields))
	}
	got, err := FillSingle(fields[0], "<img>", text)
	if err != nil {
		t.Fatal(err)
	}
	if got != "x <img> y" {
		t.Errorf("FillSingle() = %q, want %q", got, "x <img> y")
	}

	if _, err := FillSingle(Field{Start: 5, End: 99}, "v", "short"); err == nil {
		t.Error("FillSingle() accepted out of range field")
	}
}

func TestLineNumber(t *testing.T) {
	text := "one\ntwo\nthree"
	if got := LineNumber(5, text); got != 2 {
		t.Errorf("LineNumber(5) = %d, want 2", got)
	}
	if got := LineNumber(0, text); got != 1 {
		t.Errorf("LineNumber(0) = %d, want 1", got)
	}
}
