package generate

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
	"golang.org/x/net/html"

	"cardgen/config"
	"cardgen/state"
	"cardgen/utils/images"
)

func newTestContext(t *testing.T) (context.Context, *state.LocalEnv) {
	t.Helper()

	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)

	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	env.Cfg = cfg
	env.Log = zaptest.NewLogger(t)
	env.OutputDir = t.TempDir()
	env.Overwrite = true
	return ctx, env
}

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func parseDocument(t *testing.T, path string) (*html.Node, string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading generated document: %v", err)
	}
	doc, err := html.Parse(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("parsing generated document: %v", err)
	}
	return doc, string(data)
}

func countByClass(n *html.Node, class string) int {
	count := 0
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				count++
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count += countByClass(c, class)
	}
	return count
}

func documentTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
		return n.FirstChild.Data
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if title := documentTitle(c); title != "" {
			return title
		}
	}
	return ""
}

func TestMakeGeneratesDocument(t *testing.T) {
	ctx, env := newTestContext(t)
	dir := t.TempDir()

	writeTestFile(t, dir, "front.html", `<style>.front { color: red; }</style>
<div class="front">{{ title }} ({{ cost }})</div>
<div class="art">{{ icon.png }}</div>`)
	writeTestFile(t, dir, "back.html", `<div class="back">{{ rules }}</div>`)
	writeTestFile(t, dir, "definitions.csv", "name,value\n_title,Monster Deck\n_description,Test cards\n")

	icon, err := images.EncodePNG(image.NewRGBA(image.Rect(0, 0, 4, 4)))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "icon.png"), icon, 0644); err != nil {
		t.Fatal(err)
	}

	src := writeTestFile(t, dir, "cards.csv",
		"@template,title,cost,rules@back-only,@template-back,@count\n"+
			"front.html,Goblin,1,Sneaky,back.html,\n"+
			"front.html,Dragon,5,Fiery,back.html,2\n"+
			"front.html,Knight,3,Brave,back.html,\n")

	if err := Make(ctx, []string{src}); err != nil {
		t.Fatalf("Make() error = %v", err)
	}

	generated := filepath.Join(env.OutputDir, GeneratedDirName)
	doc, raw := parseDocument(t, filepath.Join(generated, "cards.html"))

	// 4 cards on a 3x3 page, followed by a page of backs padded to full rows
	if got, want := countByClass(doc, "page"), 2; got != want {
		t.Errorf("pages = %d, want %d", got, want)
	}
	if got, want := countByClass(doc, "card"), 10; got != want {
		t.Errorf("cards = %d, want %d", got, want)
	}
	if got, want := countByClass(doc, "front"), 4; got != want {
		t.Errorf("fronts = %d, want %d", got, want)
	}
	if got, want := countByClass(doc, "back"), 4; got != want {
		t.Errorf("backs = %d, want %d", got, want)
	}
	if got, want := documentTitle(doc), "Monster Deck"; got != want {
		t.Errorf("title = %q, want %q", got, want)
	}

	// template styles are hoisted into the document head
	if !strings.Contains(raw, ".front { color: red; }") {
		t.Error("template style block was not carried into the document")
	}
	if !strings.Contains(raw, `<img src="res/icon.png">`) {
		t.Error("image reference was not rendered")
	}

	for _, name := range []string{
		filepath.Join("css", "cards.css"),
		filepath.Join("css", "index.css"),
		filepath.Join("res", "icon.png"),
	} {
		if _, err := os.Stat(filepath.Join(generated, name)); err != nil {
			t.Errorf("expected output file %s: %v", name, err)
		}
	}
}

func TestMakeAutoTemplate(t *testing.T) {
	ctx, env := newTestContext(t)
	dir := t.TempDir()

	src := writeTestFile(t, dir, "spells.csv", "title,cost\nZap,2\nFireball,5\n")

	if err := Make(ctx, []string{src}); err != nil {
		t.Fatalf("Make() error = %v", err)
	}

	doc, _ := parseDocument(t, filepath.Join(env.OutputDir, GeneratedDirName, "spells.html"))

	if got, want := countByClass(doc, "page"), 1; got != want {
		t.Errorf("pages = %d, want %d", got, want)
	}
	if got := countByClass(doc, "auto-template-field"); got != 4 {
		t.Errorf("auto-template fields = %d, want 4", got)
	}
}

func TestMakeRefusesToOverwrite(t *testing.T) {
	ctx, env := newTestContext(t)
	env.Overwrite = false
	dir := t.TempDir()

	src := writeTestFile(t, dir, "cards.csv", "title\nGoblin\n")

	generated := filepath.Join(env.OutputDir, GeneratedDirName)
	if err := os.MkdirAll(generated, 0755); err != nil {
		t.Fatal(err)
	}
	writeTestFile(t, generated, "cards.html", "old content")

	if err := Make(ctx, []string{src}); err == nil {
		t.Error("Make() expected an error for an existing document")
	}
}

func TestMakePreview(t *testing.T) {
	ctx, env := newTestContext(t)
	env.Preview = true
	dir := t.TempDir()

	src := writeTestFile(t, dir, "cards.csv", "title,@count\nGoblin,25\n")

	if err := Make(ctx, []string{src}); err != nil {
		t.Fatalf("Make() error = %v", err)
	}

	doc, _ := parseDocument(t, filepath.Join(env.OutputDir, GeneratedDirName, "cards.html"))
	if got, want := countByClass(doc, "card"), 1; got != want {
		t.Errorf("cards = %d, want %d", got, want)
	}
}
