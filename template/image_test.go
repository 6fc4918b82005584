package template

import "testing"

func TestBuildImage(t *testing.T) {
	tests := []struct {
		name      string
		defs      map[string]string
		reference string
		wantPath  string
		wantTag   string
		wantErr   bool
	}{
		{
			name:      "plain image",
			reference: "icon.png",
			wantPath:  "icon.png",
			wantTag:   `<img src="res/icon.png">`,
		},
		{
			name:      "squared size",
			reference: "icon.png:16",
			wantPath:  "icon.png",
			wantTag:   `<img src="res/icon.png" width="16" height="16">`,
		},
		{
			name:      "explicit size",
			reference: "icon.png:16x32",
			wantPath:  "icon.png",
			wantTag:   `<img src="res/icon.png" width="16" height="32">`,
		},
		{
			name:      "size in context",
			reference: "icon.png 16x32",
			wantPath:  "icon.png",
			wantTag:   `<img src="res/icon.png" width="16" height="32">`,
		},
		{
			name:      "copy only",
			reference: "card-back.png @copy-only",
			wantPath:  "card-back.png",
			wantTag:   "res/card-back.png",
		},
		{
			name:      "remote image untouched",
			reference: "http://example.com/icon.png",
			wantPath:  "http://example.com/icon.png",
			wantTag:   `<img src="http://example.com/icon.png">`,
		},
		{
			name:      "path through definition",
			defs:      map[string]string{"hero": "hero.png", "large": "64x64"},
			reference: "hero:large",
			wantPath:  "hero.png",
			wantTag:   `<img src="res/hero.png" width="64" height="64">`,
		},
		{
			name:      "not an image",
			reference: "title",
		},
		{
			name:      "not an image with size",
			reference: "notes.txt:16x16",
			wantErr:   true,
		},
		{
			name:      "unparsable size falls back to intrinsic",
			reference: "icon.png:large",
			wantPath:  "icon.png",
			wantTag:   `<img src="res/icon.png">`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, d := newTestResolver(tt.defs)

			img := r.BuildImage(tt.reference)
			if img.Path != tt.wantPath {
				t.Errorf("path = %q, want %q", img.Path, tt.wantPath)
			}
			if img.Tag != tt.wantTag {
				t.Errorf("tag = %q, want %q", img.Tag, tt.wantTag)
			}
			if d.HasErrors() != tt.wantErr {
				t.Errorf("errors = %d, wantErr %v", d.Errors(), tt.wantErr)
			}
		})
	}
}

func TestBuildImageTracksDefinitions(t *testing.T) {
	r, _ := newTestResolver(map[string]string{"hero": "hero.png", "large": "64x64"})

	img := r.BuildImage("hero:large")
	if !img.Definitions["hero"] {
		t.Errorf("definition 'hero' not tracked")
	}
	if !img.Definitions["large"] {
		t.Errorf("definition 'large' not tracked")
	}
}

func TestFillImageFields(t *testing.T) {
	rn := newTestRenderer(nil)

	content := `<div>{{ icon.png:16 }}</div><span>{{ title }}</span>{{ badge.svg @copy-only }}`
	filled, paths, _ := rn.FillImageFields(content)

	want := `<div><img src="res/icon.png" width="16" height="16"></div><span>{{ title }}</span>res/badge.svg`
	if filled != want {
		t.Errorf("got = %q, want %q", filled, want)
	}
	if len(paths) != 2 || paths[0] != "icon.png" || paths[1] != "badge.svg" {
		t.Errorf("paths = %v, want [icon.png badge.svg]", paths)
	}
}

func TestResourcePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"icon.png", "res/icon.png"},
		{"images/icon.png", "res/icon.png"},
		{"http://example.com/icon.png", "http://example.com/icon.png"},
	}
	for _, tt := range tests {
		if got := ResourcePath(tt.path); got != tt.want {
			t.Errorf("ResourcePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestIsImage(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"icon.png", true},
		{"icon.SVG", true},
		{"photo.jpeg", true},
		{"notes.txt", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsImage(tt.path); got != tt.want {
			t.Errorf("IsImage(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
