package template

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"cardgen/diag"
)

// imageExtensions are the recognized image types.
var imageExtensions = []string{".svg", ".png", ".jpg", ".jpeg"}

// IsImage determines whether a path points to a supported image type.
func IsImage(path string) bool {
	path = strings.ToLower(strings.TrimSpace(path))
	for _, ext := range imageExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// IsURL determines whether a reference points at a remote resource rather
// than a local file.
func IsURL(path string) bool {
	return strings.Contains(path, "://")
}

// ResourcesDirName is the directory referenced images are copied into,
// relative to the output directory.
const ResourcesDirName = "res"

// ResourcePath returns the in-output destination for a copied resource.
// Remote and absolute references are left alone so the generated document
// keeps pointing at them directly.
func ResourcePath(path string) string {
	if IsURL(path) || filepath.IsAbs(path) {
		return path
	}
	return ResourcesDirName + "/" + filepath.Base(path)
}

// Image is the outcome of attempting to interpret a field as an image
// reference.
type Image struct {
	// Path is the image source as referenced, for copying. Empty when the
	// field turned out not to be an image.
	Path string
	// Tag is the markup substituted for the field: an <img> tag, or for
	// copy-only references the bare in-output resource path.
	Tag string
	// Definitions names the definitions consumed while resolving the path
	// or size indirection.
	Definitions map[string]bool
}

// BuildImage interprets the inner content of a field as an image reference:
// 'icon.png', 'icon.png:16x32' (or the equivalent 'icon.png 16x32'),
// 'icon.png @copy-only'. Both the path and the size token allow one
// definition indirection, so '{{ hero:large }}' works when 'hero' and
// 'large' are defined. A reference that does not resolve to an image yields
// the zero Image; that is only reported when a size or copy-only marker
// implies the author believed it was one.
func (r *Resolver) BuildImage(reference string) Image {
	ref := strings.TrimSpace(reference)

	copyOnly := strings.HasSuffix(ref, CopyOnly)
	if copyOnly {
		ref = strings.TrimSpace(strings.TrimSuffix(ref, CopyOnly))
	}

	path := ref
	size := ""
	sized := false
	if at := strings.IndexAny(ref, " \t\n"); at != -1 {
		path = ref[:at]
		size = strings.TrimSpace(ref[at:])
	} else if at := strings.LastIndex(ref, ":"); at != -1 && !strings.HasPrefix(ref[at+1:], "//") {
		// a ':' not followed by '//' splits off an explicit size; the
		// '//' exception keeps protocol markers like 'http://' intact
		path = ref[:at]
		size = strings.TrimSpace(ref[at+1:])
		sized = true
	}

	definitions := make(map[string]bool)
	if resolved, ok := r.Definitions[path]; ok {
		definitions[path] = true
		path = strings.TrimSpace(resolved)
	}

	if !IsImage(path) {
		if copyOnly || sized {
			// it likely was supposed to be an image, but did not resolve
			// to one
			r.Diag.UnresolvedImageReference(reference, path)
		}
		return Image{}
	}

	img := Image{Path: path, Definitions: definitions}

	if copyOnly {
		img.Tag = r.resourcePath(path)
		return img
	}

	if resolved, ok := r.Definitions[size]; ok {
		img.Definitions[size] = true
		size = strings.TrimSpace(resolved)
	}

	width, height := -1, -1
	if size != "" {
		width, height = r.imageSize(path, size)
	}

	if width >= 0 && height >= 0 {
		img.Tag = fmt.Sprintf(`<img src="%s" width="%d" height="%d">`, r.resourcePath(path), width, height)
	} else {
		img.Tag = fmt.Sprintf(`<img src="%s">`, r.resourcePath(path))
	}
	return img
}

func (r *Resolver) resourcePath(path string) string {
	if r.ResourceName != nil {
		return r.ResourceName(path)
	}
	return ResourcePath(path)
}

// imageSize parses a 'WxH' or 'W' (squared) size specification. Either
// dimension falls back to intrinsic (-1) when it fails to parse as a
// non-negative integer.
func (r *Resolver) imageSize(path, spec string) (width, height int) {
	width, height = -1, -1

	var components []string
	for _, c := range strings.Split(spec, "x") {
		if c != "" {
			components = append(components, c)
		}
	}

	ctx := diag.Context{Name: path}

	if len(components) > 0 {
		w, err := strconv.Atoi(components[0])
		switch {
		case err != nil:
			r.Diag.UnknownSize(ctx, spec)
		case w < 0:
			r.Diag.InvalidWidth(ctx, w)
		default:
			width = w
		}
	}
	if len(components) > 1 {
		h, err := strconv.Atoi(components[1])
		switch {
		case err != nil:
			r.Diag.UnknownSize(ctx, spec)
		case h < 0:
			r.Diag.InvalidHeight(ctx, h)
		default:
			height = h
		}
	} else {
		// default to a squared size using the width specification
		height = width
	}
	return width, height
}
