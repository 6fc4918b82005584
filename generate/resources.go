package generate

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/h2non/filetype"
	"github.com/maruel/natural"
	"github.com/natefinch/atomic"

	"cardgen/config"
	"cardgen/diag"
	"cardgen/template"
	"cardgen/utils/images"
)

// resourceRef is one image reference collected during rendering: the path as
// written in the data, the directory it resolves against and where it was
// referenced from.
type resourceRef struct {
	context string
	dir     string
	path    string
}

// resourceCopier brings referenced images into the res/ directory of the
// generated output, post-processing them according to the images
// configuration on the way.
type resourceCopier struct {
	d   *diag.Display
	cfg config.ImagesConfig

	destDir string
	copied  map[string][]byte
}

func newResourceCopier(d *diag.Display, cfg config.ImagesConfig, generatedDir string) *resourceCopier {
	return &resourceCopier{
		d:       d,
		cfg:     cfg,
		destDir: filepath.Join(generatedDir, template.ResourcesDirName),
		copied:  make(map[string][]byte),
	}
}

// finalResourceName returns the in-res/ name of a copied resource,
// accounting for SVG rasterization changing the extension.
func (c *resourceCopier) finalResourceName(path string) string {
	name := filepath.Base(path)
	if c.cfg.RasterizeSVG && isSVG(name) {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".png"
	}
	return name
}

func isSVG(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".svg")
}

// Copy brings one referenced image into res/. Remote and absolute references
// are not copied, the document keeps pointing at them directly.
func (c *resourceCopier) Copy(ref resourceRef) {
	ctx := diag.Context{Name: ref.context}

	if template.IsURL(ref.path) {
		c.d.ImageNotCopied(ctx, ref.path)
		return
	}

	src := ref.path
	if !filepath.IsAbs(src) {
		src = filepath.Join(ref.dir, ref.path)
	}

	data, err := os.ReadFile(src)
	if err != nil {
		c.d.MissingImage(ctx, ref.path)
		return
	}

	name := c.finalResourceName(ref.path)
	data = c.process(ctx, name, data, isSVG(ref.path))

	if previous, exists := c.copied[name]; exists {
		if !bytes.Equal(previous, data) {
			c.d.ResourceOverwritten(ctx, name, ref.path)
		} else {
			// the very same content was already copied
			return
		}
	}

	if err := os.MkdirAll(c.destDir, 0755); err != nil {
		c.d.ImageNotCopied(ctx, ref.path)
		return
	}
	if err := atomic.WriteFile(filepath.Join(c.destDir, name), bytes.NewReader(data)); err != nil {
		c.d.ImageNotCopied(ctx, ref.path)
		return
	}
	c.copied[name] = data
}

// process applies the configured image transformations: SVG rasterization,
// scaling and JPEG re-encoding. Content that cannot be processed is copied
// untouched.
func (c *resourceCopier) process(ctx diag.Context, name string, data []byte, svg bool) []byte {
	if svg {
		if !c.cfg.RasterizeSVG {
			return data
		}
		img, err := images.RasterizeSVGToImage(data, 0, 0)
		if err != nil {
			c.d.NotAnImage(ctx, name)
			return data
		}
		img = images.Scale(img, c.cfg.ScaleFactor)
		out, err := images.EncodePNG(img)
		if err != nil {
			return data
		}
		return out
	}

	if !filetype.IsImage(data) {
		c.d.NotAnImage(ctx, name)
		return data
	}
	if c.cfg.ScaleFactor <= 0 || c.cfg.ScaleFactor == 1.0 {
		return data
	}

	img, format, err := images.Decode(data)
	if err != nil {
		return data
	}
	img = images.Scale(img, c.cfg.ScaleFactor)

	var out []byte
	switch format {
	case "jpeg":
		out, err = images.EncodeJPEG(img, c.cfg.JPEGQuality)
	case "png":
		out, err = images.EncodePNG(img)
	default:
		return data
	}
	if err != nil {
		return data
	}
	return out
}

// ReportUnused warns about files sitting in res/ that no card references,
// usually left over from a previous run.
func (c *resourceCopier) ReportUnused() {
	entries, err := os.ReadDir(c.destDir)
	if err != nil {
		return
	}

	var unused []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := c.copied[e.Name()]; !ok {
			unused = append(unused, e.Name())
		}
	}
	if len(unused) == 0 {
		return
	}
	sort.Sort(natural.StringSlice(unused))
	c.d.UnusedResources(unused, c.destDir)
}
