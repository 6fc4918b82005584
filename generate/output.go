package generate

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
	"github.com/gosimple/slug"
	"github.com/natefinch/atomic"
	"go.uber.org/zap"

	"cardgen/config"
	"cardgen/state"
)

// GeneratedDirName is the directory everything is generated into, under the
// requested output path.
const GeneratedDirName = "generated"

// outputValues holds the variables available to the output_name_template.
type outputValues struct {
	Title       string
	Description string
	Version     string
	SourceFile  string
	CardsTotal  int
	PagesTotal  int
}

// buildOutputName returns the file name of the generated document: the name
// of the first datasource, or the expanded output_name_template when one is
// configured.
func buildOutputName(values outputValues, env *state.LocalEnv) string {
	name := values.SourceFile

	if field := env.Cfg.Document.OutputNameTemplate; field != "" {
		if expanded := expandOutputName(field, values, env.Log); expanded != "" {
			name = expanded
		}
	}
	if env.Cfg.Document.FileNameTransliterate {
		name = slug.Make(name)
	}
	name = config.CleanFileName(name)
	if filepath.Ext(name) != ".html" {
		name += ".html"
	}
	return name
}

func expandOutputName(field string, values outputValues, log *zap.Logger) string {
	tmpl, err := template.New(string(config.OutputNameTemplateFieldName)).Funcs(sprig.FuncMap()).Parse(field)
	if err != nil {
		log.Warn("Unable to parse output name template", zap.Error(err))
		return ""
	}
	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		log.Warn("Unable to expand output name template", zap.Error(err))
		return ""
	}
	return buf.String()
}

// writeOutputFile writes data to path atomically, creating directories as
// needed. An existing file is only replaced when overwrite is set.
func writeOutputFile(path string, data []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("output file already exists (use --overwrite): %s", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return atomic.WriteFile(path, bytes.NewReader(data))
}
