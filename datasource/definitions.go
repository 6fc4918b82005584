package datasource

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// DefinitionsName is the file name looked for when no definitions file has
// been specified explicitly.
const DefinitionsName = "definitions.csv"

// Definitions reads a 'name,value' CSV into a mapping of project-wide named
// values. The header row is discarded and rows commented out with a leading
// '#' are excluded.
func Definitions(path string, enc encoding.Encoding) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var src io.Reader = f
	if enc != nil {
		src = transform.NewReader(src, enc.NewDecoder())
	}

	r := csv.NewReader(src)
	r.FieldsPerRecord = -1

	definitions := make(map[string]string)

	for first := true; ; first = false {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if first || len(record) < 2 {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(record[0]), "#") {
			continue
		}
		definitions[record[0]] = record[1]
	}

	return definitions, nil
}

// FindDefinitions looks for a definitions file next to each of the given
// datasources, returning the first one found.
func FindDefinitions(near []string) (string, bool) {
	for _, path := range near {
		candidate := filepath.Join(filepath.Dir(path), DefinitionsName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}
