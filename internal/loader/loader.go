package loader

import (
	"fmt"
	"os"

	"github.com/ridoystarlord/sqlbuns/internal/schema"
)

// Source selects which of the two on-disk model formats to read,
// mirroring the teacher's --yaml flag choice between struct tags and a
// YAML schema file.
type Source int

const (
	SourceTags Source = iota
	SourceYAML
)

// Load reads the current model set from path using src, returning
// models plus their declaration order (the differ needs a stable order
// for deterministic multi-statement output, per spec C5).
func Load(src Source, path string) (map[string]schema.Model, []string, error) {
	switch src {
	case SourceYAML:
		return LoadModelsFromYAML(path)
	case SourceTags:
		return LoadModelsFromTags(path)
	default:
		return nil, nil, fmt.Errorf("loader: unknown source %d", src)
	}
}

// DetectSource picks tags when path is a directory and YAML when it is
// a file, so the CLI can default sensibly without an explicit flag.
func DetectSource(path string) Source {
	info, err := os.Stat(path)
	if err != nil {
		return SourceTags
	}
	if info.IsDir() {
		return SourceTags
	}
	return SourceYAML
}
