package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Analyser describes how a definition's documents are analysed.
type Analyser struct {
	// Default is the analyzer applied to fields without an override.
	Default string
	// Custom registers additional analyzers by name (bleve custom analyzer config).
	Custom map[string]map[string]any
	// Fields overrides the analyzer per field.
	Fields map[string]string
}

// StandardAnalyser returns the analysis configuration used by most definitions.
func StandardAnalyser() Analyser {
	return Analyser{Default: standard.Name}
}

// NewIndexMapping builds the bleve mapping for an index.
// The key field is always indexed verbatim and stored so that update and
// delete can address documents by term key.
func NewIndexMapping(a Analyser, keyField string) (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()

	for name, cfg := range a.Custom {
		if err := im.AddCustomAnalyzer(name, cfg); err != nil {
			return nil, fmt.Errorf("failed to add custom analyzer %s: %w", name, err)
		}
	}
	if a.Default != "" {
		im.DefaultAnalyzer = a.Default
	}

	for field, analyzer := range a.Fields {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = analyzer
		im.DefaultMapping.AddFieldMappingsAt(field, fm)
	}

	im.DefaultMapping.AddFieldMappingsAt(keyField, bleve.NewKeywordFieldMapping())

	if err := im.Validate(); err != nil {
		return nil, fmt.Errorf("invalid index mapping: %w", err)
	}
	return im, nil
}

// validateIndexIntegrity checks if a bleve index directory holds a usable index.
// Returns os.ErrNotExist when there is no index at all.
func validateIndexIntegrity(path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	metaPath := filepath.Join(path, "index_meta.json")
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("index_meta.json missing (corrupted index)")
	}
	if err != nil {
		return fmt.Errorf("cannot stat index_meta.json: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("index_meta.json is empty (corrupted)")
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("cannot read index_meta.json: %w", err)
	}
	var meta map[string]any
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json is corrupt: %w", err)
	}

	return nil
}
