package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dev-five-git/vespertide/schema"
)

// modelFile is the on-disk shape of one model document. The $schema URL is
// advisory (editor validation only) and dropped on load.
type modelFile struct {
	Schema      string                   `json:"$schema,omitempty" yaml:"$schema,omitempty"`
	Name        string                   `json:"name" yaml:"name"`
	Columns     []schema.ColumnDef       `json:"columns" yaml:"columns"`
	Constraints []schema.TableConstraint `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	Indexes     []schema.IndexDef        `json:"indexes,omitempty" yaml:"indexes,omitempty"`
}

// LoadModels walks the models directory recursively and parses every
// .json/.yaml/.yml document into a table definition. YAML models load with
// the same semantics as JSON. Tables come back un-normalized; callers feed
// them to schema.NewSchema.
func LoadModels(modelsDir string) ([]schema.TableDef, error) {
	if _, err := os.Stat(modelsDir); err != nil {
		return nil, nil
	}

	var tables []schema.TableDef
	err := filepath.Walk(modelsDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading model file %s: %w", path, err)
		}
		var mf modelFile
		if ext == ".json" {
			if err := json.Unmarshal(data, &mf); err != nil {
				return fmt.Errorf("parsing model file %s: %w", path, err)
			}
		} else {
			if err := yaml.Unmarshal(data, &mf); err != nil {
				return fmt.Errorf("parsing model file %s: %w", path, err)
			}
		}
		if mf.Name == "" {
			return fmt.Errorf("model file %s has no table name", path)
		}
		tables = append(tables, schema.TableDef{
			Name:        mf.Name,
			Columns:     mf.Columns,
			Constraints: mf.Constraints,
			Indexes:     mf.Indexes,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tables, nil
}

// WriteModelTemplate writes a fresh model document for `new`, carrying the
// $schema URL for editor validation.
func WriteModelTemplate(path, name, format, schemaURL string) error {
	mf := modelFile{
		Schema:  schemaURL,
		Name:    name,
		Columns: []schema.ColumnDef{},
	}
	var data []byte
	var err error
	if format == "yaml" {
		data, err = yaml.Marshal(&mf)
		if err == nil {
			data = append([]byte(fmt.Sprintf("# yaml-language-server: $schema=%s\n", schemaURL)), data...)
		}
	} else {
		data, err = json.MarshalIndent(&mf, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("rendering model template: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
