// Package catalog loads and validates the engine's configuration inputs:
// bid templates and measurement field mappings. Both are owned and edited
// outside the engine; this package is the strict boundary that flags
// configuration problems before they are saved or applied.
package catalog

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bidstack/takeoff/internal/measure"
	"github.com/bidstack/takeoff/internal/takeoff"
)

// Template is an ordered list of candidate line items under a name.
type Template struct {
	Name  string                 `yaml:"name" json:"name"`
	Trade string                 `yaml:"trade,omitempty" json:"trade,omitempty"`
	Items []takeoff.TemplateItem `yaml:"items" json:"items"`
}

// MappingSet is an ordered list of field mappings under a name. Order
// matters: derived mappings must come after the variables they reference.
type MappingSet struct {
	Name     string                 `yaml:"name" json:"name"`
	Mappings []measure.FieldMapping `yaml:"mappings" json:"mappings"`
}

// LoadTemplate reads and decodes a template file. Unknown fields are
// rejected so typos in authored config surface immediately.
func LoadTemplate(path string) (*Template, error) {
	var t Template
	if err := loadYAML(path, &t); err != nil {
		return nil, fmt.Errorf("loading template: %w", err)
	}
	return &t, nil
}

// LoadMappings reads and decodes a mapping file.
func LoadMappings(path string) (*MappingSet, error) {
	var m MappingSet
	if err := loadYAML(path, &m); err != nil {
		return nil, fmt.Errorf("loading mappings: %w", err)
	}
	return &m, nil
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
