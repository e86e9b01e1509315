package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the YAML catalog layout:
//
//	classes:
//	  - name: Num
//	    instances: [Int, Float, Double]
//	functions:
//	  - name: map
//	    category: List
//	    signature: (a -> b) -> [a] -> [b]
//	    doc: Apply a function to every element.
type Document struct {
	Classes   []ClassDef `yaml:"classes"`
	Functions []Entry    `yaml:"functions"`
}

// LoadYAML reads and parses a YAML catalog file.
func LoadYAML(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: fmt.Errorf("reading: %w", err)}
	}
	return ParseYAML(data, path)
}

// ParseYAML parses YAML catalog content. The source argument is used only for error messages.
func ParseYAML(data []byte, source string) (*Catalog, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Source: source, Err: fmt.Errorf("parsing: %w", err)}
	}
	if len(doc.Functions) == 0 {
		return nil, &LoadError{Source: source, Err: fmt.Errorf("no functions defined")}
	}
	c, err := New(doc.Classes, doc.Functions)
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}
	return c, nil
}

// MarshalYAML renders the catalog back into the YAML layout.
func (c *Catalog) MarshalYAML() (interface{}, error) {
	return Document{Classes: c.Classes(), Functions: c.Entries()}, nil
}
