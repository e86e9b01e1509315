// Package catalog holds the function records that seed the environment:
// names, categories, signature text and documentation, plus the type classes
// the signatures refer to. Sources are YAML documents and SQLite databases.
package catalog

import (
	"errors"
	"fmt"
	"sort"
)

// Entry is one catalog record.
type Entry struct {
	Name      string `yaml:"name" validate:"required"`
	Category  string `yaml:"category" validate:"required"`
	Signature string `yaml:"signature" validate:"required"`
	Doc       string `yaml:"doc"`
}

// ClassDef declares a type class by the constructor names of its instances.
type ClassDef struct {
	Name      string   `yaml:"name" validate:"required,classname"`
	Instances []string `yaml:"instances" validate:"required,min=1,dive,required,classname"`
}

// LoadError is a fatal catalog failure: nothing from the source is usable.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("catalog %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

var ErrDuplicateName = errors.New("duplicate name")

// Catalog is immutable after construction.
type Catalog struct {
	classes    []ClassDef
	entries    []Entry
	byName     map[string]int
	byCategory map[string][]int
	categories []string
}

// New validates the records and indexes them. Entries keep their order.
func New(classes []ClassDef, entries []Entry) (*Catalog, error) {
	if err := validateRecords(classes, entries); err != nil {
		return nil, err
	}

	c := &Catalog{
		classes:    append([]ClassDef(nil), classes...),
		entries:    append([]Entry(nil), entries...),
		byName:     make(map[string]int, len(entries)),
		byCategory: make(map[string][]int),
	}

	seenClass := make(map[string]bool, len(classes))
	for i, cd := range classes {
		if seenClass[cd.Name] {
			return nil, fmt.Errorf("classes[%d]: %w: %s", i, ErrDuplicateName, cd.Name)
		}
		seenClass[cd.Name] = true
	}

	for i, e := range c.entries {
		if _, ok := c.byName[e.Name]; ok {
			return nil, fmt.Errorf("functions[%d]: %w: %s", i, ErrDuplicateName, e.Name)
		}
		c.byName[e.Name] = i
		if _, ok := c.byCategory[e.Category]; !ok {
			c.categories = append(c.categories, e.Category)
		}
		c.byCategory[e.Category] = append(c.byCategory[e.Category], i)
	}
	return c, nil
}

// Entry returns the record for a function name.
func (c *Catalog) Entry(name string) (Entry, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Entries returns all records in source order.
func (c *Catalog) Entries() []Entry {
	return append([]Entry(nil), c.entries...)
}

// Classes returns the declared type classes in source order.
func (c *Catalog) Classes() []ClassDef {
	return append([]ClassDef(nil), c.classes...)
}

// Categories returns category names in order of first appearance.
func (c *Catalog) Categories() []string {
	return append([]string(nil), c.categories...)
}

// Category returns the entries of one category, or nil for an unknown name.
func (c *Catalog) Category(name string) []Entry {
	idx := c.byCategory[name]
	if len(idx) == 0 {
		return nil
	}
	out := make([]Entry, len(idx))
	for i, j := range idx {
		out[i] = c.entries[j]
	}
	return out
}

// Names returns all function names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) Len() int {
	return len(c.entries)
}
