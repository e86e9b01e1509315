// Package env is the typing environment: function schemes parsed from the
// catalog and the registered type classes.
package env

import (
	"fmt"

	"github.com/funvibe/funblocks/internal/catalog"
	"github.com/funvibe/funblocks/internal/signature"
	"github.com/funvibe/funblocks/internal/typesystem"
)

// Environment maps function names to schemes. It is built once and only read
// during inference.
type Environment struct {
	catalog *catalog.Catalog
	schemes map[string]*typesystem.Scheme
	classes map[string]*typesystem.TypeClass
	order   []string // class registration order
}

// NewEmpty returns an environment without functions or classes.
func NewEmpty() *Environment {
	return &Environment{
		schemes: make(map[string]*typesystem.Scheme),
		classes: make(map[string]*typesystem.TypeClass),
	}
}

// New registers the catalog's classes, then parses every signature. Any
// failure is fatal: no partial environment is returned.
func New(c *catalog.Catalog) (*Environment, error) {
	e := NewEmpty()
	e.catalog = c

	for _, cd := range c.Classes() {
		e.AddTypeClass(typesystem.NewTypeClassNamed(cd.Name, cd.Instances...))
	}
	for _, entry := range c.Entries() {
		if err := e.AddSignature(entry.Name, entry.Signature); err != nil {
			return nil, &catalog.LoadError{Source: "signatures", Err: fmt.Errorf("function %s: %w", entry.Name, err)}
		}
	}
	return e, nil
}

// AddTypeClass registers a class. The first registration of a name wins.
func (e *Environment) AddTypeClass(tc *typesystem.TypeClass) {
	if _, ok := e.classes[tc.Name()]; ok {
		return
	}
	e.classes[tc.Name()] = tc
	e.order = append(e.order, tc.Name())
}

// TypeClass returns a registered class by name.
func (e *Environment) TypeClass(name string) (*typesystem.TypeClass, bool) {
	tc, ok := e.classes[name]
	return tc, ok
}

// TypeClasses returns the registered classes in registration order.
func (e *Environment) TypeClasses() []*typesystem.TypeClass {
	out := make([]*typesystem.TypeClass, len(e.order))
	for i, name := range e.order {
		out[i] = e.classes[name]
	}
	return out
}

// AddSignature parses sig and binds name to the resulting scheme.
func (e *Environment) AddSignature(name, sig string) error {
	s, err := signature.Parse(sig, e.TypeClass)
	if err != nil {
		return err
	}
	e.schemes[name] = s
	return nil
}

// ParseType parses type text against the registered classes, with fresh variables.
func (e *Environment) ParseType(text string) (typesystem.Type, error) {
	return signature.ParseType(text, e.TypeClass)
}

// Lookup returns the scheme bound to name.
func (e *Environment) Lookup(name string) (*typesystem.Scheme, bool) {
	s, ok := e.schemes[name]
	return s, ok
}

// UseFun returns a fresh instantiation of name's scheme.
func (e *Environment) UseFun(name string) (typesystem.Type, error) {
	s, ok := e.schemes[name]
	if !ok {
		return nil, typesystem.NewUnboundIdentifierError(name)
	}
	return s.Instantiate(), nil
}

// Categories returns catalog categories in catalog order.
func (e *Environment) Categories() []string {
	if e.catalog == nil {
		return nil
	}
	return e.catalog.Categories()
}

// EntriesInCategory returns the catalog entries of a category.
func (e *Environment) EntriesInCategory(name string) []catalog.Entry {
	if e.catalog == nil {
		return nil
	}
	return e.catalog.Category(name)
}

// Entry returns the catalog record for a function name.
func (e *Environment) Entry(name string) (catalog.Entry, bool) {
	if e.catalog == nil {
		return catalog.Entry{}, false
	}
	return e.catalog.Entry(name)
}
