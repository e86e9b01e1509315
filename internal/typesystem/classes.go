package typesystem

import (
	"sort"
	"strings"
)

// TypeClass is a named, closed set of instance types. Instances are matched
// by their outermost constructor, so "List" covers [a] for any a.
type TypeClass struct {
	name      string
	instances map[string]bool
	order     []string
}

// NewTypeClass creates a class whose instances are the given types.
func NewTypeClass(name string, instances ...Type) *TypeClass {
	c := &TypeClass{name: name, instances: make(map[string]bool)}
	for _, t := range instances {
		c.addInstance(HeadName(t))
	}
	return c
}

// NewTypeClassNamed creates a class from instance constructor names.
func NewTypeClassNamed(name string, instanceNames ...string) *TypeClass {
	c := &TypeClass{name: name, instances: make(map[string]bool)}
	for _, n := range instanceNames {
		c.addInstance(n)
	}
	return c
}

func (c *TypeClass) addInstance(head string) {
	if head == "" || c.instances[head] {
		return
	}
	c.instances[head] = true
	c.order = append(c.order, head)
}

func (c *TypeClass) Name() string { return c.name }

// Instances returns the instance constructor names in declaration order.
func (c *TypeClass) Instances() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// HasInstance reports whether the outermost constructor of t is an instance.
func (c *TypeClass) HasInstance(t Type) bool {
	head := HeadName(t)
	if head == "" {
		return false
	}
	return c.instances[head]
}

func (c *TypeClass) String() string {
	return c.name
}

// ClassSet is a set of classes constraining one variable, sorted by name.
type ClassSet []*TypeClass

// NewClassSet builds a normalized set, dropping nils and duplicates.
func NewClassSet(classes ...*TypeClass) ClassSet {
	if len(classes) == 0 {
		return nil
	}
	seen := make(map[string]bool)
	var set ClassSet
	for _, c := range classes {
		if c == nil || seen[c.name] {
			continue
		}
		seen[c.name] = true
		set = append(set, c)
	}
	sort.Slice(set, func(i, j int) bool { return set[i].name < set[j].name })
	return set
}

// Merge returns the union of two sets.
func (s ClassSet) Merge(other ClassSet) ClassSet {
	all := make([]*TypeClass, 0, len(s)+len(other))
	all = append(all, s...)
	all = append(all, other...)
	return NewClassSet(all...)
}

// Equal compares sets by class names.
func (s ClassSet) Equal(other ClassSet) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i].name != other[i].name {
			return false
		}
	}
	return true
}

// Satisfiable reports whether at least one constructor is an instance of every class.
func (s ClassSet) Satisfiable() bool {
	if len(s) <= 1 {
		return true
	}
	for _, head := range s[0].order {
		ok := true
		for _, c := range s[1:] {
			if !c.instances[head] {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// Missing returns the classes that t is not an instance of.
func (s ClassSet) Missing(t Type) []*TypeClass {
	var missing []*TypeClass
	for _, c := range s {
		if !c.HasInstance(t) {
			missing = append(missing, c)
		}
	}
	return missing
}

func (s ClassSet) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.name
	}
	return names
}

func (s ClassSet) String() string {
	return strings.Join(s.Names(), ", ")
}
