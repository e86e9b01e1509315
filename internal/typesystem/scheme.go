package typesystem

import (
	"sort"
	"strings"
)

// Scheme is a type with universally quantified variables.
type Scheme struct {
	Vars []TVar
	Type Type
}

// Mono wraps a type without quantifying anything.
func Mono(t Type) *Scheme {
	return &Scheme{Type: t}
}

// Closed quantifies every free variable of t. Catalog signatures are closed this way.
func Closed(t Type) *Scheme {
	return &Scheme{Vars: t.FreeTypeVariables(), Type: t}
}

// Instantiate replaces each quantified variable with a fresh one carrying the same constraints.
func (s *Scheme) Instantiate() Type {
	if len(s.Vars) == 0 {
		return s.Type
	}
	subst := make(Subst, len(s.Vars))
	for _, v := range s.Vars {
		subst[v.Name] = FreshLike(v)
	}
	return s.Type.Apply(subst)
}

// Apply substitutes only the free (non-quantified) variables of the scheme.
func (s *Scheme) Apply(subst Subst) *Scheme {
	filtered := make(Subst, len(subst))
	for name, t := range subst {
		if !s.binds(name) {
			filtered[name] = t
		}
	}
	return &Scheme{Vars: s.Vars, Type: s.Type.Apply(filtered)}
}

func (s *Scheme) binds(name string) bool {
	for _, v := range s.Vars {
		if v.Name == name {
			return true
		}
	}
	return false
}

// FreeTypeVariables returns the variables of the type that are not quantified.
func (s *Scheme) FreeTypeVariables() []TVar {
	var free []TVar
	for _, v := range s.Type.FreeTypeVariables() {
		if !s.binds(v.Name) {
			free = append(free, v)
		}
	}
	return free
}

func (s *Scheme) String() string {
	if len(s.Vars) == 0 {
		return Pretty(s.Type)
	}
	names := make([]string, len(s.Vars))
	for i, v := range s.Vars {
		names[i] = v.Name
	}
	sort.Strings(names)
	return "forall " + strings.Join(names, " ") + ". " + s.Type.String()
}

// Generalize quantifies the variables free in t but not in envFree.
func Generalize(t Type, envFree []TVar) *Scheme {
	bound := make(map[string]bool, len(envFree))
	for _, v := range envFree {
		bound[v.Name] = true
	}
	var vars []TVar
	for _, v := range t.FreeTypeVariables() {
		if !bound[v.Name] {
			vars = append(vars, v)
		}
	}
	return &Scheme{Vars: vars, Type: t}
}
