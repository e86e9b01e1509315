package typesystem

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/funvibe/funblocks/internal/config"
)

// Type is the interface for all types in our system.
// Types are immutable; Apply returns a new Type.
type Type interface {
	String() string
	Apply(Subst) Type
	FreeTypeVariables() []TVar
}

// varCounter backs NewVar. Variable names are unique for the whole process,
// so substitutions never have to deal with shadowing.
var varCounter atomic.Int64

// TVar represents a type variable (e.g. 't1'), optionally constrained by type classes.
type TVar struct {
	Name        string
	Constraints ClassSet
}

// NewVar allocates a fresh type variable with a globally unique name.
func NewVar(classes ...*TypeClass) TVar {
	n := varCounter.Add(1)
	return TVar{Name: fmt.Sprintf("t%d", n), Constraints: NewClassSet(classes...)}
}

// FreshLike allocates a fresh variable carrying the same constraints as v.
func FreshLike(v TVar) TVar {
	n := varCounter.Add(1)
	return TVar{Name: fmt.Sprintf("t%d", n), Constraints: v.Constraints}
}

func (t TVar) String() string { return t.Name }

func (t TVar) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TVar) FreeTypeVariables() []TVar {
	return []TVar{t}
}

// TCon represents a nullary type constant or a bare constructor (e.g. Int, List).
type TCon struct {
	Name string
}

func (t TCon) String() string {
	switch t.Name {
	case config.ListTypeName:
		return "[]"
	case config.UnitTypeName:
		return "()"
	}
	return t.Name
}

func (t TCon) Apply(s Subst) Type {
	return t
}

func (t TCon) FreeTypeVariables() []TVar {
	return []TVar{}
}

// TApp represents a type application (e.g. List Int, a -> b).
// The constructor is usually a TCon; a TVar constructor models
// a higher-kinded application such as "f a".
type TApp struct {
	Constructor Type
	Args        []Type
}

func (t TApp) String() string {
	if con, ok := t.Constructor.(TCon); ok {
		switch {
		case con.Name == config.FunctionTypeName && len(t.Args) == 2:
			left := t.Args[0].String()
			if IsFunction(t.Args[0]) {
				left = "(" + left + ")"
			}
			return left + " -> " + t.Args[1].String()
		case con.Name == config.ListTypeName && len(t.Args) == 1:
			return "[" + t.Args[0].String() + "]"
		case isTupleName(con.Name) && len(t.Args) == strings.Count(con.Name, ",")+1:
			elems := make([]string, len(t.Args))
			for i, arg := range t.Args {
				elems[i] = arg.String()
			}
			return "(" + strings.Join(elems, ", ") + ")"
		}
	}

	parts := []string{t.Constructor.String()}
	for _, arg := range t.Args {
		s := arg.String()
		if needsParens(arg) {
			s = "(" + s + ")"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}

func (t TApp) Apply(s Subst) Type {
	return ApplyWithCycleCheck(t, s, make(map[string]bool))
}

func (t TApp) FreeTypeVariables() []TVar {
	vars := []TVar{}
	vars = append(vars, t.Constructor.FreeTypeVariables()...)
	for _, arg := range t.Args {
		vars = append(vars, arg.FreeTypeVariables()...)
	}
	return uniqueTVars(vars)
}

// needsParens reports whether an argument of a prefix application must be parenthesized.
func needsParens(t Type) bool {
	app, ok := t.(TApp)
	if !ok {
		return false
	}
	if con, ok := app.Constructor.(TCon); ok {
		if con.Name == config.ListTypeName && len(app.Args) == 1 {
			return false
		}
		if isTupleName(con.Name) {
			return false
		}
	}
	return true
}

func isTupleName(name string) bool {
	return len(name) > 2 && strings.HasPrefix(name, "(") && strings.Trim(name, "(,)") == ""
}

// ApplyWithCycleCheck applies substitution with cycle detection.
// This is the main entry point for substitution application.
func ApplyWithCycleCheck(t Type, s Subst, visited map[string]bool) Type {
	if t == nil {
		return nil
	}

	switch typ := t.(type) {
	case TVar:
		if visited[typ.Name] {
			return typ // Break cycle - return the variable as-is
		}

		if replacement, ok := s[typ.Name]; ok {
			if tv, ok := replacement.(TVar); ok && tv.Name == typ.Name {
				return typ
			}
			newVisited := copyVisited(visited)
			newVisited[typ.Name] = true
			return ApplyWithCycleCheck(replacement, s, newVisited)
		}
		return typ

	case TApp:
		newArgs := make([]Type, len(typ.Args))
		for i, arg := range typ.Args {
			newArgs[i] = ApplyWithCycleCheck(arg, s, visited)
		}
		newCtor := ApplyWithCycleCheck(typ.Constructor, s, visited)

		// Flatten nested TApp: a constructor variable bound to a partial
		// application, e.g. f := Either e, turns (f a) into Either e a.
		if ctorApp, ok := newCtor.(TApp); ok {
			mergedArgs := make([]Type, 0, len(ctorApp.Args)+len(newArgs))
			mergedArgs = append(mergedArgs, ctorApp.Args...)
			mergedArgs = append(mergedArgs, newArgs...)
			return TApp{
				Constructor: ctorApp.Constructor,
				Args:        mergedArgs,
			}
		}

		return TApp{
			Constructor: newCtor,
			Args:        newArgs,
		}

	default:
		return t
	}
}

func copyVisited(m map[string]bool) map[string]bool {
	newMap := make(map[string]bool, len(m))
	for k, v := range m {
		newMap[k] = v
	}
	return newMap
}

// Con builds a constructor applied to args; with no args it is a plain TCon.
func Con(name string, args ...Type) Type {
	if len(args) == 0 {
		return TCon{Name: name}
	}
	return TApp{Constructor: TCon{Name: name}, Args: args}
}

// ListOf returns the type [elem].
func ListOf(elem Type) Type {
	return Con(config.ListTypeName, elem)
}

// TupleOf returns the tuple type of the given elements.
func TupleOf(elems ...Type) Type {
	return Con(config.TupleTypeName(len(elems)), elems...)
}

// Function builds the curried function type a1 -> a2 -> ... -> result.
func Function(result Type, args ...Type) Type {
	t := result
	for i := len(args) - 1; i >= 0; i-- {
		t = Con(config.FunctionTypeName, args[i], t)
	}
	return t
}

// Arrow builds the single function type arg -> result.
func Arrow(arg, result Type) Type {
	return Con(config.FunctionTypeName, arg, result)
}

// IsFunction reports whether t is an arrow type.
func IsFunction(t Type) bool {
	_, _, ok := SplitFunction(t)
	return ok
}

// SplitFunction splits arg -> result. ok is false for non-function types.
func SplitFunction(t Type) (arg, result Type, ok bool) {
	app, isApp := t.(TApp)
	if !isApp || len(app.Args) != 2 {
		return nil, nil, false
	}
	con, isCon := app.Constructor.(TCon)
	if !isCon || con.Name != config.FunctionTypeName {
		return nil, nil, false
	}
	return app.Args[0], app.Args[1], true
}

// HeadName returns the name of the outermost type constructor, or "" for variables.
func HeadName(t Type) string {
	switch typ := t.(type) {
	case TCon:
		return typ.Name
	case TApp:
		return HeadName(typ.Constructor)
	default:
		return ""
	}
}

// Subst is a mapping from Type Variables to Types.
type Subst map[string]Type

// Compose combines two substitutions: applying the result equals applying s1, then s2.
func (s1 Subst) Compose(s2 Subst) Subst {
	subst := Subst{}
	for k, v := range s2 {
		subst[k] = v
	}
	for k, v := range s1 {
		subst[k] = v.Apply(s2)
	}
	return subst
}

func uniqueTVars(vars []TVar) []TVar {
	unique := []TVar{}
	seen := map[string]bool{}
	for _, v := range vars {
		if !seen[v.Name] {
			seen[v.Name] = true
			unique = append(unique, v)
		}
	}
	return unique
}
