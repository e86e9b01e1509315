package typesystem

import (
	"strconv"
	"strings"
)

// Pretty renders t with its variables renamed a, b, c... in order of
// appearance, prefixed by the class context of constrained variables:
//
//	Num a => a -> a -> a
func Pretty(t Type) string {
	return PrettyAll(t)[0]
}

// PrettyAll renders several types with one shared variable naming, so that
// a variable occurring in two of them gets the same letter in both.
func PrettyAll(ts ...Type) []string {
	names := newVarNamer()
	out := make([]string, len(ts))
	for i, t := range ts {
		if t == nil {
			out[i] = "<nil>"
			continue
		}
		renamed := names.rename(t)
		out[i] = context(renamed) + renamed.String()
	}
	return out
}

type varNamer struct {
	names map[string]string
	next  int
}

func newVarNamer() *varNamer {
	return &varNamer{names: make(map[string]string)}
}

func (n *varNamer) name(v TVar) string {
	if name, ok := n.names[v.Name]; ok {
		return name
	}
	name := letterName(n.next)
	n.next++
	n.names[v.Name] = name
	return name
}

func (n *varNamer) rename(t Type) Type {
	switch typ := t.(type) {
	case TVar:
		return TVar{Name: n.name(typ), Constraints: typ.Constraints}
	case TApp:
		ctor := n.rename(typ.Constructor)
		args := make([]Type, len(typ.Args))
		for i, arg := range typ.Args {
			args[i] = n.rename(arg)
		}
		return TApp{Constructor: ctor, Args: args}
	default:
		return t
	}
}

// letterName maps 0..25 to a..z, then a1, b1, ...
func letterName(i int) string {
	letter := string(rune('a' + i%26))
	if i < 26 {
		return letter
	}
	return letter + strconv.Itoa(i/26)
}

func context(t Type) string {
	var constraints []string
	for _, v := range t.FreeTypeVariables() {
		for _, c := range v.Constraints {
			constraints = append(constraints, c.Name()+" "+v.Name)
		}
	}
	switch len(constraints) {
	case 0:
		return ""
	case 1:
		return constraints[0] + " => "
	default:
		return "(" + strings.Join(constraints, ", ") + ") => "
	}
}
