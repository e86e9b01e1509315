// Package expr is the expression tree extracted from a block graph, its type
// inference and its textual rendering.
package expr

import (
	"strings"

	"github.com/funvibe/funblocks/internal/config"
	"github.com/funvibe/funblocks/internal/typesystem"
)

// Expression is a node of the extracted program. Trees are not modified after extraction.
type Expression interface {
	exprNode()
	// String renders the expression as fully parenthesized program text.
	String() string
}

// Ident references a catalog function or a local binding.
type Ident struct {
	Name string
}

// Value is a literal with a fixed type.
type Value struct {
	Type typesystem.Type
	Text string
}

// Apply applies Func to one argument.
type Apply struct {
	Func Expression
	Arg  Expression
}

// Binding is one local definition of a Let.
type Binding struct {
	Name string
	Expr Expression
}

// Let introduces bindings in order; each may refer to the ones before it.
type Let struct {
	Bindings []Binding
	Body     Expression
}

// Param is a lambda parameter. A nil Type stands for a fresh variable.
type Param struct {
	Name string
	Type typesystem.Type
}

// Lambda abstracts Body over Params.
type Lambda struct {
	Params []Param
	Body   Expression
}

// Hole stands for a missing argument; it renders as "undefined".
type Hole struct{}

func (*Ident) exprNode()  {}
func (*Value) exprNode()  {}
func (*Apply) exprNode()  {}
func (*Let) exprNode()    {}
func (*Lambda) exprNode() {}
func (*Hole) exprNode()   {}

func (e *Ident) String() string { return e.Name }

func (e *Value) String() string { return "(" + e.Text + ")" }

func (e *Apply) String() string {
	return "(" + e.Func.String() + " " + e.Arg.String() + ")"
}

func (e *Let) String() string {
	if len(e.Bindings) == 0 {
		return e.Body.String()
	}
	var b strings.Builder
	b.WriteString("(let {")
	for i, bind := range e.Bindings {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(bind.Name)
		b.WriteString(" = ")
		b.WriteString(bind.Expr.String())
	}
	b.WriteString("} in ")
	b.WriteString(e.Body.String())
	b.WriteString(")")
	return b.String()
}

func (e *Lambda) String() string {
	names := make([]string, len(e.Params))
	for i, p := range e.Params {
		names[i] = p.Name
	}
	return "(\\" + strings.Join(names, " ") + " -> " + e.Body.String() + ")"
}

func (e *Hole) String() string { return config.HoleName }

// ToText renders e as program text for an external evaluator.
func ToText(e Expression) string {
	return e.String()
}

// NewApply applies f to each argument in turn: ((f a) b).
func NewApply(f Expression, args ...Expression) Expression {
	for _, arg := range args {
		f = &Apply{Func: f, Arg: arg}
	}
	return f
}

// Extend appends a binding to the Let.
func (e *Let) Extend(name string, x Expression) {
	e.Bindings = append(e.Bindings, Binding{Name: name, Expr: x})
}

// Binds reports whether the Let already has a binding with the given name.
func (e *Let) Binds(name string) bool {
	for _, b := range e.Bindings {
		if b.Name == name {
			return true
		}
	}
	return false
}
