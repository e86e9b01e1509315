package typesystem

import (
	"errors"
	"fmt"
	"strings"
)

// UnboundIdentifierError indicates a name was not found in the environment
type UnboundIdentifierError struct {
	Name string
}

func (e *UnboundIdentifierError) Error() string {
	return fmt.Sprintf("unbound identifier: %s", e.Name)
}

func NewUnboundIdentifierError(name string) *UnboundIdentifierError {
	return &UnboundIdentifierError{Name: name}
}

// Sentinels for the kinds of unification failure. A *TypeError unwraps to one of them.
var (
	ErrTypeMismatch       = errors.New("type mismatch")
	ErrArityMismatch      = errors.New("arity mismatch")
	ErrOccursCheck        = errors.New("infinite type")
	ErrNoInstance         = errors.New("no instance")
	ErrConstraintConflict = errors.New("conflicting constraints")
)

// TypeError reports a unification failure together with both operand types.
type TypeError struct {
	Kind   error // one of the Err* sentinels above
	Left   Type
	Right  Type
	Detail string
	Cause  *TypeError // the inner failure when Left/Right are enclosing types
}

func (e *TypeError) Error() string {
	var b strings.Builder
	names := PrettyAll(e.Left, e.Right)
	fmt.Fprintf(&b, "%s: cannot unify %s with %s", e.Kind, names[0], names[1])
	if e.Detail != "" {
		b.WriteString(" (")
		b.WriteString(e.Detail)
		b.WriteString(")")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *TypeError) Unwrap() error {
	return e.Kind
}

// Innermost returns the most specific failure in the chain.
func (e *TypeError) Innermost() *TypeError {
	for e.Cause != nil {
		e = e.Cause
	}
	return e
}

func errMismatch(t1, t2 Type, detail string) *TypeError {
	return &TypeError{Kind: ErrTypeMismatch, Left: t1, Right: t2, Detail: detail}
}

func errArity(t1, t2 Type, n1, n2 int) *TypeError {
	return &TypeError{Kind: ErrArityMismatch, Left: t1, Right: t2,
		Detail: fmt.Sprintf("%d vs %d type arguments", n1, n2)}
}

func errOccurs(tv TVar, t Type) *TypeError {
	return &TypeError{Kind: ErrOccursCheck, Left: tv, Right: t,
		Detail: "variable occurs in the type it is bound to"}
}

func errNoInstance(tv TVar, t Type, missing []*TypeClass) *TypeError {
	names := make([]string, len(missing))
	for i, c := range missing {
		names[i] = c.Name()
	}
	return &TypeError{Kind: ErrNoInstance, Left: tv, Right: t,
		Detail: fmt.Sprintf("no instance %s %s", strings.Join(names, ", "), HeadName(t))}
}

func errConflict(v1, v2 TVar, merged ClassSet) *TypeError {
	return &TypeError{Kind: ErrConstraintConflict, Left: v1, Right: v2,
		Detail: fmt.Sprintf("no type is an instance of all of %s", merged)}
}

// errContext wraps an inner failure with the enclosing operands.
func errContext(t1, t2 Type, inner error) error {
	var te *TypeError
	if !errors.As(inner, &te) {
		return inner
	}
	return &TypeError{Kind: te.Kind, Left: t1, Right: t2, Cause: te}
}
