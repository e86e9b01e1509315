package expr

import (
	"errors"
	"fmt"

	"github.com/funvibe/funblocks/internal/typesystem"
)

// FunctionSource resolves identifiers that are not locally bound.
// *env.Environment implements it.
type FunctionSource interface {
	UseFun(name string) (typesystem.Type, error)
}

// InferError identifies the sub-expression whose inference failed.
type InferError struct {
	Expr Expression
	Err  error
}

func (e *InferError) Error() string {
	return fmt.Sprintf("in %s: %v", e.Expr, e.Err)
}

func (e *InferError) Unwrap() error {
	return e.Err
}

func wrapInfer(e Expression, err error) error {
	var ie *InferError
	if errors.As(err, &ie) {
		return err
	}
	return &InferError{Expr: e, Err: err}
}

// Scope binds local names (let bindings, lambda parameters, values from an
// enclosing container) to schemes.
type Scope map[string]*typesystem.Scheme

// Extend returns a copy of the scope with one more binding.
func (sc Scope) Extend(name string, s *typesystem.Scheme) Scope {
	out := make(Scope, len(sc)+1)
	for k, v := range sc {
		out[k] = v
	}
	out[name] = s
	return out
}

func (sc Scope) Apply(subst typesystem.Subst) Scope {
	if len(subst) == 0 {
		return sc
	}
	out := make(Scope, len(sc))
	for k, v := range sc {
		out[k] = v.Apply(subst)
	}
	return out
}

func (sc Scope) FreeTypeVariables() []typesystem.TVar {
	var vars []typesystem.TVar
	for _, s := range sc {
		vars = append(vars, s.FreeTypeVariables()...)
	}
	return vars
}

// Infer returns the type of e.
func Infer(fns FunctionSource, e Expression) (typesystem.Type, error) {
	return InferScoped(fns, nil, e)
}

// InferScoped returns the type of e with extra local names in scope.
func InferScoped(fns FunctionSource, scope Scope, e Expression) (typesystem.Type, error) {
	in := &inferer{fns: fns}
	s, t, err := in.infer(scope, e)
	if err != nil {
		return nil, err
	}
	return t.Apply(s), nil
}

type inferer struct {
	fns FunctionSource
}

func (in *inferer) infer(scope Scope, e Expression) (typesystem.Subst, typesystem.Type, error) {
	switch n := e.(type) {
	case *Value:
		return typesystem.Subst{}, n.Type, nil

	case *Hole:
		return typesystem.Subst{}, typesystem.NewVar(), nil

	case *Ident:
		if s, ok := scope[n.Name]; ok {
			return typesystem.Subst{}, s.Instantiate(), nil
		}
		if in.fns == nil {
			return nil, nil, wrapInfer(n, typesystem.NewUnboundIdentifierError(n.Name))
		}
		t, err := in.fns.UseFun(n.Name)
		if err != nil {
			return nil, nil, wrapInfer(n, err)
		}
		return typesystem.Subst{}, t, nil

	case *Apply:
		return in.inferApply(scope, n)

	case *Let:
		return in.inferLet(scope, n)

	case *Lambda:
		return in.inferLambda(scope, n)

	default:
		return nil, nil, fmt.Errorf("unknown expression %T", e)
	}
}

func (in *inferer) inferApply(scope Scope, n *Apply) (typesystem.Subst, typesystem.Type, error) {
	s1, funType, err := in.infer(scope, n.Func)
	if err != nil {
		return nil, nil, err
	}
	s2, argType, err := in.infer(scope.Apply(s1), n.Arg)
	if err != nil {
		return nil, nil, err
	}

	result := typesystem.NewVar()
	s3, err := typesystem.Unify(funType.Apply(s2), typesystem.Arrow(argType, result))
	if err != nil {
		return nil, nil, wrapInfer(n, err)
	}
	return s1.Compose(s2).Compose(s3), result.Apply(s3), nil
}

// inferLet infers bindings in order, generalizing each against the enclosing
// scope before the next binding and the body see it.
func (in *inferer) inferLet(scope Scope, n *Let) (typesystem.Subst, typesystem.Type, error) {
	subst := typesystem.Subst{}
	local := scope
	for _, b := range n.Bindings {
		s, t, err := in.infer(local.Apply(subst), b.Expr)
		if err != nil {
			return nil, nil, err
		}
		subst = subst.Compose(s)
		local = local.Apply(subst)
		local = local.Extend(b.Name, typesystem.Generalize(t.Apply(subst), local.FreeTypeVariables()))
	}

	s, t, err := in.infer(local.Apply(subst), n.Body)
	if err != nil {
		return nil, nil, err
	}
	return subst.Compose(s), t, nil
}

func (in *inferer) inferLambda(scope Scope, n *Lambda) (typesystem.Subst, typesystem.Type, error) {
	params := make([]typesystem.Type, len(n.Params))
	local := scope
	for i, p := range n.Params {
		t := p.Type
		if t == nil {
			t = typesystem.NewVar()
		}
		params[i] = t
		local = local.Extend(p.Name, typesystem.Mono(t))
	}

	s, body, err := in.infer(local, n.Body)
	if err != nil {
		return nil, nil, err
	}
	for i := range params {
		params[i] = params[i].Apply(s)
	}
	return s, typesystem.Function(body, params...), nil
}
