package graph

import (
	"fmt"

	"github.com/funvibe/funblocks/internal/expr"
	"github.com/funvibe/funblocks/internal/typesystem"
)

// refresh recomputes the anchor types of one block from its upstream types.
func (g *Graph) refresh(b *Block) {
	b.err = nil
	switch d := b.Data.(type) {
	case *ValueBlock:
		b.Outputs[0].Type = d.Type
	case *FunctionBlock:
		g.refreshFunction(b, d)
	case *LambdaBlock:
		g.refreshLambda(b, d)
	case *DisplayBlock:
		g.refreshDisplay(b)
	}
}

// upstreamType prepares the block feeding in and returns the value type it delivers.
func (g *Graph) upstreamType(in *InputAnchor) typesystem.Type {
	from := g.conns[in.conn].From
	g.prepare(g.blocks[from.Block])
	return g.outputAnchor(from).Type
}

// refreshFunction instantiates the function and unifies each argument with
// its connected value, left to right. A failing input records its error and
// leaves its argument unconstrained; the others still refine the result.
func (g *Graph) refreshFunction(b *Block, d *FunctionBlock) {
	t, err := g.fns.UseFun(d.Name)
	if err != nil {
		g.resetAnchors(b, err)
		return
	}
	args, result := splitArgs(t, len(b.Inputs))
	if len(args) != len(b.Inputs) {
		g.resetAnchors(b, fmt.Errorf("function %s takes %d arguments, block has %d inputs", d.Name, len(args), len(b.Inputs)))
		return
	}

	subst := typesystem.Subst{}
	for i, in := range b.Inputs {
		in.Err = nil
		if in.conn == 0 {
			continue
		}
		up := g.upstreamType(in)
		s, err := typesystem.Unify(args[i].Apply(subst), up.Apply(subst))
		if err != nil {
			in.Err = err
			continue
		}
		subst = subst.Compose(s)
	}

	for i, in := range b.Inputs {
		in.Signature = args[i].Apply(subst)
	}
	b.Outputs[0].Type = result.Apply(subst)
}

func (g *Graph) refreshDisplay(b *Block) {
	in := b.Inputs[0]
	in.Err = nil
	if in.conn != 0 {
		g.upstreamType(in)
	}
	in.Signature = typesystem.NewVar()
}

// refreshLambda infers the lambda's expression with the values it uses from
// enclosing containers in scope, then spreads the function type over the
// parameter, result and outer anchors.
func (g *Graph) refreshLambda(b *Block, d *LambdaBlock) {
	lam, refs := g.lambdaExpr(b, d)

	scope := expr.Scope{}
	for _, ref := range refs {
		g.prepare(g.blocks[ref.Block])
		scope[g.refName(ref)] = typesystem.Mono(g.outputAnchor(ref).Type)
	}

	b.Inputs[0].Err = nil
	t, err := expr.InferScoped(g.fns, scope, lam)
	if err != nil {
		g.resetAnchors(b, err)
		return
	}

	args, result := splitArgs(t, d.Arity)
	for i := 0; i < d.Arity; i++ {
		b.Outputs[i+1].Type = args[i]
	}
	b.Inputs[0].Signature = result
	b.Outputs[0].Type = t
}

// resetAnchors marks a block failed and gives every anchor an unconstrained type.
func (g *Graph) resetAnchors(b *Block, err error) {
	b.err = err
	for _, in := range b.Inputs {
		in.Signature = typesystem.NewVar()
		in.Err = nil
	}
	for _, out := range b.Outputs {
		out.Type = typesystem.NewVar()
	}
	if l, ok := b.Data.(*LambdaBlock); ok {
		params := make([]typesystem.Type, l.Arity)
		for i := range params {
			params[i] = b.Outputs[i+1].Type
		}
		b.Outputs[0].Type = typesystem.Function(b.Inputs[0].Signature, params...)
	}
}

// checkValid reports whether b means something in its current container.
func (g *Graph) checkValid(b *Block) bool {
	return len(g.problems(b)) == 0
}

// problems lists why b is invalid in its container.
func (g *Graph) problems(b *Block) []error {
	var errs []error
	if b.removed {
		return []error{ErrRemoved}
	}
	if !g.attached(b.Container) {
		errs = append(errs, ErrDetached)
	}
	if b.err != nil {
		errs = append(errs, b.err)
	}
	for i, in := range b.Inputs {
		if in.Err != nil {
			errs = append(errs, fmt.Errorf("input %d: %w", i, in.Err))
		}
		if in.conn == 0 {
			continue
		}
		from := g.conns[in.conn].From
		if !g.encloses(g.outputScope(from), g.inputScope(InputRef{Block: b.ID, Index: i})) {
			errs = append(errs, fmt.Errorf("input %d: %w: %s", i, ErrOutOfScope, from))
		}
	}
	return errs
}

// Errors returns the reasons a block is invalid in its current container.
func (g *Graph) Errors(id BlockID) []error {
	b, ok := g.blocks[id]
	if !ok {
		return []error{fmt.Errorf("%w: %d", ErrUnknownBlock, id)}
	}
	return g.problems(b)
}

func (g *Graph) firstError(b *Block) error {
	if errs := g.problems(b); len(errs) > 0 {
		return errs[0]
	}
	return nil
}
