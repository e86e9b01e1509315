package graph

import (
	"github.com/funvibe/funblocks/internal/expr"
)

// AnchorSet is an insertion-ordered set of output anchors.
type AnchorSet struct {
	refs []OutputRef
	seen map[OutputRef]bool
}

func NewAnchorSet() *AnchorSet {
	return &AnchorSet{seen: make(map[OutputRef]bool)}
}

// Add inserts ref and reports whether it was new.
func (s *AnchorSet) Add(ref OutputRef) bool {
	if s.seen[ref] {
		return false
	}
	s.seen[ref] = true
	s.refs = append(s.refs, ref)
	return true
}

func (s *AnchorSet) Contains(ref OutputRef) bool { return s.seen[ref] }

func (s *AnchorSet) Len() int { return len(s.refs) }

// List returns the anchors in insertion order.
func (s *AnchorSet) List() []OutputRef {
	return append([]OutputRef(nil), s.refs...)
}

// refName is the identifier an output's value is referenced by.
func (g *Graph) refName(ref OutputRef) string {
	if g.outputAnchor(ref).Binder {
		return paramName(ref.Block, ref.Index-1)
	}
	return bindingName(ref.Block)
}

// inputExpr is the expression delivered to an input: a reference to the
// connected value, or a hole.
func (g *Graph) inputExpr(in *InputAnchor) (expr.Expression, []OutputRef) {
	if in.conn == 0 {
		return &expr.Hole{}, nil
	}
	from := g.conns[in.conn].From
	return &expr.Ident{Name: g.refName(from)}, []OutputRef{from}
}

// localExpr returns the block's own expression and the outputs it refers to
// without binding them.
func (g *Graph) localExpr(b *Block) (expr.Expression, []OutputRef) {
	switch d := b.Data.(type) {
	case *ValueBlock:
		return &expr.Value{Type: d.Type, Text: d.Text}, nil
	case *FunctionBlock:
		var e expr.Expression = &expr.Ident{Name: d.Name}
		var refs []OutputRef
		for _, in := range b.Inputs {
			arg, r := g.inputExpr(in)
			e = &expr.Apply{Func: e, Arg: arg}
			refs = append(refs, r...)
		}
		return e, refs
	case *DisplayBlock:
		return g.inputExpr(b.Inputs[0])
	case *LambdaBlock:
		return g.lambdaExpr(b, d)
	}
	return &expr.Hole{}, nil
}

// lambdaExpr extracts the body behind the result anchor. The returned
// anchors are those the body uses from enclosing containers.
func (g *Graph) lambdaExpr(b *Block, d *LambdaBlock) (*expr.Lambda, []OutputRef) {
	result, refs := g.inputExpr(b.Inputs[0])
	body := &expr.Let{Body: result}
	outside := NewAnchorSet()
	g.extendRefs(body, refs, d.Body, outside, make(map[BlockID]bool))

	params := make([]expr.Param, d.Arity)
	for i := range params {
		params[i] = expr.Param{Name: paramName(b.ID, i)}
	}
	return &expr.Lambda{Params: params, Body: body}, outside.List()
}

// extendRefs binds, dependencies first, every block of container that refs
// lead to. Lambda parameters of container stay free; anchors of other
// containers are collected into outside.
func (g *Graph) extendRefs(let *expr.Let, refs []OutputRef, container ContainerID, outside *AnchorSet, visiting map[BlockID]bool) {
	for _, ref := range refs {
		if g.outputScope(ref) != container {
			outside.Add(ref)
			continue
		}
		if g.outputAnchor(ref).Binder {
			continue
		}
		up := g.blocks[ref.Block]
		name := bindingName(up.ID)
		if visiting[up.ID] || let.Binds(name) {
			continue
		}
		visiting[up.ID] = true
		e, upRefs := g.localExpr(up)
		g.extendRefs(let, upRefs, container, outside, visiting)
		let.Extend(name, e)
	}
}

// GetLocalExpr returns the block's own expression. Referenced outputs that
// live outside the block's container are added to outside.
func (g *Graph) GetLocalExpr(id BlockID, outside *AnchorSet) (expr.Expression, error) {
	b, err := g.lookup(id)
	if err != nil {
		return nil, err
	}
	e, refs := g.localExpr(b)
	for _, ref := range refs {
		if g.outputScope(ref) != b.Container {
			outside.Add(ref)
		}
	}
	return e, nil
}

// ExtendExprGraph adds to let one binding per block of container that id
// depends on, each after the bindings it uses. A block feeding several
// inputs is bound once.
func (g *Graph) ExtendExprGraph(let *expr.Let, id BlockID, container ContainerID, outside *AnchorSet) error {
	b, err := g.lookup(id)
	if err != nil {
		return err
	}
	_, refs := g.localExpr(b)
	g.extendRefs(let, refs, container, outside, make(map[BlockID]bool))
	return nil
}

// GetFullExpr returns the block's expression with every value it depends
// on bound in a let, across container boundaries. Lambda parameters the
// block can reach stay free.
func (g *Graph) GetFullExpr(id BlockID) (expr.Expression, error) {
	b, err := g.lookup(id)
	if err != nil {
		return nil, err
	}
	e, refs := g.localExpr(b)
	full := &expr.Let{Body: e}
	visiting := map[BlockID]bool{id: true}
	g.bindAll(full, refs, visiting)
	return full, nil
}

func (g *Graph) bindAll(let *expr.Let, refs []OutputRef, visiting map[BlockID]bool) {
	for _, ref := range refs {
		if g.outputAnchor(ref).Binder {
			continue
		}
		up := g.blocks[ref.Block]
		if visiting[up.ID] {
			continue
		}
		visiting[up.ID] = true
		e, upRefs := g.localExpr(up)
		g.bindAll(let, upRefs, visiting)
		let.Extend(bindingName(up.ID), e)
	}
}

// ProgramText renders the full expression of a block.
func (g *Graph) ProgramText(id BlockID) (string, error) {
	e, err := g.GetFullExpr(id)
	if err != nil {
		return "", err
	}
	return expr.ToText(e), nil
}
