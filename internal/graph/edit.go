package graph

import (
	"fmt"

	"github.com/funvibe/funblocks/internal/typesystem"
)

// RemoveBlock deletes a block, its connections and, for a lambda, every
// block inside its body. Former neighbours are propagated immediately.
// Removed blocks keep their IDs and report ErrRemoved on later edits.
func (g *Graph) RemoveBlock(id BlockID) error {
	b, err := g.live(id)
	if err != nil {
		return err
	}

	g.begin()
	defer g.end()

	if owner, ok := g.boundary(b.Container); ok {
		g.markDirty(owner)
	}
	g.remove(b)
	g.Commit()
	return nil
}

func (g *Graph) remove(b *Block) {
	for _, c := range g.ownedContainers(b) {
		for _, inner := range g.containers[c].Blocks() {
			g.remove(g.blocks[inner])
		}
	}

	for _, in := range b.Inputs {
		if in.conn != 0 {
			c := g.conns[in.conn]
			g.unlink(c)
			g.markDirty(c.From.Block)
		}
	}
	for _, out := range b.Outputs {
		for _, cid := range append([]ConnectionID(nil), out.conns...) {
			c := g.conns[cid]
			g.unlink(c)
			g.markDirty(c.To.Block)
		}
	}

	if cont, ok := g.containers[b.Container]; ok {
		cont.detach(b.ID)
	}
	b.Container = NoContainer
	b.removed = true
	b.valid = false
	delete(g.dirty, b.ID)
	g.enqueue(b.ID)
	g.logger.Debug("block removed", "block", b.ID)
}

// CopyBlock adds a block with the same payload to the same container. The
// copy has no connections. Lambdas can be copied only while their body is
// empty; the copy gets a body of its own.
func (g *Graph) CopyBlock(id BlockID) (BlockID, error) {
	b, err := g.live(id)
	if err != nil {
		return 0, err
	}
	switch d := b.Data.(type) {
	case *ValueBlock:
		return g.AddValue(b.Container, d.Type, d.Text)
	case *FunctionBlock:
		return g.AddFunction(b.Container, d.Name)
	case *DisplayBlock:
		return g.AddDisplay(b.Container)
	case *LambdaBlock:
		if n := len(g.containers[d.Body].blocks); n > 0 {
			return 0, fmt.Errorf("%w: lambda %d has %d blocks in its body", ErrNotCopyable, id, n)
		}
		return g.AddLambda(b.Container, d.Arity)
	}
	return 0, fmt.Errorf("%w: %s", ErrWrongKind, b.Kind())
}

// SetLiteral replaces the type and text of a value block and marks it dirty.
func (g *Graph) SetLiteral(id BlockID, t typesystem.Type, text string) error {
	b, err := g.live(id)
	if err != nil {
		return err
	}
	v, ok := b.Data.(*ValueBlock)
	if !ok {
		return fmt.Errorf("%w: cannot set literal on %s block %d", ErrWrongKind, b.Kind(), id)
	}
	v.Type = t
	v.Text = text
	g.markDirty(id)
	return nil
}
