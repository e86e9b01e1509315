package graph

import (
	"fmt"

	"github.com/funvibe/funblocks/internal/typesystem"
)

// outputScope is the container in which an output anchor's value is visible.
// Lambda parameters are visible inside the body only.
func (g *Graph) outputScope(ref OutputRef) ContainerID {
	b := g.blocks[ref.Block]
	if b.Outputs[ref.Index].Binder {
		return b.Data.(*LambdaBlock).Body
	}
	return b.Container
}

// inputScope is the container in which an input anchor is placed.
func (g *Graph) inputScope(ref InputRef) ContainerID {
	b := g.blocks[ref.Block]
	if b.Inputs[ref.Index].Internal {
		return b.Data.(*LambdaBlock).Body
	}
	return b.Container
}

// parent returns the container enclosing c, or NoContainer for the root and detached bodies.
func (g *Graph) parent(c ContainerID) ContainerID {
	cont, ok := g.containers[c]
	if !ok || cont.Owner == 0 {
		return NoContainer
	}
	return g.blocks[cont.Owner].Container
}

// encloses reports whether outer is inner or one of its ancestors.
func (g *Graph) encloses(outer, inner ContainerID) bool {
	for c := inner; c != NoContainer; c = g.parent(c) {
		if c == outer {
			return true
		}
	}
	return false
}

// attached reports whether c is reachable from the root through live lambdas.
func (g *Graph) attached(c ContainerID) bool {
	return c != NoContainer && g.encloses(g.root, c)
}

// ownedContainers returns the containers wrapped by a block.
func (g *Graph) ownedContainers(b *Block) []ContainerID {
	if l, ok := b.Data.(*LambdaBlock); ok {
		return []ContainerID{l.Body}
	}
	return nil
}

// boundary returns the lambda block owning c, if any.
func (g *Graph) boundary(c ContainerID) (BlockID, bool) {
	cont, ok := g.containers[c]
	if !ok || cont.Owner == 0 {
		return 0, false
	}
	owner := g.blocks[cont.Owner]
	if owner.removed {
		return 0, false
	}
	return cont.Owner, true
}

// MoveIntoContainer detaches a block from its container and attaches it to
// target, then propagates through both container boundaries and the block.
func (g *Graph) MoveIntoContainer(id BlockID, target ContainerID) error {
	b, err := g.live(id)
	if err != nil {
		return err
	}
	if _, ok := g.containers[target]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownContainer, target)
	}
	if b.Container == target {
		return nil
	}
	for _, own := range g.ownedContainers(b) {
		if g.encloses(own, target) {
			return fmt.Errorf("%w: block %d into container %d", ErrContainmentCycle, id, target)
		}
	}

	source := b.Container
	if cont, ok := g.containers[source]; ok {
		cont.detach(id)
	}
	b.Container = target
	g.containers[target].attach(id)
	g.logger.Debug("block moved", "block", id, "from", source, "to", target)

	g.begin()
	defer g.end()
	if owner, ok := g.boundary(source); ok {
		g.handleConnectionChanges(owner, false)
		g.handleConnectionChanges(owner, true)
	}
	if owner, ok := g.boundary(target); ok {
		g.handleConnectionChanges(owner, false)
		g.handleConnectionChanges(owner, true)
	}
	g.handleConnectionChanges(id, false)
	g.handleConnectionChanges(id, true)
	return nil
}

// Signature is the boundary of a container: the types of interior anchors
// that are not connected.
type Signature struct {
	Inputs  []typesystem.Type
	Outputs []typesystem.Type
}

// ContainerSignature collects the unconnected inputs and outputs of the
// blocks attached to c, in attachment order.
func (g *Graph) ContainerSignature(c ContainerID) (Signature, error) {
	cont, ok := g.containers[c]
	if !ok {
		return Signature{}, fmt.Errorf("%w: %d", ErrUnknownContainer, c)
	}
	var sig Signature
	for _, id := range cont.blocks {
		b := g.blocks[id]
		for _, in := range b.Inputs {
			if in.conn == 0 && !in.Internal {
				sig.Inputs = append(sig.Inputs, in.Signature)
			}
		}
		for _, out := range b.Outputs {
			if len(out.conns) == 0 && !out.Binder {
				sig.Outputs = append(sig.Outputs, out.Type)
			}
		}
	}
	return sig, nil
}
