package graph

import (
	"fmt"
	"sort"
)

// CreateConnection links an output to an input and marks both blocks dirty.
// The input must not already be connected.
func (g *Graph) CreateConnection(from OutputRef, to InputRef) (ConnectionID, error) {
	if _, err := g.live(from.Block); err != nil {
		return 0, err
	}
	if _, err := g.live(to.Block); err != nil {
		return 0, err
	}
	out, err := g.output(from)
	if err != nil {
		return 0, err
	}
	in, err := g.input(to)
	if err != nil {
		return 0, err
	}
	if from.Block == to.Block {
		return 0, fmt.Errorf("%w: %s -> %s", ErrSameBlock, from, to)
	}
	if in.conn != 0 {
		return 0, fmt.Errorf("%w: %s", ErrInputConnected, to)
	}

	g.nextConn++
	c := &Connection{ID: g.nextConn, From: from, To: to}
	g.conns[c.ID] = c
	in.conn = c.ID
	out.conns = append(out.conns, c.ID)

	g.markDirty(from.Block, to.Block)
	g.logger.Debug("connection created", "connection", c.ID, "from", from.String(), "to", to.String())
	return c.ID, nil
}

// RemoveConnection detaches a connection from both anchors and marks both blocks dirty.
func (g *Graph) RemoveConnection(id ConnectionID) error {
	c, ok := g.conns[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownConnection, id)
	}
	g.unlink(c)
	g.markDirty(c.From.Block, c.To.Block)
	g.logger.Debug("connection removed", "connection", id)
	return nil
}

func (g *Graph) unlink(c *Connection) {
	out := g.outputAnchor(c.From)
	for i, cid := range out.conns {
		if cid == c.ID {
			out.conns = append(out.conns[:i], out.conns[i+1:]...)
			break
		}
	}
	in := g.blocks[c.To.Block].Inputs[c.To.Index]
	in.conn = 0
	in.Err = nil
	delete(g.conns, c.ID)
}

func (g *Graph) markDirty(ids ...BlockID) {
	for _, id := range ids {
		if b, ok := g.blocks[id]; ok && !b.removed {
			g.dirty[id] = true
		}
	}
}

// Dirty returns the blocks waiting for propagation, in ascending order.
func (g *Graph) Dirty() []BlockID {
	ids := make([]BlockID, 0, len(g.dirty))
	for id := range g.dirty {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Commit propagates all pending edits as one cycle: phase one over every
// dirty block, then phase two. A block reached from several dirty blocks is
// refreshed once.
func (g *Graph) Commit() {
	ids := g.Dirty()
	if len(ids) == 0 {
		return
	}
	g.dirty = make(map[BlockID]bool)

	g.begin()
	defer g.end()
	for _, id := range ids {
		g.handleConnectionChanges(id, false)
	}
	for _, id := range ids {
		g.handleConnectionChanges(id, true)
	}
}
