package graph

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// State is a block's position in the two-phase propagation protocol.
type State int

const (
	Idle State = iota
	Preparing
	Finalizing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Preparing:
		return "preparing"
	case Finalizing:
		return "finalizing"
	default:
		return "unknown"
	}
}

// scheduler holds the propagation state of every block in one table. Blocks
// absent from state are Idle; fresh marks blocks whose anchor types were
// already refreshed in the current cycle.
type scheduler struct {
	state map[BlockID]State
	fresh map[BlockID]bool

	depth   int
	pending []BlockID
	queued  map[BlockID]bool

	cycle     uuid.UUID
	started   time.Time
	refreshed int
	span      trace.Span
}

func newScheduler() *scheduler {
	return &scheduler{
		state:  make(map[BlockID]State),
		fresh:  make(map[BlockID]bool),
		queued: make(map[BlockID]bool),
	}
}

// PropagationStates returns a snapshot of every block's propagation state.
func (g *Graph) PropagationStates() map[BlockID]State {
	out := make(map[BlockID]State, len(g.blocks))
	for id := range g.blocks {
		out[id] = g.sched.state[id]
	}
	return out
}

// InitiateConnectionChanges runs both propagation phases starting at id.
func (g *Graph) InitiateConnectionChanges(id BlockID) error {
	if _, err := g.live(id); err != nil {
		return err
	}
	delete(g.dirty, id)

	g.begin()
	defer g.end()
	g.handleConnectionChanges(id, false)
	g.handleConnectionChanges(id, true)
	return nil
}

// begin opens a propagation cycle; nested calls join the outermost one.
func (g *Graph) begin() {
	s := g.sched
	if s.depth == 0 {
		s.cycle = uuid.New()
		s.started = time.Now()
		s.refreshed = 0
		s.fresh = make(map[BlockID]bool)
		_, s.span = startPropagationSpan(context.Background(), s.cycle)
	}
	s.depth++
}

// end closes a cycle. When the outermost cycle closes, metrics are recorded
// and the deferred invalidations run.
func (g *Graph) end() {
	s := g.sched
	s.depth--
	if s.depth > 0 {
		return
	}

	duration := time.Since(s.started)
	recordPropagationMetrics(context.Background(), duration, s.refreshed)
	endPropagationSpan(s.span, s.refreshed, len(s.pending))
	s.span = nil
	g.logger.Debug("propagation cycle complete",
		"cycle_id", s.cycle.String(),
		"refreshed", s.refreshed,
		"invalidated", len(s.pending),
		"duration", duration,
	)

	s.fresh = make(map[BlockID]bool)
	s.state = make(map[BlockID]State)
	g.drain()
}

// drain runs queued invalidations outside of any cycle. An observer may
// start a new edit; its own cycle drains its own queue.
func (g *Graph) drain() {
	s := g.sched
	for len(s.pending) > 0 {
		batch := s.pending
		s.pending = nil
		s.queued = make(map[BlockID]bool)
		for _, id := range batch {
			for _, o := range g.observers {
				o.InvalidateVisualState(g.blocks[id].snapshot())
			}
		}
	}
}

func (g *Graph) enqueue(id BlockID) {
	s := g.sched
	if s.queued[id] {
		return
	}
	s.queued[id] = true
	s.pending = append(s.pending, id)
}

// handleConnectionChanges is one phase of the protocol for one block. The
// guard lets each block through once per phase: phase one only from Idle,
// phase two only from Preparing.
func (g *Graph) handleConnectionChanges(id BlockID, finalPhase bool) {
	b, ok := g.blocks[id]
	if !ok || b.removed {
		return
	}
	s := g.sched
	if (s.state[id] == Preparing) != finalPhase {
		return
	}

	if !finalPhase {
		g.prepare(b)
		g.updateValidity(b)
		s.state[id] = Preparing
	} else {
		delete(s.fresh, id)
		s.state[id] = Finalizing
	}

	g.propagate(b, finalPhase)

	if finalPhase {
		g.enqueue(id)
		delete(s.state, id)
	}
}

// propagate forwards a phase upstream, downstream and to the enclosing lambda.
func (g *Graph) propagate(b *Block, finalPhase bool) {
	for _, in := range b.Inputs {
		if in.conn != 0 {
			g.handleConnectionChanges(g.conns[in.conn].From.Block, finalPhase)
		}
	}
	for _, out := range b.Outputs {
		for _, cid := range out.conns {
			g.handleConnectionChanges(g.conns[cid].To.Block, finalPhase)
		}
	}
	if owner, ok := g.boundary(b.Container); ok {
		g.handleConnectionChanges(owner, finalPhase)
	}
}

// prepare refreshes a block's anchor types at most once per cycle. Blocks
// pull their upstream through prepare before reading its types.
func (g *Graph) prepare(b *Block) {
	s := g.sched
	if s.fresh[b.ID] {
		return
	}
	s.fresh[b.ID] = true
	s.refreshed++
	g.refresh(b)
}

func (g *Graph) updateValidity(b *Block) {
	was := b.valid
	b.valid = g.checkValid(b)
	if was && !b.valid {
		g.logger.Debug("block invalid", "cycle_id", g.sched.cycle.String(), "block", b.ID, "error", g.firstError(b))
	}
}
