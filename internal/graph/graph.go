package graph

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/funvibe/funblocks/internal/expr"
	"github.com/funvibe/funblocks/internal/logging"
	"github.com/funvibe/funblocks/internal/typesystem"
)

// Observer is told that a block's visual state is stale. Calls happen after
// the propagation cycle that changed the block has completed, with a copy of
// the block.
type Observer interface {
	InvalidateVisualState(b *Block)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(b *Block)

func (f ObserverFunc) InvalidateVisualState(b *Block) { f(b) }

type Option func(*Graph)

// WithLogger sets the logger for propagation diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(g *Graph) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithObserver registers an observer.
func WithObserver(o Observer) Option {
	return func(g *Graph) {
		g.observers = append(g.observers, o)
	}
}

// Graph is the arena of blocks, containers and connections.
type Graph struct {
	fns expr.FunctionSource

	blocks     map[BlockID]*Block
	containers map[ContainerID]*Container
	conns      map[ConnectionID]*Connection

	nextBlock     BlockID
	nextContainer ContainerID
	nextConn      ConnectionID
	root          ContainerID

	dirty map[BlockID]bool
	sched *scheduler

	observers []Observer
	logger    *slog.Logger
}

// New creates a graph with an empty root container. fns resolves function
// names; *env.Environment satisfies it.
func New(fns expr.FunctionSource, opts ...Option) *Graph {
	g := &Graph{
		fns:        fns,
		blocks:     make(map[BlockID]*Block),
		containers: make(map[ContainerID]*Container),
		conns:      make(map[ConnectionID]*Connection),
		dirty:      make(map[BlockID]bool),
		sched:      newScheduler(),
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.root = g.newContainer(0)
	return g
}

// Root is the top-level workspace container.
func (g *Graph) Root() ContainerID { return g.root }

func (g *Graph) newContainer(owner BlockID) ContainerID {
	g.nextContainer++
	id := g.nextContainer
	g.containers[id] = &Container{ID: id, Owner: owner}
	return id
}

func (g *Graph) newBlock(c ContainerID, data Data) (*Block, error) {
	cont, ok := g.containers[c]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownContainer, c)
	}
	g.nextBlock++
	b := &Block{ID: g.nextBlock, Container: c, Data: data}
	g.blocks[b.ID] = b
	cont.attach(b.ID)
	return b, nil
}

// finishBlock computes the initial anchor types of a new block and schedules it.
func (g *Graph) finishBlock(b *Block) BlockID {
	g.refresh(b)
	b.valid = g.checkValid(b)
	g.dirty[b.ID] = true
	g.logger.Debug("block added", "block", b.ID, "kind", b.Kind().String(), "container", b.Container)
	return b.ID
}

// AddValue adds a literal block.
func (g *Graph) AddValue(c ContainerID, t typesystem.Type, text string) (BlockID, error) {
	b, err := g.newBlock(c, &ValueBlock{Type: t, Text: text})
	if err != nil {
		return 0, err
	}
	b.Outputs = []*OutputAnchor{{Type: t}}
	return g.finishBlock(b), nil
}

// AddFunction adds an application block for a catalog function, with one
// input per argument of the function's type.
func (g *Graph) AddFunction(c ContainerID, name string) (BlockID, error) {
	t, err := g.fns.UseFun(name)
	if err != nil {
		return 0, err
	}
	b, err := g.newBlock(c, &FunctionBlock{Name: name})
	if err != nil {
		return 0, err
	}
	args, result := splitArgs(t, -1)
	for _, arg := range args {
		b.Inputs = append(b.Inputs, &InputAnchor{Signature: arg})
	}
	b.Outputs = []*OutputAnchor{{Type: result}}
	return g.finishBlock(b), nil
}

// AddLambda adds a lambda block with an empty body and the given number of parameters.
func (g *Graph) AddLambda(c ContainerID, arity int) (BlockID, error) {
	if arity < 0 {
		return 0, fmt.Errorf("negative lambda arity %d", arity)
	}
	b, err := g.newBlock(c, &LambdaBlock{Arity: arity})
	if err != nil {
		return 0, err
	}
	body := g.newContainer(b.ID)
	b.Data.(*LambdaBlock).Body = body

	b.Outputs = []*OutputAnchor{{Type: typesystem.NewVar()}}
	for i := 0; i < arity; i++ {
		b.Outputs = append(b.Outputs, &OutputAnchor{Type: typesystem.NewVar(), Binder: true})
	}
	b.Inputs = []*InputAnchor{{Signature: typesystem.NewVar(), Internal: true}}
	return g.finishBlock(b), nil
}

// AddDisplay adds a sink block.
func (g *Graph) AddDisplay(c ContainerID) (BlockID, error) {
	b, err := g.newBlock(c, &DisplayBlock{})
	if err != nil {
		return 0, err
	}
	b.Inputs = []*InputAnchor{{Signature: typesystem.NewVar()}}
	return g.finishBlock(b), nil
}

// Block returns a copy of a block as of the last propagation.
func (g *Graph) Block(id BlockID) (*Block, bool) {
	b, ok := g.blocks[id]
	if !ok {
		return nil, false
	}
	return b.snapshot(), true
}

// Blocks returns all block IDs, including removed ones, in ascending order.
func (g *Graph) Blocks() []BlockID {
	ids := make([]BlockID, 0, len(g.blocks))
	for id := range g.blocks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Container returns a container. Callers must not mutate it.
func (g *Graph) Container(id ContainerID) (*Container, bool) {
	c, ok := g.containers[id]
	return c, ok
}

// Connection returns a connection by ID.
func (g *Graph) Connection(id ConnectionID) (Connection, bool) {
	c, ok := g.conns[id]
	if !ok {
		return Connection{}, false
	}
	return *c, true
}

// Connections returns all live connections ordered by ID.
func (g *Graph) Connections() []Connection {
	out := make([]Connection, 0, len(g.conns))
	for _, c := range g.conns {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LambdaBody returns the body container of a lambda block.
func (g *Graph) LambdaBody(id BlockID) (ContainerID, error) {
	b, err := g.lookup(id)
	if err != nil {
		return 0, err
	}
	l, ok := b.Data.(*LambdaBlock)
	if !ok {
		return 0, fmt.Errorf("%w: %s block %d has no body", ErrWrongKind, b.Kind(), id)
	}
	return l.Body, nil
}

// InputType is the current type of an input: the connected value's type, or the slot signature.
func (g *Graph) InputType(ref InputRef) (typesystem.Type, error) {
	in, err := g.input(ref)
	if err != nil {
		return nil, err
	}
	if in.conn != 0 {
		return g.outputAnchor(g.conns[in.conn].From).Type, nil
	}
	return in.Signature, nil
}

// OutputType is the current type of an output.
func (g *Graph) OutputType(ref OutputRef) (typesystem.Type, error) {
	out, err := g.output(ref)
	if err != nil {
		return nil, err
	}
	return out.Type, nil
}

// IsValidInCurrentContainer reports the validity computed by the last propagation.
func (g *Graph) IsValidInCurrentContainer(id BlockID) bool {
	b, ok := g.blocks[id]
	return ok && b.valid
}

func (g *Graph) lookup(id BlockID) (*Block, error) {
	b, ok := g.blocks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBlock, id)
	}
	return b, nil
}

func (g *Graph) live(id BlockID) (*Block, error) {
	b, err := g.lookup(id)
	if err != nil {
		return nil, err
	}
	if b.removed {
		return nil, fmt.Errorf("%w: %d", ErrRemoved, id)
	}
	return b, nil
}

func (g *Graph) input(ref InputRef) (*InputAnchor, error) {
	b, err := g.lookup(ref.Block)
	if err != nil {
		return nil, err
	}
	if ref.Index < 0 || ref.Index >= len(b.Inputs) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAnchor, ref)
	}
	return b.Inputs[ref.Index], nil
}

func (g *Graph) output(ref OutputRef) (*OutputAnchor, error) {
	b, err := g.lookup(ref.Block)
	if err != nil {
		return nil, err
	}
	if ref.Index < 0 || ref.Index >= len(b.Outputs) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAnchor, ref)
	}
	return b.Outputs[ref.Index], nil
}

// outputAnchor is output for refs known to be valid.
func (g *Graph) outputAnchor(ref OutputRef) *OutputAnchor {
	return g.blocks[ref.Block].Outputs[ref.Index]
}

// splitArgs splits a function type into n argument types and the result.
// n < 0 takes every argument.
func splitArgs(t typesystem.Type, n int) ([]typesystem.Type, typesystem.Type) {
	var args []typesystem.Type
	for n < 0 || len(args) < n {
		arg, res, ok := typesystem.SplitFunction(t)
		if !ok {
			break
		}
		args = append(args, arg)
		t = res
	}
	return args, t
}
