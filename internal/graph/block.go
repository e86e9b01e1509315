package graph

import (
	"fmt"

	"github.com/funvibe/funblocks/internal/config"
	"github.com/funvibe/funblocks/internal/typesystem"
)

type (
	BlockID      int
	ContainerID  int
	ConnectionID int
)

// NoContainer is the container of a detached or removed block.
const NoContainer ContainerID = 0

// Kind identifies a block variant.
type Kind int

const (
	KindValue Kind = iota
	KindFunction
	KindLambda
	KindDisplay
)

func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindFunction:
		return "function"
	case KindLambda:
		return "lambda"
	case KindDisplay:
		return "display"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Data is the variant-specific payload of a block.
type Data interface {
	Kind() Kind
	blockData()
}

// ValueBlock is a literal: one output with a fixed type.
type ValueBlock struct {
	Type typesystem.Type
	Text string
}

// FunctionBlock applies a catalog function to its inputs.
type FunctionBlock struct {
	Name string
}

// LambdaBlock wraps a body container. Its parameters are binder outputs
// inside the body, its result is an input inside the body, and its outer
// output carries the whole function.
type LambdaBlock struct {
	Body  ContainerID
	Arity int
}

// DisplayBlock is a sink showing the value on its single input.
type DisplayBlock struct{}

func (*ValueBlock) Kind() Kind    { return KindValue }
func (*FunctionBlock) Kind() Kind { return KindFunction }
func (*LambdaBlock) Kind() Kind   { return KindLambda }
func (*DisplayBlock) Kind() Kind  { return KindDisplay }

func (*ValueBlock) blockData()    {}
func (*FunctionBlock) blockData() {}
func (*LambdaBlock) blockData()   {}
func (*DisplayBlock) blockData()  {}

// InputRef addresses an input anchor.
type InputRef struct {
	Block BlockID
	Index int
}

// OutputRef addresses an output anchor.
type OutputRef struct {
	Block BlockID
	Index int
}

func (r OutputRef) String() string { return fmt.Sprintf("b%d.out%d", r.Block, r.Index) }
func (r InputRef) String() string  { return fmt.Sprintf("b%d.in%d", r.Block, r.Index) }

// InputAnchor accepts at most one connection.
type InputAnchor struct {
	// Signature is the slot type as of the last refresh.
	Signature typesystem.Type
	conn      ConnectionID // 0 when unconnected
	// Err is the failure to unify the slot with the connected value, if any.
	Err error
	// Internal marks a lambda result anchor, which lives inside the body.
	Internal bool
}

// OutputAnchor feeds any number of connections.
type OutputAnchor struct {
	Type  typesystem.Type
	conns []ConnectionID
	// Binder marks a lambda parameter, which lives inside the body.
	Binder bool
}

// Conn returns the connection feeding the anchor, or 0.
func (a *InputAnchor) Conn() ConnectionID { return a.conn }

// Conns returns the connections leaving the anchor.
func (a *OutputAnchor) Conns() []ConnectionID {
	return append([]ConnectionID(nil), a.conns...)
}

// Block is a node of the graph.
type Block struct {
	ID        BlockID
	Container ContainerID
	Inputs    []*InputAnchor
	Outputs   []*OutputAnchor
	Data      Data

	valid   bool
	err     error
	removed bool
}

func (b *Block) Kind() Kind { return b.Data.Kind() }

// snapshot copies b so that callers outside the graph cannot edit its state.
func (b *Block) snapshot() *Block {
	c := *b
	c.Inputs = make([]*InputAnchor, len(b.Inputs))
	for i, in := range b.Inputs {
		a := *in
		c.Inputs[i] = &a
	}
	c.Outputs = make([]*OutputAnchor, len(b.Outputs))
	for i, out := range b.Outputs {
		a := *out
		a.conns = out.Conns()
		c.Outputs[i] = &a
	}
	switch d := b.Data.(type) {
	case *ValueBlock:
		v := *d
		c.Data = &v
	case *FunctionBlock:
		f := *d
		c.Data = &f
	case *LambdaBlock:
		l := *d
		c.Data = &l
	case *DisplayBlock:
		c.Data = &DisplayBlock{}
	}
	return &c
}

// Err is the block-level failure of the last refresh.
func (b *Block) Err() error { return b.err }

func (b *Block) Removed() bool { return b.removed }

// BindingName is the let-binding name of the block's value.
func (b *Block) BindingName() string {
	return bindingName(b.ID)
}

func bindingName(id BlockID) string {
	return fmt.Sprintf("%s%d", config.BlockBindingPrefix, id)
}

func paramName(id BlockID, i int) string {
	return fmt.Sprintf("%s%d%s%d", config.BlockBindingPrefix, id, config.ParamBindingInfix, i)
}

// Connection links one output anchor to one input anchor.
type Connection struct {
	ID   ConnectionID
	From OutputRef
	To   InputRef
}

// Container owns a set of blocks. The workspace root has no owner; a lambda
// body is owned by its lambda block.
type Container struct {
	ID     ContainerID
	Owner  BlockID // 0 for the root
	blocks []BlockID
}

// Blocks returns the attached blocks in attachment order.
func (c *Container) Blocks() []BlockID {
	return append([]BlockID(nil), c.blocks...)
}

func (c *Container) attach(id BlockID) {
	c.blocks = append(c.blocks, id)
}

func (c *Container) detach(id BlockID) {
	for i, b := range c.blocks {
		if b == id {
			c.blocks = append(c.blocks[:i], c.blocks[i+1:]...)
			return
		}
	}
}

func (c *Container) contains(id BlockID) bool {
	for _, b := range c.blocks {
		if b == id {
			return true
		}
	}
	return false
}
