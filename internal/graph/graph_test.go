package graph

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/funblocks/internal/catalog"
	"github.com/funvibe/funblocks/internal/env"
	"github.com/funvibe/funblocks/internal/expr"
	"github.com/funvibe/funblocks/internal/typesystem"
)

var (
	tInt    = typesystem.TCon{Name: "Int"}
	tDouble = typesystem.TCon{Name: "Double"}
	tString = typesystem.TCon{Name: "String"}
)

func testEnv(t *testing.T) *env.Environment {
	t.Helper()
	c, err := catalog.LoadYAML(filepath.Join("..", "catalog", "testdata", "prelude.yaml"))
	require.NoError(t, err)
	e, err := env.New(c)
	require.NoError(t, err)
	return e
}

func newTestGraph(t *testing.T, opts ...Option) *Graph {
	t.Helper()
	return New(testEnv(t), opts...)
}

func out(b BlockID, i int) OutputRef { return OutputRef{Block: b, Index: i} }
func in(b BlockID, i int) InputRef   { return InputRef{Block: b, Index: i} }

func mustConnect(t *testing.T, g *Graph, from OutputRef, to InputRef) ConnectionID {
	t.Helper()
	id, err := g.CreateConnection(from, to)
	require.NoError(t, err)
	return id
}

func outType(t *testing.T, g *Graph, ref OutputRef) string {
	t.Helper()
	typ, err := g.OutputType(ref)
	require.NoError(t, err)
	return typesystem.Pretty(typ)
}

// squareMap builds map (\x -> x * x) [1, 2, 3] and returns the lambda,
// the multiplication inside its body and the map block.
func squareMap(t *testing.T, g *Graph) (lam, times, mp BlockID) {
	t.Helper()
	lam, err := g.AddLambda(g.Root(), 1)
	require.NoError(t, err)
	body, err := g.LambdaBody(lam)
	require.NoError(t, err)

	times, err = g.AddFunction(body, "(*)")
	require.NoError(t, err)
	mustConnect(t, g, out(lam, 1), in(times, 0))
	mustConnect(t, g, out(lam, 1), in(times, 1))
	mustConnect(t, g, out(times, 0), in(lam, 0))

	list, err := g.AddValue(g.Root(), typesystem.ListOf(tInt), "[1, 2, 3]")
	require.NoError(t, err)
	mp, err = g.AddFunction(g.Root(), "map")
	require.NoError(t, err)
	mustConnect(t, g, out(lam, 0), in(mp, 0))
	mustConnect(t, g, out(list, 0), in(mp, 1))

	g.Commit()
	return lam, times, mp
}

func TestAddFunctionAnchors(t *testing.T) {
	g := newTestGraph(t)

	id, err := g.AddFunction(g.Root(), "foldr")
	require.NoError(t, err)
	b, ok := g.Block(id)
	require.True(t, ok)
	assert.Len(t, b.Inputs, 3)
	assert.Len(t, b.Outputs, 1)
	assert.Equal(t, KindFunction, b.Kind())

	_, err = g.AddFunction(g.Root(), "frobnicate")
	var unbound *typesystem.UnboundIdentifierError
	assert.True(t, errors.As(err, &unbound))

	_, err = g.AddValue(ContainerID(99), tInt, "1")
	assert.ErrorIs(t, err, ErrUnknownContainer)
}

func TestCreateConnectionCardinality(t *testing.T) {
	g := newTestGraph(t)
	one, err := g.AddValue(g.Root(), tInt, "1")
	require.NoError(t, err)
	two, err := g.AddValue(g.Root(), tInt, "2")
	require.NoError(t, err)
	plus, err := g.AddFunction(g.Root(), "(+)")
	require.NoError(t, err)

	mustConnect(t, g, out(one, 0), in(plus, 0))
	// One output may feed several inputs.
	mustConnect(t, g, out(one, 0), in(plus, 1))

	tests := []struct {
		name string
		from OutputRef
		to   InputRef
		want error
	}{
		{"input already connected", out(two, 0), in(plus, 0), ErrInputConnected},
		{"same block", out(plus, 0), in(plus, 1), ErrSameBlock},
		{"unknown output", out(one, 3), in(plus, 0), ErrUnknownAnchor},
		{"unknown input", out(two, 0), in(plus, 5), ErrUnknownAnchor},
		{"unknown block", out(42, 0), in(plus, 0), ErrUnknownBlock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(g.Connections())
			_, err := g.CreateConnection(tt.from, tt.to)
			assert.ErrorIs(t, err, tt.want)
			assert.Len(t, g.Connections(), before)
		})
	}

	b, _ := g.Block(one)
	assert.Len(t, b.Outputs[0].Conns(), 2)
}

func TestBlockReturnsCopy(t *testing.T) {
	g := newTestGraph(t)
	v, _ := g.AddValue(g.Root(), tInt, "1")
	neg, _ := g.AddFunction(g.Root(), "negate")
	mustConnect(t, g, out(v, 0), in(neg, 0))
	g.Commit()

	b, _ := g.Block(neg)
	b.Inputs[0] = &InputAnchor{Signature: tString}
	b.Container = NoContainer
	vb, _ := g.Block(v)
	vb.Outputs[0].Type = tString
	vb.Data.(*ValueBlock).Text = "2"

	_, err := g.CreateConnection(out(v, 0), in(neg, 0))
	assert.ErrorIs(t, err, ErrInputConnected)
	again, _ := g.Block(neg)
	assert.NotZero(t, again.Inputs[0].Conn())
	assert.Equal(t, g.Root(), again.Container)
	assert.Equal(t, "Int", outType(t, g, out(v, 0)))
	text, err := g.ProgramText(neg)
	require.NoError(t, err)
	assert.Contains(t, text, "(1)")
}

func TestRemoveConnection(t *testing.T) {
	g := newTestGraph(t)
	v, _ := g.AddValue(g.Root(), tInt, "1")
	neg, _ := g.AddFunction(g.Root(), "negate")
	c := mustConnect(t, g, out(v, 0), in(neg, 0))
	g.Commit()
	assert.Equal(t, "Int", outType(t, g, out(neg, 0)))

	require.NoError(t, g.RemoveConnection(c))
	assert.Equal(t, []BlockID{v, neg}, g.Dirty())
	g.Commit()
	assert.Equal(t, "Num a => a", outType(t, g, out(neg, 0)))
	assert.Empty(t, g.Connections())

	assert.ErrorIs(t, g.RemoveConnection(c), ErrUnknownConnection)
}

func TestPropagationTypes(t *testing.T) {
	g := newTestGraph(t)
	lam, times, mp := squareMap(t, g)

	assert.Equal(t, "Num a => a -> a", outType(t, g, out(lam, 0)))
	assert.Equal(t, "[Int]", outType(t, g, out(mp, 0)))
	assert.Equal(t, "Num a => a", outType(t, g, out(times, 0)))

	for _, id := range g.Blocks() {
		assert.True(t, g.IsValidInCurrentContainer(id), "block %d", id)
		assert.Empty(t, g.Errors(id), "block %d", id)
	}
	assert.Empty(t, g.Dirty())
}

func TestAllBlocksIdleAfterPropagation(t *testing.T) {
	g := newTestGraph(t)
	squareMap(t, g)

	for id, st := range g.PropagationStates() {
		assert.Equal(t, Idle, st, "block %d", id)
	}

	require.NoError(t, g.InitiateConnectionChanges(1))
	for id, st := range g.PropagationStates() {
		assert.Equal(t, Idle, st, "block %d", id)
	}
	assert.ErrorIs(t, g.InitiateConnectionChanges(99), ErrUnknownBlock)
}

func TestTypeErrorInvalidatesBlock(t *testing.T) {
	g := newTestGraph(t)
	s, _ := g.AddValue(g.Root(), tString, `"x"`)
	neg, _ := g.AddFunction(g.Root(), "negate")
	mustConnect(t, g, out(s, 0), in(neg, 0))
	g.Commit()

	assert.True(t, g.IsValidInCurrentContainer(s))
	assert.False(t, g.IsValidInCurrentContainer(neg))
	errs := g.Errors(neg)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], typesystem.ErrNoInstance)
	assert.True(t, strings.HasPrefix(errs[0].Error(), "input 0: "))
}

func TestFailedInputDoesNotBlockOthers(t *testing.T) {
	g := newTestGraph(t)
	i, _ := g.AddValue(g.Root(), tInt, "1")
	s, _ := g.AddValue(g.Root(), tString, `"x"`)
	plus, _ := g.AddFunction(g.Root(), "(+)")
	mustConnect(t, g, out(i, 0), in(plus, 0))
	mustConnect(t, g, out(s, 0), in(plus, 1))
	g.Commit()

	b, _ := g.Block(plus)
	assert.NoError(t, b.Inputs[0].Err)
	assert.Error(t, b.Inputs[1].Err)
	assert.Equal(t, "Int", outType(t, g, out(plus, 0)))
	assert.False(t, g.IsValidInCurrentContainer(plus))
}

func TestDeferredInvalidation(t *testing.T) {
	var (
		g       *Graph
		order   []BlockID
		outside []bool
	)
	g = newTestGraph(t, WithObserver(ObserverFunc(func(b *Block) {
		order = append(order, b.ID)
		idle := true
		for _, st := range g.PropagationStates() {
			idle = idle && st == Idle
		}
		outside = append(outside, idle)
		if b.Kind() == KindFunction {
			assert.Equal(t, "Int", outType(t, g, out(b.ID, 0)))
		}
	})))

	v, _ := g.AddValue(g.Root(), tInt, "1")
	neg, _ := g.AddFunction(g.Root(), "negate")
	mustConnect(t, g, out(v, 0), in(neg, 0))
	assert.Empty(t, order, "observers run only after propagation")

	g.Commit()
	assert.ElementsMatch(t, []BlockID{v, neg}, order)
	for _, ok := range outside {
		assert.True(t, ok, "observer called during a cycle")
	}
}

func TestObserverEditStartsNewCycle(t *testing.T) {
	var (
		g     *Graph
		added BlockID
	)
	g = newTestGraph(t, WithObserver(ObserverFunc(func(b *Block) {
		if added != 0 || b.Kind() != KindValue {
			return
		}
		added, _ = g.AddDisplay(g.Root())
		_, _ = g.CreateConnection(out(b.ID, 0), in(added, 0))
		g.Commit()
	})))

	v, _ := g.AddValue(g.Root(), tInt, "1")
	g.Commit()

	require.NotZero(t, added)
	disp, _ := g.Block(added)
	assert.NotZero(t, disp.Inputs[0].Conn())
	assert.Empty(t, g.Dirty())
	assert.True(t, g.IsValidInCurrentContainer(v))
}

func TestLambdaClosesOverOuterValue(t *testing.T) {
	g := newTestGraph(t)
	three, _ := g.AddValue(g.Root(), tInt, "3")
	lam, _ := g.AddLambda(g.Root(), 1)
	body, _ := g.LambdaBody(lam)
	plus, _ := g.AddFunction(body, "(+)")
	mustConnect(t, g, out(three, 0), in(plus, 0))
	mustConnect(t, g, out(lam, 1), in(plus, 1))
	mustConnect(t, g, out(plus, 0), in(lam, 0))
	g.Commit()

	assert.Equal(t, "Int -> Int", outType(t, g, out(lam, 0)))
	assert.Equal(t, "Int", outType(t, g, out(lam, 1)))
	assert.True(t, g.IsValidInCurrentContainer(plus))

	text, err := g.ProgramText(lam)
	require.NoError(t, err)
	assert.Equal(t, `(let {b1 = (3)} in (\b2_p0 -> (let {b3 = (((+) b1) b2_p0)} in b3)))`, text)

	outside := NewAnchorSet()
	local, err := g.GetLocalExpr(plus, outside)
	require.NoError(t, err)
	assert.Equal(t, "(((+) b1) b2_p0)", local.String())
	assert.Equal(t, []OutputRef{out(three, 0)}, outside.List())
}

func TestUnconnectedInputsBecomeHoles(t *testing.T) {
	g := newTestGraph(t)
	v, _ := g.AddValue(g.Root(), tInt, "1")
	plus, _ := g.AddFunction(g.Root(), "(+)")
	mustConnect(t, g, out(v, 0), in(plus, 1))
	g.Commit()

	text, err := g.ProgramText(plus)
	require.NoError(t, err)
	assert.Equal(t, "(let {b1 = (1)} in (((+) undefined) b1))", text)
	assert.Equal(t, "Int", outType(t, g, out(plus, 0)))
}

func TestStructuralSharing(t *testing.T) {
	g := newTestGraph(t)
	v, _ := g.AddValue(g.Root(), tInt, "2")
	plus, _ := g.AddFunction(g.Root(), "(+)")
	times, _ := g.AddFunction(g.Root(), "(*)")
	disp, _ := g.AddDisplay(g.Root())
	mustConnect(t, g, out(v, 0), in(plus, 0))
	mustConnect(t, g, out(v, 0), in(plus, 1))
	mustConnect(t, g, out(v, 0), in(times, 0))
	mustConnect(t, g, out(plus, 0), in(times, 1))
	mustConnect(t, g, out(times, 0), in(disp, 0))
	g.Commit()

	full, err := g.GetFullExpr(disp)
	require.NoError(t, err)
	text := expr.ToText(full)
	assert.Equal(t, "(let {b1 = (2); b2 = (((+) b1) b1); b3 = (((*) b1) b2)} in b3)", text)
	assert.Equal(t, 1, strings.Count(text, "b1 ="))

	typ, err := expr.Infer(testEnv(t), full)
	require.NoError(t, err)
	assert.Equal(t, "Int", typesystem.Pretty(typ))

	let := &expr.Let{Body: &expr.Ident{Name: "b3"}}
	outside := NewAnchorSet()
	require.NoError(t, g.ExtendExprGraph(let, times, g.Root(), outside))
	require.Len(t, let.Bindings, 2)
	assert.Equal(t, "b1", let.Bindings[0].Name)
	assert.Equal(t, "b2", let.Bindings[1].Name)
	assert.Zero(t, outside.Len())
}

func TestFullExpressionInfers(t *testing.T) {
	g := newTestGraph(t)
	_, _, mp := squareMap(t, g)

	full, err := g.GetFullExpr(mp)
	require.NoError(t, err)
	assert.Equal(t,
		`(let {b1 = (\b1_p0 -> (let {b2 = (((*) b1_p0) b1_p0)} in b2)); b3 = ([1, 2, 3])} in ((map b1) b3))`,
		expr.ToText(full))

	typ, err := expr.Infer(testEnv(t), full)
	require.NoError(t, err)
	assert.Equal(t, "[Int]", typesystem.Pretty(typ))
}

func TestMoveContainmentCycle(t *testing.T) {
	g := newTestGraph(t)
	outer, _ := g.AddLambda(g.Root(), 1)
	outerBody, _ := g.LambdaBody(outer)
	inner, _ := g.AddLambda(outerBody, 1)
	innerBody, _ := g.LambdaBody(inner)
	g.Commit()

	assert.ErrorIs(t, g.MoveIntoContainer(outer, outerBody), ErrContainmentCycle)
	assert.ErrorIs(t, g.MoveIntoContainer(outer, innerBody), ErrContainmentCycle)
	assert.ErrorIs(t, g.MoveIntoContainer(outer, ContainerID(99)), ErrUnknownContainer)

	b, _ := g.Block(outer)
	assert.Equal(t, g.Root(), b.Container)

	require.NoError(t, g.MoveIntoContainer(inner, g.Root()))
	c, _ := g.Container(g.Root())
	assert.Equal(t, []BlockID{outer, inner}, c.Blocks())
}

func TestMoveOutOfScope(t *testing.T) {
	g := newTestGraph(t)
	v, _ := g.AddValue(g.Root(), tInt, "1")
	neg, _ := g.AddFunction(g.Root(), "negate")
	lam, _ := g.AddLambda(g.Root(), 0)
	body, _ := g.LambdaBody(lam)
	mustConnect(t, g, out(v, 0), in(neg, 0))
	g.Commit()
	require.True(t, g.IsValidInCurrentContainer(neg))

	require.NoError(t, g.MoveIntoContainer(v, body))
	assert.True(t, g.IsValidInCurrentContainer(v))
	assert.False(t, g.IsValidInCurrentContainer(neg))
	errs := g.Errors(neg)
	require.NotEmpty(t, errs)
	assert.ErrorIs(t, errs[0], ErrOutOfScope)

	// Values from an enclosing container stay in scope.
	require.NoError(t, g.MoveIntoContainer(v, g.Root()))
	require.NoError(t, g.MoveIntoContainer(neg, body))
	assert.True(t, g.IsValidInCurrentContainer(neg))
}

func TestRemoveBlock(t *testing.T) {
	var invalidated []BlockID
	g := newTestGraph(t, WithObserver(ObserverFunc(func(b *Block) {
		invalidated = append(invalidated, b.ID)
	})))
	v, _ := g.AddValue(g.Root(), tInt, "1")
	neg, _ := g.AddFunction(g.Root(), "negate")
	disp, _ := g.AddDisplay(g.Root())
	mustConnect(t, g, out(v, 0), in(neg, 0))
	mustConnect(t, g, out(neg, 0), in(disp, 0))
	g.Commit()
	invalidated = nil

	require.NoError(t, g.RemoveBlock(neg))
	assert.Empty(t, g.Connections())
	b, _ := g.Block(neg)
	assert.True(t, b.Removed())
	assert.Equal(t, NoContainer, b.Container)
	assert.ElementsMatch(t, []BlockID{v, neg, disp}, invalidated)
	assert.True(t, g.IsValidInCurrentContainer(disp))
	assert.False(t, g.IsValidInCurrentContainer(neg))

	_, err := g.CreateConnection(out(v, 0), in(neg, 0))
	assert.ErrorIs(t, err, ErrRemoved)
	assert.ErrorIs(t, g.RemoveBlock(neg), ErrRemoved)
}

func TestRemoveLambdaRemovesBody(t *testing.T) {
	g := newTestGraph(t)
	lam, times, mp := squareMap(t, g)

	require.NoError(t, g.RemoveBlock(lam))
	inner, _ := g.Block(times)
	assert.True(t, inner.Removed())

	m, _ := g.Block(mp)
	assert.Zero(t, m.Inputs[0].Conn())
	assert.NotZero(t, m.Inputs[1].Conn())
	assert.Len(t, g.Connections(), 1)
	assert.True(t, g.IsValidInCurrentContainer(mp))
}

func TestCopyBlock(t *testing.T) {
	g := newTestGraph(t)
	v, _ := g.AddValue(g.Root(), tInt, "7")
	neg, _ := g.AddFunction(g.Root(), "negate")
	mustConnect(t, g, out(v, 0), in(neg, 0))
	g.Commit()

	cp, err := g.CopyBlock(neg)
	require.NoError(t, err)
	b, _ := g.Block(cp)
	assert.Equal(t, "negate", b.Data.(*FunctionBlock).Name)
	assert.Zero(t, b.Inputs[0].Conn())
	assert.Equal(t, g.Root(), b.Container)

	cv, err := g.CopyBlock(v)
	require.NoError(t, err)
	vb, _ := g.Block(cv)
	assert.Equal(t, "7", vb.Data.(*ValueBlock).Text)

	lam, _, _ := squareMap(t, g)
	_, err = g.CopyBlock(lam)
	assert.ErrorIs(t, err, ErrNotCopyable)

	empty, _ := g.AddLambda(g.Root(), 2)
	cl, err := g.CopyBlock(empty)
	require.NoError(t, err)
	b1, _ := g.LambdaBody(empty)
	b2, _ := g.LambdaBody(cl)
	assert.NotEqual(t, b1, b2)
	lb, _ := g.Block(cl)
	assert.Len(t, lb.Outputs, 3)
}

func TestSetLiteral(t *testing.T) {
	g := newTestGraph(t)
	v, _ := g.AddValue(g.Root(), tInt, "1")
	neg, _ := g.AddFunction(g.Root(), "negate")
	mustConnect(t, g, out(v, 0), in(neg, 0))
	g.Commit()
	assert.Equal(t, "Int", outType(t, g, out(neg, 0)))

	require.NoError(t, g.SetLiteral(v, tDouble, "2.5"))
	g.Commit()
	assert.Equal(t, "Double", outType(t, g, out(neg, 0)))

	require.NoError(t, g.SetLiteral(v, tString, `"a"`))
	g.Commit()
	assert.False(t, g.IsValidInCurrentContainer(neg))

	assert.ErrorIs(t, g.SetLiteral(neg, tInt, "1"), ErrWrongKind)
}

func TestContainerSignature(t *testing.T) {
	g := newTestGraph(t)
	v, _ := g.AddValue(g.Root(), tInt, "1")
	plus, _ := g.AddFunction(g.Root(), "(+)")
	mustConnect(t, g, out(v, 0), in(plus, 0))
	g.Commit()

	sig, err := g.ContainerSignature(g.Root())
	require.NoError(t, err)
	require.Len(t, sig.Inputs, 1)
	require.Len(t, sig.Outputs, 1)
	assert.Equal(t, "Int", typesystem.Pretty(sig.Inputs[0]))
	assert.Equal(t, "Int", typesystem.Pretty(sig.Outputs[0]))

	_, err = g.ContainerSignature(ContainerID(99))
	assert.ErrorIs(t, err, ErrUnknownContainer)
}
