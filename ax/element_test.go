package ax_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskwatch/axcore/ax"
	"github.com/deskwatch/axcore/testutil"
)

func TestAttributeDegradation(t *testing.T) {
	w := testutil.NewWorld(t)
	el, node := w.Root(t, 100, "app")
	ctx := testutil.TestContext(t)

	// Unsupported attribute: absent, not an error.
	v, err := el.AttributeValue(ctx, "AXNothingHere")
	require.NoError(t, err)
	assert.True(t, v.IsAbsent())

	// Supported but currently empty: also absent.
	node.SetAttr("AXEmpty", nil)
	v, err = el.AttributeValue(ctx, "AXEmpty")
	require.NoError(t, err)
	assert.True(t, v.IsAbsent())

	stats := w.Sys.Stats()
	assert.Equal(t, uint64(2), stats.Absences)
	assert.Zero(t, stats.BoundaryErrors)
	assert.Zero(t, stats.Defects)
}

func TestTypedAttributeReads(t *testing.T) {
	w := testutil.NewWorld(t)
	el, node := w.Root(t, 100, "app")
	ctx := testutil.TestContext(t)

	node.SetAttr(ax.AttrValue, "hello")
	node.SetAttr(ax.AttrEnabled, true)
	node.SetAttr(ax.AttrPosition, ax.Point{X: 10, Y: 20})
	node.SetAttr(ax.AttrFrame, ax.Rect{Origin: ax.Point{X: 1, Y: 2}, Size: ax.Size{Width: 3, Height: 4}})
	node.SetAttr(ax.AttrSelectedTextRange, ax.Range{Location: 5, Length: 2})

	v, err := el.Value(ctx)
	require.NoError(t, err)
	assert.Equal(t, ax.StringValue("hello"), v)

	v, err = el.AttributeValue(ctx, ax.AttrEnabled)
	require.NoError(t, err)
	assert.Equal(t, ax.BoolValue(true), v)

	v, err = el.AttributeValue(ctx, ax.AttrPosition)
	require.NoError(t, err)
	assert.Equal(t, ax.PointValue(ax.Point{X: 10, Y: 20}), v)

	v, err = el.AttributeValue(ctx, ax.AttrFrame)
	require.NoError(t, err)
	assert.Equal(t, ax.KindRect, v.Kind)

	v, err = el.AttributeValue(ctx, ax.AttrSelectedTextRange)
	require.NoError(t, err)
	assert.Equal(t, ax.RangeValue(ax.Range{Location: 5, Length: 2}), v)

	role, err := el.Role(ctx)
	require.NoError(t, err)
	assert.Equal(t, ax.RoleApplication, role)

	names, err := el.AttributeNames(ctx)
	require.NoError(t, err)
	assert.Contains(t, names, ax.AttrRole)
	assert.Contains(t, names, ax.AttrChildren)
}

func TestChildrenCeiling(t *testing.T) {
	limits := ax.DefaultLimits()
	limits.MaxChildren = 3
	w := testutil.NewWorldLimits(t, limits)
	el, node := w.Root(t, 100, "app")
	ctx := testutil.TestContext(t)

	for i := 0; i < 5; i++ {
		node.AddChild(ax.RoleGroup, "")
	}

	// Over the ceiling: nil, not a truncated list, not an error.
	children, err := el.Children(ctx)
	require.NoError(t, err)
	assert.Nil(t, children)
	assert.GreaterOrEqual(t, w.Sys.Stats().Truncations, uint64(1))

	// A sibling tree under the ceiling materializes in order.
	el2, node2 := w.Root(t, 101, "small")
	node2.AddChild(ax.RoleButton, "one")
	node2.AddChild(ax.RoleButton, "two")
	children, err = el2.Children(ctx)
	require.NoError(t, err)
	require.Len(t, children, 2)
	title, err := children[0].Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "one", title)
}

func TestValueCharacterCeiling(t *testing.T) {
	limits := ax.DefaultLimits()
	limits.MaxValueChars = 10
	w := testutil.NewWorldLimits(t, limits)
	el, node := w.Root(t, 100, "app")
	ctx := testutil.TestContext(t)

	node.SetAttr(ax.AttrNumberOfCharacters, int64(5000))
	node.SetAttr(ax.AttrValue, "pretend this is five thousand characters")

	v, err := el.Value(ctx)
	require.NoError(t, err)
	assert.True(t, v.IsAbsent())
	assert.GreaterOrEqual(t, w.Sys.Stats().Truncations, uint64(1))
}

func TestStaleElement(t *testing.T) {
	w := testutil.NewWorld(t)
	el, node := w.Root(t, 100, "app")
	ctx := testutil.TestContext(t)

	node.AddChild(ax.RoleWindow, "win")
	children, err := el.Children(ctx)
	require.NoError(t, err)
	require.Len(t, children, 1)

	w.Sim.Invalidate(node)

	_, err = el.Role(ctx)
	assert.True(t, ax.IsInvalidElement(err), "got %v", err)

	// Staleness reaches the whole subtree.
	_, err = children[0].Role(ctx)
	assert.True(t, ax.IsInvalidElement(err))

	assert.GreaterOrEqual(t, w.Sys.Stats().BoundaryErrors, uint64(2))
}

func TestAPIDisabled(t *testing.T) {
	w := testutil.NewWorld(t)
	el, _ := w.Root(t, 100, "app")
	ctx := testutil.TestContext(t)

	w.Sim.SetAPIDisabled(true)
	_, err := el.Role(ctx)
	assert.True(t, ax.IsAPIDisabled(err), "got %v", err)
}

func TestUnresponsiveTarget(t *testing.T) {
	w := testutil.NewWorld(t)
	el, node := w.Root(t, 100, "app")
	ctx := testutil.TestContext(t)

	node.SetUnresponsive(true)
	_, err := el.Role(ctx)
	assert.True(t, ax.IsTimeout(err), "got %v", err)
}

func TestUnknownStatusIsReturnedDefect(t *testing.T) {
	w := testutil.NewWorld(t)
	el, node := w.Root(t, 100, "app")
	ctx := testutil.TestContext(t)

	// Counting a non-array attribute is an illegal argument at the native
	// boundary, which classifies as an internal defect and must come back
	// as an error, not take the process down.
	node.SetAttr("AXWeird", int64(42))
	_, err := el.AttributeValueCount(ctx, "AXWeird")
	require.Error(t, err)
	assert.True(t, ax.IsInternal(err))
	assert.Equal(t, uint64(1), w.Sys.Stats().Defects)
}

func TestDetachedElement(t *testing.T) {
	ctx := testutil.TestContext(t)
	var zero ax.Element

	assert.False(t, zero.Valid())

	_, err := zero.Role(ctx)
	assert.True(t, ax.IsInvalidElement(err))
	_, err = zero.Children(ctx)
	assert.True(t, ax.IsInvalidElement(err))
	_, err = zero.Value(ctx)
	assert.True(t, ax.IsInvalidElement(err))
	err = zero.PerformAction(ctx, ax.ActionPress)
	assert.True(t, ax.IsInvalidElement(err))
}

func TestActions(t *testing.T) {
	w := testutil.NewWorld(t)
	el, node := w.Root(t, 100, "app")
	ctx := testutil.TestContext(t)

	node.AddAction(ax.ActionPress)
	node.AddAction(ax.ActionRaise)

	actions, err := el.ActionNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{ax.ActionPress, ax.ActionRaise}, actions)

	require.NoError(t, el.PerformAction(ctx, ax.ActionPress))
	assert.Equal(t, []string{ax.ActionPress}, node.Performed())

	// Unsupported action is expected absence.
	require.NoError(t, el.PerformAction(ctx, ax.ActionCancel))
	assert.Equal(t, []string{ax.ActionPress}, node.Performed())
}

func TestParameterizedAttribute(t *testing.T) {
	w := testutil.NewWorld(t)
	el, node := w.Root(t, 100, "app")
	ctx := testutil.TestContext(t)

	const text = "some message text"
	node.HandleParam(ax.ParamAttrStringForRange, func(param any) any {
		r, ok := param.(ax.Range)
		if !ok {
			return nil
		}
		return text[r.Location : r.Location+r.Length]
	})

	names, err := el.ParameterizedAttributeNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{ax.ParamAttrStringForRange}, names)

	v, err := el.ParameterizedAttributeValue(ctx, ax.ParamAttrStringForRange,
		ax.RangeValue(ax.Range{Location: 5, Length: 7}))
	require.NoError(t, err)
	assert.Equal(t, ax.StringValue("message"), v)

	_, err = el.ParameterizedAttributeValue(ctx, ax.ParamAttrRangeForLine, ax.IntValue(0))
	assert.Equal(t, ax.CodeParameterizedAttributeUnsupported, ax.ErrorCode(err))
}

func TestParentNavigation(t *testing.T) {
	w := testutil.NewWorld(t)
	el, node := w.Root(t, 100, "app")
	ctx := testutil.TestContext(t)

	node.AddChild(ax.RoleGroup, "").AddChild(ax.RoleButton, "ok")
	groups, err := el.Children(ctx)
	require.NoError(t, err)
	buttons, err := groups[0].Children(ctx)
	require.NoError(t, err)
	button := buttons[0]

	self, err := button.ParentAt(ctx, 0)
	require.NoError(t, err)
	same, err := self.Same(ctx, button)
	require.NoError(t, err)
	assert.True(t, same)

	parent, err := button.Parent(ctx)
	require.NoError(t, err)
	same, err = parent.Same(ctx, groups[0])
	require.NoError(t, err)
	assert.True(t, same)

	top, err := button.ParentAt(ctx, 2)
	require.NoError(t, err)
	same, err = top.Same(ctx, el)
	require.NoError(t, err)
	assert.True(t, same)

	// Climbing past the root resolves as absence.
	gone, err := button.ParentAt(ctx, 10)
	require.NoError(t, err)
	assert.False(t, gone.Valid())

	_, err = button.ParentAt(ctx, -1)
	assert.True(t, ax.IsInternal(err))
}

func TestLabelFallback(t *testing.T) {
	w := testutil.NewWorld(t)
	el, node := w.Root(t, 100, "titled")
	ctx := testutil.TestContext(t)

	label, err := el.Label(ctx)
	require.NoError(t, err)
	assert.Equal(t, "titled", label)

	child := node.AddChild(ax.RoleImage, "")
	child.SetAttr(ax.AttrDescription, "a chart")
	children, err := el.Children(ctx)
	require.NoError(t, err)
	label, err = children[0].Label(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a chart", label)
}

func TestContentsRelation(t *testing.T) {
	w := testutil.NewWorld(t)
	el, node := w.Root(t, 100, "app")
	ctx := testutil.TestContext(t)

	// No contents relation scripted: absent.
	contents, err := el.Contents(ctx)
	require.NoError(t, err)
	assert.Nil(t, contents)

	a := node.AddChild(ax.RoleGroup, "a")
	b := node.AddChild(ax.RoleGroup, "b")
	node.SetContents(b, a)

	contents, err = el.Contents(ctx)
	require.NoError(t, err)
	require.Len(t, contents, 2)
	title, err := contents[0].Title(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", title)
}

func TestSetAttributeRoundTrip(t *testing.T) {
	w := testutil.NewWorld(t)
	el, _ := w.Root(t, 100, "app")
	ctx := testutil.TestContext(t)

	require.NoError(t, el.SetAttributeValue(ctx, ax.AttrSelectedText, ax.StringValue("picked")))
	v, err := el.AttributeValue(ctx, ax.AttrSelectedText)
	require.NoError(t, err)
	assert.Equal(t, ax.StringValue("picked"), v)
}

func TestMessagingTimeoutAppliedAtCreation(t *testing.T) {
	limits := ax.DefaultLimits()
	limits.MessagingTimeout = 2 * time.Second
	w := testutil.NewWorldLimits(t, limits)
	_, node := w.Root(t, 100, "app")

	assert.Equal(t, 2*time.Second, node.MessagingTimeout())
}

func TestApplicationElementUnknownPID(t *testing.T) {
	w := testutil.NewWorld(t)
	ctx := testutil.TestContext(t)

	_, err := w.Sys.ApplicationElement(ctx, 9999)
	assert.True(t, ax.IsTimeout(err), "got %v", err)
}

func TestSystemWideElement(t *testing.T) {
	w := testutil.NewWorld(t)
	ctx := testutil.TestContext(t)

	el, err := w.Sys.SystemWideElement(ctx)
	require.NoError(t, err)
	require.True(t, el.Valid())
	role, err := el.Role(ctx)
	require.NoError(t, err)
	assert.Equal(t, ax.RoleSystemWide, role)
}
