package ast

import (
	"testing"

	"github.com/ckod3/Tiny-Shading-Language/pkg/source"
	"github.com/stretchr/testify/require"
)

func TestArenaRegionOwnsAndFreesItsNodes(t *testing.T) {
	a := NewArena()
	a.EnterRegion()

	h := a.Alloc(NewIdent("x", source.NewSpan(0, 1)))
	node, ok := a.Get(h)
	require.True(t, ok)
	require.Equal(t, "x", node.(*Ident).Name)

	a.LeaveRegion()

	_, ok = a.Get(h)
	require.False(t, ok, "handle must become invalid once its region is popped")
}

func TestArenaHandleDoesNotAliasLaterAllocation(t *testing.T) {
	a := NewArena()
	a.EnterRegion()
	h1 := a.Alloc(NewIdent("first", source.NewSpan(0, 1)))
	a.LeaveRegion()

	a.EnterRegion()
	h2 := a.Alloc(NewIdent("second", source.NewSpan(1, 2)))

	// h1 and h2 may share the same freed slot index, but must not compare
	// as the same handle nor resolve to each other's node.
	_, ok := a.Get(h1)
	require.False(t, ok)

	node2, ok := a.Get(h2)
	require.True(t, ok)
	require.Equal(t, "second", node2.(*Ident).Name)
	a.LeaveRegion()
}

func TestArenaNestedRegionsOnlyFreeTheTopmost(t *testing.T) {
	a := NewArena()
	a.EnterRegion()
	outer := a.Alloc(NewIdent("outer", source.NewSpan(0, 1)))

	a.EnterRegion()
	inner := a.Alloc(NewIdent("inner", source.NewSpan(1, 2)))
	require.Equal(t, 2, a.Depth())
	a.LeaveRegion()

	_, ok := a.Get(inner)
	require.False(t, ok, "inner region's node must be freed")

	node, ok := a.Get(outer)
	require.True(t, ok, "outer region's node must survive popping the inner region")
	require.Equal(t, "outer", node.(*Ident).Name)

	a.LeaveRegion()
	require.Equal(t, 0, a.Depth())
}

func TestArenaTransferSurvivesLeaveRegion(t *testing.T) {
	a := NewArena()
	a.EnterRegion()
	h := a.Alloc(NewIdent("root", source.NewSpan(0, 1)))

	ok := a.Transfer(h)
	require.True(t, ok)

	a.LeaveRegion()

	node, ok := a.Get(h)
	require.True(t, ok, "a transferred node must survive its region being popped")
	require.Equal(t, "root", node.(*Ident).Name)
}

func TestArenaTransferOfInvalidHandleFails(t *testing.T) {
	a := NewArena()
	require.False(t, a.Transfer(Invalid))
}

func TestArenaAllocWithoutRegionPanics(t *testing.T) {
	a := NewArena()
	require.Panics(t, func() {
		a.Alloc(NewIdent("x", source.NewSpan(0, 1)))
	})
}

func TestArenaLeaveRegionWithoutEnterPanics(t *testing.T) {
	a := NewArena()
	require.Panics(t, func() {
		a.LeaveRegion()
	})
}

func TestInvalidHandleIsNotValid(t *testing.T) {
	require.False(t, Invalid.IsValid())
}
