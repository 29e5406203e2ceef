package ast

import "github.com/ckod3/Tiny-Shading-Language/pkg/source"

// Node is the common interface satisfied by every AST node kind the parser
// frontend produces.
type Node interface {
	Span() source.Span
}

// Handle is a non-owning, stable reference to a node stored in an Arena:
// an index into the arena's slot pool rather than a raw pointer. The
// generation field detects use of a handle after its owning region has
// been popped, which a raw-pointer design could not detect at all.
type Handle struct {
	index      int
	generation uint32
}

// Invalid is the handle that references no node: its index is -1, so no
// node is ever allocated at this value.
var Invalid = Handle{index: -1}

// IsValid reports whether this handle could possibly reference a node.
func (h Handle) IsValid() bool {
	return h.index >= 0
}

const permanentRegion = -1

type slot struct {
	node       Node
	generation uint32
	// owner identifies which region index (into Arena.regions) currently
	// owns this slot, or permanentRegion if Transfer moved it out of the
	// region stack, or -2 if the slot is free.
	owner int
}

const freeSlot = -2

// region is a scope pushed by EnterRegion; it records which slot indices it
// owns so LeaveRegion can free exactly those, regardless of how many
// non-owning Handles still reference them.
type region struct {
	owned []int
}

// Arena is a scope-pushed pool of AST nodes. Nodes are owned by the
// region that was topmost when they were allocated and are freed in bulk
// when that region is popped, so the parser never tracks exact ownership
// of nodes shared between its driver lists and parent expressions. A
// single Arena must never be shared across goroutines; the compile
// driver owns one per in-flight compile.
type Arena struct {
	slots   []slot
	regions []*region
	free    []int
}

// NewArena constructs an empty arena with no regions pushed.
func NewArena() *Arena {
	return &Arena{}
}

// EnterRegion pushes a new, empty region onto this arena's region stack.
// Every node allocated while this region is the topmost one is owned
// exclusively by it.
func (a *Arena) EnterRegion() {
	a.regions = append(a.regions, &region{})
}

// Depth returns how many regions are currently pushed.
func (a *Arena) Depth() int {
	return len(a.regions)
}

// LeaveRegion pops the topmost region and frees every node it owns. Any
// Handle into a freed slot becomes permanently invalid (Get will report
// !ok), even if other Handles still exist pointing at the same index;
// the generation counter ensures they don't alias a later allocation.
func (a *Arena) LeaveRegion() {
	n := len(a.regions)
	if n == 0 {
		panic("tsl: LeaveRegion called with no region on the stack")
	}
	//
	top := a.regions[n-1]
	a.regions = a.regions[:n-1]
	//
	for _, idx := range top.owned {
		if a.slots[idx].owner == permanentRegion {
			// Transferred out: the node now outlives every region.
			continue
		}
		a.slots[idx].node = nil
		a.slots[idx].generation++
		a.slots[idx].owner = freeSlot
		a.free = append(a.free, idx)
	}
}

// Alloc registers a new node with the topmost region and returns a stable
// handle to it.
func (a *Arena) Alloc(node Node) Handle {
	depth := len(a.regions)
	if depth == 0 {
		panic("tsl: Alloc called with no region entered")
	}
	//
	var idx int
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[idx].node = node
		a.slots[idx].owner = depth - 1
	} else {
		idx = len(a.slots)
		a.slots = append(a.slots, slot{node: node, owner: depth - 1})
	}
	//
	top := a.regions[depth-1]
	top.owned = append(top.owned, idx)
	//
	return Handle{index: idx, generation: a.slots[idx].generation}
}

// Get resolves a handle to its node. It succeeds iff the node is still
// owned by some region on the stack (or has been transferred out via
// Transfer) and the handle's generation matches, i.e. the region that
// allocated it has not since been popped.
func (a *Arena) Get(h Handle) (Node, bool) {
	if !h.IsValid() || h.index >= len(a.slots) {
		return nil, false
	}
	//
	s := a.slots[h.index]
	if s.owner == freeSlot || s.generation != h.generation {
		return nil, false
	}
	//
	return s.node, true
}

// Transfer moves ownership of a node out of the arena's region stack
// entirely, so that it survives every subsequent LeaveRegion. This is how
// a compiled template retains its AST root after the compile's region has
// been popped. The handle itself is unchanged and remains valid to Get
// after transfer.
func (a *Arena) Transfer(h Handle) bool {
	if !h.IsValid() || h.index >= len(a.slots) {
		return false
	}
	//
	s := &a.slots[h.index]
	if s.owner == freeSlot || s.generation != h.generation {
		return false
	}
	//
	s.owner = permanentRegion
	//
	return true
}
