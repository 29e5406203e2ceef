package closure

import (
	"fmt"
	"unsafe"

	"github.com/ckod3/Tiny-Shading-Language/pkg/global"
	"tinygo.org/x/go-llvm"
)

// The Go mirrors below exist purely to pin, at the language level, the
// exact byte layouts of the closure-tree ABI shared with the host
// renderer. They are never allocated by this package (closure nodes are
// always allocated by the host's make_closure_<name> implementations);
// their only purpose is to let AssertLayout fail loudly at process
// start-up if a future change to field order or types would silently
// break wire compatibility with the host.
type baseLayout struct {
	ID int32
}

type addLayout struct {
	ID          int32
	_           int32 // explicit 4-byte pad keeping the pointers 8-byte aligned
	Left, Right unsafe.Pointer
}

type mulLayout struct {
	ID     int32
	Weight float32
	Child  unsafe.Pointer
}

// Pinned wire-format sizes, assuming a 64-bit host (8-byte pointers). A
// 32-bit host would need its own pinned constants; this engine does not
// target one.
const (
	expectedBaseSize = 4
	expectedAddSize  = 24
	expectedMulSize  = 16
)

// AssertLayout panics if this process's struct layout rules would produce
// closure-tree nodes incompatible with the fixed wire format the host
// reads. It is called once from ShadingContext construction, before any
// shader compiles.
func AssertLayout() {
	if s := unsafe.Sizeof(baseLayout{}); s != expectedBaseSize {
		panic(fmt.Sprintf("tsl: closure Base layout is %d bytes, expected %d", s, expectedBaseSize))
	}
	if s := unsafe.Sizeof(addLayout{}); s != expectedAddSize {
		panic(fmt.Sprintf("tsl: closure Add layout is %d bytes, expected %d", s, expectedAddSize))
	}
	if off := unsafe.Offsetof(addLayout{}.Left); off != 8 {
		panic(fmt.Sprintf("tsl: closure Add.left is at offset %d, expected 8", off))
	}
	if s := unsafe.Sizeof(mulLayout{}); s != expectedMulSize {
		panic(fmt.Sprintf("tsl: closure Mul layout is %d bytes, expected %d", s, expectedMulSize))
	}
	if off := unsafe.Offsetof(mulLayout{}.Child); off != 8 {
		panic(fmt.Sprintf("tsl: closure Mul.child is at offset %d, expected 8", off))
	}
}

// VerifyIRLayout is the JIT-side counterpart of AssertLayout: it measures
// the closure-tree struct types as an execution engine's target data lays
// them out and reports any disagreement with the wire format above.
// AssertLayout proves the Go host sees the pinned layout; this proves the
// code the engine emits sees the same one, so a node built by JIT-compiled
// code and read by the host (or vice versa) can never shear.
func VerifyIRLayout(td llvm.TargetData, ts *global.TypeSet) error {
	if s := td.TypeAllocSize(ts.ClosureBase); s != expectedBaseSize {
		return fmt.Errorf("tsl: IR closure Base layout is %d bytes, expected %d", s, expectedBaseSize)
	}
	if s := td.TypeAllocSize(ts.ClosureAdd); s != expectedAddSize {
		return fmt.Errorf("tsl: IR closure Add layout is %d bytes, expected %d", s, expectedAddSize)
	}
	// Field 1 is the explicit i32 pad, so the two child pointers sit at
	// elements 2 and 3.
	if off := td.ElementOffset(ts.ClosureAdd, 2); off != 8 {
		return fmt.Errorf("tsl: IR closure Add.left is at offset %d, expected 8", off)
	}
	if off := td.ElementOffset(ts.ClosureAdd, 3); off != 16 {
		return fmt.Errorf("tsl: IR closure Add.right is at offset %d, expected 16", off)
	}
	if s := td.TypeAllocSize(ts.ClosureMul); s != expectedMulSize {
		return fmt.Errorf("tsl: IR closure Mul layout is %d bytes, expected %d", s, expectedMulSize)
	}
	if off := td.ElementOffset(ts.ClosureMul, 1); off != 4 {
		return fmt.Errorf("tsl: IR closure Mul.weight is at offset %d, expected 4", off)
	}
	if off := td.ElementOffset(ts.ClosureMul, 2); off != 8 {
		return fmt.Errorf("tsl: IR closure Mul.child is at offset %d, expected 8", off)
	}
	return nil
}
