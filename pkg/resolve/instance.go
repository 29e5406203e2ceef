// Package resolve turns compiled templates into callable instances: it
// clones a template's IR module into a dedicated execution context,
// optionally optimizes and verifies it, links in the closure module and
// every other dependency, JIT-compiles it and hands back a callable
// function pointer.
package resolve

import (
	"fmt"
	"unsafe"

	"github.com/ckod3/Tiny-Shading-Language/pkg/ast"
	"tinygo.org/x/go-llvm"
)

// Instance is a resolved, JIT-compiled shader owning an execution engine
// (which in turn owns the cloned module) and the address of its entry
// function. Many instances may coexist per template.
type Instance struct {
	Name string
	Args []ast.ShaderArgument

	engine llvm.ExecutionEngine
	ctx    llvm.Context
	// ownsCtx is false when cross-context cloning is unsupported and every
	// instance shares the resolver's one fallback context, which is never
	// disposed.
	ownsCtx bool
	addr    unsafe.Pointer
	// thunkAddr is the uniform-signature invoke thunk emitted alongside
	// the entry function when every exposed argument is a scalar float;
	// nil otherwise. See emitFloatThunk.
	thunkAddr unsafe.Pointer
}

// FunctionPointer returns the JIT-compiled entry function's address,
// suitable for casting (via cgo) to the shader's native ABI signature:
// in arguments by value, out arguments by pointer, trailing tsl_global*.
func (in *Instance) FunctionPointer() unsafe.Pointer {
	return in.addr
}

// InvokeFloats calls a resolved instance whose every exposed argument is a
// scalar float, through the instance's uniform invoke thunk: "in"
// arguments are taken positionally from ins in declaration order; "out"
// arguments are written into the returned slice in declaration order. The
// trailing tsl_global* argument every shader and group wrapper carries is
// passed as a nil pointer, which is safe as long as the invoked code never
// calls an extern that dereferences it.
func (in *Instance) InvokeFloats(ins []float32) ([]float32, error) {
	if in.thunkAddr == nil {
		return nil, fmt.Errorf("tsl: instance %q has a non-float argument, call FunctionPointer directly", in.Name)
	}
	//
	wantIns := 0
	outs := 0
	for _, a := range in.Args {
		if a.Direction == ast.DirOut {
			outs++
		} else {
			wantIns++
		}
	}
	if len(ins) != wantIns {
		return nil, fmt.Errorf("tsl: instance %q expects %d in argument(s), got %d", in.Name, wantIns, len(ins))
	}
	//
	results := make([]float32, outs)
	callFloatThunk(in.thunkAddr, ins, results)
	return results, nil
}

// InvokeClosure calls a resolved instance whose single exposed argument is
// an out closure, returning the closure-tree node pointer the shader
// wrote. The trailing tsl_global* is passed as nil, as with InvokeFloats.
func (in *Instance) InvokeClosure() (unsafe.Pointer, error) {
	if len(in.Args) != 1 || in.Args[0].Type != ast.TypeClosure || in.Args[0].Direction != ast.DirOut {
		return nil, fmt.Errorf("tsl: instance %q does not take a single out closure argument", in.Name)
	}
	return callClosureOut(in.addr), nil
}

// Dispose releases the instance's execution engine, its cloned module, and
// its dedicated LLVM context. Safe to call once the function pointer is no
// longer in use.
func (in *Instance) Dispose() {
	in.engine.Dispose()
	if in.ownsCtx {
		in.ctx.Dispose()
	}
}
