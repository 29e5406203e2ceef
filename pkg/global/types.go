// Package global declares the IR types and host-provided external function
// prototypes that every compiled shader shares: the closure-tree node
// variants with their pinned byte layouts, the built-in
// float3/float4/matrix aggregates, the opaque tsl_global context struct,
// and the shading-math runtime's prototypes.
package global

import (
	"sync"

	"github.com/ckod3/Tiny-Shading-Language/pkg/ast"
	"tinygo.org/x/go-llvm"
)

// TypeSet is the shared type vocabulary for one LLVM context. Every field
// here is a context-scoped LLVM type; it is safe to reuse the same
// TypeSet across every module created within one llvm.Context (LLVM
// types, unlike declarations, are not module-scoped), so Declare memoizes
// one TypeSet per context instead of rebuilding the structs for every
// module or clone.
type TypeSet struct {
	Ctx llvm.Context

	Void   llvm.Type
	I1     llvm.Type
	I32    llvm.Type
	F32    llvm.Type
	F64    llvm.Type
	Ptr    llvm.Type // i8*, the generic pointer used for closure nodes
	Float3 llvm.Type
	Float4 llvm.Type
	Matrix llvm.Type // 4x4, row-major, 16 floats

	// ClosureBase/Add/Mul mirror the closure-tree wire format shared with
	// the host. The Add variant's explicit 4-byte pad field keeps it
	// 8-byte aligned ahead of the two pointer fields, matching the host's
	// layout bit-for-bit.
	ClosureBase llvm.Type
	ClosureAdd  llvm.Type
	ClosureMul  llvm.Type

	// TSLGlobal is the opaque host-defined context struct; shaders only
	// ever see a pointer to it, trailing every shader function's
	// argument list.
	TSLGlobal llvm.Type
}

// LLVMType maps a shader BaseType to its IR representation.
func (ts *TypeSet) LLVMType(t ast.BaseType) llvm.Type {
	switch t {
	case ast.TypeVoid:
		return ts.Void
	case ast.TypeInt:
		return ts.I32
	case ast.TypeFloat:
		return ts.F32
	case ast.TypeDouble:
		return ts.F64
	case ast.TypeBool:
		return ts.I1
	case ast.TypeFloat3:
		return ts.Float3
	case ast.TypeFloat4:
		return ts.Float4
	case ast.TypeMatrix:
		return ts.Matrix
	case ast.TypeClosure:
		return ts.Ptr
	default:
		panic("tsl: unmapped base type " + t.String())
	}
}

var (
	cacheMu sync.Mutex
	cache   = map[llvm.Context]*TypeSet{}
)

// Declare returns the memoized TypeSet for ctx, building it the first time
// this context is seen.
func Declare(ctx llvm.Context) *TypeSet {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	//
	if ts, ok := cache[ctx]; ok {
		return ts
	}
	//
	ts := build(ctx)
	cache[ctx] = ts
	return ts
}

// Forget drops the memoized TypeSet for ctx. Called when a pooled compile
// driver disposes of its context, so the cache does not grow without bound
// across the lifetime of a long-running ShadingContext.
func Forget(ctx llvm.Context) {
	cacheMu.Lock()
	defer cacheMu.Unlock()
	delete(cache, ctx)
}

func build(ctx llvm.Context) *TypeSet {
	ts := &TypeSet{Ctx: ctx}
	//
	ts.Void = ctx.VoidType()
	ts.I1 = ctx.Int1Type()
	ts.I32 = ctx.Int32Type()
	ts.F32 = ctx.FloatType()
	ts.F64 = ctx.DoubleType()
	ts.Ptr = llvm.PointerType(ctx.Int8Type(), 0)
	//
	ts.Float3 = ctx.StructCreateNamed("tsl.float3")
	ts.Float3.StructSetBody([]llvm.Type{ts.F32, ts.F32, ts.F32}, false)
	//
	ts.Float4 = ctx.StructCreateNamed("tsl.float4")
	ts.Float4.StructSetBody([]llvm.Type{ts.F32, ts.F32, ts.F32, ts.F32}, false)
	//
	ts.Matrix = ctx.StructCreateNamed("tsl.matrix")
	ts.Matrix.StructSetBody([]llvm.Type{llvm.ArrayType(ts.F32, 16)}, false)
	//
	ts.ClosureBase = ctx.StructCreateNamed("tsl.closure.base")
	ts.ClosureBase.StructSetBody([]llvm.Type{ts.I32}, false)
	//
	ts.ClosureAdd = ctx.StructCreateNamed("tsl.closure.add")
	ts.ClosureAdd.StructSetBody([]llvm.Type{ts.I32, ts.I32, ts.Ptr, ts.Ptr}, false)
	//
	ts.ClosureMul = ctx.StructCreateNamed("tsl.closure.mul")
	ts.ClosureMul.StructSetBody([]llvm.Type{ts.I32, ts.F32, ts.Ptr}, false)
	//
	ts.TSLGlobal = ctx.StructCreateNamed("tsl.global")
	ts.TSLGlobal.StructSetBody(nil, false)
	//
	return ts
}

// TSLGlobalPtr returns the pointer-to-tsl_global type trailing every
// shader function's signature.
func (ts *TypeSet) TSLGlobalPtr() llvm.Type {
	return llvm.PointerType(ts.TSLGlobal, 0)
}
