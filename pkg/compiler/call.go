package compiler

import (
	"fmt"

	"github.com/ckod3/Tiny-Shading-Language/pkg/ast"
	"tinygo.org/x/go-llvm"
)

// externReturnTypes records the TSL BaseType each declared math extern
// returns, since Externs only carries the LLVM declaration.
var externReturnTypes = map[string]ast.BaseType{
	"sinf":           ast.TypeFloat,
	"cosf":           ast.TypeFloat,
	"sqrtf":          ast.TypeFloat,
	"fabsf":          ast.TypeFloat,
	"powf":           ast.TypeFloat,
	"tsl_dot3":       ast.TypeFloat,
	"tsl_normalize3": ast.TypeFloat3,
	"tsl_cross3":     ast.TypeFloat3,
}

// genCall lowers a call expression: a closure-constructor invocation
// (n.Closure set), a vector constructor ("float3(x, y, z)" and similarly
// for float4), a call to another function declared in this compile, or a
// call into the host math-runtime externs.
func (g *generator) genCall(n *ast.Call) (llvm.Value, ast.BaseType, error) {
	if n.Closure != "" {
		return g.genClosureCall(n)
	}
	if t, ok := ast.ParseBaseType(n.Name); ok && t.IsAggregate() {
		return g.genVectorConstructor(n, t)
	}
	if fd, ok := g.funcs[n.Name]; ok {
		return g.genFreeCall(n, fd)
	}
	if fn, ok := g.externs.Lookup(n.Name); ok {
		return g.genExternCall(n, fn)
	}
	//
	g.cctx.ReportError(n.Span(), "call to undeclared function %q", n.Name)
	return llvm.Value{}, ast.TypeVoid, fmt.Errorf("tsl: call to undeclared function %q", n.Name)
}

func (g *generator) genClosureCall(n *ast.Call) (llvm.Value, ast.BaseType, error) {
	ctor, ok := g.ctors[n.Closure]
	if !ok {
		g.cctx.ReportError(n.Span(), "closure %q was not declared for this shader", n.Closure)
		return llvm.Value{}, ast.TypeVoid, fmt.Errorf("tsl: undeclared closure %q", n.Closure)
	}
	//
	paramTypes := ctor.Type().ElementType().ParamTypes()
	//
	args, err := g.genArgs(n, paramTypes)
	if err != nil {
		return llvm.Value{}, ast.TypeVoid, err
	}
	//
	call := g.builder.CreateCall(ctor, args, "closure")
	return call, ast.TypeClosure, nil
}

func (g *generator) genFreeCall(n *ast.Call, fd funcDecl) (llvm.Value, ast.BaseType, error) {
	if len(n.Args) != len(fd.fn.Params) {
		g.cctx.ReportError(n.Span(), "%q expects %d arguments, got %d", n.Name, len(fd.fn.Params), len(n.Args))
		return llvm.Value{}, ast.TypeVoid, fmt.Errorf("tsl: argument count mismatch calling %q", n.Name)
	}
	//
	args := make([]llvm.Value, len(n.Args))
	for i, a := range n.Args {
		val, typ, err := g.genExpr(a)
		if err != nil {
			return llvm.Value{}, ast.TypeVoid, err
		}
		//
		param := fd.fn.Params[i]
		if param.Type.IsAggregate() {
			if typ != param.Type {
				g.cctx.ReportError(n.Span(), "argument %d of %q is %s, expected %s", i+1, n.Name, typ, param.Type)
				return llvm.Value{}, ast.TypeVoid, fmt.Errorf("tsl: type mismatch calling %q", n.Name)
			}
			// Free-function parameters pass aggregates by pointer;
			// materialize an addressable temporary holding the evaluated
			// argument.
			tmp := g.builder.CreateAlloca(g.types.LLVMType(typ), "arg.tmp")
			g.builder.CreateStore(val, tmp)
			args[i] = tmp
		} else {
			args[i] = g.coerce(val, typ, param.Type, n.Span())
		}
	}
	//
	call := g.builder.CreateCall(fd.val, args, callResultName(fd.fn.ReturnType))
	return call, fd.fn.ReturnType, nil
}

func (g *generator) genExternCall(n *ast.Call, fn llvm.Value) (llvm.Value, ast.BaseType, error) {
	paramTypes := fn.Type().ElementType().ParamTypes()
	//
	args, err := g.genArgs(n, paramTypes)
	if err != nil {
		return llvm.Value{}, ast.TypeVoid, err
	}
	//
	retType := externReturnTypes[n.Name]
	call := g.builder.CreateCall(fn, args, callResultName(retType))
	return call, retType, nil
}

// genVectorConstructor lowers "float3(a, b, c)" / "float4(a, b, c, d)" by
// evaluating each component and inserting it into an undef aggregate.
func (g *generator) genVectorConstructor(n *ast.Call, t ast.BaseType) (llvm.Value, ast.BaseType, error) {
	want := aggregateLanes(t)
	if len(n.Args) != want {
		g.cctx.ReportError(n.Span(), "%s constructor expects %d arguments, got %d", t, want, len(n.Args))
		return llvm.Value{}, ast.TypeVoid, fmt.Errorf("tsl: wrong arity for %s constructor", t)
	}
	//
	result := llvm.Undef(g.types.LLVMType(t))
	for i, a := range n.Args {
		val, typ, err := g.genExpr(a)
		if err != nil {
			return llvm.Value{}, ast.TypeVoid, err
		}
		val = g.coerce(val, typ, ast.TypeFloat, n.Span())
		result = g.builder.CreateInsertValue(result, val, i, "lane")
	}
	return result, t, nil
}

// genArgs evaluates every call argument and coerces scalars to the
// declared LLVM parameter type, used for closure constructors and
// extern math calls whose TSL-level parameter types are implicit in
// their LLVM signature rather than carried on an *ast.FunctionDecl.
func (g *generator) genArgs(n *ast.Call, paramTypes []llvm.Type) ([]llvm.Value, error) {
	if len(n.Args) != len(paramTypes) {
		g.cctx.ReportError(n.Span(), "%q expects %d arguments, got %d", callName(n), len(paramTypes), len(n.Args))
		return nil, fmt.Errorf("tsl: argument count mismatch calling %q", callName(n))
	}
	//
	args := make([]llvm.Value, len(n.Args))
	for i, a := range n.Args {
		val, typ, err := g.genExpr(a)
		if err != nil {
			return nil, err
		}
		args[i] = g.coerceLLVM(val, typ, paramTypes[i])
	}
	return args, nil
}

// coerceLLVM applies the one implicit conversion call sites need that
// coerce (which works in TSL BaseType terms) cannot express directly: an
// int literal argument passed where an f32 parameter is declared.
func (g *generator) coerceLLVM(val llvm.Value, from ast.BaseType, want llvm.Type) llvm.Value {
	if want.TypeKind() == llvm.FloatTypeKind && from == ast.TypeInt {
		return g.builder.CreateSIToFP(val, want, "i2f")
	}
	return val
}

func callName(n *ast.Call) string {
	if n.Closure != "" {
		return n.Closure
	}
	return n.Name
}

func callResultName(t ast.BaseType) string {
	if t == ast.TypeVoid {
		return ""
	}
	return "call"
}
