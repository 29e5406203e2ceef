package compiler

import (
	"fmt"

	"github.com/ckod3/Tiny-Shading-Language/pkg/ast"
	"github.com/ckod3/Tiny-Shading-Language/pkg/source"
	"tinygo.org/x/go-llvm"
)

// genExpr lowers an expression, returning the value it evaluates to (fully
// loaded, never a bare storage pointer) and its TSL type.
func (g *generator) genExpr(h ast.Handle) (llvm.Value, ast.BaseType, error) {
	node, ok := g.cctx.Node(h)
	if !ok {
		return llvm.Value{}, ast.TypeVoid, fmt.Errorf("tsl: dangling expression handle")
	}
	//
	switch n := node.(type) {
	case *ast.Literal:
		return g.buildConstant(n.Value), n.Value.Type, nil
	case *ast.Ident:
		return g.genIdentLoad(n)
	case *ast.Binary:
		return g.genBinary(n)
	case *ast.Unary:
		return g.genUnary(n)
	case *ast.Call:
		return g.genCall(n)
	case *ast.Member:
		return g.genMemberLoad(h)
	default:
		g.cctx.ReportError(node.Span(), "unsupported expression")
		return llvm.Value{}, ast.TypeVoid, fmt.Errorf("tsl: unsupported expression")
	}
}

// genLValue resolves an assignable expression to its storage pointer.
func (g *generator) genLValue(h ast.Handle) (llvm.Value, ast.BaseType, bool) {
	node, ok := g.cctx.Node(h)
	if !ok {
		return llvm.Value{}, ast.TypeVoid, false
	}
	//
	switch n := node.(type) {
	case *ast.Ident:
		sym, ptr, ok := g.resolveIdent(n.Name)
		if !ok {
			g.cctx.ReportError(n.Span(), "undefined identifier %q", n.Name)
			return llvm.Value{}, ast.TypeVoid, false
		}
		return ptr, sym, true
	case *ast.Member:
		targetPtr, targetType, ok := g.genLValue(n.Target)
		if !ok {
			return llvm.Value{}, ast.TypeVoid, false
		}
		idx, compType, ok := swizzleIndex(targetType, n.Field)
		if !ok {
			g.cctx.ReportError(n.Span(), "no field %q on type %s", n.Field, targetType)
			return llvm.Value{}, ast.TypeVoid, false
		}
		ptr := g.builder.CreateStructGEP(targetPtr, idx, n.Field)
		return ptr, compType, true
	default:
		g.cctx.ReportError(node.Span(), "expression is not assignable")
		return llvm.Value{}, ast.TypeVoid, false
	}
}

// resolveIdent looks a name up first in the local scope stack, then among
// this compile's module-level globals, returning its storage pointer.
func (g *generator) resolveIdent(name string) (ast.BaseType, llvm.Value, bool) {
	if sym, ok := g.scopes.lookup(name); ok {
		return sym.typ, sym.ptr, true
	}
	if ptr, ok := g.globals[name]; ok {
		return globalType(ptr), ptr, true
	}
	return ast.TypeVoid, llvm.Value{}, false
}

// globalType recovers a global's TSL BaseType from its pointee LLVM type.
// Globals are declared once by genGlobal and never change type, so a
// reverse lookup against the shared TypeSet is unambiguous in practice;
// callers only reach here for assignment/read of a declared global.
func globalType(gv llvm.Value) ast.BaseType {
	elemTy := gv.Type().ElementType()
	switch elemTy.TypeKind() {
	case llvm.FloatTypeKind:
		return ast.TypeFloat
	case llvm.DoubleTypeKind:
		return ast.TypeDouble
	case llvm.IntegerTypeKind:
		if elemTy.IntTypeWidth() == 1 {
			return ast.TypeBool
		}
		return ast.TypeInt
	default:
		// Struct-typed globals: distinguished by field count, matching the
		// aggregate layouts genGlobal can produce (float3/float4/matrix).
		switch len(elemTy.StructElementTypes()) {
		case 3:
			return ast.TypeFloat3
		case 4:
			return ast.TypeFloat4
		default:
			return ast.TypeMatrix
		}
	}
}

func (g *generator) genIdentLoad(n *ast.Ident) (llvm.Value, ast.BaseType, error) {
	typ, ptr, ok := g.resolveIdent(n.Name)
	if !ok {
		g.cctx.ReportError(n.Span(), "undefined identifier %q", n.Name)
		return llvm.Value{}, ast.TypeVoid, fmt.Errorf("tsl: undefined identifier %q", n.Name)
	}
	val := g.builder.CreateLoad(ptr, n.Name)
	return val, typ, nil
}

func (g *generator) genMemberLoad(h ast.Handle) (llvm.Value, ast.BaseType, error) {
	ptr, typ, ok := g.genLValue(h)
	if !ok {
		return llvm.Value{}, ast.TypeVoid, fmt.Errorf("tsl: invalid member access")
	}
	return g.builder.CreateLoad(ptr, "member"), typ, nil
}

// swizzleIndex maps a single-letter field name to its component index
// within a float3/float4 aggregate, accepting both the x/y/z/w and
// r/g/b/a spellings.
func swizzleIndex(t ast.BaseType, field string) (int, ast.BaseType, bool) {
	if (t != ast.TypeFloat3 && t != ast.TypeFloat4) || len(field) != 1 {
		return 0, ast.TypeVoid, false
	}
	//
	max := 3
	if t == ast.TypeFloat4 {
		max = 4
	}
	//
	var idx int
	switch field[0] {
	case 'x', 'r':
		idx = 0
	case 'y', 'g':
		idx = 1
	case 'z', 'b':
		idx = 2
	case 'w', 'a':
		idx = 3
	default:
		return 0, ast.TypeVoid, false
	}
	if idx >= max {
		return 0, ast.TypeVoid, false
	}
	return idx, ast.TypeFloat, true
}

// buildConstant materializes a literal Value as an LLVM constant.
func (g *generator) buildConstant(v ast.Value) llvm.Value {
	switch v.Type {
	case ast.TypeInt:
		return llvm.ConstInt(g.types.I32, uint64(v.Int), true)
	case ast.TypeFloat:
		return llvm.ConstFloat(g.types.F32, v.Float)
	case ast.TypeDouble:
		return llvm.ConstFloat(g.types.F64, v.Float)
	case ast.TypeBool:
		if v.Bool {
			return llvm.ConstInt(g.types.I1, 1, false)
		}
		return llvm.ConstInt(g.types.I1, 0, false)
	case ast.TypeFloat3:
		return g.buildVectorConst(g.types.Float3, v.Vector[:3])
	case ast.TypeFloat4:
		return g.buildVectorConst(g.types.Float4, v.Vector[:4])
	case ast.TypeMatrix:
		lanes := make([]llvm.Value, 16)
		for i := range lanes {
			lanes[i] = llvm.ConstFloat(g.types.F32, v.Matrix[i])
		}
		arr := llvm.ConstArray(g.types.F32, lanes)
		return llvm.ConstNamedStruct(g.types.Matrix, []llvm.Value{arr})
	default:
		return llvm.ConstNull(g.types.LLVMType(v.Type))
	}
}

func (g *generator) buildVectorConst(structTy llvm.Type, comps []float64) llvm.Value {
	lanes := make([]llvm.Value, len(comps))
	for i, c := range comps {
		lanes[i] = llvm.ConstFloat(g.types.F32, c)
	}
	return llvm.ConstNamedStruct(structTy, lanes)
}

// coerce converts val (of type from) to type to, when the implicit
// numeric conversions TSL allows make that sound: int<->float<->double
// widen/narrow freely, matching a typical shading language's relaxed
// arithmetic. Aggregate and closure types are never coerced.
func (g *generator) coerce(val llvm.Value, from, to ast.BaseType, span source.Span) llvm.Value {
	if from == to {
		return val
	}
	//
	switch {
	case from == ast.TypeInt && to == ast.TypeFloat:
		return g.builder.CreateSIToFP(val, g.types.F32, "i2f")
	case from == ast.TypeInt && to == ast.TypeDouble:
		return g.builder.CreateSIToFP(val, g.types.F64, "i2d")
	case from == ast.TypeFloat && to == ast.TypeInt:
		return g.builder.CreateFPToSI(val, g.types.I32, "f2i")
	case from == ast.TypeFloat && to == ast.TypeDouble:
		return g.builder.CreateFPExt(val, g.types.F64, "f2d")
	case from == ast.TypeDouble && to == ast.TypeFloat:
		return g.builder.CreateFPTrunc(val, g.types.F32, "d2f")
	case from == ast.TypeDouble && to == ast.TypeInt:
		return g.builder.CreateFPToSI(val, g.types.I32, "d2i")
	case from == ast.TypeBool && to == ast.TypeInt:
		return g.builder.CreateZExt(val, g.types.I32, "b2i")
	default:
		g.cctx.ReportError(span, "cannot convert %s to %s", from, to)
		return val
	}
}

func (g *generator) genUnary(n *ast.Unary) (llvm.Value, ast.BaseType, error) {
	operand, typ, err := g.genExpr(n.Operand)
	if err != nil {
		return llvm.Value{}, ast.TypeVoid, err
	}
	//
	if typ == ast.TypeClosure {
		g.cctx.ReportError(n.Span(), "operator %q is not defined for closure values", n.Op)
		return llvm.Value{}, ast.TypeVoid, fmt.Errorf("tsl: operator %q is not defined for closure values", n.Op)
	}
	//
	switch n.Op {
	case "-":
		if aggregateLanes(typ) > 0 {
			return g.mapLanes(operand, typ, func(lane llvm.Value) llvm.Value {
				return g.builder.CreateFNeg(lane, "neg")
			}), typ, nil
		}
		if typ == ast.TypeInt {
			return g.builder.CreateNeg(operand, "neg"), typ, nil
		}
		if typ == ast.TypeFloat || typ == ast.TypeDouble {
			return g.builder.CreateFNeg(operand, "neg"), typ, nil
		}
		g.cctx.ReportError(n.Span(), "operator %q is not defined for %s values", n.Op, typ)
		return llvm.Value{}, ast.TypeVoid, fmt.Errorf("tsl: operator %q is not defined for %s values", n.Op, typ)
	case "!":
		return g.builder.CreateNot(operand, "not"), ast.TypeBool, nil
	default:
		g.cctx.ReportError(n.Span(), "unsupported unary operator %q", n.Op)
		return llvm.Value{}, ast.TypeVoid, fmt.Errorf("tsl: unsupported unary operator %q", n.Op)
	}
}

// mapLanes applies f to every scalar lane of an aggregate value and
// rebuilds the aggregate from the results.
func (g *generator) mapLanes(v llvm.Value, typ ast.BaseType, f func(llvm.Value) llvm.Value) llvm.Value {
	n := aggregateLanes(typ)
	result := llvm.Undef(g.types.LLVMType(typ))
	for i := 0; i < n; i++ {
		lane := g.builder.CreateExtractValue(v, i, "lane")
		result = g.builder.CreateInsertValue(result, f(lane), i, "lane")
	}
	return result
}

func aggregateLanes(t ast.BaseType) int {
	switch t {
	case ast.TypeFloat3:
		return 3
	case ast.TypeFloat4:
		return 4
	default:
		return 0
	}
}

func (g *generator) genBinary(n *ast.Binary) (llvm.Value, ast.BaseType, error) {
	lhs, lhsType, err := g.genExpr(n.Left)
	if err != nil {
		return llvm.Value{}, ast.TypeVoid, err
	}
	rhs, rhsType, err := g.genExpr(n.Right)
	if err != nil {
		return llvm.Value{}, ast.TypeVoid, err
	}
	//
	switch {
	case lhsType == ast.TypeClosure || rhsType == ast.TypeClosure:
		// Closure values are opaque pointers into the host's closure tree;
		// no operator applies to them.
		g.cctx.ReportError(n.Span(), "operator %q is not defined for closure values", n.Op)
		return llvm.Value{}, ast.TypeVoid, fmt.Errorf("tsl: operator %q is not defined for closure values", n.Op)
	case isComparison(n.Op):
		return g.genComparison(n, lhs, lhsType, rhs, rhsType)
	case n.Op == "&&" || n.Op == "||":
		lhs = g.coerce(lhs, lhsType, ast.TypeBool, n.Span())
		rhs = g.coerce(rhs, rhsType, ast.TypeBool, n.Span())
		if n.Op == "&&" {
			return g.builder.CreateAnd(lhs, rhs, "and"), ast.TypeBool, nil
		}
		return g.builder.CreateOr(lhs, rhs, "or"), ast.TypeBool, nil
	case lhsType.IsAggregate() || rhsType.IsAggregate():
		return g.genVectorArith(n, lhs, lhsType, rhs, rhsType)
	default:
		return g.genScalarArith(n, lhs, lhsType, rhs, rhsType)
	}
}

func isComparison(op string) bool {
	switch op {
	case "==", "!=", "<", "<=", ">", ">=":
		return true
	default:
		return false
	}
}

// widestScalar picks the common scalar type two operands should be
// coerced to before a binary arithmetic or comparison op, promoting
// toward double > float > int, matching TSL's relaxed numeric model.
func widestScalar(a, b ast.BaseType) ast.BaseType {
	rank := func(t ast.BaseType) int {
		switch t {
		case ast.TypeDouble:
			return 3
		case ast.TypeFloat:
			return 2
		case ast.TypeInt:
			return 1
		default:
			return 0
		}
	}
	if rank(a) >= rank(b) {
		return a
	}
	return b
}

func (g *generator) genComparison(n *ast.Binary, lhs llvm.Value, lhsType ast.BaseType, rhs llvm.Value, rhsType ast.BaseType) (llvm.Value, ast.BaseType, error) {
	common := widestScalar(lhsType, rhsType)
	switch common {
	case ast.TypeInt, ast.TypeBool, ast.TypeFloat, ast.TypeDouble:
	default:
		g.cctx.ReportError(n.Span(), "operator %q is not defined for %s values", n.Op, common)
		return llvm.Value{}, ast.TypeVoid, fmt.Errorf("tsl: operator %q is not defined for %s values", n.Op, common)
	}
	lhs = g.coerce(lhs, lhsType, common, n.Span())
	rhs = g.coerce(rhs, rhsType, common, n.Span())
	//
	if common == ast.TypeInt || common == ast.TypeBool {
		pred, ok := intPredicate(n.Op)
		if !ok {
			return llvm.Value{}, ast.TypeVoid, fmt.Errorf("tsl: unsupported comparison %q", n.Op)
		}
		return g.builder.CreateICmp(pred, lhs, rhs, "cmp"), ast.TypeBool, nil
	}
	//
	pred, ok := floatPredicate(n.Op)
	if !ok {
		return llvm.Value{}, ast.TypeVoid, fmt.Errorf("tsl: unsupported comparison %q", n.Op)
	}
	return g.builder.CreateFCmp(pred, lhs, rhs, "cmp"), ast.TypeBool, nil
}

func intPredicate(op string) (llvm.IntPredicate, bool) {
	switch op {
	case "==":
		return llvm.IntEQ, true
	case "!=":
		return llvm.IntNE, true
	case "<":
		return llvm.IntSLT, true
	case "<=":
		return llvm.IntSLE, true
	case ">":
		return llvm.IntSGT, true
	case ">=":
		return llvm.IntSGE, true
	default:
		return 0, false
	}
}

func floatPredicate(op string) (llvm.FloatPredicate, bool) {
	switch op {
	case "==":
		return llvm.FloatOEQ, true
	case "!=":
		return llvm.FloatONE, true
	case "<":
		return llvm.FloatOLT, true
	case "<=":
		return llvm.FloatOLE, true
	case ">":
		return llvm.FloatOGT, true
	case ">=":
		return llvm.FloatOGE, true
	default:
		return 0, false
	}
}

func (g *generator) genScalarArith(n *ast.Binary, lhs llvm.Value, lhsType ast.BaseType, rhs llvm.Value, rhsType ast.BaseType) (llvm.Value, ast.BaseType, error) {
	common := widestScalar(lhsType, rhsType)
	switch common {
	case ast.TypeInt, ast.TypeFloat, ast.TypeDouble:
	default:
		g.cctx.ReportError(n.Span(), "operator %q is not defined for %s values", n.Op, common)
		return llvm.Value{}, ast.TypeVoid, fmt.Errorf("tsl: operator %q is not defined for %s values", n.Op, common)
	}
	lhs = g.coerce(lhs, lhsType, common, n.Span())
	rhs = g.coerce(rhs, rhsType, common, n.Span())
	//
	isInt := common == ast.TypeInt
	var val llvm.Value
	switch n.Op {
	case "+":
		if isInt {
			val = g.builder.CreateAdd(lhs, rhs, "add")
		} else {
			val = g.builder.CreateFAdd(lhs, rhs, "add")
		}
	case "-":
		if isInt {
			val = g.builder.CreateSub(lhs, rhs, "sub")
		} else {
			val = g.builder.CreateFSub(lhs, rhs, "sub")
		}
	case "*":
		if isInt {
			val = g.builder.CreateMul(lhs, rhs, "mul")
		} else {
			val = g.builder.CreateFMul(lhs, rhs, "mul")
		}
	case "/":
		if isInt {
			val = g.builder.CreateSDiv(lhs, rhs, "div")
		} else {
			val = g.builder.CreateFDiv(lhs, rhs, "div")
		}
	default:
		g.cctx.ReportError(n.Span(), "unsupported binary operator %q", n.Op)
		return llvm.Value{}, ast.TypeVoid, fmt.Errorf("tsl: unsupported binary operator %q", n.Op)
	}
	return val, common, nil
}

// genVectorArith lowers +, -, * and / where at least one operand is a
// float3/float4. A vector paired with a scalar broadcasts the scalar to
// every lane; two vectors of matching type combine componentwise.
func (g *generator) genVectorArith(n *ast.Binary, lhs llvm.Value, lhsType ast.BaseType, rhs llvm.Value, rhsType ast.BaseType) (llvm.Value, ast.BaseType, error) {
	var vecType ast.BaseType
	switch {
	case lhsType.IsAggregate() && rhsType.IsAggregate():
		if lhsType != rhsType {
			g.cctx.ReportError(n.Span(), "mismatched vector types %s and %s", lhsType, rhsType)
			return llvm.Value{}, ast.TypeVoid, fmt.Errorf("tsl: mismatched vector types")
		}
		vecType = lhsType
	case lhsType.IsAggregate():
		vecType = lhsType
		rhs = g.broadcast(rhs, rhsType, vecType)
	default:
		vecType = rhsType
		lhs = g.broadcast(lhs, lhsType, vecType)
	}
	//
	lanes := aggregateLanes(vecType)
	if lanes == 0 {
		g.cctx.ReportError(n.Span(), "operator %q is not defined for %s values", n.Op, vecType)
		return llvm.Value{}, ast.TypeVoid, fmt.Errorf("tsl: operator %q is not defined for %s values", n.Op, vecType)
	}
	result := llvm.Undef(g.types.LLVMType(vecType))
	for i := 0; i < lanes; i++ {
		l := g.builder.CreateExtractValue(lhs, i, "lhs.lane")
		r := g.builder.CreateExtractValue(rhs, i, "rhs.lane")
		//
		var v llvm.Value
		switch n.Op {
		case "+":
			v = g.builder.CreateFAdd(l, r, "add")
		case "-":
			v = g.builder.CreateFSub(l, r, "sub")
		case "*":
			v = g.builder.CreateFMul(l, r, "mul")
		case "/":
			v = g.builder.CreateFDiv(l, r, "div")
		default:
			g.cctx.ReportError(n.Span(), "unsupported vector operator %q", n.Op)
			return llvm.Value{}, ast.TypeVoid, fmt.Errorf("tsl: unsupported vector operator %q", n.Op)
		}
		result = g.builder.CreateInsertValue(result, v, i, "lane")
	}
	return result, vecType, nil
}

// broadcast widens a scalar to every lane of vecType, coercing it to f32
// first if necessary.
func (g *generator) broadcast(scalar llvm.Value, scalarType, vecType ast.BaseType) llvm.Value {
	scalar = g.coerce(scalar, scalarType, ast.TypeFloat, source.Span{})
	lanes := aggregateLanes(vecType)
	result := llvm.Undef(g.types.LLVMType(vecType))
	for i := 0; i < lanes; i++ {
		result = g.builder.CreateInsertValue(result, scalar, i, "lane")
	}
	return result
}
