package compiler

import (
	"fmt"

	"github.com/ckod3/Tiny-Shading-Language/pkg/ast"
	"github.com/ckod3/Tiny-Shading-Language/pkg/global"
	log "github.com/sirupsen/logrus"
	"tinygo.org/x/go-llvm"
)

// generator performs the recursive AST-to-IR lowering. One generator is
// used per compile, sharing the driver's module and the compile context's
// symbol tables.
type generator struct {
	ctx     llvm.Context
	module  llvm.Module
	types   *global.TypeSet
	externs *global.Externs
	ctors   map[string]llvm.Value
	funcs   map[string]funcDecl
	globals map[string]llvm.Value

	cctx    *Context
	scopes  *scopeStack
	builder llvm.Builder
	logger  *log.Logger

	// curRetType is the declared return type of the function currently
	// being lowered, so return statements can coerce their operand.
	curRetType ast.BaseType
}

func newGenerator(ctx llvm.Context, module llvm.Module, types *global.TypeSet, externs *global.Externs,
	ctors map[string]llvm.Value, funcs map[string]funcDecl, cctx *Context, logger *log.Logger) *generator {
	//
	return &generator{
		ctx:     ctx,
		module:  module,
		types:   types,
		externs: externs,
		ctors:   ctors,
		funcs:   funcs,
		globals: make(map[string]llvm.Value),
		cctx:    cctx,
		scopes:  newScopeStack(),
		builder: ctx.NewBuilder(),
		logger:  logger,
	}
}

// genStruct lowers a struct declaration to a named LLVM struct type. The
// exposed-argument surface has no struct-typed variable slot yet, so this
// is groundwork lowering only: it validates field types and makes the
// type available before any function body is generated.
func (g *generator) genStruct(h ast.Handle) {
	node, ok := g.cctx.Node(h)
	if !ok {
		return
	}
	decl, ok := node.(*ast.StructDecl)
	if !ok {
		return
	}
	//
	fieldTypes := make([]llvm.Type, len(decl.Fields))
	for i, f := range decl.Fields {
		if f.Type == ast.TypeVoid {
			g.cctx.ReportError(decl.Span(), "struct field %q cannot have type void", f.Name)
			return
		}
		fieldTypes[i] = g.types.LLVMType(f.Type)
	}
	//
	st := g.ctx.StructCreateNamed("tsl.user." + decl.Name)
	st.StructSetBody(fieldTypes, false)
}

// genGlobal lowers a global parameter declaration to a module-scoped
// variable, visible by name to every function generated in this compile.
func (g *generator) genGlobal(h ast.Handle) {
	node, ok := g.cctx.Node(h)
	if !ok {
		return
	}
	decl, ok := node.(*ast.GlobalParamDecl)
	if !ok {
		return
	}
	//
	ty := g.types.LLVMType(decl.Type)
	gv := llvm.AddGlobal(g.module, ty, "tsl.global."+decl.Name)
	gv.SetInitializer(llvm.ConstNull(ty))
	// Like free functions, unit globals stay private to their module so
	// same-named globals in two units never collide inside one engine.
	gv.SetLinkage(llvm.InternalLinkage)
	g.globals[decl.Name] = gv
}

// genFunction lowers one plain (non-shader) function's body.
func (g *generator) genFunction(h ast.Handle) {
	node, ok := g.cctx.Node(h)
	if !ok {
		return
	}
	fn, ok := node.(*ast.FunctionDecl)
	if !ok {
		return
	}
	decl, ok := g.funcs[fn.Name]
	if !ok {
		return
	}
	//
	g.genFunctionBody(decl.val, fn, fn.ReturnType, false)
}

// genShader lowers the shader root to an external-linkage function whose
// signature mirrors the exposed-argument list, with out arguments passed
// by pointer, in by value (aggregates still by pointer for ABI), followed
// by a trailing tsl_global*. It returns the function's name
// and the exposed-argument metadata the Template retains. The exported
// symbol is prefixed with the unit's name: several units may declare the
// same entry identifier, and a group links their modules into one engine,
// so each root needs a process-unique symbol.
func (g *generator) genShader(h ast.Handle, unitName string) (string, []ast.ShaderArgument, error) {
	node, ok := g.cctx.Node(h)
	if !ok {
		return "", nil, fmt.Errorf("tsl: shader root handle is not live")
	}
	fn, ok := node.(*ast.FunctionDecl)
	if !ok {
		return "", nil, fmt.Errorf("tsl: shader root is not a function declaration")
	}
	//
	paramTypes := make([]llvm.Type, 0, len(fn.Params)+1)
	args := make([]ast.ShaderArgument, 0, len(fn.Params))
	//
	for _, p := range fn.Params {
		if p.Direction == ast.DirOut || p.Type.IsAggregate() {
			paramTypes = append(paramTypes, llvm.PointerType(g.types.LLVMType(p.Type), 0))
		} else {
			paramTypes = append(paramTypes, g.types.LLVMType(p.Type))
		}
		args = append(args, ast.ShaderArgument{Name: p.Name, Type: p.Type, Direction: p.Direction, Default: p.Default})
	}
	paramTypes = append(paramTypes, g.types.TSLGlobalPtr())
	//
	symbol := unitName + "_" + fn.Name
	fnType := llvm.FunctionType(g.types.Void, paramTypes, false)
	fnVal := llvm.AddFunction(g.module, symbol, fnType)
	fnVal.SetLinkage(llvm.ExternalLinkage)
	//
	g.genFunctionBody(fnVal, fn, ast.TypeVoid, true)
	//
	return symbol, args, nil
}

// genFunctionBody emits the entry block and statements common to both a
// plain function and the shader root. isShader says whether fnVal has the
// shader signature, whose out-direction parameters arrive as pointers and
// are addressed directly; its trailing tsl_global* is not bound to a name.
func (g *generator) genFunctionBody(fnVal llvm.Value, fn *ast.FunctionDecl, retType ast.BaseType, isShader bool) {
	entry := g.ctx.AddBasicBlock(fnVal, "entry")
	g.builder.SetInsertPointAtEnd(entry)
	g.curRetType = retType
	//
	g.scopes.push()
	defer g.scopes.pop()
	//
	params := fnVal.Params()
	for i, p := range fn.Params {
		arg := params[i]
		//
		if (isShader && p.Direction == ast.DirOut) || p.Type.IsAggregate() {
			// Incoming value is already a pointer; it is directly
			// addressable, no local alloca required.
			g.scopes.declare(p.Name, arg, p.Type)
			continue
		}
		//
		ptr := g.builder.CreateAlloca(g.types.LLVMType(p.Type), p.Name)
		g.builder.CreateStore(arg, ptr)
		g.scopes.declare(p.Name, ptr, p.Type)
	}
	//
	ok := g.genBlockNode(fn.Body)
	if !ok {
		g.builder.CreateUnreachable()
		return
	}
	//
	if blockNeedsTerminator(g.builder) {
		if retType == ast.TypeVoid {
			g.builder.CreateRetVoid()
		} else {
			g.cctx.ReportError(fn.Span(), "function %q does not return a value on all paths", fn.Name)
			g.builder.CreateUnreachable()
		}
	}
}

func blockNeedsTerminator(b llvm.Builder) bool {
	block := b.GetInsertBlock()
	last := block.LastInstruction()
	if last.IsNil() {
		return true
	}
	switch last.InstructionOpcode() {
	case llvm.Ret, llvm.Br, llvm.Switch, llvm.IndirectBr, llvm.Invoke, llvm.Unreachable:
		return false
	default:
		return true
	}
}

// genBlockNode resolves and lowers a Block node by handle, returning false
// if the handle did not resolve to a block (a codegen error will already
// have been reported by the caller context in that case).
func (g *generator) genBlockNode(h ast.Handle) bool {
	node, ok := g.cctx.Node(h)
	if !ok {
		return false
	}
	block, ok := node.(*ast.Block)
	if !ok {
		return false
	}
	//
	g.scopes.push()
	defer g.scopes.pop()
	//
	for _, s := range block.Stmts {
		if !g.genStmt(s) {
			return true // stop emitting this block, but the function it's in is still valid IR
		}
	}
	return true
}

// genStmt lowers one statement, returning false if a terminator was
// already emitted (e.g. by a return) and no further statements in this
// block should be generated.
func (g *generator) genStmt(h ast.Handle) bool {
	node, ok := g.cctx.Node(h)
	if !ok {
		return false
	}
	//
	switch n := node.(type) {
	case *ast.Block:
		return g.genBlockNode(h) && blockNeedsTerminator(g.builder)
	case *ast.VarDecl:
		return g.genVarDecl(n)
	case *ast.Assign:
		return g.genAssign(n)
	case *ast.ExprStmt:
		_, _, err := g.genExpr(n.Expr)
		return err == nil
	case *ast.If:
		return g.genIf(n)
	case *ast.While:
		return g.genWhile(n)
	case *ast.For:
		return g.genFor(n)
	case *ast.Return:
		return g.genReturn(n)
	default:
		g.cctx.ReportError(node.Span(), "unsupported statement")
		return false
	}
}

func (g *generator) genVarDecl(n *ast.VarDecl) bool {
	ty := g.types.LLVMType(n.Type)
	ptr := g.builder.CreateAlloca(ty, n.Name)
	//
	if n.Init.IsValid() {
		val, valType, err := g.genExpr(n.Init)
		if err != nil {
			return false
		}
		val = g.coerce(val, valType, n.Type, n.Span())
		g.builder.CreateStore(val, ptr)
	} else {
		g.builder.CreateStore(llvm.ConstNull(ty), ptr)
	}
	//
	g.scopes.declare(n.Name, ptr, n.Type)
	return true
}

func (g *generator) genAssign(n *ast.Assign) bool {
	ptr, lvType, ok := g.genLValue(n.Target)
	if !ok {
		return false
	}
	//
	val, valType, err := g.genExpr(n.Value)
	if err != nil {
		return false
	}
	//
	val = g.coerce(val, valType, lvType, n.Span())
	g.builder.CreateStore(val, ptr)
	return true
}

func (g *generator) genIf(n *ast.If) bool {
	cond, condType, err := g.genExpr(n.Cond)
	if err != nil {
		return false
	}
	cond = g.coerce(cond, condType, ast.TypeBool, n.Span())
	//
	fn := g.builder.GetInsertBlock().Parent()
	thenBB := g.ctx.AddBasicBlock(fn, "if.then")
	elseBB := g.ctx.AddBasicBlock(fn, "if.else")
	endBB := g.ctx.AddBasicBlock(fn, "if.end")
	//
	g.builder.CreateCondBr(cond, thenBB, elseBB)
	//
	g.builder.SetInsertPointAtEnd(thenBB)
	if g.genBlockOrStmt(n.Then) {
		g.builder.CreateBr(endBB)
	}
	//
	g.builder.SetInsertPointAtEnd(elseBB)
	if n.Else.IsValid() {
		if g.genBlockOrStmt(n.Else) {
			g.builder.CreateBr(endBB)
		}
	} else {
		g.builder.CreateBr(endBB)
	}
	//
	g.builder.SetInsertPointAtEnd(endBB)
	return true
}

// genBlockOrStmt lowers a statement that is either itself a Block or a
// single bare statement (the TSL grammar allows "if (c) stmt;" without
// braces), returning whether control can fall through the end of it.
func (g *generator) genBlockOrStmt(h ast.Handle) bool {
	node, ok := g.cctx.Node(h)
	if !ok {
		return false
	}
	if _, isBlock := node.(*ast.Block); isBlock {
		return g.genBlockNode(h) && blockNeedsTerminator(g.builder)
	}
	return g.genStmt(h)
}

func (g *generator) genWhile(n *ast.While) bool {
	fn := g.builder.GetInsertBlock().Parent()
	condBB := g.ctx.AddBasicBlock(fn, "while.cond")
	bodyBB := g.ctx.AddBasicBlock(fn, "while.body")
	endBB := g.ctx.AddBasicBlock(fn, "while.end")
	//
	g.builder.CreateBr(condBB)
	g.builder.SetInsertPointAtEnd(condBB)
	cond, condType, err := g.genExpr(n.Cond)
	if err != nil {
		return false
	}
	cond = g.coerce(cond, condType, ast.TypeBool, n.Span())
	g.builder.CreateCondBr(cond, bodyBB, endBB)
	//
	g.builder.SetInsertPointAtEnd(bodyBB)
	if g.genBlockOrStmt(n.Body) {
		g.builder.CreateBr(condBB)
	}
	//
	g.builder.SetInsertPointAtEnd(endBB)
	return true
}

func (g *generator) genFor(n *ast.For) bool {
	g.scopes.push()
	defer g.scopes.pop()
	//
	if n.Init.IsValid() {
		if !g.genStmt(n.Init) {
			return false
		}
	}
	//
	fn := g.builder.GetInsertBlock().Parent()
	condBB := g.ctx.AddBasicBlock(fn, "for.cond")
	bodyBB := g.ctx.AddBasicBlock(fn, "for.body")
	endBB := g.ctx.AddBasicBlock(fn, "for.end")
	//
	g.builder.CreateBr(condBB)
	g.builder.SetInsertPointAtEnd(condBB)
	//
	if n.Cond.IsValid() {
		cond, condType, err := g.genExpr(n.Cond)
		if err != nil {
			return false
		}
		cond = g.coerce(cond, condType, ast.TypeBool, n.Span())
		g.builder.CreateCondBr(cond, bodyBB, endBB)
	} else {
		g.builder.CreateBr(bodyBB)
	}
	//
	g.builder.SetInsertPointAtEnd(bodyBB)
	cont := g.genBlockOrStmt(n.Body)
	if cont && n.Post.IsValid() {
		if _, _, err := g.genExpr(n.Post); err != nil {
			return false
		}
	}
	if cont {
		g.builder.CreateBr(condBB)
	}
	//
	g.builder.SetInsertPointAtEnd(endBB)
	return true
}

func (g *generator) genReturn(n *ast.Return) bool {
	if n.Value.IsValid() {
		val, typ, err := g.genExpr(n.Value)
		if err != nil {
			return false
		}
		val = g.coerce(val, typ, g.curRetType, n.Span())
		g.builder.CreateRet(val)
	} else {
		g.builder.CreateRetVoid()
	}
	return false
}
