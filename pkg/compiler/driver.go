package compiler

import (
	"fmt"

	"github.com/ckod3/Tiny-Shading-Language/pkg/ast"
	"github.com/ckod3/Tiny-Shading-Language/pkg/closure"
	"github.com/ckod3/Tiny-Shading-Language/pkg/global"
	"github.com/ckod3/Tiny-Shading-Language/pkg/source"
	log "github.com/sirupsen/logrus"
	"tinygo.org/x/go-llvm"
)

// Config carries the per-template options recognised by Compile.
type Config struct {
	AllowOptimization bool
	AllowVerification bool
	VerboseParser     bool
}

// DefaultConfig returns the documented defaults: optimization and
// verification on, verbose parsing off.
func DefaultConfig() Config {
	return Config{AllowOptimization: true, AllowVerification: true, VerboseParser: false}
}

// Driver is a per-thread compile driver instance. It owns one LLVM
// context for its entire lifetime and one AST arena that accumulates the
// retained roots of every template it has produced; a ShadingContext
// pools many Drivers, one per concurrently compiling goroutine.
type Driver struct {
	ctx      llvm.Context
	closures *closure.Registry
	logger   *log.Logger
	arena    *ast.Arena
}

// NewDriver constructs a driver with a fresh LLVM context. logger may be
// nil, in which case the standard logger is used.
func NewDriver(closures *closure.Registry, logger *log.Logger) *Driver {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Driver{
		ctx:      llvm.NewContext(),
		closures: closures,
		logger:   logger,
		arena:    ast.NewArena(),
	}
}

// Dispose releases this driver's LLVM context. Only safe once no template
// it produced is still in use, since every Template shares the driver's
// context for its Module's lifetime.
func (d *Driver) Dispose() {
	global.Forget(d.ctx)
	d.ctx.Dispose()
}

// Compile parses src and lowers it to a new Template named name. It runs
// entirely within one EnterRegion/LeaveRegion pair; on any failure the
// partially built module and AST are discarded and no template is
// constructed.
func (d *Driver) Compile(src string, name string, cfg Config) (*Template, error) {
	if cfg.VerboseParser {
		d.logger.WithField("unit", name).Debug("begin compile")
	}
	//
	d.arena.EnterRegion()
	defer d.arena.LeaveRegion()
	//
	file := source.NewFile(name, src)
	cctx := NewContext(d.arena, file)
	//
	parser, err := ast.NewParser(file, d.arena, cctx)
	if err != nil {
		return nil, &ParseError{err}
	}
	if err := parser.ParseProgram(); err != nil {
		return nil, &ParseError{err}
	}
	if !cctx.shader.IsValid() {
		return nil, &ParseError{fmt.Errorf("no shader entry point declared in %q", name)}
	}
	//
	for touched := range cctx.closuresTouched {
		if _, ok := d.closures.Lookup(touched); !ok {
			return nil, &UnregisteredClosureError{touched}
		}
	}
	//
	module := d.ctx.NewModule(name)
	types, externs := global.DeclareInto(module, d.ctx)
	ctors := declareClosureCtors(module, types, d.closures, cctx.closuresTouched)
	funcs := declareFreeFunctions(module, types, d.arena, cctx.functions)
	//
	gen := newGenerator(d.ctx, module, types, externs, ctors, funcs, cctx, d.logger)
	defer gen.builder.Dispose()
	//
	for _, h := range cctx.globals {
		gen.genGlobal(h)
	}
	for _, h := range cctx.structs {
		gen.genStruct(h)
	}
	for _, h := range cctx.functions {
		gen.genFunction(h)
	}
	rootName, rootArgs, rootErr := gen.genShader(cctx.shader, name)
	//
	if cctx.sink.HasErrors() {
		module.Dispose()
		return nil, &CodegenError{cctx.sink.Errors()}
	}
	if rootErr != nil {
		module.Dispose()
		return nil, rootErr
	}
	//
	d.arena.Transfer(cctx.shader)
	//
	tmpl := &Template{
		Name:               name,
		Ctx:                d.ctx,
		Module:             module,
		RootFuncName:       rootName,
		Args:               rootArgs,
		Dependencies:       []llvm.Module{d.closures.Module()},
		root:               cctx.shader,
		arena:              d.arena,
		allowOptimization:  cfg.AllowOptimization,
		allowVerification:  cfg.AllowVerification,
		compiled:           true,
	}
	//
	d.logger.WithFields(log.Fields{"unit": name, "args": len(rootArgs)}).Debug("compile succeeded")
	//
	return tmpl, nil
}

// declareClosureCtors declares, inside module, an external prototype for
// every closure the shader touched, and only that subset, so a unit module
// never references constructors it doesn't call. The bodies are supplied
// at resolve time by linking the (cloned) closure module into the
// instance's execution engine.
func declareClosureCtors(module llvm.Module, types *global.TypeSet, closures *closure.Registry,
	touched map[string]bool) map[string]llvm.Value {
	//
	out := make(map[string]llvm.Value, len(touched))
	//
	for name := range touched {
		reg, ok := closures.Lookup(name)
		if !ok {
			continue
		}
		//
		paramTypes := make([]llvm.Type, len(reg.Fields))
		for i, f := range reg.Fields {
			paramTypes[i] = closureFieldType(types, f.Type)
		}
		//
		fnType := llvm.FunctionType(types.Ptr, paramTypes, false)
		fn := llvm.AddFunction(module, "make_closure_"+name, fnType)
		fn.SetLinkage(llvm.ExternalLinkage)
		out[name] = fn
	}
	//
	return out
}

func closureFieldType(types *global.TypeSet, t closure.FieldType) llvm.Type {
	switch t {
	case closure.FieldInt:
		return types.I32
	case closure.FieldFloat:
		return types.F32
	case closure.FieldFloat3:
		return types.Float3
	case closure.FieldFloat4:
		return types.Float4
	default:
		panic("tsl: unmapped closure field type")
	}
}

// declareFreeFunctions pre-declares every plain function's signature
// before any function body is generated, so that mutually- and
// forward-referencing calls between free functions resolve without
// requiring source-order call graphs. Unlike the shader root, a plain
// function is an ordinary value-returning helper local to this compile:
// it is never a cross-unit wiring point, so it keeps an ordinary by-value
// return and parameter convention (aggregates still passed by pointer)
// with no trailing tsl_global argument.
func declareFreeFunctions(module llvm.Module, types *global.TypeSet, arena *ast.Arena,
	handles []ast.Handle) map[string]funcDecl {
	//
	out := make(map[string]funcDecl, len(handles))
	//
	for _, h := range handles {
		node, ok := arena.Get(h)
		if !ok {
			continue
		}
		fn, ok := node.(*ast.FunctionDecl)
		if !ok {
			continue
		}
		//
		paramTypes := make([]llvm.Type, 0, len(fn.Params))
		for _, p := range fn.Params {
			if p.Type.IsAggregate() {
				paramTypes = append(paramTypes, llvm.PointerType(types.LLVMType(p.Type), 0))
			} else {
				paramTypes = append(paramTypes, types.LLVMType(p.Type))
			}
		}
		//
		retType := types.LLVMType(fn.ReturnType)
		fnType := llvm.FunctionType(retType, paramTypes, false)
		val := llvm.AddFunction(module, fn.Name, fnType)
		// Helpers are private to their unit; two units may both declare a
		// "scale" without colliding once their modules share one engine.
		val.SetLinkage(llvm.InternalLinkage)
		//
		out[fn.Name] = funcDecl{val: val, fn: fn}
	}
	//
	return out
}

// funcDecl pairs a declared LLVM function with the AST node describing its
// parameters, so call sites can determine by-pointer vs by-value passing.
type funcDecl struct {
	val llvm.Value
	fn  *ast.FunctionDecl
}
