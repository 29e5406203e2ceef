package resolve

import (
	"sync"
	"unsafe"

	"github.com/ckod3/Tiny-Shading-Language/pkg/ast"
	"github.com/ckod3/Tiny-Shading-Language/pkg/compiler"
	"github.com/ckod3/Tiny-Shading-Language/pkg/global"
	"github.com/ckod3/Tiny-Shading-Language/pkg/group"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"tinygo.org/x/go-llvm"
)

// jitOnce initializes the native target and links in MCJIT exactly once
// per process, before the first execution engine is built. The same init
// probes whether this LLVM build supports cross-context module cloning;
// when it does not, every resolve builds into one shared context,
// serialized under sharedMu, instead of a context of its own.
var (
	jitOnce sync.Once
	jitErr  error

	crossCloneOK bool
	sharedCtx    llvm.Context
	sharedMu     sync.Mutex
)

func initJIT() error {
	jitOnce.Do(func() {
		llvm.LinkInMCJIT()
		if err := llvm.InitializeNativeTarget(); err != nil {
			jitErr = err
			return
		}
		if jitErr = llvm.InitializeNativeAsmPrinter(); jitErr != nil {
			return
		}
		crossCloneOK = probeCrossContextClone()
		if !crossCloneOK {
			sharedCtx = llvm.NewContext()
		}
	})
	return jitErr
}

// probeCrossContextClone verifies, once per process, that a module
// serialized to bitcode under one LLVM context reparses inside another.
// Every per-instance resolve context relies on this; the fallback when it
// fails is the single shared context above.
func probeCrossContextClone() bool {
	src := llvm.NewContext()
	defer src.Dispose()
	dst := llvm.NewContext()
	defer dst.Dispose()
	//
	module := src.NewModule("tsl.clone.probe")
	llvm.AddFunction(module, "probe", llvm.FunctionType(src.VoidType(), nil, false))
	//
	_, err := cloneModule(dst, module)
	return err == nil
}

// source is the shape both a compiler.Template and a group.Template
// present to the resolver once reduced to their common essentials: a
// module, its entry function's name, exposed arguments, and dependency
// modules that must be linked alongside it.
type source struct {
	name         string
	module       llvm.Module
	funcName     string
	args         []ast.ShaderArgument
	dependencies []llvm.Module
	optimize     bool
	verify       bool
}

// ResolveTemplate JIT-compiles a single shader unit template into a
// callable instance.
func ResolveTemplate(tmpl *compiler.Template, logger *log.Logger) (*Instance, error) {
	if tmpl == nil {
		return nil, &Error{Kind: InvalidInput, Detail: "nil template"}
	}
	if !tmpl.Valid() {
		return nil, &Error{Kind: InvalidShaderGroupTemplate, Detail: "template has no module or root function"}
	}
	//
	return resolveSource(source{
		name:         tmpl.Name,
		module:       tmpl.Module,
		funcName:     tmpl.RootFuncName,
		args:         tmpl.Args,
		dependencies: tmpl.Dependencies,
		optimize:     tmpl.AllowOptimization(),
		verify:       tmpl.AllowVerification(),
	}, logger)
}

// ResolveGroup JIT-compiles a linked shader group's wrapper module into a
// callable instance.
func ResolveGroup(gt *group.Template, logger *log.Logger) (*Instance, error) {
	if gt == nil {
		return nil, &Error{Kind: InvalidInput, Detail: "nil group template"}
	}
	if !gt.Valid() {
		return nil, &Error{Kind: InvalidShaderGroupTemplate, Detail: "group has not been linked"}
	}
	//
	return resolveSource(source{
		name:         gt.Name,
		module:       gt.Module,
		funcName:     gt.WrapperName,
		args:         gt.Args,
		dependencies: gt.Dependencies,
		optimize:     true,
		verify:       true,
	}, logger)
}

// resolveSource runs the steps common to both entry points: clone into a
// dedicated context, optimize, verify, build an execution engine with
// every dependency linked in, and extract the entry function's address.
func resolveSource(src source, logger *log.Logger) (inst *Instance, err error) {
	if logger == nil {
		logger = log.StandardLogger()
	}
	if jerr := initJIT(); jerr != nil {
		return nil, &Error{Kind: InvalidInput, Detail: "JIT initialization failed", Cause: errors.Wrap(jerr, "initialize native target")}
	}
	//
	var ctx llvm.Context
	ownsCtx := crossCloneOK
	if ownsCtx {
		ctx = llvm.NewContext()
	} else {
		sharedMu.Lock()
		defer sharedMu.Unlock()
		ctx = sharedCtx
	}
	// On any failure below, the partially built engine/module/context must
	// not leak or be left observable: callers either get a fully resolved
	// instance or nothing. In shared-context mode the context itself stays,
	// but any module cloned into it before the engine took ownership goes.
	var cloned llvm.Module
	haveClone, engineOwned := false, false
	defer func() {
		if err == nil {
			return
		}
		if ownsCtx {
			global.Forget(ctx)
			ctx.Dispose()
		} else if haveClone && !engineOwned {
			cloned.Dispose()
		}
	}()
	//
	cloned, cerr := cloneModule(ctx, src.module)
	if cerr != nil {
		return nil, &Error{Kind: InvalidInput, Detail: "module clone failed", Cause: errors.Wrap(cerr, "clone module into resolver context")}
	}
	haveClone = true
	//
	fn := cloned.NamedFunction(src.funcName)
	if fn.IsNil() {
		return nil, &Error{Kind: InvalidShaderGroupTemplate, Detail: "entry function missing after clone"}
	}
	//
	if src.optimize {
		runOptimizationPasses(cloned, fn)
	}
	//
	if src.verify {
		if verr := llvm.VerifyFunction(fn, llvm.ReturnStatusAction); verr != nil {
			return nil, &Error{Kind: LLVMFunctionVerificationFailed, Detail: src.funcName}
		}
	}
	//
	thunk := emitFloatThunk(ctx, cloned, fn, src.args, src.funcName)
	//
	engine, eerr := llvm.NewMCJITCompiler(cloned, llvm.NewMCJITCompilerOptions())
	if eerr != nil {
		return nil, &Error{Kind: InvalidInput, Detail: "execution engine creation failed", Cause: errors.Wrap(eerr, "construct MCJIT engine")}
	}
	engineOwned = true
	//
	depClones := make([]llvm.Module, 0, len(src.dependencies))
	for _, dep := range src.dependencies {
		depClone, derr := cloneModule(ctx, dep)
		if derr != nil {
			engine.Dispose()
			return nil, &Error{Kind: InvalidInput, Detail: "dependency clone failed", Cause: errors.Wrap(derr, "clone dependency module")}
		}
		engine.AddModule(depClone)
		depClones = append(depClones, depClone)
	}
	//
	mapHostSymbols(engine, append([]llvm.Module{cloned}, depClones...))
	//
	addr := engine.PointerToGlobal(fn)
	if addr == nil {
		engine.Dispose()
		return nil, &Error{Kind: InvalidInput, Detail: "entry function address resolved to nil"}
	}
	//
	var thunkAddr unsafe.Pointer
	if !thunk.IsNil() {
		thunkAddr = engine.PointerToGlobal(thunk)
	}
	//
	logger.WithFields(log.Fields{"instance": src.name, "func": src.funcName}).Debug("resolved shader instance")
	//
	return &Instance{Name: src.name, Args: src.args, engine: engine, ctx: ctx, ownsCtx: ownsCtx, addr: addr, thunkAddr: thunkAddr}, nil
}

// cloneModule clones src into ctx via bitcode serialize/reparse, the
// standard cross-context cloning technique LLVM's C API supports; the
// source module (possibly owned by another thread's context) is only ever
// read. ParseIR takes ownership of the memory buffer.
func cloneModule(ctx llvm.Context, src llvm.Module) (llvm.Module, error) {
	buf := src.WriteBitcodeToMemoryBuffer()
	return ctx.ParseIR(buf)
}

// runOptimizationPasses applies the fixed-order legacy pass pipeline to
// fn alone.
func runOptimizationPasses(module llvm.Module, fn llvm.Value) {
	fpm := llvm.NewFunctionPassManagerForModule(module)
	defer fpm.Dispose()
	//
	fpm.AddInstructionCombiningPass()
	fpm.AddReassociatePass()
	fpm.AddGVNPass()
	fpm.AddCFGSimplificationPass()
	//
	fpm.InitializeFunc()
	fpm.RunFunc(fn)
	fpm.FinalizeFunc()
}

// emitFloatThunk adds a uniform-signature entry point
// "<funcName>.invoke" to the cloned module when every exposed argument is
// a scalar float: void(float* ins, float* outs, tsl_global*). The thunk
// loads in-arguments from ins in declaration order and passes pointers
// into outs for out-arguments, so a host (and this package's own
// InvokeFloats) can call any such shader through one fixed native
// signature instead of one cgo trampoline per shader shape. Returns a nil
// Value when any argument is not a scalar float.
func emitFloatThunk(ctx llvm.Context, module llvm.Module, fn llvm.Value, args []ast.ShaderArgument, funcName string) llvm.Value {
	for _, a := range args {
		if a.Type != ast.TypeFloat {
			return llvm.Value{}
		}
	}
	//
	rootParams := fn.Type().ElementType().ParamTypes()
	globalPtrType := rootParams[len(rootParams)-1]
	f32 := ctx.FloatType()
	f32ptr := llvm.PointerType(f32, 0)
	i32 := ctx.Int32Type()
	//
	thunkType := llvm.FunctionType(ctx.VoidType(), []llvm.Type{f32ptr, f32ptr, globalPtrType}, false)
	thunk := llvm.AddFunction(module, funcName+".invoke", thunkType)
	thunk.SetLinkage(llvm.ExternalLinkage)
	//
	builder := ctx.NewBuilder()
	defer builder.Dispose()
	entry := ctx.AddBasicBlock(thunk, "entry")
	builder.SetInsertPointAtEnd(entry)
	//
	callArgs := make([]llvm.Value, 0, len(args)+1)
	inIdx, outIdx := 0, 0
	for _, a := range args {
		if a.Direction == ast.DirIn {
			slot := builder.CreateGEP(thunk.Param(0), []llvm.Value{llvm.ConstInt(i32, uint64(inIdx), false)}, a.Name+".in")
			callArgs = append(callArgs, builder.CreateLoad(slot, a.Name))
			inIdx++
		} else {
			slot := builder.CreateGEP(thunk.Param(1), []llvm.Value{llvm.ConstInt(i32, uint64(outIdx), false)}, a.Name+".out")
			callArgs = append(callArgs, slot)
			outIdx++
		}
	}
	callArgs = append(callArgs, thunk.Param(2))
	//
	builder.CreateCall(fn, callArgs, "")
	builder.CreateRetVoid()
	//
	return thunk
}
