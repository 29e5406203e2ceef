package group

import (
	"strconv"

	"github.com/bits-and-blooms/bitset"
	"github.com/ckod3/Tiny-Shading-Language/pkg/ast"
	"github.com/ckod3/Tiny-Shading-Language/pkg/compiler"
	"github.com/ckod3/Tiny-Shading-Language/pkg/global"
	log "github.com/sirupsen/logrus"
	"tinygo.org/x/go-llvm"
)

// Resolver builds one wrapper module per call to Resolve. Each call lowers
// into a fresh LLVM context whose ownership passes to the group template
// on success; the template releases it via Dispose.
type Resolver struct {
	logger *log.Logger
}

// NewResolver constructs a group resolver.
func NewResolver(logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Resolver{logger: logger}
}

// Resolve links the group: it declares one prototype per distinct unit
// template, depth-first-orders the instance graph from the group's root,
// and emits the wrapper function that routes arguments between them. On
// failure nothing is stored on t and no partial module survives.
func (r *Resolver) Resolve(t *Template) (err error) {
	if t.root == "" {
		return &Error{Kind: ShaderGroupWithoutRoot, Instance: t.root}
	}
	if _, ok := t.unit[t.root]; !ok {
		return &Error{Kind: ShaderGroupWithoutRoot, Instance: t.root}
	}
	//
	ctx := llvm.NewContext()
	defer func() {
		if err != nil {
			global.Forget(ctx)
			ctx.Dispose()
		}
	}()
	//
	types := global.Declare(ctx)
	module := ctx.NewModule(t.Name)
	//
	protos, deps, err := declarePrototypes(module, types, t)
	if err != nil {
		return err
	}
	//
	order, err := topoOrder(t)
	if err != nil {
		return err
	}
	//
	args, paramTypes, err := wrapperSignature(types, t)
	if err != nil {
		return err
	}
	//
	wrapperName := t.Name + "_shader_wrapper"
	paramTypes = append(paramTypes, types.TSLGlobalPtr())
	fnType := llvm.FunctionType(types.Void, paramTypes, false)
	fn := llvm.AddFunction(module, wrapperName, fnType)
	fn.SetLinkage(llvm.ExternalLinkage)
	//
	builder := ctx.NewBuilder()
	defer builder.Dispose()
	entry := ctx.AddBasicBlock(fn, "entry")
	builder.SetInsertPointAtEnd(entry)
	//
	globalArg := fn.Param(len(paramTypes) - 1)
	outputs := make(map[argKey]llvm.Value)
	//
	for _, inst := range order {
		tmpl := t.unit[inst]
		proto := protos[tmpl]
		//
		callArgs := make([]llvm.Value, 0, len(tmpl.Args)+1)
		for _, arg := range tmpl.Args {
			key := argKey{inst, arg.Name}
			//
			if arg.Direction == ast.DirOut {
				var slot llvm.Value
				if idx, ok := t.outputIndex[key]; ok {
					slot = fn.Param(idx)
				} else {
					slot = builder.CreateAlloca(types.LLVMType(arg.Type), inst+"."+arg.Name)
				}
				outputs[key] = slot
				callArgs = append(callArgs, slot)
				continue
			}
			//
			val, err := r.genInput(builder, types, t, fn, key, arg, outputs)
			if err != nil {
				return err
			}
			callArgs = append(callArgs, val)
		}
		callArgs = append(callArgs, globalArg)
		//
		builder.CreateCall(proto, callArgs, "")
	}
	//
	builder.CreateRetVoid()
	//
	t.Ctx = ctx
	t.Module = module
	t.WrapperName = wrapperName
	t.Args = args
	t.Dependencies = deps
	t.resolved = true
	//
	r.logger.WithFields(log.Fields{"group": t.Name, "units": len(t.units)}).Debug("resolved shader group")
	//
	return nil
}

// genInput materializes the value passed for one `in` argument of an
// instance: a load from a connected producer's output slot, the forwarded
// wrapper argument if exposed, or a materialized default literal.
func (r *Resolver) genInput(builder llvm.Builder, types *global.TypeSet, t *Template, fn llvm.Value,
	key argKey, arg ast.ShaderArgument, outputs map[argKey]llvm.Value) (llvm.Value, error) {
	//
	if src, ok := t.connections[key]; ok {
		slot, ok := outputs[src]
		if !ok {
			// Connect validates src/dst existence and type agreement up
			// front, and topoOrder visits a producer before its consumers,
			// so this only fires if those invariants are ever violated.
			return llvm.Value{}, &Error{Kind: UndefinedShaderUnit, Instance: src.Instance}
		}
		if arg.Type.IsAggregate() {
			return slot, nil
		}
		return builder.CreateLoad(slot, key.Argument), nil
	}
	//
	if idx, ok := t.inputIndex[key]; ok {
		return fn.Param(idx), nil
	}
	//
	if def, ok := t.defaults[key]; ok {
		c := buildConstant(types, *def)
		if arg.Type.IsAggregate() {
			// The unit prototype takes aggregates by pointer; spill the
			// constant to a stack slot and pass its address.
			slot := builder.CreateAlloca(types.LLVMType(arg.Type), key.Instance+"."+key.Argument+".def")
			builder.CreateStore(c, slot)
			return slot, nil
		}
		return c, nil
	}
	//
	return llvm.Value{}, &Error{Kind: ArgumentWithoutInitialization, Instance: key.Instance, Argument: key.Argument}
}

// declarePrototypes declares one external-linkage prototype per distinct
// template referenced by t, matching its root function's signature, and
// collects every unit's module (plus its own dependency modules, e.g. the
// closure module) into the group's dependency set. A template referenced
// under two instance names reuses the same prototype.
func declarePrototypes(module llvm.Module, types *global.TypeSet, t *Template) (map[*compiler.Template]llvm.Value, []llvm.Module, error) {
	protos := make(map[*compiler.Template]llvm.Value, len(t.units))
	seen := make(map[llvm.Module]bool)
	var deps []llvm.Module
	//
	for _, name := range t.units {
		tmpl, ok := t.unit[name]
		if !ok {
			return nil, nil, &Error{Kind: UndefinedShaderUnit, Instance: name}
		}
		if !tmpl.Valid() {
			return nil, nil, &Error{Kind: InvalidShaderGroupTemplate, Detail: "unit " + name + " has no resolved module"}
		}
		if _, ok := protos[tmpl]; ok {
			continue
		}
		//
		paramTypes := make([]llvm.Type, 0, len(tmpl.Args)+1)
		for _, arg := range tmpl.Args {
			if arg.Direction == ast.DirOut || arg.Type.IsAggregate() {
				paramTypes = append(paramTypes, llvm.PointerType(types.LLVMType(arg.Type), 0))
			} else {
				paramTypes = append(paramTypes, types.LLVMType(arg.Type))
			}
		}
		paramTypes = append(paramTypes, types.TSLGlobalPtr())
		//
		fnType := llvm.FunctionType(types.Void, paramTypes, false)
		fn := llvm.AddFunction(module, tmpl.RootFuncName, fnType)
		fn.SetLinkage(llvm.ExternalLinkage)
		protos[tmpl] = fn
		//
		if !seen[tmpl.Module] {
			seen[tmpl.Module] = true
			deps = append(deps, tmpl.Module)
		}
		for _, d := range tmpl.Dependencies {
			if !seen[d] {
				seen[d] = true
				deps = append(deps, d)
			}
		}
	}
	//
	return protos, deps, nil
}

func buildConstant(ts *global.TypeSet, v ast.Value) llvm.Value {
	switch v.Type {
	case ast.TypeInt:
		return llvm.ConstInt(ts.I32, uint64(v.Int), true)
	case ast.TypeFloat:
		return llvm.ConstFloat(ts.F32, v.Float)
	case ast.TypeDouble:
		return llvm.ConstFloat(ts.F64, v.Float)
	case ast.TypeBool:
		if v.Bool {
			return llvm.ConstInt(ts.I1, 1, false)
		}
		return llvm.ConstInt(ts.I1, 0, false)
	case ast.TypeFloat3:
		return llvm.ConstNamedStruct(ts.Float3, []llvm.Value{
			llvm.ConstFloat(ts.F32, v.Vector[0]), llvm.ConstFloat(ts.F32, v.Vector[1]), llvm.ConstFloat(ts.F32, v.Vector[2]),
		})
	case ast.TypeFloat4:
		return llvm.ConstNamedStruct(ts.Float4, []llvm.Value{
			llvm.ConstFloat(ts.F32, v.Vector[0]), llvm.ConstFloat(ts.F32, v.Vector[1]),
			llvm.ConstFloat(ts.F32, v.Vector[2]), llvm.ConstFloat(ts.F32, v.Vector[3]),
		})
	case ast.TypeMatrix:
		elems := make([]llvm.Value, 16)
		for i := range elems {
			elems[i] = llvm.ConstFloat(ts.F32, v.Matrix[i])
		}
		return llvm.ConstNamedStruct(ts.Matrix, []llvm.Value{llvm.ConstArray(ts.F32, elems)})
	default:
		// Template.SetDefault rejects void and closure defaults before they
		// ever reach here; this is unreachable in practice.
		return llvm.ConstNull(ts.LLVMType(v.Type))
	}
}

// wrapperSignature lowers the group's exposed-argument list (one shared
// index space over inputs and outputs) into the wrapper's parameter
// types: inputs by value (aggregates by pointer), outputs by pointer, the
// same convention a unit root uses.
func wrapperSignature(types *global.TypeSet, t *Template) ([]ast.ShaderArgument, []llvm.Type, error) {
	args := make([]ast.ShaderArgument, 0, len(t.exposed))
	paramTypes := make([]llvm.Type, 0, len(t.exposed))
	//
	for i, key := range t.exposed {
		if key == (argKey{}) {
			return nil, nil, &Error{Kind: InvalidShaderGroupTemplate,
				Detail: "group argument index " + strconv.Itoa(i) + " was never exposed"}
		}
		arg, _ := t.unit[key.Instance].Argument(key.Argument)
		args = append(args, ast.ShaderArgument{Name: key.Instance + "_" + key.Argument, Type: arg.Type, Direction: arg.Direction})
		if arg.Direction == ast.DirOut || arg.Type.IsAggregate() {
			paramTypes = append(paramTypes, llvm.PointerType(types.LLVMType(arg.Type), 0))
		} else {
			paramTypes = append(paramTypes, types.LLVMType(arg.Type))
		}
	}
	return args, paramTypes, nil
}

// topoOrder depth-first-orders the instances reachable from the group's
// root, visiting each instance's upstream dependencies before the
// instance itself. A node found on the active DFS stack means the
// connection graph has a cycle.
func topoOrder(t *Template) ([]string, error) {
	idx := make(map[string]int, len(t.units))
	for i, name := range t.units {
		idx[name] = i
	}
	//
	visited := bitset.New(uint(len(t.units)))
	being := bitset.New(uint(len(t.units)))
	var order []string
	//
	var visit func(name string) error
	visit = func(name string) error {
		i, ok := idx[name]
		if !ok {
			return &Error{Kind: UndefinedShaderUnit, Instance: name}
		}
		if visited.Test(uint(i)) {
			return nil
		}
		if being.Test(uint(i)) {
			return &Error{Kind: ShaderGroupWithCycles, Instance: name}
		}
		being.Set(uint(i))
		//
		tmpl, ok := t.unit[name]
		if !ok {
			return &Error{Kind: UndefinedShaderUnit, Instance: name}
		}
		for _, arg := range tmpl.Args {
			if arg.Direction != ast.DirIn {
				continue
			}
			if src, ok := t.connections[argKey{name, arg.Name}]; ok {
				if err := visit(src.Instance); err != nil {
					return err
				}
			}
		}
		//
		being.Clear(uint(i))
		visited.Set(uint(i))
		order = append(order, name)
		return nil
	}
	//
	if err := visit(t.root); err != nil {
		return nil, err
	}
	return order, nil
}
