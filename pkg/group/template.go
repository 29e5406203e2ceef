// Package group implements the shader-group linker: it composes
// already-compiled shader unit templates into one wrapper function that
// routes arguments between them in dependency order.
package group

import (
	"fmt"

	"github.com/ckod3/Tiny-Shading-Language/pkg/ast"
	"github.com/ckod3/Tiny-Shading-Language/pkg/compiler"
	"github.com/ckod3/Tiny-Shading-Language/pkg/global"
	"tinygo.org/x/go-llvm"
)

// argKey identifies one argument of one instance within a group.
type argKey struct {
	Instance string
	Argument string
}

// Template is a shader group: a graph of shader-unit instances with
// argument connections, exposed group-level inputs/outputs and default
// values. It is built up with AddUnit/Connect/ExposeInput/ExposeOutput/
// SetDefault/SetRoot, then handed to a Resolver.
type Template struct {
	Name string

	units []string // insertion order, for a deterministic traversal
	unit  map[string]*compiler.Template

	connections map[argKey]argKey
	defaults    map[argKey]*ast.Value

	// exposed maps a group argument index to the unit argument forwarded
	// there. Inputs and outputs share the one index space: the index is
	// the argument's position in the wrapper function's signature.
	exposed     []argKey
	inputIndex  map[argKey]int
	outputIndex map[argKey]int

	root string

	// Populated by Resolve. The template owns Ctx from that point on;
	// callers release it with Dispose once every instance resolved from
	// this group has been cloned out.
	Ctx          llvm.Context
	Module       llvm.Module
	WrapperName  string
	Args         []ast.ShaderArgument
	Dependencies []llvm.Module
	resolved     bool
	disposed     bool
}

// NewTemplate constructs an empty group template named name.
func NewTemplate(name string) *Template {
	return &Template{
		Name:        name,
		unit:        make(map[string]*compiler.Template),
		connections: make(map[argKey]argKey),
		defaults:    make(map[argKey]*ast.Value),
		inputIndex:  make(map[argKey]int),
		outputIndex: make(map[argKey]int),
	}
}

// AddUnit registers tmpl under instanceName, making it available to
// Connect/ExposeInput/ExposeOutput/SetRoot.
func (t *Template) AddUnit(instanceName string, tmpl *compiler.Template) {
	if _, exists := t.unit[instanceName]; !exists {
		t.units = append(t.units, instanceName)
	}
	t.unit[instanceName] = tmpl
}

// argument looks up inst's arg declaration, failing with UndefinedShaderUnit
// or InvalidArgType if either the instance or the argument doesn't exist.
func (t *Template) argument(inst, arg string) (ast.ShaderArgument, error) {
	tmpl, ok := t.unit[inst]
	if !ok {
		return ast.ShaderArgument{}, &Error{Kind: UndefinedShaderUnit, Instance: inst}
	}
	decl, ok := tmpl.Argument(arg)
	if !ok {
		return ast.ShaderArgument{}, &Error{Kind: InvalidArgType, Instance: inst, Argument: arg, Detail: "no such argument"}
	}
	return decl, nil
}

// Connect routes dstInst's dstArg input from srcInst's srcArg output. It
// fails if either instance or argument is undefined, if srcArg is not an
// out argument, if dstArg is not an in argument, or if their types
// disagree.
func (t *Template) Connect(srcInst, srcArg, dstInst, dstArg string) error {
	src, err := t.argument(srcInst, srcArg)
	if err != nil {
		return err
	}
	if src.Direction != ast.DirOut {
		return &Error{Kind: InvalidArgType, Instance: srcInst, Argument: srcArg, Detail: "connection source must be an out argument"}
	}
	dst, err := t.argument(dstInst, dstArg)
	if err != nil {
		return err
	}
	if dst.Direction != ast.DirIn {
		return &Error{Kind: InvalidArgType, Instance: dstInst, Argument: dstArg, Detail: "connection destination must be an in argument"}
	}
	if src.Type != dst.Type {
		return &Error{Kind: InvalidArgType, Instance: dstInst, Argument: dstArg,
			Detail: fmt.Sprintf("type mismatch: source %s.%s is %s, destination is %s", srcInst, srcArg, src.Type, dst.Type)}
	}
	t.connections[argKey{dstInst, dstArg}] = argKey{srcInst, srcArg}
	return nil
}

// expose claims groupIdx for key, growing the exposed slice as needed.
func (t *Template) expose(key argKey, groupIdx int) error {
	for len(t.exposed) <= groupIdx {
		t.exposed = append(t.exposed, argKey{})
	}
	if prev := t.exposed[groupIdx]; prev != (argKey{}) && prev != key {
		return &Error{Kind: InvalidArgType, Instance: key.Instance, Argument: key.Argument,
			Detail: fmt.Sprintf("group argument %d already forwards %s.%s", groupIdx, prev.Instance, prev.Argument)}
	}
	t.exposed[groupIdx] = key
	return nil
}

// ExposeInput makes inst's arg the group argument at groupIdx, forwarded
// into the instance when the wrapper runs. It fails if the instance or
// argument is undefined, if arg is not an in argument, or if groupIdx is
// already claimed by a different argument.
func (t *Template) ExposeInput(inst, arg string, groupIdx int) error {
	decl, err := t.argument(inst, arg)
	if err != nil {
		return err
	}
	if decl.Direction != ast.DirIn {
		return &Error{Kind: InvalidArgType, Instance: inst, Argument: arg, Detail: "exposed input must be an in argument"}
	}
	key := argKey{inst, arg}
	if err := t.expose(key, groupIdx); err != nil {
		return err
	}
	t.inputIndex[key] = groupIdx
	return nil
}

// ExposeOutput makes inst's arg the group argument at groupIdx, forwarded
// out of the instance when the wrapper runs. It fails if the instance or
// argument is undefined, if arg is not an out argument, or if groupIdx is
// already claimed by a different argument.
func (t *Template) ExposeOutput(inst, arg string, groupIdx int) error {
	decl, err := t.argument(inst, arg)
	if err != nil {
		return err
	}
	if decl.Direction != ast.DirOut {
		return &Error{Kind: InvalidArgType, Instance: inst, Argument: arg, Detail: "exposed output must be an out argument"}
	}
	key := argKey{inst, arg}
	if err := t.expose(key, groupIdx); err != nil {
		return err
	}
	t.outputIndex[key] = groupIdx
	return nil
}

// SetDefault supplies a literal default for inst's arg, used when the
// argument is neither connected nor exposed. It fails if the instance or
// argument is undefined, if arg's type is void or closure (neither can hold
// a literal default), or if value's type doesn't match arg's declared type.
func (t *Template) SetDefault(inst, arg string, value ast.Value) error {
	decl, err := t.argument(inst, arg)
	if err != nil {
		return err
	}
	if decl.Type == ast.TypeVoid || decl.Type == ast.TypeClosure {
		return &Error{Kind: InvalidArgType, Instance: inst, Argument: arg,
			Detail: fmt.Sprintf("%s argument cannot take a default value", decl.Type)}
	}
	if value.Type != decl.Type {
		return &Error{Kind: InvalidArgType, Instance: inst, Argument: arg,
			Detail: fmt.Sprintf("default value is %s but argument is %s", value.Type, decl.Type)}
	}
	t.defaults[argKey{inst, arg}] = &value
	return nil
}

// SetRoot designates inst as the traversal root; resolution discovers the
// group's instances by depth-first traversal from it.
func (t *Template) SetRoot(inst string) {
	t.root = inst
}

// Valid reports whether Resolve has produced a wrapper function for this
// template.
func (t *Template) Valid() bool {
	return t.resolved
}

// Dispose releases the LLVM context owning the wrapper module, handed to
// this template by a successful Resolve. Safe to call once every instance
// resolved from this group has cloned the module out; idempotent.
func (t *Template) Dispose() {
	if !t.resolved || t.disposed {
		return
	}
	t.disposed = true
	global.Forget(t.Ctx)
	t.Ctx.Dispose()
}
