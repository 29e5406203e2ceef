package compiler

import (
	"github.com/ckod3/Tiny-Shading-Language/pkg/ast"
	"tinygo.org/x/go-llvm"
)

// Template is the compiled form of one shader source string. It is
// logically immutable after Compile returns and may be freely shared,
// read-only, across threads.
type Template struct {
	Name string
	// Ctx is the LLVM context Module belongs to; every Template produced
	// by one Driver shares that driver's context.
	Ctx    llvm.Context
	Module llvm.Module
	// RootFuncName is the exported name of the shader's entry function
	// within Module.
	RootFuncName string
	// Args is the exposed-argument list, in declaration order.
	Args []ast.ShaderArgument
	// Dependencies lists modules this template's compiled code calls into
	// but does not itself define; always includes the closure module.
	Dependencies []llvm.Module
	// root is the retained AST root of the shader function, kept because
	// shader groups need to re-declare its signature later. arena is the
	// arena that owns it, which Transfer has exempted from its region's
	// LeaveRegion.
	root  ast.Handle
	arena *ast.Arena

	allowOptimization bool
	allowVerification bool
	compiled          bool
}

// Root returns the retained AST root and the arena it lives in.
func (t *Template) Root() (ast.Handle, *ast.Arena) {
	return t.root, t.arena
}

// AllowOptimization reports whether the resolver's optimization passes
// should run for instances resolved from this template.
func (t *Template) AllowOptimization() bool {
	return t.allowOptimization
}

// AllowVerification reports whether IR verification should run for
// instances resolved from this template.
func (t *Template) AllowVerification() bool {
	return t.allowVerification
}

// Valid reports whether this template has a module and a root function,
// the precondition for resolving an instance from it.
func (t *Template) Valid() bool {
	return t.compiled && t.RootFuncName != ""
}

// Argument looks up one exposed argument by name.
func (t *Template) Argument(name string) (ast.ShaderArgument, bool) {
	for _, a := range t.Args {
		if a.Name == name {
			return a, true
		}
	}
	return ast.ShaderArgument{}, false
}
