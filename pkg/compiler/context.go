package compiler

import (
	"github.com/ckod3/Tiny-Shading-Language/pkg/ast"
	"github.com/ckod3/Tiny-Shading-Language/pkg/source"
)

// Context is the per-compile driver state threaded explicitly through the
// parser's callbacks, so nothing about an in-flight compile lives in
// package or thread-local state. It implements ast.Driver and accumulates
// everything one compile produces: the function/struct/global-var lists,
// the shader root, the touched-closures set, and the string-intern pool.
type Context struct {
	arena *ast.Arena
	sink  *source.ErrorSink
	file  *source.File

	functions []ast.Handle
	structs   []ast.Handle
	globals   []ast.Handle
	shader    ast.Handle // Invalid until a shader entry point is pushed

	closuresTouched map[string]bool
	typeCache       ast.BaseType
	intern          map[string]string
}

// NewContext constructs a fresh compile context over the given arena and
// source file.
func NewContext(arena *ast.Arena, file *source.File) *Context {
	return &Context{
		arena:           arena,
		sink:            &source.ErrorSink{},
		file:            file,
		shader:          ast.Invalid,
		closuresTouched: make(map[string]bool),
		intern:          make(map[string]string),
	}
}

// PushFunction implements ast.Driver.
func (c *Context) PushFunction(node ast.Handle, isShader bool) {
	if isShader {
		c.shader = node
		return
	}
	c.functions = append(c.functions, node)
}

// PushStructure implements ast.Driver.
func (c *Context) PushStructure(node ast.Handle) {
	c.structs = append(c.structs, node)
}

// PushGlobalParameter implements ast.Driver.
func (c *Context) PushGlobalParameter(node ast.Handle) {
	c.globals = append(c.globals, node)
}

// ClosureTouched implements ast.Driver.
func (c *Context) ClosureTouched(name string) {
	c.closuresTouched[name] = true
}

// CacheDataType implements ast.Driver.
func (c *Context) CacheDataType(t ast.BaseType) {
	c.typeCache = t
}

// DataTypeCache implements ast.Driver.
func (c *Context) DataTypeCache() ast.BaseType {
	return c.typeCache
}

// ClaimPermanentAddress implements ast.Driver.
func (c *Context) ClaimPermanentAddress(s string) string {
	if v, ok := c.intern[s]; ok {
		return v
	}
	c.intern[s] = s
	return s
}

// ReportError records a semantic error at the given node's span. Codegen
// keeps going after a report where it can, so one compile surfaces every
// diagnostic rather than only the first.
func (c *Context) ReportError(span source.Span, format string, args ...any) {
	c.sink.Report(c.file, span, format, args...)
}

// Node resolves a handle against this context's arena.
func (c *Context) Node(h ast.Handle) (ast.Node, bool) {
	return c.arena.Get(h)
}

// ClosuresTouched returns the set of closure names the shader referenced.
func (c *Context) ClosuresTouched() map[string]bool {
	return c.closuresTouched
}
