package ast

// Driver is the set of callbacks the parser frontend invokes while walking
// one source string. The driver is threaded explicitly through the parser
// rather than stashed in thread-local state, so each compile's
// accumulated declarations stay on its own context object.
type Driver interface {
	// PushFunction stashes a parsed function; when isShader is true this
	// is the compile's single shader entry point.
	PushFunction(node Handle, isShader bool)
	// PushStructure adds a struct declaration to the compile's struct list.
	PushStructure(node Handle)
	// PushGlobalParameter adds a global variable declaration.
	PushGlobalParameter(node Handle)
	// ClosureTouched records that the shader references a closure by name,
	// so the compile driver knows which closure constructors to declare
	// in the template module.
	ClosureTouched(name string)
	// CacheDataType and DataTypeCache provide a single per-compile type
	// slot the grammar can use to pass a type between non-adjacent
	// productions (e.g. a vector-constructor call needing to know its
	// target type without re-deriving it). Auxiliary service only.
	CacheDataType(t BaseType)
	DataTypeCache() BaseType
	// ClaimPermanentAddress returns a stable, interned copy of s that
	// remains valid for the lifetime of the compile, smoothing over
	// frontends that reuse scratch buffers across tokens.
	ClaimPermanentAddress(s string) string
}
