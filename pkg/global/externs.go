package global

import "tinygo.org/x/go-llvm"

// Externs is the name->declaration map populated inside one module by
// DeclareInto, covering the host-linked shading-math runtime library. The
// actual function bodies live in the host process and are resolved by the
// execution engine's symbol resolver at JIT time; this package only
// declares their prototypes so generated IR can call them.
type Externs struct {
	byName map[string]llvm.Value
}

// Lookup returns the declared extern function value for name, if any.
func (e *Externs) Lookup(name string) (llvm.Value, bool) {
	v, ok := e.byName[name]
	return v, ok
}

type mathFn struct {
	name   string
	params func(ts *TypeSet) []llvm.Type
	ret    func(ts *TypeSet) llvm.Type
}

// mathLibrary is the curated, fixed set of runtime helpers TSL shaders may
// call: a small slice of a shading-math library's surface (trig, vector
// algebra) without attempting to be exhaustive. The bodies belong to the
// host, never to this compiler.
var mathLibrary = []mathFn{
	{"sinf", unary, scalar},
	{"cosf", unary, scalar},
	{"sqrtf", unary, scalar},
	{"fabsf", unary, scalar},
	{"powf", binaryScalar, scalar},
	{"tsl_dot3", func(ts *TypeSet) []llvm.Type { return []llvm.Type{ts.Float3, ts.Float3} }, scalar},
	{"tsl_normalize3", func(ts *TypeSet) []llvm.Type { return []llvm.Type{ts.Float3} }, float3},
	{"tsl_cross3", func(ts *TypeSet) []llvm.Type { return []llvm.Type{ts.Float3, ts.Float3} }, float3},
}

func unary(ts *TypeSet) []llvm.Type        { return []llvm.Type{ts.F32} }
func binaryScalar(ts *TypeSet) []llvm.Type { return []llvm.Type{ts.F32, ts.F32} }
func scalar(ts *TypeSet) llvm.Type         { return ts.F32 }
func float3(ts *TypeSet) llvm.Type         { return ts.Float3 }

// DeclareInto materializes the global types (memoized per context, see
// Declare) and the math-library prototypes inside module, and returns
// both the TypeSet and the resulting name->declaration map for the
// compile context to resolve calls against.
func DeclareInto(module llvm.Module, ctx llvm.Context) (*TypeSet, *Externs) {
	ts := Declare(ctx)
	externs := &Externs{byName: make(map[string]llvm.Value, len(mathLibrary))}
	//
	for _, fn := range mathLibrary {
		fnType := llvm.FunctionType(fn.ret(ts), fn.params(ts), false)
		val := llvm.AddFunction(module, fn.name, fnType)
		val.SetLinkage(llvm.ExternalLinkage)
		externs.byName[fn.name] = val
	}
	//
	return ts, externs
}
