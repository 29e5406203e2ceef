package resolve_test

import (
	"testing"
	"unsafe"

	"github.com/ckod3/Tiny-Shading-Language/pkg/closure"
	"github.com/ckod3/Tiny-Shading-Language/pkg/compiler"
	"github.com/ckod3/Tiny-Shading-Language/pkg/global"
	"github.com/ckod3/Tiny-Shading-Language/pkg/resolve"
	"github.com/stretchr/testify/require"
	"tinygo.org/x/go-llvm"
)

// lambertNode mirrors the node layout make_closure_Lambert builds: the
// leading i32 id, then the registered base_color field.
type lambertNode struct {
	id      int32
	r, g, b float32
}

// buildLambertHost stands in for the host library: it JIT-compiles a real
// make_closure_Lambert that writes the id and base_color into a static
// node slot and returns its address, then hands back the constructor's
// native address for RegisterHostSymbol. The engine owning the code lives
// until the test ends.
func buildLambertHost(t *testing.T) unsafe.Pointer {
	t.Helper()

	llvm.LinkInMCJIT()
	require.NoError(t, llvm.InitializeNativeTarget())
	require.NoError(t, llvm.InitializeNativeAsmPrinter())

	ctx := llvm.NewContext()
	ts := global.Declare(ctx)
	module := ctx.NewModule("lambert_host")

	nodeType := ctx.StructCreateNamed("lambert.node")
	nodeType.StructSetBody([]llvm.Type{ts.I32, ts.Float3}, false)

	slot := llvm.AddGlobal(module, nodeType, "lambert.slot")
	slot.SetInitializer(llvm.ConstNull(nodeType))

	fnType := llvm.FunctionType(ts.Ptr, []llvm.Type{ts.Float3}, false)
	fn := llvm.AddFunction(module, "make_closure_Lambert", fnType)

	builder := ctx.NewBuilder()
	defer builder.Dispose()
	entry := ctx.AddBasicBlock(fn, "entry")
	builder.SetInsertPointAtEnd(entry)
	builder.CreateStore(llvm.ConstInt(ts.I32, 1, true), builder.CreateStructGEP(slot, 0, "id"))
	builder.CreateStore(fn.Param(0), builder.CreateStructGEP(slot, 1, "base_color"))
	builder.CreateRet(builder.CreateBitCast(slot, ts.Ptr, "node"))

	engine, err := llvm.NewMCJITCompiler(module, llvm.NewMCJITCompilerOptions())
	require.NoError(t, err)
	t.Cleanup(func() {
		engine.Dispose()
		global.Forget(ctx)
		ctx.Dispose()
	})

	addr := engine.PointerToGlobal(fn)
	require.NotNil(t, addr)
	return addr
}

// Closure emission end to end: register Lambert (id 1), compile the
// shader, resolve it with the host constructor mapped in, invoke the
// function, and read the materialized node's id and base_color fields
// back the way the host renderer would.
func TestResolveClosureEmittingShaderMaterializesNode(t *testing.T) {
	resolve.RegisterHostSymbol("make_closure_Lambert", buildLambertHost(t))

	closures := closure.NewRegistry(nil)
	id, err := closures.Register("Lambert", []closure.Field{{Name: "base_color", Type: closure.FieldFloat3}}, 16)
	require.NoError(t, err)
	require.EqualValues(t, 1, id)

	driver := compiler.NewDriver(closures, nil)
	defer driver.Dispose()

	src := "shader entry(out closure c){ c = make_closure<Lambert>(float3(0.5,0.5,0.5)); }"
	tmpl, err := driver.Compile(src, "closure_shader", compiler.DefaultConfig())
	require.NoError(t, err)

	inst, err := resolve.ResolveTemplate(tmpl, nil)
	require.NoError(t, err)
	defer inst.Dispose()

	p, err := inst.InvokeClosure()
	require.NoError(t, err)
	require.NotNil(t, p)

	node := (*lambertNode)(p)
	require.EqualValues(t, 1, node.id)
	require.Equal(t, float32(0.5), node.r)
	require.Equal(t, float32(0.5), node.g)
	require.Equal(t, float32(0.5), node.b)
}
