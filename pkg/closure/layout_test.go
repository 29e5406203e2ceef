package closure_test

import (
	"testing"

	"github.com/ckod3/Tiny-Shading-Language/pkg/closure"
	"github.com/ckod3/Tiny-Shading-Language/pkg/global"
	"github.com/stretchr/testify/require"
	"tinygo.org/x/go-llvm"
)

func TestAssertLayoutHoldsOnThisHost(t *testing.T) {
	require.NotPanics(t, closure.AssertLayout)
}

// The host-side layout assertions prove what Go sees; this probes the
// other half of the contract by asking a real JIT engine's target data how
// it would lay the closure-tree structs out, so a node written by emitted
// code and read by the host can never disagree on field offsets.
func TestClosureTreeIRLayoutMatchesHost(t *testing.T) {
	llvm.LinkInMCJIT()
	require.NoError(t, llvm.InitializeNativeTarget())
	require.NoError(t, llvm.InitializeNativeAsmPrinter())

	ctx := llvm.NewContext()
	defer func() {
		global.Forget(ctx)
		ctx.Dispose()
	}()

	ts := global.Declare(ctx)
	module := ctx.NewModule("layout_probe")

	engine, err := llvm.NewMCJITCompiler(module, llvm.NewMCJITCompilerOptions())
	require.NoError(t, err)
	defer engine.Dispose()

	require.NoError(t, closure.VerifyIRLayout(engine.TargetData(), ts))
}
