package context_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/ckod3/Tiny-Shading-Language/pkg/closure"
	"github.com/ckod3/Tiny-Shading-Language/pkg/compiler"
	tslcontext "github.com/ckod3/Tiny-Shading-Language/pkg/context"
	"github.com/stretchr/testify/require"
)

func TestNewAssertsLayoutAndConstructs(t *testing.T) {
	require.NotPanics(t, func() {
		sc := tslcontext.New(nil)
		defer sc.Dispose()
		require.NotNil(t, sc.Closures())
	})
}

func TestShadingContextRegisterClosureIsIdempotentByName(t *testing.T) {
	sc := tslcontext.New(nil)
	defer sc.Dispose()

	id1, err := sc.RegisterClosure("Lambert", []closure.Field{{Name: "base_color", Type: closure.FieldFloat3}}, 16)
	require.NoError(t, err)

	id2, err := sc.RegisterClosure("Lambert", []closure.Field{{Name: "base_color", Type: closure.FieldFloat3}}, 16)
	require.NoError(t, err)

	require.Equal(t, id1, id2)
}

func TestShadingContextCompileReleasesDriverBackToThePool(t *testing.T) {
	sc := tslcontext.New(nil)
	defer sc.Dispose()

	tmpl, err := sc.Compile("shader entry(out float o){ o = 3.5; }", "unit1", compiler.DefaultConfig())
	require.NoError(t, err)
	require.True(t, tmpl.Valid())

	// A second compile must be able to reuse the pooled driver.
	tmpl2, err := sc.Compile("shader entry(out float o){ o = 1.0; }", "unit2", compiler.DefaultConfig())
	require.NoError(t, err)
	require.True(t, tmpl2.Valid())
}

func TestShadingContextResolveTemplate(t *testing.T) {
	sc := tslcontext.New(nil)
	defer sc.Dispose()

	tmpl, err := sc.Compile("shader entry(out float o){ o = 3.5; }", "unit1", compiler.DefaultConfig())
	require.NoError(t, err)

	inst, err := sc.ResolveTemplate(tmpl)
	require.NoError(t, err)
	defer inst.Dispose()
	require.NotNil(t, inst.FunctionPointer())

	out, err := inst.InvokeFloats(nil)
	require.NoError(t, err)
	require.Equal(t, []float32{3.5}, out)
}

func TestShadingContextResolveGroup(t *testing.T) {
	sc := tslcontext.New(nil)
	defer sc.Dispose()

	mul2, err := sc.Compile("shader entry(in float x, out float y){ y = x*2; }", "mul2", compiler.DefaultConfig())
	require.NoError(t, err)
	add3, err := sc.Compile("shader entry(in float x, out float y){ y = x+3; }", "add3", compiler.DefaultConfig())
	require.NoError(t, err)

	gt := sc.CreateGroupTemplate("pipeline")
	gt.AddUnit("mul2", mul2)
	gt.AddUnit("add3", add3)
	require.NoError(t, gt.Connect("mul2", "y", "add3", "x"))
	require.NoError(t, gt.ExposeInput("mul2", "x", 0))
	require.NoError(t, gt.ExposeOutput("add3", "y", 1))
	gt.SetRoot("add3")

	inst, err := sc.ResolveGroup(gt)
	require.NoError(t, err)
	defer gt.Dispose()
	defer inst.Dispose()
	require.NotNil(t, inst.FunctionPointer())

	// mul2(4) -> 8, add3(8) -> 11.
	out, err := inst.InvokeFloats([]float32{4.0})
	require.NoError(t, err)
	require.Equal(t, []float32{11.0}, out)
}

// 16 goroutines each compile a uniquely named shader and immediately
// resolve and call it; every call must see the right value with no
// cross-thread corruption.
func TestConcurrentCompileAndResolve(t *testing.T) {
	sc := tslcontext.New(nil)
	defer sc.Dispose()

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("concurrent_unit_%d", i)
			tmpl, err := sc.Compile("shader entry(out float o){ o = 3.5; }", name, compiler.DefaultConfig())
			if err != nil {
				errs[i] = err
				return
			}
			inst, err := sc.ResolveTemplate(tmpl)
			if err != nil {
				errs[i] = err
				return
			}
			defer inst.Dispose()
			if inst.FunctionPointer() == nil {
				errs[i] = fmt.Errorf("unit %d: nil function pointer", i)
				return
			}
			out, err := inst.InvokeFloats(nil)
			if err != nil {
				errs[i] = err
				return
			}
			if len(out) != 1 || out[0] != 3.5 {
				errs[i] = fmt.Errorf("unit %d: expected [3.5], got %v", i, out)
			}
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "goroutine %d", i)
	}
}
