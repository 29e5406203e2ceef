package resolve_test

import (
	"testing"

	"github.com/ckod3/Tiny-Shading-Language/pkg/closure"
	"github.com/ckod3/Tiny-Shading-Language/pkg/compiler"
	"github.com/ckod3/Tiny-Shading-Language/pkg/resolve"
	"github.com/stretchr/testify/require"
)

func TestResolveNilTemplateFails(t *testing.T) {
	_, err := resolve.ResolveTemplate(nil, nil)
	require.Error(t, err)

	var rerr *resolve.Error
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, resolve.InvalidInput, rerr.Kind)
}

func TestResolveNilGroupTemplateFails(t *testing.T) {
	_, err := resolve.ResolveGroup(nil, nil)
	require.Error(t, err)

	var rerr *resolve.Error
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, resolve.InvalidInput, rerr.Kind)
}

func TestResolveTemplateProducesCallableInstance(t *testing.T) {
	closures := closure.NewRegistry(nil)
	driver := compiler.NewDriver(closures, nil)
	defer driver.Dispose()

	tmpl, err := driver.Compile("shader entry(out float o){ o = 3.5; }", "constant_shader", compiler.DefaultConfig())
	require.NoError(t, err)

	inst, err := resolve.ResolveTemplate(tmpl, nil)
	require.NoError(t, err)
	require.NotNil(t, inst)
	defer inst.Dispose()

	require.NotNil(t, inst.FunctionPointer())
	require.Equal(t, "constant_shader", inst.Name)
	require.Len(t, inst.Args, 1)

	// Calling the resolved function must actually produce o == 3.5f, not
	// merely a non-nil function pointer.
	out, err := inst.InvokeFloats(nil)
	require.NoError(t, err)
	require.Equal(t, []float32{3.5}, out)
}

func TestResolveTemplateCanBeRepeatedIndependently(t *testing.T) {
	closures := closure.NewRegistry(nil)
	driver := compiler.NewDriver(closures, nil)
	defer driver.Dispose()

	tmpl, err := driver.Compile("shader entry(out float o){ o = 3.5; }", "constant_shader", compiler.DefaultConfig())
	require.NoError(t, err)

	inst1, err := resolve.ResolveTemplate(tmpl, nil)
	require.NoError(t, err)
	defer inst1.Dispose()

	inst2, err := resolve.ResolveTemplate(tmpl, nil)
	require.NoError(t, err)
	defer inst2.Dispose()

	// Two independent instances from one template, each with its own
	// engine and resolved function address; neither consumes the template.
	require.NotNil(t, inst1.FunctionPointer())
	require.NotNil(t, inst2.FunctionPointer())
}
