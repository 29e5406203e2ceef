package group_test

import (
	"testing"

	"github.com/ckod3/Tiny-Shading-Language/pkg/ast"
	"github.com/ckod3/Tiny-Shading-Language/pkg/closure"
	"github.com/ckod3/Tiny-Shading-Language/pkg/compiler"
	"github.com/ckod3/Tiny-Shading-Language/pkg/group"
	"github.com/ckod3/Tiny-Shading-Language/pkg/resolve"
	"github.com/stretchr/testify/require"
)

func compileUnit(t *testing.T, d *compiler.Driver, src, name string) *compiler.Template {
	t.Helper()
	tmpl, err := d.Compile(src, name, compiler.DefaultConfig())
	require.NoError(t, err)
	return tmpl
}

// Two units wired in sequence: mul2.y feeds add3.x, mul2.x exposed as
// group argument 0, add3.y exposed as group argument 1. The wrapper must
// call mul2 before add3 and route the intermediate through a stack slot.
func TestGroupWiringConnectsUnitsInOrder(t *testing.T) {
	closures := closure.NewRegistry(nil)
	driver := compiler.NewDriver(closures, nil)
	defer driver.Dispose()

	mul2 := compileUnit(t, driver, "shader entry(in float x, out float y){ y = x*2; }", "mul2")
	add3 := compileUnit(t, driver, "shader entry(in float x, out float y){ y = x+3; }", "add3")

	gt := group.NewTemplate("pipeline")
	gt.AddUnit("mul2", mul2)
	gt.AddUnit("add3", add3)
	require.NoError(t, gt.Connect("mul2", "y", "add3", "x"))
	require.NoError(t, gt.ExposeInput("mul2", "x", 0))
	require.NoError(t, gt.ExposeOutput("add3", "y", 1))
	gt.SetRoot("add3")

	r := group.NewResolver(nil)
	require.NoError(t, r.Resolve(gt))
	defer gt.Dispose()

	require.True(t, gt.Valid())
	require.Equal(t, "pipeline_shader_wrapper", gt.WrapperName)
	require.Len(t, gt.Args, 2)
	require.Equal(t, ast.DirIn, gt.Args[0].Direction)
	require.Equal(t, ast.DirOut, gt.Args[1].Direction)
	require.GreaterOrEqual(t, len(gt.Dependencies), 1)

	inst, rerr := resolve.ResolveGroup(gt, nil)
	require.NoError(t, rerr)
	defer inst.Dispose()

	out, ierr := inst.InvokeFloats([]float32{4.0})
	require.NoError(t, ierr)
	require.Equal(t, []float32{11.0}, out)
}

// Same wiring as above but mul2.y -> add3.x is dropped in favor of a
// default literal on add3.x; the wrapper must materialize the constant
// instead of failing the unconnected input.
func TestGroupWiringWithDefaultInsteadOfConnection(t *testing.T) {
	closures := closure.NewRegistry(nil)
	driver := compiler.NewDriver(closures, nil)
	defer driver.Dispose()

	mul2 := compileUnit(t, driver, "shader entry(in float x, out float y){ y = x*2; }", "mul2")
	add3 := compileUnit(t, driver, "shader entry(in float x, out float y){ y = x+3; }", "add3")

	gt := group.NewTemplate("defaulted")
	gt.AddUnit("mul2", mul2)
	gt.AddUnit("add3", add3)
	require.NoError(t, gt.ExposeInput("mul2", "x", 0))
	require.NoError(t, gt.ExposeOutput("add3", "y", 1))
	require.NoError(t, gt.SetDefault("add3", "x", ast.FloatValue(7.0)))
	gt.SetRoot("add3")

	r := group.NewResolver(nil)
	require.NoError(t, r.Resolve(gt))
	defer gt.Dispose()
	require.True(t, gt.Valid())

	inst, rerr := resolve.ResolveGroup(gt, nil)
	require.NoError(t, rerr)
	defer inst.Dispose()

	out, ierr := inst.InvokeFloats([]float32{4.0})
	require.NoError(t, ierr)
	require.Equal(t, []float32{10.0}, out)
}

// A two-unit cycle must fail with ShaderGroupWithCycles and leave the
// group template unresolved.
func TestGroupWiringRejectsCycles(t *testing.T) {
	closures := closure.NewRegistry(nil)
	driver := compiler.NewDriver(closures, nil)
	defer driver.Dispose()

	passthrough := compileUnit(t, driver, "shader entry(in float x, out float y){ y = x; }", "f")

	gt := group.NewTemplate("cyclic")
	gt.AddUnit("f1", passthrough)
	gt.AddUnit("f2", passthrough)
	require.NoError(t, gt.Connect("f1", "y", "f2", "x"))
	require.NoError(t, gt.Connect("f2", "y", "f1", "x"))
	gt.SetRoot("f1")

	r := group.NewResolver(nil)
	err := r.Resolve(gt)
	require.Error(t, err)

	var gerr *group.Error
	require.ErrorAs(t, err, &gerr)
	require.Equal(t, group.ShaderGroupWithCycles, gerr.Kind)
	require.False(t, gt.Valid(), "a rejected group must not leave a partial wrapper module")
}

// A group whose root depends on no other unit resolves with a wrapper
// that simply forwards arguments.
func TestGroupWithSingleUnrelatedUnit(t *testing.T) {
	closures := closure.NewRegistry(nil)
	driver := compiler.NewDriver(closures, nil)
	defer driver.Dispose()

	unit := compileUnit(t, driver, "shader entry(out float o){ o = 3.5; }", "constant")

	gt := group.NewTemplate("solo")
	gt.AddUnit("constant", unit)
	require.NoError(t, gt.ExposeOutput("constant", "o", 0))
	gt.SetRoot("constant")

	r := group.NewResolver(nil)
	require.NoError(t, r.Resolve(gt))
	defer gt.Dispose()
	require.Len(t, gt.Args, 1)
	require.Equal(t, ast.DirOut, gt.Args[0].Direction)
}

func TestGroupMissingInitializationFails(t *testing.T) {
	closures := closure.NewRegistry(nil)
	driver := compiler.NewDriver(closures, nil)
	defer driver.Dispose()

	add3 := compileUnit(t, driver, "shader entry(in float x, out float y){ y = x+3; }", "add3")

	gt := group.NewTemplate("uninitialized")
	gt.AddUnit("add3", add3)
	require.NoError(t, gt.ExposeOutput("add3", "y", 0))
	gt.SetRoot("add3")
	// add3.x is neither connected, exposed, nor defaulted.

	r := group.NewResolver(nil)
	err := r.Resolve(gt)
	require.Error(t, err)

	var gerr *group.Error
	require.ErrorAs(t, err, &gerr)
	require.Equal(t, group.ArgumentWithoutInitialization, gerr.Kind)
}

// A connection whose source output type disagrees with the destination
// input type must be rejected at Connect time, not silently miscompiled.
func TestGroupConnectRejectsTypeMismatch(t *testing.T) {
	closures := closure.NewRegistry(nil)
	driver := compiler.NewDriver(closures, nil)
	defer driver.Dispose()

	producer := compileUnit(t, driver, "shader entry(out int y){ y = 2; }", "producer")
	consumer := compileUnit(t, driver, "shader entry(in float x, out float y){ y = x+3; }", "consumer")

	gt := group.NewTemplate("mismatched")
	gt.AddUnit("producer", producer)
	gt.AddUnit("consumer", consumer)

	err := gt.Connect("producer", "y", "consumer", "x")
	require.Error(t, err)

	var gerr2 *group.Error
	require.ErrorAs(t, err, &gerr2)
	require.Equal(t, group.InvalidArgType, gerr2.Kind)
}
