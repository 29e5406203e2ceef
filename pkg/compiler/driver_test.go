package compiler_test

import (
	"testing"

	"github.com/ckod3/Tiny-Shading-Language/pkg/ast"
	"github.com/ckod3/Tiny-Shading-Language/pkg/closure"
	"github.com/ckod3/Tiny-Shading-Language/pkg/compiler"
	"github.com/stretchr/testify/require"
)

// The smallest useful compile: a constant shader with no closures.
func TestCompileConstantShader(t *testing.T) {
	closures := closure.NewRegistry(nil)
	driver := compiler.NewDriver(closures, nil)
	defer driver.Dispose()

	tmpl, err := driver.Compile("shader entry(out float o){ o = 3.5; }", "constant_shader", compiler.DefaultConfig())
	require.NoError(t, err)
	require.True(t, tmpl.Valid())
	require.Equal(t, "constant_shader_entry", tmpl.RootFuncName)
	require.Len(t, tmpl.Args, 1)
	require.Equal(t, "o", tmpl.Args[0].Name)
	require.Equal(t, ast.TypeFloat, tmpl.Args[0].Type)
	require.Equal(t, ast.DirOut, tmpl.Args[0].Direction)
	require.True(t, tmpl.AllowOptimization())
	require.True(t, tmpl.AllowVerification())
	require.Len(t, tmpl.Dependencies, 1, "every template depends on at least the closure module")
}

// A shader that emits a registered closure compiles against the
// registry's declared constructor.
func TestCompileClosureEmittingShader(t *testing.T) {
	closures := closure.NewRegistry(nil)
	id, err := closures.Register("Lambert", []closure.Field{{Name: "base_color", Type: closure.FieldFloat3}}, 16)
	require.NoError(t, err)
	require.EqualValues(t, 1, id)

	driver := compiler.NewDriver(closures, nil)
	defer driver.Dispose()

	src := "shader entry(out closure c){ c = make_closure<Lambert>(float3(0.5,0.5,0.5)); }"
	tmpl, err := driver.Compile(src, "closure_shader", compiler.DefaultConfig())
	require.NoError(t, err)
	require.True(t, tmpl.Valid())
	require.Len(t, tmpl.Args, 1)
	require.Equal(t, ast.TypeClosure, tmpl.Args[0].Type)
}

func TestCompileUnregisteredClosureFails(t *testing.T) {
	closures := closure.NewRegistry(nil)
	driver := compiler.NewDriver(closures, nil)
	defer driver.Dispose()

	src := "shader entry(out closure c){ c = make_closure<Ghost>(); }"
	_, err := driver.Compile(src, "bad_closure_shader", compiler.DefaultConfig())
	require.Error(t, err)

	var ucErr *compiler.UnregisteredClosureError
	require.ErrorAs(t, err, &ucErr)
	require.Equal(t, "Ghost", ucErr.Name)
}

// Closure values are opaque; arithmetic over them must be rejected as a
// codegen diagnostic, never lowered to float instructions on pointers.
func TestCompileClosureArithmeticIsRejected(t *testing.T) {
	closures := closure.NewRegistry(nil)
	driver := compiler.NewDriver(closures, nil)
	defer driver.Dispose()

	_, err := driver.Compile("shader entry(out closure c){ c = c + c; }", "closure_arith", compiler.DefaultConfig())
	require.Error(t, err)

	var cgErr *compiler.CodegenError
	require.ErrorAs(t, err, &cgErr)
}

func TestCompileSyntaxErrorFails(t *testing.T) {
	closures := closure.NewRegistry(nil)
	driver := compiler.NewDriver(closures, nil)
	defer driver.Dispose()

	_, err := driver.Compile("shader entry(out float o) o = 3.5; }", "broken_shader", compiler.DefaultConfig())
	require.Error(t, err)

	var perr *compiler.ParseError
	require.ErrorAs(t, err, &perr)
}

func TestCompileMissingShaderEntryFails(t *testing.T) {
	closures := closure.NewRegistry(nil)
	driver := compiler.NewDriver(closures, nil)
	defer driver.Dispose()

	_, err := driver.Compile("float helper(float x){ return x; }", "no_shader", compiler.DefaultConfig())
	require.Error(t, err)
}

func TestCompileTwoUnitsFromSameDriverShareDependencies(t *testing.T) {
	closures := closure.NewRegistry(nil)
	driver := compiler.NewDriver(closures, nil)
	defer driver.Dispose()

	mul2, err := driver.Compile("shader entry(in float x, out float y){ y = x*2; }", "mul2", compiler.DefaultConfig())
	require.NoError(t, err)

	add3, err := driver.Compile("shader entry(in float x, out float y){ y = x+3; }", "add3", compiler.DefaultConfig())
	require.NoError(t, err)

	// Both units are compiled by the same driver/context but are
	// independent templates with their own module and args.
	require.NotEqual(t, mul2.Module, add3.Module)
	require.Equal(t, mul2.Ctx, add3.Ctx)
}
