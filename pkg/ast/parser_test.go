package ast

import (
	"testing"

	"github.com/ckod3/Tiny-Shading-Language/pkg/source"
	"github.com/stretchr/testify/require"
)

// recordingDriver implements Driver for frontend tests, recording every
// callback in the order the parser fires them.
type recordingDriver struct {
	functions []Handle
	shader    Handle
	structs   []Handle
	globals   []Handle
	closures  []string
	typeCache BaseType
}

func (d *recordingDriver) PushFunction(node Handle, isShader bool) {
	if isShader {
		d.shader = node
		return
	}
	d.functions = append(d.functions, node)
}
func (d *recordingDriver) PushStructure(node Handle)       { d.structs = append(d.structs, node) }
func (d *recordingDriver) PushGlobalParameter(node Handle) { d.globals = append(d.globals, node) }
func (d *recordingDriver) ClosureTouched(name string)      { d.closures = append(d.closures, name) }
func (d *recordingDriver) CacheDataType(t BaseType)        { d.typeCache = t }
func (d *recordingDriver) DataTypeCache() BaseType         { return d.typeCache }
func (d *recordingDriver) ClaimPermanentAddress(s string) string { return s }

func parseSource(t *testing.T, src string) (*Arena, *recordingDriver, error) {
	t.Helper()
	arena := NewArena()
	arena.EnterRegion()
	t.Cleanup(arena.LeaveRegion)

	driver := &recordingDriver{shader: Invalid}
	p, err := NewParser(source.NewFile("test.tsl", src), arena, driver)
	require.NoError(t, err)
	return arena, driver, p.ParseProgram()
}

func TestParseShaderEntryPoint(t *testing.T) {
	arena, driver, err := parseSource(t, "shader entry(in float x, out float y){ y = x*2; }")
	require.NoError(t, err)
	require.True(t, driver.shader.IsValid())

	node, ok := arena.Get(driver.shader)
	require.True(t, ok)
	fn, ok := node.(*FunctionDecl)
	require.True(t, ok)
	require.Equal(t, "entry", fn.Name)
	require.True(t, fn.IsShader)
	require.Len(t, fn.Params, 2)
	require.Equal(t, DirIn, fn.Params[0].Direction)
	require.Equal(t, DirOut, fn.Params[1].Direction)
	require.Equal(t, TypeFloat, fn.Params[0].Type)
}

func TestParseStructGlobalAndFreeFunction(t *testing.T) {
	src := `
struct Light {
	float3 position;
	float intensity;
};
global float exposure;
float scale(float v){ return v * 2.0; }
shader entry(out float o){ o = scale(exposure); }
`
	arena, driver, err := parseSource(t, src)
	require.NoError(t, err)
	require.Len(t, driver.structs, 1)
	require.Len(t, driver.globals, 1)
	require.Len(t, driver.functions, 1)
	require.True(t, driver.shader.IsValid())

	node, ok := arena.Get(driver.structs[0])
	require.True(t, ok)
	st := node.(*StructDecl)
	require.Equal(t, "Light", st.Name)
	require.Len(t, st.Fields, 2)
	require.Equal(t, TypeFloat3, st.Fields[0].Type)
}

func TestParseClosureCallFiresClosureTouched(t *testing.T) {
	_, driver, err := parseSource(t, "shader entry(out closure c){ c = make_closure<Lambert>(float3(0.5,0.5,0.5)); }")
	require.NoError(t, err)
	require.Equal(t, []string{"Lambert"}, driver.closures)
}

func TestParseNumberLiteralsKeepIntAndFloatApart(t *testing.T) {
	arena, driver, err := parseSource(t, "shader entry(out float o){ int i = 2; o = 3.5; }")
	require.NoError(t, err)

	node, _ := arena.Get(driver.shader)
	fn := node.(*FunctionDecl)
	body, _ := arena.Get(fn.Body)
	stmts := body.(*Block).Stmts
	require.Len(t, stmts, 2)

	declNode, _ := arena.Get(stmts[0])
	decl := declNode.(*VarDecl)
	initNode, _ := arena.Get(decl.Init)
	require.Equal(t, TypeInt, initNode.(*Literal).Value.Type)
	require.EqualValues(t, 2, initNode.(*Literal).Value.Int)

	assignNode, _ := arena.Get(stmts[1])
	valNode, _ := arena.Get(assignNode.(*Assign).Value)
	require.Equal(t, TypeFloat, valNode.(*Literal).Value.Type)
	require.Equal(t, 3.5, valNode.(*Literal).Value.Float)
}

func TestParseLogicalOperatorPrecedence(t *testing.T) {
	arena, driver, err := parseSource(t,
		"shader entry(in float x, out bool o){ o = x > 1 && x < 5 || x < 0; }")
	require.NoError(t, err)

	node, _ := arena.Get(driver.shader)
	fn := node.(*FunctionDecl)
	body, _ := arena.Get(fn.Body)
	assignNode, _ := arena.Get(body.(*Block).Stmts[0])
	valNode, _ := arena.Get(assignNode.(*Assign).Value)

	// || binds loosest, so it is the root of the expression tree.
	root := valNode.(*Binary)
	require.Equal(t, "||", root.Op)

	leftNode, _ := arena.Get(root.Left)
	require.Equal(t, "&&", leftNode.(*Binary).Op)
}

func TestParseDefaultParameterValues(t *testing.T) {
	arena, driver, err := parseSource(t,
		"shader entry(in float x = 7.0, in float3 tint = float3(1,1,1), out float o){ o = x; }")
	require.NoError(t, err)

	node, _ := arena.Get(driver.shader)
	fn := node.(*FunctionDecl)
	require.NotNil(t, fn.Params[0].Default)
	require.Equal(t, 7.0, fn.Params[0].Default.Float)
	require.NotNil(t, fn.Params[1].Default)
	require.Equal(t, [4]float64{1, 1, 1, 0}, fn.Params[1].Default.Vector)
	require.Nil(t, fn.Params[2].Default)
}

func TestParseSyntaxErrorCarriesSpan(t *testing.T) {
	_, _, err := parseSource(t, "shader entry(out float o) o = 3.5; }")
	require.Error(t, err)

	var serr *source.SyntaxError
	require.ErrorAs(t, err, &serr)
	require.Contains(t, serr.Error(), "test.tsl:1:")
}

func TestParseCommentsAreSkipped(t *testing.T) {
	src := `
// line comment
shader entry(out float o){
	/* block
	   comment */
	o = 3.5; // trailing
}
`
	_, driver, err := parseSource(t, src)
	require.NoError(t, err)
	require.True(t, driver.shader.IsValid())
}
