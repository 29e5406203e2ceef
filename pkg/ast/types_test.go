package ast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBaseTypeRoundTripsEveryKeyword(t *testing.T) {
	for _, name := range []string{"void", "int", "float", "bool", "float3", "float4", "matrix", "double", "closure"} {
		typ, ok := ParseBaseType(name)
		require.True(t, ok, "expected %q to be a recognised base type", name)
		require.Equal(t, name, typ.String())
	}
}

func TestParseBaseTypeRejectsUnknownKeyword(t *testing.T) {
	_, ok := ParseBaseType("int3")
	require.False(t, ok)
}

func TestIsAggregateOnlyForVectorAndMatrixTypes(t *testing.T) {
	aggregates := map[BaseType]bool{
		TypeVoid:    false,
		TypeInt:     false,
		TypeFloat:   false,
		TypeBool:    false,
		TypeFloat3:  true,
		TypeFloat4:  true,
		TypeMatrix:  true,
		TypeDouble:  false,
		TypeClosure: false,
	}
	for typ, want := range aggregates {
		require.Equal(t, want, typ.IsAggregate(), "type %s", typ)
	}
}

func TestValueConstructors(t *testing.T) {
	require.Equal(t, Value{Type: TypeInt, Int: 7}, IntValue(7))
	require.Equal(t, Value{Type: TypeFloat, Float: 3.5}, FloatValue(3.5))
	require.Equal(t, Value{Type: TypeDouble, Float: 1.25}, DoubleValue(1.25))
	require.Equal(t, Value{Type: TypeBool, Bool: true}, BoolValue(true))

	f3 := Float3Value(0.5, 0.5, 0.5)
	require.Equal(t, TypeFloat3, f3.Type)
	require.Equal(t, [4]float64{0.5, 0.5, 0.5, 0}, f3.Vector)

	f4 := Float4Value(1, 2, 3, 4)
	require.Equal(t, TypeFloat4, f4.Type)
	require.Equal(t, [4]float64{1, 2, 3, 4}, f4.Vector)
}

func TestDirectionString(t *testing.T) {
	require.Equal(t, "in", DirIn.String())
	require.Equal(t, "out", DirOut.String())
}
