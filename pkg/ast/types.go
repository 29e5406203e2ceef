package ast

import "fmt"

// BaseType enumerates the base types a shader value may have.
type BaseType uint8

// Recognised base types.
const (
	TypeVoid BaseType = iota
	TypeInt
	TypeFloat
	TypeBool
	TypeFloat3
	TypeFloat4
	TypeMatrix
	TypeDouble
	TypeClosure
)

func (t BaseType) String() string {
	switch t {
	case TypeVoid:
		return "void"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeFloat3:
		return "float3"
	case TypeFloat4:
		return "float4"
	case TypeMatrix:
		return "matrix"
	case TypeDouble:
		return "double"
	case TypeClosure:
		return "closure"
	default:
		return fmt.Sprintf("BaseType(%d)", uint8(t))
	}
}

// IsAggregate reports whether values of this type are passed by pointer at
// the native ABI level even when logically an "in" parameter.
func (t BaseType) IsAggregate() bool {
	switch t {
	case TypeFloat3, TypeFloat4, TypeMatrix:
		return true
	default:
		return false
	}
}

// ParseBaseType maps a keyword spelling to its BaseType, as used both by the
// parser and by group-definition loaders that describe types textually.
func ParseBaseType(name string) (BaseType, bool) {
	switch name {
	case "void":
		return TypeVoid, true
	case "int":
		return TypeInt, true
	case "float":
		return TypeFloat, true
	case "bool":
		return TypeBool, true
	case "float3":
		return TypeFloat3, true
	case "float4":
		return TypeFloat4, true
	case "matrix":
		return TypeMatrix, true
	case "double":
		return TypeDouble, true
	case "closure":
		return TypeClosure, true
	default:
		return 0, false
	}
}

// Direction is the passing direction of a ShaderArgument.
type Direction uint8

// Recognised directions.
const (
	DirIn Direction = iota
	DirOut
)

func (d Direction) String() string {
	if d == DirOut {
		return "out"
	}
	return "in"
}

// Value is a literal default value for a ShaderArgument, carrying exactly
// one of the base-type payloads depending on Type.
type Value struct {
	Type   BaseType
	Int    int64
	Float  float64
	Bool   bool
	Vector [4]float64 // first N components valid for float3/float4
	Matrix [16]float64
}

// IntValue constructs an int-typed literal value.
func IntValue(v int64) Value { return Value{Type: TypeInt, Int: v} }

// FloatValue constructs a float-typed literal value.
func FloatValue(v float64) Value { return Value{Type: TypeFloat, Float: v} }

// DoubleValue constructs a double-typed literal value.
func DoubleValue(v float64) Value { return Value{Type: TypeDouble, Float: v} }

// BoolValue constructs a bool-typed literal value.
func BoolValue(v bool) Value { return Value{Type: TypeBool, Bool: v} }

// Float3Value constructs a float3-typed literal value.
func Float3Value(x, y, z float64) Value {
	return Value{Type: TypeFloat3, Vector: [4]float64{x, y, z, 0}}
}

// Float4Value constructs a float4-typed literal value.
func Float4Value(x, y, z, w float64) Value {
	return Value{Type: TypeFloat4, Vector: [4]float64{x, y, z, w}}
}

// ShaderArgument describes one exposed parameter of a shader unit.
type ShaderArgument struct {
	Name      string
	Type      BaseType
	Direction Direction
	Default   *Value
}
