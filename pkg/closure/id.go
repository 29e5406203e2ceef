package closure

// ID is a stable integer identifier assigned to a named closure type.
// Reserved values are Invalid, Add and Mul; all user closures are positive,
// assigned densely from 1 upward. IDs are process-lifetime only: nothing
// persists the ID-to-name mapping, so hosts needing consistent IDs across
// restarts must re-register their closures on every start.
type ID int32

// Reserved closure IDs, shared with the host's closure-tree reader.
const (
	Invalid ID = 0
	Add     ID = -1
	Mul     ID = -2
)

// Field is one named, typed member of a registered closure's layout,
// following the leading i32 id field in its struct.
type Field struct {
	Name string
	Type FieldType
}

// FieldType is the set of scalar/vector types a closure field may have.
// Closures cannot themselves carry nested closure-typed fields beyond the
// Add/Mul child pointers, which are handled structurally rather than as
// registrable fields.
type FieldType uint8

// Recognised closure field types.
const (
	FieldInt FieldType = iota
	FieldFloat
	FieldFloat3
	FieldFloat4
)

func (t FieldType) String() string {
	switch t {
	case FieldInt:
		return "int"
	case FieldFloat:
		return "float"
	case FieldFloat3:
		return "float3"
	case FieldFloat4:
		return "float4"
	default:
		return "invalid"
	}
}
