package closure

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterAssignsDenseIDsFromOne(t *testing.T) {
	r := NewRegistry(nil)

	id1, err := r.Register("Lambert", []Field{{Name: "base_color", Type: FieldFloat3}}, 16)
	require.NoError(t, err)
	require.EqualValues(t, 1, id1)

	id2, err := r.Register("Emission", []Field{{Name: "radiance", Type: FieldFloat3}}, 16)
	require.NoError(t, err)
	require.EqualValues(t, 2, id2)
}

func TestRegisterSameNameTwiceReturnsSameIDWithoutRedeclaring(t *testing.T) {
	r := NewRegistry(nil)

	id1, err := r.Register("Lambert", []Field{{Name: "base_color", Type: FieldFloat3}}, 16)
	require.NoError(t, err)

	id2, err := r.Register("Lambert", []Field{{Name: "base_color", Type: FieldFloat3}}, 16)
	require.NoError(t, err)

	require.Equal(t, id1, id2)

	reg, ok := r.Lookup("Lambert")
	require.True(t, ok)
	require.Equal(t, id1, reg.ID)
}

func TestRegisterZeroSizeFails(t *testing.T) {
	r := NewRegistry(nil)

	id, err := r.Register("Empty", nil, 0)
	require.Error(t, err)
	require.Equal(t, Invalid, id)

	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
}

func TestRegisterMalformedFieldTypeFails(t *testing.T) {
	r := NewRegistry(nil)

	_, err := r.Register("Bad", []Field{{Name: "x", Type: FieldType(99)}}, 8)
	require.Error(t, err)
}

func TestRegisterEmptyFieldNameFails(t *testing.T) {
	r := NewRegistry(nil)

	_, err := r.Register("Bad", []Field{{Name: "", Type: FieldInt}}, 8)
	require.Error(t, err)
}

func TestByIDAfterRegister(t *testing.T) {
	r := NewRegistry(nil)

	id, err := r.Register("Lambert", []Field{{Name: "base_color", Type: FieldFloat3}}, 16)
	require.NoError(t, err)

	reg, ok := r.ByID(id)
	require.True(t, ok)
	require.Equal(t, "Lambert", reg.Name)

	_, ok = r.ByID(ID(999))
	require.False(t, ok)
}

func TestLookupUnknownClosureFails(t *testing.T) {
	r := NewRegistry(nil)
	_, ok := r.Lookup("DoesNotExist")
	require.False(t, ok)
}
