package group

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveWithoutRootFails(t *testing.T) {
	gt := NewTemplate("g")
	r := NewResolver(nil)

	err := r.Resolve(gt)
	require.Error(t, err)

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	require.Equal(t, ShaderGroupWithoutRoot, gerr.Kind)
}

func TestResolveWithUnknownRootFails(t *testing.T) {
	gt := NewTemplate("g")
	gt.SetRoot("missing")
	r := NewResolver(nil)

	err := r.Resolve(gt)
	require.Error(t, err)

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	require.Equal(t, ShaderGroupWithoutRoot, gerr.Kind)
}

func TestGroupErrorMessages(t *testing.T) {
	cases := []struct {
		err  *Error
		want string
	}{
		{&Error{Kind: UndefinedShaderUnit, Instance: "foo"}, `tsl: shader group references undefined unit "foo"`},
		{&Error{Kind: ShaderGroupWithoutRoot, Instance: ""}, `tsl: shader group has no valid root instance ("")`},
		{&Error{Kind: ShaderGroupWithCycles, Instance: "f1"}, `tsl: shader group has a cycle reaching "f1"`},
		{&Error{Kind: ArgumentWithoutInitialization, Instance: "add3", Argument: "x"}, `tsl: instance "add3" argument "x" has no connection, exposure or default`},
		{&Error{Kind: InvalidShaderGroupTemplate, Detail: "unit mul2 has no resolved module"}, `tsl: invalid shader group template: unit mul2 has no resolved module`},
		{&Error{Kind: InvalidArgType, Instance: "add3", Argument: "x", Detail: "no such argument"}, `tsl: instance "add3" argument "x": no such argument`},
	}
	for _, c := range cases {
		require.Equal(t, c.want, c.err.Error())
	}
}
