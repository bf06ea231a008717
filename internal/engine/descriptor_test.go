package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sieve/internal/ir"
)

func TestParseOperator(t *testing.T) {
	for op, name := range operatorNames {
		got, err := ParseOperator(name)
		require.NoError(t, err)
		assert.Equal(t, op, got)
		assert.Equal(t, name, op.String())
	}

	for _, bad := range []string{"", "NotEmpty", "is_empty", "not-empty"} {
		_, err := ParseOperator(bad)
		assert.True(t, IsDescriptorError(err), bad)
	}

	assert.Equal(t, "operator(0)", Operator(0).String())
}

func TestDescriptorFromSpec(t *testing.T) {
	konst := "true"
	fs := ir.FilterSpec{Path: "orders", Operator: "not_empty", Params: []string{"notEmptyOrders"}, Const: &konst}

	d, err := DescriptorFromSpec(fs)
	require.NoError(t, err)
	assert.Equal(t, "orders", d.Path)
	assert.Equal(t, OpNotEmpty, d.Operator)
	assert.Equal(t, []string{"notEmptyOrders"}, d.Params)
	require.NotNil(t, d.ConstVal)
	assert.Equal(t, "true", *d.ConstVal)

	// The descriptor does not alias the declaration.
	konst = "false"
	fs.Params[0] = "changed"
	assert.Equal(t, "true", *d.ConstVal)
	assert.Equal(t, "notEmptyOrders", d.Params[0])
}

func TestDescriptorFromSpecUnknownOperator(t *testing.T) {
	_, err := DescriptorFromSpec(ir.FilterSpec{Path: "orders", Operator: "like"})
	require.Error(t, err)

	var de *DescriptorError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "orders", de.Path)
	assert.Equal(t, `invalid filter on orders: unknown operator "like"`, err.Error())
}

func TestDescriptorsFromEndpoint(t *testing.T) {
	ep := ir.EndpointSpec{
		Name: "customers",
		Root: "Customer",
		Filters: []ir.FilterSpec{
			{Path: "orders", Operator: "not_empty", Params: []string{"notEmptyOrders"}},
			{Path: "phoneNumbers", Operator: "empty", Params: []string{"noPhones"}},
		},
	}

	descs, err := DescriptorsFromEndpoint(ep)
	require.NoError(t, err)
	require.Len(t, descs, 2)
	assert.Equal(t, OpNotEmpty, descs[0].Operator)
	assert.Equal(t, OpEmpty, descs[1].Operator)

	ep.Filters[1].Operator = "bogus"
	_, err = DescriptorsFromEndpoint(ep)
	var fe *FilterError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 1, fe.Index)
	assert.True(t, IsDescriptorError(err))
}

func TestDescriptorString(t *testing.T) {
	d := Descriptor{Path: "orders", Operator: OpNotEmpty, Params: []string{"notEmptyOrders"}}
	assert.Equal(t, "orders not_empty param=notEmptyOrders", d.String())
	assert.Equal(t, `orders not_empty const="true"`, d.Const("true").String())
	assert.Nil(t, d.ConstVal, "Const returns a copy")
}
