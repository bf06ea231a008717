package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/queryir"
)

func TestBind(t *testing.T) {
	e := New(customerGraph(t))

	ep, err := e.Bind(ir.EndpointSpec{
		Name: "/notEmpty/customerOrders",
		Root: "Customer",
		Filters: []ir.FilterSpec{
			{Path: "orders", Operator: "not_empty", Params: []string{"notEmptyOrders"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "/notEmpty/customerOrders", ep.Name)
	assert.Equal(t, "customers", ep.Root.Table)
	assert.Equal(t, []Descriptor{{Path: "orders", Operator: OpNotEmpty, Params: []string{"notEmptyOrders"}}}, ep.Descriptors)

	pred, err := e.EvaluateEndpoint(ep, Params{"notEmptyOrders": {"true"}})
	require.NoError(t, err)
	assert.IsType(t, queryir.Exists{}, pred)

	pred, err = e.EvaluateEndpoint(ep, nil)
	require.NoError(t, err)
	assert.Equal(t, queryir.True{}, pred)
}

func TestBindErrors(t *testing.T) {
	e := New(customerGraph(t))

	tests := []struct {
		name  string
		spec  ir.EndpointSpec
		check func(error) bool
	}{
		{
			name:  "unknown root",
			spec:  ir.EndpointSpec{Name: "/x", Root: "Supplier"},
			check: IsInvalidPath,
		},
		{
			name: "unknown operator",
			spec: ir.EndpointSpec{Name: "/x", Root: "Customer", Filters: []ir.FilterSpec{
				{Path: "orders", Operator: "exists", Params: []string{"p"}},
			}},
			check: IsDescriptorError,
		},
		{
			name: "emptiness on a scalar",
			spec: ir.EndpointSpec{Name: "/x", Root: "Customer", Filters: []ir.FilterSpec{
				{Path: "firstName", Operator: "not_empty", Params: []string{"p"}},
			}},
			check: IsUnsupportedPathKind,
		},
		{
			name: "bad path",
			spec: ir.EndpointSpec{Name: "/x", Root: "Customer", Filters: []ir.FilterSpec{
				{Path: "orders.nothing", Operator: "not_empty", Params: []string{"p"}},
			}},
			check: IsInvalidPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Bind(tt.spec)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error %v", err)
		})
	}
}
