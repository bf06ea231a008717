package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sieve/internal/ir"
)

func TestFingerprint_Deterministic(t *testing.T) {
	build := func() Predicate {
		return AllOf(
			Exists{Query: ordersOfRoot()},
			Not{Predicate: Exists{Query: Select{
				From:   "customers_phone_numbers",
				Alias:  "f1_0",
				Filter: ColumnEquals{Left: Col("f1_0", "customer_id"), Right: Col("root", "id")},
			}}},
		)
	}

	a, err := Fingerprint(build())
	require.NoError(t, err)
	b, err := Fingerprint(build())
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestFingerprint_PointerAndValueAgree(t *testing.T) {
	sub := ordersOfRoot()

	a, err := Fingerprint(Not{Predicate: Exists{Query: sub}})
	require.NoError(t, err)
	b, err := Fingerprint(&Not{Predicate: &Exists{Query: &sub}})
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestFingerprint_Distinguishes(t *testing.T) {
	ex := Exists{Query: ordersOfRoot()}

	preds := []Predicate{
		True{},
		ex,
		Not{Predicate: ex},
		AllOf(ex, True{}),
		AllOf(True{}, ex),
		Equals{Field: Col("root", "gold"), Value: ir.IRBool(true)},
		Equals{Field: Col("root", "gold"), Value: ir.IRString("true")},
		IsNull{Field: Col("root", "gold")},
	}

	seen := map[string]int{}
	for i, p := range preds {
		fp, err := Fingerprint(p)
		require.NoError(t, err)
		if prev, dup := seen[fp]; dup {
			t.Fatalf("predicates %d and %d share fingerprint %s", prev, i, fp)
		}
		seen[fp] = i
	}
}

func TestMarshalPredicate_Canonical(t *testing.T) {
	data, err := MarshalPredicate(Not{Predicate: Exists{Query: Select{
		From:   "orders",
		Alias:  "f0_0",
		Filter: ColumnEquals{Left: Col("f0_0", "customer_id"), Right: Col("root", "id")},
	}}})
	require.NoError(t, err)

	assert.Equal(t,
		`{"not":{"exists":{"select":{"alias":"f0_0","filter":{"col_eq":["f0_0.customer_id","root.id"]},"from":"orders"}}}}`,
		string(data))
}

func TestFingerprint_Errors(t *testing.T) {
	tests := []struct {
		name string
		pred Predicate
	}{
		{"nil", nil},
		{"null literal", Equals{Field: Col("root", "a"), Value: ir.IRNull{}}},
		{"missing literal", Equals{Field: Col("root", "a")}},
		{"exists without query", Exists{}},
		{"join without on", Exists{Query: Join{Left: Select{From: "a"}, Right: Select{From: "b"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Fingerprint(tt.pred)
			assert.Error(t, err)
		})
	}
}
