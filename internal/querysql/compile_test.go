package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/queryir"
)

func customers(filter queryir.Predicate) queryir.Select {
	return queryir.Select{
		From:     "customers",
		Alias:    "root",
		Filter:   filter,
		Bindings: map[string]string{"id": "id", "first_name": "firstName"},
	}
}

func ordersOf(alias, outer string) queryir.Select {
	return queryir.Select{
		From:   "orders",
		Alias:  alias,
		Filter: queryir.ColumnEquals{Left: queryir.Col(alias, "customer_id"), Right: queryir.Col(outer, "id")},
	}
}

func TestCompile_SimpleSelect(t *testing.T) {
	compiler := NewSQLCompiler()

	sql, params, err := compiler.Compile(customers(queryir.Equals{
		Field: queryir.Col("root", "first_name"),
		Value: ir.IRString("Homer"),
	}))
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT root.first_name AS firstName, root.id FROM customers AS root WHERE root.first_name = ? ORDER BY root.id COLLATE BINARY ASC",
		sql)
	assert.NotContains(t, sql, "Homer")
	assert.Equal(t, []any{"Homer"}, params)
}

func TestCompile_TrueEmitsNoWhere(t *testing.T) {
	compiler := NewSQLCompiler()

	for name, filter := range map[string]queryir.Predicate{
		"nil":       nil,
		"true":      queryir.True{},
		"empty and": queryir.And{},
	} {
		t.Run(name, func(t *testing.T) {
			sql, params, err := compiler.Compile(customers(filter))
			require.NoError(t, err)
			assert.NotContains(t, sql, "WHERE")
			assert.Empty(t, params)
		})
	}
}

func TestCompile_OrderByMandatory(t *testing.T) {
	compiler := NewSQLCompiler()

	testCases := []struct {
		name  string
		query queryir.Query
		want  string
	}{
		{
			name:  "aliased select",
			query: customers(nil),
			want:  "ORDER BY root.id COLLATE BINARY ASC",
		},
		{
			name:  "unaliased select",
			query: queryir.Select{From: "orders"},
			want:  "ORDER BY orders.id COLLATE BINARY ASC",
		},
		{
			name:  "custom key",
			query: queryir.Select{From: "people", Alias: "p", Key: "person_no"},
			want:  "ORDER BY p.person_no COLLATE BINARY ASC",
		},
		{
			name: "join orders by leftmost",
			query: queryir.Join{
				Left:  customers(nil),
				Right: queryir.Select{From: "orders", Alias: "o"},
				On:    queryir.ColumnEquals{Left: queryir.Col("o", "customer_id"), Right: queryir.Col("root", "id")},
			},
			want: "ORDER BY root.id COLLATE BINARY ASC",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sql, _, err := compiler.Compile(tc.query)
			require.NoError(t, err)
			assert.Contains(t, sql, tc.want)
		})
	}
}

func TestCompile_Exists(t *testing.T) {
	compiler := NewSQLCompiler()

	sql, params, err := compiler.Compile(customers(queryir.Exists{Query: ordersOf("f0_0", "root")}))
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT root.first_name AS firstName, root.id FROM customers AS root "+
			"WHERE EXISTS (SELECT 1 FROM orders AS f0_0 WHERE f0_0.customer_id = root.id) "+
			"ORDER BY root.id COLLATE BINARY ASC",
		sql)
	assert.Empty(t, params)
}

func TestCompile_NotExists(t *testing.T) {
	compiler := NewSQLCompiler()

	frag, _, err := compiler.CompilePredicate(queryir.Not{Predicate: queryir.Exists{Query: ordersOf("f0_0", "root")}})
	require.NoError(t, err)
	assert.Equal(t, "NOT EXISTS (SELECT 1 FROM orders AS f0_0 WHERE f0_0.customer_id = root.id)", frag)

	frag, _, err = compiler.CompilePredicate(&queryir.Not{Predicate: &queryir.Exists{Query: ordersOf("f0_0", "root")}})
	require.NoError(t, err)
	assert.Equal(t, "NOT EXISTS (SELECT 1 FROM orders AS f0_0 WHERE f0_0.customer_id = root.id)", frag)
}

func TestCompile_ExistsThroughJoin(t *testing.T) {
	compiler := NewSQLCompiler()

	sub := queryir.Join{
		Left: ordersOf("f0_0", "root"),
		Right: queryir.Select{
			From:   "orders_tags",
			Alias:  "f0_1",
			Filter: queryir.Equals{Field: queryir.Col("f0_1", "value"), Value: ir.IRString("drinks")},
		},
		On: queryir.ColumnEquals{Left: queryir.Col("f0_1", "order_id"), Right: queryir.Col("f0_0", "id")},
	}

	frag, params, err := compiler.CompilePredicate(queryir.Exists{Query: sub})
	require.NoError(t, err)
	assert.Equal(t,
		"EXISTS (SELECT 1 FROM orders AS f0_0 INNER JOIN orders_tags AS f0_1 ON f0_1.order_id = f0_0.id "+
			"WHERE f0_0.customer_id = root.id AND f0_1.value = ?)",
		frag)
	assert.Equal(t, []any{"drinks"}, params)
}

func TestCompile_ParamsFollowPlaceholderOrder(t *testing.T) {
	compiler := NewSQLCompiler()

	q := queryir.Join{
		Left: queryir.Select{
			From:     "a",
			Filter:   queryir.Equals{Field: queryir.Col("a", "x"), Value: ir.IRInt(3)},
			Bindings: map[string]string{"id": "id"},
		},
		Right: queryir.Select{
			From:   "b",
			Filter: queryir.Equals{Field: queryir.Col("b", "y"), Value: ir.IRInt(4)},
		},
		On: queryir.And{Predicates: []queryir.Predicate{
			queryir.ColumnEquals{Left: queryir.Col("b", "a_id"), Right: queryir.Col("a", "id")},
			queryir.Equals{Field: queryir.Col("b", "z"), Value: ir.IRInt(1)},
		}},
	}

	sql, params, err := compiler.Compile(q)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT a.id FROM a INNER JOIN b ON b.a_id = a.id AND b.z = ? WHERE a.x = ? AND b.y = ? ORDER BY a.id COLLATE BINARY ASC",
		sql)
	assert.Equal(t, []any{int64(1), int64(3), int64(4)}, params)
}

func TestCompile_AndOfExists(t *testing.T) {
	compiler := NewSQLCompiler()

	phones := queryir.Select{
		From:   "customers_phone_numbers",
		Alias:  "f1_0",
		Filter: queryir.ColumnEquals{Left: queryir.Col("f1_0", "customer_id"), Right: queryir.Col("root", "id")},
	}
	pred := queryir.AllOf(
		queryir.Exists{Query: ordersOf("f0_0", "root")},
		queryir.Negate(queryir.Exists{Query: phones}),
	)

	frag, params, err := compiler.CompilePredicate(pred)
	require.NoError(t, err)
	assert.Equal(t,
		"EXISTS (SELECT 1 FROM orders AS f0_0 WHERE f0_0.customer_id = root.id) AND "+
			"NOT EXISTS (SELECT 1 FROM customers_phone_numbers AS f1_0 WHERE f1_0.customer_id = root.id)",
		frag)
	assert.Empty(t, params)
}

func TestCompile_NullChecks(t *testing.T) {
	compiler := NewSQLCompiler()

	frag, _, err := compiler.CompilePredicate(queryir.IsNull{Field: queryir.Col("root", "customer_id")})
	require.NoError(t, err)
	assert.Equal(t, "root.customer_id IS NULL", frag)

	frag, _, err = compiler.CompilePredicate(queryir.Not{Predicate: queryir.IsNull{Field: queryir.Col("root", "customer_id")}})
	require.NoError(t, err)
	assert.Equal(t, "root.customer_id IS NOT NULL", frag)
}

func TestCompile_NotParenthesizes(t *testing.T) {
	compiler := NewSQLCompiler()

	frag, params, err := compiler.CompilePredicate(queryir.Not{Predicate: queryir.And{Predicates: []queryir.Predicate{
		queryir.Equals{Field: queryir.Col("root", "a"), Value: ir.IRInt(1)},
		queryir.Equals{Field: queryir.Col("root", "b"), Value: ir.IRInt(2)},
	}}})
	require.NoError(t, err)
	assert.Equal(t, "NOT (root.a = ? AND root.b = ?)", frag)
	assert.Equal(t, []any{int64(1), int64(2)}, params)
}

func TestCompile_BindingsDeterministicOrder(t *testing.T) {
	compiler := NewSQLCompiler()

	query := queryir.Select{
		From:  "customers",
		Alias: "root",
		Bindings: map[string]string{
			"last_name":  "lastName",
			"gold":       "gold",
			"first_name": "firstName",
			"id":         "id",
		},
	}

	for i := 0; i < 20; i++ {
		sql, _, err := compiler.Compile(query)
		require.NoError(t, err)
		assert.Equal(t,
			"SELECT root.first_name AS firstName, root.gold, root.id, root.last_name AS lastName FROM customers AS root ORDER BY root.id COLLATE BINARY ASC",
			sql)
	}
}

func TestCompile_EmptyBindings(t *testing.T) {
	sql, _, err := NewSQLCompiler().Compile(queryir.Select{From: "customers"})
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM customers ORDER BY customers.id COLLATE BINARY ASC", sql)
}

func TestCompile_AllIRValueTypes(t *testing.T) {
	compiler := NewSQLCompiler()

	testCases := []struct {
		name  string
		value ir.IRValue
		want  any
	}{
		{"string", ir.IRString("Homer"), "Homer"},
		{"int", ir.IRInt(42), int64(42)},
		{"bool true", ir.IRBool(true), int64(1)},
		{"bool false", ir.IRBool(false), int64(0)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, params, err := compiler.CompilePredicate(queryir.Equals{Field: queryir.Col("root", "v"), Value: tc.value})
			require.NoError(t, err)
			assert.Equal(t, []any{tc.want}, params)
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	compiler := NewSQLCompiler()

	testCases := []struct {
		name  string
		query queryir.Query
		want  string
	}{
		{"nil query", nil, "nil query"},
		{"missing table", queryir.Select{}, "without source table"},
		{"null literal", customers(queryir.Equals{Field: queryir.Col("root", "a"), Value: ir.IRNull{}}), "use IsNull"},
		{"exists without query", customers(queryir.Exists{}), "exists without sub-query"},
		{"join without on", queryir.Join{Left: customers(nil), Right: queryir.Select{From: "orders"}}, "join without ON"},
		{"join right is join", queryir.Join{
			Left:  customers(nil),
			Right: queryir.Join{Left: queryir.Select{From: "a"}, Right: queryir.Select{From: "b"}, On: queryir.True{}},
			On:    queryir.True{},
		}, "join right must be Select"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := compiler.Compile(tc.query)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
