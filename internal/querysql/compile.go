package querysql

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/queryir"
)

// DefaultKey is the ordering column used when a Select declares no Key.
const DefaultKey = "id"

// SQLCompiler compiles query IR to parameterized SQL for SQLite.
//
// Every top-level query carries ORDER BY <key> COLLATE BINARY ASC so result
// order never depends on the query plan. Literal values are always passed
// as ? parameters and never interpolated into the SQL text.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a query to parameterized SQL.
// Returns (sql, params, error); params are in placeholder order.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}

	src, err := c.compileSource(q)
	if err != nil {
		return "", nil, err
	}

	where, whereParams, err := c.compileWhere(src.filters)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}

	sql := "SELECT " + compileBindings(src.selects) + " FROM " + src.from + where +
		" ORDER BY " + stableOrderKey(src.selects[0])

	return sql, append(src.params, whereParams...), nil
}

// CompilePredicate compiles a predicate on its own, as it would appear in a
// WHERE clause. A trivially true predicate compiles to "1 = 1".
func (c *SQLCompiler) CompilePredicate(p queryir.Predicate) (string, []any, error) {
	return c.compilePredicate(p)
}

// source is a flattened FROM clause: table references and join conditions
// in textual order, plus the filters of every joined Select.
type source struct {
	from    string
	params  []any
	selects []queryir.Select
	filters []queryir.Predicate
}

func (c *SQLCompiler) compileSource(q queryir.Query) (*source, error) {
	switch query := q.(type) {
	case queryir.Select:
		return c.selectSource(query)
	case *queryir.Select:
		return c.selectSource(*query)
	case queryir.Join:
		return c.joinSource(query)
	case *queryir.Join:
		return c.joinSource(*query)
	case nil:
		return nil, fmt.Errorf("nil query")
	default:
		return nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) selectSource(s queryir.Select) (*source, error) {
	if s.From == "" {
		return nil, fmt.Errorf("select without source table")
	}
	src := &source{from: tableRef(s), selects: []queryir.Select{s}}
	if s.Filter != nil {
		src.filters = append(src.filters, s.Filter)
	}
	return src, nil
}

// joinSource compiles a left-deep join tree. The right side of every join
// must be a Select.
func (c *SQLCompiler) joinSource(j queryir.Join) (*source, error) {
	left, err := c.compileSource(j.Left)
	if err != nil {
		return nil, fmt.Errorf("join left: %w", err)
	}

	var right queryir.Select
	switch r := j.Right.(type) {
	case queryir.Select:
		right = r
	case *queryir.Select:
		right = *r
	default:
		return nil, fmt.Errorf("join right must be Select, got %T", j.Right)
	}
	if right.From == "" {
		return nil, fmt.Errorf("join right: select without source table")
	}

	if j.On == nil {
		return nil, fmt.Errorf("join without ON condition")
	}
	onSQL, onParams, err := c.compilePredicate(j.On)
	if err != nil {
		return nil, fmt.Errorf("compile join ON: %w", err)
	}

	left.from += " INNER JOIN " + tableRef(right) + " ON " + onSQL
	left.params = append(left.params, onParams...)
	left.selects = append(left.selects, right)
	if right.Filter != nil {
		left.filters = append(left.filters, right.Filter)
	}
	return left, nil
}

// compileWhere compiles the collected filters into a WHERE clause.
// Trivially true filters are dropped; when nothing remains there is no
// WHERE clause at all.
func (c *SQLCompiler) compileWhere(filters []queryir.Predicate) (string, []any, error) {
	var kept []queryir.Predicate
	for _, f := range filters {
		if !queryir.IsTrue(f) {
			kept = append(kept, f)
		}
	}
	if len(kept) == 0 {
		return "", nil, nil
	}

	sql, params, err := c.compilePredicate(queryir.AllOf(kept...))
	if err != nil {
		return "", nil, err
	}
	return " WHERE " + sql, params, nil
}

// compileBindings converts the bindings of every select to a column list.
// Example: {"first_name": "firstName"} on alias root →
// "root.first_name AS firstName". Entries are sorted for deterministic output.
func compileBindings(selects []queryir.Select) string {
	var parts []string
	for _, s := range selects {
		for col, name := range s.Bindings {
			ref := qualify(s, col)
			if name == col {
				parts = append(parts, ref)
			} else {
				parts = append(parts, ref+" AS "+name)
			}
		}
	}
	if len(parts) == 0 {
		return "*"
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

// stableOrderKey returns the ORDER BY term for the leftmost select.
// COLLATE BINARY keeps text ordering identical across SQLite builds.
func stableOrderKey(s queryir.Select) string {
	key := s.Key
	if key == "" {
		key = DefaultKey
	}
	return qualify(s, key) + " COLLATE BINARY ASC"
}

func tableRef(s queryir.Select) string {
	if s.Alias == "" || s.Alias == s.From {
		return s.From
	}
	return s.From + " AS " + s.Alias
}

func qualify(s queryir.Select, col string) string {
	if s.Alias == "" {
		return s.From + "." + col
	}
	return s.Alias + "." + col
}

// compilePredicate compiles a predicate to a WHERE clause fragment.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil, queryir.True, *queryir.True:
		return "1 = 1", nil, nil // Always true
	case queryir.Equals:
		return c.compileEquals(pred)
	case *queryir.Equals:
		return c.compileEquals(*pred)
	case queryir.ColumnEquals:
		return pred.Left.String() + " = " + pred.Right.String(), nil, nil
	case *queryir.ColumnEquals:
		return pred.Left.String() + " = " + pred.Right.String(), nil, nil
	case queryir.IsNull:
		return pred.Field.String() + " IS NULL", nil, nil
	case *queryir.IsNull:
		return pred.Field.String() + " IS NULL", nil, nil
	case queryir.And:
		return c.compileAnd(pred)
	case *queryir.And:
		return c.compileAnd(*pred)
	case queryir.Not:
		return c.compileNot(pred)
	case *queryir.Not:
		return c.compileNot(*pred)
	case queryir.Exists:
		return c.compileExists(pred)
	case *queryir.Exists:
		return c.compileExists(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileEquals compiles an Equals predicate to "field = ?".
func (c *SQLCompiler) compileEquals(eq queryir.Equals) (string, []any, error) {
	if _, isNull := eq.Value.(ir.IRNull); isNull {
		return "", nil, fmt.Errorf("column %s compared to NULL: use IsNull", eq.Field)
	}
	param, err := irValueToParam(eq.Value)
	if err != nil {
		return "", nil, fmt.Errorf("convert value: %w", err)
	}
	return eq.Field.String() + " = ?", []any{param}, nil
}

// compileAnd compiles an And predicate to a conjunction with AND.
func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil // Always true (vacuous truth)
	}

	var sqlParts []string
	var allParams []any

	for _, pred := range and.Predicates {
		sql, params, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		sqlParts = append(sqlParts, sql)
		allParams = append(allParams, params...)
	}

	return strings.Join(sqlParts, " AND "), allParams, nil
}

// compileNot compiles a negation. Negated Exists and IsNull use their
// dedicated SQL forms; anything else is parenthesized.
func (c *SQLCompiler) compileNot(not queryir.Not) (string, []any, error) {
	switch inner := not.Predicate.(type) {
	case queryir.IsNull:
		return inner.Field.String() + " IS NOT NULL", nil, nil
	case *queryir.IsNull:
		return inner.Field.String() + " IS NOT NULL", nil, nil
	}

	sql, params, err := c.compilePredicate(not.Predicate)
	if err != nil {
		return "", nil, err
	}

	switch not.Predicate.(type) {
	case queryir.Exists, *queryir.Exists:
		return "NOT " + sql, params, nil
	}
	return "NOT (" + sql + ")", params, nil
}

// compileExists compiles a sub-query test:
//
//	EXISTS (SELECT 1 FROM orders AS f0_0 WHERE f0_0.customer_id = root.id)
//
// The sub-query has no ORDER BY; only row existence is observed.
func (c *SQLCompiler) compileExists(ex queryir.Exists) (string, []any, error) {
	if ex.Query == nil {
		return "", nil, fmt.Errorf("exists without sub-query")
	}
	src, err := c.compileSource(ex.Query)
	if err != nil {
		return "", nil, fmt.Errorf("compile sub-query: %w", err)
	}
	where, whereParams, err := c.compileWhere(src.filters)
	if err != nil {
		return "", nil, fmt.Errorf("compile sub-query filter: %w", err)
	}
	return "EXISTS (SELECT 1 FROM " + src.from + where + ")", append(src.params, whereParams...), nil
}

// irValueToParam converts an ir.IRValue to a Go native type for a SQL
// parameter. Bools become 0/1 to match how they are stored.
func irValueToParam(v ir.IRValue) (any, error) {
	switch val := v.(type) {
	case ir.IRString:
		return string(val), nil
	case ir.IRInt:
		return int64(val), nil
	case ir.IRBool:
		if val {
			return int64(1), nil
		}
		return int64(0), nil
	case ir.IRNull:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported IRValue type for SQL parameter: %T", v)
	}
}
