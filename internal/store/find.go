package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/roach88/sieve/internal/graph"
	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/queryir"
	"github.com/roach88/sieve/internal/querysql"
)

// Row is one result row keyed by attribute name. The key is stored under
// the key column name. Values are int64, string, bool or nil; a to_one
// attribute holds the key of the referenced row.
type Row map[string]any

// RootQuery wraps a predicate in the Select that Find executes: all key,
// scalar and to_one columns of e, with e aliased graph.RootAlias.
func RootQuery(e *graph.Entity, pred queryir.Predicate) queryir.Select {
	bindings := map[string]string{e.Key: e.Key}
	for _, a := range e.Attributes() {
		switch a.Kind {
		case ir.KindScalar, ir.KindToOne:
			bindings[a.Column] = a.Name
		}
	}
	return queryir.Select{
		From:     e.Table,
		Alias:    graph.RootAlias,
		Key:      e.Key,
		Filter:   pred,
		Bindings: bindings,
	}
}

// Explain returns the SQL and parameters Find runs for pred.
func Explain(e *graph.Entity, pred queryir.Predicate) (string, []any, error) {
	sqlText, params, err := querysql.NewSQLCompiler().Compile(RootQuery(e, pred))
	if err != nil {
		return "", nil, fmt.Errorf("compile query: %w", err)
	}
	return sqlText, params, nil
}

// Find returns the rows of e that satisfy pred, ordered by key.
func (s *Store) Find(ctx context.Context, e *graph.Entity, pred queryir.Predicate) ([]Row, error) {
	sqlText, params, err := Explain(e, pred)
	if err != nil {
		return nil, err
	}

	slog.Debug("executing query", "entity", e.Name, "sql", sqlText, "params", len(params))

	rows, err := s.db.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", e.Name, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", e.Name, err)
	}
	types := make([]string, len(names))
	for i, n := range names {
		if a, ok := e.Attribute(n); ok {
			types[i] = a.Type
		}
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", e.Name, err)
		}

		row := make(Row, len(names))
		for i, n := range names {
			row[n] = decodeColumn(types[i], values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", e.Name, err)
	}

	// Return empty slice instead of nil
	if out == nil {
		out = []Row{}
	}
	return out, nil
}

func decodeColumn(typ string, v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case int64:
		if typ == ir.TypeBool {
			return val != 0
		}
	}
	return v
}

// Column returns the values of one attribute across rows, in row order.
func Column(rows []Row, name string) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r[name]
	}
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
