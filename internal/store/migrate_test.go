package store

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/roach88/sieve/internal/graph"
	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/testutil"
)

func customerGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.New(testutil.CustomerSchemas())
	if err != nil {
		t.Fatalf("graph.New() failed: %v", err)
	}
	return g
}

func TestMigrate_CreatesTables(t *testing.T) {
	s := createTestStore(t)
	g := customerGraph(t)

	if err := s.Migrate(context.Background(), g); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}

	tables := map[string][]string{
		"customers":               {"id", "first_name", "last_name", "gold"},
		"orders":                  {"id", "item", "quantity", "customer_id"},
		"customers_phone_numbers": {"customer_id", "value"},
		"orders_tags":             {"order_id", "value"},
	}
	for table, want := range tables {
		got := getTableColumns(t, s.db, table)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("table %s columns = %v, want %v", table, got, want)
		}
	}

	fp, err := s.GraphFingerprint(context.Background())
	if err != nil {
		t.Fatalf("GraphFingerprint() failed: %v", err)
	}
	if fp != g.Fingerprint() {
		t.Errorf("stored fingerprint = %q, want %q", fp, g.Fingerprint())
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	s := createTestStore(t)
	g := customerGraph(t)

	for i := 0; i < 3; i++ {
		if err := s.Migrate(context.Background(), g); err != nil {
			t.Fatalf("Migrate() iteration %d failed: %v", i, err)
		}
	}
}

func TestMigrate_SchemaMismatch(t *testing.T) {
	s := createTestStore(t)

	if err := s.Migrate(context.Background(), customerGraph(t)); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}

	schemas := testutil.CustomerSchemas()
	schemas[0].Attributes = append(schemas[0].Attributes, ir.AttributeSchema{Name: "nickname", Kind: ir.KindScalar})
	other, err := graph.New(schemas)
	if err != nil {
		t.Fatalf("graph.New() failed: %v", err)
	}

	err = s.Migrate(context.Background(), other)
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("Migrate() error = %v, want ErrSchemaMismatch", err)
	}
}

func TestFreshStoreHasNoFingerprint(t *testing.T) {
	fp, err := createTestStore(t).GraphFingerprint(context.Background())
	if err != nil {
		t.Fatalf("GraphFingerprint() failed: %v", err)
	}
	if fp != "" {
		t.Errorf("fingerprint = %q, want empty", fp)
	}
}

func TestDDL(t *testing.T) {
	stmts, err := DDL(customerGraph(t))
	if err != nil {
		t.Fatalf("DDL() failed: %v", err)
	}

	want := []string{
		"CREATE TABLE customers (\n    id INTEGER PRIMARY KEY,\n    first_name TEXT,\n    last_name TEXT,\n    gold INTEGER\n)",
		"CREATE TABLE orders (\n    id INTEGER PRIMARY KEY,\n    item TEXT,\n    quantity INTEGER,\n    customer_id INTEGER REFERENCES customers(id)\n)",
		"CREATE INDEX idx_orders_customer_id ON orders(customer_id)",
		"CREATE TABLE customers_phone_numbers (\n    customer_id INTEGER NOT NULL REFERENCES customers(id),\n    value TEXT NOT NULL\n)",
		"CREATE INDEX idx_customers_phone_numbers_customer_id ON customers_phone_numbers(customer_id)",
		"CREATE TABLE orders_tags (\n    order_id INTEGER NOT NULL REFERENCES orders(id),\n    value TEXT NOT NULL\n)",
		"CREATE INDEX idx_orders_tags_order_id ON orders_tags(order_id)",
	}
	if !reflect.DeepEqual(stmts, want) {
		t.Errorf("DDL() =\n%s\nwant\n%s", strings.Join(stmts, ";\n"), strings.Join(want, ";\n"))
	}
}

func TestDDL_RejectsUnsafeIdentifiers(t *testing.T) {
	g, err := graph.New([]ir.EntitySchema{
		{Name: "Customer", Table: "customers; DROP TABLE x", Attributes: nil},
	})
	if err != nil {
		t.Fatalf("graph.New() failed: %v", err)
	}

	if _, err := DDL(g); err == nil || !strings.Contains(err.Error(), "invalid SQL identifier") {
		t.Errorf("DDL() error = %v, want invalid SQL identifier", err)
	}
}
