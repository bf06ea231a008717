package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sieve/internal/graph"
	"github.com/roach88/sieve/internal/ir"
)

// Dataset is seed data: row batches per entity, inserted in order.
//
// YAML form:
//
//	- entity: Customer
//	  rows:
//	    - {id: 9, firstName: Barry, phoneNumbers: ["123456789"]}
//	- entity: Order
//	  rows:
//	    - {id: 6, item: flowers, customer: 10}
//
// Row keys are attribute names. A to_one attribute takes the key of the
// referenced row, an element collection takes a list of values. Foreign key
// columns that no to_one attribute maps may be set by column name.
type Dataset []EntityRows

// EntityRows is one batch of rows for one entity.
type EntityRows struct {
	Entity string           `yaml:"entity"`
	Rows   []map[string]any `yaml:"rows"`
}

// ParseDataset decodes a YAML dataset.
func ParseDataset(data []byte) (Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	return ds, nil
}

// LoadDataset reads and decodes a YAML dataset file.
func LoadDataset(path string) (Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	ds, err := ParseDataset(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Seed inserts a dataset in a single transaction. Foreign keys are checked
// at commit, so batches may reference rows inserted later in the dataset.
func (s *Store) Seed(ctx context.Context, g *graph.Graph, ds Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "PRAGMA defer_foreign_keys = ON"); err != nil {
		return fmt.Errorf("defer foreign keys: %w", err)
	}

	total := 0
	for bi, batch := range ds {
		e, ok := g.Entity(batch.Entity)
		if !ok {
			return fmt.Errorf("dataset batch %d: unknown entity %q", bi, batch.Entity)
		}
		for ri, row := range batch.Rows {
			if err := insertRow(ctx, tx, e, row); err != nil {
				return fmt.Errorf("dataset batch %d (%s) row %d: %w", bi, e.Name, ri, err)
			}
			total++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}

	slog.Debug("dataset seeded", "batches", len(ds), "rows", total)
	return nil
}

// insertRow inserts one entity row and its element collection values.
func insertRow(ctx context.Context, tx *sql.Tx, e *graph.Entity, row map[string]any) error {
	fkColumns := map[string]bool{}
	for _, c := range e.Columns() {
		if c.References != nil {
			fkColumns[c.Name] = true
		}
	}

	var (
		cols     []string
		args     []any
		elements = map[*graph.Attribute][]any{}
	)

	for _, name := range sortedKeys(row) {
		raw := row[name]

		if name == e.Key {
			v, err := nativeValue(ir.TypeInt, raw)
			if err != nil {
				return fmt.Errorf("key %s: %w", name, err)
			}
			cols, args = append(cols, e.Key), append(args, v)
			continue
		}

		attr, ok := e.Attribute(name)
		if !ok {
			if fkColumns[name] {
				v, err := nativeValue(ir.TypeInt, raw)
				if err != nil {
					return fmt.Errorf("column %s: %w", name, err)
				}
				cols, args = append(cols, name), append(args, v)
				continue
			}
			return fmt.Errorf("unknown attribute %q", name)
		}

		switch attr.Kind {
		case ir.KindScalar, ir.KindToOne:
			v, err := nativeValue(attr.Type, raw)
			if err != nil {
				return fmt.Errorf("attribute %s: %w", name, err)
			}
			cols, args = append(cols, attr.Column), append(args, v)
		case ir.KindElementCollection:
			list, ok := raw.([]any)
			if !ok && raw != nil {
				return fmt.Errorf("attribute %s: element collection needs a list, got %T", name, raw)
			}
			for i, item := range list {
				v, err := nativeValue(attr.Type, item)
				if err != nil {
					return fmt.Errorf("attribute %s[%d]: %w", name, i, err)
				}
				if v == nil {
					return fmt.Errorf("attribute %s[%d]: null element", name, i)
				}
				elements[attr] = append(elements[attr], v)
			}
		case ir.KindToMany:
			return fmt.Errorf("attribute %s: to_many rows are linked from the %s side", name, attr.Target.Name)
		}
	}

	var stmt string
	if len(cols) == 0 {
		stmt = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", e.Table)
	} else {
		stmt = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			e.Table, strings.Join(cols, ", "), strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))
	}
	res, err := tx.ExecContext(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("insert %s: %w", e.Table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert %s: %w", e.Table, err)
	}

	for _, attr := range e.ElementCollections() {
		for _, v := range elements[attr] {
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (?, ?)", attr.Table, attr.JoinColumn, attr.ValueColumn),
				id, v); err != nil {
				return fmt.Errorf("insert %s: %w", attr.Table, err)
			}
		}
	}
	return nil
}

// nativeValue converts a decoded YAML value to a SQL parameter of the given
// value type.
func nativeValue(typ string, raw any) (any, error) {
	v, err := ir.CoerceValue(typ, raw)
	if err != nil {
		return nil, err
	}
	return ir.Native(v)
}
