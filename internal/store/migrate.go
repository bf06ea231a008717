package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/roach88/sieve/internal/graph"
	"github.com/roach88/sieve/internal/ir"
)

// ErrSchemaMismatch is returned when a database was migrated for a
// different entity graph.
var ErrSchemaMismatch = errors.New("database was migrated for a different entity graph")

const metaGraphFingerprint = "graph_fingerprint"

// identifier matches table and column names the store will emit unquoted.
var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Migrate creates the tables of g and records its fingerprint.
//
// Migrating the same graph again is a no-op. A database already migrated
// for another graph fails with ErrSchemaMismatch.
func (s *Store) Migrate(ctx context.Context, g *graph.Graph) error {
	stored, err := s.graphFingerprint(ctx)
	if err != nil {
		return err
	}
	if stored != "" {
		if stored != g.Fingerprint() {
			return fmt.Errorf("%w: stored %s, graph %s", ErrSchemaMismatch, short(stored), short(g.Fingerprint()))
		}
		return nil
	}

	stmts, err := DDL(g)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w\n%s", err, stmt)
		}
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO sieve_meta (key, value) VALUES (?, ?)",
		metaGraphFingerprint, g.Fingerprint()); err != nil {
		return fmt.Errorf("record graph fingerprint: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}

	slog.Info("store migrated", "entities", len(g.Entities()), "fingerprint", short(g.Fingerprint()))
	return nil
}

// GraphFingerprint returns the fingerprint recorded by Migrate, or "" for a
// database that was never migrated.
func (s *Store) GraphFingerprint(ctx context.Context) (string, error) {
	return s.graphFingerprint(ctx)
}

func (s *Store) graphFingerprint(ctx context.Context) (string, error) {
	var fp string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM sieve_meta WHERE key = ?", metaGraphFingerprint).Scan(&fp)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read graph fingerprint: %w", err)
	}
	return fp, nil
}

// DDL returns the CREATE statements for every table of g, entity tables
// first in declaration order, then element collection tables.
func DDL(g *graph.Graph) ([]string, error) {
	var stmts []string

	for _, e := range g.Entities() {
		if err := checkIdentifiers(e.Table, e.Key); err != nil {
			return nil, fmt.Errorf("entity %s: %w", e.Name, err)
		}

		var cols []string
		for _, c := range e.Columns() {
			if err := checkIdentifiers(c.Name); err != nil {
				return nil, fmt.Errorf("entity %s: %w", e.Name, err)
			}
			if c.Name == e.Key {
				cols = append(cols, c.Name+" INTEGER PRIMARY KEY")
				continue
			}
			def := c.Name + " " + sqlType(c.Type)
			if c.References != nil {
				def += fmt.Sprintf(" REFERENCES %s(%s)", c.References.Table, c.References.Key)
			}
			cols = append(cols, def)
		}
		stmts = append(stmts, fmt.Sprintf("CREATE TABLE %s (\n    %s\n)", e.Table, strings.Join(cols, ",\n    ")))

		for _, c := range e.Columns() {
			if c.References != nil {
				stmts = append(stmts, fmt.Sprintf("CREATE INDEX idx_%s_%s ON %s(%s)", e.Table, c.Name, e.Table, c.Name))
			}
		}
	}

	for _, e := range g.Entities() {
		for _, a := range e.ElementCollections() {
			if err := checkIdentifiers(a.Table, a.JoinColumn, a.ValueColumn); err != nil {
				return nil, fmt.Errorf("entity %s attribute %s: %w", e.Name, a.Name, err)
			}
			stmts = append(stmts,
				fmt.Sprintf("CREATE TABLE %s (\n    %s INTEGER NOT NULL REFERENCES %s(%s),\n    %s %s NOT NULL\n)",
					a.Table, a.JoinColumn, e.Table, e.Key, a.ValueColumn, sqlType(a.Type)),
				fmt.Sprintf("CREATE INDEX idx_%s_%s ON %s(%s)", a.Table, a.JoinColumn, a.Table, a.JoinColumn),
			)
		}
	}

	return stmts, nil
}

func sqlType(t string) string {
	switch t {
	case ir.TypeInt, ir.TypeBool:
		return "INTEGER"
	default:
		return "TEXT"
	}
}

func checkIdentifiers(names ...string) error {
	for _, n := range names {
		if !identifier.MatchString(n) {
			return fmt.Errorf("invalid SQL identifier %q", n)
		}
	}
	return nil
}

func short(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
