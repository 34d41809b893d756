package decls

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/tliron/commonlog"
	_ "modernc.org/sqlite"

	"github.com/chazu/hackemit/ast"
)

//go:embed schema.sql
var schemaSQL string

var log = commonlog.GetLogger("hackemit.decls")

// Store is a Provider backed by a SQLite declaration table.
type Store struct {
	db *sql.DB
}

// Open creates or opens the declaration store at path. ":memory:" gives a
// private in-memory store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	log.Debugf("opened declaration store %s", path)
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put inserts or replaces declarations in one transaction.
func (s *Store) Put(ctx context.Context, classes ...*Class) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, c := range classes {
		key := Key(c.Name)
		if _, err := tx.ExecContext(ctx, `DELETE FROM tparams WHERE class_key = ?`, key); err != nil {
			return fmt.Errorf("put %s: %w", c.Name, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO classes (key, name) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET name = excluded.name`, key, c.Name); err != nil {
			return fmt.Errorf("put %s: %w", c.Name, err)
		}
		for i, tp := range c.TParams {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO tparams (class_key, position, name, reified) VALUES (?, ?, ?, ?)`,
				key, i, tp.Name, int(tp.Reified)); err != nil {
				return fmt.Errorf("put %s: %w", c.Name, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	log.Debugf("stored %d declarations", len(classes))
	return nil
}

// Count returns the number of stored class declarations.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM classes`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// Names lists the stored class names in key order.
func (s *Store) Names(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM classes ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("list: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// Class implements Provider.
func (s *Store) Class(name string) (*Class, error) {
	return s.ClassContext(context.Background(), name)
}

// ClassContext looks up one declaration.
func (s *Store) ClassContext(ctx context.Context, name string) (*Class, error) {
	key := Key(name)
	c := &Class{}
	err := s.db.QueryRowContext(ctx, `SELECT name FROM classes WHERE key = ?`, key).Scan(&c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", name, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT name, reified FROM tparams WHERE class_key = ? ORDER BY position`, key)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", name, err)
	}
	defer rows.Close()
	for rows.Next() {
		var tp TParam
		var reified int
		if err := rows.Scan(&tp.Name, &reified); err != nil {
			return nil, fmt.Errorf("lookup %s: %w", name, err)
		}
		tp.Reified = ast.ReifyKind(reified)
		c.TParams = append(c.TParams, tp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("lookup %s: %w", name, err)
	}
	return c, nil
}
