// Package sqlite stores documents in a single SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/matzehuels/keygraph/pkg/store"
)

const schema = `CREATE TABLE IF NOT EXISTS documents (
	name    TEXT PRIMARY KEY,
	data    BLOB NOT NULL,
	updated TEXT NOT NULL
)`

// Store implements store.Store on SQLite.
type Store struct {
	db *sql.DB
}

// New opens or creates the database at path. Default "keygraph.db".
func New(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = "keygraph.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create documents table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	if err := store.ValidateName(name); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM documents WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NotFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get %s: %w", name, err)
	}
	return data, nil
}

func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	if err := store.ValidateName(name); err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (name, data, updated) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated = excluded.updated`,
		name, data, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("sqlite put %s: %w", name, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	if err := store.ValidateName(name); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE name = ?`, name); err != nil {
		return fmt.Errorf("sqlite delete %s: %w", name, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]store.Info, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, length(data), updated FROM documents ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("sqlite list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []store.Info
	for rows.Next() {
		var info store.Info
		var updated string
		if err := rows.Scan(&info.Name, &info.Size, &updated); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		info.Updated, _ = time.Parse(time.RFC3339Nano, updated)
		out = append(out, info)
	}
	return out, rows.Err()
}

func (s *Store) Close() error { return s.db.Close() }

var _ store.Store = (*Store)(nil)
