// Package sqlite implements the local durable store on a SQLite database
// file. It is the offline mirror of the remote store plus the holding pen
// for pending records created while offline.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	syncerrors "github.com/pocketsync/pocketsync/internal/errors"
	"github.com/pocketsync/pocketsync/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS items (
    id       TEXT PRIMARY KEY,
    user_id  TEXT NOT NULL DEFAULT '',
    name     TEXT NOT NULL,
    location TEXT NOT NULL DEFAULT '',
    ts       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_items_user ON items(user_id);
`

// LocalStore implements store.Local backed by a single items table.
type LocalStore struct {
	db *sql.DB
}

// New opens (or creates) the database file at path and initializes the
// schema. WAL mode keeps reads cheap while the engine rewrites the
// mirror; the busy timeout covers the brief writer overlap on reopen.
func New(path string) (*LocalStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, syncerrors.NewLocalError("local.open", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, syncerrors.NewLocalError("local.open", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, syncerrors.NewLocalError("local.open", err)
	}
	return NewWithDB(db)
}

// NewWithDB wires a store over an existing connection (used by tests).
func NewWithDB(db *sql.DB) (*LocalStore, error) {
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, syncerrors.NewLocalError("local.init", err)
	}
	return &LocalStore{db: db}, nil
}

// DB exposes the underlying connection.
func (s *LocalStore) DB() *sql.DB { return s.db }

// Close closes the underlying connection.
func (s *LocalStore) Close() error { return s.db.Close() }

// Put inserts or replaces the record keyed by item.ID.
func (s *LocalStore) Put(ctx context.Context, item model.Item) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO items (id, user_id, name, location, ts) VALUES (?,?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET user_id=excluded.user_id, name=excluded.name,
		 location=excluded.location, ts=excluded.ts`,
		item.ID.String(), item.UserID, item.Name, item.Location, item.Timestamp.UnixMilli())
	if err != nil {
		return syncerrors.NewLocalError("local.put", err)
	}
	return nil
}

// GetAll returns every record in insertion order.
func (s *LocalStore) GetAll(ctx context.Context) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, location, ts FROM items ORDER BY rowid`)
	if err != nil {
		return nil, syncerrors.NewLocalError("local.getAll", err)
	}
	defer rows.Close()

	var out []model.Item
	for rows.Next() {
		var (
			rawID string
			it    model.Item
			ts    int64
		)
		if err := rows.Scan(&rawID, &it.UserID, &it.Name, &it.Location, &ts); err != nil {
			return nil, syncerrors.NewLocalError("local.getAll", err)
		}
		id, err := model.ParseItemID(rawID)
		if err != nil {
			return nil, syncerrors.NewLocalError("local.getAll", err)
		}
		it.ID = id
		it.Timestamp = time.UnixMilli(ts).UTC()
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, syncerrors.NewLocalError("local.getAll", err)
	}
	return out, nil
}

// Delete removes the record with the given ID. Missing records are a
// silent no-op.
func (s *LocalStore) Delete(ctx context.Context, id model.ItemID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id.String()); err != nil {
		return syncerrors.NewLocalError("local.delete", err)
	}
	return nil
}

// Clear removes every record.
func (s *LocalStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return syncerrors.NewLocalError("local.clear", err)
	}
	return nil
}
