// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitestore provides a SQLite-backed syncer.SyncStore. The
// cursor lives in a single-row table, so the store survives restarts
// and shares a database file with whatever else the host application
// keeps in SQLite.
package sqlitestore

import (
	"context"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/weftchat/weft/lib/sqlitepool"
)

const schema = `
CREATE TABLE IF NOT EXISTS sync_cursor (
    id         INTEGER PRIMARY KEY CHECK (id = 1),
    next_batch TEXT NOT NULL
);
`

// Store is a syncer.SyncStore backed by a SQLite database. Create one
// with Open, and Close it when the engine is done.
//
// Store is safe for concurrent use.
type Store struct {
	pool *sqlitepool.Pool
}

// Open creates (or reuses) the database at path and ensures the cursor
// schema exists. A nil logger discards pool messages.
func Open(path string, logger *slog.Logger) (*Store, error) {
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:   path,
		Logger: logger,
		OnConnect: func(conn *sqlite.Conn) error {
			if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
				return fmt.Errorf("creating sync_cursor schema: %w", err)
			}
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NextBatch returns the stored cursor, or "" if none has been stored.
func (s *Store) NextBatch(ctx context.Context) (string, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return "", fmt.Errorf("sqlitestore: %w", err)
	}
	defer s.pool.Put(conn)

	var nextBatch string
	err = sqlitex.Execute(conn, `SELECT next_batch FROM sync_cursor WHERE id = 1`, &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			nextBatch = stmt.ColumnText(0)
			return nil
		},
	})
	if err != nil {
		return "", fmt.Errorf("sqlitestore: reading cursor: %w", err)
	}
	return nextBatch, nil
}

// PutNextBatch stores the cursor, replacing any previous value.
func (s *Store) PutNextBatch(ctx context.Context, token string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("sqlitestore: %w", err)
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`INSERT INTO sync_cursor (id, next_batch) VALUES (1, ?)
		 ON CONFLICT (id) DO UPDATE SET next_batch = excluded.next_batch`,
		&sqlitex.ExecOptions{Args: []any{token}},
	)
	if err != nil {
		return fmt.Errorf("sqlitestore: writing cursor: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}
