// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides Weft's standard SQLite connection pool.
//
// Components that need durable local storage (the sync cursor store,
// anything a client app layers on top) share this package rather than
// each configuring SQLite separately. It wraps zombiezen.com/go/sqlite
// with production defaults: WAL journal mode, NORMAL synchronous for
// process-crash durability without per-commit fsync cost, and a busy
// timeout so write contention waits instead of failing.
//
// The pool is built on zombiezen's sqlitex.Pool, which manages a
// fixed-size set of connections. Callers [Pool.Take] a connection,
// perform work, and [Pool.Put] it back. Connections are NOT safe for
// concurrent use; each goroutine holds its own for the duration of its
// work.
//
// # Pragmas
//
// Every connection is initialized with:
//
//   - journal_mode=WAL: concurrent readers with a single writer;
//     neither blocks the other.
//   - synchronous=NORMAL: transactions survive process crashes. Not
//     durable across power loss, which is acceptable for sync state:
//     the homeserver is the source of truth and a lost cursor only
//     means re-receiving recent batches.
//   - busy_timeout=5000: wait up to 5 seconds for a write lock rather
//     than returning SQLITE_BUSY immediately.
//   - cache_size=-8192: 8 MB page cache per connection.
//   - temp_store=MEMORY: temporary tables and indexes in memory.
//
// # Usage
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path:   "/var/lib/weft/state.db",
//	    Logger: logger,
//	    OnConnect: func(conn *sqlite.Conn) error {
//	        return sqlitex.ExecuteScript(conn, schema, nil)
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	conn, err := pool.Take(ctx)
//	if err != nil {
//	    return err
//	}
//	defer pool.Put(conn)
//
// The package is intentionally thin: standard pragmas plus the
// underlying zombiezen types, no query builder, no abstraction over
// SQLite's connection model. Consumers write SQL and use sqlitex
// helpers directly.
package sqlitepool
