// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/weftchat/weft/lib/codec"
)

// MemoryStore is a volatile SyncStore. An engine backed by it re-runs
// the initial sync every restart; pair it with Config.IgnoreFirstSync
// to skip replaying the snapshot batch. The zero value is ready to
// use.
//
// MemoryStore is safe for concurrent use.
type MemoryStore struct {
	mu        sync.Mutex
	nextBatch string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NextBatch returns the stored cursor, or "" if none has been stored.
func (m *MemoryStore) NextBatch(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextBatch, nil
}

// PutNextBatch stores the cursor.
func (m *MemoryStore) PutNextBatch(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextBatch = token
	return nil
}

// fileState is the CBOR document a FileStore keeps on disk.
type fileState struct {
	NextBatch string `cbor:"next_batch"`
}

// FileStore is a SyncStore backed by a single CBOR file, written
// atomically via a temporary file and rename. A missing file reads as
// an empty cursor, so a fresh path starts with an initial sync.
//
// FileStore is safe for concurrent use, though the engine is its only
// expected writer.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a FileStore at path. The parent directory must
// exist; the file is created on the first PutNextBatch.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// NextBatch reads the cursor from disk. A missing file is an empty
// cursor, not an error.
func (f *FileStore) NextBatch(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading sync state %s: %w", f.path, err)
	}

	var state fileState
	if err := codec.Unmarshal(data, &state); err != nil {
		return "", fmt.Errorf("decoding sync state %s: %w", f.path, err)
	}
	return state.NextBatch, nil
}

// PutNextBatch writes the cursor to disk. The write goes to a
// temporary file in the same directory, then renames over the target,
// so a crash mid-write leaves the previous cursor intact.
func (f *FileStore) PutNextBatch(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := codec.Marshal(fileState{NextBatch: token})
	if err != nil {
		return fmt.Errorf("encoding sync state: %w", err)
	}

	temp := f.path + ".tmp"
	if err := os.WriteFile(temp, data, 0o600); err != nil {
		return fmt.Errorf("writing sync state %s: %w", temp, err)
	}
	if err := os.Rename(temp, f.path); err != nil {
		return fmt.Errorf("replacing sync state %s: %w", f.path, err)
	}
	return nil
}
