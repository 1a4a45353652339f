// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	got, err := store.NextBatch(ctx)
	if err != nil {
		t.Fatalf("NextBatch: %v", err)
	}
	if got != "" {
		t.Errorf("fresh store cursor = %q, want empty", got)
	}

	if err := store.PutNextBatch(ctx, "T1"); err != nil {
		t.Fatalf("PutNextBatch: %v", err)
	}
	if err := store.PutNextBatch(ctx, "T2"); err != nil {
		t.Fatalf("PutNextBatch: %v", err)
	}

	got, err = store.NextBatch(ctx)
	if err != nil {
		t.Fatalf("NextBatch: %v", err)
	}
	if got != "T2" {
		t.Errorf("cursor = %q, want the last written value T2", got)
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sync-state.cbor")

	store := NewFileStore(path)
	got, err := store.NextBatch(ctx)
	if err != nil {
		t.Fatalf("NextBatch on missing file: %v", err)
	}
	if got != "" {
		t.Errorf("missing file cursor = %q, want empty", got)
	}

	if err := store.PutNextBatch(ctx, "T1"); err != nil {
		t.Fatalf("PutNextBatch: %v", err)
	}
	if err := store.PutNextBatch(ctx, "T2"); err != nil {
		t.Fatalf("PutNextBatch: %v", err)
	}

	// A new store over the same path sees the persisted cursor, and
	// the temporary file from the atomic write is gone.
	reopened := NewFileStore(path)
	got, err = reopened.NextBatch(ctx)
	if err != nil {
		t.Fatalf("NextBatch after reopen: %v", err)
	}
	if got != "T2" {
		t.Errorf("reopened cursor = %q, want T2", got)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temporary file left behind: %v", err)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sync-state.cbor")
	if err := os.WriteFile(path, []byte("not cbor at all"), 0o600); err != nil {
		t.Fatal(err)
	}

	store := NewFileStore(path)
	if _, err := store.NextBatch(ctx); err == nil {
		t.Error("NextBatch on corrupt file succeeded, want error")
	}
}
