// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/weftchat/weft/event"
)

// handlerEntry is one registration: the handler, its code pointer for
// identity matching on removal, and the wait flag.
type handlerEntry struct {
	fn       Handler
	identity uintptr
	waitSync bool
}

// registry holds the per-key handler lists plus the global list
// matched by event.AllEvents registrations. It has no lock: the
// administrative operations must not race dispatch (see the package
// documentation).
type registry struct {
	logger *slog.Logger
	global []handlerEntry
	byKey  map[event.Key][]handlerEntry
}

func newRegistry(logger *slog.Logger) *registry {
	return &registry{
		logger: logger,
		byKey:  make(map[event.Key][]handlerEntry),
	}
}

// validateKey reports the usage error for a registration or dispatch
// key that identifies no registration slot.
func validateKey(key event.Key) error {
	if key == nil {
		return fmt.Errorf("syncer: nil event type")
	}
	if !key.Valid() {
		return fmt.Errorf("syncer: invalid event type %q", key.String())
	}
	return nil
}

func (r *registry) add(key event.Key, fn Handler, waitSync bool) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("syncer: nil handler for %s", key)
	}
	entry := handlerEntry{
		fn:       fn,
		identity: reflect.ValueOf(fn).Pointer(),
		waitSync: waitSync,
	}
	if key == event.Key(event.AllEvents) {
		r.global = append(r.global, entry)
		return nil
	}
	r.byKey[key] = append(r.byKey[key], entry)
	return nil
}

func (r *registry) remove(key event.Key, fn Handler) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if fn == nil {
		return fmt.Errorf("syncer: nil handler for %s", key)
	}
	identity := reflect.ValueOf(fn).Pointer()

	// One removal attempt per wait-flag value, each ignoring a miss:
	// a handler registered under both flags is cleared by one call.
	if key == event.Key(event.AllEvents) {
		r.global = removeEntry(r.global, identity, true)
		r.global = removeEntry(r.global, identity, false)
		return nil
	}
	entries := removeEntry(r.byKey[key], identity, true)
	entries = removeEntry(entries, identity, false)
	if len(entries) == 0 {
		delete(r.byKey, key)
	} else {
		r.byKey[key] = entries
	}
	return nil
}

// removeEntry removes the first entry matching (identity, waitSync),
// if any.
func removeEntry(entries []handlerEntry, identity uintptr, waitSync bool) []handlerEntry {
	for i, entry := range entries {
		if entry.identity == identity && entry.waitSync == waitSync {
			return append(entries[:i:i], entries[i+1:]...)
		}
	}
	return entries
}

// matching returns the entries a dispatch under key schedules, in
// scheduling order: global entries first (when included), then the
// key's own list, each in registration order. The slice is freshly
// allocated, so later registry mutations do not disturb an in-flight
// dispatch.
func (r *registry) matching(key event.Key, includeGlobal bool) []handlerEntry {
	var entries []handlerEntry
	if includeGlobal {
		entries = append(entries, r.global...)
	}
	return append(entries, r.byKey[key]...)
}

// dispatch starts one goroutine per matching handler, in scheduling
// order. It returns a completion channel per wait-flagged invocation;
// all other invocations run unobserved in the background.
//
// Handlers receive an uncancellable context: stopping the engine never
// cancels an invocation already started.
func (r *registry) dispatch(ctx context.Context, key event.Key, payload any, includeGlobal bool) []<-chan struct{} {
	entries := r.matching(key, includeGlobal)
	if len(entries) == 0 {
		return nil
	}

	handlerCtx := context.WithoutCancel(ctx)
	var waits []<-chan struct{}
	for _, entry := range entries {
		done := make(chan struct{})
		go r.invoke(handlerCtx, entry, key, payload, done)
		if entry.waitSync {
			waits = append(waits, done)
		}
	}
	return waits
}

// invoke runs one handler, logging an error return or a panic. Neither
// reaches sibling invocations or the sync loop.
func (r *registry) invoke(ctx context.Context, entry handlerEntry, key event.Key, payload any, done chan struct{}) {
	defer close(done)
	defer func() {
		if recovered := recover(); recovered != nil {
			r.logger.Error("event handler panicked",
				"event_type", key.String(),
				"panic", recovered,
			)
		}
	}()
	if err := entry.fn(ctx, payload); err != nil {
		r.logger.Error("event handler failed",
			"event_type", key.String(),
			"error", err,
		)
	}
}
