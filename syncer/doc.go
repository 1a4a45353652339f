// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

// Package syncer implements the weft synchronization engine: a
// long-poll /sync loop that turns raw homeserver responses into
// classified events and delivers them to registered handlers.
//
// A [Syncer] owns one sync loop, one handler registry, and one
// dispatcher table. It consumes three collaborator interfaces:
// [Transport] performs the sync and filter-upload requests (satisfied
// by *messaging.Session), [SyncStore] persists the resumption cursor
// between polls and across restarts, and [EventCodec] decodes raw
// wire objects into typed events. Engines are constructed explicitly
// with [New]; there is no shared global state.
//
// Handlers are registered per event identifier (a wire event.Type, the
// event.AllEvents wildcard, or an engine event.InternalType) with a
// wait flag. Every matching handler runs on its own goroutine the
// moment its event is dispatched; only wait-flagged invocations gate
// the loop, which collects them across a whole sync batch and waits
// for all of them together before the next poll. Handler errors and
// panics are logged at single-invocation granularity and never reach
// sibling handlers or the loop.
//
// The loop persists the cursor from every accepted response before any
// handler for that batch runs. Events not processed before the next
// poll are therefore unrecoverable through the cursor; callers needing
// stronger delivery guarantees must layer their own journal on top.
// Transient poll failures retry with exponential backoff and are
// reported through the event.SyncErrored internal event; only
// cancellation and an invalidated access token end the loop.
//
// Registration, removal, and dispatcher changes are not safe to call
// concurrently with a running loop. Install handlers and dispatchers
// before Start, or synchronize administrative access externally.
package syncer
