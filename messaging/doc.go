// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging wraps the Matrix client-server API surface the
// weft sync engine and its callers need.
//
// The package provides two core types. [Client] is an unauthenticated
// homeserver client holding the base URL and HTTP transport; its Login
// and SessionFromToken methods return authenticated [Session] values
// that share the transport. [Session] covers identity verification
// (WhoAmI), the long-poll sync endpoint, filter upload, room
// membership (join, leave), sending messages and state events, and
// alias resolution.
//
// Sync responses deserialize their envelope eagerly (cursor, rooms
// grouping, device sections) but keep individual events as raw JSON.
// The engine decodes events one at a time during classification, so a
// single malformed event is a per-batch classification failure rather
// than a transport error that would trigger retry with the same
// cursor.
//
// All API errors are returned as [*MatrixError] with the protocol
// error code and HTTP status. [IsMatrixError] tests for a specific
// code; [IsUnknownToken] identifies the invalidated-credential error
// that ends a sync run. Request URLs are built by string concatenation
// rather than url.URL to avoid double-encoding path segments that
// already contain escapes (room aliases, event types).
//
// Sync filters have a typed model ([Filter] and its sections) that can
// be authored in Go, or loaded from JSONC files with [ReadFilterFile].
// [SyncFilter] is the sealed union of a server-side [FilterID] and an
// inline *[Filter]; the engine uploads inline definitions once at
// start and reuses the returned ID for every poll.
package messaging
