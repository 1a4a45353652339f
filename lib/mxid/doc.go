// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

// Package mxid provides validated value types for Matrix identifiers:
// user IDs, room IDs, room aliases, and event IDs.
//
// Raw identifier strings arrive from homeserver responses, config
// files, and command-line flags. Weft parses them into these types at
// the boundary, so code past the boundary never handles an identifier
// whose structural format has not been checked. Each type is an
// immutable value: construct with its Parse function, compare with ==,
// test for absence with IsZero.
//
// All types implement encoding.TextMarshaler and TextUnmarshaler, so
// they serialize as plain strings in JSON bodies and work as JSON map
// keys (sync responses key room sections by room ID).
//
// Validation is structural only (sigil, localpart, server presence),
// per the Matrix identifier grammar. Weft does not enforce homeserver
// policy such as localpart character sets or length limits; identifiers
// minted by a server are accepted as-is.
package mxid
