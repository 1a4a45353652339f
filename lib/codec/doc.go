// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Weft's standard CBOR encoding configuration.
//
// Weft uses two serialization formats with a clear boundary:
//
//   - JSON for the wire: the Matrix Client-Server API is JSON end to
//     end, and the event model round-trips through encoding/json.
//   - CBOR for local state: on-disk engine state such as the sync
//     cursor file, encoded compactly and deterministically.
//
// This package holds the shared CBOR encoding and decoding modes so
// every state file encodes identically without duplicating
// configuration. The encoder uses Core Deterministic Encoding
// (RFC 8949 §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items.
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// Types serialized here carry `cbor` struct tags: a `cbor`-tagged type
// is only ever written to local state, never to the Matrix wire.
package codec
