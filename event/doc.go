// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

// Package event defines the event model shared by the Matrix transport
// and the sync engine: typed event identifiers, the classified Event
// structure delivered to handlers, and the JSON codec that turns raw
// wire objects into those structures.
//
// Every event identifier is either a wire Type (a protocol event type
// string such as "m.room.message" paired with a coarse Class) or an
// engine InternalType (lifecycle and metadata notifications that never
// appear on the wire). The two share the sealed Key interface, which is
// what the engine's handler registration API accepts. AllEvents is the
// distinguished wildcard Type matched by every delivered event.
//
// A Class is not wire data. The wire carries only the type string; the
// engine resolves the class at dispatch time from the event's state key
// and the part of the sync response it arrived in (see ResolveClass),
// so the same type string can surface as a state event in one room and
// a message elsewhere. Handlers registered under a Type match on both
// the name and the resolved class.
//
// Stream records where in a sync response an event originated, as a
// bitset of membership (joined, invited, left) and content kind
// (timeline, state, ephemeral, account data, to-device) bits. Engine
// lifecycle events carry only StreamInternal. The engine stamps the
// origin onto Event.Source before delivery.
package event
