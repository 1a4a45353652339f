// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package event

import "strings"

// Stream is a bitset describing where in a sync response an event
// originated. Room events carry one membership bit and one content
// bit; top-level account-data, ephemeral and to-device events carry
// only their content bit; engine lifecycle events carry only
// StreamInternal.
type Stream uint16

const (
	// StreamInternal marks engine-generated events.
	StreamInternal Stream = 1 << iota

	// Membership bits.
	StreamJoined
	StreamInvited
	StreamLeft

	// Content bits.
	StreamTimeline
	StreamState
	StreamEphemeral
	StreamAccountData
	StreamToDevice
)

// Has reports whether every bit of flag is set in s.
func (s Stream) Has(flag Stream) bool { return s&flag == flag }

// String returns the set bit names joined by "|", or "none" for the
// empty set.
func (s Stream) String() string {
	names := []struct {
		bit  Stream
		name string
	}{
		{StreamInternal, "internal"},
		{StreamJoined, "joined"},
		{StreamInvited, "invited"},
		{StreamLeft, "left"},
		{StreamTimeline, "timeline"},
		{StreamState, "state"},
		{StreamEphemeral, "ephemeral"},
		{StreamAccountData, "account_data"},
		{StreamToDevice, "to_device"},
	}
	var parts []string
	for _, n := range names {
		if s.Has(n.bit) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}
