// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package event

// Class is the coarse category of a wire event. It is resolved by the
// engine at dispatch time, not carried on the wire: a freshly decoded
// event has ClassUnknown until ResolveClass runs.
type Class int

const (
	// ClassUnknown is the zero value, set on events that have not been
	// through dispatch-time resolution.
	ClassUnknown Class = iota

	// ClassMessage covers room timeline events without a state key.
	ClassMessage

	// ClassState covers room events carrying a state key.
	ClassState

	// ClassEphemeral covers transient per-room signaling such as
	// typing notifications and read receipts.
	ClassEphemeral

	// ClassAccountData covers per-account configuration events.
	ClassAccountData

	// ClassToDevice covers events routed to a specific device rather
	// than a room.
	ClassToDevice
)

// String returns the class name used in log output.
func (c Class) String() string {
	switch c {
	case ClassMessage:
		return "message"
	case ClassState:
		return "state"
	case ClassEphemeral:
		return "ephemeral"
	case ClassAccountData:
		return "account_data"
	case ClassToDevice:
		return "to_device"
	default:
		return "unknown"
	}
}
