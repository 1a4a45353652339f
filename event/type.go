// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package event

import "encoding/json"

// Type identifies a wire event: the protocol type string plus the
// resolved Class. Only the name travels on the wire; JSON marshaling
// reads and writes the bare string, leaving Class at ClassUnknown
// after a decode.
//
// Type values are comparable. The handler registry keys entries by the
// full value, so a handler registered under RoomMessage (class
// message) does not fire for a hypothetical state event of the same
// name.
type Type struct {
	Name  string
	Class Class
}

// AllEvents is the registration wildcard: a handler added under
// AllEvents runs for every delivered wire event. It never matches as a
// wire type, no protocol event is named "*".
var AllEvents = Type{Name: "*"}

// Message event types carried in room timelines.
var (
	RoomMessage   = Type{"m.room.message", ClassMessage}
	RoomEncrypted = Type{"m.room.encrypted", ClassMessage}
	RoomRedaction = Type{"m.room.redaction", ClassMessage}
	Reaction      = Type{"m.reaction", ClassMessage}
	Sticker       = Type{"m.sticker", ClassMessage}
)

// State event types.
var (
	StateMember            = Type{"m.room.member", ClassState}
	StateCreate            = Type{"m.room.create", ClassState}
	StateName              = Type{"m.room.name", ClassState}
	StateTopic             = Type{"m.room.topic", ClassState}
	StateAvatar            = Type{"m.room.avatar", ClassState}
	StateCanonicalAlias    = Type{"m.room.canonical_alias", ClassState}
	StateJoinRules         = Type{"m.room.join_rules", ClassState}
	StatePowerLevels       = Type{"m.room.power_levels", ClassState}
	StateHistoryVisibility = Type{"m.room.history_visibility", ClassState}
	StateEncryption        = Type{"m.room.encryption", ClassState}
	StateTombstone         = Type{"m.room.tombstone", ClassState}
	StatePinnedEvents      = Type{"m.room.pinned_events", ClassState}
)

// Ephemeral event types.
var (
	EphemeralTyping   = Type{"m.typing", ClassEphemeral}
	EphemeralReceipt  = Type{"m.receipt", ClassEphemeral}
	EphemeralPresence = Type{"m.presence", ClassEphemeral}
)

// Account-data event types.
var (
	AccountDataDirect    = Type{"m.direct", ClassAccountData}
	AccountDataPushRules = Type{"m.push_rules", ClassAccountData}
	AccountDataFullyRead = Type{"m.fully_read", ClassAccountData}
	AccountDataTag       = Type{"m.tag", ClassAccountData}
)

// To-device event types.
var (
	ToDeviceRoomKeyRequest = Type{"m.room_key_request", ClassToDevice}
)

// Membership values carried in m.room.member event content.
const (
	MembershipInvite = "invite"
	MembershipJoin   = "join"
	MembershipLeave  = "leave"
	MembershipBan    = "ban"
	MembershipKnock  = "knock"
)

// String returns the wire type name.
func (t Type) String() string { return t.Name }

// WithClass returns a copy of the type with the class replaced.
func (t Type) WithClass(c Class) Type {
	t.Class = c
	return t
}

// Valid reports whether the type can key a handler registration.
func (t Type) Valid() bool { return t.Name != "" }

// MarshalJSON writes the bare type name.
func (t Type) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Name)
}

// UnmarshalJSON reads the bare type name. Class is left untouched; the
// engine resolves it at dispatch.
func (t *Type) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &t.Name)
}

func (Type) isKey() {}
