// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package event

import "github.com/weftchat/weft/lib/mxid"

// Event is one classified event as delivered to handlers. The wire
// fields come from the sync response; RoomID is injected by the engine
// for room events, and Type.Class and Source are stamped at dispatch.
//
// Events are created fresh per sync response and shared read-only by
// every handler invoked for them. Handlers must not mutate the event
// or its content map.
type Event struct {
	ID        mxid.EventID   `json:"event_id,omitempty"`
	Type      Type           `json:"type"`
	RoomID    mxid.RoomID    `json:"room_id,omitempty"`
	Sender    mxid.UserID    `json:"sender,omitempty"`
	Timestamp int64          `json:"origin_server_ts,omitempty"`
	StateKey  *string        `json:"state_key,omitempty"`
	Content   map[string]any `json:"content"`
	Unsigned  *Unsigned      `json:"unsigned,omitempty"`

	// Source is the sync-stream origin, attached at dispatch. Never
	// wire data.
	Source Stream `json:"-"`
}

// Unsigned holds optional metadata the server (or the engine) attaches
// to an event outside its signed content.
type Unsigned struct {
	Age           int64          `json:"age,omitempty"`
	TransactionID string         `json:"transaction_id,omitempty"`
	PrevContent   map[string]any `json:"prev_content,omitempty"`

	// InviteRoomState carries the stripped room-preview events the
	// engine attaches to a canonical invite event.
	InviteRoomState []StrippedState `json:"invite_room_state,omitempty"`
}

// StrippedState is the reduced-field state event included as room
// preview context alongside an invite. RoomID is injected by the
// engine, like on Event.
type StrippedState struct {
	Type     Type           `json:"type"`
	StateKey string         `json:"state_key"`
	Sender   mxid.UserID    `json:"sender,omitempty"`
	Content  map[string]any `json:"content,omitempty"`
	RoomID   mxid.RoomID    `json:"room_id,omitempty"`
}

// ResolveClass computes the class of a delivered event. A state key
// forces ClassState regardless of origin; otherwise the stream's
// content bit decides; timeline events without a state key are
// messages.
func ResolveClass(stateKey *string, source Stream) Class {
	switch {
	case stateKey != nil:
		return ClassState
	case source.Has(StreamEphemeral):
		return ClassEphemeral
	case source.Has(StreamAccountData):
		return ClassAccountData
	case source.Has(StreamToDevice):
		return ClassToDevice
	default:
		return ClassMessage
	}
}
