// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"encoding/json"

	"github.com/weftchat/weft/lib/mxid"
)

// LoginRequest is the request body for password login.
type LoginRequest struct {
	Type                     string `json:"type"`
	User                     string `json:"user"`
	Password                 string `json:"password"`
	DeviceID                 string `json:"device_id,omitempty"`
	InitialDeviceDisplayName string `json:"initial_device_display_name,omitempty"`
}

// AuthResponse is returned by Login.
type AuthResponse struct {
	UserID      mxid.UserID `json:"user_id"`
	AccessToken string      `json:"access_token"`
	DeviceID    string      `json:"device_id"`
}

// WhoAmIResponse is returned by WhoAmI.
type WhoAmIResponse struct {
	UserID   mxid.UserID `json:"user_id"`
	DeviceID string      `json:"device_id,omitempty"`
}

// SendEventResponse is returned by SendMessage, SendEvent, and
// SendStateEvent.
type SendEventResponse struct {
	EventID mxid.EventID `json:"event_id"`
}

// ResolveAliasResponse is returned by ResolveAlias.
type ResolveAliasResponse struct {
	RoomID  mxid.RoomID `json:"room_id"`
	Servers []string    `json:"servers"`
}

// Presence is the presence state reported to the server while syncing.
type Presence string

// Presence states defined by the protocol.
const (
	PresenceOnline      Presence = "online"
	PresenceOffline     Presence = "offline"
	PresenceUnavailable Presence = "unavailable"
)

// MessageContent is the content body of an m.room.message event.
// For replies and threads, set RelatesTo.
type MessageContent struct {
	MsgType       string     `json:"msgtype"`
	Body          string     `json:"body"`
	Format        string     `json:"format,omitempty"`
	FormattedBody string     `json:"formatted_body,omitempty"`
	Mentions      *Mentions  `json:"m.mentions,omitempty"`
	RelatesTo     *RelatesTo `json:"m.relates_to,omitempty"`
}

// Mentions identifies users a message is addressed to, in the
// m.mentions format: a list of fully-qualified user IDs.
type Mentions struct {
	UserIDs []mxid.UserID `json:"user_ids,omitempty"`
}

// RelatesTo expresses relationships between events. For threads,
// RelType is "m.thread" and EventID is the thread root.
type RelatesTo struct {
	RelType       string       `json:"rel_type,omitempty"`
	EventID       mxid.EventID `json:"event_id,omitempty"`
	IsFallingBack bool         `json:"is_falling_back,omitempty"`
	InReplyTo     *InReplyTo   `json:"m.in_reply_to,omitempty"`
}

// InReplyTo references the event being replied to.
type InReplyTo struct {
	EventID mxid.EventID `json:"event_id"`
}

// NewTextMessage creates a plain text message.
func NewTextMessage(body string) MessageContent {
	return MessageContent{
		MsgType: "m.text",
		Body:    body,
	}
}

// NewNoticeMessage creates an m.notice message. Automated responders
// send notices so that other automata (including themselves) do not
// treat the response as conversational input.
func NewNoticeMessage(body string) MessageContent {
	return MessageContent{
		MsgType: "m.notice",
		Body:    body,
	}
}

// NewThreadReply creates a message that replies within an existing
// thread. threadRootID is the event ID of the thread's root message.
func NewThreadReply(threadRootID mxid.EventID, body string) MessageContent {
	return MessageContent{
		MsgType: "m.text",
		Body:    body,
		RelatesTo: &RelatesTo{
			RelType:       "m.thread",
			EventID:       threadRootID,
			IsFallingBack: true,
			InReplyTo: &InReplyTo{
				EventID: threadRootID,
			},
		},
	}
}

// SyncOptions controls one call to the /sync endpoint.
type SyncOptions struct {
	Since       string   // next_batch token from the previous response; empty for initial sync
	Timeout     int      // long-poll timeout in milliseconds; 0 returns immediately
	SetTimeout  bool     // send the timeout parameter (distinguishes "not set" from "0")
	Filter      string   // filter ID from CreateFilter, or inline JSON
	FullState   bool     // request full room state regardless of since
	SetPresence Presence // presence to report while polling; empty omits the parameter
}

// SyncResponse is the top-level response from /sync. Event lists are
// carried as raw JSON: individual events are decoded one at a time by
// the engine, so one malformed event surfaces as a classification
// error instead of failing the whole response parse.
type SyncResponse struct {
	NextBatch      string           `json:"next_batch"`
	AccountData    EventList        `json:"account_data,omitempty"`
	Ephemeral      EventList        `json:"ephemeral,omitempty"`
	ToDevice       EventList        `json:"to_device,omitempty"`
	DeviceLists    DeviceLists      `json:"device_lists,omitzero"`
	DeviceOTKCount OneTimeKeyCounts `json:"device_one_time_keys_count,omitzero"`
	Rooms          RoomsSection     `json:"rooms,omitzero"`
}

// EventList is a bare list of raw events, the shape shared by the
// account_data, ephemeral, to_device, state, and invite_state
// sections.
type EventList struct {
	Events []json.RawMessage `json:"events,omitempty"`
}

// DeviceLists reports users whose device lists changed during the
// sync window.
type DeviceLists struct {
	Changed []mxid.UserID `json:"changed,omitempty"`
	Left    []mxid.UserID `json:"left,omitempty"`
}

// OneTimeKeyCounts reports how many one-time keys the server holds
// for this device.
type OneTimeKeyCounts struct {
	Curve25519       int `json:"curve25519,omitempty"`
	SignedCurve25519 int `json:"signed_curve25519,omitempty"`
}

// RoomsSection groups per-room sync data by membership. Map keys are
// room IDs, validated during decode by mxid.RoomID's TextUnmarshaler.
type RoomsSection struct {
	Join   map[mxid.RoomID]JoinedRoom  `json:"join,omitempty"`
	Invite map[mxid.RoomID]InvitedRoom `json:"invite,omitempty"`
	Leave  map[mxid.RoomID]LeftRoom    `json:"leave,omitempty"`
}

// JoinedRoom carries sync data for a room the user has joined.
type JoinedRoom struct {
	State    EventList       `json:"state,omitempty"`
	Timeline TimelineSection `json:"timeline,omitzero"`
}

// InvitedRoom carries the stripped-state preview for a room the user
// was invited to.
type InvitedRoom struct {
	InviteState EventList `json:"invite_state,omitempty"`
}

// LeftRoom carries sync data for a room the user has left.
type LeftRoom struct {
	State    EventList       `json:"state,omitempty"`
	Timeline TimelineSection `json:"timeline,omitzero"`
}

// TimelineSection carries timeline events plus pagination info.
type TimelineSection struct {
	Events    []json.RawMessage `json:"events,omitempty"`
	Limited   bool              `json:"limited,omitempty"`
	PrevBatch string            `json:"prev_batch,omitempty"`
}
