// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/weftchat/weft/lib/mxid"
)

// FilterID references a filter previously uploaded with CreateFilter.
// IDs are opaque and scoped to the user that created them.
type FilterID string

// SyncFilter is the union accepted when starting a sync run: either a
// FilterID to use as-is, or a *Filter definition to upload first. A
// nil SyncFilter syncs unfiltered. The interface is sealed.
type SyncFilter interface {
	isSyncFilter()
}

func (FilterID) isSyncFilter() {}
func (*Filter) isSyncFilter()  {}

// Filter is a sync filter definition, the shape uploaded to
// CreateFilter. Zero-valued sections are omitted from the upload and
// leave the server defaults in place.
type Filter struct {
	// EventFields restricts which event fields are returned, as
	// dot-separated paths ("content.body"). Empty returns all fields.
	EventFields []string `json:"event_fields,omitempty"`

	// EventFormat is "client" or "federation". Empty uses the server
	// default ("client").
	EventFormat string `json:"event_format,omitempty"`

	// Presence filters the top-level presence section. To drop
	// presence entirely, set NotTypes to ["*"].
	Presence EventFilter `json:"presence,omitzero"`

	// AccountData filters top-level account-data events.
	AccountData EventFilter `json:"account_data,omitzero"`

	// Room filters all per-room sections.
	Room RoomFilter `json:"room,omitzero"`
}

// EventFilter narrows one non-room section of the sync response.
// Types and NotTypes entries may use "*" as a trailing wildcard.
type EventFilter struct {
	Limit      int           `json:"limit,omitempty"`
	Types      []string      `json:"types,omitempty"`
	NotTypes   []string      `json:"not_types,omitempty"`
	Senders    []mxid.UserID `json:"senders,omitempty"`
	NotSenders []mxid.UserID `json:"not_senders,omitempty"`
}

// RoomFilter narrows the rooms section.
type RoomFilter struct {
	// Rooms limits the response to these rooms; empty means all.
	Rooms []mxid.RoomID `json:"rooms,omitempty"`

	// NotRooms excludes these rooms, taking precedence over Rooms.
	NotRooms []mxid.RoomID `json:"not_rooms,omitempty"`

	// IncludeLeave includes rooms the user has left.
	IncludeLeave bool `json:"include_leave,omitempty"`

	State       StateFilter     `json:"state,omitzero"`
	Timeline    RoomEventFilter `json:"timeline,omitzero"`
	Ephemeral   RoomEventFilter `json:"ephemeral,omitzero"`
	AccountData RoomEventFilter `json:"account_data,omitzero"`
}

// RoomEventFilter narrows one per-room section.
type RoomEventFilter struct {
	Limit       int           `json:"limit,omitempty"`
	Types       []string      `json:"types,omitempty"`
	NotTypes    []string      `json:"not_types,omitempty"`
	Senders     []mxid.UserID `json:"senders,omitempty"`
	NotSenders  []mxid.UserID `json:"not_senders,omitempty"`
	Rooms       []mxid.RoomID `json:"rooms,omitempty"`
	NotRooms    []mxid.RoomID `json:"not_rooms,omitempty"`
	ContainsURL *bool         `json:"contains_url,omitempty"`
}

// StateFilter narrows the per-room state section. LazyLoadMembers
// defers membership events to rooms the user actually interacts with,
// which shrinks initial syncs dramatically on large accounts.
type StateFilter struct {
	Limit           int           `json:"limit,omitempty"`
	Types           []string      `json:"types,omitempty"`
	NotTypes        []string      `json:"not_types,omitempty"`
	Senders         []mxid.UserID `json:"senders,omitempty"`
	NotSenders      []mxid.UserID `json:"not_senders,omitempty"`
	Rooms           []mxid.RoomID `json:"rooms,omitempty"`
	NotRooms        []mxid.RoomID `json:"not_rooms,omitempty"`
	ContainsURL     *bool         `json:"contains_url,omitempty"`
	LazyLoadMembers bool          `json:"lazy_load_members,omitempty"`
}

// ParseFilter strips JSONC comments and trailing commas from data,
// then unmarshals the result into a Filter. Filter files are authored
// by hand, so the on-disk format allows // line comments, /* block
// comments */, and trailing commas.
func ParseFilter(data []byte) (*Filter, error) {
	stripped := jsonc.ToJSON(data)

	var filter Filter
	if err := json.Unmarshal(stripped, &filter); err != nil {
		return nil, fmt.Errorf("parsing filter: %w", err)
	}
	return &filter, nil
}

// ReadFilterFile reads a JSONC filter definition from disk.
func ReadFilterFile(path string) (*Filter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	filter, err := ParseFilter(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return filter, nil
}
