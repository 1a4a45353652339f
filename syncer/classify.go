// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/weftchat/weft/event"
	"github.com/weftchat/weft/lib/mxid"
	"github.com/weftchat/weft/messaging"
)

// handleSync classifies one sync response and dispatches every
// resulting event, accumulating the wait-flagged completion channels
// across the whole batch. Sections are processed in a fixed order:
// device metadata, account data, ephemeral, to-device, then joined,
// invited, and left rooms.
//
// Classification is eager: the first malformed section aborts the
// remainder of the batch, but events dispatched before the failure
// have already been scheduled and keep running. The accumulated
// channels are returned alongside the error so the caller can decide
// whether to wait (the loop abandons them on error, matching the
// cursor-already-persisted failure policy).
func (s *Syncer) handleSync(ctx context.Context, response *messaging.SyncResponse) ([]<-chan struct{}, error) {
	var waits []<-chan struct{}

	// Device metadata first, independent of room data. Both fire on
	// every batch, zero-valued when the server sent nothing.
	waits = append(waits, s.dispatchInternal(ctx, event.DeviceOTKCount, response.DeviceOTKCount)...)
	waits = append(waits, s.dispatchInternal(ctx, event.DeviceLists, response.DeviceLists)...)

	for _, raw := range response.AccountData.Events {
		w, err := s.classifyEvent(ctx, raw, mxid.RoomID{}, event.StreamAccountData)
		if err != nil {
			return waits, fmt.Errorf("account data: %w", err)
		}
		waits = append(waits, w...)
	}
	for _, raw := range response.Ephemeral.Events {
		w, err := s.classifyEvent(ctx, raw, mxid.RoomID{}, event.StreamEphemeral)
		if err != nil {
			return waits, fmt.Errorf("ephemeral: %w", err)
		}
		waits = append(waits, w...)
	}
	for _, raw := range response.ToDevice.Events {
		w, err := s.classifyEvent(ctx, raw, mxid.RoomID{}, event.StreamToDevice)
		if err != nil {
			return waits, fmt.Errorf("to-device: %w", err)
		}
		waits = append(waits, w...)
	}

	for roomID, room := range response.Rooms.Join {
		// State before timeline, so state handlers observe room
		// metadata before the messages that follow it.
		for _, raw := range room.State.Events {
			w, err := s.classifyEvent(ctx, raw, roomID, event.StreamJoined|event.StreamState)
			if err != nil {
				return waits, fmt.Errorf("joined room %s state: %w", roomID, err)
			}
			waits = append(waits, w...)
		}
		for _, raw := range room.Timeline.Events {
			w, err := s.classifyEvent(ctx, raw, roomID, event.StreamJoined|event.StreamTimeline)
			if err != nil {
				return waits, fmt.Errorf("joined room %s timeline: %w", roomID, err)
			}
			waits = append(waits, w...)
		}
	}

	for roomID, room := range response.Rooms.Invite {
		w, err := s.classifyInvite(ctx, roomID, room.InviteState.Events)
		if err != nil {
			return waits, err
		}
		waits = append(waits, w...)
	}

	for roomID, room := range response.Rooms.Leave {
		// Only membership transitions are expected in left-room
		// timelines; events without a state key are dropped.
		for _, raw := range room.Timeline.Events {
			present, err := hasStateKey(raw)
			if err != nil {
				return waits, fmt.Errorf("left room %s timeline: %w", roomID, err)
			}
			if !present {
				continue
			}
			w, err := s.classifyEvent(ctx, raw, roomID, event.StreamLeft|event.StreamTimeline)
			if err != nil {
				return waits, fmt.Errorf("left room %s timeline: %w", roomID, err)
			}
			waits = append(waits, w...)
		}
	}

	return waits, nil
}

// classifyEvent decodes one raw event, injects the room ID (when the
// event came from a room section), and dispatches it.
func (s *Syncer) classifyEvent(ctx context.Context, raw json.RawMessage, roomID mxid.RoomID, source event.Stream) ([]<-chan struct{}, error) {
	evt, err := s.codec.DecodeEvent(raw)
	if err != nil {
		return nil, err
	}
	if !roomID.IsZero() {
		evt.RoomID = roomID
	}
	return s.dispatchEvent(ctx, evt, source), nil
}

// classifyInvite reconstructs the canonical invite event for one
// invited room: the invite_state event whose type is m.room.member and
// whose state key is the engine's own user ID. The remaining
// invite_state events become the stripped room preview attached to the
// invite's unsigned metadata. A room without such a membership event
// is a malformed response.
func (s *Syncer) classifyInvite(ctx context.Context, roomID mxid.RoomID, events []json.RawMessage) ([]<-chan struct{}, error) {
	inviteIndex := -1
	for i, raw := range events {
		var probe struct {
			Type     string `json:"type"`
			StateKey string `json:"state_key"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			return nil, fmt.Errorf("invited room %s: malformed invite_state event: %w", roomID, err)
		}
		if probe.Type == event.StateMember.Name && probe.StateKey == s.userID.String() {
			inviteIndex = i
			break
		}
	}
	if inviteIndex < 0 {
		return nil, fmt.Errorf("invited room %s has no %s event for %s", roomID, event.StateMember.Name, s.userID)
	}

	invite, err := s.codec.DecodeEvent(events[inviteIndex])
	if err != nil {
		return nil, fmt.Errorf("invited room %s: %w", roomID, err)
	}
	invite.RoomID = roomID
	// The protocol does not require event_id or origin_server_ts on
	// invite-state events. The event ID stays absent; the timestamp
	// defaults to the processing time.
	if invite.Timestamp == 0 {
		invite.Timestamp = s.clk.Now().UnixMilli()
	}

	stripped := make([]event.StrippedState, 0, len(events)-1)
	for i, raw := range events {
		if i == inviteIndex {
			continue
		}
		state, err := s.codec.DecodeStripped(raw)
		if err != nil {
			return nil, fmt.Errorf("invited room %s: %w", roomID, err)
		}
		state.RoomID = roomID
		stripped = append(stripped, *state)
	}
	if invite.Unsigned == nil {
		invite.Unsigned = &event.Unsigned{}
	}
	invite.Unsigned.InviteRoomState = stripped

	return s.dispatchEvent(ctx, invite, event.StreamInvited|event.StreamState), nil
}

// hasStateKey reports whether the raw event object carries a state_key
// member, even a null one. The left-room filter cares about key
// presence, not its value.
func hasStateKey(raw json.RawMessage) (bool, error) {
	var probe struct {
		StateKey json.RawMessage `json:"state_key"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false, fmt.Errorf("malformed event: %w", err)
	}
	return probe.StateKey != nil, nil
}
