// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/weftchat/weft/event"
	"github.com/weftchat/weft/lib/clock"
	"github.com/weftchat/weft/lib/mxid"
	"github.com/weftchat/weft/lib/testutil"
	"github.com/weftchat/weft/messaging"
)

// classifyTime is the fake processing time used by invite timestamp
// defaulting.
var classifyTime = time.UnixMilli(1_700_000_000_000)

func newClassifySyncer(t *testing.T) *Syncer {
	t.Helper()
	engine, err := New(Config{
		Transport: nullTransport{},
		UserID:    mxid.MustParseUserID("@me:x"),
		Clock:     clock.Fake(classifyTime),
		Logger:    slog.New(slog.DiscardHandler),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return engine
}

// collectEvents registers a wait-flagged handler under key that
// forwards every delivered event to the returned channel.
func collectEvents(t *testing.T, engine *Syncer, key event.Key) chan *event.Event {
	t.Helper()
	ch := make(chan *event.Event, 16)
	err := engine.AddEventHandler(key, func(ctx context.Context, payload any) error {
		ch <- payload.(*event.Event)
		return nil
	}, true)
	if err != nil {
		t.Fatalf("AddEventHandler: %v", err)
	}
	return ch
}

// runHandleSync classifies the response and waits for every
// wait-flagged invocation it scheduled, including those scheduled
// before a classification failure.
func runHandleSync(t *testing.T, engine *Syncer, response *messaging.SyncResponse) error {
	t.Helper()
	waits, err := engine.handleSync(context.Background(), response)
	for _, wait := range waits {
		testutil.RequireClosed(t, wait, testTimeout, "batch handler")
	}
	return err
}

func rawEvents(events ...string) messaging.EventList {
	list := messaging.EventList{}
	for _, raw := range events {
		list.Events = append(list.Events, json.RawMessage(raw))
	}
	return list
}

func TestHandleSyncJoinedRoom(t *testing.T) {
	engine := newClassifySyncer(t)
	events := collectEvents(t, engine, event.AllEvents)

	roomID := mxid.MustParseRoomID("!room:x")
	response := &messaging.SyncResponse{
		NextBatch: "T1",
		Rooms: messaging.RoomsSection{
			Join: map[mxid.RoomID]messaging.JoinedRoom{
				roomID: {
					State: rawEvents(`{"type":"m.room.name","state_key":"","sender":"@admin:x","content":{"name":"weft"}}`),
					Timeline: messaging.TimelineSection{
						Events: []json.RawMessage{
							json.RawMessage(`{"type":"m.room.message","sender":"@alice:x","event_id":"$m1","content":{"msgtype":"m.text","body":"hi"}}`),
						},
					},
				},
			},
		},
	}

	if err := runHandleSync(t, engine, response); err != nil {
		t.Fatalf("handleSync: %v", err)
	}

	// Delivery is concurrent, so match by type rather than arrival
	// order.
	byType := map[string]*event.Event{}
	for range 2 {
		evt := testutil.RequireReceive(t, events, testTimeout, "joined room event")
		byType[evt.Type.Name] = evt
	}

	name := byType["m.room.name"]
	if name == nil {
		t.Fatal("room name event not delivered")
	}
	if name.Type.Class != event.ClassState {
		t.Errorf("name class = %v, want state", name.Type.Class)
	}
	if name.Source != event.StreamJoined|event.StreamState {
		t.Errorf("name source = %v", name.Source)
	}
	if name.RoomID != roomID {
		t.Errorf("name room = %v, want %v (injected)", name.RoomID, roomID)
	}

	message := byType["m.room.message"]
	if message == nil {
		t.Fatal("message event not delivered")
	}
	if message.Type.Class != event.ClassMessage {
		t.Errorf("message class = %v, want message", message.Type.Class)
	}
	if message.Source != event.StreamJoined|event.StreamTimeline {
		t.Errorf("message source = %v", message.Source)
	}
	if message.RoomID != roomID {
		t.Errorf("message room = %v, want %v (injected)", message.RoomID, roomID)
	}
}

func TestHandleSyncTopLevelSections(t *testing.T) {
	engine := newClassifySyncer(t)
	events := collectEvents(t, engine, event.AllEvents)

	response := &messaging.SyncResponse{
		NextBatch:   "T1",
		AccountData: rawEvents(`{"type":"m.direct","content":{}}`),
		Ephemeral:   rawEvents(`{"type":"m.typing","content":{"user_ids":[]}}`),
		ToDevice:    rawEvents(`{"type":"m.room_key_request","sender":"@me:x","content":{}}`),
	}

	if err := runHandleSync(t, engine, response); err != nil {
		t.Fatalf("handleSync: %v", err)
	}

	want := map[string]struct {
		class  event.Class
		source event.Stream
	}{
		"m.direct":           {event.ClassAccountData, event.StreamAccountData},
		"m.typing":           {event.ClassEphemeral, event.StreamEphemeral},
		"m.room_key_request": {event.ClassToDevice, event.StreamToDevice},
	}
	for range len(want) {
		evt := testutil.RequireReceive(t, events, testTimeout, "top-level event")
		expected, ok := want[evt.Type.Name]
		if !ok {
			t.Fatalf("unexpected event %s", evt.Type.Name)
		}
		if evt.Type.Class != expected.class {
			t.Errorf("%s class = %v, want %v", evt.Type.Name, evt.Type.Class, expected.class)
		}
		if evt.Source != expected.source {
			t.Errorf("%s source = %v, want %v", evt.Type.Name, evt.Source, expected.source)
		}
		if !evt.RoomID.IsZero() {
			t.Errorf("%s has room ID %v, want none", evt.Type.Name, evt.RoomID)
		}
		delete(want, evt.Type.Name)
	}
}

func TestHandleSyncInviteReconstruction(t *testing.T) {
	engine := newClassifySyncer(t)
	invites := collectEvents(t, engine, event.StateMember)

	// The minimal invited-room payload: one membership event for the
	// local user, with no event_id or origin_server_ts.
	response := &messaging.SyncResponse{
		NextBatch: "T1",
		Rooms: messaging.RoomsSection{
			Invite: map[mxid.RoomID]messaging.InvitedRoom{
				mxid.MustParseRoomID("!r:x"): {
					InviteState: rawEvents(`{"type":"m.room.member","state_key":"@me:x","sender":"@alice:x","content":{"membership":"invite"}}`),
				},
			},
		},
	}

	if err := runHandleSync(t, engine, response); err != nil {
		t.Fatalf("handleSync: %v", err)
	}

	invite := testutil.RequireReceive(t, invites, testTimeout, "canonical invite event")
	if invite.Source != event.StreamInvited|event.StreamState {
		t.Errorf("source = %v, want invited|state", invite.Source)
	}
	if invite.Type.Class != event.ClassState {
		t.Errorf("class = %v, want state", invite.Type.Class)
	}
	if invite.RoomID != mxid.MustParseRoomID("!r:x") {
		t.Errorf("room = %v, want !r:x", invite.RoomID)
	}
	if !invite.ID.IsZero() {
		t.Errorf("event ID = %v, want absent", invite.ID)
	}
	if invite.Timestamp != classifyTime.UnixMilli() {
		t.Errorf("timestamp = %d, want the processing time %d", invite.Timestamp, classifyTime.UnixMilli())
	}
	if invite.Unsigned == nil || invite.Unsigned.InviteRoomState == nil {
		t.Fatal("stripped state list not attached")
	}
	if len(invite.Unsigned.InviteRoomState) != 0 {
		t.Errorf("stripped state = %v, want empty", invite.Unsigned.InviteRoomState)
	}
}

func TestHandleSyncInviteStrippedState(t *testing.T) {
	engine := newClassifySyncer(t)
	invites := collectEvents(t, engine, event.StateMember)

	// The inviter's own membership event has a different state key, so
	// it lands in the stripped preview rather than being the canonical
	// invite.
	response := &messaging.SyncResponse{
		NextBatch: "T1",
		Rooms: messaging.RoomsSection{
			Invite: map[mxid.RoomID]messaging.InvitedRoom{
				mxid.MustParseRoomID("!r:x"): {
					InviteState: rawEvents(
						`{"type":"m.room.name","state_key":"","sender":"@alice:x","content":{"name":"weft chat"}}`,
						`{"type":"m.room.member","state_key":"@alice:x","sender":"@alice:x","content":{"membership":"join"}}`,
						`{"type":"m.room.member","state_key":"@me:x","sender":"@alice:x","content":{"membership":"invite"},"origin_server_ts":12345}`,
					),
				},
			},
		},
	}

	if err := runHandleSync(t, engine, response); err != nil {
		t.Fatalf("handleSync: %v", err)
	}

	invite := testutil.RequireReceive(t, invites, testTimeout, "canonical invite event")
	if invite.Timestamp != 12345 {
		t.Errorf("timestamp = %d, want the wire value 12345", invite.Timestamp)
	}
	if got, _ := invite.Content["membership"].(string); got != event.MembershipInvite {
		t.Errorf("membership = %q", got)
	}

	stripped := invite.Unsigned.InviteRoomState
	if len(stripped) != 2 {
		t.Fatalf("stripped state count = %d, want 2", len(stripped))
	}
	if stripped[0].Type.Name != "m.room.name" || stripped[1].Type.Name != "m.room.member" {
		t.Errorf("stripped order = %s, %s", stripped[0].Type.Name, stripped[1].Type.Name)
	}
	for _, state := range stripped {
		if state.RoomID != mxid.MustParseRoomID("!r:x") {
			t.Errorf("stripped %s room = %v, want injected !r:x", state.Type.Name, state.RoomID)
		}
	}
}

func TestHandleSyncInviteMissingMembership(t *testing.T) {
	engine := newClassifySyncer(t)

	otkCounts := make(chan messaging.OneTimeKeyCounts, 1)
	engine.AddEventHandler(event.DeviceOTKCount, func(ctx context.Context, payload any) error {
		otkCounts <- payload.(messaging.OneTimeKeyCounts)
		return nil
	}, true)
	joined := collectEvents(t, engine, event.RoomMessage)
	left := collectEvents(t, engine, event.StateMember)

	response := &messaging.SyncResponse{
		NextBatch:      "T1",
		DeviceOTKCount: messaging.OneTimeKeyCounts{SignedCurve25519: 50},
		Rooms: messaging.RoomsSection{
			Join: map[mxid.RoomID]messaging.JoinedRoom{
				mxid.MustParseRoomID("!joined:x"): {
					Timeline: messaging.TimelineSection{
						Events: []json.RawMessage{
							json.RawMessage(`{"type":"m.room.message","sender":"@alice:x","content":{"msgtype":"m.text","body":"hi"}}`),
						},
					},
				},
			},
			// No membership event for @me:x at all.
			Invite: map[mxid.RoomID]messaging.InvitedRoom{
				mxid.MustParseRoomID("!broken:x"): {
					InviteState: rawEvents(`{"type":"m.room.name","state_key":"","content":{"name":"x"}}`),
				},
			},
			// Left rooms classify after invites, so this batch never
			// reaches them.
			Leave: map[mxid.RoomID]messaging.LeftRoom{
				mxid.MustParseRoomID("!left:x"): {
					Timeline: messaging.TimelineSection{
						Events: []json.RawMessage{
							json.RawMessage(`{"type":"m.room.member","state_key":"@me:x","content":{"membership":"leave"}}`),
						},
					},
				},
			},
		},
	}

	err := runHandleSync(t, engine, response)
	if err == nil {
		t.Fatal("handleSync succeeded, want classification error")
	}
	if !strings.Contains(err.Error(), "!broken:x") {
		t.Errorf("error %q does not name the room", err)
	}

	// Sections classified before the failure were dispatched and keep
	// running; the sections after it were skipped.
	counts := testutil.RequireReceive(t, otkCounts, testTimeout, "device OTK event")
	if counts.SignedCurve25519 != 50 {
		t.Errorf("otk counts = %+v", counts)
	}
	testutil.RequireReceive(t, joined, testTimeout, "joined room event before the failure")
	select {
	case evt := <-left:
		t.Errorf("left-room event %s delivered after classification error", evt.Type.Name)
	default:
	}
}

func TestHandleSyncLeftRoom(t *testing.T) {
	engine := newClassifySyncer(t)
	events := collectEvents(t, engine, event.AllEvents)

	roomID := mxid.MustParseRoomID("!left:x")
	response := &messaging.SyncResponse{
		NextBatch: "T1",
		Rooms: messaging.RoomsSection{
			Leave: map[mxid.RoomID]messaging.LeftRoom{
				roomID: {
					Timeline: messaging.TimelineSection{
						Events: []json.RawMessage{
							// No state key: not a membership
							// transition, never delivered.
							json.RawMessage(`{"type":"m.room.message","sender":"@alice:x","content":{"msgtype":"m.text","body":"bye"}}`),
							json.RawMessage(`{"type":"m.room.member","state_key":"@me:x","sender":"@me:x","content":{"membership":"leave"}}`),
						},
					},
				},
			},
		},
	}

	if err := runHandleSync(t, engine, response); err != nil {
		t.Fatalf("handleSync: %v", err)
	}

	evt := testutil.RequireReceive(t, events, testTimeout, "left room membership event")
	if evt.Type.Name != "m.room.member" {
		t.Fatalf("delivered %s, want m.room.member", evt.Type.Name)
	}
	if evt.Source != event.StreamLeft|event.StreamTimeline {
		t.Errorf("source = %v, want left|timeline", evt.Source)
	}
	if evt.RoomID != roomID {
		t.Errorf("room = %v, want %v", evt.RoomID, roomID)
	}

	select {
	case extra := <-events:
		t.Errorf("state-less left-room event %s delivered", extra.Type.Name)
	default:
	}
}

func TestHandleSyncReplyTrimming(t *testing.T) {
	engine := newClassifySyncer(t)
	events := collectEvents(t, engine, event.AllEvents)

	replyBody := "> <@alice:x> original\n\nactual reply"
	content := `{"msgtype":"m.text","body":"> <@alice:x> original\n\nactual reply","m.relates_to":{"m.in_reply_to":{"event_id":"$orig"}}}`

	response := &messaging.SyncResponse{
		NextBatch: "T1",
		Rooms: messaging.RoomsSection{
			Join: map[mxid.RoomID]messaging.JoinedRoom{
				mxid.MustParseRoomID("!room:x"): {
					Timeline: messaging.TimelineSection{
						Events: []json.RawMessage{
							json.RawMessage(`{"type":"m.room.message","sender":"@bob:x","content":` + content + `}`),
							// Same content shape under a state key:
							// state events are never trimmed.
							json.RawMessage(`{"type":"m.room.topic","state_key":"","sender":"@bob:x","content":` + content + `}`),
						},
					},
				},
			},
		},
	}

	if err := runHandleSync(t, engine, response); err != nil {
		t.Fatalf("handleSync: %v", err)
	}

	for range 2 {
		evt := testutil.RequireReceive(t, events, testTimeout, "joined room event")
		body, _ := evt.Content["body"].(string)
		switch evt.Type.Class {
		case event.ClassMessage:
			if body != "actual reply" {
				t.Errorf("message body = %q, want reply fallback stripped", body)
			}
		case event.ClassState:
			if body != replyBody {
				t.Errorf("state body = %q, want unmodified", body)
			}
		default:
			t.Errorf("unexpected class %v", evt.Type.Class)
		}
	}
}

func TestHandleSyncDeviceSections(t *testing.T) {
	engine := newClassifySyncer(t)

	deviceLists := make(chan messaging.DeviceLists, 1)
	engine.AddEventHandler(event.DeviceLists, func(ctx context.Context, payload any) error {
		deviceLists <- payload.(messaging.DeviceLists)
		return nil
	}, true)

	response := &messaging.SyncResponse{
		NextBatch: "T1",
		DeviceLists: messaging.DeviceLists{
			Changed: []mxid.UserID{mxid.MustParseUserID("@alice:x")},
		},
	}

	if err := runHandleSync(t, engine, response); err != nil {
		t.Fatalf("handleSync: %v", err)
	}

	lists := testutil.RequireReceive(t, deviceLists, testTimeout, "device lists event")
	if len(lists.Changed) != 1 || lists.Changed[0] != mxid.MustParseUserID("@alice:x") {
		t.Errorf("device lists = %+v", lists)
	}
}
