// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/weftchat/weft/event"
	"github.com/weftchat/weft/lib/mxid"
)

// Session is an authenticated homeserver session: a Client plus an
// access token. Sessions are lightweight and safe for concurrent use.
type Session struct {
	client      *Client
	accessToken string
	userID      mxid.UserID
	deviceID    string

	// transactionCounter generates unique transaction IDs for
	// idempotent sends.
	transactionCounter atomic.Int64
}

// UserID returns the fully-qualified user ID the session belongs to.
func (s *Session) UserID() mxid.UserID {
	return s.userID
}

// AccessToken returns the access token, for callers that persist it
// for later SessionFromToken reuse.
func (s *Session) AccessToken() string {
	return s.accessToken
}

// DeviceID returns the device ID, or empty for sessions created from
// a bare token.
func (s *Session) DeviceID() string {
	return s.deviceID
}

// WhoAmI validates the access token and returns the user ID it
// belongs to. Useful for checking whether a stored token is still
// valid before starting a sync run.
func (s *Session) WhoAmI(ctx context.Context) (mxid.UserID, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, "/_matrix/client/v3/account/whoami", s.accessToken, nil)
	if err != nil {
		return mxid.UserID{}, fmt.Errorf("messaging: whoami failed: %w", err)
	}

	var response WhoAmIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return mxid.UserID{}, fmt.Errorf("messaging: failed to parse whoami response: %w", err)
	}
	return response.UserID, nil
}

// Sync performs one call to the /sync endpoint. For an initial sync,
// leave options.Since empty. For long-polling, set options.Timeout to
// the desired wait in milliseconds and options.SetTimeout to true.
func (s *Session) Sync(ctx context.Context, options SyncOptions) (*SyncResponse, error) {
	query := url.Values{}
	if options.Since != "" {
		query.Set("since", options.Since)
	}
	if options.SetTimeout {
		query.Set("timeout", strconv.Itoa(options.Timeout))
	}
	if options.Filter != "" {
		query.Set("filter", options.Filter)
	}
	if options.FullState {
		query.Set("full_state", "true")
	}
	if options.SetPresence != "" {
		query.Set("set_presence", string(options.SetPresence))
	}

	body, err := s.client.doRequest(ctx, http.MethodGet, "/_matrix/client/v3/sync", s.accessToken, nil, query)
	if err != nil {
		return nil, fmt.Errorf("messaging: sync failed: %w", err)
	}

	var response SyncResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse sync response: %w", err)
	}
	return &response, nil
}

// CreateFilter uploads a filter definition and returns the server-side
// ID assigned to it. The ID is scoped to the session's user and can be
// reused across sync runs.
func (s *Session) CreateFilter(ctx context.Context, filter *Filter) (FilterID, error) {
	path := "/_matrix/client/v3/user/" + url.PathEscape(s.userID.String()) + "/filter"
	body, err := s.client.doRequest(ctx, http.MethodPost, path, s.accessToken, filter)
	if err != nil {
		return "", fmt.Errorf("messaging: create filter failed: %w", err)
	}

	var response struct {
		FilterID FilterID `json:"filter_id"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("messaging: failed to parse filter response: %w", err)
	}
	return response.FilterID, nil
}

// JoinRoom joins a room by ID and returns the canonical room ID.
func (s *Session) JoinRoom(ctx context.Context, roomID mxid.RoomID) (mxid.RoomID, error) {
	path := "/_matrix/client/v3/join/" + url.PathEscape(roomID.String())
	body, err := s.client.doRequest(ctx, http.MethodPost, path, s.accessToken, struct{}{})
	if err != nil {
		return mxid.RoomID{}, fmt.Errorf("messaging: join room %s failed: %w", roomID, err)
	}

	var response struct {
		RoomID mxid.RoomID `json:"room_id"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return mxid.RoomID{}, fmt.Errorf("messaging: failed to parse join response: %w", err)
	}
	return response.RoomID, nil
}

// LeaveRoom leaves a room by ID.
func (s *Session) LeaveRoom(ctx context.Context, roomID mxid.RoomID) error {
	path := fmt.Sprintf("/_matrix/client/v3/rooms/%s/leave", url.PathEscape(roomID.String()))
	_, err := s.client.doRequest(ctx, http.MethodPost, path, s.accessToken, struct{}{})
	if err != nil {
		return fmt.Errorf("messaging: leave room %s failed: %w", roomID, err)
	}
	return nil
}

// SendMessage sends an m.room.message event to a room and returns the
// event ID.
func (s *Session) SendMessage(ctx context.Context, roomID mxid.RoomID, content MessageContent) (mxid.EventID, error) {
	return s.SendEvent(ctx, roomID, event.RoomMessage, content)
}

// SendEvent sends an event of any type to a room, using the
// idempotent PUT with a transaction ID. Returns the event ID.
func (s *Session) SendEvent(ctx context.Context, roomID mxid.RoomID, eventType event.Type, content any) (mxid.EventID, error) {
	transactionID := s.nextTransactionID()
	path := fmt.Sprintf("/_matrix/client/v3/rooms/%s/send/%s/%s",
		url.PathEscape(roomID.String()),
		url.PathEscape(eventType.Name),
		url.PathEscape(transactionID),
	)

	body, err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, content)
	if err != nil {
		return mxid.EventID{}, fmt.Errorf("messaging: send %s to %s failed: %w", eventType, roomID, err)
	}

	var response SendEventResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return mxid.EventID{}, fmt.Errorf("messaging: failed to parse send response: %w", err)
	}
	return response.EventID, nil
}

// SendStateEvent sends a state event to a room. Returns the event ID.
func (s *Session) SendStateEvent(ctx context.Context, roomID mxid.RoomID, eventType event.Type, stateKey string, content any) (mxid.EventID, error) {
	path := fmt.Sprintf("/_matrix/client/v3/rooms/%s/state/%s/%s",
		url.PathEscape(roomID.String()),
		url.PathEscape(eventType.Name),
		url.PathEscape(stateKey),
	)

	body, err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, content)
	if err != nil {
		return mxid.EventID{}, fmt.Errorf("messaging: send state %s to %s failed: %w", eventType, roomID, err)
	}

	var response SendEventResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return mxid.EventID{}, fmt.Errorf("messaging: failed to parse send state response: %w", err)
	}
	return response.EventID, nil
}

// ResolveAlias resolves a room alias (e.g., "#weft:example.org") to a
// room ID.
func (s *Session) ResolveAlias(ctx context.Context, alias mxid.RoomAlias) (mxid.RoomID, error) {
	path := "/_matrix/client/v3/directory/room/" + url.PathEscape(alias.String())
	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil)
	if err != nil {
		return mxid.RoomID{}, fmt.Errorf("messaging: resolve alias %s failed: %w", alias, err)
	}

	var response ResolveAliasResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return mxid.RoomID{}, fmt.Errorf("messaging: failed to parse resolve alias response: %w", err)
	}
	return response.RoomID, nil
}

// nextTransactionID generates a unique transaction ID for idempotent
// event sending. Format: "weft-<timestamp_ms>-<counter>", unique
// across restarts.
func (s *Session) nextTransactionID() string {
	counter := s.transactionCounter.Add(1)
	return fmt.Sprintf("weft-%d-%d", time.Now().UnixMilli(), counter)
}
