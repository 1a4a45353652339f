// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"encoding/json"
	"fmt"
)

// JSONCodec decodes raw wire objects into typed events with
// encoding/json. It is stateless; the zero value is ready to use.
type JSONCodec struct{}

// DecodeEvent decodes one raw event object. The decoded type has
// ClassUnknown; absent event_id and origin_server_ts fields leave
// their zero values in place for the engine to default.
func (JSONCodec) DecodeEvent(raw json.RawMessage) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("decoding event: %w", err)
	}
	if ev.Type.Name == "" {
		return nil, fmt.Errorf("event has no type")
	}
	return &ev, nil
}

// DecodeStripped decodes one raw stripped-state object.
func (JSONCodec) DecodeStripped(raw json.RawMessage) (*StrippedState, error) {
	var stripped StrippedState
	if err := json.Unmarshal(raw, &stripped); err != nil {
		return nil, fmt.Errorf("decoding stripped state: %w", err)
	}
	if stripped.Type.Name == "" {
		return nil, fmt.Errorf("stripped state event has no type")
	}
	return &stripped, nil
}
