// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package event_test

import (
	"testing"

	"github.com/weftchat/weft/event"
)

func TestStreamHas(t *testing.T) {
	source := event.StreamJoined | event.StreamTimeline

	if !source.Has(event.StreamJoined) {
		t.Error("Has(StreamJoined) = false")
	}
	if !source.Has(event.StreamTimeline) {
		t.Error("Has(StreamTimeline) = false")
	}
	if !source.Has(event.StreamJoined | event.StreamTimeline) {
		t.Error("Has(joined|timeline) = false for exact value")
	}
	if source.Has(event.StreamState) {
		t.Error("Has(StreamState) = true")
	}
	if source.Has(event.StreamJoined | event.StreamState) {
		t.Error("Has(joined|state) = true with state bit missing")
	}
}

func TestStreamString(t *testing.T) {
	cases := []struct {
		stream event.Stream
		want   string
	}{
		{event.StreamInternal, "internal"},
		{event.StreamJoined | event.StreamTimeline, "joined|timeline"},
		{event.StreamInvited | event.StreamState, "invited|state"},
		{event.StreamLeft | event.StreamTimeline, "left|timeline"},
		{event.StreamAccountData, "account_data"},
		{event.Stream(0), "none"},
	}
	for _, c := range cases {
		if got := c.stream.String(); got != c.want {
			t.Errorf("Stream(%b).String() = %q, want %q", uint16(c.stream), got, c.want)
		}
	}
}
