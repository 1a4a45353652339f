// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"time"

	"github.com/weftchat/weft/messaging"
)

// Payloads delivered to handlers registered under the lifecycle
// members of event.InternalType. The device sections
// (event.DeviceLists, event.DeviceOTKCount) carry the typed wire
// sections messaging.DeviceLists and messaging.OneTimeKeyCounts
// directly.

// SyncStarted is the payload of event.SyncStarted, emitted once per
// run after the cursor is loaded and before the first poll.
type SyncStarted struct{}

// SyncErrored is the payload of event.SyncErrored, emitted when a poll
// fails with a transient error.
type SyncErrored struct {
	// Err is the poll failure.
	Err error

	// RetryIn is the backoff delay the loop sleeps before retrying.
	RetryIn time.Duration
}

// SyncSuccessful is the payload of event.SyncSuccessful, emitted for
// every accepted response after the cursor is persisted and before the
// batch is dispatched. It fires even when a suppression flag skips the
// batch.
type SyncSuccessful struct {
	// Response is the full typed sync response.
	Response *messaging.SyncResponse

	// IsInitial reports that the poll was made with an empty cursor.
	IsInitial bool

	// IsFirst reports that this is the run's first successful poll,
	// regardless of cursor state.
	IsFirst bool
}

// SyncStopped is the payload of event.SyncStopped, emitted when a run
// ends.
type SyncStopped struct {
	// Err is the fatal error that ended the run, or nil for a
	// requested stop.
	Err error
}
