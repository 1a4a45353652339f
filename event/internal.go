// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package event

// InternalType identifies an engine-generated event. Internal events
// never appear on the wire and are dispatched only to handlers
// registered under the exact type, never to AllEvents handlers.
//
// The membership members (Join through Unban) are reserved for layers
// that turn raw m.room.member transitions into semantic notifications.
// The engine declares them so such layers share the registration API,
// but never produces them itself.
type InternalType int

const (
	// SyncStarted fires once per sync run, after the cursor is loaded
	// and before the first poll.
	SyncStarted InternalType = iota + 1

	// SyncErrored fires when a poll fails with a transient error. The
	// payload carries the error and the backoff delay about to be
	// slept.
	SyncErrored

	// SyncSuccessful fires after every accepted sync response, once
	// the new cursor is persisted and before the batch is dispatched.
	SyncSuccessful

	// SyncStopped fires when the sync run ends, with the fatal error
	// that ended it or with no error for a requested stop.
	SyncStopped

	// Membership placeholders, produced by external dispatcher layers.
	Join
	ProfileChange
	Invite
	RejectInvite
	Disinvite
	Leave
	Kick
	Ban
	Unban

	// DeviceLists fires for the device-list delta of every sync
	// response.
	DeviceLists

	// DeviceOTKCount fires for the one-time-key counts of every sync
	// response.
	DeviceOTKCount
)

// String returns the identifier used in log output.
func (t InternalType) String() string {
	switch t {
	case SyncStarted:
		return "sync_started"
	case SyncErrored:
		return "sync_errored"
	case SyncSuccessful:
		return "sync_successful"
	case SyncStopped:
		return "sync_stopped"
	case Join:
		return "join"
	case ProfileChange:
		return "profile_change"
	case Invite:
		return "invite"
	case RejectInvite:
		return "reject_invite"
	case Disinvite:
		return "disinvite"
	case Leave:
		return "leave"
	case Kick:
		return "kick"
	case Ban:
		return "ban"
	case Unban:
		return "unban"
	case DeviceLists:
		return "device_lists"
	case DeviceOTKCount:
		return "device_otk_count"
	default:
		return "invalid"
	}
}

// Valid reports whether the value is a declared internal event type.
func (t InternalType) Valid() bool {
	return t >= SyncStarted && t <= DeviceOTKCount
}

func (InternalType) isKey() {}
