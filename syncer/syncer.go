// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/weftchat/weft/event"
	"github.com/weftchat/weft/lib/clock"
	"github.com/weftchat/weft/lib/mxid"
	"github.com/weftchat/weft/messaging"
)

// Transport is the homeserver API slice the engine consumes: one
// long-poll sync request and one filter upload. *messaging.Session
// satisfies it.
type Transport interface {
	Sync(ctx context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, error)
	CreateFilter(ctx context.Context, filter *messaging.Filter) (messaging.FilterID, error)
}

// SyncStore persists the sync cursor. NextBatch returns the stored
// token, or "" when none has been stored yet. Store failures are fatal
// to a sync run: an engine that cannot persist its cursor must not
// keep acknowledging batches.
type SyncStore interface {
	NextBatch(ctx context.Context) (string, error)
	PutNextBatch(ctx context.Context, token string) error
}

// EventCodec decodes raw wire objects into typed events. The default
// is event.JSONCodec.
type EventCodec interface {
	DecodeEvent(raw json.RawMessage) (*event.Event, error)
	DecodeStripped(raw json.RawMessage) (*event.StrippedState, error)
}

// Handler processes one delivered event. For wire events the payload
// is *event.Event; for internal events it is the payload type
// documented on the event.InternalType constant (SyncStarted,
// SyncErrored, and so on). A returned error is logged and discarded;
// it never affects other handlers or the loop.
//
// The context is never cancelled by the engine: handlers started
// before a stop keep running to completion.
type Handler func(ctx context.Context, payload any) error

// Config holds the parameters for creating a Syncer. Transport and
// UserID are required; everything else has a default.
type Config struct {
	// Transport performs the sync and filter-upload requests.
	Transport Transport

	// UserID is the account the engine syncs for. Invite
	// reconstruction locates the membership event keyed by this ID.
	UserID mxid.UserID

	// Store persists the sync cursor. Nil defaults to a volatile
	// MemoryStore, which re-runs the initial sync on every restart.
	Store SyncStore

	// Codec decodes raw events. Nil defaults to event.JSONCodec.
	Codec EventCodec

	// Clock supplies time for backoff delays and invite timestamp
	// defaulting. Nil defaults to clock.Real().
	Clock clock.Clock

	// Logger receives engine and handler-failure messages. Nil
	// defaults to slog.Default().
	Logger *slog.Logger

	// PollTimeout is the long-poll timeout for each sync request.
	// Zero defaults to 30 seconds.
	PollTimeout time.Duration

	// Presence is reported to the server on every poll. Empty
	// defaults to messaging.PresenceOnline.
	Presence messaging.Presence

	// IgnoreFirstSync skips dispatch for the first batch of every
	// run, regardless of cursor state. The cursor still advances and
	// the sync-successful internal event still fires.
	IgnoreFirstSync bool

	// IgnoreInitialSync skips dispatch for any batch requested with
	// an empty cursor (a full initial snapshot). The cursor still
	// advances and the sync-successful internal event still fires.
	IgnoreInitialSync bool
}

// Syncer is the synchronization engine. One instance owns one sync
// loop, one handler registry, and one dispatcher table.
//
// Start, Stop, and Dispatch are safe for concurrent use.
// AddEventHandler, RemoveEventHandler, and the dispatcher operations
// are not safe to call concurrently with a running loop; see the
// package documentation.
type Syncer struct {
	transport Transport
	store     SyncStore
	codec     EventCodec
	userID    mxid.UserID
	clk       clock.Clock
	logger    *slog.Logger

	pollTimeout       time.Duration
	presence          messaging.Presence
	ignoreFirstSync   bool
	ignoreInitialSync bool

	registry    *registry
	dispatchers map[reflect.Type]Dispatcher

	mu        sync.Mutex
	cancelRun context.CancelFunc
	runDone   chan struct{}
}

// New creates a Syncer from the given configuration.
func New(cfg Config) (*Syncer, error) {
	if cfg.Transport == nil {
		return nil, fmt.Errorf("syncer: Transport is required")
	}
	if cfg.UserID.IsZero() {
		return nil, fmt.Errorf("syncer: UserID is required")
	}

	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	codec := cfg.Codec
	if codec == nil {
		codec = event.JSONCodec{}
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pollTimeout := cfg.PollTimeout
	if pollTimeout == 0 {
		pollTimeout = 30 * time.Second
	}
	presence := cfg.Presence
	if presence == "" {
		presence = messaging.PresenceOnline
	}

	return &Syncer{
		transport:         cfg.Transport,
		store:             store,
		codec:             codec,
		userID:            cfg.UserID,
		clk:               clk,
		logger:            logger,
		pollTimeout:       pollTimeout,
		presence:          presence,
		ignoreFirstSync:   cfg.IgnoreFirstSync,
		ignoreInitialSync: cfg.IgnoreInitialSync,
		registry:          newRegistry(logger),
		dispatchers:       make(map[reflect.Type]Dispatcher),
	}, nil
}

// UserID returns the account the engine syncs for.
func (s *Syncer) UserID() mxid.UserID {
	return s.userID
}

// AddEventHandler registers fn for events matching key. Pass
// event.AllEvents to run fn for every delivered wire event (internal
// events never match the wildcard). With waitSync set, the loop waits
// for fn to finish before the next poll; without it, fn runs fully in
// the background.
//
// The same function may be registered any number of times, including
// under both wait flags.
func (s *Syncer) AddEventHandler(key event.Key, fn Handler, waitSync bool) error {
	return s.registry.add(key, fn, waitSync)
}

// RemoveEventHandler removes fn from key's handler list under both
// wait-flag values: one call clears a handler deliberately registered
// twice with different flags. Removing a handler that is not
// registered is not an error.
//
// Functions are matched by code pointer, so two closures over the same
// function body share an identity.
func (s *Syncer) RemoveEventHandler(key event.Key, fn Handler) error {
	return s.registry.remove(key, fn)
}

// Dispatch pushes payload through the handler registry under key,
// outside of any sync batch. Dispatcher plugins use this to emit the
// semantic events they synthesize. With includeGlobal set, AllEvents
// handlers run first, as they do for wire events.
//
// Every matching handler is started immediately; the returned channels
// close when the wait-flagged invocations finish, for callers that
// need the reference loop's gating behavior.
func (s *Syncer) Dispatch(ctx context.Context, key event.Key, payload any, includeGlobal bool) ([]<-chan struct{}, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	return s.registry.dispatch(ctx, key, payload, includeGlobal), nil
}

// dispatchEvent resolves the event's class from its state key and
// stream origin, trims reply fallback from message-class content,
// stamps the origin, and schedules every matching handler. Returns the
// wait-flagged completion channels.
func (s *Syncer) dispatchEvent(ctx context.Context, evt *event.Event, source event.Stream) []<-chan struct{} {
	evt.Type.Class = event.ResolveClass(evt.StateKey, source)
	if evt.Type.Class == event.ClassMessage {
		evt.TrimReplyFallback()
	}
	evt.Source = source
	return s.registry.dispatch(ctx, evt.Type, evt, true)
}

// dispatchInternal schedules handlers for an engine lifecycle event.
// Internal events never reach AllEvents handlers.
func (s *Syncer) dispatchInternal(ctx context.Context, key event.InternalType, payload any) []<-chan struct{} {
	return s.registry.dispatch(ctx, key, payload, false)
}

// runInternal dispatches an internal event and waits for its
// wait-flagged handlers, racing the wait against ctx.
func (s *Syncer) runInternal(ctx context.Context, key event.InternalType, payload any) error {
	return s.awaitAll(ctx, s.dispatchInternal(ctx, key, payload))
}

// awaitAll waits for every channel to close. Returns ctx.Err() if the
// context is cancelled first; the remaining handlers keep running.
func (s *Syncer) awaitAll(ctx context.Context, waits []<-chan struct{}) error {
	for _, wait := range waits {
		select {
		case <-wait:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
