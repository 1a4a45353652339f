// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/weftchat/weft/event"
	"github.com/weftchat/weft/messaging"
)

// Backoff bounds for transient poll failures: 5s doubling to 320s,
// reset to the floor after one success.
const (
	backoffFloor   = 5 * time.Second
	backoffCeiling = 320 * time.Second
)

// Start launches the sync loop. If a run is already active it is
// cancelled and waited out first. The filter may be a
// messaging.FilterID to use as-is, a *messaging.Filter to upload
// before the first poll, or nil to sync unfiltered.
//
// The returned channel closes when the run ends, after the
// event.SyncStopped internal event has been dispatched. Cancelling ctx
// is a clean stop, equivalent to Stop.
func (s *Syncer) Start(ctx context.Context, filter messaging.SyncFilter) <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelRun != nil {
		s.cancelRun()
		<-s.runDone
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancelRun = cancel
	s.runDone = done
	go s.run(runCtx, filter, done)
	return done
}

// Stop cancels the active run and waits for it to wind down, including
// the event.SyncStopped dispatch. A no-op if no run is active.
// Handler invocations already scheduled are not cancelled.
func (s *Syncer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelRun == nil {
		return
	}
	s.cancelRun()
	<-s.runDone
	s.cancelRun = nil
	s.runDone = nil
}

// run executes one sync run and reports how it ended through the
// event.SyncStopped internal event: a cancelled context is a clean
// stop, anything else is fatal and carries the error.
func (s *Syncer) run(ctx context.Context, filter messaging.SyncFilter, done chan struct{}) {
	defer close(done)

	err := s.sync(ctx, filter)

	// The run context is dead by now; the stopped event and its
	// wait-flagged handlers must still complete.
	stoppedCtx := context.WithoutCancel(ctx)
	if err == nil || errors.Is(err, context.Canceled) {
		s.logger.Debug("syncing stopped")
		s.runInternal(stoppedCtx, event.SyncStopped, SyncStopped{})
		return
	}
	s.logger.Error("fatal error while syncing", "error", err)
	s.runInternal(stoppedCtx, event.SyncStopped, SyncStopped{Err: err})
}

// sync is the poll loop body: resolve the filter, load the cursor,
// then poll until a fatal error or cancellation. Only cancellation and
// an invalidated access token are fatal; every other poll failure
// backs off and retries with the same cursor.
func (s *Syncer) sync(ctx context.Context, filter messaging.SyncFilter) error {
	var filterID messaging.FilterID
	switch f := filter.(type) {
	case nil:
	case messaging.FilterID:
		filterID = f
	case *messaging.Filter:
		created, err := s.transport.CreateFilter(ctx, f)
		if err != nil {
			return fmt.Errorf("creating sync filter: %w", err)
		}
		filterID = created
		s.logger.Debug("sync filter created", "filter_id", string(filterID))
	}

	nextBatch, err := s.store.NextBatch(ctx)
	if err != nil {
		return fmt.Errorf("loading sync cursor: %w", err)
	}

	s.logger.Debug("starting syncing", "since", nextBatch)
	if err := s.runInternal(ctx, event.SyncStarted, SyncStarted{}); err != nil {
		return err
	}

	backoff := backoffFloor
	isFirst := true
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		response, err := s.transport.Sync(ctx, messaging.SyncOptions{
			Since:       nextBatch,
			Timeout:     int(s.pollTimeout.Milliseconds()),
			SetTimeout:  true,
			Filter:      string(filterID),
			SetPresence: s.presence,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if messaging.IsUnknownToken(err) {
				return err
			}
			s.logger.Error("sync request errored",
				"error", err,
				"retry_in", backoff,
			)
			if err := s.runInternal(ctx, event.SyncErrored, SyncErrored{Err: err, RetryIn: backoff}); err != nil {
				return err
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-s.clk.After(backoff):
			}
			if backoff < backoffCeiling {
				backoff *= 2
			}
			continue
		}
		backoff = backoffFloor

		// The cursor is persisted before any batch handler runs. The
		// protocol guarantees it resumes exactly after this response,
		// so an event not processed before the next persist is gone.
		isInitial := nextBatch == ""
		nextBatch = response.NextBatch
		if err := s.store.PutNextBatch(ctx, nextBatch); err != nil {
			return fmt.Errorf("persisting sync cursor: %w", err)
		}

		successful := SyncSuccessful{
			Response:  response,
			IsInitial: isInitial,
			IsFirst:   isFirst,
		}
		if err := s.runInternal(ctx, event.SyncSuccessful, successful); err != nil {
			return err
		}

		skip := (s.ignoreFirstSync && isFirst) || (s.ignoreInitialSync && isInitial)
		isFirst = false
		if skip {
			continue
		}

		waits, err := s.handleSync(ctx, response)
		if err != nil {
			// The cursor is already persisted; dispatches scheduled
			// before the failure keep running, un-awaited.
			s.logger.Error("sync handling errored", "error", err)
			continue
		}
		if err := s.awaitAll(ctx, waits); err != nil {
			return err
		}
	}
}
