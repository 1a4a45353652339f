// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/weftchat/weft/event"
	"github.com/weftchat/weft/messaging"
	"github.com/weftchat/weft/syncer"
)

// autoJoin is a dispatcher plugin that accepts every room invite the
// account receives. It watches the canonical invite events the engine
// reconstructs from invited-room sections and joins the room through
// the session.
type autoJoin struct {
	engine  *syncer.Syncer
	session *messaging.Session
}

func newAutoJoin(session *messaging.Session) func(*syncer.Syncer) *autoJoin {
	return func(engine *syncer.Syncer) *autoJoin {
		return &autoJoin{engine: engine, session: session}
	}
}

// Register installs the membership handler. The wait flag is off:
// joining a room round-trips to the homeserver and must not gate the
// next poll.
func (a *autoJoin) Register() {
	a.engine.AddEventHandler(event.StateMember, a.handleMember, false)
}

// Unregister removes the membership handler.
func (a *autoJoin) Unregister() {
	a.engine.RemoveEventHandler(event.StateMember, a.handleMember)
}

func (a *autoJoin) handleMember(ctx context.Context, payload any) error {
	evt, ok := payload.(*event.Event)
	if !ok || !evt.Source.Has(event.StreamInvited) {
		return nil
	}
	if evt.StateKey == nil || *evt.StateKey != a.engine.UserID().String() {
		return nil
	}
	if membership, _ := evt.Content["membership"].(string); membership != event.MembershipInvite {
		return nil
	}

	if _, err := a.session.JoinRoom(ctx, evt.RoomID); err != nil {
		return fmt.Errorf("joining %s: %w", evt.RoomID, err)
	}
	return nil
}
