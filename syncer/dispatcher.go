// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import "reflect"

// Dispatcher is a plugin that layers semantic events on top of the
// engine: it installs handlers in Register (via AddEventHandler) and
// must remove every one of them in Unregister. The engine guarantees
// Register and Unregister are called exactly once each, in that order,
// per instance.
//
// A dispatcher typically synthesizes higher-level notifications (the
// membership members of event.InternalType) from the classified room
// events the engine delivers, emitting them with Syncer.Dispatch.
type Dispatcher interface {
	Register()
	Unregister()
}

// AddDispatcher activates a dispatcher of concrete type D on the
// engine, constructing it with construct and calling its Register. A
// no-op if a dispatcher of type D is already active: at most one
// instance per type ever lives on an engine.
//
// Not safe to call concurrently with a running loop.
func AddDispatcher[D Dispatcher](s *Syncer, construct func(*Syncer) D) {
	key := reflect.TypeFor[D]()
	if _, active := s.dispatchers[key]; active {
		return
	}
	s.logger.Debug("enabling dispatcher", "dispatcher", key.String())
	dispatcher := construct(s)
	s.dispatchers[key] = dispatcher
	dispatcher.Register()
}

// RemoveDispatcher deactivates the dispatcher of type D, calling its
// Unregister and discarding the instance. A no-op if none is active.
//
// Not safe to call concurrently with a running loop.
func RemoveDispatcher[D Dispatcher](s *Syncer) {
	key := reflect.TypeFor[D]()
	dispatcher, active := s.dispatchers[key]
	if !active {
		return
	}
	s.logger.Debug("disabling dispatcher", "dispatcher", key.String())
	dispatcher.Unregister()
	delete(s.dispatchers, key)
}
