// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// Code that waits or reads the current time accepts a Clock instead of
// calling time.Now, time.After, or time.Sleep directly. Production
// wiring uses Real(); tests use Fake(), which advances only when told
// to.
//
// The sync engine's retry backoff is the main consumer: its tests
// verify the exact delay sequence by registering the pending wait with
// WaitForTimers and then firing it with Advance, with no real time
// passing.
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	// ... wire c into the component under test, start it ...
//	c.WaitForTimers(1)         // component is sleeping out a delay
//	c.Advance(5 * time.Second) // fire it deterministically
package clock
