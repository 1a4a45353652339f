// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the time operations the sync engine performs.
// Production code injects Real(); tests inject Fake() and drive time
// explicitly.
//
// The surface is deliberately small: the engine reads the current time
// (invite timestamps), waits on a channel (backoff delays raced against
// context cancellation), and occasionally sleeps. Code that needs
// tickers or timer callbacks should grow this interface rather than
// reaching for the time package directly.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time after
	// duration d elapses. Equivalent to time.After. If d <= 0, the
	// channel receives immediately.
	After(d time.Duration) <-chan time.Time

	// Sleep pauses the current goroutine for at least duration d.
	// Equivalent to time.Sleep.
	Sleep(d time.Duration)
}
