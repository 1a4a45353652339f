// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for Weft packages.
//
// [RequireReceive], [RequireSend], and [RequireClosed] encapsulate the
// timeout safety valve pattern (select with a time.After fallback) so
// that individual tests do not need direct time.After calls. They are
// the only place in the test suite that waits on real wall-clock time;
// everything else drives a fake clock.
//
// [UniqueID] generates monotonically increasing identifiers so test
// fixtures (cursors, event IDs, message bodies) are distinguishable
// without involving the clock.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
