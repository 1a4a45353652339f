// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package event

// Key is the union of identifiers accepted by the handler registration
// API: a wire Type or an engine InternalType. The interface is sealed;
// no other implementation exists.
//
// Key values are comparable and safe to use as map keys.
type Key interface {
	// String returns the identifier used in log output.
	String() string

	// Valid reports whether the value identifies a usable
	// registration slot. The zero Type and the zero InternalType are
	// not valid.
	Valid() bool

	isKey()
}
