// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package mxid

import "fmt"

// RoomAlias is a validated Matrix room alias (e.g., "#lobby:example.org").
//
// Aliases are human-readable room names that resolve to opaque RoomIDs
// through the directory API. They always start with '#' and contain a
// ':' separating the localpart from the server name.
//
// RoomAlias is an immutable value type. The zero value is not valid;
// use IsZero to check.
type RoomAlias struct {
	alias string
}

// ParseRoomAlias validates and wraps a raw Matrix room alias string.
// Returns an error if the string is empty, doesn't start with '#',
// has an empty localpart, or is missing the ':server' suffix.
func ParseRoomAlias(raw string) (RoomAlias, error) {
	_, _, err := splitSigil(raw, '#', "room alias")
	if err != nil {
		return RoomAlias{}, err
	}
	return RoomAlias{alias: raw}, nil
}

// MustParseRoomAlias is like ParseRoomAlias but panics on error. Use
// in tests and static initialization where the input is known-valid.
func MustParseRoomAlias(raw string) RoomAlias {
	a, err := ParseRoomAlias(raw)
	if err != nil {
		panic(fmt.Sprintf("mxid.MustParseRoomAlias(%q): %v", raw, err))
	}
	return a
}

// String returns the full alias string (e.g., "#lobby:example.org").
func (a RoomAlias) String() string { return a.alias }

// IsZero reports whether the RoomAlias is the zero value (uninitialized).
func (a RoomAlias) IsZero() bool { return a.alias == "" }

// Localpart returns the alias localpart without the '#' prefix or
// ':server' suffix. Empty for the zero value.
func (a RoomAlias) Localpart() string {
	if a.alias == "" {
		return ""
	}
	localpart, _, _ := splitSigil(a.alias, '#', "room alias")
	return localpart
}

// Server returns the server name from the alias. Empty for the zero
// value.
func (a RoomAlias) Server() string {
	if a.alias == "" {
		return ""
	}
	_, server, _ := splitSigil(a.alias, '#', "room alias")
	return server
}

// MarshalText implements encoding.TextMarshaler.
func (a RoomAlias) MarshalText() ([]byte, error) {
	if a.alias == "" {
		return nil, nil
	}
	return []byte(a.alias), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Validates the
// alias format. An empty input produces the zero value.
func (a *RoomAlias) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*a = RoomAlias{}
		return nil
	}
	parsed, err := ParseRoomAlias(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
