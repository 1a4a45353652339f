// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package mxid

import (
	"fmt"
	"strings"
)

// splitSigil extracts the localpart and server from an identifier of
// the form <sigil>localpart:server. The localpart may itself contain
// colons only in identifiers where the grammar forbids it anyway, so
// the first ':' after the sigil is the separator.
func splitSigil(raw string, sigil byte, kind string) (localpart, server string, err error) {
	if len(raw) < 2 || raw[0] != sigil {
		return "", "", fmt.Errorf("invalid %s %q: must start with %q", kind, raw, string(sigil))
	}
	colon := strings.IndexByte(raw[1:], ':')
	if colon < 0 {
		return "", "", fmt.Errorf("invalid %s %q: missing ':server' suffix", kind, raw)
	}
	if colon == 0 {
		return "", "", fmt.Errorf("invalid %s %q: empty localpart", kind, raw)
	}
	localpart = raw[1 : 1+colon]
	server = raw[1+colon+1:]
	if server == "" {
		return "", "", fmt.Errorf("invalid %s %q: empty server name", kind, raw)
	}
	return localpart, server, nil
}
