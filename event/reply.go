// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"regexp"
	"strings"
)

// htmlFormat is the content "format" value indicating formatted_body
// carries HTML.
const htmlFormat = "org.matrix.custom.html"

var htmlReplyFallback = regexp.MustCompile(`(?s)^<mx-reply>.+?</mx-reply>`)

// TrimReplyFallback strips the quoted-reply fallback from the event's
// content in place: the leading "> " block (plus its trailing blank
// line) from the plain body, and the leading <mx-reply> block from the
// HTML body. Events whose content does not reference a reply relation
// are left untouched.
//
// The engine calls this once per message-class event before delivery;
// other classes are never trimmed.
func (e *Event) TrimReplyFallback() {
	if !hasReplyRelation(e.Content) {
		return
	}
	if body, ok := e.Content["body"].(string); ok {
		e.Content["body"] = trimPlainFallback(body)
	}
	if format, ok := e.Content["format"].(string); ok && format == htmlFormat {
		if formatted, ok := e.Content["formatted_body"].(string); ok {
			e.Content["formatted_body"] = htmlReplyFallback.ReplaceAllString(formatted, "")
		}
	}
}

// hasReplyRelation reports whether content carries
// m.relates_to.m.in_reply_to with a non-empty event_id.
func hasReplyRelation(content map[string]any) bool {
	relates, ok := content["m.relates_to"].(map[string]any)
	if !ok {
		return false
	}
	inReplyTo, ok := relates["m.in_reply_to"].(map[string]any)
	if !ok {
		return false
	}
	eventID, ok := inReplyTo["event_id"].(string)
	return ok && eventID != ""
}

// trimPlainFallback removes the leading "> "-quoted block from a reply
// body. The block must be followed by at least one more line; the
// blank separator line after the block is removed with it.
func trimPlainFallback(body string) string {
	if !strings.HasPrefix(body, "> ") || !strings.Contains(body, "\n") {
		return body
	}
	lines := strings.Split(body, "\n")
	for len(lines) > 0 && strings.HasPrefix(lines[0], "> ") {
		lines = lines[1:]
	}
	if len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	return strings.Join(lines, "\n")
}
