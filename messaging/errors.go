// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"errors"
	"fmt"
)

// MatrixError is a structured error response from the homeserver.
// Callers use errors.As to extract it:
//
//	var matrixErr *messaging.MatrixError
//	if errors.As(err, &matrixErr) {
//	    if matrixErr.Code == messaging.ErrCodeForbidden { ... }
//	}
type MatrixError struct {
	// Code is the protocol error code (e.g., "M_FORBIDDEN").
	Code string `json:"errcode"`
	// Message is the human-readable description from the server.
	Message string `json:"error"`
	// StatusCode is the HTTP status of the response.
	StatusCode int `json:"-"`
	// RetryAfterMS is the suggested wait before retrying, sent with
	// M_LIMIT_EXCEEDED responses. Zero when the server sent none.
	RetryAfterMS int64 `json:"retry_after_ms,omitempty"`
}

func (e *MatrixError) Error() string {
	return fmt.Sprintf("matrix: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Standard protocol error codes.
const (
	ErrCodeForbidden     = "M_FORBIDDEN"
	ErrCodeUnknownToken  = "M_UNKNOWN_TOKEN"
	ErrCodeNotFound      = "M_NOT_FOUND"
	ErrCodeLimitExceeded = "M_LIMIT_EXCEEDED"
	ErrCodeUnrecognized  = "M_UNRECOGNIZED"
	ErrCodeUnknown       = "M_UNKNOWN"
	ErrCodeInvalidParam  = "M_INVALID_PARAM"
	ErrCodeMissingParam  = "M_MISSING_PARAM"
	ErrCodeRoomInUse     = "M_ROOM_IN_USE"
)

// IsMatrixError reports whether err is a *MatrixError with the given
// error code.
func IsMatrixError(err error, code string) bool {
	var matrixErr *MatrixError
	if errors.As(err, &matrixErr) {
		return matrixErr.Code == code
	}
	return false
}

// IsUnknownToken reports whether err means the access token has been
// invalidated. This is the one protocol error the sync engine treats
// as fatal: retrying cannot succeed without new credentials.
func IsUnknownToken(err error) bool {
	return IsMatrixError(err, ErrCodeUnknownToken)
}
