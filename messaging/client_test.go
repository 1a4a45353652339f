// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/weftchat/weft/lib/mxid"
)

func TestNewClient(t *testing.T) {
	t.Run("valid URL", func(t *testing.T) {
		client, err := NewClient(ClientConfig{HomeserverURL: "http://localhost:8008"})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		if client == nil {
			t.Fatal("NewClient returned nil")
		}
	})

	t.Run("trailing slash stripped", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if request.URL.Path != "/_matrix/client/v3/login" {
				t.Errorf("path = %s, want /_matrix/client/v3/login", request.URL.Path)
			}
			writer.Header().Set("Content-Type", "application/json")
			json.NewEncoder(writer).Encode(AuthResponse{
				UserID:      mxid.MustParseUserID("@alice:example.org"),
				AccessToken: "tok",
			})
		}))
		defer server.Close()

		client, err := NewClient(ClientConfig{HomeserverURL: server.URL + "/"})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}
		if _, err := client.Login(context.Background(), "alice", "pw"); err != nil {
			t.Fatalf("Login failed: %v", err)
		}
	})

	t.Run("empty URL", func(t *testing.T) {
		_, err := NewClient(ClientConfig{})
		if err == nil {
			t.Fatal("expected error for empty URL")
		}
	})

	t.Run("invalid URL", func(t *testing.T) {
		_, err := NewClient(ClientConfig{HomeserverURL: "://invalid"})
		if err == nil {
			t.Fatal("expected error for invalid URL")
		}
	})
}

func TestLogin(t *testing.T) {
	t.Run("successful login", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if request.URL.Path != "/_matrix/client/v3/login" {
				t.Errorf("unexpected path: %s", request.URL.Path)
				writer.WriteHeader(http.StatusNotFound)
				return
			}

			var body LoginRequest
			if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode request body: %v", err)
			}
			if body.Type != "m.login.password" {
				t.Errorf("unexpected login type: %s", body.Type)
			}
			if body.User != "bob" {
				t.Errorf("unexpected username: %s", body.User)
			}
			if body.Password != "secret" {
				t.Errorf("unexpected password: %s", body.Password)
			}

			writer.Header().Set("Content-Type", "application/json")
			json.NewEncoder(writer).Encode(AuthResponse{
				UserID:      mxid.MustParseUserID("@bob:example.org"),
				AccessToken: "syt_bob_token",
				DeviceID:    "DEVICE2",
			})
		}))
		defer server.Close()

		client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}

		session, err := client.Login(context.Background(), "bob", "secret")
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}

		if got := session.UserID(); got != mxid.MustParseUserID("@bob:example.org") {
			t.Errorf("UserID = %s", got)
		}
		if session.AccessToken() != "syt_bob_token" {
			t.Errorf("AccessToken = %s", session.AccessToken())
		}
		if session.DeviceID() != "DEVICE2" {
			t.Errorf("DeviceID = %s", session.DeviceID())
		}
	})

	t.Run("invalid credentials", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			writer.Header().Set("Content-Type", "application/json")
			writer.WriteHeader(http.StatusForbidden)
			json.NewEncoder(writer).Encode(MatrixError{
				Code:    ErrCodeForbidden,
				Message: "Invalid password",
			})
		}))
		defer server.Close()

		client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}

		_, err = client.Login(context.Background(), "bob", "wrong")
		if err == nil {
			t.Fatal("expected error for invalid credentials")
		}
		if !IsMatrixError(err, ErrCodeForbidden) {
			t.Errorf("expected M_FORBIDDEN error, got: %v", err)
		}

		var matrixErr *MatrixError
		if !errors.As(err, &matrixErr) {
			t.Fatalf("error is not a MatrixError: %v", err)
		}
		if matrixErr.StatusCode != http.StatusForbidden {
			t.Errorf("StatusCode = %d, want %d", matrixErr.StatusCode, http.StatusForbidden)
		}
	})

	t.Run("non-JSON error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
			writer.WriteHeader(http.StatusBadGateway)
			writer.Write([]byte("<html>proxy error</html>"))
		}))
		defer server.Close()

		client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
		if err != nil {
			t.Fatalf("NewClient failed: %v", err)
		}

		_, err = client.Login(context.Background(), "bob", "pw")
		if err == nil {
			t.Fatal("expected error for 502 response")
		}
		if IsMatrixError(err, ErrCodeUnknown) {
			t.Errorf("non-JSON body should not produce a MatrixError: %v", err)
		}
	})

	t.Run("validation errors", func(t *testing.T) {
		client, _ := NewClient(ClientConfig{HomeserverURL: "http://localhost:1"})

		if _, err := client.Login(context.Background(), "", "pw"); err == nil {
			t.Fatal("expected error for empty username")
		}
		if _, err := client.Login(context.Background(), "alice", ""); err == nil {
			t.Fatal("expected error for empty password")
		}
	})
}

func TestSessionFromToken(t *testing.T) {
	client, err := NewClient(ClientConfig{HomeserverURL: "http://localhost:1"})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	alice := mxid.MustParseUserID("@alice:example.org")
	session, err := client.SessionFromToken(alice, "syt_token")
	if err != nil {
		t.Fatalf("SessionFromToken failed: %v", err)
	}

	if session.UserID() != alice {
		t.Errorf("UserID = %s", session.UserID())
	}
	if session.AccessToken() != "syt_token" {
		t.Errorf("AccessToken = %s", session.AccessToken())
	}
	// DeviceID is only known for sessions created by Login.
	if session.DeviceID() != "" {
		t.Errorf("DeviceID = %q, want empty", session.DeviceID())
	}

	t.Run("zero user rejected", func(t *testing.T) {
		if _, err := client.SessionFromToken(mxid.UserID{}, "tok"); err == nil {
			t.Fatal("expected error for zero user ID")
		}
	})

	t.Run("empty token rejected", func(t *testing.T) {
		if _, err := client.SessionFromToken(alice, ""); err == nil {
			t.Fatal("expected error for empty token")
		}
	})
}

func TestMatrixError(t *testing.T) {
	t.Run("error message format", func(t *testing.T) {
		err := &MatrixError{
			Code:       ErrCodeForbidden,
			Message:    "Access denied",
			StatusCode: 403,
		}
		expected := "matrix: M_FORBIDDEN (403): Access denied"
		if err.Error() != expected {
			t.Errorf("unexpected error message: %s", err.Error())
		}
	})

	t.Run("IsMatrixError", func(t *testing.T) {
		err := &MatrixError{Code: ErrCodeNotFound, Message: "not found", StatusCode: 404}
		if !IsMatrixError(err, ErrCodeNotFound) {
			t.Error("IsMatrixError should match M_NOT_FOUND")
		}
		if IsMatrixError(err, ErrCodeForbidden) {
			t.Error("IsMatrixError should not match M_FORBIDDEN")
		}
	})

	t.Run("IsUnknownToken", func(t *testing.T) {
		err := &MatrixError{Code: ErrCodeUnknownToken, Message: "token revoked", StatusCode: 401}
		if !IsUnknownToken(err) {
			t.Error("IsUnknownToken should match M_UNKNOWN_TOKEN")
		}
		if IsUnknownToken(context.Canceled) {
			t.Error("IsUnknownToken should not match context.Canceled")
		}
	})

	t.Run("non-matrix error returns false", func(t *testing.T) {
		if IsMatrixError(context.Canceled, ErrCodeNotFound) {
			t.Error("IsMatrixError should return false for non-matrix errors")
		}
	})

	t.Run("matches through wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("sync failed: %w", &MatrixError{Code: ErrCodeUnknownToken, StatusCode: 401})
		if !IsUnknownToken(wrapped) {
			t.Error("IsUnknownToken should match wrapped errors")
		}
	})
}
