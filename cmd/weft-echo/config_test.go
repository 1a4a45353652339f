// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "weft-echo.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
homeserver: https://matrix.example.org
user_id: "@echo:example.org"
access_token: syt_secret
state_path: /var/lib/weft/echo.db
filter_file: filter.jsonc
`)

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Homeserver != "https://matrix.example.org" {
		t.Errorf("homeserver = %q", cfg.Homeserver)
	}
	if cfg.UserID != "@echo:example.org" {
		t.Errorf("user_id = %q", cfg.UserID)
	}
	if cfg.StatePath != "/var/lib/weft/echo.db" {
		t.Errorf("state_path = %q", cfg.StatePath)
	}
	if cfg.FilterFile != "filter.jsonc" {
		t.Errorf("filter_file = %q", cfg.FilterFile)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing homeserver", `
user_id: "@echo:example.org"
access_token: syt_secret
`},
		{"no credentials", `
homeserver: https://matrix.example.org
`},
		{"both credential kinds", `
homeserver: https://matrix.example.org
user_id: "@echo:example.org"
access_token: syt_secret
username: echo
password: hunter2
`},
		{"token without user id", `
homeserver: https://matrix.example.org
access_token: syt_secret
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := loadConfig(writeConfig(t, tc.content)); err == nil {
				t.Error("loadConfig succeeded, want error")
			}
		})
	}

	t.Run("password login", func(t *testing.T) {
		cfg, err := loadConfig(writeConfig(t, `
homeserver: https://matrix.example.org
username: echo
password: hunter2
`))
		if err != nil {
			t.Fatalf("loadConfig: %v", err)
		}
		if cfg.Username != "echo" {
			t.Errorf("username = %q", cfg.Username)
		}
	})
}
