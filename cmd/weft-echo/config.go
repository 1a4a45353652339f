// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// config is the weft-echo configuration file. Exactly one of
// AccessToken or Username/Password must be set.
type config struct {
	// Homeserver is the base URL of the homeserver.
	Homeserver string `yaml:"homeserver"`

	// UserID is the bot's fully-qualified user ID. Required with
	// AccessToken; with password login it is verified against the
	// login response.
	UserID string `yaml:"user_id"`

	// AccessToken reuses an existing session.
	AccessToken string `yaml:"access_token"`

	// Username and Password perform a fresh password login.
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// StatePath is where the sync cursor is persisted. A ".db" suffix
	// selects the SQLite store; anything else is a CBOR state file.
	// Empty keeps the cursor in memory (full re-sync every start).
	StatePath string `yaml:"state_path"`

	// FilterFile is an optional JSONC sync filter definition,
	// uploaded once at startup.
	FilterFile string `yaml:"filter_file"`
}

// loadConfig reads and validates the YAML configuration at path.
func loadConfig(path string) (*config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if cfg.Homeserver == "" {
		return nil, fmt.Errorf("%s: homeserver is required", path)
	}
	hasToken := cfg.AccessToken != ""
	hasPassword := cfg.Username != "" && cfg.Password != ""
	if hasToken == hasPassword {
		return nil, fmt.Errorf("%s: set either access_token (with user_id) or username and password", path)
	}
	if hasToken && cfg.UserID == "" {
		return nil, fmt.Errorf("%s: user_id is required with access_token", path)
	}
	return &cfg, nil
}
