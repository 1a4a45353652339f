// Copyright 2026 The Weft Authors
// SPDX-License-Identifier: Apache-2.0

// weft-echo is an example bot built on the weft sync engine. It logs
// in (or reuses a token), auto-joins every invite through a dispatcher
// plugin, and echoes each text message back to its room as a notice.
//
// The bot demonstrates the engine's wiring end to end: a persistent
// cursor store (SQLite or CBOR file), an optional JSONC sync filter, a
// wait-flagged lifecycle handler, and clean shutdown on SIGINT.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/weftchat/weft/event"
	"github.com/weftchat/weft/lib/mxid"
	"github.com/weftchat/weft/messaging"
	"github.com/weftchat/weft/syncer"
	"github.com/weftchat/weft/syncer/sqlitestore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath string
		debug      bool
	)

	flagSet := pflag.NewFlagSet("weft-echo", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "weft-echo.yaml", "path to the YAML configuration file")
	flagSet.BoolVar(&debug, "debug", false, "log at debug level")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: cfg.Homeserver,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	session, err := openSession(ctx, client, cfg)
	if err != nil {
		return err
	}
	logger.Info("session ready", "user_id", session.UserID())

	store, cleanup, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	engine, err := syncer.New(syncer.Config{
		Transport: session,
		UserID:    session.UserID(),
		Store:     store,
		Logger:    logger,
		// The persisted cursor makes old batches unreachable, but a
		// fresh state path would replay the full initial snapshot;
		// don't echo history.
		IgnoreInitialSync: true,
	})
	if err != nil {
		return err
	}

	syncer.AddDispatcher(engine, newAutoJoin(session))

	echo := &echoBot{session: session, selfID: session.UserID(), logger: logger}
	engine.AddEventHandler(event.RoomMessage, echo.handleMessage, false)

	// Lifecycle visibility: log each poll outcome. The wait flag
	// keeps the log line ordered before the batch's own output.
	engine.AddEventHandler(event.SyncSuccessful, func(ctx context.Context, payload any) error {
		successful := payload.(syncer.SyncSuccessful)
		logger.Debug("sync batch",
			"next_batch", successful.Response.NextBatch,
			"initial", successful.IsInitial,
		)
		return nil
	}, true)
	engine.AddEventHandler(event.SyncErrored, func(ctx context.Context, payload any) error {
		errored := payload.(syncer.SyncErrored)
		logger.Warn("sync retry", "error", errored.Err, "retry_in", errored.RetryIn)
		return nil
	}, false)

	var filter messaging.SyncFilter
	if cfg.FilterFile != "" {
		parsed, err := messaging.ReadFilterFile(cfg.FilterFile)
		if err != nil {
			return err
		}
		filter = parsed
	}

	done := engine.Start(ctx, filter)
	<-done
	engine.Stop()
	return nil
}

// openSession authenticates per the configuration: token reuse
// (verified with WhoAmI) or password login.
func openSession(ctx context.Context, client *messaging.Client, cfg *config) (*messaging.Session, error) {
	if cfg.AccessToken != "" {
		userID, err := mxid.ParseUserID(cfg.UserID)
		if err != nil {
			return nil, err
		}
		session, err := client.SessionFromToken(userID, cfg.AccessToken)
		if err != nil {
			return nil, err
		}
		if _, err := session.WhoAmI(ctx); err != nil {
			return nil, fmt.Errorf("stored token rejected: %w", err)
		}
		return session, nil
	}
	return client.Login(ctx, cfg.Username, cfg.Password)
}

// openStore selects the cursor store from the configured state path.
func openStore(cfg *config, logger *slog.Logger) (syncer.SyncStore, func(), error) {
	switch {
	case cfg.StatePath == "":
		return syncer.NewMemoryStore(), func() {}, nil
	case strings.HasSuffix(cfg.StatePath, ".db"):
		store, err := sqlitestore.Open(cfg.StatePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		return syncer.NewFileStore(cfg.StatePath), func() {}, nil
	}
}

// echoBot replies to every text message with a notice carrying the
// same body. Notices are ignored by well-behaved bots (including this
// one), which breaks the echo loop two of these would otherwise form.
type echoBot struct {
	session *messaging.Session
	selfID  mxid.UserID
	logger  *slog.Logger
}

func (b *echoBot) handleMessage(ctx context.Context, payload any) error {
	evt, ok := payload.(*event.Event)
	if !ok || evt.Sender == b.selfID {
		return nil
	}
	if msgType, _ := evt.Content["msgtype"].(string); msgType != "m.text" {
		return nil
	}
	body, _ := evt.Content["body"].(string)
	if body == "" {
		return nil
	}

	eventID, err := b.session.SendMessage(ctx, evt.RoomID, messaging.NewNoticeMessage(body))
	if err != nil {
		return fmt.Errorf("echoing to %s: %w", evt.RoomID, err)
	}
	b.logger.Debug("echoed", "room_id", evt.RoomID, "event_id", eventID)
	return nil
}
