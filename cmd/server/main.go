// Versewatch - Star Citizen Telemetry Tracker
// Copyright 2026 Versewatch contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/versewatch/versewatch

// Package main is the entry point for the Versewatch server.
//
// Versewatch ingests gameplay telemetry events scraped from Star Citizen
// Game.log files, stores them durably in DuckDB with exactly-once semantics
// per (event_type, timestamp, group) key, and fans new events out to
// group-scoped WebSocket subscribers and to Discord channels via the
// notifier relay.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: environment variables and config.yaml (Koanf v2)
//  2. Database: DuckDB record store with the dedup index
//  3. Audit trail: append-only player IP change log
//  4. Ingestion pipeline and IP tracker
//  5. WebSocket hub and broadcaster
//  6. Notifier relay (optional, NOTIFIER_ENABLED + Discord token)
//  7. HTTP server under the suture supervision tree
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the HTTP listener drains
// in-flight requests, WebSocket clients are closed, the notifier router
// stops, and the database and audit trail are closed last.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/versewatch/versewatch/internal/api"
	"github.com/versewatch/versewatch/internal/audit"
	"github.com/versewatch/versewatch/internal/broadcast"
	"github.com/versewatch/versewatch/internal/config"
	"github.com/versewatch/versewatch/internal/database"
	"github.com/versewatch/versewatch/internal/ingest"
	"github.com/versewatch/versewatch/internal/logging"
	"github.com/versewatch/versewatch/internal/notifier"
	"github.com/versewatch/versewatch/internal/supervisor"
	"github.com/versewatch/versewatch/internal/supervisor/services"
	ws "github.com/versewatch/versewatch/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("audit_path", cfg.Audit.Path).
		Bool("notifier_enabled", cfg.Notifier.Enabled).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	trail, err := audit.Open(cfg.Audit.Path)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open audit trail")
	}
	defer func() {
		if err := trail.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing audit trail")
		}
	}()

	tracker := ingest.NewIPTracker(db, trail)
	pipeline := ingest.NewPipeline(db, tracker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	slogLogger := slog.New(logging.NewSlogHandler())
	tree, err := supervisor.NewTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	wsHub := ws.NewHub()
	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))

	// The notifier boundary: events cross from the ingestion path onto the
	// relay's own router through this in-process pub/sub.
	var notifierQueue *gochannel.GoChannel
	if cfg.Notifier.Enabled {
		notifierQueue = gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: int64(cfg.Notifier.BufferSize),
		}, watermill.NopLogger{})

		sender, err := notifier.NewDiscordSender(cfg.Notifier.DiscordToken)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to connect to Discord")
		}
		defer func() {
			if err := sender.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing discord session")
			}
		}()

		subs := notifier.NewSubscriptions(cfg.Notifier.Subscriptions)
		relay, err := notifier.NewRelay(notifierQueue, sender, subs)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to create notifier relay")
		}
		tree.AddMessagingService(services.NewNotifierService(relay))
		logging.Info().
			Int("subscriptions", subs.Len()).
			Msg("Notifier relay enabled")
	}

	var broadcaster *broadcast.Broadcaster
	if notifierQueue != nil {
		broadcaster = broadcast.NewBroadcaster(wsHub, notifierQueue, cfg.Notifier.BufferSize)
	} else {
		broadcaster = broadcast.NewBroadcaster(wsHub, nil, 0)
	}
	defer broadcaster.Close()

	handler := api.NewHandler(pipeline, db, broadcaster)
	wsHandler := api.NewWSHandler(wsHub, cfg)
	router := api.NewRouter(handler, wsHandler, cfg)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	errCh := tree.ServeBackground(ctx)
	logging.Info().Str("addr", cfg.Server.Addr()).Msg("Versewatch started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Shutting down")
		cancel()
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor stopped with error")
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Fatal().Err(err).Msg("Supervisor failed")
		}
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop in time")
		}
	}

	logging.Info().Msg("Versewatch stopped")
}
