// Watchlog - Bounded Watch-History Logger for YouTube
// Copyright 2026 The Watchlog Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/watchlog/watchlog

// Package main is the entry point for the Watchlog server.
//
// Watchlog ingests YouTube watch events, suppresses repeats within a
// configurable window, enriches each event via the YouTube Data API v3,
// appends it to a capacity-bounded persistent history and pushes the
// finalized entry to connected websocket clients.
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, optional YAML file, environment (Koanf v2)
//  2. Storage: BadgerDB key-value store for dedup, history and settings
//  3. Catalog client: rate-limited, circuit-broken YouTube API access
//  4. WebSocket hub: live notifications to connected clients
//  5. Pipeline: the fire-and-forget intake orchestrator
//  6. HTTP server: REST API plus /healthz and /metrics
//
// All long-running components run under a suture supervision tree and shut
// down gracefully on SIGINT or SIGTERM.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, then a config file named by
// CONFIG_PATH, then built-in defaults. The minimum useful setup is:
//
//	export YOUTUBE_API_KEY=your-api-key
//	export STORAGE_PATH=/data/watchlog
//	./watchlog
//
// Without YOUTUBE_API_KEY the server still runs: entries are logged from
// the watch URL alone, with no metadata enrichment.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/watchlog/watchlog/internal/api"
	"github.com/watchlog/watchlog/internal/catalog"
	"github.com/watchlog/watchlog/internal/config"
	"github.com/watchlog/watchlog/internal/logging"
	"github.com/watchlog/watchlog/internal/pipeline"
	"github.com/watchlog/watchlog/internal/store"
	"github.com/watchlog/watchlog/internal/supervisor"
	"github.com/watchlog/watchlog/internal/supervisor/services"
	"github.com/watchlog/watchlog/internal/websocket"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("server failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().Str("version", version).Msg("starting watchlog")

	s, err := store.Open(cfg.Storage)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			logging.Error().Err(err).Msg("store close failed")
		}
	}()

	dedup := store.NewDedupStore(s)
	logStore := store.NewLogStore(s, cfg.Intake.LogCapacity)
	settings := store.NewSettingsStore(s, store.Settings{
		APIKey:  cfg.Catalog.APIKey,
		Profile: cfg.Intake.Profile,
	})

	client := catalog.NewClient(cfg.Catalog)
	hub := websocket.NewHub()

	orch := pipeline.New(dedup, logStore, settings, client, hub, pipeline.Options{
		Region:   cfg.Catalog.Region,
		DedupTTL: cfg.Intake.DedupTTL,
	})

	handler := api.NewHandler(orch, logStore, settings, hub, version)
	middleware := api.NewMiddleware(&api.MiddlewareConfig{
		CORSAllowedOrigins: cfg.Server.CORSOrigins,
		RateLimitRequests:  cfg.Server.RateLimitReqs,
		RateLimitWindow:    cfg.Server.RateLimitWindow,
	})
	router := api.NewRouter(handler, middleware)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddStorageService(services.NewGCService(s, cfg.Storage.GCInterval))
	tree.AddServingService(hub)
	tree.AddServingService(services.NewHTTPServerService(server, 10*time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor tree error")
		}
	}

	// Drain until the supervisor has fully stopped.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor shutdown error")
		}
	}

	logging.Info().Msg("stopped gracefully")
	return nil
}
