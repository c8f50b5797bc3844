// Callwatch - Voice Session Failure Analytics
// Copyright 2026 Callwatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/callwatchio/callwatch

// Command server runs the Callwatch HTTP service: failure-rate analysis
// reports over a call-log record store.
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

	"github.com/callwatchio/callwatch/internal/api"
	"github.com/callwatchio/callwatch/internal/config"
	"github.com/callwatchio/callwatch/internal/database"
	"github.com/callwatchio/callwatch/internal/logging"
	"github.com/callwatchio/callwatch/internal/report"
	"github.com/callwatchio/callwatch/internal/supervisor"
)

// version is injected at build time via -ldflags.
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "callwatch: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Interface("config", cfg.Summary()).
		Msg("Callwatch starting")

	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Warn().Err(err).Msg("Record store close failed")
		}
	}()

	reports := report.NewService(db, &cfg.Report)
	handlers := api.NewHandlers(reports, db, cfg, version)
	router := api.NewRouter(handlers, api.NewMiddleware(&cfg.API))

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(cfg.Server.ShutdownTimeout)
	tree.Add(supervisor.NewHTTPService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor exited: %w", err)
	}

	logging.Info().Msg("Callwatch stopped")
	return nil
}
