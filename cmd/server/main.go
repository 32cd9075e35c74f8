// Shelfwatch - Plex Library Statistics and Media Info
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwatch

// Shelfwatch serves per-section Plex library statistics: the media-info
// grid with cached file sizes, watch-time and user aggregates, and the
// section lifecycle API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/shelfwatch/internal/api"
	"github.com/tomtom215/shelfwatch/internal/config"
	"github.com/tomtom215/shelfwatch/internal/database"
	"github.com/tomtom215/shelfwatch/internal/library"
	"github.com/tomtom215/shelfwatch/internal/logging"
	"github.com/tomtom215/shelfwatch/internal/mediainfo"
	"github.com/tomtom215/shelfwatch/internal/plex"
	"github.com/tomtom215/shelfwatch/internal/scheduler"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("Fatal error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logging.Info().Str("addr", cfg.Server.Addr()).Msg("Shelfwatch starting")

	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := mediainfo.NewStore(cfg.Cache.Dir)
	if err != nil {
		return err
	}

	client := plex.NewClient(cfg.Plex.URL, cfg.Plex.Token, cfg.Plex.RequestsPerSecond)
	breaker := plex.NewBreaker(client)
	reconciler := mediainfo.NewReconciler(store, breaker)

	facade := library.NewFacade(db, breaker, reconciler, store, library.Options{
		GroupHistory: cfg.History.GroupTables,
	})
	defer facade.Close()

	handler := api.NewHandler(facade, db)
	router := api.NewRouter(handler, &cfg.Server)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	slogger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	supervisor := scheduler.NewSupervisor("shelfwatch", slogger)
	supervisor.Add(scheduler.NewHTTPService(server))
	supervisor.Add(scheduler.NewRefreshService(facade, cfg.Cache.RefreshInterval, cfg.Cache.BackfillOnRefresh))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = supervisor.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logging.Info().Msg("Shelfwatch stopped")
	return nil
}
