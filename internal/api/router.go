// Shelfwatch - Plex Library Statistics and Media Info
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfwatch

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/shelfwatch/internal/config"
	"github.com/tomtom215/shelfwatch/internal/middleware"
)

// NewRouter assembles the HTTP routes and middleware chain.
func NewRouter(handler *Handler, cfg *config.ServerConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/api/v1/health", handler.Health)

	r.Route("/api/v1/libraries", func(r chi.Router) {
		if cfg.RateLimitReqs > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimitReqs, cfg.RateLimitWindow))
		}
		r.Use(middleware.PrometheusMetrics)

		r.Get("/", handler.Sections)
		r.Post("/refresh", handler.RefreshSections)
		r.Post("/undelete", handler.Undelete)

		r.Route("/{sectionID}", func(r chi.Router) {
			r.Get("/", handler.Details)
			r.Delete("/", handler.Delete)
			r.Put("/config", handler.SetConfig)
			r.Get("/media-info", handler.MediaInfo)
			r.Post("/media-info/backfill", handler.Backfill)
			r.Delete("/media-info-cache", handler.DeleteMediaInfoCache)
			r.Get("/watch-time-stats", handler.WatchTimeStats)
			r.Get("/user-stats", handler.UserStats)
			r.Get("/recently-watched", handler.RecentlyWatched)
			r.Delete("/history", handler.DeleteHistory)
		})
	})

	return r
}
