/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/camposur/agroguardian/internal/metrics"
)

// Version is the service version (set at build time)
var Version = "dev"

// Server is the REST API server
type Server struct {
	handlers *Handlers
	logger   zerolog.Logger
	port     int
	server   *http.Server
}

// NewServer creates a new API server
func NewServer(handlers *Handlers, logger zerolog.Logger, port int) *Server {
	if port == 0 {
		port = 8080
	}
	return &Server{
		handlers: handlers,
		logger:   logger.With().Str("component", "api").Logger(),
		port:     port,
	}
}

// Start starts the API server and blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	router := s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		s.logger.Info().Int("port", s.port).Msg("starting API server")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("API server error")
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	s.logger.Info().Msg("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the router
func (s *Server) setupRoutes() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	h := s.handlers

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health
		r.Get("/health", h.GetHealth)
		r.Get("/stats", h.GetStats)

		// Calculation runs
		r.Post("/runs/{frequency}", h.TriggerRun)

		// KPIs
		r.Get("/kpis", h.ListKPIs)
		r.Put("/kpis/{code}/threshold", h.PutThreshold)
		r.Get("/kpis/{code}/history", h.GetHistory)

		// Alerts
		r.Get("/alerts", h.ListAlerts)
		r.Post("/alerts", h.CreateAlert)
		r.Post("/alerts/{id}/resolve", h.ResolveAlert)
		r.Post("/alerts/{id}/cancel", h.CancelAlert)

		// Recommendations
		r.Get("/recommendations", h.ListRecommendations)

		// Reports
		r.Get("/reports/executive", h.GetExecutiveReport)
		r.Get("/reports/comparative", h.GetComparativeReport)
		r.Get("/reports/learning", h.GetLearningReport)

		// Rainfall
		r.Post("/rainfall", h.CreateRainfall)
		r.Get("/rainfall", h.ListRainfall)
		r.Delete("/rainfall/{id}", h.DeleteRainfall)
		r.Post("/rainfall/check", h.CheckRainfall)

		// Maintenance
		r.Post("/maintenance/prune", h.TriggerPrune)
	})

	// Prometheus metrics
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	return r
}
