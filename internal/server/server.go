// Package server exposes the scan pipeline over HTTP: a multipart upload
// endpoint, a websocket frame stream, health, and metrics. It carries no
// pipeline logic of its own.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/MeKo-Tech/labelscan/internal/config"
	"github.com/MeKo-Tech/labelscan/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server hosts the HTTP surface over an orchestrator.
type Server struct {
	cfg          config.ServerConfig
	orchestrator *pipeline.Orchestrator
	httpServer   *http.Server
}

// New creates a server for the given orchestrator.
func New(cfg config.ServerConfig, orchestrator *pipeline.Orchestrator) *Server {
	s := &Server{cfg: cfg, orchestrator: orchestrator}

	mux := http.NewServeMux()
	mux.HandleFunc("/scan", s.scanHandler)
	mux.HandleFunc("/ws/scan", s.scanWebSocketHandler)
	mux.HandleFunc("/healthz", s.healthHandler)
	mux.Handle("/metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           mux,
		ReadTimeout:       time.Duration(cfg.TimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.TimeoutSec) * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// ListenAndServe blocks serving requests until the server is shut down.
func (s *Server) ListenAndServe() error {
	slog.Info("server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
