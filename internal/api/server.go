package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"skyplan/internal/config"
	"skyplan/internal/log"
	"skyplan/internal/session"
	"skyplan/internal/store"
)

type Server struct {
	Store    store.Store
	Sessions *session.Manager
	Broker   EventBroker
	Log      *log.Logger
	Config   config.Config
}

// NewServer creates a Server. If DatabaseURL is unset, uses in-memory store.
func NewServer(cfg config.Config, lg *log.Logger) (*Server, error) {
	var s store.Store
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		s = store.NewMemory()
	} else {
		sp, err := store.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		if cfg.DBMigrate {
			if err := sp.Migrate(context.Background()); err != nil {
				return nil, err
			}
		}
		s = sp
	}
	// Broker selection
	var broker EventBroker
	if cfg.RedisURL != "" {
		if rb, err := NewRedisBroker(cfg.RedisURL); err == nil {
			broker = rb
		} else {
			lg.Warn("redis broker unavailable, using in-memory broker", slog.Any("err", err))
			broker = NewBroker()
		}
	} else {
		broker = NewBroker()
	}
	mgr, err := session.NewManager(s, cfg.Optimizer, cfg.Seed, cfg.MaxSessions, lg)
	if err != nil {
		return nil, err
	}
	return &Server{Store: s, Sessions: mgr, Broker: broker, Log: lg, Config: cfg}, nil
}

// Handler wires every route behind the access-log, metrics and rate-limit
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Sessions
	mux.HandleFunc("/v1/sessions", s.SessionsHandler)
	mux.HandleFunc("/v1/sessions/", s.SessionByIDHandler) // includes /rounds, /report.xlsx, /stream

	// Optimizer
	mux.HandleFunc("/v1/optimizer/config", s.OptimizerConfigHandler)

	// Health
	mux.HandleFunc("/healthz", s.HealthHandler)
	mux.HandleFunc("/readyz", s.ReadyHandler)

	// Ops
	mux.HandleFunc("/debug/vars.json", s.DebugJSON)
	mux.Handle("/metrics", MetricsHandler())

	return s.logMiddleware(metricsMiddleware(rateLimit(s.Config.RateRPS, s.Config.RateBurst, mux)))
}
