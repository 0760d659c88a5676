// Package server hosts the policy API service.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/aarons2222/letlog/internal/httpapi"
	"github.com/aarons2222/letlog/internal/identity"
	"github.com/aarons2222/letlog/internal/notify"
	"github.com/aarons2222/letlog/internal/platform/config"
	"github.com/aarons2222/letlog/internal/platform/timeouts"
	"github.com/aarons2222/letlog/internal/policy"
	"github.com/aarons2222/letlog/internal/storage/sqlite"
)

// Config holds server process configuration.
type Config struct {
	Addr    string `env:"LETLOG_SERVER_ADDR" envDefault:":8080"`
	DBPath  string `env:"LETLOG_DB_PATH" envDefault:"letlog.db"`
	AMQPURL string `env:"LETLOG_AMQP_URL"`
}

// LoadConfigFromEnv reads server configuration from the environment.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse server env: %w", err)
	}
	return cfg, nil
}

// Server hosts the policy HTTP API.
type Server struct {
	listener   net.Listener
	httpServer *http.Server
	store      *sqlite.Store
	notifier   notify.Notifier
}

// New creates a configured server listening on cfg.Addr.
func New(cfg Config) (*Server, error) {
	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	identityConfig, err := identity.LoadConfigFromEnv(nil)
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, err
	}

	policyConfig, err := policy.LoadConfigFromEnv()
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, err
	}

	engine, err := policy.NewEngine(policy.EngineOptions{
		Repository:  store,
		DecisionLog: store,
		Config:      policyConfig,
	})
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, err
	}

	var notifier notify.Notifier = notify.LogNotifier{}
	if strings.TrimSpace(cfg.AMQPURL) != "" {
		amqpNotifier, err := notify.DialAMQP(cfg.AMQPURL)
		if err != nil {
			_ = listener.Close()
			_ = store.Close()
			return nil, err
		}
		notifier = amqpNotifier
	}

	handler := httpapi.NewHandler(httpapi.HandlerOptions{
		Engine:   engine,
		Store:    store,
		Notifier: notifier,
		Identity: identityConfig,
	})
	mux := http.NewServeMux()
	handler.Register(mux)

	httpServer := &http.Server{
		Handler:           otelhttp.NewHandler(mux, "letlog.api"),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}

	return &Server{
		listener:   listener,
		httpServer: httpServer,
		store:      store,
		notifier:   notifier,
	}, nil
}

// Addr returns the listener address.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a server until the context ends.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the server and blocks until it stops or the context ends.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()
	log.Printf("policy api listening on %s", s.Addr())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("http shutdown: %v", err)
		}
		err := <-errCh
		s.close()
		return err
	case err := <-errCh:
		s.close()
		return err
	}
}

func (s *Server) close() {
	if closer, ok := s.notifier.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			log.Printf("close notifier: %v", err)
		}
	}
	if err := s.store.Close(); err != nil {
		log.Printf("close store: %v", err)
	}
}
