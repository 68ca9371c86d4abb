package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            ":8080",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		AllowedOrigins:  []string{"*"},
	}
}

// Service ties the HTTP API, CORS middleware and server lifecycle together.
type Service struct {
	config ServerConfig
	server *http.Server
}

func NewService(config ServerConfig, handlers *Handlers) *Service {
	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux)

	c := cors.New(cors.Options{
		AllowedOrigins: config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	return &Service{
		config: config,
		server: &http.Server{
			Addr:         config.Addr,
			Handler:      c.Handler(mux),
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
		},
	}
}

// Start runs the HTTP server until it is shut down.
func (s *Service) Start() error {
	log.Info().Str("addr", s.config.Addr).Msg("starting HTTP gateway")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully drains in-flight requests.
func (s *Service) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	log.Info().Msg("shutting down HTTP gateway")
	return s.server.Shutdown(ctx)
}
