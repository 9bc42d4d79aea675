package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"listingforge/gateway/pkg/config"
	"listingforge/gateway/pkg/providers"
	"listingforge/gateway/pkg/proxy/handlers"
	"listingforge/gateway/pkg/proxy/middleware"
	"listingforge/gateway/pkg/quota"
	"listingforge/gateway/pkg/security/auth"
	"listingforge/gateway/pkg/telemetry/health"
	"listingforge/gateway/pkg/telemetry/metrics"
	"listingforge/gateway/pkg/usage"
)

// BuildInfo is reported by /version.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Dependencies are the components the routes are built from. Limiter and
// Metrics may be nil to disable rate limiting and /metrics.
type Dependencies struct {
	Gate     *quota.Gate
	Client   providers.Client
	Recorder *usage.Recorder
	Verifier *auth.Verifier
	Health   *health.Checker
	Limiter  *middleware.LimiterStore
	Metrics  *metrics.Collector

	// MetricsPath defaults to /metrics.
	MetricsPath string

	// TLS, when set, makes Start serve HTTPS. Its GetCertificate supplies
	// the certificate.
	TLS *tls.Config

	Build BuildInfo
}

// Server is the gateway HTTP server.
type Server struct {
	config       *config.ServerConfig
	deps         Dependencies
	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a new server.
func NewServer(cfg *config.ServerConfig, deps Dependencies) (*Server, error) {
	switch {
	case deps.Gate == nil:
		return nil, errors.New("server: quota gate is required")
	case deps.Client == nil:
		return nil, errors.New("server: generation client is required")
	case deps.Recorder == nil:
		return nil, errors.New("server: usage recorder is required")
	case deps.Verifier == nil:
		return nil, errors.New("server: token verifier is required")
	}
	if deps.Health == nil {
		deps.Health = health.New(0)
	}
	if deps.MetricsPath == "" {
		deps.MetricsPath = config.DefaultMetricsPath
	}

	return &Server{
		config:       cfg,
		deps:         deps,
		shutdownChan: make(chan struct{}),
	}, nil
}

// Start starts the HTTP server and blocks until ctx is cancelled, a
// termination signal arrives, Stop is called, or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.httpServer = &http.Server{
		Addr:           s.config.ListenAddress,
		Handler:        s.Handler(),
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
		TLSConfig:      s.deps.TLS,
	}
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting gateway server",
			"address", s.config.ListenAddress,
			"provider", s.deps.Client.Name(),
			"tls_enabled", s.deps.TLS != nil,
		)

		var err error
		if s.deps.TLS != nil {
			err = s.httpServer.ListenAndServeTLS("", "")
		} else {
			err = s.httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
	case <-s.shutdownChan:
		slog.Info("shutdown requested")
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}

	return s.Shutdown(context.Background())
}

// Stop asks a running Start to shut down.
func (s *Server) Stop() {
	select {
	case <-s.shutdownChan:
	default:
		close(s.shutdownChan)
	}
}

// Shutdown gracefully shuts down the server, letting in-flight
// generations finish within the shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		slog.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx := ctx
		if s.config.ShutdownTimeout > 0 {
			var cancel context.CancelFunc
			shutdownCtx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
			defer cancel()
		}

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("gateway server stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the routed HTTP handler with the full middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	var observer handlers.GenerationObserver
	var requestObserver middleware.RequestObserver
	if s.deps.Metrics != nil {
		observer = s.deps.Metrics
		requestObserver = s.deps.Metrics
	}

	bearer := auth.NewBearerMiddleware(s.deps.Verifier, nil)
	limit := middleware.RateLimitMiddleware(s.deps.Limiter)
	protect := func(h http.Handler) http.Handler {
		return bearer.Handle(middleware.AccountLoggingMiddleware(limit(h)))
	}

	mux.Handle("/generate", protect(handlers.NewGenerateHandler(s.deps.Gate, s.deps.Client, s.deps.Recorder, observer)))
	mux.Handle("/usage", protect(handlers.NewUsageHandler(s.deps.Gate)))
	mux.Handle("/listings", protect(handlers.NewListingsHandler(s.deps.Recorder)))

	mux.Handle("/health", s.deps.Health.LivenessHandler())
	mux.Handle("/ready", s.deps.Health.ReadinessHandler())
	mux.Handle("/version", health.VersionHandler(s.deps.Build.Version, s.deps.Build.Commit, s.deps.Build.BuildTime))

	if s.deps.Metrics != nil {
		mux.Handle(s.deps.MetricsPath, s.deps.Metrics.Handler())
	}

	var handler http.Handler = mux
	handler = middleware.TimeoutMiddleware(s.config.RequestTimeout)(handler)
	handler = middleware.CORSMiddleware(s.convertCORSConfig())(handler)
	handler = middleware.RecoveryMiddleware(handler)
	handler = middleware.LoggingMiddleware(requestObserver)(handler)
	handler = middleware.RequestIDMiddleware(handler)

	return handler
}

// convertCORSConfig converts config.CORSConfig to middleware.CORSConfig.
func (s *Server) convertCORSConfig() *middleware.CORSConfig {
	return &middleware.CORSConfig{
		Enabled:          s.config.CORS.Enabled,
		AllowedOrigins:   s.config.CORS.AllowedOrigins,
		AllowedMethods:   s.config.CORS.AllowedMethods,
		AllowedHeaders:   s.config.CORS.AllowedHeaders,
		ExposedHeaders:   s.config.CORS.ExposedHeaders,
		MaxAge:           s.config.CORS.MaxAge,
		AllowCredentials: s.config.CORS.AllowCredentials,
	}
}
