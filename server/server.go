package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/ssogate/logger"
	"github.com/kbukum/ssogate/observability"
	"github.com/kbukum/ssogate/server/endpoint"
	"github.com/kbukum/ssogate/server/middleware"
)

// Server is an HTTP server backed by Gin, serving HTTP/1.1 and cleartext
// HTTP/2 on the same port. The middleware stack wraps the whole handler so
// it also covers unmatched routes.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	mux        *http.ServeMux
	handler    http.Handler
	config     Config
	log        *logger.Logger
}

// New creates a new Server. No middleware is applied yet; call
// ApplyMiddleware once routes are known.
func New(cfg Config, log *logger.Logger) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	mux := http.NewServeMux()
	mux.Handle("/", engine)

	s := &Server{
		engine:  engine,
		mux:     mux,
		handler: mux,
		config:  cfg,
		log:     log.WithComponent("server"),
	}

	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          120 * time.Second,
	}
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           h2c.NewHandler(http.HandlerFunc(s.serve), h2s),
		ReadTimeout:       time.Duration(cfg.ReadTimeout) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:       time.Duration(cfg.IdleTimeout) * time.Second,
	}
	return s
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// GinEngine returns the underlying Gin engine for route registration.
func (s *Server) GinEngine() *gin.Engine {
	return s.engine
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start binds the port and begins serving. It returns once the listener is
// bound so the caller knows the port is ready; serving continues in a goroutine.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("server failed to bind %s: %w", s.httpServer.Addr, err)
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("Server error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	s.log.Info("HTTP server started", map[string]interface{}{
		"addr":      listener.Addr().String(),
		"base_path": s.config.BasePath,
	})
	return nil
}

// Stop gracefully shuts down the server with a 5-second deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Error("Server shutdown error", map[string]interface{}{
			"error": err.Error(),
		})
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.log.Info("HTTP server shut down successfully")
	return nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// ApplyMiddleware wraps every route in the standard stack. Outermost first:
// recovery, request id, telemetry, CORS and rate limiting when configured,
// body-size limit, request logging, no-cache headers.
func (s *Server) ApplyMiddleware() {
	metrics, err := observability.NewHTTPMetrics(otel.GetMeterProvider())
	if err != nil {
		s.log.Warn("HTTP metrics unavailable", logger.Fields(logger.FieldError, err.Error()))
		metrics = nil
	}
	stack := []middleware.Middleware{
		middleware.Recovery(s.log),
		middleware.RequestID(),
		middleware.Telemetry(otel.GetTracerProvider(), metrics),
	}
	if s.config.CORS.Enabled() {
		stack = append(stack, middleware.CORS(&s.config.CORS))
	}
	if s.config.RateLimit.RequestsPerMinute > 0 {
		stack = append(stack, middleware.RateLimit(s.config.RateLimit))
	}
	stack = append(stack,
		middleware.BodySizeLimit(s.config.MaxBodySize),
		middleware.RequestLogger(s.log),
		middleware.NoCache(),
	)
	s.handler = middleware.Chain(stack...)(s.mux)
}

// RegisterHealth serves the liveness endpoint.
func (s *Server) RegisterHealth(serviceName, version string, services endpoint.ServicesFunc) {
	s.engine.GET(middleware.HealthPath, endpoint.Health(serviceName, version, services))
}
