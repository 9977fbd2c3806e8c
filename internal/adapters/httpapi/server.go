package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mikey/anomaly-classifier/internal/artifacts"
	"github.com/mikey/anomaly-classifier/internal/config"
	"github.com/mikey/anomaly-classifier/internal/ports"
	"go.uber.org/zap"
)

// Server is the HTTP front end exposing POST /predict
type Server struct {
	cfg        config.ServerConfig
	classifier ports.RecordClassifier
	artifacts  *artifacts.Set
	logger     *zap.Logger
	engine     *gin.Engine
	server     *http.Server
	addr       net.Addr
}

// NewServer creates a new HTTP front end and registers its routes
func NewServer(
	cfg config.ServerConfig,
	classifier ports.RecordClassifier,
	artifactSet *artifacts.Set,
	logger *zap.Logger,
) *Server {
	s := &Server{
		cfg:        cfg,
		classifier: classifier,
		artifacts:  artifactSet,
		logger:     logger,
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(requestID())
	r.Use(requestLogger(s.logger))
	r.Use(recovery(s.logger))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", requestIDHeader},
		ExposeHeaders:   []string{requestIDHeader},
		MaxAge:          12 * time.Hour,
	}))

	r.GET("/health", s.health)
	r.POST("/predict", s.predict)

	return r
}

// Name identifies the front end in logs
func (s *Server) Name() string {
	return "http"
}

// Handler returns the routed handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Addr returns the bound listen address once started
func (s *Server) Addr() string {
	if s.addr == nil {
		return ""
	}
	return s.addr.String()
}

// Start binds the listen address and serves in a goroutine
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.ListenAddress, err)
	}
	s.addr = ln.Addr()

	s.server = &http.Server{
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.logger.Info("HTTP server starting", zap.String("address", s.Addr()))

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts the server down, waiting up to the shutdown timeout
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

// SetMode sets gin's process-wide mode. Unknown modes fall back to release.
// Call it once at startup, before any Server is built.
func SetMode(mode string) {
	gin.SetMode(ginMode(mode))
}

func ginMode(mode string) string {
	switch mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		return mode
	default:
		return gin.ReleaseMode
	}
}
