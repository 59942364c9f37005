// Package server exposes palette extraction over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/pokepalette/internal/cache"
	"github.com/jmylchreest/pokepalette/internal/palette"
	"github.com/jmylchreest/pokepalette/internal/security"
	httputil "github.com/jmylchreest/pokepalette/internal/util/http"
)

const (
	// MaxSpriteBytes bounds an uploaded or fetched sprite.
	MaxSpriteBytes = 8 << 20

	shutdownTimeout = 5 * time.Second
)

// Config configures a Server.
type Config struct {
	// Options are the pipeline options, including special cases.
	Options palette.Options

	// Cache stores computed palettes; nil disables caching.
	Cache cache.Cache

	Logger hclog.Logger

	// Fetch configures sprite downloads for GET requests.
	Fetch httputil.FetchOptions

	// URLValidator vets sprite URLs and every redirect target. Defaults to
	// security.ValidateHTTPURL, which refuses private and loopback hosts.
	URLValidator func(string) error

	// AllowPrivateHosts lets GET requests reach loopback and private addresses.
	// Otherwise every connection is checked after name resolution.
	AllowPrivateHosts bool
}

// Server serves the palette API.
type Server struct {
	engine      *gin.Engine
	extractors  map[palette.Algorithm]palette.Extractor
	cache       cache.Cache
	logger      hclog.Logger
	fetch       httputil.FetchOptions
	validateURL func(string) error
}

// New builds the router. It fails if the pipeline options are invalid.
func New(cfg Config) (*Server, error) {
	s := &Server{
		extractors:  make(map[palette.Algorithm]palette.Extractor),
		cache:       cfg.Cache,
		logger:      cfg.Logger,
		fetch:       cfg.Fetch,
		validateURL: cfg.URLValidator,
	}
	if s.cache == nil {
		s.cache = cache.Nop{}
	}
	if s.logger == nil {
		s.logger = hclog.NewNullLogger()
	}
	if s.validateURL == nil {
		s.validateURL = security.ValidateHTTPURL
		if cfg.AllowPrivateHosts {
			s.validateURL = security.ValidateHTTPScheme
		}
	}
	s.fetch.ValidateRedirect = s.validateURL
	if !cfg.AllowPrivateHosts {
		s.fetch.Control = security.DialControl
	}
	if s.fetch.MaxBytes == 0 {
		s.fetch.MaxBytes = MaxSpriteBytes
	}

	opts := cfg.Options
	opts.Logger = s.logger.Named("engine")
	for _, alg := range palette.ValidAlgorithms() {
		e, err := palette.NewExtractor(alg, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s extractor: %w", alg, err)
		}
		s.extractors[alg] = e
	}

	engine := gin.New()
	engine.MaxMultipartMemory = MaxSpriteBytes
	engine.Use(gin.Recovery(), requestLogger(s.logger))

	engine.GET("/healthz", s.health)
	api := engine.Group("/api/v1")
	{
		api.POST("/palette", s.paletteFromUpload)
		api.GET("/palette", s.paletteFromURL)
	}

	s.engine = engine
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	}
}

// requestLogger logs each request through hclog.
func requestLogger(logger hclog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		}
		if len(c.Errors) > 0 {
			logger.Warn("request failed", append(args, "error", c.Errors.String())...)
			return
		}
		logger.Debug("request", args...)
	}
}
