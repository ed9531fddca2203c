// Package server exposes a completed scan over HTTP: a JSON API for the tree,
// scan metadata, and file previews, plus an embedded browser UI. The server
// is a mechanical consumer of the scan document; it never re-walks the
// filesystem except to read individual files for preview.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"projviz/internal/types"
)

const (
	// DefaultHost is the default bind host.
	DefaultHost = "localhost"
	// DefaultPort is the default bind port.
	DefaultPort = 8000
	// DefaultPreviewMaxBytes caps file preview payloads; larger files are
	// truncated rather than loaded wholesale.
	DefaultPreviewMaxBytes = 512 * 1024

	defaultShutdownTimeout = 5 * time.Second
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 30 * time.Second
)

// Config defines runtime options for the visualization server.
type Config struct {
	Host            string
	Port            int
	PreviewMaxBytes int64
	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

// Server serves a scan result over HTTP.
type Server struct {
	config Config
	logger *zap.Logger
	result *types.ScanResult
}

// New creates a Server for the given scan result with defaults applied.
func New(config Config, result *types.ScanResult, logger *zap.Logger) *Server {
	normalized := config
	if normalized.Host == "" {
		normalized.Host = DefaultHost
	}
	if normalized.Port <= 0 {
		normalized.Port = DefaultPort
	}
	if normalized.PreviewMaxBytes <= 0 {
		normalized.PreviewMaxBytes = DefaultPreviewMaxBytes
	}
	if normalized.ShutdownTimeout <= 0 {
		normalized.ShutdownTimeout = defaultShutdownTimeout
	}
	if len(normalized.CORSOrigins) == 0 {
		normalized.CORSOrigins = []string{"*"}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{config: normalized, logger: logger, result: result}
}

// Router builds the HTTP handler tree. Exposed separately from Run so tests
// can exercise handlers without binding a listener.
func (server *Server) Router() http.Handler {
	router := chi.NewRouter()
	router.Use(server.recoveryMiddleware)
	router.Use(server.loggingMiddleware)
	router.Use(cors.New(cors.Options{
		AllowedOrigins: server.config.CORSOrigins,
		AllowedMethods: []string{http.MethodGet},
	}).Handler)

	router.Get("/healthz", server.handleHealth)
	router.Get("/", server.handleIndex)
	router.Get("/api/tree", server.handleTree)
	router.Get("/api/metadata", server.handleMetadata)
	router.Get("/api/file", server.handleFile)
	return router
}

// Run starts the server and blocks until the provided context is canceled or
// the listener fails. The notify callback receives the bound address once the
// listener is active.
func (server *Server) Run(ctx context.Context, notify func(address string)) error {
	bindAddress := net.JoinHostPort(server.config.Host, fmt.Sprintf("%d", server.config.Port))
	listener, listenError := net.Listen("tcp", bindAddress)
	if listenError != nil {
		return fmt.Errorf("listen on %s: %w", bindAddress, listenError)
	}
	actualAddress := listener.Addr().String()

	httpServer := &http.Server{
		Handler:      server.Router(),
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		serveError := httpServer.Serve(listener)
		if serveError != nil && !errors.Is(serveError, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", serveError)
		}
		return nil
	})

	if notify != nil {
		notify(actualAddress)
	}
	server.logger.Info("visualization server listening",
		zap.String("address", actualAddress),
		zap.String("scanned_path", server.result.ScannedPath),
	)

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.config.ShutdownTimeout)
		defer cancel()
		shutdownError := httpServer.Shutdown(shutdownCtx)
		if shutdownError != nil && !errors.Is(shutdownError, context.Canceled) && !errors.Is(shutdownError, http.ErrServerClosed) {
			return fmt.Errorf("shutdown: %w", shutdownError)
		}
		return nil
	})

	return group.Wait()
}
