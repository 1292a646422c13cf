package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/corpuswatch/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/corpuswatch/internal/logger"
)

// DefaultVersion is reported when no version is configured.
const DefaultVersion = "dev"

// instructions are sent to clients on initialisation.
const instructions = `corpuswatch monitors directories of documents and derives question and
answer records from new or changed files.

Read corpuswatch://directories for the watched directories and
corpuswatch://directories/{directoryId}/files for the status of each file.
Use scan_directory to process one directory now, force_run to scan every
enabled directory and scheduler_status to see when the next cycle runs.`

// shutdownTimeout bounds the graceful shutdown of the HTTP transport.
const shutdownTimeout = 5 * time.Second

// Server exposes corpuswatch over the Model Context Protocol.
type Server struct {
	ports   *Ports
	server  *mcp.Server
	version string
	token   string
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the version reported to clients.
func WithVersion(v string) Option {
	return func(s *Server) {
		if v != "" {
			s.version = v
		}
	}
}

// WithToken requires a bearer token on the HTTP transport.
// The stdio transport is unaffected.
func WithToken(token string) Option {
	return func(s *Server) {
		s.token = token
	}
}

// NewServer creates a new MCP server with the given ports.
func NewServer(ports *Ports, opts ...Option) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{ports: ports, version: DefaultVersion}
	for _, opt := range opts {
		opt(s)
	}

	s.server = mcp.NewServer(
		&mcp.Implementation{Name: "corpuswatch", Version: s.version},
		&mcp.ServerOptions{Instructions: instructions},
	)
	s.registerTools()
	s.registerResources()

	return s, nil
}

// Version returns the version reported to clients.
func (s *Server) Version() string {
	return s.version
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns the HTTP transport: /health is public and every other
// path is the streamable MCP endpoint.
func (s *Server) Handler() http.Handler {
	streamable := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Group(func(r chi.Router) {
		if s.token != "" {
			r.Use(httpapi.BearerAuth(s.token))
		}
		r.Handle("/*", streamable)
	})
	return r
}

// RunHTTP serves Handler on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("mcp http shutdown: %v", err)
		}
	}()

	logger.Info("mcp server listening on %s", addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
