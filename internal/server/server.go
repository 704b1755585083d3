// Package server provides the leapfmt HTTP formatting service.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	intconfig "github.com/leapstack-labs/leapfmt/internal/config"
	"github.com/leapstack-labs/leapfmt/pkg/core"
	"github.com/leapstack-labs/leapfmt/pkg/dialect"
	"github.com/leapstack-labs/leapfmt/pkg/format"
	"github.com/leapstack-labs/leapfmt/pkg/verify"
)

// MaxRequestSize bounds request bodies.
const MaxRequestSize = 4 << 20

// RequestIDHeader carries the request ID on every response.
const RequestIDHeader = "X-Request-ID"

// Server is the formatting service.
type Server struct {
	addr   string
	format *core.FormatConfig
	logger *slog.Logger
}

// Config holds configuration for the server.
type Config struct {
	Addr string

	// Format is the base configuration; requests may override a few keys.
	Format *core.FormatConfig
	Logger *slog.Logger
}

// New creates a server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{addr: cfg.Addr, format: cfg.Format, logger: logger}
}

// FormatRequest is the JSON body of POST /format.
type FormatRequest struct {
	SQL       string `json:"sql"`
	Dialect   string `json:"dialect,omitempty"`
	LineWidth int    `json:"line_width,omitempty"`
	Verify    bool   `json:"verify,omitempty"`
}

// FormatResponse is the JSON reply of POST /format.
type FormatResponse struct {
	ID        string `json:"id"`
	Formatted string `json:"formatted"`
	Changed   bool   `json:"changed"`
}

// DialectInfo describes one registered dialect.
type DialectInfo struct {
	Name       string `json:"name"`
	Procedural bool   `json:"procedural"`
	Keywords   int    `json:"keywords"`
}

type errorResponse struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

type requestIDKey struct{}

// Handler returns the HTTP routes of the service.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		s.requestID,
		middleware.Recoverer,
		middleware.RequestSize(MaxRequestSize),
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})
	r.Get("/dialects", s.handleDialects)
	r.Post("/format", s.handleFormat)
	return r
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until the context is cancelled.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.logger.Info("starting format server", "addr", ln.Addr().String())

	eg, egctx := errgroup.WithContext(ctx)
	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down format server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// requestID tags each request with a fresh ID, echoed in the response.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set(RequestIDHeader, id)
		start := time.Now()
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
		s.logger.Debug("request",
			slog.String("id", id),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Duration("elapsed", time.Since(start)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *Server) handleDialects(w http.ResponseWriter, r *http.Request) {
	var out []DialectInfo
	for _, name := range dialect.List() {
		d, ok := dialect.Get(name)
		if !ok {
			continue
		}
		out = append(out, DialectInfo{Name: d.Name, Procedural: d.Procedural(), Keywords: len(d.Keywords())})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleFormat formats a JSON FormatRequest, or a plain SQL body with the
// base configuration.
func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	id := requestIDFrom(r.Context())
	logger := s.logger.With(slog.String("id", id))

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			s.fail(w, id, http.StatusRequestEntityTooLarge, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, format.String(string(body), s.format, format.WithLogger(logger)))
		return
	}

	var req FormatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, id, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	cfg := *s.format
	if req.Dialect != "" {
		cfg.Dialect = req.Dialect
	}
	if req.LineWidth != 0 {
		cfg.LineWidth = req.LineWidth
	}
	if err := intconfig.Validate(&cfg); err != nil {
		s.fail(w, id, http.StatusBadRequest, err)
		return
	}

	formatted := format.String(req.SQL, &cfg, format.WithLogger(logger))
	if req.Verify {
		if err := verify.Equivalent(req.SQL, formatted); err != nil {
			logger.Warn("formatted text is not equivalent", slog.Any("error", err))
			s.fail(w, id, http.StatusUnprocessableEntity, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, FormatResponse{ID: id, Formatted: formatted, Changed: formatted != req.SQL})
}

func (s *Server) fail(w http.ResponseWriter, id string, status int, err error) {
	writeJSON(w, status, errorResponse{ID: id, Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
