package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/sieve/internal/engine"
	"github.com/roach88/sieve/internal/graph"
	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/queryir"
	"github.com/roach88/sieve/internal/store"
)

// Error codes returned in the "code" field of error responses.
const (
	CodeInvalidPath         = engine.KindInvalidPath
	CodeArgumentConversion  = engine.KindArgumentConversion
	CodeInvalidFilter       = engine.KindInvalidFilter
	CodeUnsupportedPathKind = engine.KindUnsupportedPathKind
	CodeQueryFailed         = "query_failed"
)

// reserved routes cannot be used as endpoint names.
var reserved = map[string]bool{"/health": true, "/metrics": true}

// Finder runs a predicate against the rows of an entity.
type Finder interface {
	Find(ctx context.Context, e *graph.Entity, pred queryir.Predicate) ([]store.Row, error)
}

// Server routes requests for declared endpoints.
type Server struct {
	engine    *engine.Engine
	finder    Finder
	ids       IDGenerator
	endpoints []*engine.Endpoint
	router    *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithIDGenerator replaces the UUIDv7 request ID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Server) {
		if g != nil {
			s.ids = g
		}
	}
}

// New binds every endpoint and builds the router. An endpoint that fails
// to bind aborts construction.
func New(eng *engine.Engine, finder Finder, specs []ir.EndpointSpec, opts ...Option) (*Server, error) {
	s := &Server{
		engine: eng,
		finder: finder,
		ids:    UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(s)
	}

	seen := make(map[string]bool)
	for _, spec := range specs {
		if !strings.HasPrefix(spec.Name, "/") {
			return nil, fmt.Errorf("endpoint %s: name must start with \"/\"", spec.Name)
		}
		if reserved[spec.Name] {
			return nil, fmt.Errorf("endpoint %s: route is reserved", spec.Name)
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("endpoint %s: declared twice", spec.Name)
		}
		seen[spec.Name] = true

		ep, err := eng.Bind(spec)
		if err != nil {
			return nil, err
		}
		s.endpoints = append(s.endpoints, ep)
	}

	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "endpoints": len(s.endpoints)})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	for _, ep := range s.endpoints {
		router.GET(ep.Name, s.handle(ep))
		slog.Debug("endpoint registered", "endpoint", ep.Name, "root", ep.Root.Name, "filters", len(ep.Descriptors))
	}
	return router
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Endpoints returns the bound endpoints in declaration order.
func (s *Server) Endpoints() []*engine.Endpoint {
	return s.endpoints
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", addr, "endpoints", len(s.endpoints))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handle(ep *engine.Endpoint) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			RequestDuration.WithLabelValues(ep.Name).Observe(time.Since(start).Seconds())
		}()

		reqID := s.ids.Generate()
		c.Header("X-Request-ID", reqID)

		pred, err := s.engine.EvaluateEndpoint(ep, engine.Params(c.Request.URL.Query()))
		if err != nil {
			s.fail(c, ep, reqID, err)
			return
		}

		if fp, err := queryir.Fingerprint(pred); err == nil {
			c.Header("X-Filter-Fingerprint", fp)
		}

		rows, err := s.finder.Find(c.Request.Context(), ep.Root, pred)
		if err != nil {
			s.fail(c, ep, reqID, err)
			return
		}

		EvaluationsTotal.WithLabelValues(ep.Name, "ok").Inc()
		slog.Debug("request served", "request_id", reqID, "endpoint", ep.Name, "rows", len(rows))
		c.JSON(http.StatusOK, rows)
	}
}

func (s *Server) fail(c *gin.Context, ep *engine.Endpoint, reqID string, err error) {
	status, code := classify(err)
	EvaluationsTotal.WithLabelValues(ep.Name, code).Inc()

	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "request_id", reqID, "endpoint", ep.Name, "error", err)
	} else {
		slog.Debug("request rejected", "request_id", reqID, "endpoint", ep.Name, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

// classify maps an error to its HTTP status and error code.
func classify(err error) (int, string) {
	switch kind := engine.ErrorKind(err); kind {
	case CodeInvalidPath, CodeArgumentConversion, CodeInvalidFilter:
		return http.StatusBadRequest, kind
	case CodeUnsupportedPathKind:
		return http.StatusInternalServerError, kind
	default:
		return http.StatusInternalServerError, CodeQueryFailed
	}
}
