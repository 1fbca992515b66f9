// Package server is the northbound REST API of policy-actors: it lists the
// actors and runs operations against them through the actor service.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/thc1006/onap-policy-actors/pkg/actor"
	"github.com/thc1006/onap-policy-actors/pkg/logging"
)

// Config configures the listener.
type Config struct {
	Address         string
	ShutdownTimeout time.Duration
}

// Server serves the northbound API.
type Server struct {
	cfg      Config
	log      logging.Logger
	service  *actor.Service
	gatherer prometheus.Gatherer
	router   *mux.Router

	mu       sync.RWMutex
	listener net.Listener
}

// New returns a server for service. Metrics are served from gatherer, or
// the default registry when it is nil.
func New(cfg Config, service *actor.Service, gatherer prometheus.Gatherer) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	s := &Server{
		cfg:      cfg,
		log:      logging.NewLogger(logging.ComponentServer),
		service:  service,
		gatherer: gatherer,
		router:   mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.panicRecoveryMiddleware, s.requestLoggingMiddleware)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	v1 := s.router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/actors", s.handleListActors).Methods(http.MethodGet)
	v1.HandleFunc("/actors/{actor}/operations/{operation}", s.handleRunOperation).Methods(http.MethodPost)
}

// Handler returns the API handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the bound address once Start is listening.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.InfoEvent("Northbound API listening", "addr", listener.Addr().String())
		return httpServer.Serve(listener)
	})

	g.Go(func() error {
		<-gCtx.Done()
		s.log.InfoEvent("Shutting down northbound API")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)
		s.log.HTTPRequest(r.Method, r.URL.Path, wrapper.statusCode, time.Since(start).Seconds())
	})
}

func (s *Server) panicRecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.ErrorEvent(fmt.Errorf("panic: %v", rec), "Request panic recovered",
					"method", r.Method, "path", r.URL.Path)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// responseWriterWrapper captures the status code for the request log.
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}
