// Package server serves deeplink previews and the metadata pinning API over HTTP.
//
// Deeplink routes are guarded: a request whose query does not satisfy the route schema is
// answered with 400 before any handler runs.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cogni-dao/proposal-launcher/chain/evm"
	"github.com/cogni-dao/proposal-launcher/ipfs"
	"github.com/cogni-dao/proposal-launcher/pkg/logger"
	"github.com/cogni-dao/proposal-launcher/proposal"
)

const (
	// DefaultShutdownTimeout bounds graceful shutdown in ListenAndServe.
	DefaultShutdownTimeout = 10 * time.Second

	readHeaderTimeout = 10 * time.Second
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(lggr logger.Logger) Option {
	return func(s *Server) {
		s.lggr = lggr
	}
}

// WithRegistry sets the registry served on /metrics. HTTP metrics are registered with it.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = registry
	}
}

// WithPinner sets the pinning backend of /api/ipfs. Without one the route answers 500.
func WithPinner(p ipfs.Pinner) Option {
	return func(s *Server) {
		s.pinner = p
	}
}

// WithAppHost sets the host /api/ipfs accepts requests for. The www subdomain is accepted too.
func WithAppHost(host string) Option {
	return func(s *Server) {
		s.appHost = host
	}
}

// WithChain enables live faucet state in join previews for the chain's sender account.
func WithChain(chain evm.Chain) Option {
	return func(s *Server) {
		s.chain = &chain
	}
}

// WithEncodeOptions passes options to the action encoders of previews.
func WithEncodeOptions(opts ...proposal.EncodeOption) Option {
	return func(s *Server) {
		s.encodeOpts = append(s.encodeOpts, opts...)
	}
}

// WithClock overrides the clock used for created timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// Server is the HTTP surface of the launcher. It implements http.Handler.
type Server struct {
	lggr       logger.Logger
	registry   *prometheus.Registry
	pinner     ipfs.Pinner
	appHost    string
	chain      *evm.Chain
	encodeOpts []proposal.EncodeOption
	now        func() time.Time

	metrics *metrics
	router  chi.Router
}

// New returns a Server with all routes mounted.
func New(opts ...Option) *Server {
	s := &Server{
		lggr: logger.Nop(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	s.lggr = s.lggr.Named("server")
	s.metrics = newMetrics(s.registry)
	s.router = s.routes()

	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	for _, def := range proposal.Definitions {
		r.With(DeeplinkGuard).HandleFunc(def.Kind.Route(), s.handlePreview(def))
	}
	r.HandleFunc("/api/ipfs", s.handleIPFS)
	r.HandleFunc("/api/meta", s.handleMeta)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.lggr.Infow("Listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.lggr.Info("Server stopped")

	return nil
}
