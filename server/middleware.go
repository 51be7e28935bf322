package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/cogni-dao/proposal-launcher/deeplink"
	"github.com/cogni-dao/proposal-launcher/proposal"
)

// RequestIDHeader carries the request id in requests and responses.
const RequestIDHeader = "X-Request-Id"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	paramsKey
)

// RequestID returns the id assigned to the request carried by ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// paramsFromContext returns the params validated by DeeplinkGuard.
func paramsFromContext(ctx context.Context) (deeplink.Params, bool) {
	p, ok := ctx.Value(paramsKey).(deeplink.Params)
	return p, ok
}

// requestID keeps a well formed incoming request id and assigns a new one otherwise.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// instrument logs and counts every served request by route pattern and status.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		s.metrics.observe(route, r.Method, status)
		s.lggr.Infow("Served request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", time.Since(start),
			"requestId", RequestID(r.Context()),
		)
	})
}

// DeeplinkGuard rejects requests to deeplink routes whose query does not satisfy the route schema
// with 400 and a plain text body. Validated params are passed to the route handler. Requests to
// other paths pass through untouched.
func DeeplinkGuard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		def, ok := proposal.LookupRoute(r.URL.Path)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		params, ok := def.Validate(r.URL.Query())
		if !ok {
			http.Error(w, "Invalid parameters for "+def.Kind.Route(), http.StatusBadRequest)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), paramsKey, params)))
	})
}
