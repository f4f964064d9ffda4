package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

type requestObserver interface {
	ObserveRequest(method, route string, status int, d time.Duration)
}

type metricsMiddleware struct {
	obs requestObserver
}

func NewMetricsMiddleware(obs requestObserver) *metricsMiddleware {
	return &metricsMiddleware{obs: obs}
}

// MetricsMiddleware records request counts and latency labelled by the matched
// route pattern, so ids in the path do not explode label cardinality.
func (m *metricsMiddleware) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.obs.ObserveRequest(r.Method, route, status, time.Since(start))
	})
}
