// Package httpobs serves the optional, rank-0-only observability surface:
// Prometheus /metrics and a /health liveness check. Nothing in SPEC_FULL.md
// requires it — the detection run itself never calls an HTTP endpoint —
// but it is the ambient surface every stormgate-family binary carries
// (SPEC_FULL.md §3). Trimmed from internal/httpserver/router.go: no
// reverse proxy, no rate-limited demo routes, no draining, since this
// binary has nothing upstream to proxy to and no request traffic to
// drain away from.
package httpobs

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Serve blocks, serving NewRouter() on addr. The coordinator runs this in
// its own goroutine — the detection run itself never depends on it.
func Serve(addr string) error {
	return http.ListenAndServe(addr, NewRouter())
}

// NewRouter builds the chi router for /metrics and /health, the only two
// routes a batch fan-in detector has any use for.
func NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(accessLogger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not_found"}`))
	})

	return r
}

// accessLogger logs one line per request, adapted from
// internal/middleware/logging.go's AccessLogger without the env-driven
// sampling knob — this surface serves a handful of scrapes per run, not
// production request volume.
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sr, r)

		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sr.code).
			Dur("duration", time.Since(start)).
			Str("req_id", chimw.GetReqID(r.Context())).
			Msg("http_request")
	})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.code = code
	sr.ResponseWriter.WriteHeader(code)
}
