package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// errorCodeHeader mirrors api.ErrorCodeHeader; this package cannot import api.
const errorCodeHeader = "X-Error-Code"

// statusRecorder captures the status and size of a response.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

type loggerOptions struct {
	quiet map[string]bool
	slow  time.Duration
}

type LoggerOption func(*loggerOptions)

// WithQuietPaths logs successful requests to paths at debug, for probes such
// as health checks and metric scrapes.
func WithQuietPaths(paths ...string) LoggerOption {
	return func(o *loggerOptions) {
		for _, p := range paths {
			o.quiet[p] = true
		}
	}
}

// WithSlowThreshold logs successful requests slower than d at warn.
func WithSlowThreshold(d time.Duration) LoggerOption {
	return func(o *loggerOptions) { o.slow = d }
}

// Logger writes one access log line per request. Failed requests carry the
// error code set by api.WriteError.
func Logger(log zerolog.Logger, opts ...LoggerOption) func(next http.Handler) http.Handler {
	o := loggerOptions{quiet: make(map[string]bool)}
	for _, opt := range opts {
		opt(&o)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rw, r)
			latency := time.Since(start)
			slow := o.slow > 0 && latency > o.slow

			var evt *zerolog.Event
			switch {
			case rw.status >= http.StatusInternalServerError:
				evt = log.Error()
			case rw.status >= http.StatusBadRequest, slow:
				evt = log.Warn()
			case o.quiet[r.URL.Path]:
				evt = log.Debug()
			default:
				evt = log.Info()
			}

			if code := rw.Header().Get(errorCodeHeader); code != "" {
				evt = evt.Str("error_code", code)
			}
			if slow {
				evt = evt.Bool("slow", true)
			}
			evt.
				Str("request_id", GetRequestID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Int("status", rw.status).
				Int64("bytes", rw.bytes).
				Dur("latency", latency).
				Msg("http_request")
		})
	}
}
