// Package middleware contains the HTTP decorators used on both sides of the
// wire:
//
//   - Logger wraps an http.Handler (the local OAuth callback server).
//   - Transport wraps an http.RoundTripper (every call to the remote API).
//
// Both follow the same decorator shape: take the next handler/transport,
// return a new one that does something before and after delegating.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/sakif/portfolio/internal/perf"
)

// responseWriter wraps http.ResponseWriter to capture the status code.
// http.ResponseWriter doesn't expose the status after WriteHeader is called,
// so we record it ourselves.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Logger returns an HTTP middleware that logs each request with slog.
//
// Each log line includes: method, path, status code, duration, and bytes written.
// The query string is NOT logged: the OAuth callback carries the bearer token
// in it.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK, // Default if WriteHeader is never called
			}

			next.ServeHTTP(wrapped, r)

			logger.Info("request completed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", wrapped.statusCode),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("bytes", wrapped.written),
			)
		})
	}
}

// RoundTripperFunc lets a plain function satisfy http.RoundTripper, the
// client-side twin of http.HandlerFunc.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// Transport logs every outgoing request and, when monitor is non-nil, records
// its latency as "METHOD /path". A nil next means http.DefaultTransport.
//
// The latency is measured until response headers arrive (RoundTrip returns
// before the body is read), i.e. time to first byte.
func Transport(next http.RoundTripper, logger *slog.Logger, monitor *perf.Monitor) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		start := time.Now()
		resp, err := next.RoundTrip(r)
		elapsed := time.Since(start)

		if err != nil {
			logger.Error("api request failed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Duration("duration", elapsed),
				slog.String("error", err.Error()),
			)
			return nil, err
		}

		logger.Debug("api request completed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", resp.StatusCode),
			slog.Duration("duration", elapsed),
		)
		if monitor != nil {
			monitor.Record(r.Method+" "+r.URL.Path, elapsed, perf.DefaultResponseTarget)
		}
		return resp, nil
	})
}
