package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/personnel-suite/pkg/logger"
)

// maxLoggedBody caps how much of a request or response body is kept for debug logs.
const maxLoggedBody = 4 << 10

// LoggingMiddleware writes one debug line per request and one line per
// response whose level follows the status class. Bodies pass through a
// Redactor first since person payloads carry salary and bank data.
func LoggingMiddleware(fallback *slog.Logger) func(next http.Handler) http.Handler {
	redactor := DefaultRedactor()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			lg := logger.FromOr(r.Context(), fallback)

			if lg.Enabled(r.Context(), slog.LevelDebug) {
				body := peekBody(r)
				lg.Debug("request received",
					"query", r.URL.RawQuery,
					"remote", r.RemoteAddr,
					"agent", r.UserAgent(),
					"headers", redactor.Headers(r.Header),
					"body", redactor.Body(body),
				)
			}

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			status := rec.Status()
			attrs := []any{
				"status", status,
				"bytes", rec.size,
				"elapsed_ms", time.Since(start).Milliseconds(),
			}
			if status >= http.StatusBadRequest {
				attrs = append(attrs, "body", redactor.Body(rec.captured.Bytes()))
			}
			lg.Log(r.Context(), levelFor(status), "request served", attrs...)
		})
	}
}

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// peekBody reads up to maxLoggedBody bytes and puts them back in front of the
// remaining stream so handlers still see the whole body.
func peekBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	head, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}
	return head
}

type statusRecorder struct {
	http.ResponseWriter
	status   int
	size     int
	captured bytes.Buffer
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	if room := maxLoggedBody - s.captured.Len(); room > 0 {
		if len(b) < room {
			room = len(b)
		}
		s.captured.Write(b[:room])
	}
	n, err := s.ResponseWriter.Write(b)
	s.size += n
	return n, err
}

func (s *statusRecorder) Status() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}
