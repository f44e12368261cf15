package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "personnel"

type collectors struct {
	eventsPublished   *prometheus.CounterVec
	eventsConsumed    *prometheus.CounterVec
	roleSyncCalls     *prometheus.CounterVec
	notificationsSent *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

var singleton = sync.OnceValue(func() *collectors {
	return &collectors{
		eventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Domain events handed to the broker.",
		}, []string{"type", "result"}),
		eventsConsumed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_consumed_total",
			Help:      "Domain events read from the broker by workers.",
		}, []string{"type", "result"}),
		roleSyncCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "role_sync_calls_total",
			Help:      "Calls made to the identity provider to converge account roles.",
		}, []string{"operation", "result"}),
		notificationsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "E-mail notifications handed to the mailer.",
		}, []string{"template", "result"}),
		httpRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
})

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func EventPublished(eventType string, err error) {
	singleton().eventsPublished.WithLabelValues(eventType, result(err)).Inc()
}

func EventConsumed(eventType string, err error) {
	singleton().eventsConsumed.WithLabelValues(eventType, result(err)).Inc()
}

func RoleSync(operation string, err error) {
	singleton().roleSyncCalls.WithLabelValues(operation, result(err)).Inc()
}

func NotificationSent(template string, err error) {
	singleton().notificationsSent.WithLabelValues(template, result(err)).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency keyed by the chi route
// pattern, which keeps label cardinality bounded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		c := singleton()
		c.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		c.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
