package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "silentsignals",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "silentsignals",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// Dispatch metrics
	dispatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "silentsignals",
			Subsystem: "dispatch",
			Name:      "total",
			Help:      "Total number of alert dispatch attempts by mode and result",
		},
		[]string{"mode", "result"},
	)

	channelAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "silentsignals",
			Subsystem: "dispatch",
			Name:      "channel_attempts_total",
			Help:      "Total number of per-contact channel delivery attempts",
		},
		[]string{"channel", "status"},
	)

	admissionDeniedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "silentsignals",
			Subsystem: "ratelimit",
			Name:      "denied_total",
			Help:      "Total number of alert triggers denied by rate limiting",
		},
	)

	// Reminder metrics
	reminderRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "silentsignals",
			Subsystem: "reminder",
			Name:      "runs_total",
			Help:      "Total number of reminder scheduler runs",
		},
		[]string{"result"},
	)

	reminderDispatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "silentsignals",
			Subsystem: "reminder",
			Name:      "dispatches_total",
			Help:      "Total number of reminder dispatches by result",
		},
		[]string{"result"},
	)
)

// RecordDispatch records the result of one dispatch pipeline invocation
func RecordDispatch(mode, result string) {
	dispatchesTotal.WithLabelValues(mode, result).Inc()
}

// RecordChannelAttempt records one per-contact channel delivery attempt
func RecordChannelAttempt(channel, status string) {
	channelAttemptsTotal.WithLabelValues(channel, status).Inc()
}

// RecordAdmissionDenied records a rate-limited alert trigger
func RecordAdmissionDenied() {
	admissionDeniedTotal.Inc()
}

// RecordReminderRun records the outcome of one scheduler run
func RecordReminderRun(result string) {
	reminderRunsTotal.WithLabelValues(result).Inc()
}

// RecordReminderDispatch records one per-alert reminder dispatch outcome
func RecordReminderDispatch(result string) {
	reminderDispatchesTotal.WithLabelValues(result).Inc()
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)

			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				path = rctx.RoutePattern()
			}

			status := strconv.Itoa(ww.status)
			httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
