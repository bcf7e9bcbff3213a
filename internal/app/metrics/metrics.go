// Package metrics holds the Prometheus registry and the collectors exposed
// at /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "erp",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "erp",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "erp",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	transactionsPosted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "erp",
			Subsystem: "ledger",
			Name:      "transactions_posted_total",
			Help:      "Total number of accounting transactions posted.",
		},
		[]string{"organization"},
	)

	reportsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "erp",
			Subsystem: "reports",
			Name:      "generated_total",
			Help:      "Total number of financial reports generated.",
		},
		[]string{"report"},
	)

	periodsClosed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "erp",
			Subsystem: "periods",
			Name:      "closed_total",
			Help:      "Total number of fiscal periods closed.",
		},
	)

	productionRunTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "erp",
			Subsystem: "manufacturing",
			Name:      "production_run_transitions_total",
			Help:      "Total number of production run status transitions.",
		},
		[]string{"status"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		transactionsPosted,
		reportsGenerated,
		periodsClosed,
		productionRunTransitions,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordTransactionPosted counts a posted transaction.
func RecordTransactionPosted(organizationPartyID string) {
	if organizationPartyID == "" {
		organizationPartyID = "unknown"
	}
	transactionsPosted.WithLabelValues(organizationPartyID).Inc()
}

// RecordReportGenerated counts a generated report by name.
func RecordReportGenerated(report string) {
	reportsGenerated.WithLabelValues(report).Inc()
}

// RecordPeriodClosed counts a closed fiscal period.
func RecordPeriodClosed() {
	periodsClosed.Inc()
}

// RecordProductionRunTransition counts a production run status change.
func RecordProductionRunTransition(status string) {
	productionRunTransitions.WithLabelValues(status).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// canonicalPath collapses identifiers so metric labels stay bounded.
func canonicalPath(raw string) string {
	if raw == "" || raw == "/" {
		return "/"
	}
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	switch parts[0] {
	case "organizations":
		if len(parts) == 1 {
			return "/organizations"
		}
		if len(parts) == 2 {
			return "/organizations/:org"
		}
		out := "/organizations/:org/" + parts[2]
		if parts[2] == "reports" && len(parts) > 3 {
			out += "/" + parts[3]
		}
		return out
	case "manufacturing":
		if len(parts) == 1 {
			return "/manufacturing"
		}
		return "/manufacturing/" + parts[1]
	default:
		return "/" + parts[0]
	}
}
