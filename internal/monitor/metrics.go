package monitor

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/turtacn/healthbeacon/pkg/logger"
)

var (
	// EvaluationsTotal counts health evaluations, partitioned by lifecycle moment and verdict.
	EvaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "healthbeacon_evaluations_total",
		Help: "Total number of component tree health evaluations",
	}, []string{"moment", "verdict"})
	// UnhealthyComponents is the number of unhealthy nodes found by the last evaluation.
	UnhealthyComponents = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "healthbeacon_unhealthy_components",
		Help: "Unhealthy components found by the last evaluation",
	})
	// NotificationsTotal counts delivery attempts per channel and result.
	NotificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "healthbeacon_notifications_total",
		Help: "Total number of verdict notifications attempted",
	}, []string{"channel", "result"})
	// ShutdownStepsTotal counts stop/destroy invocations on startup failure.
	ShutdownStepsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "healthbeacon_shutdown_steps_total",
		Help: "Total number of shutdown steps invoked after a failed startup",
	}, []string{"step", "result"})
)

var registerOnce sync.Once

// Verdict renders a verdict as a metric label.
func Verdict(healthy bool) string {
	return strconv.FormatBool(healthy)
}

// Result renders an error outcome as a metric label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// InitMetrics registers Prometheus metrics and, when addr is non-empty, starts
// an HTTP server to expose them. Registration happens once per process.
func InitMetrics(addr string) {
	registerOnce.Do(func() {
		prometheus.MustRegister(EvaluationsTotal)
		prometheus.MustRegister(UnhealthyComponents)
		prometheus.MustRegister(NotificationsTotal)
		prometheus.MustRegister(ShutdownStepsTotal)
	})

	if addr == "" {
		return
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		logger.Log.Info("Metrics server starting", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Log.Error("Metrics server failed", "err", err)
		}
	}()
}
