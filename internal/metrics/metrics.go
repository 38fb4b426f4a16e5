package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type relayMetrics struct {
	submissionsTotal *prometheus.CounterVec
	outcomesTotal    *prometheus.CounterVec
	queueDepth       prometheus.Gauge
	dispatchDuration *prometheus.HistogramVec
	retriesTotal     prometheus.Counter
	endpointReady    prometheus.Gauge

	telegramSentTotal      prometheus.Counter
	telegramSendErrorTotal prometheus.Counter
}

var (
	metricsOnce sync.Once
	metricsInst *relayMetrics
	registry    *prometheus.Registry
)

func getMetrics() *relayMetrics {
	metricsOnce.Do(func() {
		m := &relayMetrics{
			submissionsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "relay_submissions_total",
					Help: "Inbound command submissions by kind.",
				},
				[]string{"kind"},
			),
			outcomesTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "relay_outcomes_total",
					Help: "Terminal outcomes by result and reason.",
				},
				[]string{"result", "reason"},
			),
			queueDepth: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "relay_queue_depth",
					Help: "Current number of pending admission tickets.",
				},
			),
			dispatchDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "relay_dispatch_duration_seconds",
					Help:    "Duration of LLM dispatch cycles in seconds.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"status"},
			),
			retriesTotal: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "relay_llm_retries_total",
					Help: "Total retried LLM calls.",
				},
			),
			endpointReady: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "relay_endpoint_ready",
					Help: "Whether the last health probe reported the LLM endpoint ready (1) or not (0).",
				},
			),
			telegramSentTotal: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "relay_telegram_messages_sent_total",
					Help: "Total Telegram replies sent.",
				},
			),
			telegramSendErrorTotal: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "relay_telegram_send_errors_total",
					Help: "Total failed Telegram reply deliveries.",
				},
			),
		}

		registry = prometheus.NewRegistry()
		registry.MustRegister(
			m.submissionsTotal,
			m.outcomesTotal,
			m.queueDepth,
			m.dispatchDuration,
			m.retriesTotal,
			m.endpointReady,
			m.telegramSentTotal,
			m.telegramSendErrorTotal,
		)

		metricsInst = m
	})
	return metricsInst
}

// EnsureRegistered forces metric registration. Safe to call multiple times.
func EnsureRegistered() {
	getMetrics()
}

// RecordSubmission counts one inbound command submission.
func RecordSubmission(kind string) {
	getMetrics().submissionsTotal.WithLabelValues(kind).Inc()
}

// RecordOutcome counts one terminal outcome.
func RecordOutcome(result, reason string) {
	if reason == "" {
		reason = "none"
	}
	getMetrics().outcomesTotal.WithLabelValues(result, reason).Inc()
}

// SetQueueDepth records the current pending-ticket count.
func SetQueueDepth(n int) {
	getMetrics().queueDepth.Set(float64(n))
}

// ObserveDispatch records the duration of one dispatch cycle.
func ObserveDispatch(seconds float64, status string) {
	getMetrics().dispatchDuration.WithLabelValues(status).Observe(seconds)
}

// RecordRetry counts one retried LLM call.
func RecordRetry() {
	getMetrics().retriesTotal.Inc()
}

// SetEndpointReady records the latest health-probe verdict.
func SetEndpointReady(ready bool) {
	v := 0.0
	if ready {
		v = 1.0
	}
	getMetrics().endpointReady.Set(v)
}

// RecordTelegramSent counts one delivered reply.
func RecordTelegramSent() {
	getMetrics().telegramSentTotal.Inc()
}

// RecordTelegramSendError counts one failed reply delivery.
func RecordTelegramSendError() {
	getMetrics().telegramSendErrorTotal.Inc()
}

// Handler returns an HTTP handler exposing the relay metrics.
func Handler() http.Handler {
	EnsureRegistered()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
