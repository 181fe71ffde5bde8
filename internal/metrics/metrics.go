// Package metrics provides the centralized Prometheus metrics registry for the
// decision core.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	ModelActivationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sharp_edge",
		Name:      "model_activations_total",
		Help:      "Total number of model version activations",
	})
	DriftEvaluationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sharp_edge",
		Name:      "drift_evaluations_total",
		Help:      "Total number of drift evaluations",
	})
	DriftVerdictsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sharp_edge",
		Name:      "drift_verdicts_total",
		Help:      "Total drift verdicts by outcome",
	}, []string{"outcome"})
	AlertsRaisedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sharp_edge",
		Name:      "alerts_raised_total",
		Help:      "Total number of alerts raised by severity",
	}, []string{"severity"})
	AlertsAcknowledgedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sharp_edge",
		Name:      "alerts_acknowledged_total",
		Help:      "Total number of alerts acknowledged",
	})
	WebhookDeliveryFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sharp_edge",
		Name:      "webhook_delivery_failures_total",
		Help:      "Total number of failed alert webhook deliveries",
	})
)

// Gauge metrics
var (
	OverallPSI = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "sharp_edge",
		Name:      "overall_psi",
		Help:      "Mean population stability index for the latest drift evaluation",
	}, []string{"model_version"})
	UnacknowledgedCritAlerts = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sharp_edge",
		Name:      "unacknowledged_crit_alerts",
		Help:      "Unacknowledged critical alerts in the last 24 hours",
	})
)

// Histogram metrics
var (
	DriftScanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sharp_edge",
		Name:      "drift_scan_duration_seconds",
		Help:      "Duration of scheduled drift scans in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(ModelActivationsTotal)
		registry.MustRegister(DriftEvaluationsTotal)
		registry.MustRegister(DriftVerdictsTotal)
		registry.MustRegister(AlertsRaisedTotal)
		registry.MustRegister(AlertsAcknowledgedTotal)
		registry.MustRegister(WebhookDeliveryFailuresTotal)

		registry.MustRegister(OverallPSI)
		registry.MustRegister(UnacknowledgedCritAlerts)

		registry.MustRegister(DriftScanDuration)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordModelActivation records a model activation event.
func RecordModelActivation() {
	ModelActivationsTotal.Inc()
}

// RecordDriftEvaluation records a drift evaluation and its verdict.
func RecordDriftEvaluation(drifted bool) {
	DriftEvaluationsTotal.Inc()
	if drifted {
		DriftVerdictsTotal.WithLabelValues("drifted").Inc()
	} else {
		DriftVerdictsTotal.WithLabelValues("stable").Inc()
	}
}

// RecordDriftScan records the duration of a scheduled drift scan.
func RecordDriftScan(durationSeconds float64) {
	DriftScanDuration.Observe(durationSeconds)
}

// RecordAlertRaised records a raised alert by severity.
func RecordAlertRaised(severity string) {
	AlertsRaisedTotal.WithLabelValues(severity).Inc()
}

// RecordAlertAcknowledged records an alert acknowledgment.
func RecordAlertAcknowledged() {
	AlertsAcknowledgedTotal.Inc()
}

// RecordWebhookFailure records a failed webhook delivery.
func RecordWebhookFailure() {
	WebhookDeliveryFailuresTotal.Inc()
}

// UpdateOverallPSI updates the mean PSI gauge for a model version.
func UpdateOverallPSI(modelVersion string, psi float64) {
	OverallPSI.WithLabelValues(modelVersion).Set(psi)
}

// UpdateUnacknowledgedCritAlerts updates the rolling unacked crit alert gauge.
func UpdateUnacknowledgedCritAlerts(count float64) {
	UnacknowledgedCritAlerts.Set(count)
}
