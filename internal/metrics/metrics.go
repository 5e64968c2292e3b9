/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all agroguardian metrics. The API server exposes it
// on /metrics via promhttp.
var Registry = prometheus.NewRegistry()

var (
	// KPIValue tracks the latest computed value per KPI
	KPIValue = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "agroguardian_kpi_value",
			Help: "Latest computed value per KPI",
		},
		[]string{"firm", "kpi"},
	)

	// KPICalculationsTotal tracks the total number of KPI calculations performed
	KPICalculationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agroguardian_kpi_calculations_total",
			Help: "Total number of KPI calculations performed",
		},
		[]string{"frequency", "status"},
	)

	// RunDurationSeconds tracks the duration of orchestrator runs
	RunDurationSeconds = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "agroguardian_run_duration_seconds",
			Help: "Duration of the last orchestrator run per frequency tier",
		},
		[]string{"frequency"},
	)

	// AlertsTotal tracks the total number of alerts created
	AlertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agroguardian_alerts_total",
			Help: "Total number of alerts created",
		},
		[]string{"type", "priority"},
	)

	// AlertsDedupedTotal tracks alerts suppressed by deduplication
	AlertsDedupedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agroguardian_alerts_deduped_total",
			Help: "Total number of alerts suppressed because an equivalent pending alert exists",
		},
		[]string{"type"},
	)

	// PendingAlerts tracks the number of currently pending alerts
	PendingAlerts = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "agroguardian_pending_alerts",
			Help: "Number of currently pending alerts",
		},
		[]string{"priority"},
	)

	// RainfallChecksTotal tracks rainfall rule evaluations
	RainfallChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agroguardian_rainfall_checks_total",
			Help: "Total number of rainfall rule evaluations",
		},
		[]string{"rule", "result"},
	)

	// HistoryPrunedTotal tracks KPI history rows removed by retention
	HistoryPrunedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "agroguardian_history_pruned_total",
			Help: "Total number of KPI history rows removed by the retention job",
		},
	)
)

func init() {
	Registry.MustRegister(
		KPIValue,
		KPICalculationsTotal,
		RunDurationSeconds,
		AlertsTotal,
		AlertsDedupedTotal,
		PendingAlerts,
		RainfallChecksTotal,
		HistoryPrunedTotal,
	)
}

// RecordCalculation records a KPI calculation metric
func RecordCalculation(frequency, status string) {
	KPICalculationsTotal.WithLabelValues(frequency, status).Inc()
}

// RecordAlert records an alert creation metric
func RecordAlert(alertType, priority string) {
	AlertsTotal.WithLabelValues(alertType, priority).Inc()
}

// RecordAlertDeduped records an alert suppressed by deduplication
func RecordAlertDeduped(alertType string) {
	AlertsDedupedTotal.WithLabelValues(alertType).Inc()
}

// RecordRainfallCheck records a rainfall rule evaluation
func RecordRainfallCheck(rule, result string) {
	RainfallChecksTotal.WithLabelValues(rule, result).Inc()
}

// UpdateKPIValue updates the latest value gauge for a KPI
func UpdateKPIValue(firm, kpi string, value float64) {
	KPIValue.WithLabelValues(firm, kpi).Set(value)
}

// UpdateRunDuration updates the run duration gauge for a frequency tier
func UpdateRunDuration(frequency string, seconds float64) {
	RunDurationSeconds.WithLabelValues(frequency).Set(seconds)
}

// UpdatePendingAlerts updates the pending alerts gauge
func UpdatePendingAlerts(priority string, count float64) {
	PendingAlerts.WithLabelValues(priority).Set(count)
}

// RecordHistoryPruned records KPI history rows removed by retention
func RecordHistoryPruned(count int64) {
	HistoryPrunedTotal.Add(float64(count))
}
