// Package metrics provides Prometheus metrics for the HTTP server and for the
// reference sheet and schedule pipelines.
//
// HTTP metrics:
//   - http_request_total: Counter with method, path, and status labels
//   - http_request_duration_seconds: Histogram with method and path labels
//   - http_request_in_flight: Gauge for concurrent requests
//
// Domain metrics:
//   - reference_sheet_loads_total: Counter with sheet and status labels
//   - reference_sheet_rows: Gauge with sheet label, rows kept from the last good load
//   - schedules_built_total: Counter with source label (prescription, schedule)
//   - schedule_entries_total: Counter with group label (pre_medication, treatment)
//
// All metrics are registered with the Prometheus default registry during
// package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen in last ~5 minutes)",
		},
	)

	SheetLoadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reference_sheet_loads_total",
			Help: "Reference sheet load attempts",
		},
		[]string{"sheet", "status"},
	)

	SheetRows = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reference_sheet_rows",
			Help: "Rows kept from the last successful sheet load",
		},
		[]string{"sheet"},
	)

	SchedulesBuiltTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedules_built_total",
			Help: "Administration schedules built",
		},
		[]string{"source"},
	)

	ScheduleEntriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedule_entries_total",
			Help: "Schedule entries produced",
		},
		[]string{"group"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(SheetLoadsTotal)
	prometheus.MustRegister(SheetRows)
	prometheus.MustRegister(SchedulesBuiltTotal)
	prometheus.MustRegister(ScheduleEntriesTotal)
}

// ObserveSchedule records a built schedule and its entry counts
func ObserveSchedule(source string, preMedication, treatment int) {
	SchedulesBuiltTotal.WithLabelValues(source).Inc()
	ScheduleEntriesTotal.WithLabelValues("pre_medication").Add(float64(preMedication))
	ScheduleEntriesTotal.WithLabelValues("treatment").Add(float64(treatment))
}
