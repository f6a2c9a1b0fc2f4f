// Package metrics provides the centralized Prometheus metrics registry for the
// backtesting service.
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
	DataFetchesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "alpha_lab",
		Name:      "data_fetches_total",
		Help:      "Total number of panel fetches by source and status",
	}, []string{"source", "status"})
	SchedulerRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "alpha_lab",
		Name:      "scheduler_runs_total",
		Help:      "Total number of scheduled refresh runs",
	})
	CircuitBreakerTripsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "alpha_lab",
		Name:      "circuit_breaker_trips_total",
		Help:      "Total number of HTTP circuit breaker trips",
	})
)

// Gauge metrics
var (
	PanelTickers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "alpha_lab",
		Name:      "panel_tickers",
		Help:      "Number of tickers in the most recently loaded panel",
	})
	PanelDays = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "alpha_lab",
		Name:      "panel_days",
		Help:      "Number of trading days in the most recently loaded panel",
	})
)

// Histogram metrics
var (
	DataFetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "alpha_lab",
		Name:      "data_fetch_duration_seconds",
		Help:      "Duration of panel fetch operations in seconds",
		Buckets:   prometheus.DefBuckets,
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(DataFetchesTotal)
		registry.MustRegister(SchedulerRunsTotal)
		registry.MustRegister(CircuitBreakerTripsTotal)

		// Register gauge metrics
		registry.MustRegister(PanelTickers)
		registry.MustRegister(PanelDays)

		// Register histogram metrics
		registry.MustRegister(DataFetchDuration)

		// Register backtest metrics
		registry.MustRegister(BacktestRunsTotal)
		registry.MustRegister(ValidationIssuesTotal)
		registry.MustRegister(FactorSharpe)
		registry.MustRegister(FactorAvgIC)
		registry.MustRegister(BacktestDuration)
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

// RecordDataFetch records a panel fetch event.
func RecordDataFetch(source, status string, durationSeconds float64) {
	DataFetchesTotal.WithLabelValues(source, status).Inc()
	DataFetchDuration.Observe(durationSeconds)
}

// RecordSchedulerRun records a scheduled refresh run.
func RecordSchedulerRun() {
	SchedulerRunsTotal.Inc()
}

// RecordCircuitBreakerTrip records a circuit breaker trip event.
func RecordCircuitBreakerTrip() {
	CircuitBreakerTripsTotal.Inc()
}

// UpdatePanelShape updates the loaded panel shape gauges.
func UpdatePanelShape(days, tickers int) {
	PanelDays.Set(float64(days))
	PanelTickers.Set(float64(tickers))
}
