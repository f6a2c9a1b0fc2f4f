// Package metrics defines backtesting-specific metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Backtest counter vectors
var (
	BacktestRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "alpha_lab",
		Name:      "backtest_runs_total",
		Help:      "Total number of backtest runs by factor and validation outcome",
	}, []string{"factor", "valid"})

	ValidationIssuesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "alpha_lab",
		Name:      "validation_issues_total",
		Help:      "Total number of validation issues by type and severity",
	}, []string{"type", "severity"})
)

// Backtest gauge vectors
var (
	FactorSharpe = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "alpha_lab",
		Name:      "factor_sharpe",
		Help:      "Latest aggregate walk-forward Sharpe ratio for each factor",
	}, []string{"factor"})

	FactorAvgIC = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "alpha_lab",
		Name:      "factor_avg_ic",
		Help:      "Latest mean per-split information coefficient for each factor",
	}, []string{"factor"})
)

// Backtest histograms
var (
	BacktestDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "alpha_lab",
		Name:      "backtest_duration_seconds",
		Help:      "Duration of walk-forward backtest runs in seconds",
		Buckets:   []float64{1, 5, 10, 30, 60, 300, 600, 1800},
	})
)

// RecordBacktestRun records a completed backtest run.
// valid should be "true" or "false".
func RecordBacktestRun(factor, valid string, durationSeconds float64) {
	BacktestRunsTotal.WithLabelValues(factor, valid).Inc()
	BacktestDuration.Observe(durationSeconds)
}

// RecordValidationIssue records a single validation issue.
func RecordValidationIssue(issueType, severity string) {
	ValidationIssuesTotal.WithLabelValues(issueType, severity).Inc()
}

// UpdateFactorScores updates the latest headline scores for a factor.
func UpdateFactorScores(factor string, sharpe, avgIC float64) {
	FactorSharpe.WithLabelValues(factor).Set(sharpe)
	FactorAvgIC.WithLabelValues(factor).Set(avgIC)
}
