// Package logger provides backtest-specific logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// RunLogger provides dedicated logging for backtest run lifecycle events.
type RunLogger struct {
	*logrus.Entry
}

// NewRunLogger creates a new backtest run logger.
func NewRunLogger(baseLogger *logrus.Logger) *RunLogger {
	return &RunLogger{
		Entry: baseLogger.WithField("component", "backtest"),
	}
}

// LogRunStart logs the beginning of a walk-forward run.
func (rl *RunLogger) LogRunStart(factorName string, startDate, endDate time.Time, numTickers, numSplits int) {
	rl.WithFields(logrus.Fields{
		"factor_name": factorName,
		"start_date":  startDate.Format("2006-01-02"),
		"end_date":    endDate.Format("2006-01-02"),
		"num_tickers": numTickers,
		"num_splits":  numSplits,
	}).Info("Walk-forward run started")
}

// LogSplitComplete logs completion of a single walk-forward split.
func (rl *RunLogger) LogSplitComplete(factorName string, splitIndex int, testStart, testEnd time.Time, sharpe, avgIC float64) {
	rl.WithFields(logrus.Fields{
		"factor_name": factorName,
		"split":       splitIndex,
		"test_start":  testStart.Format("2006-01-02"),
		"test_end":    testEnd.Format("2006-01-02"),
		"sharpe":      sharpe,
		"avg_ic":      avgIC,
	}).Debug("Split completed")
}

// LogRunComplete logs completion of the full run with headline metrics.
func (rl *RunLogger) LogRunComplete(factorName string, sharpe, maxDD, avgIC, turnoverMonthly float64, durationMs float64) {
	rl.WithFields(logrus.Fields{
		"factor_name":      factorName,
		"sharpe":           sharpe,
		"max_drawdown":     maxDD,
		"avg_ic":           avgIC,
		"turnover_monthly": turnoverMonthly,
		"duration_ms":      durationMs,
	}).Info("Walk-forward run completed")
}

// LogValidationResult logs the validator's verdict on a run.
func (rl *RunLogger) LogValidationResult(factorName string, isValid bool, numIssues, numFatal int) {
	fields := logrus.Fields{
		"factor_name": factorName,
		"event_type":  "validation",
		"is_valid":    isValid,
		"num_issues":  numIssues,
		"num_fatal":   numFatal,
	}
	if isValid {
		rl.WithFields(fields).Info("Validation passed")
	} else {
		rl.WithFields(fields).Warn("Validation failed")
	}
}

// LogValidationIssue logs a single validation issue at a level matching its
// severity.
func (rl *RunLogger) LogValidationIssue(factorName, issueType, severity, detail string) {
	entry := rl.WithFields(logrus.Fields{
		"factor_name": factorName,
		"issue_type":  issueType,
		"severity":    severity,
	})
	switch severity {
	case "critical", "error":
		entry.Error(detail)
	case "warning":
		entry.Warn(detail)
	default:
		entry.Info(detail)
	}
}

// LogDecayReport logs the result of signal decay tracking.
func (rl *RunLogger) LogDecayReport(factorName string, decayRate, initialIC, finalIC float64, decayDetected bool) {
	fields := logrus.Fields{
		"factor_name":    factorName,
		"event_type":     "decay",
		"decay_rate":     decayRate,
		"initial_ic":     initialIC,
		"final_ic":       finalIC,
		"decay_detected": decayDetected,
	}
	if decayDetected {
		rl.WithFields(fields).Warn("Signal decay detected")
	} else {
		rl.WithFields(fields).Info("Signal decay checked")
	}
}
