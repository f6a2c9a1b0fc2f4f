package logger

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func TestNewLoggerLevels(t *testing.T) {
	log := NewLogger("debug", "development")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log = NewLogger("nonsense", "development")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestNewLoggerProductionFormatter(t *testing.T) {
	log := NewLogger("info", "production")
	_, ok := log.Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok)
}

func TestRunLoggerStart(t *testing.T) {
	log, buf := setupTestLogger()
	runLogger := NewRunLogger(log)

	runLogger.LogRunStart(
		"momentum_12m",
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		60,
		5,
	)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "momentum_12m", logEntry["factor_name"])
	assert.Equal(t, "backtest", logEntry["component"])
	assert.Equal(t, float64(5), logEntry["num_splits"])
}

func TestRunLoggerSplitComplete(t *testing.T) {
	log, buf := setupTestLogger()
	runLogger := NewRunLogger(log)

	runLogger.LogSplitComplete(
		"momentum_12m",
		2,
		time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2021, 9, 1, 0, 0, 0, 0, time.UTC),
		1.15,
		0.031,
	)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, float64(2), logEntry["split"])
	assert.Equal(t, "2021-06-01", logEntry["test_start"])
}

func TestRunLoggerValidationFailed(t *testing.T) {
	log, buf := setupTestLogger()
	runLogger := NewRunLogger(log)

	runLogger.LogValidationResult("momentum_12m", false, 3, 1)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "validation", logEntry["event_type"])
	assert.Equal(t, false, logEntry["is_valid"])
	assert.Equal(t, "warning", logEntry["level"])
}

func TestRunLoggerValidationIssueSeverity(t *testing.T) {
	log, buf := setupTestLogger()
	runLogger := NewRunLogger(log)

	runLogger.LogValidationIssue("momentum_12m", "leakage_detected", "critical", "correlation with future returns = 0.4512")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "leakage_detected", logEntry["issue_type"])
	assert.Equal(t, "error", logEntry["level"])
}

func TestRunLoggerDecayDetected(t *testing.T) {
	log, buf := setupTestLogger()
	runLogger := NewRunLogger(log)

	runLogger.LogDecayReport("momentum_12m", -0.35, 0.05, 0.02, true)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "decay", logEntry["event_type"])
	assert.Equal(t, true, logEntry["decay_detected"])
	assert.Equal(t, "warning", logEntry["level"])
}

func TestLoggerJSONFormat(t *testing.T) {
	log, buf := setupTestLogger()
	runLogger := NewRunLogger(log)

	runLogger.LogRunComplete("momentum_12m", 1.21, -0.18, 0.034, 180.0, 4200.0)

	// Verify output is valid JSON
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	assert.NoError(t, err)
	assert.NotEmpty(t, logEntry)
}

func BenchmarkRunLoggerSplitComplete(b *testing.B) {
	log := logrus.New()
	log.SetOutput(&bytes.Buffer{})
	runLogger := NewRunLogger(log)

	start := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2021, 9, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < b.N; i++ {
		runLogger.LogSplitComplete("momentum_12m", i, start, end, 1.15, 0.031)
	}
}
