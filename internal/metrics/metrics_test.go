package metrics

import (
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRegistry(t *testing.T) {
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
}

func TestRecordDataFetch(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordDataFetch("csv", "success", 0.12)
	})
}

func TestRecordSchedulerRun(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordSchedulerRun()
	})
}

func TestRecordCircuitBreakerTrip(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordCircuitBreakerTrip()
	})
}

func TestUpdatePanelShape(t *testing.T) {
	InitRegistry()

	tests := []struct {
		name    string
		days    int
		tickers int
	}{
		{
			name:    "full panel",
			days:    800,
			tickers: 60,
		},
		{
			name:    "empty panel",
			days:    0,
			tickers: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				UpdatePanelShape(tt.days, tt.tickers)
			})
		})
	}
}

func TestMetricsHandler(t *testing.T) {
	InitRegistry()

	handler := Handler()
	assert.NotNil(t, handler)
	assert.Implements(t, (*http.Handler)(nil), handler)
}

func TestBacktestMetrics(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordBacktestRun("momentum_12m", "true", 42.5)
	})

	assert.NotPanics(t, func() {
		RecordValidationIssue("high_turnover", "warning")
	})

	assert.NotPanics(t, func() {
		UpdateFactorScores("momentum_12m", 1.21, 0.034)
	})
}

func BenchmarkRecordDataFetch(b *testing.B) {
	InitRegistry()

	for i := 0; i < b.N; i++ {
		RecordDataFetch("csv", "success", 0.1)
	}
}

func BenchmarkUpdatePanelShape(b *testing.B) {
	InitRegistry()

	for i := 0; i < b.N; i++ {
		UpdatePanelShape(800, 60)
	}
}
