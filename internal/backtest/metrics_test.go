package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/yourusername/alpha-lab/internal/timeseries"
)

func testDates(n int) []time.Time {
	dates := make([]time.Time, n)
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	return dates
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestSharpe(t *testing.T) {
	// mean 0.02, sample std sqrt(2e-4): annualizes to ~22.45
	got := Sharpe([]float64{0.01, 0.03}, 0)
	if !almostEqual(got, 22.4499, 1e-3) {
		t.Fatalf("expected Sharpe ~22.4499, got %v", got)
	}
}

func TestSharpeRiskFree(t *testing.T) {
	returns := []float64{0.01, 0.03}
	withRF := Sharpe(returns, 0.02)
	withoutRF := Sharpe(returns, 0)
	if withRF >= withoutRF {
		t.Fatalf("risk-free rate should lower Sharpe: %v >= %v", withRF, withoutRF)
	}
}

func TestSharpeDegenerate(t *testing.T) {
	if got := Sharpe([]float64{0.01}, 0); got != 0 {
		t.Fatalf("expected 0 for a single observation, got %v", got)
	}
	if got := Sharpe([]float64{0.01, 0.01, 0.01}, 0); got != 0 {
		t.Fatalf("expected 0 for zero volatility, got %v", got)
	}
	if got := Sharpe(nil, 0); got != 0 {
		t.Fatalf("expected 0 for empty input, got %v", got)
	}
}

func TestMaxDrawdown(t *testing.T) {
	got := MaxDrawdown([]float64{1.0, 1.2, 0.9, 1.1})
	if !almostEqual(got, -0.25, 1e-12) {
		t.Fatalf("expected -0.25, got %v", got)
	}
}

func TestMaxDrawdownMonotonic(t *testing.T) {
	got := MaxDrawdown([]float64{1.0, 1.1, 1.2, 1.3})
	if got != 0 {
		t.Fatalf("expected 0 for a monotonic curve, got %v", got)
	}
}

func TestDrawdownProfile(t *testing.T) {
	// One closed drawdown (indices 2-3, recovered at 4) and one still open.
	equity := []float64{1.0, 1.2, 0.9, 1.0, 1.3, 1.25}
	stats := DrawdownProfile(equity)

	if !almostEqual(stats.MaxDD, -0.25, 1e-12) {
		t.Fatalf("expected MaxDD -0.25, got %v", stats.MaxDD)
	}
	if !almostEqual(stats.DDDuration, 2, 1e-12) {
		t.Fatalf("expected mean duration 2, got %v", stats.DDDuration)
	}
	if !almostEqual(stats.RecoveryTime, 2, 1e-12) {
		t.Fatalf("expected mean recovery 2, got %v", stats.RecoveryTime)
	}

	wantAvg := (-0.25 - 0.2/1.2 - 0.05/1.3) / 3
	if !almostEqual(stats.AvgDD, wantAvg, 1e-9) {
		t.Fatalf("expected AvgDD %v, got %v", wantAvg, stats.AvgDD)
	}
}

func TestInformationCoefficientPerfect(t *testing.T) {
	dates := testDates(5)
	scores := timeseries.NewSeries(dates, []float64{1, 2, 3, 4, 5})
	rets := timeseries.NewSeries(dates, []float64{0.01, 0.02, 0.03, 0.04, 0.05})

	if got := InformationCoefficient(scores, rets, "spearman"); !almostEqual(got, 1, 1e-12) {
		t.Fatalf("expected IC 1, got %v", got)
	}

	inverted := timeseries.NewSeries(dates, []float64{0.05, 0.04, 0.03, 0.02, 0.01})
	if got := InformationCoefficient(scores, inverted, "spearman"); !almostEqual(got, -1, 1e-12) {
		t.Fatalf("expected IC -1, got %v", got)
	}
}

func TestInformationCoefficientTies(t *testing.T) {
	dates := testDates(4)
	scores := timeseries.NewSeries(dates, []float64{1, 1, 2, 3})
	rets := timeseries.NewSeries(dates, []float64{1, 2, 3, 4})

	// Tied scores take average ranks {1.5, 1.5, 3, 4}.
	got := InformationCoefficient(scores, rets, "spearman")
	if !almostEqual(got, 0.948683, 1e-5) {
		t.Fatalf("expected IC ~0.9487, got %v", got)
	}
}

func TestInformationCoefficientNaN(t *testing.T) {
	dates := testDates(5)
	scores := timeseries.NewSeries(dates, []float64{1, math.NaN(), 3, 4, 5})
	rets := timeseries.NewSeries(dates, []float64{0.01, 0.02, math.NaN(), 0.04, 0.05})

	if got := InformationCoefficient(scores, rets, "spearman"); !almostEqual(got, 1, 1e-12) {
		t.Fatalf("expected IC 1 after dropping NaN pairs, got %v", got)
	}
}

func TestInformationCoefficientTooFewObs(t *testing.T) {
	dates := testDates(1)
	scores := timeseries.NewSeries(dates, []float64{1})
	rets := timeseries.NewSeries(dates, []float64{0.01})

	if got := InformationCoefficient(scores, rets, "spearman"); got != 0 {
		t.Fatalf("expected 0 for fewer than 2 observations, got %v", got)
	}
}

func TestRollingICLength(t *testing.T) {
	n := 25
	window := 21
	dates := testDates(n)
	values := make([]float64, n)
	rets := make([]float64, n)
	for i := range values {
		values[i] = float64(i % 7)
		rets[i] = float64((i * 3) % 5)
	}

	rolling := RollingIC(timeseries.NewSeries(dates, values), timeseries.NewSeries(dates, rets), window)
	if len(rolling) != n-window {
		t.Fatalf("expected %d rolling values, got %d", n-window, len(rolling))
	}

	short := RollingIC(timeseries.NewSeries(dates[:10], values[:10]), timeseries.NewSeries(dates[:10], rets[:10]), window)
	if short != nil {
		t.Fatalf("expected nil for series shorter than window, got %v", short)
	}
}

func TestInformationRatio(t *testing.T) {
	got := InformationRatio([]float64{0.1, 0.2, 0.3})
	if !almostEqual(got, 2.0, 1e-12) {
		t.Fatalf("expected IR 2.0, got %v", got)
	}
	if got := InformationRatio([]float64{0.1}); got != 0 {
		t.Fatalf("expected 0 for a single value, got %v", got)
	}
	if got := InformationRatio([]float64{0.1, 0.1, 0.1}); got != 0 {
		t.Fatalf("expected 0 for zero dispersion, got %v", got)
	}
}

func TestPortfolioTurnover(t *testing.T) {
	panel := timeseries.NewPanel(testDates(3), []string{"A", "B"})
	panel.Values[0] = []float64{0.5, -0.5}
	panel.Values[1] = []float64{0.25, -0.25}
	panel.Values[2] = []float64{0.5, -0.5}

	got := PortfolioTurnover(panel)
	if !almostEqual(got, 1.0/3.0, 1e-12) {
		t.Fatalf("expected turnover 1/3, got %v", got)
	}

	monthly := MonthlyTurnover(panel)
	if !almostEqual(monthly, 700, 1e-9) {
		t.Fatalf("expected monthly turnover 700%%, got %v", monthly)
	}
}

func TestPortfolioTurnoverStaticBook(t *testing.T) {
	panel := timeseries.NewPanel(testDates(4), []string{"A"})
	for i := range panel.Values {
		panel.Values[i][0] = 0.5
	}
	if got := PortfolioTurnover(panel); got != 0 {
		t.Fatalf("expected 0 turnover for a static book, got %v", got)
	}
}

func TestHitRate(t *testing.T) {
	got := HitRate([]float64{0.01, -0.01, 0.02, 0})
	if !almostEqual(got, 0.5, 1e-12) {
		t.Fatalf("expected hit rate 0.5, got %v", got)
	}
	if got := HitRate(nil); got != 0 {
		t.Fatalf("expected 0 for empty input, got %v", got)
	}
}

func TestSkewKurtosisGuards(t *testing.T) {
	if got := Skewness([]float64{0.01, 0.02}); got != 0 {
		t.Fatalf("expected 0 skew below 3 observations, got %v", got)
	}
	if got := Kurtosis([]float64{0.01, 0.02, 0.03}); got != 0 {
		t.Fatalf("expected 0 kurtosis below 4 observations, got %v", got)
	}
}

func TestCalculateAllMetrics(t *testing.T) {
	dates := testDates(30)
	values := make([]float64, 30)
	for i := range values {
		values[i] = 0.01 * math.Sin(float64(i)) // deterministic, nonzero variance
	}
	returns := timeseries.NewSeries(dates, values)

	rec := CalculateAllMetrics(MetricsInput{Returns: returns})

	if rec.Sharpe != Sharpe(values, 0) {
		t.Fatalf("Sharpe mismatch: %v vs %v", rec.Sharpe, Sharpe(values, 0))
	}
	if rec.AnnVol <= 0 {
		t.Fatalf("expected positive annualized vol, got %v", rec.AnnVol)
	}
	if rec.MaxDD > 0 {
		t.Fatalf("MaxDD must not be positive, got %v", rec.MaxDD)
	}
	if rec.Turnover != 0 || rec.AvgIC != 0 {
		t.Fatalf("metrics without inputs must be zero: turnover=%v ic=%v", rec.Turnover, rec.AvgIC)
	}
}

func TestCalculateAllMetricsWithScores(t *testing.T) {
	n := 60
	dates := testDates(n)
	scoreVals := make([]float64, n)
	retVals := make([]float64, n)
	for i := range scoreVals {
		scoreVals[i] = math.Sin(float64(i) * 0.7)
		retVals[i] = scoreVals[i] * 0.01 // perfectly aligned signal
	}
	scores := timeseries.NewSeries(dates, scoreVals)
	rets := timeseries.NewSeries(dates, retVals)

	rec := CalculateAllMetrics(MetricsInput{
		Returns:     rets,
		Scores:      &scores,
		NextReturns: &rets,
	})

	if !almostEqual(rec.AvgIC, 1, 1e-9) {
		t.Fatalf("expected AvgIC 1 for a perfectly aligned signal, got %v", rec.AvgIC)
	}
}
