package backtest

import (
	"math"
	"testing"

	"github.com/yourusername/alpha-lab/internal/timeseries"
)

func TestTrackICDecayStableSignal(t *testing.T) {
	n := 100
	dates := testDates(n)
	sig := make([]float64, n)
	ret := make([]float64, n)
	for i := 0; i < n; i++ {
		sig[i] = math.Sin(float64(i) * 0.7)
		ret[i] = sig[i] * 0.01
	}

	report := TrackICDecay(timeseries.NewSeries(dates, sig), timeseries.NewSeries(dates, ret), 10, 5)

	if report.NPeriods != n-10 {
		t.Fatalf("expected %d rolling periods, got %d", n-10, report.NPeriods)
	}
	if !almostEqual(report.InitialIC, 1, 1e-9) || !almostEqual(report.FinalIC, 1, 1e-9) {
		t.Fatalf("stable signal must keep IC at 1: initial=%v final=%v", report.InitialIC, report.FinalIC)
	}
	if report.DecayDetected {
		t.Fatalf("no decay expected for a stable signal")
	}
	if report.HalfLife != nil {
		t.Fatalf("no half-life expected for a stable signal, got %v", *report.HalfLife)
	}
}

func TestTrackICDecayInvertedSignal(t *testing.T) {
	n := 100
	dates := testDates(n)
	sig := make([]float64, n)
	ret := make([]float64, n)
	for i := 0; i < n; i++ {
		sig[i] = math.Sin(float64(i) * 0.7)
		// Signal works early, then flips against the factor.
		if i < 50 {
			ret[i] = sig[i] * 0.01
		} else {
			ret[i] = -sig[i] * 0.01
		}
	}

	report := TrackICDecay(timeseries.NewSeries(dates, sig), timeseries.NewSeries(dates, ret), 10, 5)

	if !report.DecayDetected {
		t.Fatalf("expected decay detection, rate=%v", report.DecayRate)
	}
	if report.DecayRate >= -0.2 {
		t.Fatalf("expected decay rate below -0.2, got %v", report.DecayRate)
	}
	if !almostEqual(report.InitialIC, 1, 1e-9) {
		t.Fatalf("expected initial IC 1, got %v", report.InitialIC)
	}
	if !almostEqual(report.FinalIC, -1, 1e-9) {
		t.Fatalf("expected final IC -1, got %v", report.FinalIC)
	}
}

func TestTrackICDecayInsufficientData(t *testing.T) {
	dates := testDates(5)
	sig := timeseries.NewSeries(dates, []float64{1, 2, 3, 4, 5})
	ret := timeseries.NewSeries(dates, []float64{1, 2, 3, 4, 5})

	report := TrackICDecay(sig, ret, 10, 10)
	if report.NPeriods != 0 || report.DecayDetected {
		t.Fatalf("expected empty report for insufficient data, got %+v", report)
	}
}

func TestTrackICDecayNaNHandling(t *testing.T) {
	n := 60
	dates := testDates(n)
	sig := make([]float64, n)
	ret := make([]float64, n)
	for i := 0; i < n; i++ {
		sig[i] = math.Sin(float64(i) * 0.7)
		ret[i] = sig[i] * 0.01
	}
	sig[3] = math.NaN()
	ret[7] = math.NaN()

	report := TrackICDecay(timeseries.NewSeries(dates, sig), timeseries.NewSeries(dates, ret), 10, 5)
	if report.NPeriods != n-2-10 {
		t.Fatalf("NaN pairs must be dropped before windowing: got %d periods", report.NPeriods)
	}
}
