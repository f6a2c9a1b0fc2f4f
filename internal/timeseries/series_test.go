package timeseries

import (
	"math"
	"testing"
	"time"
)

func mkDates(n int) []time.Time {
	dates := make([]time.Time, n)
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	return dates
}

func TestSeriesShift(t *testing.T) {
	s := NewSeries(mkDates(3), []float64{1, 2, 3})

	fwd := s.Shift(1)
	if !math.IsNaN(fwd.Values[0]) || fwd.Values[1] != 1 || fwd.Values[2] != 2 {
		t.Fatalf("unexpected forward shift: %v", fwd.Values)
	}

	back := s.Shift(-1)
	if back.Values[0] != 2 || back.Values[1] != 3 || !math.IsNaN(back.Values[2]) {
		t.Fatalf("unexpected backward shift: %v", back.Values)
	}
}

func TestSeriesBetween(t *testing.T) {
	dates := mkDates(5)
	s := NewSeries(dates, []float64{1, 2, 3, 4, 5})

	sub := s.Between(dates[1], dates[3])
	if sub.Len() != 3 || sub.Values[0] != 2 || sub.Values[2] != 4 {
		t.Fatalf("unexpected slice: %v", sub.Values)
	}

	empty := s.Between(dates[4].AddDate(0, 0, 1), dates[4].AddDate(0, 0, 2))
	if empty.Len() != 0 {
		t.Fatalf("expected empty slice, got %v", empty.Values)
	}
}

func TestSeriesCumProd1p(t *testing.T) {
	s := NewSeries(mkDates(4), []float64{0.1, math.NaN(), -0.5, 0.0})
	eq := s.CumProd1p()

	want := []float64{1.1, 1.1, 0.55, 0.55}
	for i, w := range want {
		if math.Abs(eq.Values[i]-w) > 1e-12 {
			t.Fatalf("equity[%d]: expected %v, got %v", i, w, eq.Values[i])
		}
	}
}

func TestSeriesDropNaN(t *testing.T) {
	s := NewSeries(mkDates(4), []float64{1, math.NaN(), 3, math.NaN()})
	clean := s.DropNaN()
	if clean.Len() != 2 || clean.Values[0] != 1 || clean.Values[1] != 3 {
		t.Fatalf("unexpected DropNaN result: %v", clean.Values)
	}
}

func TestConcat(t *testing.T) {
	dates := mkDates(5)
	a := NewSeries(dates[:2], []float64{1, 2})
	b := NewSeries(dates[2:], []float64{3, 4, 5})

	joined := Concat(a, b)
	if joined.Len() != 5 {
		t.Fatalf("expected 5 observations, got %d", joined.Len())
	}
	if joined.Values[0] != 1 || joined.Values[4] != 5 {
		t.Fatalf("unexpected values: %v", joined.Values)
	}
	if !joined.Dates[2].Equal(dates[2]) {
		t.Fatalf("dates not carried through")
	}
}

func TestAlignDropNaN(t *testing.T) {
	dates := mkDates(5)
	a := NewSeries(dates, []float64{1, math.NaN(), 3, 4, 5})
	b := NewSeries(dates[1:], []float64{20, 30, math.NaN(), 50})

	x, y := AlignDropNaN(a, b)
	if len(x) != 2 {
		t.Fatalf("expected 2 aligned pairs, got %d", len(x))
	}
	if x[0] != 3 || y[0] != 30 || x[1] != 5 || y[1] != 50 {
		t.Fatalf("unexpected pairs: %v %v", x, y)
	}
}

func TestQuantile(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	// Linear interpolation between order statistics.
	if got := Quantile(values, 0.9); math.Abs(got-9.1) > 1e-12 {
		t.Fatalf("expected 9.1, got %v", got)
	}
	if got := Quantile(values, 0.5); math.Abs(got-5.5) > 1e-12 {
		t.Fatalf("expected 5.5, got %v", got)
	}
	if got := Quantile(values, 0); got != 1 {
		t.Fatalf("expected min, got %v", got)
	}
	if got := Quantile(values, 1); got != 10 {
		t.Fatalf("expected max, got %v", got)
	}
	if got := Quantile([]float64{math.NaN(), 2, 4}, 0.5); got != 3 {
		t.Fatalf("NaN must be skipped, got %v", got)
	}
	if got := Quantile(nil, 0.5); !math.IsNaN(got) {
		t.Fatalf("expected NaN on empty input, got %v", got)
	}
}

func TestRollingMean(t *testing.T) {
	s := NewSeries(mkDates(5), []float64{1, 2, 3, 4, 5})
	rm := RollingMean(s, 3)

	if !math.IsNaN(rm.Values[0]) || !math.IsNaN(rm.Values[1]) {
		t.Fatalf("warmup must be NaN: %v", rm.Values[:2])
	}
	if rm.Values[2] != 2 || rm.Values[3] != 3 || rm.Values[4] != 4 {
		t.Fatalf("unexpected rolling means: %v", rm.Values)
	}
}

func TestRollingStd(t *testing.T) {
	s := NewSeries(mkDates(4), []float64{1, 2, 3, 4})
	rs := RollingStd(s, 3)

	if !math.IsNaN(rs.Values[1]) {
		t.Fatalf("warmup must be NaN, got %v", rs.Values[1])
	}
	// Sample std of {1,2,3} is 1.
	if math.Abs(rs.Values[2]-1) > 1e-12 || math.Abs(rs.Values[3]-1) > 1e-12 {
		t.Fatalf("unexpected rolling std: %v", rs.Values)
	}
}
