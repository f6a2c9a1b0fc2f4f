// Package timeseries provides date-indexed series and panel types used by the
// backtesting engine. Missing observations are encoded as NaN; callers are
// expected to align indices before arithmetic.
package timeseries

import (
	"math"
	"sort"
	"time"
)

// Series is a date-indexed vector of float64 values. Dates are ascending and
// unique; Values[i] belongs to Dates[i].
type Series struct {
	Dates  []time.Time
	Values []float64
}

// NewSeries builds a series from parallel date/value slices.
func NewSeries(dates []time.Time, values []float64) Series {
	return Series{Dates: dates, Values: values}
}

// Len returns the number of observations.
func (s Series) Len() int {
	return len(s.Values)
}

// Copy returns a deep copy of the series.
func (s Series) Copy() Series {
	dates := make([]time.Time, len(s.Dates))
	values := make([]float64, len(s.Values))
	copy(dates, s.Dates)
	copy(values, s.Values)
	return Series{Dates: dates, Values: values}
}

// Shift moves values forward by periods (positive) or backward (negative),
// filling vacated slots with NaN. The date index is unchanged.
func (s Series) Shift(periods int) Series {
	n := s.Len()
	values := make([]float64, n)
	for i := range values {
		src := i - periods
		if src < 0 || src >= n {
			values[i] = math.NaN()
			continue
		}
		values[i] = s.Values[src]
	}
	return Series{Dates: s.Dates, Values: values}
}

// Between returns the sub-series with start <= date <= end.
func (s Series) Between(start, end time.Time) Series {
	lo := sort.Search(len(s.Dates), func(i int) bool { return !s.Dates[i].Before(start) })
	hi := sort.Search(len(s.Dates), func(i int) bool { return s.Dates[i].After(end) })
	return Series{Dates: s.Dates[lo:hi], Values: s.Values[lo:hi]}
}

// CumProd1p returns the running product of (1 + value), the equity curve of a
// return series. NaN inputs contribute a zero return.
func (s Series) CumProd1p() Series {
	values := make([]float64, s.Len())
	cum := 1.0
	for i, v := range s.Values {
		if !math.IsNaN(v) {
			cum *= 1 + v
		}
		values[i] = cum
	}
	return Series{Dates: s.Dates, Values: values}
}

// DropNaN returns the series without NaN observations.
func (s Series) DropNaN() Series {
	dates := make([]time.Time, 0, s.Len())
	values := make([]float64, 0, s.Len())
	for i, v := range s.Values {
		if math.IsNaN(v) {
			continue
		}
		dates = append(dates, s.Dates[i])
		values = append(values, v)
	}
	return Series{Dates: dates, Values: values}
}

// Concat joins series in the given order. Inputs are assumed chronologically
// disjoint and ordered, as produced by sequential test windows.
func Concat(series ...Series) Series {
	total := 0
	for _, s := range series {
		total += s.Len()
	}
	dates := make([]time.Time, 0, total)
	values := make([]float64, 0, total)
	for _, s := range series {
		dates = append(dates, s.Dates...)
		values = append(values, s.Values...)
	}
	return Series{Dates: dates, Values: values}
}

// AlignDropNaN intersects two series on their date indices and drops pairs
// where either side is NaN, returning the paired value slices.
func AlignDropNaN(a, b Series) ([]float64, []float64) {
	bIndex := make(map[time.Time]float64, b.Len())
	for i, d := range b.Dates {
		bIndex[d] = b.Values[i]
	}
	x := make([]float64, 0, a.Len())
	y := make([]float64, 0, a.Len())
	for i, d := range a.Dates {
		bv, ok := bIndex[d]
		if !ok {
			continue
		}
		av := a.Values[i]
		if math.IsNaN(av) || math.IsNaN(bv) {
			continue
		}
		x = append(x, av)
		y = append(y, bv)
	}
	return x, y
}

// Quantile computes the q-th quantile of the non-NaN values using linear
// interpolation between order statistics. Returns NaN on empty input.
func Quantile(values []float64, q float64) float64 {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return math.NaN()
	}
	sort.Float64s(clean)
	if q <= 0 {
		return clean[0]
	}
	if q >= 1 {
		return clean[len(clean)-1]
	}
	pos := q * float64(len(clean)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return clean[lo]
	}
	frac := pos - float64(lo)
	return clean[lo]*(1-frac) + clean[hi]*frac
}

// RollingMean computes the trailing window mean; the first window-1 entries
// are NaN.
func RollingMean(s Series, window int) Series {
	n := s.Len()
	values := make([]float64, n)
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += s.Values[i]
		if i >= window {
			sum -= s.Values[i-window]
		}
		if i < window-1 {
			values[i] = math.NaN()
			continue
		}
		values[i] = sum / float64(window)
	}
	return Series{Dates: s.Dates, Values: values}
}

// RollingStd computes the trailing window sample standard deviation; the
// first window-1 entries are NaN.
func RollingStd(s Series, window int) Series {
	n := s.Len()
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		if i < window-1 || window < 2 {
			values[i] = math.NaN()
			continue
		}
		win := s.Values[i-window+1 : i+1]
		mean := 0.0
		for _, v := range win {
			mean += v
		}
		mean /= float64(window)
		variance := 0.0
		for _, v := range win {
			d := v - mean
			variance += d * d
		}
		variance /= float64(window - 1)
		values[i] = math.Sqrt(variance)
	}
	return Series{Dates: s.Dates, Values: values}
}
