package timeseries

import (
	"math"
	"sort"
	"time"
)

// Panel is a dates-by-tickers matrix. Dates are ascending and unique, tickers
// are unique; Values[i][j] is the observation for (Dates[i], Tickers[j]).
type Panel struct {
	Dates   []time.Time
	Tickers []string
	Values  [][]float64
}

// NewPanel allocates a panel of the given shape filled with NaN.
func NewPanel(dates []time.Time, tickers []string) *Panel {
	values := make([][]float64, len(dates))
	for i := range values {
		row := make([]float64, len(tickers))
		for j := range row {
			row[j] = math.NaN()
		}
		values[i] = row
	}
	return &Panel{Dates: dates, Tickers: tickers, Values: values}
}

// Len returns the number of dates.
func (p *Panel) Len() int {
	return len(p.Dates)
}

// NumTickers returns the number of instrument columns.
func (p *Panel) NumTickers() int {
	return len(p.Tickers)
}

// Row returns the cross-section for date index i.
func (p *Panel) Row(i int) []float64 {
	return p.Values[i]
}

// Copy returns a deep copy of the panel.
func (p *Panel) Copy() *Panel {
	dates := make([]time.Time, len(p.Dates))
	copy(dates, p.Dates)
	tickers := make([]string, len(p.Tickers))
	copy(tickers, p.Tickers)
	values := make([][]float64, len(p.Values))
	for i, row := range p.Values {
		values[i] = make([]float64, len(row))
		copy(values[i], row)
	}
	return &Panel{Dates: dates, Tickers: tickers, Values: values}
}

// Between returns a view of the rows with start <= date <= end. The returned
// panel shares row storage with the receiver.
func (p *Panel) Between(start, end time.Time) *Panel {
	lo := sort.Search(len(p.Dates), func(i int) bool { return !p.Dates[i].Before(start) })
	hi := sort.Search(len(p.Dates), func(i int) bool { return p.Dates[i].After(end) })
	return &Panel{Dates: p.Dates[lo:hi], Tickers: p.Tickers, Values: p.Values[lo:hi]}
}

// Shift moves rows forward by periods (positive), filling vacated rows with
// NaN. The date index is unchanged.
func (p *Panel) Shift(periods int) *Panel {
	n := p.Len()
	values := make([][]float64, n)
	for i := range values {
		src := i - periods
		row := make([]float64, p.NumTickers())
		if src < 0 || src >= n {
			for j := range row {
				row[j] = math.NaN()
			}
		} else {
			copy(row, p.Values[src])
		}
		values[i] = row
	}
	return &Panel{Dates: p.Dates, Tickers: p.Tickers, Values: values}
}

// CrossSectionMean returns the per-date mean across tickers, skipping NaN
// cells. A date with no observations yields NaN.
func (p *Panel) CrossSectionMean() Series {
	values := make([]float64, p.Len())
	for i, row := range p.Values {
		sum := 0.0
		count := 0
		for _, v := range row {
			if math.IsNaN(v) {
				continue
			}
			sum += v
			count++
		}
		if count == 0 {
			values[i] = math.NaN()
			continue
		}
		values[i] = sum / float64(count)
	}
	return Series{Dates: p.Dates, Values: values}
}

// Align intersects two panels on both their date indices and ticker sets,
// returning copies restricted to the common shape in the first panel's
// ticker order.
func Align(a, b *Panel) (*Panel, *Panel) {
	dates := intersectDates(a.Dates, b.Dates)
	tickers := intersectTickers(a.Tickers, b.Tickers)
	return a.reindex(dates, tickers), b.reindex(dates, tickers)
}

func (p *Panel) reindex(dates []time.Time, tickers []string) *Panel {
	dateIdx := make(map[time.Time]int, len(p.Dates))
	for i, d := range p.Dates {
		dateIdx[d] = i
	}
	tickerIdx := make(map[string]int, len(p.Tickers))
	for j, t := range p.Tickers {
		tickerIdx[t] = j
	}
	out := NewPanel(dates, tickers)
	for i, d := range dates {
		srcRow, ok := dateIdx[d]
		if !ok {
			continue
		}
		for j, t := range tickers {
			srcCol, ok := tickerIdx[t]
			if !ok {
				continue
			}
			out.Values[i][j] = p.Values[srcRow][srcCol]
		}
	}
	return out
}

func intersectDates(a, b []time.Time) []time.Time {
	set := make(map[time.Time]struct{}, len(b))
	for _, d := range b {
		set[d] = struct{}{}
	}
	out := make([]time.Time, 0, len(a))
	for _, d := range a {
		if _, ok := set[d]; ok {
			out = append(out, d)
		}
	}
	return out
}

func intersectTickers(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, t := range b {
		set[t] = struct{}{}
	}
	out := make([]string, 0, len(a))
	for _, t := range a {
		if _, ok := set[t]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Returns derives a simple percentage-change panel from a price panel. The
// first row is dropped.
func Returns(prices *Panel) *Panel {
	if prices.Len() < 2 {
		return &Panel{Tickers: prices.Tickers}
	}
	dates := prices.Dates[1:]
	out := NewPanel(dates, prices.Tickers)
	for i := 1; i < prices.Len(); i++ {
		for j := range prices.Tickers {
			prev := prices.Values[i-1][j]
			curr := prices.Values[i][j]
			if math.IsNaN(prev) || math.IsNaN(curr) || prev == 0 {
				continue
			}
			out.Values[i-1][j] = (curr - prev) / prev
		}
	}
	return out
}
