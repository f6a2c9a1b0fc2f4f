package backtest

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/yourusername/alpha-lab/internal/timeseries"
)

const (
	decayICWindow      = 63
	decayMinPeriods    = 10
	decayDetectLevel   = -0.2
	decayHalfLifeLevel = -0.1
)

// DecayReport summarizes how a factor's predictive power has drifted over
// the sample. DecayRate is negative when the IC has weakened; HalfLife is
// set only when an exponential fit to a decaying IC series converged.
type DecayReport struct {
	DecayRate     float64   `json:"decay_rate"`
	InitialIC     float64   `json:"initial_ic"`
	FinalIC       float64   `json:"final_ic"`
	DecayDetected bool      `json:"decay_detected"`
	HalfLife      *float64  `json:"half_life,omitempty"`
	ICSeries      []float64 `json:"ic_series,omitempty"`
	NPeriods      int       `json:"n_periods"`
}

// TrackICDecay measures the drift in rolling IC between the first and last
// thirds of the sample. Signals and returns are joined on date with NaN
// pairs dropped before the rolling windows are cut.
func TrackICDecay(signals, returns timeseries.Series, window, minPeriods int) DecayReport {
	if window <= 0 {
		window = decayICWindow
	}
	if minPeriods <= 0 {
		minPeriods = decayMinPeriods
	}

	s, r := timeseries.AlignDropNaN(signals, returns)
	if len(s) < minPeriods {
		return DecayReport{}
	}

	rollingIC := make([]float64, 0, len(s)-window)
	for i := window; i < len(s); i++ {
		rollingIC = append(rollingIC, icFromValues(s[i-window:i], r[i-window:i], "spearman"))
	}
	if len(rollingIC) < minPeriods {
		return DecayReport{}
	}

	third := len(rollingIC) / 3
	initialIC := stat.Mean(rollingIC[:third], nil)
	finalIC := stat.Mean(rollingIC[len(rollingIC)-third:], nil)

	decayRate := (finalIC - initialIC) / (math.Abs(initialIC) + 0.01)

	report := DecayReport{
		DecayRate:     decayRate,
		InitialIC:     initialIC,
		FinalIC:       finalIC,
		DecayDetected: decayRate < decayDetectLevel,
		ICSeries:      rollingIC,
		NPeriods:      len(rollingIC),
	}

	if decayRate < decayHalfLifeLevel {
		report.HalfLife = estimateHalfLife(rollingIC)
	}

	return report
}

// estimateHalfLife fits an exponential decay model IC(t) = IC(0)*exp(-l*t)
// over the positive IC observations. Returns nil when too few points remain
// or the fitted series is not actually decaying.
func estimateHalfLife(icSeries []float64) *float64 {
	xs := make([]float64, 0, len(icSeries))
	logYs := make([]float64, 0, len(icSeries))
	for i, ic := range icSeries {
		if ic > 0 && !math.IsInf(ic, 0) && !math.IsNaN(ic) {
			xs = append(xs, float64(i))
			logYs = append(logYs, math.Log(ic))
		}
	}
	if len(xs) <= 5 {
		return nil
	}

	_, slope := stat.LinearRegression(xs, logYs, nil, false)
	lambda := -slope
	if lambda <= 0 {
		return nil
	}

	halfLife := math.Ln2 / lambda
	return &halfLife
}
