package backtest

import (
	"math"

	"github.com/yourusername/alpha-lab/internal/timeseries"
)

// Regime labels for volatility and trend classification.
const (
	RegimeHighVol = "high_vol"
	RegimeLowVol  = "low_vol"
	RegimeNormal  = "normal"
	RegimeBull    = "bull"
	RegimeBear    = "bear"
	RegimeNeutral = "neutral"
)

// ClassifyVolatilityRegime labels each date by its trailing annualized
// volatility relative to the series median. Dates more than threshold above
// the median are high_vol, more than threshold below are low_vol, and the
// warmup period stays normal.
func ClassifyVolatilityRegime(returns timeseries.Series, window int, threshold float64) []string {
	vol := timeseries.RollingStd(returns, window)
	annFactor := math.Sqrt(periodsPerYear)
	for i, v := range vol.Values {
		vol.Values[i] = v * annFactor
	}

	medianVol := timeseries.Quantile(vol.Values, 0.5)
	highThreshold := medianVol * (1 + threshold)
	lowThreshold := medianVol * (1 - threshold)

	regimes := make([]string, returns.Len())
	for i, v := range vol.Values {
		switch {
		case v > highThreshold:
			regimes[i] = RegimeHighVol
		case v < lowThreshold:
			regimes[i] = RegimeLowVol
		default:
			regimes[i] = RegimeNormal
		}
	}
	return regimes
}

// ClassifyTrendRegime labels each date bull or bear by a moving-average
// crossover of the price series. Dates where either average is still warming
// up stay neutral.
func ClassifyTrendRegime(prices timeseries.Series, shortWindow, longWindow int) []string {
	shortMA := timeseries.RollingMean(prices, shortWindow)
	longMA := timeseries.RollingMean(prices, longWindow)

	regimes := make([]string, prices.Len())
	for i := range regimes {
		s := shortMA.Values[i]
		l := longMA.Values[i]
		switch {
		case s > l:
			regimes[i] = RegimeBull
		case s < l:
			regimes[i] = RegimeBear
		default:
			regimes[i] = RegimeNeutral
		}
	}
	return regimes
}

// selectRegime returns the subset of returns whose date carries the given
// label in either classification.
func selectRegime(returns timeseries.Series, volRegimes, trendRegimes []string, regime string) []float64 {
	var labels []string
	switch regime {
	case RegimeHighVol, RegimeLowVol, RegimeNormal:
		labels = volRegimes
	case RegimeBull, RegimeBear, RegimeNeutral:
		labels = trendRegimes
	default:
		return nil
	}

	out := make([]float64, 0, returns.Len())
	for i, label := range labels {
		if label == regime {
			out = append(out, returns.Values[i])
		}
	}
	return out
}
