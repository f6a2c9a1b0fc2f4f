package backtest

import (
	"encoding/json"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/yourusername/alpha-lab/internal/timeseries"
)

const (
	periodsPerYear   = 252
	tradingDaysMonth = 21
	rollingICWindow  = 21
)

// MetricsRecord holds the full set of performance metrics for one return
// stream. Every field is always populated; metrics that cannot be computed
// from the available inputs are zero.
type MetricsRecord struct {
	AnnRet          float64 `json:"ann_ret"`
	AnnVol          float64 `json:"ann_vol"`
	Sharpe          float64 `json:"sharpe"`
	Skew            float64 `json:"skew"`
	Kurt            float64 `json:"kurt"`
	HitRate         float64 `json:"hit_rate"`
	MaxDD           float64 `json:"maxdd"`
	AvgDD           float64 `json:"avg_dd"`
	DDDuration      float64 `json:"dd_duration"`
	RecoveryTime    float64 `json:"recovery_time"`
	Turnover        float64 `json:"turnover"`
	TurnoverMonthly float64 `json:"turnover_monthly"`
	AvgIC           float64 `json:"avg_ic"`
	ICStd           float64 `json:"ic_std"`
	IR              float64 `json:"ir"`
}

// AggregateMetrics extends MetricsRecord with cross-split dispersion
// statistics, populated only on the aggregate record of a walk-forward run.
type AggregateMetrics struct {
	MetricsRecord
	SplitSharpeMean float64 `json:"split_sharpe_mean"`
	SplitSharpeStd  float64 `json:"split_sharpe_std"`
	SplitICMean     float64 `json:"split_ic_mean"`
	SplitICStd      float64 `json:"split_ic_std"`
}

// ToJSON exports metrics to JSON
func (m MetricsRecord) ToJSON() string {
	data, _ := json.Marshal(m)
	return string(data)
}

// DrawdownStats describes the drawdown profile of an equity curve.
type DrawdownStats struct {
	MaxDD        float64 `json:"max_dd"`
	AvgDD        float64 `json:"avg_dd"`
	DDDuration   float64 `json:"dd_duration"`
	RecoveryTime float64 `json:"recovery_time"`
}

// Sharpe calculates the annualized Sharpe ratio of a daily return series.
// The risk-free rate is annualized. Volatility uses the sample standard
// deviation.
func Sharpe(returns []float64, rf float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	std := stat.StdDev(returns, nil)
	if std == 0 || math.IsNaN(std) {
		return 0
	}
	mean := stat.Mean(returns, nil)
	annReturn := (mean - rf/periodsPerYear) * periodsPerYear
	annVol := std * math.Sqrt(periodsPerYear)
	return annReturn / annVol
}

// MaxDrawdown calculates the maximum drawdown of an equity curve. The result
// is negative, e.g. -0.35 for a 35% drawdown.
func MaxDrawdown(equity []float64) float64 {
	if len(equity) == 0 {
		return 0
	}
	minDD := 0.0
	runningMax := math.Inf(-1)
	for _, v := range equity {
		if v > runningMax {
			runningMax = v
		}
		dd := (v - runningMax) / runningMax
		if dd < minDD {
			minDD = dd
		}
	}
	return minDD
}

// DrawdownProfile computes detailed drawdown statistics from an equity
// curve: the deepest drawdown, the average depth while underwater, the mean
// length of completed drawdown periods and the mean time back to the prior
// peak. A drawdown still open at the end of the curve is not counted.
func DrawdownProfile(equity []float64) DrawdownStats {
	if len(equity) == 0 {
		return DrawdownStats{}
	}

	drawdown := make([]float64, len(equity))
	runningMax := math.Inf(-1)
	for i, v := range equity {
		if v > runningMax {
			runningMax = v
		}
		drawdown[i] = (v - runningMax) / runningMax
	}

	var durations []float64
	var recoveries []float64
	start := -1
	peak := -1

	for i, dd := range drawdown {
		inDD := dd < 0
		if inDD && start == -1 {
			start = i
			peak = -1
			if i > 0 {
				peak = argmax(equity[:i])
			}
		} else if !inDD && start != -1 {
			durations = append(durations, float64(i-start))
			if peak != -1 {
				recovered := start
				for j := start; j < len(equity); j++ {
					if equity[j] >= equity[peak] {
						recovered = j
						break
					}
				}
				recoveries = append(recoveries, float64(recovered-start))
			}
			start = -1
			peak = -1
		}
	}

	stats := DrawdownStats{MaxDD: minValue(drawdown)}

	underwaterSum := 0.0
	underwaterCount := 0
	for _, dd := range drawdown {
		if dd < 0 {
			underwaterSum += dd
			underwaterCount++
		}
	}
	if underwaterCount > 0 {
		stats.AvgDD = underwaterSum / float64(underwaterCount)
	}
	if len(durations) > 0 {
		stats.DDDuration = stat.Mean(durations, nil)
	}
	if len(recoveries) > 0 {
		stats.RecoveryTime = stat.Mean(recoveries, nil)
	}
	return stats
}

// InformationCoefficient calculates the IC between factor scores and next
// period returns, joined on date with NaN pairs dropped. Method is
// "spearman" (default) or "pearson".
func InformationCoefficient(scores, nextReturns timeseries.Series, method string) float64 {
	s, r := timeseries.AlignDropNaN(scores, nextReturns)
	return icFromValues(s, r, method)
}

func icFromValues(scores, rets []float64, method string) float64 {
	scores, rets = dropNaNPairs(scores, rets)
	if len(scores) < 2 {
		return 0
	}
	var ic float64
	if method == "pearson" {
		ic = stat.Correlation(scores, rets, nil)
	} else {
		ic = stat.Correlation(averageRanks(scores), averageRanks(rets), nil)
	}
	if math.IsNaN(ic) {
		return 0
	}
	return ic
}

// InformationRatio calculates mean IC over std IC for a rolling IC series.
func InformationRatio(icSeries []float64) float64 {
	if len(icSeries) < 2 {
		return 0
	}
	std := stat.StdDev(icSeries, nil)
	if std == 0 || math.IsNaN(std) {
		return 0
	}
	return stat.Mean(icSeries, nil) / std
}

// RollingIC computes the IC over a trailing window at each date past the
// warmup. Window slices are positional, matching the row order of the
// inputs.
func RollingIC(scores, nextReturns timeseries.Series, window int) []float64 {
	n := len(scores.Values)
	if n <= window {
		return nil
	}
	out := make([]float64, 0, n-window)
	for i := window; i < n; i++ {
		out = append(out, icFromValues(scores.Values[i-window:i], nextReturns.Values[i-window:i], "spearman"))
	}
	return out
}

// PortfolioTurnover calculates the average daily turnover of a position
// panel: the mean across all dates of the summed absolute position change.
// The first date contributes zero.
func PortfolioTurnover(positions *timeseries.Panel) float64 {
	n := positions.Len()
	if n < 2 {
		return 0
	}
	total := 0.0
	for i := 1; i < n; i++ {
		for j := range positions.Tickers {
			prev := positions.Values[i-1][j]
			curr := positions.Values[i][j]
			if math.IsNaN(prev) || math.IsNaN(curr) {
				continue
			}
			total += math.Abs(curr - prev)
		}
	}
	return total / float64(n)
}

// MonthlyTurnover converts average daily turnover to a monthly percentage.
func MonthlyTurnover(positions *timeseries.Panel) float64 {
	return PortfolioTurnover(positions) * tradingDaysMonth * 100
}

// HitRate calculates the fraction of strictly positive returns.
func HitRate(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	positive := 0
	for _, r := range returns {
		if r > 0 {
			positive++
		}
	}
	return float64(positive) / float64(len(returns))
}

// AnnualizedReturn calculates the annualized mean return.
func AnnualizedReturn(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return stat.Mean(returns, nil) * periodsPerYear
}

// AnnualizedVolatility calculates annualized sample volatility.
func AnnualizedVolatility(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	return stat.StdDev(returns, nil) * math.Sqrt(periodsPerYear)
}

// Skewness calculates bias-corrected sample skewness.
func Skewness(returns []float64) float64 {
	if len(returns) < 3 {
		return 0
	}
	return stat.Skew(returns, nil)
}

// Kurtosis calculates bias-corrected excess kurtosis.
func Kurtosis(returns []float64) float64 {
	if len(returns) < 4 {
		return 0
	}
	return stat.ExKurtosis(returns, nil)
}

// MetricsInput carries the optional inputs to CalculateAllMetrics. Returns
// is required; the rest enrich the record when present.
type MetricsInput struct {
	Returns     timeseries.Series
	Equity      *timeseries.Series
	Positions   *timeseries.Panel
	Scores      *timeseries.Series
	NextReturns *timeseries.Series
	RiskFree    float64
}

// CalculateAllMetrics computes the complete metrics record for a return
// stream. Missing optional inputs zero their dependent metrics rather than
// omitting them.
func CalculateAllMetrics(in MetricsInput) MetricsRecord {
	rec := MetricsRecord{
		AnnRet:  AnnualizedReturn(in.Returns.Values),
		AnnVol:  AnnualizedVolatility(in.Returns.Values),
		Sharpe:  Sharpe(in.Returns.Values, in.RiskFree),
		Skew:    Skewness(in.Returns.Values),
		Kurt:    Kurtosis(in.Returns.Values),
		HitRate: HitRate(in.Returns.Values),
	}

	equity := in.Equity
	if equity == nil {
		e := in.Returns.CumProd1p()
		equity = &e
	}
	rec.MaxDD = MaxDrawdown(equity.Values)

	profile := DrawdownProfile(equity.Values)
	rec.AvgDD = profile.AvgDD
	rec.DDDuration = profile.DDDuration
	rec.RecoveryTime = profile.RecoveryTime

	if in.Positions != nil {
		rec.Turnover = PortfolioTurnover(in.Positions)
		rec.TurnoverMonthly = MonthlyTurnover(in.Positions)
	}

	if in.Scores != nil && in.NextReturns != nil {
		rec.AvgIC = InformationCoefficient(*in.Scores, *in.NextReturns, "spearman")

		rolling := RollingIC(*in.Scores, *in.NextReturns, rollingICWindow)
		if len(rolling) > 1 {
			std := stat.StdDev(rolling, nil)
			rec.ICStd = std
			if std > 0 {
				rec.IR = InformationRatio(rolling)
			}
		}
	}

	return rec
}

// averageRanks replaces values with 1-based ranks, assigning tied values
// their average rank.
func averageRanks(values []float64) []float64 {
	n := len(values)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return values[idx[a]] < values[idx[b]] })

	ranks := make([]float64, n)
	i := 0
	for i < n {
		j := i
		for j+1 < n && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		avg := float64(i+j+2) / 2
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}

func dropNaNPairs(a, b []float64) ([]float64, []float64) {
	outA := make([]float64, 0, len(a))
	outB := make([]float64, 0, len(b))
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		outA = append(outA, a[i])
		outB = append(outB, b[i])
	}
	return outA, outB
}

func argmax(values []float64) int {
	best := 0
	for i := range values {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}

func minValue(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
