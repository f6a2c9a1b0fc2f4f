package backtest

import (
	"math"

	"github.com/yourusername/alpha-lab/internal/config"
	"github.com/yourusername/alpha-lab/internal/models"
	"github.com/yourusername/alpha-lab/internal/timeseries"
)

const (
	// SchemeLongShortDeciles is the only supported portfolio scheme.
	SchemeLongShortDeciles = "long_short_deciles"

	// WeightEqual splits each side's notional evenly across members.
	WeightEqual = "equal"
	// WeightScoreWeighted sizes each side's members by min-max normalized score.
	WeightScoreWeighted = "score_weighted"

	defaultLongPct  = 0.1
	defaultShortPct = 0.1

	bpsDivisor = 10000.0
)

// LongShortDeciles builds one date's position vector from a cross-section of
// factor scores. The top longPct of scores is held long and the bottom
// shortPct short, each side carrying notional/2 gross. NaN scores get zero
// positions and are excluded from the quantile thresholds.
func LongShortDeciles(scores []float64, weight string, notional, longPct, shortPct float64) ([]float64, error) {
	if weight != WeightEqual && weight != WeightScoreWeighted {
		return nil, models.ErrUnknownWeight
	}

	positions := make([]float64, len(scores))

	valid := make([]float64, 0, len(scores))
	for _, s := range scores {
		if !math.IsNaN(s) {
			valid = append(valid, s)
		}
	}
	if len(valid) == 0 {
		return positions, nil
	}

	longThreshold := timeseries.Quantile(valid, 1-longPct)
	shortThreshold := timeseries.Quantile(valid, shortPct)

	longIdx := make([]int, 0)
	shortIdx := make([]int, 0)
	for i, s := range scores {
		if math.IsNaN(s) {
			continue
		}
		if s >= longThreshold {
			longIdx = append(longIdx, i)
		}
		if s <= shortThreshold {
			shortIdx = append(shortIdx, i)
		}
	}

	sideNotional := notional / 2
	assignSide(positions, scores, longIdx, weight, sideNotional)
	assignSide(positions, scores, shortIdx, weight, -sideNotional)

	return positions, nil
}

// assignSide writes one side's weights. A side whose scores are all equal
// degenerates to equal weighting.
func assignSide(positions, scores []float64, idx []int, weight string, sideNotional float64) {
	if len(idx) == 0 {
		return
	}

	if weight == WeightEqual {
		w := sideNotional / float64(len(idx))
		for _, i := range idx {
			positions[i] = w
		}
		return
	}

	lo := scores[idx[0]]
	hi := scores[idx[0]]
	for _, i := range idx {
		if scores[i] < lo {
			lo = scores[i]
		}
		if scores[i] > hi {
			hi = scores[i]
		}
	}

	norms := make([]float64, len(idx))
	sum := 0.0
	for k, i := range idx {
		norms[k] = (scores[i] - lo) / (hi - lo + 1e-10)
		sum += norms[k]
	}

	if sum == 0 {
		w := sideNotional / float64(len(idx))
		for _, i := range idx {
			positions[i] = w
		}
		return
	}

	for k, i := range idx {
		positions[i] = sideNotional * norms[k] / sum
	}
}

// EnforceBorrowLimits clips positions to the single-name cap and then scales
// each date's row down to the leverage cap. Scaling only ever shrinks, so
// applying the operation twice is a no-op.
func EnforceBorrowLimits(positions *timeseries.Panel, maxLeverage, maxSinglePosition float64) *timeseries.Panel {
	out := positions.Copy()

	for i := range out.Values {
		row := out.Values[i]

		gross := 0.0
		for j, v := range row {
			if math.IsNaN(v) {
				continue
			}
			if v > maxSinglePosition {
				v = maxSinglePosition
			} else if v < -maxSinglePosition {
				v = -maxSinglePosition
			}
			row[j] = v
			gross += math.Abs(v)
		}

		if gross <= maxLeverage {
			continue
		}
		scale := maxLeverage / gross
		for j, v := range row {
			if math.IsNaN(v) {
				continue
			}
			row[j] = v * scale
		}
	}

	return out
}

// ApplyCosts computes net portfolio returns: yesterday's positions applied
// to today's returns, less slippage and commission charged on absolute
// position changes. The first date has no prior positions and no trades, so
// its net return is zero.
func ApplyCosts(positions, returns *timeseries.Panel, costs *config.CostsConfig) timeseries.Series {
	n := positions.Len()
	values := make([]float64, n)

	costPerDollar := (costs.Slippage.BpsPerTrade + costs.Fees.CommissionPerTrade) / bpsDivisor

	for i := 0; i < n; i++ {
		gross := 0.0
		traded := 0.0
		for j := range positions.Tickers {
			if i > 0 {
				prev := positions.Values[i-1][j]
				ret := returns.Values[i][j]
				if !math.IsNaN(prev) && !math.IsNaN(ret) {
					gross += prev * ret
				}
				curr := positions.Values[i][j]
				if !math.IsNaN(prev) && !math.IsNaN(curr) {
					traded += math.Abs(curr - prev)
				}
			}
		}
		values[i] = gross - traded*costPerDollar
	}

	return timeseries.Series{Dates: positions.Dates, Values: values}
}

// ApplyBorrowCosts computes the daily cost of carrying the short book,
// charged at the annual borrow rate prorated to a trading day.
func ApplyBorrowCosts(positions *timeseries.Panel, borrow config.BorrowConfig) timeseries.Series {
	dailyRate := borrow.BpsAnnual / periodsPerYear / bpsDivisor

	values := make([]float64, positions.Len())
	for i, row := range positions.Values {
		shortGross := 0.0
		for _, v := range row {
			if math.IsNaN(v) || v >= 0 {
				continue
			}
			shortGross += -v
		}
		values[i] = shortGross * dailyRate
	}

	return timeseries.Series{Dates: positions.Dates, Values: values}
}

// ConstructPortfolio turns a panel of factor scores into daily positions and
// net portfolio returns. Scores and returns are joined on their common dates
// and tickers before construction.
func ConstructPortfolio(
	scores, returns *timeseries.Panel,
	spec models.PortfolioSpec,
	costs *config.CostsConfig,
	maxLeverage, maxSinglePosition float64,
) (*timeseries.Panel, timeseries.Series, error) {
	if spec.Scheme != SchemeLongShortDeciles {
		return nil, timeseries.Series{}, models.ErrUnknownScheme
	}
	if spec.Weight != WeightEqual && spec.Weight != WeightScoreWeighted {
		return nil, timeseries.Series{}, models.ErrUnknownWeight
	}

	scores, returns = timeseries.Align(scores, returns)

	positions := timeseries.NewPanel(scores.Dates, scores.Tickers)
	for i := range scores.Dates {
		row, err := LongShortDeciles(scores.Row(i), spec.Weight, spec.Notional, defaultLongPct, defaultShortPct)
		if err != nil {
			return nil, timeseries.Series{}, err
		}
		copy(positions.Values[i], row)
	}

	positions = EnforceBorrowLimits(positions, maxLeverage, maxSinglePosition)

	net := ApplyCosts(positions, returns, costs)
	borrow := ApplyBorrowCosts(positions, costs.Borrow)
	for i := range net.Values {
		net.Values[i] -= borrow.Values[i]
	}

	return positions, net, nil
}
