package backtest

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/alpha-lab/internal/models"
	"github.com/yourusername/alpha-lab/internal/timeseries"
)

// PeriodResult holds the metrics of one contiguous evaluation window.
type PeriodResult struct {
	Metrics     MetricsRecord     `json:"metrics"`
	EquityCurve timeseries.Series `json:"equity_curve"`
	Returns     timeseries.Series `json:"returns"`
}

// OOSResult pairs in-sample and out-of-sample evaluations of one factor.
// A window with no data leaves its side nil.
type OOSResult struct {
	InSample  *PeriodResult `json:"in_sample,omitempty"`
	OutSample *PeriodResult `json:"out_sample,omitempty"`
}

// OOSEvaluation backtests a factor over an explicit in-sample window and an
// explicit out-of-sample window. Unlike WalkForward there is no purging; the
// caller owns the window boundaries.
func (e *Engine) OOSEvaluation(
	signals, returns *timeseries.Panel,
	inStart, inEnd, outStart, outEnd time.Time,
	spec models.FactorSpec,
) (*OOSResult, error) {
	result := &OOSResult{}

	inSample, err := e.runPeriod(signals, returns, inStart, inEnd, spec)
	if err != nil {
		return nil, err
	}
	result.InSample = inSample

	outSample, err := e.runPeriod(signals, returns, outStart, outEnd, spec)
	if err != nil {
		return nil, err
	}
	result.OutSample = outSample

	e.logger.WithFields(logrus.Fields{
		"factor":  spec.Name,
		"has_is":  result.InSample != nil,
		"has_oos": result.OutSample != nil,
	}).Info("Out-of-sample evaluation complete")

	return result, nil
}

func (e *Engine) runPeriod(signals, returns *timeseries.Panel, start, end time.Time, spec models.FactorSpec) (*PeriodResult, error) {
	periodSignals := signals.Between(start, end)
	periodReturns := returns.Between(start, end)
	if periodSignals.Len() == 0 {
		return nil, nil
	}

	positions, portReturns, err := ConstructPortfolio(
		periodSignals, periodReturns, spec.Portfolio,
		e.costs, e.cfg.MaxLeverage, e.cfg.MaxSinglePosition,
	)
	if err != nil {
		return nil, err
	}

	equity := portReturns.CumProd1p()
	metrics := CalculateAllMetrics(MetricsInput{
		Returns:   portReturns,
		Equity:    &equity,
		Positions: positions,
		RiskFree:  e.cfg.RiskFreeRate,
	})

	return &PeriodResult{
		Metrics:     metrics,
		EquityCurve: equity,
		Returns:     portReturns,
	}, nil
}
