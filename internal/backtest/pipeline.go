package backtest

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/yourusername/alpha-lab/internal/config"
	applogger "github.com/yourusername/alpha-lab/internal/logger"
	"github.com/yourusername/alpha-lab/internal/models"
	"github.com/yourusername/alpha-lab/internal/timeseries"
)

// Split is one purged walk-forward window. The training window always starts
// at the beginning of the data; the purge gap sits between training and test.
type Split struct {
	TrainStart time.Time `json:"train_start"`
	TrainEnd   time.Time `json:"train_end"`
	TestStart  time.Time `json:"test_start"`
	TestEnd    time.Time `json:"test_end"`
}

// SplitResult holds the outcome of backtesting one test window.
type SplitResult struct {
	Split       Split             `json:"split"`
	Metrics     MetricsRecord     `json:"metrics"`
	EquityCurve timeseries.Series `json:"equity_curve"`
	Returns     timeseries.Series `json:"returns"`
	Positions   *timeseries.Panel `json:"-"`
}

// Result is the full outcome of a walk-forward backtest.
type Result struct {
	Splits      []SplitResult     `json:"splits"`
	Overall     AggregateMetrics  `json:"overall_metrics"`
	Returns     timeseries.Series `json:"returns"`
	EquityCurve timeseries.Series `json:"equity_curve"`
	Positions   *timeseries.Panel `json:"-"`
	StartDate   time.Time         `json:"start_date"`
	EndDate     time.Time         `json:"end_date"`
	NumTickers  int               `json:"num_tickers"`
}

// CreateWalkForwardSplits builds expanding-window splits between start and
// end. The training end advances by an equal increment each split; a split
// whose test window would overrun the data is dropped.
func CreateWalkForwardSplits(start, end time.Time, cfg config.WalkForwardConfig) ([]Split, error) {
	totalDays := int(end.Sub(start).Hours() / 24)
	availableDays := totalDays - (cfg.MinTrainDays + cfg.MinTestDays + cfg.PurgeGapDays)
	if availableDays < 0 {
		return nil, models.ErrInsufficientData
	}

	splitSize := availableDays / cfg.NSplits

	splits := make([]Split, 0, cfg.NSplits)
	for i := 0; i < cfg.NSplits; i++ {
		trainEnd := start.AddDate(0, 0, cfg.MinTrainDays+i*splitSize)
		testStart := trainEnd.AddDate(0, 0, cfg.PurgeGapDays)
		testEnd := testStart.AddDate(0, 0, cfg.MinTestDays)
		if testEnd.After(end) {
			break
		}
		splits = append(splits, Split{
			TrainStart: start,
			TrainEnd:   trainEnd,
			TestStart:  testStart,
			TestEnd:    testEnd,
		})
	}

	return splits, nil
}

// EngineConfig carries the tunable parameters of a backtest engine.
type EngineConfig struct {
	MaxLeverage       float64
	MaxSinglePosition float64
	RiskFreeRate      float64
	Workers           int
}

// Engine runs walk-forward backtests for factor specs. It is safe for
// concurrent use; all state is read-only after construction.
type Engine struct {
	costs       *config.CostsConfig
	constraints *config.ConstraintsConfig
	cfg         EngineConfig
	logger      *logrus.Logger
}

// NewEngine creates a backtest engine. A nil logger gets a default one;
// zero workers defaults to the CPU count.
func NewEngine(costs *config.CostsConfig, constraints *config.ConstraintsConfig, cfg EngineConfig, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.MaxLeverage == 0 {
		cfg.MaxLeverage = 2.0
	}
	if cfg.MaxSinglePosition == 0 {
		cfg.MaxSinglePosition = 0.1
	}
	return &Engine{
		costs:       costs,
		constraints: constraints,
		cfg:         cfg,
		logger:      logger,
	}
}

// WalkForward runs a purged walk-forward backtest of the factor's signals
// against the return panel. Splits are backtested concurrently and reduced
// in chronological order.
func (e *Engine) WalkForward(ctx context.Context, signals, returns *timeseries.Panel, spec models.FactorSpec) (*Result, error) {
	signals, returns = timeseries.Align(signals, returns)
	if signals.Len() == 0 {
		return nil, models.ErrInsufficientData
	}

	startDate := signals.Dates[0]
	endDate := signals.Dates[signals.Len()-1]

	splits, err := CreateWalkForwardSplits(startDate, endDate, e.constraints.WalkForward)
	if err != nil {
		return nil, err
	}
	if len(splits) == 0 {
		return nil, models.ErrNoSplits
	}

	e.logger.WithFields(logrus.Fields{
		"factor":     spec.Name,
		"splits":     len(splits),
		"start_date": startDate.Format("2006-01-02"),
		"end_date":   endDate.Format("2006-01-02"),
		"tickers":    signals.NumTickers(),
	}).Info("Starting walk-forward backtest")

	results := make([]*SplitResult, len(splits))
	errs := make([]error, len(splits))

	sem := make(chan struct{}, e.cfg.Workers)
	var wg sync.WaitGroup
	for i, split := range splits {
		wg.Add(1)
		go func(i int, split Split) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				errs[i] = ctx.Err()
				return
			}
			results[i], errs[i] = e.runSplit(signals, returns, spec, split)
		}(i, split)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return e.reduce(splits, results, spec, startDate, endDate, signals.NumTickers())
}

// runSplit backtests a single test window. A window with no trading dates
// yields a nil result and is skipped during reduction.
func (e *Engine) runSplit(signals, returns *timeseries.Panel, spec models.FactorSpec, split Split) (*SplitResult, error) {
	testSignals := signals.Between(split.TestStart, split.TestEnd)
	testReturns := returns.Between(split.TestStart, split.TestEnd)
	if testSignals.Len() == 0 {
		return nil, nil
	}

	positions, portReturns, err := ConstructPortfolio(
		testSignals, testReturns, spec.Portfolio,
		e.costs, e.cfg.MaxLeverage, e.cfg.MaxSinglePosition,
	)
	if err != nil {
		return nil, err
	}

	equity := portReturns.CumProd1p()
	scores := testSignals.CrossSectionMean()
	nextReturns := testReturns.CrossSectionMean().Shift(-1)

	metrics := CalculateAllMetrics(MetricsInput{
		Returns:     portReturns,
		Equity:      &equity,
		Positions:   positions,
		Scores:      &scores,
		NextReturns: &nextReturns,
		RiskFree:    e.cfg.RiskFreeRate,
	})

	return &SplitResult{
		Split:       split,
		Metrics:     metrics,
		EquityCurve: equity,
		Returns:     portReturns,
		Positions:   positions,
	}, nil
}

// reduce stitches per-split results into the aggregate record. The aggregate
// position panel is the last split's, the freshest view of the book.
func (e *Engine) reduce(splits []Split, results []*SplitResult, spec models.FactorSpec, startDate, endDate time.Time, numTickers int) (*Result, error) {
	kept := make([]SplitResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			kept = append(kept, *r)
		}
	}
	if len(kept) == 0 {
		return nil, models.ErrNoSplits
	}

	returnSeries := make([]timeseries.Series, len(kept))
	for i, r := range kept {
		returnSeries[i] = r.Returns
	}
	allReturns := timeseries.Concat(returnSeries...)
	overallEquity := allReturns.CumProd1p()
	finalPositions := kept[len(kept)-1].Positions

	overall := AggregateMetrics{
		MetricsRecord: CalculateAllMetrics(MetricsInput{
			Returns:   allReturns,
			Equity:    &overallEquity,
			Positions: finalPositions,
			RiskFree:  e.cfg.RiskFreeRate,
		}),
	}

	runLog := applogger.NewRunLogger(e.logger)
	splitSharpes := make([]float64, len(kept))
	splitICs := make([]float64, len(kept))
	for i, r := range kept {
		splitSharpes[i] = r.Metrics.Sharpe
		splitICs[i] = r.Metrics.AvgIC
		runLog.LogSplitComplete(spec.Name, i, r.Split.TestStart, r.Split.TestEnd, r.Metrics.Sharpe, r.Metrics.AvgIC)
	}
	overall.SplitSharpeMean = stat.Mean(splitSharpes, nil)
	overall.SplitSharpeStd = stat.PopStdDev(splitSharpes, nil)
	overall.SplitICMean = stat.Mean(splitICs, nil)
	overall.SplitICStd = stat.PopStdDev(splitICs, nil)

	e.logger.WithFields(logrus.Fields{
		"factor": spec.Name,
		"splits": len(kept),
		"sharpe": overall.Sharpe,
		"maxdd":  overall.MaxDD,
	}).Info("Walk-forward backtest complete")

	return &Result{
		Splits:      kept,
		Overall:     overall,
		Returns:     allReturns,
		EquityCurve: overallEquity,
		Positions:   finalPositions,
		StartDate:   startDate,
		EndDate:     endDate,
		NumTickers:  numTickers,
	}, nil
}
