package backtest

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/yourusername/alpha-lab/internal/config"
	"github.com/yourusername/alpha-lab/internal/models"
	"github.com/yourusername/alpha-lab/internal/timeseries"
)

// Issue types emitted by the validator.
const (
	IssueSampleSize          = "sample_size"
	IssueLeakageDetected     = "leakage_detected"
	IssueLeakageInconclusive = "leakage_inconclusive"
	IssueUnstablePerformance = "unstable_performance"
	IssueICInstability       = "ic_instability"
	IssueHighTurnover        = "high_turnover"
	IssueRegimeBrittleness   = "regime_brittleness"
	IssueBelowTargetSharpe   = "below_target_sharpe"
	IssueExceedsMaxDrawdown  = "exceeds_max_drawdown"
	IssueBelowTargetIC       = "below_target_ic"
)

const (
	volRegimeWindow    = 21
	volRegimeThreshold = 0.2
	trendShortWindow   = 21
	trendLongWindow    = 63
	minLeakageObs      = 10
)

// ValidationInput bundles everything the validator inspects about a
// completed run. Prices, Positions and RollingIC are optional; their checks
// are skipped when absent.
type ValidationInput struct {
	Signals          *timeseries.Panel
	Returns          *timeseries.Panel
	Prices           *timeseries.Panel
	Positions        *timeseries.Panel
	PortfolioReturns timeseries.Series
	RollingIC        []float64
	Metrics          MetricsRecord
}

// Validator runs the acceptance checks on completed backtest runs.
type Validator struct {
	constraints *config.ConstraintsConfig
	logger      *logrus.Logger
}

// NewValidator creates a validator. A nil logger gets a default one.
func NewValidator(constraints *config.ConstraintsConfig, logger *logrus.Logger) *Validator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Validator{constraints: constraints, logger: logger}
}

// ValidateRun runs every check and collects all findings; checks never
// short-circuit each other. The run is valid when no finding is an error or
// critical.
func (v *Validator) ValidateRun(in ValidationInput) (bool, []models.Issue) {
	issues := make([]models.Issue, 0)

	issues = append(issues, v.checkSampleSize(in.Signals)...)
	issues = append(issues, v.checkLeakage(in.Signals, in.Returns)...)
	issues = append(issues, v.checkStability(in.PortfolioReturns)...)
	issues = append(issues, v.checkICStability(in.RollingIC)...)
	issues = append(issues, v.checkTurnover(in.Positions)...)
	issues = append(issues, v.checkRegimeRobustness(in.Returns, in.Prices)...)
	issues = append(issues, v.checkTargets(in.Metrics)...)

	isValid := true
	for _, issue := range issues {
		if issue.IsFatal() {
			isValid = false
			break
		}
	}

	v.logger.WithFields(logrus.Fields{
		"is_valid": isValid,
		"issues":   len(issues),
	}).Info("Validation complete")

	return isValid, issues
}

// checkSampleSize enforces the history and breadth floors.
func (v *Validator) checkSampleSize(signals *timeseries.Panel) []models.Issue {
	cfg := v.constraints.SampleSize
	issues := make([]models.Issue, 0)

	if signals.Len() < cfg.MinHistoryDays {
		issues = append(issues, models.Issue{
			Type:     IssueSampleSize,
			Severity: models.SeverityError,
			Detail:   fmt.Sprintf("Insufficient history: %d days < %d required", signals.Len(), cfg.MinHistoryDays),
		})
	}

	if signals.NumTickers() < cfg.MinTickers {
		issues = append(issues, models.Issue{
			Type:     IssueSampleSize,
			Severity: models.SeverityError,
			Detail:   fmt.Sprintf("Insufficient tickers: %d < %d required", signals.NumTickers(), cfg.MinTickers),
		})
	}

	return issues
}

// checkLeakage tests whether today's average signal is correlated with
// tomorrow's average return. Any meaningful correlation means the signal
// already knows the future.
func (v *Validator) checkLeakage(signals, returns *timeseries.Panel) []models.Issue {
	cfg := v.constraints.LeakageDetection
	if !cfg.Enabled || signals.Len() <= minLeakageObs {
		return nil
	}

	avgSignals := signals.CrossSectionMean()
	futureReturns := returns.CrossSectionMean().Shift(-1)

	s, r := timeseries.AlignDropNaN(avgSignals, futureReturns)
	if len(s) < minLeakageObs {
		return []models.Issue{{
			Type:     IssueLeakageInconclusive,
			Severity: models.SeverityInfo,
			Detail:   fmt.Sprintf("Insufficient data for leakage check: %d aligned observations", len(s)),
		}}
	}

	correlation := stat.Correlation(s, r, nil)
	if math.IsNaN(correlation) {
		correlation = 0
	}

	if math.Abs(correlation) > cfg.MaxFutureCorrelation {
		return []models.Issue{{
			Type:     IssueLeakageDetected,
			Severity: models.SeverityCritical,
			Detail: fmt.Sprintf("Leakage detected: correlation with future returns = %.4f (threshold = %g)",
				correlation, cfg.MaxFutureCorrelation),
		}}
	}

	return nil
}

// checkStability computes Sharpe over consecutive non-overlapping windows
// and flags a collapse from the best window to the worst.
func (v *Validator) checkStability(returns timeseries.Series) []models.Issue {
	cfg := v.constraints.Stability
	if returns.Len() == 0 {
		return nil
	}

	required := cfg.RollingPeriodDays * cfg.MinRollingSharpePeriods
	if returns.Len() < required {
		return []models.Issue{{
			Type:     IssueUnstablePerformance,
			Severity: models.SeverityWarning,
			Detail:   fmt.Sprintf("Insufficient data for stability check: %d < %d", returns.Len(), required),
		}}
	}

	sharpes := make([]float64, 0)
	for i := cfg.RollingPeriodDays; i < returns.Len(); i += cfg.RollingPeriodDays {
		window := returns.Values[i-cfg.RollingPeriodDays : i]
		sharpes = append(sharpes, Sharpe(window, 0))
	}

	if len(sharpes) < cfg.MinRollingSharpePeriods {
		return []models.Issue{{
			Type:     IssueUnstablePerformance,
			Severity: models.SeverityWarning,
			Detail:   fmt.Sprintf("Insufficient rolling periods: %d < %d", len(sharpes), cfg.MinRollingSharpePeriods),
		}}
	}

	maxSharpe := sharpes[0]
	minSharpe := sharpes[0]
	for _, s := range sharpes[1:] {
		if s > maxSharpe {
			maxSharpe = s
		}
		if s < minSharpe {
			minSharpe = s
		}
	}

	if maxSharpe > 0 {
		drawdownPct := (maxSharpe - minSharpe) / maxSharpe * 100
		if drawdownPct > cfg.MaxSharpeDrawdownPct {
			return []models.Issue{{
				Type:     IssueUnstablePerformance,
				Severity: models.SeverityWarning,
				Detail: fmt.Sprintf("Unstable Sharpe: drawdown of %.1f%% (max allowed: %g%%)",
					drawdownPct, cfg.MaxSharpeDrawdownPct),
			}}
		}
	}

	return nil
}

// checkICStability flags a rolling IC series that dips below the floor.
func (v *Validator) checkICStability(rollingIC []float64) []models.Issue {
	if len(rollingIC) == 0 {
		return nil
	}

	minIC := rollingIC[0]
	for _, ic := range rollingIC[1:] {
		if ic < minIC {
			minIC = ic
		}
	}

	if minIC < v.constraints.Stability.MinRollingIC {
		return []models.Issue{{
			Type:     IssueICInstability,
			Severity: models.SeverityWarning,
			Detail: fmt.Sprintf("IC drops below threshold: min IC = %.4f < %g",
				minIC, v.constraints.Stability.MinRollingIC),
		}}
	}

	return nil
}

// checkTurnover flags a book that trades more per month than the cap.
func (v *Validator) checkTurnover(positions *timeseries.Panel) []models.Issue {
	if positions == nil || positions.Len() < 2 {
		return nil
	}

	monthlyPct := MonthlyTurnover(positions)
	if monthlyPct > v.constraints.Turnover.MaxMonthlyTurnoverPct {
		return []models.Issue{{
			Type:     IssueHighTurnover,
			Severity: models.SeverityWarning,
			Detail: fmt.Sprintf("Turnover too high: %.1f%% > %g%%",
				monthlyPct, v.constraints.Turnover.MaxMonthlyTurnoverPct),
		}}
	}

	return nil
}

// checkRegimeRobustness requires the factor to hold up in every configured
// market regime, classified from average returns and prices.
func (v *Validator) checkRegimeRobustness(returns, prices *timeseries.Panel) []models.Issue {
	cfg := v.constraints.RegimeRobustness
	if !cfg.Enabled || prices == nil || prices.Len() == 0 {
		return nil
	}

	avgReturns := returns.CrossSectionMean()
	avgPrices := prices.CrossSectionMean()

	volRegimes := ClassifyVolatilityRegime(avgReturns, volRegimeWindow, volRegimeThreshold)
	trendRegimes := ClassifyTrendRegime(avgPrices, trendShortWindow, trendLongWindow)

	issues := make([]models.Issue, 0)
	for _, regime := range cfg.RequiredRegimes {
		regimeReturns := selectRegime(avgReturns, volRegimes, trendRegimes, regime)
		if regimeReturns == nil {
			continue
		}

		if len(regimeReturns) < cfg.MinRegimeSamples {
			issues = append(issues, models.Issue{
				Type:     IssueRegimeBrittleness,
				Severity: models.SeverityWarning,
				Detail: fmt.Sprintf("Insufficient samples in %s regime: %d < %d",
					regime, len(regimeReturns), cfg.MinRegimeSamples),
			})
			continue
		}

		regimeSharpe := Sharpe(regimeReturns, 0)
		if regimeSharpe < cfg.MinRegimeSharpe {
			issues = append(issues, models.Issue{
				Type:     IssueRegimeBrittleness,
				Severity: models.SeverityWarning,
				Detail: fmt.Sprintf("Low Sharpe in %s regime: %.2f < %g",
					regime, regimeSharpe, cfg.MinRegimeSharpe),
			})
		}
	}

	return issues
}

// checkTargets compares the aggregate metrics against the target thresholds.
func (v *Validator) checkTargets(metrics MetricsRecord) []models.Issue {
	cfg := v.constraints.Targets
	issues := make([]models.Issue, 0)

	if metrics.Sharpe < cfg.MinSharpe {
		issues = append(issues, models.Issue{
			Type:     IssueBelowTargetSharpe,
			Severity: models.SeverityWarning,
			Detail:   fmt.Sprintf("Sharpe %.2f < %g", metrics.Sharpe, cfg.MinSharpe),
		})
	}

	if math.Abs(metrics.MaxDD) > cfg.MaxMaxDD {
		issues = append(issues, models.Issue{
			Type:     IssueExceedsMaxDrawdown,
			Severity: models.SeverityError,
			Detail:   fmt.Sprintf("MaxDD %.2f%% > %.2f%%", math.Abs(metrics.MaxDD)*100, cfg.MaxMaxDD*100),
		})
	}

	if metrics.AvgIC < cfg.MinAvgIC {
		issues = append(issues, models.Issue{
			Type:     IssueBelowTargetIC,
			Severity: models.SeverityWarning,
			Detail:   fmt.Sprintf("Avg IC %.4f < %g", metrics.AvgIC, cfg.MinAvgIC),
		})
	}

	return issues
}
