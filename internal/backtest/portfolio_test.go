package backtest

import (
	"math"
	"testing"

	"github.com/yourusername/alpha-lab/internal/config"
	"github.com/yourusername/alpha-lab/internal/models"
	"github.com/yourusername/alpha-lab/internal/timeseries"
)

func TestLongShortDecilesEqual(t *testing.T) {
	scores := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	positions, err := LongShortDeciles(scores, WeightEqual, 1.0, 0.1, 0.1)
	if err != nil {
		t.Fatalf("LongShortDeciles failed: %v", err)
	}

	if !almostEqual(positions[9], 0.5, 1e-12) {
		t.Fatalf("expected top score long 0.5, got %v", positions[9])
	}
	if !almostEqual(positions[0], -0.5, 1e-12) {
		t.Fatalf("expected bottom score short -0.5, got %v", positions[0])
	}
	for i := 1; i < 9; i++ {
		if positions[i] != 0 {
			t.Fatalf("expected middle score %d flat, got %v", i, positions[i])
		}
	}
}

func TestLongShortDecilesNaNScores(t *testing.T) {
	scores := []float64{1, math.NaN(), 3, 4, 5, 6, 7, 8, math.NaN(), 10}
	positions, err := LongShortDeciles(scores, WeightEqual, 1.0, 0.1, 0.1)
	if err != nil {
		t.Fatalf("LongShortDeciles failed: %v", err)
	}
	if positions[1] != 0 || positions[8] != 0 {
		t.Fatalf("NaN scores must get zero positions, got %v and %v", positions[1], positions[8])
	}
}

func TestLongShortDecilesAllEqualScores(t *testing.T) {
	// Every name qualifies for both sides; the short side is assigned last.
	scores := []float64{5, 5, 5, 5}
	positions, err := LongShortDeciles(scores, WeightEqual, 1.0, 0.1, 0.1)
	if err != nil {
		t.Fatalf("LongShortDeciles failed: %v", err)
	}
	for i, p := range positions {
		if !almostEqual(p, -0.125, 1e-12) {
			t.Fatalf("expected position %d to be -0.125, got %v", i, p)
		}
	}
}

func TestLongShortDecilesScoreWeighted(t *testing.T) {
	scores := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	positions, err := LongShortDeciles(scores, WeightScoreWeighted, 1.0, 0.3, 0.1)
	if err != nil {
		t.Fatalf("LongShortDeciles failed: %v", err)
	}

	// Long side is {8, 9, 10}; min-max weights put all the notional above the
	// lowest member.
	if !almostEqual(positions[7], 0, 1e-9) {
		t.Fatalf("expected lowest long member ~0, got %v", positions[7])
	}
	if !almostEqual(positions[8], 0.5/3, 1e-9) {
		t.Fatalf("expected middle long member %v, got %v", 0.5/3, positions[8])
	}
	if !almostEqual(positions[9], 1.0/3, 1e-9) {
		t.Fatalf("expected top long member %v, got %v", 1.0/3, positions[9])
	}
}

func TestLongShortDecilesDegenerateSide(t *testing.T) {
	// All short-side scores equal: min-max normalization collapses, so the
	// side falls back to equal weighting.
	scores := []float64{2, 2, 2, 2, 9}
	positions, err := LongShortDeciles(scores, WeightScoreWeighted, 1.0, 0.2, 0.2)
	if err != nil {
		t.Fatalf("LongShortDeciles failed: %v", err)
	}
	if !almostEqual(positions[4], 0.5, 1e-12) {
		t.Fatalf("expected single-name long side 0.5, got %v", positions[4])
	}
	for i := 0; i < 4; i++ {
		if !almostEqual(positions[i], -0.125, 1e-12) {
			t.Fatalf("expected equal short weight -0.125 at %d, got %v", i, positions[i])
		}
	}
}

func TestLongShortDecilesUnknownWeight(t *testing.T) {
	_, err := LongShortDeciles([]float64{1, 2, 3}, "volatility_scaled", 1.0, 0.1, 0.1)
	if err != models.ErrUnknownWeight {
		t.Fatalf("expected ErrUnknownWeight, got %v", err)
	}
}

func TestEnforceBorrowLimits(t *testing.T) {
	panel := timeseries.NewPanel(testDates(1), []string{"A", "B", "C"})
	panel.Values[0] = []float64{0.6, -0.6, 0.3}

	out := EnforceBorrowLimits(panel, 1.0, 0.5)

	// Clip to +-0.5, then scale the row gross 1.3 down to 1.0.
	want := []float64{0.5 / 1.3, -0.5 / 1.3, 0.3 / 1.3}
	for j, w := range want {
		if !almostEqual(out.Values[0][j], w, 1e-12) {
			t.Fatalf("position %d: expected %v, got %v", j, w, out.Values[0][j])
		}
	}

	// Enforcing again must not change anything.
	again := EnforceBorrowLimits(out, 1.0, 0.5)
	for j := range want {
		if !almostEqual(again.Values[0][j], out.Values[0][j], 1e-12) {
			t.Fatalf("second enforcement changed position %d: %v vs %v", j, again.Values[0][j], out.Values[0][j])
		}
	}
}

func TestEnforceBorrowLimitsWithinCaps(t *testing.T) {
	panel := timeseries.NewPanel(testDates(1), []string{"A", "B"})
	panel.Values[0] = []float64{0.3, -0.3}

	out := EnforceBorrowLimits(panel, 2.0, 0.5)
	if out.Values[0][0] != 0.3 || out.Values[0][1] != -0.3 {
		t.Fatalf("positions within caps must be untouched, got %v", out.Values[0])
	}
}

func TestApplyCosts(t *testing.T) {
	costs := config.DefaultCosts()

	positions := timeseries.NewPanel(testDates(2), []string{"A"})
	positions.Values[0] = []float64{1.0}
	positions.Values[1] = []float64{0.5}

	returns := timeseries.NewPanel(testDates(2), []string{"A"})
	returns.Values[0] = []float64{0.0}
	returns.Values[1] = []float64{0.01}

	net := ApplyCosts(positions, returns, &costs)

	if net.Values[0] != 0 {
		t.Fatalf("first day net return must be zero, got %v", net.Values[0])
	}
	// Yesterday's position earns today's return, less 6bps on the 0.5 traded.
	want := 1.0*0.01 - 0.5*(6.0/10000.0)
	if !almostEqual(net.Values[1], want, 1e-12) {
		t.Fatalf("expected net %v, got %v", want, net.Values[1])
	}
}

func TestApplyBorrowCosts(t *testing.T) {
	borrow := config.BorrowConfig{BpsAnnual: 50.0}

	positions := timeseries.NewPanel(testDates(2), []string{"A", "B"})
	positions.Values[0] = []float64{-1.0, 0.5}
	positions.Values[1] = []float64{0.5, 0.5}

	cost := ApplyBorrowCosts(positions, borrow)

	want := 1.0 * 50.0 / 252.0 / 10000.0
	if !almostEqual(cost.Values[0], want, 1e-15) {
		t.Fatalf("expected borrow cost %v, got %v", want, cost.Values[0])
	}
	if cost.Values[1] != 0 {
		t.Fatalf("long-only day must have zero borrow cost, got %v", cost.Values[1])
	}
}

func TestConstructPortfolio(t *testing.T) {
	n := 5
	tickers := make([]string, 10)
	for j := range tickers {
		tickers[j] = string(rune('A' + j))
	}

	scores := timeseries.NewPanel(testDates(n), tickers)
	returns := timeseries.NewPanel(testDates(n), tickers)
	for i := 0; i < n; i++ {
		for j := range tickers {
			scores.Values[i][j] = float64(j)
			returns.Values[i][j] = 0.001 * float64(j-5)
		}
	}

	costs := config.DefaultCosts()
	spec := models.PortfolioSpec{Scheme: SchemeLongShortDeciles, Weight: WeightEqual, Notional: 1.0}
	positions, net, err := ConstructPortfolio(scores, returns, spec, &costs, 2.0, 0.6)
	if err != nil {
		t.Fatalf("ConstructPortfolio failed: %v", err)
	}

	if positions.Len() != n || net.Len() != n {
		t.Fatalf("unexpected output lengths: %d positions, %d returns", positions.Len(), net.Len())
	}
	// Day 0 has no return and no trading cost, but the short leg is charged
	// borrow from the first day it is held. Short gross is 0.5.
	day0Borrow := 0.5 * costs.Borrow.BpsAnnual / 252.0 / 10000.0
	if !almostEqual(net.Values[0], -day0Borrow, 1e-12) {
		t.Fatalf("first day net return must be the borrow charge %v, got %v", -day0Borrow, net.Values[0])
	}

	// Dollar-neutral book: longs and shorts offset.
	rowSum := 0.0
	for _, v := range positions.Values[0] {
		rowSum += v
	}
	if !almostEqual(rowSum, 0, 1e-9) {
		t.Fatalf("expected dollar-neutral positions, row sum %v", rowSum)
	}
}

func TestConstructPortfolioUnknownScheme(t *testing.T) {
	scores := timeseries.NewPanel(testDates(2), []string{"A"})
	returns := timeseries.NewPanel(testDates(2), []string{"A"})

	costs := config.DefaultCosts()
	spec := models.PortfolioSpec{Scheme: "market_cap", Weight: WeightEqual, Notional: 1.0}
	_, _, err := ConstructPortfolio(scores, returns, spec, &costs, 2.0, 0.1)
	if err != models.ErrUnknownScheme {
		t.Fatalf("expected ErrUnknownScheme, got %v", err)
	}
}
