package backtest

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yourusername/alpha-lab/internal/models"
)

// GenerateConsoleReport formats a walk-forward result and its validation
// findings for terminal output.
func GenerateConsoleReport(result *Result, isValid bool, issues []models.Issue) string {
	var builder strings.Builder
	builder.WriteString("Walk-Forward Backtest Report\n")
	builder.WriteString("============================\n")
	builder.WriteString(fmt.Sprintf("Period: %s to %s\n",
		result.StartDate.Format("2006-01-02"), result.EndDate.Format("2006-01-02")))
	builder.WriteString(fmt.Sprintf("Splits: %d  Tickers: %d\n", len(result.Splits), result.NumTickers))
	builder.WriteString(fmt.Sprintf("Sharpe Ratio: %.2f\n", result.Overall.Sharpe))
	builder.WriteString(fmt.Sprintf("Ann. Return: %.2f%%\n", result.Overall.AnnRet*100))
	builder.WriteString(fmt.Sprintf("Ann. Volatility: %.2f%%\n", result.Overall.AnnVol*100))
	builder.WriteString(fmt.Sprintf("Max Drawdown: %.2f%%\n", result.Overall.MaxDD*100))
	builder.WriteString(fmt.Sprintf("Hit Rate: %.2f%%\n", result.Overall.HitRate*100))
	builder.WriteString(fmt.Sprintf("Monthly Turnover: %.1f%%\n", result.Overall.TurnoverMonthly))
	builder.WriteString(fmt.Sprintf("Split Sharpe: %.2f +/- %.2f\n",
		result.Overall.SplitSharpeMean, result.Overall.SplitSharpeStd))
	builder.WriteString(fmt.Sprintf("Split IC: %.4f +/- %.4f\n",
		result.Overall.SplitICMean, result.Overall.SplitICStd))

	if isValid {
		builder.WriteString("Validation: PASSED\n")
	} else {
		builder.WriteString("Validation: FAILED\n")
	}
	for _, issue := range issues {
		builder.WriteString(fmt.Sprintf("  [%s] %s: %s\n", issue.Severity, issue.Type, issue.Detail))
	}

	return builder.String()
}

// GenerateHTMLReport creates a simple HTML report
func GenerateHTMLReport(result *Result, isValid bool, issues []models.Issue, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}

	status := "PASSED"
	if !isValid {
		status = "FAILED"
	}

	var issueRows strings.Builder
	for _, issue := range issues {
		issueRows.WriteString(fmt.Sprintf("<li><strong>%s</strong> (%s): %s</li>\n",
			issue.Type, issue.Severity, issue.Detail))
	}

	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>Walk-Forward Backtest Report</title></head>
<body>
<h1>Walk-Forward Backtest Report</h1>
<p><strong>Period:</strong> %s to %s</p>
<p><strong>Sharpe Ratio:</strong> %.2f</p>
<p><strong>Ann. Return:</strong> %.2f%%</p>
<p><strong>Max Drawdown:</strong> %.2f%%</p>
<p><strong>Hit Rate:</strong> %.2f%%</p>
<p><strong>Monthly Turnover:</strong> %.1f%%</p>
<p><strong>Validation:</strong> %s</p>
<ul>%s</ul>
</body>
</html>`,
		result.StartDate.Format("2006-01-02"),
		result.EndDate.Format("2006-01-02"),
		result.Overall.Sharpe,
		result.Overall.AnnRet*100,
		result.Overall.MaxDD*100,
		result.Overall.HitRate*100,
		result.Overall.TurnoverMonthly,
		status,
		issueRows.String(),
	)

	return os.WriteFile(outputPath, []byte(html), 0o644)
}

// GenerateCSVExport exports the aggregate metrics for spreadsheets.
func GenerateCSVExport(result *Result, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	rows := [][]string{
		{"metric", "value"},
		{"sharpe", formatMetric(result.Overall.Sharpe)},
		{"ann_ret", formatMetric(result.Overall.AnnRet)},
		{"ann_vol", formatMetric(result.Overall.AnnVol)},
		{"maxdd", formatMetric(result.Overall.MaxDD)},
		{"hit_rate", formatMetric(result.Overall.HitRate)},
		{"turnover", formatMetric(result.Overall.Turnover)},
		{"turnover_monthly", formatMetric(result.Overall.TurnoverMonthly)},
		{"split_sharpe_mean", formatMetric(result.Overall.SplitSharpeMean)},
		{"split_sharpe_std", formatMetric(result.Overall.SplitSharpeStd)},
		{"split_ic_mean", formatMetric(result.Overall.SplitICMean)},
		{"split_ic_std", formatMetric(result.Overall.SplitICStd)},
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func formatMetric(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
