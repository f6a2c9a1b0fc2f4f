package datasource

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yourusername/alpha-lab/internal/metrics"
	"github.com/yourusername/alpha-lab/internal/timeseries"
)

const csvSourceName = "csv"

// CSVSource reads price and signal panels from wide-format CSV files: a
// date column followed by one column per ticker. Empty cells become NaN.
type CSVSource struct {
	pricesPath  string
	signalsPath string
}

// NewCSVSource creates a file-backed panel source.
func NewCSVSource(pricesPath, signalsPath string) *CSVSource {
	return &CSVSource{pricesPath: pricesPath, signalsPath: signalsPath}
}

// Name returns the name of the data source
func (s *CSVSource) Name() string {
	return csvSourceName
}

// IsEnabled returns whether this data source is currently enabled
func (s *CSVSource) IsEnabled() bool {
	return s.pricesPath != ""
}

// FetchPrices reads the price panel from disk.
func (s *CSVSource) FetchPrices(ctx context.Context, startDate, endDate time.Time) (*timeseries.Panel, error) {
	return s.readPanel(ctx, s.pricesPath, startDate, endDate)
}

// FetchSignals reads the signal panel from disk.
func (s *CSVSource) FetchSignals(ctx context.Context, startDate, endDate time.Time) (*timeseries.Panel, error) {
	if s.signalsPath == "" {
		return nil, NewDataSourceError(csvSourceName, ErrCodeNotFound, "no signals path configured", ErrNotFound)
	}
	return s.readPanel(ctx, s.signalsPath, startDate, endDate)
}

func (s *CSVSource) readPanel(ctx context.Context, path string, startDate, endDate time.Time) (*timeseries.Panel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		metrics.RecordDataFetch(csvSourceName, "error", time.Since(start).Seconds())
		return nil, NewDataSourceError(csvSourceName, ErrCodeNotFound, fmt.Sprintf("open %s", path), err)
	}
	defer f.Close()

	panel, err := ParsePanelCSV(f)
	if err != nil {
		metrics.RecordDataFetch(csvSourceName, "error", time.Since(start).Seconds())
		return nil, NewDataSourceError(csvSourceName, ErrCodeInvalidData, fmt.Sprintf("parse %s", path), err)
	}
	metrics.RecordDataFetch(csvSourceName, "success", time.Since(start).Seconds())

	if !startDate.IsZero() || !endDate.IsZero() {
		if endDate.IsZero() {
			endDate = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
		}
		panel = panel.Between(startDate, endDate)
	}
	return panel, nil
}

// ParsePanelCSV parses a wide-format panel: header "date,TICKER,..." and one
// row per date. Values are parsed as decimals to survive exchange exports
// with excess precision, then stored as float64.
func ParsePanelCSV(r io.Reader) (*timeseries.Panel, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("expected date column plus at least one ticker, got %d columns", len(header))
	}
	tickers := header[1:]

	var dates []time.Time
	var rows [][]float64

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(record) != len(header) {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", len(rows)+2, len(record), len(header))
		}

		date, err := time.Parse("2006-01-02", record[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid date %q: %w", len(rows)+2, record[0], err)
		}
		if len(dates) > 0 && !date.After(dates[len(dates)-1]) {
			return nil, fmt.Errorf("row %d: dates must be strictly ascending", len(rows)+2)
		}

		row := make([]float64, len(tickers))
		for j, cell := range record[1:] {
			if cell == "" {
				row[j] = math.NaN()
				continue
			}
			d, err := decimal.NewFromString(cell)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid value %q: %w", len(rows)+2, cell, err)
			}
			row[j], _ = d.Float64()
		}

		dates = append(dates, date)
		rows = append(rows, row)
	}

	return &timeseries.Panel{Dates: dates, Tickers: tickers, Values: rows}, nil
}
