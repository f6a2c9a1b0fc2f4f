package datasource

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/alpha-lab/internal/metrics"
	"github.com/yourusername/alpha-lab/internal/timeseries"
)

const httpSourceName = "http"

// HTTPSource fetches price panels as wide-format CSV from a remote endpoint.
// The endpoint URL may contain {kind}, replaced with "prices" or "signals".
type HTTPSource struct {
	url     string
	client  *RateLimitedHTTPClient
	logger  *logrus.Logger
	enabled bool
}

// NewHTTPSource creates a remote panel source.
func NewHTTPSource(url string, cfg HTTPClientConfig, logger *logrus.Logger) *HTTPSource {
	if logger == nil {
		logger = logrus.New()
	}
	return &HTTPSource{
		url:     url,
		client:  NewRateLimitedHTTPClient(cfg, logger),
		logger:  logger,
		enabled: url != "",
	}
}

// Name returns the name of the data source
func (s *HTTPSource) Name() string {
	return httpSourceName
}

// IsEnabled returns whether this data source is currently enabled
func (s *HTTPSource) IsEnabled() bool {
	return s.enabled
}

// FetchPrices retrieves the price panel from the remote endpoint.
func (s *HTTPSource) FetchPrices(ctx context.Context, startDate, endDate time.Time) (*timeseries.Panel, error) {
	return s.fetch(ctx, "prices", startDate, endDate)
}

// FetchSignals retrieves the signal panel from the remote endpoint.
func (s *HTTPSource) FetchSignals(ctx context.Context, startDate, endDate time.Time) (*timeseries.Panel, error) {
	return s.fetch(ctx, "signals", startDate, endDate)
}

func (s *HTTPSource) fetch(ctx context.Context, kind string, startDate, endDate time.Time) (*timeseries.Panel, error) {
	url := expandKind(s.url, kind)

	start := time.Now()
	resp, err := s.client.Get(ctx, url)
	if err != nil {
		metrics.RecordDataFetch(httpSourceName, "error", time.Since(start).Seconds())
		return nil, NewDataSourceError(httpSourceName, ErrCodeNetworkError, fmt.Sprintf("fetch %s", kind), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, NewDataSourceError(httpSourceName, ErrCodeNotFound, fmt.Sprintf("%s not found", kind), ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewDataSourceError(httpSourceName, ErrCodeRateLimitExceeded, "throttled by provider", ErrRateLimitExceeded)
	case resp.StatusCode >= 500:
		return nil, NewDataSourceError(httpSourceName, ErrCodeServerError, fmt.Sprintf("status %d", resp.StatusCode), ErrServerError)
	case resp.StatusCode != http.StatusOK:
		return nil, NewDataSourceError(httpSourceName, ErrCodeUnknown, fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	panel, err := ParsePanelCSV(resp.Body)
	if err != nil {
		metrics.RecordDataFetch(httpSourceName, "error", time.Since(start).Seconds())
		return nil, NewDataSourceError(httpSourceName, ErrCodeInvalidData, fmt.Sprintf("parse %s", kind), err)
	}
	metrics.RecordDataFetch(httpSourceName, "success", time.Since(start).Seconds())

	s.logger.WithFields(logrus.Fields{
		"kind":     kind,
		"rows":     panel.Len(),
		"tickers":  panel.NumTickers(),
		"duration": time.Since(start).String(),
	}).Debug("Fetched panel")

	if !startDate.IsZero() || !endDate.IsZero() {
		if endDate.IsZero() {
			endDate = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
		}
		panel = panel.Between(startDate, endDate)
	}
	return panel, nil
}

// Close releases the underlying HTTP client.
func (s *HTTPSource) Close() error {
	return s.client.Close()
}

func expandKind(url, kind string) string {
	const placeholder = "{kind}"
	out := make([]byte, 0, len(url)+len(kind))
	for i := 0; i < len(url); {
		if i+len(placeholder) <= len(url) && url[i:i+len(placeholder)] == placeholder {
			out = append(out, kind...)
			i += len(placeholder)
			continue
		}
		out = append(out, url[i])
		i++
	}
	return string(out)
}
