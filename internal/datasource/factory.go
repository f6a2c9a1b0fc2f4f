package datasource

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/alpha-lab/internal/config"
)

// NewFromConfig builds the panel source described by the data configuration.
// A local CSV path wins over a remote URL; either way the source is wrapped
// in a TTL cache when caching is configured.
func NewFromConfig(cfg config.DataConfig, logger *logrus.Logger) (PanelSource, error) {
	var source PanelSource

	switch {
	case cfg.PricesPath != "":
		source = NewCSVSource(cfg.PricesPath, cfg.SignalsPath)
	case cfg.PricesURL != "":
		httpCfg := DefaultHTTPClientConfig()
		if cfg.TimeoutSeconds > 0 {
			httpCfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
		}
		if cfg.MaxRetries > 0 {
			httpCfg.MaxRetries = cfg.MaxRetries
		}
		if cfg.RateLimit > 0 {
			httpCfg.RateLimit = cfg.RateLimit
		}
		source = NewHTTPSource(cfg.PricesURL, httpCfg, logger)
	default:
		return nil, fmt.Errorf("no panel source configured")
	}

	if cfg.CacheTTLSeconds > 0 {
		source = NewCachedSource(source, time.Duration(cfg.CacheTTLSeconds)*time.Second)
	}

	return source, nil
}
