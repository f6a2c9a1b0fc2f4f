package models

import (
	"github.com/google/uuid"
)

// PortfolioSpec describes how a factor's scores are turned into positions.
type PortfolioSpec struct {
	Scheme   string  `json:"scheme" yaml:"scheme"`
	Weight   string  `json:"weight" yaml:"weight"`
	Notional float64 `json:"notional" yaml:"notional"`
}

// FactorSpec is the boundary contract supplied by the factor research layer.
// Only the portfolio block is interpreted by the backtesting core; the rest
// travels through to persistence untouched.
type FactorSpec struct {
	ID          uuid.UUID         `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Portfolio   PortfolioSpec     `json:"portfolio" yaml:"portfolio"`
	Params      map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// DefaultFactorSpec returns a spec with the standard long-short decile
// portfolio at unit notional.
func DefaultFactorSpec(name string) FactorSpec {
	return FactorSpec{
		ID:   uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)),
		Name: name,
		Portfolio: PortfolioSpec{
			Scheme:   "long_short_deciles",
			Weight:   "equal",
			Notional: 1.0,
		},
	}
}
