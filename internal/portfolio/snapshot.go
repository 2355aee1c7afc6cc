// Package portfolio defines the immutable snapshot contract the
// Simulation Coordinator consumes for one run.
package portfolio

import (
	"errors"
	"fmt"

	"github.com/aristath/portfolio-risk-engine/internal/domain"
	"github.com/aristath/portfolio-risk-engine/internal/distribution"
)

// ErrInvalidSnapshot is returned by Validate for any structural violation.
var ErrInvalidSnapshot = errors.New("portfolio: invalid snapshot")

// Position is one holding in the simulated portfolio.
type Position struct {
	Symbol           string
	Quantity         float64
	Price            float64
	Currency         domain.Currency
	UserPercentiles  *distribution.Quintuple // optional, overrides bootstrap-derived params
}

// Snapshot is the immutable input to a simulation run. Once constructed
// it is never mutated; every position's currency-adjusted price has
// already been validated positive.
type Snapshot struct {
	Positions   []Position
	CashBalance float64
	CashRate    float64
	GrossValue  float64
	NetValue    float64
}

// New builds and validates a Snapshot from positions priced in a common
// currency (USD conversion happens upstream in the provider layer).
func New(positions []Position, cashBalance, cashRate float64) (*Snapshot, error) {
	if len(positions) == 0 {
		return nil, fmt.Errorf("%w: at least one position required", ErrInvalidSnapshot)
	}

	var gross float64
	for _, p := range positions {
		if p.Price <= 0 {
			return nil, fmt.Errorf("%w: position %s has non-positive price", ErrInvalidSnapshot, p.Symbol)
		}
		gross += p.Quantity * p.Price
	}

	snapshot := &Snapshot{
		Positions:   positions,
		CashBalance: cashBalance,
		CashRate:    cashRate,
		GrossValue:  gross,
		NetValue:    gross + cashBalance,
	}

	if snapshot.NetValue <= 0 {
		return nil, fmt.Errorf("%w: net value must be positive", ErrInvalidSnapshot)
	}

	return snapshot, nil
}

// Weights returns each position's weight of net value, followed by the
// cash weight, leverage-scaled so that Σ position weights + cash weight
// accounts for gross-to-net leverage (gross > net when cash is negative,
// i.e. the portfolio is margined).
func (s *Snapshot) Weights() (positionWeights []float64, cashWeight float64) {
	positionWeights = make([]float64, len(s.Positions))
	for i, p := range s.Positions {
		positionWeights[i] = (p.Quantity * p.Price) / s.NetValue
	}
	cashWeight = s.CashBalance / s.NetValue
	return positionWeights, cashWeight
}
