package portfolio

import (
	"testing"

	"github.com/aristath/portfolio-risk-engine/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ComputesGrossAndNetValue(t *testing.T) {
	positions := []Position{
		{Symbol: "AAPL", Quantity: 10, Price: 190, Currency: domain.CurrencyUSD},
		{Symbol: "MSFT", Quantity: 5, Price: 400, Currency: domain.CurrencyUSD},
	}
	snap, err := New(positions, 1000, 0.04)
	require.NoError(t, err)

	assert.Equal(t, 10*190.0+5*400.0, snap.GrossValue)
	assert.Equal(t, snap.GrossValue+1000, snap.NetValue)
}

func TestNew_RejectsEmptyPositions(t *testing.T) {
	_, err := New(nil, 1000, 0.04)
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestNew_RejectsNonPositivePrice(t *testing.T) {
	positions := []Position{{Symbol: "AAPL", Quantity: 10, Price: 0, Currency: domain.CurrencyUSD}}
	_, err := New(positions, 1000, 0.04)
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestNew_RejectsNonPositiveNetValue(t *testing.T) {
	positions := []Position{{Symbol: "AAPL", Quantity: 1, Price: 100, Currency: domain.CurrencyUSD}}
	_, err := New(positions, -200, 0.04)
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestWeights_SumToOneWithNoLeverage(t *testing.T) {
	positions := []Position{
		{Symbol: "AAPL", Quantity: 10, Price: 100, Currency: domain.CurrencyUSD},
		{Symbol: "MSFT", Quantity: 10, Price: 100, Currency: domain.CurrencyUSD},
	}
	snap, err := New(positions, 0, 0.0)
	require.NoError(t, err)

	weights, cashWeight := snap.Weights()
	sum := cashWeight
	for _, w := range weights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}
