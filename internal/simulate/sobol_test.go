package simulate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSobolSequence_DeterministicForSameSeed(t *testing.T) {
	a := NewSobolSequence(6, 42, 0)
	b := NewSobolSequence(6, 42, 0)

	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Next(), b.Next())
	}
}

func TestSobolSequence_DifferentSeedsDiverge(t *testing.T) {
	a := NewSobolSequence(6, 1, 0)
	b := NewSobolSequence(6, 2, 0)

	assert.NotEqual(t, a.Next(), b.Next())
}

func TestSobolSequence_DisjointStartIndexesDiffer(t *testing.T) {
	shardA := NewSobolSequence(4, 7, 0)
	shardB := NewSobolSequence(4, 7, 1000)

	assert.NotEqual(t, shardA.Next(), shardB.Next())
}

func TestSobolSequence_PointsStayWithinUnitInterval(t *testing.T) {
	seq := NewSobolSequence(8, 99, 0)
	for i := 0; i < 50; i++ {
		point := seq.Next()
		for _, v := range point {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.Less(t, v, 1.0)
		}
	}
}

func TestSobolSequence_HandlesDimensionsBeyondPrimeTableSize(t *testing.T) {
	// uniformsPerPath can exceed len(sobolPrimeBases) (32) once the
	// Student-t chi-squared reserve is added; bases must cycle rather
	// than panic or truncate.
	dims := len(sobolPrimeBases) + 10
	seq := NewSobolSequence(dims, 3, 0)

	point := seq.Next()
	assert.Len(t, point, dims)
}

func TestSobolSequence_AdvancesOnEachCall(t *testing.T) {
	seq := NewSobolSequence(4, 5, 0)
	first := seq.Next()
	second := seq.Next()
	assert.NotEqual(t, first, second)
}
