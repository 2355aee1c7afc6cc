package simulate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/aristath/portfolio-risk-engine/internal/distribution"
	"gonum.org/v1/gonum/stat"
)

// Phase enumerates the coordinator's reported progress states.
type Phase string

const (
	PhaseInit     Phase = "init"
	PhaseCholesky Phase = "cholesky"
	PhaseSampling Phase = "sampling"
	PhaseReducing Phase = "reducing"
	PhaseDone     Phase = "done"
)

// ErrInsufficientValidPaths is returned when too many paths produced
// non-finite results to trust the summary.
var ErrInsufficientValidPaths = errors.New("simulate: insufficient valid paths")

// ErrCancelled is returned when the caller's context was cancelled mid-run.
var ErrCancelled = errors.New("simulate: cancelled")

// ErrShardTimeout is returned when a shard exceeds its compute budget.
var ErrShardTimeout = errors.New("simulate: shard timeout")

const (
	maxWorkers          = 8
	shardTimeout        = 30 * time.Second
	validPathFraction   = 0.9
	cancelCheckInterval = 4000
)

// Progress reports coordinator progress to an optional callback.
type Progress struct {
	CurrentPaths int
	TotalPaths   int
	Phase        Phase
}

// RunRequest bundles everything one simulation run needs.
type RunRequest struct {
	TotalPaths      int
	Cholesky        [][]float64
	Params          []distribution.Params
	PositionWeights []float64
	CashWeight      float64
	CashRate        float64
	PortfolioVol    float64
	Config          Config
	Seed            int64
	OnProgress      func(Progress)
}

// Summary is the reduced, sorted output of a completed run.
type Summary struct {
	Percentiles         map[string]float64 `json:"percentiles"` // keys: p5,p10,p25,p50,p75,p90,p95
	Mean                float64            `json:"mean"`
	DrawdownPercentiles map[string]float64 `json:"drawdownPercentiles"` // keys: p50,p75,p90,p95,p99
	ProbLossBelowNeg10  float64            `json:"probLossBelowNeg10"`
	ProbLossBelowNeg20  float64            `json:"probLossBelowNeg20"`
	ProbLossBelowZero   float64            `json:"probLossBelowZero"`
	// ProbDrawdownBeyondThreshold is the fraction of paths whose max
	// drawdown met or exceeded Config.DrawdownThreshold (default 0.20).
	ProbDrawdownBeyondThreshold float64 `json:"probDrawdownBeyondThreshold"`
	ValidPaths          int                `json:"validPaths"`
	TotalPaths          int                `json:"totalPaths"`
}

// Coordinator partitions totalPaths across workers, reduces the shard
// outputs, and reports aggregate statistics.
type Coordinator struct{}

// NewCoordinator creates a Coordinator. It holds no state: every field a
// run needs travels in RunRequest.
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Run executes one simulation, partitioning req.TotalPaths across
// min(runtime.NumCPU(), 8) workers. Each shard polls ctx every
// cancelCheckInterval paths, and Run checks it once more after all shards
// have joined.
func (c *Coordinator) Run(ctx context.Context, req RunRequest) (*Summary, error) {
	if len(req.PositionWeights) != len(req.Params) {
		return nil, fmt.Errorf("simulate: %d weights but %d asset params", len(req.PositionWeights), len(req.Params))
	}
	if req.TotalPaths <= 0 {
		return nil, fmt.Errorf("simulate: totalPaths must be positive")
	}

	report := func(p Progress) {
		if req.OnProgress != nil {
			req.OnProgress(p)
		}
	}
	report(Progress{Phase: PhaseInit, TotalPaths: req.TotalPaths})

	workers := runtime.NumCPU()
	if workers > maxWorkers {
		workers = maxWorkers
	}
	if workers < 1 {
		workers = 1
	}
	if workers > req.TotalPaths {
		workers = req.TotalPaths
	}

	shardSizes := partition(req.TotalPaths, workers)

	report(Progress{Phase: PhaseCholesky, TotalPaths: req.TotalPaths})
	report(Progress{Phase: PhaseSampling, TotalPaths: req.TotalPaths})

	results := make([][]PathResult, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	var indexOffset uint64
	for shard := 0; shard < workers; shard++ {
		wg.Add(1)
		shardIndex := shard
		shardSize := shardSizes[shard]
		subSeed := req.Seed + int64(shardIndex)*1_000_003
		startIndex := indexOffset
		indexOffset += uint64(shardSize)

		go func() {
			defer wg.Done()
			results[shardIndex], errs[shardIndex] = runShard(ctx, req, shardSize, subSeed, startIndex)
		}()
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ErrCancelled
		}
	}

	report(Progress{Phase: PhaseReducing, TotalPaths: req.TotalPaths, CurrentPaths: req.TotalPaths})

	var terminal, drawdowns []float64
	for shard := 0; shard < workers; shard++ {
		for _, r := range results[shard] {
			if !finite(r.TerminalReturn) || !finite(r.MaxDrawdown) {
				continue
			}
			terminal = append(terminal, r.TerminalReturn)
			drawdowns = append(drawdowns, r.MaxDrawdown)
		}
	}

	validCount := len(terminal)
	if float64(validCount) < validPathFraction*float64(req.TotalPaths) {
		return nil, ErrInsufficientValidPaths
	}

	sort.Float64s(terminal)
	sort.Float64s(drawdowns)

	summary := &Summary{
		Percentiles: map[string]float64{
			"p5":  quantileOf(terminal, 0.05),
			"p10": quantileOf(terminal, 0.10),
			"p25": quantileOf(terminal, 0.25),
			"p50": quantileOf(terminal, 0.50),
			"p75": quantileOf(terminal, 0.75),
			"p90": quantileOf(terminal, 0.90),
			"p95": quantileOf(terminal, 0.95),
		},
		Mean: stat.Mean(terminal, nil),
		DrawdownPercentiles: map[string]float64{
			"p50": quantileOf(drawdowns, 0.50),
			"p75": quantileOf(drawdowns, 0.75),
			"p90": quantileOf(drawdowns, 0.90),
			"p95": quantileOf(drawdowns, 0.95),
			"p99": quantileOf(drawdowns, 0.99),
		},
		ProbLossBelowNeg10:          probBelow(terminal, -0.10),
		ProbLossBelowNeg20:          probBelow(terminal, -0.20),
		ProbLossBelowZero:           probBelow(terminal, 0.0),
		ProbDrawdownBeyondThreshold: probAbove(drawdowns, drawdownThreshold(req.Config)),
		ValidPaths:                  validCount,
		TotalPaths:                  req.TotalPaths,
	}

	report(Progress{Phase: PhaseDone, TotalPaths: req.TotalPaths, CurrentPaths: req.TotalPaths})

	return summary, nil
}

func runShard(ctx context.Context, req RunRequest, shardSize int, subSeed int64, startIndex uint64) ([]PathResult, error) {
	n := len(req.Params)

	var stream uniformStream
	if req.Config.SamplingMode == SamplingQMCSobol {
		stream = &sobolStream{seq: NewSobolSequence(uniformsPerPath(n, req.Config.FatTailMode), subSeed, startIndex)}
	} else {
		stream = &pseudoRandomStream{rng: rand.New(rand.NewSource(subSeed))}
	}

	sampler := NewPathSampler(req.Cholesky, req.Params, req.Config.FatTailMode,
		req.PositionWeights, req.CashWeight, req.CashRate, req.PortfolioVol, stream)

	deadline := time.Now().Add(shardTimeout)
	results := make([]PathResult, shardSize)

	for i := 0; i < shardSize; i++ {
		if i%cancelCheckInterval == 0 {
			if ctx.Err() != nil {
				return nil, ErrCancelled
			}
			if time.Now().After(deadline) {
				return nil, ErrShardTimeout
			}
		}
		results[i] = sampler.Sample()
	}

	return results, nil
}

// partition splits total into `workers` roughly equal shard sizes, any
// remainder distributed to the first shards.
func partition(total, workers int) []int {
	sizes := make([]int, workers)
	base := total / workers
	remainder := total % workers
	for i := range sizes {
		sizes[i] = base
		if i < remainder {
			sizes[i]++
		}
	}
	return sizes
}

func quantileOf(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

func probBelow(sortedTerminal []float64, threshold float64) float64 {
	if len(sortedTerminal) == 0 {
		return 0
	}
	idx := sort.SearchFloat64s(sortedTerminal, threshold)
	return float64(idx) / float64(len(sortedTerminal))
}

// probAbove is probBelow's mirror for a sorted-ascending drawdown series:
// the fraction of entries >= threshold.
func probAbove(sortedDrawdowns []float64, threshold float64) float64 {
	if len(sortedDrawdowns) == 0 {
		return 0
	}
	idx := sort.SearchFloat64s(sortedDrawdowns, threshold)
	return float64(len(sortedDrawdowns)-idx) / float64(len(sortedDrawdowns))
}

// drawdownThreshold falls back to the documented default (0.20) when the
// caller's config left the field at its zero value.
func drawdownThreshold(cfg Config) float64 {
	if cfg.DrawdownThreshold <= 0 {
		return 0.20
	}
	return cfg.DrawdownThreshold
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
