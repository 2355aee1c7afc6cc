package server

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aristath/portfolio-risk-engine/internal/distribution"
	"github.com/aristath/portfolio-risk-engine/internal/domain"
	"github.com/aristath/portfolio-risk-engine/internal/events"
	"github.com/aristath/portfolio-risk-engine/internal/matrix"
	"github.com/aristath/portfolio-risk-engine/internal/portfolio"
	"github.com/aristath/portfolio-risk-engine/internal/provider"
	"github.com/aristath/portfolio-risk-engine/internal/simulate"
	"github.com/aristath/portfolio-risk-engine/internal/stats"
)

// positionInput is one position in a simulate request body.
type positionInput struct {
	Symbol      string                 `json:"symbol"`
	Quantity    float64                `json:"quantity"`
	Price       float64                `json:"price"`
	Currency    string                 `json:"currency"`
	Percentiles *distribution.Quintuple `json:"percentiles,omitempty"`
}

// correlationEdit overrides a single below-diagonal correlation cell,
// mirrored to its transpose before the repair step runs. This is the
// "user edit" half of the correlation matrix's mutation path; the other
// half, a full precomputed matrix, comes in via CorrelationMatrix.
type correlationEdit struct {
	I     int     `json:"i"`
	J     int     `json:"j"`
	Value float64 `json:"value"`
}

// simulateRequest is the POST /api/simulate body.
type simulateRequest struct {
	Positions         []positionInput    `json:"positions"`
	CashBalance       float64            `json:"cashBalance"`
	CashRate          float64            `json:"cashRate"`
	TotalPaths        int                `json:"totalPaths"`
	Seed              *int64             `json:"seed,omitempty"`
	Range             string             `json:"range,omitempty"`
	Config            *simulate.Config   `json:"config,omitempty"`
	CorrelationMatrix [][]float64        `json:"correlationMatrix,omitempty"`
	CorrelationEdits  []correlationEdit  `json:"correlationEdits,omitempty"`
}

// handleSimulate implements POST /api/simulate.
func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Positions) == 0 {
		s.writeError(w, http.StatusBadRequest, "at least one position required")
		return
	}
	if req.TotalPaths <= 0 {
		req.TotalPaths = 10000
	}

	positions := make([]portfolio.Position, len(req.Positions))
	for i, p := range req.Positions {
		positions[i] = portfolio.Position{
			Symbol:          p.Symbol,
			Quantity:        p.Quantity,
			Price:           p.Price,
			Currency:        domain.Currency(p.Currency),
			UserPercentiles: p.Percentiles,
		}
	}

	snapshot, err := portfolio.New(positions, req.CashBalance, req.CashRate)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg := simulate.DefaultConfig()
	if req.Config != nil {
		cfg = *req.Config
	}
	rng := provider.Range(req.Range)
	if !rng.Valid() {
		rng = provider.Range5Y
	}

	params, cholesky, err := s.buildSimulationInputs(snapshot, cfg, rng, req.CorrelationMatrix, req.CorrelationEdits)
	if err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	weights, cashWeight := snapshot.Weights()
	portfolioVol := estimatePortfolioVol(weights, params, cholesky)

	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}

	runID := uuid.New().String()
	ctx, cancel := context.WithCancel(r.Context())
	s.registerRun(runID, cancel)
	defer s.unregisterRun(runID)

	s.events.Emit(events.SimulationStarted, "simulate", map[string]interface{}{
		"runId": runID, "totalPaths": req.TotalPaths, "positions": len(snapshot.Positions),
	})

	coordinator := simulate.NewCoordinator()
	summary, err := coordinator.Run(ctx, simulate.RunRequest{
		TotalPaths:      req.TotalPaths,
		Cholesky:        cholesky,
		Params:          params,
		PositionWeights: weights,
		CashWeight:      cashWeight,
		CashRate:        snapshot.CashRate,
		PortfolioVol:    portfolioVol,
		Config:          cfg,
		Seed:            seed,
		OnProgress: func(p simulate.Progress) {
			s.events.Emit(events.SimulationProgress, "simulate", map[string]interface{}{
				"runId": runID, "phase": string(p.Phase), "currentPaths": p.CurrentPaths, "totalPaths": p.TotalPaths,
			})
		},
	})
	if err != nil {
		if errors.Is(err, simulate.ErrCancelled) {
			s.events.Emit(events.SimulationCancelled, "simulate", map[string]interface{}{"runId": runID})
		} else {
			s.events.Emit(events.SimulationFailed, "simulate", map[string]interface{}{"runId": runID, "error": err.Error()})
		}
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	s.events.Emit(events.SimulationCompleted, "simulate", map[string]interface{}{"runId": runID})

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"runId":   runID,
		"phase":   string(simulate.PhaseDone),
		"summary": summary,
	})
}

// handleCancelSimulate implements DELETE /api/simulate/{runId}.
func (s *Server) handleCancelSimulate(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runId")

	s.runsMu.Lock()
	cancel, ok := s.runs[runID]
	s.runsMu.Unlock()

	if !ok {
		s.writeError(w, http.StatusNotFound, "no in-flight run with that id")
		return
	}

	cancel()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"runId": runID, "cancelled": true})
}

func (s *Server) registerRun(runID string, cancel context.CancelFunc) {
	s.runsMu.Lock()
	defer s.runsMu.Unlock()
	s.runs[runID] = cancel
}

func (s *Server) unregisterRun(runID string) {
	s.runsMu.Lock()
	defer s.runsMu.Unlock()
	delete(s.runs, runID)
}

// buildSimulationInputs derives per-asset distribution parameters and a
// Cholesky-factorised correlation matrix for snapshot's positions. When a
// position carries user-supplied percentiles those are used directly;
// otherwise a bootstrap distribution is computed from fetched history.
// When the caller did not supply a correlation matrix, one is built from
// the same fetched return series, optionally shrunk per cfg.
func (s *Server) buildSimulationInputs(
	snapshot *portfolio.Snapshot,
	cfg simulate.Config,
	rng provider.Range,
	providedMatrix [][]float64,
	edits []correlationEdit,
) ([]distribution.Params, [][]float64, error) {
	n := len(snapshot.Positions)
	params := make([]distribution.Params, n)
	returns := make([][]float64, n)

	for i, pos := range snapshot.Positions {
		if pos.UserPercentiles != nil {
			params[i] = distribution.Derive(*pos.UserPercentiles)
			continue
		}

		if cfg.GldAsCash && strings.EqualFold(pos.Symbol, "GLD") {
			params[i] = distribution.Params{
				Mu: snapshot.CashRate, Sigma: distribution.MinSigma,
				Skew: distribution.DefaultSkew, TailDf: distribution.DefaultTailDf,
			}
			continue
		}

		series, _, err := s.provider.FetchSeries(pos.Symbol, rng)
		if err != nil {
			return nil, nil, err
		}
		pool := stats.LogReturns(series.Points)
		returns[i] = stats.DailyReturns(series.Points)

		dist, err := stats.BootstrapAnnualReturns(pool, s.cfg.DefaultBootstrapIterations, symbolSeed(pos.Symbol))
		if err != nil {
			params[i] = distribution.Params{
				Mu: distribution.DefaultMu, Sigma: distribution.DefaultSigma,
				Skew: distribution.DefaultSkew, TailDf: distribution.DefaultTailDf,
			}
			continue
		}
		params[i] = distribution.Derive(distribution.FromBootstrap(dist))
	}

	var m *matrix.Matrix
	if len(providedMatrix) == n && n > 0 {
		m = &matrix.Matrix{N: n, Values: providedMatrix}
	} else if n == 1 {
		m = &matrix.Matrix{N: 1, Values: [][]float64{{1}}}
	} else {
		var built *matrix.Matrix
		if cfg.UseEwma {
			built, _ = matrix.BuildEWMA(returns)
		} else {
			built, _ = matrix.Build(returns)
		}
		m = built
		if cfg.CorrelationMethod == simulate.CorrelationShrinkage {
			m.Shrink(cfg.ShrinkageAlpha)
		}
	}

	for _, e := range edits {
		if err := m.SetLowerTriangle(e.I, e.J, e.Value); err != nil {
			return nil, nil, err
		}
	}

	if err := m.Repair(); err != nil {
		return nil, nil, err
	}
	cholesky, err := m.Cholesky()
	if err != nil {
		return nil, nil, err
	}

	return params, cholesky, nil
}

// estimatePortfolioVol gives the drawdown-proxy step a portfolio-level
// volatility: sqrt(w' Σ w) built from each asset's sigma and the
// correlation implied by the Cholesky factor's reconstructed matrix.
func estimatePortfolioVol(weights []float64, params []distribution.Params, cholesky [][]float64) float64 {
	n := len(weights)
	if n == 0 {
		return 0
	}

	corr := make([][]float64, n)
	for i := 0; i < n; i++ {
		corr[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			var sum float64
			for k := 0; k <= i && k <= j; k++ {
				sum += cholesky[i][k] * cholesky[j][k]
			}
			corr[i][j] = sum
		}
	}

	var variance float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			variance += weights[i] * weights[j] * params[i].Sigma * params[j].Sigma * corr[i][j]
		}
	}
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}
