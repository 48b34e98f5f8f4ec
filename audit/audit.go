// Copyright 2021-2026
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/penny-vault/pv-audit/data"
	"github.com/penny-vault/pv-audit/dataframe"
	"github.com/penny-vault/pv-audit/observability/metrics"
	"github.com/penny-vault/pv-audit/observability/opentelemetry"
	"github.com/penny-vault/pv-audit/portfolio"
	"github.com/penny-vault/pv-audit/selection"
	"github.com/penny-vault/pv-audit/simulation"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Request is one audit of an externally supplied allocation
type Request struct {
	Allocation     []portfolio.Holding
	Returns        *dataframe.DataFrame
	RiskPreference selection.Preference
	RiskFreeRate   float64

	// Simulations defaults to Config.Simulations when 0
	Simulations int

	// Seed overrides Config.Seed when non-zero
	Seed uint64
}

// Side is an allocation and its metrics
type Side struct {
	Allocation *portfolio.Allocation
	Metrics    portfolio.Metrics
}

// Result pairs the externally supplied allocation with the selected simulated one. The
// population is kept for visualization only.
type Result struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	RiskPreference selection.Preference
	RiskFreeRate   float64
	Universe       portfolio.Universe
	NumSimulations int
	Seed           uint64
	User           Side
	Optimal        Side
	OptimalIndex   int
	Population     *simulation.Population
}

// EstimateAndSimulate estimates returns and covariance over universe and draws a
// population of n random allocations
func EstimateAndSimulate(ctx context.Context, universe portfolio.Universe, returns *dataframe.DataFrame,
	n int, riskFreeRate float64, cfg Config) (*simulation.Population, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "audit.EstimateAndSimulate")
	defer span.End()

	if returns == nil {
		return nil, ErrNoReturns
	}

	universe, err := portfolio.NewUniverse(universe...)
	if err != nil {
		return nil, err
	}

	est, err := estimate(ctx, universe, returns, cfg.Cache)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "estimate failed")
		return nil, err
	}

	return simulation.Run(ctx, est, cfg.simulationOptions(n, riskFreeRate, 0))
}

// Run audits req.Allocation: the allocation is reconciled against the history, scored,
// and compared with the population member chosen by the selection policy. Either the
// result or the error is nil, never both.
func Run(ctx context.Context, req Request, cfg Config) (*Result, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "audit.Run")
	defer span.End()

	res, err := run(ctx, req, cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.AuditsTotal.WithLabelValues("audit", "error").Inc()
		return nil, err
	}

	span.SetStatus(codes.Ok, "audit complete")
	metrics.AuditsTotal.WithLabelValues("audit", "success").Inc()
	return res, nil
}

func run(ctx context.Context, req Request, cfg Config) (*Result, error) {
	start := time.Now()
	id := uuid.New()
	subLog := log.With().Str("AuditID", id.String()).Logger()

	if req.Returns == nil {
		return nil, ErrNoReturns
	}

	if len(req.Allocation) == 0 {
		return nil, ErrEmptyAllocation
	}

	numSimulations := req.Simulations
	if numSimulations == 0 {
		numSimulations = cfg.Simulations
	}
	if numSimulations < 1 {
		return nil, fmt.Errorf("%w: got %d", simulation.ErrInvalidSampleCount, numSimulations)
	}

	// every check that can reject the request runs before any simulation work
	user, err := portfolio.Reconcile(req.Allocation, req.Returns.ColNames)
	if err != nil {
		return nil, err
	}

	if dropped := countDropped(req.Allocation, user.Universe); dropped > 0 {
		metrics.DroppedAssets.Add(float64(dropped))
	}

	est, err := estimate(ctx, user.Universe, req.Returns, cfg.Cache)
	if err != nil {
		return nil, err
	}

	userMetrics, err := portfolio.Evaluate(user.Weights, est, req.RiskFreeRate)
	if err != nil {
		return nil, err
	}

	simCtx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "audit.simulate", trace.WithAttributes(
		attribute.Int("NumSimulations", numSimulations),
		attribute.String("Universe", user.Universe.String()),
	))
	pop, err := simulation.Run(simCtx, est, cfg.simulationOptions(numSimulations, req.RiskFreeRate, req.Seed))
	span.End()
	if err != nil {
		return nil, err
	}

	idx, err := selection.Select(pop, req.RiskPreference, cfg.Selection)
	if err != nil {
		return nil, err
	}

	optimal, err := pop.Allocation(idx)
	if err != nil {
		return nil, err
	}

	res := &Result{
		ID:             id,
		CreatedAt:      time.Now(),
		RiskPreference: req.RiskPreference,
		RiskFreeRate:   req.RiskFreeRate,
		Universe:       user.Universe,
		NumSimulations: numSimulations,
		Seed:           pop.Seed,
		User: Side{
			Allocation: user,
			Metrics:    userMetrics,
		},
		Optimal: Side{
			Allocation: optimal,
			Metrics:    pop.Metrics(idx),
		},
		OptimalIndex: idx,
		Population:   pop,
	}

	subLog.Info().Int("NumAssets", user.Universe.Len()).Int("NumSimulations", numSimulations).
		Str("RiskPreference", req.RiskPreference.String()).Float64("UserSharpe", userMetrics.SharpeRatio).
		Float64("OptimalSharpe", res.Optimal.Metrics.SharpeRatio).Dur("Duration", time.Since(start)).
		Msg("audit complete")

	return res, nil
}

// countDropped returns the number of distinct submitted identifiers that are not in the
// reconciled universe
func countDropped(candidate []portfolio.Holding, universe portfolio.Universe) int {
	seen := make(map[string]bool, len(candidate))
	for _, holding := range candidate {
		ticker := strings.ToUpper(strings.TrimSpace(holding.Ticker))
		if universe.Index(ticker) == -1 {
			seen[ticker] = true
		}
	}
	return len(seen)
}

// AvailableAssets lists the assets of returns that pass validation
func AvailableAssets(returns *dataframe.DataFrame) ([]string, error) {
	if err := data.ValidateReturns(returns); err != nil {
		return nil, err
	}
	assets := make([]string, len(returns.ColNames))
	copy(assets, returns.ColNames)
	return assets, nil
}
