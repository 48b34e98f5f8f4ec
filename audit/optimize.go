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
	"github.com/penny-vault/pv-audit/dataframe"
	"github.com/penny-vault/pv-audit/observability/metrics"
	"github.com/penny-vault/pv-audit/observability/opentelemetry"
	"github.com/penny-vault/pv-audit/portfolio"
	"github.com/penny-vault/pv-audit/selection"
	"github.com/penny-vault/pv-audit/simulation"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

// OptimizeRequest asks for the optimal allocation over a hand-picked set of assets
type OptimizeRequest struct {
	Tickers        []string
	Returns        *dataframe.DataFrame
	Horizon        string
	RiskPreference selection.Preference

	// Simulations defaults to Config.OptimizeSimulations when 0
	Simulations int
	Seed        uint64
}

type OptimizeResult struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Horizon        Horizon
	RiskPreference selection.Preference
	Universe       portfolio.Universe
	NumSimulations int
	Seed           uint64
	Optimal        Side
	OptimalIndex   int
	Assets         []portfolio.AssetStats
	Population     *simulation.Population
}

// Optimize simulates allocations over req.Tickers using the risk-free rate of the
// requested horizon and selects one under the risk preference. Per-asset risk and
// return are reported scaled to the horizon.
func Optimize(ctx context.Context, req OptimizeRequest, cfg Config) (*OptimizeResult, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "audit.Optimize")
	defer span.End()

	res, err := optimize(ctx, req, cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.AuditsTotal.WithLabelValues("optimize", "error").Inc()
		return nil, err
	}

	span.SetStatus(codes.Ok, "optimize complete")
	metrics.AuditsTotal.WithLabelValues("optimize", "success").Inc()
	return res, nil
}

func optimize(ctx context.Context, req OptimizeRequest, cfg Config) (*OptimizeResult, error) {
	if req.Returns == nil {
		return nil, ErrNoReturns
	}

	horizon, ok := cfg.Horizons[req.Horizon]
	if !ok {
		return nil, fmt.Errorf("%w: %q; expected one of %s", ErrUnknownHorizon, req.Horizon, strings.Join(cfg.HorizonLabels(), ", "))
	}

	universe := make(portfolio.Universe, 0, len(req.Tickers))
	seen := make(map[string]bool, len(req.Tickers))
	for _, ticker := range req.Tickers {
		ticker = strings.ToUpper(strings.TrimSpace(ticker))
		if ticker == "" || seen[ticker] {
			continue
		}
		if req.Returns.ColIndex(ticker) == -1 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, ticker)
		}
		seen[ticker] = true
		universe = append(universe, ticker)
	}

	if universe.Len() < cfg.MinAssets || universe.Len() > cfg.MaxAssets {
		return nil, fmt.Errorf("%w: select between %d and %d assets, got %d", ErrAssetCount, cfg.MinAssets, cfg.MaxAssets, universe.Len())
	}

	numSimulations := req.Simulations
	if numSimulations == 0 {
		numSimulations = cfg.OptimizeSimulations
	}
	if numSimulations < cfg.MinSimulations || numSimulations > cfg.MaxSimulations {
		return nil, fmt.Errorf("%w: must be between %d and %d, got %d", ErrSimulationCount, cfg.MinSimulations, cfg.MaxSimulations, numSimulations)
	}

	id := uuid.New()
	subLog := log.With().Str("AuditID", id.String()).Str("Horizon", horizon.Label).Logger()
	start := time.Now()

	est, err := estimate(ctx, universe, req.Returns, cfg.Cache)
	if err != nil {
		return nil, err
	}

	assets, err := portfolio.AssetRiskReturn(req.Returns, universe, horizon.Years)
	if err != nil {
		return nil, err
	}

	pop, err := simulation.Run(ctx, est, cfg.simulationOptions(numSimulations, horizon.RiskFreeRate, req.Seed))
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

	subLog.Info().Int("NumAssets", universe.Len()).Int("NumSimulations", numSimulations).
		Str("RiskPreference", req.RiskPreference.String()).Dur("Duration", time.Since(start)).Msg("optimize complete")

	return &OptimizeResult{
		ID:             id,
		CreatedAt:      time.Now(),
		Horizon:        horizon,
		RiskPreference: req.RiskPreference,
		Universe:       universe,
		NumSimulations: numSimulations,
		Seed:           pop.Seed,
		Optimal: Side{
			Allocation: optimal,
			Metrics:    pop.Metrics(idx),
		},
		OptimalIndex: idx,
		Assets:       assets,
		Population:   pop,
	}, nil
}
