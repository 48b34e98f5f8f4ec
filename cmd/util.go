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

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/penny-vault/pv-audit/audit"
	"github.com/penny-vault/pv-audit/data"
	"github.com/penny-vault/pv-audit/data/database"
	"github.com/penny-vault/pv-audit/dataframe"
	"github.com/penny-vault/pv-audit/selection"
	"github.com/penny-vault/pv-audit/simulation"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// auditConfig builds the audit configuration from viper. Core packages never read viper
// themselves; everything they need is carried by the returned struct.
func auditConfig() (audit.Config, error) {
	cfg := audit.DefaultConfig()

	cfg.RiskFreeRate = viper.GetFloat64("audit.risk_free_rate")
	pref, err := selection.ParsePreference(viper.GetString("audit.risk_preference"))
	if err != nil {
		return cfg, err
	}
	cfg.RiskPreference = pref

	cfg.Simulations = viper.GetInt("simulation.count")
	cfg.OptimizeSimulations = viper.GetInt("simulation.optimize_count")
	cfg.MinSimulations = viper.GetInt("simulation.min_count")
	cfg.MaxSimulations = viper.GetInt("simulation.max_count")
	cfg.Seed = viper.GetUint64("simulation.seed")
	cfg.Workers = viper.GetInt("simulation.workers")
	cfg.BatchSize = viper.GetInt("simulation.batch_size")

	sampler, err := simulation.NewSampler(viper.GetString("simulation.sampler"), viper.GetFloat64("simulation.dirichlet_alpha"))
	if err != nil {
		return cfg, err
	}
	cfg.Sampler = sampler

	method := strings.ToLower(viper.GetString("selection.method"))
	switch method {
	case selection.MethodExtreme, selection.MethodPenalty:
	default:
		return cfg, fmt.Errorf("%w: %s", selection.ErrUnknownMethod, method)
	}
	cfg.Selection = selection.Config{
		Method: method,
		Penalties: map[selection.Preference]float64{
			selection.Low:    viper.GetFloat64("selection.penalties.low"),
			selection.Medium: viper.GetFloat64("selection.penalties.medium"),
			selection.High:   viper.GetFloat64("selection.penalties.high"),
		},
	}

	if viper.IsSet("horizons") {
		horizons := make(map[string]audit.Horizon)
		if err := viper.UnmarshalKey("horizons", &horizons); err != nil {
			return cfg, err
		}
		for label, horizon := range horizons {
			if horizon.Label == "" {
				horizon.Label = label
			}
			horizons[label] = horizon
		}
		cfg.Horizons = horizons
	}

	cfg.MinAssets = viper.GetInt("optimize.min_assets")
	cfg.MaxAssets = viper.GetInt("optimize.max_assets")
	cfg.FrontierBins = viper.GetInt("audit.frontier_bins")

	return cfg, nil
}

// newStore creates the history store for the configured returns source. The database is
// only connected when it is the configured source.
func newStore(ctx context.Context) (*data.Store, error) {
	source := viper.GetString("returns.source")

	var db data.Querier
	if strings.EqualFold(source, data.SourceDatabase) {
		if err := database.Connect(ctx, viper.GetString("database.url")); err != nil {
			return nil, err
		}
		pool, err := database.Pool()
		if err != nil {
			return nil, err
		}
		db = pool
	}

	provider, err := data.NewProvider(source, viper.GetString("returns.path"), db)
	if err != nil {
		return nil, err
	}

	return data.NewStore(provider), nil
}

// loadReturns loads the history once for the one-shot commands
func loadReturns(ctx context.Context) *dataframe.DataFrame {
	store, err := newStore(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("could not configure historical returns source")
	}

	if err := store.Refresh(ctx); err != nil {
		log.Fatal().Err(err).Msg("could not load historical returns")
	}

	df, err := store.Returns()
	if err != nil {
		log.Fatal().Err(err).Msg("no historical returns available")
	}
	return df
}

func mustAuditConfig() audit.Config {
	cfg, err := auditConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid audit configuration")
	}
	return cfg
}
