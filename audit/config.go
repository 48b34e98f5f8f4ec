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
	"sort"

	"github.com/penny-vault/pv-audit/selection"
	"github.com/penny-vault/pv-audit/simulation"
)

// Horizon is an investment horizon offered on the optimize path
type Horizon struct {
	Label        string  `json:"label" toml:"label" mapstructure:"label"`
	RiskFreeRate float64 `json:"riskFreeRate" toml:"risk_free_rate" mapstructure:"risk_free_rate"`
	Years        float64 `json:"years" toml:"years" mapstructure:"years"`
}

// EstimateCache stores encoded estimates keyed by a fingerprint of the universe and its
// history
type EstimateCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte) error
}

// Config carries every tunable used by audits. It is built once by the caller and
// passed in explicitly so concurrent audits may use different settings.
type Config struct {
	RiskFreeRate   float64
	RiskPreference selection.Preference

	// Simulations is the default population size for Run
	Simulations int

	// OptimizeSimulations is the default population size for Optimize, which must lie
	// within [MinSimulations, MaxSimulations]
	OptimizeSimulations int
	MinSimulations      int
	MaxSimulations      int

	Seed      uint64
	Workers   int
	BatchSize int
	Sampler   simulation.Sampler

	Selection selection.Config
	Horizons  map[string]Horizon

	MinAssets int
	MaxAssets int

	// FrontierBins is the resolution of the frontier envelope in result views
	FrontierBins int

	// Cache is optional
	Cache EstimateCache
}

// DefaultHorizons returns the standard horizon table
func DefaultHorizons() map[string]Horizon {
	return map[string]Horizon{
		"1-3 years": {Label: "1-3 years", RiskFreeRate: 0.015, Years: 1},
		"3-6 years": {Label: "3-6 years", RiskFreeRate: 0.02, Years: 3},
		"6+ years":  {Label: "6+ years", RiskFreeRate: 0.025, Years: 5},
	}
}

func DefaultConfig() Config {
	return Config{
		RiskFreeRate:        0.02,
		RiskPreference:      selection.High,
		Simulations:         400_000,
		OptimizeSimulations: 90_000,
		MinSimulations:      10_000,
		MaxSimulations:      1_000_000,
		BatchSize:           simulation.DefaultBatchSize,
		Sampler:             simulation.Uniform{},
		Selection:           selection.DefaultConfig(),
		Horizons:            DefaultHorizons(),
		MinAssets:           5,
		MaxAssets:           15,
		FrontierBins:        50,
	}
}

// HorizonLabels returns the configured horizons ordered by length
func (cfg Config) HorizonLabels() []string {
	labels := make([]string, 0, len(cfg.Horizons))
	for label := range cfg.Horizons {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		return cfg.Horizons[labels[i]].Years < cfg.Horizons[labels[j]].Years
	})
	return labels
}

func (cfg Config) simulationOptions(samples int, riskFreeRate float64, seed uint64) simulation.Options {
	if seed == 0 {
		seed = cfg.Seed
	}
	return simulation.Options{
		Samples:      samples,
		RiskFreeRate: riskFreeRate,
		Seed:         seed,
		Workers:      cfg.Workers,
		BatchSize:    cfg.BatchSize,
		Sampler:      cfg.Sampler,
	}
}
