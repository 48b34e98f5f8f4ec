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
	"math"
	"time"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pv-audit/portfolio"
	"github.com/penny-vault/pv-audit/simulation"
)

// Floats encode non-finite values as null
type Floats []float64

func (f Floats) MarshalJSON() ([]byte, error) {
	out := make([]*float64, len(f))
	for idx := range f {
		if math.IsNaN(f[idx]) || math.IsInf(f[idx], 0) {
			continue
		}
		out[idx] = &f[idx]
	}
	return json.Marshal(out)
}

type SideView struct {
	Weights map[string]float64 `json:"weights"`
	Metrics portfolio.Metrics  `json:"metrics"`
}

type PopulationView struct {
	Weights    [][]float64 `json:"weights"`
	Returns    Floats      `json:"returns"`
	Volatility Floats      `json:"volatility"`
	Sharpe     Floats      `json:"sharpe"`
}

type ResultView struct {
	ID             string                     `json:"id"`
	CreatedAt      time.Time                  `json:"createdAt"`
	RiskPreference string                     `json:"riskPreference"`
	RiskFreeRate   float64                    `json:"riskFreeRate"`
	Universe       []string                   `json:"universe"`
	NumSimulations int                        `json:"numSimulations"`
	Seed           uint64                     `json:"seed"`
	User           SideView                   `json:"user"`
	Optimal        SideView                   `json:"optimal"`
	Frontier       []simulation.FrontierPoint `json:"frontier"`
	Population     *PopulationView            `json:"population,omitempty"`
}

type OptimizeView struct {
	ID             string                     `json:"id"`
	CreatedAt      time.Time                  `json:"createdAt"`
	Horizon        Horizon                    `json:"horizon"`
	RiskPreference string                     `json:"riskPreference"`
	Universe       []string                   `json:"universe"`
	NumSimulations int                        `json:"numSimulations"`
	Seed           uint64                     `json:"seed"`
	Optimal        SideView                   `json:"optimal"`
	Assets         []portfolio.AssetStats     `json:"assets"`
	Frontier       []simulation.FrontierPoint `json:"frontier"`
	Population     *PopulationView            `json:"population,omitempty"`
}

func sideView(side Side) SideView {
	return SideView{
		Weights: side.Allocation.Map(),
		Metrics: side.Metrics,
	}
}

func populationView(pop *simulation.Population) *PopulationView {
	weights := make([][]float64, pop.Len())
	for idx := range weights {
		weights[idx] = pop.WeightsAt(idx)
	}
	return &PopulationView{
		Weights:    weights,
		Returns:    pop.Returns,
		Volatility: pop.Volatility,
		Sharpe:     pop.Sharpe,
	}
}

// View flattens the result for JSON encoding; the full population is only included
// when requested
func (r *Result) View(bins int, includePopulation bool) ResultView {
	view := ResultView{
		ID:             r.ID.String(),
		CreatedAt:      r.CreatedAt,
		RiskPreference: r.RiskPreference.String(),
		RiskFreeRate:   r.RiskFreeRate,
		Universe:       r.Universe,
		NumSimulations: r.NumSimulations,
		Seed:           r.Seed,
		User:           sideView(r.User),
		Optimal:        sideView(r.Optimal),
		Frontier:       r.Population.Frontier(bins),
	}
	if includePopulation {
		view.Population = populationView(r.Population)
	}
	return view
}

func (r *OptimizeResult) View(bins int, includePopulation bool) OptimizeView {
	view := OptimizeView{
		ID:             r.ID.String(),
		CreatedAt:      r.CreatedAt,
		Horizon:        r.Horizon,
		RiskPreference: r.RiskPreference.String(),
		Universe:       r.Universe,
		NumSimulations: r.NumSimulations,
		Seed:           r.Seed,
		Optimal:        sideView(r.Optimal),
		Assets:         r.Assets,
		Frontier:       r.Population.Frontier(bins),
	}
	if includePopulation {
		view.Population = populationView(r.Population)
	}
	return view
}
