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

package selection

import (
	"fmt"
	"math"
	"strings"

	"github.com/penny-vault/pv-audit/simulation"
	"github.com/rs/zerolog/log"
)

const (
	// MethodExtreme picks min-volatility for Low and max-Sharpe otherwise
	MethodExtreme = "extreme"

	// MethodPenalty scores return / (volatility * penalty[preference]). The penalty is
	// one constant per preference, so it scales every score equally and every
	// preference selects the same sample: the maximum of return / volatility.
	MethodPenalty = "penalty"
)

// Config chooses the policy used on every call path
type Config struct {
	Method    string
	Penalties map[Preference]float64
}

// DefaultConfig returns the extreme-point policy with the standard penalty table
func DefaultConfig() Config {
	return Config{
		Method: MethodExtreme,
		Penalties: map[Preference]float64{
			Low:    1.5,
			Medium: 1.0,
			High:   0.7,
		},
	}
}

// Select returns the index of the population member matching the preference. Ties
// resolve to the first occurrence and NaN scores are never chosen.
func Select(pop *simulation.Population, pref Preference, cfg Config) (int, error) {
	if pop == nil || pop.Len() == 0 {
		return -1, ErrEmptyPopulation
	}

	if pref < Low || pref > High {
		return -1, fmt.Errorf("%w: %d", ErrUnknownPreference, int(pref))
	}

	var idx int
	switch strings.ToLower(cfg.Method) {
	case MethodExtreme, "":
		if pref == Low {
			idx = MinVolatility(pop)
		} else {
			idx = MaxSharpe(pop)
		}
	case MethodPenalty:
		penalty, ok := cfg.Penalties[pref]
		if !ok || penalty <= 0 {
			penalty = DefaultConfig().Penalties[pref]
		}
		idx = argMaxScore(pop, penalty)
	default:
		return -1, fmt.Errorf("%w: %s", ErrUnknownMethod, cfg.Method)
	}

	if idx == -1 {
		return -1, ErrNoEligibleSample
	}

	log.Debug().Str("Preference", pref.String()).Str("Method", cfg.Method).Int("Index", idx).
		Float64("Sharpe", pop.Sharpe[idx]).Float64("Volatility", pop.Volatility[idx]).Msg("selected optimal portfolio")

	return idx, nil
}

// MaxSharpe returns the index of the highest Sharpe ratio
func MaxSharpe(pop *simulation.Population) int {
	return argMax(pop.Sharpe)
}

// MinVolatility returns the index of the lowest volatility
func MinVolatility(pop *simulation.Population) int {
	return argMin(pop.Volatility)
}

func argMax(vals []float64) int {
	best := -1
	for idx, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		if best == -1 || v > vals[best] {
			best = idx
		}
	}
	return best
}

func argMin(vals []float64) int {
	best := -1
	for idx, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		if best == -1 || v < vals[best] {
			best = idx
		}
	}
	return best
}

// argMaxScore maximizes return / (volatility * penalty). A zero-volatility sample scores
// like the Sharpe sentinel on its raw return.
func argMaxScore(pop *simulation.Population, penalty float64) int {
	best := -1
	bestScore := math.Inf(-1)
	for idx := 0; idx < pop.Len(); idx++ {
		var score float64
		ret := pop.Returns[idx]
		vol := pop.Volatility[idx]
		switch {
		case vol > 0:
			score = ret / (vol * penalty)
		case ret > 0:
			score = math.Inf(1)
		case ret < 0:
			score = math.Inf(-1)
		default:
			score = 0
		}

		if math.IsNaN(score) {
			continue
		}
		if best == -1 || score > bestScore {
			best = idx
			bestScore = score
		}
	}
	return best
}
