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

package portfolio

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Reconcile maps an externally supplied allocation onto the assets that have history.
// The universe is every candidate identifier that is also in available, ordered by its
// first appearance in candidate. Weights of identifiers without history are dropped
// before the remaining weights are re-normalized; repeated identifiers are summed.
// Fewer than 2 overlapping assets fails with ErrInsufficientUniverse.
func Reconcile(candidate []Holding, available []string) (*Allocation, error) {
	availableSet := make(map[string]bool, len(available))
	for _, ticker := range available {
		availableSet[ticker] = true
	}

	universe := make(Universe, 0, len(candidate))
	weights := make([]float64, 0, len(candidate))
	position := make(map[string]int, len(candidate))
	dropped := make([]string, 0)

	for _, holding := range candidate {
		ticker := strings.ToUpper(strings.TrimSpace(holding.Ticker))
		if !availableSet[ticker] {
			dropped = append(dropped, ticker)
			continue
		}

		if holding.Weight < 0 {
			return nil, fmt.Errorf("%w: %s has weight %g", ErrNegativeWeight, ticker, holding.Weight)
		}

		if idx, ok := position[ticker]; ok {
			weights[idx] += holding.Weight
			continue
		}

		position[ticker] = len(universe)
		universe = append(universe, ticker)
		weights = append(weights, holding.Weight)
	}

	if len(dropped) > 0 {
		log.Warn().Strs("Dropped", dropped).Int("NumMatched", len(universe)).Msg("allocation references assets without history")
	}

	if len(universe) < 2 {
		return nil, fmt.Errorf("%w: not enough valid tickers found in history database; need at least 2 matching stocks, found %d",
			ErrInsufficientUniverse, len(universe))
	}

	alloc, err := NewAllocation(universe, weights)
	if err != nil {
		return nil, fmt.Errorf("could not normalize allocation over %s: %w", universe, err)
	}

	return alloc, nil
}
