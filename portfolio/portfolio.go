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
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// NormalizationTolerance is the maximum deviation from 1.0 allowed for the sum of
// normalized weights
const NormalizationTolerance = 1e-9

// Holding is one line of an externally supplied allocation: an identifier and a raw,
// possibly unnormalized, weight
type Holding struct {
	Ticker string  `json:"ticker"`
	Weight float64 `json:"weight"`
}

// Universe is an ordered list of unique asset identifiers; every weight vector, return
// vector and covariance matrix in a request is indexed in this order
type Universe []string

// NewUniverse validates that the identifiers are unique
func NewUniverse(tickers ...string) (Universe, error) {
	seen := make(map[string]bool, len(tickers))
	for _, ticker := range tickers {
		if seen[ticker] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAsset, ticker)
		}
		seen[ticker] = true
	}
	u := make(Universe, len(tickers))
	copy(u, tickers)
	return u, nil
}

// Index returns the position of ticker in the universe or -1
func (u Universe) Index(ticker string) int {
	for idx, t := range u {
		if t == ticker {
			return idx
		}
	}
	return -1
}

func (u Universe) Len() int {
	return len(u)
}

func (u Universe) String() string {
	return strings.Join(u, ",")
}

// Allocation assigns a non-negative weight to every member of a universe. Weights
// always sum to 1.0; normalization happens at construction.
type Allocation struct {
	Universe Universe  `json:"universe"`
	Weights  []float64 `json:"weights"`
}

// NewAllocation normalizes weights so they sum to 1.0. The weights slice is copied.
func NewAllocation(universe Universe, weights []float64) (*Allocation, error) {
	if len(universe) != len(weights) {
		return nil, fmt.Errorf("%w: %d weights for %d assets", ErrDimensionMismatch, len(weights), len(universe))
	}

	normalized := make([]float64, len(weights))
	copy(normalized, weights)
	if err := Normalize(normalized); err != nil {
		return nil, err
	}

	return &Allocation{
		Universe: universe,
		Weights:  normalized,
	}, nil
}

// Normalize scales weights in place so they sum to 1.0
func Normalize(weights []float64) error {
	for _, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return ErrInvalidWeight
		}
		if w < 0 {
			return ErrNegativeWeight
		}
	}

	total := floats.Sum(weights)
	if total <= 0 {
		return ErrZeroAllocation
	}

	floats.Scale(1/total, weights)
	return nil
}

// Weight returns the weight held in ticker, 0 if ticker is not in the universe
func (a *Allocation) Weight(ticker string) float64 {
	idx := a.Universe.Index(ticker)
	if idx == -1 {
		return 0
	}
	return a.Weights[idx]
}

// Map returns the allocation as ticker -> weight
func (a *Allocation) Map() map[string]float64 {
	res := make(map[string]float64, len(a.Universe))
	for idx, ticker := range a.Universe {
		res[ticker] = a.Weights[idx]
	}
	return res
}
