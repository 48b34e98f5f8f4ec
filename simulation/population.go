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

package simulation

import (
	"fmt"
	"math"
	"sort"

	"github.com/penny-vault/pv-audit/portfolio"
)

// Population is the ordered set of simulated allocations and their metrics. Storage is
// dense: Weights holds Len() rows of NumAssets values in row-major order.
type Population struct {
	Universe     portfolio.Universe
	NumAssets    int
	RiskFreeRate float64
	Seed         uint64
	Sampler      string

	Weights    []float64
	Returns    []float64
	Volatility []float64
	Sharpe     []float64
}

// FrontierPoint is the highest-return sample within one volatility bucket
type FrontierPoint struct {
	Index          int     `json:"index"`
	Volatility     float64 `json:"volatility"`
	ExpectedReturn float64 `json:"expectedReturn"`
	SharpeRatio    float64 `json:"-"`
}

func newPopulation(universe portfolio.Universe, n int) *Population {
	k := universe.Len()
	return &Population{
		Universe:   universe,
		NumAssets:  k,
		Weights:    make([]float64, n*k),
		Returns:    make([]float64, n),
		Volatility: make([]float64, n),
		Sharpe:     make([]float64, n),
	}
}

// Len returns the number of samples
func (p *Population) Len() int {
	return len(p.Returns)
}

// WeightsAt returns a view of the weights of sample i; callers must not modify it
func (p *Population) WeightsAt(i int) []float64 {
	return p.Weights[i*p.NumAssets : (i+1)*p.NumAssets]
}

// Metrics returns the metrics of sample i
func (p *Population) Metrics(i int) portfolio.Metrics {
	return portfolio.Metrics{
		ExpectedReturn: p.Returns[i],
		Volatility:     p.Volatility[i],
		SharpeRatio:    p.Sharpe[i],
	}
}

// Allocation copies sample i into an allocation over the population universe
func (p *Population) Allocation(i int) (*portfolio.Allocation, error) {
	if i < 0 || i >= p.Len() {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, p.Len())
	}
	return portfolio.NewAllocation(p.Universe, p.WeightsAt(i))
}

// Frontier approximates the upper envelope of the population in risk/return space. The
// volatility range is split into bins equal-width buckets and the sample with the greatest
// expected return in each non-empty bucket is returned, ordered by volatility.
func (p *Population) Frontier(bins int) []FrontierPoint {
	if bins < 1 || p.Len() == 0 {
		return []FrontierPoint{}
	}

	minVol, maxVol := math.Inf(1), math.Inf(-1)
	for _, vol := range p.Volatility {
		minVol = math.Min(minVol, vol)
		maxVol = math.Max(maxVol, vol)
	}

	width := (maxVol - minVol) / float64(bins)
	best := make([]int, bins)
	for idx := range best {
		best[idx] = -1
	}

	for idx, vol := range p.Volatility {
		bucket := 0
		if width > 0 {
			bucket = int((vol - minVol) / width)
		}
		if bucket >= bins {
			bucket = bins - 1
		}
		if best[bucket] == -1 || p.Returns[idx] > p.Returns[best[bucket]] {
			best[bucket] = idx
		}
	}

	points := make([]FrontierPoint, 0, bins)
	for _, idx := range best {
		if idx == -1 {
			continue
		}
		points = append(points, FrontierPoint{
			Index:          idx,
			Volatility:     p.Volatility[idx],
			ExpectedReturn: p.Returns[idx],
			SharpeRatio:    p.Sharpe[idx],
		})
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Volatility < points[j].Volatility
	})

	return points
}
