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

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Metrics is the annualized expected return, volatility and Sharpe ratio of an allocation
type Metrics struct {
	ExpectedReturn float64
	Volatility     float64
	SharpeRatio    float64
}

// Degenerate reports whether the Sharpe ratio is the zero-volatility sentinel
func (m Metrics) Degenerate() bool {
	return m.Volatility == 0
}

type metricsJSON struct {
	ExpectedReturn float64  `json:"expectedReturn"`
	Volatility     float64  `json:"volatility"`
	SharpeRatio    *float64 `json:"sharpeRatio"`
	Degenerate     bool     `json:"degenerateVolatility,omitempty"`
}

// MarshalJSON writes a non-finite Sharpe ratio as null and flags the degenerate case
func (m Metrics) MarshalJSON() ([]byte, error) {
	out := metricsJSON{
		ExpectedReturn: m.ExpectedReturn,
		Volatility:     m.Volatility,
		Degenerate:     m.Degenerate(),
	}
	if !math.IsInf(m.SharpeRatio, 0) && !math.IsNaN(m.SharpeRatio) {
		sharpe := m.SharpeRatio
		out.SharpeRatio = &sharpe
	}
	return json.Marshal(out)
}

// SharpeRatio computes (ret - riskFreeRate) / volatility. Zero volatility yields the
// degenerate sentinel: +Inf for a positive excess return, -Inf for a negative one and
// 0 when the excess return is exactly 0. A NaN volatility yields NaN.
func SharpeRatio(ret, volatility, riskFreeRate float64) float64 {
	excess := ret - riskFreeRate
	if math.IsNaN(volatility) || math.IsNaN(excess) {
		return math.NaN()
	}
	if volatility > 0 {
		return excess / volatility
	}

	switch {
	case excess > 0:
		return math.Inf(1)
	case excess < 0:
		return math.Inf(-1)
	default:
		return 0
	}
}

// Volatility computes sqrt(w' Σ w); rounding noise below zero is clamped to 0. A NaN
// variance stays NaN so it is never mistaken for the zero volatility case.
func Volatility(variance float64) float64 {
	if math.IsNaN(variance) {
		return math.NaN()
	}
	if variance <= 0 {
		return 0
	}
	return math.Sqrt(variance)
}

// Evaluate computes the metrics of a dense weight vector aligned to est.Universe
func Evaluate(weights []float64, est *Estimate, riskFreeRate float64) (Metrics, error) {
	if len(weights) != est.NumAssets() {
		return Metrics{}, fmt.Errorf("%w: %d weights for %d assets", ErrDimensionMismatch, len(weights), est.NumAssets())
	}

	w := mat.NewVecDense(len(weights), weights)
	ret := floats.Dot(weights, est.Returns)
	vol := Volatility(mat.Inner(w, est.Covariance, w))

	return Metrics{
		ExpectedReturn: ret,
		Volatility:     vol,
		SharpeRatio:    SharpeRatio(ret, vol, riskFreeRate),
	}, nil
}
