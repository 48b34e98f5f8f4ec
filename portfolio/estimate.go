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

	"github.com/penny-vault/pv-audit/data"
	"github.com/penny-vault/pv-audit/dataframe"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// TradingDays is the number of periods per year used to annualize daily statistics
const TradingDays = 252

// Estimate holds annualized expected returns and covariance for a universe
type Estimate struct {
	Universe   Universe
	Returns    []float64
	Covariance *mat.SymDense
}

// NewEstimate computes the per-asset mean daily return and the daily covariance matrix
// of returns restricted to universe, then annualizes both by TradingDays:
//
//	annualReturn = meanDaily * 252
//	annualCov    = covDaily * 252
func NewEstimate(returns *dataframe.DataFrame, universe Universe) (*Estimate, error) {
	subset, err := returns.Select(universe...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", data.ErrMalformedHistoricalData, err)
	}

	if err := data.ValidateReturns(subset); err != nil {
		return nil, err
	}

	mean := subset.Mean()
	floats.Scale(TradingDays, mean)

	cov, err := subset.Covariance()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", data.ErrMalformedHistoricalData, err)
	}
	cov.ScaleSym(TradingDays, cov)

	return &Estimate{
		Universe:   universe,
		Returns:    mean,
		Covariance: cov,
	}, nil
}

// NumAssets returns the dimension of the estimate
func (e *Estimate) NumAssets() int {
	return len(e.Returns)
}

// AssetStats is the stand-alone risk/return of one asset over a horizon
type AssetStats struct {
	Ticker     string  `json:"ticker"`
	Return     float64 `json:"return"`
	Volatility float64 `json:"volatility"`
}

// AssetRiskReturn scales each asset's mean daily return and daily standard deviation to a
// horizon of the given number of years: return = mean * 252 * years, volatility =
// std * sqrt(252 * years)
func AssetRiskReturn(returns *dataframe.DataFrame, universe Universe, years float64) ([]AssetStats, error) {
	subset, err := returns.Select(universe...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", data.ErrMalformedHistoricalData, err)
	}

	periods := TradingDays * years
	mean := subset.Mean()
	std := subset.StdDev()

	stats := make([]AssetStats, len(universe))
	for idx, ticker := range universe {
		stats[idx] = AssetStats{
			Ticker:     ticker,
			Return:     mean[idx] * periods,
			Volatility: std[idx] * math.Sqrt(periods),
		}
	}
	return stats, nil
}
