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

package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/olekukonko/tablewriter"
	"github.com/penny-vault/pv-audit/audit"
	"github.com/penny-vault/pv-audit/portfolio"
	"github.com/penny-vault/pv-audit/simulation"
)

func pct(val float64) string {
	return fmt.Sprintf("%.2f%%", val*100)
}

func ratio(val float64) string {
	if math.IsInf(val, 0) || math.IsNaN(val) {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", val)
}

func newTable(s *strings.Builder, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(s)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	return table
}

// MetricsTable compares the metrics of the supplied and the optimal allocation
func MetricsTable(user, optimal portfolio.Metrics) string {
	s := &strings.Builder{}
	table := newTable(s, []string{"Metric", "Current", "Optimal"})
	table.Append([]string{"Expected Return", pct(user.ExpectedReturn), pct(optimal.ExpectedReturn)})
	table.Append([]string{"Volatility", pct(user.Volatility), pct(optimal.Volatility)})
	table.Append([]string{"Sharpe Ratio", ratio(user.SharpeRatio), ratio(optimal.SharpeRatio)})
	table.Render()
	return s.String()
}

// AllocationTable lists the current and optimal weight of every asset in universe
func AllocationTable(universe portfolio.Universe, user, optimal *portfolio.Allocation) string {
	s := &strings.Builder{}
	table := newTable(s, []string{"Ticker", "Current", "Optimal", "Change"})
	for _, ticker := range universe {
		current := user.Weight(ticker)
		target := optimal.Weight(ticker)
		table.Append([]string{ticker, pct(current), pct(target), pct(target - current)})
	}
	table.Render()
	return s.String()
}

// WeightTable lists the weights of a single allocation
func WeightTable(alloc *portfolio.Allocation) string {
	s := &strings.Builder{}
	table := newTable(s, []string{"Ticker", "Weight"})
	for idx, ticker := range alloc.Universe {
		table.Append([]string{ticker, pct(alloc.Weights[idx])})
	}
	table.Render()
	return s.String()
}

// AssetTable lists per-asset risk and return
func AssetTable(stats []portfolio.AssetStats) string {
	s := &strings.Builder{}
	table := newTable(s, []string{"Ticker", "Return", "Volatility"})
	for _, stat := range stats {
		table.Append([]string{stat.Ticker, pct(stat.Return), pct(stat.Volatility)})
	}
	table.Render()
	return s.String()
}

// FrontierPlot draws the expected return of the frontier envelope against volatility
func FrontierPlot(points []simulation.FrontierPoint, height int) string {
	if len(points) < 2 {
		return "<NOT ENOUGH DATA>"
	}

	returns := make([]float64, len(points))
	for idx, pt := range points {
		returns[idx] = pt.ExpectedReturn * 100
	}

	caption := fmt.Sprintf("expected return (%%) vs volatility %s to %s",
		pct(points[0].Volatility), pct(points[len(points)-1].Volatility))

	return asciigraph.Plot(returns,
		asciigraph.Height(height),
		asciigraph.Precision(2),
		asciigraph.Caption(caption),
	)
}

// Audit renders the complete audit result
func Audit(res *audit.Result, bins int) string {
	s := &strings.Builder{}
	fmt.Fprintf(s, "Audit %s\n", res.ID)
	fmt.Fprintf(s, "Universe: %s | Simulations: %d | Seed: %d | Risk preference: %s | Risk-free rate: %s\n\n",
		res.Universe, res.NumSimulations, res.Seed, res.RiskPreference, pct(res.RiskFreeRate))
	s.WriteString(MetricsTable(res.User.Metrics, res.Optimal.Metrics))
	s.WriteString("\n")
	s.WriteString(AllocationTable(res.Universe, res.User.Allocation, res.Optimal.Allocation))
	s.WriteString("\n")
	s.WriteString(FrontierPlot(res.Population.Frontier(bins), 15))
	s.WriteString("\n")
	return s.String()
}

// Optimize renders the result of the interactive optimize path
func Optimize(res *audit.OptimizeResult, bins int) string {
	s := &strings.Builder{}
	fmt.Fprintf(s, "Optimize %s\n", res.ID)
	fmt.Fprintf(s, "Horizon: %s | Simulations: %d | Seed: %d | Risk preference: %s | Risk-free rate: %s\n\n",
		res.Horizon.Label, res.NumSimulations, res.Seed, res.RiskPreference, pct(res.Horizon.RiskFreeRate))
	s.WriteString(WeightTable(res.Optimal.Allocation))
	s.WriteString("\n")
	fmt.Fprintf(s, "Expected Return: %s  Volatility: %s  Sharpe Ratio: %s\n\n",
		pct(res.Optimal.Metrics.ExpectedReturn), pct(res.Optimal.Metrics.Volatility), ratio(res.Optimal.Metrics.SharpeRatio))
	s.WriteString(AssetTable(res.Assets))
	s.WriteString("\n")
	s.WriteString(FrontierPlot(res.Population.Frontier(bins), 15))
	s.WriteString("\n")
	return s.String()
}
