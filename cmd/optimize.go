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

	"github.com/penny-vault/pv-audit/audit"
	"github.com/penny-vault/pv-audit/common"
	"github.com/penny-vault/pv-audit/report"
	"github.com/penny-vault/pv-audit/selection"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	optimizeHorizon        string
	optimizeRiskPreference string
	optimizeSimulations    int
	optimizeSeed           uint64
	optimizeJSON           bool
)

func init() {
	optimizeCmd.Flags().StringVar(&optimizeHorizon, "horizon", "3-6 years", "Investment horizon")
	optimizeCmd.Flags().StringVar(&optimizeRiskPreference, "risk-preference", "", "Risk preference one of: High, Medium, or Low")
	optimizeCmd.Flags().IntVarP(&optimizeSimulations, "simulations", "n", 0, "Number of portfolios to simulate")
	optimizeCmd.Flags().Uint64Var(&optimizeSeed, "seed", 0, "Random seed, 0 picks one at random")
	optimizeCmd.Flags().BoolVar(&optimizeJSON, "json", false, "Print the result as JSON")

	rootCmd.AddCommand(optimizeCmd)
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize TICKER...",
	Short: "Find a simulated allocation over the given assets",
	Long: `Simulate allocations over the listed assets using the risk-free rate of the chosen
horizon and print the one matching the risk preference along with per-asset risk and return.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg := mustAuditConfig()
		common.ArrToUpper(args)

		req := audit.OptimizeRequest{
			Tickers:        args,
			Returns:        loadReturns(ctx),
			Horizon:        optimizeHorizon,
			RiskPreference: cfg.RiskPreference,
			Simulations:    optimizeSimulations,
			Seed:           optimizeSeed,
		}

		if optimizeRiskPreference != "" {
			var err error
			req.RiskPreference, err = selection.ParsePreference(optimizeRiskPreference)
			if err != nil {
				log.Fatal().Err(err).Msg("invalid risk preference")
			}
		}

		res, err := audit.Optimize(ctx, req, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("optimize failed")
		}

		if optimizeJSON {
			printJSON(res.View(cfg.FrontierBins, false))
			return
		}

		fmt.Print(report.Optimize(res, cfg.FrontierBins))
	},
}
