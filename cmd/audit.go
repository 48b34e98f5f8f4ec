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
	"os"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pv-audit/audit"
	"github.com/penny-vault/pv-audit/parser"
	"github.com/penny-vault/pv-audit/report"
	"github.com/penny-vault/pv-audit/selection"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	auditRiskPreference string
	auditRiskFreeRate   float64
	auditSimulations    int
	auditSeed           uint64
	auditJSON           bool
	auditPopulation     bool
)

func init() {
	auditCmd.Flags().StringVar(&auditRiskPreference, "risk-preference", "", "Risk preference one of: High, Medium, or Low")
	auditCmd.Flags().Float64Var(&auditRiskFreeRate, "risk-free-rate", 0, "Annual risk-free rate as a fraction")
	auditCmd.Flags().IntVarP(&auditSimulations, "simulations", "n", 0, "Number of portfolios to simulate")
	auditCmd.Flags().Uint64Var(&auditSeed, "seed", 0, "Random seed, 0 picks one at random")
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "Print the result as JSON")
	auditCmd.Flags().BoolVar(&auditPopulation, "population", false, "Include the simulated population in JSON output")

	rootCmd.AddCommand(auditCmd)
}

var auditCmd = &cobra.Command{
	Use:   "audit FILE",
	Short: "Audit the allocation in a CSV or XLSX file",
	Long: `Compare the allocation described in FILE with a population of simulated portfolios
over the same assets and report the simulated portfolio that best matches the risk preference.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg := mustAuditConfig()

		fh, err := os.Open(args[0])
		if err != nil {
			log.Fatal().Err(err).Str("FileName", args[0]).Msg("could not open allocation file")
		}
		defer fh.Close()

		holdings, err := parser.Parse(fh, args[0])
		if err != nil {
			log.Fatal().Err(err).Str("FileName", args[0]).Msg("could not parse allocation file")
		}

		req := audit.Request{
			Allocation:     holdings,
			Returns:        loadReturns(ctx),
			RiskPreference: cfg.RiskPreference,
			RiskFreeRate:   cfg.RiskFreeRate,
			Simulations:    auditSimulations,
			Seed:           auditSeed,
		}

		if auditRiskPreference != "" {
			req.RiskPreference, err = selection.ParsePreference(auditRiskPreference)
			if err != nil {
				log.Fatal().Err(err).Msg("invalid risk preference")
			}
		}

		if cmd.Flags().Changed("risk-free-rate") {
			req.RiskFreeRate = auditRiskFreeRate
		}

		res, err := audit.Run(ctx, req, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("audit failed")
		}

		if auditJSON {
			printJSON(res.View(cfg.FrontierBins, auditPopulation))
			return
		}

		fmt.Print(report.Audit(res, cfg.FrontierBins))
	},
}

func printJSON(val any) {
	b, err := json.MarshalIndent(val, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("could not encode result")
	}
	fmt.Println(string(b))
}
