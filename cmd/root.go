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
	"fmt"
	"os"

	"github.com/penny-vault/pv-audit/common"
	"github.com/penny-vault/pv-audit/simulation"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Profile bool
var Trace bool

func init() {
	cobra.OnInitialize(common.SetupLogging)

	// Logging configuration
	viper.BindEnv("log.level", "PVAUDIT_LOG_LEVEL")
	rootCmd.PersistentFlags().String("log-level", "warning", "Logging level")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	viper.BindEnv("log.report_caller", "PVAUDIT_LOG_REPORT_CALLER")
	rootCmd.PersistentFlags().Bool("log-report-caller", false, "Log function name that called log statement")
	viper.BindPFlag("log.report_caller", rootCmd.PersistentFlags().Lookup("log-report-caller"))

	viper.BindEnv("log.output", "PVAUDIT_LOG_OUTPUT")
	rootCmd.PersistentFlags().String("log-output", "stderr", "Write logs to specified output one of: file path, `stdout`, or `stderr`")
	viper.BindPFlag("log.output", rootCmd.PersistentFlags().Lookup("log-output"))

	viper.BindEnv("log.pretty", "PVAUDIT_LOG_PRETTY")
	rootCmd.PersistentFlags().Bool("log-pretty", true, "Pretty print log messages")
	viper.BindPFlag("log.pretty", rootCmd.PersistentFlags().Lookup("log-pretty"))

	// Historical returns
	viper.BindEnv("returns.source", "PVAUDIT_RETURNS_SOURCE")
	rootCmd.PersistentFlags().String("returns-source", "csv", "Where historical returns are loaded from: csv or database")
	viper.BindPFlag("returns.source", rootCmd.PersistentFlags().Lookup("returns-source"))

	viper.BindEnv("returns.path", "PVAUDIT_RETURNS_PATH")
	rootCmd.PersistentFlags().String("returns-path", "returns.csv", "Path of the daily returns CSV file")
	viper.BindPFlag("returns.path", rootCmd.PersistentFlags().Lookup("returns-path"))

	// Database
	viper.BindEnv("database.url", "DATABASE_URL")
	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL connection string")
	viper.BindPFlag("database.url", rootCmd.PersistentFlags().Lookup("database-url"))

	// Simulation
	viper.BindEnv("simulation.workers", "PVAUDIT_WORKERS")
	rootCmd.PersistentFlags().Int("workers", 0, "Number of simulation workers, 0 uses every CPU")
	viper.BindPFlag("simulation.workers", rootCmd.PersistentFlags().Lookup("workers"))

	viper.BindEnv("simulation.sampler", "PVAUDIT_SAMPLER")
	rootCmd.PersistentFlags().String("sampler", simulation.SamplerUniform, "Weight sampler: uniform or dirichlet")
	viper.BindPFlag("simulation.sampler", rootCmd.PersistentFlags().Lookup("sampler"))

	// Selection
	viper.BindEnv("selection.method", "PVAUDIT_SELECTION_METHOD")
	rootCmd.PersistentFlags().String("selection-method", "extreme", "Selection policy: extreme or penalty")
	viper.BindPFlag("selection.method", rootCmd.PersistentFlags().Lookup("selection-method"))

	// Cache
	viper.BindEnv("cache.redis_url", "REDIS_URL")

	rootCmd.PersistentFlags().BoolVar(&Profile, "cpu-profile", false, "Run pprof and save in profile.out")
	rootCmd.PersistentFlags().BoolVar(&Trace, "trace", false, "Trace program execution and save in trace.out")

	setDefaults()
}

func setDefaults() {
	viper.SetDefault("simulation.count", 400_000)
	viper.SetDefault("simulation.min_count", 10_000)
	viper.SetDefault("simulation.max_count", 1_000_000)
	viper.SetDefault("simulation.optimize_count", 90_000)
	viper.SetDefault("simulation.seed", 0)
	viper.SetDefault("simulation.batch_size", simulation.DefaultBatchSize)
	viper.SetDefault("simulation.dirichlet_alpha", 1.0)

	viper.SetDefault("audit.risk_free_rate", 0.02)
	viper.SetDefault("audit.risk_preference", "High")
	viper.SetDefault("audit.frontier_bins", 50)

	viper.SetDefault("selection.penalties.low", 1.5)
	viper.SetDefault("selection.penalties.medium", 1.0)
	viper.SetDefault("selection.penalties.high", 0.7)

	viper.SetDefault("optimize.min_assets", 5)
	viper.SetDefault("optimize.max_assets", 15)

	viper.SetDefault("cache.local_size", 32)
	viper.SetDefault("cache.ttl", 3600)

	viper.SetDefault("refresh.every", "24h")
}

var rootCmd = &cobra.Command{
	Use:     "pvaudit",
	Version: common.CurrentVersion.String(),
	Short:   "Penny Vault audit compares a portfolio against simulated alternatives",
	Long: `Audit an asset allocation by simulating a large population of random portfolios
over the same universe and reporting the one that best matches a risk preference.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
