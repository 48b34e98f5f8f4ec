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
	"os/signal"
	"runtime/pprof"
	"runtime/trace"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/penny-vault/pv-audit/common"
	"github.com/penny-vault/pv-audit/handler"
	"github.com/penny-vault/pv-audit/middleware"
	"github.com/penny-vault/pv-audit/observability/opentelemetry"
	"github.com/penny-vault/pv-audit/router"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	viper.BindEnv("server.port", "PORT")
	serveCmd.Flags().IntP("port", "p", 3000, "Port to run application server on")
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))

	viper.BindEnv("server.cors_origins", "PVAUDIT_CORS_ORIGINS")
	serveCmd.Flags().String("cors-origins", "*", "Comma separated list of origins allowed to call the API")
	viper.BindPFlag("server.cors_origins", serveCmd.Flags().Lookup("cors-origins"))

	viper.BindEnv("refresh.every", "PVAUDIT_REFRESH_EVERY")
	serveCmd.Flags().String("refresh-every", "24h", "How often historical returns are reloaded")
	viper.BindPFlag("refresh.every", serveCmd.Flags().Lookup("refresh-every"))

	viper.BindEnv("otlp.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pv-audit server",
	Long:  `Run HTTP server that audits and optimizes allocations against the loaded return history`,
	Run: func(cmd *cobra.Command, args []string) {
		if Profile {
			f, err := os.Create("profile.out")
			if err != nil {
				log.Fatal().Err(err).Msg("could not create profile output file")
			}
			if err := pprof.StartCPUProfile(f); err != nil {
				log.Fatal().Err(err).Msg("could not start cpu profile")
			}
			defer pprof.StopCPUProfile()
		}

		if Trace {
			f, err := os.Create("trace.out")
			if err != nil {
				log.Fatal().Err(err).Msg("failed to create trace output file")
			}
			defer func() {
				if err := f.Close(); err != nil {
					log.Fatal().Err(err).Msg("failed to close trace file")
				}
			}()

			if err := trace.Start(f); err != nil {
				log.Fatal().Err(err).Msg("failed to start trace")
			}
			defer trace.Stop()
		}

		ctx := context.Background()

		shutdownTracing, err := opentelemetry.Setup()
		if err != nil {
			log.Fatal().Err(err).Msg("could not setup tracing")
		}
		defer func() {
			if err := shutdownTracing(ctx); err != nil {
				log.Error().Err(err).Msg("could not shutdown tracer provider")
			}
		}()

		cfg := mustAuditConfig()

		cache, err := common.SetupCache()
		if err != nil {
			log.Fatal().Err(err).Msg("could not setup estimate cache")
		}
		cfg.Cache = cache

		// Initialize history; an empty store answers 503 until the first successful refresh
		store, err := newStore(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("could not configure historical returns source")
		}
		if err := store.Refresh(ctx); err != nil {
			log.Error().Err(err).Msg("initial load of historical returns failed")
		}

		scheduler := gocron.NewScheduler(time.UTC)
		if _, err := scheduler.Every(viper.GetString("refresh.every")).Do(func() {
			refreshCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			// failures are logged and the previous table stays in service
			_ = store.Refresh(refreshCtx)
		}); err != nil {
			log.Fatal().Err(err).Str("Every", viper.GetString("refresh.every")).Msg("could not schedule history refresh")
		}
		scheduler.StartAsync()
		defer scheduler.Stop()

		// Create new Fiber instance
		app := fiber.New(fiber.Config{
			JSONEncoder:           json.Marshal,
			JSONDecoder:           json.Unmarshal,
			DisableStartupMessage: true,
		})

		// shutdown cleanly on interrupt
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		go func() {
			sig := <-c // block until signal is read
			fmt.Printf("Received signal: '%s'; shutting down...\n", sig.String())
			if err := app.Shutdown(); err != nil {
				log.Error().Err(err).Msg("server shutdown failed")
			}
		}()

		// Configure CORS
		app.Use(cors.New(cors.Config{
			AllowOrigins: viper.GetString("server.cors_origins"),
			AllowHeaders: "*",
			AllowMethods: "GET,POST,HEAD",
		}))

		// Setup logging middleware
		app.Use(middleware.NewLogger())

		// Setup routes
		router.SetupRoutes(app, handler.New(store, cfg))

		log.Info().Str("Port", viper.GetString("server.port")).Msg("starting server")
		if err := app.Listen(":" + viper.GetString("server.port")); err != nil {
			log.Error().Err(err).Msg("server stopped")
		}
	},
}
