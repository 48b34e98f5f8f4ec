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
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/penny-vault/pv-audit/observability/metrics"
	"github.com/penny-vault/pv-audit/observability/opentelemetry"
	"github.com/penny-vault/pv-audit/portfolio"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	DefaultBatchSize = 8192
)

// Options controls a simulation run
type Options struct {
	Samples      int
	RiskFreeRate float64

	// Seed selects the random streams; 0 picks a random seed which is reported on
	// the resulting population
	Seed uint64

	// Workers bounds the number of chunks evaluated concurrently; 0 uses GOMAXPROCS
	Workers int

	// BatchSize is the number of samples per chunk; 0 uses DefaultBatchSize
	BatchSize int

	// Sampler defaults to Uniform
	Sampler Sampler
}

// Run draws opts.Samples random allocations over est.Universe and evaluates each against
// the estimate. Samples are generated in chunks of BatchSize; chunk c draws from its own
// PCG stream keyed by (seed, c) so the population is identical for a given seed regardless
// of the number of workers.
func Run(ctx context.Context, est *portfolio.Estimate, opts Options) (*Population, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "simulation.Run")
	defer span.End()

	if est == nil || est.Covariance == nil || est.NumAssets() == 0 {
		span.SetStatus(codes.Error, ErrNoEstimate.Error())
		return nil, ErrNoEstimate
	}

	if opts.Samples < 1 {
		span.SetStatus(codes.Error, ErrInvalidSampleCount.Error())
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSampleCount, opts.Samples)
	}

	if opts.Sampler == nil {
		opts.Sampler = Uniform{}
	}

	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}

	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	for opts.Seed == 0 {
		opts.Seed = rand.Uint64()
	}

	span.SetAttributes(
		attribute.Int("Samples", opts.Samples),
		attribute.Int("NumAssets", est.NumAssets()),
		attribute.String("Sampler", opts.Sampler.Name()),
		attribute.Int64("Seed", int64(opts.Seed)),
	)

	subLog := log.With().Int("Samples", opts.Samples).Int("NumAssets", est.NumAssets()).
		Str("Sampler", opts.Sampler.Name()).Uint64("Seed", opts.Seed).Logger()
	subLog.Debug().Msg("simulating portfolio population")

	start := time.Now()

	pop := newPopulation(est.Universe, opts.Samples)
	pop.RiskFreeRate = opts.RiskFreeRate
	pop.Seed = opts.Seed
	pop.Sampler = opts.Sampler.Name()

	mu := mat.NewVecDense(est.NumAssets(), est.Returns)
	numChunks := (opts.Samples + opts.BatchSize - 1) / opts.BatchSize

	var degenerate atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for chunk := 0; chunk < numChunks; chunk++ {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			first := chunk * opts.BatchSize
			last := min(first+opts.BatchSize, opts.Samples)
			degenerate.Add(int64(evaluateChunk(pop, est.Covariance, mu, opts, chunk, first, last)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "simulation cancelled")
		subLog.Warn().Err(err).Msg("simulation cancelled")
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "simulation cancelled")
		return nil, err
	}

	elapsed := time.Since(start)
	metrics.SimulationsTotal.Add(float64(opts.Samples))
	metrics.SimulationDuration.WithLabelValues(pop.Sampler).Observe(elapsed.Seconds())

	if n := degenerate.Load(); n > 0 {
		metrics.DegenerateSamples.Add(float64(n))
		subLog.Warn().Int64("NumDegenerate", n).Msg("population contains allocations with zero volatility")
	}

	subLog.Info().Dur("Elapsed", elapsed).Msg("simulation complete")
	span.SetStatus(codes.Ok, "simulation complete")

	return pop, nil
}

// evaluateChunk fills rows [first, last) of the population and returns how many of
// them have zero volatility. Expected returns are W·mu; variances are the row-wise dot
// product of (W·Σ) and W.
func evaluateChunk(pop *Population, cov *mat.SymDense, mu *mat.VecDense, opts Options, chunk, first, last int) int {
	k := pop.NumAssets
	rows := last - first
	rnd := rand.New(rand.NewPCG(opts.Seed, uint64(chunk)))

	for row := first; row < last; row++ {
		opts.Sampler.Draw(rnd, pop.Weights[row*k:(row+1)*k])
	}

	w := mat.NewDense(rows, k, pop.Weights[first*k:last*k])

	ret := mat.NewVecDense(rows, pop.Returns[first:last])
	ret.MulVec(w, mu)

	wc := mat.NewDense(rows, k, nil)
	wc.Mul(w, cov)

	degenerate := 0
	for row := 0; row < rows; row++ {
		idx := first + row
		vol := portfolio.Volatility(floats.Dot(wc.RawRowView(row), w.RawRowView(row)))
		pop.Volatility[idx] = vol
		pop.Sharpe[idx] = portfolio.SharpeRatio(pop.Returns[idx], vol, opts.RiskFreeRate)
		if vol == 0 {
			degenerate++
		}
	}

	return degenerate
}
