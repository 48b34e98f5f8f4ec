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

package simulation_test

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-audit/portfolio"
	"github.com/penny-vault/pv-audit/simulation"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// fixedSampler always returns the same allocation
type fixedSampler struct {
	weights []float64
}

func (f fixedSampler) Name() string { return "fixed" }

func (f fixedSampler) Draw(_ *rand.Rand, w []float64) {
	copy(w, f.weights)
}

func threeAssetEstimate() *portfolio.Estimate {
	return &portfolio.Estimate{
		Universe: portfolio.Universe{"A", "B", "C"},
		Returns:  []float64{0.10, 0.15, 0.05},
		Covariance: mat.NewSymDense(3, []float64{
			0.04, 0.01, 0.00,
			0.01, 0.09, 0.02,
			0.00, 0.02, 0.01,
		}),
	}
}

var _ = Describe("Run", func() {
	var (
		ctx context.Context
		est *portfolio.Estimate
	)

	BeforeEach(func() {
		ctx = context.Background()
		est = threeAssetEstimate()
	})

	It("produces the requested number of samples", func() {
		pop, err := simulation.Run(ctx, est, simulation.Options{Samples: 1000, RiskFreeRate: 0.02, Seed: 42, BatchSize: 128})
		Expect(err).To(BeNil())
		Expect(pop.Len()).To(Equal(1000))
		Expect(pop.Weights).To(HaveLen(3000))
		Expect(pop.Seed).To(Equal(uint64(42)))
		Expect(pop.Sampler).To(Equal(simulation.SamplerUniform))
	})

	It("draws valid allocations with non-negative volatility", func() {
		pop, err := simulation.Run(ctx, est, simulation.Options{Samples: 5000, RiskFreeRate: 0.02, Seed: 7, BatchSize: 500})
		Expect(err).To(BeNil())

		for idx := 0; idx < pop.Len(); idx++ {
			w := pop.WeightsAt(idx)
			Expect(floats.Sum(w)).To(BeNumerically("~", 1.0, 1e-9))
			Expect(floats.Min(w)).To(BeNumerically(">=", 0))
			Expect(pop.Volatility[idx]).To(BeNumerically(">=", 0))
		}
	})

	It("agrees with the single allocation evaluator", func() {
		pop, err := simulation.Run(ctx, est, simulation.Options{Samples: 300, RiskFreeRate: 0.02, Seed: 11, BatchSize: 64})
		Expect(err).To(BeNil())

		for _, idx := range []int{0, 63, 64, 150, 299} {
			m, err := portfolio.Evaluate(pop.WeightsAt(idx), est, 0.02)
			Expect(err).To(BeNil())
			Expect(pop.Returns[idx]).To(BeNumerically("~", m.ExpectedReturn, 1e-12))
			Expect(pop.Volatility[idx]).To(BeNumerically("~", m.Volatility, 1e-12))
			Expect(pop.Sharpe[idx]).To(BeNumerically("~", m.SharpeRatio, 1e-9))
		}
	})

	It("is deterministic for a seed regardless of the number of workers", func() {
		pop1, err := simulation.Run(ctx, est, simulation.Options{Samples: 2000, Seed: 99, Workers: 1, BatchSize: 100})
		Expect(err).To(BeNil())
		pop2, err := simulation.Run(ctx, est, simulation.Options{Samples: 2000, Seed: 99, Workers: 8, BatchSize: 100})
		Expect(err).To(BeNil())

		Expect(pop1.Weights).To(Equal(pop2.Weights))
		Expect(pop1.Returns).To(Equal(pop2.Returns))
	})

	It("produces different populations for different seeds", func() {
		pop1, err := simulation.Run(ctx, est, simulation.Options{Samples: 100, Seed: 1})
		Expect(err).To(BeNil())
		pop2, err := simulation.Run(ctx, est, simulation.Options{Samples: 100, Seed: 2})
		Expect(err).To(BeNil())
		Expect(pop1.Weights).ToNot(Equal(pop2.Weights))
	})

	It("picks and reports a seed when none is given", func() {
		pop, err := simulation.Run(ctx, est, simulation.Options{Samples: 10})
		Expect(err).To(BeNil())
		Expect(pop.Seed).ToNot(Equal(uint64(0)))
	})

	It("uses an injected sampler", func() {
		pop, err := simulation.Run(ctx, est, simulation.Options{
			Samples:      4,
			RiskFreeRate: 0.02,
			Seed:         1,
			Sampler:      fixedSampler{weights: []float64{1, 0, 0}},
		})
		Expect(err).To(BeNil())
		for idx := 0; idx < pop.Len(); idx++ {
			Expect(pop.Returns[idx]).To(BeNumerically("~", 0.10, 1e-12))
			Expect(pop.Volatility[idx]).To(BeNumerically("~", 0.2, 1e-12))
			Expect(pop.Sharpe[idx]).To(BeNumerically("~", 0.4, 1e-12))
		}
	})

	It("marks zero volatility samples with the sentinel", func() {
		est.Covariance = mat.NewSymDense(3, nil)
		pop, err := simulation.Run(ctx, est, simulation.Options{Samples: 10, RiskFreeRate: 0.02, Seed: 3})
		Expect(err).To(BeNil())
		for idx := 0; idx < pop.Len(); idx++ {
			Expect(pop.Volatility[idx]).To(Equal(0.0))
			Expect(math.IsInf(pop.Sharpe[idx], 1)).To(BeTrue())
		}
	})

	It("rejects a non-positive sample count", func() {
		_, err := simulation.Run(ctx, est, simulation.Options{Samples: 0})
		Expect(errors.Is(err, simulation.ErrInvalidSampleCount)).To(BeTrue())
	})

	It("rejects a missing estimate", func() {
		_, err := simulation.Run(ctx, nil, simulation.Options{Samples: 10})
		Expect(errors.Is(err, simulation.ErrNoEstimate)).To(BeTrue())
	})

	It("stops when the context is cancelled", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := simulation.Run(cancelled, est, simulation.Options{Samples: 10000, Seed: 5, BatchSize: 100})
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
	})
})

var _ = Describe("Samplers", func() {
	var (
		rnd *rand.Rand
	)

	BeforeEach(func() {
		rnd = rand.New(rand.NewPCG(1, 2))
	})

	DescribeTable("draw points on the simplex",
		func(sampler simulation.Sampler) {
			w := make([]float64, 7)
			for ii := 0; ii < 100; ii++ {
				sampler.Draw(rnd, w)
				Expect(floats.Sum(w)).To(BeNumerically("~", 1.0, 1e-12))
				Expect(floats.Min(w)).To(BeNumerically(">=", 0))
			}
		},
		Entry("uniform", simulation.Uniform{}),
		Entry("dirichlet with unit alpha", simulation.Dirichlet{Alpha: 1}),
		Entry("dirichlet with small alpha", simulation.Dirichlet{Alpha: 0.3}),
		Entry("dirichlet with large alpha", simulation.Dirichlet{Alpha: 5}),
	)

	It("looks samplers up by name", func() {
		s, err := simulation.NewSampler("Dirichlet", 0.5)
		Expect(err).To(BeNil())
		Expect(s).To(Equal(simulation.Dirichlet{Alpha: 0.5}))

		s, err = simulation.NewSampler("", 0)
		Expect(err).To(BeNil())
		Expect(s).To(Equal(simulation.Uniform{}))
	})

	It("rejects unknown samplers and invalid alpha", func() {
		_, err := simulation.NewSampler("sobol", 1)
		Expect(errors.Is(err, simulation.ErrInvalidSampler)).To(BeTrue())

		_, err = simulation.NewSampler("dirichlet", 0)
		Expect(errors.Is(err, simulation.ErrInvalidSampler)).To(BeTrue())
	})
})

var _ = Describe("Population", func() {
	var (
		pop *simulation.Population
	)

	BeforeEach(func() {
		pop = &simulation.Population{
			Universe:   portfolio.Universe{"A", "B"},
			NumAssets:  2,
			Weights:    []float64{1, 0, 0.5, 0.5, 0, 1, 0.2, 0.8, 0.9, 0.1},
			Returns:    []float64{0.10, 0.12, 0.14, 0.13, 0.08},
			Volatility: []float64{0.10, 0.15, 0.30, 0.28, 0.11},
			Sharpe:     []float64{0.8, 0.67, 0.4, 0.39, 0.55},
		}
	})

	It("exposes per sample weights and metrics", func() {
		Expect(pop.Len()).To(Equal(5))
		Expect(pop.WeightsAt(3)).To(Equal([]float64{0.2, 0.8}))
		Expect(pop.Metrics(1)).To(Equal(portfolio.Metrics{ExpectedReturn: 0.12, Volatility: 0.15, SharpeRatio: 0.67}))
	})

	It("copies a sample into an allocation", func() {
		alloc, err := pop.Allocation(1)
		Expect(err).To(BeNil())
		Expect(alloc.Map()).To(Equal(map[string]float64{"A": 0.5, "B": 0.5}))

		_, err = pop.Allocation(5)
		Expect(errors.Is(err, simulation.ErrIndexOutOfRange)).To(BeTrue())
	})

	It("approximates the frontier with the best return per volatility bucket", func() {
		frontier := pop.Frontier(2)
		Expect(frontier).To(HaveLen(2))
		Expect(frontier[0].Index).To(Equal(1))
		Expect(frontier[1].Index).To(Equal(2))
		Expect(frontier[0].Volatility).To(BeNumerically("<", frontier[1].Volatility))
	})

	It("returns an empty frontier for an invalid bin count", func() {
		Expect(pop.Frontier(0)).To(BeEmpty())
	})
})
