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

package selection_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-audit/selection"
	"github.com/penny-vault/pv-audit/simulation"
)

func population(returns, vols, sharpe []float64) *simulation.Population {
	return &simulation.Population{
		NumAssets:  1,
		Weights:    make([]float64, len(returns)),
		Returns:    returns,
		Volatility: vols,
		Sharpe:     sharpe,
	}
}

var _ = Describe("Select", func() {
	var (
		pop *simulation.Population
		cfg selection.Config
	)

	BeforeEach(func() {
		//                         0     1     2     3     4
		pop = population(
			[]float64{0.06, 0.10, 0.14, 0.20, 0.08},
			[]float64{0.08, 0.12, 0.15, 0.30, 0.05},
			[]float64{0.50, 0.67, 0.80, 0.60, 1.20},
		)
		cfg = selection.DefaultConfig()
	})

	DescribeTable("extreme point method",
		func(pref selection.Preference, expected int) {
			idx, err := selection.Select(pop, pref, cfg)
			Expect(err).To(BeNil())
			Expect(idx).To(Equal(expected))
		},
		Entry("high selects the maximum Sharpe ratio", selection.High, 4),
		Entry("medium selects the maximum Sharpe ratio", selection.Medium, 4),
		Entry("low selects the minimum volatility", selection.Low, 4),
	)

	It("does not always pick the same sample for low and high", func() {
		pop.Sharpe[2] = 2.0
		high, err := selection.Select(pop, selection.High, cfg)
		Expect(err).To(BeNil())
		low, err := selection.Select(pop, selection.Low, cfg)
		Expect(err).To(BeNil())
		Expect(high).To(Equal(2))
		Expect(low).To(Equal(4))
	})

	It("resolves ties to the first occurrence", func() {
		pop.Sharpe = []float64{0.5, 0.9, 0.9, 0.1, 0.9}
		idx, err := selection.Select(pop, selection.High, cfg)
		Expect(err).To(BeNil())
		Expect(idx).To(Equal(1))
	})

	It("never selects NaN", func() {
		pop.Sharpe = []float64{math.NaN(), 0.2, math.NaN(), 0.3, 0.1}
		idx, err := selection.Select(pop, selection.High, cfg)
		Expect(err).To(BeNil())
		Expect(idx).To(Equal(3))
	})

	It("prefers a zero volatility sample with positive excess return", func() {
		pop.Volatility[0] = 0
		pop.Sharpe[0] = math.Inf(1)
		idx, err := selection.Select(pop, selection.High, cfg)
		Expect(err).To(BeNil())
		Expect(idx).To(Equal(0))
	})

	It("errors when every score is NaN", func() {
		pop.Sharpe = []float64{math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()}
		_, err := selection.Select(pop, selection.High, cfg)
		Expect(errors.Is(err, selection.ErrNoEligibleSample)).To(BeTrue())
	})

	Context("with the penalty method", func() {
		BeforeEach(func() {
			cfg.Method = selection.MethodPenalty
		})

		It("maximizes penalized return per unit of volatility", func() {
			// return / vol = 0.75, 0.83, 0.93, 0.67, 1.6
			idx, err := selection.Select(pop, selection.Medium, cfg)
			Expect(err).To(BeNil())
			Expect(idx).To(Equal(4))
		})

		It("selects the same sample for every preference", func() {
			low, err := selection.Select(pop, selection.Low, cfg)
			Expect(err).To(BeNil())
			medium, err := selection.Select(pop, selection.Medium, cfg)
			Expect(err).To(BeNil())
			high, err := selection.Select(pop, selection.High, cfg)
			Expect(err).To(BeNil())
			Expect(low).To(Equal(4))
			Expect(medium).To(Equal(low))
			Expect(high).To(Equal(low))
		})

		It("ignores the risk-free rate", func() {
			pop.Returns[4] = 0.01
			pop.Sharpe[4] = -0.2
			idx, err := selection.Select(pop, selection.High, cfg)
			Expect(err).To(BeNil())
			Expect(idx).To(Equal(2))
		})
	})

	It("rejects an empty population", func() {
		_, err := selection.Select(population(nil, nil, nil), selection.High, cfg)
		Expect(errors.Is(err, selection.ErrEmptyPopulation)).To(BeTrue())
	})

	It("rejects an unknown method", func() {
		cfg.Method = "blend"
		_, err := selection.Select(pop, selection.High, cfg)
		Expect(errors.Is(err, selection.ErrUnknownMethod)).To(BeTrue())
	})

	It("rejects an out of range preference", func() {
		_, err := selection.Select(pop, selection.Preference(7), cfg)
		Expect(errors.Is(err, selection.ErrUnknownPreference)).To(BeTrue())
	})
})

var _ = Describe("Preference", func() {
	DescribeTable("parses case insensitively",
		func(in string, expected selection.Preference) {
			pref, err := selection.ParsePreference(in)
			Expect(err).To(BeNil())
			Expect(pref).To(Equal(expected))
		},
		Entry("low", "low", selection.Low),
		Entry("upper case", "HIGH", selection.High),
		Entry("mixed case", "Medium", selection.Medium),
		Entry("empty defaults to medium", "", selection.Medium),
	)

	It("rejects unknown values", func() {
		_, err := selection.ParsePreference("aggressive")
		Expect(errors.Is(err, selection.ErrUnknownPreference)).To(BeTrue())
	})

	It("round trips through text", func() {
		var pref selection.Preference
		Expect(pref.UnmarshalText([]byte("high"))).To(Succeed())
		Expect(pref).To(Equal(selection.High))
		b, err := pref.MarshalText()
		Expect(err).To(BeNil())
		Expect(string(b)).To(Equal("High"))
	})
})
