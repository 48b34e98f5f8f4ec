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

package portfolio_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-audit/portfolio"
	"gonum.org/v1/gonum/floats"
)

var _ = Describe("Reconcile", func() {
	var (
		available []string
	)

	BeforeEach(func() {
		available = []string{"B", "C", "D"}
	})

	It("drops assets without history and re-normalizes the rest", func() {
		alloc, err := portfolio.Reconcile([]portfolio.Holding{
			{Ticker: "A", Weight: 0.5},
			{Ticker: "B", Weight: 0.3},
			{Ticker: "C", Weight: 0.2},
		}, available)
		Expect(err).To(BeNil())
		Expect(alloc.Universe).To(Equal(portfolio.Universe{"B", "C"}))
		Expect(alloc.Weights[0]).To(BeNumerically("~", 0.6, 1e-12))
		Expect(alloc.Weights[1]).To(BeNumerically("~", 0.4, 1e-12))
	})

	It("orders the universe by first appearance in the candidate", func() {
		alloc, err := portfolio.Reconcile([]portfolio.Holding{
			{Ticker: "D", Weight: 1},
			{Ticker: "B", Weight: 1},
		}, available)
		Expect(err).To(BeNil())
		Expect(alloc.Universe).To(Equal(portfolio.Universe{"D", "B"}))
	})

	It("sums repeated identifiers", func() {
		alloc, err := portfolio.Reconcile([]portfolio.Holding{
			{Ticker: "b", Weight: 1},
			{Ticker: "C", Weight: 2},
			{Ticker: " B ", Weight: 1},
		}, available)
		Expect(err).To(BeNil())
		Expect(alloc.Universe).To(Equal(portfolio.Universe{"B", "C"}))
		Expect(alloc.Weight("B")).To(BeNumerically("~", 0.5, 1e-12))
		Expect(alloc.Weight("C")).To(BeNumerically("~", 0.5, 1e-12))
	})

	It("produces weights that sum to 1", func() {
		alloc, err := portfolio.Reconcile([]portfolio.Holding{
			{Ticker: "B", Weight: 17.3},
			{Ticker: "C", Weight: 4.1},
			{Ticker: "D", Weight: 0.07},
		}, available)
		Expect(err).To(BeNil())
		Expect(floats.Sum(alloc.Weights)).To(BeNumerically("~", 1.0, portfolio.NormalizationTolerance))
	})

	It("fails when only one asset has history", func() {
		_, err := portfolio.Reconcile([]portfolio.Holding{
			{Ticker: "A", Weight: 0.5},
			{Ticker: "B", Weight: 0.5},
		}, available)
		Expect(errors.Is(err, portfolio.ErrInsufficientUniverse)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("found 1"))
	})

	It("fails when no asset has history", func() {
		_, err := portfolio.Reconcile([]portfolio.Holding{
			{Ticker: "X", Weight: 0.5},
		}, available)
		Expect(errors.Is(err, portfolio.ErrInsufficientUniverse)).To(BeTrue())
	})

	It("rejects negative weights", func() {
		_, err := portfolio.Reconcile([]portfolio.Holding{
			{Ticker: "B", Weight: -0.5},
			{Ticker: "C", Weight: 0.5},
		}, available)
		Expect(errors.Is(err, portfolio.ErrNegativeWeight)).To(BeTrue())
	})

	It("ignores negative weights on assets without history", func() {
		alloc, err := portfolio.Reconcile([]portfolio.Holding{
			{Ticker: "A", Weight: -0.5},
			{Ticker: "B", Weight: 0.3},
			{Ticker: "C", Weight: 0.2},
		}, available)
		Expect(err).To(BeNil())
		Expect(alloc.Universe).To(Equal(portfolio.Universe{"B", "C"}))
		Expect(alloc.Weight("B")).To(BeNumerically("~", 0.6, 1e-12))
	})

	It("rejects allocations whose matched weight is zero", func() {
		_, err := portfolio.Reconcile([]portfolio.Holding{
			{Ticker: "A", Weight: 1},
			{Ticker: "B", Weight: 0},
			{Ticker: "C", Weight: 0},
		}, available)
		Expect(errors.Is(err, portfolio.ErrZeroAllocation)).To(BeTrue())
	})
})

var _ = Describe("Allocation", func() {
	It("copies the weights before normalizing", func() {
		raw := []float64{2, 2}
		alloc, err := portfolio.NewAllocation(portfolio.Universe{"A", "B"}, raw)
		Expect(err).To(BeNil())
		Expect(alloc.Weights).To(Equal([]float64{0.5, 0.5}))
		Expect(raw).To(Equal([]float64{2, 2}))
	})

	It("errors on a dimension mismatch", func() {
		_, err := portfolio.NewAllocation(portfolio.Universe{"A", "B"}, []float64{1})
		Expect(errors.Is(err, portfolio.ErrDimensionMismatch)).To(BeTrue())
	})

	It("rejects duplicate universe members", func() {
		_, err := portfolio.NewUniverse("A", "B", "A")
		Expect(errors.Is(err, portfolio.ErrDuplicateAsset)).To(BeTrue())
	})

	It("returns the allocation as a map", func() {
		alloc, err := portfolio.NewAllocation(portfolio.Universe{"A", "B"}, []float64{1, 3})
		Expect(err).To(BeNil())
		Expect(alloc.Map()).To(Equal(map[string]float64{"A": 0.25, "B": 0.75}))
		Expect(alloc.Weight("Z")).To(Equal(0.0))
	})
})
