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

package dataframe_test

import (
	"errors"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-audit/dataframe"
)

var _ = Describe("DataFrame", func() {
	Context("with no values", func() {
		var (
			df *dataframe.DataFrame
		)

		BeforeEach(func() {
			df = &dataframe.DataFrame{}
		})

		It("has zero length", func() {
			Expect(df.Len()).To(Equal(0))
		})

		It("has zero columns", func() {
			Expect(df.ColCount()).To(Equal(0))
		})

		It("does not error on drop", func() {
			df = df.Drop(math.NaN())
			Expect(df.Len()).To(Equal(0))
		})

		It("has zero start and end dates", func() {
			Expect(df.Start().IsZero()).To(BeTrue())
			Expect(df.End().IsZero()).To(BeTrue())
		})

		It("prints a placeholder table", func() {
			Expect(df.Table()).To(Equal("<NO DATA>"))
		})
	})

	Context("with 3 columns and 4 rows", func() {
		var (
			df *dataframe.DataFrame
		)

		BeforeEach(func() {
			var err error
			df, err = dataframe.New("AAPL", "MSFT", "SPY")
			Expect(err).To(BeNil())

			Expect(df.InsertRow(time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC), 0.01, 0.02, 0.03)).To(Succeed())
			Expect(df.InsertRow(time.Date(2022, 1, 4, 0, 0, 0, 0, time.UTC), 0.02, math.NaN(), 0.01)).To(Succeed())
			Expect(df.InsertRow(time.Date(2022, 1, 5, 0, 0, 0, 0, time.UTC), -0.01, 0.01, 0.00)).To(Succeed())
			Expect(df.InsertMap(time.Date(2022, 1, 6, 0, 0, 0, 0, time.UTC), map[string]float64{
				"AAPL": 0.03,
				"SPY":  0.02,
				"QQQ":  0.05,
			})).To(Succeed())
		})

		It("has the expected shape", func() {
			Expect(df.Len()).To(Equal(4))
			Expect(df.ColCount()).To(Equal(3))
			Expect(df.Validate()).To(Succeed())
		})

		It("fills missing map columns with NaN", func() {
			Expect(math.IsNaN(df.Vals[1][3])).To(BeTrue())
			Expect(df.Vals[0][3]).To(Equal(0.03))
		})

		It("detects missing values", func() {
			Expect(df.HasNaN()).To(BeTrue())
		})

		It("detects infinite values", func() {
			df.Drop(math.NaN())
			Expect(df.HasNonFinite()).To(BeFalse())
			df.Vals[0][1] = math.Inf(1)
			Expect(df.HasNonFinite()).To(BeTrue())
			Expect(df.HasNaN()).To(BeFalse())
		})

		It("drops rows with missing values", func() {
			df.Drop(math.NaN())
			Expect(df.Len()).To(Equal(2))
			Expect(df.HasNaN()).To(BeFalse())
			Expect(df.Dates).To(Equal([]time.Time{
				time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC),
				time.Date(2022, 1, 5, 0, 0, 0, 0, time.UTC),
			}))
			Expect(df.Vals[2]).To(Equal([]float64{0.03, 0.00}))
		})

		It("rejects rows that are not in date order", func() {
			err := df.InsertRow(time.Date(2022, 1, 5, 0, 0, 0, 0, time.UTC), 1, 2, 3)
			Expect(errors.Is(err, dataframe.ErrDatesNotIncreasing)).To(BeTrue())
			Expect(df.Len()).To(Equal(4))
		})

		It("rejects rows with the wrong number of values", func() {
			err := df.InsertRow(time.Date(2022, 1, 7, 0, 0, 0, 0, time.UTC), 1, 2)
			Expect(errors.Is(err, dataframe.ErrColumnCountMismatch)).To(BeTrue())
		})

		It("selects columns in the requested order", func() {
			sub, err := df.Select("SPY", "AAPL")
			Expect(err).To(BeNil())
			Expect(sub.ColNames).To(Equal([]string{"SPY", "AAPL"}))
			Expect(sub.Vals[0]).To(Equal(df.Vals[2]))
			Expect(sub.Vals[1]).To(Equal(df.Vals[0]))
			Expect(sub.Len()).To(Equal(4))
		})

		It("errors when selecting a missing column", func() {
			_, err := df.Select("AAPL", "NVDA")
			Expect(errors.Is(err, dataframe.ErrColumnNotFound)).To(BeTrue())
		})

		It("copies the data", func() {
			df2 := df.Copy()
			df2.Vals[0][0] = 100
			Expect(df.Vals[0][0]).To(Equal(0.01))
		})

		It("finds column indexes", func() {
			Expect(df.ColIndex("MSFT")).To(Equal(1))
			Expect(df.ColIndex("NVDA")).To(Equal(-1))
		})

		It("renders a table with one line per row", func() {
			table := df.Table()
			Expect(table).To(ContainSubstring("2022-01-03"))
			Expect(table).To(ContainSubstring("AAPL"))
			Expect(table).To(ContainSubstring("0.0100"))
		})
	})

	It("rejects duplicate column names", func() {
		_, err := dataframe.New("AAPL", "AAPL")
		Expect(errors.Is(err, dataframe.ErrDuplicateColumn)).To(BeTrue())
	})
})
