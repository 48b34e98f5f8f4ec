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

package parser_test

import (
	"bytes"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-audit/parser"
	"github.com/penny-vault/pv-audit/portfolio"
	"github.com/tealeg/xlsx/v3"
)

func weightOf(holdings []portfolio.Holding, ticker string) float64 {
	for _, h := range holdings {
		if h.Ticker == ticker {
			return h.Weight
		}
	}
	return -1
}

var _ = Describe("Parser", func() {
	Context("with CSV input", func() {
		It("reads fractional weights", func() {
			holdings, err := parser.ParseCSV(strings.NewReader("Ticker,Weight\nAAPL,0.5\nmsft,0.3\n GOOG ,0.2\n"))
			Expect(err).To(BeNil())
			Expect(holdings).To(HaveLen(3))
			Expect(holdings[1].Ticker).To(Equal("MSFT"))
			Expect(weightOf(holdings, "GOOG")).To(BeNumerically("~", 0.2, 1e-12))
		})

		It("detects percentages", func() {
			holdings, err := parser.ParseCSV(strings.NewReader("Symbol,Percent\nAAPL,60\nMSFT,40\n"))
			Expect(err).To(BeNil())
			Expect(weightOf(holdings, "AAPL")).To(BeNumerically("~", 0.6, 1e-12))
			Expect(weightOf(holdings, "MSFT")).To(BeNumerically("~", 0.4, 1e-12))
		})

		It("normalizes dollar amounts", func() {
			holdings, err := parser.ParseCSV(strings.NewReader("Stock Name,Market Value\nAAPL,1500\nMSFT,500\n"))
			Expect(err).To(BeNil())
			Expect(weightOf(holdings, "AAPL")).To(BeNumerically("~", 0.75, 1e-12))
		})

		It("matches messy headers case insensitively", func() {
			holdings, err := parser.ParseCSV(strings.NewReader("  ASSET CLASS , % of Portfolio \nVTI,70\nBND,30\n"))
			Expect(err).To(BeNil())
			Expect(holdings).To(HaveLen(2))
			Expect(holdings[0].Ticker).To(Equal("VTI"))
			Expect(holdings[0].Weight).To(BeNumerically("~", 0.7, 1e-12))
			Expect(holdings[1].Ticker).To(Equal("BND"))
		})

		It("treats bad weights as zero and drops them", func() {
			holdings, err := parser.ParseCSV(strings.NewReader("Ticker,Weight\nAAPL,0.5\nMSFT,n/a\nGOOG,0.5\n,0.2\n"))
			Expect(err).To(BeNil())
			Expect(holdings).To(HaveLen(2))
			Expect(weightOf(holdings, "MSFT")).To(Equal(-1.0))
		})

		It("sums duplicate tickers", func() {
			holdings, err := parser.ParseCSV(strings.NewReader("Ticker,Weight\nAAPL,0.25\nMSFT,0.5\naapl,0.25\n"))
			Expect(err).To(BeNil())
			Expect(holdings).To(HaveLen(2))
			Expect(weightOf(holdings, "AAPL")).To(BeNumerically("~", 0.5, 1e-12))
		})

		It("errors when headers cannot be matched", func() {
			_, err := parser.ParseCSV(strings.NewReader("Name,Quantity\nAAPL,10\n"))
			Expect(errors.Is(err, parser.ErrMissingColumns)).To(BeTrue())
		})

		It("errors on a file without data", func() {
			_, err := parser.ParseCSV(strings.NewReader("Ticker,Weight\n"))
			Expect(errors.Is(err, parser.ErrEmptyFile)).To(BeTrue())
		})

		It("errors when every weight is zero", func() {
			_, err := parser.ParseCSV(strings.NewReader("Ticker,Weight\nAAPL,0\nMSFT,0\n"))
			Expect(errors.Is(err, parser.ErrZeroTotal)).To(BeTrue())
		})
	})

	Context("with XLSX input", func() {
		var (
			workbook []byte
		)

		BeforeEach(func() {
			f := xlsx.NewFile()
			sheet, err := f.AddSheet("Holdings")
			Expect(err).To(BeNil())

			header := sheet.AddRow()
			header.AddCell().SetString("Ticker")
			header.AddCell().SetString("Allocation")

			for _, line := range []struct {
				ticker string
				weight float64
			}{{"spy", 55}, {"TLT", 25}, {"GLD", 20}} {
				row := sheet.AddRow()
				row.AddCell().SetString(line.ticker)
				row.AddCell().SetFloat(line.weight)
			}

			buf := &bytes.Buffer{}
			Expect(f.Write(buf)).To(Succeed())
			workbook = buf.Bytes()
		})

		It("reads the first sheet", func() {
			holdings, err := parser.ParseXLSX(workbook)
			Expect(err).To(BeNil())
			Expect(holdings).To(HaveLen(3))
			Expect(holdings[0].Ticker).To(Equal("SPY"))
			Expect(weightOf(holdings, "SPY")).To(BeNumerically("~", 0.55, 1e-12))
			Expect(weightOf(holdings, "GLD")).To(BeNumerically("~", 0.20, 1e-12))
		})

		It("dispatches on the file extension", func() {
			holdings, err := parser.Parse(bytes.NewReader(workbook), "portfolio.XLSX")
			Expect(err).To(BeNil())
			Expect(holdings).To(HaveLen(3))
		})

		It("errors on a corrupt workbook", func() {
			_, err := parser.ParseXLSX([]byte("not a zip file"))
			Expect(errors.Is(err, parser.ErrMalformedWorkbook)).To(BeTrue())
		})
	})

	It("rejects unknown file types", func() {
		_, err := parser.Parse(strings.NewReader(""), "portfolio.pdf")
		Expect(errors.Is(err, parser.ErrUnsupportedFormat)).To(BeTrue())
	})
})
