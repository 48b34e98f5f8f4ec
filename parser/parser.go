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

// Package parser reads externally supplied allocations from CSV and XLSX files with
// loosely named headers
package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/penny-vault/pv-audit/portfolio"
	"github.com/rs/zerolog/log"
	"github.com/tealeg/xlsx/v3"
	"gonum.org/v1/gonum/floats"
)

// PercentThreshold is the raw weight sum above which weights are read as percentages
const PercentThreshold = 1.5

var (
	tickerKeywords = []string{"ticker", "symbol", "stock", "asset", "instrument"}
	weightKeywords = []string{"weight", "percent", "%", "value", "amount", "proportion", "allocation"}
)

// Parse reads an allocation file, choosing the format from the file extension
func Parse(r io.Reader, filename string) ([]portfolio.Holding, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return ParseCSV(r)
	case ".xlsx", ".xlsm":
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return ParseXLSX(b)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
}

// ParseCSV reads a comma separated allocation with a header row
func ParseCSV(r io.Reader) ([]portfolio.Holding, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDelimited, err)
	}

	cells := make([][]cell, len(records))
	for rowIdx, record := range records {
		cells[rowIdx] = make([]cell, len(record))
		for colIdx, val := range record {
			cells[rowIdx][colIdx] = textCell(val)
		}
	}

	return parseTable(cells)
}

// ParseXLSX reads the first sheet of a workbook
func ParseXLSX(b []byte) ([]portfolio.Holding, error) {
	wb, err := xlsx.OpenBinary(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedWorkbook, err)
	}

	if len(wb.Sheets) == 0 {
		return nil, ErrEmptyFile
	}

	sheet := wb.Sheets[0]
	cells := make([][]cell, 0, sheet.MaxRow)

	err = sheet.ForEachRow(func(row *xlsx.Row) error {
		rowCells := make([]cell, 0)
		err := row.ForEachCell(func(c *xlsx.Cell) error {
			colIdx, _ := c.GetCoordinates()
			for len(rowCells) <= colIdx {
				rowCells = append(rowCells, cell{})
			}

			if c.Type() == xlsx.CellTypeNumeric {
				if val, err := c.Float(); err == nil {
					rowCells[colIdx] = cell{text: c.Value, number: val, numeric: true}
					return nil
				}
			}

			text, err := c.FormattedValue()
			if err != nil {
				text = c.Value
			}
			rowCells[colIdx] = textCell(text)
			return nil
		})
		cells = append(cells, rowCells)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedWorkbook, err)
	}

	return parseTable(cells)
}

type cell struct {
	text    string
	number  float64
	numeric bool
}

func textCell(text string) cell {
	text = strings.TrimSpace(text)
	val, err := strconv.ParseFloat(text, 64)
	return cell{text: text, number: val, numeric: err == nil}
}

func cellAt(row []cell, idx int) cell {
	if idx < len(row) {
		return row[idx]
	}
	return cell{}
}

// findColumn returns the first header containing any keyword
func findColumn(header []cell, keywords []string) int {
	for idx, col := range header {
		name := strings.ToLower(strings.TrimSpace(col.text))
		for _, keyword := range keywords {
			if strings.Contains(name, keyword) {
				return idx
			}
		}
	}
	return -1
}

// parseTable turns a header row plus data rows into normalized holdings. Non-numeric
// weights count as 0; if the raw weights sum past PercentThreshold they are read as
// percentages. Rows with zero weight are dropped and repeated tickers are summed.
func parseTable(rows [][]cell) ([]portfolio.Holding, error) {
	if len(rows) < 2 {
		return nil, ErrEmptyFile
	}

	header := rows[0]
	tickerCol := findColumn(header, tickerKeywords)
	weightCol := findColumn(header, weightKeywords)
	if tickerCol == -1 || weightCol == -1 {
		return nil, ErrMissingColumns
	}

	tickers := make([]string, 0, len(rows)-1)
	weights := make([]float64, 0, len(rows)-1)
	position := make(map[string]int)

	for _, row := range rows[1:] {
		ticker := strings.ToUpper(strings.TrimSpace(cellAt(row, tickerCol).text))
		if ticker == "" {
			continue
		}

		weightCell := cellAt(row, weightCol)
		weight := 0.0
		if weightCell.numeric {
			weight = weightCell.number
		}

		if idx, ok := position[ticker]; ok {
			weights[idx] += weight
			continue
		}
		position[ticker] = len(tickers)
		tickers = append(tickers, ticker)
		weights = append(weights, weight)
	}

	total := floats.Sum(weights)
	if total > PercentThreshold {
		log.Debug().Float64("RawTotal", total).Msg("interpreting weights as percentages")
		floats.Scale(1.0/100.0, weights)
		total /= 100
	}

	if total <= 0 {
		return nil, ErrZeroTotal
	}

	holdings := make([]portfolio.Holding, 0, len(tickers))
	for idx, ticker := range tickers {
		weight := weights[idx] / total
		if weight <= 0 {
			continue
		}
		holdings = append(holdings, portfolio.Holding{Ticker: ticker, Weight: weight})
	}

	return holdings, nil
}
