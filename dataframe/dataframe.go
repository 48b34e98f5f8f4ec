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

package dataframe

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

// New creates an empty dataframe with the requested columns
func New(colNames ...string) (*DataFrame, error) {
	seen := make(map[string]bool, len(colNames))
	for _, name := range colNames {
		if seen[name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateColumn, name)
		}
		seen[name] = true
	}

	df := &DataFrame{
		Dates:    make([]time.Time, 0),
		ColNames: make([]string, len(colNames)),
		Vals:     make([][]float64, len(colNames)),
	}
	copy(df.ColNames, colNames)
	for idx := range df.Vals {
		df.Vals[idx] = make([]float64, 0)
	}

	return df, nil
}

// ColIndex returns the index of the specified column; returns -1 if column doesn't exist
func (df *DataFrame) ColIndex(colName string) int {
	for idx, val := range df.ColNames {
		if colName == val {
			return idx
		}
	}

	return -1
}

// ColCount returns the number of columns in the dataframe
func (df *DataFrame) ColCount() int {
	return len(df.ColNames)
}

// Copy creates a deep copy of the dataframe
func (df *DataFrame) Copy() *DataFrame {
	df2 := &DataFrame{
		ColNames: make([]string, len(df.ColNames)),
		Dates:    make([]time.Time, len(df.Dates)),
		Vals:     make([][]float64, len(df.Vals)),
	}

	copy(df2.ColNames, df.ColNames)
	copy(df2.Dates, df.Dates)

	for idx := range df2.Vals {
		df2.Vals[idx] = make([]float64, len(df.Vals[idx]))
		copy(df2.Vals[idx], df.Vals[idx])
	}

	return df2
}

// Drop removes rows that contain the value `val` from the dataframe. Passing
// math.NaN() drops every row with a missing value.
func (df *DataFrame) Drop(val float64) *DataFrame {
	isNA := math.IsNaN(val)
	newVals := make([][]float64, len(df.Vals))
	newDates := make([]time.Time, 0, len(df.Dates))

	for colIdx := range newVals {
		newVals[colIdx] = make([]float64, 0, len(df.Dates))
	}

	for rowIdx, rowDate := range df.Dates {
		keep := true
		for _, col := range df.Vals {
			rowVal := col[rowIdx]
			keep = keep && !(rowVal == val || (isNA && math.IsNaN(rowVal)))
			if !keep {
				break
			}
		}

		if keep {
			newDates = append(newDates, rowDate)
			for colIdx, col := range df.Vals {
				newVals[colIdx] = append(newVals[colIdx], col[rowIdx])
			}
		}
	}

	df.Vals = newVals
	df.Dates = newDates
	return df
}

// End returns the last date in the dataframe
func (df *DataFrame) End() time.Time {
	if len(df.Dates) == 0 {
		return time.Time{}
	}
	return df.Dates[len(df.Dates)-1]
}

// HasNaN reports whether any value in the dataframe is missing
func (df *DataFrame) HasNaN() bool {
	for _, col := range df.Vals {
		for _, v := range col {
			if math.IsNaN(v) {
				return true
			}
		}
	}
	return false
}

// HasNonFinite reports whether any value is NaN or infinite
func (df *DataFrame) HasNonFinite() bool {
	for _, col := range df.Vals {
		for _, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return true
			}
		}
	}
	return false
}

// InsertRow adds a new row to the dataframe. Date must be after the last date in the
// dataframe and vals must equal the number of columns.
func (df *DataFrame) InsertRow(date time.Time, vals ...float64) error {
	if len(df.Dates) != 0 && !df.End().Before(date) {
		return fmt.Errorf("%w: %s is not after %s", ErrDatesNotIncreasing,
			date.Format("2006-01-02"), df.End().Format("2006-01-02"))
	}

	if len(vals) != len(df.ColNames) {
		return fmt.Errorf("%w: got %d values for %d columns", ErrColumnCountMismatch, len(vals), len(df.ColNames))
	}

	df.Dates = append(df.Dates, date)
	for colIdx := range df.ColNames {
		df.Vals[colIdx] = append(df.Vals[colIdx], vals[colIdx])
	}

	return nil
}

// InsertMap adds a new row to the dataframe. Date must be after the last date in the dataframe.
// Columns missing from vals are filled with NaN, additional keys in vals are ignored
func (df *DataFrame) InsertMap(date time.Time, vals map[string]float64) error {
	if len(df.Dates) != 0 && !df.End().Before(date) {
		return fmt.Errorf("%w: %s is not after %s", ErrDatesNotIncreasing,
			date.Format("2006-01-02"), df.End().Format("2006-01-02"))
	}

	df.Dates = append(df.Dates, date)
	for colIdx, colName := range df.ColNames {
		if val, ok := vals[colName]; ok {
			df.Vals[colIdx] = append(df.Vals[colIdx], val)
		} else {
			df.Vals[colIdx] = append(df.Vals[colIdx], math.NaN())
		}
	}

	return nil
}

// Len returns the number of rows in the dataframe
func (df *DataFrame) Len() int {
	return len(df.Dates)
}

// Select returns a new dataframe with only the requested columns, in the order requested.
// Column data is shared with df.
func (df *DataFrame) Select(columns ...string) (*DataFrame, error) {
	res := &DataFrame{
		Dates:    df.Dates,
		ColNames: make([]string, 0, len(columns)),
		Vals:     make([][]float64, 0, len(columns)),
	}

	for _, col := range columns {
		idx := df.ColIndex(col)
		if idx == -1 {
			return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, col)
		}
		res.ColNames = append(res.ColNames, col)
		res.Vals = append(res.Vals, df.Vals[idx])
	}

	return res, nil
}

// Start returns the first date of the dataframe
func (df *DataFrame) Start() time.Time {
	if len(df.Dates) == 0 {
		return time.Time{}
	}
	return df.Dates[0]
}

// Validate checks that every column has one value per date
func (df *DataFrame) Validate() error {
	if len(df.Vals) != len(df.ColNames) {
		return fmt.Errorf("%w: %d value columns for %d names", ErrColumnCountMismatch, len(df.Vals), len(df.ColNames))
	}
	for idx, col := range df.Vals {
		if len(col) != len(df.Dates) {
			return fmt.Errorf("%w: column %s has %d values for %d dates", ErrColumnLengthMismatch,
				df.ColNames[idx], len(col), len(df.Dates))
		}
	}
	return nil
}

// Table prints an ASCII formatted table
func (df *DataFrame) Table() string {
	if len(df.Dates) == 0 {
		return "<NO DATA>" // nothing to do as there is no data available in the dataframe
	}

	// construct table header
	tableCols := append([]string{"Date"}, df.ColNames...)

	// initialize table
	s := &strings.Builder{}
	table := tablewriter.NewWriter(s)
	table.SetHeader(tableCols)
	footer := make([]string, len(tableCols))
	footer[0] = "Num Rows"
	if len(footer) > 1 {
		footer[1] = fmt.Sprintf("%d", df.Len())
	}
	table.SetFooter(footer)
	table.SetBorder(false)

	for rowIdx, date := range df.Dates {
		row := make([]string, 0, len(df.Vals)+1)
		row = append(row, date.Format("2006-01-02"))

		for _, col := range df.Vals {
			row = append(row, fmt.Sprintf("%.4f", col[rowIdx]))
		}

		table.Append(row)
	}

	table.Render()
	return s.String()
}
