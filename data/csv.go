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

package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/penny-vault/pv-audit/dataframe"
	"github.com/rs/zerolog/log"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
}

type csvRow struct {
	date time.Time
	vals []float64
}

// LoadCSV reads a table of daily returns from a CSV file. The first column is the date
// index, every other column holds the periodic fractional returns of one asset.
func LoadCSV(fn string) (*dataframe.DataFrame, error) {
	subLog := log.With().Str("FileName", fn).Logger()

	fh, err := os.Open(fn)
	if err != nil {
		subLog.Error().Err(err).Msg("could not open returns file")
		return nil, err
	}
	defer fh.Close()

	df, err := ReadCSV(fh)
	if err != nil {
		subLog.Error().Err(err).Msg("could not parse returns file")
		return nil, err
	}

	subLog.Info().Int("NumAssets", df.ColCount()).Int("NumRows", df.Len()).
		Time("Start", df.Start()).Time("End", df.End()).Msg("loaded historical returns")
	return df, nil
}

// ReadCSV parses a returns table from r. Asset identifiers are upper-cased, rows are
// sorted by date, and empty cells are treated as missing values, which fail validation.
func ReadCSV(r io.Reader) (*dataframe.DataFrame, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: could not read header: %v", ErrMalformedHistoricalData, err)
	}

	colNames := make([]string, 0, len(header))
	for _, name := range header[1:] {
		colNames = append(colNames, strings.ToUpper(strings.TrimSpace(name)))
	}

	df, err := dataframe.New(colNames...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHistoricalData, err)
	}

	rows := make([]csvRow, 0, 252)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedHistoricalData, err)
		}

		date, err := parseDate(record[0])
		if err != nil {
			return nil, err
		}

		vals := make([]float64, len(colNames))
		for idx, raw := range record[1:] {
			vals[idx] = parseReturn(raw)
		}
		rows = append(rows, csvRow{date: date, vals: vals})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].date.Before(rows[j].date)
	})

	for _, row := range rows {
		if err := df.InsertRow(row.date, row.vals...); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedHistoricalData, err)
		}
	}

	if err := ValidateReturns(df); err != nil {
		return nil, err
	}

	return df, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if dt, err := time.Parse(layout, raw); err == nil {
			return dt, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparsableDate, raw)
}

// parseReturn converts a cell to a float; blank or non-numeric cells are NaN
func parseReturn(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nan
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nan
	}
	return val
}
