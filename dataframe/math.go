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

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of each column, in column order
func (df *DataFrame) Mean() []float64 {
	res := make([]float64, len(df.Vals))
	for colIdx, col := range df.Vals {
		res[colIdx] = stat.Mean(col, nil)
	}
	return res
}

// StdDev calculates the sample standard deviation of each column, in column order
func (df *DataFrame) StdDev() []float64 {
	res := make([]float64, len(df.Vals))
	for colIdx, col := range df.Vals {
		res[colIdx] = stat.StdDev(col, nil)
	}
	return res
}

// Matrix returns the values as a dense matrix with one row per date and one column per
// dataframe column
func (df *DataFrame) Matrix() (*mat.Dense, error) {
	if df.Len() == 0 || df.ColCount() == 0 {
		return nil, fmt.Errorf("%w: dataframe is empty", ErrNotEnoughRows)
	}

	m := mat.NewDense(df.Len(), df.ColCount(), nil)
	for colIdx, col := range df.Vals {
		m.SetCol(colIdx, col)
	}
	return m, nil
}

// Covariance computes the sample (n-1) covariance matrix between columns. Requires at
// least 2 rows.
func (df *DataFrame) Covariance() (*mat.SymDense, error) {
	if df.Len() < 2 {
		return nil, fmt.Errorf("%w: covariance requires at least 2 rows, have %d", ErrNotEnoughRows, df.Len())
	}

	m, err := df.Matrix()
	if err != nil {
		return nil, err
	}

	cov := mat.NewSymDense(df.ColCount(), nil)
	stat.CovarianceMatrix(cov, m, nil)
	return cov, nil
}
