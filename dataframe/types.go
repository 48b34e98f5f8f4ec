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
	"errors"
	"time"
)

// DataFrame stores a table of values organized by date. Values are stored
// one slice per column - e.g.,
//
//	       AAPL  MSFT
//	day 1  1     4
//	day 2  2     5
//	day 3  3     6
//
// Vals[0] = [1, 2, 3]
// Vals[1] = [4, 5, 6]
type DataFrame struct {
	Dates    []time.Time
	ColNames []string
	Vals     [][]float64
}

var (
	ErrColumnNotFound       = errors.New("column not found in dataframe")
	ErrColumnCountMismatch  = errors.New("number of values does not match number of columns")
	ErrDatesNotIncreasing   = errors.New("dates must be strictly increasing")
	ErrDuplicateColumn      = errors.New("duplicate column name")
	ErrNotEnoughRows        = errors.New("not enough rows")
	ErrColumnLengthMismatch = errors.New("column length does not match date index")
)
