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
	"fmt"

	"github.com/penny-vault/pv-audit/dataframe"
)

const (
	MinAssetColumns = 2
	MinObservations = 2
)

// ValidateReturns checks that a table of periodic returns can be handed to the
// estimator: every column is complete, there are no missing values, and there are at
// least 2 asset columns and 2 observations. Failures wrap ErrMalformedHistoricalData.
func ValidateReturns(df *dataframe.DataFrame) error {
	if df == nil {
		return fmt.Errorf("%w: no data", ErrMalformedHistoricalData)
	}

	if err := df.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedHistoricalData, err)
	}

	if df.ColCount() < MinAssetColumns {
		return fmt.Errorf("%w: need at least %d assets, have %d", ErrMalformedHistoricalData, MinAssetColumns, df.ColCount())
	}

	if df.Len() < MinObservations {
		return fmt.Errorf("%w: need at least %d observations, have %d", ErrMalformedHistoricalData, MinObservations, df.Len())
	}

	if df.HasNaN() {
		return fmt.Errorf("%w: missing values detected in returns data", ErrMalformedHistoricalData)
	}

	if df.HasNonFinite() {
		return fmt.Errorf("%w: infinite values detected in returns data", ErrMalformedHistoricalData)
	}

	return nil
}
