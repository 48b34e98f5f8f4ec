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

package audit

import "errors"

var (
	ErrAssetCount      = errors.New("number of assets out of range")
	ErrUnknownAsset    = errors.New("asset has no history")
	ErrUnknownHorizon  = errors.New("unknown investment horizon")
	ErrSimulationCount = errors.New("number of simulations out of range")
	ErrNoReturns       = errors.New("no historical returns supplied")
	ErrEmptyAllocation = errors.New("allocation has no holdings")
)
