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

package parser

import "errors"

var (
	ErrMissingColumns     = errors.New("could not find 'Ticker' or 'Weight' columns; please check your file headers")
	ErrUnsupportedFormat  = errors.New("unsupported file format")
	ErrEmptyFile          = errors.New("file contains no rows")
	ErrZeroTotal          = errors.New("weights sum to zero")
	ErrMalformedWorkbook  = errors.New("could not read workbook")
	ErrMalformedDelimited = errors.New("could not read delimited file")
)
