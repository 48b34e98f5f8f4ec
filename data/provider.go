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
	"context"
	"fmt"
	"strings"

	"github.com/penny-vault/pv-audit/dataframe"
)

const (
	SourceCSV      = "csv"
	SourceDatabase = "database"
)

// Provider yields a validated table of daily returns, one column per asset
type Provider interface {
	Returns(ctx context.Context) (*dataframe.DataFrame, error)
	Name() string
}

// CSVProvider reads returns from a CSV file on disk
type CSVProvider struct {
	Path string
}

func NewCSVProvider(path string) *CSVProvider {
	return &CSVProvider{
		Path: path,
	}
}

func (p *CSVProvider) Name() string {
	return fmt.Sprintf("csv:%s", p.Path)
}

func (p *CSVProvider) Returns(ctx context.Context) (*dataframe.DataFrame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadCSV(p.Path)
}

// NewProvider builds the provider for the named source. For SourceDatabase the
// supplied querier is used, for SourceCSV the path.
func NewProvider(source string, path string, db Querier) (Provider, error) {
	switch strings.ToLower(source) {
	case SourceCSV, "":
		return NewCSVProvider(path), nil
	case SourceDatabase:
		if db == nil {
			return nil, fmt.Errorf("%w: database source configured without a connection", ErrUnknownSource)
		}
		return NewDBProvider(db), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, source)
	}
}
