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
	"sync"
	"time"

	"github.com/penny-vault/pv-audit/dataframe"
	"github.com/penny-vault/pv-audit/observability/metrics"
	"github.com/rs/zerolog/log"
)

// Store holds the most recently loaded returns table. The table is immutable once
// published; Refresh swaps in a new table without disturbing readers of the old one.
type Store struct {
	provider Provider
	returns  *dataframe.DataFrame
	loadedAt time.Time
	locker   sync.RWMutex
}

func NewStore(provider Provider) *Store {
	return &Store{
		provider: provider,
	}
}

// Refresh reloads returns from the provider. On failure the previous table is kept.
func (s *Store) Refresh(ctx context.Context) error {
	subLog := log.With().Str("Provider", s.provider.Name()).Logger()

	df, err := s.provider.Returns(ctx)
	if err != nil {
		subLog.Error().Err(err).Msg("could not refresh historical returns; keeping previous table")
		metrics.HistoryRefreshes.WithLabelValues("error").Inc()
		return err
	}

	s.locker.Lock()
	s.returns = df
	s.loadedAt = time.Now()
	s.locker.Unlock()

	metrics.HistoryRefreshes.WithLabelValues("success").Inc()
	metrics.HistoryAssets.Set(float64(df.ColCount()))

	subLog.Info().Int("NumAssets", df.ColCount()).Int("NumRows", df.Len()).Msg("refreshed historical returns")
	return nil
}

// Returns returns the current table or ErrNoHistory if nothing has been loaded
func (s *Store) Returns() (*dataframe.DataFrame, error) {
	s.locker.RLock()
	defer s.locker.RUnlock()

	if s.returns == nil {
		return nil, ErrNoHistory
	}
	return s.returns, nil
}

// Tickers lists the asset identifiers available in the current table
func (s *Store) Tickers() []string {
	s.locker.RLock()
	defer s.locker.RUnlock()

	if s.returns == nil {
		return []string{}
	}
	tickers := make([]string, len(s.returns.ColNames))
	copy(tickers, s.returns.ColNames)
	return tickers
}

// LoadedAt reports when the current table was loaded
func (s *Store) LoadedAt() time.Time {
	s.locker.RLock()
	defer s.locker.RUnlock()
	return s.loadedAt
}
