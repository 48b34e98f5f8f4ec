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
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/penny-vault/pv-audit/dataframe"
	"github.com/penny-vault/pv-audit/observability/opentelemetry"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

const returnsQuery = "SELECT event_date, ticker, daily_return FROM daily_returns ORDER BY event_date, ticker"

// Querier is satisfied by *pgxpool.Pool, pgx.Conn and pgxmock
type Querier interface {
	Begin(context.Context) (pgx.Tx, error)
}

// DBProvider loads daily returns stored in long format (one row per date and ticker)
// and pivots them into a dataframe. Dates that are missing a value for any ticker are
// dropped so the resulting table has no missing values.
type DBProvider struct {
	db Querier
}

func NewDBProvider(db Querier) *DBProvider {
	return &DBProvider{
		db: db,
	}
}

func (p *DBProvider) Name() string {
	return "database:daily_returns"
}

func (p *DBProvider) Returns(ctx context.Context) (*dataframe.DataFrame, error) {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(ctx, "pvdb.Returns")
	defer span.End()

	subLog := log.With().Str("Provider", p.Name()).Logger()

	trx, err := p.db.Begin(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "could not begin transaction")
		subLog.Error().Stack().Err(err).Msg("could not begin transaction")
		return nil, err
	}

	rows, err := trx.Query(ctx, returnsQuery)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "database query failed")
		subLog.Error().Stack().Err(err).Str("Query", returnsQuery).Msg("could not query daily returns")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	byDate := make(map[time.Time]map[string]float64)
	tickerSet := make(map[string]bool)
	for rows.Next() {
		var (
			date   time.Time
			ticker string
			ret    float64
		)
		if err := rows.Scan(&date, &ticker, &ret); err != nil {
			rows.Close()
			subLog.Error().Stack().Err(err).Msg("could not scan daily return")
			if err := trx.Rollback(ctx); err != nil {
				subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
			}
			return nil, err
		}

		ticker = strings.ToUpper(strings.TrimSpace(ticker))
		date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
		if _, ok := byDate[date]; !ok {
			byDate[date] = make(map[string]float64)
		}
		byDate[date][ticker] = ret
		tickerSet[ticker] = true
	}
	rows.Close()

	if err := rows.Err(); err != nil {
		subLog.Error().Stack().Err(err).Msg("error while reading daily returns")
		if err := trx.Rollback(ctx); err != nil {
			subLog.Error().Stack().Err(err).Msg("could not rollback transaction")
		}
		return nil, err
	}

	if err := trx.Commit(ctx); err != nil {
		subLog.Warn().Stack().Err(err).Msg("could not commit transaction")
	}

	tickers := make([]string, 0, len(tickerSet))
	for ticker := range tickerSet {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	dates := make([]time.Time, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	df, err := dataframe.New(tickers...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedHistoricalData, err)
	}

	for _, date := range dates {
		if err := df.InsertMap(date, byDate[date]); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedHistoricalData, err)
		}
	}

	numRows := df.Len()
	df.Drop(nan)
	if dropped := numRows - df.Len(); dropped > 0 {
		subLog.Warn().Int("NumDropped", dropped).Int("NumRows", df.Len()).Msg("dropped dates with incomplete returns")
	}

	if err := ValidateReturns(df); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid returns")
		return nil, err
	}

	subLog.Info().Int("NumAssets", df.ColCount()).Int("NumRows", df.Len()).Msg("loaded historical returns from database")
	return df, nil
}
