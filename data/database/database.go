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

package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog/log"
)

type PgxIface interface {
	Begin(context.Context) (pgx.Tx, error)
}

var (
	ErrNotConnected = errors.New("database connection has not been established")
)

var pool PgxIface

func SetPool(myPool PgxIface) {
	pool = myPool
}

// Pool returns the shared connection pool or ErrNotConnected
func Pool() (PgxIface, error) {
	if pool == nil {
		return nil, ErrNotConnected
	}
	return pool, nil
}

func Connect(ctx context.Context, url string) error {
	myPool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		log.Error().Stack().Err(err).Msg("could not connect to pool")
		return err
	}
	if err = myPool.Ping(ctx); err != nil {
		log.Error().Stack().Err(err).Msg("could not ping database server")
		return err
	}
	SetPool(myPool)
	return nil
}
