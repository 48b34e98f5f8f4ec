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

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"math"

	"github.com/goccy/go-json"
	"github.com/penny-vault/pv-audit/dataframe"
	"github.com/penny-vault/pv-audit/portfolio"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"
	"golang.org/x/sync/singleflight"
	"gonum.org/v1/gonum/mat"
)

var estimateGroup singleflight.Group

type estimateRecord struct {
	Universe   []string  `json:"universe"`
	Returns    []float64 `json:"returns"`
	Covariance []float64 `json:"covariance"`
}

// estimateKey fingerprints the history of every asset in universe
func estimateKey(universe portfolio.Universe, returns *dataframe.DataFrame) string {
	hasher := blake3.New()
	buf := make([]byte, 8)

	for _, ticker := range universe {
		_, _ = hasher.Write([]byte(ticker))
		_, _ = hasher.Write([]byte{0})
	}

	for _, dt := range returns.Dates {
		binary.LittleEndian.PutUint64(buf, uint64(dt.Unix()))
		_, _ = hasher.Write(buf)
	}

	for _, ticker := range universe {
		idx := returns.ColIndex(ticker)
		if idx == -1 {
			continue
		}
		for _, val := range returns.Vals[idx] {
			binary.LittleEndian.PutUint64(buf, math.Float64bits(val))
			_, _ = hasher.Write(buf)
		}
	}

	return "estimate:" + hex.EncodeToString(hasher.Sum(nil)[:16])
}

func encodeEstimate(est *portfolio.Estimate) ([]byte, error) {
	n := est.NumAssets()
	cov := make([]float64, 0, n*n)
	for ii := 0; ii < n; ii++ {
		for jj := 0; jj < n; jj++ {
			cov = append(cov, est.Covariance.At(ii, jj))
		}
	}

	return json.Marshal(estimateRecord{
		Universe:   est.Universe,
		Returns:    est.Returns,
		Covariance: cov,
	})
}

func decodeEstimate(b []byte, universe portfolio.Universe) (*portfolio.Estimate, bool) {
	var rec estimateRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		log.Warn().Err(err).Msg("could not decode cached estimate")
		return nil, false
	}

	n := len(universe)
	if len(rec.Universe) != n || len(rec.Returns) != n || len(rec.Covariance) != n*n {
		return nil, false
	}
	for idx := range universe {
		if rec.Universe[idx] != universe[idx] {
			return nil, false
		}
	}

	return &portfolio.Estimate{
		Universe:   universe,
		Returns:    rec.Returns,
		Covariance: mat.NewSymDense(n, rec.Covariance),
	}, true
}

// estimate computes the annualized estimate for universe, consulting cache when set.
// Concurrent requests for the same fingerprint share one computation.
func estimate(ctx context.Context, universe portfolio.Universe, returns *dataframe.DataFrame, cache EstimateCache) (*portfolio.Estimate, error) {
	if cache == nil {
		return portfolio.NewEstimate(returns, universe)
	}

	key := estimateKey(universe, returns)
	subLog := log.With().Str("Key", key).Int("NumAssets", universe.Len()).Logger()

	if b, ok := cache.Get(ctx, key); ok {
		if est, ok := decodeEstimate(b, universe); ok {
			subLog.Debug().Msg("using cached estimate")
			return est, nil
		}
	}

	val, err, _ := estimateGroup.Do(key, func() (interface{}, error) {
		est, err := portfolio.NewEstimate(returns, universe)
		if err != nil {
			return nil, err
		}

		b, err := encodeEstimate(est)
		if err != nil {
			subLog.Warn().Err(err).Msg("could not encode estimate")
			return est, nil
		}

		if err := cache.Set(ctx, key, b); err != nil {
			subLog.Warn().Err(err).Msg("could not cache estimate")
		}
		return est, nil
	})
	if err != nil {
		return nil, err
	}

	return val.(*portfolio.Estimate), nil
}
