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

package common

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru"
	"github.com/penny-vault/pv-audit/observability/metrics"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

var ErrCacheSize = errors.New("cache size must be positive")

// Cache is a two tier byte cache: an in-process LRU in front of an optional redis
// instance shared between servers. Values are lz4 compressed in both tiers.
type Cache struct {
	local *lru.Cache
	rdb   redis.Cmdable
	ttl   time.Duration
}

// NewCache creates a cache holding up to localSize entries locally; rdb may be nil
func NewCache(localSize int, rdb redis.Cmdable, ttl time.Duration) (*Cache, error) {
	if localSize <= 0 {
		return nil, ErrCacheSize
	}

	local, err := lru.New(localSize)
	if err != nil {
		return nil, err
	}

	return &Cache{
		local: local,
		rdb:   rdb,
		ttl:   ttl,
	}, nil
}

// SetupCache builds the cache from the cache.* configuration keys
func SetupCache() (*Cache, error) {
	var rdb redis.Cmdable
	if viper.GetBool("cache.redis") {
		opt, err := redis.ParseURL(viper.GetString("cache.redis_url"))
		if err != nil {
			log.Error().Err(err).Msg("could not parse redis URL")
			return nil, err
		}

		rdb = redis.NewClient(opt)
	}

	size := viper.GetInt("cache.local_size")
	if size <= 0 {
		size = 32
	}

	return NewCache(size, rdb, time.Duration(viper.GetInt("cache.ttl"))*time.Second)
}

func (c *Cache) Set(ctx context.Context, key string, val []byte) error {
	compressed, err := Compress(val)
	if err != nil {
		return err
	}
	c.local.Add(key, compressed)

	if c.rdb != nil {
		return c.rdb.Set(ctx, key, compressed, c.ttl).Err()
	}
	return nil
}

// Get returns the value stored under key. A value found in redis is promoted to the
// local tier.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if v, ok := c.local.Get(key); ok {
		val, err := Decompress(v.([]byte))
		if err == nil {
			metrics.CacheRequests.WithLabelValues("local", "hit").Inc()
			return val, true
		}
		log.Warn().Err(err).Str("Key", key).Msg("could not decompress cached value")
		c.local.Remove(key)
	}
	metrics.CacheRequests.WithLabelValues("local", "miss").Inc()

	if c.rdb == nil {
		return nil, false
	}

	compressed, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("Key", key).Msg("redis get failed")
		}
		metrics.CacheRequests.WithLabelValues("redis", "miss").Inc()
		return nil, false
	}

	val, err := Decompress(compressed)
	if err != nil {
		log.Warn().Err(err).Str("Key", key).Msg("could not decompress cached value")
		metrics.CacheRequests.WithLabelValues("redis", "miss").Inc()
		return nil, false
	}

	metrics.CacheRequests.WithLabelValues("redis", "hit").Inc()
	c.local.Add(key, compressed)
	return val, true
}

// Len returns the number of entries in the local tier
func (c *Cache) Len() int {
	return c.local.Len()
}
