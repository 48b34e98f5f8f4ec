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

// Package metrics registers the prometheus collectors exported on /metrics
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pvaudit"

var (
	SimulationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "simulation",
		Name:      "samples_total",
		Help:      "Number of random allocations evaluated",
	})

	SimulationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "simulation",
		Name:      "duration_seconds",
		Help:      "Time spent simulating a population",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"sampler"})

	DegenerateSamples = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "simulation",
		Name:      "degenerate_samples_total",
		Help:      "Number of allocations with zero volatility",
	})

	AuditsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "audit",
		Name:      "requests_total",
		Help:      "Number of audit and optimize requests by kind and outcome",
	}, []string{"kind", "outcome"})

	DroppedAssets = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "audit",
		Name:      "dropped_assets_total",
		Help:      "Number of submitted assets ignored because they lack history",
	})

	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "cache",
		Name:      "requests_total",
		Help:      "Estimate cache lookups by tier and result",
	}, []string{"tier", "result"})

	HistoryAssets = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "history",
		Name:      "assets",
		Help:      "Number of assets in the loaded return history",
	})

	HistoryRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "history",
		Name:      "refreshes_total",
		Help:      "Return history reloads by outcome",
	}, []string{"outcome"})
)
