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

package simulation

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	SamplerUniform   = "uniform"
	SamplerDirichlet = "dirichlet"
)

// Sampler draws one allocation on the probability simplex
type Sampler interface {
	// Draw overwrites w with non-negative weights that sum to 1
	Draw(rnd *rand.Rand, w []float64)
	Name() string
}

// Uniform draws each weight uniformly on [0, 1) and divides by the sum. The resulting
// points are NOT uniformly distributed over the simplex: mass is concentrated near
// the center, which shapes the approximated frontier accordingly.
type Uniform struct{}

func (Uniform) Name() string {
	return SamplerUniform
}

func (Uniform) Draw(rnd *rand.Rand, w []float64) {
	for idx := range w {
		w[idx] = rnd.Float64()
	}
	normalizeDraw(w)
}

// Dirichlet draws from a symmetric Dirichlet(Alpha, ..., Alpha) distribution by
// normalizing Gamma(Alpha, 1) variates. Alpha = 1 is uniform over the simplex.
type Dirichlet struct {
	Alpha float64
}

func (d Dirichlet) Name() string {
	return SamplerDirichlet
}

func (d Dirichlet) Draw(rnd *rand.Rand, w []float64) {
	if d.Alpha == 1 {
		for idx := range w {
			w[idx] = rnd.ExpFloat64()
		}
	} else {
		gamma := distuv.Gamma{Alpha: d.Alpha, Beta: 1, Src: rnd}
		for idx := range w {
			w[idx] = gamma.Rand()
		}
	}
	normalizeDraw(w)
}

// normalizeDraw scales w to sum to 1; an all-zero draw becomes equal weight
func normalizeDraw(w []float64) {
	total := floats.Sum(w)
	if total <= 0 {
		for idx := range w {
			w[idx] = 1 / float64(len(w))
		}
		return
	}
	floats.Scale(1/total, w)
}

// NewSampler returns the sampler registered under name
func NewSampler(name string, alpha float64) (Sampler, error) {
	switch strings.ToLower(name) {
	case SamplerUniform, "":
		return Uniform{}, nil
	case SamplerDirichlet:
		if alpha <= 0 {
			return nil, fmt.Errorf("%w: dirichlet alpha must be positive, got %g", ErrInvalidSampler, alpha)
		}
		return Dirichlet{Alpha: alpha}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidSampler, name)
	}
}
