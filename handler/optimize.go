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

package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/penny-vault/pv-audit/audit"
	"github.com/penny-vault/pv-audit/observability/opentelemetry"
	"github.com/penny-vault/pv-audit/selection"
	"go.opentelemetry.io/otel"
)

type OptimizeRequest struct {
	Tickers           []string `json:"tickers"`
	Horizon           string   `json:"horizon"`
	RiskPreference    string   `json:"riskPreference"`
	Simulations       int      `json:"simulations"`
	Seed              uint64   `json:"seed"`
	IncludePopulation bool     `json:"includePopulation"`
}

// Optimize finds the optimal allocation over a hand-picked set of assets
func (api *API) Optimize(c *fiber.Ctx) error {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(c.UserContext(), "handler.Optimize")
	defer span.End()
	span.SetAttributes(opentelemetry.SpanAttributesFromFiber(c)...)

	var body OptimizeRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: fmt.Sprintf("could not parse request: %v", err)})
	}

	returns, err := api.Source.Returns()
	if err != nil {
		return sendError(c, err)
	}

	pref := api.Config.RiskPreference
	if body.RiskPreference != "" {
		pref, err = selection.ParsePreference(body.RiskPreference)
		if err != nil {
			return sendError(c, err)
		}
	}

	res, err := audit.Optimize(ctx, audit.OptimizeRequest{
		Tickers:        body.Tickers,
		Returns:        returns,
		Horizon:        body.Horizon,
		RiskPreference: pref,
		Simulations:    body.Simulations,
		Seed:           body.Seed,
	}, api.Config)
	if err != nil {
		return sendError(c, err)
	}

	return c.JSON(res.View(api.Config.FrontierBins, body.IncludePopulation))
}
