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
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/penny-vault/pv-audit/audit"
	"github.com/penny-vault/pv-audit/observability/opentelemetry"
	"github.com/penny-vault/pv-audit/parser"
	"github.com/penny-vault/pv-audit/portfolio"
	"github.com/penny-vault/pv-audit/selection"
	"go.opentelemetry.io/otel"
)

type AuditRequest struct {
	Allocation        []portfolio.Holding `json:"allocation"`
	RiskPreference    string              `json:"riskPreference"`
	RiskFreeRate      *float64            `json:"riskFreeRate"`
	Simulations       int                 `json:"simulations"`
	Seed              uint64              `json:"seed"`
	IncludePopulation bool                `json:"includePopulation"`
}

// Audit scores a JSON allocation against the optimal simulated allocation
func (api *API) Audit(c *fiber.Ctx) error {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(c.UserContext(), "handler.Audit")
	defer span.End()
	span.SetAttributes(opentelemetry.SpanAttributesFromFiber(c)...)
	c.SetUserContext(ctx)

	var body AuditRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: fmt.Sprintf("could not parse request: %v", err)})
	}

	return api.runAudit(c, body)
}

// UploadAudit parses an uploaded CSV or XLSX allocation and audits it. Options are read
// from the form fields riskPreference, riskFreeRate, simulations, seed and
// includePopulation.
func (api *API) UploadAudit(c *fiber.Ctx) error {
	ctx, span := otel.Tracer(opentelemetry.Name).Start(c.UserContext(), "handler.UploadAudit")
	defer span.End()
	span.SetAttributes(opentelemetry.SpanAttributesFromFiber(c)...)
	c.SetUserContext(ctx)

	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "multipart field 'file' is required"})
	}

	f, err := fh.Open()
	if err != nil {
		return sendError(c, err)
	}
	defer f.Close()

	holdings, err := parser.Parse(f, fh.Filename)
	if err != nil {
		return sendError(c, err)
	}

	body := AuditRequest{
		Allocation:        holdings,
		RiskPreference:    c.FormValue("riskPreference"),
		IncludePopulation: c.FormValue("includePopulation") == "true",
	}

	if val := c.FormValue("riskFreeRate"); val != "" {
		rf, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "riskFreeRate must be a number"})
		}
		body.RiskFreeRate = &rf
	}

	if val := c.FormValue("simulations"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "simulations must be an integer"})
		}
		body.Simulations = n
	}

	if val := c.FormValue("seed"); val != "" {
		seed, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "seed must be a non-negative integer"})
		}
		body.Seed = seed
	}

	return api.runAudit(c, body)
}

func (api *API) runAudit(c *fiber.Ctx, body AuditRequest) error {
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

	rf := api.Config.RiskFreeRate
	if body.RiskFreeRate != nil {
		rf = *body.RiskFreeRate
	}

	if body.Simulations > api.Config.MaxSimulations {
		return sendError(c, fmt.Errorf("%w: at most %d allowed, got %d", audit.ErrSimulationCount,
			api.Config.MaxSimulations, body.Simulations))
	}

	res, err := audit.Run(c.UserContext(), audit.Request{
		Allocation:     body.Allocation,
		Returns:        returns,
		RiskPreference: pref,
		RiskFreeRate:   rf,
		Simulations:    body.Simulations,
		Seed:           body.Seed,
	}, api.Config)
	if err != nil {
		return sendError(c, err)
	}

	return c.JSON(res.View(api.Config.FrontierBins, body.IncludePopulation))
}
