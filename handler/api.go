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
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/penny-vault/pv-audit/audit"
	"github.com/penny-vault/pv-audit/data"
	"github.com/penny-vault/pv-audit/dataframe"
	"github.com/penny-vault/pv-audit/parser"
	"github.com/penny-vault/pv-audit/portfolio"
	"github.com/penny-vault/pv-audit/selection"
	"github.com/penny-vault/pv-audit/simulation"
	"github.com/rs/zerolog/log"
)

// ReturnsSource supplies the current history table
type ReturnsSource interface {
	Returns() (*dataframe.DataFrame, error)
	LoadedAt() time.Time
}

// API serves audits against the history held by Source
type API struct {
	Source ReturnsSource
	Config audit.Config
}

func New(source ReturnsSource, cfg audit.Config) *API {
	return &API{
		Source: source,
		Config: cfg,
	}
}

type PingResponse struct {
	Status  string `json:"status" example:"success"`
	Message string `json:"message" example:"API is alive"`
	Time    string `json:"time" example:"2021-06-19T08:09:10.115924-05:00"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func Ping(c *fiber.Ctx) error {
	var response PingResponse
	now, err := time.Now().MarshalText()
	if err != nil {
		log.Error().Err(err).Msg("error while getting time in ping")
		response = PingResponse{
			Status:  "error",
			Message: err.Error(),
			Time:    string(now),
		}
	} else {
		response = PingResponse{
			Status:  "success",
			Message: "API is alive",
			Time:    string(now),
		}
	}
	return c.JSON(response)
}

var badRequestErrors = []error{
	audit.ErrAssetCount,
	audit.ErrEmptyAllocation,
	audit.ErrSimulationCount,
	audit.ErrUnknownAsset,
	audit.ErrUnknownHorizon,
	parser.ErrEmptyFile,
	parser.ErrMalformedDelimited,
	parser.ErrMalformedWorkbook,
	parser.ErrMissingColumns,
	parser.ErrUnsupportedFormat,
	parser.ErrZeroTotal,
	portfolio.ErrInvalidWeight,
	portfolio.ErrNegativeWeight,
	portfolio.ErrZeroAllocation,
	selection.ErrUnknownPreference,
	simulation.ErrInvalidSampleCount,
}

// statusOf maps an error to the HTTP status reported to clients
func statusOf(err error) int {
	switch {
	case errors.Is(err, portfolio.ErrInsufficientUniverse):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, data.ErrNoHistory):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusServiceUnavailable
	}

	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return fiber.StatusBadRequest
		}
	}

	return fiber.StatusInternalServerError
}

func sendError(c *fiber.Ctx, err error) error {
	status := statusOf(err)
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("Path", c.Path()).Msg("request failed")
	}
	return c.Status(status).JSON(ErrorResponse{Error: err.Error()})
}
