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
	"time"

	"github.com/gofiber/fiber/v2"
)

type AssetsResponse struct {
	Assets   []string  `json:"assets"`
	Horizons []string  `json:"horizons"`
	LoadedAt time.Time `json:"loadedAt"`
}

// ListAssets returns every asset with history and the configured horizons
func (api *API) ListAssets(c *fiber.Ctx) error {
	returns, err := api.Source.Returns()
	if err != nil {
		return sendError(c, err)
	}

	assets := make([]string, len(returns.ColNames))
	copy(assets, returns.ColNames)

	return c.JSON(AssetsResponse{
		Assets:   assets,
		Horizons: api.Config.HorizonLabels(),
		LoadedAt: api.Source.LoadedAt(),
	})
}
