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

package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/penny-vault/pv-audit/handler"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes setup router api
func SetupRoutes(app *fiber.App, api *handler.API) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/v1")
	v1.Get("/ping", handler.Ping)
	v1.Get("/assets", api.ListAssets)

	// Audit
	auditGroup := v1.Group("/audit")
	auditGroup.Post("/", api.Audit)
	auditGroup.Post("/upload", api.UploadAudit)

	v1.Post("/optimize", api.Optimize)
}
