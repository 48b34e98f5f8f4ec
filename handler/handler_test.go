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

package handler_test

import (
	"bytes"
	"io"
	"math/rand/v2"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-audit/audit"
	"github.com/penny-vault/pv-audit/data"
	"github.com/penny-vault/pv-audit/dataframe"
	"github.com/penny-vault/pv-audit/handler"
	"github.com/penny-vault/pv-audit/router"
)

type staticSource struct {
	df *dataframe.DataFrame
}

func (s staticSource) Returns() (*dataframe.DataFrame, error) {
	if s.df == nil {
		return nil, data.ErrNoHistory
	}
	return s.df, nil
}

func (s staticSource) LoadedAt() time.Time {
	return time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
}

func history() *dataframe.DataFrame {
	tickers := []string{"VTI", "BND", "GLD", "QQQ", "EFA", "TLT"}
	df, err := dataframe.New(tickers...)
	Expect(err).To(BeNil())

	rnd := rand.New(rand.NewPCG(7, 7))
	dt := time.Date(2023, time.January, 2, 0, 0, 0, 0, time.UTC)
	for day := 0; day < 90; day++ {
		vals := make([]float64, len(tickers))
		for idx := range vals {
			vals[idx] = 0.0003*float64(idx+1) + 0.004*float64(idx+1)*rnd.NormFloat64()
		}
		Expect(df.InsertRow(dt, vals...)).To(Succeed())
		dt = dt.AddDate(0, 0, 1)
	}
	return df
}

func newApp(source handler.ReturnsSource) *fiber.App {
	cfg := audit.DefaultConfig()
	cfg.Simulations = 1000
	cfg.OptimizeSimulations = 1000
	cfg.MinSimulations = 100
	cfg.MaxSimulations = 5000
	cfg.Seed = 3
	cfg.FrontierBins = 10

	app := fiber.New(fiber.Config{
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
	})
	router.SetupRoutes(app, handler.New(source, cfg))
	return app
}

func postJSON(app *fiber.App, path string, body interface{}) (*http.Response, map[string]interface{}) {
	b, err := json.Marshal(body)
	Expect(err).To(BeNil())

	req := httptest.NewRequest(fiber.MethodPost, path, bytes.NewReader(b))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return do(app, req)
}

func do(app *fiber.App, req *http.Request) (*http.Response, map[string]interface{}) {
	resp, err := app.Test(req, -1)
	Expect(err).To(BeNil())

	b, err := io.ReadAll(resp.Body)
	Expect(err).To(BeNil())

	decoded := make(map[string]interface{})
	if len(b) > 0 && b[0] == '{' {
		Expect(json.Unmarshal(b, &decoded)).To(Succeed())
	}
	return resp, decoded
}

var _ = Describe("API", func() {
	var (
		app *fiber.App
	)

	BeforeEach(func() {
		app = newApp(staticSource{df: history()})
	})

	It("answers ping", func() {
		resp, body := do(app, httptest.NewRequest(fiber.MethodGet, "/v1/ping", nil))
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		Expect(body["status"]).To(Equal("success"))
	})

	It("lists assets and horizons", func() {
		resp, body := do(app, httptest.NewRequest(fiber.MethodGet, "/v1/assets", nil))
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		Expect(body["assets"]).To(HaveLen(6))
		Expect(body["horizons"]).To(Equal([]interface{}{"1-3 years", "3-6 years", "6+ years"}))
	})

	It("exposes prometheus metrics", func() {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil), -1)
		Expect(err).To(BeNil())
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
	})

	Describe("POST /v1/audit", func() {
		It("audits an allocation", func() {
			resp, body := postJSON(app, "/v1/audit", map[string]interface{}{
				"allocation": []map[string]interface{}{
					{"ticker": "VTI", "weight": 0.6},
					{"ticker": "BND", "weight": 0.3},
					{"ticker": "ZZZ", "weight": 0.1},
				},
				"riskPreference": "low",
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(body["universe"]).To(Equal([]interface{}{"VTI", "BND"}))
			Expect(body["numSimulations"]).To(BeNumerically("==", 1000))
			Expect(body["riskPreference"]).To(Equal("Low"))
			Expect(body).To(HaveKey("frontier"))
			Expect(body).ToNot(HaveKey("population"))

			user := body["user"].(map[string]interface{})
			weights := user["weights"].(map[string]interface{})
			Expect(weights["VTI"]).To(BeNumerically("~", 2.0/3.0, 1e-9))
		})

		It("returns 422 when too few assets have history", func() {
			resp, body := postJSON(app, "/v1/audit", map[string]interface{}{
				"allocation": []map[string]interface{}{
					{"ticker": "VTI", "weight": 0.6},
					{"ticker": "ZZZ", "weight": 0.4},
				},
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusUnprocessableEntity))
			Expect(body["error"]).To(ContainSubstring("need at least 2 matching stocks, found 1"))
		})

		It("returns 400 for an unknown risk preference", func() {
			resp, _ := postJSON(app, "/v1/audit", map[string]interface{}{
				"allocation": []map[string]interface{}{
					{"ticker": "VTI", "weight": 0.6},
					{"ticker": "BND", "weight": 0.4},
				},
				"riskPreference": "reckless",
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("returns 400 when too many simulations are requested", func() {
			resp, _ := postJSON(app, "/v1/audit", map[string]interface{}{
				"allocation": []map[string]interface{}{
					{"ticker": "VTI", "weight": 0.6},
					{"ticker": "BND", "weight": 0.4},
				},
				"simulations": 1_000_000_000,
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("returns 503 before history is loaded", func() {
			app = newApp(staticSource{})
			resp, _ := postJSON(app, "/v1/audit", map[string]interface{}{
				"allocation": []map[string]interface{}{
					{"ticker": "VTI", "weight": 0.6},
					{"ticker": "BND", "weight": 0.4},
				},
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusServiceUnavailable))
		})
	})

	Describe("POST /v1/audit/upload", func() {
		It("audits an uploaded CSV", func() {
			buf := &bytes.Buffer{}
			w := multipart.NewWriter(buf)
			part, err := w.CreateFormFile("file", "portfolio.csv")
			Expect(err).To(BeNil())
			_, err = part.Write([]byte("Symbol,Percent\nVTI,50\nQQQ,30\nTLT,20\n"))
			Expect(err).To(BeNil())
			Expect(w.WriteField("riskPreference", "High")).To(Succeed())
			Expect(w.WriteField("includePopulation", "true")).To(Succeed())
			Expect(w.Close()).To(Succeed())

			req := httptest.NewRequest(fiber.MethodPost, "/v1/audit/upload", buf)
			req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())

			resp, body := do(app, req)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(body["universe"]).To(Equal([]interface{}{"VTI", "QQQ", "TLT"}))
			population := body["population"].(map[string]interface{})
			Expect(population["returns"]).To(HaveLen(1000))
		})

		It("rejects files with unrecognized headers", func() {
			buf := &bytes.Buffer{}
			w := multipart.NewWriter(buf)
			part, err := w.CreateFormFile("file", "portfolio.csv")
			Expect(err).To(BeNil())
			_, err = part.Write([]byte("Name,Quantity\nVTI,50\n"))
			Expect(err).To(BeNil())
			Expect(w.Close()).To(Succeed())

			req := httptest.NewRequest(fiber.MethodPost, "/v1/audit/upload", buf)
			req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())

			resp, _ := do(app, req)
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("requires a file", func() {
			buf := &bytes.Buffer{}
			w := multipart.NewWriter(buf)
			Expect(w.WriteField("riskPreference", "High")).To(Succeed())
			Expect(w.Close()).To(Succeed())

			req := httptest.NewRequest(fiber.MethodPost, "/v1/audit/upload", buf)
			req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())

			resp, _ := do(app, req)
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})
	})

	Describe("POST /v1/optimize", func() {
		It("optimizes over the selected assets", func() {
			resp, body := postJSON(app, "/v1/optimize", map[string]interface{}{
				"tickers":        []string{"VTI", "BND", "GLD", "QQQ", "EFA"},
				"horizon":        "6+ years",
				"riskPreference": "Medium",
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(body["assets"]).To(HaveLen(5))
			horizon := body["horizon"].(map[string]interface{})
			Expect(horizon["riskFreeRate"]).To(BeNumerically("~", 0.025, 1e-12))
		})

		It("falls back to the configured risk preference", func() {
			resp, body := postJSON(app, "/v1/optimize", map[string]interface{}{
				"tickers": []string{"VTI", "BND", "GLD", "QQQ", "EFA"},
				"horizon": "3-6 years",
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(body["riskPreference"]).To(Equal("High"))
		})

		It("returns 400 for an unknown horizon", func() {
			resp, body := postJSON(app, "/v1/optimize", map[string]interface{}{
				"tickers": []string{"VTI", "BND", "GLD", "QQQ", "EFA"},
				"horizon": "next week",
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
			Expect(body["error"]).To(ContainSubstring("unknown investment horizon"))
		})

		It("returns 400 for too few assets", func() {
			resp, _ := postJSON(app, "/v1/optimize", map[string]interface{}{
				"tickers": []string{"VTI", "BND"},
				"horizon": "1-3 years",
			})
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})
	})
})
