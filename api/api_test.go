package api

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/papercomputeco/chatdeck/pkg/analytics"
	"github.com/papercomputeco/chatdeck/pkg/backend"
	"github.com/papercomputeco/chatdeck/pkg/logger"
	testutils "github.com/papercomputeco/chatdeck/pkg/utils/test"
)

var _ = Describe("Server", func() {
	var (
		mock     *testutils.MockBackend
		registry *prometheus.Registry
		server   *Server
		now      time.Time
	)

	get := func(path string) (*http.Response, []byte) {
		req, err := http.NewRequest(http.MethodGet, path, nil)
		Expect(err).NotTo(HaveOccurred())
		resp, err := server.app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		return resp, body
	}

	errorOf := func(body []byte) string {
		var result ErrorResponse
		Expect(json.Unmarshal(body, &result)).To(Succeed())
		return result.Error
	}

	BeforeEach(func() {
		now = time.Date(2026, 10, 17, 12, 0, 0, 0, time.Local)
		mock = testutils.NewMockBackend()
		mock.Sessions = []backend.Session{
			{SessionID: "alpha", CreatedAt: now.Add(-3 * time.Hour), LastActivity: now.Add(-2 * time.Hour), MessageCount: 6, Preview: "pricing"},
			{SessionID: "bravo", CreatedAt: now.Add(-time.Hour), LastActivity: now.Add(-time.Hour), MessageCount: 2, Preview: "refund"},
		}
		mock.Report = &backend.AnalyticsReport{
			TotalSessions: 2,
			TotalMessages: 8,
			Feedback:      backend.FeedbackStats{Likes: 1, Dislikes: 1},
		}
		registry = prometheus.NewRegistry()

		server = NewServer(Config{
			Defaults: analytics.Filters{Sort: analytics.SortRecent},
			Days:     7,
			PageSize: 2,
			Registry: registry,
		}, analytics.NewQuery(mock), logger.Nop())
		server.now = func() time.Time { return now }
	})

	It("answers pings", func() {
		resp, body := get("/ping")
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		Expect(string(body)).To(Equal(`"pong"`))
	})

	Describe("GET /api/overview", func() {
		It("returns the overview with default filters", func() {
			resp, body := get("/api/overview")
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var overview analytics.Overview
			Expect(json.Unmarshal(body, &overview)).To(Succeed())
			Expect(overview.Report.TotalMessages).To(Equal(8))
			Expect(overview.Stats.LikeRate).To(BeNumerically("~", 0.5))
			Expect(overview.Sessions[0].SessionID).To(Equal("bravo"))
			Expect(mock.LastDates.Start.Format(backend.DateLayout)).To(Equal("2026-10-11"))
		})

		It("applies sort, search and dates from the query", func() {
			resp, body := get("/api/overview?sort=messages&search=PRICING&from=2026-10-10&to=2026-10-17")
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var overview analytics.Overview
			Expect(json.Unmarshal(body, &overview)).To(Succeed())
			Expect(overview.Sessions).To(HaveLen(1))
			Expect(overview.Sessions[0].SessionID).To(Equal("alpha"))
			Expect(overview.Start).To(Equal("2026-10-10"))
			Expect(mock.LastDates.End.Format(backend.DateLayout)).To(Equal("2026-10-17"))
		})

		It("derives the range from days", func() {
			resp, _ := get("/api/overview?days=3")
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(mock.LastDates.Start.Format(backend.DateLayout)).To(Equal("2026-10-15"))
		})

		It("rejects bad parameters", func() {
			resp, body := get("/api/overview?sort=cost")
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
			Expect(errorOf(body)).To(ContainSubstring("invalid sort"))

			resp, _ = get("/api/overview?days=-1")
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))

			resp, _ = get("/api/overview?from=2026-10-12&to=2026-10-01")
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("maps backend failures to a bad gateway with the user message", func() {
			mock.Err = &backend.RequestError{Endpoint: backend.EndpointAnalytics, StatusCode: 500, Err: errors.New("upstream detail")}
			resp, body := get("/api/overview")
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadGateway))
			Expect(errorOf(body)).To(Equal("Failed to load analytics"))
		})

		It("hides unexpected errors", func() {
			mock.Err = errors.New("boom")
			resp, body := get("/api/overview")
			Expect(resp.StatusCode).To(Equal(fiber.StatusInternalServerError))
			Expect(errorOf(body)).To(Equal("internal error"))
		})
	})

	Describe("GET /api/session/:id", func() {
		It("returns the cleaned transcript", func() {
			mock.Histories["alpha"] = &backend.ChatHistory{
				SessionID: "alpha",
				Messages:  []backend.ChatMessage{{Role: "user", Content: `"hi\nthere"`}},
			}

			resp, body := get("/api/session/alpha")
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var history analytics.History
			Expect(json.Unmarshal(body, &history)).To(Succeed())
			Expect(history.Messages[0].Content).To(Equal("hi\nthere"))
		})

		It("passes through a backend not found", func() {
			mock.Err = &backend.RequestError{Endpoint: backend.EndpointChatHistory, StatusCode: 404}
			resp, body := get("/api/session/missing")
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
			Expect(errorOf(body)).To(Equal("Failed to load chat history"))
		})
	})

	Describe("GET /api/hubspot", func() {
		BeforeEach(func() {
			mock.HubSpot = &backend.HubSpotPage{
				Sessions: []backend.HubSpotSession{
					{SessionID: "alpha", Interaction: backend.InteractionFilled},
					{SessionID: "bravo", Interaction: backend.InteractionRendered},
				},
				Total: 5,
			}
		})

		It("uses the configured page size", func() {
			resp, body := get("/api/hubspot")
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(mock.LastPage).To(Equal(backend.Page{Limit: 2}))

			var view analytics.HubSpotView
			Expect(json.Unmarshal(body, &view)).To(Succeed())
			Expect(view.Counts[backend.InteractionFilled]).To(Equal(1))
			Expect(view.HasMore).To(BeTrue())
		})

		It("pages and narrows", func() {
			resp, body := get("/api/hubspot?limit=10&offset=2&interaction=filled")
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(mock.LastPage).To(Equal(backend.Page{Limit: 10, Offset: 2}))

			var view analytics.HubSpotView
			Expect(json.Unmarshal(body, &view)).To(Succeed())
			Expect(view.Page.Sessions).To(HaveLen(1))
		})

		It("treats interaction=all as no filter", func() {
			_, body := get("/api/hubspot?interaction=all")

			var view analytics.HubSpotView
			Expect(json.Unmarshal(body, &view)).To(Succeed())
			Expect(view.Page.Sessions).To(HaveLen(2))
		})

		It("rejects bad paging and interactions", func() {
			resp, _ := get("/api/hubspot?limit=0")
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))

			resp, _ = get("/api/hubspot?offset=x")
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))

			resp, _ = get("/api/hubspot?interaction=clicked")
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})
	})

	It("serves the index for client-side routes", func() {
		for _, path := range []string{"/", "/session/alpha"} {
			resp, body := get(path)
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(ContainSubstring("text/html"))
			Expect(string(body)).To(ContainSubstring("<title>chatdeck</title>"))
		}
	})

	It("exposes request metrics", func() {
		get("/ping")
		resp, body := get("/metrics")
		Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		Expect(string(body)).To(ContainSubstring(`chatdeck_web_requests_total{code="200",route="/ping"} 1`))
	})

	Context("without a registry", func() {
		BeforeEach(func() {
			server = NewServer(Config{}, analytics.NewQuery(mock), logger.Nop())
		})

		It("serves requests without recording metrics", func() {
			Expect(server.metrics).To(BeNil())
			resp, body := get("/ping")
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(string(body)).To(Equal(`"pong"`))
		})

		It("omits /metrics", func() {
			resp, _ := get("/metrics")
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})
	})

	It("serves on a listener bound by the caller", func() {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		Expect(err).NotTo(HaveOccurred())

		served := make(chan error, 1)
		go func() {
			served <- server.Serve(listener)
		}()
		DeferCleanup(func() {
			Expect(server.Shutdown()).To(Succeed())
			Eventually(served).Should(Receive())
		})

		Eventually(func() (int, error) {
			resp, err := http.Get("http://" + listener.Addr().String() + "/ping")
			if err != nil {
				return 0, err
			}
			defer resp.Body.Close()
			return resp.StatusCode, nil
		}).Should(Equal(fiber.StatusOK))
	})

	It("shares request metrics between servers on one registry", func() {
		other := NewServer(Config{Registry: registry}, analytics.NewQuery(mock), logger.Nop())
		Expect(other.metrics.requests).To(BeIdenticalTo(server.metrics.requests))
	})
})
