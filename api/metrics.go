package api

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/papercomputeco/chatdeck/pkg/utils"
)

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// newMetrics registers the request metrics on reg. A nil registry disables
// them.
func newMetrics(reg *prometheus.Registry) *metrics {
	if reg == nil {
		return nil
	}

	return &metrics{
		requests: utils.RegisterCollector(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatdeck",
			Subsystem: "web",
			Name:      "requests_total",
			Help:      "Dashboard web requests by route and status code.",
		}, []string{"route", "code"})),
		duration: utils.RegisterCollector(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chatdeck",
			Subsystem: "web",
			Name:      "request_duration_seconds",
			Help:      "Dashboard web request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"})),
	}
}

// instrument records every request against its matched route.
func (s *Server) instrument(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	if s.metrics == nil {
		return err
	}

	route := c.Route().Path
	code := c.Response().StatusCode()
	if err != nil {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
		} else {
			code = fiber.StatusInternalServerError
		}
	}

	s.metrics.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	s.metrics.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	return err
}
