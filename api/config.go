// Package api provides the HTTP server behind the dashboard's web mode. It
// serves the dashboard view model as JSON, a static index page and the
// process metrics.
package api

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/papercomputeco/chatdeck/pkg/analytics"
)

// Config is the API server configuration.
type Config struct {
	// Defaults are the filters applied when a request does not override them.
	Defaults analytics.Filters

	// Days is the look-back window for requests that give only one bound.
	Days int

	// PageSize is the HubSpot page size when a request omits limit.
	PageSize int

	// Registry collects the server's request metrics and backs /metrics.
	// Nil disables both.
	Registry *prometheus.Registry
}
