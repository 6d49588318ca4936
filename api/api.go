package api

import (
	"net"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/papercomputeco/chatdeck/pkg/analytics"
)

// Server is the dashboard web server.
type Server struct {
	config  Config
	query   analytics.Querier
	logger  *zap.Logger
	metrics *metrics
	app     *fiber.App
	now     func() time.Time
}

// NewServer creates a new dashboard server. The querier is injected so the
// TUI and the web mode can share one session cache.
func NewServer(config Config, query analytics.Querier, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:  config,
		query:   query,
		logger:  logger.Named("api"),
		metrics: newMetrics(config.Registry),
		app:     app,
		now:     time.Now,
	}

	app.Use(s.instrument)

	app.Get("/ping", s.handlePing)
	app.Get("/api/overview", s.handleOverview)
	app.Get("/api/session/:id", s.handleSession)
	app.Get("/api/hubspot", s.handleHubSpot)
	if config.Registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(config.Registry, promhttp.HandlerOpts{})))
	}
	app.Get("/", s.handleIndex)
	app.Get("/session/:id", s.handleIndex)

	return s
}

// Serve serves on an already bound listener.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("starting dashboard server",
		zap.String("listen", ln.Addr().String()),
	)
	return s.app.Listener(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
