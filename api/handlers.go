package api

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/chatdeck/pkg/analytics"
	"github.com/papercomputeco/chatdeck/pkg/backend"
)

const defaultPageSize = 20

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleOverview returns the joined analytics report and session list.
// Query parameters: from, to, days, sort, search.
func (s *Server) handleOverview(c *fiber.Ctx) error {
	filters, err := s.filtersFrom(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	overview, err := s.query.Overview(c.Context(), filters)
	if err != nil {
		return s.queryError(c, err)
	}

	return c.JSON(overview)
}

// handleSession returns the cleaned transcript of one session.
func (s *Server) handleSession(c *fiber.Ctx) error {
	sessionID := strings.TrimSpace(c.Params("id"))
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "session id parameter required"})
	}

	history, err := s.query.SessionHistory(c.Context(), sessionID)
	if err != nil {
		return s.queryError(c, err)
	}

	return c.JSON(history)
}

// handleHubSpot returns one page of HubSpot interactions.
// Query parameters: from, to, days, interaction, limit, offset.
func (s *Server) handleHubSpot(c *fiber.Ctx) error {
	filters, err := s.filtersFrom(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	page, err := s.pageFrom(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	view, err := s.query.HubSpot(c.Context(), filters, page)
	if err != nil {
		return s.queryError(c, err)
	}

	return c.JSON(view)
}

// handleIndex serves the dashboard page for client-side routing.
func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.Send(indexHTML)
}

// filtersFrom overlays request parameters onto the configured defaults.
func (s *Server) filtersFrom(c *fiber.Ctx) (analytics.Filters, error) {
	filters := s.config.Defaults

	from, to := strings.TrimSpace(c.Query("from")), strings.TrimSpace(c.Query("to"))
	days := s.config.Days
	if value := strings.TrimSpace(c.Query("days")); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			return filters, errors.New("days must be a positive integer")
		}
		days = parsed
	}
	explicit := from != "" || to != "" || c.Query("days") != ""
	// Without a fixed range the window slides with the clock.
	sliding := filters.Dates == (backend.DateRange{}) && s.config.Days > 0
	if explicit || sliding {
		dates, err := analytics.ParseDateRange(from, to, max(days, 1), s.now())
		if err != nil {
			return filters, err
		}
		filters.Dates = dates
	}

	if value := strings.TrimSpace(c.Query("sort")); value != "" {
		sortKey, err := analytics.ParseSort(strings.ToLower(value))
		if err != nil {
			return filters, err
		}
		filters.Sort = sortKey
	}

	if value, ok := c.Queries()["search"]; ok {
		filters.Search = value
	}

	if value, ok := c.Queries()["interaction"]; ok {
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "" || value == "all" {
			filters.Interaction = ""
		} else {
			interaction, err := backend.ParseInteraction(value)
			if err != nil {
				return filters, err
			}
			filters.Interaction = interaction
		}
	}

	return filters, nil
}

func (s *Server) pageFrom(c *fiber.Ctx) (backend.Page, error) {
	page := backend.Page{Limit: s.config.PageSize}
	if page.Limit <= 0 {
		page.Limit = defaultPageSize
	}

	if value := c.Query("limit"); value != "" {
		limit, err := strconv.Atoi(value)
		if err != nil {
			return page, errors.New("limit must be an integer")
		}
		page.Limit = limit
	}
	if value := c.Query("offset"); value != "" {
		offset, err := strconv.Atoi(value)
		if err != nil {
			return page, errors.New("offset must be an integer")
		}
		page.Offset = offset
	}

	return page, page.Validate()
}

// queryError maps a query failure to a status code. Backend failures are
// reported by their user message only.
func (s *Server) queryError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, backend.ErrInvalidDateRange),
		errors.Is(err, backend.ErrInvalidPage),
		errors.Is(err, backend.ErrInvalidInteraction),
		errors.Is(err, backend.ErrMissingSessionID):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	var reqErr *backend.RequestError
	if errors.As(err, &reqErr) {
		s.logger.Warn("backend request failed",
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		status := fiber.StatusBadGateway
		if reqErr.StatusCode == fiber.StatusNotFound {
			status = fiber.StatusNotFound
		}
		return c.Status(status).JSON(ErrorResponse{Error: backend.UserMessage(err)})
	}

	s.logger.Error("dashboard query failed", zap.String("path", c.Path()), zap.Error(err))
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "internal error"})
}
