package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/chatdeck/pkg/sse"
)

// ListSessions fetches every chat session. The backend answers either with a
// bare array or with {"sessions": [...]}; both are accepted.
func (c *Client) ListSessions(ctx context.Context) ([]Session, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, EndpointSessions, "/sessions", nil, &raw); err != nil {
		return nil, err
	}

	sessions, err := decodeSessions(raw)
	if err != nil {
		return nil, &RequestError{Endpoint: EndpointSessions, StatusCode: http.StatusOK, Err: err}
	}

	return sessions, nil
}

func decodeSessions(raw json.RawMessage) ([]Session, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []Session{}, nil
	}

	if trimmed[0] == '[' {
		var sessions []Session
		if err := json.Unmarshal(trimmed, &sessions); err != nil {
			return nil, fmt.Errorf("decoding sessions: %w", err)
		}
		return sessions, nil
	}

	var wrapped struct {
		Sessions []Session `json:"sessions"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("decoding sessions: %w", err)
	}
	if wrapped.Sessions == nil {
		return []Session{}, nil
	}
	return wrapped.Sessions, nil
}

// ChatHistory fetches the transcript of one session.
func (c *Client) ChatHistory(ctx context.Context, sessionID string) (*ChatHistory, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrMissingSessionID
	}

	history := &ChatHistory{}
	path := "/chat-history/" + url.PathEscape(sessionID)
	if err := c.getJSON(ctx, EndpointChatHistory, path, nil, history); err != nil {
		return nil, err
	}

	if history.SessionID == "" {
		history.SessionID = sessionID
	}
	if history.Messages == nil {
		history.Messages = []ChatMessage{}
	}

	return history, nil
}

// Analytics fetches the aggregated report for dates.
func (c *Client) Analytics(ctx context.Context, dates DateRange) (*AnalyticsReport, error) {
	if err := dates.Validate(); err != nil {
		return nil, err
	}

	query := url.Values{}
	dates.apply(query)

	report := &AnalyticsReport{}
	if err := c.getJSON(ctx, EndpointAnalytics, "/analytics", query, report); err != nil {
		return nil, err
	}

	return report, nil
}

// HubSpotSessions fetches one page of per-session HubSpot interaction state.
func (c *Client) HubSpotSessions(ctx context.Context, dates DateRange, page Page) (*HubSpotPage, error) {
	if err := dates.Validate(); err != nil {
		return nil, err
	}
	if err := page.Validate(); err != nil {
		return nil, err
	}

	query := url.Values{}
	dates.apply(query)
	page.apply(query)

	result := &HubSpotPage{}
	if err := c.getJSON(ctx, EndpointHubSpotSessions, "/hubspot-interactions", query, result); err != nil {
		return nil, err
	}

	// Older backends omit the echo of the paging parameters.
	if result.Limit == 0 {
		result.Limit = page.Limit
	}
	if result.Offset == 0 {
		result.Offset = page.Offset
	}
	if result.Sessions == nil {
		result.Sessions = []HubSpotSession{}
	}

	return result, nil
}

// SendChat posts a message and decodes the reply, handing each chunk to sink
// as it arrives. The reply is either a single JSON document or a stream;
// which one is decided from the response's Content-Type.
//
// The stream is bounded by ctx only: a long agent reply must not be cut off
// by the client timeout.
func (c *Client) SendChat(ctx context.Context, req ChatRequest, sink sse.Sink) (*ChatResult, error) {
	if strings.TrimSpace(req.SessionID) == "" {
		return nil, ErrMissingSessionID
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyMessage
	}

	resp, err := c.do(ctx, EndpointChat, http.MethodPost, "/chat", nil, req, "text/event-stream, application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var text strings.Builder
	decoded, err := sse.DecodeResponse(ctx, resp, func(chunk string) {
		text.WriteString(chunk)
		if sink != nil {
			sink(chunk)
		}
	})

	result := &ChatResult{
		Text:           text.String(),
		AgentMessageID: decoded.AgentMessageID,
		Streamed:       decoded.Streamed,
	}

	if err != nil {
		c.logger.Debug("chat stream aborted",
			zap.String("session_id", req.SessionID),
			zap.Int("received", text.Len()),
			zap.Error(err),
		)
		return result, &RequestError{Endpoint: EndpointChat, StatusCode: resp.StatusCode, Err: err}
	}

	c.logger.Debug("chat reply decoded",
		zap.String("session_id", req.SessionID),
		zap.Bool("streamed", result.Streamed),
		zap.String("agent_message_id", result.AgentMessageID),
	)

	return result, nil
}

// SubmitFeedback records a like or dislike for an agent reply.
func (c *Client) SubmitFeedback(ctx context.Context, feedback Feedback) error {
	if strings.TrimSpace(feedback.AgentMessageID) == "" {
		return fmt.Errorf("%w: missing agent message id", ErrInvalidFeedback)
	}
	if _, err := ParseFeedbackValue(string(feedback.Feedback)); err != nil {
		return err
	}

	return c.postJSON(ctx, EndpointFeedback, "/feedback", feedback)
}

// ReportHubSpot records the HubSpot form interaction state of a session.
func (c *Client) ReportHubSpot(ctx context.Context, report HubSpotReport) error {
	if strings.TrimSpace(report.SessionID) == "" {
		return ErrMissingSessionID
	}
	if _, err := ParseInteraction(string(report.Interaction)); err != nil {
		return err
	}

	return c.postJSON(ctx, EndpointHubSpotInteraction, "/hubspot-interaction", report)
}
