package backend

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDateRange   = errors.New("invalid date range")
	ErrInvalidPage        = errors.New("invalid page")
	ErrInvalidFeedback    = errors.New("invalid feedback")
	ErrInvalidInteraction = errors.New("invalid interaction")
	ErrMissingSessionID   = errors.New("missing session id")
	ErrEmptyMessage       = errors.New("empty message")
)

// Endpoint names a backend endpoint. It is carried by every RequestError so
// callers can tell the user what failed without exposing transport details.
type Endpoint string

const (
	EndpointSessions           Endpoint = "sessions"
	EndpointChatHistory        Endpoint = "chat-history"
	EndpointAnalytics          Endpoint = "analytics"
	EndpointHubSpotSessions    Endpoint = "hubspot-interactions"
	EndpointChat               Endpoint = "chat"
	EndpointFeedback           Endpoint = "feedback"
	EndpointHubSpotInteraction Endpoint = "hubspot-interaction"
)

var userMessages = map[Endpoint]string{
	EndpointSessions:           "Failed to load sessions",
	EndpointChatHistory:        "Failed to load chat history",
	EndpointAnalytics:          "Failed to load analytics",
	EndpointHubSpotSessions:    "Failed to load HubSpot sessions",
	EndpointChat:               "Failed to send message",
	EndpointFeedback:           "Failed to submit feedback",
	EndpointHubSpotInteraction: "Failed to report HubSpot interaction",
}

// RequestError is the uniform error returned by every Client call that
// reached for the network: transport failures, non-2xx statuses, undecodable
// bodies and stream read failures.
type RequestError struct {
	Endpoint Endpoint

	// StatusCode is the HTTP status, or zero when no response was received.
	StatusCode int

	Err error
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("request failed: %s", e.Endpoint)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// UserMessage maps an error to a short, user-facing sentence.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		if msg, ok := userMessages[reqErr.Endpoint]; ok {
			return msg
		}
		return "Request failed"
	}

	return "Something went wrong"
}

// Describe prefixes request errors with their user message so command output
// says what failed. Other errors are returned unchanged.
func Describe(err error) error {
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		return err
	}
	return fmt.Errorf("%s: %w", UserMessage(err), err)
}
