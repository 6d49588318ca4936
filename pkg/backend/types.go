package backend

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// DateLayout is the wire format of the start_date and end_date parameters.
const DateLayout = "2006-01-02"

// Session is one row of the session listing.
type Session struct {
	SessionID    string    `json:"session_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
	MessageCount int       `json:"message_count"`
	Preview      string    `json:"preview,omitempty"`
}

// ChatMessage is a single turn in a session's chat history.
type ChatMessage struct {
	ID             string    `json:"id,omitempty"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
	AgentMessageID string    `json:"agent_message_id,omitempty"`
	Feedback       string    `json:"feedback,omitempty"`
}

// ChatHistory is the full transcript of one session.
type ChatHistory struct {
	SessionID string        `json:"session_id"`
	Messages  []ChatMessage `json:"messages"`
}

// FeedbackStats counts likes and dislikes.
type FeedbackStats struct {
	Likes    int `json:"likes"`
	Dislikes int `json:"dislikes"`
}

// HubSpotStats counts sessions per HubSpot interaction state.
type HubSpotStats struct {
	Rendered int `json:"rendered"`
	Filled   int `json:"filled"`
	None     int `json:"none"`
}

// DailyStat is one day of the analytics time series.
type DailyStat struct {
	Date     string `json:"date"`
	Sessions int    `json:"sessions"`
	Messages int    `json:"messages"`
	Likes    int    `json:"likes"`
	Dislikes int    `json:"dislikes"`
}

// AnalyticsReport is the aggregation returned by the analytics endpoint.
type AnalyticsReport struct {
	StartDate             string        `json:"start_date,omitempty"`
	EndDate               string        `json:"end_date,omitempty"`
	TotalSessions         int           `json:"total_sessions"`
	TotalMessages         int           `json:"total_messages"`
	AvgMessagesPerSession float64       `json:"avg_messages_per_session"`
	Feedback              FeedbackStats `json:"feedback"`
	HubSpot               HubSpotStats  `json:"hubspot"`
	Daily                 []DailyStat   `json:"daily"`
}

// HubSpotSession is the HubSpot interaction state of one session.
type HubSpotSession struct {
	SessionID   string      `json:"session_id"`
	Interaction Interaction `json:"interaction"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// HubSpotPage is one page of the HubSpot interaction listing.
type HubSpotPage struct {
	Sessions []HubSpotSession `json:"sessions"`
	Total    int              `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// HasMore reports whether another page follows this one.
func (p *HubSpotPage) HasMore() bool {
	return p.Offset+len(p.Sessions) < p.Total
}

// DateRange bounds analytics queries. Zero times are omitted from the query.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Validate rejects ranges whose end precedes their start.
func (r DateRange) Validate() error {
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return fmt.Errorf("%w: end %s is before start %s",
			ErrInvalidDateRange, r.End.Format(DateLayout), r.Start.Format(DateLayout))
	}
	return nil
}

func (r DateRange) apply(q url.Values) {
	if !r.Start.IsZero() {
		q.Set("start_date", r.Start.Format(DateLayout))
	}
	if !r.End.IsZero() {
		q.Set("end_date", r.End.Format(DateLayout))
	}
}

// Page selects a window of a paginated listing.
type Page struct {
	Limit  int
	Offset int
}

// Validate rejects non-positive limits and negative offsets.
func (p Page) Validate() error {
	if p.Limit <= 0 || p.Offset < 0 {
		return fmt.Errorf("%w: limit=%d offset=%d", ErrInvalidPage, p.Limit, p.Offset)
	}
	return nil
}

func (p Page) apply(q url.Values) {
	q.Set("limit", strconv.Itoa(p.Limit))
	q.Set("offset", strconv.Itoa(p.Offset))
}

// Next returns the page after p.
func (p Page) Next() Page {
	return Page{Limit: p.Limit, Offset: p.Offset + p.Limit}
}

// ChatRequest is the body of the chat-send endpoint.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatResult is the decoded reply to a ChatRequest.
type ChatResult struct {
	// Text is the concatenation of every chunk handed to the sink.
	Text string

	// AgentMessageID correlates feedback with this reply. Empty if absent.
	AgentMessageID string

	// Streamed is false when the backend answered with one JSON document.
	Streamed bool
}

// FeedbackValue is a thumbs up or down on an agent reply.
type FeedbackValue string

const (
	FeedbackLike    FeedbackValue = "like"
	FeedbackDislike FeedbackValue = "dislike"
)

// ParseFeedbackValue validates a user supplied feedback value.
func ParseFeedbackValue(s string) (FeedbackValue, error) {
	switch v := FeedbackValue(s); v {
	case FeedbackLike, FeedbackDislike:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q (expected like or dislike)", ErrInvalidFeedback, s)
	}
}

// Feedback is the body of the feedback-submission endpoint.
type Feedback struct {
	SessionID      string        `json:"session_id,omitempty"`
	AgentMessageID string        `json:"agent_message_id"`
	Feedback       FeedbackValue `json:"feedback"`
}

// Interaction is the tri-state HubSpot form signal for a session.
type Interaction string

const (
	InteractionRendered Interaction = "rendered"
	InteractionFilled   Interaction = "filled"
	InteractionNone     Interaction = "none"
)

// Interactions lists every valid Interaction in display order.
var Interactions = []Interaction{InteractionRendered, InteractionFilled, InteractionNone}

// ParseInteraction validates a user supplied interaction value.
func ParseInteraction(s string) (Interaction, error) {
	switch v := Interaction(s); v {
	case InteractionRendered, InteractionFilled, InteractionNone:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q (expected rendered, filled or none)", ErrInvalidInteraction, s)
	}
}

// HubSpotReport is the body of the HubSpot-interaction-report endpoint.
type HubSpotReport struct {
	SessionID   string      `json:"session_id"`
	Interaction Interaction `json:"interaction"`
}
