package analytics

import (
	"time"

	"github.com/papercomputeco/chatdeck/pkg/backend"
)

const (
	SortRecent   = "recent"
	SortOldest   = "oldest"
	SortMessages = "messages"
)

// SortKeys lists the session orderings in the order the dashboard cycles them.
var SortKeys = []string{SortRecent, SortOldest, SortMessages}

// Filters narrows the dashboard view.
type Filters struct {
	Dates backend.DateRange

	// Sort is one of SortKeys; empty means SortRecent.
	Sort string

	// Search matches session ids and previews, case-insensitively.
	Search string

	// Interaction restricts HubSpot listings; empty means every state.
	Interaction backend.Interaction
}

// Stats are the rates derived from an analytics report.
type Stats struct {
	LikeRate         float64 `json:"like_rate"`
	DislikeRate      float64 `json:"dislike_rate"`
	FeedbackTotal    int     `json:"feedback_total"`
	FeedbackCoverage float64 `json:"feedback_coverage"`
	HubSpotTotal     int     `json:"hubspot_total"`
	HubSpotFillRate  float64 `json:"hubspot_fill_rate"`
	AvgMessages      float64 `json:"avg_messages"`

	// PeakDay is the daily entry with the most sessions, if any.
	PeakDay *backend.DailyStat `json:"peak_day,omitempty"`

	// MaxDailySessions scales the activity bars.
	MaxDailySessions int `json:"max_daily_sessions"`
}

// Overview is everything the dashboard's main view shows.
type Overview struct {
	Start    string                  `json:"start_date"`
	End      string                  `json:"end_date"`
	Report   backend.AnalyticsReport `json:"report"`
	Stats    Stats                   `json:"stats"`
	Sessions []backend.Session       `json:"sessions"`

	// TotalSessions counts the listing before search filtering.
	TotalSessions int       `json:"total_sessions"`
	LoadedAt      time.Time `json:"loaded_at"`
}

// Message is one cleaned turn of a chat transcript.
type Message struct {
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
	AgentMessageID string    `json:"agent_message_id,omitempty"`
	Feedback       string    `json:"feedback,omitempty"`
}

// History is a session transcript prepared for display.
type History struct {
	SessionID  string        `json:"session_id"`
	Messages   []Message     `json:"messages"`
	UserTurns  int           `json:"user_turns"`
	AgentTurns int           `json:"agent_turns"`
	Likes      int           `json:"likes"`
	Dislikes   int           `json:"dislikes"`
	Started    time.Time     `json:"started"`
	Duration   time.Duration `json:"duration_ns"`
}

// HubSpotView is one page of HubSpot interactions with per-state counts of
// the rows on that page.
type HubSpotView struct {
	Page   backend.HubSpotPage         `json:"page"`
	Counts map[backend.Interaction]int `json:"counts"`

	// Fetched is the number of rows the backend returned before narrowing.
	Fetched int  `json:"fetched"`
	HasMore bool `json:"has_more"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
