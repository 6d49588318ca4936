// Package analytics turns raw backend responses into the dashboard's view
// model: joined overviews, derived rates, cleaned transcripts.
package analytics

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/chatdeck/pkg/backend"
)

const sessionCacheTTL = 10 * time.Second

// Querier is an interface for querying dashboard data.
// This allows for mock implementations in testing and the web mode.
type Querier interface {
	Overview(ctx context.Context, filters Filters) (*Overview, error)
	SessionHistory(ctx context.Context, sessionID string) (*History, error)
	HubSpot(ctx context.Context, filters Filters, page backend.Page) (*HubSpotView, error)
}

type Query struct {
	backend backend.Backend
	cache   sessionCache
	now     func() time.Time
}

// Ensure Query implements Querier
var _ Querier = (*Query)(nil)

func NewQuery(b backend.Backend) *Query {
	return &Query{backend: b, now: time.Now}
}

type sessionCache struct {
	mu       sync.RWMutex
	sessions []backend.Session
	loadedAt time.Time
}

// Invalidate drops the cached session list so the next Overview refetches.
func (q *Query) Invalidate() {
	q.cache.mu.Lock()
	defer q.cache.mu.Unlock()
	q.cache.sessions = nil
	q.cache.loadedAt = time.Time{}
}

func (q *Query) loadSessions(ctx context.Context) ([]backend.Session, error) {
	if cached := q.cachedSessions(); cached != nil {
		return cached, nil
	}

	sessions, err := q.backend.ListSessions(ctx)
	if err != nil {
		return nil, err
	}

	q.storeSessions(sessions)
	return slices.Clone(sessions), nil
}

func (q *Query) cachedSessions() []backend.Session {
	q.cache.mu.RLock()
	defer q.cache.mu.RUnlock()

	if q.cache.sessions == nil {
		return nil
	}
	if q.now().Sub(q.cache.loadedAt) > sessionCacheTTL {
		return nil
	}

	return slices.Clone(q.cache.sessions)
}

func (q *Query) storeSessions(sessions []backend.Session) {
	q.cache.mu.Lock()
	defer q.cache.mu.Unlock()

	q.cache.sessions = slices.Clone(sessions)
	if q.cache.sessions == nil {
		q.cache.sessions = []backend.Session{}
	}
	q.cache.loadedAt = q.now()
}

// Overview fetches the analytics report and the session listing
// concurrently and joins them into one view.
func (q *Query) Overview(ctx context.Context, filters Filters) (*Overview, error) {
	if err := filters.Dates.Validate(); err != nil {
		return nil, err
	}

	var (
		report   *backend.AnalyticsReport
		sessions []backend.Session
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		report, err = q.backend.Analytics(groupCtx, filters.Dates)
		return err
	})
	group.Go(func() error {
		var err error
		sessions, err = q.loadSessions(groupCtx)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}
	if report == nil {
		report = &backend.AnalyticsReport{}
	}

	overview := &Overview{
		Report:        *report,
		Stats:         Summarize(report),
		TotalSessions: len(sessions),
		Sessions:      FilterSessions(sessions, filters),
		LoadedAt:      q.now(),
	}
	if !filters.Dates.Start.IsZero() {
		overview.Start = filters.Dates.Start.Format(backend.DateLayout)
	}
	if !filters.Dates.End.IsZero() {
		overview.End = filters.Dates.End.Format(backend.DateLayout)
	}

	return overview, nil
}

// FilterSessions returns the sessions matching filters' date range and
// search, ordered by filters.Sort. The input is not modified.
func FilterSessions(sessions []backend.Session, filters Filters) []backend.Session {
	kept := make([]backend.Session, 0, len(sessions))
	for _, session := range sessions {
		if !matchesFilters(session, filters) {
			continue
		}
		kept = append(kept, session)
	}

	SortSessions(kept, filters.Sort)
	return kept
}

// SessionHistory fetches a transcript and cleans it for display.
func (q *Query) SessionHistory(ctx context.Context, sessionID string) (*History, error) {
	raw, err := q.backend.ChatHistory(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return BuildHistory(raw), nil
}

// BuildHistory converts a backend transcript into a History.
func BuildHistory(raw *backend.ChatHistory) *History {
	history := &History{
		SessionID: raw.SessionID,
		Messages:  make([]Message, 0, len(raw.Messages)),
	}

	var first, last time.Time
	for _, msg := range raw.Messages {
		content := CleanMessage(msg.Content)
		if content == "" {
			continue
		}

		switch msg.Role {
		case RoleUser:
			history.UserTurns++
		default:
			history.AgentTurns++
		}

		switch backend.FeedbackValue(msg.Feedback) {
		case backend.FeedbackLike:
			history.Likes++
		case backend.FeedbackDislike:
			history.Dislikes++
		}

		if !msg.Timestamp.IsZero() {
			if first.IsZero() || msg.Timestamp.Before(first) {
				first = msg.Timestamp
			}
			if msg.Timestamp.After(last) {
				last = msg.Timestamp
			}
		}

		history.Messages = append(history.Messages, Message{
			Role:           msg.Role,
			Content:        content,
			Timestamp:      msg.Timestamp,
			AgentMessageID: msg.AgentMessageID,
			Feedback:       msg.Feedback,
		})
	}

	history.Started = first
	if !first.IsZero() {
		history.Duration = last.Sub(first)
	}

	return history
}

// HubSpot fetches one page of interactions, narrowed to filters.Interaction
// when set. Narrowing happens on the fetched page; Fetched and HasMore keep
// paging in backend terms.
func (q *Query) HubSpot(ctx context.Context, filters Filters, page backend.Page) (*HubSpotView, error) {
	if filters.Interaction != "" {
		if _, err := backend.ParseInteraction(string(filters.Interaction)); err != nil {
			return nil, err
		}
	}

	result, err := q.backend.HubSpotSessions(ctx, filters.Dates, page)
	if err != nil {
		return nil, err
	}

	view := &HubSpotView{
		Page:    *result,
		Counts:  make(map[backend.Interaction]int, len(backend.Interactions)),
		Fetched: len(result.Sessions),
		HasMore: result.HasMore(),
	}
	for _, interaction := range backend.Interactions {
		view.Counts[interaction] = 0
	}

	kept := make([]backend.HubSpotSession, 0, len(result.Sessions))
	for _, session := range result.Sessions {
		view.Counts[session.Interaction]++
		if filters.Interaction != "" && session.Interaction != filters.Interaction {
			continue
		}
		kept = append(kept, session)
	}
	view.Page.Sessions = kept

	return view, nil
}

// Summarize derives the dashboard's rates from a report. Every rate is zero
// when its denominator is.
func Summarize(report *backend.AnalyticsReport) Stats {
	if report == nil {
		return Stats{}
	}

	stats := Stats{
		FeedbackTotal: report.Feedback.Likes + report.Feedback.Dislikes,
		HubSpotTotal:  report.HubSpot.Rendered + report.HubSpot.Filled + report.HubSpot.None,
	}

	stats.LikeRate = safeDivide(float64(report.Feedback.Likes), float64(stats.FeedbackTotal))
	stats.DislikeRate = safeDivide(float64(report.Feedback.Dislikes), float64(stats.FeedbackTotal))
	stats.FeedbackCoverage = min(safeDivide(float64(stats.FeedbackTotal), float64(report.TotalMessages)), 1)

	// A filled form was rendered first, so both count as shown.
	shown := report.HubSpot.Rendered + report.HubSpot.Filled
	stats.HubSpotFillRate = safeDivide(float64(report.HubSpot.Filled), float64(shown))

	stats.AvgMessages = report.AvgMessagesPerSession
	if stats.AvgMessages == 0 {
		stats.AvgMessages = safeDivide(float64(report.TotalMessages), float64(report.TotalSessions))
	}

	for i := range report.Daily {
		day := report.Daily[i]
		if stats.PeakDay == nil || day.Sessions > stats.PeakDay.Sessions {
			stats.PeakDay = &day
		}
		stats.MaxDailySessions = max(stats.MaxDailySessions, day.Sessions)
	}

	return stats
}

func safeDivide(value, divisor float64) float64 {
	if divisor == 0 {
		return 0
	}
	return value / divisor
}

func matchesFilters(session backend.Session, filters Filters) bool {
	if !filters.Dates.Start.IsZero() && activity(session).Before(filters.Dates.Start) {
		return false
	}
	// End is a calendar day, so the whole day is included.
	if !filters.Dates.End.IsZero() && !session.CreatedAt.IsZero() &&
		!session.CreatedAt.Before(filters.Dates.End.AddDate(0, 0, 1)) {
		return false
	}
	if search := strings.TrimSpace(filters.Search); search != "" {
		needle := strings.ToLower(search)
		if !strings.Contains(strings.ToLower(session.SessionID), needle) &&
			!strings.Contains(strings.ToLower(session.Preview), needle) {
			return false
		}
	}
	return true
}

// activity is the most recent known timestamp of a session.
func activity(session backend.Session) time.Time {
	if session.LastActivity.After(session.CreatedAt) {
		return session.LastActivity
	}
	return session.CreatedAt
}

// SortSessions sorts sessions in place by the given key. Unknown keys sort
// by most recent activity.
func SortSessions(sessions []backend.Session, sortKey string) {
	switch sortKey {
	case SortOldest:
		sort.SliceStable(sessions, func(i, j int) bool {
			return activity(sessions[i]).Before(activity(sessions[j]))
		})
	case SortMessages:
		sort.SliceStable(sessions, func(i, j int) bool {
			if sessions[i].MessageCount == sessions[j].MessageCount {
				return activity(sessions[i]).After(activity(sessions[j]))
			}
			return sessions[i].MessageCount > sessions[j].MessageCount
		})
	default:
		sort.SliceStable(sessions, func(i, j int) bool {
			return activity(sessions[i]).After(activity(sessions[j]))
		})
	}
}

// NextSort returns the sort key after current in SortKeys.
func NextSort(current string) string {
	idx := slices.Index(SortKeys, current)
	return SortKeys[(idx+1)%len(SortKeys)]
}

// NextInteraction cycles through every interaction and back to "all".
func NextInteraction(current backend.Interaction) backend.Interaction {
	if current == "" {
		return backend.Interactions[0]
	}
	idx := slices.Index(backend.Interactions, current)
	if idx < 0 || idx == len(backend.Interactions)-1 {
		return ""
	}
	return backend.Interactions[idx+1]
}

// ParseSort validates a user supplied sort key.
func ParseSort(value string) (string, error) {
	if value == "" {
		return SortRecent, nil
	}
	if !slices.Contains(SortKeys, value) {
		return "", fmt.Errorf("invalid sort %q (expected %s)", value, strings.Join(SortKeys, ", "))
	}
	return value, nil
}
