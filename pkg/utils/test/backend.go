package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/chatdeck/pkg/backend"
	"github.com/papercomputeco/chatdeck/pkg/sse"
)

// MockBackend is a test backend that returns configurable results and
// records the calls it receives.
type MockBackend struct {
	mu sync.Mutex

	Sessions  []backend.Session
	Histories map[string]*backend.ChatHistory
	Report    *backend.AnalyticsReport
	HubSpot   *backend.HubSpotPage

	// ChatChunks are handed to the sink in order by SendChat.
	ChatChunks     []string
	AgentMessageID string

	// Err, when set, is returned by every call.
	Err error

	ListCalls      int
	AnalyticsCalls int
	LastDates      backend.DateRange
	LastPage       backend.Page
	ChatRequests   []backend.ChatRequest
	Feedback       []backend.Feedback
	Reports        []backend.HubSpotReport
}

// Ensure MockBackend implements backend.Backend
var _ backend.Backend = (*MockBackend)(nil)

func NewMockBackend() *MockBackend {
	return &MockBackend{
		Sessions:  []backend.Session{},
		Histories: map[string]*backend.ChatHistory{},
		Report:    &backend.AnalyticsReport{},
		HubSpot:   &backend.HubSpotPage{},
	}
}

func (m *MockBackend) ListSessions(_ context.Context) ([]backend.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ListCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]backend.Session, len(m.Sessions))
	copy(out, m.Sessions)
	return out, nil
}

func (m *MockBackend) ChatHistory(_ context.Context, sessionID string) (*backend.ChatHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if history, ok := m.Histories[sessionID]; ok {
		return history, nil
	}
	return &backend.ChatHistory{SessionID: sessionID, Messages: []backend.ChatMessage{}}, nil
}

func (m *MockBackend) Analytics(_ context.Context, dates backend.DateRange) (*backend.AnalyticsReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AnalyticsCalls++
	m.LastDates = dates
	if m.Err != nil {
		return nil, m.Err
	}
	report := *m.Report
	return &report, nil
}

func (m *MockBackend) HubSpotSessions(_ context.Context, dates backend.DateRange, page backend.Page) (*backend.HubSpotPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastDates = dates
	m.LastPage = page
	if m.Err != nil {
		return nil, m.Err
	}
	result := *m.HubSpot
	result.Sessions = append([]backend.HubSpotSession(nil), m.HubSpot.Sessions...)
	return &result, nil
}

func (m *MockBackend) SendChat(_ context.Context, req backend.ChatRequest, sink sse.Sink) (*backend.ChatResult, error) {
	m.mu.Lock()
	m.ChatRequests = append(m.ChatRequests, req)
	chunks := append([]string(nil), m.ChatChunks...)
	id, err := m.AgentMessageID, m.Err
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}

	result := &backend.ChatResult{AgentMessageID: id, Streamed: true}
	for _, chunk := range chunks {
		result.Text += chunk
		if sink != nil {
			sink(chunk)
		}
	}
	return result, nil
}

func (m *MockBackend) SubmitFeedback(_ context.Context, feedback backend.Feedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Feedback = append(m.Feedback, feedback)
	return nil
}

func (m *MockBackend) ReportHubSpot(_ context.Context, report backend.HubSpotReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Reports = append(m.Reports, report)
	return nil
}
