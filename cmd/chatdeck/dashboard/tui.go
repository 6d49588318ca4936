package dashboardcmder

import (
	"context"
	"os"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	bubbletea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/papercomputeco/chatdeck/pkg/analytics"
	"github.com/papercomputeco/chatdeck/pkg/backend"
)

type dashboardView int

const (
	viewOverview dashboardView = iota
	viewSession
	viewHubSpot
)

type dashboardModel struct {
	ctx      context.Context
	query    *analytics.Query
	filters  analytics.Filters
	settings settings

	overview    *analytics.Overview
	hubspot     *analytics.HubSpotView
	hubspotPage backend.Page
	history     *analytics.History

	view          dashboardView
	returnTo      dashboardView
	cursor        int
	hubspotCursor int
	width         int
	height        int

	// pending counts loads in flight; the spinner runs while it is positive.
	pending int
	err     error

	initialSession string

	spinner  spinner.Model
	viewport viewport.Model
	keys     dashboardKeyMap
	help     help.Model
}

type dashboardKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Enter   key.Binding
	Back    key.Binding
	Sort    key.Binding
	Filter  key.Binding
	Switch  key.Binding
	Next    key.Binding
	Prev    key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

// helpKeys is the set of bindings shown in the footer of one view.
type helpKeys []key.Binding

func (k helpKeys) ShortHelp() []key.Binding  { return k }
func (k helpKeys) FullHelp() [][]key.Binding { return [][]key.Binding{k} }

func (k dashboardKeyMap) forView(view dashboardView) helpKeys {
	switch view {
	case viewSession:
		return helpKeys{k.Down, k.Up, k.Back, k.Refresh, k.Quit}
	case viewHubSpot:
		return helpKeys{k.Down, k.Up, k.Enter, k.Filter, k.Next, k.Prev, k.Switch, k.Refresh, k.Quit}
	default:
		return helpKeys{k.Down, k.Up, k.Enter, k.Sort, k.Filter, k.Switch, k.Refresh, k.Quit}
	}
}

func defaultKeyMap() dashboardKeyMap {
	return dashboardKeyMap{
		Up:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
		Down:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
		Enter:   key.NewBinding(key.WithKeys("enter", "l"), key.WithHelp("enter", "open")),
		Back:    key.NewBinding(key.WithKeys("h", "esc"), key.WithHelp("h", "back")),
		Sort:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),
		Filter:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "hubspot filter")),
		Switch:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "view")),
		Next:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next page")),
		Prev:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "prev page")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type overviewLoadedMsg struct {
	overview *analytics.Overview
	err      error
}

type historyLoadedMsg struct {
	history *analytics.History
	err     error
}

type hubspotLoadedMsg struct {
	view *analytics.HubSpotView
	page backend.Page
	err  error
}

func runDashboardTUI(ctx context.Context, model dashboardModel) error {
	// Force TrueColor profile to fix lipgloss color detection issue
	// See: https://github.com/charmbracelet/lipgloss/issues/439
	renderer := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.TrueColor))
	renderer.SetColorProfile(termenv.TrueColor)
	lipgloss.SetDefaultRenderer(renderer)

	program := bubbletea.NewProgram(model,
		bubbletea.WithContext(ctx),
		bubbletea.WithAltScreen(),
	)
	_, err := program.Run()
	return err
}

func newDashboardModel(ctx context.Context, query *analytics.Query, filters analytics.Filters, resolved settings, session string) dashboardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = dashAccentStyle

	pageSize := resolved.pageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	return dashboardModel{
		ctx:            ctx,
		query:          query,
		filters:        filters,
		settings:       resolved,
		hubspotPage:    backend.Page{Limit: pageSize},
		view:           viewOverview,
		initialSession: session,
		spinner:        s,
		viewport:       viewport.New(80, 20),
		keys:           defaultKeyMap(),
		help:           help.New(),
	}
}

func (m dashboardModel) Init() bubbletea.Cmd {
	cmds := []bubbletea.Cmd{m.spinner.Tick, loadOverviewCmd(m.ctx, m.query, m.filters)}
	if m.initialSession != "" {
		cmds = append(cmds, loadHistoryCmd(m.ctx, m.query, m.initialSession))
	}
	return bubbletea.Batch(cmds...)
}

func (m dashboardModel) Update(msg bubbletea.Msg) (bubbletea.Model, bubbletea.Cmd) {
	switch msg := msg.(type) {
	case bubbletea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()
		return m, nil

	case spinner.TickMsg:
		if m.loading() {
			var cmd bubbletea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case overviewLoadedMsg:
		m.finishLoad(msg.err)
		if msg.err != nil {
			return m, nil
		}
		m.overview = msg.overview
		m.cursor = clamp(m.cursor, len(m.overview.Sessions)-1)
		return m, nil

	case historyLoadedMsg:
		m.finishLoad(msg.err)
		m.initialSession = ""
		if msg.err != nil {
			return m, nil
		}
		m.history = msg.history
		m.view = viewSession
		m.resizeViewport()
		m.viewport.GotoTop()
		return m, nil

	case hubspotLoadedMsg:
		m.finishLoad(msg.err)
		if msg.err != nil {
			return m, nil
		}
		m.hubspot = msg.view
		m.hubspotPage = msg.page
		m.hubspotCursor = clamp(m.hubspotCursor, len(m.hubspot.Page.Sessions)-1)
		return m, nil

	case bubbletea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m dashboardModel) View() string {
	switch m.view {
	case viewSession:
		return m.viewSession()
	case viewHubSpot:
		return m.viewHubSpot()
	default:
		return m.viewOverview()
	}
}

func (m dashboardModel) handleKey(msg bubbletea.KeyMsg) (bubbletea.Model, bubbletea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, bubbletea.Quit

	case key.Matches(msg, m.keys.Refresh):
		m.query.Invalidate()
		return m.reload()

	case key.Matches(msg, m.keys.Back):
		if m.view == viewSession {
			m.view = m.returnTo
		}
		return m, nil
	}

	if m.view == viewSession {
		var cmd bubbletea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Enter):
		return m.openSession()
	case key.Matches(msg, m.keys.Sort):
		if m.view == viewOverview {
			m.filters.Sort = analytics.NextSort(m.filters.Sort)
			return m.startLoad(loadOverviewCmd(m.ctx, m.query, m.filters))
		}
	case key.Matches(msg, m.keys.Filter):
		m.filters.Interaction = analytics.NextInteraction(m.filters.Interaction)
		m.view = viewHubSpot
		m.hubspotCursor = 0
		return m.startLoad(loadHubSpotCmd(m.ctx, m.query, m.filters, backend.Page{Limit: m.hubspotPage.Limit}))
	case key.Matches(msg, m.keys.Switch):
		if m.view == viewHubSpot {
			m.view = viewOverview
			return m, nil
		}
		m.view = viewHubSpot
		if m.hubspot == nil {
			return m.startLoad(loadHubSpotCmd(m.ctx, m.query, m.filters, m.hubspotPage))
		}
	case key.Matches(msg, m.keys.Next):
		if m.view == viewHubSpot && m.hubspot != nil && m.hubspot.HasMore {
			m.hubspotCursor = 0
			return m.startLoad(loadHubSpotCmd(m.ctx, m.query, m.filters, m.hubspotPage.Next()))
		}
	case key.Matches(msg, m.keys.Prev):
		if m.view == viewHubSpot && m.hubspotPage.Offset > 0 {
			page := m.hubspotPage
			page.Offset = max(page.Offset-page.Limit, 0)
			m.hubspotCursor = 0
			return m.startLoad(loadHubSpotCmd(m.ctx, m.query, m.filters, page))
		}
	}

	return m, nil
}

func (m *dashboardModel) moveCursor(delta int) {
	switch m.view {
	case viewOverview:
		if m.overview == nil || len(m.overview.Sessions) == 0 {
			return
		}
		m.cursor = clamp(m.cursor+delta, len(m.overview.Sessions)-1)
	case viewHubSpot:
		if m.hubspot == nil || len(m.hubspot.Page.Sessions) == 0 {
			return
		}
		m.hubspotCursor = clamp(m.hubspotCursor+delta, len(m.hubspot.Page.Sessions)-1)
	}
}

func (m dashboardModel) openSession() (bubbletea.Model, bubbletea.Cmd) {
	var sessionID string
	switch m.view {
	case viewOverview:
		if m.overview == nil || len(m.overview.Sessions) == 0 {
			return m, nil
		}
		sessionID = m.overview.Sessions[m.cursor].SessionID
	case viewHubSpot:
		if m.hubspot == nil || len(m.hubspot.Page.Sessions) == 0 {
			return m, nil
		}
		sessionID = m.hubspot.Page.Sessions[m.hubspotCursor].SessionID
	default:
		return m, nil
	}

	m.returnTo = m.view
	return m.startLoad(loadHistoryCmd(m.ctx, m.query, sessionID))
}

// reload refetches whatever the current view shows.
func (m dashboardModel) reload() (bubbletea.Model, bubbletea.Cmd) {
	switch m.view {
	case viewSession:
		if m.history == nil {
			return m, nil
		}
		return m.startLoad(loadHistoryCmd(m.ctx, m.query, m.history.SessionID))
	case viewHubSpot:
		return m.startLoad(loadHubSpotCmd(m.ctx, m.query, m.filters, m.hubspotPage))
	default:
		return m.startLoad(loadOverviewCmd(m.ctx, m.query, m.filters))
	}
}

func (m dashboardModel) startLoad(cmd bubbletea.Cmd) (bubbletea.Model, bubbletea.Cmd) {
	m.pending++
	m.err = nil
	if m.pending == 1 {
		return m, bubbletea.Batch(cmd, m.spinner.Tick)
	}
	return m, cmd
}

func (m *dashboardModel) finishLoad(err error) {
	m.pending = max(m.pending-1, 0)
	if err != nil {
		m.err = err
	}
}

// loading reports whether a fetch is in flight. Before the first overview
// arrives the dashboard is always loading.
func (m dashboardModel) loading() bool {
	return m.pending > 0 || (m.overview == nil && m.err == nil)
}

func (m *dashboardModel) resizeViewport() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	height := m.height
	if height <= 0 {
		height = 40
	}

	m.viewport.Width = width
	m.viewport.Height = max(height-sessionChromeLines, 5)
	if m.history != nil {
		m.viewport.SetContent(renderTranscript(m.history, width))
	}
}

func loadOverviewCmd(ctx context.Context, query *analytics.Query, filters analytics.Filters) bubbletea.Cmd {
	return func() bubbletea.Msg {
		overview, err := query.Overview(ctx, filters)
		return overviewLoadedMsg{overview: overview, err: err}
	}
}

func loadHistoryCmd(ctx context.Context, query *analytics.Query, sessionID string) bubbletea.Cmd {
	return func() bubbletea.Msg {
		history, err := query.SessionHistory(ctx, sessionID)
		return historyLoadedMsg{history: history, err: err}
	}
}

func loadHubSpotCmd(ctx context.Context, query *analytics.Query, filters analytics.Filters, page backend.Page) bubbletea.Cmd {
	return func() bubbletea.Msg {
		view, err := query.HubSpot(ctx, filters, page)
		return hubspotLoadedMsg{view: view, page: page, err: err}
	}
}
