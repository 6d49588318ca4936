package dashboardcmder

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/papercomputeco/chatdeck/pkg/analytics"
	"github.com/papercomputeco/chatdeck/pkg/backend"
	"github.com/papercomputeco/chatdeck/pkg/cliui"
)

// sessionChromeLines is the number of lines around the transcript viewport.
const sessionChromeLines = 6

const dailyBarWidth = 24

func (m dashboardModel) statusLine() string {
	if m.err != nil {
		return dashErrorStyle.Render("! " + describeError(m.err))
	}
	if m.loading() {
		return m.spinner.View() + dashMutedStyle.Render(" loading")
	}
	return ""
}

// describeError prefers the endpoint's user message over transport detail.
func describeError(err error) string {
	var reqErr *backend.RequestError
	if errors.As(err, &reqErr) {
		return backend.UserMessage(err)
	}
	return err.Error()
}

func (m dashboardModel) viewOverview() string {
	headerLeft := dashTitleStyle.Render("chatdeck")
	if m.overview == nil {
		lines := []string{renderHeaderLine(m.width, headerLeft, ""), renderRule(m.width), "", m.statusLine()}
		return strings.Join(lines, "\n")
	}

	overview := m.overview
	headerRight := dashMutedStyle.Render(fmt.Sprintf("%s → %s · %d sessions · updated %s",
		overview.Start, overview.End, overview.Report.TotalSessions, overview.LoadedAt.Local().Format("15:04:05")))

	lines := make([]string, 0, 32)
	lines = append(lines, renderHeaderLine(m.width, headerLeft, headerRight), renderRule(m.width), "")
	lines = append(lines, m.viewMetrics(), "")
	daily := m.viewDaily()
	lines = append(lines, daily, "")

	listHeight := m.sessionListHeight(len(lines) + 4 + strings.Count(daily, "\n"))
	lines = append(lines, m.viewSessionList(listHeight), "")
	if status := m.statusLine(); status != "" {
		lines = append(lines, status)
	}
	lines = append(lines, dashMutedStyle.Render(m.help.View(m.keys.forView(viewOverview))))

	return strings.Join(lines, "\n")
}

func (m dashboardModel) viewMetrics() string {
	report := m.overview.Report
	stats := m.overview.Stats

	headers := []string{"SESSIONS", "MESSAGES", "AVG / SESSION", "FEEDBACK", "HUBSPOT"}
	values := []string{
		analytics.FormatCount(report.TotalSessions),
		analytics.FormatCount(report.TotalMessages),
		analytics.FormatAverage(stats.AvgMessages),
		fmt.Sprintf("▲ %d  ▼ %d", report.Feedback.Likes, report.Feedback.Dislikes),
		fmt.Sprintf("%d rendered  %d filled  %d none", report.HubSpot.Rendered, report.HubSpot.Filled, report.HubSpot.None),
	}
	details := []string{
		fmt.Sprintf("%d listed", m.overview.TotalSessions),
		"",
		"messages",
		fmt.Sprintf("%s liked · %s rated", analytics.FormatPercent(stats.LikeRate), analytics.FormatPercent(stats.FeedbackCoverage)),
		fmt.Sprintf("%s fill rate", analytics.FormatPercent(stats.HubSpotFillRate)),
	}

	return strings.Join([]string{
		renderMetricRow(m.width, headers, dashMetricLabel),
		renderMetricRow(m.width, values, dashMetricValue),
		renderMetricRow(m.width, details, dashMutedStyle),
	}, "\n")
}

func (m dashboardModel) viewDaily() string {
	daily := m.overview.Report.Daily
	if len(daily) == 0 {
		return dashMutedStyle.Render("daily activity: no data")
	}

	lines := []string{dashSectionStyle.Render("daily activity"), renderRule(m.width)}
	ceiling := float64(m.overview.Stats.MaxDailySessions)
	for _, day := range daily {
		lines = append(lines, fmt.Sprintf("%s %s %4d sessions %5d msgs  %s %s",
			day.Date,
			dashAccentStyle.Render(renderBar(float64(day.Sessions), ceiling, dailyBarWidth)),
			day.Sessions,
			day.Messages,
			cliui.LikeStyle.Render(fmt.Sprintf("▲%d", day.Likes)),
			cliui.DislikeStyle.Render(fmt.Sprintf("▼%d", day.Dislikes)),
		))
	}
	return strings.Join(lines, "\n")
}

func (m dashboardModel) sessionListHeight(used int) int {
	height := m.height
	if height <= 0 {
		height = 40
	}
	return max(height-used, 3)
}

func (m dashboardModel) viewSessionList(height int) string {
	sessions := m.overview.Sessions
	title := fmt.Sprintf("sessions (sort: %s", m.filters.Sort)
	if m.filters.Search != "" {
		title += fmt.Sprintf(", search: %q", m.filters.Search)
	}
	title += ")"
	lines := []string{dashSectionStyle.Render(title), renderRule(m.width)}

	if len(sessions) == 0 {
		lines = append(lines, dashMutedStyle.Render("no sessions"))
		return strings.Join(lines, "\n")
	}

	now := time.Now()
	if !m.overview.LoadedAt.IsZero() {
		now = m.overview.LoadedAt
	}

	lines = append(lines, dashMutedStyle.Render(fmt.Sprintf("  %-10s %-16s %-10s %5s  %s", "session", "created", "active", "msgs", "preview")))
	previewWidth := max(lineWidth(m.width)-50, 10)
	start, end := visibleRange(len(sessions), m.cursor, height)
	for i := start; i < end; i++ {
		session := sessions[i]
		cursor := " "
		if i == m.cursor {
			cursor = ">"
		}
		preview := strings.ReplaceAll(analytics.CleanMessage(session.Preview), "\n", " ")
		line := fmt.Sprintf("%s %-10s %-16s %-10s %5d  %s",
			cursor,
			analytics.ShortID(session.SessionID),
			analytics.FormatDate(session.CreatedAt),
			analytics.FormatRelative(session.LastActivity, now),
			session.MessageCount,
			fitCell(preview, previewWidth),
		)
		if i == m.cursor {
			line = dashHighlightStyle.Render(line)
		}
		lines = append(lines, line)
	}
	if end-start < len(sessions) {
		lines = append(lines, dashMutedStyle.Render(fmt.Sprintf("  %d-%d of %d", start+1, end, len(sessions))))
	}

	return strings.Join(lines, "\n")
}

func (m dashboardModel) viewSession() string {
	if m.history == nil {
		return dashMutedStyle.Render("no session selected")
	}

	history := m.history
	headerLeft := dashTitleStyle.Render("chatdeck › " + history.SessionID)
	headerRight := dashMutedStyle.Render(fmt.Sprintf("%s · %s", analytics.FormatDate(history.Started), analytics.FormatDuration(history.Duration)))
	summary := fmt.Sprintf("%d user · %d agent turns   %s %s",
		history.UserTurns, history.AgentTurns,
		cliui.LikeStyle.Render(fmt.Sprintf("▲ %d", history.Likes)),
		cliui.DislikeStyle.Render(fmt.Sprintf("▼ %d", history.Dislikes)),
	)

	footer := dashMutedStyle.Render(fmt.Sprintf("%3.0f%%  ", m.viewport.ScrollPercent()*100)) +
		dashMutedStyle.Render(m.help.View(m.keys.forView(viewSession)))
	if status := m.statusLine(); status != "" {
		footer = status + "\n" + footer
	}

	return strings.Join([]string{
		renderHeaderLine(m.width, headerLeft, headerRight),
		summary,
		renderRule(m.width),
		m.viewport.View(),
		renderRule(m.width),
		footer,
	}, "\n")
}

// renderTranscript lays out a history for the viewport. Agent replies are
// rendered as markdown.
func renderTranscript(history *analytics.History, width int) string {
	if len(history.Messages) == 0 {
		return dashMutedStyle.Render("No messages in this session.")
	}

	wrap := max(lineWidth(width)-4, 20)
	var b strings.Builder
	for i, msg := range history.Messages {
		if i > 0 {
			b.WriteString("\n")
		}

		label := dashRoleAgentStyle.Render("● agent")
		if msg.Role == analytics.RoleUser {
			label = dashRoleUserStyle.Render("○ user")
		}
		meta := []string{label}
		if !msg.Timestamp.IsZero() {
			meta = append(meta, dashMutedStyle.Render(msg.Timestamp.Local().Format("15:04:05")))
		}
		if mark := cliui.FeedbackMark(msg.Feedback); mark != "" {
			meta = append(meta, mark)
		}
		b.WriteString(strings.Join(meta, " ") + "\n")

		if msg.Role == analytics.RoleUser {
			b.WriteString(lipgloss.NewStyle().Width(wrap).PaddingLeft(2).Render(msg.Content) + "\n")
			continue
		}

		rendered, err := cliui.RenderMarkdownWidth(msg.Content, wrap)
		if err != nil {
			rendered = msg.Content
		}
		b.WriteString(strings.TrimRight(rendered, "\n") + "\n")
	}

	return b.String()
}

func (m dashboardModel) viewHubSpot() string {
	filter := string(m.filters.Interaction)
	if filter == "" {
		filter = "all"
	}
	headerLeft := dashTitleStyle.Render("chatdeck › hubspot")
	headerRight := dashMutedStyle.Render("filter: " + filter)

	lines := []string{renderHeaderLine(m.width, headerLeft, headerRight), renderRule(m.width), ""}

	if m.hubspot == nil {
		lines = append(lines, m.statusLine())
		return strings.Join(lines, "\n")
	}

	page := m.hubspot.Page
	counts := make([]string, 0, len(backend.Interactions))
	for _, interaction := range backend.Interactions {
		counts = append(counts, fmt.Sprintf("%s %d", interaction, m.hubspot.Counts[interaction]))
	}
	lines = append(lines, dashMetricValue.Render(strings.Join(counts, "   ")), "")

	lines = append(lines, dashMutedStyle.Render(fmt.Sprintf("  %-38s %-10s %s", "session", "state", "updated")))
	if len(page.Sessions) == 0 {
		lines = append(lines, dashMutedStyle.Render("  no interactions on this page"))
	}
	for i, session := range page.Sessions {
		cursor := " "
		if i == m.hubspotCursor {
			cursor = ">"
		}
		line := fmt.Sprintf("%s %s %-10s %s",
			cursor,
			fitCell(session.SessionID, 38),
			session.Interaction,
			analytics.FormatDate(session.UpdatedAt),
		)
		if i == m.hubspotCursor {
			line = dashHighlightStyle.Render(line)
		}
		lines = append(lines, line)
	}

	pageInfo := fmt.Sprintf("rows %d-%d of %d", page.Offset+1, page.Offset+m.hubspot.Fetched, page.Total)
	if m.hubspot.Fetched == 0 {
		pageInfo = fmt.Sprintf("offset %d of %d", page.Offset, page.Total)
	}
	if m.hubspot.HasMore {
		pageInfo += " · n for more"
	}
	lines = append(lines, "", dashMutedStyle.Render(pageInfo))

	if status := m.statusLine(); status != "" {
		lines = append(lines, status)
	}
	lines = append(lines, dashMutedStyle.Render(m.help.View(m.keys.forView(viewHubSpot))))

	return strings.Join(lines, "\n")
}
