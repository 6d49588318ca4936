package dashboardcmder

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	dashTitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	dashMutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	dashAccentStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("215"))
	dashSectionStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	dashDividerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("237"))
	dashMetricLabel    = lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Bold(true)
	dashMetricValue    = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dashHighlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("235")).Background(lipgloss.Color("214")).Bold(true)
	dashErrorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	dashRoleUserStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("111"))
	dashRoleAgentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

func lineWidth(width int) int {
	if width <= 0 {
		return 80
	}
	return width
}

func clamp(value, upper int) int {
	if value > upper {
		value = upper
	}
	if value < 0 {
		return 0
	}
	return value
}

func renderBar(value, ceiling float64, width int) string {
	if ceiling <= 0 {
		return strings.Repeat("░", width)
	}
	ratio := value / ceiling
	filled := min(max(int(ratio*float64(width)), 0), width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func renderHeaderLine(width int, left, right string) string {
	total := lineWidth(width)
	leftWidth := lipgloss.Width(left)
	rightWidth := lipgloss.Width(right)
	if leftWidth+rightWidth+1 >= total {
		return strings.TrimSpace(left + " " + right)
	}
	return left + strings.Repeat(" ", total-leftWidth-rightWidth) + right
}

func renderRule(width int) string {
	return dashDividerStyle.Render(strings.Repeat("─", lineWidth(width)))
}

func renderMetricRow(width int, items []string, style lipgloss.Style) string {
	if len(items) == 0 {
		return ""
	}
	cols := len(items)
	colWidth := max((lineWidth(width)-(cols-1)*2)/cols, 12)
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, style.Render(fitCell(item, colWidth)))
	}
	return strings.Join(parts, "  ")
}

// fitCell pads or truncates value to exactly width display cells.
func fitCell(value string, width int) string {
	if width <= 0 {
		return value
	}
	if lipgloss.Width(value) > width {
		runes := []rune(value)
		for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
			runes = runes[:len(runes)-1]
		}
		value = string(runes) + "…"
	}
	return value + strings.Repeat(" ", max(width-lipgloss.Width(value), 0))
}

// visibleRange returns the window of size rows that keeps cursor in view.
func visibleRange(total, cursor, size int) (int, int) {
	if total <= 0 || size <= 0 {
		return 0, 0
	}
	if total <= size {
		return 0, total
	}
	cursor = clamp(cursor, total-1)
	start := max(cursor-(size/2), 0)
	end := start + size
	if end > total {
		end = total
		start = max(end-size, 0)
	}
	return start, end
}
