package analytics

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/chatdeck/pkg/sse"
)

var blankRun = regexp.MustCompile(`\n{3,}`)

// CleanMessage prepares stored message text for display: escaped newlines
// become real ones, a JSON-style pair of surrounding quotes and carriage
// returns are dropped, and runs of blank lines collapse to one.
func CleanMessage(content string) string {
	text := strings.TrimSpace(content)
	if len(text) >= 2 && strings.HasPrefix(text, `"`) && strings.HasSuffix(text, `"`) {
		text = text[1 : len(text)-1]
	}

	text = sse.NormalizeNewlines(text)
	text = strings.ReplaceAll(text, `\"`, `"`)
	text = strings.ReplaceAll(text, "\r", "")
	text = blankRun.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

// FormatCount abbreviates large counts (1.2K, 3.4M).
func FormatCount(value int) string {
	if value >= 1_000_000 {
		return fmt.Sprintf("%.1fM", float64(value)/1_000_000.0)
	}
	if value >= 1_000 {
		return fmt.Sprintf("%.1fK", float64(value)/1_000.0)
	}
	return strconv.Itoa(value)
}

// FormatPercent renders a 0..1 ratio as a whole percentage.
func FormatPercent(value float64) string {
	return fmt.Sprintf("%.0f%%", value*100)
}

// FormatAverage renders a per-session average with one decimal.
func FormatAverage(value float64) string {
	return strconv.FormatFloat(value, 'f', 1, 64)
}

// FormatDate renders a timestamp for tables; zero times render as a dash.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// FormatRelative renders how long ago t was relative to now.
func FormatRelative(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}

	elapsed := now.Sub(t)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%dm ago", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(elapsed.Hours()))
	case elapsed < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(elapsed.Hours()/24))
	default:
		return t.Local().Format("2006-01-02")
	}
}

// FormatDuration formats a conversation length (e.g. "1h5m", "3m20s").
func FormatDuration(value time.Duration) string {
	if value <= 0 {
		return "0s"
	}

	minutes := int(value.Minutes())
	seconds := int(value.Seconds()) % 60
	hours := minutes / 60
	minutes %= 60
	if hours > 0 {
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}

// ShortID shortens a session id for narrow columns.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
