// ABOUTME: Time formatting, markdown previews, and overview hints
// ABOUTME: Relative timestamps, human durations, goldmark rendering, auth hint selection

package view

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/yuin/goldmark"
)

// RelativeTime formats t relative to now, like "5m ago" or "in 2h".
// The zero time formats as "n/a".
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "n/a"
	}
	d := now.Sub(t)
	if d < 0 {
		return "in " + shortDuration(-d)
	}
	if d < 5*time.Second {
		return "just now"
	}
	return shortDuration(d) + " ago"
}

// RelativeMs is RelativeTime for gateway epoch-millisecond timestamps.
// Nil or non-positive values format as "n/a".
func RelativeMs(ms *int64, now time.Time) string {
	if ms == nil || *ms <= 0 {
		return "n/a"
	}
	return RelativeTime(time.UnixMilli(*ms), now)
}

// HumanDuration formats d with its two largest units, like "3d 4h" or "12m 5s".
func HumanDuration(d time.Duration) string {
	if d < time.Second {
		return "0s"
	}
	units := []struct {
		size time.Duration
		name string
	}{
		{24 * time.Hour, "d"},
		{time.Hour, "h"},
		{time.Minute, "m"},
		{time.Second, "s"},
	}
	var parts []string
	for _, u := range units {
		if d >= u.size {
			parts = append(parts, fmt.Sprintf("%d%s", d/u.size, u.name))
			d %= u.size
		}
		if len(parts) == 2 {
			break
		}
	}
	return strings.Join(parts, " ")
}

func shortDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// RenderMarkdown converts a workspace markdown file to HTML for preview.
// Raw HTML in the source is omitted.
func RenderMarkdown(source string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// AuthHint picks the overview hint key for a failed connection, or "" when
// the failure does not look auth related.
func AuthHint(connected bool, lastError string, hasToken bool) string {
	if connected || lastError == "" {
		return ""
	}
	lower := strings.ToLower(lastError)
	if !strings.Contains(lower, "unauthorized") && !strings.Contains(lower, "connect failed") {
		return ""
	}
	if !hasToken {
		return "overview.auth_hint_auth_required"
	}
	return "overview.auth_failed"
}
