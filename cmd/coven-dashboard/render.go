// ABOUTME: Terminal rendering for the agents and identity commands
// ABOUTME: lipgloss tables and key/value blocks built from the shared view helpers

package main

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/2389/coven-dashboard/internal/gateway"
	"github.com/2389/coven-dashboard/internal/view"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	badgeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("69")).Padding(0, 1)
	keyStyle    = lipgloss.NewStyle().Bold(true)
	faintStyle  = lipgloss.NewStyle().Faint(true)
)

// agentRow is one agent as printed by agents list.
type agentRow struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Emoji   string `json:"emoji,omitempty"`
	Default bool   `json:"default,omitempty"`
	Theme   string `json:"theme"`
}

func agentRows(list *gateway.AgentsList, identities map[string]gateway.AgentIdentity) []agentRow {
	if list == nil {
		return nil
	}
	rows := make([]agentRow, 0, len(list.Agents))
	for _, agent := range list.Agents {
		var identity *gateway.AgentIdentity
		if id, ok := identities[agent.ID]; ok {
			identity = &id
		}
		rows = append(rows, agentRow{
			ID:      agent.ID,
			Name:    view.IdentityName(agent, identity, ""),
			Emoji:   view.AgentEmoji(agent, identity),
			Default: view.AgentBadge(agent.ID, list.DefaultID) != "",
			Theme:   view.Theme(agent),
		})
	}
	return rows
}

func renderAgentsTable(list *gateway.AgentsList, identities map[string]gateway.AgentIdentity) string {
	rows := agentRows(list, identities)
	if len(rows) == 0 {
		return faintStyle.Render("No agents.")
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "EMOJI", "", "THEME").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 3:
				return badgeStyle
			default:
				return cellStyle
			}
		})
	for _, r := range rows {
		badge := ""
		if r.Default {
			badge = view.BadgeDefault
		}
		t.Row(r.ID, r.Name, r.Emoji, badge, r.Theme)
	}
	return t.Render()
}

// renderIdentity prints the known fields, then any extra fields in key order.
func renderIdentity(identity gateway.AgentIdentity) string {
	lines := []string{
		field(keyStyle, "agent:", identity.AgentID),
		field(keyStyle, "name:", orDash(identity.Name)),
		field(keyStyle, "emoji:", orDash(identity.Emoji)),
		field(keyStyle, "avatar:", orDash(identity.Avatar)),
	}

	keys := make([]string, 0, len(identity.Extra))
	for k := range identity.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		lines = append(lines, faintStyle.Render(k+":")+" "+compactJSON(identity.Extra[k]))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// field aligns values in one column.
func field(style lipgloss.Style, key, value string) string {
	return style.Render(key) + strings.Repeat(" ", max(1, 8-len(key))) + value
}

func orDash(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "-"
	}
	return s
}

func compactJSON(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
