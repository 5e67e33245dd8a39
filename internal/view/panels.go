// ABOUTME: Agent detail panels, skill filtering, and the agent context summary
// ABOUTME: Shared by the agent page template and the CLI

package view

import (
	"strconv"
	"strings"

	"github.com/2389/coven-dashboard/internal/gateway"
)

// Panel is one tab of the agent detail page.
type Panel string

const (
	PanelOverview Panel = "overview"
	PanelFiles    Panel = "files"
	PanelTools    Panel = "tools"
	PanelSkills   Panel = "skills"
	PanelChannels Panel = "channels"
	PanelCron     Panel = "cron"
)

// Panels lists every panel in tab order.
var Panels = []Panel{PanelOverview, PanelFiles, PanelTools, PanelSkills, PanelChannels, PanelCron}

// ParsePanel returns the panel named s, or PanelOverview for anything unknown.
func ParsePanel(s string) Panel {
	for _, p := range Panels {
		if string(p) == s {
			return p
		}
	}
	return PanelOverview
}

// LocaleKey is the translation key of the panel's tab label.
func (p Panel) LocaleKey() string {
	return "agents.panel." + string(p)
}

// FilterSkills returns the skills whose name, description or source contains
// filter, case-insensitively. An empty filter returns every skill.
func FilterSkills(report *gateway.SkillStatusReport, filter string) []gateway.SkillStatus {
	if report == nil {
		return nil
	}
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" {
		return report.Skills
	}
	var out []gateway.SkillStatus
	for _, s := range report.Skills {
		haystack := strings.ToLower(s.Name + " " + s.Description + " " + s.Source)
		if strings.Contains(haystack, filter) {
			out = append(out, s)
		}
	}
	return out
}

// SkillNames returns the names of every skill in the report.
func SkillNames(report *gateway.SkillStatusReport) []string {
	if report == nil {
		return nil
	}
	names := make([]string, 0, len(report.Skills))
	for _, s := range report.Skills {
		names = append(names, s.Name)
	}
	return names
}

// AgentContext summarizes an agent for the channels and cron panels.
type AgentContext struct {
	Workspace   string
	Model       string
	IdentityRef string
	SkillsLabel string
	IsDefault   bool
}

// BuildAgentContext combines the config form, file list, and identity into
// the summary shown above the channels and cron panels.
func BuildAgentContext(agent gateway.AgentSummary, cfg AgentConfig, files *gateway.AgentFilesList,
	defaultID string, identity *gateway.AgentIdentity) AgentContext {
	workspace := cfg.Workspace()
	if files != nil && files.AgentID == agent.ID && files.Workspace != "" {
		workspace = files.Workspace
	}

	skills := "all skills"
	if allow, ok := cfg.SkillAllowlist(); ok {
		skills = strconv.Itoa(len(allow)) + " selected"
	}

	identityRef := IdentityName(agent, identity, cfg.Name())
	if emoji := AgentEmoji(agent, identity); emoji != "" {
		identityRef = emoji + " " + identityRef
	}

	return AgentContext{
		Workspace:   workspace,
		Model:       ModelLabel(cfg.Model()),
		IdentityRef: identityRef,
		SkillsLabel: skills,
		IsDefault:   defaultID != "" && agent.ID == defaultID,
	}
}
