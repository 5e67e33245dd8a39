// ABOUTME: Agent display helpers: labels, badges, emoji, avatars, identity names
// ABOUTME: Resolves values from the identity cache first, then the list summary

package view

import (
	"strings"
	"unicode/utf8"

	"github.com/2389/coven-dashboard/internal/gateway"
)

// BadgeDefault marks the default agent.
const BadgeDefault = "default"

// AgentLabel is the list label for an agent: its name, else its id.
func AgentLabel(agent gateway.AgentSummary) string {
	if name := strings.TrimSpace(agent.Name); name != "" {
		return name
	}
	if agent.Identity != nil {
		if name := strings.TrimSpace(agent.Identity.Name); name != "" {
			return name
		}
	}
	return agent.ID
}

// AgentBadge returns BadgeDefault for the default agent and "" otherwise.
func AgentBadge(agentID, defaultID string) string {
	if defaultID != "" && agentID == defaultID {
		return BadgeDefault
	}
	return ""
}

// AgentEmoji prefers the fetched identity's emoji over the list summary's.
func AgentEmoji(agent gateway.AgentSummary, identity *gateway.AgentIdentity) string {
	if identity != nil {
		if emoji := strings.TrimSpace(identity.Emoji); emoji != "" {
			return emoji
		}
	}
	if agent.Identity != nil {
		return strings.TrimSpace(agent.Identity.Emoji)
	}
	return ""
}

// AvatarURL returns the identity avatar when it is a data: URI or an http(s)
// URL. Anything else, such as a workspace-relative path, is not renderable.
func AvatarURL(identity *gateway.AgentIdentity) string {
	if identity == nil {
		return ""
	}
	avatar := strings.TrimSpace(identity.Avatar)
	if strings.HasPrefix(avatar, "data:") || strings.HasPrefix(avatar, "http") {
		return avatar
	}
	return ""
}

// AvatarFallback is shown when there is no avatar image: the emoji, else the
// first letter of the label.
func AvatarFallback(agent gateway.AgentSummary, identity *gateway.AgentIdentity) string {
	if emoji := AgentEmoji(agent, identity); emoji != "" {
		return emoji
	}
	label := AgentLabel(agent)
	r, _ := utf8.DecodeRuneInString(label)
	if r == utf8.RuneError {
		return ""
	}
	return string(r)
}

// IdentityName resolves the display name: fetched identity, list identity,
// list name, configured name, then "-".
func IdentityName(agent gateway.AgentSummary, identity *gateway.AgentIdentity, configName string) string {
	var fetched string
	if identity != nil {
		fetched = identity.Name
	}
	for _, c := range []string{fetched, nameOf(agent.Identity), agent.Name, configName} {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return "-"
}

// Theme is the agent's one-line tagline, with a generic fallback.
func Theme(agent gateway.AgentSummary) string {
	if agent.Identity != nil {
		if theme := strings.TrimSpace(agent.Identity.Theme); theme != "" {
			return theme
		}
	}
	return "Agent workspace and routing."
}

func nameOf(summary *gateway.AgentIdentitySummary) string {
	if summary == nil {
		return ""
	}
	return summary.Name
}
