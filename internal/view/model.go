// ABOUTME: Reads per-agent settings out of the gateway config form
// ABOUTME: Model labels, primary and fallback models, workspace, and skill allowlists

package view

import (
	"strconv"
	"strings"
)

// AgentConfig is the slice of the config form relevant to one agent.
// Entry is nil when the agent has no entry of its own.
type AgentConfig struct {
	Entry    map[string]any
	Defaults map[string]any
}

// ResolveAgentConfig finds agents.list[id == agentID] and agents.defaults.
func ResolveAgentConfig(form map[string]any, agentID string) AgentConfig {
	agents, _ := form["agents"].(map[string]any)
	var cfg AgentConfig
	cfg.Defaults, _ = agents["defaults"].(map[string]any)
	list, _ := agents["list"].([]any)
	for _, item := range list {
		if entry, ok := item.(map[string]any); ok && entry["id"] == agentID {
			cfg.Entry = entry
			break
		}
	}
	return cfg
}

// Model is the effective model value: the entry's own, else the default.
func (c AgentConfig) Model() any {
	if m, ok := c.Entry["model"]; ok && m != nil {
		return m
	}
	return c.Defaults["model"]
}

// Workspace is the configured workspace directory, else "default".
func (c AgentConfig) Workspace() string {
	for _, m := range []map[string]any{c.Entry, c.Defaults} {
		if ws, _ := m["workspace"].(string); strings.TrimSpace(ws) != "" {
			return ws
		}
	}
	return "default"
}

// Name is the configured display name, if any.
func (c AgentConfig) Name() string {
	name, _ := c.Entry["name"].(string)
	return name
}

// SkillAllowlist returns the agent's skill allowlist. ok is false when the
// agent has none and therefore allows every skill.
func (c AgentConfig) SkillAllowlist() (skills []string, ok bool) {
	list, isList := c.Entry["skills"].([]any)
	if !isList {
		return nil, false
	}
	skills = make([]string, 0, len(list))
	for _, item := range list {
		if s, isString := item.(string); isString {
			skills = append(skills, s)
		}
	}
	return skills, true
}

// Tools is the agent's tool policy as edited on the tools panel.
type Tools struct {
	Profile   string
	AlsoAllow []string
	Deny      []string
}

// Tools reads the entry's tools object. Missing fields are empty.
func (c AgentConfig) Tools() Tools {
	obj, _ := c.Entry["tools"].(map[string]any)
	profile, _ := obj["profile"].(string)
	return Tools{
		Profile:   profile,
		AlsoAllow: trimmedStrings(obj["alsoAllow"]),
		Deny:      trimmedStrings(obj["deny"]),
	}
}

// ModelLabel formats a model value for display: "primary (+N fallback)" for
// object models, the string itself for string models, "-" when unset.
func ModelLabel(model any) string {
	switch m := model.(type) {
	case string:
		if s := strings.TrimSpace(m); s != "" {
			return s
		}
	case map[string]any:
		primary := ModelPrimary(m)
		fallbacks := ModelFallbacks(m)
		switch {
		case primary != "" && len(fallbacks) > 0:
			return primary + " (+" + strconv.Itoa(len(fallbacks)) + " fallback)"
		case primary != "":
			return primary
		}
	}
	return "-"
}

// ModelPrimary returns the primary model id of a model value.
func ModelPrimary(model any) string {
	switch m := model.(type) {
	case string:
		return strings.TrimSpace(m)
	case map[string]any:
		s, _ := m["primary"].(string)
		return strings.TrimSpace(s)
	}
	return ""
}

// ModelFallbacks returns the fallback chain of an object model value.
func ModelFallbacks(model any) []string {
	m, ok := model.(map[string]any)
	if !ok {
		return nil
	}
	return trimmedStrings(m["fallbacks"])
}

// trimmedStrings returns the non-blank strings of a JSON array, trimmed.
func trimmedStrings(v any) []string {
	list, _ := v.([]any)
	var out []string
	for _, item := range list {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

// ParseFallbackList splits comma separated user input into model ids.
func ParseFallbackList(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
