// ABOUTME: Copy-on-write edits of per-agent entries in the gateway config form
// ABOUTME: Handles model, fallbacks, tool policy, and skill allowlist fields

package controller

import (
	"maps"
	"slices"
	"strings"
)

// The form mirrors the gateway config document:
//
//	agents:
//	  defaults: {model: ...}
//	  list:
//	    - id: main
//	      model: "provider/model" | {primary: ..., fallbacks: [...]}
//	      tools: {profile: ..., allow: [...], alsoAllow: [...], deny: [...]}
//	      skills: [...]
//
// Edits never modify the maps they read; each one returns a new form that
// shares untouched branches with the old one.

// editAgentEntry returns a copy of form in which the agents.list entry for
// agentID has been replaced by edit(copy of entry). A missing entry is created.
func editAgentEntry(form map[string]any, agentID string, edit func(entry map[string]any)) map[string]any {
	next := maps.Clone(form)
	if next == nil {
		next = map[string]any{}
	}
	agents, _ := next["agents"].(map[string]any)
	agents = maps.Clone(agents)
	if agents == nil {
		agents = map[string]any{}
	}
	list, _ := agents["list"].([]any)
	list = slices.Clone(list)

	index := -1
	for i, item := range list {
		if entry, ok := item.(map[string]any); ok && entry["id"] == agentID {
			index = i
			break
		}
	}

	var entry map[string]any
	if index >= 0 {
		entry = maps.Clone(list[index].(map[string]any))
	} else {
		entry = map[string]any{"id": agentID}
	}
	edit(entry)

	if index >= 0 {
		list[index] = entry
	} else {
		list = append(list, entry)
	}
	agents["list"] = list
	next["agents"] = agents
	return next
}

// setModelPrimary sets the primary model, keeping any fallbacks. An empty
// model removes the override so the agent inherits the default.
func setModelPrimary(entry map[string]any, model string) {
	model = strings.TrimSpace(model)
	fallbacks := modelFallbacks(entry["model"])
	switch {
	case model == "":
		delete(entry, "model")
	case len(fallbacks) > 0:
		entry["model"] = map[string]any{"primary": model, "fallbacks": toAnySlice(fallbacks)}
	default:
		entry["model"] = model
	}
}

// setModelFallbacks sets the fallback chain, collapsing to a plain string
// model when the chain is empty.
func setModelFallbacks(entry map[string]any, fallbacks []string) {
	primary := modelPrimary(entry["model"])
	fallbacks = cleanList(fallbacks)
	switch {
	case len(fallbacks) == 0 && primary == "":
		delete(entry, "model")
	case len(fallbacks) == 0:
		entry["model"] = primary
	default:
		model := map[string]any{"fallbacks": toAnySlice(fallbacks)}
		if primary != "" {
			model["primary"] = primary
		}
		entry["model"] = model
	}
}

// setToolsProfile sets or clears tools.profile. clearAllow also drops any
// explicit allow list so the profile takes effect.
func setToolsProfile(entry map[string]any, profile string, clearAllow bool) {
	tools := cloneObject(entry["tools"])
	if profile == "" {
		delete(tools, "profile")
	} else {
		tools["profile"] = profile
	}
	if clearAllow {
		delete(tools, "allow")
	}
	putObject(entry, "tools", tools)
}

// setToolsOverrides replaces tools.alsoAllow and tools.deny.
func setToolsOverrides(entry map[string]any, alsoAllow, deny []string) {
	tools := cloneObject(entry["tools"])
	putList(tools, "alsoAllow", alsoAllow)
	putList(tools, "deny", deny)
	putObject(entry, "tools", tools)
}

// toggleSkill enables or disables one skill. Without an allowlist every
// skill in available is enabled, so the first toggle materializes the list.
func toggleSkill(entry map[string]any, skill string, enabled bool, available []string) {
	current, ok := stringList(entry["skills"])
	if !ok {
		current = slices.Clone(available)
	}
	current = slices.DeleteFunc(current, func(s string) bool { return s == skill })
	if enabled {
		current = append(current, skill)
	}
	slices.Sort(current)
	entry["skills"] = toAnySlice(slices.Compact(current))
}

func modelPrimary(model any) string {
	switch m := model.(type) {
	case string:
		return strings.TrimSpace(m)
	case map[string]any:
		s, _ := m["primary"].(string)
		return strings.TrimSpace(s)
	}
	return ""
}

func modelFallbacks(model any) []string {
	m, ok := model.(map[string]any)
	if !ok {
		return nil
	}
	list, _ := stringList(m["fallbacks"])
	return list
}

// stringList reads a JSON array of strings. ok is false when v is not an array.
func stringList(v any) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return slices.Clone(list), true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out, true
	}
	return nil, false
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func toAnySlice(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func cloneObject(v any) map[string]any {
	m, _ := v.(map[string]any)
	if m == nil {
		return map[string]any{}
	}
	return maps.Clone(m)
}

func putObject(entry map[string]any, key string, obj map[string]any) {
	if len(obj) == 0 {
		delete(entry, key)
		return
	}
	entry[key] = obj
}

func putList(obj map[string]any, key string, list []string) {
	list = cleanList(list)
	if len(list) == 0 {
		delete(obj, key)
		return
	}
	obj[key] = toAnySlice(list)
}
