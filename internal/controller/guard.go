// ABOUTME: Shared connection guard, error description, and copy-on-write helpers
// ABOUTME: Used by every controller before and after a gateway request

package controller

import (
	"maps"

	"github.com/2389/coven-dashboard/internal/gateway"
)

// connectedClient returns the handle's client when it is present and connected.
func connectedClient(h *gateway.Handle) (gateway.Requester, bool) {
	client, connected := h.Current()
	if client == nil || !connected {
		return nil, false
	}
	return client, true
}

// describe turns a failure into the string stored in a last-error field.
func describe(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// withEntry returns a copy of m with key set to value. m itself is not modified.
func withEntry[K comparable, V any](m map[K]V, key K, value V) map[K]V {
	next := make(map[K]V, len(m)+1)
	maps.Copy(next, m)
	next[key] = value
	return next
}

// withoutEntry returns a copy of m without key. m itself is not modified.
func withoutEntry[K comparable, V any](m map[K]V, key K) map[K]V {
	next := make(map[K]V, len(m))
	for k, v := range m {
		if k != key {
			next[k] = v
		}
	}
	return next
}

// reconcileSelection keeps selected when the list still contains it and
// otherwise falls back to the default agent, then the first agent, then none.
func reconcileSelection(selected string, list *gateway.AgentsList) string {
	if selected != "" && list.Contains(selected) {
		return selected
	}
	if list == nil {
		return ""
	}
	if list.DefaultID != "" {
		return list.DefaultID
	}
	if len(list.Agents) > 0 {
		return list.Agents[0].ID
	}
	return ""
}
