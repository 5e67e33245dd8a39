// ABOUTME: Connection handle shared by the application shell and controllers
// ABOUTME: Holds the current Requester and connected flag; only the shell writes it

package gateway

import "sync"

// Handle references the current gateway client and whether it is connected.
// The zero value is a disconnected handle.
type Handle struct {
	mu        sync.RWMutex
	client    Requester
	connected bool
}

// NewHandle creates a handle, optionally pre-populated with a connected client.
func NewHandle(client Requester) *Handle {
	return &Handle{client: client, connected: client != nil}
}

// Current returns the client and connected flag as of now.
// Callers must not hold on to the client beyond the current operation.
func (h *Handle) Current() (Requester, bool) {
	if h == nil {
		return nil, false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.client, h.connected
}

// Connected reports whether a client is present and connected.
func (h *Handle) Connected() bool {
	client, connected := h.Current()
	return client != nil && connected
}

// Set replaces the client and connected flag.
func (h *Handle) Set(client Requester, connected bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.client = client
	h.connected = connected
}

// SetConnected updates only the connected flag.
func (h *Handle) SetConnected(connected bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connected = connected
}

// Clear drops the client and marks the handle disconnected.
func (h *Handle) Clear() {
	h.Set(nil, false)
}
