// ABOUTME: Agents list controller with selection reconciliation and agent mutations
// ABOUTME: Create, update, and delete refresh the list and identities after a confirmed success

package controller

import (
	"context"
	"log/slog"
	"sync"

	"github.com/2389/coven-dashboard/internal/gateway"
)

// Agents owns the agents list, the selected agent id, and the agent mutations.
type Agents struct {
	handle     *gateway.Handle
	identities *IdentityCache
	logger     *slog.Logger

	mu       sync.Mutex
	loading  bool
	lastErr  string
	list     *gateway.AgentsList
	selected string
}

// AgentsSnapshot is a read-only view of the agents state.
// SelectedID is empty or the id of an agent in List.
type AgentsSnapshot struct {
	Loading    bool
	Error      string
	List       *gateway.AgentsList
	SelectedID string
}

// NewAgents creates an agents controller. identities receives the forced
// identity refreshes that follow create and update.
func NewAgents(handle *gateway.Handle, identities *IdentityCache, logger *slog.Logger) *Agents {
	if logger == nil {
		logger = slog.Default().With("component", "agents")
	}
	return &Agents{handle: handle, identities: identities, logger: logger}
}

// Load refreshes the agents list and reconciles the selection.
func (a *Agents) Load(ctx context.Context) {
	client, ok := connectedClient(a.handle)
	if !ok {
		a.logger.Debug("agents load skipped: not connected")
		return
	}

	a.mu.Lock()
	if a.loading {
		a.mu.Unlock()
		a.logger.Debug("agents load skipped: already loading")
		return
	}
	a.loading = true
	a.lastErr = ""
	a.mu.Unlock()
	defer a.setLoading(false)

	a.reload(ctx, client)
}

// Create creates an agent and returns its id, or "" when the create was
// skipped, failed, unacknowledged, or answered without an id. A returned id
// becomes the selection and its identity is force-refreshed after the list
// reload. Failures are only recorded.
func (a *Agents) Create(ctx context.Context, params gateway.CreateAgentParams) string {
	client, ok := a.beginMutation("create")
	if !ok {
		return ""
	}
	defer a.setLoading(false)

	res, err := gateway.Call[gateway.CreateAgentResult](ctx, client, gateway.MethodAgentsCreate, params)
	if err != nil {
		a.fail("create", err)
		return ""
	}
	if res == nil || !res.OK {
		return ""
	}
	a.logger.Info("agent created", "agent_id", res.AgentID, "name", params.Name)

	if res.AgentID == "" {
		a.reload(ctx, client)
		return ""
	}
	a.mu.Lock()
	a.selected = res.AgentID
	a.mu.Unlock()
	a.reload(ctx, client)
	a.identities.Load(ctx, res.AgentID, true)
	return res.AgentID
}

// Update changes an agent's name, avatar, emoji or model. Unlike Create and
// Delete, a failure is returned to the caller as well as recorded.
func (a *Agents) Update(ctx context.Context, params gateway.UpdateAgentParams) error {
	client, ok := a.beginMutation("update")
	if !ok {
		return nil
	}
	defer a.setLoading(false)

	res, err := gateway.Call[gateway.AckResult](ctx, client, gateway.MethodAgentsUpdate, params)
	if err != nil {
		a.fail("update", err)
		return err
	}
	if res == nil || !res.OK {
		return nil
	}
	a.logger.Info("agent updated", "agent_id", params.AgentID)

	a.reload(ctx, client)
	a.identities.Load(ctx, params.AgentID, true)
	return nil
}

// Delete removes an agent, and its workspace files when deleteFiles is set.
// A deleted selection is cleared before the list reload reconciles it.
// Failures are only recorded.
func (a *Agents) Delete(ctx context.Context, agentID string, deleteFiles bool) {
	client, ok := a.beginMutation("delete")
	if !ok {
		return
	}
	defer a.setLoading(false)

	res, err := gateway.Call[gateway.AckResult](ctx, client, gateway.MethodAgentsDelete,
		gateway.DeleteAgentParams{AgentID: agentID, DeleteFiles: deleteFiles})
	if err != nil {
		a.fail("delete", err)
		return
	}
	if res == nil || !res.OK {
		return
	}
	a.logger.Info("agent deleted", "agent_id", agentID, "delete_files", deleteFiles)

	a.mu.Lock()
	if a.selected == agentID {
		a.selected = ""
	}
	a.mu.Unlock()
	a.reload(ctx, client)
}

// Select makes agentID the selection if it is in the current list.
// It reports whether the selection changed.
func (a *Agents) Select(agentID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.list.Contains(agentID) || a.selected == agentID {
		return false
	}
	a.selected = agentID
	return true
}

// SelectedID returns the current selection, or "" when nothing is selected.
func (a *Agents) SelectedID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.selected
}

// Snapshot returns the current agents state.
func (a *Agents) Snapshot() AgentsSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return AgentsSnapshot{Loading: a.loading, Error: a.lastErr, List: a.list, SelectedID: a.selected}
}

// Reset clears the list and selection, used when the gateway connection is replaced.
func (a *Agents) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.list = nil
	a.selected = ""
	a.lastErr = ""
	a.loading = false
}

// beginMutation checks the connection and marks the controller busy.
// Mutations do not wait for or skip on an in-flight load.
func (a *Agents) beginMutation(op string) (gateway.Requester, bool) {
	client, ok := connectedClient(a.handle)
	if !ok {
		a.logger.Debug("agent mutation skipped: not connected", "op", op)
		return nil, false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loading = true
	a.lastErr = ""
	return client, true
}

// reload fetches the list and reconciles the selection. The caller owns the
// busy flag; a failure is recorded like any other agents error.
func (a *Agents) reload(ctx context.Context, client gateway.Requester) {
	res, err := gateway.Call[gateway.AgentsList](ctx, client, gateway.MethodAgentsList, nil)
	if err != nil {
		a.fail("list", err)
		return
	}
	if res == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.list = res
	a.selected = reconcileSelection(a.selected, res)
}

func (a *Agents) setLoading(loading bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loading = loading
}

func (a *Agents) fail(op string, err error) {
	a.logger.Warn("agents request failed", "op", op, "error", err)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastErr = describe(err)
}
