// ABOUTME: Agent identity cache keyed by agent id
// ABOUTME: Loads single or batched identities through agent.identity.get with one busy flag

package controller

import (
	"context"
	"log/slog"
	"sync"

	"github.com/2389/coven-dashboard/internal/gateway"
)

// IdentityCache caches agent identities by agent id.
type IdentityCache struct {
	handle *gateway.Handle
	logger *slog.Logger

	mu      sync.Mutex
	loading bool
	lastErr string
	byID    map[string]gateway.AgentIdentity
}

// IdentitySnapshot is a read-only view of the identity cache.
// ByID must not be modified.
type IdentitySnapshot struct {
	Loading bool
	Error   string
	ByID    map[string]gateway.AgentIdentity
}

// NewIdentityCache creates an empty cache bound to handle.
func NewIdentityCache(handle *gateway.Handle, logger *slog.Logger) *IdentityCache {
	if logger == nil {
		logger = slog.Default().With("component", "identity-cache")
	}
	return &IdentityCache{
		handle: handle,
		logger: logger,
		byID:   map[string]gateway.AgentIdentity{},
	}
}

// Load fetches one identity unless it is already cached and force is false.
// Failures are recorded in the cache error; earlier entries are kept.
func (c *IdentityCache) Load(ctx context.Context, agentID string, force bool) {
	client, ok := c.acquire(func() bool {
		_, cached := c.byID[agentID]
		return force || !cached
	})
	if !ok {
		return
	}
	defer c.release()

	if err := c.fetch(ctx, client, agentID); err != nil {
		c.fail(agentID, err)
	}
}

// LoadMany fetches the identities for ids one at a time, in order, skipping
// cached ids unless force is set. The first failure stops the batch;
// identities fetched before it stay cached.
func (c *IdentityCache) LoadMany(ctx context.Context, ids []string, force bool) {
	var pending []string
	client, ok := c.acquire(func() bool {
		pending = pending[:0]
		for _, id := range ids {
			if _, cached := c.byID[id]; force || !cached {
				pending = append(pending, id)
			}
		}
		return len(pending) > 0
	})
	if !ok {
		return
	}
	defer c.release()

	for _, id := range pending {
		if err := c.fetch(ctx, client, id); err != nil {
			c.fail(id, err)
			return
		}
	}
}

// Get returns the cached identity for agentID.
func (c *IdentityCache) Get(agentID string) (gateway.AgentIdentity, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	identity, ok := c.byID[agentID]
	return identity, ok
}

// Snapshot returns the current cache state.
func (c *IdentityCache) Snapshot() IdentitySnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return IdentitySnapshot{Loading: c.loading, Error: c.lastErr, ByID: c.byID}
}

// Reset empties the cache, used when the gateway connection is replaced.
func (c *IdentityCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID = map[string]gateway.AgentIdentity{}
	c.lastErr = ""
	c.loading = false
}

// acquire applies the connection and busy guards, then asks needed (called
// under the lock) whether there is work to do. On success the cache is busy
// and its error cleared.
func (c *IdentityCache) acquire(needed func() bool) (gateway.Requester, bool) {
	client, ok := connectedClient(c.handle)
	if !ok {
		c.logger.Debug("identity load skipped: not connected")
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading {
		c.logger.Debug("identity load skipped: already loading")
		return nil, false
	}
	if !needed() {
		return nil, false
	}
	c.loading = true
	c.lastErr = ""
	return client, true
}

func (c *IdentityCache) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
}

// fetch requests one identity and merges it in. A null result changes nothing.
func (c *IdentityCache) fetch(ctx context.Context, client gateway.Requester, agentID string) error {
	res, err := gateway.Call[gateway.AgentIdentity](ctx, client, gateway.MethodAgentIdentityGet,
		gateway.AgentIdentityParams{AgentID: agentID})
	if err != nil {
		return err
	}
	if res == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.byID = withEntry(c.byID, agentID, *res)
	return nil
}

func (c *IdentityCache) fail(agentID string, err error) {
	c.logger.Warn("loading agent identity failed", "agent_id", agentID, "error", err)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = describe(err)
}
