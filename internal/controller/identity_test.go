// ABOUTME: Tests for the agent identity cache
// ABOUTME: Covers cache hits, force reloads, batch ordering, partial failure, and guards

package controller

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/coven-dashboard/internal/gateway"
)

func TestIdentityCache_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("fetches and caches", func(t *testing.T) {
		fg := newFakeGateway()
		fg.on(gateway.MethodAgentIdentityGet, identityHandler)
		c := NewIdentityCache(connectedHandle(t, fg), quietLogger())

		c.Load(ctx, "main", false)

		snap := c.Snapshot()
		assert.False(t, snap.Loading)
		assert.Empty(t, snap.Error)
		assert.Equal(t, "name-main", snap.ByID["main"].Name)

		got, ok := c.Get("main")
		require.True(t, ok)
		assert.Equal(t, "main", got.AgentID)
	})

	t.Run("cache hit makes no request", func(t *testing.T) {
		fg := newFakeGateway()
		fg.on(gateway.MethodAgentIdentityGet, identityHandler)
		c := NewIdentityCache(connectedHandle(t, fg), quietLogger())

		c.Load(ctx, "main", false)
		c.Load(ctx, "main", false)
		assert.Len(t, fg.callsTo(gateway.MethodAgentIdentityGet), 1)

		c.Load(ctx, "main", true)
		assert.Len(t, fg.callsTo(gateway.MethodAgentIdentityGet), 2)
	})

	t.Run("null result changes nothing", func(t *testing.T) {
		fg := newFakeGateway()
		fg.reply(gateway.MethodAgentIdentityGet, nil)
		c := NewIdentityCache(connectedHandle(t, fg), quietLogger())

		c.Load(ctx, "ghost", false)
		snap := c.Snapshot()
		assert.Empty(t, snap.ByID)
		assert.Empty(t, snap.Error)
	})

	t.Run("failure records error and keeps entries", func(t *testing.T) {
		fg := newFakeGateway()
		fg.on(gateway.MethodAgentIdentityGet, identityHandler)
		c := NewIdentityCache(connectedHandle(t, fg), quietLogger())
		c.Load(ctx, "main", false)

		fg.fail(gateway.MethodAgentIdentityGet, &gateway.RequestError{Code: "UNAVAILABLE", Message: "down"})
		c.Load(ctx, "main", true)

		snap := c.Snapshot()
		assert.Equal(t, "UNAVAILABLE: down", snap.Error)
		assert.False(t, snap.Loading)
		assert.Equal(t, "name-main", snap.ByID["main"].Name)
	})

	t.Run("next attempt clears error", func(t *testing.T) {
		fg := newFakeGateway()
		fg.fail(gateway.MethodAgentIdentityGet, errors.New("boom"))
		c := NewIdentityCache(connectedHandle(t, fg), quietLogger())
		c.Load(ctx, "main", false)
		require.Equal(t, "boom", c.Snapshot().Error)

		fg.on(gateway.MethodAgentIdentityGet, identityHandler)
		c.Load(ctx, "main", false)
		assert.Empty(t, c.Snapshot().Error)
	})
}

func TestIdentityCache_Guards(t *testing.T) {
	ctx := context.Background()

	t.Run("no client", func(t *testing.T) {
		c := NewIdentityCache(&gateway.Handle{}, quietLogger())
		c.Load(ctx, "main", true)
		c.LoadMany(ctx, []string{"a"}, true)
		snap := c.Snapshot()
		assert.False(t, snap.Loading)
		assert.Empty(t, snap.Error)
	})

	t.Run("disconnected", func(t *testing.T) {
		fg := newFakeGateway()
		h := connectedHandle(t, fg)
		h.SetConnected(false)
		c := NewIdentityCache(h, quietLogger())

		c.Load(ctx, "main", true)
		assert.Empty(t, fg.methods())
	})

	t.Run("busy cache skips every caller", func(t *testing.T) {
		fg := newFakeGateway()
		g := newGate()
		fg.on(gateway.MethodAgentIdentityGet, g.wrap(identityHandler))
		c := NewIdentityCache(connectedHandle(t, fg), quietLogger())

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Load(ctx, "a", false)
		}()
		g.waitEntered(t)
		assert.True(t, c.Snapshot().Loading)

		// Different key, same cache: still a no-op.
		c.Load(ctx, "b", true)
		c.LoadMany(ctx, []string{"c", "d"}, true)

		g.open()
		wg.Wait()

		assert.Equal(t, []string{gateway.MethodAgentIdentityGet}, fg.methods())
		snap := c.Snapshot()
		assert.False(t, snap.Loading)
		assert.Contains(t, snap.ByID, "a")
		assert.NotContains(t, snap.ByID, "b")
	})
}

func TestIdentityCache_LoadMany(t *testing.T) {
	ctx := context.Background()

	t.Run("fetches only missing ids in order", func(t *testing.T) {
		fg := newFakeGateway()
		fg.on(gateway.MethodAgentIdentityGet, identityHandler)
		c := NewIdentityCache(connectedHandle(t, fg), quietLogger())
		c.Load(ctx, "b", false)

		c.LoadMany(ctx, []string{"a", "b", "c"}, false)

		var ids []string
		for _, call := range fg.callsTo(gateway.MethodAgentIdentityGet) {
			ids = append(ids, call.Params.(gateway.AgentIdentityParams).AgentID)
		}
		assert.Equal(t, []string{"b", "a", "c"}, ids)
		assert.Len(t, c.Snapshot().ByID, 3)
	})

	t.Run("nothing missing is a no-op", func(t *testing.T) {
		fg := newFakeGateway()
		fg.on(gateway.MethodAgentIdentityGet, identityHandler)
		c := NewIdentityCache(connectedHandle(t, fg), quietLogger())
		c.LoadMany(ctx, []string{"a"}, false)

		c.LoadMany(ctx, []string{"a", "a"}, false)
		c.LoadMany(ctx, nil, true)
		assert.Len(t, fg.methods(), 1)
	})

	t.Run("force refetches all", func(t *testing.T) {
		fg := newFakeGateway()
		fg.on(gateway.MethodAgentIdentityGet, identityHandler)
		c := NewIdentityCache(connectedHandle(t, fg), quietLogger())
		c.LoadMany(ctx, []string{"a", "b"}, false)

		c.LoadMany(ctx, []string{"a", "b"}, true)
		assert.Len(t, fg.methods(), 4)
	})

	t.Run("first failure stops the batch and keeps earlier entries", func(t *testing.T) {
		fg := newFakeGateway()
		fg.on(gateway.MethodAgentIdentityGet, func(ctx context.Context, params any) (any, error) {
			if params.(gateway.AgentIdentityParams).AgentID == "b" {
				return nil, errors.New("b is broken")
			}
			return identityHandler(ctx, params)
		})
		c := NewIdentityCache(connectedHandle(t, fg), quietLogger())

		c.LoadMany(ctx, []string{"a", "b", "c"}, false)

		assert.Len(t, fg.methods(), 2)
		snap := c.Snapshot()
		assert.Equal(t, "b is broken", snap.Error)
		assert.False(t, snap.Loading)
		assert.Contains(t, snap.ByID, "a")
		assert.NotContains(t, snap.ByID, "c")
	})
}

func TestIdentityCache_SnapshotsAreStable(t *testing.T) {
	ctx := context.Background()
	fg := newFakeGateway()
	fg.on(gateway.MethodAgentIdentityGet, identityHandler)
	c := NewIdentityCache(connectedHandle(t, fg), quietLogger())

	c.Load(ctx, "a", false)
	before := c.Snapshot().ByID
	c.Load(ctx, "b", false)

	assert.Len(t, before, 1)
	assert.Len(t, c.Snapshot().ByID, 2)
}

func TestIdentityCache_Reset(t *testing.T) {
	ctx := context.Background()
	fg := newFakeGateway()
	fg.on(gateway.MethodAgentIdentityGet, identityHandler)
	c := NewIdentityCache(connectedHandle(t, fg), quietLogger())
	c.Load(ctx, "a", false)

	c.Reset()
	assert.Empty(t, c.Snapshot().ByID)
}
