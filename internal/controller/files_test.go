// ABOUTME: Tests for the workspace files controller
// ABOUTME: Covers list switching, content caching, drafts, and saving

package controller

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/coven-dashboard/internal/gateway"
)

func fileList(agentID string, names ...string) gateway.AgentFilesList {
	list := gateway.AgentFilesList{AgentID: agentID, Workspace: "/ws/" + agentID}
	for _, n := range names {
		list.Files = append(list.Files, gateway.AgentFile{Name: n, Size: 1})
	}
	return list
}

func fileContent(ctx context.Context, params any) (any, error) {
	p := params.(gateway.AgentFileParams)
	content := "# " + p.Name
	return gateway.AgentFileResult{AgentID: p.AgentID, File: gateway.AgentFile{Name: p.Name, Content: &content}}, nil
}

func TestFiles_LoadListAndFile(t *testing.T) {
	ctx := context.Background()
	fg := newFakeGateway()
	fg.reply(gateway.MethodAgentsFilesList, fileList("main", "AGENTS.md", "SOUL.md"))
	fg.on(gateway.MethodAgentsFilesGet, fileContent)
	f := NewFiles(connectedHandle(t, fg), quietLogger())

	f.LoadList(ctx, "main")
	f.Open("SOUL.md")
	f.LoadFile(ctx, "main", "SOUL.md", false)
	f.LoadFile(ctx, "main", "SOUL.md", false)

	assert.Len(t, fg.callsTo(gateway.MethodAgentsFilesGet), 1)
	snap := f.Snapshot()
	assert.Equal(t, "SOUL.md", snap.Active)
	assert.Equal(t, "# SOUL.md", snap.Contents["SOUL.md"])
	assert.Equal(t, "# SOUL.md", snap.Drafts["SOUL.md"])
	assert.False(t, snap.Dirty("SOUL.md"))
}

func TestFiles_DraftsSurviveReloadUnlessForced(t *testing.T) {
	ctx := context.Background()
	fg := newFakeGateway()
	fg.on(gateway.MethodAgentsFilesGet, fileContent)
	f := NewFiles(connectedHandle(t, fg), quietLogger())
	f.LoadFile(ctx, "main", "AGENTS.md", false)

	f.SetDraft("AGENTS.md", "edited")
	assert.True(t, f.Snapshot().Dirty("AGENTS.md"))

	f.ResetDraft("AGENTS.md")
	assert.False(t, f.Snapshot().Dirty("AGENTS.md"))

	f.SetDraft("AGENTS.md", "edited again")
	f.LoadFile(ctx, "main", "AGENTS.md", true)
	assert.Equal(t, "# AGENTS.md", f.Snapshot().Drafts["AGENTS.md"])
}

func TestFiles_SwitchingAgentClearsContents(t *testing.T) {
	ctx := context.Background()
	fg := newFakeGateway()
	fg.reply(gateway.MethodAgentsFilesList, fileList("main", "AGENTS.md"))
	fg.on(gateway.MethodAgentsFilesGet, fileContent)
	f := NewFiles(connectedHandle(t, fg), quietLogger())
	f.LoadList(ctx, "main")
	f.Open("AGENTS.md")
	f.LoadFile(ctx, "main", "AGENTS.md", false)

	fg.reply(gateway.MethodAgentsFilesList, fileList("ops", "TOOLS.md"))
	f.LoadList(ctx, "ops")

	snap := f.Snapshot()
	assert.Equal(t, "ops", snap.List.AgentID)
	assert.Empty(t, snap.Contents)
	assert.Empty(t, snap.Drafts)
	assert.Empty(t, snap.Active)
}

func TestFiles_LoadFileForAnotherAgentRefetches(t *testing.T) {
	ctx := context.Background()
	fg := newFakeGateway()
	fg.reply(gateway.MethodAgentsFilesList, fileList("main", "AGENTS.md"))
	fg.on(gateway.MethodAgentsFilesGet, func(_ context.Context, params any) (any, error) {
		p := params.(gateway.AgentFileParams)
		content := "content of " + p.AgentID
		return gateway.AgentFileResult{AgentID: p.AgentID, File: gateway.AgentFile{Name: p.Name, Content: &content}}, nil
	})
	f := NewFiles(connectedHandle(t, fg), quietLogger())
	f.LoadList(ctx, "main")
	f.LoadFile(ctx, "main", "AGENTS.md", false)
	f.SetDraft("AGENTS.md", "unsaved main edit")

	fg.fail(gateway.MethodAgentsFilesList, errors.New("gateway busy"))
	f.LoadList(ctx, "ops")
	f.LoadFile(ctx, "ops", "AGENTS.md", false)

	gets := fg.callsTo(gateway.MethodAgentsFilesGet)
	require.Len(t, gets, 2)
	assert.Equal(t, "ops", gets[1].Params.(gateway.AgentFileParams).AgentID)
	snap := f.Snapshot()
	assert.Equal(t, "main", snap.List.AgentID)
	assert.Equal(t, "content of ops", snap.Contents["AGENTS.md"])
	assert.Equal(t, "content of ops", snap.Drafts["AGENTS.md"])

	// The list arriving later for the same agent keeps what was fetched.
	fg.reply(gateway.MethodAgentsFilesList, fileList("ops", "AGENTS.md"))
	f.LoadList(ctx, "ops")
	f.LoadFile(ctx, "ops", "AGENTS.md", false)
	assert.Len(t, fg.callsTo(gateway.MethodAgentsFilesGet), 2)
	assert.Equal(t, "content of ops", f.Snapshot().Contents["AGENTS.md"])
}

func TestFiles_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("writes draft and refreshes list entry", func(t *testing.T) {
		fg := newFakeGateway()
		fg.reply(gateway.MethodAgentsFilesList, fileList("main", "AGENTS.md"))
		fg.on(gateway.MethodAgentsFilesGet, fileContent)
		fg.on(gateway.MethodAgentsFilesSet, func(_ context.Context, params any) (any, error) {
			p := params.(gateway.SetAgentFileParams)
			return gateway.AgentFileResult{OK: true, AgentID: p.AgentID,
				File: gateway.AgentFile{Name: p.Name, Size: int64(len(p.Content)), Content: &p.Content}}, nil
		})
		f := NewFiles(connectedHandle(t, fg), quietLogger())
		f.LoadList(ctx, "main")
		f.LoadFile(ctx, "main", "AGENTS.md", false)
		f.SetDraft("AGENTS.md", "new body")

		require.NoError(t, f.Save(ctx, "main", "AGENTS.md"))

		sets := fg.callsTo(gateway.MethodAgentsFilesSet)
		require.Len(t, sets, 1)
		assert.Equal(t, "new body", sets[0].Params.(gateway.SetAgentFileParams).Content)

		snap := f.Snapshot()
		assert.False(t, snap.Saving)
		assert.Equal(t, "new body", snap.Contents["AGENTS.md"])
		assert.False(t, snap.Dirty("AGENTS.md"))
		require.Len(t, snap.List.Files, 1)
		assert.Equal(t, int64(8), snap.List.Files[0].Size)
		assert.Nil(t, snap.List.Files[0].Content)
	})

	t.Run("unacknowledged write keeps the draft unsaved", func(t *testing.T) {
		fg := newFakeGateway()
		fg.on(gateway.MethodAgentsFilesGet, fileContent)
		fg.reply(gateway.MethodAgentsFilesSet, gateway.AgentFileResult{OK: false, AgentID: "main"})
		f := NewFiles(connectedHandle(t, fg), quietLogger())
		f.LoadFile(ctx, "main", "AGENTS.md", false)
		f.SetDraft("AGENTS.md", "edited")

		require.NoError(t, f.Save(ctx, "main", "AGENTS.md"))

		snap := f.Snapshot()
		assert.Equal(t, "# AGENTS.md", snap.Contents["AGENTS.md"])
		assert.Equal(t, "edited", snap.Drafts["AGENTS.md"])
		assert.True(t, snap.Dirty("AGENTS.md"))
		assert.Empty(t, snap.Error)
		assert.False(t, snap.Saving)
	})

	t.Run("edit made during the write survives", func(t *testing.T) {
		fg := newFakeGateway()
		fg.on(gateway.MethodAgentsFilesGet, fileContent)
		g := newGate()
		fg.on(gateway.MethodAgentsFilesSet, g.wrap(func(_ context.Context, params any) (any, error) {
			p := params.(gateway.SetAgentFileParams)
			return gateway.AgentFileResult{OK: true, AgentID: p.AgentID, File: gateway.AgentFile{Name: p.Name}}, nil
		}))
		f := NewFiles(connectedHandle(t, fg), quietLogger())
		f.LoadFile(ctx, "main", "AGENTS.md", false)
		f.SetDraft("AGENTS.md", "first")

		done := make(chan error, 1)
		go func() { done <- f.Save(ctx, "main", "AGENTS.md") }()
		g.waitEntered(t)
		f.SetDraft("AGENTS.md", "second")
		g.open()
		require.NoError(t, <-done)

		snap := f.Snapshot()
		assert.Equal(t, "first", snap.Contents["AGENTS.md"])
		assert.Equal(t, "second", snap.Drafts["AGENTS.md"])
		assert.True(t, snap.Dirty("AGENTS.md"))
	})

	t.Run("failure is returned and recorded", func(t *testing.T) {
		fg := newFakeGateway()
		fg.fail(gateway.MethodAgentsFilesSet, errors.New("read-only workspace"))
		f := NewFiles(connectedHandle(t, fg), quietLogger())
		f.SetDraft("AGENTS.md", "x")

		err := f.Save(ctx, "main", "AGENTS.md")
		require.EqualError(t, err, "read-only workspace")
		snap := f.Snapshot()
		assert.Equal(t, "read-only workspace", snap.Error)
		assert.True(t, snap.Dirty("AGENTS.md"))
	})
}

func TestFiles_Reset(t *testing.T) {
	fg := newFakeGateway()
	f := NewFiles(connectedHandle(t, fg), quietLogger())
	f.SetDraft("a", "b")
	f.Open("a")
	f.Reset()

	snap := f.Snapshot()
	assert.Empty(t, snap.Drafts)
	assert.Empty(t, snap.Active)
}
