// ABOUTME: Tests for typed calls, request errors, handle state, and payload decoding
// ABOUTME: Uses a function-backed Requester instead of a live connection

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type requesterFunc func(ctx context.Context, method string, params any) (json.RawMessage, error)

func (f requesterFunc) Request(ctx context.Context, method string, params any) (json.RawMessage, error) {
	return f(ctx, method, params)
}

func TestCall(t *testing.T) {
	t.Run("decodes payload", func(t *testing.T) {
		r := requesterFunc(func(_ context.Context, method string, _ any) (json.RawMessage, error) {
			assert.Equal(t, MethodAgentsList, method)
			return json.RawMessage(`{"defaultId":"main","agents":[{"id":"main"},{"id":"ops","name":"Ops"}]}`), nil
		})

		list, err := Call[AgentsList](context.Background(), r, MethodAgentsList, nil)
		require.NoError(t, err)
		require.NotNil(t, list)
		assert.Equal(t, "main", list.DefaultID)
		assert.Equal(t, []string{"main", "ops"}, list.AgentIDs())
	})

	t.Run("null payload is nil result", func(t *testing.T) {
		for _, raw := range []string{"null", " null ", ""} {
			r := requesterFunc(func(context.Context, string, any) (json.RawMessage, error) {
				return json.RawMessage(raw), nil
			})
			got, err := Call[AgentIdentity](context.Background(), r, MethodAgentIdentityGet, nil)
			require.NoError(t, err)
			assert.Nil(t, got, "payload %q", raw)
		}
	})

	t.Run("propagates request failure", func(t *testing.T) {
		boom := errors.New("boom")
		r := requesterFunc(func(context.Context, string, any) (json.RawMessage, error) {
			return nil, boom
		})
		_, err := Call[AckResult](context.Background(), r, MethodAgentsDelete, nil)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("wraps decode failure", func(t *testing.T) {
		r := requesterFunc(func(context.Context, string, any) (json.RawMessage, error) {
			return json.RawMessage(`{"ok":"yes"}`), nil
		})
		_, err := Call[AckResult](context.Background(), r, MethodAgentsUpdate, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decoding agents.update result")
	})
}

func TestRequestError_Error(t *testing.T) {
	tests := []struct {
		err  RequestError
		want string
	}{
		{RequestError{Code: "INVALID", Message: "name is required"}, "INVALID: name is required"},
		{RequestError{Message: "name is required"}, "name is required"},
		{RequestError{Code: "UNAVAILABLE"}, "UNAVAILABLE"},
		{RequestError{Method: "agents.list"}, "request failed: agents.list"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}
}

func TestAgentIdentity_UnmarshalKeepsExtraFields(t *testing.T) {
	var id AgentIdentity
	require.NoError(t, json.Unmarshal([]byte(`{"agentId":"main","name":"Claw","emoji":"🦀","theme":"space lobster","avatarUrl":"https://x/y.png"}`), &id))

	assert.Equal(t, "main", id.AgentID)
	assert.Equal(t, "Claw", id.Name)
	assert.Equal(t, "🦀", id.Emoji)
	require.Len(t, id.Extra, 2)
	assert.JSONEq(t, `"space lobster"`, string(id.Extra["theme"]))

	var bare AgentIdentity
	require.NoError(t, json.Unmarshal([]byte(`{"agentId":"ops"}`), &bare))
	assert.Nil(t, bare.Extra)
}

func TestAgentIdentity_MarshalWritesExtraFields(t *testing.T) {
	const wire = `{"agentId":"main","name":"Claw","emoji":"🦀","theme":"space lobster","avatarUrl":"https://x/y.png"}`
	var id AgentIdentity
	require.NoError(t, json.Unmarshal([]byte(wire), &id))

	out, err := json.Marshal(id)
	require.NoError(t, err)
	assert.JSONEq(t, wire, string(out))

	// Known fields win over a stale copy in Extra.
	id.Extra["name"] = json.RawMessage(`"Old"`)
	out, err = json.Marshal(&id)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"name":"Claw"`)
	assert.NotContains(t, string(out), `"Old"`)

	out, err = json.Marshal(AgentIdentity{AgentID: "ops"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"agentId":"ops"}`, string(out))
}

func TestAgentsList_Lookup(t *testing.T) {
	var nilList *AgentsList
	assert.False(t, nilList.Contains("a"))
	assert.Nil(t, nilList.Find("a"))
	assert.Nil(t, nilList.AgentIDs())

	list := &AgentsList{Agents: []AgentSummary{{ID: "a"}, {ID: "b", Name: "Bee"}}}
	assert.True(t, list.Contains("b"))
	assert.False(t, list.Contains(""))
	assert.Equal(t, "Bee", list.Find("b").Name)
}

func TestHandle(t *testing.T) {
	var zero Handle
	client, connected := zero.Current()
	assert.Nil(t, client)
	assert.False(t, connected)

	var nilHandle *Handle
	assert.False(t, nilHandle.Connected())

	r := requesterFunc(func(context.Context, string, any) (json.RawMessage, error) { return nil, nil })
	h := NewHandle(r)
	assert.True(t, h.Connected())

	h.SetConnected(false)
	client, connected = h.Current()
	assert.NotNil(t, client)
	assert.False(t, connected)
	assert.False(t, h.Connected())

	h.Clear()
	client, _ = h.Current()
	assert.Nil(t, client)
}
