// ABOUTME: Scripted in-memory gateway used by the controller tests
// ABOUTME: Records every call and lets tests hold a request open to observe busy flags

package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/2389/coven-dashboard/internal/gateway"
)

type call struct {
	Method string
	Params any
}

type handlerFunc func(ctx context.Context, params any) (any, error)

// fakeGateway answers requests from per-method handlers. A handler's result
// is JSON encoded; a nil result becomes a null payload.
type fakeGateway struct {
	mu       sync.Mutex
	calls    []call
	handlers map[string]handlerFunc
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{handlers: map[string]handlerFunc{}}
}

func (f *fakeGateway) on(method string, h handlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method] = h
}

// reply registers a fixed result for method.
func (f *fakeGateway) reply(method string, result any) {
	f.on(method, func(context.Context, any) (any, error) { return result, nil })
}

// fail registers a fixed error for method.
func (f *fakeGateway) fail(method string, err error) {
	f.on(method, func(context.Context, any) (any, error) { return nil, err })
}

func (f *fakeGateway) Request(ctx context.Context, method string, params any) (json.RawMessage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{Method: method, Params: params})
	h := f.handlers[method]
	f.mu.Unlock()

	if h == nil {
		return nil, fmt.Errorf("unexpected method %s", method)
	}
	res, err := h(ctx, params)
	if err != nil {
		return nil, err
	}
	return json.Marshal(res)
}

func (f *fakeGateway) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Method
	}
	return out
}

func (f *fakeGateway) callsTo(method string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// gate holds a handler open until released, signalling when it was entered.
type gate struct {
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}, 16), release: make(chan struct{})}
}

func (g *gate) wrap(h handlerFunc) handlerFunc {
	return func(ctx context.Context, params any) (any, error) {
		g.entered <- struct{}{}
		<-g.release
		return h(ctx, params)
	}
}

func (g *gate) waitEntered(t *testing.T) {
	t.Helper()
	<-g.entered
}

func (g *gate) open() { close(g.release) }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func connectedHandle(t *testing.T, fg *fakeGateway) *gateway.Handle {
	t.Helper()
	h := gateway.NewHandle(fg)
	require.True(t, h.Connected())
	return h
}

func identityHandler(ctx context.Context, params any) (any, error) {
	p := params.(gateway.AgentIdentityParams)
	return gateway.AgentIdentity{AgentID: p.AgentID, Name: "name-" + p.AgentID}, nil
}

func agentsList(defaultID string, ids ...string) gateway.AgentsList {
	list := gateway.AgentsList{DefaultID: defaultID, Agents: []gateway.AgentSummary{}}
	for _, id := range ids {
		list.Agents = append(list.Agents, gateway.AgentSummary{ID: id})
	}
	return list
}
