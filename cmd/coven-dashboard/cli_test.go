// ABOUTME: Tests for the coven-dashboard CLI commands and rendering helpers
// ABOUTME: Agent commands run against an in-process WebSocket gateway

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/2389/coven-dashboard/internal/auth"
	"github.com/2389/coven-dashboard/internal/config"
	"github.com/2389/coven-dashboard/internal/gateway"
	"github.com/2389/coven-dashboard/internal/view"
)

const testSecret = "cli-test-secret-0123456789abcdefghij"

func init() {
	color.NoColor = true
}

type wireRequest struct {
	ID     string          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// stubGateway answers each method from a fixed table and records calls.
type stubGateway struct {
	srv *httptest.Server

	mu      sync.Mutex
	methods []string
}

func newStubGateway(t *testing.T, answers map[string]map[string]any) *stubGateway {
	t.Helper()
	g := &stubGateway{}
	g.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()
		ctx := context.Background()
		for {
			var req wireRequest
			if err := wsjson.Read(ctx, conn, &req); err != nil {
				return
			}
			g.mu.Lock()
			g.methods = append(g.methods, req.Method)
			g.mu.Unlock()

			res := map[string]any{"type": "res", "id": req.ID, "ok": true, "payload": nil}
			if answer, ok := answers[req.Method]; ok {
				for k, v := range answer {
					res[k] = v
				}
			}
			if err := wsjson.Write(ctx, conn, res); err != nil {
				return
			}
		}
	}))
	t.Cleanup(g.srv.Close)
	return g
}

func (g *stubGateway) url() string {
	return "ws" + strings.TrimPrefix(g.srv.URL, "http")
}

func (g *stubGateway) calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.methods...)
}

func writeConfig(t *testing.T, gatewayURL string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "dashboard.yaml")
	content := "gateway:\n" +
		"  url: \"" + gatewayURL + "\"\n" +
		"  request_timeout: \"2s\"\n" +
		"  connect_timeout: \"2s\"\n" +
		"server:\n" +
		"  http_addr: \"127.0.0.1:8390\"\n" +
		"database:\n" +
		"  path: \"" + filepath.Join(dir, "dashboard.db") + "\"\n" +
		"auth:\n" +
		"  jwt_secret: \"" + testSecret + "\"\n" +
		"logging:\n" +
		"  level: \"error\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func agentsListAnswer() map[string]any {
	return map[string]any{"payload": map[string]any{
		"defaultId": "main",
		"agents": []map[string]any{
			{"id": "main", "name": "Main"},
			{"id": "ops", "identity": map[string]any{"emoji": "🛠"}},
		},
	}}
}

func TestVersionCommand(t *testing.T) {
	out, _, err := runCLI(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, version+"\n", out)
}

func TestAgentsListJSON(t *testing.T) {
	gw := newStubGateway(t, map[string]map[string]any{
		gateway.MethodAgentsList: agentsListAnswer(),
		gateway.MethodAgentIdentityGet: {"payload": map[string]any{
			"agentId": "main", "name": "Main Agent", "emoji": "🤖",
		}},
	})
	cfgPath := writeConfig(t, gw.url())

	out, _, err := runCLI(t, "", "--config", cfgPath, "agents", "list", "--json")
	require.NoError(t, err)

	var rows []agentRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "main", rows[0].ID)
	assert.True(t, rows[0].Default)
	assert.Equal(t, "🤖", rows[0].Emoji)
	assert.False(t, rows[1].Default)

	calls := gw.calls()
	assert.Equal(t, gateway.MethodAgentsList, calls[0])
	assert.Equal(t, 2, countOf(calls, gateway.MethodAgentIdentityGet))
}

func TestAgentsUpdateReturnsGatewayError(t *testing.T) {
	gw := newStubGateway(t, map[string]map[string]any{
		gateway.MethodAgentsUpdate: {"ok": false, "error": map[string]any{
			"code": "NOT_FOUND", "message": "unknown agent",
		}},
	})
	cfgPath := writeConfig(t, gw.url())

	_, _, err := runCLI(t, "", "--config", cfgPath, "agents", "update", "ghost", "--name", "Ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown agent")
	assert.NotContains(t, gw.calls(), gateway.MethodAgentsList)
}

func TestAgentsUpdateRequiresAField(t *testing.T) {
	_, _, err := runCLI(t, "", "agents", "update", "main")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to update")
}

func TestAgentsCreatePrintsNewID(t *testing.T) {
	gw := newStubGateway(t, map[string]map[string]any{
		gateway.MethodAgentsCreate: {"payload": map[string]any{"ok": true, "agentId": "scout"}},
		gateway.MethodAgentsList: {"payload": map[string]any{
			"defaultId": "main",
			"agents":    []map[string]any{{"id": "main"}, {"id": "scout"}},
		}},
	})
	cfgPath := writeConfig(t, gw.url())

	out, _, err := runCLI(t, "", "--config", cfgPath, "agents", "create", "--name", "Scout")
	require.NoError(t, err)
	assert.Equal(t, "created agent scout\n", out)
	assert.Equal(t, []string{
		gateway.MethodAgentsCreate, gateway.MethodAgentsList, gateway.MethodAgentIdentityGet,
	}, gw.calls())
}

func TestAgentsDeleteReportsRecordedError(t *testing.T) {
	gw := newStubGateway(t, map[string]map[string]any{
		gateway.MethodAgentsDelete: {"ok": false, "error": map[string]any{"message": "agent is default"}},
	})
	cfgPath := writeConfig(t, gw.url())

	_, _, err := runCLI(t, "", "--config", cfgPath, "agents", "delete", "main")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent is default")
}

func TestIdentityCommand(t *testing.T) {
	gw := newStubGateway(t, map[string]map[string]any{
		gateway.MethodAgentIdentityGet: {"payload": map[string]any{
			"agentId": "main", "name": "Main", "theme": "calm",
		}},
	})
	cfgPath := writeConfig(t, gw.url())

	out, _, err := runCLI(t, "", "--config", cfgPath, "identity", "main")
	require.NoError(t, err)
	assert.Contains(t, out, "Main")
	assert.Contains(t, out, "theme: calm")
	assert.Contains(t, out, "emoji:  -")
}

func TestAgentsCommandsFailWithoutGateway(t *testing.T) {
	cfgPath := writeConfig(t, "ws://127.0.0.1:1/ws")
	_, _, err := runCLI(t, "", "--config", cfgPath, "agents", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connecting to gateway")
}

func TestTokenCommand(t *testing.T) {
	cfgPath := writeConfig(t, "ws://gateway.test/ws")

	out, _, err := runCLI(t, "", "--config", cfgPath, "token", "--operator", "ada", "--ttl", "1h")
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	operator, err := auth.NewJWTVerifier([]byte(testSecret)).Verify(lines[0])
	require.NoError(t, err)
	assert.Equal(t, "ada", operator)
	assert.Contains(t, out, "http://127.0.0.1:8390/login?token=")
	assert.Contains(t, out, "expires in 1h0m0s")
}

func TestHashPasswordCommand(t *testing.T) {
	out, _, err := runCLI(t, "hunter2\n", "hash-password")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter2")))

	_, _, err = runCLI(t, "\n", "hash-password")
	assert.Error(t, err)
}

func TestLoginURL(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{HTTPAddr: "127.0.0.1:8390"}}
	assert.Equal(t, "http://127.0.0.1:8390/login?token=a.b.c", loginURL(cfg, "a.b.c"))

	cfg.Tailscale = config.TailscaleConfig{Enabled: true, Hostname: "dash", HTTPS: true}
	u, err := url.Parse(loginURL(cfg, "a.b.c"))
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "dash", u.Host)
	assert.Equal(t, "a.b.c", u.Query().Get("token"))
}

func TestRenderAgentsTable(t *testing.T) {
	list := &gateway.AgentsList{
		DefaultID: "main",
		Agents: []gateway.AgentSummary{
			{ID: "main", Name: "Main"},
			{ID: "ops"},
		},
	}
	identities := map[string]gateway.AgentIdentity{"ops": {AgentID: "ops", Name: "Operations", Emoji: "🛠"}}

	out := renderAgentsTable(list, identities)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "Operations")
	assert.Contains(t, out, "🛠")
	assert.Contains(t, out, view.BadgeDefault)

	assert.Contains(t, renderAgentsTable(&gateway.AgentsList{}, nil), "No agents.")
	assert.Contains(t, renderAgentsTable(nil, nil), "No agents.")
}

func TestColorHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.LoggingConfig{Level: "info", Format: "text"}, &buf)

	logger.Debug("hidden")
	logger.With("component", "agents").WithGroup("req").Info("loaded", "count", 2)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INF loaded")
	assert.Contains(t, out, "component=agents")
	assert.Contains(t, out, "req.count=2")
}

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)
	logger.Info("skipped")
	logger.Warn("kept", "k", "v")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "v", entry["k"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func countOf(calls []string, method string) int {
	n := 0
	for _, c := range calls {
		if c == method {
			n++
		}
	}
	return n
}
