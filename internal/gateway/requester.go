// ABOUTME: Requester interface, typed call helper, and gateway error types
// ABOUTME: The single capability controllers depend on to reach the gateway

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Gateway method names consumed by the dashboard.
const (
	MethodAgentIdentityGet = "agent.identity.get"
	MethodAgentsList       = "agents.list"
	MethodAgentsCreate     = "agents.create"
	MethodAgentsUpdate     = "agents.update"
	MethodAgentsDelete     = "agents.delete"
	MethodAgentsFilesList  = "agents.files.list"
	MethodAgentsFilesGet   = "agents.files.get"
	MethodAgentsFilesSet   = "agents.files.set"
	MethodSkillsStatus     = "skills.status"
	MethodChannelsStatus   = "channels.status"
	MethodCronStatus       = "cron.status"
	MethodCronList         = "cron.list"
	MethodConfigGet        = "config.get"
	MethodConfigSet        = "config.set"
)

var (
	// ErrNotConnected is returned when a request is issued without a live connection.
	ErrNotConnected = errors.New("gateway not connected")

	// ErrClosed is returned for requests still pending when the connection closes.
	ErrClosed = errors.New("gateway connection closed")
)

// Requester issues one request against the gateway and returns the raw payload.
// A JSON null payload means the operation succeeded with no result.
type Requester interface {
	Request(ctx context.Context, method string, params any) (json.RawMessage, error)
}

// RequestError is a failure reported by the gateway for a specific request.
type RequestError struct {
	Method  string
	Code    string
	Message string
}

func (e *RequestError) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	case e.Message != "":
		return e.Message
	case e.Code != "":
		return e.Code
	default:
		return "request failed: " + e.Method
	}
}

// Call issues a request and decodes the payload into T.
// It returns nil without error when the payload is empty or JSON null.
func Call[T any](ctx context.Context, r Requester, method string, params any) (*T, error) {
	raw, err := r.Request(ctx, method, params)
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, nil
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding %s result: %w", method, err)
	}
	return &out, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
