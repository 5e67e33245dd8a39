// Package gateway is the dashboard's side of the remote agent gateway.
//
// # Overview
//
// Everything the dashboard knows about agents comes from a single long-lived
// connection to the gateway. This package owns that connection and exposes it
// through one capability:
//
//	Request(ctx, method, params) (json.RawMessage, error)
//
// The Requester interface is what controllers depend on; Client is the
// WebSocket implementation and tests substitute scripted fakes.
//
// # Handle
//
// Handle is the connection handle shared between the application shell and
// the controllers. The shell swaps the client in and out on connect and
// disconnect; controllers read it once per call:
//
//	client, connected := handle.Current()
//	if client == nil || !connected {
//	    return
//	}
//
// # Wire Format
//
// Requests and responses are JSON text frames correlated by ID:
//
//	{"type":"req","id":"<uuid>","method":"agents.list","params":{}}
//	{"type":"res","id":"<uuid>","ok":true,"payload":{...}}
//	{"type":"res","id":"<uuid>","ok":false,"error":{"code":"NOT_FOUND","message":"..."}}
//
// Server-pushed frames have type "event" and are handed to the OnEvent hook.
//
// # Typed Calls
//
// Call decodes a payload into a concrete result type and maps a JSON null
// payload to a nil pointer, which callers treat as "no result":
//
//	identity, err := gateway.Call[gateway.AgentIdentity](ctx, client, gateway.MethodAgentIdentityGet, params)
package gateway
