// Package dashboard orchestrates the coven-dashboard process.
//
// # Overview
//
// The Dashboard owns everything that outlives a single request: the store,
// the gateway connection handle, the controller set, and the HTTP server
// that renders the web UI.
//
//	type Dashboard struct {
//	    config      *config.Config
//	    store       store.Store
//	    handle      *gateway.Handle
//	    controllers *controller.Set
//	    web         *webui.Server
//	    httpServer  *http.Server
//	    tsnetServer *tsnet.Server
//	}
//
// # Connection Loop
//
// Run keeps one WebSocket connection to the gateway open:
//
//  1. Dial with gateway.connect_timeout and the configured token
//  2. Publish the client on the handle and warm the agents list
//  3. Wait for the connection to drop or for shutdown
//  4. Clear the handle, then Reset every controller
//  5. Sleep gateway.reconnect_delay and start over
//
// Controllers never see the client directly; they read the handle once per
// operation, so a dropped connection turns later intents into no-ops.
// Connects and disconnects are written to the activity log.
//
// # Listeners
//
// Without Tailscale the UI listens on server.http_addr. With
// tailscale.enabled a tsnet node joins the tailnet under tailscale.hostname
// and serves on :80, or on :443 with tailnet certificates when
// tailscale.https is set.
//
// # Shutdown
//
// Canceling the Run context stops the connection loop, then the HTTP server
// is shut down with a 5 second grace period, the tsnet node is closed and the
// store is closed.
package dashboard
