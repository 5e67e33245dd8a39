// Package config handles configuration loading for coven-dashboard.
//
// # Overview
//
// Configuration is loaded from a YAML file with environment variable
// expansion. Missing optional values get defaults; Validate reports the
// first problem with the rest.
//
// # Configuration File
//
// Location:
//
//  1. Path from the COVEN_DASHBOARD_CONFIG environment variable
//  2. ~/.config/coven/dashboard.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	gateway:
//	  token: "${COVEN_GATEWAY_TOKEN}"
//
// Unset variables expand to the empty string.
//
// # Duration Parsing
//
// Duration values use Go's time.ParseDuration syntax:
//
//	gateway:
//	  request_timeout: "30s"
//	  connect_timeout: "10s"
//	  reconnect_delay: "5s"
//	auth:
//	  session_ttl: "24h"
//
// # Configuration Sections
//
//	gateway:
//	  url: "ws://127.0.0.1:18789"   # required, ws:// or wss://
//	  token: "..."
//	server:
//	  http_addr: "127.0.0.1:8390"
//	tailscale:
//	  enabled: false
//	  hostname: "coven-dashboard"   # required when enabled
//	  auth_key: "${TS_AUTHKEY}"
//	  state_dir: "~/.local/share/coven/tsnet"
//	  ephemeral: false
//	database:
//	  path: "~/.local/share/coven/dashboard.db"
//	auth:
//	  jwt_secret: "${COVEN_DASHBOARD_JWT_SECRET}"  # at least 32 characters
//	logging:
//	  level: "info"                 # debug, info, warn, error
//	  format: "text"                # text or json
//	ui:
//	  language: "en"
//	  default_panel: "overview"
package config
