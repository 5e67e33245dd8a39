// Package controller holds the dashboard's state-synchronization core.
//
// # Overview
//
// Controllers sit between the single gateway connection (gateway.Handle) and
// the state the presentation layer renders. Each controller owns one logical
// cache and exactly one busy flag plus one last-error string for it:
//
//   - IdentityCache: agent id -> gateway.AgentIdentity
//   - Agents: the agents list, the selected agent, and the agent mutations
//   - Files: workspace file list, contents, and drafts for one agent
//   - Config: the gateway config snapshot and the editable form
//   - Resource[T]: single-snapshot panels (skills, channels, cron)
//
// # Guards
//
// Every operation first reads the handle. Without a connected client, or
// while the cache is already busy, the call returns without doing anything;
// these are not errors and are only logged at debug level.
//
// # Snapshots
//
// Cached maps are never mutated after they are published. Writers build a new
// map and swap it in under the controller mutex, so the maps inside a
// snapshot stay valid and unchanged for as long as a reader holds them.
//
// # Concurrency
//
// The controller mutex is held only around field reads and writes, never
// across a gateway request. The busy flag is what keeps a cache to one
// in-flight fetch; requests on different caches proceed independently.
//
// # Errors
//
// Remote failures are stored as strings in the owning cache's error field.
// Only Agents.Update, Files.Save and Config.Save also return them.
package controller
