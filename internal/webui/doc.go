// Package webui serves the coven-dashboard browser UI.
//
// # Overview
//
// Pages are rendered on the server from controller snapshots. A GET triggers
// the guarded loads the page needs (agents list, identities, the active
// panel's resource) and renders whatever state the controllers hold once
// those calls settle. User intents are form POSTs that call one controller
// operation and redirect back (post/redirect/get).
//
// # Routes
//
//	GET  /                         overview: connection, counts, activity
//	GET  /agents                   list; redirects to the selected agent
//	GET  /agents/{id}?panel=...    agent detail with one panel
//	POST /agents                   create
//	POST /agents/{id}/update       update identity fields
//	POST /agents/{id}/delete       delete
//	POST /agents/{id}/files/{name} edit, reset, reload, or save a file
//	POST /agents/{id}/config       local config form edit
//	POST /config/save              write the config form back
//	GET  /api/agents               JSON snapshot for scripts
//
// # Security
//
// Every route except /login and /health requires a session (see package
// auth). Form posts carry a double-submit CSRF token; bearer-authenticated
// requests are exempt.
package webui
