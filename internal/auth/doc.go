// Package auth provides session authentication for coven-dashboard.
//
// # Sessions
//
// A dashboard session is an HS256 JWT signed with auth.jwt_secret. The "sub"
// claim names the operator and the audience is fixed to the dashboard.
// Tokens reach the server in one of two ways:
//
//   - Session cookie, set after password login or token exchange at /login
//   - Authorization: Bearer header, for scripted access to /api/ routes
//
// # Password Login
//
// When auth.password_hash holds a bcrypt hash, /login accepts a password.
// Generate the hash with:
//
//	coven-dashboard hash-password
//
// # CLI Tokens
//
// Without a password, operators mint a token on the host:
//
//	coven-dashboard token --operator alice --ttl 12h
//
// and open /login?token=... once to turn it into a cookie.
//
// # Context
//
// Authenticated handlers read the operator with OperatorFromContext.
package auth
