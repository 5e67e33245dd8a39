// Package store provides persistent storage for the dashboard using SQLite.
//
// # Overview
//
// The dashboard keeps very little state of its own; everything about agents
// lives on the gateway. What it does persist:
//
//   - Settings: UI preferences such as language, last panel, last agent
//   - Activity: an append-only log of mutations (create, update, delete,
//     file and config saves) with their outcome, shown on the overview page
//
// SQLiteStore is the production implementation on modernc.org/sqlite (pure
// Go, no cgo). MockStore is an in-memory implementation for tests.
//
// # Timestamps
//
// Activity timestamps are stored as fixed-width UTC strings so that ORDER BY
// on the text column is chronological.
package store
