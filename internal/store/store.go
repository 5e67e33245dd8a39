// ABOUTME: Store interface and data types for dashboard persistence
// ABOUTME: Defines UI settings keys, activity entries, and the Store interface

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested setting does not exist.
var ErrNotFound = errors.New("not found")

// Setting keys persisted between dashboard runs.
const (
	SettingLanguage   = "ui.language"
	SettingLastPanel  = "ui.last_panel"
	SettingLastAgent  = "ui.last_agent"
	SettingGatewayURL = "gateway.url"
	SettingSessionKey = "gateway.session_key"
)

// ActivityAction names a recorded dashboard operation.
type ActivityAction string

const (
	ActivityCreateAgent ActivityAction = "create_agent"
	ActivityUpdateAgent ActivityAction = "update_agent"
	ActivityDeleteAgent ActivityAction = "delete_agent"
	ActivitySaveFile    ActivityAction = "save_file"
	ActivitySaveConfig  ActivityAction = "save_config"
	ActivityConnect     ActivityAction = "connect"
	ActivityDisconnect  ActivityAction = "disconnect"
)

// Activity is one entry of the activity log shown on the overview.
type Activity struct {
	ID        string         `json:"id"`
	Action    ActivityAction `json:"action"`
	AgentID   string         `json:"agentId,omitempty"`
	OK        bool           `json:"ok"`
	Error     string         `json:"error,omitempty"`
	Detail    map[string]any `json:"detail,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// ActivityFilter narrows ListActivity.
type ActivityFilter struct {
	AgentID string // empty matches every agent
	Limit   int    // default 50, max 500
}

// Store persists UI settings and the activity log.
type Store interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	Settings(ctx context.Context) (map[string]string, error)

	AppendActivity(ctx context.Context, a *Activity) error
	ListActivity(ctx context.Context, f ActivityFilter) ([]Activity, error)

	Close() error
}

func normalizeActivityLimit(limit int) int {
	switch {
	case limit <= 0:
		return 50
	case limit > 500:
		return 500
	default:
		return limit
	}
}
