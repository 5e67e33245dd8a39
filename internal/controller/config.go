// ABOUTME: Gateway config controller with an editable per-agent form
// ABOUTME: Loads config.get, tracks local edits, and saves them through config.set

package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"sync"

	"github.com/2389/coven-dashboard/internal/gateway"
)

// Config owns the last config snapshot and the form the user edits.
type Config struct {
	handle *gateway.Handle
	logger *slog.Logger

	mu       sync.Mutex
	loading  bool
	saving   bool
	lastErr  string
	snapshot *gateway.ConfigSnapshot
	form     map[string]any
	dirty    bool
}

// ConfigSnapshot is a read-only view of the config state.
// Form must not be modified.
type ConfigSnapshot struct {
	Loading  bool
	Saving   bool
	Error    string
	Snapshot *gateway.ConfigSnapshot
	Form     map[string]any
	Dirty    bool
}

// NewConfig creates an empty config controller.
func NewConfig(handle *gateway.Handle, logger *slog.Logger) *Config {
	if logger == nil {
		logger = slog.Default().With("component", "config")
	}
	return &Config{handle: handle, logger: logger}
}

// Load fetches the config and replaces the form, discarding local edits.
func (c *Config) Load(ctx context.Context) {
	client, ok := connectedClient(c.handle)
	if !ok {
		return
	}
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return
	}
	c.loading = true
	c.lastErr = ""
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()

	c.fetch(ctx, client)
}

// Save serializes the form and writes it with config.set against the hash of
// the loaded snapshot, then reloads. The failure is returned as well as recorded.
func (c *Config) Save(ctx context.Context) error {
	client, ok := connectedClient(c.handle)
	if !ok {
		return nil
	}

	c.mu.Lock()
	if c.saving || c.form == nil {
		c.mu.Unlock()
		return nil
	}
	form := c.form
	baseHash := ""
	if c.snapshot != nil {
		baseHash = c.snapshot.Hash
	}
	c.saving = true
	c.lastErr = ""
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.saving = false
		c.mu.Unlock()
	}()

	raw, err := json.MarshalIndent(form, "", "  ")
	if err != nil {
		err = fmt.Errorf("encoding config: %w", err)
		c.fail(err)
		return err
	}

	res, err := gateway.Call[gateway.AckResult](ctx, client, gateway.MethodConfigSet,
		gateway.SetConfigParams{Raw: string(raw), BaseHash: baseHash})
	if err != nil {
		c.fail(err)
		return err
	}
	if res == nil || !res.OK {
		c.logger.Debug("config save not acknowledged")
		return nil
	}
	c.logger.Info("config saved", "bytes", len(raw))

	c.mu.Lock()
	c.dirty = false
	c.mu.Unlock()
	c.fetch(ctx, client)
	return nil
}

// SetModel sets the agent's primary model; an empty model inherits the default.
func (c *Config) SetModel(agentID, model string) {
	c.edit(agentID, func(entry map[string]any) { setModelPrimary(entry, model) })
}

// SetModelFallbacks replaces the agent's fallback model chain.
func (c *Config) SetModelFallbacks(agentID string, fallbacks []string) {
	c.edit(agentID, func(entry map[string]any) { setModelFallbacks(entry, fallbacks) })
}

// SetToolsProfile sets the agent's tool profile, optionally dropping its allow list.
func (c *Config) SetToolsProfile(agentID, profile string, clearAllow bool) {
	c.edit(agentID, func(entry map[string]any) { setToolsProfile(entry, profile, clearAllow) })
}

// SetToolsOverrides replaces the agent's extra allowed and denied tools.
func (c *Config) SetToolsOverrides(agentID string, alsoAllow, deny []string) {
	c.edit(agentID, func(entry map[string]any) { setToolsOverrides(entry, alsoAllow, deny) })
}

// ToggleSkill enables or disables one skill for the agent. available lists
// every skill the agent could use and seeds the allowlist on first edit.
func (c *Config) ToggleSkill(agentID, skill string, enabled bool, available []string) {
	c.edit(agentID, func(entry map[string]any) { toggleSkill(entry, skill, enabled, available) })
}

// ClearSkills removes the agent's skill allowlist so every skill is enabled.
func (c *Config) ClearSkills(agentID string) {
	c.edit(agentID, func(entry map[string]any) { delete(entry, "skills") })
}

// DisableAllSkills sets an empty skill allowlist.
func (c *Config) DisableAllSkills(agentID string) {
	c.edit(agentID, func(entry map[string]any) { entry["skills"] = []any{} })
}

// Snapshot returns the current config state.
func (c *Config) Snapshot() ConfigSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ConfigSnapshot{
		Loading:  c.loading,
		Saving:   c.saving,
		Error:    c.lastErr,
		Snapshot: c.snapshot,
		Form:     c.form,
		Dirty:    c.dirty,
	}
}

// Reset clears the snapshot and form.
func (c *Config) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	c.saving = false
	c.lastErr = ""
	c.snapshot = nil
	c.form = nil
	c.dirty = false
}

// edit applies fn to a copy of the agent's entry. Edits before the first
// successful load are ignored.
func (c *Config) edit(agentID string, fn func(entry map[string]any)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.form == nil || agentID == "" {
		return
	}
	c.form = editAgentEntry(c.form, agentID, fn)
	c.dirty = true
}

func (c *Config) fetch(ctx context.Context, client gateway.Requester) {
	res, err := gateway.Call[gateway.ConfigSnapshot](ctx, client, gateway.MethodConfigGet, nil)
	if err != nil {
		c.fail(err)
		return
	}
	if res == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = res
	c.form = maps.Clone(res.Config)
	if c.form == nil {
		c.form = map[string]any{}
	}
	c.dirty = false
}

func (c *Config) fail(err error) {
	c.logger.Warn("config request failed", "error", err)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = describe(err)
}
