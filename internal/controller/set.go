// ABOUTME: Bundles every dashboard controller around one connection handle
// ABOUTME: The shell resets the whole set when the gateway connection drops

package controller

import (
	"log/slog"

	"github.com/2389/coven-dashboard/internal/gateway"
)

// SetOptions tunes the controllers built by NewSet.
type SetOptions struct {
	ChannelsProbe     bool
	ChannelsTimeoutMs int64
}

// Set holds one instance of each controller, all sharing a handle.
type Set struct {
	Handle     *gateway.Handle
	Identities *IdentityCache
	Agents     *Agents
	Files      *Files
	Skills     *Skills
	Channels   *Channels
	Cron       *Cron
	Config     *Config
}

// NewSet creates empty controllers bound to handle.
func NewSet(handle *gateway.Handle, opts SetOptions, logger *slog.Logger) *Set {
	if logger == nil {
		logger = slog.Default()
	}
	identities := NewIdentityCache(handle, logger.With("component", "identity-cache"))
	return &Set{
		Handle:     handle,
		Identities: identities,
		Agents:     NewAgents(handle, identities, logger.With("component", "agents")),
		Files:      NewFiles(handle, logger.With("component", "agent-files")),
		Skills:     NewSkills(handle, logger.With("component", "skills")),
		Channels:   NewChannels(handle, opts.ChannelsProbe, opts.ChannelsTimeoutMs, logger.With("component", "channels")),
		Cron:       NewCron(handle, logger.With("component", "cron")),
		Config:     NewConfig(handle, logger.With("component", "config")),
	}
}

// Reset empties every controller.
func (s *Set) Reset() {
	s.Identities.Reset()
	s.Agents.Reset()
	s.Files.Reset()
	s.Skills.Reset()
	s.Channels.Reset()
	s.Cron.Reset()
	s.Config.Reset()
}
