// ABOUTME: Payload and result shapes for the gateway operations the dashboard uses
// ABOUTME: Agents, identities, workspace files, skills, channels, cron, and config

package gateway

import "encoding/json"

// AgentIdentity is the self-reported identity of one agent.
// Fields the dashboard does not model are kept verbatim in Extra.
type AgentIdentity struct {
	AgentID string `json:"agentId"`
	Name    string `json:"name,omitempty"`
	Avatar  string `json:"avatar,omitempty"`
	Emoji   string `json:"emoji,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

var identityKnownFields = []string{"agentId", "name", "avatar", "emoji"}

// UnmarshalJSON decodes the known fields and collects the rest into Extra.
func (a *AgentIdentity) UnmarshalJSON(data []byte) error {
	type plain AgentIdentity
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, k := range identityKnownFields {
		delete(all, k)
	}
	if len(all) > 0 {
		p.Extra = all
	}

	*a = AgentIdentity(p)
	return nil
}

// MarshalJSON writes the known fields over the fields kept in Extra.
func (a AgentIdentity) MarshalJSON() ([]byte, error) {
	type plain AgentIdentity
	known, err := json.Marshal(plain(a))
	if err != nil {
		return nil, err
	}
	if len(a.Extra) == 0 {
		return known, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	all := make(map[string]json.RawMessage, len(a.Extra)+len(fields))
	for k, v := range a.Extra {
		all[k] = v
	}
	for k, v := range fields {
		all[k] = v
	}
	return json.Marshal(all)
}

// AgentIdentitySummary is the identity subset embedded in list entries.
type AgentIdentitySummary struct {
	Name      string `json:"name,omitempty"`
	Theme     string `json:"theme,omitempty"`
	Emoji     string `json:"emoji,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// AgentSummary is one entry of agents.list.
type AgentSummary struct {
	ID       string                `json:"id"`
	Name     string                `json:"name,omitempty"`
	Identity *AgentIdentitySummary `json:"identity,omitempty"`
}

// AgentsList is the agents.list result.
type AgentsList struct {
	DefaultID string         `json:"defaultId,omitempty"`
	MainKey   string         `json:"mainKey,omitempty"`
	Scope     string         `json:"scope,omitempty"`
	Agents    []AgentSummary `json:"agents"`
}

// Contains reports whether id names an agent in the list.
func (l *AgentsList) Contains(id string) bool {
	if l == nil || id == "" {
		return false
	}
	for _, a := range l.Agents {
		if a.ID == id {
			return true
		}
	}
	return false
}

// Find returns the entry for id, or nil.
func (l *AgentsList) Find(id string) *AgentSummary {
	if l == nil {
		return nil
	}
	for i := range l.Agents {
		if l.Agents[i].ID == id {
			return &l.Agents[i]
		}
	}
	return nil
}

// AgentIDs returns the ids in list order.
func (l *AgentsList) AgentIDs() []string {
	if l == nil {
		return nil
	}
	ids := make([]string, 0, len(l.Agents))
	for _, a := range l.Agents {
		ids = append(ids, a.ID)
	}
	return ids
}

// AgentIdentityParams is the agent.identity.get payload.
type AgentIdentityParams struct {
	AgentID string `json:"agentId"`
}

// CreateAgentParams is the agents.create payload.
type CreateAgentParams struct {
	Name      string `json:"name"`
	Workspace string `json:"workspace,omitempty"`
	Emoji     string `json:"emoji,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
}

// CreateAgentResult is the agents.create result.
type CreateAgentResult struct {
	OK        bool   `json:"ok"`
	AgentID   string `json:"agentId,omitempty"`
	Name      string `json:"name,omitempty"`
	Workspace string `json:"workspace,omitempty"`
}

// UpdateAgentParams is the agents.update payload.
type UpdateAgentParams struct {
	AgentID string `json:"agentId"`
	Name    string `json:"name,omitempty"`
	Avatar  string `json:"avatar,omitempty"`
	Emoji   string `json:"emoji,omitempty"`
	Model   string `json:"model,omitempty"`
}

// DeleteAgentParams is the agents.delete payload.
type DeleteAgentParams struct {
	AgentID     string `json:"agentId"`
	DeleteFiles bool   `json:"deleteFiles"`
}

// AckResult is the {ok} acknowledgement returned by mutations.
type AckResult struct {
	OK bool `json:"ok"`
}

// AgentFile is one workspace file of an agent.
type AgentFile struct {
	Name        string  `json:"name"`
	Path        string  `json:"path,omitempty"`
	Missing     bool    `json:"missing,omitempty"`
	Size        int64   `json:"size,omitempty"`
	UpdatedAtMs int64   `json:"updatedAtMs,omitempty"`
	Content     *string `json:"content,omitempty"`
}

// AgentFilesList is the agents.files.list result.
type AgentFilesList struct {
	AgentID   string      `json:"agentId"`
	Workspace string      `json:"workspace"`
	Files     []AgentFile `json:"files"`
}

// AgentFileResult is the agents.files.get and agents.files.set result.
type AgentFileResult struct {
	OK        bool      `json:"ok,omitempty"`
	AgentID   string    `json:"agentId"`
	Workspace string    `json:"workspace"`
	File      AgentFile `json:"file"`
}

// AgentFileParams addresses one workspace file.
type AgentFileParams struct {
	AgentID string `json:"agentId"`
	Name    string `json:"name,omitempty"`
}

// SetAgentFileParams is the agents.files.set payload.
type SetAgentFileParams struct {
	AgentID string `json:"agentId"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// SkillStatus is one entry of a skills report.
type SkillStatus struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source,omitempty"`
	Emoji       string `json:"emoji,omitempty"`
	Eligible    bool   `json:"eligible"`
	Disabled    bool   `json:"disabled,omitempty"`
	Bundled     bool   `json:"bundled,omitempty"`
}

// SkillStatusReport is the skills.status result.
type SkillStatusReport struct {
	WorkspaceDir     string        `json:"workspaceDir,omitempty"`
	ManagedSkillsDir string        `json:"managedSkillsDir,omitempty"`
	Skills           []SkillStatus `json:"skills"`
}

// ChannelsStatusParams is the channels.status payload.
type ChannelsStatusParams struct {
	Probe     bool  `json:"probe"`
	TimeoutMs int64 `json:"timeoutMs,omitempty"`
}

// ChannelsStatus is the channels.status result. Per-channel detail is
// provider specific and kept undecoded.
type ChannelsStatus struct {
	Ts            int64                      `json:"ts"`
	ChannelOrder  []string                   `json:"channelOrder"`
	ChannelLabels map[string]string          `json:"channelLabels,omitempty"`
	Channels      map[string]json.RawMessage `json:"channels,omitempty"`
}

// CronStatus is the cron.status result.
type CronStatus struct {
	Enabled      bool   `json:"enabled"`
	Jobs         int    `json:"jobs"`
	NextWakeAtMs *int64 `json:"nextWakeAtMs,omitempty"`
}

// CronJobState is the runtime state of one cron job.
type CronJobState struct {
	NextRunAtMs *int64 `json:"nextRunAtMs,omitempty"`
	LastRunAtMs *int64 `json:"lastRunAtMs,omitempty"`
	LastStatus  string `json:"lastStatus,omitempty"`
	LastError   string `json:"lastError,omitempty"`
}

// CronJob is one scheduled job.
type CronJob struct {
	ID          string          `json:"id"`
	AgentID     string          `json:"agentId,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Enabled     bool            `json:"enabled"`
	Schedule    json.RawMessage `json:"schedule,omitempty"`
	State       CronJobState    `json:"state"`
}

// CronListParams is the cron.list payload.
type CronListParams struct {
	IncludeDisabled bool `json:"includeDisabled"`
}

// CronJobs is the cron.list result.
type CronJobs struct {
	Jobs []CronJob `json:"jobs"`
}

// ConfigSnapshot is the config.get result.
type ConfigSnapshot struct {
	Path   string         `json:"path,omitempty"`
	Exists bool           `json:"exists"`
	Raw    string         `json:"raw,omitempty"`
	Hash   string         `json:"hash,omitempty"`
	Valid  bool           `json:"valid"`
	Config map[string]any `json:"config,omitempty"`
}

// SetConfigParams is the config.set payload.
type SetConfigParams struct {
	Raw      string `json:"raw"`
	BaseHash string `json:"baseHash,omitempty"`
}
