// ABOUTME: GET handlers for the login, overview, and agents pages
// ABOUTME: Each page triggers guarded controller loads, then renders the resulting snapshots

package webui

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/2389/coven-dashboard/internal/auth"
	"github.com/2389/coven-dashboard/internal/gateway"
	"github.com/2389/coven-dashboard/internal/store"
	"github.com/2389/coven-dashboard/internal/view"
)

const overviewActivityLimit = 20

type loginData struct {
	baseData
	Error           string
	PasswordEnabled bool
}

type overviewData struct {
	baseData
	GatewayURL        string
	ConnectedFor      string
	LastError         string
	AuthHint          string
	AgentCount        int
	CronNextWake      string
	ChannelsRefreshed string
	Activity          []activityRow
}

type activityRow struct {
	When    string
	Action  string
	AgentID string
	OK      bool
	Error   string
}

type agentsData struct {
	baseData
	Loading bool
	Error   string
	Agents  []agentRow
	Detail  *agentDetail
}

type agentRow struct {
	ID             string
	Label          string
	Badge          string
	Emoji          string
	AvatarURL      string
	AvatarFallback string
	Selected       bool
}

type panelTab struct {
	Panel  view.Panel
	Active bool
}

type agentDetail struct {
	ID             string
	Name           string
	Emoji          string
	AvatarURL      string
	AvatarFallback string
	Theme          string
	Badge          string
	IdentityError  string

	Panel   view.Panel
	Tabs    []panelTab
	Context view.AgentContext

	ConfigLoaded  bool
	ConfigLoading bool
	ConfigSaving  bool
	ConfigDirty   bool
	ConfigError   string
	ModelPrimary  string
	Fallbacks     string
	Tools         view.Tools

	Files    filesPanel
	Skills   skillsPanel
	Channels channelsPanel
	Cron     cronPanel
}

type filesPanel struct {
	Loading   bool
	Saving    bool
	Error     string
	Workspace string
	Files     []fileRow
	Active    string
	Draft     string
	Dirty     bool
	Preview   template.HTML
}

type fileRow struct {
	Name    string
	Missing bool
	Size    int64
	Updated string
	Active  bool
	Dirty   bool
}

type skillsPanel struct {
	Loading     bool
	Error       string
	Filter      string
	Allowlisted bool
	Skills      []skillRow
}

type skillRow struct {
	Name        string
	Description string
	Source      string
	Emoji       string
	Eligible    bool
	Enabled     bool
}

type channelsPanel struct {
	Loading     bool
	Error       string
	LastSuccess string
	Channels    []channelRow
}

type channelRow struct {
	ID    string
	Label string
}

type cronPanel struct {
	Loading  bool
	Error    string
	Enabled  bool
	NextWake string
	Jobs     []cronRow
}

type cronRow struct {
	Name       string
	Enabled    bool
	NextRun    string
	LastRun    string
	LastStatus string
	LastError  string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	// A CLI-minted token turns into a session cookie.
	if token := r.URL.Query().Get("token"); token != "" {
		if _, err := s.sessions.Verify(token); err != nil {
			s.renderLogin(w, r, "Invalid or expired token")
			return
		}
		s.sessions.SetCookie(w, token)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.renderLogin(w, r, "")
}

func (s *Server) renderLogin(w http.ResponseWriter, r *http.Request, errMsg string) {
	data := loginData{
		baseData:        s.base(r, "Login"),
		Error:           errMsg,
		PasswordEnabled: s.sessions.PasswordEnabled(),
	}
	s.render(w, "login", data.Lang, data)
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	info := s.opts.Status()

	if s.ctl.Agents.Snapshot().List == nil {
		s.ctl.Agents.Load(ctx)
	}
	s.ctl.Cron.Load(ctx, "")

	data := overviewData{
		baseData:   s.base(r, "Overview"),
		GatewayURL: info.URL,
		LastError:  info.LastError,
		AuthHint:   view.AuthHint(info.Connected, info.LastError, info.HasToken),
	}
	if info.Connected && !info.Since.IsZero() {
		data.ConnectedFor = view.HumanDuration(s.now().Sub(info.Since))
	}
	if list := s.ctl.Agents.Snapshot().List; list != nil {
		data.AgentCount = len(list.Agents)
	}
	data.CronNextWake = "n/a"
	if cron := s.ctl.Cron.Snapshot().Value; cron != nil && cron.Status != nil {
		data.CronNextWake = view.RelativeMs(cron.Status.NextWakeAtMs, s.now())
	}
	data.ChannelsRefreshed = s.relative(s.ctl.Channels.Snapshot().LastSuccess)

	activity, err := s.store.ListActivity(ctx, store.ActivityFilter{Limit: overviewActivityLimit})
	if err != nil {
		s.logger.Warn("failed to list activity", "error", err)
	}
	for _, a := range activity {
		data.Activity = append(data.Activity, activityRow{
			When:    s.relative(a.Timestamp),
			Action:  string(a.Action),
			AgentID: a.AgentID,
			OK:      a.OK,
			Error:   a.Error,
		})
	}

	s.render(w, "overview", data.Lang, data)
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s.ctl.Agents.Load(ctx)
	s.loadIdentities(ctx)

	if selected := s.ctl.Agents.SelectedID(); selected != "" {
		http.Redirect(w, r, agentPath(selected, ""), http.StatusSeeOther)
		return
	}
	s.renderAgents(w, r, "")
}

func (s *Server) handleAgent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agentID := chi.URLParam(r, "id")

	if s.ctl.Agents.Snapshot().List == nil {
		s.ctl.Agents.Load(ctx)
	}
	s.ctl.Agents.Select(agentID)
	if s.ctl.Agents.SelectedID() != agentID {
		http.Redirect(w, r, withFlash("/agents", "Unknown agent: "+agentID), http.StatusSeeOther)
		return
	}
	s.loadIdentities(ctx)
	s.ctl.Identities.Load(ctx, agentID, false)
	if s.ctl.Config.Snapshot().Form == nil {
		s.ctl.Config.Load(ctx)
	}

	panel := s.defaultPanel(ctx)
	if p := r.URL.Query().Get("panel"); p != "" {
		panel = view.ParsePanel(p)
	}
	s.remember(ctx, store.SettingLastPanel, string(panel))
	s.remember(ctx, store.SettingLastAgent, agentID)

	switch panel {
	case view.PanelFiles:
		s.ctl.Files.LoadList(ctx, agentID)
		if name := r.URL.Query().Get("file"); name != "" {
			s.ctl.Files.Open(name)
			s.ctl.Files.LoadFile(ctx, agentID, name, false)
		}
	case view.PanelSkills:
		s.ctl.Skills.Load(ctx, agentID)
	case view.PanelChannels:
		s.ctl.Files.LoadList(ctx, agentID)
		s.ctl.Channels.Load(ctx, "")
	case view.PanelCron:
		s.ctl.Files.LoadList(ctx, agentID)
		s.ctl.Cron.Load(ctx, "")
	}

	s.renderAgents(w, r, panel)
}

// loadIdentities fills the identity cache for every listed agent.
func (s *Server) loadIdentities(ctx context.Context) {
	if list := s.ctl.Agents.Snapshot().List; list != nil {
		s.ctl.Identities.LoadMany(ctx, list.AgentIDs(), false)
	}
}

func (s *Server) renderAgents(w http.ResponseWriter, r *http.Request, panel view.Panel) {
	snap := s.ctl.Agents.Snapshot()
	identities := s.ctl.Identities.Snapshot().ByID

	data := agentsData{
		baseData: s.base(r, "Agents"),
		Loading:  snap.Loading,
		Error:    snap.Error,
	}
	if snap.List == nil {
		s.render(w, "agents", data.Lang, data)
		return
	}

	for _, agent := range snap.List.Agents {
		identity := identityPtr(identities, agent.ID)
		data.Agents = append(data.Agents, agentRow{
			ID:             agent.ID,
			Label:          view.AgentLabel(agent),
			Badge:          view.AgentBadge(agent.ID, snap.List.DefaultID),
			Emoji:          view.AgentEmoji(agent, identity),
			AvatarURL:      view.AvatarURL(identity),
			AvatarFallback: view.AvatarFallback(agent, identity),
			Selected:       agent.ID == snap.SelectedID,
		})
	}

	if agent := snap.List.Find(snap.SelectedID); agent != nil && panel != "" {
		data.Detail = s.buildDetail(*agent, snap.List.DefaultID, identityPtr(identities, agent.ID), panel, r.URL.Query().Get("filter"))
	}

	s.render(w, "agents", data.Lang, data)
}

func (s *Server) buildDetail(agent gateway.AgentSummary, defaultID string, identity *gateway.AgentIdentity, panel view.Panel, skillFilter string) *agentDetail {
	cfgSnap := s.ctl.Config.Snapshot()
	cfg := view.ResolveAgentConfig(cfgSnap.Form, agent.ID)
	files := s.ctl.Files.Snapshot()

	d := &agentDetail{
		ID:             agent.ID,
		Name:           view.IdentityName(agent, identity, cfg.Name()),
		Emoji:          view.AgentEmoji(agent, identity),
		AvatarURL:      view.AvatarURL(identity),
		AvatarFallback: view.AvatarFallback(agent, identity),
		Theme:          view.Theme(agent),
		Badge:          view.AgentBadge(agent.ID, defaultID),
		IdentityError:  s.ctl.Identities.Snapshot().Error,
		Panel:          panel,
		Context:        view.BuildAgentContext(agent, cfg, files.List, defaultID, identity),
		ConfigLoaded:   cfgSnap.Form != nil,
		ConfigLoading:  cfgSnap.Loading,
		ConfigSaving:   cfgSnap.Saving,
		ConfigDirty:    cfgSnap.Dirty,
		ConfigError:    cfgSnap.Error,
		ModelPrimary:   view.ModelPrimary(cfg.Model()),
		Fallbacks:      strings.Join(view.ModelFallbacks(cfg.Model()), ", "),
		Tools:          cfg.Tools(),
	}
	for _, p := range view.Panels {
		d.Tabs = append(d.Tabs, panelTab{Panel: p, Active: p == panel})
	}

	switch panel {
	case view.PanelFiles:
		d.Files = s.filesPanel(agent.ID)
	case view.PanelSkills:
		d.Skills = s.skillsPanel(agent.ID, cfg, skillFilter)
	case view.PanelChannels:
		d.Channels = s.channelsPanel()
	case view.PanelCron:
		d.Cron = s.cronPanel(agent.ID)
	}
	return d
}

func (s *Server) filesPanel(agentID string) filesPanel {
	snap := s.ctl.Files.Snapshot()
	p := filesPanel{Loading: snap.Loading, Saving: snap.Saving, Error: snap.Error}
	if snap.List == nil || snap.List.AgentID != agentID {
		return p
	}
	p.Workspace = snap.List.Workspace
	for _, f := range snap.List.Files {
		row := fileRow{
			Name:    f.Name,
			Missing: f.Missing,
			Size:    f.Size,
			Active:  f.Name == snap.Active,
			Dirty:   snap.Dirty(f.Name),
		}
		if f.UpdatedAtMs > 0 {
			row.Updated = view.RelativeMs(&f.UpdatedAtMs, s.now())
		}
		p.Files = append(p.Files, row)
	}
	if snap.Active == "" {
		return p
	}
	p.Active = snap.Active
	p.Draft = snap.Drafts[snap.Active]
	p.Dirty = snap.Dirty(snap.Active)
	if strings.HasSuffix(strings.ToLower(snap.Active), ".md") {
		if html, err := view.RenderMarkdown(p.Draft); err == nil {
			p.Preview = html
		}
	}
	return p
}

func (s *Server) skillsPanel(agentID string, cfg view.AgentConfig, filter string) skillsPanel {
	snap := s.ctl.Skills.Snapshot()
	p := skillsPanel{Loading: snap.Loading, Error: snap.Error, Filter: filter}
	if snap.Key != agentID {
		return p
	}
	allow, allowlisted := cfg.SkillAllowlist()
	p.Allowlisted = allowlisted
	for _, sk := range view.FilterSkills(snap.Value, filter) {
		p.Skills = append(p.Skills, skillRow{
			Name:        sk.Name,
			Description: sk.Description,
			Source:      sk.Source,
			Emoji:       sk.Emoji,
			Eligible:    sk.Eligible,
			Enabled:     !allowlisted || slices.Contains(allow, sk.Name),
		})
	}
	return p
}

func (s *Server) channelsPanel() channelsPanel {
	snap := s.ctl.Channels.Snapshot()
	p := channelsPanel{Loading: snap.Loading, Error: snap.Error, LastSuccess: s.relative(snap.LastSuccess)}
	if snap.Value == nil {
		return p
	}
	for _, id := range snap.Value.ChannelOrder {
		label := snap.Value.ChannelLabels[id]
		if label == "" {
			label = id
		}
		p.Channels = append(p.Channels, channelRow{ID: id, Label: label})
	}
	return p
}

func (s *Server) cronPanel(agentID string) cronPanel {
	snap := s.ctl.Cron.Snapshot()
	p := cronPanel{Loading: snap.Loading, Error: snap.Error, NextWake: "n/a"}
	if snap.Value == nil {
		return p
	}
	if st := snap.Value.Status; st != nil {
		p.Enabled = st.Enabled
		p.NextWake = view.RelativeMs(st.NextWakeAtMs, s.now())
	}
	for _, job := range snap.Value.JobsFor(agentID) {
		p.Jobs = append(p.Jobs, cronRow{
			Name:       job.Name,
			Enabled:    job.Enabled,
			NextRun:    view.RelativeMs(job.State.NextRunAtMs, s.now()),
			LastRun:    view.RelativeMs(job.State.LastRunAtMs, s.now()),
			LastStatus: job.State.LastStatus,
			LastError:  job.State.LastError,
		})
	}
	return p
}

func identityPtr(byID map[string]gateway.AgentIdentity, agentID string) *gateway.AgentIdentity {
	if identity, ok := byID[agentID]; ok {
		return &identity
	}
	return nil
}

func agentPath(agentID string, panel view.Panel) string {
	path := "/agents/" + url.PathEscape(agentID)
	if panel != "" {
		path += "?panel=" + string(panel)
	}
	return path
}

// withFlash adds a one-shot message to a redirect target.
func withFlash(path, msg string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "flash=" + url.QueryEscape(msg)
}

// sessionError maps login failures to the message shown on the form.
func sessionError(err error) string {
	if errors.Is(err, auth.ErrBadPassword) {
		return "Invalid password"
	}
	return "Login failed"
}
