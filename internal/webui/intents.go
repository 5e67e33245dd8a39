// ABOUTME: POST handlers that translate form submissions into controller intents
// ABOUTME: Mutation outcomes are written to the activity log before redirecting back

package webui

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/2389/coven-dashboard/internal/auth"
	"github.com/2389/coven-dashboard/internal/gateway"
	"github.com/2389/coven-dashboard/internal/store"
	"github.com/2389/coven-dashboard/internal/view"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	token, err := s.sessions.Login(r.FormValue("password"))
	if err != nil {
		s.logger.Warn("login failed", "remote", r.RemoteAddr)
		s.renderLogin(w, r, sessionError(err))
		return
	}
	s.sessions.SetCookie(w, token)
	s.logger.Info("operator logged in", "operator", auth.DefaultOperator)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.ClearCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleSetLanguage(w http.ResponseWriter, r *http.Request) {
	lang := r.FormValue("lang")
	if s.catalogs.Has(lang) {
		s.remember(r.Context(), store.SettingLanguage, lang)
	}
	http.Redirect(w, r, backTo(r, "/"), http.StatusSeeOther)
}

func (s *Server) handleRefreshAgents(w http.ResponseWriter, r *http.Request) {
	s.ctl.Agents.Load(r.Context())
	s.loadIdentities(r.Context())
	http.Redirect(w, r, "/agents", http.StatusSeeOther)
}

func (s *Server) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	ctx := mutationContext(r)
	params := gateway.CreateAgentParams{
		Name:      strings.TrimSpace(r.FormValue("name")),
		Workspace: strings.TrimSpace(r.FormValue("workspace")),
		Emoji:     strings.TrimSpace(r.FormValue("emoji")),
		Avatar:    strings.TrimSpace(r.FormValue("avatar")),
	}
	if params.Name == "" {
		http.Redirect(w, r, withFlash("/agents", "Name is required"), http.StatusSeeOther)
		return
	}

	created := s.ctl.Agents.Create(ctx, params)
	snap := s.ctl.Agents.Snapshot()
	s.record(ctx, store.ActivityCreateAgent, created, snap.Error, map[string]any{"name": params.Name})

	if snap.Error != "" {
		http.Redirect(w, r, withFlash("/agents", snap.Error), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/agents", http.StatusSeeOther)
}

func (s *Server) handleUpdateAgent(w http.ResponseWriter, r *http.Request) {
	ctx := mutationContext(r)
	agentID := chi.URLParam(r, "id")
	params := gateway.UpdateAgentParams{
		AgentID: agentID,
		Name:    strings.TrimSpace(r.FormValue("name")),
		Avatar:  strings.TrimSpace(r.FormValue("avatar")),
		Emoji:   strings.TrimSpace(r.FormValue("emoji")),
		Model:   strings.TrimSpace(r.FormValue("model")),
	}

	err := s.ctl.Agents.Update(ctx, params)
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	s.record(ctx, store.ActivityUpdateAgent, agentID, errMsg, nil)

	target := agentPath(agentID, view.PanelOverview)
	if err != nil {
		target = withFlash(target, errMsg)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) handleDeleteAgent(w http.ResponseWriter, r *http.Request) {
	ctx := mutationContext(r)
	agentID := chi.URLParam(r, "id")
	deleteFiles := r.FormValue("delete_files") == "on"

	s.ctl.Agents.Delete(ctx, agentID, deleteFiles)
	snap := s.ctl.Agents.Snapshot()
	s.record(ctx, store.ActivityDeleteAgent, agentID, snap.Error, map[string]any{"delete_files": deleteFiles})

	target := "/agents"
	if snap.Error != "" {
		target = withFlash(target, snap.Error)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) handleRefreshIdentity(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "id")
	s.ctl.Identities.Load(r.Context(), agentID, true)
	http.Redirect(w, r, agentPath(agentID, view.PanelOverview), http.StatusSeeOther)
}

// handleFileAction edits, resets, reloads, or saves one workspace file.
func (s *Server) handleFileAction(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "id")
	name := chi.URLParam(r, "name")
	target := agentPath(agentID, view.PanelFiles) + "&file=" + url.QueryEscape(name)

	switch r.FormValue("action") {
	case "reset":
		s.ctl.Files.ResetDraft(name)
	case "reload":
		s.ctl.Files.LoadFile(r.Context(), agentID, name, true)
	case "save":
		ctx := mutationContext(r)
		s.ctl.Files.SetDraft(name, r.FormValue("content"))
		err := s.ctl.Files.Save(ctx, agentID, name)
		errMsg := ""
		if err != nil {
			errMsg = err.Error()
			target = withFlash(target, errMsg)
		}
		s.record(ctx, store.ActivitySaveFile, agentID, errMsg, map[string]any{"file": name})
	default:
		s.ctl.Files.SetDraft(name, r.FormValue("content"))
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// handleConfigEdit applies one form edit to the agent's config entry.
// Edits stay local until /config/save.
func (s *Server) handleConfigEdit(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "id")
	panel := view.PanelOverview
	cfg := s.ctl.Config

	switch r.FormValue("field") {
	case "model":
		cfg.SetModel(agentID, strings.TrimSpace(r.FormValue("primary")))
		cfg.SetModelFallbacks(agentID, view.ParseFallbackList(r.FormValue("fallbacks")))
	case "tools_profile":
		panel = view.PanelTools
		cfg.SetToolsProfile(agentID, strings.TrimSpace(r.FormValue("profile")), r.FormValue("clear_allow") == "on")
	case "tools_overrides":
		panel = view.PanelTools
		cfg.SetToolsOverrides(agentID,
			view.ParseFallbackList(r.FormValue("also_allow")),
			view.ParseFallbackList(r.FormValue("deny")))
	case "skill":
		panel = view.PanelSkills
		available := view.SkillNames(s.ctl.Skills.Snapshot().Value)
		cfg.ToggleSkill(agentID, r.FormValue("skill"), r.FormValue("enabled") == "on", available)
	case "skills_clear":
		panel = view.PanelSkills
		cfg.ClearSkills(agentID)
	case "skills_disable_all":
		panel = view.PanelSkills
		cfg.DisableAllSkills(agentID)
	default:
		http.Error(w, "unknown config field", http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, agentPath(agentID, panel), http.StatusSeeOther)
}

func (s *Server) handleConfigSave(w http.ResponseWriter, r *http.Request) {
	ctx := mutationContext(r)
	err := s.ctl.Config.Save(ctx)
	errMsg := ""
	target := backTo(r, "/agents")
	if err != nil {
		errMsg = err.Error()
		target = withFlash(target, errMsg)
	}
	s.record(ctx, store.ActivitySaveConfig, s.ctl.Agents.SelectedID(), errMsg, nil)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) handleConfigReload(w http.ResponseWriter, r *http.Request) {
	s.ctl.Config.Load(r.Context())
	http.Redirect(w, r, backTo(r, "/agents"), http.StatusSeeOther)
}

// record appends a mutation outcome to the activity log. Nothing is recorded
// while disconnected since the mutation never reached the gateway.
func (s *Server) record(ctx context.Context, action store.ActivityAction, agentID, errMsg string, detail map[string]any) {
	if !s.ctl.Handle.Connected() {
		return
	}
	entry := &store.Activity{
		Action:  action,
		AgentID: agentID,
		OK:      errMsg == "",
		Error:   errMsg,
		Detail:  detail,
	}
	if err := s.store.AppendActivity(ctx, entry); err != nil {
		s.logger.Warn("failed to record activity", "action", action, "error", err)
	}
}

// mutationContext keeps a mutation running if the browser goes away
// mid-request, so the follow-up refresh still lands.
func mutationContext(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}

// backTo returns the form's "return" path when it is local, else fallback.
func backTo(r *http.Request, fallback string) string {
	ret := r.FormValue("return")
	if strings.HasPrefix(ret, "/") && !strings.HasPrefix(ret, "//") {
		return ret
	}
	return fallback
}
