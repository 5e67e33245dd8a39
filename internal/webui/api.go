// ABOUTME: JSON endpoints exposing controller snapshots for scripts
// ABOUTME: Read-only; authenticated by session cookie or bearer token

package webui

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/2389/coven-dashboard/internal/gateway"
	"github.com/2389/coven-dashboard/internal/store"
)

type agentsResponse struct {
	Loading    bool                             `json:"loading"`
	Error      string                           `json:"error,omitempty"`
	SelectedID string                           `json:"selectedId,omitempty"`
	List       *gateway.AgentsList              `json:"list"`
	Identities map[string]gateway.AgentIdentity `json:"identities"`
}

// apiAgents refreshes the list and returns it with every cached identity.
func (s *Server) apiAgents(w http.ResponseWriter, r *http.Request) {
	s.ctl.Agents.Load(r.Context())
	s.loadIdentities(r.Context())

	snap := s.ctl.Agents.Snapshot()
	writeJSON(w, http.StatusOK, agentsResponse{
		Loading:    snap.Loading,
		Error:      snap.Error,
		SelectedID: snap.SelectedID,
		List:       snap.List,
		Identities: s.ctl.Identities.Snapshot().ByID,
	})
}

// apiIdentity returns one identity; ?force=1 bypasses the cache.
func (s *Server) apiIdentity(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "id")
	force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
	s.ctl.Identities.Load(r.Context(), agentID, force)

	identity, ok := s.ctl.Identities.Get(agentID)
	if !ok {
		msg := s.ctl.Identities.Snapshot().Error
		if msg == "" {
			msg = "identity not available"
		}
		writeError(w, http.StatusNotFound, msg)
		return
	}
	writeJSON(w, http.StatusOK, identity)
}

func (s *Server) apiActivity(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	activity, err := s.store.ListActivity(r.Context(), store.ActivityFilter{
		AgentID: r.URL.Query().Get("agent"),
		Limit:   limit,
	})
	if err != nil {
		s.logger.Error("failed to list activity", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list activity")
		return
	}
	writeJSON(w, http.StatusOK, activity)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
