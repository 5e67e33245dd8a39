// ABOUTME: HTTP server for the dashboard UI: routing, CSRF, and per-request language
// ABOUTME: Pages read controller snapshots; POST routes turn user intents into controller calls

package webui

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/2389/coven-dashboard/internal/auth"
	"github.com/2389/coven-dashboard/internal/controller"
	"github.com/2389/coven-dashboard/internal/locale"
	"github.com/2389/coven-dashboard/internal/store"
	"github.com/2389/coven-dashboard/internal/view"
)

// CSRFCookieName holds the double-submit CSRF token.
const CSRFCookieName = "coven_dashboard_csrf"

type contextKey string

const csrfContextKey contextKey = "csrf"

// ConnectionInfo describes the gateway connection for the overview page.
type ConnectionInfo struct {
	Connected bool
	URL       string
	LastError string
	HasToken  bool
	Since     time.Time
}

// Options configures a Server.
type Options struct {
	Language     string
	DefaultPanel string
	// Status reports the gateway connection; nil means always disconnected.
	Status func() ConnectionInfo
}

// Server renders the dashboard.
type Server struct {
	ctl      *controller.Set
	store    store.Store
	sessions *auth.Sessions
	catalogs locale.Catalogs
	opts     Options
	logger   *slog.Logger
	pages    map[string]*template.Template
	now      func() time.Time
}

// New creates a Server. Templates are parsed once here.
func New(ctl *controller.Set, st store.Store, sessions *auth.Sessions, catalogs locale.Catalogs, opts Options, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default().With("component", "webui")
	}
	if opts.Language == "" {
		opts.Language = "en"
	}
	if opts.Status == nil {
		opts.Status = func() ConnectionInfo { return ConnectionInfo{} }
	}
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &Server{
		ctl:      ctl,
		store:    st,
		sessions: sessions,
		catalogs: catalogs,
		opts:     opts,
		logger:   logger,
		pages:    pages,
		now:      time.Now,
	}, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/health"))
	r.Use(s.logRequests)
	r.Use(s.csrf)

	// Public routes
	r.Get("/login", s.handleLoginPage)
	r.Post("/login", s.handleLogin)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(s.sessions.Middleware("/login"))

		r.Get("/", s.handleOverview)
		r.Post("/logout", s.handleLogout)
		r.Post("/settings/language", s.handleSetLanguage)

		r.Get("/agents", s.handleAgents)
		r.Post("/agents", s.handleCreateAgent)
		r.Post("/agents/refresh", s.handleRefreshAgents)
		r.Get("/agents/{id}", s.handleAgent)
		r.Post("/agents/{id}/update", s.handleUpdateAgent)
		r.Post("/agents/{id}/delete", s.handleDeleteAgent)
		r.Post("/agents/{id}/identity/refresh", s.handleRefreshIdentity)
		r.Post("/agents/{id}/files/{name}", s.handleFileAction)
		r.Post("/agents/{id}/config", s.handleConfigEdit)

		r.Post("/config/save", s.handleConfigSave)
		r.Post("/config/reload", s.handleConfigReload)

		r.Route("/api", func(r chi.Router) {
			r.Get("/agents", s.apiAgents)
			r.Get("/agents/{id}/identity", s.apiIdentity)
			r.Get("/activity", s.apiActivity)
		})
	})

	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// csrf issues a token cookie on every request and checks it on form posts.
// Bearer-authenticated requests carry no cookies and are exempt.
func (s *Server) csrf(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r, token := s.ensureCSRFToken(w, r)
		if r.Method == http.MethodPost && r.Header.Get("Authorization") == "" && !validCSRF(r, token) {
			http.Error(w, "invalid CSRF token", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) ensureCSRFToken(w http.ResponseWriter, r *http.Request) (*http.Request, string) {
	if cookie, err := r.Cookie(CSRFCookieName); err == nil && cookie.Value != "" {
		return r.WithContext(context.WithValue(r.Context(), csrfContextKey, cookie.Value)), cookie.Value
	}

	token, err := generateSecureToken(32)
	if err != nil {
		s.logger.Error("failed to generate CSRF token", "error", err)
		token = ""
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
	return r.WithContext(context.WithValue(r.Context(), csrfContextKey, token)), token
}

func validCSRF(r *http.Request, cookieToken string) bool {
	if cookieToken == "" {
		return false
	}
	formToken := r.FormValue("csrf_token")
	if formToken == "" {
		formToken = r.Header.Get("X-CSRF-Token")
	}
	return formToken == cookieToken
}

func csrfToken(r *http.Request) string {
	token, _ := r.Context().Value(csrfContextKey).(string)
	return token
}

// language is the stored UI language, else the configured default.
func (s *Server) language(ctx context.Context) string {
	if lang, err := s.store.GetSetting(ctx, store.SettingLanguage); err == nil && s.catalogs.Has(lang) {
		return lang
	}
	return s.opts.Language
}

// defaultPanel is the last panel the operator opened, else the configured one.
func (s *Server) defaultPanel(ctx context.Context) view.Panel {
	if p, err := s.store.GetSetting(ctx, store.SettingLastPanel); err == nil {
		return view.ParsePanel(p)
	}
	return view.ParsePanel(s.opts.DefaultPanel)
}

// remember stores a UI setting; failures only cost the preference.
func (s *Server) remember(ctx context.Context, key, value string) {
	if err := s.store.SetSetting(ctx, key, value); err != nil {
		s.logger.Warn("failed to save setting", "key", key, "error", err)
	}
}

func generateSecureToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
