// ABOUTME: HTTP middleware and login handling for dashboard sessions
// ABOUTME: Accepts a session cookie or bearer token; passwords are checked against a bcrypt hash

package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// SessionCookie is the cookie holding the session JWT.
const SessionCookie = "coven_dashboard_session"

// DefaultOperator is the subject of sessions created by password login.
const DefaultOperator = "operator"

// ErrBadPassword is returned by Login for a wrong or unconfigured password.
var ErrBadPassword = errors.New("invalid password")

// Sessions issues and checks dashboard sessions.
type Sessions struct {
	verifier     *JWTVerifier
	ttl          time.Duration
	passwordHash []byte
	secure       bool
}

// NewSessions creates a session manager. An empty passwordHash disables
// password login; sessions can still be created from CLI-issued tokens.
func NewSessions(verifier *JWTVerifier, ttl time.Duration, passwordHash string, secureCookies bool) *Sessions {
	return &Sessions{verifier: verifier, ttl: ttl, passwordHash: []byte(passwordHash), secure: secureCookies}
}

// PasswordEnabled reports whether password login is configured.
func (s *Sessions) PasswordEnabled() bool {
	return len(s.passwordHash) > 0
}

// Login checks password and returns a fresh session token.
func (s *Sessions) Login(password string) (string, error) {
	if !s.PasswordEnabled() {
		return "", ErrBadPassword
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", ErrBadPassword
	}
	return s.verifier.Generate(DefaultOperator, s.ttl)
}

// SetCookie stores token in the session cookie.
func (s *Sessions) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (s *Sessions) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Verify checks a token issued by Login or by the CLI.
func (s *Sessions) Verify(token string) (string, error) {
	return s.verifier.Verify(token)
}

// Middleware requires a valid session. Browsers without one are redirected
// to loginPath; API requests get 401.
func (s *Sessions) Middleware(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := requestToken(r)
			operator, err := "", ErrInvalidToken
			if token != "" {
				operator, err = s.verifier.Verify(token)
			}
			if err != nil {
				if wantsJSON(r) {
					http.Error(w, `{"error":"not authenticated"}`, http.StatusUnauthorized)
					return
				}
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithOperator(r.Context(), operator)))
		})
	}
}

// HashPassword returns the bcrypt hash to put in auth.password_hash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ValidPasswordHash reports whether hash is a bcrypt hash.
func ValidPasswordHash(hash string) bool {
	_, err := bcrypt.Cost([]byte(hash))
	return err == nil
}

// requestToken takes the bearer token if present, otherwise the session cookie.
func requestToken(r *http.Request) string {
	if token, errMsg := extractBearerToken(r.Header.Get("Authorization")); errMsg == "" {
		return token
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// extractBearerToken extracts a bearer token from the Authorization header.
// Returns the token and an error message (empty if successful).
func extractBearerToken(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "missing authorization header"
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", "invalid authorization header format"
	}
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" {
		return "", "empty token"
	}
	return token, ""
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}
