// ABOUTME: Tests for the session middleware and password login
// ABOUTME: Uses httptest to check cookie, bearer, redirect, and 401 paths

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessions(t *testing.T, password string) *Sessions {
	t.Helper()
	hash := ""
	if password != "" {
		var err error
		hash, err = HashPassword(password)
		require.NoError(t, err)
	}
	return NewSessions(NewJWTVerifier(testSecret), time.Hour, hash, false)
}

func protected(t *testing.T, s *Sessions) http.Handler {
	t.Helper()
	return s.Middleware("/login")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello " + OperatorFromContext(r.Context())))
	}))
}

func TestMiddleware_Cookie(t *testing.T) {
	s := newTestSessions(t, "")
	token, err := s.verifier.Generate("alice", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/agents", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	rec := httptest.NewRecorder()
	protected(t, s).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello alice", rec.Body.String())
}

func TestMiddleware_Bearer(t *testing.T) {
	s := newTestSessions(t, "")
	token, err := s.verifier.Generate("ci", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	protected(t, s).ServeHTTP(rec, req)

	assert.Equal(t, "hello ci", rec.Body.String())
}

func TestMiddleware_Unauthenticated(t *testing.T) {
	s := newTestSessions(t, "")

	t.Run("browser is redirected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected(t, s).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/agents", nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})

	t.Run("api gets 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/agents", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "garbage"})
		rec := httptest.NewRecorder()
		protected(t, s).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestSessions_Login(t *testing.T) {
	s := newTestSessions(t, "hunter2")
	require.True(t, s.PasswordEnabled())

	_, err := s.Login("wrong")
	assert.ErrorIs(t, err, ErrBadPassword)

	token, err := s.Login("hunter2")
	require.NoError(t, err)
	operator, err := s.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, DefaultOperator, operator)

	disabled := newTestSessions(t, "")
	_, err = disabled.Login("")
	assert.ErrorIs(t, err, ErrBadPassword)
}

func TestSessions_Cookies(t *testing.T) {
	s := newTestSessions(t, "")

	rec := httptest.NewRecorder()
	s.SetCookie(rec, "tok")
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "tok", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)

	rec = httptest.NewRecorder()
	s.ClearCookie(rec)
	assert.Equal(t, -1, rec.Result().Cookies()[0].MaxAge)
}

func TestPasswordHashHelpers(t *testing.T) {
	hash, err := HashPassword("pw")
	require.NoError(t, err)
	assert.True(t, ValidPasswordHash(hash))
	assert.False(t, ValidPasswordHash("plaintext"))
}

func TestExtractBearerToken(t *testing.T) {
	tok, msg := extractBearerToken("Bearer abc")
	assert.Equal(t, "abc", tok)
	assert.Empty(t, msg)

	_, msg = extractBearerToken("Basic abc")
	assert.Equal(t, "invalid authorization header format", msg)
	_, msg = extractBearerToken("")
	assert.Equal(t, "missing authorization header", msg)
}
