package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaozabele/comercial/internal/auth"
)

const (
	testAccessSecret  = "access-secret-0123456789abcdefghijkl"
	testRefreshSecret = "refresh-secret-0123456789abcdefghijk"
)

type stubRenewer struct {
	session auth.Session
	err     error
	calls   int
}

func (s *stubRenewer) Renew(ctx context.Context, token string) (auth.Session, error) {
	s.calls++
	return s.session, s.err
}

func newGuard(t *testing.T, renewer Renewer) (http.Handler, *auth.TokenManager) {
	t.Helper()
	tokens := auth.NewTokenManager(testAccessSecret, testRefreshSecret, 15*time.Minute, 7*24*time.Hour)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-User", GetUserID(r.Context()))
		w.WriteHeader(http.StatusOK)
	})
	h := Guard(GuardConfig{
		Tokens:      tokens,
		Renewer:     renewer,
		LoginPath:   "/login",
		RefreshPath: "/api/auth/refresh",
		Public:      []string{"/login", "/health", "/api/auth/*"},
	})(next)
	return h, tokens
}

func accessToken(t *testing.T, tokens *auth.TokenManager) string {
	t.Helper()
	tok, _, err := tokens.IssueAccessToken("u1", "user@x.com", "user")
	require.NoError(t, err)
	return tok
}

func TestGuardPublicPathBypasses(t *testing.T) {
	h, _ := newGuard(t, nil)
	for _, path := range []string{"/login", "/health", "/api/auth/verify"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestGuardRedirectsUnauthenticatedToLogin(t *testing.T) {
	h, _ := newGuard(t, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/comercial/kanban?aba=2", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?redirect=%2Fcomercial%2Fkanban%3Faba%3D2", rec.Header().Get("Location"))
}

func TestGuardAPIAnswers401(t *testing.T) {
	h, _ := newGuard(t, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/comercial/clientes", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"AUTH"`)
}

func TestGuardValidAccessToken(t *testing.T) {
	h, tokens := newGuard(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/comercial/clientes", nil)
	req.AddCookie(&http.Cookie{Name: auth.AccessCookie, Value: accessToken(t, tokens)})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", rec.Header().Get("X-User"))
}

func TestGuardAcceptsBearerHeader(t *testing.T) {
	h, tokens := newGuard(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/comercial/clientes", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken(t, tokens))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuardSilentRenewal(t *testing.T) {
	tokens := auth.NewTokenManager(testAccessSecret, testRefreshSecret, 15*time.Minute, 7*24*time.Hour)
	renewer := &stubRenewer{session: auth.Session{
		AccessToken:    accessToken(t, tokens),
		AccessExpires:  time.Now().Add(15 * time.Minute),
		RefreshToken:   "novo-refresh",
		RefreshExpires: time.Now().Add(24 * time.Hour),
	}}
	h, _ := newGuard(t, renewer)

	req := httptest.NewRequest(http.MethodGet, "/comercial", nil)
	req.AddCookie(&http.Cookie{Name: auth.RefreshCookie, Value: "antigo"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, renewer.calls)
	assert.Equal(t, "u1", rec.Header().Get("X-User"))
	cookies := strings.Join(rec.Header().Values("Set-Cookie"), "\n")
	assert.Contains(t, cookies, auth.AccessCookie+"=")
	assert.Contains(t, cookies, auth.RefreshCookie+"=novo-refresh")
}

func TestGuardRenewalWithoutRotationKeepsRefreshCookie(t *testing.T) {
	tokens := auth.NewTokenManager(testAccessSecret, testRefreshSecret, 15*time.Minute, 7*24*time.Hour)
	renewer := &stubRenewer{session: auth.Session{
		AccessToken:   accessToken(t, tokens),
		AccessExpires: time.Now().Add(15 * time.Minute),
	}}
	h, _ := newGuard(t, renewer)

	req := httptest.NewRequest(http.MethodGet, "/api/comercial/clientes", nil)
	req.AddCookie(&http.Cookie{Name: auth.RefreshCookie, Value: "atual"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	cookies := strings.Join(rec.Header().Values("Set-Cookie"), "\n")
	assert.Contains(t, cookies, auth.AccessCookie+"=")
	assert.NotContains(t, cookies, auth.RefreshCookie+"=")
}

func TestGuardRenewalFailureRedirects(t *testing.T) {
	h, _ := newGuard(t, &stubRenewer{err: errors.New("refresh token inválido")})
	req := httptest.NewRequest(http.MethodGet, "/comercial", nil)
	req.AddCookie(&http.Cookie{Name: auth.RefreshCookie, Value: "velho"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/login?redirect="))
}

func TestGuardInvalidAccessWithRefreshRedirectsToRefresh(t *testing.T) {
	renewer := &stubRenewer{}
	h, _ := newGuard(t, renewer)
	req := httptest.NewRequest(http.MethodGet, "/comercial", nil)
	req.AddCookie(&http.Cookie{Name: auth.AccessCookie, Value: "adulterado"})
	req.AddCookie(&http.Cookie{Name: auth.RefreshCookie, Value: "r"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/api/auth/refresh?redirect=%2Fcomercial", rec.Header().Get("Location"))
	assert.Zero(t, renewer.calls)
}

func TestGuardInvalidAccessWithoutRefresh(t *testing.T) {
	h, _ := newGuard(t, &stubRenewer{})
	req := httptest.NewRequest(http.MethodGet, "/comercial", nil)
	req.AddCookie(&http.Cookie{Name: auth.AccessCookie, Value: "adulterado"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/login?"))
}

func TestRequireRole(t *testing.T) {
	h := RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodDelete, "/api/usuarios/u2", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithClaims(req.Context(), &auth.AccessClaims{UserID: "u1", Role: "user"})))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithClaims(req.Context(), &auth.AccessClaims{UserID: "u1", Role: "admin"})))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSafeRedirect(t *testing.T) {
	assert.Equal(t, "/comercial?x=1", SafeRedirect("/comercial?x=1", "/"))
	assert.Equal(t, "/", SafeRedirect("https://evil.com", "/"))
	assert.Equal(t, "/", SafeRedirect("//evil.com", "/"))
	assert.Equal(t, "/", SafeRedirect("", "/"))
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	h := CORS([]string{"http://localhost:3000", "*.zabele.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodOptions, "/api/auth/login", nil)
	req.Header.Set("Origin", "https://app.zabele.com")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.zabele.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://zabele.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimitByIP(t *testing.T) {
	h := IPRateLimit(NewRateLimiter(1, 1))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.Header.Set("X-Real-IP", "10.0.0.1")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestCredentialRateLimitPerRoute(t *testing.T) {
	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(0.2, 2).WithClock(func() time.Time { return now })
	h := CredentialRateLimit(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	send := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set("X-Forwarded-For", "10.0.0.7, 172.16.0.1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("/api/auth/login").Code)
	assert.Equal(t, http.StatusOK, send("/api/auth/login").Code)
	rec := send("/api/auth/login")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"limite de requisições excedido","code":"RATE_LIMIT"}`, rec.Body.String())

	assert.Equal(t, http.StatusOK, send("/api/auth/register").Code, "outra rota tem bucket próprio")

	now = now.Add(5 * time.Second)
	assert.Equal(t, http.StatusOK, send("/api/auth/login").Code)
}

func TestRateLimiterDisabledAndSweep(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := IPRateLimit(NewRateLimiter(0, 0))(next)
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	now := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(1, 1).WithClock(func() time.Time { return now })
	limiter.allow("a")
	now = now.Add(11 * time.Minute)
	limiter.allow("b")
	assert.NotContains(t, limiter.buckets, "a")
	assert.Contains(t, limiter.buckets, "b")
}
