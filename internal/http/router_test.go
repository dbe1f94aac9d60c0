package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaozabele/comercial/internal/auth"
	"github.com/gestaozabele/comercial/internal/config"
	"github.com/gestaozabele/comercial/internal/crm"
	"github.com/gestaozabele/comercial/internal/fallback"
	"github.com/gestaozabele/comercial/internal/repo"
	"github.com/gestaozabele/comercial/internal/service"
	"github.com/gestaozabele/comercial/internal/storage"
	"github.com/gestaozabele/comercial/internal/store/memstore"
)

const (
	accessSecret  = "access-secret-0123456789abcdefghijkl"
	refreshSecret = "refresh-secret-0123456789abcdefghijk"
)

type testServer struct {
	handler  http.Handler
	db       *memstore.Store
	auth     *service.AuthService
	tokens   *auth.TokenManager
	fallback *fallback.FileStore
}

type memBucket struct{ keys []string }

func (b *memBucket) Upload(ctx context.Context, in storage.UploadInput) (*storage.UploadResult, error) {
	b.keys = append(b.keys, in.Key)
	return &storage.UploadResult{URL: "https://cdn.test/" + in.Key}, nil
}

func (b *memBucket) Remove(ctx context.Context, key string) error { return nil }

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		LoginPath:       "/login",
		RateLimitPublic: config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
		RateLimitAuth:   config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
	}
	db := memstore.New()
	tokens := auth.NewTokenManager(accessSecret, refreshSecret, 15*time.Minute, 7*24*time.Hour)
	authService := service.NewAuthService(repo.New(db), nil, tokens)
	fs := fallback.New(filepath.Join(t.TempDir(), "oportunidades.json"), fallback.DefaultSeed())

	h := NewRouter(cfg, Deps{
		Store:    db,
		Auth:     authService,
		Bucket:   &memBucket{},
		Fallback: fs,
	})
	return &testServer{handler: h, db: db, auth: authService, tokens: tokens, fallback: fs}
}

func (s *testServer) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) createUser(t *testing.T, email, role string) repo.Usuario {
	t.Helper()
	user, err := s.auth.CreateUser(context.Background(), "Usuária Teste", email, "secret123", role)
	require.NoError(t, err)
	return user
}

func (s *testServer) accessCookie(t *testing.T, user repo.Usuario) *http.Cookie {
	t.Helper()
	tok, _, err := s.tokens.IssueAccessToken(user.ID, user.Email, user.Role)
	require.NoError(t, err)
	return &http.Cookie{Name: auth.AccessCookie, Value: tok}
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestLoginSetsSessionCookies(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "user@x.com", service.RoleUser)

	rec := s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "user@x.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	access := cookieByName(rec, auth.AccessCookie)
	refresh := cookieByName(rec, auth.RefreshCookie)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.True(t, access.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, refresh.SameSite)

	body := decodeBody(t, rec)
	user := body["user"].(map[string]any)
	assert.Equal(t, "user@x.com", user["email"])
	assert.NotContains(t, user, "passwordHash")
}

func TestLoginErrors(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "user@x.com", service.RoleUser)

	rec := s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "ninguem@x.com", "password": "secret123"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "user@x.com", "password": "errada123"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)
	payload := map[string]string{"name": "Nova", "email": "Nova@X.com", "password": "secret123"}

	rec := s.do(t, http.MethodPost, "/api/auth/register", payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "nova@x.com", decodeBody(t, rec)["user"].(map[string]any)["email"])
	assert.NotNil(t, cookieByName(rec, auth.AccessCookie))

	rec = s.do(t, http.MethodPost, "/api/auth/register", payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/register", map[string]string{"name": "X", "email": "x@x.com", "password": "123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusPatchFallsBackToLocalFile(t *testing.T) {
	s := newTestServer(t)
	user := s.createUser(t, "user@x.com", service.RoleUser)
	s.db.FailWith(crm.TableOportunidades, errors.New("supabase indisponível"))

	rec := s.do(t, http.MethodPatch, "/api/comercial/oportunidades/42", map[string]string{"status": "negociacao"}, s.accessCookie(t, user))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"id":"42","status":"negociacao","success":true,"source":"local_file"}`, rec.Body.String())

	op, err := s.fallback.Get(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, crm.StatusNegociacao, op.Status)
}

func TestStatusPatchRemote(t *testing.T) {
	s := newTestServer(t)
	user := s.createUser(t, "user@x.com", service.RoleUser)
	cookie := s.accessCookie(t, user)

	rec := s.do(t, http.MethodPost, "/api/comercial/oportunidades", map[string]any{"titulo": "Portal", "clienteId": "c1", "valor": "R$ 10.000,00"}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decodeBody(t, rec)["id"].(string)

	rec = s.do(t, http.MethodPatch, "/api/comercial/oportunidades/"+id, map[string]string{"status": "fechado_ganho"}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "remote", body["source"])
	assert.Equal(t, "fechado_ganho", body["data"].(map[string]any)["status"])

	rec = s.do(t, http.MethodPatch, "/api/comercial/oportunidades/"+id, map[string]string{"status": "ganho"}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/comercial/oportunidades/kanban", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var columns []crm.KanbanColumn
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &columns))
	assert.Len(t, columns, len(crm.Pipeline))
	assert.Len(t, columns[5].Oportunidades, 1)
}

func TestVerifyExpiredAccessWithoutRefresh(t *testing.T) {
	s := newTestServer(t)
	user := s.createUser(t, "user@x.com", service.RoleUser)
	past := auth.NewTokenManager(accessSecret, refreshSecret, 15*time.Minute, 7*24*time.Hour).
		WithClock(func() time.Time { return time.Now().Add(-time.Hour) })
	expired, _, err := past.IssueAccessToken(user.ID, user.Email, user.Role)
	require.NoError(t, err)

	rec := s.do(t, http.MethodGet, "/api/auth/verify", nil, &http.Cookie{Name: auth.AccessCookie, Value: expired})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"authenticated":false}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/auth/verify", nil, s.accessCookie(t, user))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["authenticated"])
}

func TestRefreshRotatesAndRedirects(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "user@x.com", service.RoleUser)
	login := s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "user@x.com", "password": "secret123"})
	refresh := cookieByName(login, auth.RefreshCookie)
	require.NotNil(t, refresh)

	rec := s.do(t, http.MethodGet, "/api/auth/refresh?redirect=%2Fcomercial", nil, refresh)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/comercial", rec.Header().Get("Location"))
	rotated := cookieByName(rec, auth.RefreshCookie)
	require.NotNil(t, rotated)
	assert.NotEqual(t, refresh.Value, rotated.Value)

	rec = s.do(t, http.MethodGet, "/api/auth/refresh?redirect=%2Fcomercial", nil, refresh)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?redirect=%2Fcomercial", rec.Header().Get("Location"))

	rec = s.do(t, http.MethodPost, "/api/auth/refresh", nil, rotated)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutAlwaysClearsCookies(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/auth/logout", nil, &http.Cookie{Name: auth.RefreshCookie, Value: "qualquer"})
	require.Equal(t, http.StatusOK, rec.Code)

	for _, name := range []string{auth.AccessCookie, auth.RefreshCookie} {
		c := cookieByName(rec, name)
		require.NotNil(t, c, name)
		assert.Equal(t, -1, c.MaxAge)
	}
}

func TestGuardedRoutes(t *testing.T) {
	s := newTestServer(t)
	user := s.createUser(t, "user@x.com", service.RoleUser)
	admin := s.createUser(t, "admin@x.com", service.RoleAdmin)

	rec := s.do(t, http.MethodGet, "/api/comercial/clientes", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/usuarios/"+admin.ID, nil, s.accessCookie(t, user))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/usuarios/"+user.ID, nil, s.accessCookie(t, admin))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/auth/me", nil, s.accessCookie(t, admin))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin@x.com", decodeBody(t, rec)["user"].(map[string]any)["email"])
}

func TestClienteCRUD(t *testing.T) {
	s := newTestServer(t)
	cookie := s.accessCookie(t, s.createUser(t, "user@x.com", service.RoleUser))

	rec := s.do(t, http.MethodPost, "/api/comercial/clientes", map[string]string{"nome": "Prefeitura"}, cookie)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	details := decodeBody(t, rec)["details"].(map[string]any)
	assert.Equal(t, "obrigatório", details["cnpj"])

	rec = s.do(t, http.MethodPost, "/api/comercial/clientes", map[string]string{"nome": "Prefeitura", "cnpj": "12345678000190"}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody(t, rec)["id"].(string)

	rec = s.do(t, http.MethodDelete, "/api/comercial/clientes/"+id, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["ativo"])

	rec = s.do(t, http.MethodGet, "/api/comercial/clientes/"+id, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/comercial/clientes/nao-existe", nil, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadLicitacaoDocumento(t *testing.T) {
	s := newTestServer(t)
	cookie := s.accessCookie(t, s.createUser(t, "user@x.com", service.RoleUser))

	rec := s.do(t, http.MethodPost, "/api/licitacoes", map[string]string{"titulo": "Pregão 1/2025", "orgaoId": "o1"}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decodeBody(t, rec)["id"].(string)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("nome", "Edital"))
	part, err := mw.CreateFormFile("file", "edital.pdf")
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/licitacoes/"+id+"/documentos", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(cookie)
	up := httptest.NewRecorder()
	s.handler.ServeHTTP(up, req)
	require.Equal(t, http.StatusCreated, up.Code, up.Body.String())
	doc := decodeBody(t, up)
	assert.Equal(t, "user@x.com", doc["uploadPor"])
	assert.True(t, strings.HasPrefix(doc["arquivo"].(string), "licitacoes/"+id+"/"))

	rec = s.do(t, http.MethodGet, "/api/licitacoes/"+id, nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["documentos"], 1)
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyReportsFailingCheck(t *testing.T) {
	cfg := &config.Config{LoginPath: "/login", RateLimitPublic: config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100}}
	db := memstore.New()
	tokens := auth.NewTokenManager(accessSecret, refreshSecret, time.Minute, time.Hour)
	h := NewRouter(cfg, Deps{
		Store: db,
		Auth:  service.NewAuthService(repo.New(db), nil, tokens),
		Checks: map[string]Check{
			"database": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		},
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "redis")
	assert.NotContains(t, rec.Body.String(), "database")
}

func TestParallelRequestsShareRefreshCookie(t *testing.T) {
	s := newTestServer(t)
	s.createUser(t, "user@x.com", service.RoleUser)
	login := s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "user@x.com", "password": "secret123"})
	refresh := cookieByName(login, auth.RefreshCookie)
	require.NotNil(t, refresh)

	for i := 0; i < 2; i++ {
		rec := s.do(t, http.MethodGet, "/api/comercial/clientes", nil, refresh)
		require.Equal(t, http.StatusOK, rec.Code, "requisição %d: %s", i+1, rec.Body.String())
		assert.NotNil(t, cookieByName(rec, auth.AccessCookie))
		assert.Nil(t, cookieByName(rec, auth.RefreshCookie))
	}

	rec := s.do(t, http.MethodPost, "/api/auth/refresh", nil, refresh)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRepeatedStatusTransitionIsIdempotent(t *testing.T) {
	t.Run("remote", func(t *testing.T) {
		s := newTestServer(t)
		cookie := s.accessCookie(t, s.createUser(t, "user@x.com", service.RoleUser))
		rec := s.do(t, http.MethodPost, "/api/comercial/oportunidades", map[string]any{"titulo": "Portal", "clienteId": "c1"}, cookie)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		id := decodeBody(t, rec)["id"].(string)

		for i := 0; i < 2; i++ {
			rec = s.do(t, http.MethodPatch, "/api/comercial/oportunidades/"+id, map[string]string{"status": "negociacao"}, cookie)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "remote", decodeBody(t, rec)["source"])
		}

		rec = s.do(t, http.MethodGet, "/api/comercial/oportunidades/"+id, nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "negociacao", decodeBody(t, rec)["status"])
	})

	t.Run("local_file", func(t *testing.T) {
		s := newTestServer(t)
		cookie := s.accessCookie(t, s.createUser(t, "user@x.com", service.RoleUser))
		s.db.FailWith(crm.TableOportunidades, errors.New("supabase indisponível"))

		for i := 0; i < 2; i++ {
			rec := s.do(t, http.MethodPatch, "/api/comercial/oportunidades/42", map[string]string{"status": "negociacao"}, cookie)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"id":"42","status":"negociacao","success":true,"source":"local_file"}`, rec.Body.String())
		}

		ops, err := s.fallback.Load(context.Background())
		require.NoError(t, err)
		assert.Len(t, ops, len(fallback.DefaultSeed()))
		op, err := s.fallback.Get(context.Background(), "42")
		require.NoError(t, err)
		assert.Equal(t, crm.StatusNegociacao, op.Status)
	})
}
