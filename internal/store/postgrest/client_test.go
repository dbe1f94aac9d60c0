package postgrest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaozabele/comercial/internal/store"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(Config{URL: srv.URL, AnonKey: "anon", ServiceKey: "service"})
	require.NoError(t, err)
	return client
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{AnonKey: "anon"})
	assert.Error(t, err)

	_, err = New(Config{URL: "projeto.supabase.co", AnonKey: "anon"})
	assert.Error(t, err)

	_, err = New(Config{URL: "https://projeto.supabase.co"})
	assert.Error(t, err)
}

func TestSelectSendsFiltersAndHeaders(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/rest/v1/oportunidades", r.URL.Path)
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer service", r.Header.Get("Authorization"))

		q := r.URL.Query()
		assert.Equal(t, "*", q.Get("select"))
		assert.Equal(t, "eq.proposta", q.Get("status"))
		assert.Equal(t, "is.null", q.Get("cliente_id"))
		assert.True(t, strings.HasPrefix(q.Get("order"), "created_at.desc"), q.Get("order"))
		assert.Equal(t, "5", q.Get("limit"))

		_ = json.NewEncoder(w).Encode([]map[string]any{{"id": "op-1", "status": "proposta"}})
	})

	q := store.Where("status", "proposta").Eq("cliente_id", nil).OrderBy("created_at", true).Page(5, 0)
	rows, err := client.Select(context.Background(), "oportunidades", q)

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "op-1", rows[0]["id"])
}

func TestUpdateUsesPatchWithRepresentation(t *testing.T) {
	at := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
		assert.Equal(t, "eq.op-1", r.URL.Query().Get("id"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ganho", body["status"])

		_ = json.NewEncoder(w).Encode([]map[string]any{{"id": "op-1", "status": "ganho", "updated_at": at}})
	})

	rows, err := client.Update(context.Background(), "oportunidades", store.Where("id", "op-1"),
		store.Row{"status": "ganho", "updated_at": at})

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ganho", rows[0]["status"])
}

func TestDeleteCountsReturnedRows(t *testing.T) {
	cutoff := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "lt.2026-04-02T00:00:00Z", r.URL.Query().Get("expires_at"))
		_ = json.NewEncoder(w).Encode([]map[string]any{{"id": "t1"}, {"id": "t2"}})
	})

	n, err := client.Delete(context.Background(), "refresh_tokens", store.Query{}.Lt("expires_at", cutoff))

	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestErrorsAreMapped(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"code":"23505","message":"duplicate key value violates unique constraint"}`))
	})
	_, err := client.Insert(context.Background(), "users", store.Row{"email": "ana@zabele.com"})
	assert.ErrorIs(t, err, store.ErrConflict)

	client = newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"code":"PGRST000","message":"could not connect to server"}`))
	})
	_, err = client.Select(context.Background(), "users", store.Query{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrConflict)
	assert.Contains(t, err.Error(), "could not connect to server")
}

func TestInsertReturnsRepresentation(t *testing.T) {
	created := time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/rest/v1/clientes", r.URL.Path)
		assert.Contains(t, r.Header.Get("Prefer"), "return=representation")

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2026-04-02T09:30:00Z", body["data_cadastro"])

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode([]map[string]any{{"id": "c1", "nome": "Prefeitura"}})
	})

	row, err := client.Insert(context.Background(), "clientes", store.Row{"id": "c1", "nome": "Prefeitura", "data_cadastro": created})
	require.NoError(t, err)
	assert.Equal(t, "c1", row["id"])
}

func TestPageUsesRange(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "20", q.Get("offset"))
		assert.Equal(t, "10", q.Get("limit"))
		_, _ = w.Write([]byte("[]"))
	})

	rows, err := client.Select(context.Background(), "notas", store.Query{}.Page(10, 20))
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCancelledContextSkipsRequest(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Select(ctx, "users", store.Query{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
