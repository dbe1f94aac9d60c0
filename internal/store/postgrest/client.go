package postgrest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	pgrst "github.com/supabase-community/postgrest-go"

	"github.com/gestaozabele/comercial/internal/store"
)

// maxRows limita o range quando há offset sem limit.
const maxRows = 1000

// Client adapta o cliente PostgREST da comunidade Supabase ao store.Store.
type Client struct {
	api *pgrst.Client
}

// Config descreve credenciais do projeto Supabase.
type Config struct {
	URL        string
	AnonKey    string
	ServiceKey string
}

// New cria o cliente. A service key tem precedência sobre a anon key no
// cabeçalho Authorization para ignorar RLS nas rotas do servidor.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if base == "" {
		return nil, errors.New("postgrest: url do supabase obrigatória")
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return nil, errors.New("postgrest: url deve incluir protocolo http/https")
	}
	apiKey := strings.TrimSpace(cfg.AnonKey)
	serviceKey := strings.TrimSpace(cfg.ServiceKey)
	if apiKey == "" && serviceKey == "" {
		return nil, errors.New("postgrest: anon key ou service key obrigatória")
	}
	if apiKey == "" {
		apiKey = serviceKey
	}
	if serviceKey == "" {
		serviceKey = apiKey
	}

	api := pgrst.NewClient(base+"/rest/v1", "public", map[string]string{
		"apikey":        apiKey,
		"Authorization": "Bearer " + serviceKey,
	})
	if api.ClientError != nil {
		return nil, fmt.Errorf("postgrest: %w", api.ClientError)
	}
	return &Client{api: api}, nil
}

// Select lê linhas da tabela. O cliente da biblioteca não recebe context, então
// o cancelamento é conferido antes de cada chamada.
func (c *Client) Select(ctx context.Context, table string, q store.Query) ([]store.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fb := applyQuery(c.api.From(table).Select("*", "", false), q)
	return execute(fb)
}

func (c *Client) Insert(ctx context.Context, table string, row store.Row) (store.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := execute(c.api.From(table).Insert(encodeRow(row), false, "", "representation", ""))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("postgrest: insert sem retorno")
	}
	return rows[0], nil
}

func (c *Client) Update(ctx context.Context, table string, q store.Query, patch store.Row) ([]store.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fb := applyFilters(c.api.From(table).Update(encodeRow(patch), "representation", ""), q)
	return execute(fb)
}

// Delete devolve quantas linhas o PostgREST retornou como removidas.
func (c *Client) Delete(ctx context.Context, table string, q store.Query) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	rows, err := execute(applyFilters(c.api.From(table).Delete("representation", ""), q))
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func execute(fb *pgrst.FilterBuilder) ([]store.Row, error) {
	body, _, err := fb.Execute()
	if err != nil {
		return nil, mapError(err)
	}
	var rows []store.Row
	if len(body) == 0 {
		return rows, nil
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("postgrest: resposta inválida: %w", err)
	}
	return rows, nil
}

// errCode extrai o código que a biblioteca prefixa na mensagem: "(23505) ...".
var errCode = regexp.MustCompile(`^\(([0-9A-Z]+)\)`)

func mapError(err error) error {
	if m := errCode.FindStringSubmatch(err.Error()); m != nil {
		switch m[1] {
		case "23505":
			return fmt.Errorf("postgrest: %v: %w", err, store.ErrConflict)
		case "PGRST116":
			return store.ErrNotFound
		}
	}
	return fmt.Errorf("postgrest: %w", err)
}

func applyFilters(fb *pgrst.FilterBuilder, q store.Query) *pgrst.FilterBuilder {
	for _, f := range q.Filters {
		switch {
		case f.Op == store.OpLt:
			fb = fb.Lt(f.Column, formatValue(f.Value))
		case f.Value == nil:
			fb = fb.Is(f.Column, "null")
		default:
			fb = fb.Eq(f.Column, formatValue(f.Value))
		}
	}
	return fb
}

func applyQuery(fb *pgrst.FilterBuilder, q store.Query) *pgrst.FilterBuilder {
	fb = applyFilters(fb, q)
	for _, o := range q.Orders {
		fb = fb.Order(o.Column, &pgrst.OrderOpts{Ascending: !o.Desc})
	}
	switch {
	case q.Offset > 0:
		limit := q.Limit
		if limit <= 0 {
			limit = maxRows
		}
		fb = fb.Range(q.Offset, q.Offset+limit-1, "")
	case q.Limit > 0:
		fb = fb.Limit(q.Limit, "")
	}
	return fb
}

// encodeRow normaliza datas para RFC 3339 em UTC antes do JSON.
func encodeRow(row store.Row) map[string]any {
	out := make(map[string]any, len(row))
	for k, v := range row {
		switch val := v.(type) {
		case time.Time:
			out[k] = val.UTC().Format(time.RFC3339Nano)
		case *time.Time:
			if val == nil {
				out[k] = nil
			} else {
				out[k] = val.UTC().Format(time.RFC3339Nano)
			}
		default:
			out[k] = v
		}
	}
	return out
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	case string:
		return val
	}
	return fmt.Sprint(v)
}
