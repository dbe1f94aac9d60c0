package memstore

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gestaozabele/comercial/internal/store"
)

// Store guarda tabelas em memória. Usado em testes e no driver "memory".
type Store struct {
	mu     sync.RWMutex
	tables map[string][]store.Row
	fail   map[string]error
}

// New cria um store vazio.
func New() *Store {
	return &Store{tables: make(map[string][]store.Row), fail: make(map[string]error)}
}

// Seed adiciona linhas diretamente, sem preencher defaults.
func (s *Store) Seed(table string, rows ...store.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		s.tables[table] = append(s.tables[table], maps.Clone(row))
	}
}

// FailWith faz com que toda operação na tabela retorne err (nil limpa).
func (s *Store) FailWith(table string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.fail, table)
		return
	}
	s.fail[table] = err
}

func (s *Store) Select(ctx context.Context, table string, q store.Query) ([]store.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkFail(ctx, table); err != nil {
		return nil, err
	}

	var out []store.Row
	for _, row := range s.tables[table] {
		if matches(row, q.Filters) {
			out = append(out, maps.Clone(row))
		}
	}
	sortRows(out, q.Orders)

	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return []store.Row{}, nil
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	if out == nil {
		out = []store.Row{}
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, table string, row store.Row) (store.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkFail(ctx, table); err != nil {
		return nil, err
	}

	created := maps.Clone(row)
	if created == nil {
		created = store.Row{}
	}
	if id, ok := created["id"]; !ok || id == nil || id == "" {
		created["id"] = uuid.NewString()
	}
	for _, existing := range s.tables[table] {
		if fmt.Sprint(existing["id"]) == fmt.Sprint(created["id"]) {
			return nil, store.ErrConflict
		}
	}
	s.tables[table] = append(s.tables[table], created)
	return maps.Clone(created), nil
}

func (s *Store) Update(ctx context.Context, table string, q store.Query, patch store.Row) ([]store.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkFail(ctx, table); err != nil {
		return nil, err
	}

	updated := []store.Row{}
	for _, row := range s.tables[table] {
		if !matches(row, q.Filters) {
			continue
		}
		for k, v := range patch {
			row[k] = v
		}
		updated = append(updated, maps.Clone(row))
	}
	return updated, nil
}

func (s *Store) Delete(ctx context.Context, table string, q store.Query) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkFail(ctx, table); err != nil {
		return 0, err
	}

	rows := s.tables[table]
	kept := rows[:0]
	removed := 0
	for _, row := range rows {
		if matches(row, q.Filters) {
			removed++
			continue
		}
		kept = append(kept, row)
	}
	s.tables[table] = kept
	return removed, nil
}

func (s *Store) checkFail(ctx context.Context, table string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.fail[table]
}

func matches(row store.Row, filters []store.Filter) bool {
	for _, f := range filters {
		v, ok := row[f.Column]
		switch f.Op {
		case store.OpLt:
			if !ok || compare(v, f.Value) >= 0 {
				return false
			}
		default:
			if f.Value == nil {
				if ok && v != nil {
					return false
				}
				continue
			}
			if !ok || compare(v, f.Value) != 0 {
				return false
			}
		}
	}
	return true
}

func sortRows(rows []store.Row, orders []store.Order) {
	if len(orders) == 0 {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, o := range orders {
			c := compare(rows[i][o.Column], rows[j][o.Column])
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// compare ordena valores heterogêneos: tempos, números e, por fim, texto.
func compare(a, b any) int {
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	sa, sb := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	}
	return 0, false
}
