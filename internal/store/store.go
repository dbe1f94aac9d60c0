package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound é retornado quando nenhum registro é encontrado.
	ErrNotFound = errors.New("registro não encontrado")
	// ErrConflict indica violação de unicidade no armazenamento.
	ErrConflict = errors.New("registro duplicado")
)

// Row representa um registro com colunas em snake_case.
type Row map[string]any

// Op identifica o operador de um filtro.
type Op string

const (
	OpEq Op = "eq"
	OpLt Op = "lt"
)

// Filter restringe linhas por coluna.
type Filter struct {
	Column string
	Op     Op
	Value  any
}

// Order define ordenação por coluna.
type Order struct {
	Column string
	Desc   bool
}

// Query descreve seleção de linhas. O valor zero seleciona tudo.
type Query struct {
	Filters []Filter
	Orders  []Order
	Limit   int
	Offset  int
}

// Where cria uma query com filtro de igualdade.
func Where(column string, value any) Query {
	return Query{}.Eq(column, value)
}

// Eq adiciona filtro de igualdade.
func (q Query) Eq(column string, value any) Query {
	return q.with(Filter{Column: column, Op: OpEq, Value: value})
}

// Lt adiciona filtro "menor que".
func (q Query) Lt(column string, value any) Query {
	return q.with(Filter{Column: column, Op: OpLt, Value: value})
}

// OrderBy adiciona ordenação.
func (q Query) OrderBy(column string, desc bool) Query {
	orders := make([]Order, 0, len(q.Orders)+1)
	orders = append(orders, q.Orders...)
	q.Orders = append(orders, Order{Column: column, Desc: desc})
	return q
}

// Page limita a quantidade de linhas retornadas.
func (q Query) Page(limit, offset int) Query {
	q.Limit = limit
	q.Offset = offset
	return q
}

func (q Query) with(f Filter) Query {
	filters := make([]Filter, 0, len(q.Filters)+1)
	filters = append(filters, q.Filters...)
	q.Filters = append(filters, f)
	return q
}

// Store abstrai o banco remoto (Supabase REST, Postgres direto ou memória).
type Store interface {
	Select(ctx context.Context, table string, q Query) ([]Row, error)
	Insert(ctx context.Context, table string, row Row) (Row, error)
	Update(ctx context.Context, table string, q Query, patch Row) ([]Row, error)
	Delete(ctx context.Context, table string, q Query) (int, error)
}

// Transactor é implementado por stores com suporte a transações.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// One retorna a primeira linha da query ou ErrNotFound.
func One(ctx context.Context, s Store, table string, q Query) (Row, error) {
	q.Limit = 1
	rows, err := s.Select(ctx, table, q)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

// UpdateOne aplica patch e exige ao menos uma linha afetada.
func UpdateOne(ctx context.Context, s Store, table string, q Query, patch Row) (Row, error) {
	rows, err := s.Update(ctx, table, q, patch)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}
