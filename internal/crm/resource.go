package crm

import (
	"context"

	"github.com/gestaozabele/comercial/internal/store"
)

// Tabelas do CRM.
const (
	TableClientes      = "clientes"
	TableOportunidades = "oportunidades"
	TableReunioes      = "reunioes"
	TableNotas         = "notas"
	TableResponsaveis  = "responsaveis"
	TableOrgaos        = "orgaos"
	TableLicitacoes    = "licitacoes"
	TableDocumentos    = "documentos"
)

// resource reúne as operações comuns sobre uma tabela.
type resource[T any] struct {
	db    store.Store
	table string
}

func newResource[T any](db store.Store, table string) resource[T] {
	return resource[T]{db: db, table: table}
}

func (r resource[T]) list(ctx context.Context, q store.Query) ([]T, error) {
	rows, err := r.db.Select(ctx, r.table, q)
	if err != nil {
		return nil, err
	}
	return store.FromRows[T](rows)
}

func (r resource[T]) get(ctx context.Context, id string) (T, error) {
	var out T
	row, err := store.One(ctx, r.db, r.table, store.Where("id", id))
	if err != nil {
		return out, err
	}
	err = store.FromRow(row, &out)
	return out, err
}

func (r resource[T]) insert(ctx context.Context, row store.Row) (T, error) {
	var out T
	created, err := r.db.Insert(ctx, r.table, row)
	if err != nil {
		return out, err
	}
	err = store.FromRow(created, &out)
	return out, err
}

func (r resource[T]) update(ctx context.Context, id string, patch store.Row) (T, error) {
	var out T
	updated, err := store.UpdateOne(ctx, r.db, r.table, store.Where("id", id), patch)
	if err != nil {
		return out, err
	}
	err = store.FromRow(updated, &out)
	return out, err
}

func (r resource[T]) remove(ctx context.Context, id string) error {
	n, err := r.db.Delete(ctx, r.table, store.Where("id", id))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Page limita listagens; zero usa o padrão.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) apply(q store.Query) store.Query {
	limit := p.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	return q.Page(limit, offset)
}

func requireID(id string) error {
	if id == "" {
		return invalid("id", "obrigatório")
	}
	return nil
}
