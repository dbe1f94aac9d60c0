package pg

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gestaozabele/comercial/internal/db"
	"github.com/gestaozabele/comercial/internal/store"
)

const dbTimeout = 5 * time.Second

// Querier é atendido por *pgxpool.Pool, pgx.Tx e pgxmock.PgxPoolIface.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store implementa store.Store com SQL parametrizado sobre pgx.
type Store struct {
	db Querier
}

// New cria o store sobre um pool ou transação.
func New(q Querier) *Store {
	return &Store{db: q}
}

func (s *Store) Select(ctx context.Context, table string, q store.Query) ([]store.Row, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var args []any
	var sb strings.Builder
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(ident(table))
	sb.WriteString(whereClause(q.Filters, &args))
	if len(q.Orders) > 0 {
		parts := make([]string, 0, len(q.Orders))
		for _, o := range q.Orders {
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			parts = append(parts, ident(o.Column)+" "+dir)
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(parts, ", "))
	}
	if q.Limit > 0 {
		sb.WriteString(" LIMIT " + strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		sb.WriteString(" OFFSET " + strconv.Itoa(q.Offset))
	}

	rows, err := s.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return nil, mapError(err)
	}
	return collect(rows)
}

func (s *Store) Insert(ctx context.Context, table string, row store.Row) (store.Row, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cols := sortedColumns(row)
	var sql string
	args := make([]any, 0, len(cols))
	if len(cols) == 0 {
		sql = "INSERT INTO " + ident(table) + " DEFAULT VALUES RETURNING *"
	} else {
		names := make([]string, len(cols))
		holders := make([]string, len(cols))
		for i, col := range cols {
			names[i] = ident(col)
			holders[i] = "$" + strconv.Itoa(i+1)
			args = append(args, row[col])
		}
		sql = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
			ident(table), strings.Join(names, ", "), strings.Join(holders, ", "))
	}

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err)
	}
	out, err := collect(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("pg: insert sem retorno")
	}
	return out[0], nil
}

func (s *Store) Update(ctx context.Context, table string, q store.Query, patch store.Row) ([]store.Row, error) {
	if len(patch) == 0 {
		return s.Select(ctx, table, q)
	}
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cols := sortedColumns(patch)
	args := make([]any, 0, len(cols)+len(q.Filters))
	sets := make([]string, len(cols))
	for i, col := range cols {
		args = append(args, patch[col])
		sets[i] = ident(col) + " = $" + strconv.Itoa(len(args))
	}
	sql := "UPDATE " + ident(table) + " SET " + strings.Join(sets, ", ") +
		whereClause(q.Filters, &args) + " RETURNING *"

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError(err)
	}
	return collect(rows)
}

func (s *Store) Delete(ctx context.Context, table string, q store.Query) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var args []any
	sql := "DELETE FROM " + ident(table) + whereClause(q.Filters, &args)
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, mapError(err)
	}
	return int(tag.RowsAffected()), nil
}

// WithTx executa fn numa transação; o store recebido escreve dentro dela.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return db.WithTx(ctx, s.db, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, &Store{db: tx})
	})
}

func whereClause(filters []store.Filter, args *[]any) string {
	if len(filters) == 0 {
		return ""
	}
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		if f.Value == nil && f.Op != store.OpLt {
			parts = append(parts, ident(f.Column)+" IS NULL")
			continue
		}
		*args = append(*args, f.Value)
		op := "="
		if f.Op == store.OpLt {
			op = "<"
		}
		parts = append(parts, ident(f.Column)+" "+op+" $"+strconv.Itoa(len(*args)))
	}
	return " WHERE " + strings.Join(parts, " AND ")
}

func collect(rows pgx.Rows) ([]store.Row, error) {
	defer rows.Close()

	out := []store.Row{}
	var fields []pgconn.FieldDescription
	for rows.Next() {
		if fields == nil {
			fields = rows.FieldDescriptions()
		}
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(store.Row, len(fields))
		for i, fd := range fields {
			if i < len(values) {
				row[fd.Name] = normalize(values[i])
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

// normalize converte tipos do pgx nos tipos que o mapeamento entende.
func normalize(v any) any {
	switch val := v.(type) {
	case [16]byte:
		return uuid.UUID(val).String()
	case pgtype.Numeric:
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case int32:
		return int64(val)
	case int16:
		return int64(val)
	}
	return v
}

func mapError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("pg: %s: %w", pgErr.ConstraintName, store.ErrConflict)
	}
	return err
}

func sortedColumns(row store.Row) []string {
	cols := make([]string, 0, len(row))
	for col := range row {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}
