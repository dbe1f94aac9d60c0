package repo

import (
	"context"
	"errors"
	"time"

	"github.com/gestaozabele/comercial/internal/store"
)

// Queries concentra o acesso a contas e sessões sobre um store.Store.
type Queries struct {
	db store.Store
}

// New cria Queries sobre o store configurado.
func New(db store.Store) *Queries {
	return &Queries{db: db}
}

// Store expõe o store subjacente.
func (q *Queries) Store() store.Store {
	return q.db
}

// Transactional indica se o store suporta WithTx.
func (q *Queries) Transactional() bool {
	_, ok := q.db.(store.Transactor)
	return ok
}

// WithTx executa fn numa transação quando suportado; caso contrário executa
// fn diretamente sobre o store.
func (q *Queries) WithTx(ctx context.Context, fn func(ctx context.Context, tx *Queries) error) error {
	tr, ok := q.db.(store.Transactor)
	if !ok {
		return fn(ctx, q)
	}
	return tr.WithTx(ctx, func(ctx context.Context, tx store.Store) error {
		return fn(ctx, New(tx))
	})
}

func (q *Queries) GetUsuarioByEmail(ctx context.Context, email string) (Usuario, error) {
	return q.getUsuario(ctx, store.Where("email", email))
}

func (q *Queries) GetUsuarioByID(ctx context.Context, id string) (Usuario, error) {
	return q.getUsuario(ctx, store.Where("id", id))
}

func (q *Queries) getUsuario(ctx context.Context, query store.Query) (Usuario, error) {
	row, err := store.One(ctx, q.db, TableUsers, query)
	if err != nil {
		return Usuario{}, err
	}
	var u Usuario
	if err := store.FromRow(row, &u); err != nil {
		return Usuario{}, err
	}
	return u, nil
}

func (q *Queries) ListUsuarios(ctx context.Context) ([]Usuario, error) {
	rows, err := q.db.Select(ctx, TableUsers, store.Query{}.OrderBy("name", false))
	if err != nil {
		return nil, err
	}
	return store.FromRows[Usuario](rows)
}

func (q *Queries) InsertUsuario(ctx context.Context, arg InsertUsuarioParams) (Usuario, error) {
	row, err := q.db.Insert(ctx, TableUsers, store.Row{
		"id":         arg.ID,
		"name":       arg.Name,
		"email":      arg.Email,
		"password":   arg.PasswordHash,
		"role":       arg.Role,
		"created_at": arg.CreatedAt,
		"updated_at": arg.CreatedAt,
	})
	if err != nil {
		return Usuario{}, err
	}
	var u Usuario
	if err := store.FromRow(row, &u); err != nil {
		return Usuario{}, err
	}
	return u, nil
}

func (q *Queries) UpdateUsuario(ctx context.Context, id string, arg UpdateUsuarioParams) (Usuario, error) {
	patch := store.Row{"updated_at": arg.UpdatedAt}
	if arg.Name != nil {
		patch["name"] = *arg.Name
	}
	if arg.Email != nil {
		patch["email"] = *arg.Email
	}
	if arg.AvatarURL != nil {
		patch["avatar_url"] = *arg.AvatarURL
	}
	row, err := store.UpdateOne(ctx, q.db, TableUsers, store.Where("id", id), patch)
	if err != nil {
		return Usuario{}, err
	}
	var u Usuario
	if err := store.FromRow(row, &u); err != nil {
		return Usuario{}, err
	}
	return u, nil
}

func (q *Queries) UpdateUsuarioSenha(ctx context.Context, id, hash string, at time.Time) error {
	_, err := store.UpdateOne(ctx, q.db, TableUsers, store.Where("id", id), store.Row{
		"password":   hash,
		"updated_at": at,
	})
	return err
}

func (q *Queries) DeleteUsuario(ctx context.Context, id string) error {
	n, err := q.db.Delete(ctx, TableUsers, store.Where("id", id))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (q *Queries) InsertRefreshToken(ctx context.Context, arg InsertRefreshTokenParams) (TokenRefresh, error) {
	row, err := q.db.Insert(ctx, TableRefreshTokens, store.ToRow(TokenRefresh{
		ID:        arg.ID,
		UserID:    arg.UserID,
		TokenHash: arg.TokenHash,
		ExpiresAt: arg.ExpiresAt,
		CreatedAt: arg.CreatedAt,
	}))
	if err != nil {
		return TokenRefresh{}, err
	}
	var t TokenRefresh
	if err := store.FromRow(row, &t); err != nil {
		return TokenRefresh{}, err
	}
	return t, nil
}

func (q *Queries) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (TokenRefresh, error) {
	row, err := store.One(ctx, q.db, TableRefreshTokens, store.Where("token_hash", tokenHash))
	if err != nil {
		return TokenRefresh{}, err
	}
	var t TokenRefresh
	if err := store.FromRow(row, &t); err != nil {
		return TokenRefresh{}, err
	}
	return t, nil
}

// DeleteRefreshToken apaga a sessão pelo hash e informa quantas linhas saíram.
func (q *Queries) DeleteRefreshToken(ctx context.Context, tokenHash string) (int, error) {
	return q.db.Delete(ctx, TableRefreshTokens, store.Where("token_hash", tokenHash))
}

func (q *Queries) DeleteRefreshTokensByUser(ctx context.Context, userID string) (int, error) {
	return q.db.Delete(ctx, TableRefreshTokens, store.Where("user_id", userID))
}

// DeleteExpiredRefreshTokens remove sessões vencidas antes de before.
func (q *Queries) DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int, error) {
	return q.db.Delete(ctx, TableRefreshTokens, store.Query{}.Lt("expires_at", before))
}

func (q *Queries) GetPerfil(ctx context.Context, userID string) (Perfil, error) {
	row, err := store.One(ctx, q.db, TablePerfis, store.Where("user_id", userID))
	if err != nil {
		return Perfil{}, err
	}
	var p Perfil
	if err := store.FromRow(row, &p); err != nil {
		return Perfil{}, err
	}
	return p, nil
}

func (q *Queries) UpsertPerfil(ctx context.Context, p Perfil) (Perfil, error) {
	row, err := q.upsert(ctx, TablePerfis, p.UserID, store.ToRow(p))
	if err != nil {
		return Perfil{}, err
	}
	var out Perfil
	if err := store.FromRow(row, &out); err != nil {
		return Perfil{}, err
	}
	return out, nil
}

func (q *Queries) GetPreferencias(ctx context.Context, userID string) (Preferencias, error) {
	row, err := store.One(ctx, q.db, TablePreferencias, store.Where("user_id", userID))
	if err != nil {
		return Preferencias{}, err
	}
	var p Preferencias
	if err := store.FromRow(row, &p); err != nil {
		return Preferencias{}, err
	}
	return p, nil
}

func (q *Queries) UpsertPreferencias(ctx context.Context, p Preferencias) (Preferencias, error) {
	row, err := q.upsert(ctx, TablePreferencias, p.UserID, store.ToRow(p))
	if err != nil {
		return Preferencias{}, err
	}
	var out Preferencias
	if err := store.FromRow(row, &out); err != nil {
		return Preferencias{}, err
	}
	return out, nil
}

func (q *Queries) upsert(ctx context.Context, table, userID string, row store.Row) (store.Row, error) {
	updated, err := store.UpdateOne(ctx, q.db, table, store.Where("user_id", userID), row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return q.db.Insert(ctx, table, row)
}
