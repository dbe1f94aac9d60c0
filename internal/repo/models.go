package repo

import "time"

// Tabelas de contas e sessões.
const (
	TableUsers         = "users"
	TableRefreshTokens = "refresh_tokens"
	TablePerfis        = "perfis"
	TablePreferencias  = "preferencias"
)

// Usuario representa conta do CRM.
type Usuario struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password"`
	Role         string    `json:"role" db:"role"`
	AvatarURL    *string   `json:"avatarUrl" db:"avatar_url"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// TokenRefresh modela tabela de refresh tokens. Guarda apenas o hash.
type TokenRefresh struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	TokenHash string    `db:"token_hash"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// Perfil guarda dados complementares do usuário.
type Perfil struct {
	UserID    string    `json:"userId" db:"user_id"`
	Telefone  string    `json:"telefone" db:"telefone"`
	Cargo     string    `json:"cargo" db:"cargo"`
	Bio       string    `json:"bio" db:"bio"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Preferencias guarda opções de interface.
type Preferencias struct {
	UserID       string    `json:"userId" db:"user_id"`
	Tema         string    `json:"tema" db:"tema"`
	Notificacoes bool      `json:"notificacoes" db:"notificacoes"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// InsertUsuarioParams agrupa campos de criação de usuário.
type InsertUsuarioParams struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// UpdateUsuarioParams altera apenas campos não nulos.
type UpdateUsuarioParams struct {
	Name      *string
	Email     *string
	AvatarURL *string
	UpdatedAt time.Time
}

// InsertRefreshTokenParams agrupa campos de uma nova sessão.
type InsertRefreshTokenParams struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}
