package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gestaozabele/comercial/internal/auth"
)

type contextKey string

const ContextKeyClaims contextKey = "claims"

// WithClaims injeta as claims do access token no contexto.
func WithClaims(ctx context.Context, claims *auth.AccessClaims) context.Context {
	return context.WithValue(ctx, ContextKeyClaims, claims)
}

// GetClaims recupera claims do contexto.
func GetClaims(ctx context.Context) *auth.AccessClaims {
	val, _ := ctx.Value(ContextKeyClaims).(*auth.AccessClaims)
	return val
}

// GetUserID recupera o id do usuário autenticado.
func GetUserID(ctx context.Context) string {
	if c := GetClaims(ctx); c != nil {
		return c.UserID
	}
	return ""
}

// GetRole recupera o papel do usuário autenticado.
func GetRole(ctx context.Context) string {
	if c := GetClaims(ctx); c != nil {
		return c.Role
	}
	return ""
}

// RequireRole garante que o usuário possua um dos papéis informados.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := GetRole(r.Context())
			for _, allowed := range roles {
				if strings.EqualFold(role, allowed) {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, http.StatusForbidden, "FORBIDDEN", "acesso negado")
		})
	}
}

// bearerToken lê "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// AccessToken devolve o token do cookie ou, na falta dele, do cabeçalho.
func AccessToken(r *http.Request) (string, bool) {
	if tok, ok := auth.CookieValue(r, auth.AccessCookie); ok {
		return tok, true
	}
	return bearerToken(r)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": message,
		"code":  code,
	})
}
