package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/comercial/internal/auth"
)

// Renewer troca um refresh token por uma nova sessão.
type Renewer interface {
	Renew(ctx context.Context, refreshToken string) (auth.Session, error)
}

// GuardConfig descreve a proteção de rotas.
type GuardConfig struct {
	Tokens      *auth.TokenManager
	Renewer     Renewer
	Cookies     auth.CookieJar
	LoginPath   string
	RefreshPath string
	// Public lista caminhos liberados; entradas terminadas em "/*" liberam o prefixo.
	Public []string
}

// Guard aplica o ciclo de sessão por requisição:
//   - sem access e sem refresh: login;
//   - sem access com refresh: renovação silenciosa;
//   - access inválido com refresh: redireciona ao endpoint de refresh.
//
// Rotas /api/ respondem 401 em vez de redirecionar e renovam em silêncio
// também quando o access é inválido.
func Guard(cfg GuardConfig) func(http.Handler) http.Handler {
	exact := make(map[string]struct{}, len(cfg.Public))
	var prefixes []string
	for _, p := range cfg.Public {
		if strings.HasSuffix(p, "/*") {
			prefixes = append(prefixes, strings.TrimSuffix(p, "*"))
			continue
		}
		exact[p] = struct{}{}
	}
	isPublic := func(path string) bool {
		if _, ok := exact[path]; ok {
			return true
		}
		for _, p := range prefixes {
			if strings.HasPrefix(path, p) {
				return true
			}
		}
		return false
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || isPublic(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			refresh, hasRefresh := auth.CookieValue(r, auth.RefreshCookie)
			access, hasAccess := AccessToken(r)

			if hasAccess {
				if claims, ok := cfg.Tokens.VerifyAccessToken(access); ok {
					next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
					return
				}
				if hasRefresh && !isAPI(r) {
					http.Redirect(w, r, withRedirect(cfg.RefreshPath, r.URL.RequestURI()), http.StatusSeeOther)
					return
				}
			}

			if !hasRefresh || cfg.Renewer == nil {
				unauthenticated(w, r, cfg.LoginPath)
				return
			}

			session, err := cfg.Renewer.Renew(r.Context(), refresh)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("guard: renovação silenciosa falhou")
				unauthenticated(w, r, cfg.LoginPath)
				return
			}
			claims, ok := cfg.Tokens.VerifyAccessToken(session.AccessToken)
			if !ok {
				unauthenticated(w, r, cfg.LoginPath)
				return
			}
			if session.RefreshToken != "" {
				cfg.Cookies.SetSession(w, session)
			} else {
				cfg.Cookies.SetAccess(w, session.AccessToken, session.AccessExpires)
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func unauthenticated(w http.ResponseWriter, r *http.Request, loginPath string) {
	if isAPI(r) {
		writeError(w, http.StatusUnauthorized, "AUTH", "não autenticado")
		return
	}
	http.Redirect(w, r, withRedirect(loginPath, r.URL.RequestURI()), http.StatusSeeOther)
}

func isAPI(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

func withRedirect(base, target string) string {
	return base + "?redirect=" + url.QueryEscape(target)
}

// SafeRedirect aceita apenas caminhos locais; qualquer outro valor vira fallback.
func SafeRedirect(raw, fallback string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return raw
}
