package auth

import (
	"net/http"
	"time"
)

// Nomes dos cookies de sessão.
const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"
	StateCookie   = "oauthState"
)

// CookieJar grava cookies httpOnly com SameSite=Lax; Secure em produção.
type CookieJar struct {
	Secure bool
}

// SetSession grava os dois tokens.
func (j CookieJar) SetSession(w http.ResponseWriter, s Session) {
	j.set(w, AccessCookie, s.AccessToken, s.AccessExpires)
	j.set(w, RefreshCookie, s.RefreshToken, s.RefreshExpires)
}

// SetAccess grava apenas o token de acesso.
func (j CookieJar) SetAccess(w http.ResponseWriter, token string, expires time.Time) {
	j.set(w, AccessCookie, token, expires)
}

// ClearSession expira os dois cookies.
func (j CookieJar) ClearSession(w http.ResponseWriter) {
	j.Clear(w, AccessCookie)
	j.Clear(w, RefreshCookie)
}

// SetState grava o state do OAuth por alguns minutos.
func (j CookieJar) SetState(w http.ResponseWriter, state string, expires time.Time) {
	j.set(w, StateCookie, state, expires)
}

// Clear expira um cookie pelo nome.
func (j CookieJar) Clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   j.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (j CookieJar) set(w http.ResponseWriter, name, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   j.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Session agrupa tokens emitidos juntos.
type Session struct {
	AccessToken    string
	AccessExpires  time.Time
	RefreshToken   string
	RefreshExpires time.Time
}

// CookieValue lê um cookie não vazio.
func CookieValue(r *http.Request, name string) (string, bool) {
	c, err := r.Cookie(name)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}
