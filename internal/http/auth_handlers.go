package http

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/comercial/internal/auth"
	httpmiddleware "github.com/gestaozabele/comercial/internal/http/middleware"
	"github.com/gestaozabele/comercial/internal/service"
)

const oauthStateTTL = 10 * time.Minute

// Login autentica por email e senha e grava os cookies de sessão.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	if strings.TrimSpace(payload.Email) == "" || payload.Password == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "email e senha são obrigatórios", nil)
		return
	}

	result, err := h.authService.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.cookies.SetSession(w, result.Session)
	WriteJSON(w, http.StatusOK, map[string]any{"user": result.User})
}

// Register cria conta com papel padrão e já abre a sessão.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	result, err := h.authService.Register(r.Context(), payload.Name, payload.Email, payload.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.cookies.SetSession(w, result.Session)
	WriteJSON(w, http.StatusCreated, map[string]any{"user": result.User})
}

// Refresh rotaciona a sessão a partir do cookie de refresh. Com ?redirect,
// responde 303 para o destino (sucesso) ou para o login (falha).
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	redirect := r.URL.Query().Get("redirect")
	token, _ := auth.CookieValue(r, auth.RefreshCookie)

	result, err := h.authService.Refresh(r.Context(), token)
	if err != nil {
		invalid := errors.Is(err, service.ErrRefreshInvalid)
		if invalid {
			h.cookies.ClearSession(w)
		} else {
			log.Error().Err(err).Msg("refresh: falha ao renovar sessão")
		}
		if redirect != "" {
			target := h.cfg.LoginPath + "?redirect=" + url.QueryEscape(httpmiddleware.SafeRedirect(redirect, "/"))
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		if invalid {
			WriteError(w, http.StatusUnauthorized, "AUTH", "refresh inválido", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro ao renovar sessão", nil)
		return
	}

	h.cookies.SetSession(w, result.Session)
	if redirect != "" {
		http.Redirect(w, r, httpmiddleware.SafeRedirect(redirect, "/"), http.StatusSeeOther)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"user": result.User})
}

// Logout revoga o refresh atual; os cookies são limpos mesmo se a revogação falhar.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := auth.CookieValue(r, auth.RefreshCookie); ok {
		if err := h.authService.Logout(r.Context(), token); err != nil {
			log.Warn().Err(err).Msg("logout: falha ao revogar sessão")
		}
	}
	h.cookies.ClearSession(w)
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Verify informa se o access token atual é válido.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	token, ok := httpmiddleware.AccessToken(r)
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, map[string]bool{"authenticated": false})
		return
	}
	user, err := h.authService.Verify(r.Context(), token)
	if err != nil {
		if !errors.Is(err, service.ErrTokenInvalid) {
			log.Error().Err(err).Msg("verify: falha ao carregar usuário")
		}
		WriteJSON(w, http.StatusUnauthorized, map[string]bool{"authenticated": false})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"authenticated": true, "user": user})
}

// Me retorna o usuário autenticado.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.Me(r.Context(), httpmiddleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"user": user})
}

// MicrosoftStart redireciona ao login corporativo com state aleatório.
func (h *Handler) MicrosoftStart(w http.ResponseWriter, r *http.Request) {
	if h.microsoft == nil {
		WriteError(w, http.StatusNotFound, "NOT_CONFIGURED", "login Microsoft não configurado", nil)
		return
	}
	state, err := auth.RandomToken()
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "erro ao iniciar login", nil)
		return
	}
	h.cookies.SetState(w, state, time.Now().Add(oauthStateTTL))
	http.Redirect(w, r, h.microsoft.AuthCodeURL(state), http.StatusFound)
}

// MicrosoftCallback valida o state, troca o code e abre a sessão.
func (h *Handler) MicrosoftCallback(w http.ResponseWriter, r *http.Request) {
	if h.microsoft == nil {
		WriteError(w, http.StatusNotFound, "NOT_CONFIGURED", "login Microsoft não configurado", nil)
		return
	}
	fail := func(reason string) {
		http.Redirect(w, r, h.cfg.LoginPath+"?error="+url.QueryEscape(reason), http.StatusSeeOther)
	}

	q := r.URL.Query()
	expected, _ := auth.CookieValue(r, auth.StateCookie)
	h.cookies.Clear(w, auth.StateCookie)

	if q.Get("error") != "" {
		fail("microsoft_" + q.Get("error"))
		return
	}
	state := q.Get("state")
	if expected == "" || subtle.ConstantTimeCompare([]byte(state), []byte(expected)) != 1 {
		fail("state_invalido")
		return
	}
	code := q.Get("code")
	if code == "" {
		fail("code_ausente")
		return
	}

	msUser, err := h.microsoft.Exchange(r.Context(), code)
	if err != nil {
		log.Warn().Err(err).Msg("microsoft: troca de code falhou")
		fail("microsoft_falhou")
		return
	}
	result, err := h.authService.LoginMicrosoft(r.Context(), msUser)
	if err != nil {
		log.Error().Err(err).Msg("microsoft: falha ao abrir sessão")
		fail("sessao_falhou")
		return
	}
	h.cookies.SetSession(w, result.Session)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
