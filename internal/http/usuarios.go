package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	httpmiddleware "github.com/gestaozabele/comercial/internal/http/middleware"
	"github.com/gestaozabele/comercial/internal/service"
)

func (h *Handler) ListUsuarios(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) GetPerfil(w http.ResponseWriter, r *http.Request) {
	view, err := h.profiles.Get(r.Context(), httpmiddleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, view)
}

// UpdatePerfil grava usuário, perfil e preferências numa só chamada.
func (h *Handler) UpdatePerfil(w http.ResponseWriter, r *http.Request) {
	var in service.ProfileInput
	if !decodeJSON(w, r, &in) {
		return
	}
	view, err := h.profiles.Update(r.Context(), httpmiddleware.GetUserID(r.Context()), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	if payload.CurrentPassword == "" || payload.NewPassword == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "senha atual e nova senha são obrigatórias", nil)
		return
	}
	err := h.authService.ChangePassword(r.Context(), httpmiddleware.GetUserID(r.Context()), payload.CurrentPassword, payload.NewPassword)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// DeleteUsuario é restrito a administradores.
func (h *Handler) DeleteUsuario(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	err := h.users.Delete(ctx, httpmiddleware.GetUserID(ctx), httpmiddleware.GetRole(ctx), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
