package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gestaozabele/comercial/internal/crm"
)

var deleted = map[string]bool{"success": true}

func (h *Handler) ListClientes(w http.ResponseWriter, r *http.Request) {
	items, err := h.clientes.List(r.Context(), crm.ClienteFilter{Ativo: boolFromQuery(r, "ativo"), Page: pageFromQuery(r)})
	respond(w, r, http.StatusOK, items, err)
}

func (h *Handler) GetCliente(w http.ResponseWriter, r *http.Request) {
	item, err := h.clientes.Get(r.Context(), chi.URLParam(r, "id"))
	respond(w, r, http.StatusOK, item, err)
}

func (h *Handler) CreateCliente(w http.ResponseWriter, r *http.Request) {
	var in crm.ClienteInput
	if !decodeJSON(w, r, &in) {
		return
	}
	item, err := h.clientes.Create(r.Context(), in)
	respond(w, r, http.StatusCreated, item, err)
}

func (h *Handler) UpdateCliente(w http.ResponseWriter, r *http.Request) {
	var in crm.ClienteInput
	if !decodeJSON(w, r, &in) {
		return
	}
	item, err := h.clientes.Update(r.Context(), chi.URLParam(r, "id"), in)
	respond(w, r, http.StatusOK, item, err)
}

// DeleteCliente desativa o cliente e devolve o registro atualizado.
func (h *Handler) DeleteCliente(w http.ResponseWriter, r *http.Request) {
	item, err := h.clientes.Delete(r.Context(), chi.URLParam(r, "id"))
	respond(w, r, http.StatusOK, item, err)
}

func (h *Handler) ListOportunidades(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.oportunidades.List(r.Context(), crm.OportunidadeFilter{
		Status:        q.Get("status"),
		ClienteID:     q.Get("clienteId"),
		ResponsavelID: q.Get("responsavelId"),
		Page:          pageFromQuery(r),
	})
	respond(w, r, http.StatusOK, items, err)
}

func (h *Handler) Kanban(w http.ResponseWriter, r *http.Request) {
	columns, err := h.oportunidades.Kanban(r.Context())
	respond(w, r, http.StatusOK, columns, err)
}

func (h *Handler) GetOportunidade(w http.ResponseWriter, r *http.Request) {
	item, err := h.oportunidades.Get(r.Context(), chi.URLParam(r, "id"))
	respond(w, r, http.StatusOK, item, err)
}

func (h *Handler) CreateOportunidade(w http.ResponseWriter, r *http.Request) {
	var in crm.OportunidadeInput
	if !decodeJSON(w, r, &in) {
		return
	}
	item, err := h.oportunidades.Create(r.Context(), in)
	respond(w, r, http.StatusCreated, item, err)
}

func (h *Handler) UpdateOportunidade(w http.ResponseWriter, r *http.Request) {
	var in crm.OportunidadeInput
	if !decodeJSON(w, r, &in) {
		return
	}
	item, err := h.oportunidades.Update(r.Context(), chi.URLParam(r, "id"), in)
	respond(w, r, http.StatusOK, item, err)
}

// UpdateOportunidadeStatus move o cartão no Kanban, com fallback para o arquivo local.
func (h *Handler) UpdateOportunidadeStatus(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}
	result, err := h.status.UpdateStatus(r.Context(), chi.URLParam(r, "id"), payload.Status)
	respond(w, r, http.StatusOK, result, err)
}

func (h *Handler) DeleteOportunidade(w http.ResponseWriter, r *http.Request) {
	err := h.oportunidades.Delete(r.Context(), chi.URLParam(r, "id"))
	respond(w, r, http.StatusOK, deleted, err)
}

func (h *Handler) ListReunioes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.reunioes.List(r.Context(), crm.ReuniaoFilter{
		OportunidadeID: q.Get("oportunidadeId"),
		ClienteID:      q.Get("clienteId"),
		Page:           pageFromQuery(r),
	})
	respond(w, r, http.StatusOK, items, err)
}

func (h *Handler) GetReuniao(w http.ResponseWriter, r *http.Request) {
	item, err := h.reunioes.Get(r.Context(), chi.URLParam(r, "id"))
	respond(w, r, http.StatusOK, item, err)
}

func (h *Handler) CreateReuniao(w http.ResponseWriter, r *http.Request) {
	var in crm.ReuniaoInput
	if !decodeJSON(w, r, &in) {
		return
	}
	item, err := h.reunioes.Create(r.Context(), in)
	respond(w, r, http.StatusCreated, item, err)
}

func (h *Handler) UpdateReuniao(w http.ResponseWriter, r *http.Request) {
	var in crm.ReuniaoInput
	if !decodeJSON(w, r, &in) {
		return
	}
	item, err := h.reunioes.Update(r.Context(), chi.URLParam(r, "id"), in)
	respond(w, r, http.StatusOK, item, err)
}

func (h *Handler) DeleteReuniao(w http.ResponseWriter, r *http.Request) {
	err := h.reunioes.Delete(r.Context(), chi.URLParam(r, "id"))
	respond(w, r, http.StatusOK, deleted, err)
}

func (h *Handler) ListNotas(w http.ResponseWriter, r *http.Request) {
	items, err := h.notas.List(r.Context(), r.URL.Query().Get("oportunidadeId"), pageFromQuery(r))
	respond(w, r, http.StatusOK, items, err)
}

func (h *Handler) GetNota(w http.ResponseWriter, r *http.Request) {
	item, err := h.notas.Get(r.Context(), chi.URLParam(r, "id"))
	respond(w, r, http.StatusOK, item, err)
}

func (h *Handler) CreateNota(w http.ResponseWriter, r *http.Request) {
	var in crm.NotaInput
	if !decodeJSON(w, r, &in) {
		return
	}
	item, err := h.notas.Create(r.Context(), in)
	respond(w, r, http.StatusCreated, item, err)
}

func (h *Handler) UpdateNota(w http.ResponseWriter, r *http.Request) {
	var in crm.NotaInput
	if !decodeJSON(w, r, &in) {
		return
	}
	item, err := h.notas.Update(r.Context(), chi.URLParam(r, "id"), in)
	respond(w, r, http.StatusOK, item, err)
}

func (h *Handler) DeleteNota(w http.ResponseWriter, r *http.Request) {
	err := h.notas.Delete(r.Context(), chi.URLParam(r, "id"))
	respond(w, r, http.StatusOK, deleted, err)
}

func (h *Handler) ListResponsaveis(w http.ResponseWriter, r *http.Request) {
	items, err := h.responsaveis.List(r.Context(), boolFromQuery(r, "ativo"), pageFromQuery(r))
	respond(w, r, http.StatusOK, items, err)
}

func (h *Handler) GetResponsavel(w http.ResponseWriter, r *http.Request) {
	item, err := h.responsaveis.Get(r.Context(), chi.URLParam(r, "id"))
	respond(w, r, http.StatusOK, item, err)
}

func (h *Handler) CreateResponsavel(w http.ResponseWriter, r *http.Request) {
	var in crm.ResponsavelInput
	if !decodeJSON(w, r, &in) {
		return
	}
	item, err := h.responsaveis.Create(r.Context(), in)
	respond(w, r, http.StatusCreated, item, err)
}

func (h *Handler) UpdateResponsavel(w http.ResponseWriter, r *http.Request) {
	var in crm.ResponsavelInput
	if !decodeJSON(w, r, &in) {
		return
	}
	item, err := h.responsaveis.Update(r.Context(), chi.URLParam(r, "id"), in)
	respond(w, r, http.StatusOK, item, err)
}

func (h *Handler) DeleteResponsavel(w http.ResponseWriter, r *http.Request) {
	err := h.responsaveis.Delete(r.Context(), chi.URLParam(r, "id"))
	respond(w, r, http.StatusOK, deleted, err)
}

// respond escreve data ou traduz err.
func respond(w http.ResponseWriter, r *http.Request, status int, data any, err error) {
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, status, data)
}
