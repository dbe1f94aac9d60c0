package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gestaozabele/comercial/internal/crm"
	httpmiddleware "github.com/gestaozabele/comercial/internal/http/middleware"
)

func (h *Handler) ListLicitacoes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.licitacoes.List(r.Context(), crm.LicitacaoFilter{
		Status:  q.Get("status"),
		OrgaoID: q.Get("orgaoId"),
		Page:    pageFromQuery(r),
	})
	respond(w, r, http.StatusOK, items, err)
}

// GetLicitacao inclui os documentos vinculados.
func (h *Handler) GetLicitacao(w http.ResponseWriter, r *http.Request) {
	item, err := h.licitacoes.Get(r.Context(), chi.URLParam(r, "id"))
	respond(w, r, http.StatusOK, item, err)
}

func (h *Handler) CreateLicitacao(w http.ResponseWriter, r *http.Request) {
	var in crm.LicitacaoInput
	if !decodeJSON(w, r, &in) {
		return
	}
	item, err := h.licitacoes.Create(r.Context(), in)
	respond(w, r, http.StatusCreated, item, err)
}

func (h *Handler) UpdateLicitacao(w http.ResponseWriter, r *http.Request) {
	var in crm.LicitacaoInput
	if !decodeJSON(w, r, &in) {
		return
	}
	item, err := h.licitacoes.Update(r.Context(), chi.URLParam(r, "id"), in)
	respond(w, r, http.StatusOK, item, err)
}

func (h *Handler) DeleteLicitacao(w http.ResponseWriter, r *http.Request) {
	err := h.licitacoes.Delete(r.Context(), chi.URLParam(r, "id"))
	respond(w, r, http.StatusOK, deleted, err)
}

func (h *Handler) ListLicitacaoDocumentos(w http.ResponseWriter, r *http.Request) {
	items, err := h.documentos.List(r.Context(), crm.DocumentoFilter{
		LicitacaoID: chi.URLParam(r, "id"),
		Page:        pageFromQuery(r),
	})
	respond(w, r, http.StatusOK, items, err)
}

// UploadLicitacaoDocumento recebe multipart com o campo "file".
func (h *Handler) UploadLicitacaoDocumento(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.licitacoes.Get(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.upload(w, r, &id)
}

func (h *Handler) ListDocumentos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.documentos.List(r.Context(), crm.DocumentoFilter{
		LicitacaoID:    q.Get("licitacaoId"),
		OportunidadeID: q.Get("oportunidadeId"),
		Page:           pageFromQuery(r),
	})
	respond(w, r, http.StatusOK, items, err)
}

func (h *Handler) UploadDocumento(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, nil)
}

func (h *Handler) GetDocumento(w http.ResponseWriter, r *http.Request) {
	item, err := h.documentos.Get(r.Context(), chi.URLParam(r, "id"))
	respond(w, r, http.StatusOK, item, err)
}

// DeleteDocumento apaga o arquivo do bucket e depois o registro.
func (h *Handler) DeleteDocumento(w http.ResponseWriter, r *http.Request) {
	err := h.documentos.Delete(r.Context(), chi.URLParam(r, "id"))
	respond(w, r, http.StatusOK, deleted, err)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request, licitacaoID *string) {
	r.Body = http.MaxBytesReader(w, r.Body, crm.MaxDocumentoSize+1<<20)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			WriteError(w, http.StatusRequestEntityTooLarge, "VALIDATION", "arquivo excede o limite", nil)
			return
		}
		WriteError(w, http.StatusBadRequest, "VALIDATION", "multipart inválido", nil)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "campo file obrigatório", map[string]string{"file": "obrigatório"})
		return
	}
	defer file.Close()

	in := crm.DocumentoUpload{
		Nome:        r.FormValue("nome"),
		Tipo:        r.FormValue("tipo"),
		Categoria:   r.FormValue("categoria"),
		UploadPor:   r.FormValue("uploadPor"),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
	if in.UploadPor == "" {
		if claims := httpmiddleware.GetClaims(r.Context()); claims != nil {
			in.UploadPor = claims.Email
		}
	}
	if licitacaoID != nil {
		in.LicitacaoID = licitacaoID
	} else if v := strings.TrimSpace(r.FormValue("licitacaoId")); v != "" {
		in.LicitacaoID = &v
	}
	if v := strings.TrimSpace(r.FormValue("oportunidadeId")); v != "" {
		in.OportunidadeID = &v
	}

	doc, err := h.documentos.Upload(r.Context(), in)
	respond(w, r, http.StatusCreated, doc, err)
}

func (h *Handler) ListOrgaos(w http.ResponseWriter, r *http.Request) {
	items, err := h.orgaos.List(r.Context(), r.URL.Query().Get("esfera"), pageFromQuery(r))
	respond(w, r, http.StatusOK, items, err)
}

func (h *Handler) GetOrgao(w http.ResponseWriter, r *http.Request) {
	item, err := h.orgaos.Get(r.Context(), chi.URLParam(r, "id"))
	respond(w, r, http.StatusOK, item, err)
}

func (h *Handler) CreateOrgao(w http.ResponseWriter, r *http.Request) {
	var in crm.OrgaoInput
	if !decodeJSON(w, r, &in) {
		return
	}
	item, err := h.orgaos.Create(r.Context(), in)
	respond(w, r, http.StatusCreated, item, err)
}

func (h *Handler) UpdateOrgao(w http.ResponseWriter, r *http.Request) {
	var in crm.OrgaoInput
	if !decodeJSON(w, r, &in) {
		return
	}
	item, err := h.orgaos.Update(r.Context(), chi.URLParam(r, "id"), in)
	respond(w, r, http.StatusOK, item, err)
}

func (h *Handler) DeleteOrgao(w http.ResponseWriter, r *http.Request) {
	err := h.orgaos.Delete(r.Context(), chi.URLParam(r, "id"))
	respond(w, r, http.StatusOK, deleted, err)
}
