package crm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/comercial/internal/store"
	"github.com/gestaozabele/comercial/internal/util"
)

// Origem da escrita de status.
const (
	SourceRemote    = "remote"
	SourceLocalFile = "local_file"
)

// StatusWriter grava o status de uma oportunidade e devolve o registro.
type StatusWriter interface {
	UpdateStatus(ctx context.Context, id string, status Status, at time.Time) (*Oportunidade, error)
}

// RemoteStatusWriter grava no banco principal.
type RemoteStatusWriter struct {
	db store.Store
}

// NewRemoteStatusWriter cria o writer sobre o store principal.
func NewRemoteStatusWriter(db store.Store) *RemoteStatusWriter {
	return &RemoteStatusWriter{db: db}
}

func (w *RemoteStatusWriter) UpdateStatus(ctx context.Context, id string, status Status, at time.Time) (*Oportunidade, error) {
	row, err := store.UpdateOne(ctx, w.db, TableOportunidades, store.Where("id", id), store.Row{
		"status":           string(status),
		"data_atualizacao": at,
	})
	if err != nil {
		return nil, err
	}
	var op Oportunidade
	if err := store.FromRow(row, &op); err != nil {
		return nil, err
	}
	return &op, nil
}

// StatusResult é a resposta do PATCH de status.
type StatusResult struct {
	ID      string        `json:"id"`
	Status  Status        `json:"status"`
	Success bool          `json:"success"`
	Source  string        `json:"source"`
	Data    *Oportunidade `json:"data,omitempty"`
}

// StatusTransitioner tenta o store principal e, em qualquer falha dele,
// grava no secundário. Os dois podem divergir; não há sincronização.
type StatusTransitioner struct {
	primary   StatusWriter
	secondary StatusWriter
	now       func() time.Time
	logger    zerolog.Logger
}

// NewStatusTransitioner compõe os writers. secondary pode ser nil.
func NewStatusTransitioner(primary, secondary StatusWriter) *StatusTransitioner {
	return &StatusTransitioner{
		primary:   primary,
		secondary: secondary,
		now:       util.Now,
		logger:    log.With().Str("component", "status_transition").Logger(),
	}
}

// UpdateStatus valida a entrada e aplica a transição.
func (t *StatusTransitioner) UpdateStatus(ctx context.Context, id, rawStatus string) (*StatusResult, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invalid("id", "obrigatório")
	}
	status, ok := ParseStatus(rawStatus)
	if !ok {
		return nil, invalid("status", "status inválido")
	}
	at := t.now()

	op, err := t.primary.UpdateStatus(ctx, id, status, at)
	if err == nil {
		return &StatusResult{ID: id, Status: status, Success: true, Source: SourceRemote, Data: op}, nil
	}
	if t.secondary == nil {
		return nil, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	t.logger.Warn().Err(err).Str("oportunidade_id", id).Str("status", string(status)).
		Msg("falha no banco principal, gravando no arquivo local")

	if _, ferr := t.secondary.UpdateStatus(ctx, id, status, at); ferr != nil {
		if errors.Is(ferr, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fallback local: %w", ferr)
	}
	return &StatusResult{ID: id, Status: status, Success: true, Source: SourceLocalFile}, nil
}
