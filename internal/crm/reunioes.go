package crm

import (
	"context"
	"strings"
	"time"

	"github.com/gestaozabele/comercial/internal/store"
	"github.com/gestaozabele/comercial/internal/util"
)

// ReuniaoInput é o corpo aceito em criação e edição.
type ReuniaoInput struct {
	Titulo         string    `json:"titulo" validate:"required,max=200"`
	Data           time.Time `json:"data" validate:"required"`
	OportunidadeID *string   `json:"oportunidadeId"`
	ClienteID      *string   `json:"clienteId"`
	Local          string    `json:"local" validate:"max=200"`
	Link           string    `json:"link" validate:"omitempty,url"`
	Participantes  []string  `json:"participantes"`
	Pauta          string    `json:"pauta"`
	Concluida      bool      `json:"concluida"`
}

// ReuniaoFilter restringe a listagem.
type ReuniaoFilter struct {
	OportunidadeID string
	ClienteID      string
	Page
}

// ReuniaoService opera a tabela reunioes.
type ReuniaoService struct {
	res resource[Reuniao]
	now func() time.Time
}

// NewReuniaoService cria nova instância.
func NewReuniaoService(db store.Store) *ReuniaoService {
	return &ReuniaoService{res: newResource[Reuniao](db, TableReunioes), now: util.Now}
}

func (s *ReuniaoService) List(ctx context.Context, f ReuniaoFilter) ([]Reuniao, error) {
	q := store.Query{}
	if f.OportunidadeID != "" {
		q = q.Eq("oportunidade_id", f.OportunidadeID)
	}
	if f.ClienteID != "" {
		q = q.Eq("cliente_id", f.ClienteID)
	}
	return s.res.list(ctx, f.apply(q.OrderBy("data", false)))
}

func (s *ReuniaoService) Get(ctx context.Context, id string) (Reuniao, error) {
	if err := requireID(id); err != nil {
		return Reuniao{}, err
	}
	return s.res.get(ctx, id)
}

func (s *ReuniaoService) Create(ctx context.Context, in ReuniaoInput) (Reuniao, error) {
	if err := validateInput(in); err != nil {
		return Reuniao{}, err
	}
	r := in.apply(Reuniao{ID: util.NewID(), DataCriacao: s.now()})
	return s.res.insert(ctx, store.ToRow(r))
}

func (s *ReuniaoService) Update(ctx context.Context, id string, in ReuniaoInput) (Reuniao, error) {
	if err := requireID(id); err != nil {
		return Reuniao{}, err
	}
	if err := validateInput(in); err != nil {
		return Reuniao{}, err
	}
	current, err := s.res.get(ctx, id)
	if err != nil {
		return Reuniao{}, err
	}
	patch := store.ToRow(in.apply(current))
	delete(patch, "id")
	delete(patch, "data_criacao")
	return s.res.update(ctx, id, patch)
}

func (s *ReuniaoService) Delete(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	return s.res.remove(ctx, id)
}

func (in ReuniaoInput) apply(r Reuniao) Reuniao {
	r.Titulo = strings.TrimSpace(in.Titulo)
	r.Data = in.Data.UTC()
	r.OportunidadeID = in.OportunidadeID
	r.ClienteID = in.ClienteID
	r.Local = strings.TrimSpace(in.Local)
	r.Link = strings.TrimSpace(in.Link)
	r.Participantes = in.Participantes
	if r.Participantes == nil {
		r.Participantes = []string{}
	}
	r.Pauta = in.Pauta
	r.Concluida = in.Concluida
	return r
}
