package crm

import (
	"context"
	"strings"
	"time"

	"github.com/gestaozabele/comercial/internal/store"
	"github.com/gestaozabele/comercial/internal/util"
)

// NotaInput é o corpo aceito em criação e edição.
type NotaInput struct {
	OportunidadeID string `json:"oportunidadeId" validate:"required"`
	Conteudo       string `json:"conteudo" validate:"required,max=5000"`
	Autor          string `json:"autor" validate:"max=120"`
	Tipo           string `json:"tipo" validate:"omitempty,oneof=nota ligacao email reuniao tarefa"`
}

// NotaService opera a tabela notas.
type NotaService struct {
	res resource[Nota]
	now func() time.Time
}

// NewNotaService cria nova instância.
func NewNotaService(db store.Store) *NotaService {
	return &NotaService{res: newResource[Nota](db, TableNotas), now: util.Now}
}

// List devolve as notas, mais recentes primeiro; oportunidadeID vazio lista todas.
func (s *NotaService) List(ctx context.Context, oportunidadeID string, p Page) ([]Nota, error) {
	q := store.Query{}
	if oportunidadeID != "" {
		q = q.Eq("oportunidade_id", oportunidadeID)
	}
	return s.res.list(ctx, p.apply(q.OrderBy("data_criacao", true)))
}

func (s *NotaService) Get(ctx context.Context, id string) (Nota, error) {
	if err := requireID(id); err != nil {
		return Nota{}, err
	}
	return s.res.get(ctx, id)
}

func (s *NotaService) Create(ctx context.Context, in NotaInput) (Nota, error) {
	if err := validateInput(in); err != nil {
		return Nota{}, err
	}
	n := in.apply(Nota{ID: util.NewID(), DataCriacao: s.now()})
	return s.res.insert(ctx, store.ToRow(n))
}

func (s *NotaService) Update(ctx context.Context, id string, in NotaInput) (Nota, error) {
	if err := requireID(id); err != nil {
		return Nota{}, err
	}
	if err := validateInput(in); err != nil {
		return Nota{}, err
	}
	current, err := s.res.get(ctx, id)
	if err != nil {
		return Nota{}, err
	}
	patch := store.ToRow(in.apply(current))
	delete(patch, "id")
	delete(patch, "data_criacao")
	return s.res.update(ctx, id, patch)
}

func (s *NotaService) Delete(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	return s.res.remove(ctx, id)
}

func (in NotaInput) apply(n Nota) Nota {
	n.OportunidadeID = in.OportunidadeID
	n.Conteudo = strings.TrimSpace(in.Conteudo)
	n.Autor = strings.TrimSpace(in.Autor)
	n.Tipo = in.Tipo
	if n.Tipo == "" {
		n.Tipo = "nota"
	}
	return n
}
