package crm

import (
	"context"
	"strings"
	"time"

	"github.com/gestaozabele/comercial/internal/store"
	"github.com/gestaozabele/comercial/internal/util"
)

// ResponsavelInput é o corpo aceito em criação e edição.
type ResponsavelInput struct {
	Nome     string `json:"nome" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Cargo    string `json:"cargo" validate:"max=80"`
	Telefone string `json:"telefone" validate:"max=30"`
	Ativo    *bool  `json:"ativo"`
}

// ResponsavelService opera a tabela responsaveis.
type ResponsavelService struct {
	res resource[Responsavel]
	now func() time.Time
}

// NewResponsavelService cria nova instância.
func NewResponsavelService(db store.Store) *ResponsavelService {
	return &ResponsavelService{res: newResource[Responsavel](db, TableResponsaveis), now: util.Now}
}

func (s *ResponsavelService) List(ctx context.Context, ativo *bool, p Page) ([]Responsavel, error) {
	q := store.Query{}
	if ativo != nil {
		q = q.Eq("ativo", *ativo)
	}
	return s.res.list(ctx, p.apply(q.OrderBy("nome", false)))
}

func (s *ResponsavelService) Get(ctx context.Context, id string) (Responsavel, error) {
	if err := requireID(id); err != nil {
		return Responsavel{}, err
	}
	return s.res.get(ctx, id)
}

func (s *ResponsavelService) Create(ctx context.Context, in ResponsavelInput) (Responsavel, error) {
	if err := validateInput(in); err != nil {
		return Responsavel{}, err
	}
	r := in.apply(Responsavel{ID: util.NewID(), Ativo: true, DataCriacao: s.now()})
	return s.res.insert(ctx, store.ToRow(r))
}

func (s *ResponsavelService) Update(ctx context.Context, id string, in ResponsavelInput) (Responsavel, error) {
	if err := requireID(id); err != nil {
		return Responsavel{}, err
	}
	if err := validateInput(in); err != nil {
		return Responsavel{}, err
	}
	current, err := s.res.get(ctx, id)
	if err != nil {
		return Responsavel{}, err
	}
	patch := store.ToRow(in.apply(current))
	delete(patch, "id")
	delete(patch, "data_criacao")
	return s.res.update(ctx, id, patch)
}

func (s *ResponsavelService) Delete(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	return s.res.remove(ctx, id)
}

func (in ResponsavelInput) apply(r Responsavel) Responsavel {
	r.Nome = strings.TrimSpace(in.Nome)
	r.Email = util.NormalizeEmail(in.Email)
	r.Cargo = strings.TrimSpace(in.Cargo)
	r.Telefone = strings.TrimSpace(in.Telefone)
	if in.Ativo != nil {
		r.Ativo = *in.Ativo
	}
	return r
}
