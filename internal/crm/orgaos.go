package crm

import (
	"context"
	"strings"
	"time"

	"github.com/gestaozabele/comercial/internal/store"
	"github.com/gestaozabele/comercial/internal/util"
)

// OrgaoInput é o corpo aceito em criação e edição.
type OrgaoInput struct {
	Nome     string `json:"nome" validate:"required,max=200"`
	CNPJ     string `json:"cnpj" validate:"omitempty,cnpj"`
	Esfera   string `json:"esfera" validate:"omitempty,oneof=municipal estadual federal"`
	Cidade   string `json:"cidade" validate:"max=120"`
	UF       string `json:"uf" validate:"omitempty,len=2"`
	Contato  string `json:"contato" validate:"max=120"`
	Email    string `json:"email" validate:"omitempty,email"`
	Telefone string `json:"telefone" validate:"max=30"`
}

// OrgaoService opera a tabela orgaos.
type OrgaoService struct {
	res resource[Orgao]
	now func() time.Time
}

// NewOrgaoService cria nova instância.
func NewOrgaoService(db store.Store) *OrgaoService {
	return &OrgaoService{res: newResource[Orgao](db, TableOrgaos), now: util.Now}
}

func (s *OrgaoService) List(ctx context.Context, esfera string, p Page) ([]Orgao, error) {
	q := store.Query{}
	if esfera != "" {
		q = q.Eq("esfera", strings.ToLower(esfera))
	}
	return s.res.list(ctx, p.apply(q.OrderBy("nome", false)))
}

func (s *OrgaoService) Get(ctx context.Context, id string) (Orgao, error) {
	if err := requireID(id); err != nil {
		return Orgao{}, err
	}
	return s.res.get(ctx, id)
}

func (s *OrgaoService) Create(ctx context.Context, in OrgaoInput) (Orgao, error) {
	if err := validateInput(in); err != nil {
		return Orgao{}, err
	}
	now := s.now()
	o := in.apply(Orgao{ID: util.NewID(), DataCriacao: now})
	o.DataAtualizacao = now
	return s.res.insert(ctx, store.ToRow(o))
}

func (s *OrgaoService) Update(ctx context.Context, id string, in OrgaoInput) (Orgao, error) {
	if err := requireID(id); err != nil {
		return Orgao{}, err
	}
	if err := validateInput(in); err != nil {
		return Orgao{}, err
	}
	current, err := s.res.get(ctx, id)
	if err != nil {
		return Orgao{}, err
	}
	o := in.apply(current)
	o.DataAtualizacao = s.now()
	patch := store.ToRow(o)
	delete(patch, "id")
	delete(patch, "data_criacao")
	return s.res.update(ctx, id, patch)
}

func (s *OrgaoService) Delete(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	return s.res.remove(ctx, id)
}

func (in OrgaoInput) apply(o Orgao) Orgao {
	o.Nome = strings.TrimSpace(in.Nome)
	o.CNPJ = onlyDigits(in.CNPJ)
	o.Esfera = in.Esfera
	o.Cidade = strings.TrimSpace(in.Cidade)
	o.UF = strings.ToUpper(strings.TrimSpace(in.UF))
	o.Contato = strings.TrimSpace(in.Contato)
	o.Email = util.NormalizeEmail(in.Email)
	o.Telefone = strings.TrimSpace(in.Telefone)
	return o
}
