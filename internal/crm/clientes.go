package crm

import (
	"context"
	"strings"
	"time"

	"github.com/gestaozabele/comercial/internal/store"
	"github.com/gestaozabele/comercial/internal/util"
)

// ClienteInput é o corpo aceito em criação e edição.
type ClienteInput struct {
	Nome     string `json:"nome" validate:"required,max=200"`
	CNPJ     string `json:"cnpj" validate:"required,cnpj"`
	Email    string `json:"email" validate:"omitempty,email"`
	Telefone string `json:"telefone" validate:"max=30"`
	Contato  string `json:"contato" validate:"max=120"`
	Segmento string `json:"segmento" validate:"max=80"`
	Cidade   string `json:"cidade" validate:"max=120"`
	UF       string `json:"uf" validate:"omitempty,len=2"`
	Ativo    *bool  `json:"ativo"`
}

// ClienteFilter restringe a listagem.
type ClienteFilter struct {
	Ativo *bool
	Page
}

// ClienteService opera a tabela clientes.
type ClienteService struct {
	res resource[Cliente]
	now func() time.Time
}

// NewClienteService cria nova instância.
func NewClienteService(db store.Store) *ClienteService {
	return &ClienteService{res: newResource[Cliente](db, TableClientes), now: util.Now}
}

func (s *ClienteService) List(ctx context.Context, f ClienteFilter) ([]Cliente, error) {
	q := store.Query{}
	if f.Ativo != nil {
		q = q.Eq("ativo", *f.Ativo)
	}
	return s.res.list(ctx, f.apply(q.OrderBy("nome", false)))
}

func (s *ClienteService) Get(ctx context.Context, id string) (Cliente, error) {
	if err := requireID(id); err != nil {
		return Cliente{}, err
	}
	return s.res.get(ctx, id)
}

func (s *ClienteService) Create(ctx context.Context, in ClienteInput) (Cliente, error) {
	if err := validateInput(in); err != nil {
		return Cliente{}, err
	}
	now := s.now()
	c := in.apply(Cliente{ID: util.NewID(), Ativo: true, DataCadastro: now})
	c.DataAtualizacao = now
	return s.res.insert(ctx, store.ToRow(c))
}

func (s *ClienteService) Update(ctx context.Context, id string, in ClienteInput) (Cliente, error) {
	if err := requireID(id); err != nil {
		return Cliente{}, err
	}
	if err := validateInput(in); err != nil {
		return Cliente{}, err
	}
	current, err := s.res.get(ctx, id)
	if err != nil {
		return Cliente{}, err
	}
	c := in.apply(current)
	c.DataAtualizacao = s.now()
	patch := store.ToRow(c)
	delete(patch, "id")
	delete(patch, "data_cadastro")
	return s.res.update(ctx, id, patch)
}

// Delete desativa o cliente; a linha nunca é removida.
func (s *ClienteService) Delete(ctx context.Context, id string) (Cliente, error) {
	if err := requireID(id); err != nil {
		return Cliente{}, err
	}
	return s.res.update(ctx, id, store.Row{"ativo": false, "data_atualizacao": s.now()})
}

func (in ClienteInput) apply(c Cliente) Cliente {
	c.Nome = strings.TrimSpace(in.Nome)
	c.CNPJ = onlyDigits(in.CNPJ)
	c.Email = util.NormalizeEmail(in.Email)
	c.Telefone = strings.TrimSpace(in.Telefone)
	c.Contato = strings.TrimSpace(in.Contato)
	c.Segmento = strings.TrimSpace(in.Segmento)
	c.Cidade = strings.TrimSpace(in.Cidade)
	c.UF = strings.ToUpper(strings.TrimSpace(in.UF))
	if in.Ativo != nil {
		c.Ativo = *in.Ativo
	}
	return c
}
