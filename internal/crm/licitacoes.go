package crm

import (
	"context"
	"strings"
	"time"

	"github.com/gestaozabele/comercial/internal/store"
	"github.com/gestaozabele/comercial/internal/util"
)

// LicitacaoInput é o corpo aceito em criação e edição.
type LicitacaoInput struct {
	Titulo        string     `json:"titulo" validate:"required,max=300"`
	OrgaoID       string     `json:"orgaoId" validate:"required"`
	Orgao         string     `json:"orgao" validate:"max=200"`
	Status        string     `json:"status" validate:"omitempty,licitacao_status"`
	ValorEstimado Moeda      `json:"valorEstimado" validate:"gte=0"`
	Modalidade    string     `json:"modalidade" validate:"max=80"`
	NumeroEdital  string     `json:"numeroEdital" validate:"max=80"`
	Objeto        string     `json:"objeto"`
	DataAbertura  *time.Time `json:"dataAbertura"`
	ResponsavelID *string    `json:"responsavelId"`
}

// LicitacaoFilter restringe a listagem.
type LicitacaoFilter struct {
	Status  string
	OrgaoID string
	Page
}

// LicitacaoService opera a tabela licitacoes.
type LicitacaoService struct {
	res  resource[Licitacao]
	docs resource[Documento]
	now  func() time.Time
}

// NewLicitacaoService cria nova instância.
func NewLicitacaoService(db store.Store) *LicitacaoService {
	return &LicitacaoService{
		res:  newResource[Licitacao](db, TableLicitacoes),
		docs: newResource[Documento](db, TableDocumentos),
		now:  util.Now,
	}
}

func (s *LicitacaoService) List(ctx context.Context, f LicitacaoFilter) ([]Licitacao, error) {
	q := store.Query{}
	if f.Status != "" {
		status, ok := ParseLicitacaoStatus(f.Status)
		if !ok {
			return nil, invalid("status", "status inválido")
		}
		q = q.Eq("status", string(status))
	}
	if f.OrgaoID != "" {
		q = q.Eq("orgao_id", f.OrgaoID)
	}
	return s.res.list(ctx, f.apply(q.OrderBy("data_criacao", true)))
}

// Get devolve a licitação com seus documentos.
func (s *LicitacaoService) Get(ctx context.Context, id string) (Licitacao, error) {
	if err := requireID(id); err != nil {
		return Licitacao{}, err
	}
	l, err := s.res.get(ctx, id)
	if err != nil {
		return Licitacao{}, err
	}
	docs, err := s.docs.list(ctx, store.Where("licitacao_id", id).OrderBy("data_criacao", true))
	if err != nil {
		return Licitacao{}, err
	}
	l.Documentos = docs
	return l, nil
}

func (s *LicitacaoService) Create(ctx context.Context, in LicitacaoInput) (Licitacao, error) {
	if err := validateInput(in); err != nil {
		return Licitacao{}, err
	}
	now := s.now()
	l := in.apply(Licitacao{ID: util.NewID(), Status: LicitacaoAnaliseInterna, DataCriacao: now})
	l.DataAtualizacao = now
	return s.res.insert(ctx, store.ToRow(l))
}

func (s *LicitacaoService) Update(ctx context.Context, id string, in LicitacaoInput) (Licitacao, error) {
	if err := requireID(id); err != nil {
		return Licitacao{}, err
	}
	if err := validateInput(in); err != nil {
		return Licitacao{}, err
	}
	current, err := s.res.get(ctx, id)
	if err != nil {
		return Licitacao{}, err
	}
	l := in.apply(current)
	l.DataAtualizacao = s.now()
	patch := store.ToRow(l)
	delete(patch, "id")
	delete(patch, "data_criacao")
	return s.res.update(ctx, id, patch)
}

func (s *LicitacaoService) Delete(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	return s.res.remove(ctx, id)
}

func (in LicitacaoInput) apply(l Licitacao) Licitacao {
	l.Titulo = strings.TrimSpace(in.Titulo)
	l.OrgaoID = in.OrgaoID
	l.Orgao = strings.TrimSpace(in.Orgao)
	if in.Status != "" {
		l.Status = LicitacaoStatus(strings.TrimSpace(in.Status))
	}
	l.ValorEstimado = in.ValorEstimado
	l.Modalidade = strings.TrimSpace(in.Modalidade)
	l.NumeroEdital = strings.TrimSpace(in.NumeroEdital)
	l.Objeto = in.Objeto
	l.DataAbertura = in.DataAbertura
	l.ResponsavelID = in.ResponsavelID
	return l
}
