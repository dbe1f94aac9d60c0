package crm

import (
	"context"
	"strings"
	"time"

	"github.com/gestaozabele/comercial/internal/store"
	"github.com/gestaozabele/comercial/internal/util"
)

// OportunidadeInput é o corpo aceito em criação e edição.
type OportunidadeInput struct {
	Titulo          string     `json:"titulo" validate:"required,max=200"`
	ClienteID       string     `json:"clienteId" validate:"required"`
	Cliente         string     `json:"cliente" validate:"max=200"`
	Valor           Moeda      `json:"valor" validate:"gte=0"`
	ResponsavelID   *string    `json:"responsavelId"`
	Responsavel     string     `json:"responsavel"`
	Prazo           *time.Time `json:"prazo"`
	Status          string     `json:"status" validate:"omitempty,oportunidade_status"`
	Tipo            string     `json:"tipo"`
	TipoFaturamento string     `json:"tipoFaturamento"`
	Probabilidade   int        `json:"probabilidade" validate:"gte=0,lte=100"`
	MotivoPerda     string     `json:"motivoPerda"`
	PosicaoKanban   int        `json:"posicaoKanban" validate:"gte=0"`
	Descricao       string     `json:"descricao"`
}

// OportunidadeFilter restringe a listagem.
type OportunidadeFilter struct {
	Status        string
	ClienteID     string
	ResponsavelID string
	Page
}

// KanbanColumn agrupa oportunidades de um status.
type KanbanColumn struct {
	Status        Status         `json:"status"`
	Titulo        string         `json:"titulo"`
	Oportunidades []Oportunidade `json:"oportunidades"`
}

// OportunidadeService opera a tabela oportunidades.
type OportunidadeService struct {
	res resource[Oportunidade]
	now func() time.Time
}

// NewOportunidadeService cria nova instância.
func NewOportunidadeService(db store.Store) *OportunidadeService {
	return &OportunidadeService{res: newResource[Oportunidade](db, TableOportunidades), now: util.Now}
}

func (s *OportunidadeService) List(ctx context.Context, f OportunidadeFilter) ([]Oportunidade, error) {
	q := store.Query{}
	if f.Status != "" {
		status, ok := ParseStatus(f.Status)
		if !ok {
			return nil, invalid("status", "status inválido")
		}
		q = q.Eq("status", string(status))
	}
	if f.ClienteID != "" {
		q = q.Eq("cliente_id", f.ClienteID)
	}
	if f.ResponsavelID != "" {
		q = q.Eq("responsavel_id", f.ResponsavelID)
	}
	q = q.OrderBy("posicao_kanban", false).OrderBy("data_criacao", true)
	return s.res.list(ctx, f.apply(q))
}

// Kanban agrupa as oportunidades por status na ordem do pipeline.
func (s *OportunidadeService) Kanban(ctx context.Context) ([]KanbanColumn, error) {
	items, err := s.List(ctx, OportunidadeFilter{Page: Page{Limit: 500}})
	if err != nil {
		return nil, err
	}
	byStatus := make(map[Status][]Oportunidade, len(Pipeline))
	for _, op := range items {
		byStatus[op.Status] = append(byStatus[op.Status], op)
	}
	columns := make([]KanbanColumn, 0, len(Pipeline))
	for _, status := range Pipeline {
		ops := byStatus[status]
		if ops == nil {
			ops = []Oportunidade{}
		}
		columns = append(columns, KanbanColumn{Status: status, Titulo: status.Label(), Oportunidades: ops})
	}
	return columns, nil
}

func (s *OportunidadeService) Get(ctx context.Context, id string) (Oportunidade, error) {
	if err := requireID(id); err != nil {
		return Oportunidade{}, err
	}
	return s.res.get(ctx, id)
}

func (s *OportunidadeService) Create(ctx context.Context, in OportunidadeInput) (Oportunidade, error) {
	if err := validateInput(in); err != nil {
		return Oportunidade{}, err
	}
	now := s.now()
	op := in.apply(Oportunidade{ID: util.NewID(), Status: StatusNovoLead, DataCriacao: now})
	op.DataAtualizacao = now
	return s.res.insert(ctx, store.ToRow(op))
}

func (s *OportunidadeService) Update(ctx context.Context, id string, in OportunidadeInput) (Oportunidade, error) {
	if err := requireID(id); err != nil {
		return Oportunidade{}, err
	}
	if err := validateInput(in); err != nil {
		return Oportunidade{}, err
	}
	current, err := s.res.get(ctx, id)
	if err != nil {
		return Oportunidade{}, err
	}
	op := in.apply(current)
	op.DataAtualizacao = s.now()
	patch := store.ToRow(op)
	delete(patch, "id")
	delete(patch, "data_criacao")
	return s.res.update(ctx, id, patch)
}

func (s *OportunidadeService) Delete(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	return s.res.remove(ctx, id)
}

func (in OportunidadeInput) apply(op Oportunidade) Oportunidade {
	op.Titulo = strings.TrimSpace(in.Titulo)
	op.ClienteID = in.ClienteID
	op.Cliente = strings.TrimSpace(in.Cliente)
	op.Valor = in.Valor
	op.ResponsavelID = in.ResponsavelID
	op.Responsavel = strings.TrimSpace(in.Responsavel)
	op.Prazo = in.Prazo
	if in.Status != "" {
		op.Status = Status(strings.TrimSpace(in.Status))
	}
	op.Tipo = in.Tipo
	op.TipoFaturamento = in.TipoFaturamento
	op.Probabilidade = in.Probabilidade
	op.MotivoPerda = in.MotivoPerda
	op.PosicaoKanban = in.PosicaoKanban
	op.Descricao = in.Descricao
	return op
}
