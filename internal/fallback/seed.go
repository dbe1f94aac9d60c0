package fallback

import (
	"time"

	"github.com/gestaozabele/comercial/internal/crm"
)

// DefaultSeed é a carga inicial do arquivo local.
func DefaultSeed() []crm.Oportunidade {
	base := time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)
	op := func(id, titulo, cliente string, valor crm.Moeda, status crm.Status, prob, dias int) crm.Oportunidade {
		at := base.AddDate(0, 0, dias)
		return crm.Oportunidade{
			ID:              id,
			Titulo:          titulo,
			ClienteID:       "cliente-" + id,
			Cliente:         cliente,
			Valor:           valor,
			Status:          status,
			Tipo:            "software",
			TipoFaturamento: "mensal",
			Probabilidade:   prob,
			DataCriacao:     at,
			DataAtualizacao: at,
		}
	}
	return []crm.Oportunidade{
		op("1", "Sistema de gestão escolar", "Prefeitura de Ilhéus", 450000, crm.StatusNovoLead, 10, 0),
		op("2", "Portal da transparência", "Câmara de Itabuna", 120000, crm.StatusAgendamentoReuniao, 25, 3),
		op("7", "Gestão de frota", "Secretaria de Infraestrutura", 98000, crm.StatusLevantamentoOportunidades, 35, 9),
		op("15", "Plataforma de saúde", "Consórcio Sul Baiano", 780000, crm.StatusPropostaEnviada, 50, 14),
		op("42", "Sistema de RH municipal", "Prefeitura de Vitória da Conquista", 320000, crm.StatusPropostaEnviada, 60, 21),
		op("51", "Matrícula online", "Secretaria de Educação", 210000, crm.StatusFechadoGanho, 100, 30),
	}
}
