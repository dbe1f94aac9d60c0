package crm

import "strings"

// Status é a coluna do Kanban de oportunidades.
type Status string

const (
	StatusNovoLead                  Status = "novo_lead"
	StatusAgendamentoReuniao        Status = "agendamento_reuniao"
	StatusLevantamentoOportunidades Status = "levantamento_oportunidades"
	StatusPropostaEnviada           Status = "proposta_enviada"
	StatusNegociacao                Status = "negociacao"
	StatusFechadoGanho              Status = "fechado_ganho"
	StatusFechadoPerdido            Status = "fechado_perdido"
)

// Pipeline lista os status na ordem das colunas.
var Pipeline = []Status{
	StatusNovoLead,
	StatusAgendamentoReuniao,
	StatusLevantamentoOportunidades,
	StatusPropostaEnviada,
	StatusNegociacao,
	StatusFechadoGanho,
	StatusFechadoPerdido,
}

var statusLabels = map[Status]string{
	StatusNovoLead:                  "Novo lead",
	StatusAgendamentoReuniao:        "Agendamento de reunião",
	StatusLevantamentoOportunidades: "Levantamento de oportunidades",
	StatusPropostaEnviada:           "Proposta enviada",
	StatusNegociacao:                "Negociação",
	StatusFechadoGanho:              "Fechado (ganho)",
	StatusFechadoPerdido:            "Fechado (perdido)",
}

// ParseStatus valida um status vindo da API. Transições são livres.
func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.TrimSpace(raw))
	_, ok := statusLabels[s]
	return s, ok
}

// Label devolve o título da coluna.
func (s Status) Label() string {
	return statusLabels[s]
}

// LicitacaoStatus acompanha a fase de uma licitação.
type LicitacaoStatus string

const (
	LicitacaoAnaliseInterna   LicitacaoStatus = "analise_interna"
	LicitacaoAguardandoPregao LicitacaoStatus = "aguardando_pregao"
	LicitacaoEnvioDocumentos  LicitacaoStatus = "envio_documentos"
	LicitacaoAssinaturas      LicitacaoStatus = "assinaturas"
	LicitacaoVencida          LicitacaoStatus = "vencida"
	LicitacaoNaoVencida       LicitacaoStatus = "nao_vencida"
	LicitacaoConcluida        LicitacaoStatus = "concluida"
	LicitacaoArquivada        LicitacaoStatus = "arquivada"
)

// ParseLicitacaoStatus valida o status de licitação.
func ParseLicitacaoStatus(raw string) (LicitacaoStatus, bool) {
	s := LicitacaoStatus(strings.TrimSpace(raw))
	switch s {
	case LicitacaoAnaliseInterna, LicitacaoAguardandoPregao, LicitacaoEnvioDocumentos, LicitacaoAssinaturas,
		LicitacaoVencida, LicitacaoNaoVencida, LicitacaoConcluida, LicitacaoArquivada:
		return s, true
	}
	return s, false
}
