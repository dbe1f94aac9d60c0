package crm

import "time"

// Cliente é removido apenas logicamente (ativo=false).
type Cliente struct {
	ID              string    `json:"id" db:"id"`
	Nome            string    `json:"nome" db:"nome"`
	CNPJ            string    `json:"cnpj" db:"cnpj"`
	Email           string    `json:"email" db:"email"`
	Telefone        string    `json:"telefone" db:"telefone"`
	Contato         string    `json:"contato" db:"contato"`
	Segmento        string    `json:"segmento" db:"segmento"`
	Cidade          string    `json:"cidade" db:"cidade"`
	UF              string    `json:"uf" db:"uf"`
	Ativo           bool      `json:"ativo" db:"ativo"`
	DataCadastro    time.Time `json:"dataCadastro" db:"data_cadastro"`
	DataAtualizacao time.Time `json:"dataAtualizacao" db:"data_atualizacao"`
}

// Oportunidade é um cartão do Kanban comercial.
type Oportunidade struct {
	ID              string     `json:"id" db:"id"`
	Titulo          string     `json:"titulo" db:"titulo"`
	ClienteID       string     `json:"clienteId" db:"cliente_id"`
	Cliente         string     `json:"cliente" db:"cliente"`
	Valor           Moeda      `json:"valor" db:"valor"`
	ResponsavelID   *string    `json:"responsavelId" db:"responsavel_id"`
	Responsavel     string     `json:"responsavel" db:"responsavel"`
	Prazo           *time.Time `json:"prazo" db:"prazo"`
	Status          Status     `json:"status" db:"status"`
	Tipo            string     `json:"tipo" db:"tipo"`
	TipoFaturamento string     `json:"tipoFaturamento" db:"tipo_faturamento"`
	Probabilidade   int        `json:"probabilidade" db:"probabilidade"`
	MotivoPerda     string     `json:"motivoPerda" db:"motivo_perda"`
	PosicaoKanban   int        `json:"posicaoKanban" db:"posicao_kanban"`
	Descricao       string     `json:"descricao" db:"descricao"`
	DataCriacao     time.Time  `json:"dataCriacao" db:"data_criacao"`
	DataAtualizacao time.Time  `json:"dataAtualizacao" db:"data_atualizacao"`
}

// Reuniao registra encontros com clientes.
type Reuniao struct {
	ID             string    `json:"id" db:"id"`
	Titulo         string    `json:"titulo" db:"titulo"`
	Data           time.Time `json:"data" db:"data"`
	OportunidadeID *string   `json:"oportunidadeId" db:"oportunidade_id"`
	ClienteID      *string   `json:"clienteId" db:"cliente_id"`
	Local          string    `json:"local" db:"local"`
	Link           string    `json:"link" db:"link"`
	Participantes  []string  `json:"participantes" db:"participantes"`
	Pauta          string    `json:"pauta" db:"pauta"`
	Concluida      bool      `json:"concluida" db:"concluida"`
	DataCriacao    time.Time `json:"dataCriacao" db:"data_criacao"`
}

// Nota é um registro de acompanhamento ligado a uma oportunidade.
type Nota struct {
	ID             string    `json:"id" db:"id"`
	OportunidadeID string    `json:"oportunidadeId" db:"oportunidade_id"`
	Conteudo       string    `json:"conteudo" db:"conteudo"`
	Autor          string    `json:"autor" db:"autor"`
	Tipo           string    `json:"tipo" db:"tipo"`
	DataCriacao    time.Time `json:"dataCriacao" db:"data_criacao"`
}

// Responsavel é o vendedor dono de oportunidades.
type Responsavel struct {
	ID          string    `json:"id" db:"id"`
	Nome        string    `json:"nome" db:"nome"`
	Email       string    `json:"email" db:"email"`
	Cargo       string    `json:"cargo" db:"cargo"`
	Telefone    string    `json:"telefone" db:"telefone"`
	Ativo       bool      `json:"ativo" db:"ativo"`
	DataCriacao time.Time `json:"dataCriacao" db:"data_criacao"`
}

// Orgao é o órgão público que publica licitações.
type Orgao struct {
	ID              string    `json:"id" db:"id"`
	Nome            string    `json:"nome" db:"nome"`
	CNPJ            string    `json:"cnpj" db:"cnpj"`
	Esfera          string    `json:"esfera" db:"esfera"`
	Cidade          string    `json:"cidade" db:"cidade"`
	UF              string    `json:"uf" db:"uf"`
	Contato         string    `json:"contato" db:"contato"`
	Email           string    `json:"email" db:"email"`
	Telefone        string    `json:"telefone" db:"telefone"`
	DataCriacao     time.Time `json:"dataCriacao" db:"data_criacao"`
	DataAtualizacao time.Time `json:"dataAtualizacao" db:"data_atualizacao"`
}

// Licitacao é um processo licitatório acompanhado pela equipe.
type Licitacao struct {
	ID              string          `json:"id" db:"id"`
	Titulo          string          `json:"titulo" db:"titulo"`
	OrgaoID         string          `json:"orgaoId" db:"orgao_id"`
	Orgao           string          `json:"orgao" db:"orgao"`
	Status          LicitacaoStatus `json:"status" db:"status"`
	ValorEstimado   Moeda           `json:"valorEstimado" db:"valor_estimado"`
	Modalidade      string          `json:"modalidade" db:"modalidade"`
	NumeroEdital    string          `json:"numeroEdital" db:"numero_edital"`
	Objeto          string          `json:"objeto" db:"objeto"`
	DataAbertura    *time.Time      `json:"dataAbertura" db:"data_abertura"`
	ResponsavelID   *string         `json:"responsavelId" db:"responsavel_id"`
	DataCriacao     time.Time       `json:"dataCriacao" db:"data_criacao"`
	DataAtualizacao time.Time       `json:"dataAtualizacao" db:"data_atualizacao"`
	Documentos      []Documento     `json:"documentos,omitempty" db:"-"`
}

// Documento descreve um arquivo guardado no bucket.
type Documento struct {
	ID             string    `json:"id" db:"id"`
	Nome           string    `json:"nome" db:"nome"`
	URL            string    `json:"url" db:"url"`
	Arquivo        string    `json:"arquivo" db:"arquivo"`
	Tipo           string    `json:"tipo" db:"tipo"`
	Formato        string    `json:"formato" db:"formato"`
	Categoria      string    `json:"categoria" db:"categoria"`
	Tamanho        int64     `json:"tamanho" db:"tamanho"`
	UploadPor      string    `json:"uploadPor" db:"upload_por"`
	Status         string    `json:"status" db:"status"`
	LicitacaoID    *string   `json:"licitacaoId" db:"licitacao_id"`
	OportunidadeID *string   `json:"oportunidadeId" db:"oportunidade_id"`
	DataCriacao    time.Time `json:"dataCriacao" db:"data_criacao"`
}
