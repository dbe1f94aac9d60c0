package crm

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/comercial/internal/storage"
	"github.com/gestaozabele/comercial/internal/store"
	"github.com/gestaozabele/comercial/internal/util"
)

// MaxDocumentoSize limita uploads a 25 MiB.
const MaxDocumentoSize = 25 << 20

// DocumentoUpload descreve um arquivo recebido via multipart.
type DocumentoUpload struct {
	Nome           string    `json:"nome" validate:"required,max=200"`
	Tipo           string    `json:"tipo" validate:"max=80"`
	Categoria      string    `json:"categoria" validate:"max=80"`
	UploadPor      string    `json:"uploadPor" validate:"max=120"`
	Filename       string    `json:"arquivo" validate:"required"`
	ContentType    string    `json:"-"`
	Size           int64     `json:"tamanho" validate:"gte=0,lte=26214400"`
	LicitacaoID    *string   `json:"licitacaoId"`
	OportunidadeID *string   `json:"oportunidadeId"`
	Body           io.Reader `json:"-" validate:"-"`
}

// DocumentoFilter restringe a listagem.
type DocumentoFilter struct {
	LicitacaoID    string
	OportunidadeID string
	Page
}

// DocumentoService grava metadados na tabela documentos e o binário no bucket.
type DocumentoService struct {
	res    resource[Documento]
	bucket storage.Bucket
	now    func() time.Time
	logger zerolog.Logger
}

// NewDocumentoService cria nova instância.
func NewDocumentoService(db store.Store, bucket storage.Bucket) *DocumentoService {
	if bucket == nil {
		bucket = storage.NoopBucket{}
	}
	return &DocumentoService{
		res:    newResource[Documento](db, TableDocumentos),
		bucket: bucket,
		now:    util.Now,
		logger: log.With().Str("component", "documentos").Logger(),
	}
}

func (s *DocumentoService) List(ctx context.Context, f DocumentoFilter) ([]Documento, error) {
	q := store.Query{}
	if f.LicitacaoID != "" {
		q = q.Eq("licitacao_id", f.LicitacaoID)
	}
	if f.OportunidadeID != "" {
		q = q.Eq("oportunidade_id", f.OportunidadeID)
	}
	return s.res.list(ctx, f.apply(q.OrderBy("data_criacao", true)))
}

func (s *DocumentoService) Get(ctx context.Context, id string) (Documento, error) {
	if err := requireID(id); err != nil {
		return Documento{}, err
	}
	return s.res.get(ctx, id)
}

// Upload envia o binário e grava os metadados. Se a gravação falhar, o
// binário é removido do bucket.
func (s *DocumentoService) Upload(ctx context.Context, in DocumentoUpload) (Documento, error) {
	if strings.TrimSpace(in.Nome) == "" {
		in.Nome = in.Filename
	}
	if err := validateInput(in); err != nil {
		return Documento{}, err
	}
	if in.Body == nil {
		return Documento{}, invalid("arquivo", "obrigatório")
	}

	id := util.NewID()
	key := objectKey(id, in)
	uploaded, err := s.bucket.Upload(ctx, storage.UploadInput{
		Key:         key,
		Body:        in.Body,
		Size:        in.Size,
		ContentType: in.ContentType,
	})
	if err != nil {
		return Documento{}, fmt.Errorf("upload do documento: %w", err)
	}

	doc := Documento{
		ID:             id,
		Nome:           strings.TrimSpace(in.Nome),
		URL:            uploaded.URL,
		Arquivo:        key,
		Tipo:           strings.TrimSpace(in.Tipo),
		Formato:        formatOf(in.Filename),
		Categoria:      strings.TrimSpace(in.Categoria),
		Tamanho:        in.Size,
		UploadPor:      strings.TrimSpace(in.UploadPor),
		Status:         "ativo",
		LicitacaoID:    in.LicitacaoID,
		OportunidadeID: in.OportunidadeID,
		DataCriacao:    s.now(),
	}
	created, err := s.res.insert(ctx, store.ToRow(doc))
	if err != nil {
		if rerr := s.bucket.Remove(context.WithoutCancel(ctx), key); rerr != nil {
			s.logger.Error().Err(rerr).Str("arquivo", key).Msg("falha ao remover binário órfão")
		}
		return Documento{}, err
	}
	return created, nil
}

// Delete remove o binário e depois a linha de metadados.
func (s *DocumentoService) Delete(ctx context.Context, id string) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.bucket.Remove(ctx, doc.Arquivo); err != nil {
		return fmt.Errorf("remoção do documento: %w", err)
	}
	return s.res.remove(ctx, id)
}

func objectKey(id string, in DocumentoUpload) string {
	prefix := "documentos"
	switch {
	case in.LicitacaoID != nil && *in.LicitacaoID != "":
		prefix = "licitacoes/" + *in.LicitacaoID
	case in.OportunidadeID != nil && *in.OportunidadeID != "":
		prefix = "oportunidades/" + *in.OportunidadeID
	}
	return prefix + "/" + id + "-" + sanitizeFilename(in.Filename)
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return "arquivo"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "arquivo"
	}
	return b.String()
}

func formatOf(name string) string {
	return strings.ToUpper(strings.TrimPrefix(path.Ext(name), "."))
}
