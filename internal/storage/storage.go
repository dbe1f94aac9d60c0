package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotConfigured indica ausência de backend de armazenamento.
var ErrNotConfigured = errors.New("storage: bucket não configurado")

// UploadInput representa uma operação de upload simples. Size -1 indica
// tamanho desconhecido.
type UploadInput struct {
	Key          string
	Body         io.Reader
	Size         int64
	ContentType  string
	CacheControl string
}

// UploadResult descreve o artefato persistido.
type UploadResult struct {
	URL  string
	ETag string
}

// Bucket armazena e remove blobs por chave.
type Bucket interface {
	Upload(ctx context.Context, input UploadInput) (*UploadResult, error)
	Remove(ctx context.Context, key string) error
}
