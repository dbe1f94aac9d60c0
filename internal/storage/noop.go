package storage

import "context"

// NoopBucket devolve erro no upload indicando que não há backend configurado.
type NoopBucket struct{}

// Upload sempre retorna ErrNotConfigured.
func (NoopBucket) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	return nil, ErrNotConfigured
}

// Remove não tem o que apagar.
func (NoopBucket) Remove(ctx context.Context, key string) error {
	return nil
}
