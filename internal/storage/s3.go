package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config descreve um bucket compatível com S3 (MinIO, R2, Supabase Storage).
type S3Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UseSSL       bool
	PublicDomain string
}

// S3Bucket implementa Bucket com minio-go.
type S3Bucket struct {
	client  *minio.Client
	bucket  string
	region  string
	baseURL string
	public  string
}

// NewS3Bucket cria o cliente. O endpoint pode vir com ou sem protocolo; com
// protocolo, ele define o uso de TLS.
func NewS3Bucket(cfg S3Config) (*S3Bucket, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	host, secure, err := parseEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	scheme := "http"
	if secure {
		scheme = "https"
	}
	return &S3Bucket{
		client:  client,
		bucket:  cfg.Bucket,
		region:  cfg.Region,
		baseURL: fmt.Sprintf("%s://%s/%s", scheme, host, cfg.Bucket),
		public:  strings.TrimRight(strings.TrimSpace(cfg.PublicDomain), "/"),
	}, nil
}

// Upload envia o arquivo e retorna URL pública (se configurada) ou do endpoint.
func (b *S3Bucket) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	key := strings.TrimLeft(strings.TrimSpace(input.Key), "/")
	if key == "" {
		return nil, errors.New("storage: chave do objeto obrigatória")
	}
	if input.Body == nil {
		return nil, errors.New("storage: corpo vazio")
	}
	contentType := strings.TrimSpace(input.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	size := input.Size
	if size == 0 {
		size = -1
	}

	info, err := b.client.PutObject(ctx, b.bucket, key, input.Body, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: input.CacheControl,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: upload falhou: %w", err)
	}

	return &UploadResult{URL: b.objectURL(key), ETag: strings.Trim(info.ETag, "\"")}, nil
}

// Remove apaga o objeto; objeto inexistente não é erro no S3.
func (b *S3Bucket) Remove(ctx context.Context, key string) error {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return nil
	}
	if err := b.client.RemoveObject(ctx, b.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("storage: remoção falhou: %w", err)
	}
	return nil
}

// EnsureBucket cria o bucket quando ainda não existe.
func (b *S3Bucket) EnsureBucket(ctx context.Context) error {
	found, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if found {
		return nil
	}
	return b.client.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{Region: b.region})
}

func (b *S3Bucket) objectURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	if b.public != "" {
		return b.public + "/" + escaped
	}
	return b.baseURL + "/" + escaped
}

func parseEndpoint(endpoint string, useSSL bool) (string, bool, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if !strings.Contains(endpoint, "://") {
		return endpoint, useSSL, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "", false, errors.New("storage: endpoint inválido")
	}
	switch u.Scheme {
	case "https":
		return u.Host, true, nil
	case "http":
		return u.Host, false, nil
	}
	return "", false, errors.New("storage: endpoint deve usar http ou https")
}

func (cfg S3Config) validate() error {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return errors.New("storage: endpoint do S3 ausente")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return errors.New("storage: bucket do S3 ausente")
	}
	if strings.TrimSpace(cfg.AccessKey) == "" {
		return errors.New("storage: access key ausente")
	}
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return errors.New("storage: secret key ausente")
	}
	return nil
}
