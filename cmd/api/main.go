package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/comercial/internal/auth"
	"github.com/gestaozabele/comercial/internal/config"
	"github.com/gestaozabele/comercial/internal/db"
	"github.com/gestaozabele/comercial/internal/fallback"
	internalhttp "github.com/gestaozabele/comercial/internal/http"
	"github.com/gestaozabele/comercial/internal/jobs"
	"github.com/gestaozabele/comercial/internal/repo"
	"github.com/gestaozabele/comercial/internal/service"
	"github.com/gestaozabele/comercial/internal/storage"
	"github.com/gestaozabele/comercial/internal/store"
	"github.com/gestaozabele/comercial/internal/store/memstore"
	"github.com/gestaozabele/comercial/internal/store/pg"
	"github.com/gestaozabele/comercial/internal/store/postgrest"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api encerrada com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cfg.Production {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	ctx := context.Background()
	checks := map[string]internalhttp.Check{}

	var dataStore store.Store
	switch cfg.StoreDriver {
	case config.StoreSupabase:
		client, err := postgrest.New(postgrest.Config{
			URL:        cfg.Supabase.URL,
			AnonKey:    cfg.Supabase.AnonKey,
			ServiceKey: cfg.Supabase.ServiceKey,
		})
		if err != nil {
			return fmt.Errorf("supabase: %w", err)
		}
		dataStore = client
		checks["database"] = func(ctx context.Context) error {
			_, err := client.Select(ctx, repo.TableUsers, store.Query{Limit: 1})
			return err
		}
	case config.StorePostgres:
		pool, err := db.NewPool(ctx, cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("db: %w", err)
		}
		defer pool.Close()
		dataStore = pg.New(pool)
		checks["database"] = pool.Ping
	default:
		log.Warn().Msg("STORE_DRIVER=memory: dados serão perdidos ao reiniciar")
		dataStore = memstore.New()
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis parse: %w", err)
		}
		redisClient = redis.NewClient(redisOpts)
		defer redisClient.Close()
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTRefresh, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	authService := service.NewAuthService(repo.New(dataStore), redisClient, tokens)

	bucket, err := newBucket(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	fallbackStore := fallback.New(cfg.FallbackFile, fallback.DefaultSeed())
	if _, err := fallbackStore.Load(ctx); err != nil {
		log.Warn().Err(err).Str("path", fallbackStore.Path()).Msg("arquivo de fallback indisponível")
	}

	var microsoft *auth.MicrosoftProvider
	if cfg.Microsoft.Enabled() {
		microsoft = auth.NewMicrosoftProvider(cfg.Microsoft.ClientID, cfg.Microsoft.ClientSecret, cfg.Microsoft.RedirectURI, cfg.Microsoft.Tenant)
	}

	scheduler, err := jobs.New(authService, cfg.SweepInterval, log.Logger)
	if err != nil {
		return fmt.Errorf("jobs: %w", err)
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Warn().Err(err).Msg("falha ao encerrar agendador")
		}
	}()

	handler := internalhttp.NewRouter(cfg, internalhttp.Deps{
		Store:     dataStore,
		Auth:      authService,
		Bucket:    bucket,
		Fallback:  fallbackStore,
		Microsoft: microsoft,
		Checks:    checks,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("store", cfg.StoreDriver).Msgf("API ouvindo em :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("encerrando...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newBucket(ctx context.Context, cfg config.StorageConfig) (storage.Bucket, error) {
	if cfg.Provider != "s3" {
		log.Info().Msg("upload de documentos desabilitado (STORAGE_PROVIDER=noop)")
		return storage.NoopBucket{}, nil
	}
	bucket, err := storage.NewS3Bucket(storage.S3Config{
		Endpoint:     cfg.Endpoint,
		Region:       cfg.Region,
		Bucket:       cfg.Bucket,
		AccessKey:    cfg.AccessKey,
		SecretKey:    cfg.SecretKey,
		UseSSL:       cfg.UseSSL,
		PublicDomain: cfg.PublicURL,
	})
	if err != nil {
		return nil, err
	}
	ensureCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := bucket.EnsureBucket(ensureCtx); err != nil {
		return nil, err
	}
	return bucket, nil
}
