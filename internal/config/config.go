package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Drivers de armazenamento aceitos em STORE_DRIVER.
const (
	StoreSupabase = "supabase"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config centraliza a configuração carregada do ambiente.
type Config struct {
	Port          int
	Production    bool
	StoreDriver   string
	DBDSN         string
	RedisURL      string
	JWTSecret     string
	JWTRefresh    string
	JWTAccessTTL  time.Duration
	JWTRefreshTTL time.Duration
	AllowOrigins  []string
	LoginPath     string
	FallbackFile  string
	SweepInterval time.Duration

	Supabase  SupabaseConfig
	Microsoft MicrosoftConfig
	Storage   StorageConfig

	RateLimitPublic RateLimitConfig
	RateLimitAuth   RateLimitConfig
	RateLimitLogin  RateLimitConfig
}

// SupabaseConfig guarda credenciais do projeto Supabase.
type SupabaseConfig struct {
	URL        string
	AnonKey    string
	ServiceKey string
}

// MicrosoftConfig habilita o login corporativo quando ClientID está definido.
type MicrosoftConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Tenant       string
}

// Enabled indica se o fluxo OAuth da Microsoft está configurado.
func (m MicrosoftConfig) Enabled() bool {
	return m.ClientID != "" && m.ClientSecret != "" && m.RedirectURI != ""
}

// StorageConfig descreve o bucket de documentos.
type StorageConfig struct {
	Provider  string
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PublicURL string
}

// RateLimitConfig representa limites simples para throttling.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// Load carrega variáveis de ambiente e aplica defaults seguros.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	port, err := strconv.Atoi(getEnv("PORT", "8080"))
	if err != nil || port <= 0 {
		return nil, errors.New("PORT inválida")
	}
	cfg.Port = port
	cfg.Production = strings.EqualFold(strings.TrimSpace(getEnv("NODE_ENV", "")), "production")

	cfg.Supabase = SupabaseConfig{
		URL:        strings.TrimSpace(getEnv("NEXT_PUBLIC_SUPABASE_URL", "")),
		AnonKey:    strings.TrimSpace(getEnv("NEXT_PUBLIC_SUPABASE_ANON_KEY", "")),
		ServiceKey: strings.TrimSpace(getEnv("SUPABASE_SERVICE_KEY", "")),
	}

	defaultDriver := StoreMemory
	if cfg.Supabase.URL != "" {
		defaultDriver = StoreSupabase
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(getEnv("STORE_DRIVER", defaultDriver)))
	cfg.DBDSN = strings.TrimSpace(getEnv("DB_DSN", ""))
	switch cfg.StoreDriver {
	case StoreSupabase:
		if cfg.Supabase.URL == "" {
			return nil, errors.New("NEXT_PUBLIC_SUPABASE_URL obrigatório para STORE_DRIVER=supabase")
		}
		if cfg.Supabase.AnonKey == "" && cfg.Supabase.ServiceKey == "" {
			return nil, errors.New("SUPABASE_SERVICE_KEY ou NEXT_PUBLIC_SUPABASE_ANON_KEY obrigatório")
		}
	case StorePostgres:
		if cfg.DBDSN == "" {
			return nil, errors.New("DB_DSN obrigatório para STORE_DRIVER=postgres")
		}
	case StoreMemory:
	default:
		return nil, errors.New("STORE_DRIVER inválido")
	}

	cfg.RedisURL = strings.TrimSpace(getEnv("REDIS_URL", ""))

	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", ""))
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET deve ter pelo menos 32 caracteres")
	}
	cfg.JWTRefresh = strings.TrimSpace(getEnv("JWT_REFRESH_SECRET", ""))
	if len(cfg.JWTRefresh) < 32 {
		return nil, errors.New("JWT_REFRESH_SECRET deve ter pelo menos 32 caracteres")
	}
	if cfg.JWTRefresh == cfg.JWTSecret {
		return nil, errors.New("JWT_REFRESH_SECRET deve ser diferente de JWT_SECRET")
	}

	if cfg.JWTAccessTTL, err = parseDurationEnv("JWT_ACCESS_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.JWTRefreshTTL, err = parseDurationEnv("JWT_REFRESH_TTL", 7*24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = parseDurationEnv("SESSION_SWEEP_INTERVAL", time.Hour); err != nil {
		return nil, err
	}

	for _, origin := range strings.Split(getEnv("ALLOW_ORIGINS", ""), ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}

	cfg.LoginPath = strings.TrimSpace(getEnv("LOGIN_PATH", "/login"))
	if !strings.HasPrefix(cfg.LoginPath, "/") {
		return nil, errors.New("LOGIN_PATH deve começar com /")
	}
	cfg.FallbackFile = strings.TrimSpace(getEnv("FALLBACK_FILE", "data/oportunidades.json"))

	cfg.Microsoft = MicrosoftConfig{
		ClientID:     strings.TrimSpace(getEnv("MICROSOFT_CLIENT_ID", "")),
		ClientSecret: strings.TrimSpace(getEnv("MICROSOFT_CLIENT_SECRET", "")),
		RedirectURI:  strings.TrimSpace(getEnv("MICROSOFT_REDIRECT_URI", "")),
		Tenant:       strings.TrimSpace(getEnv("MICROSOFT_TENANT", "common")),
	}
	if cfg.Microsoft.Tenant == "" {
		cfg.Microsoft.Tenant = "common"
	}

	useSSL, err := strconv.ParseBool(getEnv("STORAGE_USE_SSL", "true"))
	if err != nil {
		return nil, errors.New("STORAGE_USE_SSL inválido")
	}
	cfg.Storage = StorageConfig{
		Provider:  strings.ToLower(strings.TrimSpace(getEnv("STORAGE_PROVIDER", "noop"))),
		Endpoint:  strings.TrimSpace(getEnv("STORAGE_ENDPOINT", "")),
		Region:    strings.TrimSpace(getEnv("STORAGE_REGION", "us-east-1")),
		Bucket:    strings.TrimSpace(getEnv("STORAGE_BUCKET", "documentos")),
		AccessKey: strings.TrimSpace(getEnv("STORAGE_ACCESS_KEY", "")),
		SecretKey: strings.TrimSpace(getEnv("STORAGE_SECRET_KEY", "")),
		UseSSL:    useSSL,
		PublicURL: strings.TrimSpace(getEnv("STORAGE_PUBLIC_URL", "")),
	}
	switch cfg.Storage.Provider {
	case "noop":
	case "s3":
		if cfg.Storage.Endpoint == "" || cfg.Storage.AccessKey == "" || cfg.Storage.SecretKey == "" {
			return nil, errors.New("STORAGE_ENDPOINT, STORAGE_ACCESS_KEY e STORAGE_SECRET_KEY obrigatórios para STORAGE_PROVIDER=s3")
		}
	default:
		return nil, errors.New("STORAGE_PROVIDER inválido")
	}

	cfg.RateLimitPublic = RateLimitConfig{RequestsPerSecond: 10, Burst: 20}
	cfg.RateLimitAuth = RateLimitConfig{RequestsPerSecond: 5, Burst: 10}
	// login, cadastro e refresh: rajada de 5 e depois uma tentativa a cada 5s
	cfg.RateLimitLogin = RateLimitConfig{RequestsPerSecond: 0.2, Burst: 5}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	val := getEnv(key, "")
	if val == "" {
		return def, nil
	}
	dur, err := time.ParseDuration(val)
	if err != nil || dur <= 0 {
		return 0, errors.New(key + " inválido")
	}
	return dur, nil
}
