package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/comercial/internal/auth"
	"github.com/gestaozabele/comercial/internal/db"
	"github.com/gestaozabele/comercial/internal/repo"
	"github.com/gestaozabele/comercial/internal/service"
	"github.com/gestaozabele/comercial/internal/store/pg"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	ctx := context.Background()
	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "hash":
		err = runHash(args)
	case "create-user":
		err = runCreateUser(ctx, args)
	case "sweep-sessions":
		err = runSweep(ctx)
	case "migrate":
		err = runMigrate(args)
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal().Err(err).Str("cmd", cmd).Msg("comando falhou")
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "crmctl")
	fmt.Fprintln(os.Stderr, "uso:")
	fmt.Fprintln(os.Stderr, "  crmctl hash <senha>")
	fmt.Fprintln(os.Stderr, "  crmctl create-user --name \"Fulana\" --email fulana@empresa.com --password segredo123 [--role admin]")
	fmt.Fprintln(os.Stderr, "  crmctl sweep-sessions")
	fmt.Fprintln(os.Stderr, "  crmctl migrate [--path migrations] up|down|version|force <versão>")
}

func dsnFromEnv() (string, error) {
	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		return "", errors.New("defina DB_DSN ou DATABASE_URL")
	}
	return dsn, nil
}

func runHash(args []string) error {
	if len(args) < 1 {
		return errors.New("uso: crmctl hash <senha>")
	}
	hash, err := auth.Hash(args[0])
	if err != nil {
		return fmt.Errorf("hash: %w", err)
	}
	fmt.Println(hash)
	return nil
}

// authService abre o pool e monta o serviço de autenticação sobre Postgres.
// Os tokens não são emitidos por estes comandos, por isso os segredos só
// precisam ser distintos.
func authService(ctx context.Context) (*service.AuthService, func(), error) {
	dsn, err := dsnFromEnv()
	if err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("não foi possível conectar ao banco: %w", err)
	}
	tokens := auth.NewTokenManager("crmctl-access", "crmctl-refresh", time.Minute, time.Minute)
	return service.NewAuthService(repo.New(pg.New(pool)), nil, tokens), pool.Close, nil
}

func runCreateUser(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var name, email, password, role string
	fs.StringVar(&name, "name", "", "nome do usuário")
	fs.StringVar(&email, "email", "", "e-mail de login")
	fs.StringVar(&password, "password", "", "senha inicial")
	fs.StringVar(&role, "role", service.RoleUser, "papel (admin ou user)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(email) == "" || password == "" {
		return errors.New("--email e --password são obrigatórios")
	}

	svc, closeFn, err := authService(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	user, err := svc.CreateUser(ctx, name, email, password, role)
	if err != nil {
		return err
	}
	log.Info().Str("user_id", user.ID).Str("email", user.Email).Str("role", user.Role).Msg("usuário criado")
	return nil
}

func runSweep(ctx context.Context) error {
	svc, closeFn, err := authService(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	removed, err := svc.SweepExpiredSessions(ctx)
	if err != nil {
		return err
	}
	log.Info().Int("removed", removed).Msg("sessões expiradas removidas")
	return nil
}

func runMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "migrations", "diretório dos arquivos .sql")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("uso: crmctl migrate up|down|version|force <versão>")
	}

	dsn, err := dsnFromEnv()
	if err != nil {
		return err
	}
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("abrir conexão: %w", err)
	}
	defer conn.Close()

	driver, err := postgres.WithInstance(conn, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("driver de migração: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+*path, "postgres", driver)
	if err != nil {
		return fmt.Errorf("instância de migração: %w", err)
	}

	switch fs.Arg(0) {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		log.Info().Msg("migrações aplicadas")
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		log.Info().Msg("migrações revertidas")
	case "force":
		if fs.NArg() < 2 {
			return errors.New("force exige a versão")
		}
		version, err := strconv.Atoi(fs.Arg(1))
		if err != nil {
			return fmt.Errorf("versão inválida: %q", fs.Arg(1))
		}
		if err := m.Force(version); err != nil {
			return err
		}
		log.Info().Int("version", version).Msg("versão forçada")
	case "version":
		version, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			return err
		}
		log.Info().Uint("version", version).Bool("dirty", dirty).Msg("versão atual")
	default:
		return fmt.Errorf("subcomando desconhecido: %s", fs.Arg(0))
	}
	return nil
}
