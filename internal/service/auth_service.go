package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/comercial/internal/auth"
	"github.com/gestaozabele/comercial/internal/repo"
	"github.com/gestaozabele/comercial/internal/util"
)

var (
	// ErrInvalidCredentials indica senha incorreta.
	ErrInvalidCredentials = errors.New("credenciais inválidas")
	// ErrUserNotFound indica e-mail sem conta.
	ErrUserNotFound = errors.New("usuário não encontrado")
	// ErrEmailTaken indica e-mail já cadastrado.
	ErrEmailTaken = errors.New("email já cadastrado")
	// ErrRefreshInvalid indica refresh token inválido, expirado ou revogado.
	ErrRefreshInvalid = errors.New("refresh token inválido")
	// ErrTokenInvalid indica access token inválido ou expirado.
	ErrTokenInvalid = errors.New("token inválido")
	// ErrValidation indica entrada malformada; a mensagem traz o detalhe.
	ErrValidation = errors.New("dados inválidos")
)

// Papéis conhecidos.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

const refreshActive = "active"

type authRepository interface {
	GetUsuarioByEmail(ctx context.Context, email string) (repo.Usuario, error)
	GetUsuarioByID(ctx context.Context, id string) (repo.Usuario, error)
	InsertUsuario(ctx context.Context, arg repo.InsertUsuarioParams) (repo.Usuario, error)
	UpdateUsuarioSenha(ctx context.Context, id, hash string, at time.Time) error
	InsertRefreshToken(ctx context.Context, arg repo.InsertRefreshTokenParams) (repo.TokenRefresh, error)
	GetRefreshTokenByHash(ctx context.Context, tokenHash string) (repo.TokenRefresh, error)
	DeleteRefreshToken(ctx context.Context, tokenHash string) (int, error)
	DeleteExpiredRefreshTokens(ctx context.Context, before time.Time) (int, error)
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// AuthService concentra regras de autenticação e sessões.
type AuthService struct {
	repo   authRepository
	redis  redisCommander
	tokens *auth.TokenManager
	now    func() time.Time
}

// NewAuthService cria novo serviço. redisClient é opcional.
func NewAuthService(r *repo.Queries, redisClient *redis.Client, tokens *auth.TokenManager) *AuthService {
	svc := &AuthService{repo: r, tokens: tokens, now: util.Now}
	if redisClient != nil {
		svc.redis = redisClient
	}
	return svc
}

// Tokens expõe o gerenciador de tokens (útil em middlewares).
func (s *AuthService) Tokens() *auth.TokenManager {
	return s.tokens
}

// LoginResult representa retorno padrão de autenticações.
type LoginResult struct {
	User    repo.Usuario
	Session auth.Session
}

// Register cria conta com papel padrão e abre sessão.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*LoginResult, error) {
	user, err := s.CreateUser(ctx, name, email, password, RoleUser)
	if err != nil {
		return nil, err
	}
	return s.issueSession(ctx, user)
}

// CreateUser valida e grava novo usuário com hash Argon2id.
func (s *AuthService) CreateUser(ctx context.Context, name, email, password, role string) (repo.Usuario, error) {
	name = strings.TrimSpace(name)
	email = util.NormalizeEmail(email)
	if err := util.RequireString(name, "nome"); err != nil {
		return repo.Usuario{}, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	if err := util.ValidateEmail(email); err != nil {
		return repo.Usuario{}, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	if err := util.ValidatePassword(password); err != nil {
		return repo.Usuario{}, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		role = RoleUser
	}

	if _, err := s.repo.GetUsuarioByEmail(ctx, email); err == nil {
		return repo.Usuario{}, ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return repo.Usuario{}, err
	}

	hash, err := auth.Hash(password)
	if err != nil {
		return repo.Usuario{}, err
	}

	user, err := s.repo.InsertUsuario(ctx, repo.InsertUsuarioParams{
		ID:           util.NewID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.now(),
	})
	if errors.Is(err, repo.ErrConflict) {
		return repo.Usuario{}, ErrEmailTaken
	}
	return user, err
}

// Login autentica por e-mail e senha.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repo.GetUsuarioByEmail(ctx, util.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			log.Warn().Msg("login: usuário não encontrado")
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	ok, err := auth.Verify(password, user.PasswordHash)
	if err != nil {
		log.Warn().Err(err).Str("user_id", user.ID).Msg("login: verify password failed")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		log.Warn().Str("user_id", user.ID).Msg("login: senha inválida")
		return nil, ErrInvalidCredentials
	}

	if auth.IsLegacyHash(user.PasswordHash) {
		s.upgradeHash(ctx, user.ID, password)
	}

	return s.issueSession(ctx, user)
}

// upgradeHash regrava hashes bcrypt em Argon2id; falhas só geram log.
func (s *AuthService) upgradeHash(ctx context.Context, userID, password string) {
	hash, err := auth.Hash(password)
	if err == nil {
		err = s.repo.UpdateUsuarioSenha(ctx, userID, hash, s.now())
	}
	if err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("login: falha ao atualizar hash legado")
	}
}

// LoginMicrosoft localiza ou cria a conta do usuário Microsoft e abre sessão.
func (s *AuthService) LoginMicrosoft(ctx context.Context, ms *auth.MicrosoftUser) (*LoginResult, error) {
	user, err := s.repo.GetUsuarioByEmail(ctx, util.NormalizeEmail(ms.Email))
	if errors.Is(err, repo.ErrNotFound) {
		password, perr := auth.RandomToken()
		if perr != nil {
			return nil, perr
		}
		user, err = s.CreateUser(ctx, ms.Name, ms.Email, password, RoleUser)
		if err == nil {
			log.Info().Str("user_id", user.ID).Msg("microsoft: usuário criado no primeiro login")
		}
	}
	if err != nil {
		return nil, err
	}
	return s.issueSession(ctx, user)
}

// Refresh valida o refresh token e rotaciona a sessão: o registro anterior é
// consumido antes da emissão, então só uma de duas chamadas concorrentes com o
// mesmo token vence.
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*LoginResult, error) {
	user, hash, err := s.checkRefresh(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	consumed, err := s.repo.DeleteRefreshToken(ctx, hash)
	if err != nil {
		return nil, err
	}
	if consumed == 0 {
		return nil, ErrRefreshInvalid
	}
	if s.redis != nil {
		if err := s.redis.Del(ctx, auth.RefreshRedisKey(hash)).Err(); err != nil {
			log.Warn().Err(err).Str("user_id", user.ID).Msg("refresh: falha ao remover flag antiga do redis")
		}
	}

	return s.issueSession(ctx, user)
}

// Renew atende a renovação silenciosa do guard: emite só um novo access token
// e mantém o refresh token, que continua válido para requisições paralelas.
func (s *AuthService) Renew(ctx context.Context, rawToken string) (auth.Session, error) {
	user, _, err := s.checkRefresh(ctx, rawToken)
	if err != nil {
		return auth.Session{}, err
	}
	access, accessExp, err := s.tokens.IssueAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return auth.Session{}, err
	}
	return auth.Session{AccessToken: access, AccessExpires: accessExp}, nil
}

// checkRefresh confere JWT, registro, validade e flag do redis.
func (s *AuthService) checkRefresh(ctx context.Context, rawToken string) (repo.Usuario, string, error) {
	if rawToken == "" {
		return repo.Usuario{}, "", ErrRefreshInvalid
	}
	userID, ok := s.tokens.VerifyRefreshToken(rawToken)
	if !ok {
		return repo.Usuario{}, "", ErrRefreshInvalid
	}

	hash := auth.HashRefreshToken(rawToken)
	record, err := s.repo.GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.Usuario{}, "", ErrRefreshInvalid
		}
		return repo.Usuario{}, "", err
	}
	if record.UserID != userID {
		return repo.Usuario{}, "", ErrRefreshInvalid
	}
	if !s.now().Before(record.ExpiresAt) {
		if _, err := s.repo.DeleteRefreshToken(ctx, hash); err != nil {
			log.Warn().Err(err).Msg("refresh: falha ao remover sessão expirada")
		}
		return repo.Usuario{}, "", ErrRefreshInvalid
	}

	if s.redis != nil {
		status, err := s.redis.Get(ctx, auth.RefreshRedisKey(hash)).Result()
		if errors.Is(err, redis.Nil) {
			return repo.Usuario{}, "", ErrRefreshInvalid
		}
		if err != nil {
			return repo.Usuario{}, "", err
		}
		if status != refreshActive {
			return repo.Usuario{}, "", ErrRefreshInvalid
		}
	}

	user, err := s.repo.GetUsuarioByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return repo.Usuario{}, "", ErrRefreshInvalid
		}
		return repo.Usuario{}, "", err
	}
	return user, hash, nil
}

// Logout remove a sessão do refresh token informado.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	return s.revoke(ctx, auth.HashRefreshToken(rawToken))
}

func (s *AuthService) revoke(ctx context.Context, hash string) error {
	var errs []error
	if _, err := s.repo.DeleteRefreshToken(ctx, hash); err != nil {
		errs = append(errs, err)
	}
	if s.redis != nil {
		if err := s.redis.Del(ctx, auth.RefreshRedisKey(hash)).Err(); err != nil && !errors.Is(err, redis.Nil) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Verify devolve o usuário dono de um access token válido.
func (s *AuthService) Verify(ctx context.Context, accessToken string) (repo.Usuario, error) {
	claims, ok := s.tokens.VerifyAccessToken(accessToken)
	if !ok {
		return repo.Usuario{}, ErrTokenInvalid
	}
	user, err := s.repo.GetUsuarioByID(ctx, claims.UserID)
	if errors.Is(err, repo.ErrNotFound) {
		return repo.Usuario{}, ErrTokenInvalid
	}
	return user, err
}

// Me carrega o usuário autenticado.
func (s *AuthService) Me(ctx context.Context, userID string) (repo.Usuario, error) {
	user, err := s.repo.GetUsuarioByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return repo.Usuario{}, ErrUserNotFound
	}
	return user, err
}

// ChangePassword exige a senha atual antes de gravar a nova.
func (s *AuthService) ChangePassword(ctx context.Context, userID, current, next string) error {
	user, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	ok, err := auth.Verify(current, user.PasswordHash)
	if err != nil || !ok {
		return ErrInvalidCredentials
	}
	if err := util.ValidatePassword(next); err != nil {
		return fmt.Errorf("%w: %s", ErrValidation, err)
	}
	hash, err := auth.Hash(next)
	if err != nil {
		return err
	}
	return s.repo.UpdateUsuarioSenha(ctx, userID, hash, s.now())
}

// SweepExpiredSessions remove registros de refresh vencidos.
func (s *AuthService) SweepExpiredSessions(ctx context.Context) (int, error) {
	return s.repo.DeleteExpiredRefreshTokens(ctx, s.now())
}

func (s *AuthService) issueSession(ctx context.Context, user repo.Usuario) (*LoginResult, error) {
	access, accessExp, err := s.tokens.IssueAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.persistRefresh(ctx, user.ID, auth.HashRefreshToken(refresh), refreshExp); err != nil {
		return nil, err
	}
	return &LoginResult{
		User: user,
		Session: auth.Session{
			AccessToken:    access,
			AccessExpires:  accessExp,
			RefreshToken:   refresh,
			RefreshExpires: refreshExp,
		},
	}, nil
}

func (s *AuthService) persistRefresh(ctx context.Context, userID, hash string, expires time.Time) error {
	now := s.now()
	_, err := s.repo.InsertRefreshToken(ctx, repo.InsertRefreshTokenParams{
		ID:        util.NewID(),
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: expires,
		CreatedAt: now,
	})
	if err != nil {
		return err
	}
	if s.redis == nil {
		return nil
	}
	if err := s.redis.Set(ctx, auth.RefreshRedisKey(hash), refreshActive, expires.Sub(now)).Err(); err != nil {
		// sem a flag o token nasceria inválido; desfaz o registro
		if _, derr := s.repo.DeleteRefreshToken(context.WithoutCancel(ctx), hash); derr != nil {
			log.Warn().Err(derr).Str("user_id", userID).Msg("sessão: falha ao desfazer registro sem flag no redis")
		}
		return err
	}
	return nil
}
