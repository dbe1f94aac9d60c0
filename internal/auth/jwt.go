package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// AccessClaims representa as informações presentes em um JWT de acesso.
type AccessClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Type   string `json:"typ"`
	jwt.RegisteredClaims
}

// RefreshClaims carrega apenas o usuário dono da sessão.
type RefreshClaims struct {
	UserID string `json:"userId"`
	Type   string `json:"typ"`
	jwt.RegisteredClaims
}

// TokenManager emite e valida os dois tipos de token com segredos distintos.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenManager cria o gerenciador com segredos e TTLs configurados.
func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithClock troca o relógio usado na emissão e na validação.
func (m *TokenManager) WithClock(now func() time.Time) *TokenManager {
	m.now = now
	return m
}

// AccessTTL expõe a duração do token de acesso.
func (m *TokenManager) AccessTTL() time.Duration { return m.accessTTL }

// RefreshTTL expõe a duração do token de refresh.
func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

// IssueAccessToken cria um JWT HS256 com userId, email e role.
func (m *TokenManager) IssueAccessToken(userID, email, role string) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.accessTTL)
	claims := AccessClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		Type:   tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.accessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// IssueRefreshToken cria o token de refresh. O jti garante valor único
// mesmo para duas emissões no mesmo segundo.
func (m *TokenManager) IssueRefreshToken(userID string) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.refreshTTL)
	claims := RefreshClaims{
		UserID: userID,
		Type:   tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.refreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// VerifyAccessToken retorna as claims ou false para qualquer falha
// (assinatura, formato, expiração ou tipo).
func (m *TokenManager) VerifyAccessToken(token string) (*AccessClaims, bool) {
	claims := &AccessClaims{}
	if err := m.parse(token, claims, m.accessSecret); err != nil {
		return nil, false
	}
	if claims.Type != tokenTypeAccess || claims.UserID == "" {
		return nil, false
	}
	return claims, true
}

// VerifyRefreshToken retorna o userId do token de refresh ou false.
func (m *TokenManager) VerifyRefreshToken(token string) (string, bool) {
	claims := &RefreshClaims{}
	if err := m.parse(token, claims, m.refreshSecret); err != nil {
		return "", false
	}
	if claims.Type != tokenTypeRefresh || claims.UserID == "" {
		return "", false
	}
	return claims.UserID, true
}

func (m *TokenManager) parse(token string, claims jwt.Claims, secret []byte) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return errors.New("token inválido")
	}
	return nil
}
