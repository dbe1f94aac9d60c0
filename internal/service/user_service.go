package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/comercial/internal/repo"
)

type userRepository interface {
	ListUsuarios(ctx context.Context) ([]repo.Usuario, error)
	DeleteUsuario(ctx context.Context, id string) error
	DeleteRefreshTokensByUser(ctx context.Context, userID string) (int, error)
}

// UserService opera a administração de contas.
type UserService struct {
	repo userRepository
}

// NewUserService cria nova instância.
func NewUserService(r *repo.Queries) *UserService {
	return &UserService{repo: r}
}

// List retorna todas as contas ordenadas por nome.
func (s *UserService) List(ctx context.Context) ([]repo.Usuario, error) {
	return s.repo.ListUsuarios(ctx)
}

// Delete remove a conta e suas sessões. Apenas administradores.
func (s *UserService) Delete(ctx context.Context, actorID, actorRole, id string) error {
	if err := RequireRole(actorRole, RoleAdmin); err != nil {
		return err
	}
	if id == actorID {
		return fmt.Errorf("%w: não é possível remover a própria conta", ErrValidation)
	}
	if _, err := s.repo.DeleteRefreshTokensByUser(ctx, id); err != nil {
		log.Warn().Err(err).Str("user_id", id).Msg("usuarios: falha ao remover sessões")
	}
	return s.repo.DeleteUsuario(ctx, id)
}
