package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gestaozabele/comercial/internal/repo"
	"github.com/gestaozabele/comercial/internal/util"
)

// ProfileInput altera apenas os campos enviados.
type ProfileInput struct {
	Name         *string `json:"name"`
	AvatarURL    *string `json:"avatarUrl"`
	Telefone     *string `json:"telefone"`
	Cargo        *string `json:"cargo"`
	Bio          *string `json:"bio"`
	Tema         *string `json:"tema"`
	Notificacoes *bool   `json:"notificacoes"`
}

// ProfileView agrega usuário, perfil e preferências.
type ProfileView struct {
	User         repo.Usuario      `json:"user"`
	Perfil       repo.Perfil       `json:"perfil"`
	Preferencias repo.Preferencias `json:"preferencias"`
}

// ProfileService atualiza users, perfis e preferencias juntos.
type ProfileService struct {
	repo *repo.Queries
	now  func() time.Time
}

// NewProfileService cria nova instância.
func NewProfileService(r *repo.Queries) *ProfileService {
	return &ProfileService{repo: r, now: util.Now}
}

// Get monta a visão completa; perfil e preferências ausentes vêm vazios.
func (s *ProfileService) Get(ctx context.Context, userID string) (*ProfileView, error) {
	return s.load(ctx, s.repo, userID)
}

func (s *ProfileService) load(ctx context.Context, q *repo.Queries, userID string) (*ProfileView, error) {
	user, err := q.GetUsuarioByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	perfil, err := q.GetPerfil(ctx, userID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	prefs, err := q.GetPreferencias(ctx, userID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}
	perfil.UserID = userID
	prefs.UserID = userID
	return &ProfileView{User: user, Perfil: perfil, Preferencias: prefs}, nil
}

// Update grava as três tabelas. Com store transacional tudo ocorre numa
// transação; sem ela as escritas rodam em paralelo e o primeiro erro falha a
// chamada sem desfazer as demais.
func (s *ProfileService) Update(ctx context.Context, userID string, in ProfileInput) (*ProfileView, error) {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: nome obrigatório", ErrValidation)
		}
		in.Name = &name
	}
	if in.Tema != nil && !validTema(*in.Tema) {
		return nil, fmt.Errorf("%w: tema inválido", ErrValidation)
	}

	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	perfil, prefs := mergeProfile(current, in, now)

	if s.repo.Transactional() {
		err = s.repo.WithTx(ctx, func(ctx context.Context, tx *repo.Queries) error {
			if _, err := tx.UpdateUsuario(ctx, userID, userPatch(in, now)); err != nil {
				return err
			}
			if _, err := tx.UpsertPerfil(ctx, perfil); err != nil {
				return err
			}
			_, err := tx.UpsertPreferencias(ctx, prefs)
			return err
		})
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			_, err := s.repo.UpdateUsuario(gctx, userID, userPatch(in, now))
			return err
		})
		g.Go(func() error {
			_, err := s.repo.UpsertPerfil(gctx, perfil)
			return err
		})
		g.Go(func() error {
			_, err := s.repo.UpsertPreferencias(gctx, prefs)
			return err
		})
		err = g.Wait()
	}
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, userID)
}

func userPatch(in ProfileInput, now time.Time) repo.UpdateUsuarioParams {
	return repo.UpdateUsuarioParams{Name: in.Name, AvatarURL: in.AvatarURL, UpdatedAt: now}
}

func mergeProfile(current *ProfileView, in ProfileInput, now time.Time) (repo.Perfil, repo.Preferencias) {
	perfil := current.Perfil
	if in.Telefone != nil {
		perfil.Telefone = strings.TrimSpace(*in.Telefone)
	}
	if in.Cargo != nil {
		perfil.Cargo = strings.TrimSpace(*in.Cargo)
	}
	if in.Bio != nil {
		perfil.Bio = *in.Bio
	}
	perfil.UpdatedAt = now

	prefs := current.Preferencias
	if prefs.Tema == "" {
		prefs.Tema = "claro"
	}
	if in.Tema != nil {
		prefs.Tema = *in.Tema
	}
	if in.Notificacoes != nil {
		prefs.Notificacoes = *in.Notificacoes
	}
	prefs.UpdatedAt = now
	return perfil, prefs
}

func validTema(tema string) bool {
	switch tema {
	case "claro", "escuro", "sistema":
		return true
	}
	return false
}
