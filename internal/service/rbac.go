package service

import (
	"errors"
	"strings"
)

var (
	// ErrForbidden indica ausência de permissão.
	ErrForbidden = errors.New("acesso negado")
)

// HasRole compara papéis sem diferenciar caixa.
func HasRole(role string, allowed ...string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return false
	}
	for _, candidate := range allowed {
		if strings.ToLower(strings.TrimSpace(candidate)) == role {
			return true
		}
	}
	return false
}

// RequireRole retorna ErrForbidden quando role não está entre os permitidos.
func RequireRole(role string, allowed ...string) error {
	if !HasRole(role, allowed...) {
		return ErrForbidden
	}
	return nil
}
