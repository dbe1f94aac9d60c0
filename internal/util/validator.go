package util

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

// MinPasswordLength é o tamanho mínimo de senha aceito.
const MinPasswordLength = 8

var (
	errEmailRequired = errors.New("email obrigatório")
	errEmailInvalid  = errors.New("email inválido")
)

// NormalizeEmail remove espaços e aplica minúsculas.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail aceita apenas o endereço puro, sem nome de exibição.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errEmailRequired
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errEmailInvalid
	}
	return nil
}

// ValidatePassword verifica requisitos mínimos de senha.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("senha deve ter pelo menos %d caracteres", MinPasswordLength)
	}
	return nil
}

// RequireString garante string não vazia após remover espaços.
func RequireString(value, field string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(field + " obrigatório")
	}
	return nil
}
