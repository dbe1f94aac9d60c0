package crm

import (
	"errors"
	"sort"
	"strings"

	"github.com/gestaozabele/comercial/internal/store"
)

var (
	// ErrNotFound é retornado quando o registro não existe no store consultado.
	ErrNotFound = store.ErrNotFound
	// ErrValidation identifica entradas rejeitadas antes de qualquer escrita.
	ErrValidation = errors.New("dados inválidos")
)

// ValidationError detalha campos inválidos (nome JSON → motivo).
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return e.Message + ": " + strings.Join(names, ", ")
}

// Is permite errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Message: "dados inválidos", Fields: map[string]string{field: reason}}
}
