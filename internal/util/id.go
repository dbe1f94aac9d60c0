package util

import (
	"time"

	"github.com/google/uuid"
)

// NewID gera um UUID v4 textual para novos registros.
func NewID() string {
	return uuid.NewString()
}

// Now retorna o instante atual em UTC; usado como relógio padrão.
func Now() time.Time {
	return time.Now().UTC()
}
