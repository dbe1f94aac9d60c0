package repo

import "github.com/gestaozabele/comercial/internal/store"

var (
	// ErrNotFound é retornado quando nenhum registro é encontrado.
	ErrNotFound = store.ErrNotFound
	// ErrConflict indica e-mail ou token já cadastrado.
	ErrConflict = store.ErrConflict
)
