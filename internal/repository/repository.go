package repository

import "errors"

var (
	// ErrNotFound cubre tanto ausencia como identificadores con formato invalido.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indica una violacion del indice unico de email.
	ErrDuplicate = errors.New("duplicate key")
)
