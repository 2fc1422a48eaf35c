package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound        = errors.New("recurso no encontrado")
	ErrDocTypeRequired = errors.New("document type is required")
	ErrUnknownDocType  = errors.New("unknown document type")
	ErrInvalidInput    = errors.New("entrada inválida")
)

// ValidationError entrada incorrecta o faltante; el usuario puede corregirla (HTTP 400).
type ValidationError struct {
	Field  string // ruta del campo en el payload, ej. "items[1].quantity"
	Reason string
	Err    error // sentinela opcional para errors.Is
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// RenderError fallo de maquetación o codificación del PDF (HTTP 500).
type RenderError struct {
	Op  string // etapa: "letterhead", "image", "generate", ...
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Op, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// InternalError invariante violada; siempre es un defecto del código (HTTP 500).
type InternalError struct {
	Where  string
	Detail string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error in %s: %s", e.Where, e.Detail)
}

// IsValidation indica si err (o alguno de sus envueltos) es un ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
