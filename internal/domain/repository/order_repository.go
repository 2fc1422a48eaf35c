package repository

import (
	"context"

	"github.com/jhoicas/docgen-api/internal/domain/entity"
)

// OrderRepository puerto de lectura de órdenes (con su usuario).
// GetByID retorna (nil, nil) si la orden no existe.
type OrderRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Order, error)
}
