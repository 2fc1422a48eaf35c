package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/docgen-api/internal/domain/entity"
	"github.com/jhoicas/docgen-api/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo lectura de órdenes con su usuario y líneas (usable con pool o tx).
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

const (
	selectOrderSQL = `
		SELECT o.id, o.user_id, o.total_amount, o.status, o.shipping_address, o.created_at, o.updated_at,
		       u.id, u.first_name, u.email, COALESCE(u.phone, ''), COALESCE(u.me_number, ''), u.roles,
		       u.created_at, u.updated_at
		FROM orders o
		LEFT JOIN users u ON u.id = o.user_id
		WHERE o.id = $1`

	selectOrderItemsSQL = `
		SELECT product_id, COALESCE(name, ''), quantity, price
		FROM order_items
		WHERE order_id = $1
		ORDER BY position`
)

// GetByID obtiene la orden con el usuario poblado. Retorna (nil, nil) si no existe
// o si id no es un UUID.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	var (
		o    entity.Order
		user userRow
	)
	err := r.q.QueryRow(ctx, selectOrderSQL, id).Scan(
		&o.ID, &o.UserID, &o.TotalAmount, &o.Status, &o.ShippingAddress, &o.CreatedAt, &o.UpdatedAt,
		&user.ID, &user.FirstName, &user.Email, &user.Phone, &user.MENumber, &user.Roles,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidTextRepresentation(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	o.User = user.toEntity()

	items, err := r.items(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (r *OrderRepo) items(ctx context.Context, orderID string) ([]entity.OrderItem, error) {
	rows, err := r.q.Query(ctx, selectOrderItemsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	var out []entity.OrderItem
	for rows.Next() {
		var it entity.OrderItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	return out, nil
}

// userRow columnas del LEFT JOIN: todas nulas si el usuario fue borrado.
type userRow struct {
	ID        *string
	FirstName *string
	Email     *string
	Phone     string
	MENumber  string
	Roles     []string
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

func (u userRow) toEntity() *entity.User {
	if u.ID == nil {
		return nil
	}
	out := &entity.User{ID: *u.ID, Phone: u.Phone, MENumber: u.MENumber, Roles: u.Roles}
	if u.FirstName != nil {
		out.FirstName = *u.FirstName
	}
	if u.Email != nil {
		out.Email = *u.Email
	}
	if u.CreatedAt != nil {
		out.CreatedAt = *u.CreatedAt
	}
	if u.UpdatedAt != nil {
		out.UpdatedAt = *u.UpdatedAt
	}
	return out
}
