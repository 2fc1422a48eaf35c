package postgres

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes de pgx: devuelven filas fijas sin base de datos
// ──────────────────────────────────────────────────────────────────────────────

func scanInto(dest []any, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan: %d destinos para %d columnas", len(dest), len(values))
	}
	for i, v := range values {
		target := reflect.ValueOf(dest[i]).Elem()
		if v == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		target.Set(reflect.ValueOf(v))
	}
	return nil
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return scanInto(dest, r.values)
}

type fakeRows struct {
	data [][]any
	i    int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.data[r.i-1], nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }
func (r *fakeRows) Next() bool {
	r.i++
	return r.i <= len(r.data)
}
func (r *fakeRows) Scan(dest ...any) error { return scanInto(dest, r.data[r.i-1]) }

type fakeQuerier struct {
	row      fakeRow
	items    [][]any
	queried  bool
	lastArgs []any
}

func (q *fakeQuerier) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	q.lastArgs = args
	return q.row
}

func (q *fakeQuerier) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	q.queried = true
	return &fakeRows{data: q.items}, nil
}

func ptr[T any](v T) *T { return &v }

const orderID = "3f1c2a9e-8a4b-4a6b-9d1e-2c7f5b0e9a11"

// ──────────────────────────────────────────────────────────────────────────────
// Tests
// ──────────────────────────────────────────────────────────────────────────────

func TestOrderRepo_GetByID_ConUsuarioYLineas(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	q := &fakeQuerier{
		row: fakeRow{values: []any{
			orderID, "user-1", decimal.RequireFromString("25.50"), "Pending", "Mombasa Rd", now, now,
			ptr("user-1"), ptr("Jane"), ptr("jane@x.com"), "0700", "ME-12", []string{"customer"}, ptr(now), ptr(now),
		}},
		items: [][]any{
			{"prod-1", "Widget", decimal.NewFromInt(2), decimal.RequireFromString("10.25")},
			{"prod-2", "Gadget", decimal.NewFromInt(1), decimal.NewFromInt(5)},
		},
	}

	o, err := NewOrderRepository(q).GetByID(context.Background(), orderID)
	require.NoError(t, err)
	require.NotNil(t, o)

	assert.Equal(t, []any{orderID}, q.lastArgs)
	assert.Equal(t, "Mombasa Rd", o.ShippingAddress)
	require.NotNil(t, o.User)
	assert.Equal(t, "Jane", o.User.FirstName)
	assert.Equal(t, "ME-12", o.User.MENumber)
	require.Len(t, o.Items, 2)
	assert.Equal(t, "Gadget", o.Items[1].Name)
	assert.True(t, o.Items[0].Price.Equal(decimal.RequireFromString("10.25")))
}

func TestOrderRepo_GetByID_UsuarioBorrado(t *testing.T) {
	now := time.Now()
	q := &fakeQuerier{row: fakeRow{values: []any{
		orderID, "user-x", decimal.Zero, "Shipped", "", now, now,
		nil, nil, nil, "", "", nil, nil, nil,
	}}}

	o, err := NewOrderRepository(q).GetByID(context.Background(), orderID)
	require.NoError(t, err)
	assert.Nil(t, o.User, "LEFT JOIN sin usuario deja User en nil")
	assert.Empty(t, o.Items)
}

func TestOrderRepo_GetByID_NoExiste(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}}
	o, err := NewOrderRepository(q).GetByID(context.Background(), orderID)
	assert.NoError(t, err)
	assert.Nil(t, o)
	assert.False(t, q.queried, "sin orden no se consultan líneas")
}

func TestOrderRepo_GetByID_IDNoUUID_NoConsulta(t *testing.T) {
	q := &fakeQuerier{}
	o, err := NewOrderRepository(q).GetByID(context.Background(), "not-a-uuid")
	assert.NoError(t, err)
	assert.Nil(t, o)
	assert.Nil(t, q.lastArgs)
}

func TestOrderRepo_GetByID_ErrorDeConexion(t *testing.T) {
	dbErr := errors.New("connection reset")
	q := &fakeQuerier{row: fakeRow{err: dbErr}}
	_, err := NewOrderRepository(q).GetByID(context.Background(), orderID)
	assert.ErrorIs(t, err, dbErr)
}

func TestIsInvalidTextRepresentation(t *testing.T) {
	assert.True(t, isInvalidTextRepresentation(&pgconn.PgError{Code: "22P02"}))
	assert.False(t, isInvalidTextRepresentation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isInvalidTextRepresentation(errors.New("22P02")))
}
