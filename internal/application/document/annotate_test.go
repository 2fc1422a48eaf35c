package document_test

import (
	"math/rand"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/docgen-api/internal/application/document"
	"github.com/jhoicas/docgen-api/internal/domain"
	"github.com/jhoicas/docgen-api/internal/domain/entity"
)

var fixedNow = time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC).Add(123456 * time.Millisecond)

func item(name, qty, price string) entity.LineItem {
	return entity.LineItem{
		Name:      name,
		Quantity:  decimal.RequireFromString(qty),
		UnitPrice: decimal.RequireFromString(price),
	}
}

func TestAnnotate_CalculaTotales(t *testing.T) {
	doc := &entity.Document{
		Type:  entity.DocTypeInvoice,
		Items: []entity.LineItem{item("A", "2", "10.50"), item("B", "1", "5")},
	}
	out, err := document.Annotate(doc, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, "21.00", out.Items[0].LineTotal.StringFixed(2))
	assert.Equal(t, "5.00", out.Items[1].LineTotal.StringFixed(2))
	assert.Equal(t, "26.00", out.GrandTotal.StringFixed(2))
	assert.Equal(t, fixedNow, out.IssuedAt)
	assert.True(t, doc.GrandTotal.IsZero(), "el documento de entrada no se modifica")
	assert.True(t, doc.Items[0].LineTotal.IsZero())
}

func TestAnnotate_RedondeoMitadHaciaArriba(t *testing.T) {
	doc := &entity.Document{
		Type:  entity.DocTypeQuotation,
		Items: []entity.LineItem{item("A", "3", "0.335"), item("B", "1", "0.005")},
	}
	out, err := document.Annotate(doc, fixedNow)
	require.NoError(t, err)

	assert.Equal(t, "1.01", out.Items[0].LineTotal.StringFixed(2), "1.005 → 1.01")
	assert.Equal(t, "0.01", out.Items[1].LineTotal.StringFixed(2))
	assert.Equal(t, "1.02", out.GrandTotal.StringFixed(2), "suma de líneas ya redondeadas")
}

func TestAnnotate_SinItems_TotalCero(t *testing.T) {
	out, err := document.Annotate(&entity.Document{Type: entity.DocTypeInvoice}, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "0.00", out.GrandTotal.StringFixed(2))
	assert.Equal(t, int32(-2), out.GrandTotal.Exponent(), "misma escala que un total con líneas")
}

func TestAnnotate_CantidadCeroPermitida(t *testing.T) {
	out, err := document.Annotate(&entity.Document{
		Type:  entity.DocTypeInvoice,
		Items: []entity.LineItem{item("A", "0", "99.99")},
	}, fixedNow)
	require.NoError(t, err)
	assert.True(t, out.GrandTotal.IsZero())
}

func TestAnnotate_Negativos_RetornaValidationError(t *testing.T) {
	cases := map[string]struct {
		doc   *entity.Document
		field string
	}{
		"cantidad": {
			doc:   &entity.Document{Type: entity.DocTypeInvoice, Items: []entity.LineItem{item("A", "1", "1"), item("B", "-1", "1")}},
			field: "items[1].quantity",
		},
		"precio": {
			doc:   &entity.Document{Type: entity.DocTypeInvoice, Items: []entity.LineItem{item("A", "1", "-0.01")}},
			field: "items[0].price",
		},
		"monto de envío": {
			doc:   &entity.Document{Type: entity.DocTypeDelivery, Shipping: &entity.ShippingDetails{Amount: decimal.NewFromInt(-5)}},
			field: "shipping.amount",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := document.Annotate(tc.doc, fixedNow)
			require.Error(t, err)
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
			assert.Equal(t, "must not be negative", ve.Reason)
		})
	}
}

func TestAnnotate_TipoInvalido_EsInternalError(t *testing.T) {
	_, err := document.Annotate(&entity.Document{}, fixedNow)
	var ie *domain.InternalError
	assert.ErrorAs(t, err, &ie)

	_, err = document.Annotate(nil, fixedNow)
	assert.ErrorAs(t, err, &ie)
}

// Para cualquier conjunto de líneas el total general es exactamente la suma de
// los totales de línea redondeados.
func TestAnnotate_TotalEsSumaExactaDeLineas(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, n := range []int{0, 1, 7, 100, 1000} {
		items := make([]entity.LineItem, n)
		for i := range items {
			items[i] = entity.LineItem{
				Name:      "item",
				Quantity:  decimal.New(rng.Int63n(100_000), -int32(rng.Intn(3))),
				UnitPrice: decimal.New(rng.Int63n(10_000_000), -int32(rng.Intn(4))),
			}
		}
		out, err := document.Annotate(&entity.Document{Type: entity.DocTypeInvoice, Items: items}, fixedNow)
		require.NoError(t, err)

		sum := decimal.Zero
		for i, it := range out.Items {
			want := it.Quantity.Mul(it.UnitPrice).Round(2)
			require.True(t, want.Equal(it.LineTotal), "línea %d: %s != %s", i, want, it.LineTotal)
			sum = sum.Add(it.LineTotal)
		}
		assert.True(t, sum.Equal(out.GrandTotal), "n=%d: %s != %s", n, sum, out.GrandTotal)
		assert.LessOrEqual(t, out.GrandTotal.Exponent(), int32(0))
		assert.GreaterOrEqual(t, out.GrandTotal.Exponent(), int32(-2), "el total nunca tiene más de 2 decimales")
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Código de documento
// ──────────────────────────────────────────────────────────────────────────────

func TestDocumentCode_Formato(t *testing.T) {
	re := regexp.MustCompile(`^MMM\d{6}(INV|QUO|DELV)$`)
	for _, tc := range []struct {
		t   entity.DocType
		tag string
	}{
		{entity.DocTypeInvoice, "INV"},
		{entity.DocTypeQuotation, "QUO"},
		{entity.DocTypeDelivery, "DELV"},
	} {
		code := document.DocumentCode(tc.t, fixedNow)
		assert.Regexp(t, re, code)
		assert.Equal(t, tc.tag, code[9:])
	}
}

func TestDocumentCode_UltimosSeisDigitosDelReloj(t *testing.T) {
	now := time.UnixMilli(1_700_000_123_456)
	assert.Equal(t, "MMM123456INV", document.DocumentCode(entity.DocTypeInvoice, now))

	// Relleno con ceros a la izquierda.
	now = time.UnixMilli(1_700_000_000_042)
	assert.Equal(t, "MMM000042DELV", document.DocumentCode(entity.DocTypeDelivery, now))
}

func TestAnnotate_CodigoEstableConRelojFijo(t *testing.T) {
	doc := &entity.Document{Type: entity.DocTypeInvoice, Items: []entity.LineItem{item("A", "1", "1")}}
	a, err := document.Annotate(doc, fixedNow)
	require.NoError(t, err)
	b, err := document.Annotate(doc, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, a, b, "misma entrada y mismo reloj producen el mismo documento")
}
