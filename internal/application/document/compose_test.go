package document_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/docgen-api/internal/application/document"
	"github.com/jhoicas/docgen-api/internal/domain"
	"github.com/jhoicas/docgen-api/internal/domain/entity"
	"github.com/jhoicas/docgen-api/internal/domain/layout"
)

var testBrand = document.Brand{Name: "MASTERPIECE EMPIRE", Subtitle: "Quality you can trust"}

func annotated(t *testing.T, doc *entity.Document) *entity.Document {
	t.Helper()
	out, err := document.Annotate(doc, fixedNow)
	require.NoError(t, err)
	return out
}

func findTables(tree *layout.Document) []*layout.Table {
	var out []*layout.Table
	layout.Walk(tree, func(n layout.Node) bool {
		if tb, ok := n.(*layout.Table); ok {
			out = append(out, tb)
		}
		return true
	})
	return out
}

func countNodes[T layout.Node](tree *layout.Document) int {
	n := 0
	layout.Walk(tree, func(node layout.Node) bool {
		if _, ok := node.(T); ok {
			n++
		}
		return true
	})
	return n
}

func TestCompose_Factura_TablaYTotal(t *testing.T) {
	doc := annotated(t, &entity.Document{
		Type:     entity.DocTypeInvoice,
		Customer: entity.Customer{Name: "Jane Doe", Email: "jane@x.com", Phone: "0700"},
		Items: []entity.LineItem{
			{Name: "Widget", Description: "oculta en factura", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("10.5")},
			{Name: "Gadget", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(5)},
		},
		Payment: &testDefaults.Payment,
	})

	tree, err := document.NewComposer(testBrand).Compose(doc)
	require.NoError(t, err)

	tables := findTables(tree)
	require.Len(t, tables, 1)
	tb := tables[0]

	titles := make([]string, 0, len(tb.Columns))
	width := 0
	for _, c := range tb.Columns {
		titles = append(titles, c.Title)
		width += c.Width
	}
	assert.Equal(t, []string{"ITEM", "QUANTITY", "EACH", "TOTAL"}, titles)
	assert.Equal(t, layout.GridSize, width, "los anchos suman la grilla completa")

	assert.Equal(t, [][]string{
		{"Widget", "2", "10.50", "21.00"},
		{"Gadget", "1", "5.00", "5.00"},
	}, tb.Rows)
	require.NotNil(t, tb.Total)
	assert.Equal(t, "TOTAL", tb.Total.Label)
	assert.Equal(t, "26.00", tb.Total.Value)

	texts := layout.Texts(tree)
	assert.Contains(t, texts, "INVOICE CODE : "+doc.Code)
	assert.Contains(t, texts, "MASTERPIECE EMPIRE")
	assert.Contains(t, texts, "PAYMENT DETAILS")
	assert.NotContains(t, texts, "oculta en factura", "la factura no muestra descripciones")
	assert.Equal(t, 0, countNodes[*layout.SignatureBlock](tree))
}

func TestCompose_Cotizacion_Seccion(t *testing.T) {
	doc := annotated(t, &entity.Document{Type: entity.DocTypeQuotation, Payment: &testDefaults.Payment})
	tree, err := document.NewComposer(testBrand).Compose(doc)
	require.NoError(t, err)

	assert.Contains(t, layout.Texts(tree), "QUOTATION CODE : "+doc.Code)
	assert.Regexp(t, `QUO$`, doc.Code)
}

func TestCompose_Terminos_NoDuplicaTitulo(t *testing.T) {
	doc := annotated(t, &entity.Document{Type: entity.DocTypeInvoice, Payment: &testDefaults.Payment})
	tree, err := document.NewComposer(testBrand).Compose(doc)
	require.NoError(t, err)

	n := 0
	for _, s := range layout.Texts(tree) {
		if s == "TERMS:" {
			n++
		}
	}
	assert.Equal(t, 1, n)
	assert.Contains(t, layout.Texts(tree), "Goods once sold are not returnable.")
}

func TestCompose_Entrega_DescripcionCaeAlNombre(t *testing.T) {
	doc := annotated(t, &entity.Document{
		Type: entity.DocTypeDelivery,
		Items: []entity.LineItem{
			{Name: "Chair", Description: "Oak, brown", Units: "pcs", Quantity: decimal.NewFromInt(4)},
			{Name: "Table", Units: "pcs", Quantity: decimal.NewFromInt(1)},
		},
		Shipping: &entity.ShippingDetails{},
	})
	tree, err := document.NewComposer(testBrand).Compose(doc)
	require.NoError(t, err)

	tables := findTables(tree)
	require.Len(t, tables, 1)
	assert.Equal(t, [][]string{
		{"1", "Chair", "Oak, brown", "pcs", "4"},
		{"2", "Table", "Table", "pcs", "1"},
	}, tables[0].Rows)
	assert.Nil(t, tables[0].Total, "la nota de entrega no lleva total")

	assert.Equal(t, 1, countNodes[*layout.SignatureBlock](tree))
	texts := layout.Texts(tree)
	assert.Contains(t, texts, "DELIVERY CODE : "+doc.Code)
	assert.Contains(t, texts, "DELIVERED BY")
	assert.Contains(t, texts, "RECEIVED BY")
	assert.NotContains(t, texts, "SHIPPING DETAILS", "envío vacío no se imprime")
	assert.NotContains(t, texts, "PAYMENT DETAILS")
}

func TestCompose_Entrega_ConEnvio(t *testing.T) {
	doc := annotated(t, &entity.Document{
		Type:     entity.DocTypeDelivery,
		Shipping: &entity.ShippingDetails{From: "Nairobi", To: "Mombasa\nGate 4"},
	})
	tree, err := document.NewComposer(testBrand).Compose(doc)
	require.NoError(t, err)

	texts := layout.Texts(tree)
	assert.Contains(t, texts, "SHIPPING DETAILS")
	assert.Contains(t, texts, "FROM: Nairobi")
	assert.Contains(t, texts, "TO: Mombasa")
	assert.Contains(t, texts, "TO: Gate 4")
}

func TestCompose_Membrete_ReemplazaEncabezado(t *testing.T) {
	doc := annotated(t, &entity.Document{
		Type:       entity.DocTypeInvoice,
		Letterhead: &entity.Letterhead{Source: "data:image/png", MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}},
	})
	tree, err := document.NewComposer(testBrand).Compose(doc)
	require.NoError(t, err)

	assert.Equal(t, 0, countNodes[*layout.Header](tree), "membrete y encabezado son excluyentes")
	assert.Equal(t, 1, countNodes[*layout.Image](tree))
	assert.NotContains(t, layout.Texts(tree), "MASTERPIECE EMPIRE")
	_, first := tree.Children[0].(*layout.Image)
	assert.True(t, first, "el membrete es el primer nodo")
}

func TestCompose_SinMembrete_EncabezadoPorDefecto(t *testing.T) {
	doc := annotated(t, &entity.Document{Type: entity.DocTypeInvoice})
	tree, err := document.NewComposer(testBrand).Compose(doc)
	require.NoError(t, err)

	assert.Equal(t, 1, countNodes[*layout.Header](tree))
	assert.Equal(t, 0, countNodes[*layout.Image](tree), "sin logo configurado no hay imagen")
}

func TestCompose_MembreteSinResolver_EsInternalError(t *testing.T) {
	doc := annotated(t, &entity.Document{
		Type:       entity.DocTypeInvoice,
		Letterhead: &entity.Letterhead{Source: "https://x/lh.png"},
	})
	_, err := document.NewComposer(testBrand).Compose(doc)
	var ie *domain.InternalError
	assert.ErrorAs(t, err, &ie)
}

func TestCompose_EsIdempotente(t *testing.T) {
	doc := annotated(t, &entity.Document{
		Type:     entity.DocTypeInvoice,
		Customer: entity.Customer{Name: "Jane"},
		Items:    []entity.LineItem{{Name: "A", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(1)}},
		Payment:  &testDefaults.Payment,
	})
	c := document.NewComposer(testBrand)
	a, err := c.Compose(doc)
	require.NoError(t, err)
	b, err := c.Compose(doc)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
