package pdf_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/docgen-api/internal/application/document"
	"github.com/jhoicas/docgen-api/internal/domain"
	"github.com/jhoicas/docgen-api/internal/domain/entity"
	"github.com/jhoicas/docgen-api/internal/domain/layout"
	"github.com/jhoicas/docgen-api/internal/infrastructure/pdf"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var (
	testNow   = time.UnixMilli(1_700_000_123_456)
	testBrand = document.Brand{Name: "MASTERPIECE EMPIRE", Subtitle: "Quality you can trust"}
	defaults  = document.Defaults{Payment: entity.PaymentTerms{
		Till: "Buy Goods Till: 123456",
		Bank: "Bank: Test Bank",
	}}

	tjRe   = regexp.MustCompile(`\(((?:\\.|[^\\)])*)\) Tj`)
	pageRe = regexp.MustCompile(`<</Type /Page\n`)
)

// newTestEncoder sin compresión y con Helvetica para poder leer el texto del PDF.
func newTestEncoder(chunk int) *pdf.Encoder {
	return pdf.NewEncoder(pdf.Options{ChunkSize: chunk}, zerolog.Nop())
}

// treeFor ejecuta Build → Annotate → Compose sobre un cuerpo JSON.
func treeFor(t *testing.T, body string) *layout.Document {
	t.Helper()
	doc, err := document.Build([]byte(body), defaults)
	require.NoError(t, err)
	doc, err = document.Annotate(doc, testNow)
	require.NoError(t, err)
	tree, err := document.NewComposer(testBrand).Compose(doc)
	require.NoError(t, err)
	return tree
}

func render(t *testing.T, tree *layout.Document) []byte {
	t.Helper()
	stream, err := newTestEncoder(0).Encode(context.Background(), tree)
	require.NoError(t, err)
	data, err := stream.Bytes()
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF-")), "la salida debe ser un PDF")
	return data
}

// pdfTexts extrae los literales de texto de un PDF sin comprimir.
func pdfTexts(data []byte) []string {
	var out []string
	unescape := strings.NewReplacer(`\(`, "(", `\)`, ")", `\\`, `\`)
	for _, m := range tjRe.FindAllSubmatch(data, -1) {
		out = append(out, unescape.Replace(string(m[1])))
	}
	return out
}

func pageCount(data []byte) int {
	return len(pageRe.FindAll(data, -1))
}

func count(texts []string, s string) int {
	n := 0
	for _, t := range texts {
		if t == s {
			n++
		}
	}
	return n
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(x % 255), B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func gifBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, 40, 10), color.Palette{color.White, color.Black})
	img.SetColorIndex(3, 3, 1)
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, img, nil))
	return buf.Bytes()
}

// ──────────────────────────────────────────────────────────────────────────────
// Contenido
// ──────────────────────────────────────────────────────────────────────────────

func TestEncode_Factura_ContenidoVisible(t *testing.T) {
	tree := treeFor(t, `{
		"docType": "invoice",
		"customer": {"name": "Jane Doe", "email": "jane@x.com", "phone": "0700"},
		"items": [
			{"name": "Widget", "quantity": 2, "price": 10.5},
			{"name": "Gadget", "quantity": 1, "price": 5}
		]
	}`)
	data := render(t, tree)
	texts := pdfTexts(data)

	assert.Equal(t, 1, pageCount(data))
	for _, want := range []string{
		"MASTERPIECE EMPIRE", "Jane Doe", "jane@x.com",
		"INVOICE CODE : MMM123456INV",
		"ITEM", "QUANTITY", "EACH", "TOTAL",
		"Widget", "10.50", "21.00", "Gadget", "5.00", "26.00",
		"PAYMENT DETAILS", "Buy Goods Till: 123456",
	} {
		assert.Contains(t, texts, want)
	}
}

func TestEncode_Entrega_DescripcionYFirmas(t *testing.T) {
	tree := treeFor(t, `{
		"docType": "delivery",
		"items": [
			{"name": "Chair", "description": "Oak", "units": "pcs", "quantity": 4},
			{"name": "Table", "units": "pcs", "quantity": 1}
		]
	}`)
	texts := pdfTexts(render(t, tree))

	assert.Contains(t, texts, "DELIVERY CODE : MMM123456DELV")
	assert.Equal(t, 2, count(texts, "Table"), "la descripción vacía cae al nombre")
	assert.Contains(t, texts, "Oak")
	assert.Contains(t, texts, "DELIVERED BY")
	assert.Contains(t, texts, "RECEIVED BY")
	assert.NotContains(t, texts, "PAYMENT DETAILS")
	assert.NotContains(t, texts, "EACH", "la nota de entrega no muestra precios")
}

func TestEncode_SinItems_RenderizaTotalCero(t *testing.T) {
	texts := pdfTexts(render(t, treeFor(t, `{"docType":"quotation","items":[]}`)))
	assert.Contains(t, texts, "QUOTATION CODE : MMM123456QUO")
	assert.Contains(t, texts, "0.00")
}

func TestEncode_Membrete_ReemplazaEncabezado(t *testing.T) {
	tree := treeFor(t, `{"docType":"invoice"}`)
	tree.Children[0] = &layout.Image{Source: "test", MIMEType: "image/png", Data: pngBytes(t, 400, 100)}

	data := render(t, tree)
	assert.Contains(t, string(data), "/Subtype /Image")
	assert.NotContains(t, pdfTexts(data), "MASTERPIECE EMPIRE")
}

func TestEncode_MembreteGIF_SeConvierte(t *testing.T) {
	tree := treeFor(t, `{"docType":"delivery"}`)
	tree.Children[0] = &layout.Image{Source: "test", MIMEType: "image/gif", Data: gifBytes(t)}

	data := render(t, tree)
	assert.Contains(t, string(data), "/Subtype /Image")
}

func TestEncode_MembreteIlegible_RenderErrorSincrono(t *testing.T) {
	tree := treeFor(t, `{"docType":"invoice"}`)
	tree.Children[0] = &layout.Image{Source: "test", Data: []byte("no es una imagen")}

	stream, err := newTestEncoder(0).Encode(context.Background(), tree)
	assert.Nil(t, stream, "no se crea stream si la maquetación falla")
	var re *domain.RenderError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "letterhead", re.Op)
}

func TestEncode_TextoNoRepresentable_SeSustituye(t *testing.T) {
	texts := pdfTexts(render(t, treeFor(t, `{"docType":"invoice","customer":{"name":"Zoë ✓"}}`)))
	found := false
	for _, s := range texts {
		if strings.HasPrefix(s, "Zo") && strings.HasSuffix(s, " ?") {
			found = true
		}
		assert.NotContains(t, s, "✓", "Helvetica usa Windows-1252")
	}
	assert.True(t, found, "el carácter fuera de Windows-1252 se reemplaza por '?'")
}

// ──────────────────────────────────────────────────────────────────────────────
// Paginación
// ──────────────────────────────────────────────────────────────────────────────

func TestEncode_TablaLarga_RepiteTitulosEnCadaPagina(t *testing.T) {
	var items []string
	for i := 0; i < 120; i++ {
		items = append(items, fmt.Sprintf(`{"name":"Item-%03d","quantity":1,"price":1}`, i))
	}
	data := render(t, treeFor(t, `{"docType":"invoice","items":[`+strings.Join(items, ",")+`]}`))
	texts := pdfTexts(data)

	pages := pageCount(data)
	require.Greater(t, pages, 1, "120 líneas no caben en una página")
	assert.Equal(t, pages, count(texts, "QUANTITY"), "una fila de títulos por página")
	assert.Equal(t, pages, count(texts, "EACH"))
	for i := 0; i < 120; i++ {
		assert.Equal(t, 1, count(texts, fmt.Sprintf("Item-%03d", i)), "cada línea aparece una sola vez")
	}
	assert.Contains(t, texts, "120.00")
}

func TestEncode_EntregaLarga_FirmasNoSeParten(t *testing.T) {
	var items []string
	for i := 0; i < 60; i++ {
		items = append(items, fmt.Sprintf(`{"name":"Part-%02d","units":"pcs","quantity":2}`, i))
	}
	data := render(t, treeFor(t, `{"docType":"delivery","items":[`+strings.Join(items, ",")+`]}`))
	texts := pdfTexts(data)

	pages := pageCount(data)
	require.Greater(t, pages, 1)
	assert.GreaterOrEqual(t, count(texts, "DESCRIPTION"), 2, "los títulos se repiten tras el salto")
	assert.LessOrEqual(t, count(texts, "DESCRIPTION"), pages)
	assert.Equal(t, 1, count(texts, "DELIVERED BY"))
	assert.Equal(t, 1, count(texts, "RECEIVED BY"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Stream
// ──────────────────────────────────────────────────────────────────────────────

func TestEncode_MismoArbol_MismoContenido(t *testing.T) {
	body := `{"docType":"invoice","customer":{"name":"Jane"},"items":[{"name":"A","quantity":3,"price":"1.25"}]}`
	a, b := render(t, treeFor(t, body)), render(t, treeFor(t, body))
	assert.Equal(t, pdfTexts(a), pdfTexts(b))
	assert.Equal(t, pageCount(a), pageCount(b))
}

func TestStream_Chunks_ReconstruyeElDocumento(t *testing.T) {
	tree := treeFor(t, `{"docType":"invoice","items":[{"name":"A","quantity":1,"price":1}]}`)
	stream, err := newTestEncoder(512).Encode(context.Background(), tree)
	require.NoError(t, err)

	var buf bytes.Buffer
	n := 0
	for chunk, err := range stream.Chunks() {
		require.NoError(t, err)
		assert.LessOrEqual(t, len(chunk), 512)
		buf.Write(chunk)
		n++
	}
	assert.Greater(t, n, 1)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Contains(t, buf.String(), "%%EOF")
}

func TestStream_NoEsReiniciable(t *testing.T) {
	stream, err := newTestEncoder(0).Encode(context.Background(), treeFor(t, `{"docType":"invoice"}`))
	require.NoError(t, err)

	_, err = stream.Bytes()
	require.NoError(t, err)
	_, err = stream.Bytes()
	assert.ErrorIs(t, err, pdf.ErrStreamConsumed)
}

func TestStream_ContextoCancelado_BytesNoDevuelveParcial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stream, err := newTestEncoder(0).Encode(ctx, treeFor(t, `{"docType":"invoice"}`))
	require.NoError(t, err)
	cancel()

	data, err := stream.Bytes()
	assert.Nil(t, data)
	assert.ErrorIs(t, err, context.Canceled)
	var re *domain.RenderError
	assert.ErrorAs(t, err, &re)
}

func TestStream_CancelacionAMitad_TerminaConError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stream, err := newTestEncoder(128).Encode(ctx, treeFor(t, `{"docType":"invoice"}`))
	require.NoError(t, err)

	var lastErr error
	got := 0
	for chunk, err := range stream.Chunks() {
		if err != nil {
			lastErr = err
			break
		}
		got += len(chunk)
		cancel()
	}
	assert.Equal(t, 128, got, "solo el primer trozo llega antes de cancelar")
	assert.True(t, errors.Is(lastErr, context.Canceled), "%v", lastErr)
}

func TestEncode_ContextoYaCancelado_NoProduce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stream, err := newTestEncoder(0).Encode(ctx, treeFor(t, `{"docType":"invoice"}`))
	assert.Nil(t, stream)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStream_CerrarAntesDeLeer(t *testing.T) {
	s, err := newTestEncoder(0).Encode(context.Background(), treeFor(t, `{"docType":"invoice"}`))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Bytes()
	assert.ErrorIs(t, err, pdf.ErrStreamClosed)
}

func TestStream_WriteTo_CopiaTodo(t *testing.T) {
	s, err := newTestEncoder(256).Encode(context.Background(), treeFor(t, `{"docType":"quotation"}`))
	require.NoError(t, err)
	wt, ok := s.(io.WriterTo)
	require.True(t, ok, "el stream del encoder implementa io.WriterTo")

	var buf bytes.Buffer
	n, err := wt.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Contains(t, buf.String(), "%%EOF")

	_, err = s.Bytes()
	assert.ErrorIs(t, err, pdf.ErrStreamConsumed)
}
