// Package pdf codifica el árbol de maquetación como PDF con Maroto v2.
//
// Página A4 con márgenes de 20 pt y grilla de 100 columnas, de modo que los
// anchos porcentuales del árbol se traducen 1:1 a columnas:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  MEMBRETE (imagen a todo el ancho) │ ENCABEZADO de la marca  │
//	│  CLIENTE: nombre / email / teléfono                          │
//	│  ── SECCIÓN: "<TIPO> CODE : MMM123456INV" ──                 │
//	│  TABLA (títulos repetidos en cada página)                    │
//	│  PIE: pago + términos │ firmas (nota de entrega)             │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"
	"unicode/utf8"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/page"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/linestyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/core/entity"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/rs/zerolog"

	"github.com/jhoicas/docgen-api/internal/application/document"
	"github.com/jhoicas/docgen-api/internal/domain"
	"github.com/jhoicas/docgen-api/internal/domain/layout"
)

// ── Geometría de página (mm) ──────────────────────────────────────────────────

const (
	pageWidth  = 210.0
	pageHeight = 297.0
	margin     = 20 * 25.4 / 72 // 20 pt

	contentWidth  = pageWidth - 2*margin
	contentHeight = pageHeight - 2*margin

	ptToMM        = 25.4 / 72
	avgGlyphRatio = 0.5 // ancho medio de un carácter respecto del tamaño de fuente
	headerLogoMM  = 18.0
)

// Options configuración del encoder.
type Options struct {
	Fonts       FontSet
	Compression bool
	ChunkSize   int
	Creator     string
}

// Encoder implementa document.Encoder con Maroto v2. Es seguro para uso
// concurrente: cada Encode construye su propio documento maroto.
type Encoder struct {
	opts Options
	log  zerolog.Logger
}

var _ document.Encoder = (*Encoder)(nil)

// NewEncoder construye el encoder. Fonts vacío equivale a Helvetica.
func NewEncoder(opts Options, log zerolog.Logger) *Encoder {
	if opts.Fonts.Family == "" {
		opts.Fonts = HelveticaFonts()
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	return &Encoder{opts: opts, log: log}
}

// Encode recorre el árbol y decodifica las imágenes de forma síncrona: los errores
// de maquetación llegan aquí, antes de que exista el stream. La generación del PDF
// corre en una goroutine que escribe en un io.Pipe atado a ctx.
func (e *Encoder) Encode(ctx context.Context, tree *layout.Document) (document.Stream, error) {
	if tree == nil {
		return nil, &domain.InternalError{Where: "pdf.Encode", Detail: "árbol nil"}
	}
	if err := ctx.Err(); err != nil {
		return nil, &domain.RenderError{Op: "encode", Err: err}
	}

	m, pages, err := e.build(tree)
	if err != nil {
		return nil, err
	}

	pr, pw := io.Pipe()
	stop := cancelOnDone(ctx, pw)
	start := time.Now()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				_ = pw.CloseWithError(&domain.RenderError{Op: "generate", Err: fmt.Errorf("panic: %v", r)})
			}
		}()

		doc, err := m.Generate()
		if err != nil {
			_ = pw.CloseWithError(&domain.RenderError{Op: "generate", Err: err})
			return
		}
		data := doc.GetBytes()
		e.log.Debug().
			Int("bytes", len(data)).
			Int("pages", pages).
			Dur("elapsed", time.Since(start)).
			Msg("pdf: documento generado")

		for off := 0; off < len(data); off += e.opts.ChunkSize {
			end := min(off+e.opts.ChunkSize, len(data))
			if _, err := pw.Write(data[off:end]); err != nil {
				// lector cerrado o contexto cancelado
				return
			}
		}
		_ = pw.Close()
	}()

	return newStream(ctx, pr, e.opts.ChunkSize, stop), nil
}

func (e *Encoder) marotoConfig(tree *layout.Document) *entity.Config {
	b := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(margin).
		WithTopMargin(margin).
		WithRightMargin(margin).
		WithBottomMargin(margin).
		WithMaxGridSize(layout.GridSize).
		WithDefaultFont(&props.Font{Family: e.opts.Fonts.Family, Size: 10}).
		WithCompression(e.opts.Compression)
	if e.opts.Fonts.UTF8() {
		b = b.WithCustomFonts(e.opts.Fonts.Custom)
	}
	utf8Meta := e.opts.Fonts.UTF8()
	if tree.Title != "" {
		b = b.WithTitle(e.text(tree.Title), utf8Meta)
	}
	if tree.Author != "" {
		b = b.WithAuthor(e.text(tree.Author), utf8Meta)
	}
	if e.opts.Creator != "" {
		b = b.WithCreator(e.opts.Creator, utf8Meta)
	}
	return b.Build()
}

// build arma el documento maroto. Retorna también el número de páginas previsto.
func (e *Encoder) build(tree *layout.Document) (core.Maroto, int, error) {
	w := &writer{enc: e, m: maroto.New(e.marotoConfig(tree)), pages: 1}
	for _, child := range tree.Children {
		if err := w.node(child); err != nil {
			return nil, 0, err
		}
	}
	return w.m, w.pages, nil
}

// ── writer: recorre el árbol llevando la cuenta de la altura usada ────────────

type writer struct {
	enc   *Encoder
	m     core.Maroto
	used  float64 // mm consumidos en la página actual
	pages int
}

// sized fila con su altura; maroto no expone la altura de una fila ya armada.
type sized struct {
	row core.Row
	h   float64
}

// add agrega filas replicando el salto automático de maroto (altura acumulada >= disponible).
func (w *writer) add(rows ...sized) {
	for _, r := range rows {
		if w.used > 0 && w.used+r.h >= contentHeight {
			w.used = 0
			w.pages++
		}
		w.used += r.h
		w.m.AddRows(r.row)
	}
}

// addTogether agrega un bloque que no se parte: si no entra, empieza página nueva.
func (w *writer) addTogether(rows ...sized) {
	total := 0.0
	for _, r := range rows {
		total += r.h
	}
	if w.used == 0 || w.used+total < contentHeight || total >= contentHeight {
		w.add(rows...)
		return
	}
	w.newPage(rows...)
}

// newPage fuerza un salto y coloca rows al inicio de la nueva página.
func (w *writer) newPage(rows ...sized) {
	p := page.New()
	w.used = 0
	w.pages++
	for _, r := range rows {
		p.Add(r.row)
		w.used += r.h
	}
	w.m.AddPages(p)
}

func (w *writer) node(n layout.Node) error {
	switch v := n.(type) {
	case *layout.Header:
		return w.header(v)
	case *layout.Image:
		return w.letterhead(v)
	case *layout.CustomerBlock:
		w.customer(v)
	case *layout.SectionHeader:
		w.add(sized{
			row: w.styledRow(v.Style.RowHeight, v.Style, col.New(layout.GridSize).Add(w.textComp(v.Text, v.Style))),
			h:   v.Style.RowHeight,
		})
	case *layout.Table:
		w.table(v)
	case *layout.TextBlock:
		w.textBlock(v.Title, v.Lines, v.TitleStyle, v.Style)
	case *layout.Footer:
		w.textBlock(v.Title, v.Lines, v.TitleStyle, v.Style)
	case *layout.SignatureBlock:
		w.signatures(v)
	case *layout.Spacer:
		if v.Height > 0 {
			w.add(sized{row: row.New(v.Height), h: v.Height})
		}
	case *layout.Document:
		return &domain.InternalError{Where: "pdf.Encode", Detail: "documento anidado"}
	default:
		return &domain.InternalError{Where: "pdf.Encode", Detail: fmt.Sprintf("nodo no soportado %T", n)}
	}
	return nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func (w *writer) header(h *layout.Header) error {
	var rows []sized
	if h.Logo != nil {
		img, err := decodeRaster(h.Logo.Data)
		if err != nil {
			return &domain.RenderError{Op: "image", Err: fmt.Errorf("logo: %w", err)}
		}
		rows = append(rows, sized{
			row: row.New(headerLogoMM).Add(col.New(layout.GridSize).Add(
				image.NewFromBytes(img.data, img.ext, props.Rect{Percent: 100, Center: true}),
			)),
			h: headerLogoMM,
		})
	}
	rows = append(rows, sized{
		row: row.New(h.TitleStyle.RowHeight).Add(col.New(layout.GridSize).Add(w.textComp(h.Title, h.TitleStyle))),
		h:   h.TitleStyle.RowHeight,
	})
	if h.Subtitle != "" {
		rows = append(rows, sized{
			row: row.New(h.SubtitleStyle.RowHeight).Add(col.New(layout.GridSize).Add(w.textComp(h.Subtitle, h.SubtitleStyle))),
			h:   h.SubtitleStyle.RowHeight,
		})
	}
	rows = append(rows, sized{
		row: line.NewRow(2, props.Line{Color: toColor(layout.ColorRule), Thickness: 0.4}),
		h:   2,
	})
	w.add(rows...)
	return nil
}

// letterhead imagen a todo el ancho útil; el alto sale de la proporción de la imagen.
func (w *writer) letterhead(im *layout.Image) error {
	img, err := decodeRaster(im.Data)
	if err != nil {
		return &domain.RenderError{Op: "letterhead", Err: err}
	}
	h := contentWidth * img.aspect()
	if h > contentHeight/2 {
		h = contentHeight / 2
	}
	w.add(sized{
		row: row.New(h).Add(col.New(layout.GridSize).Add(
			image.NewFromBytes(img.data, img.ext, props.Rect{Percent: 100, Center: true}),
		)),
		h: h,
	})
	return nil
}

func (w *writer) customer(cb *layout.CustomerBlock) {
	rows := make([]sized, 0, len(cb.Lines))
	for _, fields := range cb.Lines {
		h := cb.Style.RowHeight
		cols := make([]core.Col, 0, 2*len(fields))
		used := 0
		for _, f := range fields {
			valueWidth := f.Width - f.LabelWidth
			cols = append(cols,
				col.New(f.LabelWidth).Add(w.textComp(f.Label, f.LabelStyle)),
				col.New(valueWidth).Add(w.textComp(f.Value, f.ValueStyle)),
			)
			h = math.Max(h, w.fitHeight(f.Value, valueWidth, f.ValueStyle))
			used += f.Width
		}
		if used < layout.GridSize {
			cols = append(cols, col.New(layout.GridSize-used))
		}
		rows = append(rows, sized{row: w.styledRow(h, cb.Style, cols...), h: h})
	}
	w.addTogether(rows...)
}

// table repite la fila de títulos al inicio de cada página que ocupa.
func (w *writer) table(t *layout.Table) {
	head := w.tableHeader(t)
	w.addTogether(head)

	for _, cells := range t.Rows {
		h := t.CellStyle.RowHeight
		cols := make([]core.Col, 0, len(t.Columns))
		for i, c := range t.Columns {
			v := ""
			if i < len(cells) {
				v = cells[i]
			}
			st := layout.ResolveStyle(t.CellStyle, layout.WithAlign(c.Align))
			cols = append(cols, w.styledCol(c.Width, st, w.textComp(v, st)))
			h = math.Max(h, w.fitHeight(v, c.Width, st))
		}
		r := sized{row: row.New(h).Add(cols...), h: h}
		if w.used > 0 && w.used+r.h >= contentHeight {
			w.newPage(w.tableHeader(t), r)
			continue
		}
		w.add(r)
	}

	if t.Total != nil {
		st := t.Total.Style
		r := sized{
			row: row.New(st.RowHeight).Add(
				w.styledCol(t.Total.LabelSpan, st, w.textComp(t.Total.Label, st)),
				w.styledCol(layout.GridSize-t.Total.LabelSpan, st, w.textComp(t.Total.Value, st)),
			),
			h: st.RowHeight,
		}
		if w.used > 0 && w.used+r.h >= contentHeight {
			w.newPage(w.tableHeader(t), r)
			return
		}
		w.add(r)
	}
}

func (w *writer) tableHeader(t *layout.Table) sized {
	cols := make([]core.Col, 0, len(t.Columns))
	for _, c := range t.Columns {
		st := layout.ResolveStyle(t.HeaderStyle, layout.WithAlign(c.Align))
		cols = append(cols, w.styledCol(c.Width, st, w.textComp(c.Title, st)))
	}
	return sized{row: row.New(t.HeaderStyle.RowHeight).Add(cols...), h: t.HeaderStyle.RowHeight}
}

func (w *writer) textBlock(title string, lines []string, titleStyle, style layout.Style) {
	var rows []sized
	if title != "" {
		rows = append(rows, sized{
			row: w.styledRow(titleStyle.RowHeight, titleStyle, col.New(layout.GridSize).Add(w.textComp(title, titleStyle))),
			h:   titleStyle.RowHeight,
		})
	}
	for _, l := range lines {
		h := math.Max(style.RowHeight, w.fitHeight(l, layout.GridSize, style))
		rows = append(rows, sized{
			row: w.styledRow(h, style, col.New(layout.GridSize).Add(w.textComp(l, style))),
			h:   h,
		})
	}
	if len(rows) <= 8 {
		w.addTogether(rows...)
		return
	}
	w.add(rows...)
}

// signatures columnas de igual ancho con línea punteada y leyenda debajo.
func (w *writer) signatures(sb *layout.SignatureBlock) {
	if len(sb.Parties) == 0 {
		return
	}
	width := layout.GridSize / len(sb.Parties)
	dash := props.Line{
		Color:         toColor(sb.LineColor),
		Style:         linestyle.Dashed,
		Thickness:     0.3,
		SizePercent:   85,
		OffsetPercent: 50,
	}

	titles := make([]core.Col, 0, len(sb.Parties))
	lines := 0
	for _, p := range sb.Parties {
		titles = append(titles, col.New(width).Add(w.textComp(p.Title, sb.TitleStyle)))
		lines = max(lines, len(p.Captions))
	}
	rows := []sized{{row: row.New(sb.TitleStyle.RowHeight).Add(titles...), h: sb.TitleStyle.RowHeight}}

	for i := 0; i < lines; i++ {
		cols := make([]core.Col, 0, len(sb.Parties))
		for _, p := range sb.Parties {
			c := col.New(width)
			if i < len(p.Captions) {
				c = c.Add(line.New(dash), w.textComp(p.Captions[i], sb.CaptionStyle))
			}
			cols = append(cols, c)
		}
		rows = append(rows, sized{row: row.New(sb.CaptionStyle.RowHeight).Add(cols...), h: sb.CaptionStyle.RowHeight})
	}
	w.addTogether(rows...)
}

// ── Conversión de estilos ─────────────────────────────────────────────────────

func (w *writer) textComp(s string, st layout.Style) core.Component {
	return text.New(w.enc.text(s), w.textProps(st))
}

func (w *writer) textProps(st layout.Style) props.Text {
	p := props.Text{
		Family: w.enc.opts.Fonts.Family,
		Size:   st.FontSize,
		Align:  toAlign(st.Align),
		Top:    st.PaddingTop,
		Left:   st.PaddingX,
		Right:  st.PaddingX,
		Color:  toColor(st.Color),
		Style:  fontstyle.Normal,
	}
	if st.Bold {
		p.Style = fontstyle.Bold
	}
	return p
}

func (w *writer) styledRow(h float64, st layout.Style, cols ...core.Col) core.Row {
	r := row.New(h).Add(cols...)
	if c := cellProps(st); c != nil {
		r = r.WithStyle(c)
	}
	return r
}

func (w *writer) styledCol(size int, st layout.Style, comps ...core.Component) core.Col {
	c := col.New(size).Add(comps...)
	if cp := cellProps(st); cp != nil {
		c = c.WithStyle(cp)
	}
	return c
}

// fitHeight alto estimado para que s quepa en cols columnas de la grilla.
func (w *writer) fitHeight(s string, cols int, st layout.Style) float64 {
	if s == "" || st.FontSize <= 0 {
		return 0
	}
	avail := contentWidth*float64(cols)/layout.GridSize - 2*st.PaddingX
	glyph := st.FontSize * ptToMM * avgGlyphRatio
	if avail <= glyph {
		return st.RowHeight
	}
	perLine := math.Floor(avail / glyph)
	n := math.Ceil(float64(utf8.RuneCountInString(s)) / perLine)
	lineH := st.FontSize * ptToMM * 1.25
	return st.PaddingTop + n*lineH + 1
}

func (e *Encoder) text(s string) string {
	if e.opts.Fonts.UTF8() {
		return s
	}
	return sanitize1252(s)
}

func cellProps(st layout.Style) *props.Cell {
	if !st.Filled && !st.Bordered {
		return nil
	}
	c := &props.Cell{}
	if st.Filled {
		c.BackgroundColor = toColor(st.Background)
	}
	if st.Bordered {
		c.BorderType = border.Full
		c.BorderColor = toColor(st.BorderColor)
		c.BorderThickness = 0.2
	}
	return c
}

func toColor(c layout.Color) *props.Color {
	return &props.Color{Red: int(c.R), Green: int(c.G), Blue: int(c.B)}
}

func toAlign(a layout.Align) align.Type {
	switch a {
	case layout.AlignCenter:
		return align.Center
	case layout.AlignRight:
		return align.Right
	}
	return align.Left
}
