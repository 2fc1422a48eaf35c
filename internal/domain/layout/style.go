package layout

// Align alineación horizontal del texto.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Color RGB.
type Color struct {
	R, G, B uint8
}

// Style registro de estilo final de un nodo. Es un valor: se resuelve una vez al
// construir el árbol y el encoder solo lo lee.
type Style struct {
	FontSize    float64 // puntos
	Bold        bool
	Align       Align
	Color       Color
	Background  Color
	Filled      bool // Background solo aplica si Filled
	Bordered    bool
	BorderColor Color
	RowHeight   float64 // alto de fila en mm
	PaddingTop  float64 // mm desde el borde superior de la fila
	PaddingX    float64 // mm a izquierda/derecha
}

// Override modifica una copia del estilo base.
type Override func(*Style)

// ResolveStyle compone base con overrides en orden y devuelve el estilo final.
// base no se modifica.
func ResolveStyle(base Style, overrides ...Override) Style {
	out := base
	for _, o := range overrides {
		if o != nil {
			o(&out)
		}
	}
	return out
}

func WithSize(pt float64) Override      { return func(s *Style) { s.FontSize = pt } }
func WithBold() Override                { return func(s *Style) { s.Bold = true } }
func WithAlign(a Align) Override        { return func(s *Style) { s.Align = a } }
func WithColor(c Color) Override        { return func(s *Style) { s.Color = c } }
func WithRowHeight(mm float64) Override { return func(s *Style) { s.RowHeight = mm } }
func WithPaddingTop(mm float64) Override {
	return func(s *Style) { s.PaddingTop = mm }
}

// WithBackground activa el relleno con el color indicado.
func WithBackground(c Color) Override {
	return func(s *Style) {
		s.Background = c
		s.Filled = true
	}
}

// WithBorder activa el borde completo de las celdas.
func WithBorder(c Color) Override {
	return func(s *Style) {
		s.BorderColor = c
		s.Bordered = true
	}
}

// Paleta tomada de la hoja de estilos original de las plantillas.
var (
	ColorText      = Color{R: 51, G: 51, B: 51}    // #333
	ColorMuted     = Color{R: 85, G: 85, B: 85}    // #555
	ColorCaption   = Color{R: 68, G: 68, B: 68}    // #444
	ColorBand      = Color{R: 229, G: 231, B: 235} // #E5E7EB
	ColorTableHead = Color{R: 243, G: 244, B: 246} // #F3F4F6
	ColorGrid      = Color{R: 191, G: 191, B: 191} // #bfbfbf
	ColorRule      = Color{R: 204, G: 204, B: 204} // #ccc
)

// Theme estilos base de las plantillas comerciales.
type Theme struct {
	Body           Style
	HeaderTitle    Style
	HeaderSubtitle Style
	CustomerLabel  Style
	CustomerValue  Style
	CustomerBlock  Style
	SectionHeader  Style
	TableHeader    Style
	TableCell      Style
	TotalRow       Style
	FooterTitle    Style
	FooterText     Style
	TermsTitle     Style
	TermsText      Style
	SignatureTitle Style
	SignatureText  Style
}

// DefaultTheme devuelve una copia nueva del tema por defecto.
func DefaultTheme() Theme {
	body := Style{FontSize: 10, Color: ColorText, RowHeight: 5.5, PaddingTop: 1}
	cell := ResolveStyle(body, WithSize(9), WithRowHeight(7), WithPaddingTop(1.8),
		WithBorder(ColorGrid), func(s *Style) { s.PaddingX = 1.5 })

	return Theme{
		Body:           body,
		HeaderTitle:    ResolveStyle(body, WithSize(24), WithBold(), WithAlign(AlignCenter), WithRowHeight(11), WithPaddingTop(0)),
		HeaderSubtitle: ResolveStyle(body, WithSize(9), WithColor(ColorMuted), WithAlign(AlignCenter), WithRowHeight(8)),
		CustomerLabel:  ResolveStyle(body, WithBold()),
		CustomerValue:  body,
		CustomerBlock:  ResolveStyle(body, WithBorder(ColorRule), WithRowHeight(6)),
		SectionHeader:  ResolveStyle(body, WithSize(11), WithBold(), WithAlign(AlignCenter), WithBackground(ColorBand), WithRowHeight(8), WithPaddingTop(2)),
		TableHeader:    ResolveStyle(cell, WithBold(), WithBackground(ColorTableHead)),
		TableCell:      cell,
		TotalRow:       ResolveStyle(cell, WithSize(10), WithBold(), WithAlign(AlignRight)),
		FooterTitle:    ResolveStyle(body, WithSize(9), WithBold(), WithBackground(ColorBand), WithPaddingTop(1.5)),
		FooterText:     ResolveStyle(body, WithSize(9), WithBackground(ColorBand), WithRowHeight(5)),
		TermsTitle:     ResolveStyle(body, WithSize(8), WithBold(), WithColor(ColorMuted), WithRowHeight(5)),
		TermsText:      ResolveStyle(body, WithSize(8), WithColor(ColorMuted), WithRowHeight(4.5)),
		SignatureTitle: ResolveStyle(body, WithSize(9), WithBold(), WithRowHeight(6)),
		SignatureText:  ResolveStyle(body, WithSize(8), WithColor(ColorCaption), WithRowHeight(12), WithPaddingTop(8)),
	}
}
