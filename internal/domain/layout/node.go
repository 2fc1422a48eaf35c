// Package layout define el árbol de maquetación independiente del formato.
//
// El compositor traduce el documento canónico a este árbol y el encoder PDF lo
// recorre. Los nodos son puramente estructurales: no conocen precios, tipos de
// documento ni reglas de negocio, solo texto, anchos y estilos ya resueltos.
//
//	Document
//	 ├─ Header | Image (membrete, excluyentes)
//	 ├─ CustomerBlock
//	 ├─ SectionHeader
//	 ├─ TextBlock (envío, opcional)
//	 ├─ Table{Columns, Rows, Total}
//	 ├─ Footer
//	 ├─ TextBlock (términos)
//	 └─ SignatureBlock
package layout

// GridSize número de columnas de la grilla. Los anchos de columna son porcentajes.
const GridSize = 100

// Node nodo del árbol. Conjunto cerrado: solo los tipos de este paquete lo implementan.
type Node interface {
	isNode()
}

// Document raíz del árbol: un único flujo de página, aún sin paginar.
type Document struct {
	Title    string
	Author   string
	Children []Node
}

// Header encabezado textual por defecto (marca). Logo es opcional.
type Header struct {
	Title         string
	Subtitle      string
	Logo          *Image
	TitleStyle    Style
	SubtitleStyle Style
}

// Image imagen a todo el ancho útil de la página conservando la proporción.
type Image struct {
	Source   string // referencia original, solo para diagnóstico
	MIMEType string
	Data     []byte
	Style    Style
}

// Field par etiqueta/valor dentro de una línea del bloque de cliente.
// Width es la porción de la grilla que ocupa el par completo.
type Field struct {
	Label      string
	Value      string
	Width      int
	LabelWidth int
	LabelStyle Style
	ValueStyle Style
}

// CustomerBlock datos del cliente, una fila por línea.
type CustomerBlock struct {
	Lines [][]Field
	Style Style
}

// SectionHeader franja con el código del documento.
type SectionHeader struct {
	Text  string
	Style Style
}

// Column columna de tabla; Width en porcentaje de GridSize.
type Column struct {
	Title string
	Width int
	Align Align
}

// TotalRow fila de total al pie de la tabla. LabelSpan columnas de grilla para la etiqueta.
type TotalRow struct {
	Label     string
	Value     string
	LabelSpan int
	Style     Style
}

// Table tabla de líneas. El encoder repite la fila de títulos en cada página.
type Table struct {
	Columns     []Column
	Rows        [][]string
	Total       *TotalRow
	HeaderStyle Style
	CellStyle   Style
}

// TextBlock bloque de texto con título opcional; cada línea es una fila.
type TextBlock struct {
	Title      string
	Lines      []string
	TitleStyle Style
	Style      Style
}

// Footer bloque de pie (datos de pago) con fondo.
type Footer struct {
	Title      string
	Lines      []string
	TitleStyle Style
	Style      Style
}

// SignatureParty una de las columnas de firma.
type SignatureParty struct {
	Title    string
	Captions []string // texto bajo cada línea punteada
}

// SignatureBlock firmas en columnas de igual ancho.
type SignatureBlock struct {
	Parties      []SignatureParty
	TitleStyle   Style
	CaptionStyle Style
	LineColor    Color
}

// Spacer espacio vertical en mm.
type Spacer struct {
	Height float64
}

func (*Document) isNode()       {}
func (*Header) isNode()         {}
func (*Image) isNode()          {}
func (*CustomerBlock) isNode()  {}
func (*SectionHeader) isNode()  {}
func (*Table) isNode()          {}
func (*TextBlock) isNode()      {}
func (*Footer) isNode()         {}
func (*SignatureBlock) isNode() {}
func (*Spacer) isNode()         {}

// Walk recorre el árbol en profundidad. Si fn retorna false no desciende en ese nodo.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	switch v := n.(type) {
	case *Document:
		for _, c := range v.Children {
			Walk(c, fn)
		}
	case *Header:
		if v.Logo != nil {
			Walk(v.Logo, fn)
		}
	}
}

// Texts devuelve todo el texto visible del árbol en orden de lectura.
func Texts(n Node) []string {
	var out []string
	add := func(s ...string) {
		for _, t := range s {
			if t != "" {
				out = append(out, t)
			}
		}
	}
	Walk(n, func(n Node) bool {
		switch v := n.(type) {
		case *Header:
			add(v.Title, v.Subtitle)
		case *CustomerBlock:
			for _, line := range v.Lines {
				for _, f := range line {
					add(f.Label, f.Value)
				}
			}
		case *SectionHeader:
			add(v.Text)
		case *Table:
			for _, c := range v.Columns {
				add(c.Title)
			}
			for _, r := range v.Rows {
				add(r...)
			}
			if v.Total != nil {
				add(v.Total.Label, v.Total.Value)
			}
		case *TextBlock:
			add(v.Title)
			add(v.Lines...)
		case *Footer:
			add(v.Title)
			add(v.Lines...)
		case *SignatureBlock:
			for _, p := range v.Parties {
				add(p.Title)
				add(p.Captions...)
			}
		}
		return true
	})
	return out
}
