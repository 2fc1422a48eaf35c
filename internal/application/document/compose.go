package document

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jhoicas/docgen-api/internal/domain"
	"github.com/jhoicas/docgen-api/internal/domain/entity"
	"github.com/jhoicas/docgen-api/internal/domain/layout"
)

// Brand encabezado por defecto cuando el request no trae membrete.
type Brand struct {
	Name     string
	Subtitle string
	LogoMIME string
	Logo     []byte // opcional; cargado una vez al arrancar y solo de lectura
}

// Anchos de columna en % de la grilla. Contrato de alineación de los impresos.
var (
	invoiceColumns = []layout.Column{
		{Title: "ITEM", Width: 45, Align: layout.AlignLeft},
		{Title: "QUANTITY", Width: 15, Align: layout.AlignLeft},
		{Title: "EACH", Width: 20, Align: layout.AlignRight},
		{Title: "TOTAL", Width: 20, Align: layout.AlignRight},
	}
	deliveryColumns = []layout.Column{
		{Title: "No.", Width: 10, Align: layout.AlignLeft},
		{Title: "ITEM", Width: 30, Align: layout.AlignLeft},
		{Title: "DESCRIPTION", Width: 35, Align: layout.AlignLeft},
		{Title: "UNITS", Width: 10, Align: layout.AlignLeft},
		{Title: "QUANTITY", Width: 15, Align: layout.AlignLeft},
	}
)

// Composer traduce el documento canónico al árbol de maquetación.
type Composer struct {
	brand Brand
	theme layout.Theme
}

// NewComposer construye el compositor con la marca por defecto.
func NewComposer(brand Brand) *Composer {
	return &Composer{brand: brand, theme: layout.DefaultTheme()}
}

// Compose arma el árbol según el tipo de documento. No pagina: eso lo hace el encoder.
func (c *Composer) Compose(doc *entity.Document) (*layout.Document, error) {
	if doc == nil {
		return nil, &domain.InternalError{Where: "document.Compose", Detail: "documento nil"}
	}
	heading, err := c.heading(doc.Letterhead)
	if err != nil {
		return nil, err
	}

	root := &layout.Document{
		Title:  strings.ToUpper(doc.Type.String()) + " " + doc.Code,
		Author: c.brand.Name,
	}
	root.Children = append(root.Children, heading, &layout.Spacer{Height: 3}, c.customer(doc.Customer), &layout.Spacer{Height: 4})

	switch doc.Type {
	case entity.DocTypeInvoice, entity.DocTypeQuotation:
		root.Children = append(root.Children,
			c.section(strings.ToUpper(doc.Type.String())+" CODE : "+doc.Code),
			c.itemsTable(doc),
		)
		if doc.Payment != nil {
			if f := c.paymentFooter(doc.Payment); f != nil {
				root.Children = append(root.Children, &layout.Spacer{Height: 6}, f)
			}
			if t := c.terms(doc.Payment.Terms); t != nil {
				root.Children = append(root.Children, &layout.Spacer{Height: 6}, t)
			}
		}
	case entity.DocTypeDelivery:
		root.Children = append(root.Children, c.section("DELIVERY CODE : "+doc.Code))
		if doc.Shipping != nil && !doc.Shipping.IsZero() {
			root.Children = append(root.Children, c.shipping(doc.Shipping), &layout.Spacer{Height: 3})
		}
		root.Children = append(root.Children,
			c.deliveryTable(doc),
			&layout.Spacer{Height: 12},
			c.signatures(),
		)
	default:
		return nil, &domain.InternalError{
			Where:  "document.Compose",
			Detail: fmt.Sprintf("tipo de documento %d sin plantilla", doc.Type),
		}
	}
	return root, nil
}

// heading membrete y encabezado por defecto son excluyentes.
func (c *Composer) heading(lh *entity.Letterhead) (layout.Node, error) {
	if lh != nil {
		if len(lh.Data) == 0 {
			return nil, &domain.InternalError{Where: "document.Compose", Detail: "membrete sin resolver: " + lh.Source}
		}
		return &layout.Image{Source: lh.Source, MIMEType: lh.MIMEType, Data: lh.Data}, nil
	}
	h := &layout.Header{
		Title:         c.brand.Name,
		Subtitle:      c.brand.Subtitle,
		TitleStyle:    c.theme.HeaderTitle,
		SubtitleStyle: c.theme.HeaderSubtitle,
	}
	if len(c.brand.Logo) > 0 {
		h.Logo = &layout.Image{Source: "brand-logo", MIMEType: c.brand.LogoMIME, Data: c.brand.Logo}
	}
	return h, nil
}

func (c *Composer) customer(cu entity.Customer) *layout.CustomerBlock {
	label, value := c.theme.CustomerLabel, c.theme.CustomerValue
	return &layout.CustomerBlock{
		Style: c.theme.CustomerBlock,
		Lines: [][]layout.Field{
			{
				{Label: "CUSTOMER NAME:", Value: cu.Name, Width: 100, LabelWidth: 24, LabelStyle: label, ValueStyle: value},
			},
			{
				{Label: "Email:", Value: cu.Email, Width: 55, LabelWidth: 10, LabelStyle: label, ValueStyle: value},
				{Label: "Phone Nos:", Value: cu.Phone, Width: 45, LabelWidth: 17, LabelStyle: label, ValueStyle: value},
			},
		},
	}
}

func (c *Composer) section(text string) *layout.SectionHeader {
	return &layout.SectionHeader{Text: text, Style: c.theme.SectionHeader}
}

// itemsTable factura/cotización: nunca muestra la descripción.
func (c *Composer) itemsTable(doc *entity.Document) *layout.Table {
	rows := make([][]string, 0, len(doc.Items))
	for _, it := range doc.Items {
		rows = append(rows, []string{
			it.Name,
			it.Quantity.String(),
			it.UnitPrice.StringFixed(2),
			it.LineTotal.StringFixed(2),
		})
	}
	return &layout.Table{
		Columns:     invoiceColumns,
		Rows:        rows,
		HeaderStyle: c.theme.TableHeader,
		CellStyle:   c.theme.TableCell,
		Total: &layout.TotalRow{
			Label:     "TOTAL",
			Value:     doc.GrandTotal.StringFixed(2),
			LabelSpan: 80,
			Style:     c.theme.TotalRow,
		},
	}
}

// deliveryTable nota de entrega: la descripción cae al nombre cuando falta.
func (c *Composer) deliveryTable(doc *entity.Document) *layout.Table {
	rows := make([][]string, 0, len(doc.Items))
	for i, it := range doc.Items {
		desc := it.Description
		if desc == "" {
			desc = it.Name
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			it.Name,
			desc,
			it.Units,
			it.Quantity.String(),
		})
	}
	return &layout.Table{
		Columns:     deliveryColumns,
		Rows:        rows,
		HeaderStyle: c.theme.TableHeader,
		CellStyle:   c.theme.TableCell,
	}
}

func (c *Composer) paymentFooter(p *entity.PaymentTerms) *layout.Footer {
	lines := append(splitLines(p.Till), splitLines(p.Bank)...)
	if len(lines) == 0 {
		return nil
	}
	return &layout.Footer{
		Title:      "PAYMENT DETAILS",
		Lines:      lines,
		TitleStyle: c.theme.FooterTitle,
		Style:      c.theme.FooterText,
	}
}

// terms el formulario suele enviar "TERMS:" como primera línea; no se duplica el título.
func (c *Composer) terms(text string) *layout.TextBlock {
	lines := splitLines(text)
	if len(lines) > 0 && strings.EqualFold(strings.TrimSpace(lines[0]), "TERMS:") {
		lines = lines[1:]
	}
	if len(lines) == 0 {
		return nil
	}
	return &layout.TextBlock{
		Title:      "TERMS:",
		Lines:      lines,
		TitleStyle: c.theme.TermsTitle,
		Style:      c.theme.TermsText,
	}
}

func (c *Composer) shipping(s *entity.ShippingDetails) *layout.TextBlock {
	var lines []string
	add := func(label, v string) {
		for _, l := range splitLines(v) {
			if !strings.HasPrefix(strings.ToUpper(l), label+":") {
				l = label + ": " + l
			}
			lines = append(lines, l)
		}
	}
	add("FROM", s.From)
	add("TO", s.To)
	add("PARCEL CODE", s.ParcelCode)
	add("WEIGHT", s.Weight)
	add("SIZE", s.Size)
	if !s.Amount.IsZero() {
		add("AMOUNT", s.Amount.StringFixed(2))
	}
	return &layout.TextBlock{
		Title:      "SHIPPING DETAILS",
		Lines:      lines,
		TitleStyle: c.theme.SignatureTitle,
		Style:      c.theme.Body,
	}
}

func (c *Composer) signatures() *layout.SignatureBlock {
	return &layout.SignatureBlock{
		Parties: []layout.SignatureParty{
			{Title: "DELIVERED BY", Captions: []string{"Staff / Agent Name, ME No.", "Date, Signature"}},
			{Title: "RECEIVED BY", Captions: []string{"Name, Position", "Staff No./Code, Date"}},
		},
		TitleStyle:   c.theme.SignatureTitle,
		CaptionStyle: c.theme.SignatureText,
		LineColor:    layout.ColorText,
	}
}

// splitLines separa por saltos de línea y descarta líneas vacías.
func splitLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
