package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// DocType tipo de documento comercial. Conjunto cerrado: invoice, quotation, delivery.
// Cualquier switch sobre DocType debe cubrir los tres casos y tratar el default como defecto.
type DocType int

const (
	DocTypeInvoice DocType = iota + 1
	DocTypeQuotation
	DocTypeDelivery
)

// ParseDocType convierte el valor del payload. ok=false si no es uno de los tres tipos.
func ParseDocType(s string) (DocType, bool) {
	switch s {
	case "invoice":
		return DocTypeInvoice, true
	case "quotation":
		return DocTypeQuotation, true
	case "delivery":
		return DocTypeDelivery, true
	}
	return 0, false
}

// String devuelve el nombre usado en el wire y en el nombre de archivo.
func (t DocType) String() string {
	switch t {
	case DocTypeInvoice:
		return "invoice"
	case DocTypeQuotation:
		return "quotation"
	case DocTypeDelivery:
		return "delivery"
	}
	return "unknown"
}

// Tag sufijo del código de documento (MMM123456INV).
func (t DocType) Tag() string {
	switch t {
	case DocTypeInvoice:
		return "INV"
	case DocTypeQuotation:
		return "QUO"
	case DocTypeDelivery:
		return "DELV"
	}
	return ""
}

// Valid indica si t es una de las variantes conocidas.
func (t DocType) Valid() bool {
	return t >= DocTypeInvoice && t <= DocTypeDelivery
}

// Customer datos libres del cliente; vacío se imprime vacío.
type Customer struct {
	Name  string
	Email string
	Phone string
}

// LineItem línea del documento. LineTotal la calcula el motor de campos, nunca el wire.
type LineItem struct {
	Name        string
	Description string
	Quantity    decimal.Decimal `validate:"gte=0" path:"quantity"`
	UnitPrice   decimal.Decimal `validate:"gte=0" path:"price"`
	Units       string
	LineTotal   decimal.Decimal
}

// ShippingDetails solo se usa en notas de entrega.
type ShippingDetails struct {
	From       string
	To         string
	ParcelCode string
	Weight     string
	Size       string
	Amount     decimal.Decimal `validate:"gte=0" path:"amount"`
}

// IsZero true si ningún campo trae información.
func (s ShippingDetails) IsZero() bool {
	return s.From == "" && s.To == "" && s.ParcelCode == "" &&
		s.Weight == "" && s.Size == "" && s.Amount.IsZero()
}

// PaymentTerms bloques de texto libre del pie (factura/cotización).
type PaymentTerms struct {
	Till  string
	Bank  string
	Terms string
}

// Letterhead imagen de membrete del cliente. Reemplaza el encabezado por defecto.
// Source es la referencia original (data URI o URL); Data queda vacío hasta resolver una URL.
type Letterhead struct {
	Source   string
	MIMEType string
	Data     []byte
}

// IsRemote true cuando el membrete es una URL aún no descargada.
func (l *Letterhead) IsRemote() bool {
	return l != nil && len(l.Data) == 0 && l.Source != ""
}

// Document documento canónico: validado, tipado y con campos derivados.
// Se construye por request y se descarta al terminar de renderizar.
type Document struct {
	Type       DocType
	Customer   Customer
	Items      []LineItem       `validate:"dive" path:"items"`
	Shipping   *ShippingDetails `path:"shipping"`
	Payment    *PaymentTerms
	Letterhead *Letterhead

	// Derivados (Annotate)
	Code       string
	GrandTotal decimal.Decimal
	IssuedAt   time.Time

	// Coerciones aplicadas por el builder (política de parseo tolerante).
	Warnings []string
}

// Clone copia profunda; los pasos del pipeline devuelven valores nuevos.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.Items = append([]LineItem(nil), d.Items...)
	out.Warnings = append([]string(nil), d.Warnings...)
	if d.Shipping != nil {
		s := *d.Shipping
		out.Shipping = &s
	}
	if d.Payment != nil {
		p := *d.Payment
		out.Payment = &p
	}
	if d.Letterhead != nil {
		l := *d.Letterhead
		l.Data = append([]byte(nil), d.Letterhead.Data...)
		out.Letterhead = &l
	}
	return &out
}
