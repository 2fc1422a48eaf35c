package document

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"golang.org/x/text/unicode/norm"

	"github.com/jhoicas/docgen-api/internal/application/dto"
	"github.com/jhoicas/docgen-api/internal/domain"
	"github.com/jhoicas/docgen-api/internal/domain/entity"
)

// Defaults valores que el builder usa cuando el payload omite un bloque opcional.
type Defaults struct {
	Payment entity.PaymentTerms
}

// Build valida y normaliza el cuerpo crudo del request en un documento canónico.
//
// Política de parseo tolerante: cantidades, precios y montos no numéricos se
// convierten a 0 y cada coerción queda registrada en Document.Warnings. El único
// rechazo duro es el tipo de documento (faltante o desconocido) o un cuerpo que
// no es JSON. No hace I/O: un membrete por URL queda como referencia sin resolver.
func Build(raw []byte, defaults Defaults) (*entity.Document, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errDocTypeRequired
	}
	var in dto.GenerateDocumentRequest
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&in); err != nil {
		return nil, &domain.ValidationError{Reason: "malformed JSON body: " + err.Error()}
	}

	docType, err := parseDocType(in.DocType)
	if err != nil {
		return nil, err
	}

	p := &parser{}
	doc := &entity.Document{Type: docType}

	if in.Customer != nil {
		doc.Customer = entity.Customer{
			Name:  p.text("customer.name", in.Customer.Name),
			Email: p.text("customer.email", in.Customer.Email),
			Phone: p.text("customer.phone", in.Customer.Phone),
		}
	}

	doc.Items = make([]entity.LineItem, 0, len(in.Items))
	for i, it := range in.Items {
		path := fmt.Sprintf("items[%d]", i)
		doc.Items = append(doc.Items, entity.LineItem{
			Name:        p.text(path+".name", it.Name),
			Description: p.text(path+".description", it.Description),
			Quantity:    p.number(path+".quantity", it.Quantity),
			UnitPrice:   p.number(path+".price", it.Price),
			Units:       p.text(path+".units", it.Units),
		})
	}

	switch docType {
	case entity.DocTypeInvoice, entity.DocTypeQuotation:
		doc.Payment = p.payment(in.Payment, defaults.Payment)
	case entity.DocTypeDelivery:
		doc.Shipping = p.shipping(in.Shipping)
	default:
		return nil, &domain.InternalError{Where: "document.Build", Detail: "tipo de documento sin rama: " + docType.String()}
	}

	lh, err := parseLetterhead(p.text("letterhead", in.Letterhead))
	if err != nil {
		return nil, err
	}
	doc.Letterhead = lh
	doc.Warnings = p.warnings
	return doc, nil
}

var errDocTypeRequired = &domain.ValidationError{Field: "docType", Reason: "document type is required", Err: domain.ErrDocTypeRequired}

// parseDocType null, "", false y 0 cuentan como tipo ausente, igual que el formulario.
func parseDocType(v any) (entity.DocType, error) {
	var s string
	switch x := v.(type) {
	case nil:
		return 0, errDocTypeRequired
	case bool:
		if !x {
			return 0, errDocTypeRequired
		}
	case json.Number:
		if f, err := x.Float64(); err == nil && f == 0 {
			return 0, errDocTypeRequired
		}
	case string:
		s = strings.TrimSpace(x)
		if s == "" {
			return 0, errDocTypeRequired
		}
	}
	t, ok := entity.ParseDocType(s)
	if !ok {
		return 0, &domain.ValidationError{Field: "docType", Reason: "unknown document type", Err: domain.ErrUnknownDocType}
	}
	return t, nil
}

// parser acumula las advertencias de coerción de un único Build.
type parser struct {
	warnings []string
}

func (p *parser) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

// text normaliza un valor libre a string (trim + NFC). nil es "".
func (p *parser) text(path string, v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return norm.NFC.String(strings.TrimSpace(t))
	case json.Number:
		return t.String()
	case map[string]any, []any:
		p.warnf("%s: expected text, got %T; using empty value", path, v)
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		p.warnf("%s: expected text, got %T; using empty value", path, v)
		return ""
	}
	p.warnf("%s: coerced %T to text %q", path, v, s)
	return s
}

// number coacciona a decimal. Vacío o no numérico → 0 con advertencia.
func (p *parser) number(path string, v any) decimal.Decimal {
	switch t := v.(type) {
	case nil:
		p.warnf("%s: missing, using 0", path)
		return decimal.Zero
	case json.Number:
		if d, err := decimal.NewFromString(t.String()); err == nil {
			return d
		}
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			p.warnf("%s: empty, using 0", path)
			return decimal.Zero
		}
		if d, err := decimal.NewFromString(s); err == nil {
			return d
		}
		p.warnf("%s: %q is not numeric, using 0", path, t)
		return decimal.Zero
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		p.warnf("%s: %v is not numeric, using 0", path, v)
		return decimal.Zero
	}
	p.warnf("%s: coerced %T to number %v", path, v, f)
	return decimal.NewFromFloat(f)
}

func (p *parser) payment(in *dto.PaymentPayload, def entity.PaymentTerms) *entity.PaymentTerms {
	if in == nil {
		out := def
		return &out
	}
	pick := func(path string, v any, fallback string) string {
		if v == nil {
			return fallback
		}
		return p.multiline(path, v)
	}
	return &entity.PaymentTerms{
		Till:  pick("payment.till", in.Till, def.Till),
		Bank:  pick("payment.bank", in.Bank, def.Bank),
		Terms: pick("payment.terms", in.Terms, def.Terms),
	}
}

// multiline como text pero conserva los saltos de línea internos (\r\n → \n).
func (p *parser) multiline(path string, v any) string {
	s := p.text(path, v)
	return strings.ReplaceAll(s, "\r\n", "\n")
}

func (p *parser) shipping(in *dto.ShippingPayload) *entity.ShippingDetails {
	if in == nil {
		return &entity.ShippingDetails{}
	}
	out := &entity.ShippingDetails{
		From:       p.multiline("shipping.from", in.From),
		To:         p.multiline("shipping.to", in.To),
		ParcelCode: p.text("shipping.parcelCode", in.ParcelCode),
		Weight:     p.text("shipping.weight", in.Weight),
		Size:       p.text("shipping.size", in.Size),
	}
	if in.Amount != nil {
		out.Amount = p.number("shipping.amount", in.Amount)
	}
	return out
}

// parseLetterhead acepta data URI (base64 o percent-encoded) o URL http(s).
func parseLetterhead(s string) (*entity.Letterhead, error) {
	if s == "" {
		return nil, nil
	}
	lower := strings.ToLower(s)
	switch {
	case strings.HasPrefix(lower, "data:"):
		mime, data, err := decodeDataURI(s)
		if err != nil {
			return nil, &domain.ValidationError{Field: "letterhead", Reason: "invalid data URI: " + err.Error()}
		}
		if len(data) == 0 {
			return nil, nil
		}
		return &entity.Letterhead{Source: "data:" + mime, MIMEType: mime, Data: data}, nil
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		u, err := url.Parse(s)
		if err != nil || u.Host == "" {
			return nil, &domain.ValidationError{Field: "letterhead", Reason: "invalid letterhead URL"}
		}
		return &entity.Letterhead{Source: u.String()}, nil
	}
	return nil, &domain.ValidationError{Field: "letterhead", Reason: "letterhead must be a data URI or an http(s) URL"}
}

// decodeDataURI data:[<mime>][;base64],<payload>
func decodeDataURI(s string) (mime string, data []byte, err error) {
	comma := strings.IndexByte(s, ',')
	if comma < 0 {
		return "", nil, fmt.Errorf("missing ','")
	}
	meta, payload := s[len("data:"):comma], s[comma+1:]
	isBase64 := false
	parts := strings.Split(meta, ";")
	mime = strings.ToLower(strings.TrimSpace(parts[0]))
	for _, param := range parts[1:] {
		if strings.EqualFold(strings.TrimSpace(param), "base64") {
			isBase64 = true
		}
	}
	if !isBase64 {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return "", nil, err
		}
		return mime, []byte(unescaped), nil
	}
	payload = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
			return -1
		}
		return r
	}, payload)
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
	}
	if err != nil {
		return "", nil, err
	}
	return mime, data, nil
}
