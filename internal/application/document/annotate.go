package document

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/docgen-api/internal/domain"
	"github.com/jhoicas/docgen-api/internal/domain/entity"
)

// CodePrefix prefijo fijo del código impreso en los documentos.
const CodePrefix = "MMM"

// validate es seguro para uso concurrente; se construye una sola vez.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Los errores nombran la clave del payload (tag `path`), no el campo Go.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name, _, _ := strings.Cut(f.Tag.Get("path"), ","); name != "" {
			return name
		}
		r := []rune(f.Name)
		r[0] = unicode.ToLower(r[0])
		return string(r)
	})
	// decimal.Decimal se valida por su valor numérico (gte=0, etc.).
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// Round2 redondeo a 2 decimales, mitad hacia arriba (semántica monetaria).
// Los montos llegan validados como no negativos, así que "lejos de cero" equivale a "hacia arriba".
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// DocumentCode arma prefijo + últimos 6 dígitos del reloj en ms + etiqueta del tipo.
// Único en la práctica, no garantizado: dos renders en el mismo milisegundo coinciden.
func DocumentCode(t entity.DocType, now time.Time) string {
	return fmt.Sprintf("%s%06d%s", CodePrefix, now.UnixMilli()%1_000_000, t.Tag())
}

// Annotate calcula los campos derivados sobre una copia del documento:
// total por línea, total general y código. doc no se modifica.
//
// El total general es la suma de los totales de línea ya redondeados, nunca el
// redondeo de la suma de productos crudos.
func Annotate(doc *entity.Document, now time.Time) (*entity.Document, error) {
	if doc == nil {
		return nil, &domain.InternalError{Where: "document.Annotate", Detail: "documento nil"}
	}
	if !doc.Type.Valid() {
		return nil, &domain.InternalError{Where: "document.Annotate", Detail: fmt.Sprintf("tipo de documento inválido: %d", doc.Type)}
	}
	if err := validate.Struct(doc); err != nil {
		return nil, toValidationError(err)
	}

	out := doc.Clone()
	total := decimal.New(0, -2) // misma escala que los totales de línea, también sin ítems
	for i := range out.Items {
		out.Items[i].LineTotal = Round2(out.Items[i].Quantity.Mul(out.Items[i].UnitPrice))
		total = total.Add(out.Items[i].LineTotal)
	}
	out.GrandTotal = total
	out.IssuedAt = now
	out.Code = DocumentCode(out.Type, now)
	return out, nil
}

// toValidationError traduce el primer error del validador a la taxonomía de dominio.
func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &domain.InternalError{Where: "document.Annotate", Detail: err.Error()}
	}
	fe := verrs[0]
	reason := fmt.Sprintf("failed %q", fe.Tag())
	if fe.Tag() == "gte" {
		reason = "must not be negative"
	}
	return &domain.ValidationError{Field: fieldPath(fe.Namespace()), Reason: reason}
}

// fieldPath "Document.items[0].price" → "items[0].price".
func fieldPath(ns string) string {
	_, rest, found := strings.Cut(ns, ".")
	if !found {
		return ns
	}
	return rest
}
