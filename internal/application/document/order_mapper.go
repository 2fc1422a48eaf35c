package document

import (
	"strings"

	"github.com/jhoicas/docgen-api/internal/domain/entity"
)

// FromOrder arma el documento canónico (sin anotar) a partir de una orden persistida.
// Los valores ya vienen tipados del almacenamiento, así que no hay coerciones.
func FromOrder(order *entity.Order, t entity.DocType, defaults Defaults) *entity.Document {
	doc := &entity.Document{Type: t}
	if order.User != nil {
		doc.Customer = entity.Customer{
			Name:  strings.TrimSpace(order.User.FirstName),
			Email: order.User.Email,
			Phone: order.User.Phone,
		}
	}
	doc.Items = make([]entity.LineItem, 0, len(order.Items))
	for _, it := range order.Items {
		doc.Items = append(doc.Items, entity.LineItem{
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.Price,
		})
	}
	switch t {
	case entity.DocTypeInvoice, entity.DocTypeQuotation:
		p := defaults.Payment
		doc.Payment = &p
	case entity.DocTypeDelivery:
		doc.Shipping = &entity.ShippingDetails{To: order.ShippingAddress}
	}
	return doc
}
