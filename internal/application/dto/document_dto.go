package dto

// GenerateDocumentRequest cuerpo de POST /api/documents/generate tal como llega del formulario.
// Las hojas son `any` a propósito: el builder decide cómo coaccionar cada valor y
// ningún tipo del wire pasa más allá de document.Build.
type GenerateDocumentRequest struct {
	DocType    any              `json:"docType" example:"invoice"`
	Customer   *CustomerPayload `json:"customer"`
	Items      []ItemPayload    `json:"items"`
	Shipping   *ShippingPayload `json:"shipping,omitempty"`
	Letterhead any              `json:"letterhead,omitempty" example:"data:image/png;base64,iVBORw0..."`
	Payment    *PaymentPayload  `json:"payment,omitempty"`
}

// CustomerPayload datos del cliente.
type CustomerPayload struct {
	Name  any `json:"name" example:"Jane Doe"`
	Email any `json:"email" example:"jane@example.com"`
	Phone any `json:"phone" example:"+254 700 000000"`
}

// ItemPayload línea; quantity y price pueden venir como número o como texto.
type ItemPayload struct {
	Name        any `json:"name" example:"Shoe"`
	Description any `json:"description,omitempty"`
	Quantity    any `json:"quantity" example:"2"`
	Price       any `json:"price" example:"500"`
	Units       any `json:"units,omitempty" example:"Pair"`
}

// ShippingPayload datos de envío (solo notas de entrega).
type ShippingPayload struct {
	From       any `json:"from"`
	To         any `json:"to"`
	ParcelCode any `json:"parcelCode"`
	Weight     any `json:"weight"`
	Size       any `json:"size"`
	Amount     any `json:"amount"`
}

// PaymentPayload bloques de texto libre del pie.
type PaymentPayload struct {
	Till  any `json:"till"`
	Bank  any `json:"bank"`
	Terms any `json:"terms"`
}
