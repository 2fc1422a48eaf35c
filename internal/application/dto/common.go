package dto

// ErrorResponse cuerpo de error HTTP. El formulario web lee `message`.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
