package dto

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

// ErrorResponse cuerpo de error HTTP. Code es estable y lo interpreta el cliente del escáner.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Códigos de error del contrato apply.
const (
	CodeValidation        = "VALIDATION"
	CodeInvalidEAN        = "INVALID_EAN"
	CodeProductNotFound   = "PRODUCT_NOT_FOUND"
	CodeInvalidWarehouse  = "INVALID_WAREHOUSE"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeInvalidBody       = "INVALID_BODY"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeRateLimited       = "RATE_LIMITED"
	CodeInternal          = "INTERNAL"
)
