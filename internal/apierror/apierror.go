// Package apierror holds the JSON error envelopes. Every 4xx/5xx body is one
// of these; driver errors and stack traces never reach a client.
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
// Code is the taxonomy code (VALIDATION, CONFLICT, ...); Details carries
// structured context such as the product that ran out of stock.
type APIError struct {
	Code    string         `json:"code"`
	Detail  string         `json:"detail"`
	Details map[string]any `json:"details,omitempty"`
}

func New(code, msg string) *APIError {
	return &APIError{Code: code, Detail: msg}
}

func WithDetails(code, msg string, details map[string]any) *APIError {
	return &APIError{Code: code, Detail: msg, Details: details}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Code   string            `json:"code"`
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Code: "VALIDATION", Detail: "Error de validacion", Fields: fields}
}

// Codes used outside the domain taxonomy.
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeRateLimited  = "RATE_LIMITED"
	CodeInternal     = "INTERNAL"
)
