package dto

import (
	"net/http"

	"foodgram/internal/apperr"
)

// Page is the paginated envelope shared by every list endpoint.
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// ErrorResponse is what every failed request renders.
type ErrorResponse struct {
	Error      string             `json:"error"`
	Code       string             `json:"code,omitempty"`
	Violations []apperr.Violation `json:"violations,omitempty"`
}

// NewErrorResponse renders err with its taxonomy status. Errors outside the
// taxonomy become a generic 500 so internals never leak.
func NewErrorResponse(err error) (int, ErrorResponse) {
	e, ok := apperr.As(err)
	if !ok || e.Kind == apperr.KindInternal {
		return http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "internal"}
	}
	return e.HTTPStatus(), ErrorResponse{Error: e.Message, Code: e.Code, Violations: e.Violations}
}
