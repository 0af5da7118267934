package sdk

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a structured error response from the server.
type APIError struct {
	Status  int    // HTTP status code
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("canopy api: %s (%s, http %d)", e.Message, e.Code, e.Status)
}

// IsNotFound reports whether err is a 404 from the API (missing
// resource or record).
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}
