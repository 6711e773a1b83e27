package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// APIError is a non-2xx answer from the backend. Body is kept verbatim so the
// operator sees exactly what the backend rejected.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed: %s: %s", e.Status, e.Body)
}

// Detail picks the human message out of the usual DRF error shapes and falls
// back to the raw body.
func (e *APIError) Detail() string {
	if !gjson.Valid(e.Body) {
		return e.Body
	}
	for _, path := range []string{"detail", "error", "message", "non_field_errors.0"} {
		if v := gjson.Get(e.Body, path); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return e.Body
}

func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
