package upstream

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrRejected is returned when the backend answers 2xx but flags the
// response with success=false.
var ErrRejected = errors.New("upstream rejected the request")

// ErrUnknownResource is returned for a list view name with no backend route.
var ErrUnknownResource = errors.New("unknown resource")

// HTTPError is a non-2xx answer from the backend.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Message)
}

// Temporary reports whether retrying the same request may succeed.
func (e *HTTPError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
