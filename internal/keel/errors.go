package keel

import "fmt"

// APIError represents a non-2xx response from the Keel API. Detail carries
// the response body text so user-facing acknowledgements can surface the
// service's own explanation (e.g. "already voted").
type APIError struct {
	Status int
	Detail string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("keel: unexpected status %d", e.Status)
	}
	return fmt.Sprintf("keel: status %d: %s", e.Status, e.Detail)
}
