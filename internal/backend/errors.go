package backend

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized matches any APIError carrying 401 or 403.
	ErrUnauthorized = errors.New("backend: unauthorized")
	// ErrUnavailable wraps transport failures (connection refused, timeouts).
	ErrUnavailable = errors.New("backend: unavailable")
)

// APIError is a non-2xx response from the MindMesh backend.
type APIError struct {
	StatusCode int
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend %s returned status %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("backend %s returned status %d: %s", e.Path, e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	if target == ErrUnauthorized {
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}

// IsAuthError reports whether err means the session credential is no longer valid.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
