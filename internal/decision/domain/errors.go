package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition = errors.New("action not allowed in current conversation state")
	ErrRequestInFlight   = errors.New("an analysis request is already in flight")
	ErrStaleResponse     = errors.New("analysis response is stale")
	ErrDuplicateAnswer   = errors.New("question already answered")
	ErrUnknownQuestion   = errors.New("question is not the current question")
	ErrNothingToRetry    = errors.New("no failed request to retry")
	ErrRequestAbandoned  = errors.New("analysis request did not complete, please retry")
)

// ValidationError is raised before any request is issued.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
