package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRequestInFlight  = errors.New("a daily log request is already in flight")
	ErrStaleResponse    = errors.New("daily log response is stale")
	ErrAlreadySubmitted = errors.New("daily log already submitted, reset to start a new one")
	ErrRequestAbandoned = errors.New("daily log request did not complete, please try again")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
