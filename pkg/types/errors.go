package types

import (
	"errors"
	"fmt"
)

var (
	ErrFormNotFound        = errors.New("form configuration not found")
	ErrApplicationNotFound = errors.New("application not found")
	ErrInstitutionNotFound = errors.New("institution not found")
	ErrFileNotFound        = errors.New("application file not found")
)

// ValidationError is a local, user-facing rejection. It never reaches the network layer.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// RequestError is a failed call to a collaborator. Message is what the user sees.
type RequestError struct {
	Status  int
	Message string
	Err     error
}

const GenericRequestFailure = "Something went wrong. Please try again."

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request failed (%d): %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("request failed (%d): %s", e.Status, e.Message)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// UserMessage returns the text to surface for err: the validation message, the server
// message of a request error, or the generic fallback.
func UserMessage(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}

	var rerr *RequestError
	if errors.As(err, &rerr) && rerr.Message != "" {
		return rerr.Message
	}

	return GenericRequestFailure
}

func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
