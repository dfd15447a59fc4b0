package errs

import "fmt"

type ErrorMessage struct {
	Message string
}

func (e *ErrorMessage) Error() string { return e.Message }

type NotFoundError struct {
	ErrorMessage
}

type AlreadyExistsError struct {
	ErrorMessage
}

type ValidationError struct {
	ErrorMessage
}

// DatabaseError wraps a Firestore failure with the operation that failed.
type DatabaseError struct {
	Operation string
	Message   string
	Err       error
}

func (e *DatabaseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Operation, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Operation, e.Message, e.Err)
}

func (e *DatabaseError) Unwrap() error { return e.Err }

// ExternalServiceError covers the mailbox, SMS and text generation providers.
// Transient marks failures worth retrying later (throttling, 5xx, timeouts).
type ExternalServiceError struct {
	Service   string
	Transient bool
	Message   string
	Err       error
}

func (e *ExternalServiceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Service, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Service, e.Message, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

type EncryptionError struct {
	Message string
	Err     error
}

func (e *EncryptionError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *EncryptionError) Unwrap() error { return e.Err }

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewAlreadyExistsError(message string) *AlreadyExistsError {
	return &AlreadyExistsError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		ErrorMessage: ErrorMessage{Message: message},
	}
}

func NewDatabaseError(operation, message string, err error) *DatabaseError {
	return &DatabaseError{Operation: operation, Message: message, Err: err}
}

func NewExternalServiceError(service string, transient bool, message string, err error) *ExternalServiceError {
	return &ExternalServiceError{Service: service, Transient: transient, Message: message, Err: err}
}

func NewEncryptionError(message string, err error) *EncryptionError {
	return &EncryptionError{Message: message, Err: err}
}

// NewConfigNotFoundError is returned when a user has no active mailbox setup.
func NewConfigNotFoundError() *NotFoundError {
	return NewNotFoundError("email configuration not found or inactive")
}
