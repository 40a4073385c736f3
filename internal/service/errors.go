package service

import "errors"

var (
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUserAlreadyExists is returned when attempting to register with an existing username.
	ErrUserAlreadyExists = errors.New("username already exists")
	// ErrAccountNotFound is returned when an account does not exist or is not owned by the caller.
	ErrAccountNotFound = errors.New("account not found")
	// ErrEntryNotFound is returned when an entry does not exist under the caller's account.
	ErrEntryNotFound = errors.New("entry not found")
)

// ValidationError reports malformed or missing input. Its message is safe to
// surface to the client.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func errValidation(msg string) error {
	return &ValidationError{Message: msg}
}
