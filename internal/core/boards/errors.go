package boards

import "errors"

var (
	// ErrBoardNotFound indicates the referenced board does not exist
	ErrBoardNotFound = errors.New("board not found")
)

// ValidationError represents a caller-supplied input that violates a
// board invariant. Recoverable; surfaced to the user for correction.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
