package errors

import "errors"

// UsageError represents invalid invocation input detected before any network activity.
type UsageError struct {
	Reason string
}

func (e *UsageError) Error() string {
	return e.Reason
}

// NewUsageError creates a UsageError with the provided reason.
func NewUsageError(reason string) *UsageError {
	return &UsageError{Reason: reason}
}

// IsUsageError reports whether err is a UsageError (even when wrapped).
func IsUsageError(err error) bool {
	var usageErr *UsageError
	return errors.As(err, &usageErr)
}
