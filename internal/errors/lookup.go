package errors

import (
	stdErrors "errors"
	"fmt"
)

// Lookup stages, used to tell apart where a catalog lookup gave up.
const (
	StageRequest = "request"
	StageStatus  = "status"
	StageDecode  = "decode"
	StageResult  = "result"
)

// ErrNoResult is the cause recorded when the catalog answers without a product.
var ErrNoResult = stdErrors.New("no matching product")

// LookupError describes why a single identifier could not be resolved.
// It never crosses the lookup boundary as a failure; it is kept on the
// outcome so the operator log can say what happened.
type LookupError struct {
	Identifier string
	Stage      string
	Err        error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup %s failed at %s: %v", e.Identifier, e.Stage, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

// NewLookupError creates a LookupError for the given identifier and stage.
func NewLookupError(identifier, stage string, err error) *LookupError {
	return &LookupError{Identifier: identifier, Stage: stage, Err: err}
}

// LookupStage returns the stage recorded on a wrapped LookupError, or "" if there is none.
func LookupStage(err error) string {
	var lookupErr *LookupError
	if stdErrors.As(err, &lookupErr) {
		return lookupErr.Stage
	}
	return ""
}
