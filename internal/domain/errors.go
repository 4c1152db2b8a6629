package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest signals a request that cannot be executed (e.g. no query and no id).
	ErrInvalidRequest = errors.New("invalid request")
	// ErrEngineUnavailable signals that the search engine could not be reached.
	ErrEngineUnavailable = errors.New("search engine unavailable")
	// ErrEngineQuery signals that the search engine rejected or failed a query.
	ErrEngineQuery = errors.New("search engine query failed")
	// ErrCalibrationDegenerate signals that the topic boost has no usable scale
	// (boosted top score is zero or missing), so blending must be skipped.
	ErrCalibrationDegenerate = errors.New("calibration degenerate")
	// ErrUsageUnavailable signals that the usage counter store failed.
	ErrUsageUnavailable = errors.New("usage store unavailable")
)

// EngineError carries the failing engine operation and the engine's own reason.
// It unwraps to ErrEngineUnavailable or ErrEngineQuery.
type EngineError struct {
	Op     string
	Status int
	Reason string
	Err    error
}

func (e *EngineError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Err.Error())
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Err.Error(), e.Reason)
}

func (e *EngineError) Unwrap() error { return e.Err }

// NewEngineUnavailable wraps a transport-level failure.
func NewEngineUnavailable(op string, cause error) error {
	reason := ""
	if cause != nil {
		reason = cause.Error()
	}
	return &EngineError{Op: op, Reason: reason, Err: ErrEngineUnavailable}
}

// NewEngineQueryError wraps a failure reported by the engine itself.
func NewEngineQueryError(op string, status int, reason string) error {
	return &EngineError{Op: op, Status: status, Reason: reason, Err: ErrEngineQuery}
}
