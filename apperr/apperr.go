package apperr

import (
	"errors"
	"fmt"
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s %s", e.Field, e.Reason)
}

// ComputationError reports a target that could not be derived without
// producing a non-finite or negative value.
type ComputationError struct {
	Field  string
	Reason string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("computation error: %s %s", e.Field, e.Reason)
}

// EstimationError reports an AI estimate that was absent, malformed or timed out.
type EstimationError struct {
	Attempts int
	Reason   string
	Err      error
}

func (e *EstimationError) Error() string {
	msg := "estimation error: " + e.Reason
	if e.Attempts > 0 {
		msg = fmt.Sprintf("%s (after %d attempts)", msg, e.Attempts)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *EstimationError) Unwrap() error { return e.Err }

// PersistenceError reports a failed store operation.
type PersistenceError struct {
	Op         string
	Collection string
	Key        string
	Err        error
}

func (e *PersistenceError) Error() string {
	msg := fmt.Sprintf("persistence error: %s %s", e.Op, e.Collection)
	if e.Key != "" {
		msg += " [" + e.Key + "]"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func Computation(field, reason string) error {
	return &ComputationError{Field: field, Reason: reason}
}

func Estimation(reason string, err error) error {
	return &EstimationError{Reason: reason, Err: err}
}

// Persistence wraps err unless it is already a PersistenceError.
func Persistence(op, collection, key string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, Collection: collection, Key: key, Err: err}
}

func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func IsComputation(err error) bool {
	var e *ComputationError
	return errors.As(err, &e)
}

func IsEstimation(err error) bool {
	var e *EstimationError
	return errors.As(err, &e)
}

func IsPersistence(err error) bool {
	var e *PersistenceError
	return errors.As(err, &e)
}
