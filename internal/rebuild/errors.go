package rebuild

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// DataError represents a failure detected during reconstruction.
//
// Reconstruction is pure and deterministic: every failure is either the
// store fetch failing (STORE_UNAVAILABLE) or a structural violation of
// the fact log's invariants (MALFORMED_FACT_GROUP). Neither is transient
// from this package's point of view, so no stage retries.
type DataError struct {
	// Code identifies the error category.
	Code DataErrorCode

	// Message is a human-readable description.
	Message string

	// Entity identifies the affected entity.
	Entity uuid.UUID

	// TxID identifies the offending transaction (for malformed groups).
	TxID int64

	// Attribute identifies the offending attribute (for malformed groups).
	Attribute string

	// Err is the underlying error (for store failures).
	Err error
}

// DataErrorCode categorizes reconstruction errors.
type DataErrorCode string

const (
	// ErrCodeStoreUnavailable indicates the history fetch failed.
	// No partial reconstruction is returned.
	ErrCodeStoreUnavailable DataErrorCode = "STORE_UNAVAILABLE"

	// ErrCodeMalformedFactGroup indicates a transaction group asserted
	// more than one value for a single attribute. This is store
	// corruption, not something to resolve by picking a winner.
	ErrCodeMalformedFactGroup DataErrorCode = "MALFORMED_FACT_GROUP"
)

// Error implements the error interface.
func (e *DataError) Error() string {
	if e.Attribute != "" {
		return fmt.Sprintf("%s: %s (entity=%s, tx=%d, attr=%s)", e.Code, e.Message, e.Entity, e.TxID, e.Attribute)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (entity=%s): %v", e.Code, e.Message, e.Entity, e.Err)
	}
	return fmt.Sprintf("%s: %s (entity=%s)", e.Code, e.Message, e.Entity)
}

// Unwrap returns the underlying error, if any.
func (e *DataError) Unwrap() error {
	return e.Err
}

// IsStoreUnavailable returns true if the error is a failed history fetch.
// Uses errors.As to handle wrapped errors.
func IsStoreUnavailable(err error) bool {
	var de *DataError
	if errors.As(err, &de) {
		return de.Code == ErrCodeStoreUnavailable
	}
	return false
}

// IsMalformedFactGroup returns true if the error is a fact-group
// invariant violation. Uses errors.As to handle wrapped errors.
func IsMalformedFactGroup(err error) bool {
	var de *DataError
	if errors.As(err, &de) {
		return de.Code == ErrCodeMalformedFactGroup
	}
	return false
}

// NewStoreUnavailableError wraps a failed history fetch.
func NewStoreUnavailableError(entity uuid.UUID, err error) *DataError {
	return &DataError{
		Code:    ErrCodeStoreUnavailable,
		Message: "history fetch failed",
		Entity:  entity,
		Err:     err,
	}
}

// NewMalformedFactGroupError reports a duplicate assertion for one
// attribute inside one transaction group.
func NewMalformedFactGroupError(entity uuid.UUID, txID int64, attribute string) *DataError {
	return &DataError{
		Code:      ErrCodeMalformedFactGroup,
		Message:   "transaction asserts multiple values for one attribute",
		Entity:    entity,
		TxID:      txID,
		Attribute: attribute,
	}
}
