package domain

import "errors"

// ErrFlowNotFound is returned when a flow name cannot be found in a document store.
var ErrFlowNotFound = errors.New("flow not found")

// ErrInvalidFlowName is returned when a flow name cannot be used as a storage key.
var ErrInvalidFlowName = errors.New("invalid flow name")

// ErrInvalidDocument is returned when a persisted document fails structural validation.
var ErrInvalidDocument = errors.New("invalid document")

// ErrLockNotAcquired is returned when a flow lock could not be taken before the deadline.
var ErrLockNotAcquired = errors.New("lock not acquired")
