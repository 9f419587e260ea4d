package catalog

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a stage failure.
type ErrorKind string

// Failure kinds shared by both orchestrators.
const (
	// KindNotFound means the remote entity is absent for the given key.
	// Non-fatal to sibling stages unless the entity is the product.
	KindNotFound ErrorKind = "not_found"
	// KindRemote means the catalog API answered non-2xx and non-404.
	KindRemote ErrorKind = "remote_error"
	// KindStore means the local read or write failed. Always fatal to the
	// current entity's stage and never silently swallowed.
	KindStore ErrorKind = "store_error"
	// KindDependencyMissing means a required upstream id was absent. The
	// stage is skipped, logged as a warning, and not counted as an error.
	KindDependencyMissing ErrorKind = "dependency_missing"
	// KindCritical marks a truly unexpected failure (panic, malformed
	// response shape) confined to a single reference.
	KindCritical ErrorKind = "critical"
)

// ErrNotFound is returned by the remote client when the catalog API
// answers 404 for a key.
var ErrNotFound = errors.New("remote entity not found")

// StageError is a structured failure entry for one pipeline stage.
type StageError struct {
	Stage   Stage     `json:"stage"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Kind, e.Message)
}

// NewStageError builds a StageError with a formatted message.
func NewStageError(stage Stage, kind ErrorKind, format string, args ...any) *StageError {
	return &StageError{Stage: stage, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ClassifyRemote maps a remote client error to NotFound or RemoteError.
func ClassifyRemote(stage Stage, err error) *StageError {
	if errors.Is(err, ErrNotFound) {
		return NewStageError(stage, KindNotFound, "%v", err)
	}
	return NewStageError(stage, KindRemote, "%v", err)
}
