package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrDocumentNotFound signals a missing document. Matches ErrNotFound.
	ErrDocumentNotFound = fmt.Errorf("document %w", ErrNotFound)
	// ErrValidation signals a malformed request.
	ErrValidation = errors.New("validation error")
	// ErrUnsupportedFormat signals input that cannot be read as text at all.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")

	// ErrEmbeddingUnavailable signals that the embedding capability failed or timed out.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrGenerationUnavailable signals that the completion capability failed or timed out.
	ErrGenerationUnavailable = errors.New("generation unavailable")
	// ErrUpstreamUnavailable signals an arXiv network or protocol failure.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// ValidationError carries a client-facing reason and matches ErrValidation.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidation creates a validation error with a formatted reason.
func NewValidation(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
