package docmind

import "github.com/kailas-cloud/docmind/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound               = domain.ErrNotFound
	ErrDocumentNotFound       = domain.ErrDocumentNotFound
	ErrValidation             = domain.ErrValidation
	ErrUnsupportedFormat      = domain.ErrUnsupportedFormat
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrEmbeddingUnavailable   = domain.ErrEmbeddingUnavailable
	ErrEmbeddingQuotaExceeded = domain.ErrEmbeddingQuotaExceeded
	ErrGenerationUnavailable  = domain.ErrGenerationUnavailable
)
