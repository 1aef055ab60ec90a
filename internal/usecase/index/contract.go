package index

import (
	"context"

	"github.com/kailas-cloud/docmind/internal/domain/chunk"
	"github.com/kailas-cloud/docmind/internal/domain/document"
)

// Repository commits documents and their chunks atomically.
type Repository interface {
	Replace(ctx context.Context, doc *document.Document, chunks []chunk.Chunk) (
		stored document.Document, replaced bool, err error,
	)
	Delete(ctx context.Context, id string) (bool, error)
}
