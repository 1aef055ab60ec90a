package batch

import (
	"context"

	"github.com/kailas-cloud/docmind/internal/domain/document"
	"github.com/kailas-cloud/docmind/internal/usecase/index"
	"github.com/kailas-cloud/docmind/internal/usecase/structure"
)

// Structurer turns raw pages into a sectioned document.
type Structurer interface {
	Structure(ctx context.Context, in structure.Input) (document.Document, error)
}

// Indexer commits documents to the vector index.
type Indexer interface {
	IndexDocument(ctx context.Context, doc document.Document) (index.Result, error)
}
