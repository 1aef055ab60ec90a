package answer

import (
	"context"

	"github.com/kailas-cloud/docmind/internal/domain/document"
	"github.com/kailas-cloud/docmind/internal/domain/search/request"
	"github.com/kailas-cloud/docmind/internal/domain/search/result"
)

// Retriever finds context chunks for a question.
type Retriever interface {
	Search(ctx context.Context, req request.Request) ([]result.Hit, error)
}

// DocumentReader loads stored documents.
type DocumentReader interface {
	Get(ctx context.Context, id string) (document.Document, error)
}
