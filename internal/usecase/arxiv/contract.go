package arxiv

import (
	"context"

	domarxiv "github.com/kailas-cloud/docmind/internal/domain/arxiv"
	"github.com/kailas-cloud/docmind/internal/domain/document"
	"github.com/kailas-cloud/docmind/internal/usecase/index"
)

// Searcher queries the arXiv API.
type Searcher interface {
	Search(ctx context.Context, query string, page, pageSize int) (domarxiv.Page, error)
}

// Indexer commits documents to the vector index.
type Indexer interface {
	IndexDocument(ctx context.Context, doc document.Document) (index.Result, error)
}
