package document

import (
	"context"

	domanswer "github.com/kailas-cloud/docmind/internal/domain/answer"
	domdoc "github.com/kailas-cloud/docmind/internal/domain/document"
	"github.com/kailas-cloud/docmind/internal/domain/search/request"
	"github.com/kailas-cloud/docmind/internal/usecase/answer"
)

// Repository reads stored documents.
type Repository interface {
	Get(ctx context.Context, id string) (domdoc.Document, error)
	List(ctx context.Context) ([]domdoc.Document, error)
	Missing(ctx context.Context, ids []string) ([]string, error)
}

// Remover deletes a document and its chunks.
type Remover interface {
	Remove(ctx context.Context, id string) (bool, error)
}

// Generator produces answers, summaries and metric extractions.
type Generator interface {
	Ask(ctx context.Context, req request.Request) (domanswer.Answer, error)
	Summarize(ctx context.Context, documentID string) (answer.Summary, error)
	ExtractMetrics(ctx context.Context, documentID string) ([]answer.Metric, error)
}
