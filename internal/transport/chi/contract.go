package chi

import (
	"context"

	domanswer "github.com/kailas-cloud/docmind/internal/domain/answer"
	domarxiv "github.com/kailas-cloud/docmind/internal/domain/arxiv"
	dombatch "github.com/kailas-cloud/docmind/internal/domain/batch"
	domdoc "github.com/kailas-cloud/docmind/internal/domain/document"
	domusage "github.com/kailas-cloud/docmind/internal/domain/usage"
	"github.com/kailas-cloud/docmind/internal/usecase/answer"
	batchuc "github.com/kailas-cloud/docmind/internal/usecase/batch"
	healthuc "github.com/kailas-cloud/docmind/internal/usecase/health"
	"github.com/kailas-cloud/docmind/internal/usecase/index"
)

// DocumentService serves reads, deletes and questions.
type DocumentService interface {
	List(ctx context.Context) ([]domdoc.Document, error)
	Get(ctx context.Context, id string) (domdoc.Document, error)
	Delete(ctx context.Context, id string) error
	Query(ctx context.Context, question string, documentIDs []string, topK int) (domanswer.Answer, error)
	Summary(ctx context.Context, id string) (answer.Summary, error)
	Metrics(ctx context.Context, id string) ([]answer.Metric, error)
}

// UploadService structures and indexes submitted documents.
type UploadService interface {
	Upload(ctx context.Context, items []batchuc.Item) ([]dombatch.Result, error)
}

// ArxivService searches arXiv and imports records.
type ArxivService interface {
	Search(ctx context.Context, text string, page, pageSize int) (domarxiv.Page, error)
	Import(ctx context.Context, rec domarxiv.Record) (index.Result, error)
}

// UsageService reports token usage.
type UsageService interface {
	GetReport(ctx context.Context, period domusage.Period) domusage.Report
}

// HealthService checks dependencies.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}
