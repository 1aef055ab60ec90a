// Package batch runs multi-document uploads with per-item error reporting.
package batch

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docmind/internal/domain"
	dombatch "github.com/kailas-cloud/docmind/internal/domain/batch"
	"github.com/kailas-cloud/docmind/internal/domain/document"
	"github.com/kailas-cloud/docmind/internal/logger"
	"github.com/kailas-cloud/docmind/internal/usecase/structure"
)

// MaxBatchSize is the maximum number of documents per upload.
const MaxBatchSize = 5

// Item is one submitted document. Err is set when the intake layer could not
// read the file at all; such items fail without touching the index.
type Item struct {
	Filename string
	Pages    []document.Page
	Err      error
}

// Service handles uploads. Items are processed in parallel and a failed
// item never aborts its siblings.
type Service struct {
	structurer   Structurer
	indexer      Indexer
	maxBatchSize int
	newID        func() string
}

// New creates a batch service.
func New(structurer Structurer, indexer Indexer) *Service {
	return &Service{
		structurer:   structurer,
		indexer:      indexer,
		maxBatchSize: MaxBatchSize,
		newID:        uuid.NewString,
	}
}

// WithMaxBatchSize configures the maximum batch size.
func (s *Service) WithMaxBatchSize(size int) *Service {
	if size > 0 {
		s.maxBatchSize = size
	}
	return s
}

// Upload structures and indexes every item. The returned results follow the
// input order. Only an empty or oversized batch fails as a whole.
func (s *Service) Upload(ctx context.Context, items []Item) ([]dombatch.Result, error) {
	if len(items) == 0 {
		return nil, domain.NewValidation("at least one document is required")
	}
	if len(items) > s.maxBatchSize {
		return nil, domain.NewValidation("batch size %d exceeds %d", len(items), s.maxBatchSize)
	}

	results := make([]dombatch.Result, len(items))
	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.uploadOne(ctx, &items[i])
		}(i)
	}
	wg.Wait()

	failed := 0
	for i := range results {
		if results[i].Status() == dombatch.StatusError {
			failed++
		}
	}
	logger.FromContext(ctx).Info("upload processed",
		zap.Int("documents", len(items)),
		zap.Int("failed", failed),
	)
	return results, nil
}

func (s *Service) uploadOne(ctx context.Context, item *Item) dombatch.Result {
	if item.Err != nil {
		return dombatch.NewError("", item.Filename, item.Err)
	}

	id := s.newID()
	doc, err := s.structurer.Structure(ctx, structure.Input{ID: id, Filename: item.Filename, Pages: item.Pages})
	if err != nil {
		return dombatch.NewError(id, item.Filename, fmt.Errorf("structure: %w", err))
	}

	res, err := s.indexer.IndexDocument(ctx, doc)
	if err != nil {
		return dombatch.NewError(id, item.Filename, fmt.Errorf("index: %w", err))
	}
	return dombatch.NewOK(id, item.Filename, res.Chunks, doc.Warnings())
}
