// Package document serves reads, deletes and questions over indexed documents.
package document

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/docmind/internal/domain"
	domanswer "github.com/kailas-cloud/docmind/internal/domain/answer"
	domdoc "github.com/kailas-cloud/docmind/internal/domain/document"
	"github.com/kailas-cloud/docmind/internal/domain/search/request"
	"github.com/kailas-cloud/docmind/internal/usecase/answer"
)

// Service handles document reads, deletion and question answering.
type Service struct {
	repo        Repository
	remover     Remover
	gen         Generator
	defaultTopK int
	maxTopK     int
}

// New creates a document service.
func New(repo Repository, remover Remover, gen Generator) *Service {
	return &Service{
		repo:        repo,
		remover:     remover,
		gen:         gen,
		defaultTopK: request.DefaultTopK,
		maxTopK:     request.MaxTopK,
	}
}

// WithTopK configures the default and maximum number of retrieved chunks.
func (s *Service) WithTopK(defaultTopK, maxTopK int) *Service {
	if defaultTopK > 0 {
		s.defaultTopK = defaultTopK
	}
	if maxTopK > 0 {
		s.maxTopK = maxTopK
	}
	if s.defaultTopK > s.maxTopK {
		s.defaultTopK = s.maxTopK
	}
	return s
}

// List returns every document in insertion order.
func (s *Service) List(ctx context.Context) ([]domdoc.Document, error) {
	docs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Get returns one document.
func (s *Service) Get(ctx context.Context, id string) (domdoc.Document, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// Delete removes a document and its chunks.
func (s *Service) Delete(ctx context.Context, id string) error {
	found, err := s.remover.Remove(ctx, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if !found {
		return fmt.Errorf("delete %s: %w", id, domain.ErrDocumentNotFound)
	}
	return nil
}

// Query answers question from the index. A non-nil documentIDs restricts the
// search and every id must exist. topK <= 0 takes the default.
func (s *Service) Query(
	ctx context.Context, question string, documentIDs []string, topK int,
) (domanswer.Answer, error) {
	if topK <= 0 {
		topK = s.defaultTopK
	}
	if topK > s.maxTopK {
		topK = s.maxTopK
	}
	req, err := request.New(question, topK, documentIDs)
	if err != nil {
		return domanswer.Answer{}, err
	}

	if req.Filtered() && len(req.DocumentIDs()) > 0 {
		missing, err := s.repo.Missing(ctx, req.DocumentIDs())
		if err != nil {
			return domanswer.Answer{}, fmt.Errorf("check documents: %w", err)
		}
		if len(missing) > 0 {
			return domanswer.Answer{}, fmt.Errorf("unknown documents %s: %w",
				strings.Join(missing, ", "), domain.ErrDocumentNotFound)
		}
	}

	ans, err := s.gen.Ask(ctx, req)
	if err != nil {
		return domanswer.Answer{}, fmt.Errorf("answer: %w", err)
	}
	return ans, nil
}

// Summary asks for a summary of one document.
func (s *Service) Summary(ctx context.Context, id string) (answer.Summary, error) {
	sum, err := s.gen.Summarize(ctx, id)
	if err != nil {
		return answer.Summary{}, fmt.Errorf("summarize: %w", err)
	}
	return sum, nil
}

// Metrics returns evaluation metrics mentioned in one document.
func (s *Service) Metrics(ctx context.Context, id string) ([]answer.Metric, error) {
	ms, err := s.gen.ExtractMetrics(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("extract metrics: %w", err)
	}
	return ms, nil
}
