// Package arxiv searches arXiv and imports chosen records as pseudo-documents.
package arxiv

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docmind/internal/domain"
	domarxiv "github.com/kailas-cloud/docmind/internal/domain/arxiv"
	"github.com/kailas-cloud/docmind/internal/domain/document"
	"github.com/kailas-cloud/docmind/internal/logger"
	"github.com/kailas-cloud/docmind/internal/usecase/index"
)

// IDPrefix opens the document id of every imported record.
const IDPrefix = "arxiv:"

// Service wraps the arXiv client with paging defaults and import.
type Service struct {
	client          Searcher
	indexer         Indexer
	defaultPageSize int
}

// New creates an arXiv service.
func New(client Searcher, indexer Indexer) *Service {
	return &Service{client: client, indexer: indexer, defaultPageSize: 10}
}

// WithDefaultPageSize configures the page size used when none is given.
func (s *Service) WithDefaultPageSize(n int) *Service {
	if n > 0 {
		s.defaultPageSize = n
	}
	return s
}

// Search runs a free-text search. page defaults to 1.
func (s *Service) Search(ctx context.Context, text string, page, pageSize int) (domarxiv.Page, error) {
	if strings.TrimSpace(text) == "" {
		return domarxiv.Page{}, domain.NewValidation("query is required")
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = s.defaultPageSize
	}
	res, err := s.client.Search(ctx, text, page, pageSize)
	if err != nil {
		return domarxiv.Page{}, fmt.Errorf("arxiv search: %w", err)
	}
	return res, nil
}

// Import indexes rec as a one-page document holding its abstract.
// Importing the same record again replaces the earlier copy.
func (s *Service) Import(ctx context.Context, rec domarxiv.Record) (index.Result, error) {
	doc, err := ToDocument(rec)
	if err != nil {
		return index.Result{}, err
	}
	res, err := s.indexer.IndexDocument(ctx, doc)
	if err != nil {
		return index.Result{}, fmt.Errorf("import %s: %w", rec.ID, err)
	}
	logger.FromContext(ctx).Info("arxiv record imported",
		zap.String("arxiv_id", rec.ID),
		zap.String("document_id", doc.ID()),
		zap.Bool("replaced", res.Replaced),
	)
	return res, nil
}

// DocumentID maps an arXiv id to its pseudo-document id. Old-style ids such
// as hep-th/9901001 carry a slash, which document ids do not allow.
func DocumentID(arxivID string) string {
	return IDPrefix + strings.ReplaceAll(strings.TrimSpace(arxivID), "/", "_")
}

// ToDocument converts rec into an unindexed pseudo-document.
func ToDocument(rec domarxiv.Record) (document.Document, error) {
	if strings.TrimSpace(rec.ID) == "" {
		return document.Document{}, domain.NewValidation("arxiv record id is required")
	}
	abstract := strings.TrimSpace(rec.Abstract)
	if abstract == "" {
		return document.Document{}, domain.NewValidation("arxiv record %s has no abstract", rec.ID)
	}

	sec, err := document.NewSection(document.SectionAbstract, "Abstract",
		[]document.Passage{{Page: 1, Text: abstract}}, 0)
	if err != nil {
		return document.Document{}, domain.NewValidation("%s", err.Error())
	}
	doc, err := document.New(DocumentID(rec.ID), "arXiv "+strings.TrimSpace(rec.ID), 1, []document.Section{sec})
	if err != nil {
		return document.Document{}, domain.NewValidation("%s", err.Error())
	}

	title := strings.TrimSpace(rec.Title)
	if title == "" {
		title = doc.Filename()
	}
	return doc.WithTitle(title).WithSource(document.SourceArxiv), nil
}
