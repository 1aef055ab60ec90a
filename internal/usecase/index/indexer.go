// Package index chunks, embeds and commits documents to the vector index.
package index

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docmind/internal/domain"
	"github.com/kailas-cloud/docmind/internal/domain/chunk"
	"github.com/kailas-cloud/docmind/internal/domain/document"
	"github.com/kailas-cloud/docmind/internal/logger"
	"github.com/kailas-cloud/docmind/internal/metrics"
)

const lockStripes = 64

// Result describes one committed document.
type Result struct {
	Document document.Document
	Chunks   int
	Replaced bool
}

// Indexer owns the write path of the vector index.
type Indexer struct {
	repo     Repository
	embedder domain.Embedder
	chunking domain.ChunkConfig
	dim      int
	locks    [lockStripes]sync.Mutex
}

// New creates an indexer. dim is the index vector size; zero skips the check.
// An invalid chunk config falls back to domain.DefaultChunkConfig.
func New(repo Repository, embedder domain.Embedder, chunking domain.ChunkConfig, dim int) *Indexer {
	if chunking.Size <= 0 || chunking.Overlap < 0 || chunking.Overlap >= chunking.Size {
		chunking = domain.DefaultChunkConfig()
	}
	return &Indexer{repo: repo, embedder: embedder, chunking: chunking, dim: dim}
}

// lock serializes writes per document id. Ids that share a stripe also
// serialize, which only costs parallelism.
func (ix *Indexer) lock(id string) func() {
	m := &ix.locks[xxhash.Sum64String(id)%lockStripes]
	m.Lock()
	return m.Unlock
}

// IndexDocument chunks and embeds doc, then replaces whatever the index held
// under its id in one commit. Nothing is written if embedding fails or ctx
// ends first.
func (ix *Indexer) IndexDocument(ctx context.Context, doc document.Document) (Result, error) {
	start := time.Now()
	unlock := ix.lock(doc.ID())
	defer unlock()

	pieces, owners := ix.split(&doc)
	if len(pieces) == 0 {
		return Result{}, domain.NewValidation("document %s has no text to index", doc.ID())
	}

	texts := make([]string, len(pieces))
	for i, p := range pieces {
		texts[i] = p.text
	}
	emb, err := domain.EmbedAll(ctx, ix.embedder, texts)
	if err != nil {
		return Result{}, fmt.Errorf("embed %s: %w", doc.ID(), embedError(ctx, err))
	}

	chunks := make([]chunk.Chunk, len(pieces))
	for i, p := range pieces {
		vec := emb.Embeddings[i]
		if ix.dim > 0 && len(vec) != ix.dim {
			return Result{}, fmt.Errorf(
				"chunk %d: got %d dimensions, want %d: %w", i, len(vec), ix.dim, domain.ErrVectorDimMismatch)
		}
		sec := owners[i]
		c, err := chunk.New(doc.ID(), i, sec.Index(), sec.Type(), p.text, p.page, vec)
		if err != nil {
			return Result{}, fmt.Errorf("build chunk %d: %w", i, err)
		}
		chunks[i] = c
	}

	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("index %s: %w", doc.ID(), err)
	}

	stored, replaced, err := ix.repo.Replace(ctx, &doc, chunks)
	if err != nil {
		return Result{}, fmt.Errorf("commit %s: %w", doc.ID(), err)
	}

	if !replaced {
		metrics.IndexedDocuments.Inc()
	}
	metrics.IndexedChunksTotal.WithLabelValues(string(doc.Source())).Add(float64(len(chunks)))
	metrics.IndexDuration.Observe(time.Since(start).Seconds())

	logger.FromContext(ctx).Info("document indexed",
		zap.String("document_id", doc.ID()),
		zap.Int("chunks", len(chunks)),
		zap.Bool("replaced", replaced),
		zap.Duration("duration", time.Since(start)),
	)
	return Result{Document: stored, Chunks: len(chunks), Replaced: replaced}, nil
}

// DeleteDocument removes a document and its chunks. An absent id is a no-op.
func (ix *Indexer) DeleteDocument(ctx context.Context, id string) error {
	_, err := ix.Remove(ctx, id)
	return err
}

// Remove is DeleteDocument that also reports whether anything was removed.
func (ix *Indexer) Remove(ctx context.Context, id string) (bool, error) {
	unlock := ix.lock(id)
	defer unlock()

	deleted, err := ix.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", id, err)
	}
	if deleted {
		metrics.IndexedDocuments.Dec()
		logger.FromContext(ctx).Info("document deleted", zap.String("document_id", id))
	}
	return deleted, nil
}

func (ix *Indexer) split(doc *document.Document) ([]piece, []document.Section) {
	var (
		pieces []piece
		owners []document.Section
	)
	for _, sec := range doc.Sections() {
		for _, p := range splitSection(&sec, ix.chunking.Size, ix.chunking.Overlap) {
			pieces = append(pieces, p)
			owners = append(owners, sec)
		}
	}
	return pieces, owners
}

// embedError keeps typed embedding failures and context errors as they are
// and marks anything else as an unavailable provider.
func embedError(ctx context.Context, err error) error {
	switch {
	case ctx.Err() != nil:
		return err
	case errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrEmbeddingQuotaExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
}
