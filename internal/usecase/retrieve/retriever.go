// Package retrieve finds the chunks most relevant to a question.
package retrieve

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docmind/internal/domain"
	"github.com/kailas-cloud/docmind/internal/domain/search/request"
	"github.com/kailas-cloud/docmind/internal/domain/search/result"
	"github.com/kailas-cloud/docmind/internal/logger"
)

const (
	minSlack   = 10
	maxFetched = 10000
)

// Retriever embeds the question and ranks chunks by cosine similarity.
type Retriever struct {
	embedder domain.Embedder
	searcher Searcher
	dim      int
}

// New creates a retriever. embedder must be the query-side chain of the
// embedder that indexed the chunks. dim zero skips the dimension check.
func New(embedder domain.Embedder, searcher Searcher, dim int) *Retriever {
	return &Retriever{embedder: embedder, searcher: searcher, dim: dim}
}

// Search returns at most req.TopK() hits ordered by score, then document
// insertion order, then page, then chunk sequence. An empty index or a
// filter that matches nothing yields an empty slice.
func (r *Retriever) Search(ctx context.Context, req request.Request) ([]result.Hit, error) {
	if req.TopK() <= 0 {
		return nil, domain.NewValidation("top_k must be a positive integer")
	}
	if req.Filtered() && len(req.DocumentIDs()) == 0 {
		return []result.Hit{}, nil
	}

	emb, err := r.embedder.Embed(ctx, req.Query())
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", queryEmbedError(ctx, err))
	}
	if r.dim > 0 && len(emb.Embedding) != r.dim {
		return nil, fmt.Errorf("query vector has %d dimensions, want %d: %w",
			len(emb.Embedding), r.dim, domain.ErrVectorDimMismatch)
	}

	hits, err := r.fetch(ctx, emb.Embedding, req)
	if err != nil {
		return nil, err
	}

	if len(hits) > req.TopK() {
		hits = hits[:req.TopK()]
	}
	if hits == nil {
		hits = []result.Hit{}
	}

	logger.FromContext(ctx).Debug("retrieved chunks",
		zap.Int("top_k", req.TopK()),
		zap.Int("hits", len(hits)),
		zap.Bool("filtered", req.Filtered()),
	)
	return hits, nil
}

// fetch over-fetches candidates and widens the fetch while the last
// candidate still ties with the cut-off score, so ties are settled by the
// full ordering rather than by whatever the backend returned first.
func (r *Retriever) fetch(ctx context.Context, vec []float32, req request.Request) ([]result.Hit, error) {
	topK := req.TopK()
	k := min(topK+max(topK, minSlack), maxFetched)
	for {
		hits, err := r.searcher.SearchKNN(ctx, vec, req.DocumentIDs(), k)
		if err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}
		sort.SliceStable(hits, func(i, j int) bool { return result.Less(hits[i], hits[j]) })
		if len(hits) < k || k >= maxFetched || len(hits) <= topK {
			return hits, nil
		}
		if hits[len(hits)-1].Score() < hits[topK-1].Score() {
			return hits, nil
		}
		k = min(k*2, maxFetched)
	}
}

func queryEmbedError(ctx context.Context, err error) error {
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
