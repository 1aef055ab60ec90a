package retrieve

import (
	"context"

	"github.com/kailas-cloud/docmind/internal/domain/search/result"
)

// Searcher runs a nearest-neighbour search over chunk vectors. A nil
// documentIDs searches everything; an empty non-nil slice matches nothing.
type Searcher interface {
	SearchKNN(ctx context.Context, vector []float32, documentIDs []string, k int) ([]result.Hit, error)
}
