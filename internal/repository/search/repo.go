package search

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/docmind/internal/db"
	"github.com/kailas-cloud/docmind/internal/domain/chunk"
	"github.com/kailas-cloud/docmind/internal/domain/document"
	"github.com/kailas-cloud/docmind/internal/domain/search/result"
	"github.com/kailas-cloud/docmind/internal/repository/keyspace"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo runs vector searches over chunk hashes.
type Repo struct {
	store store
	keys  keyspace.Keyspace
}

// New creates a search repository.
func New(s store, keys keyspace.Keyspace) *Repo {
	return &Repo{store: s, keys: keys}
}

// SearchKNN returns the k chunks most similar to vector. A nil documentIDs
// searches every document; a non-nil empty slice matches nothing.
func (r *Repo) SearchKNN(
	ctx context.Context, vector []float32, documentIDs []string, k int,
) ([]result.Hit, error) {
	if documentIDs != nil && len(documentIDs) == 0 {
		return nil, nil
	}

	q := &db.KNNQuery{
		IndexName:    r.keys.IndexName(),
		Vector:       vector,
		K:            k,
		ReturnFields: keyspace.ChunkReturnFields,
	}
	if documentIDs != nil {
		q.Filter = &db.TagFilter{Field: keyspace.FieldDocID, Values: documentIDs}
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}
	return parseHits(sr), nil
}

func parseHits(sr *db.SearchResult) []result.Hit {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}
	hits := make([]result.Hit, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		hits = append(hits, parseHit(e))
	}
	return hits
}

// parseHit hydrates a chunk from hash fields. Malformed numerics read as 0,
// which the FT index would have rejected on write anyway.
func parseHit(e db.SearchEntry) result.Hit {
	f := e.Fields
	c := chunk.Reconstruct(
		f[keyspace.FieldDocID],
		atoi(f[keyspace.FieldSeq]),
		atoi(f[keyspace.FieldSectionIndex]),
		document.SectionType(f[keyspace.FieldSectionType]),
		f[keyspace.FieldText],
		atoi(f[keyspace.FieldPage]),
		nil,
	)
	docSeq, _ := strconv.ParseInt(f[keyspace.FieldDocSeq], 10, 64)
	return result.New(c, e.Score, docSeq, f[keyspace.FieldFilename])
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
