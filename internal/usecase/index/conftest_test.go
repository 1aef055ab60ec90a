package index

import (
	"context"
	"testing"

	"github.com/kailas-cloud/docmind/internal/db/memory"
	"github.com/kailas-cloud/docmind/internal/domain"
	"github.com/kailas-cloud/docmind/internal/domain/chunk"
	"github.com/kailas-cloud/docmind/internal/domain/document"
	docrepo "github.com/kailas-cloud/docmind/internal/repository/document"
	"github.com/kailas-cloud/docmind/internal/repository/keyspace"
	searchrepo "github.com/kailas-cloud/docmind/internal/repository/search"
	"github.com/kailas-cloud/docmind/internal/transport/hashing"
)

const testDim = 32

// mockRepo implements Repository with overridable behavior.
type mockRepo struct {
	replaceFn func(ctx context.Context, doc *document.Document, chunks []chunk.Chunk) (document.Document, bool, error)
	deleteFn  func(ctx context.Context, id string) (bool, error)
}

func (m *mockRepo) Replace(
	ctx context.Context, doc *document.Document, chunks []chunk.Chunk,
) (document.Document, bool, error) {
	if m.replaceFn != nil {
		return m.replaceFn(ctx, doc, chunks)
	}
	return doc.WithIndexState(1, len(chunks)), false, nil
}

func (m *mockRepo) Delete(ctx context.Context, id string) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return true, nil
}

// mockEmbedder implements domain.Embedder.
type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if m.embedFn != nil {
		return m.embedFn(ctx, text)
	}
	v := make([]float32, testDim)
	v[0] = 1
	return domain.EmbeddingResult{Embedding: v, TotalTokens: 1}, nil
}

// stack wires the indexer to the in-memory backend.
type stack struct {
	indexer *Indexer
	docs    *docrepo.Repo
	search  *searchrepo.Repo
	embed   *hashing.Embedder
}

func newStack(t *testing.T, chunking domain.ChunkConfig) *stack {
	t.Helper()
	s, err := memory.NewStore(memory.Config{})
	if err != nil {
		t.Fatalf("memory.NewStore: %v", err)
	}
	t.Cleanup(s.Close)

	keys := keyspace.New("test")
	docs := docrepo.New(s, keys)
	if err := docs.EnsureIndex(context.Background(), testDim); err != nil {
		t.Fatalf("EnsureIndex: %v", err)
	}
	emb := hashing.New(testDim)
	return &stack{
		indexer: New(docs, emb, chunking, testDim),
		docs:    docs,
		search:  searchrepo.New(s, keys),
		embed:   emb,
	}
}

func (st *stack) hits(t *testing.T, query string, ids []string, k int) int {
	t.Helper()
	q, err := st.embed.Embed(context.Background(), query)
	if err != nil {
		t.Fatalf("embed query: %v", err)
	}
	hits, err := st.search.SearchKNN(context.Background(), q.Embedding, ids, k)
	if err != nil {
		t.Fatalf("SearchKNN: %v", err)
	}
	return len(hits)
}

func makeDoc(t *testing.T, id string, texts ...string) document.Document {
	t.Helper()
	sections := make([]document.Section, 0, len(texts))
	for i, text := range texts {
		sec, err := document.NewSection(document.SectionBody, "",
			[]document.Passage{{Page: i + 1, Text: text}}, i)
		if err != nil {
			t.Fatalf("NewSection: %v", err)
		}
		sections = append(sections, sec)
	}
	doc, err := document.New(id, id+".pdf", len(texts), sections)
	if err != nil {
		t.Fatalf("document.New: %v", err)
	}
	return doc
}
