package document

import (
	"context"
	"testing"

	"github.com/kailas-cloud/docmind/internal/db"
	"github.com/kailas-cloud/docmind/internal/domain/chunk"
	domdoc "github.com/kailas-cloud/docmind/internal/domain/document"
	"github.com/kailas-cloud/docmind/internal/repository/keyspace"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	getFn         func(ctx context.Context, key string) ([]byte, error)
	incrByFn      func(ctx context.Context, key string, val int64) (int64, error)
	existsFn      func(ctx context.Context, key string) (bool, error)
	scanFn        func(ctx context.Context, pattern string) ([]string, error)
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	indexExistsFn func(ctx context.Context, name string) (bool, error)
	execFn        func(ctx context.Context, ops []db.Op) error
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) IncrBy(ctx context.Context, key string, val int64) (int64, error) {
	if m.incrByFn != nil {
		return m.incrByFn(ctx, key, val)
	}
	return val, nil
}

func (m *mockStore) Exists(ctx context.Context, key string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, key)
	}
	return false, nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	return nil, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, def)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) Exec(ctx context.Context, ops []db.Op) error {
	if m.execFn != nil {
		return m.execFn(ctx, ops)
	}
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, keyspace.New("")), ms
}

func testDocument(t *testing.T, id string) domdoc.Document {
	t.Helper()
	abs, err := domdoc.NewSection(domdoc.SectionAbstract, "Abstract",
		[]domdoc.Passage{{Page: 1, Text: "We study retrieval."}}, 0)
	if err != nil {
		t.Fatalf("NewSection: %v", err)
	}
	body, err := domdoc.NewSection(domdoc.SectionBody, "",
		[]domdoc.Passage{{Page: 1, Text: "tail of page one"}, {Page: 2, Text: "page two"}}, 1)
	if err != nil {
		t.Fatalf("NewSection: %v", err)
	}
	doc, err := domdoc.New(id, "paper.pdf", 2, []domdoc.Section{abs, body})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return doc.WithTitle("A Study of Retrieval")
}

func testChunks(t *testing.T, docID string, n int) []chunk.Chunk {
	t.Helper()
	out := make([]chunk.Chunk, 0, n)
	for i := range n {
		c, err := chunk.New(docID, i, 0, domdoc.SectionAbstract, "chunk text", 1, []float32{1, 0, 0})
		if err != nil {
			t.Fatalf("chunk.New: %v", err)
		}
		out = append(out, c)
	}
	return out
}
