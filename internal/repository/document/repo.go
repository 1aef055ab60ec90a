package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/kailas-cloud/docmind/internal/db"
	"github.com/kailas-cloud/docmind/internal/domain"
	"github.com/kailas-cloud/docmind/internal/domain/chunk"
	domdoc "github.com/kailas-cloud/docmind/internal/domain/document"
	"github.com/kailas-cloud/docmind/internal/repository/keyspace"
)

// store is the consumer interface for documents (ISP).
//
//nolint:interfacebloat // document repo needs KV, index management and transactions
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	Exec(ctx context.Context, ops []db.Op) error
}

// Repo stores document metadata and chunk hashes.
// Callers serialize writes per document id.
type Repo struct {
	store store
	keys  keyspace.Keyspace
}

// New creates a document repository.
func New(s store, keys keyspace.Keyspace) *Repo {
	return &Repo{store: s, keys: keys}
}

// EnsureIndex creates the chunk index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context, dim int) error {
	name := r.keys.IndexName()
	exists, err := r.store.IndexExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check index %s: %w", name, err)
	}
	if exists {
		return nil
	}

	def, err := r.keys.ChunkIndex(dim)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	return nil
}

// Get returns a document with its sections and index state.
func (r *Repo) Get(ctx context.Context, id string) (domdoc.Document, error) {
	rec, err := r.getRecord(ctx, id)
	if err != nil {
		return domdoc.Document{}, err
	}
	return fromRecord(rec), nil
}

// Replace commits a document and its chunks in one transaction, removing any
// previous chunks under the same id. A re-indexed document keeps its
// insertion sequence; a new one draws the next value from the counter.
func (r *Repo) Replace(
	ctx context.Context, doc *domdoc.Document, chunks []chunk.Chunk,
) (stored domdoc.Document, replaced bool, err error) {
	prev, err := r.getRecord(ctx, doc.ID())
	switch {
	case err == nil:
		replaced = true
	case errors.Is(err, domain.ErrDocumentNotFound):
	default:
		return domdoc.Document{}, false, err
	}

	var seq int64
	if replaced {
		seq = prev.Seq
	} else {
		seq, err = r.store.IncrBy(ctx, r.keys.SeqKey(), 1)
		if err != nil {
			return domdoc.Document{}, false, fmt.Errorf("next sequence: %w", err)
		}
	}

	stored = doc.WithIndexState(seq, len(chunks))
	data, err := json.Marshal(toRecord(&stored))
	if err != nil {
		return domdoc.Document{}, false, fmt.Errorf("marshal document: %w", err)
	}

	ops := make([]db.Op, 0, len(chunks)+chunkCount(prev)+1)
	for i := range chunkCount(prev) {
		ops = append(ops, db.DelOp(r.keys.ChunkKey(doc.ID(), i)))
	}
	for i := range chunks {
		c := &chunks[i]
		ops = append(ops, db.HSetOp(r.keys.ChunkKey(doc.ID(), c.Seq()), chunkFields(c, seq, doc.Filename())))
	}
	ops = append(ops, db.SetOp(r.keys.DocKey(doc.ID()), data))

	if err := r.store.Exec(ctx, ops); err != nil {
		return domdoc.Document{}, false, fmt.Errorf("commit %s: %w", doc.ID(), err)
	}
	return stored, replaced, nil
}

// Delete removes a document and all its chunks in one transaction.
// Returns false if the document did not exist.
func (r *Repo) Delete(ctx context.Context, id string) (bool, error) {
	rec, err := r.getRecord(ctx, id)
	if errors.Is(err, domain.ErrDocumentNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	ops := make([]db.Op, 0, rec.ChunkCount+1)
	for i := range rec.ChunkCount {
		ops = append(ops, db.DelOp(r.keys.ChunkKey(id, i)))
	}
	ops = append(ops, db.DelOp(r.keys.DocKey(id)))

	if err := r.store.Exec(ctx, ops); err != nil {
		return false, fmt.Errorf("delete %s: %w", id, err)
	}
	return true, nil
}

// List returns all documents in insertion order.
func (r *Repo) List(ctx context.Context) ([]domdoc.Document, error) {
	keys, err := r.store.Scan(ctx, r.keys.DocPattern())
	if err != nil {
		return nil, fmt.Errorf("scan documents: %w", err)
	}

	docs := make([]domdoc.Document, 0, len(keys))
	for _, key := range keys {
		rec, err := r.getRecord(ctx, r.keys.DocIDFromKey(key))
		if errors.Is(err, domain.ErrDocumentNotFound) {
			continue // deleted between SCAN and GET
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, fromRecord(rec))
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Seq() < docs[j].Seq() })
	return docs, nil
}

// Missing returns the ids from the list that have no stored document.
func (r *Repo) Missing(ctx context.Context, ids []string) ([]string, error) {
	var missing []string
	for _, id := range ids {
		ok, err := r.store.Exists(ctx, r.keys.DocKey(id))
		if err != nil {
			return nil, fmt.Errorf("check exists %s: %w", id, err)
		}
		if !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (r *Repo) getRecord(ctx context.Context, id string) (*docRecord, error) {
	key := r.keys.DocKey(id)
	raw, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	var rec docRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return &rec, nil
}

func chunkCount(r *docRecord) int {
	if r == nil {
		return 0
	}
	return r.ChunkCount
}
