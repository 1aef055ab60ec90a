package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kailas-cloud/docmind/internal/db"
)

// Compile-time check: Store implements db.Store.
var (
	_ db.Store   = (*Store)(nil)
	_ db.Flusher = (*Store)(nil)
)

var errClosed = errors.New("memory store is closed")

// Config holds settings for the in-process store.
type Config struct {
	// SnapshotPath, if set, is loaded on open and written on Close.
	SnapshotPath string
}

type kvEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (e kvEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Store is a single-process db.Store. A single RWMutex guards all state, so
// Exec batches are invisible to readers until fully applied.
type Store struct {
	mu      sync.RWMutex
	kv      map[string]kvEntry
	hashes  map[string]map[string]string
	vectors map[string]map[string][]float32 // hash key -> index name -> decoded vector
	indexes map[string]*db.IndexDefinition
	closed  bool

	// rev counts writes; flushedRev is the rev the last snapshot captured.
	rev        uint64
	flushedRev uint64

	snapshotPath string
	now          func() time.Time
}

// NewStore opens an in-process store, restoring the snapshot when configured.
func NewStore(cfg Config) (*Store, error) {
	s := &Store{
		kv:           make(map[string]kvEntry),
		hashes:       make(map[string]map[string]string),
		vectors:      make(map[string]map[string][]float32),
		indexes:      make(map[string]*db.IndexDefinition),
		snapshotPath: cfg.SnapshotPath,
		now:          time.Now,
	}
	if cfg.SnapshotPath != "" {
		if err := s.restore(cfg.SnapshotPath); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Ping reports whether the store is open.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errClosed
	}
	return nil
}

// WaitForReady returns immediately: the store is ready once constructed.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// Close writes the snapshot if anything changed since the last Flush, then
// rejects further use. Close cannot report a snapshot error, so callers that
// need it call Flush first.
func (s *Store) Close() {
	s.mu.RLock()
	pending := s.rev != s.flushedRev
	s.mu.RUnlock()
	if pending {
		_ = s.Flush()
	}
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// --- KV ---

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.kv[key]
	if !ok || e.expired(s.now()) {
		return nil, db.ErrKeyNotFound
	}
	return append([]byte(nil), e.value...), nil
}

// Set stores a value at the given key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(key, value)
	return nil
}

// SetWithTTL stores a value with an expiration.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = kvEntry{value: append([]byte(nil), value...), expiresAt: s.now().Add(ttl)}
	s.rev++
	return nil
}

// IncrBy atomically increments an integer value and returns the result.
func (s *Store) IncrBy(_ context.Context, key string, val int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cur int64
	e, ok := s.kv[key]
	if ok && !e.expired(s.now()) {
		n, err := strconv.ParseInt(string(e.value), 10, 64)
		if err != nil {
			return 0, &db.Error{Op: db.OpIncrBy, Err: fmt.Errorf("value is not an integer")}
		}
		cur = n
	} else {
		e = kvEntry{}
	}
	cur += val
	e.value = []byte(strconv.FormatInt(cur, 10))
	s.kv[key] = e
	s.rev++
	return cur, nil
}

// Expire sets a TTL on a key. With nx, only keys without an expiry are touched.
func (s *Store) Expire(_ context.Context, key string, ttl time.Duration, nx bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.kv[key]
	if !ok {
		return nil
	}
	if nx && !e.expiresAt.IsZero() {
		return nil
	}
	e.expiresAt = s.now().Add(ttl)
	s.kv[key] = e
	s.rev++
	return nil
}

func (s *Store) setLocked(key string, value []byte) {
	s.kv[key] = kvEntry{value: append([]byte(nil), value...)}
	s.rev++
}

// --- Hash ---

// HSet sets hash fields.
func (s *Store) HSet(_ context.Context, key string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hsetLocked(key, fields)
	return nil
}

// HGetAll returns all fields of a hash. A missing key yields an empty map.
func (s *Store) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneFields(s.hashes[key]), nil
}

// HGetAllMulti fetches several hashes at once.
func (s *Store) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i] = cloneFields(s.hashes[k])
	}
	return out, nil
}

// Del deletes a key of any type.
func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delLocked(key)
	return nil
}

// Exists checks if a key exists.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.hashes[key]; ok {
		return true, nil
	}
	e, ok := s.kv[key]
	return ok && !e.expired(s.now()), nil
}

// Scan returns keys matching a glob pattern, sorted.
func (s *Store) Scan(_ context.Context, pattern string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	now := s.now()
	for k, e := range s.kv {
		if e.expired(now) {
			continue
		}
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	for k := range s.hashes {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) hsetLocked(key string, fields map[string]string) {
	h, ok := s.hashes[key]
	if !ok {
		h = make(map[string]string, len(fields))
		s.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	delete(s.vectors, key)
	s.rev++
	for _, idx := range s.indexes {
		s.indexVectorLocked(key, h, idx)
	}
}

// indexVectorLocked decodes the hash's vector for idx. Hashes whose vector
// does not fit the schema stay out of the index, as FT indexes skip them.
func (s *Store) indexVectorLocked(key string, h map[string]string, idx *db.IndexDefinition) {
	if !hasAnyPrefix(key, idx.Prefixes) {
		return
	}
	vf, ok := idx.VectorField()
	if !ok {
		return
	}
	raw, ok := h[vf.Name]
	if !ok {
		return
	}
	v, err := db.DecodeVector(raw)
	if err != nil || len(v) != vf.VectorDim {
		return
	}
	byIndex, ok := s.vectors[key]
	if !ok {
		byIndex = make(map[string][]float32, 1)
		s.vectors[key] = byIndex
	}
	byIndex[idx.Name] = v
}

func (s *Store) delLocked(key string) {
	delete(s.kv, key)
	delete(s.hashes, key)
	delete(s.vectors, key)
	s.rev++
}

// --- Transactions ---

// Exec validates every op, then applies all of them under one write lock.
func (s *Store) Exec(_ context.Context, ops []db.Op) error {
	for i := range ops {
		if err := validateOp(&ops[i]); err != nil {
			return &db.Error{Op: db.OpExec, Err: err}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &db.Error{Op: db.OpExec, Err: errClosed}
	}
	for i := range ops {
		op := &ops[i]
		switch op.Kind {
		case db.OpKindHSet:
			s.hsetLocked(op.Key, op.Fields)
		case db.OpKindSet:
			s.setLocked(op.Key, op.Value)
		case db.OpKindDel:
			s.delLocked(op.Key)
		}
	}
	return nil
}

func validateOp(op *db.Op) error {
	switch op.Kind {
	case db.OpKindHSet:
		if len(op.Fields) == 0 {
			return fmt.Errorf("hset %s: no fields", op.Key)
		}
	case db.OpKindSet, db.OpKindDel:
	default:
		return fmt.Errorf("unknown op kind %d", op.Kind)
	}
	if op.Key == "" {
		return fmt.Errorf("empty key")
	}
	return nil
}

// --- Index ---

// CreateIndex registers an index definition over hashes with the given prefixes.
func (s *Store) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[def.Name]; ok {
		return db.ErrIndexExists
	}
	cp := *def
	cp.Prefixes = append([]string(nil), def.Prefixes...)
	cp.Fields = append([]db.IndexField(nil), def.Fields...)
	s.indexes[def.Name] = &cp
	s.rev++
	for key, h := range s.hashes {
		s.indexVectorLocked(key, h, &cp)
	}
	return nil
}

// DropIndex removes an index definition. Indexed hashes are kept.
func (s *Store) DropIndex(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indexes[name]; !ok {
		return db.ErrIndexNotFound
	}
	delete(s.indexes, name)
	s.rev++
	for _, byIndex := range s.vectors {
		delete(byIndex, name)
	}
	return nil
}

// IndexExists reports whether an index is registered.
func (s *Store) IndexExists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indexes[name]
	return ok, nil
}

// SearchKNN scores every hash in the index by exact cosine similarity.
func (s *Store) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.indexes[q.IndexName]
	if !ok {
		return nil, &db.Error{Op: db.OpSearch, Err: db.ErrIndexNotFound}
	}
	vf, ok := idx.VectorField()
	if !ok {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("index %s has no vector field", idx.Name)}
	}
	if len(q.Vector) != vf.VectorDim {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf(
			"query vector has %d dims, index expects %d", len(q.Vector), vf.VectorDim)}
	}

	var allowed map[string]bool
	if q.Filter != nil && len(q.Filter.Values) > 0 {
		allowed = make(map[string]bool, len(q.Filter.Values))
		for _, v := range q.Filter.Values {
			allowed[v] = true
		}
	}

	var numeric []string
	for _, f := range idx.Fields {
		if f.Type == db.IndexFieldNumeric {
			numeric = append(numeric, f.Name)
		}
	}

	type candidate struct {
		entry db.SearchEntry
		ties  []float64
	}
	cands := make([]candidate, 0)
	for key, byIndex := range s.vectors {
		vec, ok := byIndex[idx.Name]
		if !ok {
			continue
		}
		h := s.hashes[key]
		if allowed != nil && !allowed[h[q.Filter.Field]] {
			continue
		}
		cands = append(cands, candidate{
			entry: db.SearchEntry{
				Key:    key,
				Score:  db.Cosine(q.Vector, vec),
				Fields: projectFields(h, q.ReturnFields, vf.Name),
			},
			ties: numericValues(h, numeric),
		})
	}

	// Equal scores order by the index's numeric fields ascending, in schema
	// order, then by key.
	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.entry.Score != b.entry.Score {
			return a.entry.Score > b.entry.Score
		}
		for n := range a.ties {
			if a.ties[n] != b.ties[n] {
				return a.ties[n] < b.ties[n]
			}
		}
		return a.entry.Key < b.entry.Key
	})

	entries := make([]db.SearchEntry, 0, min(len(cands), q.K))
	for _, c := range cands {
		if len(entries) == q.K {
			break
		}
		entries = append(entries, c.entry)
	}
	total := len(cands)
	return &db.SearchResult{Total: total, Entries: entries}, nil
}

// numericValues parses the named fields. Missing or malformed values sort last.
func numericValues(h map[string]string, names []string) []float64 {
	out := make([]float64, len(names))
	for i, n := range names {
		v, err := strconv.ParseFloat(h[n], 64)
		if err != nil {
			v = math.Inf(1)
		}
		out[i] = v
	}
	return out
}

func projectFields(h map[string]string, fields []string, vectorField string) map[string]string {
	out := make(map[string]string)
	if len(fields) == 0 {
		for k, v := range h {
			if k != vectorField {
				out[k] = v
			}
		}
		return out
	}
	for _, f := range fields {
		if v, ok := h[f]; ok {
			out[f] = v
		}
	}
	return out
}

func hasAnyPrefix(key string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

func cloneFields(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
