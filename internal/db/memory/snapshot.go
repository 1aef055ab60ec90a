package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kailas-cloud/docmind/internal/db"
)

const snapshotVersion = 1

// snapshot is the on-disk form. Hash values are []byte so binary vector
// blobs survive JSON (base64) intact.
type snapshot struct {
	Version int                          `json:"version"`
	KV      map[string]snapshotKV        `json:"kv"`
	Hashes  map[string]map[string][]byte `json:"hashes"`
	Indexes []*db.IndexDefinition        `json:"indexes"`
}

type snapshotKV struct {
	Value     []byte `json:"value"`
	ExpiresAt int64  `json:"expires_at,omitempty"` // unix millis
}

// Flush writes the current state to SnapshotPath. No-op without a path.
func (s *Store) Flush() error {
	if s.snapshotPath == "" {
		return nil
	}

	s.mu.RLock()
	snap := s.snapshotLocked()
	rev := s.rev
	s.mu.RUnlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return &db.Error{Op: db.OpSnapshot, Err: err}
	}

	dir := filepath.Dir(s.snapshotPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &db.Error{Op: db.OpSnapshot, Err: err}
	}
	tmp, err := os.CreateTemp(dir, ".docmind-snapshot-*")
	if err != nil {
		return &db.Error{Op: db.OpSnapshot, Err: err}
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return &db.Error{Op: db.OpSnapshot, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return &db.Error{Op: db.OpSnapshot, Err: err}
	}
	if err := os.Rename(tmp.Name(), s.snapshotPath); err != nil {
		_ = os.Remove(tmp.Name())
		return &db.Error{Op: db.OpSnapshot, Err: err}
	}

	s.mu.Lock()
	s.flushedRev = max(s.flushedRev, rev)
	s.mu.Unlock()
	return nil
}

func (s *Store) snapshotLocked() *snapshot {
	now := s.now()
	snap := &snapshot{
		Version: snapshotVersion,
		KV:      make(map[string]snapshotKV, len(s.kv)),
		Hashes:  make(map[string]map[string][]byte, len(s.hashes)),
		Indexes: make([]*db.IndexDefinition, 0, len(s.indexes)),
	}
	for k, e := range s.kv {
		if e.expired(now) {
			continue
		}
		item := snapshotKV{Value: e.value}
		if !e.expiresAt.IsZero() {
			item.ExpiresAt = e.expiresAt.UnixMilli()
		}
		snap.KV[k] = item
	}
	for k, h := range s.hashes {
		fields := make(map[string][]byte, len(h))
		for f, v := range h {
			fields[f] = []byte(v)
		}
		snap.Hashes[k] = fields
	}
	for _, idx := range s.indexes {
		snap.Indexes = append(snap.Indexes, idx)
	}
	return snap
}

func (s *Store) restore(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &db.Error{Op: db.OpSnapshot, Err: err}
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return &db.Error{Op: db.OpSnapshot, Err: fmt.Errorf("decode %s: %w", path, err)}
	}
	if snap.Version != snapshotVersion {
		return &db.Error{Op: db.OpSnapshot, Err: fmt.Errorf("unsupported snapshot version %d", snap.Version)}
	}

	for k, item := range snap.KV {
		e := kvEntry{value: item.Value}
		if item.ExpiresAt != 0 {
			e.expiresAt = time.UnixMilli(item.ExpiresAt)
		}
		s.kv[k] = e
	}
	for k, fields := range snap.Hashes {
		h := make(map[string]string, len(fields))
		for f, v := range fields {
			h[f] = string(v)
		}
		s.hashes[k] = h
	}
	for _, idx := range snap.Indexes {
		if idx == nil {
			continue
		}
		if err := idx.Validate(); err != nil {
			return &db.Error{Op: db.OpSnapshot, Err: fmt.Errorf("index %q: %w", idx.Name, err)}
		}
		s.indexes[idx.Name] = idx
		for key, h := range s.hashes {
			s.indexVectorLocked(key, h, idx)
		}
	}
	return nil
}
