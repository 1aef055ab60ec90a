// Package keyspace owns the storage key layout and the chunk index schema
// shared by the document and search repositories.
package keyspace

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/docmind/internal/db"
)

// DefaultPrefix is used when no storage.key_prefix is configured.
const DefaultPrefix = "docmind:"

// Chunk hash field names.
const (
	FieldDocID        = "doc_id"
	FieldDocSeq       = "doc_seq"
	FieldSeq          = "seq"
	FieldSectionIndex = "section_index"
	FieldSectionType  = "section_type"
	FieldPage         = "page"
	FieldText         = "text"
	FieldFilename     = "filename"
	FieldVector       = "vector"
)

// ChunkReturnFields are fetched with every KNN hit. The vector is never returned.
var ChunkReturnFields = []string{
	FieldDocID, FieldDocSeq, FieldSeq, FieldSectionIndex,
	FieldSectionType, FieldPage, FieldText, FieldFilename,
}

// Keyspace derives every key from one prefix.
type Keyspace struct {
	prefix string
}

// New creates a keyspace. An empty prefix falls back to DefaultPrefix.
func New(prefix string) Keyspace {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}
	return Keyspace{prefix: prefix}
}

// Prefix returns the root prefix, always ending in ':'.
func (k Keyspace) Prefix() string { return k.prefix }

// DocKey is the metadata record of a document.
func (k Keyspace) DocKey(id string) string { return k.prefix + "doc:" + id }

// DocPattern matches every metadata record.
func (k Keyspace) DocPattern() string { return k.prefix + "doc:*" }

// DocIDFromKey is the inverse of DocKey.
func (k Keyspace) DocIDFromKey(key string) string {
	return strings.TrimPrefix(key, k.prefix+"doc:")
}

// ChunkPrefix is the prefix the chunk index covers.
func (k Keyspace) ChunkPrefix() string { return k.prefix + "chunk:" }

// ChunkKey is the hash of one chunk.
func (k Keyspace) ChunkKey(docID string, seq int) string {
	return k.ChunkPrefix() + docID + ":" + strconv.Itoa(seq)
}

// SeqKey is the insertion sequence counter.
func (k Keyspace) SeqKey() string { return k.prefix + "seq" }

// IndexName is the FT index over chunk hashes.
func (k Keyspace) IndexName() string { return k.prefix + "chunks:idx" }

// EmbeddingCacheKey holds one cached vector.
func (k Keyspace) EmbeddingCacheKey(hash string) string { return k.prefix + "emb_cache:" + hash }

// BudgetKey holds a token counter for one provider and period bucket.
func (k Keyspace) BudgetKey(provider, period, bucket string) string {
	return k.prefix + "budget:" + provider + ":" + period + ":" + bucket
}

// ChunkIndex builds the FT schema for chunk hashes with an exact cosine vector field.
func (k Keyspace) ChunkIndex(dim int) (*db.IndexDefinition, error) {
	return db.NewIndex(k.IndexName()).
		Prefix(k.ChunkPrefix()).
		Tag(FieldDocID).
		Numeric(FieldDocSeq).
		Numeric(FieldPage).
		Numeric(FieldSeq).
		VectorFlat(FieldVector, dim, db.DistanceCosine).
		Build()
}
