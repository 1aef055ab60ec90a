package chunk

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/docmind/internal/domain/document"
)

// Chunk is the unit of retrieval. Created by the indexer, never mutated.
type Chunk struct {
	documentID   string
	seq          int
	sectionIndex int
	sectionType  document.SectionType
	text         string
	page         int
	vector       []float32
}

// New validates and creates a Chunk.
func New(
	documentID string, seq, sectionIndex int, sectionType document.SectionType,
	text string, page int, vector []float32,
) (Chunk, error) {
	if documentID == "" {
		return Chunk{}, fmt.Errorf("chunk document ID is required")
	}
	if seq < 0 {
		return Chunk{}, fmt.Errorf("chunk sequence must be non-negative")
	}
	if strings.TrimSpace(text) == "" {
		return Chunk{}, fmt.Errorf("chunk text is empty")
	}
	if page <= 0 {
		return Chunk{}, fmt.Errorf("chunk page must be positive, got %d", page)
	}
	if len(vector) == 0 {
		return Chunk{}, fmt.Errorf("chunk vector is required")
	}
	return Chunk{
		documentID: documentID, seq: seq, sectionIndex: sectionIndex, sectionType: sectionType,
		text: text, page: page, vector: vector,
	}, nil
}

// Reconstruct creates a Chunk without validation (storage hydration).
func Reconstruct(
	documentID string, seq, sectionIndex int, sectionType document.SectionType,
	text string, page int, vector []float32,
) Chunk {
	return Chunk{
		documentID: documentID, seq: seq, sectionIndex: sectionIndex, sectionType: sectionType,
		text: text, page: page, vector: vector,
	}
}

// ID returns "<documentID>:<seq>".
func (c *Chunk) ID() string { return MakeID(c.documentID, c.seq) }

// DocumentID returns the owning document.
func (c *Chunk) DocumentID() string { return c.documentID }

// Seq returns the chunk position within its document.
func (c *Chunk) Seq() int { return c.seq }

// SectionIndex returns the owning section's ordering index.
func (c *Chunk) SectionIndex() int { return c.sectionIndex }

// SectionType returns the owning section's type.
func (c *Chunk) SectionType() document.SectionType { return c.sectionType }

// Text returns the chunk text span.
func (c *Chunk) Text() string { return c.text }

// Page returns the 1-based page the chunk was taken from.
func (c *Chunk) Page() int { return c.page }

// Vector returns the embedding vector.
func (c *Chunk) Vector() []float32 { return c.vector }

// MakeID builds a chunk identifier.
func MakeID(documentID string, seq int) string {
	return documentID + ":" + strconv.Itoa(seq)
}
