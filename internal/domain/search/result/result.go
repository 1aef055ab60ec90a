package result

import "github.com/kailas-cloud/docmind/internal/domain/chunk"

// Hit is a single retrieval hit. Transient, never persisted.
type Hit struct {
	chunk    chunk.Chunk
	score    float64
	docSeq   int64
	filename string
}

// New creates a retrieval hit. docSeq is the owning document's insertion sequence.
func New(c chunk.Chunk, score float64, docSeq int64, filename string) Hit {
	return Hit{chunk: c, score: score, docSeq: docSeq, filename: filename}
}

// Chunk returns the matched chunk.
func (h *Hit) Chunk() chunk.Chunk { return h.chunk }

// Score returns the cosine similarity.
func (h *Hit) Score() float64 { return h.score }

// DocumentSeq returns the owning document's insertion sequence.
func (h *Hit) DocumentSeq() int64 { return h.docSeq }

// Filename returns the owning document's file name.
func (h *Hit) Filename() string { return h.filename }

// Less orders hits by score descending, then earlier document, then lower page,
// then lower chunk sequence.
func Less(a, b Hit) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	if a.docSeq != b.docSeq {
		return a.docSeq < b.docSeq
	}
	if a.chunk.Page() != b.chunk.Page() {
		return a.chunk.Page() < b.chunk.Page()
	}
	return a.chunk.Seq() < b.chunk.Seq()
}
