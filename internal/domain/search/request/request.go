package request

import (
	"strings"

	"github.com/kailas-cloud/docmind/internal/domain"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed query length in bytes.
	MaxQueryLength = 4096
	DefaultTopK    = 5
	MaxTopK        = 100
)

// Request is a validated retrieval query.
type Request struct {
	query       string
	topK        int
	documentIDs []string
}

// New validates a retrieval query. topK must be positive; values above MaxTopK
// are clamped. documentIDs (optional) restricts the scope; duplicates are dropped.
func New(query string, topK int, documentIDs []string) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, domain.NewValidation("query is required")
	}
	if len(query) > MaxQueryLength {
		return Request{}, domain.NewValidation("query too long (max %d chars)", MaxQueryLength)
	}
	if topK <= 0 {
		return Request{}, domain.NewValidation("top_k must be a positive integer, got %d", topK)
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}

	var ids []string
	if documentIDs != nil {
		seen := make(map[string]bool, len(documentIDs))
		ids = make([]string, 0, len(documentIDs))
		for _, id := range documentIDs {
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
		}
	}

	return Request{query: query, topK: topK, documentIDs: ids}, nil
}

// Query returns the query text.
func (r *Request) Query() string { return r.query }

// TopK returns the maximum number of hits.
func (r *Request) TopK() int { return r.topK }

// DocumentIDs returns the scope filter. Nil means all documents;
// an empty non-nil slice means no documents.
func (r *Request) DocumentIDs() []string { return r.documentIDs }

// Filtered reports whether a document scope was supplied.
func (r *Request) Filtered() bool { return r.documentIDs != nil }
