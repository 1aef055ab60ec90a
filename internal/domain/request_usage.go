package domain

import (
	"context"
	"sync/atomic"
)

type requestUsageKey struct{}

// RequestUsage collects token usage for a single HTTP request.
// The handler puts it into the context; embedders and completers add to it;
// the handler reads it back for response headers. Safe for concurrent use.
type RequestUsage struct {
	embeddingTokens  atomic.Int64
	completionTokens atomic.Int64
	used             atomic.Bool
}

// NewContextWithUsage returns a context with an attached usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *RequestUsage) {
	u := &RequestUsage{}
	return context.WithValue(ctx, requestUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector. Returns nil if not set.
func UsageFromContext(ctx context.Context) *RequestUsage {
	u, _ := ctx.Value(requestUsageKey{}).(*RequestUsage)
	return u
}

// AddEmbeddingTokens records embedding tokens. A cache hit adds 0 but still marks use.
func (u *RequestUsage) AddEmbeddingTokens(n int) {
	if u != nil {
		u.embeddingTokens.Add(int64(n))
		u.used.Store(true)
	}
}

// AddCompletionTokens records prompt plus completion tokens of a generation call.
func (u *RequestUsage) AddCompletionTokens(n int) {
	if u != nil {
		u.completionTokens.Add(int64(n))
		u.used.Store(true)
	}
}

// EmbeddingTokens returns the embedding tokens recorded so far.
func (u *RequestUsage) EmbeddingTokens() int64 {
	if u == nil {
		return 0
	}
	return u.embeddingTokens.Load()
}

// CompletionTokens returns the completion tokens recorded so far.
func (u *RequestUsage) CompletionTokens() int64 {
	if u == nil {
		return 0
	}
	return u.completionTokens.Load()
}

// Used reports whether any provider was called during the request.
func (u *RequestUsage) Used() bool {
	return u != nil && u.used.Load()
}
