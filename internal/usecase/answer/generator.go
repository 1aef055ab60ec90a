// Package answer turns retrieved chunks into grounded answers, summaries and
// extracted evaluation metrics.
package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docmind/internal/domain"
	domanswer "github.com/kailas-cloud/docmind/internal/domain/answer"
	"github.com/kailas-cloud/docmind/internal/domain/search/request"
	"github.com/kailas-cloud/docmind/internal/domain/search/result"
	"github.com/kailas-cloud/docmind/internal/logger"
)

const excerptRunes = 240

// Options tunes generation.
type Options struct {
	// TopK is the number of chunks placed in the prompt.
	TopK int
	// Retries after the first failed completion call.
	Retries int
	// InitialBackoff is the first retry delay.
	InitialBackoff time.Duration
	// Timeout bounds one completion call.
	Timeout time.Duration
}

// DefaultOptions returns the stock generation settings.
func DefaultOptions() Options {
	return Options{
		TopK:           request.DefaultTopK,
		Retries:        1,
		InitialBackoff: 500 * time.Millisecond,
		Timeout:        60 * time.Second,
	}
}

// Generator answers questions from indexed documents.
type Generator struct {
	retriever Retriever
	completer domain.Completer
	docs      DocumentReader
	opts      Options

	completionTokens atomic.Int64
}

// New creates a generator. Zero option fields take their defaults.
func New(retriever Retriever, completer domain.Completer, docs DocumentReader, opts Options) *Generator {
	def := DefaultOptions()
	if opts.TopK <= 0 {
		opts.TopK = def.TopK
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = def.InitialBackoff
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	return &Generator{retriever: retriever, completer: completer, docs: docs, opts: opts}
}

// TopK returns the default number of prompt chunks.
func (g *Generator) TopK() int { return g.opts.TopK }

// CompletionTokens returns prompt plus completion tokens spent since start.
func (g *Generator) CompletionTokens() int64 { return g.completionTokens.Load() }

// Answer retrieves the default number of chunks and answers question from
// them. A nil documentIDs searches every document.
func (g *Generator) Answer(ctx context.Context, question string, documentIDs []string) (domanswer.Answer, error) {
	req, err := request.New(question, g.opts.TopK, documentIDs)
	if err != nil {
		return domanswer.Answer{}, err
	}
	return g.Ask(ctx, req)
}

// Ask answers a validated request. Citations are exactly the prompt chunks,
// in prompt order. With no chunks the completer is still asked, and the
// answer is marked as having no evidence.
func (g *Generator) Ask(ctx context.Context, req request.Request) (domanswer.Answer, error) {
	hits, err := g.retriever.Search(ctx, req)
	if err != nil {
		return domanswer.Answer{}, fmt.Errorf("retrieve: %w", err)
	}

	res, err := g.complete(ctx, buildPrompt(req.Query(), hits))
	if err != nil {
		return domanswer.Answer{}, err
	}

	logger.FromContext(ctx).Info("answer generated",
		zap.Int("citations", len(hits)),
		zap.String("model", res.Model),
		zap.Int("completion_tokens", res.CompletionTokens),
	)

	if len(hits) == 0 {
		return domanswer.NewNoEvidence(strings.TrimSpace(res.Text), res.Model), nil
	}
	return domanswer.New(strings.TrimSpace(res.Text), citations(hits), res.Model), nil
}

func citations(hits []result.Hit) []domanswer.Citation {
	out := make([]domanswer.Citation, len(hits))
	for i, h := range hits {
		c := h.Chunk()
		out[i] = domanswer.Citation{
			DocumentID:  c.DocumentID(),
			Filename:    h.Filename(),
			SectionType: c.SectionType(),
			Page:        c.Page(),
			Excerpt:     excerpt(c.Text(), excerptRunes),
			Score:       h.Score(),
		}
	}
	return out
}

// complete calls the completer under a per-call timeout, retrying with
// exponential backoff. Token usage lands on the request and the running total.
func (g *Generator) complete(ctx context.Context, prompt string) (domain.CompletionResult, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = g.opts.InitialBackoff
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(g.opts.Retries)), ctx) //nolint:gosec // non-negative

	var res domain.CompletionResult
	attempt := 0
	op := func() error {
		attempt++
		callCtx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()

		r, err := g.completer.Complete(callCtx, prompt)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			logger.FromContext(ctx).Warn("completion failed",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		}
		res = r
		return nil
	}

	if err := backoff.Retry(op, policy); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.CompletionResult{}, fmt.Errorf("complete: %w", ctxErr)
		}
		if errors.Is(err, domain.ErrGenerationUnavailable) {
			return domain.CompletionResult{}, fmt.Errorf("complete after %d attempts: %w", attempt, err)
		}
		return domain.CompletionResult{}, fmt.Errorf("complete after %d attempts: %w: %w",
			attempt, domain.ErrGenerationUnavailable, err)
	}

	tokens := res.PromptTokens + res.CompletionTokens
	domain.UsageFromContext(ctx).AddCompletionTokens(tokens)
	g.completionTokens.Add(int64(tokens))
	return res, nil
}

func excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	cut := n
	for i := n; i > n/2; i-- {
		if r[i] == ' ' {
			cut = i
			break
		}
	}
	return strings.TrimSpace(string(r[:cut])) + "..."
}
