package gemini

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/docmind/internal/domain"
	"github.com/kailas-cloud/docmind/internal/metrics"
)

// Embedder produces vectors with a Gemini embedding model.
type Embedder struct {
	client     *genai.Client
	model      string
	dimensions int
	provider   string
	logger     *zap.Logger
}

// NewEmbedder creates a Gemini embedding provider.
func NewEmbedder(ctx context.Context, cfg *Config) (*Embedder, error) {
	client, err := newClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	model := cfg.EmbedModel
	if model == "" {
		model = "gemini-embedding-001"
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "gemini"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Embedder{
		client:     client,
		model:      model,
		dimensions: cfg.Dimensions,
		provider:   provider,
		logger:     logger,
	}, nil
}

// Embed implements domain.Embedder. The Gemini API reports no token usage
// for embeddings, so usage is estimated from the text length.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    res.Embeddings[0],
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// BatchEmbed implements domain.BatchEmbedder with one API call.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	contents := make([]*genai.Content, len(texts))
	tokens := 0
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
		tokens += estimateTokens(t)
	}
	cfg := &genai.EmbedContentConfig{}
	if e.dimensions > 0 {
		dim := int32(e.dimensions) //nolint:gosec // bounded by config validation
		cfg.OutputDimensionality = &dim
	}

	start := time.Now()
	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, cfg)
	duration := time.Since(start)
	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, e.model, "error").Inc()
		return domain.BatchEmbeddingResult{}, fmt.Errorf("gemini embed: %w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if result == nil || len(result.Embeddings) != len(texts) {
		metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, e.model, "error").Inc()
		got := 0
		if result != nil {
			got = len(result.Embeddings)
		}
		return domain.BatchEmbeddingResult{}, fmt.Errorf(
			"gemini embed: expected %d vectors, got %d: %w", len(texts), got, domain.ErrEmbeddingUnavailable)
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range result.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return domain.BatchEmbeddingResult{}, fmt.Errorf(
				"gemini embed: empty vector at %d: %w", i, domain.ErrEmbeddingUnavailable)
		}
		vectors[i] = emb.Values
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(e.provider, e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(e.provider, e.model).Observe(duration.Seconds())
	metrics.EmbeddingTokensTotal.WithLabelValues(e.provider, e.model, "prompt").Add(float64(tokens))

	return domain.BatchEmbeddingResult{
		Embeddings:   vectors,
		PromptTokens: tokens,
		TotalTokens:  tokens,
	}, nil
}

// HealthCheck embeds a short probe string.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.Embed(ctx, "health check"); err != nil {
		return fmt.Errorf("gemini embed health: %w", err)
	}
	return nil
}

// estimateTokens approximates tokens at four bytes each.
func estimateTokens(s string) int {
	n := (len(s) + 3) / 4
	if n == 0 {
		n = 1
	}
	return n
}
