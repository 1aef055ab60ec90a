package hashing

import (
	"context"
	"math"
	"testing"

	"github.com/kailas-cloud/docmind/internal/db"
)

func TestEmbed_Deterministic(t *testing.T) {
	e := New(64)
	a, err := e.Embed(context.Background(), "Attention is all you need")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	b, _ := e.Embed(context.Background(), "attention IS all, you need!")
	if len(a.Embedding) != 64 {
		t.Fatalf("dim = %d", len(a.Embedding))
	}
	for i := range a.Embedding {
		if a.Embedding[i] != b.Embedding[i] {
			t.Fatalf("case and punctuation should not change the vector (index %d)", i)
		}
	}
	if a.TotalTokens != 5 {
		t.Errorf("TotalTokens = %d, want 5", a.TotalTokens)
	}
}

func TestEmbed_UnitLength(t *testing.T) {
	for _, text := range []string{"", "a", "graph neural networks for molecules"} {
		res, _ := New(0).Embed(context.Background(), text)
		var n float64
		for _, v := range res.Embedding {
			n += float64(v) * float64(v)
		}
		if math.Abs(n-1) > 1e-5 {
			t.Errorf("%q: squared norm = %f", text, n)
		}
	}
}

func TestEmbed_SimilarTextsScoreHigher(t *testing.T) {
	e := New(DefaultDimensions)
	ctx := context.Background()
	q, _ := e.Embed(ctx, "transformer attention mechanism")
	near, _ := e.Embed(ctx, "the attention mechanism of the transformer")
	far, _ := e.Embed(ctx, "soil moisture in arid climates")

	if db.Cosine(q.Embedding, near.Embedding) <= db.Cosine(q.Embedding, far.Embedding) {
		t.Error("related text should be closer than unrelated text")
	}
}

func TestBatchEmbed_SumsTokens(t *testing.T) {
	res, err := New(16).BatchEmbed(context.Background(), []string{"one two", "three"})
	if err != nil {
		t.Fatalf("BatchEmbed: %v", err)
	}
	if len(res.Embeddings) != 2 || res.TotalTokens != 3 {
		t.Errorf("got %d vectors, %d tokens", len(res.Embeddings), res.TotalTokens)
	}
}

func TestBatchEmbed_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(16).BatchEmbed(ctx, []string{"x"}); err == nil {
		t.Fatal("expected context error")
	}
}
