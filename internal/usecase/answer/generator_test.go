package answer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/docmind/internal/domain"
	domanswer "github.com/kailas-cloud/docmind/internal/domain/answer"
	"github.com/kailas-cloud/docmind/internal/domain/document"
	"github.com/kailas-cloud/docmind/internal/domain/search/request"
	"github.com/kailas-cloud/docmind/internal/domain/search/result"
)

func TestAnswer_CitationsMatchPromptChunks(t *testing.T) {
	hits := []result.Hit{
		testHit("a", 0, 2, document.SectionMethod, "We train with AdamW.", 0.9),
		testHit("b", 3, 5, document.SectionResult, "Accuracy reaches 91%.", 0.7),
	}
	ret := &mockRetriever{searchFn: func(context.Context, request.Request) ([]result.Hit, error) { return hits, nil }}
	comp := &mockCompleter{}
	g := New(ret, comp, &mockDocs{}, fastOptions())

	ans, err := g.Answer(context.Background(), "How is it trained?", nil)
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if ret.lastReq.TopK() != 5 || ret.lastReq.Filtered() {
		t.Errorf("request = topK %d filtered %v", ret.lastReq.TopK(), ret.lastReq.Filtered())
	}

	prompt := comp.prompts[0]
	for _, want := range []string{
		"Source 1 (from a.pdf, method, page 2):\nWe train with AdamW.",
		"Source 2 (from b.pdf, result, page 5):\nAccuracy reaches 91%.",
		"Question: How is it trained?",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}

	cits := ans.Citations()
	if len(cits) != 2 || cits[0].DocumentID != "a" || cits[1].DocumentID != "b" {
		t.Fatalf("citations = %+v", cits)
	}
	if cits[1].Page != 5 || cits[1].SectionType != document.SectionResult || cits[1].Filename != "b.pdf" {
		t.Errorf("citation = %+v", cits[1])
	}
	if ans.Confidence() < 0.799 || ans.Confidence() > 0.801 {
		t.Errorf("Confidence = %f", ans.Confidence())
	}
	if ans.NoEvidence() || ans.Text() != "generated" || ans.Model() != "test-model" {
		t.Errorf("answer = %+v", ans)
	}
}

func TestAnswer_NoEvidenceStillCallsCompleter(t *testing.T) {
	comp := &mockCompleter{}
	g := New(&mockRetriever{}, comp, &mockDocs{}, fastOptions())

	ans, err := g.Answer(context.Background(), "What is the airspeed of a swallow?", []string{"doc-1"})
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if len(comp.prompts) != 1 {
		t.Fatalf("completer calls = %d", len(comp.prompts))
	}
	if strings.Contains(comp.prompts[0], "Source 1") {
		t.Error("no-context prompt must not contain sources")
	}
	if !ans.NoEvidence() || len(ans.Citations()) != 0 || ans.Confidence() != 0 {
		t.Errorf("answer = %+v", ans)
	}
	if !strings.HasPrefix(ans.Text(), domanswer.NoEvidenceText) {
		t.Errorf("Text = %q", ans.Text())
	}
}

func TestAnswer_RetriesOnceThenSucceeds(t *testing.T) {
	calls := 0
	comp := &mockCompleter{completeFn: func(context.Context, string) (domain.CompletionResult, error) {
		calls++
		if calls == 1 {
			return domain.CompletionResult{}, errors.New("503")
		}
		return domain.CompletionResult{Text: "ok", PromptTokens: 3, CompletionTokens: 2}, nil
	}}
	g := New(&mockRetriever{}, comp, &mockDocs{}, fastOptions())

	ctx, usage := domain.NewContextWithUsage(context.Background())
	if _, err := g.Answer(ctx, "q", nil); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if usage.CompletionTokens() != 5 || g.CompletionTokens() != 5 {
		t.Errorf("tokens = %d / %d", usage.CompletionTokens(), g.CompletionTokens())
	}
}

func TestAnswer_GenerationUnavailableAfterRetry(t *testing.T) {
	calls := 0
	comp := &mockCompleter{completeFn: func(context.Context, string) (domain.CompletionResult, error) {
		calls++
		return domain.CompletionResult{}, errors.New("boom")
	}}
	g := New(&mockRetriever{}, comp, &mockDocs{}, fastOptions())

	_, err := g.Answer(context.Background(), "q", nil)
	if !errors.Is(err, domain.ErrGenerationUnavailable) {
		t.Fatalf("expected ErrGenerationUnavailable, got %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestAnswer_TimeoutIsGenerationUnavailable(t *testing.T) {
	comp := &mockCompleter{completeFn: func(ctx context.Context, _ string) (domain.CompletionResult, error) {
		<-ctx.Done()
		return domain.CompletionResult{}, ctx.Err()
	}}
	g := New(&mockRetriever{}, comp, &mockDocs{}, Options{Retries: 1, InitialBackoff: time.Millisecond, Timeout: 10 * time.Millisecond})

	_, err := g.Answer(context.Background(), "q", nil)
	if !errors.Is(err, domain.ErrGenerationUnavailable) {
		t.Fatalf("expected ErrGenerationUnavailable, got %v", err)
	}
}

func TestAnswer_RetrieverErrorPropagates(t *testing.T) {
	ret := &mockRetriever{searchFn: func(context.Context, request.Request) ([]result.Hit, error) {
		return nil, domain.ErrEmbeddingUnavailable
	}}
	comp := &mockCompleter{}
	_, err := New(ret, comp, &mockDocs{}, fastOptions()).Answer(context.Background(), "q", nil)
	if !errors.Is(err, domain.ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
	if len(comp.prompts) != 0 {
		t.Error("completer must not be called when retrieval fails")
	}
}

func TestAnswer_InvalidQuestion(t *testing.T) {
	_, err := New(&mockRetriever{}, &mockCompleter{}, &mockDocs{}, fastOptions()).Answer(context.Background(), "  ", nil)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestExcerpt(t *testing.T) {
	long := strings.Repeat("word ", 100)
	got := excerpt(long, 50)
	if !strings.HasSuffix(got, "...") || len(got) > 53 {
		t.Errorf("excerpt = %q", got)
	}
	if excerpt("short", 50) != "short" {
		t.Error("short text should be unchanged")
	}
}
