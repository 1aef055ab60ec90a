package answer

import (
	"context"
	"testing"

	"github.com/kailas-cloud/docmind/internal/domain"
	"github.com/kailas-cloud/docmind/internal/domain/chunk"
	"github.com/kailas-cloud/docmind/internal/domain/document"
	"github.com/kailas-cloud/docmind/internal/domain/search/request"
	"github.com/kailas-cloud/docmind/internal/domain/search/result"
)

type mockRetriever struct {
	searchFn func(ctx context.Context, req request.Request) ([]result.Hit, error)
	lastReq  request.Request
}

func (m *mockRetriever) Search(ctx context.Context, req request.Request) ([]result.Hit, error) {
	m.lastReq = req
	if m.searchFn != nil {
		return m.searchFn(ctx, req)
	}
	return []result.Hit{}, nil
}

type mockCompleter struct {
	completeFn func(ctx context.Context, prompt string) (domain.CompletionResult, error)
	prompts    []string
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string) (domain.CompletionResult, error) {
	m.prompts = append(m.prompts, prompt)
	if m.completeFn != nil {
		return m.completeFn(ctx, prompt)
	}
	return domain.CompletionResult{Text: "generated", Model: "test-model", PromptTokens: 10, CompletionTokens: 5}, nil
}

type mockDocs struct {
	getFn func(ctx context.Context, id string) (document.Document, error)
}

func (m *mockDocs) Get(ctx context.Context, id string) (document.Document, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return document.Document{}, domain.ErrDocumentNotFound
}

func testHit(doc string, seq, page int, sec document.SectionType, text string, score float64) result.Hit {
	c := chunk.Reconstruct(doc, seq, 0, sec, text, page, nil)
	return result.New(c, score, 1, doc+".pdf")
}

func testDoc(t *testing.T, sections ...document.Section) document.Document {
	t.Helper()
	for i := range sections {
		s := sections[i]
		sections[i] = document.ReconstructSection(s.Type(), s.Heading(), s.Passages(), i)
	}
	doc, err := document.New("doc-1", "paper.pdf", 3, sections)
	if err != nil {
		t.Fatalf("document.New: %v", err)
	}
	return doc.WithTitle("A Paper")
}

func sec(typ document.SectionType, heading string, page int, text string) document.Section {
	return document.ReconstructSection(typ, heading, []document.Passage{{Page: page, Text: text}}, 0)
}

func fastOptions() Options {
	return Options{TopK: 5, Retries: 1, InitialBackoff: 1, Timeout: 0}
}
