package docmind

import (
	"context"
	"fmt"
	"time"

	domanswer "github.com/kailas-cloud/docmind/internal/domain/answer"
)

// Ask answers a question from the indexed documents. A nil DocumentIDs
// searches everything; an empty non-nil slice searches nothing.
func (c *Client) Ask(ctx context.Context, q Question) (_ Answer, err error) {
	start := time.Now()
	defer func() { c.obs.observe("ask", start, err) }()

	a, err := c.docSvc.Query(ctx, q.Text, q.DocumentIDs, q.TopK)
	if err != nil {
		return Answer{}, fmt.Errorf("ask: %w", err)
	}
	return fromInternalAnswer(&a), nil
}

// Summarize generates a summary of one document.
func (c *Client) Summarize(ctx context.Context, id string) (_ string, err error) {
	start := time.Now()
	defer func() { c.obs.observe("summarize", start, err) }()

	s, err := c.docSvc.Summary(ctx, id)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return s.Text, nil
}

// Metrics returns the evaluation metrics reported in a document's text.
func (c *Client) Metrics(ctx context.Context, id string) (_ []Metric, err error) {
	start := time.Now()
	defer func() { c.obs.observe("metrics", start, err) }()

	ms, err := c.docSvc.Metrics(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	out := make([]Metric, len(ms))
	for i, m := range ms {
		out[i] = Metric{Name: m.Name, Value: m.Value, Fraction: m.Fraction(), Page: m.Page}
	}
	return out, nil
}

func fromInternalAnswer(a *domanswer.Answer) Answer {
	cits := a.Citations()
	out := Answer{
		Text:       a.Text(),
		Confidence: a.Confidence(),
		NoEvidence: a.NoEvidence(),
		Model:      a.Model(),
		Citations:  make([]Citation, len(cits)),
	}
	for i, c := range cits {
		out.Citations[i] = Citation{
			DocumentID:  c.DocumentID,
			Filename:    c.Filename,
			SectionType: string(c.SectionType),
			Page:        c.Page,
			Excerpt:     c.Excerpt,
			Score:       c.Score,
		}
	}
	return out
}
