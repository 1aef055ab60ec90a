package answer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/kailas-cloud/docmind/internal/domain/document"
)

const summaryBudget = 4000

var introHeading = regexp.MustCompile(`(?i)introduction`)

const summaryInstructions = `Include:
1. Main topic and purpose
2. Key findings or results
3. Methodology, if described
4. Conclusions
5. Important figures or data points`

// Summary is a generated document summary.
type Summary struct {
	DocumentID string
	Title      string
	Text       string
	Model      string
}

// Summarize asks the completer for a summary built from the abstract,
// introduction and conclusion. Documents without those sections fall back
// to their leading sections.
func (g *Generator) Summarize(ctx context.Context, documentID string) (Summary, error) {
	doc, err := g.docs.Get(ctx, documentID)
	if err != nil {
		return Summary{}, fmt.Errorf("get document: %w", err)
	}

	content := summaryContent(&doc, summaryBudget)
	prompt := fmt.Sprintf("Provide a comprehensive summary of the document %q.\n\n%s\n\n%s\n",
		doc.Title(), content, summaryInstructions)

	res, err := g.complete(ctx, prompt)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		DocumentID: doc.ID(),
		Title:      doc.Title(),
		Text:       strings.TrimSpace(res.Text),
		Model:      res.Model,
	}, nil
}

// summaryContent concatenates the key sections in reading order, capped at
// budget bytes.
func summaryContent(doc *document.Document, budget int) string {
	var picked []document.Section
	for _, s := range doc.Sections() {
		switch {
		case s.Type() == document.SectionAbstract,
			s.Type() == document.SectionConclusion,
			s.Type() == document.SectionBody && introHeading.MatchString(s.Heading()):
			picked = append(picked, s)
		}
	}
	if len(picked) == 0 {
		for _, s := range doc.Sections() {
			if s.Type() != document.SectionTitle && s.Type() != document.SectionReference {
				picked = append(picked, s)
			}
		}
	}

	var b strings.Builder
	for _, s := range picked {
		if b.Len() >= budget {
			break
		}
		if s.Heading() != "" {
			b.WriteString(s.Heading())
			b.WriteString("\n")
		}
		b.WriteString(s.Text())
		b.WriteString("\n\n")
	}
	return truncate(strings.TrimSpace(b.String()), budget)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func utf8RuneStart(b byte) bool { return b&0xC0 != 0x80 }
