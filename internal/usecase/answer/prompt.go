package answer

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/docmind/internal/domain/search/result"
)

const answerInstructions = `Instructions:
1. Answer only from the sources above. Do not infer facts they do not state.
2. If the sources do not contain the answer, start with "I cannot find information about" and name what is missing.
3. When you use a source, cite it as [Source N] and mention its document and section.
4. Keep the answer concise.`

const noContextInstructions = `No passage in the uploaded documents matched this question.
Say in one sentence that the uploaded documents do not cover it. Do not invent document content.`

// buildPrompt renders numbered source blocks followed by the question.
func buildPrompt(question string, hits []result.Hit) string {
	var b strings.Builder
	if len(hits) == 0 {
		b.WriteString(noContextInstructions)
		b.WriteString("\n\nQuestion: ")
		b.WriteString(question)
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString("Answer the question using the following sources from uploaded documents.\n\n")
	for i, h := range hits {
		c := h.Chunk()
		fmt.Fprintf(&b, "Source %d (from %s, %s, page %d):\n%s\n\n", i+1, h.Filename(), c.SectionType(), c.Page(), c.Text())
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\n\n")
	b.WriteString(answerInstructions)
	b.WriteString("\n")
	return b.String()
}
