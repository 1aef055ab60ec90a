package answer

import "github.com/kailas-cloud/docmind/internal/domain/document"

// NoEvidenceText opens every answer produced without retrieved context.
const NoEvidenceText = "No supporting evidence was found in the uploaded documents."

// Citation points back to a chunk that was placed in the prompt.
type Citation struct {
	DocumentID  string
	Filename    string
	SectionType document.SectionType
	Page        int
	Excerpt     string
	Score       float64
}

// Answer is a generated response. Transient.
type Answer struct {
	text       string
	citations  []Citation
	confidence float64
	noEvidence bool
	model      string
}

// New creates an answer grounded on the given citations.
// Confidence is the mean citation score.
func New(text string, citations []Citation, model string) Answer {
	var sum float64
	for _, c := range citations {
		sum += c.Score
	}
	var conf float64
	if len(citations) > 0 {
		conf = sum / float64(len(citations))
	}
	return Answer{text: text, citations: citations, confidence: conf, model: model}
}

// NewNoEvidence creates an answer for a question with no retrieved context.
// The text always starts with NoEvidenceText and carries no citations.
func NewNoEvidence(generated, model string) Answer {
	text := NoEvidenceText
	if generated != "" {
		text += "\n\n" + generated
	}
	return Answer{text: text, noEvidence: true, model: model}
}

// Text returns the generated answer text.
func (a *Answer) Text() string { return a.text }

// Citations returns the chunks used to ground the answer, in prompt order.
func (a *Answer) Citations() []Citation { return a.citations }

// Confidence returns the mean relevance of the cited chunks.
func (a *Answer) Confidence() float64 { return a.confidence }

// NoEvidence reports whether retrieval found nothing.
func (a *Answer) NoEvidence() bool { return a.noEvidence }

// Model returns the completion model that produced the text.
func (a *Answer) Model() string { return a.model }
