package document

import (
	"fmt"
	"strings"
)

// SectionType classifies a block of document text.
type SectionType string

// Section types.
const (
	SectionTitle      SectionType = "title"
	SectionAbstract   SectionType = "abstract"
	SectionMethod     SectionType = "method"
	SectionResult     SectionType = "result"
	SectionConclusion SectionType = "conclusion"
	SectionTable      SectionType = "table"
	SectionReference  SectionType = "reference"
	SectionBody       SectionType = "body"
)

var validSectionTypes = map[SectionType]bool{
	SectionTitle: true, SectionAbstract: true, SectionMethod: true, SectionResult: true,
	SectionConclusion: true, SectionTable: true, SectionReference: true, SectionBody: true,
}

// IsValid reports whether t is a known section type.
func (t SectionType) IsValid() bool { return validSectionTypes[t] }

// Passage is a run of section text that sits on a single page.
type Passage struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

// Section is an ordered, typed span of document text. Owned by its Document.
// A section may cross page boundaries; each passage keeps its own page anchor.
type Section struct {
	typ      SectionType
	heading  string
	passages []Passage
	index    int
}

// NewSection validates and creates a Section.
func NewSection(t SectionType, heading string, passages []Passage, index int) (Section, error) {
	if !t.IsValid() {
		return Section{}, fmt.Errorf("invalid section type %q", t)
	}
	if len(passages) == 0 {
		return Section{}, fmt.Errorf("section has no passages")
	}
	for _, p := range passages {
		if p.Page <= 0 {
			return Section{}, fmt.Errorf("page must be positive, got %d", p.Page)
		}
	}
	if index < 0 {
		return Section{}, fmt.Errorf("ordering index must be non-negative")
	}
	return Section{typ: t, heading: heading, passages: append([]Passage(nil), passages...), index: index}, nil
}

// ReconstructSection creates a Section without validation (storage hydration).
func ReconstructSection(t SectionType, heading string, passages []Passage, index int) Section {
	return Section{typ: t, heading: heading, passages: passages, index: index}
}

// Type returns the section type.
func (s Section) Type() SectionType { return s.typ }

// Heading returns the heading line that opened the section, if any.
func (s Section) Heading() string { return s.heading }

// Passages returns the per-page runs of text.
func (s Section) Passages() []Passage { return s.passages }

// Text returns the full section text with passages separated by blank lines.
func (s Section) Text() string {
	parts := make([]string, 0, len(s.passages))
	for _, p := range s.passages {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n\n")
}

// StartPage returns the 1-based page the section starts on.
func (s Section) StartPage() int {
	if len(s.passages) == 0 {
		return 0
	}
	return s.passages[0].Page
}

// Index returns the ordering index within the document.
func (s Section) Index() int { return s.index }
