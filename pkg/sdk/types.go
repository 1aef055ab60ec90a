package docmind

import "time"

// TextDocument is a document whose page text is already extracted.
// Pages are numbered from 1 in slice order.
type TextDocument struct {
	Filename string
	Pages    []string
}

// UploadResult is the outcome of one uploaded document. Err is nil on success.
type UploadResult struct {
	ID       string
	Filename string
	Chunks   int
	Warnings []string
	Err      error
}

// DocumentInfo describes an indexed document.
type DocumentInfo struct {
	ID         string
	Filename   string
	Title      string
	UploadedAt time.Time
	PageCount  int
	Chunks     int
	Warnings   []string
	Sections   []Section
}

// Section is one typed part of a document.
type Section struct {
	Type      string
	Heading   string
	StartPage int
	Text      string
}

// Question is an Ask request. Zero TopK uses the default.
type Question struct {
	Text        string
	DocumentIDs []string
	TopK        int
}

// Answer is a generated answer with its supporting citations.
type Answer struct {
	Text       string
	Citations  []Citation
	Confidence float64
	NoEvidence bool
	Model      string
}

// Citation points back to a chunk the answer was grounded on.
type Citation struct {
	DocumentID  string
	Filename    string
	SectionType string
	Page        int
	Excerpt     string
	Score       float64
}

// Metric is an evaluation result found in a document.
type Metric struct {
	Name     string
	Value    float64
	Fraction float64
	Page     int
}
