package document

import (
	"fmt"
	"regexp"
	"time"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)

// Source tells how a document entered the index.
type Source string

// Document sources.
const (
	SourceUpload Source = "upload"
	SourceArxiv  Source = "arxiv"
)

// Document is the document aggregate. Immutable once indexed except for deletion.
type Document struct {
	id         string
	filename   string
	title      string
	source     Source
	uploadedAt time.Time
	pageCount  int
	sections   []Section
	warnings   []string

	// Set by the index on commit.
	seq        int64
	chunkCount int
}

// New validates and creates a Document.
// ID: ^[a-zA-Z0-9_.:-]+$, 1-256 chars. At least one section is required.
func New(id, filename string, pageCount int, sections []Section) (Document, error) {
	if err := ValidateID(id); err != nil {
		return Document{}, err
	}
	if filename == "" {
		return Document{}, fmt.Errorf("filename is required")
	}
	if pageCount <= 0 {
		return Document{}, fmt.Errorf("page count must be positive")
	}
	if len(sections) == 0 {
		return Document{}, fmt.Errorf("document has no sections")
	}
	for i, s := range sections {
		if s.index != i {
			return Document{}, fmt.Errorf("section %d has ordering index %d", i, s.index)
		}
	}

	return Document{
		id:         id,
		filename:   filename,
		source:     SourceUpload,
		uploadedAt: time.Now().UTC(),
		pageCount:  pageCount,
		sections:   append([]Section(nil), sections...),
	}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(
	id, filename, title string, source Source, uploadedAt time.Time,
	pageCount int, sections []Section, warnings []string,
) Document {
	return Document{
		id: id, filename: filename, title: title, source: source, uploadedAt: uploadedAt,
		pageCount: pageCount, sections: sections, warnings: warnings,
	}
}

// ValidateID checks a document identifier.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("document ID is required")
	}
	if len(id) > 256 {
		return fmt.Errorf("document ID too long (max 256)")
	}
	if !idRegex.MatchString(id) {
		return fmt.Errorf("document ID must contain only letters, digits, '_', '-', '.', ':'")
	}
	return nil
}

// ID returns the document identifier.
func (d *Document) ID() string { return d.id }

// Filename returns the original file name.
func (d *Document) Filename() string { return d.filename }

// Title returns the detected title, if any.
func (d *Document) Title() string { return d.title }

// Source returns how the document entered the index.
func (d *Document) Source() Source { return d.source }

// UploadedAt returns the upload timestamp.
func (d *Document) UploadedAt() time.Time { return d.uploadedAt }

// PageCount returns the number of pages in the original input.
func (d *Document) PageCount() int { return d.pageCount }

// Sections returns the ordered sections.
func (d *Document) Sections() []Section { return d.sections }

// Warnings returns non-fatal extraction warnings.
func (d *Document) Warnings() []string { return d.warnings }

// WithTitle returns a copy with the title set.
func (d Document) WithTitle(title string) Document {
	d.title = title
	return d
}

// WithSource returns a copy with the source set.
func (d Document) WithSource(s Source) Document {
	d.source = s
	return d
}

// WithWarnings returns a copy with the warnings set.
func (d Document) WithWarnings(w []string) Document {
	d.warnings = append([]string(nil), w...)
	return d
}

// Seq returns the insertion sequence assigned on first indexing (0 before).
func (d *Document) Seq() int64 { return d.seq }

// ChunkCount returns the number of stored chunks (0 before indexing).
func (d *Document) ChunkCount() int { return d.chunkCount }

// WithIndexState returns a copy carrying the committed insertion sequence and chunk count.
func (d Document) WithIndexState(seq int64, chunks int) Document {
	d.seq = seq
	d.chunkCount = chunks
	return d
}

// SectionsOf returns the sections of the given type in reading order.
func (d *Document) SectionsOf(t SectionType) []Section {
	var out []Section
	for _, s := range d.sections {
		if s.typ == t {
			out = append(out, s)
		}
	}
	return out
}
