package document

import (
	"strconv"
	"time"

	"github.com/kailas-cloud/docmind/internal/db"
	"github.com/kailas-cloud/docmind/internal/domain/chunk"
	domdoc "github.com/kailas-cloud/docmind/internal/domain/document"
	"github.com/kailas-cloud/docmind/internal/repository/keyspace"
)

// docRecord is the JSON metadata record stored under the document key.
type docRecord struct {
	ID         string          `json:"id"`
	Filename   string          `json:"filename"`
	Title      string          `json:"title,omitempty"`
	Source     string          `json:"source"`
	UploadedAt int64           `json:"uploaded_at"` // unix millis
	PageCount  int             `json:"page_count"`
	Seq        int64           `json:"seq"`
	ChunkCount int             `json:"chunk_count"`
	Warnings   []string        `json:"warnings,omitempty"`
	Sections   []sectionRecord `json:"sections"`
}

type sectionRecord struct {
	Type     string           `json:"type"`
	Heading  string           `json:"heading,omitempty"`
	Index    int              `json:"index"`
	Passages []domdoc.Passage `json:"passages"`
}

func toRecord(doc *domdoc.Document) docRecord {
	secs := make([]sectionRecord, 0, len(doc.Sections()))
	for _, s := range doc.Sections() {
		secs = append(secs, sectionRecord{
			Type:     string(s.Type()),
			Heading:  s.Heading(),
			Index:    s.Index(),
			Passages: s.Passages(),
		})
	}
	return docRecord{
		ID:         doc.ID(),
		Filename:   doc.Filename(),
		Title:      doc.Title(),
		Source:     string(doc.Source()),
		UploadedAt: doc.UploadedAt().UnixMilli(),
		PageCount:  doc.PageCount(),
		Seq:        doc.Seq(),
		ChunkCount: doc.ChunkCount(),
		Warnings:   doc.Warnings(),
		Sections:   secs,
	}
}

func fromRecord(r *docRecord) domdoc.Document {
	secs := make([]domdoc.Section, 0, len(r.Sections))
	for _, s := range r.Sections {
		secs = append(secs, domdoc.ReconstructSection(domdoc.SectionType(s.Type), s.Heading, s.Passages, s.Index))
	}
	doc := domdoc.Reconstruct(
		r.ID, r.Filename, r.Title, domdoc.Source(r.Source), time.UnixMilli(r.UploadedAt).UTC(),
		r.PageCount, secs, r.Warnings,
	)
	return doc.WithIndexState(r.Seq, r.ChunkCount)
}

// chunkFields flattens a chunk into hash fields. Document fields are
// denormalized so a KNN hit needs no second lookup.
func chunkFields(c *chunk.Chunk, docSeq int64, filename string) map[string]string {
	return map[string]string{
		keyspace.FieldDocID:        c.DocumentID(),
		keyspace.FieldDocSeq:       strconv.FormatInt(docSeq, 10),
		keyspace.FieldSeq:          strconv.Itoa(c.Seq()),
		keyspace.FieldSectionIndex: strconv.Itoa(c.SectionIndex()),
		keyspace.FieldSectionType:  string(c.SectionType()),
		keyspace.FieldPage:         strconv.Itoa(c.Page()),
		keyspace.FieldText:         c.Text(),
		keyspace.FieldFilename:     filename,
		keyspace.FieldVector:       db.EncodeVector(c.Vector()),
	}
}
