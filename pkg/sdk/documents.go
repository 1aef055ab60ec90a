package docmind

import (
	"context"
	"fmt"
	"time"

	dombatch "github.com/kailas-cloud/docmind/internal/domain/batch"
	domdoc "github.com/kailas-cloud/docmind/internal/domain/document"
	"github.com/kailas-cloud/docmind/internal/transport/pdf"
	batchuc "github.com/kailas-cloud/docmind/internal/usecase/batch"
)

// Upload structures and indexes up to the batch limit of documents.
// One failed document never aborts the others; inspect each UploadResult.
func (c *Client) Upload(ctx context.Context, docs ...TextDocument) (_ []UploadResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("upload", start, err) }()

	items := make([]batchuc.Item, len(docs))
	for i, d := range docs {
		pages := make([]domdoc.Page, len(d.Pages))
		for j, text := range d.Pages {
			pages[j] = domdoc.Page{Number: j + 1, Text: text}
		}
		items[i] = batchuc.Item{Filename: d.Filename, Pages: pages}
	}
	return c.upload(ctx, items)
}

// UploadPDF extracts the text of a PDF and indexes it.
func (c *Client) UploadPDF(ctx context.Context, filename string, data []byte) (_ UploadResult, err error) {
	start := time.Now()
	defer func() { c.obs.observe("upload_pdf", start, err) }()

	item := batchuc.Item{Filename: filename}
	item.Pages, item.Err = pdf.Extract(data)

	res, err := c.upload(ctx, []batchuc.Item{item})
	if err != nil {
		return UploadResult{}, err
	}
	return res[0], nil
}

func (c *Client) upload(ctx context.Context, items []batchuc.Item) ([]UploadResult, error) {
	results, err := c.uploadSvc.Upload(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	out := make([]UploadResult, len(results))
	for i, r := range results {
		out[i] = UploadResult{
			ID:       r.ID(),
			Filename: r.Filename(),
			Chunks:   r.Chunks(),
			Warnings: r.Warnings(),
		}
		if r.Status() == dombatch.StatusError {
			out[i].Err = r.Err()
		}
	}
	return out, nil
}

// Documents lists indexed documents in upload order.
func (c *Client) Documents(ctx context.Context) (_ []DocumentInfo, err error) {
	start := time.Now()
	defer func() { c.obs.observe("list_documents", start, err) }()

	docs, err := c.docSvc.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	out := make([]DocumentInfo, len(docs))
	for i := range docs {
		out[i] = fromInternalDocument(&docs[i])
	}
	return out, nil
}

// Document returns one document with its sections.
func (c *Client) Document(ctx context.Context, id string) (_ DocumentInfo, err error) {
	start := time.Now()
	defer func() { c.obs.observe("get_document", start, err) }()

	d, err := c.docSvc.Get(ctx, id)
	if err != nil {
		return DocumentInfo{}, fmt.Errorf("get document: %w", err)
	}
	return fromInternalDocument(&d), nil
}

// Delete removes a document and its chunks.
func (c *Client) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("delete_document", start, err) }()

	if err = c.docSvc.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

func fromInternalDocument(d *domdoc.Document) DocumentInfo {
	secs := d.Sections()
	info := DocumentInfo{
		ID:         d.ID(),
		Filename:   d.Filename(),
		Title:      d.Title(),
		UploadedAt: d.UploadedAt(),
		PageCount:  d.PageCount(),
		Chunks:     d.ChunkCount(),
		Warnings:   d.Warnings(),
		Sections:   make([]Section, len(secs)),
	}
	for i, s := range secs {
		info.Sections[i] = Section{
			Type:      string(s.Type()),
			Heading:   s.Heading(),
			StartPage: s.StartPage(),
			Text:      s.Text(),
		}
	}
	return info
}
