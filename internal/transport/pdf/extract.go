// Package pdf turns PDF bytes into per-page text for the document structurer.
package pdf

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/kailas-cloud/docmind/internal/domain"
	"github.com/kailas-cloud/docmind/internal/domain/document"
)

// MaxPages bounds extraction work for one upload.
const MaxPages = 2000

var magic = []byte("%PDF-")

// IsPDF reports whether data starts with the PDF header.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), magic)
}

// Extract returns one Page per PDF page. Pages that fail to decode carry
// ExtractErr instead of failing the whole file; the structurer decides what
// to do with them.
func Extract(data []byte) ([]document.Page, error) {
	if !IsPDF(data) {
		return nil, fmt.Errorf("missing PDF header: %w", domain.ErrUnsupportedFormat)
	}

	r, err := openReader(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w: %w", domain.ErrUnsupportedFormat, err)
	}

	n := r.NumPage()
	if n == 0 {
		return nil, fmt.Errorf("pdf has no pages: %w", domain.ErrUnsupportedFormat)
	}
	if n > MaxPages {
		return nil, domain.NewValidation("pdf has %d pages, limit is %d", n, MaxPages)
	}

	pages := make([]document.Page, 0, n)
	for i := 1; i <= n; i++ {
		text, err := pageText(r, i)
		pages = append(pages, document.Page{Number: i, Text: text, ExtractErr: err})
	}
	return pages, nil
}

// openReader guards against panics in the parser on malformed files.
func openReader(data []byte) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r, err = nil, fmt.Errorf("malformed pdf: %v", rec)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

func pageText(r *pdf.Reader, num int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("page %d: malformed content: %v", num, rec)
		}
	}()

	p := r.Page(num)
	if p.V.IsNull() {
		return "", fmt.Errorf("page %d: missing page object", num)
	}
	text, err = p.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("page %d: %w", num, err)
	}
	return text, nil
}
