package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/kailas-cloud/docmind/internal/domain"
	domdoc "github.com/kailas-cloud/docmind/internal/domain/document"
	"github.com/kailas-cloud/docmind/internal/transport/pdf"
	batchuc "github.com/kailas-cloud/docmind/internal/usecase/batch"
)

const uploadFilesField = "files"

// Upload handles POST /upload. The body is either JSON with pre-extracted
// pages or multipart/form-data with PDF files under "files".
func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	var (
		items []batchuc.Item
		err   error
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		items, err = multipartItems(r, s.maxBatchSize)
	} else {
		items, err = jsonItems(r)
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeBadRequest,
				fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		s.handleDomainError(w, err)
		return
	}

	results, err := s.uploads.Upload(r.Context(), items)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse(results))
}

func jsonItems(r *http.Request) ([]batchuc.Item, error) {
	var req UploadRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, domain.NewValidation("invalid upload body: %v", err)
	}

	items := make([]batchuc.Item, len(req.Documents))
	for i, d := range req.Documents {
		pages := make([]domdoc.Page, len(d.Pages))
		for j, p := range d.Pages {
			num := p.Number
			if num <= 0 {
				num = j + 1
			}
			pages[j] = domdoc.Page{Number: num, Text: p.Text}
		}
		items[i] = batchuc.Item{Filename: d.Filename, Pages: pages}
	}
	return items, nil
}

// multipartItems reads file parts in order and stops at the first part past
// maxFiles, before reading or parsing it.
func multipartItems(r *http.Request, maxFiles int) ([]batchuc.Item, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, domain.NewValidation("invalid multipart body: %v", err)
	}

	var items []batchuc.Item
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, err
			}
			return nil, domain.NewValidation("invalid multipart body: %v", err)
		}
		if part.FormName() != uploadFilesField {
			_ = part.Close()
			continue
		}
		if len(items) == maxFiles {
			_ = part.Close()
			return nil, domain.NewValidation("batch size exceeds %d", maxFiles)
		}
		item, err := readPart(part)
		_ = part.Close()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// readPart turns one file part into an item. Unreadable content fails only
// that item.
func readPart(part *multipart.Part) (batchuc.Item, error) {
	name := part.FileName()
	if name == "" {
		name = "unnamed.pdf"
	}

	data, err := io.ReadAll(part)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return batchuc.Item{}, err
		}
		return batchuc.Item{Filename: name, Err: fmt.Errorf("read %s: %w", name, err)}, nil
	}
	if !pdf.IsPDF(data) {
		kind := http.DetectContentType(data)
		if i := strings.IndexByte(kind, ';'); i >= 0 {
			kind = kind[:i]
		}
		return batchuc.Item{
			Filename: name,
			Err:      fmt.Errorf("%s is %s, not a PDF: %w", name, kind, domain.ErrUnsupportedFormat),
		}, nil
	}

	pages, err := pdf.Extract(data)
	if err != nil {
		return batchuc.Item{Filename: name, Err: err}, nil
	}
	return batchuc.Item{Filename: name, Pages: pages}, nil
}
