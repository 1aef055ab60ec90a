package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docmind/internal/domain"
	domanswer "github.com/kailas-cloud/docmind/internal/domain/answer"
	domarxiv "github.com/kailas-cloud/docmind/internal/domain/arxiv"
	dombatch "github.com/kailas-cloud/docmind/internal/domain/batch"
	domdoc "github.com/kailas-cloud/docmind/internal/domain/document"
	domusage "github.com/kailas-cloud/docmind/internal/domain/usage"
	"github.com/kailas-cloud/docmind/internal/usecase/answer"
	batchuc "github.com/kailas-cloud/docmind/internal/usecase/batch"
	healthuc "github.com/kailas-cloud/docmind/internal/usecase/health"
	"github.com/kailas-cloud/docmind/internal/usecase/index"
)

// --- Mocks ---

type fakeDocuments struct {
	listFn    func() ([]domdoc.Document, error)
	getFn     func(id string) (domdoc.Document, error)
	deleteFn  func(id string) error
	queryFn   func(ctx context.Context, question string, ids []string, topK int) (domanswer.Answer, error)
	summaryFn func(id string) (answer.Summary, error)
	metricsFn func(id string) ([]answer.Metric, error)
}

func (f *fakeDocuments) List(context.Context) ([]domdoc.Document, error) {
	if f.listFn != nil {
		return f.listFn()
	}
	return nil, nil
}

func (f *fakeDocuments) Get(_ context.Context, id string) (domdoc.Document, error) {
	if f.getFn != nil {
		return f.getFn(id)
	}
	return domdoc.Document{}, domain.ErrDocumentNotFound
}

func (f *fakeDocuments) Delete(_ context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(id)
	}
	return nil
}

func (f *fakeDocuments) Query(ctx context.Context, q string, ids []string, topK int) (domanswer.Answer, error) {
	if f.queryFn != nil {
		return f.queryFn(ctx, q, ids, topK)
	}
	return domanswer.NewNoEvidence("", "m"), nil
}

func (f *fakeDocuments) Summary(_ context.Context, id string) (answer.Summary, error) {
	if f.summaryFn != nil {
		return f.summaryFn(id)
	}
	return answer.Summary{}, domain.ErrDocumentNotFound
}

func (f *fakeDocuments) Metrics(_ context.Context, id string) ([]answer.Metric, error) {
	if f.metricsFn != nil {
		return f.metricsFn(id)
	}
	return []answer.Metric{}, nil
}

type fakeUploads struct {
	uploadFn func(items []batchuc.Item) ([]dombatch.Result, error)
	items    []batchuc.Item
}

func (f *fakeUploads) Upload(_ context.Context, items []batchuc.Item) ([]dombatch.Result, error) {
	f.items = items
	if f.uploadFn != nil {
		return f.uploadFn(items)
	}
	out := make([]dombatch.Result, len(items))
	for i, it := range items {
		if it.Err != nil {
			out[i] = dombatch.NewError("", it.Filename, it.Err)
			continue
		}
		out[i] = dombatch.NewOK(fmt.Sprintf("id-%d", i), it.Filename, len(it.Pages), nil)
	}
	return out, nil
}

type fakeArxiv struct {
	searchFn func(text string, page, size int) (domarxiv.Page, error)
	importFn func(rec domarxiv.Record) (index.Result, error)
}

func (f *fakeArxiv) Search(_ context.Context, text string, page, size int) (domarxiv.Page, error) {
	if f.searchFn != nil {
		return f.searchFn(text, page, size)
	}
	return domarxiv.Page{}, nil
}

func (f *fakeArxiv) Import(_ context.Context, rec domarxiv.Record) (index.Result, error) {
	if f.importFn != nil {
		return f.importFn(rec)
	}
	return index.Result{}, domain.ErrUpstreamUnavailable
}

type fakeUsage struct{ lastPeriod domusage.Period }

func (f *fakeUsage) GetReport(_ context.Context, p domusage.Period) domusage.Report {
	f.lastPeriod = p
	return domusage.NewReport(p, 0, 1000, 42, 7, domusage.Budget{TokensLimit: 100, TokensRemaining: 58})
}

type fakeHealth struct{ report healthuc.Report }

func (f *fakeHealth) Check(context.Context) healthuc.Report { return f.report }

type testEnv struct {
	docs    *fakeDocuments
	uploads *fakeUploads
	arxiv   *fakeArxiv
	usage   *fakeUsage
	health  *fakeHealth
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		docs:    &fakeDocuments{},
		uploads: &fakeUploads{},
		arxiv:   &fakeArxiv{},
		usage:   &fakeUsage{},
		health: &fakeHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK},
		}},
	}
	srv := NewServer(env.docs, env.uploads, env.arxiv, env.usage, env.health, nil)
	env.handler = NewRouter(srv, nil, nil)
	return env
}

func (e *testEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp
}

func sampleDoc() domdoc.Document {
	sec := domdoc.ReconstructSection(domdoc.SectionAbstract, "Abstract",
		[]domdoc.Passage{{Page: 1, Text: "We study retrieval."}}, 0)
	return domdoc.Reconstruct("doc-1", "paper.pdf", "A Paper", domdoc.SourceUpload,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), 3, []domdoc.Section{sec}, nil).
		WithIndexState(1, 4)
}

// --- Tests ---

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   ErrorCode
	}{
		{"validation", domain.NewValidation("question is required"), http.StatusBadRequest, CodeValidationFailed},
		{"document not found", fmt.Errorf("get: %w", domain.ErrDocumentNotFound), http.StatusNotFound, CodeDocumentNotFound},
		{"not found", domain.ErrNotFound, http.StatusNotFound, CodeNotFound},
		{"unsupported", domain.ErrUnsupportedFormat, http.StatusUnprocessableEntity, CodeUnsupportedFormat},
		{"quota", domain.ErrEmbeddingQuotaExceeded, http.StatusPaymentRequired, CodeEmbeddingQuotaExceeded},
		{"embedding down", domain.ErrEmbeddingUnavailable, http.StatusServiceUnavailable, CodeEmbeddingUnavailable},
		{"generation down", domain.ErrGenerationUnavailable, http.StatusServiceUnavailable, CodeGenerationUnavailable},
		{"upstream", domain.ErrUpstreamUnavailable, http.StatusBadGateway, CodeUpstreamUnavailable},
		{"dim mismatch", domain.ErrVectorDimMismatch, http.StatusInternalServerError, CodeVectorDimMismatch},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, CodeRequestTimeout},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, CodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code, msg := classify(tt.err)
			if status != tt.status || code != tt.code {
				t.Errorf("got (%d, %s), want (%d, %s)", status, code, tt.status, tt.code)
			}
			if msg == "" {
				t.Error("expected message")
			}
		})
	}
}

func TestClassify_InternalMessageHidesCause(t *testing.T) {
	_, _, msg := classify(errors.New("redis: connection refused at 10.0.0.1"))
	if msg != internalMessage {
		t.Errorf("message = %q, want %q", msg, internalMessage)
	}
}

func TestUpload_JSON(t *testing.T) {
	env := newTestEnv(t)
	body := UploadRequest{Documents: []UploadDocument{
		{Filename: "a.pdf", Pages: []UploadPage{{Text: "one"}, {Text: "two"}}},
		{Filename: "b.pdf", Pages: []UploadPage{{Number: 7, Text: "seven"}}},
	}}

	rr := env.do(http.MethodPost, "/upload", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp UploadResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Succeeded != 2 || resp.Failed != 0 {
		t.Errorf("succeeded/failed = %d/%d", resp.Succeeded, resp.Failed)
	}
	if resp.Documents[0].ID != "id-0" || resp.Documents[1].Filename != "b.pdf" {
		t.Errorf("unexpected results %+v", resp.Documents)
	}

	items := env.uploads.items
	if items[0].Pages[0].Number != 1 || items[0].Pages[1].Number != 2 {
		t.Errorf("default page numbers: %+v", items[0].Pages)
	}
	if items[1].Pages[0].Number != 7 {
		t.Errorf("explicit page number lost: %+v", items[1].Pages)
	}
}

func TestUpload_InvalidJSON(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(http.MethodPost, "/upload", "{not json")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if got := decodeError(t, rr).Code; got != CodeValidationFailed {
		t.Errorf("code = %s", got)
	}
}

func TestUpload_BatchSizeError(t *testing.T) {
	env := newTestEnv(t)
	env.uploads.uploadFn = func([]batchuc.Item) ([]dombatch.Result, error) {
		return nil, domain.NewValidation("at most 5 documents per upload")
	}
	rr := env.do(http.MethodPost, "/upload", UploadRequest{})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestUpload_MultipartRejectsNonPDF(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("files", "notes.txt")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte("plain text, definitely not a pdf"))
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	env.handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp UploadResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Failed != 1 || len(resp.Documents) != 1 {
		t.Fatalf("unexpected response %+v", resp)
	}
	got := resp.Documents[0]
	if got.Filename != "notes.txt" || got.Status != string(dombatch.StatusError) {
		t.Errorf("result = %+v", got)
	}
	if got.Error == nil || got.Error.Code != CodeUnsupportedFormat {
		t.Errorf("error = %+v, want %s", got.Error, CodeUnsupportedFormat)
	}
	if !errors.Is(env.uploads.items[0].Err, domain.ErrUnsupportedFormat) {
		t.Errorf("item error = %v", env.uploads.items[0].Err)
	}
}

func TestUpload_MultipartStopsPastBatchLimit(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for i := range 6 {
		fw, err := mw.CreateFormFile("files", fmt.Sprintf("paper-%d.pdf", i))
		if err != nil {
			t.Fatal(err)
		}
		_, _ = fw.Write([]byte("%PDF-1.4 not really parsed"))
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	env.handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatal(err)
	}
	if errResp.Code != CodeValidationFailed {
		t.Errorf("code = %s, want %s", errResp.Code, CodeValidationFailed)
	}
	if env.uploads.items != nil {
		t.Errorf("upload service called with %d items", len(env.uploads.items))
	}
}

func TestUpload_TooLarge(t *testing.T) {
	env := newTestEnv(t)
	srv := NewServer(env.docs, env.uploads, env.arxiv, env.usage, env.health, nil).WithMaxUploadBytes(16)
	handler := NewRouter(srv, nil, nil)

	body := `{"documents":[{"filename":"a.pdf","pages":[{"text":"` + strings.Repeat("x", 64) + `"}]}]}`
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rr.Code)
	}
}

func TestQuery_OK(t *testing.T) {
	env := newTestEnv(t)
	env.docs.queryFn = func(ctx context.Context, q string, ids []string, topK int) (domanswer.Answer, error) {
		if q != "what?" || topK != 3 || len(ids) != 1 || ids[0] != "doc-1" {
			t.Errorf("unexpected args %q %v %d", q, ids, topK)
		}
		u := domain.UsageFromContext(ctx)
		u.AddEmbeddingTokens(11)
		u.AddCompletionTokens(22)
		return domanswer.New("because", []domanswer.Citation{
			{DocumentID: "doc-1", Filename: "paper.pdf", SectionType: domdoc.SectionResult, Page: 4, Excerpt: "x", Score: 0.8},
		}, "gpt"), nil
	}

	rr := env.do(http.MethodPost, "/query", QueryRequest{Question: "what?", DocumentIDs: []string{"doc-1"}, TopK: 3})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp AnswerResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Answer != "because" || len(resp.Citations) != 1 || resp.Citations[0].Page != 4 {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Confidence != 0.8 {
		t.Errorf("confidence = %v", resp.Confidence)
	}
	if rr.Header().Get("X-Embedding-Tokens") != "11" || rr.Header().Get("X-Completion-Tokens") != "22" {
		t.Errorf("usage headers = %v", rr.Header())
	}
}

func TestQuery_EmptyFilterIsNotNil(t *testing.T) {
	env := newTestEnv(t)
	var got []string
	env.docs.queryFn = func(_ context.Context, _ string, ids []string, _ int) (domanswer.Answer, error) {
		got = ids
		return domanswer.NewNoEvidence("", "m"), nil
	}
	rr := env.do(http.MethodPost, "/query", `{"question":"q","document_ids":[]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("ids = %#v, want empty non-nil", got)
	}
}

func TestQuery_UnknownDocument404(t *testing.T) {
	env := newTestEnv(t)
	env.docs.queryFn = func(context.Context, string, []string, int) (domanswer.Answer, error) {
		return domanswer.Answer{}, fmt.Errorf("unknown documents [nope]: %w", domain.ErrDocumentNotFound)
	}
	rr := env.do(http.MethodPost, "/query", QueryRequest{Question: "q", DocumentIDs: []string{"nope"}})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	if got := decodeError(t, rr).Code; got != CodeDocumentNotFound {
		t.Errorf("code = %s", got)
	}
}

func TestQuery_UnknownField400(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(http.MethodPost, "/query", `{"question":"q","k":3}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestListDocuments(t *testing.T) {
	env := newTestEnv(t)
	env.docs.listFn = func() ([]domdoc.Document, error) { return []domdoc.Document{sampleDoc()}, nil }

	rr := env.do(http.MethodGet, "/documents", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp DocumentListResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 || resp.Items[0].ID != "doc-1" || resp.Items[0].Chunks != 4 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestListDocuments_EmptyIsArray(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(http.MethodGet, "/documents", nil)
	if !strings.Contains(rr.Body.String(), `"items":[]`) {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestGetDocument(t *testing.T) {
	env := newTestEnv(t)
	env.docs.getFn = func(id string) (domdoc.Document, error) {
		if id != "doc-1" {
			return domdoc.Document{}, domain.ErrDocumentNotFound
		}
		return sampleDoc(), nil
	}

	rr := env.do(http.MethodGet, "/documents/doc-1", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp DocumentResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Sections) != 1 || resp.Sections[0].Type != "abstract" || resp.Sections[0].StartPage != 1 {
		t.Errorf("sections = %+v", resp.Sections)
	}

	if rr := env.do(http.MethodGet, "/documents/missing", nil); rr.Code != http.StatusNotFound {
		t.Errorf("missing: status = %d", rr.Code)
	}
}

func TestGetDocument_InvalidID(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(http.MethodGet, "/documents/bad%20id", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestDeleteDocument(t *testing.T) {
	env := newTestEnv(t)
	env.docs.deleteFn = func(id string) error {
		if id == "doc-1" {
			return nil
		}
		return domain.ErrDocumentNotFound
	}

	if rr := env.do(http.MethodDelete, "/documents/doc-1", nil); rr.Code != http.StatusNoContent {
		t.Errorf("delete: status = %d, want 204", rr.Code)
	}
	if rr := env.do(http.MethodDelete, "/documents/other", nil); rr.Code != http.StatusNotFound {
		t.Errorf("delete unknown: status = %d, want 404", rr.Code)
	}
}

func TestSummarizeDocument(t *testing.T) {
	env := newTestEnv(t)
	env.docs.summaryFn = func(id string) (answer.Summary, error) {
		return answer.Summary{DocumentID: id, Title: "A Paper", Text: "short", Model: "m"}, nil
	}
	rr := env.do(http.MethodPost, "/documents/doc-1/summary", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp SummaryResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Summary != "short" || resp.DocumentID != "doc-1" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestSummarizeDocument_GenerationDown(t *testing.T) {
	env := newTestEnv(t)
	env.docs.summaryFn = func(string) (answer.Summary, error) {
		return answer.Summary{}, fmt.Errorf("summarize: %w", domain.ErrGenerationUnavailable)
	}
	rr := env.do(http.MethodPost, "/documents/doc-1/summary", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
}

func TestDocumentMetrics(t *testing.T) {
	env := newTestEnv(t)
	env.docs.metricsFn = func(string) ([]answer.Metric, error) {
		return []answer.Metric{{Name: "accuracy", Value: 91.5, Percent: true, Page: 5, SectionType: domdoc.SectionResult}}, nil
	}
	rr := env.do(http.MethodGet, "/documents/doc-1/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp MetricsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Metrics) != 1 || resp.Metrics[0].Fraction != 0.915 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestArxivSearch(t *testing.T) {
	env := newTestEnv(t)
	env.arxiv.searchFn = func(text string, page, size int) (domarxiv.Page, error) {
		if text != "transformers" || page != 2 || size != 1 {
			t.Errorf("args = %q %d %d", text, page, size)
		}
		return domarxiv.Page{Records: []domarxiv.Record{{ID: "2401.00001"}}, Total: 5, Page: 2, PageSize: 1}, nil
	}
	rr := env.do(http.MethodPost, "/arxiv/search", ArxivSearchRequest{Query: "transformers", Page: 2, PageSize: 1})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp ArxivSearchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.HasMore || len(resp.Records) != 1 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestArxivSearch_UpstreamDown(t *testing.T) {
	env := newTestEnv(t)
	env.arxiv.searchFn = func(string, int, int) (domarxiv.Page, error) {
		return domarxiv.Page{}, fmt.Errorf("arxiv: %w", domain.ErrUpstreamUnavailable)
	}
	rr := env.do(http.MethodPost, "/arxiv/search", ArxivSearchRequest{Query: "q"})
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rr.Code)
	}
}

func TestArxivImport(t *testing.T) {
	env := newTestEnv(t)
	env.arxiv.importFn = func(rec domarxiv.Record) (index.Result, error) {
		doc := domdoc.Reconstruct("arxiv:"+rec.ID, "arXiv "+rec.ID, rec.Title, domdoc.SourceArxiv,
			time.Now(), 1, nil, nil)
		return index.Result{Document: doc, Chunks: 1}, nil
	}

	rr := env.do(http.MethodPost, "/arxiv/import", ArxivImportRequest{Record: &domarxiv.Record{ID: "2401.00001", Title: "T"}})
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if loc := rr.Header().Get("Location"); loc != "/documents/arxiv:2401.00001" {
		t.Errorf("location = %q", loc)
	}

	if rr := env.do(http.MethodPost, "/arxiv/import", `{}`); rr.Code != http.StatusBadRequest {
		t.Errorf("missing record: status = %d, want 400", rr.Code)
	}
}

func TestGetUsage(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodGet, "/usage?period=day", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if env.usage.lastPeriod != domusage.PeriodDay {
		t.Errorf("period = %s", env.usage.lastPeriod)
	}
	var resp UsageResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.EmbeddingTokens != 42 || resp.CompletionTokens != 7 || resp.Budget.TokensRemaining != 58 {
		t.Errorf("resp = %+v", resp)
	}

	env.do(http.MethodGet, "/usage", nil)
	if env.usage.lastPeriod != domusage.PeriodMonth {
		t.Errorf("default period = %s", env.usage.lastPeriod)
	}

	if rr := env.do(http.MethodGet, "/usage?period=year", nil); rr.Code != http.StatusBadRequest {
		t.Errorf("invalid period: status = %d, want 400", rr.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)
	if rr := env.do(http.MethodGet, "/health", nil); rr.Code != http.StatusOK {
		t.Fatalf("healthy: status = %d", rr.Code)
	}

	env.health.report = healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK, "completion": healthuc.CheckError},
	}
	rr := env.do(http.MethodGet, "/health", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("degraded: status = %d, want 503", rr.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "degraded" || resp.Checks["completion"] != "error" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestRouter_NotFoundIsJSON(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(http.MethodGet, "/nope", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := decodeError(t, rr).Code; got != CodeNotFound {
		t.Errorf("code = %s", got)
	}
}

func TestRouter_RequestIDHeader(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(http.MethodGet, "/health", nil)
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	if got := decodeError(t, rr).Code; got != CodeInternalError {
		t.Errorf("code = %s", got)
	}
}
