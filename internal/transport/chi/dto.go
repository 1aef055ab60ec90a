package chi

import (
	"time"

	domanswer "github.com/kailas-cloud/docmind/internal/domain/answer"
	domarxiv "github.com/kailas-cloud/docmind/internal/domain/arxiv"
	dombatch "github.com/kailas-cloud/docmind/internal/domain/batch"
	domdoc "github.com/kailas-cloud/docmind/internal/domain/document"
	domusage "github.com/kailas-cloud/docmind/internal/domain/usage"
	"github.com/kailas-cloud/docmind/internal/usecase/answer"
)

// UploadRequest is the JSON form of POST /upload.
type UploadRequest struct {
	Documents []UploadDocument `json:"documents"`
}

// UploadDocument is one pre-extracted document.
type UploadDocument struct {
	Filename string       `json:"filename"`
	Pages    []UploadPage `json:"pages"`
}

// UploadPage is one page of pre-extracted text. Number defaults to the position.
type UploadPage struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// UploadResponse lists per-document outcomes in submission order.
type UploadResponse struct {
	Documents []UploadResult `json:"documents"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
}

// UploadResult is the outcome of one document.
type UploadResult struct {
	Filename string         `json:"filename"`
	Status   string         `json:"status"`
	ID       string         `json:"id,omitempty"`
	Chunks   int            `json:"chunks,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
	Error    *ErrorResponse `json:"error,omitempty"`
}

// QueryRequest is the body of POST /query. A present but empty
// document_ids searches nothing.
type QueryRequest struct {
	Question    string   `json:"question"`
	DocumentIDs []string `json:"document_ids,omitempty"`
	TopK        int      `json:"top_k,omitempty"`
}

// AnswerResponse is a generated answer.
type AnswerResponse struct {
	Answer     string             `json:"answer"`
	Citations  []CitationResponse `json:"citations"`
	Confidence float64            `json:"confidence"`
	NoEvidence bool               `json:"no_evidence"`
	Model      string             `json:"model,omitempty"`
}

// CitationResponse points at a chunk used in the answer.
type CitationResponse struct {
	DocumentID  string  `json:"document_id"`
	Filename    string  `json:"filename"`
	SectionType string  `json:"section_type"`
	Page        int     `json:"page"`
	Excerpt     string  `json:"excerpt"`
	Score       float64 `json:"score"`
}

// DocumentSummary is list metadata for one document.
type DocumentSummary struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Title      string    `json:"title,omitempty"`
	Source     string    `json:"source"`
	UploadedAt time.Time `json:"uploaded_at"`
	PageCount  int       `json:"page_count"`
	Chunks     int       `json:"chunks"`
	Warnings   []string  `json:"warnings,omitempty"`
}

// DocumentListResponse is the body of GET /documents.
type DocumentListResponse struct {
	Items []DocumentSummary `json:"items"`
	Total int               `json:"total"`
}

// DocumentResponse is one document with its sections.
type DocumentResponse struct {
	DocumentSummary
	Sections []SectionResponse `json:"sections"`
}

// SectionResponse is one document section.
type SectionResponse struct {
	Index     int              `json:"index"`
	Type      string           `json:"type"`
	Heading   string           `json:"heading,omitempty"`
	StartPage int              `json:"start_page"`
	Passages  []domdoc.Passage `json:"passages"`
}

// SummaryResponse is the body of POST /documents/{id}/summary.
type SummaryResponse struct {
	DocumentID string `json:"document_id"`
	Title      string `json:"title,omitempty"`
	Summary    string `json:"summary"`
	Model      string `json:"model,omitempty"`
}

// MetricsResponse is the body of GET /documents/{id}/metrics.
type MetricsResponse struct {
	DocumentID string           `json:"document_id"`
	Metrics    []MetricResponse `json:"metrics"`
}

// MetricResponse is one extracted evaluation metric.
type MetricResponse struct {
	Name        string  `json:"name"`
	Value       float64 `json:"value"`
	Percent     bool    `json:"percent"`
	Fraction    float64 `json:"fraction"`
	Page        int     `json:"page"`
	SectionType string  `json:"section_type"`
	Context     string  `json:"context"`
}

// ArxivSearchRequest is the body of POST /arxiv/search.
type ArxivSearchRequest struct {
	Query    string `json:"query"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
}

// ArxivSearchResponse is one page of arXiv records.
type ArxivSearchResponse struct {
	domarxiv.Page
	HasMore bool `json:"has_more"`
}

// ArxivImportRequest is the body of POST /arxiv/import.
type ArxivImportRequest struct {
	Record *domarxiv.Record `json:"record"`
}

// ArxivImportResponse describes the imported pseudo-document.
type ArxivImportResponse struct {
	Document DocumentSummary `json:"document"`
	Replaced bool            `json:"replaced"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// UsageResponse is the body of GET /usage.
type UsageResponse struct {
	Period           string         `json:"period"`
	PeriodStartAt    time.Time      `json:"period_start_at"`
	PeriodEndAt      time.Time      `json:"period_end_at"`
	EmbeddingTokens  int64          `json:"embedding_tokens"`
	CompletionTokens int64          `json:"completion_tokens"`
	Budget           BudgetResponse `json:"budget"`
}

// BudgetResponse is the embedding budget state. A zero limit means unlimited.
type BudgetResponse struct {
	TokensLimit     int64     `json:"tokens_limit"`
	TokensRemaining int64     `json:"tokens_remaining"`
	IsExhausted     bool      `json:"is_exhausted"`
	ResetsAt        time.Time `json:"resets_at"`
}

func documentSummary(d *domdoc.Document) DocumentSummary {
	return DocumentSummary{
		ID:         d.ID(),
		Filename:   d.Filename(),
		Title:      d.Title(),
		Source:     string(d.Source()),
		UploadedAt: d.UploadedAt(),
		PageCount:  d.PageCount(),
		Chunks:     d.ChunkCount(),
		Warnings:   d.Warnings(),
	}
}

func documentResponse(d *domdoc.Document) DocumentResponse {
	secs := d.Sections()
	out := DocumentResponse{DocumentSummary: documentSummary(d), Sections: make([]SectionResponse, len(secs))}
	for i, s := range secs {
		out.Sections[i] = SectionResponse{
			Index:     s.Index(),
			Type:      string(s.Type()),
			Heading:   s.Heading(),
			StartPage: s.StartPage(),
			Passages:  s.Passages(),
		}
	}
	return out
}

func answerResponse(a *domanswer.Answer) AnswerResponse {
	cits := a.Citations()
	out := AnswerResponse{
		Answer:     a.Text(),
		Citations:  make([]CitationResponse, len(cits)),
		Confidence: a.Confidence(),
		NoEvidence: a.NoEvidence(),
		Model:      a.Model(),
	}
	for i, c := range cits {
		out.Citations[i] = CitationResponse{
			DocumentID:  c.DocumentID,
			Filename:    c.Filename,
			SectionType: string(c.SectionType),
			Page:        c.Page,
			Excerpt:     c.Excerpt,
			Score:       c.Score,
		}
	}
	return out
}

func metricsResponse(id string, ms []answer.Metric) MetricsResponse {
	out := MetricsResponse{DocumentID: id, Metrics: make([]MetricResponse, len(ms))}
	for i, m := range ms {
		out.Metrics[i] = MetricResponse{
			Name:        m.Name,
			Value:       m.Value,
			Percent:     m.Percent,
			Fraction:    m.Fraction(),
			Page:        m.Page,
			SectionType: string(m.SectionType),
			Context:     m.Context,
		}
	}
	return out
}

func uploadResponse(results []dombatch.Result) UploadResponse {
	out := UploadResponse{Documents: make([]UploadResult, len(results))}
	for i, r := range results {
		item := UploadResult{Filename: r.Filename(), Status: string(r.Status()), ID: r.ID()}
		if r.Status() == dombatch.StatusOK {
			item.Chunks = r.Chunks()
			item.Warnings = r.Warnings()
			out.Succeeded++
		} else {
			_, code, msg := classify(r.Err())
			item.Error = &ErrorResponse{Code: code, Message: msg}
			out.Failed++
		}
		out.Documents[i] = item
	}
	return out
}

func usageResponse(r *domusage.Report) UsageResponse {
	b := r.Budget()
	return UsageResponse{
		Period:           string(r.Period()),
		PeriodStartAt:    time.UnixMilli(r.PeriodStart()).UTC(),
		PeriodEndAt:      time.UnixMilli(r.PeriodEnd()).UTC(),
		EmbeddingTokens:  r.EmbeddingTokens(),
		CompletionTokens: r.CompletionTokens(),
		Budget: BudgetResponse{
			TokensLimit:     b.TokensLimit,
			TokensRemaining: b.TokensRemaining,
			IsExhausted:     b.IsExhausted,
			ResetsAt:        time.UnixMilli(b.ResetsAt).UTC(),
		},
	}
}
