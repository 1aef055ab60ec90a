// Package chi is the HTTP transport of the service.
package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docmind/internal/domain"
	domarxiv "github.com/kailas-cloud/docmind/internal/domain/arxiv"
	domdoc "github.com/kailas-cloud/docmind/internal/domain/document"
	domusage "github.com/kailas-cloud/docmind/internal/domain/usage"
	batchuc "github.com/kailas-cloud/docmind/internal/usecase/batch"
	healthuc "github.com/kailas-cloud/docmind/internal/usecase/health"
)

const defaultMaxUploadBytes = 50 << 20

// Server holds the HTTP handlers.
type Server struct {
	documents      DocumentService
	uploads        UploadService
	arxiv          ArxivService
	usage          UsageService
	health         HealthService
	logger         *zap.Logger
	maxUploadBytes int64
	maxBatchSize   int
}

// NewServer creates an HTTP API server.
func NewServer(
	documents DocumentService,
	uploads UploadService,
	arxiv ArxivService,
	usage UsageService,
	health HealthService,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		documents:      documents,
		uploads:        uploads,
		arxiv:          arxiv,
		usage:          usage,
		health:         health,
		logger:         logger,
		maxUploadBytes: defaultMaxUploadBytes,
		maxBatchSize:   batchuc.MaxBatchSize,
	}
}

// WithMaxUploadBytes bounds the upload request body.
func (s *Server) WithMaxUploadBytes(n int64) *Server {
	if n > 0 {
		s.maxUploadBytes = n
	}
	return s
}

// WithMaxBatchSize caps the number of files read from a multipart upload.
// It should match the upload service's batch limit.
func (s *Server) WithMaxBatchSize(n int) *Server {
	if n > 0 {
		s.maxBatchSize = n
	}
	return s
}

// Routes mounts every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/upload", s.Upload)
	r.Post("/query", s.Query)
	r.Get("/documents", s.ListDocuments)
	r.Get("/documents/{id}", s.GetDocument)
	r.Delete("/documents/{id}", s.DeleteDocument)
	r.Post("/documents/{id}/summary", s.SummarizeDocument)
	r.Get("/documents/{id}/metrics", s.DocumentMetrics)
	r.Post("/arxiv/search", s.ArxivSearch)
	r.Post("/arxiv/import", s.ArxivImport)
	r.Get("/health", s.HealthCheck)
	r.Get("/usage", s.GetUsage)
	r.Get("/metrics", s.Metrics)
}

// Query handles POST /query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	ans, err := s.documents.Query(ctx, req.Question, req.DocumentIDs, req.TopK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, answerResponse(&ans))
}

// ListDocuments handles GET /documents.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.documents.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	resp := DocumentListResponse{Items: make([]DocumentSummary, len(docs)), Total: len(docs)}
	for i := range docs {
		resp.Items[i] = documentSummary(&docs[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetDocument handles GET /documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := documentID(w, r)
	if !ok {
		return
	}
	doc, err := s.documents.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, documentResponse(&doc))
}

// DeleteDocument handles DELETE /documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := documentID(w, r)
	if !ok {
		return
	}
	if err := s.documents.Delete(r.Context(), id); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SummarizeDocument handles POST /documents/{id}/summary.
func (s *Server) SummarizeDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := documentID(w, r)
	if !ok {
		return
	}
	ctx, usage := domain.NewContextWithUsage(r.Context())
	sum, err := s.documents.Summary(ctx, id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	setUsageHeaders(w, usage)
	writeJSON(w, http.StatusOK, SummaryResponse{
		DocumentID: sum.DocumentID,
		Title:      sum.Title,
		Summary:    sum.Text,
		Model:      sum.Model,
	})
}

// DocumentMetrics handles GET /documents/{id}/metrics.
func (s *Server) DocumentMetrics(w http.ResponseWriter, r *http.Request) {
	id, ok := documentID(w, r)
	if !ok {
		return
	}
	ms, err := s.documents.Metrics(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, metricsResponse(id, ms))
}

// ArxivSearch handles POST /arxiv/search.
func (s *Server) ArxivSearch(w http.ResponseWriter, r *http.Request) {
	var req ArxivSearchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	page, err := s.arxiv.Search(r.Context(), req.Query, req.Page, req.PageSize)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if page.Records == nil {
		page.Records = []domarxiv.Record{}
	}
	writeJSON(w, http.StatusOK, ArxivSearchResponse{Page: page, HasMore: page.HasMore()})
}

// ArxivImport handles POST /arxiv/import.
func (s *Server) ArxivImport(w http.ResponseWriter, r *http.Request) {
	var req ArxivImportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Record == nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "record is required")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.arxiv.Import(ctx, *req.Record)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	setUsageHeaders(w, usage)

	status := http.StatusCreated
	if res.Replaced {
		status = http.StatusOK
	}
	w.Header().Set("Location", "/documents/"+res.Document.ID())
	writeJSON(w, status, ArxivImportResponse{Document: documentSummary(&res.Document), Replaced: res.Replaced})
}

// GetUsage handles GET /usage?period=day|month.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	period := domusage.PeriodMonth
	if p := r.URL.Query().Get("period"); p != "" {
		period = domusage.Period(p)
		if !period.IsValid() {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "period must be \"day\" or \"month\"")
			return
		}
	}
	report := s.usage.GetReport(r.Context(), period)
	writeJSON(w, http.StatusOK, usageResponse(&report))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// documentID binds and validates the {id} path parameter.
func documentID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid document id")
		return "", false
	}
	if err := domdoc.ValidateID(id); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return "", false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		msg := "invalid request body"
		if errors.Is(err, io.EOF) {
			msg = "request body is empty"
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, msg)
		return false
	}
	return true
}

func setUsageHeaders(w http.ResponseWriter, usage *domain.RequestUsage) {
	if !usage.Used() {
		return
	}
	w.Header().Set("X-Embedding-Tokens", strconv.FormatInt(usage.EmbeddingTokens(), 10))
	w.Header().Set("X-Completion-Tokens", strconv.FormatInt(usage.CompletionTokens(), 10))
}
