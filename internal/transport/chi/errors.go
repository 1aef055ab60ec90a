package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/docmind/internal/domain"
)

// ErrorCode is a stable machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest             ErrorCode = "bad_request"
	CodeUnauthorized           ErrorCode = "unauthorized"
	CodeValidationFailed       ErrorCode = "validation_failed"
	CodeDocumentNotFound       ErrorCode = "document_not_found"
	CodeNotFound               ErrorCode = "not_found"
	CodeUnsupportedFormat      ErrorCode = "unsupported_format"
	CodeVectorDimMismatch      ErrorCode = "vector_dim_mismatch"
	CodeEmbeddingQuotaExceeded ErrorCode = "embedding_quota_exceeded"
	CodeEmbeddingUnavailable   ErrorCode = "embedding_unavailable"
	CodeGenerationUnavailable  ErrorCode = "generation_unavailable"
	CodeUpstreamUnavailable    ErrorCode = "upstream_unavailable"
	CodeRequestTimeout         ErrorCode = "request_timeout"
	CodeInternalError          ErrorCode = "internal_error"
)

const internalMessage = "internal error"

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorMapping binds a sentinel to its HTTP status and code. Order matters:
// the first match wins, so specific sentinels precede their parents.
type errorMapping struct {
	sentinel error
	status   int
	code     ErrorCode
}

var errorTable = []errorMapping{
	{domain.ErrValidation, http.StatusBadRequest, CodeValidationFailed},
	{domain.ErrDocumentNotFound, http.StatusNotFound, CodeDocumentNotFound},
	{domain.ErrNotFound, http.StatusNotFound, CodeNotFound},
	{domain.ErrUnsupportedFormat, http.StatusUnprocessableEntity, CodeUnsupportedFormat},
	{domain.ErrEmbeddingQuotaExceeded, http.StatusPaymentRequired, CodeEmbeddingQuotaExceeded},
	{domain.ErrEmbeddingUnavailable, http.StatusServiceUnavailable, CodeEmbeddingUnavailable},
	{domain.ErrGenerationUnavailable, http.StatusServiceUnavailable, CodeGenerationUnavailable},
	{domain.ErrUpstreamUnavailable, http.StatusBadGateway, CodeUpstreamUnavailable},
	{domain.ErrVectorDimMismatch, http.StatusInternalServerError, CodeVectorDimMismatch},
}

// classify maps err to a status, code and client-safe message. Validation
// errors carry their reason; everything else gets the sentinel phrase only.
func classify(err error) (int, ErrorCode, string) {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, CodeValidationFailed, ve.Error()
	}
	for _, m := range errorTable {
		if errors.Is(err, m.sentinel) {
			return m.status, m.code, m.sentinel.Error()
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, CodeRequestTimeout, "request timed out"
	}
	return http.StatusInternalServerError, CodeInternalError, internalMessage
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	status, code, msg := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("code", string(code)), zap.Error(err))
	} else {
		s.logger.Warn("domain error", zap.String("code", string(code)), zap.Error(err))
	}
	writeError(w, status, code, msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
