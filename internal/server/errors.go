package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dyluth/roster/internal/render"
	"github.com/dyluth/roster/internal/schema"
	"github.com/dyluth/roster/pkg/roster"
)

// Error codes returned in the "error" field.
const (
	CodeSchemaViolation     = "schema_violation"
	CodeInvalidEntry        = "invalid_entry"
	CodePositionTaken       = "position_taken"
	CodeNotFound            = "not_found"
	CodeStoreUnavailable    = "store_unavailable"
	CodeDuplicatePosition   = "duplicate_position"
	CodeUnsupportedProtocol = "unsupported_protocol_version"
	CodeInternal            = "internal_error"
)

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error            string             `json:"error"`
	ErrorDescription string             `json:"error_description,omitempty"`
	Violations       []schema.Violation `json:"violations,omitempty"`
}

// writeError translates domain errors to HTTP responses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr        *schema.ViolationError
		dup         *roster.DuplicatePositionError
		unsupported *render.UnsupportedProtocolVersionError
	)

	switch {
	case errors.As(err, &verr):
		writeErrorBody(w, http.StatusUnprocessableEntity, errorResponse{
			Error:            CodeSchemaViolation,
			ErrorDescription: "entry does not match the registry schema",
			Violations:       verr.Violations,
		})
	case errors.Is(err, roster.ErrInvalidEntry):
		writeErrorBody(w, http.StatusUnprocessableEntity, errorResponse{Error: CodeInvalidEntry, ErrorDescription: err.Error()})
	case errors.Is(err, roster.ErrPositionTaken):
		writeErrorBody(w, http.StatusConflict, errorResponse{Error: CodePositionTaken, ErrorDescription: err.Error()})
	case errors.Is(err, roster.ErrNotFound):
		writeErrorBody(w, http.StatusNotFound, errorResponse{Error: CodeNotFound, ErrorDescription: err.Error()})
	case errors.As(err, &unsupported):
		writeErrorBody(w, http.StatusBadRequest, errorResponse{Error: CodeUnsupportedProtocol, ErrorDescription: err.Error()})
	case errors.As(err, &dup):
		s.metrics.IncrementStoreErrors(CodeDuplicatePosition)
		writeErrorBody(w, http.StatusInternalServerError, errorResponse{Error: CodeDuplicatePosition, ErrorDescription: err.Error()})
	case errors.Is(err, roster.ErrUnavailable):
		s.metrics.IncrementStoreErrors("unavailable")
		writeErrorBody(w, http.StatusServiceUnavailable, errorResponse{
			Error:            CodeStoreUnavailable,
			ErrorDescription: "the registry is temporarily unavailable",
		})
	default:
		s.logger.ErrorContext(r.Context(), "unhandled error", "error", err)
		writeErrorBody(w, http.StatusInternalServerError, errorResponse{Error: CodeInternal})
	}
}

func writeErrorBody(w http.ResponseWriter, status int, body errorResponse) {
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
