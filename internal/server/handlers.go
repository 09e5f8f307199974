package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dyluth/roster/internal/platform/metrics"
	"github.com/dyluth/roster/internal/render"
	"github.com/dyluth/roster/internal/schema"
	"github.com/dyluth/roster/pkg/roster"
)

// requestedVersion reads the protocol from ?protocol=, then the header.
// An absent version selects the default; a present but unknown one is an error.
func requestedVersion(r *http.Request) (render.ProtocolVersion, error) {
	raw := r.URL.Query().Get("protocol")
	if raw == "" {
		raw = r.Header.Get(ProtocolHeader)
	}
	if raw == "" {
		return render.DefaultVersion(), nil
	}
	return render.ParseProtocolVersion(raw)
}

// handleRegistry handles GET /api/registry.
func (s *Server) handleRegistry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetReqID(ctx)

	version, err := requestedVersion(r)
	if err != nil {
		s.logger.InfoContext(ctx, "rejected protocol version", "request_id", requestID, "error", err)
		s.writeError(w, r, err)
		return
	}

	entries, err := s.query.FetchRegistry(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "registry fetch failed", "request_id", requestID, "error", err)
		s.writeError(w, r, err)
		return
	}

	items, err := render.Render(entries, version)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.metrics.IncrementRenders(version.String())
	w.Header().Set(ProtocolHeader, version.String())
	writeJSON(w, http.StatusOK, items)
}

// handleRaw handles GET /api/registry/raw. Only mounted when explicitly enabled.
func (s *Server) handleRaw(w http.ResponseWriter, r *http.Request) {
	entries, err := s.query.FetchRegistry(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "registry fetch failed",
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleAppend handles POST /api/registry.
func (s *Server) handleAppend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetReqID(ctx)

	candidate, err := decodeObject(w, r)
	if err != nil {
		writeErrorBody(w, http.StatusBadRequest, errorResponse{Error: "invalid_json", ErrorDescription: err.Error()})
		return
	}

	entry, err := s.admin.Append(ctx, candidate)
	if err != nil {
		s.metrics.IncrementAppends(writeResult(err))
		s.logger.WarnContext(ctx, "append rejected", "request_id", requestID, "error", err)
		s.writeError(w, r, err)
		return
	}

	s.metrics.IncrementAppends(metrics.ResultCreated)
	w.Header().Set("Location", fmt.Sprintf("/api/registry/%d", entry.Position))
	writeJSON(w, http.StatusCreated, entry)
}

// handleUpdate handles PATCH /api/registry/{position}.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetReqID(ctx)

	position, err := strconv.Atoi(chi.URLParam(r, "position"))
	if err != nil {
		writeErrorBody(w, http.StatusBadRequest, errorResponse{
			Error:            "invalid_position",
			ErrorDescription: "position must be an integer",
		})
		return
	}

	candidate, err := decodeObject(w, r)
	if err != nil {
		writeErrorBody(w, http.StatusBadRequest, errorResponse{Error: "invalid_json", ErrorDescription: err.Error()})
		return
	}

	entry, err := s.admin.Update(ctx, position, candidate)
	if err != nil {
		s.metrics.IncrementUpdates(writeResult(err))
		s.logger.WarnContext(ctx, "update rejected", "request_id", requestID, "position", position, "error", err)
		s.writeError(w, r, err)
		return
	}

	s.metrics.IncrementUpdates(metrics.ResultUpdated)
	writeJSON(w, http.StatusOK, entry)
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.health.Ping(r.Context()); err != nil {
		s.logger.WarnContext(r.Context(), "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeObject reads a single JSON object, keeping numbers exact.
func decodeObject(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()

	var body any
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("malformed request body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("request body must contain a single JSON object")
	}

	obj, ok := body.(map[string]any)
	if !ok {
		return nil, errors.New("request body must be a JSON object")
	}
	return obj, nil
}

func writeResult(err error) string {
	var verr *schema.ViolationError
	switch {
	case errors.As(err, &verr), errors.Is(err, roster.ErrInvalidEntry):
		return metrics.ResultRejected
	case errors.Is(err, roster.ErrPositionTaken), errors.Is(err, roster.ErrNotFound):
		return metrics.ResultConflict
	default:
		return metrics.ResultStoreDown
	}
}
