package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/romaneio-sheets/internal/common"
	"github.com/joseph-ayodele/romaneio-sheets/internal/export"
	"github.com/joseph-ayodele/romaneio-sheets/internal/romaneio"
	"github.com/joseph-ayodele/romaneio-sheets/internal/services/documents"
	"github.com/joseph-ayodele/romaneio-sheets/internal/services/history"
	"github.com/joseph-ayodele/romaneio-sheets/internal/utils"
)

// UploadField is the multipart form field carrying the documents.
const UploadField = "files"

// HealthFunc reports whether the daemon's dependencies are reachable.
type HealthFunc func(r *http.Request) error

// HTTPHandler serves the upload/download surface.
type HTTPHandler struct {
	docs      *documents.Service
	export    *export.Service
	maxUpload int64
	health    HealthFunc
	logger    *slog.Logger
}

func NewHTTPHandler(docs *documents.Service, exp *export.Service, maxUpload int64, health HealthFunc, logger *slog.Logger) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUpload <= 0 {
		maxUpload = 32 << 20
	}
	return &HTTPHandler{docs: docs, export: exp, maxUpload: maxUpload, health: health, logger: logger}
}

// Router returns the chi router with all routes mounted.
func (h *HTTPHandler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)

	r.Get("/healthz", h.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/schema", h.handleSchema)
		r.Post("/romaneios", h.handleParse)
		r.Post("/romaneios/xlsx", h.handleXLSX)
		r.Get("/runs", h.handleListRuns)
		r.Get("/runs/{id}", h.handleGetRun)
		r.Get("/runs/{id}/records", h.handleRunRecords)
		r.Get("/runs/{id}/xlsx", h.handleRunXLSX)
	})
	return r
}

func (h *HTTPHandler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		reqID := middleware.GetReqID(r.Context())
		next.ServeHTTP(ww, r.WithContext(common.WithRequestID(r.Context(), reqID)))
		h.logger.Info("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"request_id", reqID,
			"duration", time.Since(start),
		)
	})
}

func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) handleSchema(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, romaneio.RecordJSONSchema())
}

// readUploads pulls every part of the "files" field, in form order.
func (h *HTTPHandler) readUploads(w http.ResponseWriter, r *http.Request) ([]documents.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, fmt.Errorf("%w: upload exceeds %d bytes", common.ErrInvalidInput, h.maxUpload)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			h.logger.Warn("http.upload.cleanup_failed", "error", err)
		}
	}()

	files := r.MultipartForm.File[UploadField]
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no %q parts in form", common.ErrInvalidInput, UploadField)
	}
	out := make([]documents.Upload, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open part %q: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("read part %q: %w", fh.Filename, err)
		}
		out = append(out, documents.Upload{Name: fh.Filename, Data: data})
	}
	return out, nil
}

func (h *HTTPHandler) parse(w http.ResponseWriter, r *http.Request) (*documents.Outcome, error) {
	uploads, err := h.readUploads(w, r)
	if err != nil {
		return nil, err
	}
	return h.docs.ParseUploads(r.Context(), history.OriginHTTP, uploads)
}

func (h *HTTPHandler) handleParse(w http.ResponseWriter, r *http.Request) {
	out, err := h.parse(w, r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, utils.NewBatchView(out.RunID, out.Batch))
}

func (h *HTTPHandler) handleXLSX(w http.ResponseWriter, r *http.Request) {
	out, err := h.parse(w, r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	records := out.Batch.Records()
	if len(records) == 0 {
		writeJSON(w, http.StatusUnprocessableEntity, utils.NewBatchView(out.RunID, out.Batch))
		return
	}
	h.writeXLSX(w, out.RunID, records)
}

func (h *HTTPHandler) handleListRuns(w http.ResponseWriter, r *http.Request) {
	req := utils.ListRunsRequest{}
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			h.writeError(w, fmt.Errorf("%w: limit must be an integer", common.ErrInvalidInput))
			return
		}
		req.Limit = n
	}
	limit, err := req.Normalize()
	if err != nil {
		h.writeError(w, err)
		return
	}
	runs, err := h.docs.History().ListRuns(r.Context(), limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, utils.NewRunsView(runs))
}

func (h *HTTPHandler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := utils.RunRequest{ID: chi.URLParam(r, "id")}.RunID()
	if err != nil {
		h.writeError(w, err)
		return
	}
	view, err := runDetail(r.Context(), h.docs.History(), id, false)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *HTTPHandler) handleRunRecords(w http.ResponseWriter, r *http.Request) {
	id, err := utils.RunRequest{ID: chi.URLParam(r, "id")}.RunID()
	if err != nil {
		h.writeError(w, err)
		return
	}
	records, err := h.docs.History().RunRecords(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := export.WriteJSON(w, records); err != nil {
		h.logger.Warn("http.write_failed", "error", err)
	}
}

func (h *HTTPHandler) handleRunXLSX(w http.ResponseWriter, r *http.Request) {
	id, err := utils.RunRequest{ID: chi.URLParam(r, "id")}.RunID()
	if err != nil {
		h.writeError(w, err)
		return
	}
	records, err := h.docs.History().RunRecords(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeXLSX(w, id, records)
}

func (h *HTTPHandler) writeXLSX(w http.ResponseWriter, runID uuid.UUID, records []romaneio.NoteRecord) {
	data, err := h.export.WriteXLSX(records)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", export.XLSXContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.DownloadName(records)))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if runID != uuid.Nil {
		w.Header().Set("X-Run-Id", runID.String())
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("http.write_failed", "error", err)
	}
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	code := httpStatus(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error("http.request.failed", "error", err)
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrHistoryDisabled):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
