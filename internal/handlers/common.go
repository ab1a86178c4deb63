package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/ocrgate/internal/models"
	"github.com/lehigh-university-libraries/ocrgate/internal/ocr"
)

type Handler struct {
	ocrService *ocr.Service
}

type errorResponse struct {
	Error string `json:"error"`
}

func New(ocrService *ocr.Service) *Handler {
	return &Handler{
		ocrService: ocrService,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, code int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(body); err != nil {
		slog.Error("Unable to write JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message, "status", code)
	} else {
		slog.Warn(message, "status", code)
	}
	h.writeJSON(w, code, errorResponse{Error: message})
}

// writeFailure maps an error from the OCR pipeline onto a status code and
// the single error string clients display verbatim.
func (h *Handler) writeFailure(w http.ResponseWriter, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		h.writeError(w, verr.Message, http.StatusBadRequest)
	case errors.Is(err, ocr.ErrUnavailable):
		slog.Error("OCR service unavailable", "err", err)
		h.writeError(w, ocr.ErrUnavailable.Error(), http.StatusInternalServerError)
	default:
		h.writeError(w, "An error occurred during text extraction: "+err.Error(), http.StatusInternalServerError)
	}
}
