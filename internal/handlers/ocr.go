package handlers

import (
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/ocrgate/internal/upload"
)

const readyMessage = "OCR endpoint is working. Please use POST to submit an image."

func (h *Handler) HandleOCR(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.writeJSON(w, http.StatusOK, map[string]string{"message": readyMessage})
	case http.MethodPost:
		h.handleRecognize(w, r)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleRecognize(w http.ResponseWriter, r *http.Request) {
	slog.Info("POST request received", "path", r.URL.Path, "content_type", r.Header.Get("Content-Type"))

	if err := h.ocrService.Available(); err != nil {
		h.writeFailure(w, err)
		return
	}

	img, err := upload.Parse(w, r)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	result, err := h.ocrService.Recognize(r.Context(), img)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleHealthcheck(w http.ResponseWriter, r *http.Request) {
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Unable to write healthcheck", "err", err)
	}
}
