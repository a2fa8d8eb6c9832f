package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/apetrov/finsight/internal/api/middleware"
	"github.com/apetrov/finsight/internal/domain"
)

const maxUploadBytes = 32 << 20

// extractor is the slice of the OCR service the handler needs.
type extractor interface {
	ExtractReceipt(ctx context.Context, filename string, file io.Reader) domain.ReceiptResult
}

// OCRHandler handles receipt extraction endpoints.
type OCRHandler struct {
	svc extractor
	log zerolog.Logger
}

// NewOCRHandler creates a new OCR handler.
func NewOCRHandler(svc extractor, log zerolog.Logger) *OCRHandler {
	return &OCRHandler{svc: svc, log: log}
}

// Extract handles POST /api/ocr/extract
// Accepts a multipart upload under the "file" field.
func (h *OCRHandler) Extract(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	result := h.svc.ExtractReceipt(r.Context(), header.Filename, file)
	middleware.WriteJSON(w, http.StatusOK, result)
}
