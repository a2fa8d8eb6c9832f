package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/apetrov/finsight/internal/api/middleware"
	"github.com/apetrov/finsight/internal/domain"
)

// adviser is the slice of the advice service the handler needs.
type adviser interface {
	Generate(ctx context.Context, req domain.AdviceRequest) domain.AdviceResult
	Stream(ctx context.Context, req domain.AdviceRequest, emit func(domain.StreamEvent) error) error
}

// AdviceHandler handles financial advice endpoints.
type AdviceHandler struct {
	svc adviser
	log zerolog.Logger
}

// NewAdviceHandler creates a new advice handler.
func NewAdviceHandler(svc adviser, log zerolog.Logger) *AdviceHandler {
	return &AdviceHandler{svc: svc, log: log}
}

// Advice handles POST /api/advice
func (h *AdviceHandler) Advice(w http.ResponseWriter, r *http.Request) {
	var req domain.AdviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result := h.svc.Generate(r.Context(), req)
	middleware.WriteJSON(w, http.StatusOK, result)
}

// AdviceStream handles POST /api/advice/stream
// Events go out as server-sent events, one "data: <json>" frame per event.
func (h *AdviceHandler) AdviceStream(w http.ResponseWriter, r *http.Request) {
	var req domain.AdviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		middleware.WriteError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	emit := func(event domain.StreamEvent) error {
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("encode stream event: %w", err)
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	if err := h.svc.Stream(r.Context(), req, emit); err != nil {
		h.log.Error().Err(err).Msg("Advice stream aborted")
		// Best effort: the consumer may already be gone.
		data, _ := json.Marshal(domain.StreamEvent{Type: domain.StreamError, Error: err.Error()})
		fmt.Fprintf(w, "data: %s\n\n", data)
		flusher.Flush()
	}
}
