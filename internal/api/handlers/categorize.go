package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/apetrov/finsight/internal/api/middleware"
	"github.com/apetrov/finsight/internal/categorize"
	"github.com/apetrov/finsight/internal/domain"
	"github.com/apetrov/finsight/internal/jobs"
)

// categorizer is the slice of the categorization service the handler needs.
type categorizer interface {
	Categorize(merchant, description string, amount float64) domain.CategorizationResult
	MergeSample(ctx context.Context, sample categorize.Sample) (int, error)
}

// CategorizeHandler handles transaction categorization endpoints.
type CategorizeHandler struct {
	svc       categorizer
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewCategorizeHandler creates a new categorization handler.
func NewCategorizeHandler(svc categorizer, publisher jobs.Publisher, log zerolog.Logger) *CategorizeHandler {
	return &CategorizeHandler{svc: svc, publisher: publisher, log: log}
}

// Categorize handles POST /api/categorize
func (h *CategorizeHandler) Categorize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Merchant    string  `json:"merchant"`
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result := h.svc.Categorize(req.Merchant, req.Description, req.Amount)
	middleware.WriteJSON(w, http.StatusOK, result)
}

// Train handles POST /api/train
// The labelled sample is merged into the training corpus synchronously; the
// actual refit runs on the job queue.
func (h *CategorizeHandler) Train(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Merchant        string  `json:"merchant"`
		Description     string  `json:"description"`
		Amount          float64 `json:"amount"`
		CorrectCategory string  `json:"correct_category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.CorrectCategory == "" {
		middleware.WriteJSON(w, http.StatusOK, domain.RetrainResult{
			Error: "Correct category required",
		})
		return
	}

	ctx := r.Context()
	total, err := h.svc.MergeSample(ctx, categorize.Sample{
		Merchant:    req.Merchant,
		Description: req.Description,
		Amount:      req.Amount,
		Category:    req.CorrectCategory,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to merge training sample")
		middleware.WriteJSON(w, http.StatusOK, domain.RetrainResult{Error: err.Error()})
		return
	}

	job := &jobs.RetrainJob{Kind: jobs.KindCategorizer, Samples: total}
	if err := h.publisher.PublishRetrain(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue categorizer retrain")
		middleware.WriteJSON(w, http.StatusOK, domain.RetrainResult{Error: err.Error()})
		return
	}

	h.log.Info().Str("job_id", job.JobID).Int("samples", total).Msg("Categorizer retrain enqueued")
	middleware.WriteJSON(w, http.StatusAccepted, domain.RetrainResult{
		Success:    true,
		Message:    "Model retrain scheduled",
		NewSamples: total,
		JobID:      job.JobID,
	})
}
