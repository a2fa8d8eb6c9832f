package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/apetrov/finsight/internal/api/middleware"
	"github.com/apetrov/finsight/internal/domain"
	"github.com/apetrov/finsight/internal/jobs"
)

// predictor is the slice of the prediction orchestrator the handler needs.
type predictor interface {
	Predict(records []domain.SpendingRecord, targetMonth, targetYear int) domain.PredictionResult
	MergeCorpus(ctx context.Context, records []domain.SpendingRecord) (int, error)
}

// PredictHandler handles spending prediction endpoints.
type PredictHandler struct {
	svc       predictor
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewPredictHandler creates a new prediction handler.
func NewPredictHandler(svc predictor, publisher jobs.Publisher, log zerolog.Logger) *PredictHandler {
	return &PredictHandler{svc: svc, publisher: publisher, log: log}
}

// Predict handles POST /api/predict
// The orchestrator's contract is total: routing problems and model faults
// come back as success=false payloads, so this always answers 200.
func (h *PredictHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID       int                     `json:"user_id"`
		SpendingData []domain.SpendingRecord `json:"spending_data"`
		TargetMonth  int                     `json:"target_month"`
		TargetYear   int                     `json:"target_year"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result := h.svc.Predict(req.SpendingData, req.TargetMonth, req.TargetYear)
	middleware.WriteJSON(w, http.StatusOK, result)
}

// Retrain handles POST /api/predict/retrain
// New records are merged into the persisted corpus synchronously so the
// reported sample count is exact; the retrain itself runs on the job queue.
func (h *PredictHandler) Retrain(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID       int                     `json:"user_id"`
		SpendingData []domain.SpendingRecord `json:"spending_data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := r.Context()
	merged, err := h.svc.MergeCorpus(ctx, req.SpendingData)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to merge prediction corpus")
		middleware.WriteJSON(w, http.StatusOK, domain.RetrainResult{Error: err.Error()})
		return
	}

	job := &jobs.RetrainJob{Kind: jobs.KindPredictor, Samples: merged}
	if err := h.publisher.PublishRetrain(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue predictor retrain")
		middleware.WriteJSON(w, http.StatusOK, domain.RetrainResult{Error: err.Error()})
		return
	}

	h.log.Info().Str("job_id", job.JobID).Int("new_samples", merged).Msg("Predictor retrain enqueued")
	middleware.WriteJSON(w, http.StatusAccepted, domain.RetrainResult{
		Success:    true,
		Message:    "Model retrain scheduled",
		NewSamples: merged,
		JobID:      job.JobID,
	})
}
