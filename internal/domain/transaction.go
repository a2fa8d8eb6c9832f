package domain

// SpendingRecord is one raw transaction record as submitted by callers of the
// prediction endpoints. Records arrive loosely typed: Amount may be a JSON
// number or a numeric string, Category may be missing or null. The normalizer
// in internal/predict owns coercion and drops what it cannot parse.
type SpendingRecord struct {
	Date     string `json:"date"`
	Category string `json:"category,omitempty"`
	Amount   any    `json:"amount"`
	UserID   int    `json:"user_id,omitempty"`
}

// CategoryPrediction is one per-category entry of a prediction response.
type CategoryPrediction struct {
	Category        string  `json:"category"`
	PredictedAmount float64 `json:"predicted_amount"`
	Confidence      float64 `json:"confidence"`
}

// Prediction methods reported in the response contract.
const (
	MethodLSTM  = "lstm_model"
	MethodTrend = "trend_analysis"
)

// PredictionResult is the uniform output contract of the prediction
// orchestrator. Both the sequence-model path and the trend-fallback path
// produce exactly one entry per fixed category, in Categories order.
type PredictionResult struct {
	Success     bool                 `json:"success"`
	Predictions []CategoryPrediction `json:"predictions"`
	Method      string               `json:"method,omitempty"`
	TargetMonth int                  `json:"target_month,omitempty"`
	TargetYear  int                  `json:"target_year,omitempty"`
	Error       string               `json:"error,omitempty"`
}

// CategorizationResult is the response of the transaction categorizer.
// Method is one of rule_based, ml_model, fallback or error_fallback.
type CategorizationResult struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method"`
}

// RetrainResult is returned by the retrain endpoints. NewSamples counts the
// records that survived normalization, not the raw submission.
type RetrainResult struct {
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	NewSamples int    `json:"new_samples"`
	JobID      string `json:"job_id,omitempty"`
	Error      string `json:"error,omitempty"`
}
