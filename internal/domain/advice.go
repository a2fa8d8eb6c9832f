package domain

// CategorySpending is one current-month spending aggregate as supplied by the
// caller of the advice endpoints.
type CategorySpending struct {
	Category string `json:"category"`
	Total    any    `json:"total"`
}

// Budget is one per-category budget limit supplied by the caller.
type Budget struct {
	Category    string `json:"category"`
	LimitAmount any    `json:"limit_amount"`
}

// AdviceRequest is the request body of the advice endpoints.
type AdviceRequest struct {
	CurrentSpending       []CategorySpending            `json:"current_spending"`
	MonthlySpending       map[string]map[string]float64 `json:"monthly_spending"`
	Budgets               []Budget                      `json:"budgets"`
	Predictions           []CategoryPrediction          `json:"predictions"`
	UserID                int                           `json:"user_id"`
	AnalysisPeriodMonths  int                           `json:"analysis_period_months"`
}

// Recommendation is one actionable recommendation inside generated advice.
type Recommendation struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	Priority         string `json:"priority"`
	PotentialSavings string `json:"potential_savings"`
}

// Advice is the structured advice payload produced by the language model (or
// the static fallback when the model is unavailable).
type Advice struct {
	Summary          string           `json:"summary"`
	Concerns         []string         `json:"concerns"`
	Recommendations  []Recommendation `json:"recommendations"`
	PositiveFeedback []string         `json:"positive_feedback"`
	ConfidenceScore  float64          `json:"confidence_score"`
	NextSteps        []string         `json:"next_steps"`
}

// AdviceResult is the blocking advice endpoint response.
type AdviceResult struct {
	Success     bool   `json:"success"`
	Advice      Advice `json:"advice"`
	RawResponse string `json:"raw_response,omitempty"`
	GeneratedAt string `json:"generated_at,omitempty"`
	Error       string `json:"error,omitempty"`
}

// CategoryAdviceResult is the response of the per-category advice helper.
type CategoryAdviceResult struct {
	Success         bool     `json:"success"`
	Category        string   `json:"category"`
	Recommendations []string `json:"recommendations"`
	Error           string   `json:"error,omitempty"`
}

// Stream event types emitted by the advice streaming endpoint.
const (
	StreamChunk    = "chunk"
	StreamComplete = "complete"
	StreamError    = "error"
)

// StreamEvent is one server-push event of the advice streaming endpoint.
type StreamEvent struct {
	Type    string  `json:"type"`
	Text    string  `json:"text,omitempty"`
	Partial bool    `json:"partial,omitempty"`
	Advice  *Advice `json:"advice,omitempty"`
	Success *bool   `json:"success,omitempty"`
	Error   string  `json:"error,omitempty"`
}
