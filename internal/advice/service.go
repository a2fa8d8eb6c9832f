package advice

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/apetrov/finsight/internal/domain"
	"github.com/apetrov/finsight/internal/llm"
)

// generator is the slice of the LLM client the advice service needs.
type generator interface {
	Generate(ctx context.Context, models []string, parts []*genai.Part) (string, error)
	GenerateStream(ctx context.Context, models []string, parts []*genai.Part, emit func(text string) error) (string, error)
}

// Service generates financial advice from spending analysis via a language
// model, in blocking and streaming form. With no model configured every call
// degrades to the static fallback advice.
type Service struct {
	gen    generator
	models []string
	log    zerolog.Logger
	now    func() time.Time
}

// New creates an advice service. gen may be nil when no API key is
// configured.
func New(gen generator, models []string, log zerolog.Logger) *Service {
	return &Service{gen: gen, models: models, log: log, now: time.Now}
}

// Ready reports whether a text model is configured.
func (s *Service) Ready() bool {
	return s.gen != nil
}

// Generate produces advice for the request, blocking until the model
// answers. Model failure yields the static fallback with success=false.
func (s *Service) Generate(ctx context.Context, req domain.AdviceRequest) domain.AdviceResult {
	if s.gen == nil {
		return domain.AdviceResult{
			Error:  "advice model is not configured",
			Advice: FallbackAdvice(),
		}
	}

	prompt := advicePrompt(prepareAnalysis(req))
	raw, err := s.gen.Generate(ctx, s.models, []*genai.Part{{Text: prompt}})
	if err != nil {
		s.log.Error().Err(err).Msg("Advice generation failed")
		return domain.AdviceResult{
			Error:  err.Error(),
			Advice: FallbackAdvice(),
		}
	}

	return domain.AdviceResult{
		Success:     true,
		Advice:      parseAdvice(raw),
		RawResponse: raw,
		GeneratedAt: s.now().Format(time.RFC3339),
	}
}

// Stream generates advice incrementally, emitting a chunk event per model
// fragment and a final complete event carrying the parsed advice. A dead
// model produces a complete event with the fallback advice and success=false
// rather than an error event; error events are reserved for faults inside
// the stream itself.
func (s *Service) Stream(ctx context.Context, req domain.AdviceRequest, emit func(domain.StreamEvent) error) error {
	if s.gen == nil {
		success := false
		fallback := FallbackAdvice()
		return emit(domain.StreamEvent{Type: domain.StreamComplete, Advice: &fallback, Success: &success})
	}

	prompt := advicePrompt(prepareAnalysis(req))
	full, err := s.gen.GenerateStream(ctx, s.models, []*genai.Part{{Text: prompt}}, func(text string) error {
		return emit(domain.StreamEvent{Type: domain.StreamChunk, Text: text, Partial: true})
	})

	if err != nil && full == "" {
		s.log.Error().Err(err).Msg("Advice stream produced no text")
		success := false
		fallback := FallbackAdvice()
		return emit(domain.StreamEvent{Type: domain.StreamComplete, Advice: &fallback, Success: &success})
	}
	if err != nil {
		// emit itself failed; the consumer is gone.
		return err
	}

	success := true
	parsed := parseAdvice(full)
	return emit(domain.StreamEvent{Type: domain.StreamComplete, Advice: &parsed, Success: &success})
}

// CategoryAdvice asks the model for recommendations scoped to one category,
// with canned recommendations when the model output is unusable.
func (s *Service) CategoryAdvice(ctx context.Context, category string, spendingAmount float64, budgetLimit *float64) domain.CategoryAdviceResult {
	canned := []string{
		"Consider reviewing your " + category + " spending patterns",
		"Look for ways to optimize your " + category + " expenses",
		"Set specific goals for " + category + " spending",
	}

	if s.gen == nil {
		return domain.CategoryAdviceResult{
			Category:        category,
			Error:           "advice model is not configured",
			Recommendations: canned,
		}
	}

	prompt := categoryPrompt(category, spendingAmount, budgetLimit)
	raw, err := s.gen.Generate(ctx, s.models, []*genai.Part{{Text: prompt}})
	if err != nil {
		return domain.CategoryAdviceResult{
			Category:        category,
			Error:           err.Error(),
			Recommendations: canned,
		}
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(llm.CleanJSON(raw)), &parsed); err != nil {
		return domain.CategoryAdviceResult{Success: true, Category: category, Recommendations: canned}
	}
	recommendations := llm.Strs(parsed, "recommendations")
	if len(recommendations) == 0 {
		recommendations = canned
	}
	return domain.CategoryAdviceResult{Success: true, Category: category, Recommendations: recommendations}
}
