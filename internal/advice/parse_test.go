package advice

import (
	"strings"
	"testing"
)

func TestParseAdvice_StrictJSON(t *testing.T) {
	raw := "```json\n" + `{
		"summary": "Spending is trending up.",
		"concerns": ["food is over budget"],
		"recommendations": [
			{"title": "Cook at home", "description": "Reduce dining out.", "priority": "high", "potential_savings": "₹2000"}
		],
		"positive_feedback": ["Travel spending dropped"],
		"confidence_score": 85,
		"next_steps": ["Set a food budget"]
	}` + "\n```"

	advice := parseAdvice(raw)
	if advice.Summary != "Spending is trending up." {
		t.Errorf("summary = %q", advice.Summary)
	}
	if advice.ConfidenceScore != 85 {
		t.Errorf("confidence = %v, want 85", advice.ConfidenceScore)
	}
	if len(advice.Recommendations) != 1 || advice.Recommendations[0].Title != "Cook at home" {
		t.Errorf("recommendations = %+v", advice.Recommendations)
	}
	if len(advice.Concerns) != 1 || len(advice.PositiveFeedback) != 1 || len(advice.NextSteps) != 1 {
		t.Errorf("list fields not carried through: %+v", advice)
	}
}

func TestParseAdvice_MissingFieldsGetDefaults(t *testing.T) {
	advice := parseAdvice(`{"summary": "All good."}`)

	if advice.Summary != "All good." {
		t.Errorf("summary = %q", advice.Summary)
	}
	if advice.ConfidenceScore != 50 {
		t.Errorf("confidence = %v, want default 50", advice.ConfidenceScore)
	}
	if len(advice.Concerns) == 0 || len(advice.Recommendations) == 0 ||
		len(advice.PositiveFeedback) == 0 || len(advice.NextSteps) == 0 {
		t.Errorf("defaults not applied: %+v", advice)
	}
}

func TestParseAdvice_TextExtraction(t *testing.T) {
	raw := `Your finances look mostly healthy, but food spending is a concern.

Here is what I suggest:
1. Cut food delivery to twice a week
2. Move subscriptions to annual billing
* Review your utilities provider`

	advice := parseAdvice(raw)
	if !strings.Contains(advice.Summary, "finances look mostly healthy") {
		t.Errorf("summary = %q", advice.Summary)
	}
	if advice.ConfidenceScore != 60 {
		t.Errorf("confidence = %v, want 60", advice.ConfidenceScore)
	}
	if len(advice.Recommendations) != 3 {
		t.Fatalf("got %d recommendations, want 3", len(advice.Recommendations))
	}
	if advice.Recommendations[0].Description != "Cut food delivery to twice a week" {
		t.Errorf("first recommendation = %q", advice.Recommendations[0].Description)
	}

	// "concern" keyword appears in the text.
	found := false
	for _, c := range advice.Concerns {
		if strings.Contains(c, "concern") {
			found = true
		}
	}
	if !found {
		t.Errorf("keyword concern not detected: %v", advice.Concerns)
	}
}

func TestParseAdvice_TextExtractionCapsAtFive(t *testing.T) {
	raw := "Summary line.\n\n1. a\n2. b\n3. c\n4. d\n5. e\n6. f\n7. g"
	advice := parseAdvice(raw)
	if len(advice.Recommendations) != 5 {
		t.Errorf("got %d recommendations, want cap of 5", len(advice.Recommendations))
	}
}

func TestParseAdvice_NoListFallsBackToDefault(t *testing.T) {
	advice := parseAdvice("Just some prose with no structure at all")
	if len(advice.Recommendations) != 1 || advice.Recommendations[0].Title != "Review Spending Patterns" {
		t.Errorf("recommendations = %+v", advice.Recommendations)
	}
	if advice.Concerns[0] != "No specific concerns identified" {
		t.Errorf("concerns = %v", advice.Concerns)
	}
}

func TestFallbackAdvice(t *testing.T) {
	advice := FallbackAdvice()
	if advice.ConfidenceScore != 40 {
		t.Errorf("confidence = %v, want 40", advice.ConfidenceScore)
	}
	if len(advice.Recommendations) != 3 {
		t.Errorf("got %d recommendations, want 3", len(advice.Recommendations))
	}
}
