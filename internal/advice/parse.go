package advice

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/apetrov/finsight/internal/domain"
	"github.com/apetrov/finsight/internal/llm"
)

// parseAdvice turns raw model output into structured advice. Strict JSON is
// preferred; missing fields get defaults, and responses that are not JSON at
// all go through heuristic text extraction.
func parseAdvice(raw string) domain.Advice {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(llm.CleanJSON(raw)), &parsed); err != nil {
		return extractAdviceFromText(raw)
	}

	advice := domain.Advice{
		Summary:          llm.Str(parsed, "summary"),
		Concerns:         llm.Strs(parsed, "concerns"),
		PositiveFeedback: llm.Strs(parsed, "positive_feedback"),
		NextSteps:        llm.Strs(parsed, "next_steps"),
	}
	if score, ok := llm.Num(parsed, "confidence_score"); ok {
		advice.ConfidenceScore = score
	} else {
		advice.ConfidenceScore = 50
	}

	for _, rec := range llm.Maps(parsed, "recommendations") {
		advice.Recommendations = append(advice.Recommendations, domain.Recommendation{
			Title:            llm.Str(rec, "title"),
			Description:      llm.Str(rec, "description"),
			Priority:         llm.Str(rec, "priority"),
			PotentialSavings: llm.Str(rec, "potential_savings"),
		})
	}

	applyDefaults(&advice)
	return advice
}

func applyDefaults(advice *domain.Advice) {
	if advice.Summary == "" {
		advice.Summary = "Unable to analyze financial data at this time."
	}
	if len(advice.Concerns) == 0 {
		advice.Concerns = []string{"Unable to identify specific concerns"}
	}
	if len(advice.Recommendations) == 0 {
		advice.Recommendations = []domain.Recommendation{{
			Title:            "Review your spending",
			Description:      "Take time to review your recent transactions and identify areas for improvement.",
			Priority:         "medium",
			PotentialSavings: "Variable",
		}}
	}
	if len(advice.PositiveFeedback) == 0 {
		advice.PositiveFeedback = []string{"You are actively tracking your finances, which is a great start!"}
	}
	if len(advice.NextSteps) == 0 {
		advice.NextSteps = []string{"Continue monitoring your spending patterns"}
	}
}

var (
	summaryPattern = regexp.MustCompile(`(?s)^(.+?)(\n\n|\n[A-Z]|$)`)
	listPattern    = regexp.MustCompile(`(?m)(?:^|\n)(?:\d+\.|\*|-)\s*(.+?)(?:\n|$)`)
)

var concernKeywords = []string{"over budget", "exceed", "high spending", "concern", "warning"}

// extractAdviceFromText scrapes what it can from an unstructured response:
// the first paragraph becomes the summary, concern keywords become concerns
// and list items become recommendations, capped at five.
func extractAdviceFromText(text string) domain.Advice {
	summary := "Financial analysis completed."
	if m := summaryPattern.FindStringSubmatch(strings.TrimSpace(text)); m != nil {
		summary = strings.TrimSpace(m[1])
	}

	var concerns []string
	lower := strings.ToLower(text)
	for _, keyword := range concernKeywords {
		if strings.Contains(lower, keyword) {
			concerns = append(concerns, "Potential issue detected: "+keyword)
		}
	}

	var recommendations []domain.Recommendation
	for i, m := range listPattern.FindAllStringSubmatch(text, 5) {
		recommendations = append(recommendations, domain.Recommendation{
			Title:            fmt.Sprintf("Recommendation %d", i+1),
			Description:      strings.TrimSpace(m[1]),
			Priority:         "medium",
			PotentialSavings: "Variable",
		})
	}
	if len(recommendations) == 0 {
		recommendations = []domain.Recommendation{{
			Title:            "Review Spending Patterns",
			Description:      "Analyze your spending habits and identify areas for improvement.",
			Priority:         "medium",
			PotentialSavings: "Variable",
		}}
	}
	if len(concerns) == 0 {
		concerns = []string{"No specific concerns identified"}
	}

	return domain.Advice{
		Summary:          summary,
		Concerns:         concerns,
		Recommendations:  recommendations,
		PositiveFeedback: []string{"You are taking steps to manage your finances effectively."},
		ConfidenceScore:  60,
		NextSteps:        []string{"Continue tracking your expenses and reviewing your budget regularly."},
	}
}

// FallbackAdvice is the static advice served when no model is reachable.
func FallbackAdvice() domain.Advice {
	return domain.Advice{
		Summary: "Your financial data has been analyzed. Here are some general recommendations to help improve your financial health.",
		Concerns: []string{
			"Unable to analyze specific concerns at this time",
		},
		Recommendations: []domain.Recommendation{
			{
				Title:            "Track Your Expenses",
				Description:      "Continue recording all your transactions to get better insights into your spending patterns.",
				Priority:         "high",
				PotentialSavings: "Helps identify saving opportunities",
			},
			{
				Title:            "Review Your Budget",
				Description:      "Regularly check your budget against actual spending to ensure you stay on track.",
				Priority:         "high",
				PotentialSavings: "Prevents overspending",
			},
			{
				Title:            "Set Financial Goals",
				Description:      "Define clear financial objectives to stay motivated and focused.",
				Priority:         "medium",
				PotentialSavings: "Long-term financial improvement",
			},
		},
		PositiveFeedback: []string{"You are actively managing your finances by using this platform."},
		ConfidenceScore:  40,
		NextSteps:        []string{"Continue using the platform regularly for better insights."},
	}
}
