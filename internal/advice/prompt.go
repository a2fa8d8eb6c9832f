package advice

import (
	"encoding/json"
	"fmt"
)

// advicePrompt renders the analysis into the instruction the model answers
// with strict JSON.
func advicePrompt(data analysisData) string {
	months := data.AnalysisPeriodMonths

	currentJSON := mustIndent(data.CurrentSpending)
	monthlyJSON := mustIndent(data.MonthlySpending)
	trendsJSON := mustIndent(data.CategoryTrends)
	budgetJSON := mustIndent(data.BudgetStatus)
	predictionsJSON := mustIndent(data.Predictions)

	return fmt.Sprintf(`You are a personal finance advisor AI. Analyze the following financial data from the last %[1]d months and provide personalized, actionable advice.

CURRENT MONTH SPENDING:
%[2]s

MONTHLY SPENDING BREAKDOWN (Last %[1]d Months):
%[3]s

SPENDING TRENDS BY CATEGORY:
%[4]s

BUDGET STATUS:
%[5]s

NEXT MONTH PREDICTIONS:
%[6]s

SPENDING SUMMARY:
- Current Month Total: ₹%[7].2f
- %[1]d-Month Total: ₹%[8].2f
- Average Monthly Spending: ₹%[9].2f
- Predicted Next Month: ₹%[10].2f

Please provide:
1. A brief summary of their financial situation over the last %[1]d months, highlighting trends and patterns
2. Specific areas of concern (budget overruns, increasing spending trends, high spending categories)
3. 3-5 actionable recommendations to improve their finances based on the %[1]d-month analysis
4. Positive reinforcement for good financial habits or improvements you notice
5. A confidence score (0-100) for your advice based on the data quality

When analyzing trends:
- Identify categories with increasing spending that may need attention
- Note categories with decreasing spending as positive changes
- Compare current month spending to the %[1]d-month average
- Consider seasonal patterns if visible

Format your response as JSON with the following structure:
{
    "summary": "Brief summary of financial situation over the last %[1]d months, including trends",
    "concerns": ["List of specific concerns based on trends and current spending"],
    "recommendations": [
        {
            "title": "Recommendation title",
            "description": "Detailed description based on %[1]d-month analysis",
            "priority": "high/medium/low",
            "potential_savings": "Estimated savings amount"
        }
    ],
    "positive_feedback": ["List of positive observations from the %[1]d-month data"],
    "confidence_score": 85,
    "next_steps": ["Immediate action items based on trends"]
}

Keep advice practical, encouraging, and specific. Focus on actionable steps based on the %[1]d-month spending patterns rather than generic advice.`,
		months, currentJSON, monthlyJSON, trendsJSON, budgetJSON, predictionsJSON,
		data.TotalCurrent, data.TotalPeriod, data.AverageMonthly, data.TotalPredicted)
}

// categoryPrompt asks for recommendations scoped to one spending category.
func categoryPrompt(category string, spendingAmount float64, budgetLimit *float64) string {
	budgetLine := ""
	if budgetLimit != nil {
		budgetLine = fmt.Sprintf("Their budget limit for this category is ₹%.2f.\n", *budgetLimit)
	}
	return fmt.Sprintf(`Provide specific financial advice for someone who spent ₹%.2f on %s.
%s
Give 2-3 specific, actionable recommendations for this category.
Format as JSON: {"recommendations": ["advice1", "advice2", "advice3"]}`,
		spendingAmount, category, budgetLine)
}

func mustIndent(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
