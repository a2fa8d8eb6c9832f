package advice

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/apetrov/finsight/internal/domain"
)

// categoryTrend classifies a category's direction over the analysis period.
type categoryTrend struct {
	Trend            string  `json:"trend"`
	ChangePercentage float64 `json:"change_percentage"`
	MonthlyAverage   float64 `json:"monthly_average"`
}

// budgetStatus compares current spending against one budget limit.
type budgetStatus struct {
	Limit      float64 `json:"limit"`
	Spent      float64 `json:"spent"`
	Remaining  float64 `json:"remaining"`
	Percentage float64 `json:"percentage"`
	Status     string  `json:"status"`
}

// analysisData is the digested view of a request that feeds the prompt.
type analysisData struct {
	CurrentSpending      map[string]float64            `json:"current_spending"`
	MonthlySpending      map[string]map[string]float64 `json:"monthly_spending"`
	CategoryTrends       map[string]categoryTrend      `json:"category_trends"`
	BudgetStatus         map[string]budgetStatus       `json:"budget_status"`
	Predictions          map[string]float64            `json:"predictions"`
	TotalCurrent         float64                       `json:"total_current_spending"`
	TotalPeriod          float64                       `json:"total_period_spending"`
	AverageMonthly       float64                       `json:"average_monthly_spending"`
	TotalPredicted       float64                       `json:"total_predicted_spending"`
	AnalysisPeriodMonths int                           `json:"analysis_period_months"`
}

// prepareAnalysis aggregates the raw request into per-category totals, trend
// classifications and budget status the prompt is built from.
func prepareAnalysis(req domain.AdviceRequest) analysisData {
	periodMonths := req.AnalysisPeriodMonths
	if periodMonths <= 0 {
		periodMonths = 3
	}

	currentTotals := make(map[string]float64)
	for _, spending := range req.CurrentSpending {
		category := spending.Category
		if category == "" {
			category = "other"
		}
		currentTotals[category] += math.Abs(coerceNumber(spending.Total))
	}

	// Month keys are YYYY-MM strings, so lexical order is chronological.
	months := make([]string, 0, len(req.MonthlySpending))
	for month := range req.MonthlySpending {
		months = append(months, month)
	}
	sort.Strings(months)

	categoryAmounts := make(map[string][]float64)
	var periodTotal float64
	for _, month := range months {
		for category, amount := range req.MonthlySpending[month] {
			categoryAmounts[category] = append(categoryAmounts[category], amount)
			periodTotal += amount
		}
	}

	trends := make(map[string]categoryTrend)
	for category, amounts := range categoryAmounts {
		if len(amounts) < 2 {
			continue
		}
		recentAvg := (amounts[len(amounts)-1] + amounts[len(amounts)-2]) / 2
		var earlierAvg float64
		if len(amounts) > 2 {
			for _, a := range amounts[:len(amounts)-2] {
				earlierAvg += a
			}
			earlierAvg /= float64(len(amounts) - 2)
		} else {
			earlierAvg = amounts[0]
		}

		var changePct float64
		if earlierAvg > 0 {
			changePct = (recentAvg - earlierAvg) / earlierAvg * 100
		}
		trend := "stable"
		if changePct > 10 {
			trend = "increasing"
		} else if changePct < -10 {
			trend = "decreasing"
		}

		var sum float64
		for _, a := range amounts {
			sum += a
		}
		trends[category] = categoryTrend{
			Trend:            trend,
			ChangePercentage: round1(changePct),
			MonthlyAverage:   round2(sum / float64(len(amounts))),
		}
	}

	budgets := make(map[string]budgetStatus)
	for _, budget := range req.Budgets {
		category := budget.Category
		if category == "" {
			category = "other"
		}
		limit := coerceNumber(budget.LimitAmount)
		spent := currentTotals[category]
		var percentage float64
		if limit > 0 {
			percentage = spent / limit * 100
		}
		status := "good"
		if percentage > 100 {
			status = "over"
		} else if percentage > 80 {
			status = "warning"
		}
		budgets[category] = budgetStatus{
			Limit:      limit,
			Spent:      spent,
			Remaining:  limit - spent,
			Percentage: percentage,
			Status:     status,
		}
	}

	predictions := make(map[string]float64)
	var totalPredicted float64
	for _, prediction := range req.Predictions {
		predictions[prediction.Category] = prediction.PredictedAmount
		totalPredicted += prediction.PredictedAmount
	}

	var totalCurrent float64
	for _, amount := range currentTotals {
		totalCurrent += amount
	}

	return analysisData{
		CurrentSpending:      currentTotals,
		MonthlySpending:      req.MonthlySpending,
		CategoryTrends:       trends,
		BudgetStatus:         budgets,
		Predictions:          predictions,
		TotalCurrent:         totalCurrent,
		TotalPeriod:          periodTotal,
		AverageMonthly:       round2(periodTotal / float64(periodMonths)),
		TotalPredicted:       totalPredicted,
		AnalysisPeriodMonths: periodMonths,
	}
}

// coerceNumber handles the loose typing of caller-supplied amounts: JSON
// numbers and numeric strings both count, anything else is 0.
func coerceNumber(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
