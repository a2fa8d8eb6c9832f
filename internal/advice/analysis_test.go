package advice

import (
	"math"
	"testing"

	"github.com/apetrov/finsight/internal/domain"
)

func TestPrepareAnalysis_CurrentTotals(t *testing.T) {
	data := prepareAnalysis(domain.AdviceRequest{
		CurrentSpending: []domain.CategorySpending{
			{Category: "food", Total: -120.5},
			{Category: "food", Total: "30"},
			{Category: "", Total: 10.0},
			{Category: "travel", Total: "garbage"},
		},
		AnalysisPeriodMonths: 3,
	})

	if got := data.CurrentSpending["food"]; got != 150.5 {
		t.Errorf("food total = %v, want 150.5", got)
	}
	if got := data.CurrentSpending["other"]; got != 10 {
		t.Errorf("empty category must land in other, got %v", got)
	}
	if got := data.CurrentSpending["travel"]; got != 0 {
		t.Errorf("unparsable amount = %v, want 0", got)
	}
	if data.TotalCurrent != 160.5 {
		t.Errorf("total current = %v, want 160.5", data.TotalCurrent)
	}
}

func TestPrepareAnalysis_TrendClassification(t *testing.T) {
	tests := []struct {
		name    string
		amounts map[string]map[string]float64
		want    string
	}{
		{
			"increasing",
			map[string]map[string]float64{
				"2025-01": {"food": 100}, "2025-02": {"food": 100}, "2025-03": {"food": 200}, "2025-04": {"food": 200},
			},
			"increasing",
		},
		{
			"decreasing",
			map[string]map[string]float64{
				"2025-01": {"food": 200}, "2025-02": {"food": 200}, "2025-03": {"food": 100}, "2025-04": {"food": 100},
			},
			"decreasing",
		},
		{
			"stable",
			map[string]map[string]float64{
				"2025-01": {"food": 100}, "2025-02": {"food": 102}, "2025-03": {"food": 101}, "2025-04": {"food": 99},
			},
			"stable",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := prepareAnalysis(domain.AdviceRequest{MonthlySpending: tt.amounts, AnalysisPeriodMonths: 3})
			trend, ok := data.CategoryTrends["food"]
			if !ok {
				t.Fatal("no trend for food")
			}
			if trend.Trend != tt.want {
				t.Errorf("trend = %q, want %q", trend.Trend, tt.want)
			}
		})
	}
}

func TestPrepareAnalysis_SingleMonthHasNoTrend(t *testing.T) {
	data := prepareAnalysis(domain.AdviceRequest{
		MonthlySpending:      map[string]map[string]float64{"2025-01": {"food": 100}},
		AnalysisPeriodMonths: 3,
	})
	if _, ok := data.CategoryTrends["food"]; ok {
		t.Error("one observation must not produce a trend")
	}
}

func TestPrepareAnalysis_BudgetStatus(t *testing.T) {
	data := prepareAnalysis(domain.AdviceRequest{
		CurrentSpending: []domain.CategorySpending{
			{Category: "food", Total: 150.0},
			{Category: "travel", Total: 85.0},
			{Category: "shopping", Total: 20.0},
		},
		Budgets: []domain.Budget{
			{Category: "food", LimitAmount: 100.0},
			{Category: "travel", LimitAmount: "100"},
			{Category: "shopping", LimitAmount: 100.0},
		},
		AnalysisPeriodMonths: 3,
	})

	if got := data.BudgetStatus["food"].Status; got != "over" {
		t.Errorf("food status = %q, want over", got)
	}
	if got := data.BudgetStatus["travel"].Status; got != "warning" {
		t.Errorf("travel status = %q, want warning", got)
	}
	if got := data.BudgetStatus["shopping"].Status; got != "good" {
		t.Errorf("shopping status = %q, want good", got)
	}
	if got := data.BudgetStatus["food"].Remaining; got != -50 {
		t.Errorf("food remaining = %v, want -50", got)
	}
}

func TestPrepareAnalysis_PeriodTotals(t *testing.T) {
	data := prepareAnalysis(domain.AdviceRequest{
		MonthlySpending: map[string]map[string]float64{
			"2025-01": {"food": 100, "travel": 50},
			"2025-02": {"food": 150},
		},
		Predictions: []domain.CategoryPrediction{
			{Category: "food", PredictedAmount: 130},
			{Category: "travel", PredictedAmount: 20},
		},
		AnalysisPeriodMonths: 3,
	})

	if data.TotalPeriod != 300 {
		t.Errorf("period total = %v, want 300", data.TotalPeriod)
	}
	if data.AverageMonthly != 100 {
		t.Errorf("average monthly = %v, want 100", data.AverageMonthly)
	}
	if data.TotalPredicted != 150 {
		t.Errorf("total predicted = %v, want 150", data.TotalPredicted)
	}
}

func TestPrepareAnalysis_DefaultPeriod(t *testing.T) {
	data := prepareAnalysis(domain.AdviceRequest{})
	if data.AnalysisPeriodMonths != 3 {
		t.Errorf("period = %d, want default 3", data.AnalysisPeriodMonths)
	}
}

func TestCoerceNumber(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  float64
	}{
		{"float", 12.5, 12.5},
		{"string", " 45.2 ", 45.2},
		{"negative string", "-3", -3},
		{"garbage", "abc", 0},
		{"nil", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := coerceNumber(tt.value); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("coerceNumber(%v) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
