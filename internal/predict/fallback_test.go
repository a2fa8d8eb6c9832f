package predict

import (
	"math"
	"testing"

	"github.com/apetrov/finsight/internal/domain"
)

func TestSeasonalMultiplier(t *testing.T) {
	tests := []struct {
		month    int
		category string
		want     float64
	}{
		{12, "food", 1.2},
		{12, "shopping", 1.8},
		{7, "travel", 1.5},
		{1, "utilities", 1.3},
		{12, "healthcare", 1.0}, // unlisted category
		{4, "shopping", 1.0},    // unlisted month
		{12, "unknown", 1.0},
	}

	for _, tt := range tests {
		if got := SeasonalMultiplier(tt.month, tt.category); got != tt.want {
			t.Errorf("SeasonalMultiplier(%d, %q) = %v, want %v", tt.month, tt.category, got, tt.want)
		}
	}
}

func TestTrendPredict(t *testing.T) {
	entries := []Entry{
		{Year: 2024, Month: 1, Category: "food", Amount: 90},
		{Year: 2024, Month: 2, Category: "food", Amount: 110},
	}
	table := BuildMonthlyTable(entries)

	predictions := TrendPredict(table, 12)
	if len(predictions) != len(domain.Categories) {
		t.Fatalf("got %d predictions, want %d", len(predictions), len(domain.Categories))
	}

	byCat := make(map[string]domain.CategoryPrediction)
	for _, p := range predictions {
		byCat[p.Category] = p
	}

	// Observed category: mean 100 times December food multiplier 1.2.
	food := byCat["food"]
	if math.Abs(food.PredictedAmount-120) > 1e-9 {
		t.Errorf("food prediction = %v, want 120", food.PredictedAmount)
	}
	if food.Confidence != 0.6 {
		t.Errorf("food confidence = %v, want 0.6", food.Confidence)
	}

	// Unobserved category: zero amount, low confidence.
	travel := byCat["travel"]
	if travel.PredictedAmount != 0 {
		t.Errorf("travel prediction = %v, want 0", travel.PredictedAmount)
	}
	if travel.Confidence != 0.3 {
		t.Errorf("travel confidence = %v, want 0.3", travel.Confidence)
	}
}

func TestTrendPredict_EmptyTable(t *testing.T) {
	table := BuildMonthlyTable(nil)

	predictions := TrendPredict(table, 6)
	if len(predictions) != len(domain.Categories) {
		t.Fatalf("got %d predictions, want %d", len(predictions), len(domain.Categories))
	}
	for _, p := range predictions {
		if p.PredictedAmount != 0 || p.Confidence != 0.3 {
			t.Errorf("%s = (%v, %v), want (0, 0.3)", p.Category, p.PredictedAmount, p.Confidence)
		}
	}
}
