package predict

import (
	"github.com/apetrov/finsight/internal/domain"
)

// seasonalFactors adjusts a category's average spend for specific calendar
// months. Pairs not listed here multiply by 1.0.
var seasonalFactors = map[string]map[int]float64{
	"food":          {11: 1.1, 12: 1.2, 1: 1.1, 6: 1.0, 7: 1.0, 8: 1.0},
	"shopping":      {11: 1.5, 12: 1.8, 1: 1.3, 6: 0.9, 7: 0.8, 8: 0.9},
	"entertainment": {11: 1.2, 12: 1.3, 1: 1.1, 6: 1.2, 7: 1.3, 8: 1.2},
	"travel":        {6: 1.4, 7: 1.5, 8: 1.4, 11: 1.1, 12: 1.2, 1: 0.8},
	"utilities":     {12: 1.2, 1: 1.3, 2: 1.2, 6: 1.1, 7: 1.2, 8: 1.1},
}

// SeasonalMultiplier returns the multiplier for (month, category), defaulting
// to 1.0 for unlisted pairs.
func SeasonalMultiplier(month int, category string) float64 {
	if byMonth, ok := seasonalFactors[category]; ok {
		if k, ok := byMonth[month]; ok {
			return k
		}
	}
	return 1.0
}

// TrendPredict produces a prediction from per-category monthly means and the
// seasonal multiplier table. Used whenever history is shorter than the
// sequence length. Confidence is 0.6 for categories with observed data and
// 0.3 for categories that never appeared in the input.
func TrendPredict(table *MonthlyTable, targetMonth int) []domain.CategoryPrediction {
	predictions := make([]domain.CategoryPrediction, 0, len(domain.Categories))
	for _, cat := range domain.Categories {
		if table.Observed(cat) {
			predictions = append(predictions, domain.CategoryPrediction{
				Category:        cat,
				PredictedAmount: table.CategoryMean(cat) * SeasonalMultiplier(targetMonth, cat),
				Confidence:      0.6,
			})
			continue
		}
		predictions = append(predictions, domain.CategoryPrediction{
			Category:        cat,
			PredictedAmount: 0,
			Confidence:      0.3,
		})
	}
	return predictions
}
