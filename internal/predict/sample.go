package predict

import (
	"math"
	"math/rand"
	"time"

	"github.com/apetrov/finsight/internal/domain"
)

// sampleProfile holds the base monthly amount and noise magnitude per
// category used to synthesize bootstrap data.
var sampleProfile = map[string][2]float64{
	"food":           {300, 50},
	"transportation": {150, 30},
	"shopping":       {200, 80},
	"entertainment":  {100, 40},
	"utilities":      {250, 20},
	"healthcare":     {80, 30},
	"education":      {50, 20},
	"travel":         {120, 60},
	"insurance":      {200, 10},
	"other":          {100, 50},
}

// SampleCorpus synthesizes 24 months of realistic spending entries ending at
// now, used to bootstrap a fresh predictor when no persisted corpus exists.
// The generator is seeded so bootstrap training is deterministic.
func SampleCorpus(now time.Time) []Entry {
	rng := rand.New(rand.NewSource(42))
	entries := make([]Entry, 0, 24*len(domain.Categories))

	start := now.AddDate(0, -23, 0)
	for i := 0; i < 24; i++ {
		month := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, i, 0)

		for _, cat := range domain.Categories {
			profile := sampleProfile[cat]
			amount := profile[0] + rng.NormFloat64()*profile[1]

			// Seasonal variation: holiday shopping and summer travel.
			switch month.Month() {
			case time.November, time.December, time.January:
				if cat == "shopping" {
					amount *= 1.5
				}
				if cat == "entertainment" {
					amount *= 1.3
				}
			case time.June, time.July, time.August:
				if cat == "travel" {
					amount *= 1.4
				}
				if cat == "entertainment" {
					amount *= 1.2
				}
			}

			entries = append(entries, Entry{
				Year:     month.Year(),
				Month:    int(month.Month()),
				Category: cat,
				Amount:   math.Max(0, amount),
			})
		}
	}
	return entries
}
