package predict

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/apetrov/finsight/internal/domain"
)

// Entry is one normalized expense observation: the absolute amount spent on a
// category in a given month. Entries are the unit of the persisted training
// corpus.
type Entry struct {
	Year     int     `json:"year"`
	Month    int     `json:"month"`
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

// dateFormats accepted for record dates, tried in order.
var dateFormats = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
}

// Normalize converts raw records into clean entries. It fails soft: a record
// with an unparsable date or amount is dropped, never reported. Only expenses
// (negative amounts) are kept, with the sign flipped to a positive magnitude.
// A missing or empty category defaults to "other".
func Normalize(records []domain.SpendingRecord) []Entry {
	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		year, month, ok := parseDate(rec.Date)
		if !ok {
			continue
		}
		amount, ok := coerceAmount(rec.Amount)
		if !ok {
			continue
		}
		if amount >= 0 {
			continue
		}
		category := strings.TrimSpace(rec.Category)
		if category == "" {
			category = "other"
		}
		entries = append(entries, Entry{
			Year:     year,
			Month:    month,
			Category: category,
			Amount:   math.Abs(amount),
		})
	}
	return entries
}

func parseDate(s string) (year, month int, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, false
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Year(), int(t.Month()), true
		}
	}
	return 0, 0, false
}

// coerceAmount accepts the numeric types JSON decoding can produce plus
// numeric strings. Anything else marks the record as unparsable.
func coerceAmount(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, !math.IsNaN(val) && !math.IsInf(val, 0)
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
