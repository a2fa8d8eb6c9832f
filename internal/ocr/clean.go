package ocr

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/apetrov/finsight/internal/domain"
	"github.com/apetrov/finsight/internal/llm"
)

// receiptDateFormats are tried in order when the model returns a date in
// something other than YYYY-MM-DD.
var receiptDateFormats = []string{"2006-01-02", "01/02/2006", "02/01/2006"}

// cleanExtracted validates and normalizes the model's JSON output: dates are
// coerced to YYYY-MM-DD, amounts stripped of currency noise and made
// positive, confidence clamped to [0,1].
func (s *Service) cleanExtracted(data map[string]any) domain.Receipt {
	receipt := domain.Receipt{Items: []domain.ReceiptItem{}}

	receipt.Merchant = llm.Str(data, "merchant")

	if dateStr := llm.Str(data, "date"); dateStr != "" {
		receipt.Date = s.coerceDate(dateStr)
	}

	receipt.TotalAmount = cleanAmount(data["total_amount"])

	for _, item := range llm.Maps(data, "items") {
		receipt.Items = append(receipt.Items, domain.ReceiptItem{
			Description: llm.Str(item, "description"),
			Amount:      cleanAmount(item["amount"]),
		})
	}

	receipt.Category = strings.ToLower(llm.Str(data, "category"))

	if conf, ok := llm.Num(data, "confidence"); ok {
		receipt.Confidence = clamp01(conf)
	} else {
		receipt.Confidence = 0.8
	}

	return receipt
}

func (s *Service) coerceDate(dateStr string) string {
	for _, format := range receiptDateFormats {
		if parsed, err := time.Parse(format, dateStr); err == nil {
			return parsed.Format("2006-01-02")
		}
	}
	return s.now().Format("2006-01-02")
}

// cleanAmount coerces a loosely-typed amount, stripping currency symbols and
// separators and returning the absolute value. Unparsable input yields 0.
func cleanAmount(v any) float64 {
	var raw string
	switch val := v.(type) {
	case float64:
		if val < 0 {
			return -val
		}
		return val
	case string:
		raw = val
	default:
		return 0
	}

	replacer := strings.NewReplacer("₹", "", "$", "", ",", "", "rs", "", "RS", "", "Rs", "")
	n, err := strconv.ParseFloat(strings.TrimSpace(replacer.Replace(raw)), 64)
	if err != nil {
		return 0
	}
	if n < 0 {
		return -n
	}
	return n
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var (
	merchantPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)merchant[:\s]+([^\n]+)`),
		regexp.MustCompile(`(?i)store[:\s]+([^\n]+)`),
		regexp.MustCompile(`(?i)company[:\s]+([^\n]+)`),
	}
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`),
		regexp.MustCompile(`(\d{2}/\d{2}/\d{4})`),
		regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{4})`),
		regexp.MustCompile(`(\d{2}-\d{2}-\d{4})`),
		regexp.MustCompile(`(\d{1,2}-\d{1,2}-\d{4})`),
	}
	amountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)total[:\s]+(?:rs\.?\s*|₹\s*|\$\s*)?([\d,]+\.?\d*)`),
		regexp.MustCompile(`(?i)amount[:\s]+(?:rs\.?\s*|₹\s*|\$\s*)?([\d,]+\.?\d*)`),
		regexp.MustCompile(`[₹$]([\d,]+\.?\d*)`),
		regexp.MustCompile(`(?i)rs\.?\s*([\d,]+\.?\d*)`),
	}
)

// extractWithRegex scrapes merchant, date and total from free-form model
// text when strict JSON parsing fails.
func (s *Service) extractWithRegex(text string) domain.Receipt {
	receipt := domain.Receipt{
		Merchant:   "Unknown Merchant",
		Date:       s.now().Format("2006-01-02"),
		Items:      []domain.ReceiptItem{},
		Category:   "other",
		Confidence: 0.6,
	}

	for _, pattern := range merchantPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			receipt.Merchant = strings.TrimSpace(m[1])
			break
		}
	}
	for _, pattern := range datePatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			receipt.Date = m[1]
			break
		}
	}
	for _, pattern := range amountPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			if n, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
				if n < 0 {
					n = -n
				}
				receipt.TotalAmount = n
				break
			}
		}
	}
	return receipt
}
