package categorize

import "strings"

// categoryKeywords drives the rule-based first pass. A substring hit on the
// combined merchant+description text wins before any model is consulted.
var categoryKeywords = map[string][]string{
	"food":           {"restaurant", "cafe", "food", "grocery", "supermarket", "dining", "pizza", "burger", "coffee"},
	"transportation": {"gas", "fuel", "uber", "lyft", "taxi", "bus", "train", "metro", "parking", "toll"},
	"shopping":       {"store", "shop", "mall", "amazon", "target", "walmart", "clothing", "electronics"},
	"entertainment":  {"movie", "cinema", "theater", "netflix", "spotify", "game", "concert", "bar"},
	"utilities":      {"electric", "water", "internet", "phone", "cable", "utility", "bill"},
	"healthcare":     {"doctor", "hospital", "pharmacy", "medical", "health", "dental", "clinic"},
	"education":      {"school", "university", "college", "book", "tuition", "course", "education"},
	"travel":         {"hotel", "flight", "airline", "vacation", "trip", "booking", "travel"},
	"insurance":      {"insurance", "premium", "policy", "coverage"},
}

// ruleOrder keeps keyword matching deterministic: map iteration order would
// otherwise make ties between categories flap between runs.
var ruleOrder = []string{
	"food", "transportation", "shopping", "entertainment", "utilities",
	"healthcare", "education", "travel", "insurance",
}

// RuleCategory returns the first category whose keyword list matches the
// merchant+description text, or "other" when nothing matches.
func RuleCategory(merchant, description string) string {
	text := strings.ToLower(merchant + " " + description)
	for _, category := range ruleOrder {
		for _, keyword := range categoryKeywords[category] {
			if strings.Contains(text, keyword) {
				return category
			}
		}
	}
	return "other"
}
